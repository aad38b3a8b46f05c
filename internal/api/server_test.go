package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/citegest/internal/config"
	"github.com/dgallion1/citegest/internal/content"
	"github.com/dgallion1/citegest/internal/drafts"
	"github.com/dgallion1/citegest/internal/llm"
	"github.com/dgallion1/citegest/internal/llm/llmtest"
	"github.com/dgallion1/citegest/internal/loader"
	"github.com/dgallion1/citegest/internal/modes"
	"github.com/dgallion1/citegest/internal/pipeline"
	"github.com/dgallion1/citegest/internal/retriever"
	"github.com/dgallion1/citegest/internal/strategy"
)

const constitution = `CHAPTER 1 — Founding Provisions
1. Republic of X
X is one sovereign democratic state.
2. Supremacy
This is supreme law.
CHAPTER 2 — Bill of Rights
9. Equality
Everyone is equal before the law and has the right to equal protection.
10. Human dignity
Everyone has inherent dignity.`

const tweet = "Section 9 says everyone is equal before the law. #KnowYourRights"

const apiKey = "test-key"

type fixture struct {
	srv    *httptest.Server
	fake   *llmtest.Fake
	docs   *retriever.Store
	drafts *drafts.Memory
	stats  *llm.LLMStats
}

func newFixture(t *testing.T, publish bool) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		APIKey:               apiKey,
		DocumentStrategy:     strategy.ChapterSection,
		MaxUploadBytes:       1 << 20,
		WorkerCount:          1,
		MaxQueueSize:         4,
		JobTTL:               time.Hour,
		GenerationMaxRetries: 1,
	}

	f := &fixture{
		fake:   llmtest.New(tweet),
		docs:   &retriever.Store{},
		drafts: drafts.NewMemory(),
		stats:  llm.NewLLMStats(time.Hour),
	}
	events, err := content.NewCatalog([]content.Event{{Date: "12-10", Name: "Signing Day", RelatedSections: []int{1}}})
	require.NoError(t, err)
	gen := modes.New(llm.WithStats(f.fake, f.stats), nil, events, modes.Config{}, log)
	l := loader.New(log)

	if publish {
		doc, err := l.Load(constitution, strategy.ChapterSection, loader.Metadata{Name: "Constitution of X"})
		require.NoError(t, err)
		f.docs.PublishIfChanged(&retriever.Snapshot{Retriever: retriever.New(doc, retriever.Config{}), ContentHash: "h", Strategy: strategy.ChapterSection})
	}

	orch := pipeline.NewOrchestrator(cfg, pipeline.Deps{
		Loader: l, Documents: f.docs, Generator: gen, Drafts: f.drafts,
	}, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	s := NewServer(Deps{
		Orchestrator: orch, Loader: l, Documents: f.docs, Generator: gen, Drafts: f.drafts, Stats: f.stats,
	}, log, cfg)
	f.srv = httptest.NewServer(s)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body io.Reader, contentType string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, map[string]any) {
	return f.do(t, http.MethodGet, path, nil, "")
}

func TestHealthIsPublic(t *testing.T) {
	f := newFixture(t, true)
	resp, err := http.Get(f.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuth(t *testing.T) {
	f := newFixture(t, true)
	resp, err := http.Get(f.srv.URL + "/api/document")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, f.srv.URL+"/api/document", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ = http.NewRequest(http.MethodGet, f.srv.URL+"/api/document", nil)
	req.Header.Set("X-API-Key", apiKey)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNoDocument(t *testing.T) {
	f := newFixture(t, false)
	resp, body := f.get(t, "/api/sections/1")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["kind"])
}

func TestQueries(t *testing.T) {
	f := newFixture(t, true)

	resp, body := f.get(t, "/api/document")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["first_section"])
	assert.Equal(t, float64(10), body["last_section"])

	resp, body = f.get(t, "/api/sections/9")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Section 9 (Equality)", body["display"])

	resp, body = f.get(t, "/api/sections/99")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["kind"])

	resp, _ = f.get(t, "/api/sections/nine")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = f.get(t, "/api/sections/10/context")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, body["previous"])
	assert.Nil(t, body["next"])

	resp, body = f.get(t, "/api/chapters/2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bill of Rights", body["title"])

	resp, body = f.get(t, "/api/citations/resolve?q=section%209%20(Equality)")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(9), body["section_num"])

	resp, body = f.get(t, "/api/search?q=dignity")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["results"], 1)

	resp, body = f.get(t, "/api/events?date=12-10")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["events"], 1)
}

func TestGenerateSync(t *testing.T) {
	f := newFixture(t, true)
	payload := `{"mode":"user_provided","section_nums":[9]}`
	resp, body := f.do(t, http.MethodPost, "/api/generate", strings.NewReader(payload), "application/json")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "ready", body["status"])
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)

	resp, body = f.get(t, "/api/drafts")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["drafts"], 1)

	resp, _ = f.get(t, "/api/drafts/"+id)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodDelete, "/api/drafts/"+id, nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = f.get(t, "/api/drafts/"+id)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = f.get(t, "/api/stats/llm")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := body["stats"].(map[string]any)
	assert.Equal(t, float64(1), stats["count"])
}

func TestGenerateErrors(t *testing.T) {
	f := newFixture(t, true)

	resp, body := f.do(t, http.MethodPost, "/api/generate", strings.NewReader(`{"mode":"sonnet"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_INPUT", body["kind"])

	resp, _ = f.do(t, http.MethodPost, "/api/generate", strings.NewReader(`{`), "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	f.fake.Unavailable = true
	resp, body = f.do(t, http.MethodPost, "/api/generate", strings.NewReader(`{"mode":"user_provided","section_nums":[9]}`), "application/json")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "PROVIDER_UNAVAILABLE", body["kind"])
	assert.Empty(t, f.fake.Calls())
}

func TestGenerateAsync(t *testing.T) {
	f := newFixture(t, true)
	resp, body := f.do(t, http.MethodPost, "/api/generate?async=true", strings.NewReader(`{"mode":"user_provided","section_nums":[9]}`), "application/json")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	poll := body["poll_url"].(string)

	resp, job := f.get(t, poll+"?wait=5s")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(pipeline.StatusCompleted), job["status"])

	resp, body = f.get(t, poll+"?wait=soon")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_INPUT", body["kind"])
}

func TestReviseDraft(t *testing.T) {
	f := newFixture(t, true)
	resp, body := f.do(t, http.MethodPost, "/api/generate", strings.NewReader(`{"mode":"user_provided","section_nums":[9]}`), "application/json")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	id := body["id"].(string)

	edit := `{"content":"Section 10 says everyone has inherent dignity. #Dignity"}`
	resp, body = f.do(t, http.MethodPatch, "/api/drafts/"+id, strings.NewReader(edit), "application/json")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, "Section 10 says everyone has inherent dignity. #Dignity", body["formatted_content"])

	saved, err := f.drafts.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []string{"Section 10 says everyone has inherent dignity. #Dignity"}, saved.Posts)

	edit = `{"content":"You should sue them under Section 9 right away, it is clear."}`
	resp, body = f.do(t, http.MethodPatch, "/api/drafts/"+id, strings.NewReader(edit), "application/json")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "needs_review", body["status"])

	resp, _ = f.do(t, http.MethodPatch, "/api/drafts/nope", strings.NewReader(edit), "application/json")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = f.do(t, http.MethodPatch, "/api/drafts/"+id, strings.NewReader(`{"content":"  "}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIngestUpload(t *testing.T) {
	f := newFixture(t, false)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "constitution.txt")
	require.NoError(t, err)
	_, _ = fw.Write([]byte(constitution))
	require.NoError(t, mw.WriteField("name", "Constitution of X"))
	require.NoError(t, mw.Close())

	resp, body := f.do(t, http.MethodPost, "/api/documents", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusAccepted, resp.StatusCode, body)
	poll := body["poll_url"].(string)

	require.Eventually(t, func() bool { return f.docs.Current() != nil }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "Constitution of X", f.docs.Current().Retriever.Document().Name)

	require.Eventually(t, func() bool {
		_, job := f.get(t, poll)
		return job["status"] == string(pipeline.StatusCompleted)
	}, 5*time.Second, 10*time.Millisecond)
}

func TestIngestRejectsBadInput(t *testing.T) {
	f := newFixture(t, false)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "data.csv")
	_, _ = fw.Write([]byte("a,b"))
	require.NoError(t, mw.Close())
	resp, _ := f.do(t, http.MethodPost, "/api/documents", &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	buf.Reset()
	mw = multipart.NewWriter(&buf)
	fw, _ = mw.CreateFormFile("file", "c.txt")
	_, _ = fw.Write([]byte(constitution))
	_ = mw.WriteField("strategy", "sonnet")
	require.NoError(t, mw.Close())
	resp, body := f.do(t, http.MethodPost, "/api/documents", &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "CONFIGURATION", body["kind"])
}

func TestProviders(t *testing.T) {
	f := newFixture(t, true)
	resp, body := f.get(t, "/api/providers")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "fake", body["provider"])
	assert.Equal(t, true, body["available"])
	assert.Len(t, body["supported"], 3)
}
