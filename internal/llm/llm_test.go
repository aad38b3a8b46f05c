package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgallion1/citegest/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// noNetwork fails the test if any request is attempted.
func noNetwork(t *testing.T) *http.Client {
	return &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		t.Errorf("unexpected network call to %s", r.URL)
		return nil, errors.New("network disabled")
	})}
}

func TestMissingCredential(t *testing.T) {
	for _, name := range []string{Anthropic, OpenAI} {
		t.Run(name, func(t *testing.T) {
			p, err := New(Config{Provider: name, HTTPClient: noNetwork(t)})
			require.NoError(t, err)
			assert.False(t, p.IsAvailable(context.Background()))

			_, err = p.Generate(context.Background(), "hello", Options{})
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.KindConfiguration), err)

			_, err = p.GenerateWithMessages(context.Background(), []Message{{RoleUser, "hi"}}, Options{})
			assert.True(t, errs.Is(err, errs.KindConfiguration), err)
		})
	}
}

func TestFactory(t *testing.T) {
	_, err := New(Config{Provider: "palm"})
	assert.True(t, errs.Is(err, errs.KindConfiguration))

	p, err := New(Config{Provider: " Anthropic ", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, Anthropic, p.ProviderName())
	assert.Equal(t, defaultAnthropicModel, p.ModelName())
	assert.True(t, p.IsAvailable(context.Background()))

	p, _ = New(Config{Provider: OpenAI, Model: "gpt-4o-mini"})
	assert.Equal(t, "gpt-4o-mini", p.ModelName())

	p, _ = New(Config{Provider: Ollama})
	assert.Equal(t, defaultOllamaModel, p.ModelName())
}

type textBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func TestAnthropicRequest(t *testing.T) {
	var got struct {
		Model       string      `json:"model"`
		MaxTokens   int         `json:"max_tokens"`
		System      []textBlock `json:"system"`
		Temperature *float64    `json:"temperature"`
		Messages    []struct {
			Role    string      `json:"role"`
			Content []textBlock `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.NotEmpty(t, r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"m","content":[{"type":"text","text":"Section 9 says "},{"type":"text","text":"so."}]}`))
	}))
	defer srv.Close()

	c := NewAnthropic(Config{APIKey: "secret", BaseURL: srv.URL, MaxTokens: 512})
	out, err := c.GenerateWithMessages(context.Background(), []Message{
		{RoleSystem, "inline rule"},
		{RoleUser, "a"},
		{RoleUser, "b"},
	}, Options{System: "be neutral", Temperature: Temperature(0.8)})
	require.NoError(t, err)
	assert.Equal(t, "Section 9 says so.", out)

	assert.Equal(t, defaultAnthropicModel, got.Model)
	require.Len(t, got.System, 1)
	assert.Equal(t, "be neutral\n\ninline rule", got.System[0].Text)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, RoleUser, got.Messages[0].Role)
	assert.Equal(t, []textBlock{{Type: "text", Text: "a\n\nb"}}, got.Messages[0].Content)
	assert.Equal(t, 512, got.MaxTokens)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.8, *got.Temperature, 1e-9)
}

func TestZeroTemperatureIsSent(t *testing.T) {
	var temps []*float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Temperature *float64 `json:"temperature"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		temps = append(temps, body.Temperature)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/messages":
			w.Write([]byte(`{"content":[{"type":"text","text":"ok"}]}`))
		case "/v1/chat/completions":
			w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
		default:
			w.Write([]byte(`{"message":{"role":"assistant","content":"ok"}}`))
		}
	}))
	defer srv.Close()

	for _, p := range []Provider{
		NewAnthropic(Config{APIKey: "k", BaseURL: srv.URL}),
		NewOpenAI(Config{APIKey: "k", BaseURL: srv.URL}),
	} {
		_, err := p.Generate(context.Background(), "x", Options{Temperature: Temperature(0)})
		require.NoError(t, err, p.ProviderName())
	}
	require.Len(t, temps, 2)
	for _, tp := range temps {
		require.NotNil(t, tp)
		assert.Zero(t, *tp)
	}

	assert.Equal(t, 0.0, Options{Temperature: Temperature(0)}.temperature())
	assert.Equal(t, DefaultTemperature, Options{}.temperature())
}

func TestProviderErrors(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"nope"}`, tt.status)
		}))
		for _, p := range []Provider{
			NewAnthropic(Config{APIKey: "k", BaseURL: srv.URL}),
			NewOpenAI(Config{APIKey: "k", BaseURL: srv.URL}),
			NewOllama(Config{BaseURL: srv.URL}),
		} {
			_, err := p.Generate(context.Background(), "x", Options{})
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.KindProvider), "%s %d", p.ProviderName(), tt.status)
			assert.Equal(t, tt.retryable, errs.IsRetryable(err), "%s %d", p.ProviderName(), tt.status)
		}
		srv.Close()
	}
}

func TestTransportFailureIsProviderError(t *testing.T) {
	refused := &http.Client{Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: refused")
	})}
	for _, p := range []Provider{
		NewAnthropic(Config{APIKey: "k", HTTPClient: refused}),
		NewOpenAI(Config{APIKey: "k", HTTPClient: refused}),
	} {
		_, err := p.Generate(context.Background(), "x", Options{})
		assert.True(t, errs.Is(err, errs.KindProvider), p.ProviderName())
		assert.True(t, errs.IsRetryable(err), p.ProviderName())
	}
}

func TestCancelledCallIsNotRetryable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	blocked := &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return nil, r.Context().Err()
	})}
	_, err := NewOpenAI(Config{APIKey: "k", HTTPClient: blocked}).Generate(ctx, "x", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errs.IsRetryable(err))
}

func TestOpenAIRequest(t *testing.T) {
	var got struct {
		Model       string   `json:"model"`
		MaxTokens   int      `json:"max_tokens"`
		Temperature *float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content any    `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAI(Config{APIKey: "k", BaseURL: srv.URL})
	out, err := c.Generate(context.Background(), "q", Options{System: "sys"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, defaultOpenAIModel, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, RoleSystem, got.Messages[0].Role)
	assert.Equal(t, "sys", got.Messages[0].Content)
	assert.Equal(t, RoleUser, got.Messages[1].Role)
	assert.Equal(t, "q", got.Messages[1].Content)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, DefaultTemperature, *got.Temperature, 1e-9)
}

func TestAPIBase(t *testing.T) {
	tests := map[string]string{
		"":                                      defaultOpenAIBase,
		"http://localhost:8080":                 "http://localhost:8080/v1/",
		"http://localhost:8080/v1/":             "http://localhost:8080/v1/",
		"https://x.example/v1/chat/completions": "https://x.example/v1/",
		"https://x.example/openai/chat/completions": "https://x.example/openai/",
	}
	for in, want := range tests {
		assert.Equal(t, want, apiBase(in), in)
	}
}

func TestOllama(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.Write([]byte(`{"models":[{"name":"llama3.2:latest"},{"name":"mistral"}]}`))
		case "/api/chat":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Write([]byte(`{"message":{"role":"assistant","content":"local answer"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	assert.True(t, NewOllama(Config{BaseURL: srv.URL}).IsAvailable(ctx))
	assert.True(t, NewOllama(Config{BaseURL: srv.URL, Model: "llama3.2:latest"}).IsAvailable(ctx))
	assert.True(t, NewOllama(Config{BaseURL: srv.URL, Model: "mistral"}).IsAvailable(ctx))
	assert.False(t, NewOllama(Config{BaseURL: srv.URL, Model: "phi3"}).IsAvailable(ctx))

	c := NewOllama(Config{BaseURL: srv.URL, MaxTokens: 256})
	models, err := c.ListModels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3.2:latest", "mistral"}, models)

	out, err := c.Generate(ctx, "q", Options{System: "sys"})
	require.NoError(t, err)
	assert.Equal(t, "local answer", out)
	assert.False(t, got.Stream)
	assert.Equal(t, 256, got.Options.NumPredict)
	assert.Equal(t, RoleSystem, got.Messages[0].Role)
}

func TestOllamaUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	assert.False(t, NewOllama(Config{BaseURL: url}).IsAvailable(context.Background()))
}

func TestEmptyMessages(t *testing.T) {
	c := NewAnthropic(Config{APIKey: "k", HTTPClient: noNetwork(t)})
	_, err := c.GenerateWithMessages(context.Background(), []Message{{RoleUser, "  "}}, Options{})
	assert.True(t, errs.Is(err, errs.KindInvalidInput))
}
