package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/citegest/internal/errs"
	"github.com/dgallion1/citegest/internal/llm"
	"github.com/dgallion1/citegest/internal/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MAX_POST_LENGTH", "")
	t.Setenv("WORKER_COUNT", "-1")
	t.Setenv("JOB_TTL", "nonsense")
	cfg := Load()
	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, 280, cfg.MaxPostLength)
	assert.Equal(t, 10, cfg.MaxThreadPosts)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, time.Hour, cfg.JobTTL)
	assert.Equal(t, DraftsSQLite, cfg.DraftsBackend)
	assert.True(t, cfg.Disclaimers)

	t.Setenv("DISCLAIMERS", "false")
	assert.False(t, Load().Disclaimers)
}

func TestValidate(t *testing.T) {
	cfg := Config{APIKey: "k", LLMProvider: llm.Ollama, DraftsBackend: DraftsNone}
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.APIKey = ""
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.LLMProvider = "gemini"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.DraftsBackend = DraftsPathstore
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.DraftsBackend = "redis"
	assert.Error(t, bad.Validate())
}

func TestProviderConfig(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-test")
	t.Setenv("ANTHROPIC_API_KEY", "should-not-leak")
	t.Setenv("LLM_TIMEOUT", "5s")

	pc := Load().ProviderConfig()
	assert.Equal(t, llm.OpenAI, pc.Provider)
	assert.Equal(t, "sk-test", pc.APIKey)
	assert.Equal(t, "gpt-test", pc.Model)
	assert.Equal(t, 5*time.Second, pc.Timeout)

	p, err := llm.New(pc)
	require.NoError(t, err)
	assert.Equal(t, "openai", p.ProviderName())
}

const manifestYAML = `
document:
  name: House Rules
  section_label: Rule
strategy: rules
featured_chapter: 1
default_hashtags: ["#HouseRules"]
topic_keywords:
  noise: [quiet, loud]
strategies:
  - id: rules
    label: Rule
    patterns:
      section: '^Rule (\d+)\s*(.*)$'
events:
  - date: "2001-05-04"
    name: Founding
    related_sections: [3]
`

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifestYAML), 0o600))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "House Rules", m.Document.Name)
	assert.Equal(t, 1, m.FeaturedChapter)
	assert.Equal(t, []string{"#HouseRules"}, m.Hashtags)
	assert.Equal(t, []string{"quiet", "loud"}, m.TopicKeywords["noise"])

	l := loader.New(nil)
	require.NoError(t, m.Register(l))
	doc, err := l.Load("Rule 3 Quiet\nNo noise after ten.", m.Strategy, m.Document)
	require.NoError(t, err)
	assert.Equal(t, "Rule", doc.SectionLabel)
	assert.Equal(t, 1, doc.SectionCount())

	cat, err := m.Catalog()
	require.NoError(t, err)
	require.Len(t, cat.All(), 1)
}

func TestLoadManifestErrors(t *testing.T) {
	m, err := LoadManifest("")
	require.NoError(t, err)
	assert.Empty(t, m.Strategies)

	_, err = LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("document: [unclosed"), 0o600))
	_, err = LoadManifest(path)
	assert.True(t, errs.Is(err, errs.KindConfiguration))
}
