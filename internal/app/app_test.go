package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/citegest/internal/config"
	"github.com/dgallion1/citegest/internal/errs"
	"github.com/dgallion1/citegest/internal/llm"
)

const rules = "Rule 1 Quiet\nNo noise after ten.\nRule 2 Guests\nGuests sign in at the desk."

const manifest = `
document:
  name: House Rules
strategy: rules
featured_chapter: 1
strategies:
  - id: rules
    label: Rule
    patterns:
      section: '^Rule (\d+)\s*(.*)$'
events:
  - date: "05-04"
    name: Founding
`

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestNewAndLoadDocument(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{
		LLMProvider:      llm.Anthropic,
		DocumentStrategy: "chapter_section",
		DocumentManifest: write(t, dir, "manifest.yaml", manifest),
		DraftsBackend:    config.DraftsSQLite,
		DraftsDBPath:     filepath.Join(dir, "drafts.db"),
	}
	a, err := New(cfg, quiet())
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "rules", a.Config.DocumentStrategy)
	assert.Nil(t, a.Current())
	// No credential: generation reports unavailable rather than failing to build.
	assert.False(t, a.Generator.Provider().IsAvailable(context.Background()))
	assert.Len(t, a.Generator.Events().All(), 1)

	require.NoError(t, a.LoadDocument(context.Background(), write(t, dir, "rules.txt", rules)))
	r := a.Current()
	require.NotNil(t, r)
	assert.Equal(t, "House Rules", r.Document().Name)
	assert.Equal(t, "Rule", r.Label())
	assert.Len(t, r.FeaturedSections(), 2)
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(config.Config{LLMProvider: "gemini", DraftsBackend: config.DraftsNone}, quiet())
	assert.True(t, errs.Is(err, errs.KindConfiguration))

	_, err = New(config.Config{LLMProvider: llm.Ollama, DocumentManifest: filepath.Join(t.TempDir(), "missing.yaml")}, quiet())
	assert.Error(t, err)
}

func TestLoadDocumentErrors(t *testing.T) {
	a, err := New(config.Config{LLMProvider: llm.Ollama, DocumentStrategy: "chapter_section", DraftsBackend: config.DraftsNone}, quiet())
	require.NoError(t, err)
	defer a.Close()

	assert.Error(t, a.LoadDocument(context.Background(), filepath.Join(t.TempDir(), "missing.txt")))
	err = a.LoadDocument(context.Background(), write(t, t.TempDir(), "data.csv", "a,b"))
	assert.True(t, errs.Is(err, errs.KindInvalidInput))
}
