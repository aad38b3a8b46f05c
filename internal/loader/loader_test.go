package loader

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/dgallion1/citegest/internal/errs"
	"github.com/dgallion1/citegest/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const founding = "CHAPTER 1 — Founding Provisions\n1. Republic of X\nX is one sovereign democratic state.\n(a) equality\n(b) human dignity\n2. Supremacy\nThis is supreme law."

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestLoadStampsMetadata(t *testing.T) {
	l := New(quiet())
	doc, err := l.Load(founding, strategy.ChapterSection, Metadata{Name: "Constitution of X", Description: "supreme law"})
	require.NoError(t, err)
	assert.Equal(t, "Constitution of X", doc.Name)
	assert.Equal(t, "Constitution of X", doc.ShortName)
	assert.Equal(t, "supreme law", doc.Description)
	assert.Equal(t, "Section", doc.SectionLabel)
	assert.Equal(t, 2, doc.SectionCount())
}

func TestLoadLabelDefaults(t *testing.T) {
	l := New(quiet())
	doc, err := l.Load("Article 1 X\ntext", strategy.Article, Metadata{})
	require.NoError(t, err)
	assert.Equal(t, "Article", doc.SectionLabel)
	assert.Equal(t, "Untitled", doc.Name)

	doc, err = l.Load("Article 1 X\ntext", strategy.Article, Metadata{SectionLabel: "Artikel"})
	require.NoError(t, err)
	assert.Equal(t, "Artikel", doc.SectionLabel)
}

func TestLoadUnknownStrategy(t *testing.T) {
	l := New(quiet())
	_, err := l.Load(founding, "sonnet", Metadata{})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindConfiguration))
}

func TestLoadIsIdempotent(t *testing.T) {
	l := New(quiet())
	a, err := l.Load(founding, strategy.ChapterSection, Metadata{Name: "X"})
	require.NoError(t, err)
	b, err := l.Load(founding, strategy.ChapterSection, Metadata{Name: "X"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotSame(t, a, b)
}

func TestLoadLogsDegradations(t *testing.T) {
	var buf bytes.Buffer
	l := New(slog.New(slog.NewJSONHandler(&buf, nil)))
	_, err := l.Load("1. A\nx\n1. A again\ny", strategy.ChapterSection, Metadata{Name: "dup"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"reason":"duplicate_section"`)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}

func TestRegisterCustom(t *testing.T) {
	l := New(quiet())
	s, err := strategy.NewCustom("rules", "Rule", strategy.CustomPatterns{Section: `^Rule (\d+)\s*(.*)$`})
	require.NoError(t, err)
	l.Register(s)
	assert.Equal(t, []string{"article", "chapter_section", "numbered_list", "rules"}, l.StrategyIDs())

	doc, err := l.Load("Rule 3 Quiet\nNo noise.", "rules", Metadata{Name: "House"})
	require.NoError(t, err)
	assert.Equal(t, "Rule", doc.SectionLabel)
	assert.Equal(t, "Quiet", doc.Chapters[0].Sections[0].Title)
}

func TestLoadFile(t *testing.T) {
	l := New(quiet())
	doc, err := l.LoadFile(strings.NewReader(founding), "constitution.txt", strategy.ChapterSection, Metadata{})
	require.NoError(t, err)
	assert.Equal(t, "constitution", doc.Name)
	assert.Equal(t, 2, doc.SectionCount())

	_, err = l.LoadFile(strings.NewReader("x"), "data.csv", strategy.ChapterSection, Metadata{})
	assert.True(t, errs.Is(err, errs.KindInvalidInput))

	_, err = l.LoadFile(strings.NewReader("x"), "a.txt", "nope", Metadata{})
	assert.True(t, errs.Is(err, errs.KindConfiguration))
}

func TestLoadMarkdownFile(t *testing.T) {
	md := "## CHAPTER 1 — Founding Provisions\n\n1. Republic of X\n   X is one sovereign democratic state.\n2. Supremacy\n   This is supreme law.\n"
	l := New(quiet())
	doc, err := l.LoadFile(strings.NewReader(md), "c.md", strategy.ChapterSection, Metadata{Name: "C"})
	require.NoError(t, err)
	require.Len(t, doc.Chapters, 1)
	assert.Equal(t, "Founding Provisions", doc.Chapters[0].Title)
	require.Len(t, doc.Chapters[0].Sections, 2)
	assert.Equal(t, "This is supreme law.", doc.Chapters[0].Sections[1].Content)
}
