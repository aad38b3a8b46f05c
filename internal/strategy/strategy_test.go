package strategy

import (
	"testing"

	"github.com/dgallion1/citegest/internal/document"
	"github.com/dgallion1/citegest/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const foundingText = "CHAPTER 1 — Founding Provisions\n1. Republic of X\nX is one sovereign democratic state.\n(a) equality\n(b) human dignity\n2. Supremacy\nThis is supreme law."

func reasons(ds []*errs.Error) []string {
	var out []string
	for _, d := range ds {
		out = append(out, d.Details["reason"].(string))
	}
	return out
}

func sectionNums(doc *document.ParsedDocument) []int {
	var out []int
	for _, s := range doc.AllSections() {
		out = append(out, s.Num)
	}
	return out
}

func TestChapterSectionFounding(t *testing.T) {
	doc, deg := NewChapterSection().Parse(foundingText, Options{})
	require.Empty(t, deg)
	require.Len(t, doc.Chapters, 1)

	ch := doc.Chapters[0]
	assert.Equal(t, 1, ch.Num)
	assert.Equal(t, "Founding Provisions", ch.Title)
	require.Len(t, ch.Sections, 2)

	s1 := ch.Sections[0]
	assert.Equal(t, 1, s1.Num)
	assert.Equal(t, "Republic of X", s1.Title)
	assert.Equal(t, "X is one sovereign democratic state.", s1.Content)
	require.Len(t, s1.Subsections, 2)
	assert.Equal(t, "a", s1.Subsections[0].Letter)
	assert.Equal(t, "equality", s1.Subsections[0].Content)
	assert.Equal(t, "b", s1.Subsections[1].Letter)
	assert.Equal(t, []string{"equality"}, s1.Keywords)

	assert.Equal(t, 2, ch.Sections[1].Num)
	assert.Equal(t, "This is supreme law.", ch.Sections[1].Content)
	assert.Empty(t, ch.Sections[1].Subsections)
}

func TestChapterSectionPreambles(t *testing.T) {
	raw := `We the people
adopt this text.

CHAPTER II: Rights
Everyone has rights
set out below.
3. Equality
Everyone is equal.
(a) before the law
and in practice
See (b) for detail.
CHAPTER 1 - Intro
1. Scope
Applies everywhere.`

	doc, deg := NewChapterSection().Parse(raw, Options{})
	assert.Equal(t, "We the people adopt this text.", doc.Preamble)
	require.Len(t, doc.Chapters, 2)
	assert.Equal(t, []string{ReasonReordered}, reasons(deg))

	assert.Equal(t, 1, doc.Chapters[0].Num)
	assert.Equal(t, "Intro", doc.Chapters[0].Title)

	rights := doc.Chapters[1]
	assert.Equal(t, 2, rights.Num)
	assert.Equal(t, "Rights", rights.Title)
	assert.Equal(t, "Everyone has rights set out below.", rights.Preamble)
	require.Len(t, rights.Sections, 1)

	eq := rights.Sections[0]
	assert.Equal(t, "Everyone is equal.", eq.Content)
	require.Len(t, eq.Subsections, 1)
	// Continuation lines and mid-line "(b)" stay with the open subsection.
	assert.Equal(t, "before the law and in practice See (b) for detail.", eq.Subsections[0].Content)
	require.NoError(t, doc.Validate())
}

func TestSubsectionRequiresText(t *testing.T) {
	raw := "1. Terms\nIntro.\n(a)\n(b) real clause"
	doc, _ := NewChapterSection().Parse(raw, Options{})
	s := doc.Chapters[0].Sections[0]
	assert.Equal(t, "Intro. (a)", s.Content)
	require.Len(t, s.Subsections, 1)
	assert.Equal(t, "b", s.Subsections[0].Letter)
}

func TestDuplicateSectionLastWins(t *testing.T) {
	raw := "CHAPTER 1 A\n1. First\nold text\n2. Second\ntwo\nCHAPTER 2 B\n1. First again\nnew text"
	doc, deg := NewChapterSection().Parse(raw, Options{})

	assert.Equal(t, []string{ReasonDuplicateSection}, reasons(deg))
	assert.Equal(t, 7, deg[0].Details["line"])
	require.Len(t, doc.Chapters, 2)
	assert.Equal(t, []int{2}, nums(doc.Chapters[0].Sections))
	assert.Equal(t, []int{1}, nums(doc.Chapters[1].Sections))
	assert.Equal(t, "new text", doc.Chapters[1].Sections[0].Content)
	require.NoError(t, doc.Validate())
}

func TestDuplicateChapterMerges(t *testing.T) {
	raw := "CHAPTER 1 A\n1. One\nCHAPTER 1\n2. Two"
	doc, deg := NewChapterSection().Parse(raw, Options{})
	assert.Equal(t, []string{ReasonDuplicateChapter}, reasons(deg))
	require.Len(t, doc.Chapters, 1)
	assert.Equal(t, []int{1, 2}, nums(doc.Chapters[0].Sections))
}

func TestSectionsWithoutChapterHeading(t *testing.T) {
	doc, deg := NewChapterSection().Parse("1. One\nbody\n2. Two\nmore", Options{Title: "Bylaws"})
	assert.Empty(t, deg)
	require.Len(t, doc.Chapters, 1)
	assert.Equal(t, 1, doc.Chapters[0].Num)
	assert.Equal(t, "Bylaws", doc.Chapters[0].Title)
	assert.Equal(t, []int{1, 2}, sectionNums(doc))
}

func TestOrphanSectionsBeforeFirstChapter(t *testing.T) {
	doc, deg := NewChapterSection().Parse("5. Stray\ntext\nCHAPTER 1 Real\n1. One", Options{})
	assert.Equal(t, []string{ReasonOrphanSections}, reasons(deg))
	require.Len(t, doc.Chapters, 2)
	assert.Equal(t, 0, doc.Chapters[0].Num)
	assert.Equal(t, []int{5, 1}, sectionNums(doc))
	require.NoError(t, doc.Validate())
}

func TestEmptyAndUnstructured(t *testing.T) {
	for _, s := range Builtins() {
		t.Run(s.ID()+"/empty", func(t *testing.T) {
			doc, deg := s.Parse("", Options{})
			require.NotNil(t, doc)
			assert.Empty(t, doc.Chapters)
			assert.Empty(t, deg)

			doc, _ = s.Parse("  \n\n\t\n", Options{})
			assert.Empty(t, doc.Chapters)
		})
		t.Run(s.ID()+"/prose", func(t *testing.T) {
			doc, deg := s.Parse("Just some prose\nwith no headings.", Options{Title: "Memo"})
			assert.Equal(t, []string{ReasonNoStructure}, reasons(deg))
			require.Len(t, doc.Chapters, 1)
			assert.Equal(t, "Memo", doc.Chapters[0].Title)
			require.Len(t, doc.Chapters[0].Sections, 1)
			assert.Equal(t, "Just some prose with no headings.", doc.Chapters[0].Sections[0].Content)
			assert.Empty(t, doc.Preamble)
		})
	}
}

func TestArticleStrategy(t *testing.T) {
	raw := `Preamble text.
Article 1 - Dignity
Human dignity is inviolable.
Art. 2: Right to life
(a) Everyone has the right to life.
ARTICLE 3
No title here.`

	doc, deg := NewArticle().Parse(raw, Options{Title: "Charter"})
	assert.Empty(t, deg)
	assert.Equal(t, "Preamble text.", doc.Preamble)
	require.Len(t, doc.Chapters, 1)
	assert.Equal(t, 1, doc.Chapters[0].Num)
	assert.Equal(t, "Charter", doc.Chapters[0].Title)

	secs := doc.Chapters[0].Sections
	require.Len(t, secs, 3)
	assert.Equal(t, "Dignity", secs[0].Title)
	assert.Equal(t, "Right to life", secs[1].Title)
	require.Len(t, secs[1].Subsections, 1)
	assert.Empty(t, secs[2].Title)
	assert.Equal(t, "No title here.", secs[2].Content)
}

func TestArticleWithParts(t *testing.T) {
	raw := "PART I General\nArticle 1 Scope\nx\nPART II — Rights\nArticle 2 Speech\ny\nArticle 3 Assembly\nz"
	doc, deg := NewArticle().Parse(raw, Options{})
	assert.Empty(t, deg)
	require.Len(t, doc.Chapters, 2)
	assert.Equal(t, "General", doc.Chapters[0].Title)
	assert.Equal(t, 2, doc.Chapters[1].Num)
	assert.Equal(t, "Rights", doc.Chapters[1].Title)
	assert.Equal(t, []int{2, 3}, nums(doc.Chapters[1].Sections))
}

func TestNumberedList(t *testing.T) {
	raw := "House rules\n1. Be kind\nto everyone.\n2) No shouting\n(a) ever\n10. Clean up"
	doc, deg := NewNumberedList().Parse(raw, Options{Title: "Rules"})
	assert.Empty(t, deg)
	assert.Equal(t, "House rules", doc.Preamble)
	require.Len(t, doc.Chapters, 1)
	secs := doc.Chapters[0].Sections
	require.Len(t, secs, 3)
	assert.Equal(t, "Be kind to everyone.", secs[0].Content)
	assert.Empty(t, secs[0].Title)
	assert.Equal(t, "No shouting (a) ever", secs[1].Content)
	assert.Empty(t, secs[1].Subsections)
	assert.Equal(t, 10, secs[2].Num)
}

func TestCustomStrategy(t *testing.T) {
	s, err := NewCustom("regulation", "Rule", CustomPatterns{
		Chapter: `^Division\s+(\d+)\s*(.*)$`,
		Section: `^Rule\s+(\d+)\.?\s*(.*)$`,
	})
	require.NoError(t, err)
	assert.Equal(t, "regulation", s.ID())
	assert.Equal(t, "Rule", s.DefaultLabel())

	doc, _ := s.Parse("Division 4 Fees\nRule 12. Amounts\nTen dollars.", Options{})
	require.Len(t, doc.Chapters, 1)
	assert.Equal(t, 4, doc.Chapters[0].Num)
	assert.Equal(t, "Amounts", doc.Chapters[0].Sections[0].Title)
	assert.Equal(t, 12, doc.Chapters[0].Sections[0].Num)
}

func TestCustomStrategyErrors(t *testing.T) {
	_, err := NewCustom("x", "", CustomPatterns{})
	assert.True(t, errs.Is(err, errs.KindConfiguration))

	_, err = NewCustom("x", "", CustomPatterns{Section: `(`})
	assert.True(t, errs.Is(err, errs.KindConfiguration))

	_, err = NewCustom("x", "", CustomPatterns{Section: `^Rule`})
	assert.True(t, errs.Is(err, errs.KindConfiguration))
}

func TestParseIsDeterministic(t *testing.T) {
	for _, s := range Builtins() {
		a, _ := s.Parse(foundingText, Options{})
		b, _ := s.Parse(foundingText, Options{})
		assert.Equal(t, a, b, s.ID())
		assert.NotSame(t, a, b)
	}
}

func TestInvariantsAcrossInputs(t *testing.T) {
	inputs := []string{
		foundingText,
		"CHAPTER 3 c\n9. x\n1. y\nCHAPTER 1 a\n9. z\n4. w",
		"3. c\n1. a\n3. again\n2. b",
		"Article 7\nArticle 2\nArticle 7 again\nPART 1 p\nArticle 1",
	}
	for _, s := range Builtins() {
		for _, in := range inputs {
			doc, _ := s.Parse(in, Options{})
			require.NoError(t, doc.Validate(), "%s: %q", s.ID(), in)
		}
	}
}

func TestRoman(t *testing.T) {
	tests := map[string]int{"I": 1, "IV": 4, "IX": 9, "XIV": 14, "XL": 40, "MCMXCIV": 1994}
	for in, want := range tests {
		got, ok := parseRoman(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "IIII", "VX", "iv", "civil", "ABC"} {
		_, ok := parseRoman(bad)
		assert.False(t, ok, bad)
	}
}

func TestExtractKeywords(t *testing.T) {
	got := ExtractKeywords("Equality", "The LAW protects rights and duty.", DefaultKeywords)
	assert.Equal(t, []string{"rights", "equality", "law", "duty"}, got)

	many := make([]string, 0, 20)
	text := ""
	for i := 0; i < 20; i++ {
		w := string(rune('a'+i)) + "word"
		many = append(many, w)
		text += w + " "
	}
	assert.Len(t, ExtractKeywords("", text, many), MaxKeywords)
}

func nums(secs []document.Section) []int {
	var out []int
	for _, s := range secs {
		out = append(out, s.Num)
	}
	return out
}
