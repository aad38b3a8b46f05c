package document

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ExcerptLength bounds CitationReference excerpts, in characters.
const ExcerptLength = 200

// CitationReference is a display projection of a section. It is always
// rebuilt from the document and never stored as the source of truth.
type CitationReference struct {
	SectionNum   int    `json:"section_num"`
	SectionTitle string `json:"section_title,omitempty"`
	ChapterNum   int    `json:"chapter_num,omitempty"`
	ChapterTitle string `json:"chapter_title,omitempty"`
	Excerpt      string `json:"excerpt,omitempty"`
	SectionLabel string `json:"section_label"`
}

// NewCitation projects a section and its chapter into a reference.
// ch may be nil.
func NewCitation(label string, s *Section, ch *Chapter) CitationReference {
	if label == "" {
		label = DefaultSectionLabel
	}
	ref := CitationReference{
		SectionNum:   s.Num,
		SectionTitle: s.Title,
		Excerpt:      Excerpt(s.Content, ExcerptLength),
		SectionLabel: label,
	}
	if ch != nil {
		ref.ChapterNum = ch.Num
		ref.ChapterTitle = ch.Title
	}
	return ref
}

// Label returns "{label} {num}".
func (c CitationReference) Label() string {
	return fmt.Sprintf("%s %d", c.SectionLabel, c.SectionNum)
}

// Display returns "{label} {num}" with the title in parentheses when known.
func (c CitationReference) Display() string {
	if c.SectionTitle == "" {
		return c.Label()
	}
	return fmt.Sprintf("%s (%s)", c.Label(), c.SectionTitle)
}

var citationRe = regexp.MustCompile(`^\s*(\p{L}[\p{L}.]*)\s+(\d+)\s*(?:\((.*)\))?\s*$`)

// ParseCitation reverses Display: it accepts "Article 12" and
// "Article 12 (Title)" and returns the label and number.
func ParseCitation(s string) (label string, num int, ok bool) {
	m := citationRe.FindStringSubmatch(s)
	if m == nil {
		return "", 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1], n, true
}

// Excerpt truncates text to at most n runes, appending "..." when cut.
func Excerpt(text string, n int) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	r := []rune(text)
	return string(r[:n]) + "..."
}
