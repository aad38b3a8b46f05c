package document

import (
	"fmt"
	"strings"
)

// DefaultSectionLabel is used when a document does not name its units.
const DefaultSectionLabel = "Section"

// Subsection is a lettered clause inside a section, e.g. "(a) equality".
type Subsection struct {
	Letter  string `json:"letter"`
	Content string `json:"content"`
}

// Section is the addressable unit of a document. Num is unique across the
// whole document.
type Section struct {
	Num         int          `json:"section_num"`
	Title       string       `json:"title,omitempty"`
	Content     string       `json:"content"`
	Subsections []Subsection `json:"subsections,omitempty"`
	Keywords    []string     `json:"keywords,omitempty"`
}

// FullText is the section content followed by each subsection as "(x) text".
func (s *Section) FullText() string {
	var b strings.Builder
	b.WriteString(s.Content)
	for _, sub := range s.Subsections {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "(%s) %s", sub.Letter, sub.Content)
	}
	return b.String()
}

// Citation renders the public citation label, e.g. "Article 12".
func (s *Section) Citation(label string) string {
	if label == "" {
		label = DefaultSectionLabel
	}
	return fmt.Sprintf("%s %d", label, s.Num)
}

// Chapter groups sections in ascending Num order.
type Chapter struct {
	Num      int       `json:"chapter_num"`
	Title    string    `json:"title"`
	Preamble string    `json:"preamble,omitempty"`
	Sections []Section `json:"sections"`
}

// SectionRange returns the lowest and highest section numbers, or (0, 0).
func (c *Chapter) SectionRange() (int, int) {
	if len(c.Sections) == 0 {
		return 0, 0
	}
	lo, hi := c.Sections[0].Num, c.Sections[0].Num
	for _, s := range c.Sections[1:] {
		lo = min(lo, s.Num)
		hi = max(hi, s.Num)
	}
	return lo, hi
}

// ParsedDocument is the root of the hierarchy. It is built once by the
// loader and treated as read-only afterwards.
type ParsedDocument struct {
	Name         string    `json:"name"`
	ShortName    string    `json:"short_name"`
	Description  string    `json:"description,omitempty"`
	Preamble     string    `json:"preamble,omitempty"`
	SectionLabel string    `json:"section_label"`
	Chapters     []Chapter `json:"chapters"`
}

// Label returns the citation noun, falling back to "Section".
func (d *ParsedDocument) Label() string {
	if d.SectionLabel == "" {
		return DefaultSectionLabel
	}
	return d.SectionLabel
}

// AllSections flattens chapters in document order. The returned pointers
// refer into the document.
func (d *ParsedDocument) AllSections() []*Section {
	var out []*Section
	for ci := range d.Chapters {
		ch := &d.Chapters[ci]
		for si := range ch.Sections {
			out = append(out, &ch.Sections[si])
		}
	}
	return out
}

func (d *ParsedDocument) SectionCount() int {
	n := 0
	for i := range d.Chapters {
		n += len(d.Chapters[i].Sections)
	}
	return n
}

func (d *ParsedDocument) ChapterCount() int { return len(d.Chapters) }

// SectionRange returns the document-wide lowest and highest section numbers.
func (d *ParsedDocument) SectionRange() (int, int) {
	lo, hi := 0, 0
	first := true
	for i := range d.Chapters {
		clo, chi := d.Chapters[i].SectionRange()
		if len(d.Chapters[i].Sections) == 0 {
			continue
		}
		if first {
			lo, hi = clo, chi
			first = false
			continue
		}
		lo = min(lo, clo)
		hi = max(hi, chi)
	}
	return lo, hi
}

// Validate checks the structural invariants: unique section numbers,
// ascending chapters, ascending sections within each chapter.
func (d *ParsedDocument) Validate() error {
	seen := make(map[int]int)
	for ci, ch := range d.Chapters {
		if ci > 0 && ch.Num <= d.Chapters[ci-1].Num {
			return fmt.Errorf("chapter %d out of order after chapter %d", ch.Num, d.Chapters[ci-1].Num)
		}
		for si, s := range ch.Sections {
			if si > 0 && s.Num < ch.Sections[si-1].Num {
				return fmt.Errorf("chapter %d: section %d out of order", ch.Num, s.Num)
			}
			if prev, ok := seen[s.Num]; ok {
				return fmt.Errorf("section %d appears in chapters %d and %d", s.Num, prev, ch.Num)
			}
			seen[s.Num] = ch.Num
		}
	}
	return nil
}
