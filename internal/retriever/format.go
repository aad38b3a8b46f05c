package retriever

import (
	"fmt"
	"strings"

	"github.com/dgallion1/citegest/internal/chunker"
	"github.com/dgallion1/citegest/internal/document"
)

// FormatSection renders a section for a prompt:
//
//	## Section 9: Equality
//	Chapter 2: Bill of Rights
//
//	Everyone is equal before the law.
//	(a) ...
func (r *Retriever) FormatSection(s *document.Section) string {
	var b strings.Builder
	title := s.Title
	if title == "" {
		title = "Untitled"
	}
	fmt.Fprintf(&b, "## %s: %s\n", s.Citation(r.Label()), title)
	if ch, ok := r.ChapterOf(s.Num); ok {
		fmt.Fprintf(&b, "Chapter %d: %s\n", ch.Num, ch.Title)
	}
	b.WriteString("\n")
	b.WriteString(s.FullText())
	return b.String()
}

// FormatSections joins FormatSection output with horizontal rules.
func (r *Retriever) FormatSections(secs []*document.Section) string {
	parts := make([]string, len(secs))
	for i, s := range secs {
		parts[i] = r.FormatSection(s)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// TableOfContents lists chapters and section titles, one line each. It is
// the document overview shown to the model when it proposes a topic.
func (r *Retriever) TableOfContents() string {
	var b strings.Builder
	label := r.Label()
	for i := range r.doc.Chapters {
		ch := &r.doc.Chapters[i]
		fmt.Fprintf(&b, "Chapter %d: %s\n", ch.Num, ch.Title)
		for si := range ch.Sections {
			s := &ch.Sections[si]
			title := s.Title
			if title == "" {
				title = document.Excerpt(s.Content, 60)
			}
			fmt.Fprintf(&b, "  %s %d: %s\n", label, s.Num, title)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// ContextBlock concatenates each section's full text under its citation
// label, bounded by maxTokens (<= 0 for no bound). It returns the sections
// that made it into the block, in order, and reports whether the block was
// cut. A section cut mid-text is still returned.
func (r *Retriever) ContextBlock(secs []*document.Section, maxTokens int) (string, []*document.Section, bool) {
	segs := make([]chunker.Segment, len(secs))
	for i, s := range secs {
		label := s.Citation(r.Label())
		if s.Title != "" {
			label += " (" + s.Title + ")"
		}
		segs[i] = chunker.Segment{Label: label, Text: s.FullText()}
	}
	kept, truncated := chunker.Window(segs, maxTokens)

	var b strings.Builder
	for i, seg := range kept {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s]\n%s", seg.Label, seg.Text)
	}
	// Window keeps a prefix of its input.
	return b.String(), secs[:len(kept)], truncated
}
