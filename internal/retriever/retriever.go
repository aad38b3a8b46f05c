// Package retriever answers read-only queries against one ParsedDocument.
// Indexes are built once at construction; nothing is mutated afterwards, so
// a Retriever is safe for concurrent use.
package retriever

import (
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/dgallion1/citegest/internal/document"
)

// DefaultSearchLimit applies when a caller passes a non-positive limit.
const DefaultSearchLimit = 10

// Config carries per-document retrieval settings from the manifest.
type Config struct {
	// TopicKeywords maps a topic to the search terms that represent it.
	TopicKeywords map[string][]string `yaml:"topic_keywords" json:"topic_keywords,omitempty"`
	// FeaturedChapter selects FeaturedSections; 0 disables it.
	FeaturedChapter int `yaml:"featured_chapter" json:"featured_chapter,omitempty"`
	// Hashtags seed the DocumentContext.
	Hashtags []string `yaml:"default_hashtags" json:"default_hashtags,omitempty"`
}

// DefaultTopicKeywords is used when a document defines no topic map.
var DefaultTopicKeywords = map[string][]string{
	"policy":           {"policy", "procedure", "guideline"},
	"rights":           {"rights", "entitlement", "privilege"},
	"responsibilities": {"responsibility", "duty", "obligation"},
	"compliance":       {"compliance", "requirement", "regulation"},
	"authority":        {"authority", "power", "governance"},
	"process":          {"process", "procedure", "workflow"},
}

type entry struct {
	section *document.Section
	chapter *document.Chapter
	// lower-cased haystack: content, title and chapter title.
	hay string
}

// Retriever serves lookups over a single document.
type Retriever struct {
	doc   *document.ParsedDocument
	cfg   Config
	order []entry
	bySec map[int]int
	byCh  map[int]*document.Chapter
}

// New indexes doc. The caller must not mutate doc afterwards.
func New(doc *document.ParsedDocument, cfg Config) *Retriever {
	r := &Retriever{
		doc:   doc,
		cfg:   cfg,
		bySec: make(map[int]int),
		byCh:  make(map[int]*document.Chapter),
	}
	for ci := range doc.Chapters {
		ch := &doc.Chapters[ci]
		r.byCh[ch.Num] = ch
		for si := range ch.Sections {
			s := &ch.Sections[si]
			r.bySec[s.Num] = len(r.order)
			r.order = append(r.order, entry{
				section: s,
				chapter: ch,
				hay:     strings.ToLower(s.FullText() + "\n" + s.Title + "\n" + ch.Title),
			})
		}
	}
	return r
}

// Document returns the indexed document.
func (r *Retriever) Document() *document.ParsedDocument { return r.doc }

// Context returns a fresh DocumentContext snapshot.
func (r *Retriever) Context() document.DocumentContext {
	return document.ContextFrom(r.doc, r.cfg.Hashtags)
}

func (r *Retriever) Label() string { return r.doc.Label() }

// Section looks up a section by number.
func (r *Retriever) Section(num int) (*document.Section, bool) {
	i, ok := r.bySec[num]
	if !ok {
		return nil, false
	}
	return r.order[i].section, true
}

// Chapter looks up a chapter by number.
func (r *Retriever) Chapter(num int) (*document.Chapter, bool) {
	ch, ok := r.byCh[num]
	return ch, ok
}

// ChapterOf returns the chapter that holds section num.
func (r *Retriever) ChapterOf(num int) (*document.Chapter, bool) {
	i, ok := r.bySec[num]
	if !ok {
		return nil, false
	}
	return r.order[i].chapter, true
}

// InRange reports whether num falls inside the document's section range.
func (r *Retriever) InRange(num int) bool {
	lo, hi := r.doc.SectionRange()
	return r.doc.SectionCount() > 0 && num >= lo && num <= hi
}

// Search returns sections whose content, title or chapter title contains
// query, case-insensitively, in document order. A blank query matches
// nothing.
func (r *Retriever) Search(query string, limit int) []*document.Section {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	var out []*document.Section
	for _, e := range r.order {
		if strings.Contains(e.hay, q) {
			out = append(out, e.section)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// SectionsForCitation resolves numbers to sections in document order,
// dropping duplicates and unknown numbers.
func (r *Retriever) SectionsForCitation(nums []int) []*document.Section {
	idx := make([]int, 0, len(nums))
	for _, n := range nums {
		if i, ok := r.bySec[n]; ok {
			idx = append(idx, i)
		}
	}
	slices.Sort(idx)
	idx = slices.Compact(idx)
	out := make([]*document.Section, len(idx))
	for k, i := range idx {
		out[k] = r.order[i].section
	}
	return out
}

// Citation builds a CitationReference for section num.
func (r *Retriever) Citation(num int) (document.CitationReference, bool) {
	i, ok := r.bySec[num]
	if !ok {
		return document.CitationReference{}, false
	}
	e := r.order[i]
	return document.NewCitation(r.Label(), e.section, e.chapter), true
}

// Resolve looks up a section from a rendered citation such as
// "Article 12 (Dignity)". The label must match the document's,
// case-insensitively.
func (r *Retriever) Resolve(citation string) (*document.Section, bool) {
	label, num, ok := document.ParseCitation(citation)
	if !ok || !strings.EqualFold(label, r.Label()) {
		return nil, false
	}
	return r.Section(num)
}

// SectionContext is a section with its neighbours in the same chapter.
type SectionContext struct {
	Section  *document.Section `json:"section"`
	Chapter  *document.Chapter `json:"chapter"`
	Previous *document.Section `json:"previous,omitempty"`
	Next     *document.Section `json:"next,omitempty"`
}

// Neighbours returns section num with the previous and next sections of
// its chapter.
func (r *Retriever) Neighbours(num int) (SectionContext, bool) {
	i, ok := r.bySec[num]
	if !ok {
		return SectionContext{}, false
	}
	e := r.order[i]
	sc := SectionContext{Section: e.section, Chapter: e.chapter}
	if i > 0 && r.order[i-1].chapter == e.chapter {
		sc.Previous = r.order[i-1].section
	}
	if i+1 < len(r.order) && r.order[i+1].chapter == e.chapter {
		sc.Next = r.order[i+1].section
	}
	return sc, true
}

// SectionsForTopic maps a topic to search terms through the topic keyword
// table, searches up to three terms and merges the hits without duplicates.
// Unmapped topics are searched literally.
func (r *Retriever) SectionsForTopic(topic string, limit int) []*document.Section {
	if limit <= 0 {
		limit = 5
	}
	table := r.cfg.TopicKeywords
	if len(table) == 0 {
		table = DefaultTopicKeywords
	}
	t := strings.ToLower(strings.TrimSpace(topic))
	if t == "" {
		return nil
	}

	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var terms []string
	for _, k := range keys {
		vals := table[k]
		hit := strings.Contains(t, k)
		for _, v := range vals {
			if v != "" && strings.Contains(t, strings.ToLower(v)) {
				hit = true
			}
		}
		if hit {
			terms = append(terms, vals...)
		}
	}
	if len(terms) == 0 {
		terms = []string{t}
	}
	if len(terms) > 3 {
		terms = terms[:3]
	}

	seen := make(map[int]bool)
	var out []*document.Section
	for _, term := range terms {
		for _, s := range r.Search(term, limit) {
			if seen[s.Num] {
				continue
			}
			seen[s.Num] = true
			out = append(out, s)
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}

// Random picks a section using rng. It returns false for an empty document.
func (r *Retriever) Random(rng *rand.Rand) (*document.Section, bool) {
	if len(r.order) == 0 {
		return nil, false
	}
	return r.order[rng.IntN(len(r.order))].section, true
}

// FeaturedSections returns the sections of the configured featured chapter.
func (r *Retriever) FeaturedSections() []*document.Section {
	ch, ok := r.byCh[r.cfg.FeaturedChapter]
	if r.cfg.FeaturedChapter == 0 || !ok {
		return nil
	}
	out := make([]*document.Section, len(ch.Sections))
	for i := range ch.Sections {
		out[i] = &ch.Sections[i]
	}
	return out
}

// ChapterSummary is a compact chapter listing.
type ChapterSummary struct {
	Num          int    `json:"chapter_num"`
	Title        string `json:"title"`
	SectionCount int    `json:"section_count"`
	FirstSection int    `json:"first_section"`
	LastSection  int    `json:"last_section"`
}

func (r *Retriever) ChapterSummaries() []ChapterSummary {
	out := make([]ChapterSummary, 0, len(r.doc.Chapters))
	for i := range r.doc.Chapters {
		ch := &r.doc.Chapters[i]
		lo, hi := ch.SectionRange()
		out = append(out, ChapterSummary{
			Num:          ch.Num,
			Title:        ch.Title,
			SectionCount: len(ch.Sections),
			FirstSection: lo,
			LastSection:  hi,
		})
	}
	return out
}
