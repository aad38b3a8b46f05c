// Package strategy turns raw document text into a document.ParsedDocument.
// Every strategy shares one line scanner; they differ only in the heading
// patterns they recognize.
package strategy

import (
	"fmt"
	"regexp"

	"github.com/dgallion1/citegest/internal/document"
	"github.com/dgallion1/citegest/internal/errs"
)

// Built-in strategy identifiers.
const (
	ChapterSection = "chapter_section"
	Article        = "article"
	NumberedList   = "numbered_list"
)

// Options tune a single parse.
type Options struct {
	// Title names the implicit chapter created when the text has no
	// chapter headings. Defaults to "Document".
	Title string
	// Keywords replaces DefaultKeywords for keyword tagging.
	Keywords []string
}

// Strategy is a text-segmentation algorithm. Parse never fails on content:
// recoverable oddities come back as StructuralDegradation records.
type Strategy interface {
	ID() string
	DefaultLabel() string
	Parse(raw string, opts Options) (*document.ParsedDocument, []*errs.Error)
}

// Patterns configure a PatternStrategy. In every pattern group 1 is the
// number; group 2, when present, is the title (or subsection text).
type Patterns struct {
	Chapter    *regexp.Regexp
	Section    *regexp.Regexp
	Subsection *regexp.Regexp
	// ItemContent stores the section heading text as content instead of
	// title, for list items whose heading is the body.
	ItemContent bool
}

// PatternStrategy implements Strategy over a Patterns set.
type PatternStrategy struct {
	id       string
	label    string
	patterns Patterns
}

func (p *PatternStrategy) ID() string           { return p.id }
func (p *PatternStrategy) DefaultLabel() string { return p.label }

func (p *PatternStrategy) Parse(raw string, opts Options) (*document.ParsedDocument, []*errs.Error) {
	s := newScan(p.patterns, opts)
	s.run(raw)
	return s.finish()
}

// Lettered subsections must start the line and carry text after the marker,
// so "(a)" alone or a mid-sentence "(see (b))" is ordinary content.
var subsectionRe = regexp.MustCompile(`^\(([a-z])\)\s+(\S.*)$`)

// NewChapterSection recognizes "CHAPTER 1 - Title" (arabic or roman),
// "1. Title" sections and "(a) text" subsections.
func NewChapterSection() *PatternStrategy {
	return &PatternStrategy{
		id:    ChapterSection,
		label: "Section",
		patterns: Patterns{
			Chapter:    regexp.MustCompile(`^(?i:CHAPTER)\s+(\d+|[IVXLCDM]+)\b\s*[-–—:.]?\s*(.*?)$`),
			Section:    regexp.MustCompile(`^(\d+)\.\s+(\S.*?)$`),
			Subsection: subsectionRe,
		},
	}
}

// NewArticle recognizes "Article 5 - Title" or "Art. 5" headings. Optional
// "PART II" / "TITLE 3" lines group articles into chapters; without them
// every article lands in chapter 1.
func NewArticle() *PatternStrategy {
	return &PatternStrategy{
		id:    Article,
		label: "Article",
		patterns: Patterns{
			Chapter:    regexp.MustCompile(`^(?i:PART|TITLE)\s+(\d+|[IVXLCDM]+)\b\s*[-–—:.]?\s*(.*?)$`),
			Section:    regexp.MustCompile(`^(?i:Article|Art\.?)\s*(\d+)\b\s*[-–—:.]?\s*(.*?)$`),
			Subsection: subsectionRe,
		},
	}
}

// NewNumberedList recognizes "1. text" and "1) text" items with no
// hierarchy. The item text is the section content.
func NewNumberedList() *PatternStrategy {
	return &PatternStrategy{
		id:    NumberedList,
		label: "Item",
		patterns: Patterns{
			Section:     regexp.MustCompile(`^(\d+)[.)]\s+(\S.*?)$`),
			ItemContent: true,
		},
	}
}

// CustomPatterns holds caller-supplied regular expressions.
type CustomPatterns struct {
	Chapter    string `yaml:"chapter" json:"chapter"`
	Section    string `yaml:"section" json:"section"`
	Subsection string `yaml:"subsection" json:"subsection"`
}

// NewCustom compiles caller patterns into a strategy. Section is required.
func NewCustom(id, label string, cp CustomPatterns) (*PatternStrategy, error) {
	const op = "strategy.NewCustom"
	if id == "" {
		return nil, errs.NewConfiguration(op, "custom strategy needs an id")
	}
	if cp.Section == "" {
		return nil, errs.NewConfiguration(op, fmt.Sprintf("custom strategy %q needs a section pattern", id))
	}
	if label == "" {
		label = document.DefaultSectionLabel
	}
	var p Patterns
	var err error
	if p.Section, err = compile(op, id, "section", cp.Section); err != nil {
		return nil, err
	}
	if p.Chapter, err = compile(op, id, "chapter", cp.Chapter); err != nil {
		return nil, err
	}
	if p.Subsection, err = compile(op, id, "subsection", cp.Subsection); err != nil {
		return nil, err
	}
	return &PatternStrategy{id: id, label: label, patterns: p}, nil
}

func compile(op, id, which, expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		e := errs.NewConfiguration(op, fmt.Sprintf("strategy %q: bad %s pattern", id, which))
		e.Err = err
		return nil, e
	}
	if re.NumSubexp() < 1 {
		return nil, errs.NewConfiguration(op, fmt.Sprintf("strategy %q: %s pattern must capture the number", id, which))
	}
	return re, nil
}

// Builtins returns fresh instances of the three built-in strategies.
func Builtins() []Strategy {
	return []Strategy{NewChapterSection(), NewArticle(), NewNumberedList()}
}
