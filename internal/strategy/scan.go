package strategy

import (
	"bufio"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/dgallion1/citegest/internal/document"
	"github.com/dgallion1/citegest/internal/errs"
)

// Degradation reasons.
const (
	ReasonDuplicateSection = "duplicate_section"
	ReasonDuplicateChapter = "duplicate_chapter"
	ReasonReordered        = "reordered"
	ReasonOrphanSections   = "orphan_sections"
	ReasonNoStructure      = "no_structure"
	ReasonLongLine         = "long_line"
)

const frontMatterChapter = 0

type chapterAcc struct {
	num      int
	title    string
	preamble []string
	sections []*sectionAcc
}

type sectionAcc struct {
	num     int
	title   string
	content []string
	subs    []subAcc
}

type subAcc struct {
	letter string
	text   []string
}

// scan is a single left-to-right pass with chapter/section/subsection
// accumulators. A heading closes whatever is open below its level; any
// other line is appended to the innermost open accumulator.
type scan struct {
	p    Patterns
	opts Options

	preamble []string
	chapters []*chapterAcc
	byNum    map[int]*chapterAcc
	owner    map[int]*chapterAcc

	ch   *chapterAcc
	sec  *sectionAcc
	sub  *subAcc
	line int

	sawChapterHeading bool
	degraded          []*errs.Error
}

func newScan(p Patterns, opts Options) *scan {
	if opts.Title == "" {
		opts.Title = "Document"
	}
	return &scan{
		p:     p,
		opts:  opts,
		byNum: make(map[int]*chapterAcc),
		owner: make(map[int]*chapterAcc),
	}
}

func (s *scan) degrade(reason, format string, args ...any) {
	s.degraded = append(s.degraded, errs.Degradation(reason, s.line, fmt.Sprintf(format, args...)))
}

func (s *scan) run(raw string) {
	sc := bufio.NewScanner(strings.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		s.line++
		s.feed(sc.Text())
	}
	if err := sc.Err(); err != nil {
		// A single line over 1MB; keep everything read so far.
		s.degrade(ReasonLongLine, "stopped reading: %v", err)
	}
}

func (s *scan) feed(raw string) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return
	}

	if s.p.Chapter != nil {
		if m := s.p.Chapter.FindStringSubmatch(line); m != nil {
			if num, ok := parseNumber(m[1]); ok {
				s.openChapter(num, group(m, 2))
				return
			}
		}
	}

	if m := s.p.Section.FindStringSubmatch(line); m != nil {
		if num, err := strconv.Atoi(m[1]); err == nil {
			s.openSection(num, group(m, 2))
			return
		}
	}

	if s.sec != nil && s.p.Subsection != nil {
		if loc := s.p.Subsection.FindStringSubmatchIndex(line); loc != nil && loc[0] == 0 {
			letter := line[loc[2]:loc[3]]
			var text string
			if len(loc) >= 6 && loc[4] >= 0 {
				text = line[loc[4]:loc[5]]
			} else {
				text = line[loc[1]:]
			}
			if strings.TrimSpace(text) != "" {
				s.sec.subs = append(s.sec.subs, subAcc{letter: letter, text: []string{text}})
				s.sub = &s.sec.subs[len(s.sec.subs)-1]
				return
			}
		}
	}

	switch {
	case s.sub != nil:
		s.sub.text = append(s.sub.text, line)
	case s.sec != nil:
		s.sec.content = append(s.sec.content, line)
	case s.ch != nil:
		s.ch.preamble = append(s.ch.preamble, line)
	default:
		s.preamble = append(s.preamble, line)
	}
}

func group(m []string, i int) string {
	if i < len(m) {
		return strings.TrimSpace(m[i])
	}
	return ""
}

func (s *scan) closeSection() {
	s.sec = nil
	s.sub = nil
}

func (s *scan) openChapter(num int, title string) {
	s.closeSection()
	s.sawChapterHeading = true
	if existing, ok := s.byNum[num]; ok {
		s.degrade(ReasonDuplicateChapter, "chapter %d repeated; merging into first occurrence", num)
		if existing.title == "" {
			existing.title = title
		}
		s.ch = existing
		return
	}
	s.ch = s.addChapter(num, title)
}

func (s *scan) addChapter(num int, title string) *chapterAcc {
	c := &chapterAcc{num: num, title: title}
	s.chapters = append(s.chapters, c)
	s.byNum[num] = c
	return c
}

func (s *scan) openSection(num int, heading string) {
	s.closeSection()
	if s.ch == nil {
		s.ch = s.implicitChapter()
	}
	if prev, ok := s.owner[num]; ok {
		s.degrade(ReasonDuplicateSection, "section %d repeated; keeping the later occurrence", num)
		prev.sections = slices.DeleteFunc(prev.sections, func(a *sectionAcc) bool { return a.num == num })
	}
	sec := &sectionAcc{num: num}
	if s.p.ItemContent {
		sec.content = []string{heading}
	} else {
		sec.title = heading
	}
	s.ch.sections = append(s.ch.sections, sec)
	s.owner[num] = s.ch
	s.sec = sec
}

// implicitChapter holds sections that appear before any chapter heading.
// Strategies without chapter headings get chapter 1 directly; otherwise a
// front-matter chapter 0 is used, renumbered to 1 if no heading ever shows up.
func (s *scan) implicitChapter() *chapterAcc {
	if s.p.Chapter == nil {
		return s.addChapter(1, s.opts.Title)
	}
	if c, ok := s.byNum[frontMatterChapter]; ok {
		return c
	}
	return s.addChapter(frontMatterChapter, s.opts.Title)
}

func (s *scan) finish() (*document.ParsedDocument, []*errs.Error) {
	s.closeSection()
	doc := &document.ParsedDocument{Preamble: clean(s.preamble)}

	if front, ok := s.byNum[frontMatterChapter]; ok && s.p.Chapter != nil {
		if !s.sawChapterHeading {
			delete(s.byNum, frontMatterChapter)
			front.num = 1
			s.byNum[1] = front
		} else if len(front.sections) > 0 {
			s.degrade(ReasonOrphanSections, "%d sections before the first chapter heading kept in chapter %d", len(front.sections), frontMatterChapter)
		}
	}

	if !slices.IsSortedFunc(s.chapters, byChapter) {
		s.degrade(ReasonReordered, "chapters out of order; sorted by number")
		slices.SortStableFunc(s.chapters, byChapter)
	}

	keywords := s.opts.Keywords
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}

	for _, c := range s.chapters {
		if len(c.sections) == 0 && len(c.preamble) == 0 && c.num == frontMatterChapter {
			continue
		}
		if !slices.IsSortedFunc(c.sections, bySection) {
			s.degrade(ReasonReordered, "chapter %d sections out of order; sorted by number", c.num)
			slices.SortStableFunc(c.sections, bySection)
		}
		ch := document.Chapter{Num: c.num, Title: c.title, Preamble: clean(c.preamble)}
		for _, a := range c.sections {
			sec := document.Section{Num: a.num, Title: a.title, Content: clean(a.content)}
			for _, sub := range a.subs {
				sec.Subsections = append(sec.Subsections, document.Subsection{Letter: sub.letter, Content: clean(sub.text)})
			}
			sec.Keywords = ExtractKeywords(sec.Title, sec.FullText(), keywords)
			ch.Sections = append(ch.Sections, sec)
		}
		doc.Chapters = append(doc.Chapters, ch)
	}

	// Text with no recognizable headings at all becomes one section.
	if len(doc.Chapters) == 0 && doc.Preamble != "" {
		s.degrade(ReasonNoStructure, "no headings recognized; whole text kept as one section")
		sec := document.Section{Num: 1, Content: doc.Preamble}
		sec.Keywords = ExtractKeywords("", sec.Content, keywords)
		doc.Chapters = []document.Chapter{{Num: 1, Title: s.opts.Title, Sections: []document.Section{sec}}}
		doc.Preamble = ""
	}

	return doc, s.degraded
}

func byChapter(a, b *chapterAcc) int { return a.num - b.num }
func bySection(a, b *sectionAcc) int { return a.num - b.num }

var spaceRe = regexp.MustCompile(`\s+`)

// clean joins accumulated lines and collapses runs of whitespace.
func clean(lines []string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(strings.Join(lines, " "), " "))
}
