package content

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/citegest/internal/chunker"
)

// Ellipsis marks text cut by Truncate.
const Ellipsis = "…"

// PostSeparator joins thread posts in the storage format.
const PostSeparator = "\n---POST---\n"

var (
	wsRe        = regexp.MustCompile(`\s+`)
	artifactRe  = regexp.MustCompile(`(?i)^(TWEET\s*\d+:|POST\s*\d+:|Reply:|Answer:)\s*`)
	tweetMarkRe = regexp.MustCompile(`(?i)\b(?:TWEET|POST)\s*\d+\s*:`)
	slashMarkRe = regexp.MustCompile(`\[\d+/\d+\]`)
	numberedRe  = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+`)
	blankLineRe = regexp.MustCompile(`\n\s*\n`)
	headerRe    = regexp.MustCompile(`(?m)^#{1,2}\s*(.+?)\s*$`)
	manyNLRe    = regexp.MustCompile(`\n{3,}`)
)

// Clean collapses whitespace and strips reply artifacts such as "TWEET 1:".
func Clean(text string) string {
	text = strings.TrimSpace(wsRe.ReplaceAllString(text, " "))
	return strings.TrimSpace(artifactRe.ReplaceAllString(text, ""))
}

// Truncate cuts text to at most maxRunes runes. The cut falls on a word
// boundary when one exists past 70% of the limit, and the result ends with
// Ellipsis.
func Truncate(text string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	limit := maxRunes - utf8.RuneCountInString(Ellipsis)
	if limit <= 0 {
		return string([]rune(Ellipsis)[:maxRunes])
	}
	cut := []rune(text)[:limit]
	if i := lastSpace(cut); i > limit*7/10 {
		cut = cut[:i]
	}
	return strings.TrimRight(string(cut), " .,!?;:-") + Ellipsis
}

func lastSpace(r []rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] == ' ' {
			return i
		}
	}
	return -1
}

// Hashtags returns the hashtags in text.
func Hashtags(text string) []string { return hashtagRe.FindAllString(text, -1) }

// AddHashtags appends each missing tag while the result stays within
// maxRunes runes.
func AddHashtags(text string, tags []string, maxRunes int) string {
	have := make(map[string]bool)
	for _, t := range Hashtags(text) {
		have[strings.ToLower(t)] = true
	}
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		if have[strings.ToLower(tag)] {
			continue
		}
		candidate := text + " " + tag
		if maxRunes > 0 && utf8.RuneCountInString(candidate) > maxRunes {
			continue
		}
		text = candidate
		have[strings.ToLower(tag)] = true
	}
	return text
}

// ParseThread splits model output into posts. It recognises "TWEET n:"
// markers, "[i/N]" markers and numbered lines, in that order, and otherwise
// splits on blank lines keeping parts longer than MinPostLength.
func ParseThread(raw string) []string {
	if posts := splitOnMarkers(raw, tweetMarkRe, 1); posts != nil {
		return posts
	}
	if posts := splitOnMarkers(raw, slashMarkRe, 1); posts != nil {
		return posts
	}
	if posts := splitOnMarkers(raw, numberedRe, 2); posts != nil {
		return posts
	}
	var out []string
	for _, part := range blankLineRe.Split(raw, -1) {
		if c := Clean(part); utf8.RuneCountInString(c) > MinPostLength {
			out = append(out, c)
		}
	}
	return out
}

// splitOnMarkers returns the cleaned text following each match of re, or
// nil when re matches fewer than atLeast times. Text before the first marker is
// dropped.
func splitOnMarkers(raw string, re *regexp.Regexp, atLeast int) []string {
	locs := re.FindAllStringIndex(raw, -1)
	if len(locs) < atLeast {
		return nil
	}
	var out []string
	for i, loc := range locs {
		end := len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if c := Clean(raw[loc[1]:end]); c != "" {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Formatter shapes model output for posting.
type Formatter struct {
	limits      Limits
	hashtags    []string
	disclaimers *Disclaimers
}

func NewFormatter(limits Limits, hashtags []string) *Formatter {
	return &Formatter{limits: limits.withDefaults(), hashtags: hashtags}
}

// WithDisclaimers turns on disclaimer appending. A nil d turns it off.
func (f *Formatter) WithDisclaimers(d *Disclaimers) *Formatter {
	f.disclaimers = d
	return f
}

// DisclaimPost appends a short disclaimer when the post calls for one and
// it fits the post length.
func (f *Formatter) DisclaimPost(text string) string {
	if f.disclaimers == nil {
		return text
	}
	return f.disclaimers.Append(text, f.limits.MaxPostLength)
}

// DisclaimScript appends the full disclaimer when the script calls for one
// and the result stays within the script length.
func (f *Formatter) DisclaimScript(text string) string {
	if f.disclaimers == nil {
		return text
	}
	out := f.disclaimers.Append(text, 0)
	if utf8.RuneCountInString(out) > f.limits.MaxScriptLength {
		return text
	}
	return out
}

// DisclaimThread closes a thread with a disclaimer. added is 1 when the
// disclaimer became a post of its own.
func (f *Formatter) DisclaimThread(posts []string) (out []string, added int) {
	if f.disclaimers == nil {
		return posts, 0
	}
	return f.disclaimers.AppendThread(posts, f.limits.MaxPostLength, f.limits.MaxThreadPosts)
}

// Post cleans raw, appends default hashtags when they fit and truncates to
// the post length. It reports whether text was cut.
func (f *Formatter) Post(raw string) (string, bool) {
	text := AddHashtags(Clean(raw), f.hashtags, f.limits.MaxPostLength)
	out := Truncate(text, f.limits.MaxPostLength)
	return out, out != text
}

// Thread splits raw into exactly n posts, each prefixed "[i/n] " and held
// to the post length. When the model's own post boundaries give a different
// count, the text is re-split at sentence boundaries. ok is false when the
// output cannot be split into n non-empty posts; posts then holds whatever
// was parsed. truncated lists the 1-based posts that were cut.
func (f *Formatter) Thread(raw string, n int) (posts []string, truncated []int, ok bool) {
	parsed := ParseThread(raw)
	if len(parsed) != n {
		text := strings.Join(parsed, " ")
		if text == "" {
			text = Clean(raw)
		}
		if parts := chunker.Split(text, n); parts != nil {
			parsed = parts
		}
	}
	ok = len(parsed) == n

	total := len(parsed)
	posts = make([]string, total)
	for i, p := range parsed {
		prefix := fmt.Sprintf("[%d/%d] ", i+1, total)
		if i == total-1 {
			p = AddHashtags(p, f.hashtags, f.limits.MaxPostLength-utf8.RuneCountInString(prefix))
		}
		body := Truncate(p, f.limits.MaxPostLength-utf8.RuneCountInString(prefix))
		if body != p {
			truncated = append(truncated, i+1)
		}
		posts[i] = prefix + body
	}
	return posts, truncated, ok
}

// JoinPosts renders posts in the storage format.
func JoinPosts(posts []string) string { return strings.Join(posts, PostSeparator) }

// SplitPosts parses the storage format, dropping empty posts.
func SplitPosts(stored string) []string {
	var out []string
	for _, p := range strings.Split(stored, PostSeparator) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// WordsPerMinute is the speaking rate behind ScriptDoc.Duration.
const WordsPerMinute = 150

// ScriptDoc is parsed long-form output.
type ScriptDoc struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Headers   []string `json:"headers,omitempty"`
	WordCount int      `json:"word_count"`
	Duration  string   `json:"duration"`
}

// ParseScript normalizes whitespace within lines, keeps paragraph breaks,
// collects "#"/"##" headers and estimates the speaking time.
func ParseScript(raw, title string) ScriptDoc {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(wsRe.ReplaceAllString(l, " "))
	}
	text := strings.TrimSpace(manyNLRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))

	doc := ScriptDoc{Title: title, Content: text}
	for _, m := range headerRe.FindAllStringSubmatch(text, -1) {
		doc.Headers = append(doc.Headers, m[1])
	}
	doc.WordCount = len(strings.Fields(text))
	doc.Duration = EstimateDuration(doc.WordCount)
	return doc
}

// EstimateDuration buckets a word count by WordsPerMinute.
func EstimateDuration(words int) string {
	minutes := float64(words) / WordsPerMinute
	switch {
	case minutes < 1:
		return "Under 1 minute"
	case minutes < 2:
		return "1-2 minutes"
	case minutes < 5:
		return "2-5 minutes"
	default:
		return fmt.Sprintf("About %d minutes", int(minutes))
	}
}

// Script parses raw as a script and holds it to the script length.
func (f *Formatter) Script(raw, title string) (ScriptDoc, bool) {
	doc := ParseScript(raw, title)
	cut := Truncate(doc.Content, f.limits.MaxScriptLength)
	if cut == doc.Content {
		return doc, false
	}
	doc.Content = cut
	return doc, true
}
