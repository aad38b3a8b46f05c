package content

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/citegest/internal/errs"
)

// Result is the outcome of validating generated output. Errors make it
// invalid; warnings and suggestions are advisory.
type Result struct {
	Valid       bool     `json:"valid"`
	Errors      []string `json:"errors,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func newResult() Result { return Result{Valid: true} }

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Valid = false
}

func (r *Result) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Result) addSuggestion(format string, args ...any) {
	r.Suggestions = append(r.Suggestions, fmt.Sprintf(format, args...))
}

// Err returns a validation error listing the problems, or nil when valid.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return errs.NewValidation(r.Errors)
}

var (
	SensitiveKeywords = []string{
		"death penalty", "capital punishment", "abortion", "euthanasia",
		"hate speech", "incitement", "terrorism", "treason",
		"state of emergency", "martial law",
	}
	LegalAdvicePhrases = []string{
		"you should sue", "you can claim", "file a lawsuit",
		"you have a case", "take them to court", "lawyer up",
		"you're entitled to", "you must demand",
		"i advise you to", "my advice is",
	}
)

const maxHashtags = 5

var hashtagRe = regexp.MustCompile(`#\w+`)

// Validator checks output against the document it was grounded in. Cited
// numbers outside the document's section range are errors.
type Validator struct {
	limits Limits
	label  string
	lo, hi int
	citeRe *regexp.Regexp
}

// NewValidator builds a validator for citations of the form "{label} N"
// with N in [lo, hi].
func NewValidator(label string, lo, hi int, limits Limits) *Validator {
	if label == "" {
		label = "Section"
	}
	return &Validator{
		limits: limits.withDefaults(),
		label:  label,
		lo:     lo,
		hi:     hi,
		citeRe: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(label) + `\s+(\d+)`),
	}
}

// Citations returns every section number cited in text, in order.
func (v *Validator) Citations(text string) []int {
	var out []int
	for _, m := range v.citeRe.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// Post validates a single post.
func (v *Validator) Post(text string) Result {
	r := newResult()
	v.post(&r, text, "", true)
	humanLike(&r, text)
	return r
}

func (v *Validator) post(r *Result, text, prefix string, needCitation bool) {
	text = strings.TrimSpace(text)
	n := utf8.RuneCountInString(text)
	if n == 0 {
		r.addError("%scontent is empty", prefix)
		return
	}
	if n > v.limits.MaxPostLength {
		r.addError("%sexceeds %d characters (current: %d)", prefix, v.limits.MaxPostLength, n)
	}
	if n < MinPostLength {
		r.addError("%sis too short (minimum %d characters)", prefix, MinPostLength)
	}
	cites := v.Citations(text)
	if len(cites) == 0 && needCitation {
		r.addError("%sdoes not contain a %s citation", prefix, strings.ToLower(v.label))
	}
	v.checkRange(r, prefix, cites)
	v.advisory(r, prefix, text)
}

// Thread validates posts as a thread that should have want posts.
func (v *Validator) Thread(posts []string, want int) Result {
	r := newResult()
	if len(posts) < MinThreadPosts {
		r.addError("thread must have at least %d posts", MinThreadPosts)
	}
	if want > 0 && len(posts) != want {
		r.addError("expected %d posts, got %d", want, len(posts))
	}
	if len(posts) > v.limits.MaxThreadPosts {
		r.addWarning("thread has %d posts, consider keeping it under %d", len(posts), v.limits.MaxThreadPosts)
	}
	cited := false
	for i, p := range posts {
		v.post(&r, p, fmt.Sprintf("post %d: ", i+1), false)
		if len(v.Citations(p)) > 0 {
			cited = true
		}
	}
	if !cited && len(posts) > 0 {
		r.addError("thread contains no %s citations", strings.ToLower(v.label))
	}
	bodies := make([]string, len(posts))
	for i, p := range posts {
		bodies[i] = strings.TrimSpace(slashMarkRe.ReplaceAllString(p, ""))
	}
	humanLike(&r, strings.Join(bodies, "\n"))
	return r
}

// Script validates long-form text.
func (v *Validator) Script(text string) Result {
	r := newResult()
	text = strings.TrimSpace(text)
	n := utf8.RuneCountInString(text)
	if n == 0 {
		r.addError("content is empty")
		return r
	}
	if n > v.limits.MaxScriptLength {
		r.addError("script exceeds %d characters (current: %d)", v.limits.MaxScriptLength, n)
	}
	cites := v.Citations(text)
	if len(cites) == 0 {
		r.addError("script does not contain a %s citation", strings.ToLower(v.label))
	}
	v.checkRange(&r, "", cites)
	v.advisory(&r, "", text)
	humanLike(&r, text)
	return r
}

func (v *Validator) checkRange(r *Result, prefix string, cites []int) {
	for _, c := range cites {
		if c < v.lo || c > v.hi {
			r.addError("%sinvalid %s number: %d", prefix, strings.ToLower(v.label), c)
		}
	}
}

func (v *Validator) advisory(r *Result, prefix, text string) {
	lower := strings.ToLower(text)
	for _, p := range LegalAdvicePhrases {
		if strings.Contains(lower, p) {
			r.addWarning("%smay read as legal advice (%q)", prefix, p)
			break
		}
	}
	for _, k := range SensitiveKeywords {
		if strings.Contains(lower, k) {
			r.addWarning("%stouches on a sensitive topic: %s", prefix, k)
			break
		}
	}
	if tags := hashtagRe.FindAllString(text, -1); len(tags) > maxHashtags {
		r.addWarning("%shas %d hashtags, too many may reduce engagement", prefix, len(tags))
	} else if len(tags) == 0 && prefix == "" {
		r.addSuggestion("consider adding relevant hashtags")
	}
}

// humanLike adds advisory findings from AnalyzePatterns.
func humanLike(r *Result, text string) {
	rep := AnalyzePatterns(text, false)
	if rep.Score > HumanLikeThreshold {
		r.addWarning("may read as machine-written (score %.2f, threshold %.2f)", rep.Score, HumanLikeThreshold)
	}
	stock := rep.Of(ClicheOpener, ClichePhrase)
	for _, p := range stock[:min(len(stock), 3)] {
		r.addWarning("stock phrase: %q", p.Text)
	}
	if buzz := rep.Of(CorporateSpeak); len(buzz) > 0 {
		words := make([]string, 0, 3)
		for _, p := range buzz[:min(len(buzz), 3)] {
			words = append(words, p.Text)
		}
		r.addWarning("consider replacing: %s", strings.Join(words, ", "))
	}
	r.Suggestions = append(r.Suggestions, rep.Suggestions...)
}

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`act\s+as\s+|pretend\s+|forget\s+(everything|all)|override|` +
		`new\s+instructions)`,
)

// MaxTopicLength bounds user-supplied topics and events.
const MaxTopicLength = 500

// CheckTopic rejects user-supplied text that is too long or reads like an
// instruction to the model.
func CheckTopic(topic string) error {
	if utf8.RuneCountInString(topic) > MaxTopicLength {
		return errs.NewInvalidInput("content.CheckTopic", fmt.Sprintf("topic exceeds %d characters", MaxTopicLength))
	}
	if injectionPattern.MatchString(topic) {
		return errs.NewInvalidInput("content.CheckTopic", "topic contains instruction-like text")
	}
	return nil
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]`)
	slugDashes  = regexp.MustCompile(`-+`)
)

// Slugify converts a string to a URL/path-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalid.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = strings.TrimRight(s[:50], "-")
	}
	return s
}
