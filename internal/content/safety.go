package content

import (
	"fmt"
	"regexp"
	"strings"
)

// SafetyLevel orders moderation outcomes from least to most severe.
type SafetyLevel string

const (
	SafetySafe           SafetyLevel = "safe"
	SafetyCaution        SafetyLevel = "caution"
	SafetyReviewRequired SafetyLevel = "review_required"
	SafetyBlocked        SafetyLevel = "blocked"
)

func (l SafetyLevel) rank() int {
	switch l {
	case SafetyCaution:
		return 1
	case SafetyReviewRequired:
		return 2
	case SafetyBlocked:
		return 3
	default:
		return 0
	}
}

// SafetyResult is the outcome of a ContentFilter check.
type SafetyResult struct {
	Level         SafetyLevel `json:"level"`
	Concerns      []string    `json:"concerns,omitempty"`
	BlockedReason string      `json:"blocked_reason,omitempty"`
}

// NeedsReview reports whether the content must not go out without a human
// look: review_required or blocked.
func (r SafetyResult) NeedsReview() bool {
	return r.Level.rank() >= SafetyReviewRequired.rank()
}

func (r *SafetyResult) raise(l SafetyLevel, concern string) {
	if l.rank() > r.Level.rank() {
		r.Level = l
	}
	if concern != "" {
		r.Concerns = append(r.Concerns, concern)
	}
}

func (r *SafetyResult) block(reason string) {
	r.Level = SafetyBlocked
	r.BlockedReason = reason
}

type topicTerms struct {
	topic string
	terms []string
}

// ContentFilter screens generated text before it is offered for posting.
type ContentFilter struct {
	blocked        []*regexp.Regexp
	misinformation []*regexp.Regexp
	legalAdvice    []*regexp.Regexp
	mild           map[string]bool
	strong         map[string]bool
	slurs          map[string]bool
	topics         []topicTerms
	political      []*regexp.Regexp
	harmfulAsks    []string
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// NewContentFilter returns a filter with the built-in word and pattern
// lists.
func NewContentFilter() *ContentFilter {
	return &ContentFilter{
		blocked: compileAll(
			`\bkill\s+(all|them|the)\b`,
			`\bviolence\s+against\b`,
			`\bhate\s+(all|those)\b`,
			`\bexterminate\b`,
			`\bgenocide\b`,
		),
		misinformation: compileAll(
			`\b(constitution|the law)\s+(says|allows|permits)\s+.{0,20}(violence|discrimination)\b`,
			`\bno\s+rights\s+(for|to)\b`,
			`\bconstitution\s+is\s+(invalid|illegal|fake)\b`,
		),
		legalAdvice: compileAll(
			`\byou\s+should\s+(sue|file|claim|demand)\b`,
			`\byou\s+have\s+a\s+case\b`,
			`\btake\s+(them|it)\s+to\s+court\b`,
			`\byou'?re\s+entitled\s+to\b`,
			`\byou\s+can\s+sue\b`,
			`\bi\s+advise\s+you\s+to\b`,
			`\bseek\s+damages\b`,
		),
		mild: wordSet("damn", "dammit", "hell", "crap", "piss", "bloody", "bugger", "bollocks", "sod"),
		strong: wordSet("shit", "fuck", "fucking", "fucker", "fucked", "bitch", "bastard",
			"asshole", "dickhead", "prick", "cunt", "twat", "wanker", "bullshit"),
		slurs: wordSet("nigger", "nigga", "faggot", "fag", "dyke", "tranny", "retard",
			"spastic", "kaffir", "coolie", "makwerekwere", "amakwerekwere"),
		topics: []topicTerms{
			{"death_penalty", []string{"death penalty", "capital punishment", "execution"}},
			{"abortion", []string{"abortion", "termination of pregnancy"}},
			{"euthanasia", []string{"euthanasia", "assisted suicide", "right to die"}},
			{"hate_speech", []string{"hate speech", "racial slurs", "ethnic slurs"}},
			{"violence", []string{"violence", "assault", "attack"}},
			{"terrorism", []string{"terrorism", "terrorist", "bomb"}},
			{"political", []string{"political party", "elections", "vote for"}},
		},
		political: compileAll(
			`\b(vote|voting)\s+(for|against)\b`,
			`\b(left|right)[- ]wing\b`,
			`\b(liberals?|conservatives?)\s+(are|want|always)\b`,
		),
		harmfulAsks: []string{
			"how to break", "how to avoid", "loophole",
			"get around", "circumvent", "ignore the law",
		},
	}
}

var wordRe = regexp.MustCompile(`[\p{L}']+`)

// Check screens text. Blocked patterns, misinformation and slurs block
// outright; legal advice and strong profanity require review; mild
// profanity, sensitive topics and partisan phrasing are a caution.
func (f *ContentFilter) Check(text string) SafetyResult {
	res := SafetyResult{Level: SafetySafe}
	lower := strings.ToLower(text)

	for _, re := range f.blocked {
		if re.MatchString(lower) {
			res.block("content contains prohibited language")
			return res
		}
	}
	for _, re := range f.misinformation {
		if re.MatchString(lower) {
			res.block("content may misstate what the document says")
			return res
		}
	}
	for _, re := range f.legalAdvice {
		if re.MatchString(lower) {
			res.raise(SafetyReviewRequired, "content appears to give specific legal advice")
			break
		}
	}

	var mild, strong []string
	for _, w := range wordRe.FindAllString(lower, -1) {
		switch {
		case f.slurs[w]:
			res.block("content contains slurs or hate speech")
			return res
		case f.strong[w]:
			strong = append(strong, w)
		case f.mild[w]:
			mild = append(mild, w)
		}
	}
	if len(strong) > 0 {
		res.raise(SafetyReviewRequired, "contains strong profanity: "+strings.Join(strong[:min(len(strong), 3)], ", "))
	}
	if len(mild) > 0 {
		res.raise(SafetyCaution, "contains mild profanity: "+strings.Join(mild[:min(len(mild), 3)], ", "))
	}

	for _, t := range f.topics {
		for _, term := range t.terms {
			if strings.Contains(lower, term) {
				res.raise(SafetyCaution, "touches on sensitive topic: "+t.topic)
				break
			}
		}
	}
	for _, re := range f.political {
		if re.MatchString(lower) {
			res.raise(SafetyCaution, "content may have political implications")
			break
		}
	}
	return res
}

// CheckReply screens a reply together with the message it answers.
func (f *ContentFilter) CheckReply(reply, mention string) SafetyResult {
	res := f.Check(reply)
	if res.Level == SafetyBlocked {
		return res
	}
	lower := strings.ToLower(mention)
	for _, ask := range f.harmfulAsks {
		if strings.Contains(lower, ask) {
			res.raise(SafetyCaution, fmt.Sprintf("message being answered may ask for harmful help (%q)", ask))
			break
		}
	}
	return res
}

// ApplySafety folds a safety check into r: a result that needs review
// becomes an error, a caution becomes warnings.
func (r *Result) ApplySafety(s SafetyResult) {
	switch {
	case s.Level == SafetyBlocked:
		r.addError("safety: blocked: %s", s.BlockedReason)
	case s.NeedsReview():
		for _, c := range s.Concerns {
			r.addError("safety: %s", c)
		}
	default:
		for _, c := range s.Concerns {
			r.addWarning("safety: %s", c)
		}
	}
}
