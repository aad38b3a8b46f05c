package content

import (
	"regexp"
	"unicode/utf8"
)

// DisclaimerType selects the disclaimer wording.
type DisclaimerType string

const (
	DisclaimerGeneral     DisclaimerType = "general"
	DisclaimerLegal       DisclaimerType = "legal"
	DisclaimerSensitive   DisclaimerType = "sensitive"
	DisclaimerHistorical  DisclaimerType = "historical"
	DisclaimerEducational DisclaimerType = "educational"
)

type topicDisclaimer struct {
	re  *regexp.Regexp
	typ DisclaimerType
}

// Disclaimers appends a short or full notice to content that touches on
// legal or sensitive ground.
type Disclaimers struct {
	full   map[DisclaimerType]string
	short  map[DisclaimerType]string
	topics []topicDisclaimer
}

// NewDisclaimers returns the built-in wording and topic keywords.
func NewDisclaimers() *Disclaimers {
	d := &Disclaimers{
		full: map[DisclaimerType]string{
			DisclaimerGeneral:     "📚 This is educational content, not legal or professional advice.",
			DisclaimerLegal:       "⚖️ This is general information only. For specific legal advice, please consult a qualified legal professional.",
			DisclaimerSensitive:   "⚠️ This content discusses sensitive topics. Please engage respectfully and seek professional guidance if needed.",
			DisclaimerHistorical:  "📜 This content discusses historical events for educational purposes.",
			DisclaimerEducational: "🎓 Educational content for awareness. For detailed interpretation, consult professional resources.",
		},
		short: map[DisclaimerType]string{
			DisclaimerGeneral:     "📚 Educational only, not legal advice.",
			DisclaimerLegal:       "⚖️ General info only. Consult a lawyer for advice.",
			DisclaimerSensitive:   "⚠️ Sensitive topic. Seek guidance if needed.",
			DisclaimerHistorical:  "📜 Historical context for educational purposes.",
			DisclaimerEducational: "🎓 For awareness. Consult professional resources.",
		},
	}
	for _, t := range []struct {
		words string
		typ   DisclaimerType
	}{
		{`rights violation|sue|court|arrested|detained|lawyer`, DisclaimerLegal},
		{`death penalty|abortion|hate speech|discrimination|violence`, DisclaimerSensitive},
	} {
		d.topics = append(d.topics, topicDisclaimer{
			re:  regexp.MustCompile(`(?i)\b(` + t.words + `)\b`),
			typ: t.typ,
		})
	}
	return d
}

// Text returns the disclaimer of type t, falling back to general.
func (d *Disclaimers) Text(t DisclaimerType, short bool) string {
	m := d.full
	if short {
		m = d.short
	}
	if s, ok := m[t]; ok {
		return s
	}
	return m[DisclaimerGeneral]
}

// Detect returns the disclaimer text calls for, if any. Legal keywords win
// over sensitive ones.
func (d *Disclaimers) Detect(text string) (DisclaimerType, bool) {
	for _, t := range d.topics {
		if t.re.MatchString(text) {
			return t.typ, true
		}
	}
	return "", false
}

// Append adds the detected disclaimer after a blank line. With maxRunes > 0
// the short form is used and nothing is added unless it fits; otherwise
// the full form is used.
func (d *Disclaimers) Append(text string, maxRunes int) string {
	t, ok := d.Detect(text)
	if !ok {
		return text
	}
	return d.appendType(text, t, maxRunes)
}

func (d *Disclaimers) appendType(text string, t DisclaimerType, maxRunes int) string {
	if maxRunes <= 0 {
		return text + "\n\n" + d.Text(t, false)
	}
	disc := d.Text(t, true)
	if utf8.RuneCountInString(text)+utf8.RuneCountInString(disc)+2 > maxRunes {
		return text
	}
	return text + "\n\n" + disc
}

// AppendThread closes a thread with a short disclaimer, educational unless
// the posts call for another. It goes on the last post when it fits there,
// otherwise it becomes a post of its own while the thread stays within
// maxPosts. added is the number of posts appended, 0 or 1.
func (d *Disclaimers) AppendThread(posts []string, maxRunes, maxPosts int) (out []string, added int) {
	if len(posts) == 0 {
		return posts, 0
	}
	t, ok := d.Detect(JoinPosts(posts))
	if !ok {
		t = DisclaimerEducational
	}
	out = append([]string(nil), posts...)
	last := len(out) - 1
	if withDisc := d.appendType(out[last], t, maxRunes); withDisc != out[last] {
		out[last] = withDisc
		return out, 0
	}
	if maxPosts > 0 && len(out) >= maxPosts {
		return out, 0
	}
	return append(out, d.Text(t, true)), 1
}
