package chunker

import (
	"strings"
)

// Segment is a labeled piece of grounding text, e.g. a section's full text
// under its citation label.
type Segment struct {
	Label string
	Text  string
}

// TruncationMarker ends a segment that was cut to fit a window.
const TruncationMarker = " [...]"

// Window keeps segments in order until maxTokens is spent. The first
// segment that does not fit is cut at a paragraph or sentence boundary,
// marked with TruncationMarker, and nothing after it is kept. A
// non-positive maxTokens keeps everything.
func Window(segs []Segment, maxTokens int) ([]Segment, bool) {
	if maxTokens <= 0 {
		return segs, false
	}
	var out []Segment
	used := 0
	for _, s := range segs {
		labelTokens := EstimateTokens(s.Label)
		t := labelTokens + EstimateTokens(s.Text)
		if used+t <= maxTokens {
			out = append(out, s)
			used += t
			continue
		}
		remaining := maxTokens - used - labelTokens
		if remaining > 0 {
			if cut := head(s.Text, remaining); cut != "" {
				out = append(out, Segment{Label: s.Label, Text: cut + TruncationMarker})
			}
		}
		return out, true
	}
	return out, false
}

// Split divides text into exactly n sentence-aligned parts of roughly equal
// token size. It returns nil when the text has fewer than n sentences.
func Split(text string, n int) []string {
	sents := splitSentences(strings.Join(strings.Fields(text), " "))
	if n <= 0 || len(sents) < n {
		return nil
	}

	weight := func(s string) int { return max(EstimateTokens(s), 1) }
	total := 0
	for _, s := range sents {
		total += weight(s)
	}

	parts := make([]string, 0, n)
	var cur []string
	acc, used := 0, 0
	for i, s := range sents {
		cur = append(cur, s)
		acc += weight(s)
		partsLeft := n - len(parts) - 1
		if partsLeft == 0 {
			continue
		}
		sentsLeft := len(sents) - i - 1
		target := (total - used) / (partsLeft + 1)
		// Cut when the part reaches its share, or when every remaining
		// sentence is needed to give each remaining part one.
		if acc >= target || sentsLeft == partsLeft {
			parts = append(parts, strings.Join(cur, " "))
			used += acc
			cur, acc = nil, 0
		}
	}
	return append(parts, strings.Join(cur, " "))
}

// head returns the longest prefix of text, in whole paragraphs and then
// whole sentences, whose estimate fits budget. It is empty when not even
// the first sentence fits.
func head(text string, budget int) string {
	var out []string
	used := 0
	for _, para := range splitParagraphs(text) {
		if t := EstimateTokens(para); used+t <= budget {
			out = append(out, para)
			used += t
			continue
		}
		var sents []string
		for _, sent := range splitSentences(para) {
			t := EstimateTokens(strings.Join(append(sents, sent), " "))
			if used+t > budget {
				break
			}
			sents = append(sents, sent)
		}
		if len(sents) > 0 {
			out = append(out, strings.Join(sents, " "))
		}
		break
	}
	return strings.Join(out, "\n\n")
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && (text[i+1] == ' ' || text[i+1] == '\n') {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
