package chunker

import (
	"strings"
	"testing"
)

func TestWindow_EverythingFits(t *testing.T) {
	segs := []Segment{
		{Label: "Section 1", Text: "Short text."},
		{Label: "Section 2", Text: "Also short."},
	}
	got, truncated := Window(segs, 1000)
	if truncated {
		t.Errorf("expected no truncation")
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(got))
	}
}

func TestWindow_CutsAtSentenceAndMarks(t *testing.T) {
	long := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 50)
	segs := []Segment{
		{Label: "Section 1", Text: "Short text."},
		{Label: "Section 2", Text: long},
		{Label: "Section 3", Text: "Never reached."},
	}
	got, truncated := Window(segs, 60)
	if !truncated {
		t.Fatalf("expected truncation")
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(got))
	}
	cut := got[1].Text
	if !strings.HasSuffix(cut, "dog."+TruncationMarker) {
		t.Errorf("expected cut at sentence end with marker, got %q", cut[len(cut)-30:])
	}
	if EstimateTokens(strings.TrimSuffix(cut, TruncationMarker)) > 60 {
		t.Errorf("cut segment exceeds budget")
	}
}

func TestWindow_NoLimit(t *testing.T) {
	segs := []Segment{{Label: "A", Text: strings.Repeat("word ", 5000)}}
	got, truncated := Window(segs, 0)
	if truncated || len(got) != 1 {
		t.Errorf("expected unbounded window to keep everything")
	}
}

func TestSplit_ExactCount(t *testing.T) {
	text := "One is first. Two is second. Three is third. Four is fourth. Five is fifth. Six is sixth. Seven."
	for n := 1; n <= 7; n++ {
		parts := Split(text, n)
		if len(parts) != n {
			t.Fatalf("n=%d: expected %d parts, got %d", n, n, len(parts))
		}
		for i, p := range parts {
			if strings.TrimSpace(p) == "" {
				t.Errorf("n=%d: part %d is empty", n, i)
			}
		}
		if strings.Join(parts, " ") != text {
			t.Errorf("n=%d: parts do not reassemble the text", n)
		}
	}
}

func TestSplit_TooFewSentences(t *testing.T) {
	if parts := Split("Only one sentence here", 2); parts != nil {
		t.Errorf("expected nil, got %v", parts)
	}
	if parts := Split("", 1); parts != nil {
		t.Errorf("expected nil for empty text, got %v", parts)
	}
}

func TestHead_ParagraphsThenSentences(t *testing.T) {
	text := "First paragraph fits.\n\nSecond one starts here. It goes on for a while longer than the budget allows."
	got := head(text, 12)
	if got != "First paragraph fits.\n\nSecond one starts here." {
		t.Errorf("unexpected head %q", got)
	}
	if EstimateTokens(got) > 12 {
		t.Errorf("head exceeds budget: %d tokens", EstimateTokens(got))
	}
}

func TestHead_NothingFits(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("word ", 400)) + "."
	if got := head(long, 50); got != "" {
		t.Errorf("expected empty head, got %d tokens", EstimateTokens(got))
	}
}

func TestWindow_DropsSegmentWhenNoSentenceFits(t *testing.T) {
	segs := []Segment{{Label: "Section 1", Text: strings.Repeat("word ", 400)}}
	got, truncated := Window(segs, 50)
	if !truncated {
		t.Errorf("expected truncation")
	}
	if len(got) != 0 {
		t.Errorf("expected no segments kept, got %d", len(got))
	}
}

func TestEstimateTokens(t *testing.T) {
	if EstimateTokens("") != 0 {
		t.Errorf("expected 0 for empty text")
	}
	if EstimateTokens("x") != 1 {
		t.Errorf("expected at least 1 token for non-empty text")
	}
	if got := EstimateTokens(strings.Repeat("word ", 100)); got != 133 {
		t.Errorf("expected 133, got %d", got)
	}
}
