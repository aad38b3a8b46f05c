package content

import (
	"math"
	"regexp"
	"strings"
)

// PatternCategory groups phrasings typical of machine-written text.
type PatternCategory string

const (
	ClicheOpener   PatternCategory = "cliche_opener"
	ClichePhrase   PatternCategory = "cliche_phrase"
	Hedging        PatternCategory = "hedging"
	ListStructure  PatternCategory = "list_structure"
	CorporateSpeak PatternCategory = "corporate_speak"
	FillerWords    PatternCategory = "filler_words"
)

// DetectedPattern is one match in analyzed text.
type DetectedPattern struct {
	Category PatternCategory `json:"category"`
	Text     string          `json:"text"`
	Start    int             `json:"start"`
	End      int             `json:"end"`
	Severity float64         `json:"severity"`
}

// PatternReport is the outcome of AnalyzePatterns. Score runs from 0
// (reads as human) to 1 (reads as machine-written).
type PatternReport struct {
	Patterns         []DetectedPattern `json:"patterns,omitempty"`
	Score            float64           `json:"score"`
	SentenceVariance float64           `json:"sentence_variance"`
	Suggestions      []string          `json:"suggestions,omitempty"`
}

// HumanLikeThreshold is the score above which text gets a warning.
const HumanLikeThreshold = 0.5

type patternSet struct {
	category PatternCategory
	severity float64
	res      []*regexp.Regexp
}

func compileSet(cat PatternCategory, severity float64, exprs ...string) patternSet {
	ps := patternSet{category: cat, severity: severity}
	for _, e := range exprs {
		ps.res = append(ps.res, regexp.MustCompile(`(?im)`+e))
	}
	return ps
}

var (
	openerPatterns = compileSet(ClicheOpener, 0.8,
		`^It'?s important to (note|remember|understand|recognize)`,
		`^In today'?s (world|society|age|digital age)`,
		`^Let'?s (delve|dive|explore|unpack|break down)`,
		`^When it comes to`,
		`^In (this|the) (article|post|thread|piece)`,
		`^(Have you ever|Did you know)`,
		`^(First and foremost|First off|To begin with)`,
		`^(Interestingly|Surprisingly|Remarkably|Notably)`,
		`^As (we all know|many know|you may know)`,
		`^The (truth|reality|fact) is`,
	)
	phrasePatterns = compileSet(ClichePhrase, 0.6,
		`at the end of the day`,
		`it goes without saying`,
		`needless to say`,
		`in (this|today'?s) day and age`,
		`the bottom line is`,
		`when all is said and done`,
		`last but not least`,
		`in a nutshell`,
		`only time will tell`,
		`it'?s worth (noting|mentioning|pointing out)`,
		`plays a (crucial|vital|key|pivotal|significant) role`,
		`(serves|acts) as a (reminder|testament)`,
		`paves the way`,
		`stands as a testament`,
		`food for thought`,
		`game changer`,
		`a double-edged sword`,
		// generic calls to action
		`(What do you think|Share your thoughts|Let (me|us) know)`,
		`(Stay tuned|Follow for more)`,
		`(Together|Collectively),? we can`,
		`Join (us|the conversation|the movement)`,
	)
	hedgingPatterns = compileSet(Hedging, 0.4,
		`\b(perhaps|maybe|possibly|potentially)\b`,
		`\bit (could|might|may) be (said|argued|noted)`,
		`\bto some (extent|degree)\b`,
		`\bin some (ways|respects)\b`,
		`\bone (could|might|may) argue`,
		`\bit (seems|appears) (that|to be)`,
		`\bgenerally speaking\b`,
		`\bfor the most part\b`,
	)
	corporatePatterns = compileSet(CorporateSpeak, 0.7,
		`\bdelve\b`,
		`\bunpack\b`,
		`\brobust\b`,
		`\bleverage\b`,
		`\bsynerg(y|ize|istic)\b`,
		`\bholistic\b`,
		`\bparadigm\b`,
		`\bscalable\b`,
		`\bimpactful\b`,
		`\bactionable\b`,
		`\bempower(ing|ment|ed)?\b`,
		`\btransform(ative|ational)\b`,
		`\bcutting-?edge\b`,
		`\bstakeholders?\b`,
		`\bthought leader(ship)?\b`,
	)
	listPatterns = compileSet(ListStructure, 0.5,
		`^(First|Firstly),?\s`,
		`^(Second|Secondly),?\s`,
		`^(Third|Thirdly),?\s`,
	)
	fillerPatterns = compileSet(FillerWords, 0.2,
		`\b(basically|actually|essentially|obviously|clearly|literally|simply)\b`,
	)

	sentenceEndRe = regexp.MustCompile(`[.!?]+`)
)

// AnalyzePatterns scores text for phrasings typical of machine-written
// prose. Hedging counts only past its second use; filler words count only
// when strict is set.
func AnalyzePatterns(text string, strict bool) PatternReport {
	var found []DetectedPattern
	sets := []patternSet{openerPatterns, phrasePatterns, hedgingPatterns, corporatePatterns, listPatterns}
	if strict {
		sets = append(sets, fillerPatterns)
	}
	for _, ps := range sets {
		seen := 0
		for _, re := range ps.res {
			for _, loc := range re.FindAllStringIndex(text, -1) {
				seen++
				if ps.category == Hedging && seen <= 2 && !strict {
					continue
				}
				found = append(found, DetectedPattern{
					Category: ps.category,
					Text:     text[loc[0]:loc[1]],
					Start:    loc[0],
					End:      loc[1],
					Severity: ps.severity,
				})
			}
		}
	}

	rep := PatternReport{Patterns: found, SentenceVariance: sentenceVariance(text)}
	rep.Score = patternScore(text, found, rep.SentenceVariance)
	rep.Suggestions = patternSuggestions(found, rep.SentenceVariance)
	return rep
}

// Of returns the detected patterns in the given categories, in order.
func (r PatternReport) Of(cats ...PatternCategory) []DetectedPattern {
	var out []DetectedPattern
	for _, p := range r.Patterns {
		for _, c := range cats {
			if p.Category == c {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func patternScore(text string, found []DetectedPattern, variance float64) float64 {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	total := 0.0
	opener := false
	for _, p := range found {
		total += p.Severity
		opener = opener || p.Category == ClicheOpener
	}
	score := math.Min(total/math.Max(float64(words)/10, 1), 1)
	score += math.Max(0, 0.3-variance) * 2
	if opener {
		score += 0.3
	}
	return math.Round(math.Min(score, 1)*1000) / 1000
}

// sentenceVariance is the coefficient of variation of sentence word
// counts, scaled so 0.5 maps to 1. A single sentence scores 0.5.
func sentenceVariance(text string) float64 {
	var counts []float64
	for _, s := range sentenceEndRe.Split(text, -1) {
		if n := len(strings.Fields(s)); n > 0 {
			counts = append(counts, float64(n))
		}
	}
	if len(counts) < 2 {
		return 0.5
	}
	mean := 0.0
	for _, c := range counts {
		mean += c
	}
	mean /= float64(len(counts))
	v := 0.0
	for _, c := range counts {
		v += (c - mean) * (c - mean)
	}
	cv := math.Sqrt(v/float64(len(counts))) / mean
	return math.Round(math.Min(cv/0.5, 1)*1000) / 1000
}

func patternSuggestions(found []DetectedPattern, variance float64) []string {
	counts := make(map[PatternCategory]int)
	for _, p := range found {
		counts[p.Category]++
	}
	var out []string
	if counts[ClicheOpener] > 0 {
		out = append(out, "start with a specific observation, question or mid-thought opener")
	}
	if counts[ClichePhrase] > 1 {
		out = append(out, "replace stock phrases with concrete language")
	}
	if counts[Hedging] > 2 {
		out = append(out, "reduce hedging and say it directly")
	}
	if counts[CorporateSpeak] > 0 {
		out = append(out, "replace buzzwords with everyday words")
	}
	if counts[ListStructure] > 0 {
		out = append(out, "vary the structure instead of First/Second/Third")
	}
	if variance < 0.3 {
		out = append(out, "mix short and long sentences")
	}
	return out
}
