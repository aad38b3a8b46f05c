package chunker

import (
	"strings"
	"unicode/utf8"
)

// EstimateTokens approximates a model token count. English prose runs at
// about 1.33 tokens per word; text without word breaks falls back to one
// token per four runes. The larger estimate wins.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	byWords := int(float64(len(strings.Fields(text))) * 1.33)
	byRunes := utf8.RuneCountInString(text) / 4
	return max(byWords, byRunes, 1)
}
