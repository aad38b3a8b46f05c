package strategy

import "strings"

// MaxKeywords caps the tags stored per section.
const MaxKeywords = 10

// DefaultKeywords is the tag vocabulary used when a document supplies none.
var DefaultKeywords = []string{
	"rights", "freedom", "equality", "justice", "law", "legal",
	"policy", "procedure", "requirement", "obligation", "duty",
	"authority", "power", "responsibility", "compliance", "regulation",
}

// ExtractKeywords returns the vocabulary entries found in title or text,
// case-insensitively, in vocabulary order.
func ExtractKeywords(title, text string, vocabulary []string) []string {
	hay := strings.ToLower(title + " " + text)
	var found []string
	for _, kw := range vocabulary {
		if kw == "" {
			continue
		}
		if strings.Contains(hay, strings.ToLower(kw)) {
			found = append(found, kw)
			if len(found) == MaxKeywords {
				break
			}
		}
	}
	return found
}
