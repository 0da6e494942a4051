package engine

import "strings"

const minTermLength = 4

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "is": {},
	"are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"with": {}, "from": {}, "this": {}, "that": {}, "have": {}, "has": {},
}

// Terms extracts normalized terms and their occurrence counts from text.
// Case-folded, punctuation-trimmed, stop-worded, short words dropped.
// Empty or unparseable text yields an empty map, never an error.
func Terms(text string) map[string]int {
	counts := make(map[string]int)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		term := strings.Trim(word, ".,!?;:()[]{}\"'`")
		if len(term) < minTermLength {
			continue
		}
		if _, ok := stopWords[term]; ok {
			continue
		}
		counts[term]++
	}
	return counts
}
