package engine

import (
	"math"
	"sort"

	"CodeNews/internal/domain"
)

// Score computes the relevance of an item against the model and returns the
// score alongside the positively matched keywords.
//
// Each extracted term contributes weight(term) * count/maxCount, so a term
// repeated throughout the item gets full credit and an incidental mention a
// fraction. The sum is dampened by log(1+totalTerms) to keep scores
// comparable between short and long items. An item with no weighted terms
// scores exactly zero; empty text scores zero and never errors. The final
// score is floored at zero so negative terms can sink an item to the
// bottom but never rank it below unmatched content.
func Score(item domain.Item, model *Model) (float64, []string) {
	terms := Terms(item.Title + " " + item.Summary)
	if len(terms) == 0 {
		return 0, nil
	}

	maxCount := 0
	totalTerms := 0
	for _, count := range terms {
		totalTerms += count
		if count > maxCount {
			maxCount = count
		}
	}

	var raw float64
	var matched []string
	for term, count := range terms {
		weight := model.Weight(term)
		if weight == 0 {
			continue
		}
		raw += weight * float64(count) / float64(maxCount)
		if weight > 0 {
			matched = append(matched, term)
		}
	}

	if raw == 0 && len(matched) == 0 {
		return 0, nil
	}

	sort.Strings(matched)
	score := raw / math.Log(1+float64(totalTerms))
	if score < 0 {
		score = 0
	}
	return score, matched
}
