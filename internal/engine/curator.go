package engine

import (
	"errors"
	"fmt"
	"sort"

	"CodeNews/internal/domain"
)

// ErrInsufficientContent reports that fewer candidates qualified than the
// configured digest minimum. The caller decides whether to skip or defer.
var ErrInsufficientContent = errors.New("not enough qualifying items for a digest")

// Curator selects items for periodic digest publication. Select is pure
// with respect to item state; only Commit transitions the chosen items.
type Curator struct {
	minItems  int
	maxItems  int
	threshold float64
}

// NewCurator configures digest selection bounds.
func NewCurator(minItems, maxItems int, threshold float64) *Curator {
	return &Curator{minItems: minItems, maxItems: maxItems, threshold: threshold}
}

// Select picks up to maxItems candidates in state Pending or Notified whose
// score clears the digest threshold, ordered by score descending with
// earlier publication first on ties. Given the same candidate set the
// result is always the same. Returns ErrInsufficientContent when fewer
// than minItems qualify; nothing is selected in that case.
func (c *Curator) Select(candidates []domain.Item) ([]domain.Item, error) {
	qualifying := make([]domain.Item, 0, len(candidates))
	for _, item := range candidates {
		if item.State != domain.StatePending && item.State != domain.StateNotified {
			continue
		}
		if item.Score < c.threshold {
			continue
		}
		qualifying = append(qualifying, item)
	}

	if len(qualifying) < c.minItems {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientContent, c.minItems, len(qualifying))
	}

	sort.SliceStable(qualifying, func(i, j int) bool {
		if qualifying[i].Score != qualifying[j].Score {
			return qualifying[i].Score > qualifying[j].Score
		}
		return qualifying[i].PublishedAt.Before(qualifying[j].PublishedAt)
	})

	if len(qualifying) > c.maxItems {
		qualifying = qualifying[:c.maxItems]
	}
	return qualifying, nil
}

// Commit transitions a selection to Digested and returns the mutated
// copies for persistence.
func (c *Curator) Commit(selection []domain.Item) ([]domain.Item, error) {
	committed := make([]domain.Item, 0, len(selection))
	for _, item := range selection {
		if err := item.MarkDigested(); err != nil {
			return nil, err
		}
		committed = append(committed, item)
	}
	return committed, nil
}
