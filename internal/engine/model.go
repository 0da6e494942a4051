package engine

import (
	"sort"

	"CodeNews/internal/domain"
)

// Model maps normalized terms to learned weights. Absent terms report the
// default weight; deltas are clipped to the configured range. The model is
// not goroutine safe on its own: the Engine serializes all access.
type Model struct {
	weights       map[string]domain.TermWeight
	defaultWeight float64
	minWeight     float64
	maxWeight     float64
}

// TermScore pairs a term with its current weight for reporting.
type TermScore struct {
	Term   string
	Weight float64
}

// NewModel builds an empty model with the given default and bounds.
func NewModel(defaultWeight, minWeight, maxWeight float64) *Model {
	return &Model{
		weights:       make(map[string]domain.TermWeight),
		defaultWeight: defaultWeight,
		minWeight:     minWeight,
		maxWeight:     maxWeight,
	}
}

// Weight returns the learned weight for a term, or the default when absent.
func (m *Model) Weight(term string) float64 {
	if tw, ok := m.weights[term]; ok {
		return tw.Weight
	}
	return m.defaultWeight
}

// Seed installs an initial weight for a term without touching its counters.
// Used for the configured interest keywords at startup.
func (m *Model) Seed(term string, weight float64) {
	if _, ok := m.weights[term]; ok {
		return
	}
	m.weights[term] = domain.TermWeight{Weight: m.clip(weight)}
}

// ApplyDelta shifts a term's weight and clips the result to the configured
// range. The observation counters follow the sign of the delta.
func (m *Model) ApplyDelta(term string, delta float64) {
	tw, ok := m.weights[term]
	if !ok {
		tw = domain.TermWeight{Weight: m.defaultWeight}
	}

	tw.Weight = m.clip(tw.Weight + delta)
	if delta > 0 {
		tw.Positive++
	} else if delta < 0 {
		tw.Negative++
	}
	m.weights[term] = tw
}

// Snapshot copies the full weight table for persistence hand-off.
func (m *Model) Snapshot() map[string]domain.TermWeight {
	out := make(map[string]domain.TermWeight, len(m.weights))
	for term, tw := range m.weights {
		out[term] = tw
	}
	return out
}

// Restore replaces the weight table from a persisted snapshot.
func (m *Model) Restore(snapshot map[string]domain.TermWeight) {
	m.weights = make(map[string]domain.TermWeight, len(snapshot))
	for term, tw := range snapshot {
		tw.Weight = m.clip(tw.Weight)
		m.weights[term] = tw
	}
}

// Len reports how many terms carry an explicit entry.
func (m *Model) Len() int {
	return len(m.weights)
}

// TopPositive returns the strongest positive preferences, best first.
func (m *Model) TopPositive(limit int) []TermScore {
	return m.top(limit, func(w float64) bool { return w > 0 }, func(a, b TermScore) bool {
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		return a.Term < b.Term
	})
}

// TopNegative returns the strongest negative preferences, worst first.
func (m *Model) TopNegative(limit int) []TermScore {
	return m.top(limit, func(w float64) bool { return w < 0 }, func(a, b TermScore) bool {
		if a.Weight != b.Weight {
			return a.Weight < b.Weight
		}
		return a.Term < b.Term
	})
}

func (m *Model) top(limit int, keep func(float64) bool, less func(a, b TermScore) bool) []TermScore {
	scores := make([]TermScore, 0, len(m.weights))
	for term, tw := range m.weights {
		if keep(tw.Weight) {
			scores = append(scores, TermScore{Term: term, Weight: tw.Weight})
		}
	}
	sort.Slice(scores, func(i, j int) bool { return less(scores[i], scores[j]) })
	if limit > 0 && len(scores) > limit {
		scores = scores[:limit]
	}
	return scores
}

func (m *Model) clip(w float64) float64 {
	if w < m.minWeight {
		return m.minWeight
	}
	if w > m.maxWeight {
		return m.maxWeight
	}
	return w
}
