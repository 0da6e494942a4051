package engine

import "CodeNews/internal/domain"

// feedbackDeltas is the online update rule as a pure function: given the
// term counts of the item the user reacted to, it returns the per-term
// weight adjustments. Contribution is the term's count relative to the most
// frequent term in that item, so every single application is bounded by the
// learning rate.
func feedbackDeltas(terms map[string]int, signal domain.Signal, learningRate float64) map[string]float64 {
	if len(terms) == 0 {
		return nil
	}

	maxCount := 0
	for _, count := range terms {
		if count > maxCount {
			maxCount = count
		}
	}

	direction := 1.0
	if signal == domain.SignalNegative {
		direction = -1.0
	}

	deltas := make(map[string]float64, len(terms))
	for term, count := range terms {
		deltas[term] = direction * learningRate * float64(count) / float64(maxCount)
	}
	return deltas
}

// thresholdBatch accumulates observed scores of items that received
// feedback. Once enough events pile up, the acceptance threshold takes one
// step toward the midpoint between the mean positive and mean negative
// score. Batching keeps the threshold from oscillating on every event.
type thresholdBatch struct {
	events      int
	positiveSum float64
	positiveN   int
	negativeSum float64
	negativeN   int
}

func (b *thresholdBatch) observe(score float64, signal domain.Signal) {
	b.events++
	if signal == domain.SignalPositive {
		b.positiveSum += score
		b.positiveN++
	} else {
		b.negativeSum += score
		b.negativeN++
	}
}

// adapt returns the nudged threshold and whether an adaptation ran. The
// batch resets either way once the event count is reached, so adaptation
// stays on its slow cadence even when one side has no samples yet.
func (b *thresholdBatch) adapt(threshold, step float64, minEvents int) (float64, bool) {
	if b.events < minEvents {
		return threshold, false
	}

	adapted := false
	if b.positiveN > 0 && b.negativeN > 0 {
		positiveMean := b.positiveSum / float64(b.positiveN)
		negativeMean := b.negativeSum / float64(b.negativeN)
		midpoint := (positiveMean + negativeMean) / 2
		threshold += step * (midpoint - threshold)
		adapted = true
	}

	*b = thresholdBatch{}
	return threshold, adapted
}
