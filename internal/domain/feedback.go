package domain

import (
	"fmt"
	"time"
)

// Signal is the polarity of a user reaction to a delivered item.
type Signal string

const (
	SignalPositive Signal = "positive"
	SignalNegative Signal = "negative"
)

// FeedbackEvent is an immutable user reaction tied to a specific item.
type FeedbackEvent struct {
	ItemID     string
	Signal     Signal
	OccurredAt time.Time
}

// Key identifies the event for replay detection.
func (e FeedbackEvent) Key() string {
	return fmt.Sprintf("%s|%s|%d", e.ItemID, e.Signal, e.OccurredAt.UTC().Unix())
}

// TermWeight is the persisted shape of a single learned preference.
type TermWeight struct {
	Weight   float64
	Positive int
	Negative int
}

// DigestRecord tracks a published digest for history and deduplication.
type DigestRecord struct {
	ID          string
	Title       string
	ItemIDs     []string
	PageURL     string
	GeneratedAt time.Time
}
