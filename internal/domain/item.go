package domain

import (
	"fmt"
	"time"
)

// ItemState tracks where an item sits in the notification/digest lifecycle.
type ItemState string

const (
	StatePending   ItemState = "pending"
	StateNotified  ItemState = "notified"
	StateDigested  ItemState = "digested"
	StateDiscarded ItemState = "discarded"
)

// Item is a single ingested content record awaiting scoring, notification
// and digest curation. Identity is the canonical URL or feed-provided GUID.
type Item struct {
	ID          string
	Title       string
	Summary     string
	URL         string
	Source      string
	PublishedAt time.Time
	FetchedAt   time.Time

	Score           float64
	MatchedKeywords []string
	State           ItemState
}

// MarkNotified moves a pending item to notified.
func (i *Item) MarkNotified() error {
	if i.State != StatePending {
		return fmt.Errorf("item %s: cannot notify from state %s", i.ID, i.State)
	}
	i.State = StateNotified
	return nil
}

// MarkDigested moves a pending or notified item into a published digest.
func (i *Item) MarkDigested() error {
	if i.State != StatePending && i.State != StateNotified {
		return fmt.Errorf("item %s: cannot digest from state %s", i.ID, i.State)
	}
	i.State = StateDigested
	return nil
}

// Discard ages an item out. Digested items are never discarded.
func (i *Item) Discard() error {
	if i.State != StatePending && i.State != StateNotified {
		return fmt.Errorf("item %s: cannot discard from state %s", i.ID, i.State)
	}
	i.State = StateDiscarded
	return nil
}
