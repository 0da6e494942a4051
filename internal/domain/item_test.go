package domain

import "testing"

func TestItemForwardPath(t *testing.T) {
	t.Parallel()

	item := Item{ID: "a", State: StatePending}

	if err := item.MarkNotified(); err != nil {
		t.Fatalf("MarkNotified from pending: %v", err)
	}
	if err := item.MarkDigested(); err != nil {
		t.Fatalf("MarkDigested from notified: %v", err)
	}
	if item.State != StateDigested {
		t.Fatalf("unexpected state: %s", item.State)
	}
}

func TestItemDigestedIsTerminal(t *testing.T) {
	t.Parallel()

	item := Item{ID: "a", State: StateDigested}

	if err := item.MarkNotified(); err == nil {
		t.Fatal("expected error notifying a digested item")
	}
	if err := item.Discard(); err == nil {
		t.Fatal("expected error discarding a digested item")
	}
	if err := item.MarkDigested(); err == nil {
		t.Fatal("expected error re-digesting a digested item")
	}
}

func TestItemDiscardPaths(t *testing.T) {
	t.Parallel()

	pending := Item{ID: "a", State: StatePending}
	if err := pending.Discard(); err != nil {
		t.Fatalf("Discard from pending: %v", err)
	}

	notified := Item{ID: "b", State: StateNotified}
	if err := notified.Discard(); err != nil {
		t.Fatalf("Discard from notified: %v", err)
	}

	if err := pending.MarkNotified(); err == nil {
		t.Fatal("expected error notifying a discarded item")
	}
}

func TestFeedbackEventKeyIsStable(t *testing.T) {
	t.Parallel()

	a := FeedbackEvent{ItemID: "x", Signal: SignalPositive}
	b := FeedbackEvent{ItemID: "x", Signal: SignalPositive}
	if a.Key() != b.Key() {
		t.Fatalf("identical events must share a key: %s vs %s", a.Key(), b.Key())
	}

	c := FeedbackEvent{ItemID: "x", Signal: SignalNegative}
	if a.Key() == c.Key() {
		t.Fatal("different signals must not share a key")
	}
}
