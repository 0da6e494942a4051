package engine

import "time"

// Throttle bounds how many notifications may fire within a trailing window.
// It is a pure rate limiter: a rejected attempt is simply dropped by the
// caller, the item stays pending for the next scan or a digest.
type Throttle struct {
	limit  int
	window time.Duration
	stamps []time.Time
}

// NewThrottle builds a sliding-window limiter.
func NewThrottle(limit int, window time.Duration) *Throttle {
	return &Throttle{limit: limit, window: window}
}

// TryAcquire reports whether a notification may be sent at now. On success
// the attempt is recorded into the window. Expired timestamps are evicted
// lazily on each call.
func (t *Throttle) TryAcquire(now time.Time) bool {
	t.evict(now)
	if len(t.stamps) >= t.limit {
		return false
	}
	t.stamps = append(t.stamps, now)
	return true
}

// InWindow reports how many notifications were sent within the trailing
// window as of now.
func (t *Throttle) InWindow(now time.Time) int {
	t.evict(now)
	return len(t.stamps)
}

func (t *Throttle) evict(now time.Time) {
	cutoff := now.Add(-t.window)
	kept := t.stamps[:0]
	for _, ts := range t.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	t.stamps = kept
}
