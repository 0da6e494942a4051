package scheduler

import (
	"context"
	"time"

	"CodeNews/internal/ports"
)

// IntervalScheduler drives a job on a fixed interval using time.Ticker.
// The job also runs once immediately on start when runAtStart is set.
type IntervalScheduler struct {
	interval   time.Duration
	runAtStart bool
	stop       chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds a ticker-backed driver.
func NewIntervalScheduler(interval time.Duration, runAtStart bool) *IntervalScheduler {
	return &IntervalScheduler{interval: interval, runAtStart: runAtStart}
}

// Start begins ticking until the context is cancelled or Stop is called.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	if s.stop != nil {
		return nil
	}

	s.stop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		if s.runAtStart {
			job(time.Now())
		}
		for {
			select {
			case t := <-ticker.C:
				job(t)
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.stop = nil
	return nil
}
