package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThrottleEnforcesLimit(t *testing.T) {
	t.Parallel()

	throttle := NewThrottle(3, time.Hour)
	base := time.Unix(100000, 0)

	assert.True(t, throttle.TryAcquire(base))
	assert.True(t, throttle.TryAcquire(base.Add(1*time.Minute)))
	assert.True(t, throttle.TryAcquire(base.Add(2*time.Minute)))
	assert.False(t, throttle.TryAcquire(base.Add(3*time.Minute)))
	assert.False(t, throttle.TryAcquire(base.Add(59*time.Minute)))
}

func TestThrottleSlidesWithTime(t *testing.T) {
	t.Parallel()

	throttle := NewThrottle(2, time.Hour)
	base := time.Unix(100000, 0)

	assert.True(t, throttle.TryAcquire(base))
	assert.True(t, throttle.TryAcquire(base.Add(30*time.Minute)))
	assert.False(t, throttle.TryAcquire(base.Add(45*time.Minute)))

	// first stamp expires after base+1h
	assert.True(t, throttle.TryAcquire(base.Add(61*time.Minute)))
	assert.False(t, throttle.TryAcquire(base.Add(62*time.Minute)))
}

func TestThrottleNeverExceedsLimitInAnyWindow(t *testing.T) {
	t.Parallel()

	const limit = 5
	throttle := NewThrottle(limit, time.Hour)
	base := time.Unix(100000, 0)

	var granted []time.Time
	// uneven bursts over six hours
	for i := 0; i < 600; i++ {
		now := base.Add(time.Duration(i*37) * time.Second * 10)
		if throttle.TryAcquire(now) {
			granted = append(granted, now)
		}
	}

	for i := range granted {
		inWindow := 0
		for j := range granted {
			diff := granted[i].Sub(granted[j])
			if diff >= 0 && diff < time.Hour {
				inWindow++
			}
		}
		assert.LessOrEqual(t, inWindow, limit)
	}
}

func TestThrottleInWindow(t *testing.T) {
	t.Parallel()

	throttle := NewThrottle(10, time.Hour)
	base := time.Unix(100000, 0)

	throttle.TryAcquire(base)
	throttle.TryAcquire(base.Add(time.Minute))

	assert.Equal(t, 2, throttle.InWindow(base.Add(2*time.Minute)))
	assert.Equal(t, 0, throttle.InWindow(base.Add(2*time.Hour)))
}
