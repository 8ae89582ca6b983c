// Package ratelimit implements the hourly token bucket used to stay
// under the schedule/results provider's quota.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// HourlyBucket replenishes to capacity at the top of each hour window,
// counted from the first request rather than the wall-clock hour.
// Thread-safe; the mutex is never held across a caller's HTTP call.
type HourlyBucket struct {
	mu       sync.Mutex
	capacity int
	tokens   int
	resetAt  time.Time
	now      func() time.Time
}

// NewHourlyBucket creates a bucket with the given per-hour capacity.
func NewHourlyBucket(capacity int) *HourlyBucket {
	return &HourlyBucket{
		capacity: capacity,
		tokens:   capacity,
		now:      time.Now,
	}
}

// Take blocks until at least one token is available, or ctx is canceled.
func (b *HourlyBucket) Take(ctx context.Context) error {
	for {
		wait, ok := b.tryTake()
		if ok {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// tryTake attempts to consume a token. On success it returns (0, true).
// On failure it returns the duration the caller should wait before
// retrying.
func (b *HourlyBucket) tryTake() (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if !now.Before(b.resetAt) {
		b.tokens = b.capacity
		b.resetAt = now.Add(time.Hour)
	}

	if b.tokens < 1 {
		return b.resetAt.Sub(now), false
	}

	b.tokens--
	return 0, true
}

// Remaining reports tokens left in the current hour window, for metrics.
func (b *HourlyBucket) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if !now.Before(b.resetAt) {
		return b.capacity
	}
	return b.tokens
}
