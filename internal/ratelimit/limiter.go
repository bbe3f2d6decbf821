package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result is the outcome of a single Check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAt is when the oldest counted request leaves the window.
	ResetAt time.Time
	// RetryAfter is set on rejection: time left until ResetAt.
	RetryAfter time.Duration
}

type Option func(*Limiter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// Limiter is an in-memory sliding-window counter keyed by client. State is
// lost on restart and is not shared between instances.
type Limiter struct {
	mu      sync.Mutex
	entries map[string][]time.Time
	window  time.Duration
	max     int
	now     func() time.Time
}

func New(window time.Duration, max int, opts ...Option) *Limiter {
	l := &Limiter{
		entries: make(map[string][]time.Time),
		window:  window,
		max:     max,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check prunes key's timestamps that fell out of the window and records the
// request if the key is still under the limit.
func (l *Limiter) Check(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	timestamps := prune(l.entries[key], now.Add(-l.window))

	if len(timestamps) >= l.max {
		l.entries[key] = timestamps
		resetAt := timestamps[0].Add(l.window)
		return Result{
			Allowed:    false,
			Limit:      l.max,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}
	}

	timestamps = append(timestamps, now)
	l.entries[key] = timestamps
	return Result{
		Allowed:   true,
		Limit:     l.max,
		Remaining: l.max - len(timestamps),
		ResetAt:   timestamps[0].Add(l.window),
	}
}

// Sweep evicts keys with no request inside the current window and returns
// how many were removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	removed := 0
	for key, timestamps := range l.entries {
		if len(timestamps) == 0 || !timestamps[len(timestamps)-1].After(cutoff) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// Len reports the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// prune drops timestamps at or before cutoff. Timestamps are kept in
// insertion order, so the survivors are a suffix.
func prune(timestamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(timestamps) && !timestamps[i].After(cutoff) {
		i++
	}
	return timestamps[i:]
}
