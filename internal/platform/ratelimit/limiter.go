package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter bounds outbound calls to at most maxRequests within a trailing
// window. Acquire blocks the caller (timer-based, no busy spinning) until
// one more call fits, then records it. Rate limiting itself never fails;
// the only error Acquire returns is the caller's context expiring while
// waiting.
type Limiter struct {
	mu         sync.Mutex
	maxReq     int
	window     time.Duration
	timestamps []time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(maxRequests int, window time.Duration) *Limiter {
	if maxRequests < 1 {
		maxRequests = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &Limiter{
		maxReq:     maxRequests,
		window:     window,
		timestamps: make([]time.Time, 0, maxRequests),
		now:        time.Now,
		sleep:      sleepContext,
	}
}

// Acquire blocks until issuing one more call would not exceed the window
// budget, records the call, and returns. When the window is full it waits
// exactly until the oldest recorded call falls out of the window and then
// re-evaluates, so the bound stays exact under clock variance.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		l.mu.Lock()
		now := l.now()
		l.prune(now)

		if len(l.timestamps) < l.maxReq {
			l.timestamps = append(l.timestamps, now)
			l.mu.Unlock()
			return nil
		}

		wait := l.timestamps[0].Add(l.window).Sub(now)
		l.mu.Unlock()

		if wait < 0 {
			wait = 0
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// InFlight reports how many calls are currently recorded inside the window.
func (l *Limiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.timestamps)
}

// prune drops timestamps older than the trailing window. Caller holds mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	idx := 0
	for idx < len(l.timestamps) && !l.timestamps[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		l.timestamps = append(l.timestamps[:0], l.timestamps[idx:]...)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
