// Package ratelimit provides rate limiting for external API calls.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"sift_server/pkg/apperr"
)

// CallLimiter enforces a ceiling on how many calls may start within a rolling
// window. It is shared process-wide: the ceiling is account-level at the
// remote service, not per-caller. Wait blocks until a slot frees instead of
// dropping or erroring, so at most `limit` calls start within any window.
type CallLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	starts []time.Time // start times inside the current window, oldest first

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewCallLimiter creates a limiter allowing `limit` calls per `window`.
func NewCallLimiter(limit int, window time.Duration) *CallLimiter {
	return &CallLimiter{
		limit:  limit,
		window: window,
		starts: make([]time.Time, 0, limit),
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until a call slot is available, then claims it. The claim is
// made at return time, so the caller should issue the remote call immediately.
// A caller-supplied deadline cancels the wait with a DeadlineExceeded error.
func (l *CallLimiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)

		if len(l.starts) < l.limit {
			l.starts = append(l.starts, now)
			l.mu.Unlock()
			return nil
		}

		// Window is full. The next slot frees when the oldest start leaves it.
		wait := l.starts[0].Add(l.window).Sub(now)
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			return apperr.DeadlineExceeded("rate limiter wait", err)
		}
	}
}

// InFlight returns the number of call starts currently inside the window.
func (l *CallLimiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.starts)
}

// prune drops starts that have slid out of the window. Caller holds the lock.
func (l *CallLimiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.starts) && !l.starts[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.starts = append(l.starts[:0], l.starts[i:]...)
	}
}
