package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"sift_server/pkg/apperr"
)

func TestWaitUnderLimit(t *testing.T) {
	l := NewCallLimiter(3, time.Second)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("calls under the limit should not block, took %v", elapsed)
	}
	if got := l.InFlight(); got != 3 {
		t.Errorf("expected 3 starts in window, got %d", got)
	}
}

func TestWaitBlocksOverLimit(t *testing.T) {
	window := 200 * time.Millisecond
	l := NewCallLimiter(2, window)

	for i := 0; i < 2; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// Third call must be delayed until the oldest start leaves the window.
	start := time.Now()
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < window/2 {
		t.Errorf("expected the call over the limit to block ~%v, blocked %v", window, elapsed)
	}
}

func TestWaitNeverExceedsLimitConcurrently(t *testing.T) {
	window := 150 * time.Millisecond
	limit := 5
	l := NewCallLimiter(limit, window)

	var mu sync.Mutex
	var starts []time.Time

	var wg sync.WaitGroup
	for i := 0; i < 3*limit; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Wait(context.Background()); err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			mu.Lock()
			starts = append(starts, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	// No sliding window may contain more than `limit` starts.
	for _, anchor := range starts {
		count := 0
		for _, s := range starts {
			if !s.Before(anchor) && s.Before(anchor.Add(window)) {
				count++
			}
		}
		// Small tolerance for the gap between slot claim and timestamping.
		if count > limit+1 {
			t.Fatalf("window starting at %v contains %d starts, limit is %d", anchor, count, limit)
		}
	}
}

func TestWaitDeadlineExceeded(t *testing.T) {
	l := NewCallLimiter(1, time.Minute)
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	if err == nil {
		t.Fatal("expected deadline error, got nil")
	}
	if !apperr.IsCode(err, apperr.CodeDeadlineExceeded) {
		t.Errorf("expected DEADLINE_EXCEEDED, got %v", err)
	}
}

func TestPruneFreesSlots(t *testing.T) {
	window := 100 * time.Millisecond
	l := NewCallLimiter(2, window)

	for i := 0; i < 2; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	time.Sleep(window + 20*time.Millisecond)
	if got := l.InFlight(); got != 0 {
		t.Errorf("expected window to drain, %d starts remain", got)
	}
}
