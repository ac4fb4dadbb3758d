package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_BurstThenPaced(t *testing.T) {
	l := NewLimiter(Config{RequestsPerSecond: 20, Burst: 2})
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 2; i++ {
		if err := l.Wait(ctx, "example.com"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Errorf("burst requests should not block, took %v", elapsed)
	}

	// Third request must wait for a token (~50ms at 20 rps).
	start = time.Now()
	if err := l.Wait(ctx, "example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("expected pacing delay, got %v", elapsed)
	}
}

func TestLimiter_DomainsIndependent(t *testing.T) {
	l := NewLimiter(Config{RequestsPerSecond: 1, Burst: 1})
	ctx := context.Background()

	if err := l.Wait(ctx, "a.example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A different domain has its own bucket and proceeds immediately.
	start := time.Now()
	if err := l.Wait(ctx, "b.example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("unrelated domain should not wait, took %v", elapsed)
	}
}

func TestLimiter_AcceptsFullURL(t *testing.T) {
	l := NewLimiter(Config{RequestsPerSecond: 1, Burst: 1})
	ctx := context.Background()

	if err := l.Wait(ctx, "https://www.example.com/feed.xml"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The URL above consumed example.com's burst token, so a wait keyed
	// by the bare domain now blocks until cancelled.
	cancelCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(cancelCtx, "example.com"); err == nil {
		t.Error("expected context deadline error while paced")
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	l := NewLimiter(Config{RequestsPerSecond: 0.1, Burst: 1})
	ctx := context.Background()

	if err := l.Wait(ctx, "example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancelCtx, cancel := context.WithCancel(ctx)
	cancel()
	if err := l.Wait(cancelCtx, "example.com"); err == nil {
		t.Error("expected error from cancelled context")
	}
}
