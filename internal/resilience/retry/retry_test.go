package retry

import (
	"context"
	"testing"
	"time"
)

func TestConfig_Delay_ExponentialSchedule(t *testing.T) {
	cfg := Config{
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second}, // capped
		{7, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := cfg.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestConfig_Delay_Monotonic(t *testing.T) {
	cfg := FeedFetchConfig()

	prev := time.Duration(0)
	for attempt := 1; attempt <= 10; attempt++ {
		d := cfg.Delay(attempt)
		if d < prev {
			t.Errorf("delay decreased at attempt %d: %v < %v", attempt, d, prev)
		}
		prev = d
	}
}

func TestConfig_RateLimitDelay_Table(t *testing.T) {
	cfg := Config{
		RateLimitDelays: []time.Duration{30 * time.Second, 60 * time.Second, 120 * time.Second},
	}

	if got := cfg.RateLimitDelay(1); got != 30*time.Second {
		t.Errorf("RateLimitDelay(1) = %v", got)
	}
	if got := cfg.RateLimitDelay(2); got != 60*time.Second {
		t.Errorf("RateLimitDelay(2) = %v", got)
	}
	// Beyond the table the last entry repeats.
	if got := cfg.RateLimitDelay(9); got != 120*time.Second {
		t.Errorf("RateLimitDelay(9) = %v", got)
	}
}

func TestConfig_RateLimitDelay_FallsBackToGeneric(t *testing.T) {
	cfg := Config{
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	if got := cfg.RateLimitDelay(2); got != 2*time.Second {
		t.Errorf("RateLimitDelay(2) without table = %v, want generic 2s", got)
	}
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Sleep(ctx, time.Second); err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestSleep_Completes(t *testing.T) {
	if err := Sleep(context.Background(), 5*time.Millisecond); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
