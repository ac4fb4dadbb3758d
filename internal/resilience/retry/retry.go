// Package retry provides the backoff schedules used between fetch
// attempts: exponential backoff for generic transient failures and a
// separate progressive delay table for rate-limited domains.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Config holds the retry schedule for one concern.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// InitialDelay is the delay after the first failed attempt.
	InitialDelay time.Duration

	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration

	// Multiplier is the exponential backoff factor.
	Multiplier float64

	// JitterFraction is the fraction of the delay added as random jitter
	// (0 disables jitter, which keeps delays exactly reproducible).
	JitterFraction float64

	// RateLimitDelays is the progressive delay table applied when the
	// remote signalled rate limiting; it replaces the generic backoff
	// because 429s recover on the server's schedule, not ours.
	RateLimitDelays []time.Duration
}

// FeedFetchConfig returns the schedule used for feed fetching: three
// attempts, exponential backoff starting at one second and capped at
// thirty, and a longer domain-tuned table for rate-limit responses.
func FeedFetchConfig() Config {
	return Config{
		MaxAttempts:     3,
		InitialDelay:    1 * time.Second,
		MaxDelay:        30 * time.Second,
		Multiplier:      2.0,
		JitterFraction:  0,
		RateLimitDelays: []time.Duration{30 * time.Second, 60 * time.Second, 120 * time.Second},
	}
}

// Delay returns the backoff before attempt n+1 after n failed attempts:
// min(InitialDelay * Multiplier^(n-1), MaxDelay), plus optional jitter.
// n is 1-based; values below 1 are treated as 1.
func (c Config) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(c.InitialDelay)
	for i := 1; i < attempt; i++ {
		d *= c.Multiplier
		if time.Duration(d) >= c.MaxDelay {
			d = float64(c.MaxDelay)
			break
		}
	}
	delay := time.Duration(d)
	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	return addJitter(delay, c.JitterFraction)
}

// RateLimitDelay returns the delay before attempt n+1 when attempt n was
// rejected for rate limiting. Attempts beyond the table reuse its last
// entry. Falls back to the generic schedule when no table is configured.
func (c Config) RateLimitDelay(attempt int) time.Duration {
	if len(c.RateLimitDelays) == 0 {
		return c.Delay(attempt)
	}
	if attempt < 1 {
		attempt = 1
	}
	if attempt > len(c.RateLimitDelays) {
		attempt = len(c.RateLimitDelays)
	}
	return c.RateLimitDelays[attempt-1]
}

// Sleep waits for the given duration with context cancellation support.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("backoff interrupted: %w", ctx.Err())
	}
}

// addJitter adds random jitter to a duration to prevent thundering herd.
func addJitter(duration time.Duration, jitterFraction float64) time.Duration {
	if jitterFraction <= 0 {
		return duration
	}
	if jitterFraction > 1.0 {
		jitterFraction = 1.0
	}
	// #nosec G404 -- math/rand is fine for backoff jitter.
	jitter := time.Duration(rand.Float64() * float64(duration) * jitterFraction)
	return duration + jitter
}
