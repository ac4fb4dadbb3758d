package fetcher

import (
	"time"

	"feedwatch/internal/resilience/retry"
)

// Config tunes the fetch pipeline.
type Config struct {
	// Timeout bounds each individual HTTP attempt. There is no overall
	// deadline across the retry loop; callers needing one impose it on
	// the context.
	Timeout time.Duration

	// CacheTTL is how long a cache entry short-circuits the network
	// entirely. Past the TTL the entry is still used for conditional
	// revalidation.
	CacheTTL time.Duration

	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64

	// BlockedURLPatterns are regular expressions; matching URLs fail fast
	// without any network call.
	BlockedURLPatterns []string

	// Retry is the backoff schedule between attempts.
	Retry retry.Config
}

// DefaultConfig returns the tuning used for feed polling.
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		CacheTTL:     5 * time.Minute,
		MaxBodyBytes: 10 << 20,
		Retry:        retry.FeedFetchConfig(),
	}
}
