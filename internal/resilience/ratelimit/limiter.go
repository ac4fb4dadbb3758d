// Package ratelimit provides per-domain request pacing for outbound feed
// fetches using golang.org/x/time/rate token buckets. Each domain gets its
// own limiter so slow hosts never delay fetches from unrelated hosts.
package ratelimit

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"feedwatch/internal/domain/entity"
)

// Config holds the pacing applied to every domain.
type Config struct {
	// RequestsPerSecond is the sustained request rate per domain.
	RequestsPerSecond float64

	// Burst is how many requests may be issued back to back before the
	// sustained rate applies.
	Burst int
}

// DefaultConfig paces each domain at one request every two seconds with a
// small burst allowance, which keeps polite even against feeds hosted on
// the same domain.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 0.5,
		Burst:             2,
	}
}

// Limiter is a per-domain token bucket registry. Limiters are created
// lazily on first use and shared by all concurrent fetches for the same
// domain; the registry map is guarded by a mutex held only for
// lookup/insert, so waits on one domain never block another.
type Limiter struct {
	cfg Config

	mu      sync.Mutex
	domains map[string]*rate.Limiter
}

// NewLimiter creates an empty per-domain limiter registry.
func NewLimiter(cfg Config) *Limiter {
	return &Limiter{
		cfg:     cfg,
		domains: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until it is safe to issue another request to the domain, or
// until the context is cancelled. The argument may be a bare domain or a
// full URL; URLs are reduced to their domain first.
func (l *Limiter) Wait(ctx context.Context, domainOrURL string) error {
	domain := domainOrURL
	if strings.Contains(domainOrURL, "://") {
		domain = entity.DomainOf(domainOrURL)
	}
	return l.limiter(domain).Wait(ctx)
}

func (l *Limiter) limiter(domain string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.domains[domain]; ok {
		return lim
	}
	lim := rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst)
	l.domains[domain] = lim
	return lim
}
