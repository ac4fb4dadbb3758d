// Package circuitbreaker provides a per-domain circuit breaker registry
// built on github.com/sony/gobreaker. Each remote domain gets its own
// breaker so that a failing host cannot block fetches from healthy ones.
package circuitbreaker

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"feedwatch/internal/observability/metrics"
)

// Config holds the configuration shared by all per-domain breakers.
type Config struct {
	// FailureThreshold is the number of consecutive failures that trips
	// the circuit from closed to open.
	FailureThreshold uint32

	// Cooldown is how long an open circuit rejects requests before a
	// probe is allowed (gobreaker's half-open transition).
	Cooldown time.Duration

	// MaxProbes is the number of requests allowed through while
	// half-open before the breaker decides to close again.
	MaxProbes uint32
}

// DefaultConfig returns the configuration used for feed fetching.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		Cooldown:         2 * time.Minute,
		MaxProbes:        1,
	}
}

// Registry tracks one circuit breaker per domain, created lazily on first
// use. The map is guarded by a mutex held only for lookup/insert; breaker
// state transitions are synchronized internally by gobreaker, so checks
// against unrelated domains never serialize on each other.
type Registry struct {
	cfg Config

	mu      sync.Mutex
	domains map[string]*gobreaker.CircuitBreaker
}

// NewRegistry creates an empty per-domain breaker registry.
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		cfg:     cfg,
		domains: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// MayExecute reports whether a request to the domain is currently allowed.
// It returns false only while the circuit is open and the cooldown has not
// elapsed; once the cooldown expires gobreaker moves to half-open and a
// probe is permitted.
func (r *Registry) MayExecute(domain string) bool {
	return r.breaker(domain).State() != gobreaker.StateOpen
}

// RecordSuccess records a successful request against the domain. In the
// half-open state this closes the circuit and resets the failure counter.
func (r *Registry) RecordSuccess(domain string) {
	// The outcome is already known, so the executed function is a no-op
	// carrying the result into gobreaker's counters.
	_, _ = r.breaker(domain).Execute(func() (interface{}, error) {
		return nil, nil
	})
}

// RecordFailure records a failed request against the domain, tripping the
// circuit once the consecutive-failure threshold is crossed. A failure
// recorded while half-open re-opens the circuit and restarts the cooldown.
func (r *Registry) RecordFailure(domain string) {
	_, _ = r.breaker(domain).Execute(func() (interface{}, error) {
		return nil, errRecordedFailure
	})
}

// ConsecutiveFailures returns the domain's current consecutive-failure
// count. Exposed for observability and tests.
func (r *Registry) ConsecutiveFailures(domain string) uint32 {
	return r.breaker(domain).Counts().ConsecutiveFailures
}

// State returns the domain's current breaker state.
func (r *Registry) State(domain string) gobreaker.State {
	return r.breaker(domain).State()
}

func (r *Registry) breaker(domain string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.domains[domain]; ok {
		return cb
	}

	cfg := r.cfg
	settings := gobreaker.Settings{
		Name:        domain,
		MaxRequests: cfg.MaxProbes,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			metrics.SetCircuitOpen(name, to == gobreaker.StateOpen)
			slog.Warn("circuit breaker state changed",
				slog.String("domain", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}

	cb := gobreaker.NewCircuitBreaker(settings)
	r.domains[domain] = cb
	return cb
}

// errRecordedFailure is the synthetic error fed to gobreaker when the
// caller reports a failure whose real error has already been handled.
var errRecordedFailure = recordedFailure{}

type recordedFailure struct{}

func (recordedFailure) Error() string { return "recorded failure" }
