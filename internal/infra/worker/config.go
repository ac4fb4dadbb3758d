// Package worker holds the poll worker's configuration, health endpoints,
// and Prometheus metrics.
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"feedwatch/internal/pkg/config"
)

// WorkerConfig controls the poll worker: how often feeds are checked,
// in which timezone the schedule runs, how long one poll cycle may take,
// and how many feeds are checked concurrently.
type WorkerConfig struct {
	// PollSchedule is the cron expression for the poll cycle.
	// Format: "minute hour day month weekday".
	PollSchedule string

	// Timezone is the IANA timezone name the schedule is evaluated in.
	Timezone string

	// CheckTimeout bounds one full poll cycle across all feeds.
	CheckTimeout time.Duration

	// MaxConcurrentChecks caps the number of feeds checked in parallel.
	MaxConcurrentChecks int

	// HealthPort is the port for the liveness/readiness HTTP server.
	HealthPort int
}

// DefaultConfig returns production defaults: poll every 15 minutes in UTC,
// 10-minute cycle timeout, 8 concurrent checks, health server on 9091.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		PollSchedule:        "*/15 * * * *",
		Timezone:            "UTC",
		CheckTimeout:        10 * time.Minute,
		MaxConcurrentChecks: 8,
		HealthPort:          9091,
	}
}

// Validate checks every field and returns the aggregated errors, if any.
func (c *WorkerConfig) Validate() error {
	var errors []error

	if err := config.ValidateCronSchedule(c.PollSchedule); err != nil {
		errors = append(errors, fmt.Errorf("poll schedule: %w", err))
	}

	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errors = append(errors, fmt.Errorf("timezone: %w", err))
	}

	if err := config.ValidatePositiveDuration(c.CheckTimeout); err != nil {
		errors = append(errors, fmt.Errorf("check timeout: %w", err))
	}

	if err := config.ValidateIntRange(c.MaxConcurrentChecks, 1, 64); err != nil {
		errors = append(errors, fmt.Errorf("max concurrent checks: %w", err))
	}

	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errors = append(errors, fmt.Errorf("health port: %w", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	return nil
}

// LoadConfigFromEnv loads worker configuration from the environment with
// fail-open fallback: an invalid value never aborts startup, it is replaced
// by the default, logged as a warning, and counted in the config metrics.
//
// Environment variables:
//   - POLL_SCHEDULE: cron expression (default "*/15 * * * *")
//   - WORKER_TIMEZONE: IANA timezone name (default "UTC")
//   - CHECK_TIMEOUT: duration string, 10s to 1h (default "10m")
//   - MAX_CONCURRENT_CHECKS: integer 1-64 (default 8)
//   - WORKER_HEALTH_PORT: integer 1024-65535 (default 9091)
//
// The returned error is always nil; the signature keeps the conventional
// loader shape for callers.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	recordFallback := func(field string, warnings []string) {
		fallbackApplied = true
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field, "default")
		for _, warning := range warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	result := config.LoadEnvWithFallback("POLL_SCHEDULE", cfg.PollSchedule, config.ValidateCronSchedule)
	cfg.PollSchedule = result.Value.(string)
	if result.FallbackApplied {
		recordFallback("poll_schedule", result.Warnings)
	}

	result = config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	if result.FallbackApplied {
		recordFallback("timezone", result.Warnings)
	}

	result = config.LoadEnvDuration("CHECK_TIMEOUT", cfg.CheckTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 10*time.Second, 1*time.Hour)
	})
	cfg.CheckTimeout = result.Value.(time.Duration)
	if result.FallbackApplied {
		recordFallback("check_timeout", result.Warnings)
	}

	result = config.LoadEnvInt("MAX_CONCURRENT_CHECKS", cfg.MaxConcurrentChecks, func(v int) error {
		return config.ValidateIntRange(v, 1, 64)
	})
	cfg.MaxConcurrentChecks = result.Value.(int)
	if result.FallbackApplied {
		recordFallback("max_concurrent_checks", result.Warnings)
	}

	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	if result.FallbackApplied {
		recordFallback("health_port", result.Warnings)
	}

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
