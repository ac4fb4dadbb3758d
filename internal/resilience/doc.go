// Package resilience groups the reliability building blocks used by the
// feed fetch pipeline: per-domain circuit breakers, per-domain request
// pacing, and retry backoff schedules.
package resilience
