// Package metrics centralizes the Prometheus metrics for the feed engine:
// fetch outcomes, cache behavior, circuit breaker state, diff results, and
// database query timing. All metrics register with the default registry
// and are exposed on the worker's /metrics endpoint.
package metrics
