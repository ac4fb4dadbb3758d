// Package observability provides the observability infrastructure shared
// by the feed engine and its worker: structured logging, Prometheus
// metrics, and OpenTelemetry tracing.
//
// Subpackages:
//   - logging: structured logging utilities with slog
//   - metrics: Prometheus metrics registry and recorders
//   - tracing: OpenTelemetry tracer and HTTP middleware
package observability
