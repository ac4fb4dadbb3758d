// Package tracing provides the application's OpenTelemetry tracer and an
// HTTP middleware that opens a server span per request.
package tracing
