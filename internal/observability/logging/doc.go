// Package logging wraps log/slog with the helpers used across the
// application: JSON and text handlers with level control from the
// environment, and logger propagation through context.
package logging
