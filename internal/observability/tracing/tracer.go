package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("feedwatch")

// GetTracer returns the application tracer for creating spans:
//
//	ctx, span := tracing.GetTracer().Start(ctx, "feed.check")
//	defer span.End()
func GetTracer() trace.Tracer {
	return tracer
}
