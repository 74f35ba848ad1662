package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the global tracer instance for the extraction service.
var tracer = otel.Tracer("gitmeta")

// GetTracer returns the global tracer for creating spans.
//
// Example usage:
//
//	ctx, span := tracing.GetTracer().Start(ctx, "extraction.phase1")
//	defer span.End()
func GetTracer() trace.Tracer {
	return tracer
}
