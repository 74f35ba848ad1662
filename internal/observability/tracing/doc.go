// Package tracing provides OpenTelemetry tracing integration for the
// extraction service.
//
// Orchestrator runs open a root span with one child span per phase, so a
// trace shows the fan-out/fan-in timing of an extraction. The HTTP trigger
// endpoint is wrapped by Middleware, which extracts W3C trace context from
// incoming requests and reports the trace id back to callers.
package tracing
