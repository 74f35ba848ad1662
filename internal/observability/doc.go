// Package observability groups the logging, metrics, and tracing support
// for the extraction service.
//
// Subpackages:
//   - logging: structured slog loggers with extraction-id correlation
//   - metrics: Prometheus counters and histograms for runs, operations,
//     cache behavior, and upstream calls
//   - tracing: OpenTelemetry tracer and HTTP middleware
package observability
