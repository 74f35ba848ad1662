// Package logging provides structured logging utilities with context
// propagation.
//
// This package wraps the standard library's log/slog package with helper
// functions for common logging patterns used throughout the application.
//
// Key features:
//   - JSON and text output formats
//   - extraction-id correlation across goroutines
//   - context-aware logger retrieval
//   - configurable log levels via LOG_LEVEL
//
// Example usage:
//
//	import "gitmeta/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("worker started", slog.String("version", "1.0"))
//	}
//
//	func runOperation(ctx context.Context) {
//	    logger := logging.FromContext(ctx)
//	    logger.Info("operation started")
//	}
package logging
