// Package metrics provides the Prometheus metrics for the extraction
// service.
//
// It centralizes:
//   - extraction run counts and durations by status
//   - per-operation error counts
//   - cache hit/miss counts
//   - upstream API call durations by outcome
//   - persistence success/failure counts
//
// All metrics are registered with the Prometheus default registry via
// promauto and exposed on the /metrics endpoint of the metrics server.
//
// Example usage:
//
//	import "gitmeta/internal/observability/metrics"
//
//	func runExtraction() {
//	    start := time.Now()
//	    // ... extract ...
//	    metrics.RecordExtraction("success", time.Since(start))
//	}
package metrics
