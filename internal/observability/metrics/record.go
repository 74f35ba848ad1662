package metrics

import "time"

// RecordExtraction records a completed extraction run.
// Status should be "success", "partial", or "failure".
func RecordExtraction(status string, duration time.Duration) {
	ExtractionsTotal.WithLabelValues(status).Inc()
	ExtractionDuration.Observe(duration.Seconds())
}

// RecordOperationError records a failed extraction operation.
func RecordOperationError(operation string) {
	OperationErrorsTotal.WithLabelValues(operation).Inc()
}

// RecordCacheLookup records a cache hit or miss for an operation.
func RecordCacheLookup(operation string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(operation, result).Inc()
}

// Upstream call outcomes. Breaker-open rejections are counted separately
// from upstream failures so the two are distinguishable on dashboards as
// well as in logs.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

// RecordUpstreamCall records a breaker-wrapped upstream API call.
func RecordUpstreamCall(operation string, duration time.Duration, outcome string) {
	UpstreamCallsTotal.WithLabelValues(operation, outcome).Inc()
	UpstreamCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordPersist records the outcome of handing a document to persistence.
func RecordPersist(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	DocumentsPersistedTotal.WithLabelValues(status).Inc()
}
