// Package metrics provides centralized Prometheus metrics for the extraction
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Extraction metrics track orchestrator runs end to end.
var (
	// ExtractionsTotal counts extraction runs by final status.
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extractions_total",
			Help: "Total number of extraction runs",
		},
		[]string{"status"},
	)

	// ExtractionDuration measures full extraction run duration in seconds.
	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "extraction_duration_seconds",
			Help:    "Extraction run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	// OperationErrorsTotal counts failed extraction operations by name.
	OperationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extraction_operation_errors_total",
			Help: "Total number of failed extraction operations",
		},
		[]string{"operation"},
	)
)

// Resilience metrics expose cache and upstream behavior.
var (
	// CacheLookupsTotal counts cache lookups by operation and result.
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extraction_cache_lookups_total",
			Help: "Total number of extraction cache lookups",
		},
		[]string{"operation", "result"},
	)

	// UpstreamCallsTotal counts breaker-wrapped upstream calls by operation
	// and outcome.
	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_calls_total",
			Help: "Total number of upstream API calls",
		},
		[]string{"operation", "outcome"},
	)

	// UpstreamCallDuration measures upstream call duration in seconds.
	UpstreamCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_call_duration_seconds",
			Help:    "Upstream API call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// DocumentsPersistedTotal counts persisted extraction documents by status.
	DocumentsPersistedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "documents_persisted_total",
			Help: "Total number of persisted extraction documents",
		},
		[]string{"status"},
	)
)
