package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gitmeta/internal/pkg/config"
)

// WorkerMetrics provides Prometheus metrics for the extraction worker.
// It embeds the shared ConfigMetrics for configuration monitoring and adds
// metrics for scheduled extraction runs.
//
// Worker-specific metrics:
//   - worker_scheduled_runs_total: Total scheduled runs by status
//   - worker_scheduled_run_duration_seconds: Duration histogram of runs
//   - worker_targets_processed_total: Total repositories extracted by runs
//   - worker_last_success_timestamp: Unix timestamp of last successful run
type WorkerMetrics struct {
	*config.ConfigMetrics

	// ScheduledRunsTotal counts scheduled extraction runs.
	// Labels: status (success, partial, failure)
	ScheduledRunsTotal *prometheus.CounterVec

	// ScheduledRunDuration measures the duration of a full scheduled run
	// across all configured targets.
	ScheduledRunDuration prometheus.Histogram

	// TargetsProcessedTotal counts repositories extracted by scheduled runs.
	TargetsProcessedTotal prometheus.Counter

	// LastSuccessTimestamp records when a scheduled run last completed
	// without any target failing.
	LastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics creates worker metrics. Registration with the default
// Prometheus registry happens at construction via promauto.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		ScheduledRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_scheduled_runs_total",
			Help: "Total number of scheduled extraction runs by status",
		}, []string{"status"}),

		ScheduledRunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_scheduled_run_duration_seconds",
			Help:    "Duration of a full scheduled extraction run in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}),

		TargetsProcessedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_targets_processed_total",
			Help: "Total number of repositories extracted by scheduled runs",
		}),

		LastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_last_success_timestamp",
			Help: "Unix timestamp of the last fully successful scheduled run",
		}),
	}
}

// RecordRun increments the run counter for the given status
// ("success", "partial", or "failure").
func (m *WorkerMetrics) RecordRun(status string) {
	m.ScheduledRunsTotal.WithLabelValues(status).Inc()
}

// RecordRunDuration observes the duration of a scheduled run in seconds.
func (m *WorkerMetrics) RecordRunDuration(seconds float64) {
	m.ScheduledRunDuration.Observe(seconds)
}

// RecordTargetsProcessed adds the number of repositories extracted in the
// run to the total counter.
func (m *WorkerMetrics) RecordTargetsProcessed(count int) {
	m.TargetsProcessedTotal.Add(float64(count))
}

// RecordLastSuccess records the current time as the last fully successful
// run.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.LastSuccessTimestamp.SetToCurrentTime()
}
