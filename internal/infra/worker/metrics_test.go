package worker

import (
	"sync"
	"testing"
)

// Worker metrics register with the default Prometheus registry via
// promauto, so tests share a single instance to avoid duplicate
// registration panics.
var (
	sharedMetrics     *WorkerMetrics
	sharedMetricsOnce sync.Once
)

func testWorkerMetrics() *WorkerMetrics {
	sharedMetricsOnce.Do(func() {
		sharedMetrics = NewWorkerMetrics()
	})
	return sharedMetrics
}

func TestNewWorkerMetrics(t *testing.T) {
	m := testWorkerMetrics()

	if m.ConfigMetrics == nil {
		t.Error("Expected embedded ConfigMetrics to be initialized")
	}
	if m.ScheduledRunsTotal == nil {
		t.Error("Expected ScheduledRunsTotal to be initialized")
	}
	if m.ScheduledRunDuration == nil {
		t.Error("Expected ScheduledRunDuration to be initialized")
	}
	if m.TargetsProcessedTotal == nil {
		t.Error("Expected TargetsProcessedTotal to be initialized")
	}
	if m.LastSuccessTimestamp == nil {
		t.Error("Expected LastSuccessTimestamp to be initialized")
	}
}

func TestWorkerMetricsRecording(t *testing.T) {
	m := testWorkerMetrics()

	// The recording helpers must not panic regardless of status value.
	m.RecordRun("success")
	m.RecordRun("partial")
	m.RecordRun("failure")
	m.RecordRunDuration(1.5)
	m.RecordTargetsProcessed(3)
	m.RecordLastSuccess()
}
