package config

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConfigMetrics tracks configuration health for one component: when it was
// last loaded, which fields failed validation, and whether any fallback is
// currently in effect. Metric names are prefixed with the component name
// ("worker_config_load_timestamp" and so on), so each component must use a
// unique name; promauto panics on a duplicate registration.
//
// Example:
//
//	metrics := config.NewConfigMetrics("worker")
//	metrics.RecordValidationError("cron_schedule")
//	metrics.RecordFallback("cron_schedule", "default")
//	metrics.SetFallbackActive("cron_schedule", true)
//	metrics.RecordLoadTimestamp()
type ConfigMetrics struct {
	// LoadTimestamp is the Unix time of the last configuration load.
	LoadTimestamp prometheus.Gauge

	// ValidationErrorsTotal counts validation failures by field.
	ValidationErrorsTotal *prometheus.CounterVec

	// FallbacksTotal counts applied fallbacks by field.
	FallbacksTotal *prometheus.CounterVec

	// FallbackActive is 1 while any field runs on its fallback value.
	FallbackActive prometheus.Gauge

	componentName string
}

// NewConfigMetrics creates and registers the configuration metrics for the
// named component.
func NewConfigMetrics(componentName string) *ConfigMetrics {
	return &ConfigMetrics{
		LoadTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_load_timestamp", componentName),
			Help: fmt.Sprintf("Unix timestamp of last %s configuration load", componentName),
		}),
		ValidationErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_validation_errors_total", componentName),
			Help: fmt.Sprintf("Total number of %s configuration validation errors", componentName),
		}, []string{"field"}),
		FallbacksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_fallbacks_total", componentName),
			Help: fmt.Sprintf("Total number of %s configuration fallback operations", componentName),
		}, []string{"field"}),
		FallbackActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_fallback_active", componentName),
			Help: fmt.Sprintf("1 if any %s configuration fallback is active, 0 otherwise", componentName),
		}),
		componentName: componentName,
	}
}

// RecordLoadTimestamp marks the current time as the configuration load
// time. Call it once per successful load.
func (m *ConfigMetrics) RecordLoadTimestamp() {
	m.LoadTimestamp.SetToCurrentTime()
}

// RecordValidationError counts a validation failure for the field.
func (m *ConfigMetrics) RecordValidationError(field string) {
	m.ValidationErrorsTotal.WithLabelValues(field).Inc()
}

// RecordFallback counts an applied fallback for the field. The fallback
// type is accepted for call-site readability but not used as a label, to
// keep cardinality down.
func (m *ConfigMetrics) RecordFallback(field, fallbackType string) {
	m.FallbacksTotal.WithLabelValues(field).Inc()
}

// SetFallbackActive flips the fallback gauge. The field is accepted for
// call-site readability; the gauge itself is component-wide.
func (m *ConfigMetrics) SetFallbackActive(field string, active bool) {
	if active {
		m.FallbackActive.Set(1)
	} else {
		m.FallbackActive.Set(0)
	}
}
