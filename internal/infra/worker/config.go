package worker

import (
	"fmt"
	"log/slog"
	"time"

	"gitmeta/internal/pkg/config"
)

// WorkerConfig holds the configuration for the extraction worker.
// It controls the cron schedule, timezone, the targets file, and the
// operational limits of scheduled extraction runs.
//
// Configuration sources:
//   - Environment variables (loaded via LoadConfigFromEnv)
//   - Default values (provided by DefaultConfig)
//
// Loading is fail-open: an invalid environment value falls back to the
// default, logs a warning, and increments the config fallback metrics, so
// the worker always starts with a valid configuration.
type WorkerConfig struct {
	// CronSchedule is the cron expression for scheduled re-extraction.
	// Format: "minute hour day month weekday"
	// Default: "0 6 * * *" (every day at 06:00)
	CronSchedule string

	// Timezone is the IANA timezone name for cron scheduling.
	// Example: "UTC", "Asia/Tokyo", "America/New_York"
	// Default: "UTC"
	Timezone string

	// TargetsFile is the YAML file listing the repositories to extract on
	// each scheduled run.
	// Default: "targets.yaml"
	TargetsFile string

	// ExtractTimeout is the maximum duration for one full scheduled run
	// across all targets. After this timeout the run is cancelled.
	// Range: 1 minute to 2 hours
	// Default: 15 minutes
	ExtractTimeout time.Duration

	// MaxConcurrentTargets bounds how many repositories are extracted in
	// parallel during a scheduled run.
	// Range: 1-20
	// Default: 3
	MaxConcurrentTargets int

	// TriggerPort is the port for the HTTP trigger endpoint.
	// Range: 1024-65535
	// Default: 8080
	TriggerPort int

	// HealthPort is the port for the health check HTTP server.
	// Range: 1024-65535
	// Default: 9091
	HealthPort int
}

// DefaultConfig returns a WorkerConfig with production-ready defaults:
// a daily run at 06:00 UTC, three targets in flight, and a 15-minute
// timeout so a stuck upstream cannot pin the worker.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule:         "0 6 * * *",
		Timezone:             "UTC",
		TargetsFile:          "targets.yaml",
		ExtractTimeout:       15 * time.Minute,
		MaxConcurrentTargets: 3,
		TriggerPort:          8080,
		HealthPort:           9091,
	}
}

// Validate checks the configuration values using the reusable validators
// from internal/pkg/config. All violations are collected and returned
// together.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if c.TargetsFile == "" {
		errs = append(errs, fmt.Errorf("targets file must not be empty"))
	}
	if err := config.ValidateDuration(c.ExtractTimeout, 1*time.Minute, 2*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("extract timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.MaxConcurrentTargets, 1, 20); err != nil {
		errs = append(errs, fmt.Errorf("max concurrent targets: %w", err))
	}
	if err := config.ValidateIntRange(c.TriggerPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("trigger port: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv loads worker configuration from environment variables
// with validation and automatic fallback to default values on failure.
//
// Environment variables:
//   - CRON_SCHEDULE: Cron expression (default: "0 6 * * *")
//   - WORKER_TIMEZONE: IANA timezone name (default: "UTC")
//   - TARGETS_FILE: Path to the targets YAML file (default: "targets.yaml")
//   - EXTRACT_TIMEOUT: Duration string, e.g. "15m" (default: 15 minutes)
//   - MAX_CONCURRENT_TARGETS: Integer 1-20 (default: 3)
//   - TRIGGER_PORT: Integer 1024-65535 (default: 8080)
//   - WORKER_HEALTH_PORT: Integer 1024-65535 (default: 9091)
//
// Each validation failure falls back to the default, logs a warning, and
// is counted in the config metrics. The returned error is always nil.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	fallback := func(field string, result config.ConfigLoadResult) {
		if !result.FallbackApplied {
			return
		}
		fallbackApplied = true
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field, "default")
		for _, warning := range result.Warnings {
			logger.Warn("configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	result := config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	cfg.CronSchedule = result.Value.(string)
	fallback("cron_schedule", result)

	result = config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	fallback("timezone", result)

	cfg.TargetsFile = config.LoadEnvString("TARGETS_FILE", cfg.TargetsFile)

	result = config.LoadEnvDuration("EXTRACT_TIMEOUT", cfg.ExtractTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Minute, 2*time.Hour)
	})
	cfg.ExtractTimeout = result.Value.(time.Duration)
	fallback("extract_timeout", result)

	result = config.LoadEnvInt("MAX_CONCURRENT_TARGETS", cfg.MaxConcurrentTargets, func(v int) error {
		return config.ValidateIntRange(v, 1, 20)
	})
	cfg.MaxConcurrentTargets = result.Value.(int)
	fallback("max_concurrent_targets", result)

	result = config.LoadEnvInt("TRIGGER_PORT", cfg.TriggerPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.TriggerPort = result.Value.(int)
	fallback("trigger_port", result)

	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	fallback("health_port", result)

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
