// Package config provides fail-open environment configuration loading:
// a value that fails to parse or validate falls back to its default and
// produces a warning, never an error. Components that must keep running
// with a degraded configuration (the scheduled worker, most notably)
// build their loaders on this package and surface the warnings through
// logs and metrics.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ConfigLoadResult is the outcome of loading one configuration value.
// Value always holds a usable value; when FallbackApplied is set it is the
// default, and Warnings says why.
//
// Example:
//
//	result := LoadEnvDuration("EXTRACT_TIMEOUT", 15*time.Minute, ValidatePositiveDuration)
//	timeout := result.Value.(time.Duration)
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

func fallbackResult(envKey, raw string, reason error, defaultValue any) ConfigLoadResult {
	return ConfigLoadResult{
		Value: defaultValue,
		Warnings: []string{fmt.Sprintf(
			"Invalid %s='%s': %v, falling back to default '%v'",
			envKey, raw, reason, defaultValue)},
		FallbackApplied: true,
	}
}

// LoadEnvString reads a string environment variable without validation.
// An unset or empty variable yields the default.
func LoadEnvString(envKey, defaultValue string) string {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnvWithFallback reads a string environment variable and validates it.
// An unset variable yields the default silently; a value that fails the
// validator yields the default with a warning. The validator may be nil.
//
// Example:
//
//	result := LoadEnvWithFallback("CRON_SCHEDULE", "0 6 * * *", ValidateCronSchedule)
//	schedule := result.Value.(string)
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	value := os.Getenv(envKey)
	if value == "" {
		return ConfigLoadResult{Value: defaultValue}
	}
	if validator != nil {
		if err := validator(value); err != nil {
			return fallbackResult(envKey, value, err, defaultValue)
		}
	}
	return ConfigLoadResult{Value: value}
}

// LoadEnvDuration reads a Go duration string ("30s", "15m", "2h") from an
// environment variable. Parse and validation failures fall back to the
// default with a warning. The validator may be nil.
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fallbackResult(envKey, raw, err, defaultValue)
	}
	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallbackResult(envKey, raw, err, defaultValue)
		}
	}
	return ConfigLoadResult{Value: parsed}
}

// LoadEnvInt reads an integer from an environment variable. Parse and
// validation failures fall back to the default with a warning. The
// validator may be nil.
//
// Example:
//
//	result := LoadEnvInt("MAX_CONCURRENT_TARGETS", 3,
//	    func(v int) error { return ValidateIntRange(v, 1, 20) })
//	parallelism := result.Value.(int)
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallbackResult(envKey, raw, fmt.Errorf("invalid integer format"), defaultValue)
	}
	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallbackResult(envKey, raw, err, defaultValue)
		}
	}
	return ConfigLoadResult{Value: parsed}
}

// LoadEnvBool reads a boolean from an environment variable, accepting the
// strconv.ParseBool forms ("1", "t", "true", "0", "f", "false" in any
// case). Parse failures fall back to the default with a warning.
func LoadEnvBool(envKey string, defaultValue bool) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallbackResult(envKey, raw, fmt.Errorf("invalid boolean format"), defaultValue)
	}
	return ConfigLoadResult{Value: parsed}
}
