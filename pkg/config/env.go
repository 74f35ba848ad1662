// Package config provides shared environment variable helpers. Unlike the
// fail-open loaders in internal/pkg/config, these getters do not track
// fallback state; they log a warning and move on, which is enough for
// one-shot reads at client construction time.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// GetEnvString returns the environment variable value, or the default when
// unset or empty. No validation, no logging.
//
// Example:
//
//	baseURL := GetEnvString("GITHUB_API_BASE_URL", "https://api.github.com")
func GetEnvString(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvInt returns the environment variable parsed as an integer. An
// unparseable value logs a warning and yields the default.
//
// Example:
//
//	perPage := GetEnvInt("GITHUB_API_PER_PAGE", 30)
func GetEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("invalid integer value for environment variable, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Int("default", defaultValue))
		return defaultValue
	}
	return value
}

// GetEnvBool returns the environment variable parsed as a boolean, in the
// strconv.ParseBool forms. An unparseable value logs a warning and yields
// the default.
func GetEnvBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("invalid boolean value for environment variable, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Bool("default", defaultValue))
		return defaultValue
	}
	return value
}

// GetEnvDuration returns the environment variable parsed as a Go duration
// string ("30s", "1h30m"). An unparseable value logs a warning and yields
// the default.
//
// Example:
//
//	timeout := GetEnvDuration("GITHUB_API_TIMEOUT", 30*time.Second)
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("invalid duration value for environment variable, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.String("default", defaultValue.String()))
		return defaultValue
	}
	return value
}
