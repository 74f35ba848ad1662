package config

import (
	"fmt"
	"time"
)

// ValidatePositiveDuration rejects zero and negative durations. Timeouts
// and TTLs configured through this package must bound something, and a
// zero value would disable the bound instead.
//
// Example:
//
//	if err := ValidatePositiveDuration(cfg.CacheTTL); err != nil {
//	    return fmt.Errorf("invalid cache TTL: %w", err)
//	}
func ValidatePositiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %v", d)
	}
	return nil
}
