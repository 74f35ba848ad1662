package config

import (
	"fmt"
	"time"

	"gitmeta/internal/usecase/extract"
	pkgconfig "gitmeta/pkg/config"
)

// ExtractorConfig holds configuration for the extraction pipeline.
type ExtractorConfig struct {
	// DefaultCommitLimit caps commit listings when a request carries no
	// explicit limit. Default: 200
	DefaultCommitLimit int

	// DefaultIssueLimit caps issue listings when a request carries no
	// explicit limit. Default: 200
	DefaultIssueLimit int

	// DefaultPRLimit caps pull request listings when a request carries no
	// explicit limit. Default: 200
	DefaultPRLimit int

	// CircuitBreaker for upstream API calls.
	CircuitBreaker BreakerConfig

	// CacheTTL is the base result cache lifetime applied to listing and
	// repository extractions; lineage and dependency results keep a
	// multiple of it. Default: 15 minutes
	CacheTTL time.Duration

	// MetadataDir is where extraction documents are persisted.
	// Default: "extracted_metadata"
	MetadataDir string

	// SchemaVersion is stamped into the provenance block of every
	// persisted document. Default: "1"
	SchemaVersion string
}

// BreakerConfig holds circuit breaker settings for upstream calls.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that trips
	// the breaker open. Default: 3
	FailureThreshold uint32

	// RecoveryTimeout is how long the breaker stays open before allowing
	// a single trial call. Default: 30 seconds
	RecoveryTimeout time.Duration
}

// LoadExtractorConfig loads extraction configuration from environment
// variables. Returns a config with defaults if environment variables are
// not set.
func LoadExtractorConfig() (*ExtractorConfig, error) {
	config := &ExtractorConfig{
		DefaultCommitLimit: pkgconfig.GetEnvInt("WORKFLOW_DEFAULT_COMMIT_LIMIT", 200),
		DefaultIssueLimit:  pkgconfig.GetEnvInt("WORKFLOW_DEFAULT_ISSUES_LIMIT", 200),
		DefaultPRLimit:     pkgconfig.GetEnvInt("WORKFLOW_DEFAULT_PR_LIMIT", 200),
		CircuitBreaker: BreakerConfig{
			FailureThreshold: uint32(pkgconfig.GetEnvInt("CIRCUIT_BREAKER_FAILURE_THRESHOLD", 3)),
			RecoveryTimeout:  pkgconfig.GetEnvDuration("CIRCUIT_BREAKER_RECOVERY_TIMEOUT", 30*time.Second),
		},
		CacheTTL:      pkgconfig.GetEnvDuration("CACHE_DEFAULT_TTL", extract.DefaultCacheTTL),
		MetadataDir:   pkgconfig.GetEnvString("METADATA_DIR", "extracted_metadata"),
		SchemaVersion: pkgconfig.GetEnvString("SCHEMA_VERSION", "1"),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid extractor config: %w", err)
	}
	return config, nil
}

// Validate checks configuration invariants.
func (c *ExtractorConfig) Validate() error {
	if c.DefaultCommitLimit <= 0 {
		return fmt.Errorf("default commit limit must be positive, got %d", c.DefaultCommitLimit)
	}
	if c.DefaultIssueLimit <= 0 {
		return fmt.Errorf("default issue limit must be positive, got %d", c.DefaultIssueLimit)
	}
	if c.DefaultPRLimit <= 0 {
		return fmt.Errorf("default PR limit must be positive, got %d", c.DefaultPRLimit)
	}
	if c.CircuitBreaker.FailureThreshold == 0 {
		return fmt.Errorf("breaker failure threshold must be positive")
	}
	if err := pkgconfig.ValidatePositiveDuration(c.CircuitBreaker.RecoveryTimeout); err != nil {
		return fmt.Errorf("breaker recovery timeout: %w", err)
	}
	if err := pkgconfig.ValidatePositiveDuration(c.CacheTTL); err != nil {
		return fmt.Errorf("cache TTL: %w", err)
	}
	if c.MetadataDir == "" {
		return fmt.Errorf("metadata dir must not be empty")
	}
	if c.SchemaVersion == "" {
		return fmt.Errorf("schema version must not be empty")
	}
	return nil
}
