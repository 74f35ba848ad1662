// Package circuitbreaker guards calls to the upstream hosting API.
// It wraps github.com/sony/gobreaker with the consecutive-failure trip
// policy used by this service: one shared breaker protects every API
// operation, so sustained faults in one operation type stop pressure from
// all of them.
package circuitbreaker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrOpen is returned when a call is rejected because the breaker is open.
// The wrapped function was not invoked; callers can distinguish this from
// an upstream failure with errors.Is.
var ErrOpen = errors.New("circuit breaker open")

// Config holds the configuration for a circuit breaker.
type Config struct {
	// Name identifies the breaker in logs and metrics.
	Name string

	// FailureThreshold is the number of consecutive failures that trips
	// the breaker from closed to open.
	FailureThreshold uint32

	// RecoveryTimeout is how long the breaker stays open before the next
	// call attempt is allowed through as a half-open trial.
	RecoveryTimeout time.Duration
}

// DefaultConfig returns the default breaker configuration: trip after
// 3 consecutive failures, allow a recovery trial after 30 seconds.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 3,
		RecoveryTimeout:  30 * time.Second,
	}
}

// CircuitBreaker wraps gobreaker.CircuitBreaker with sentinel-error mapping
// for open-state rejections.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New creates a circuit breaker with the given configuration.
//
// MaxRequests is pinned to 1 so the half-open state admits a single trial
// call: success closes the breaker and resets the failure count, failure
// reopens it.
func New(cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.RecoveryTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}

	return &CircuitBreaker{
		breaker: gobreaker.NewCircuitBreaker(settings),
		name:    cfg.Name,
	}
}

// Execute runs fn through the circuit breaker. State is decided under the
// breaker's internal lock, fn itself runs outside it, and success/failure
// bookkeeping re-acquires the lock afterwards. If the circuit is open the
// call is rejected immediately with ErrOpen and fn is never invoked.
func (cb *CircuitBreaker) Execute(fn func() (any, error)) (any, error) {
	result, err := cb.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s", ErrOpen, cb.name)
	}
	return result, err
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.breaker.State()
}

// Counts returns the breaker's internal request/failure counters.
func (cb *CircuitBreaker) Counts() gobreaker.Counts {
	return cb.breaker.Counts()
}

// Name returns the name of the circuit breaker.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// IsOpen returns true if the circuit breaker is in the open state.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.breaker.State() == gobreaker.StateOpen
}
