package entity

import "errors"

// Sentinel errors for extraction request validation.
var (
	// ErrEmptyTarget indicates that the request did not name a repository.
	ErrEmptyTarget = errors.New("target repository is required")

	// ErrEmptySelection indicates that no fact type was selected for
	// extraction, so the run would have no effect.
	ErrEmptySelection = errors.New("at least one fact type must be selected")

	// ErrInvalidTarget indicates that the target string could not be parsed
	// as a GitHub repository identifier.
	ErrInvalidTarget = errors.New("invalid repository target")
)
