package extract

import "errors"

// Sentinel errors for extraction operations.
var (
	// ErrFileNotFound indicates that a requested file does not exist on the
	// resolved ref. Dependency probing treats it as a silent skip.
	ErrFileNotFound = errors.New("file not found in repository")
)
