package domain

import "errors"

// Domain errors represent error conditions in the eventship domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("eventship: already running")

	// ErrNotRunning is returned when an operation requires a running instance.
	ErrNotRunning = errors.New("eventship: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("eventship: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("eventship: invalid configuration")
)
