package domain

import "errors"

// Domain errors returned by the public API. Check them with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("chronicler: already running")

	// ErrNotRunning is returned when the engine is not accepting messages.
	ErrNotRunning = errors.New("chronicler: not running")

	// ErrShutdownTimeout is returned when in-flight deliveries outlive the shutdown timeout.
	ErrShutdownTimeout = errors.New("chronicler: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("chronicler: invalid configuration")

	// ErrInvalidMessage is returned when an inbound message cannot be decoded.
	ErrInvalidMessage = errors.New("chronicler: invalid message")
)
