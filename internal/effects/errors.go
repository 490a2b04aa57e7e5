package effects

import "errors"

var (
	// ErrInvalidNode indicates an effect definition failed validation.
	ErrInvalidNode = errors.New("effects: invalid node")

	// ErrAlreadyRunning indicates an effect with the same ID is active.
	ErrAlreadyRunning = errors.New("effects: effect already running")

	// ErrNotRunning indicates no active effect has the given ID.
	ErrNotRunning = errors.New("effects: effect not running")

	// ErrStopped indicates the runner has been shut down.
	ErrStopped = errors.New("effects: runner stopped")
)
