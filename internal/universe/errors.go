package universe

import (
	"errors"
	"fmt"
	"strings"
)

// Domain-specific errors for universe operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidAddress is returned when a command references a channel
	// address outside [0, size).
	ErrInvalidAddress = errors.New("universe: channel address out of range")

	// ErrInvalidDuration is returned when a command carries a negative
	// fade duration.
	ErrInvalidDuration = errors.New("universe: fade duration must not be negative")

	// ErrInvalidValue is returned when a channel value is outside [0, 255].
	ErrInvalidValue = errors.New("universe: channel value out of range")

	// ErrUnknownCurve is returned when a fade curve name cannot be parsed.
	ErrUnknownCurve = errors.New("universe: unknown fade curve")

	// ErrInvalidSize is returned when a store is created with a size
	// outside (0, MaxSize].
	ErrInvalidSize = errors.New("universe: size must be between 1 and 512")

	// ErrEmptyScene is returned when a scene recall carries no channels.
	ErrEmptyScene = errors.New("universe: scene has no channels")
)

// AddressError describes a rejected channel within a scene recall.
type AddressError struct {
	// Address is the channel address that was rejected.
	Address int

	// Err is the underlying validation error.
	Err error
}

func (e AddressError) Error() string {
	return fmt.Sprintf("channel %d: %v", e.Address, e.Err)
}

func (e AddressError) Unwrap() error {
	return e.Err
}

// SceneError reports the invalid subset of a partially applied scene recall.
//
// A scene recall applies every valid channel and collects an AddressError for
// each invalid one; it never rolls back the valid subset.
type SceneError struct {
	// Invalid lists the rejected channels in ascending address order.
	Invalid []AddressError
}

func (e *SceneError) Error() string {
	msgs := make([]string, len(e.Invalid))
	for i, ae := range e.Invalid {
		msgs[i] = ae.Error()
	}
	return fmt.Sprintf("universe: scene partially applied: %s", strings.Join(msgs, "; "))
}
