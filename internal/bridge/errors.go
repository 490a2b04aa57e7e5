package bridge

import "errors"

var (
	// ErrUnknownCommand is returned when a command topic names a kind the
	// bridge does not handle.
	ErrUnknownCommand = errors.New("bridge: unknown command kind")

	// ErrInvalidPayload is returned when a command payload cannot be
	// decoded or is missing a required field.
	ErrInvalidPayload = errors.New("bridge: invalid payload")

	// ErrInvalidParameters is returned when a well-formed payload carries
	// out-of-range or unknown parameter values.
	ErrInvalidParameters = errors.New("bridge: invalid parameters")
)
