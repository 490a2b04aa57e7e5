package artnet

import "errors"

var (
	// ErrInvalidChannelCount indicates a channel count outside (0, 512].
	ErrInvalidChannelCount = errors.New("channel count must be between 1 and 512")

	// ErrInvalidSubnet indicates a subnet number above 15.
	ErrInvalidSubnet = errors.New("subnet must be less than 16")

	// ErrInvalidUniverse indicates a universe number above 15.
	ErrInvalidUniverse = errors.New("universe must be less than 16")

	// ErrNoController indicates sending is enabled but no controller
	// address was configured.
	ErrNoController = errors.New("no controller configured")
)
