package scene

import "errors"

var (
	// ErrNotFound indicates the named scene does not exist in the registry.
	ErrNotFound = errors.New("scene not found")

	// ErrEmptyName indicates a scene was given a blank name.
	ErrEmptyName = errors.New("scene name must not be empty")
)
