package engine

import "errors"

// Errors returned by engine operations.
var (
	// ErrReadOnly indicates user input was attempted on a read-only state.
	ErrReadOnly = errors.New("state is read-only")

	// ErrNoView indicates an operation needs a view that is not attached.
	ErrNoView = errors.New("no view attached")
)
