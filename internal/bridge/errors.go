package bridge

import "errors"

var (
	// ErrAlreadyRunning is returned by Start on a running bridge.
	ErrAlreadyRunning = errors.New("bridge already running")
	// ErrNotRunning is returned by Stop on a stopped bridge.
	ErrNotRunning = errors.New("bridge not running")
	// ErrUnknownCapability indicates an unrecognized capability name.
	ErrUnknownCapability = errors.New("unknown capability")
	// ErrMalformed indicates a wire message that could not be decoded.
	ErrMalformed = errors.New("malformed message")
)
