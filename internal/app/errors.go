package app

import (
	"errors"
	"fmt"
)

// App errors.
var (
	// ErrAlreadyRunning indicates Run was called twice.
	ErrAlreadyRunning = errors.New("app already running")

	// ErrNotRunning indicates the event loop is not running.
	ErrNotRunning = errors.New("app not running")

	// ErrClosed indicates the app has shut down and accepts no events.
	ErrClosed = errors.New("app closed")

	// ErrNoDocumentPath indicates Save was called on a document that was
	// never loaded from or saved to a file.
	ErrNoDocumentPath = errors.New("document has no path")
)

// OperationError is an error from one App operation.
type OperationError struct {
	Op     string // e.g. "load", "save", "undo"
	Target string // file path or setting, may be empty
	Err    error
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ComponentError is a failure setting up or stopping a component.
type ComponentError struct {
	Component string // e.g. "bridge", "script", "config"
	Err       error
}

func (e *ComponentError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Component
	}
	return fmt.Sprintf("%s: %v", e.Component, e.Err)
}

func (e *ComponentError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RecoveredPanicError wraps a panic raised by a posted event.
// The stack may reveal internal structure; log it, do not show it.
type RecoveredPanicError struct {
	Value any
	Stack string
}

func (e *RecoveredPanicError) Error() string {
	if e == nil {
		return ""
	}
	if e.Stack != "" {
		return fmt.Sprintf("panic: %v\n%s", e.Value, e.Stack)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}
