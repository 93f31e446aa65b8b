package config

import (
	"errors"
	"fmt"

	"github.com/dshills/marksync/internal/styling"
)

// Errors returned by configuration operations.
var (
	// ErrInvalidValue indicates a value of the right kind outside the
	// accepted range or format.
	ErrInvalidValue = errors.New("invalid value")

	// ErrUnsupported indicates an enum value that is not supported.
	ErrUnsupported = errors.New("unsupported value")

	// ErrUnknownSetting indicates a key that names no setting.
	ErrUnknownSetting = errors.New("unknown setting")

	// ErrTypeMismatch indicates a value of the wrong kind.
	ErrTypeMismatch = errors.New("type mismatch")
)

// Error describes a rejected setting.
type Error struct {
	// Path is the setting path, e.g. "editor.invisiblesBehavior".
	Path string
	// Value is the rejected value.
	Value any
	// Err is one of the package sentinels.
	Err error
	// Cause is the collaborator error that triggered the rejection, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config %s = %v: %v: %v", e.Path, e.Value, e.Err, e.Cause)
	}
	return fmt.Sprintf("config %s = %v: %v", e.Path, e.Value, e.Err)
}

// Unwrap returns the sentinel and the cause.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func invalid(path string, value any) *Error {
	return &Error{Path: path, Value: value, Err: ErrInvalidValue}
}

func unsupported(path string, value any) *Error {
	return &Error{Path: path, Value: value, Err: ErrUnsupported}
}

// fromStyling converts a styling rejection into a config error.
func fromStyling(path string, value any, err error) *Error {
	sentinel := ErrInvalidValue
	if errors.Is(err, styling.ErrUnsupported) || errors.Is(err, styling.ErrUnknownTheme) {
		sentinel = ErrUnsupported
	}
	return &Error{Path: path, Value: value, Err: sentinel, Cause: err}
}
