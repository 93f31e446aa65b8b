package styling

import (
	"errors"
	"fmt"
)

// Errors returned by styling operations.
var (
	// ErrUnknownTheme indicates the theme is not registered.
	ErrUnknownTheme = errors.New("unknown theme")

	// ErrInvalidValue indicates a value outside the accepted range.
	ErrInvalidValue = errors.New("invalid value")

	// ErrUnsupported indicates an enum value the styling layer cannot render.
	ErrUnsupported = errors.New("unsupported value")
)

// Error describes a rejected styling operation.
type Error struct {
	// Op is the setter that failed, e.g. "SetFontSize".
	Op string
	// Value is the rejected value.
	Value any
	// Err is the underlying sentinel.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("styling: %s(%v): %v", e.Op, e.Value, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op string, value any, err error) *Error {
	return &Error{Op: op, Value: value, Err: err}
}
