package schema

import (
	"errors"
	"fmt"
)

// ErrValidation is matched (errors.Is) by every ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError reports backend output that does not satisfy the caller's
// schema: malformed JSON, an empty body, or a value of the wrong shape.
type ValidationError struct {
	Path    string `json:"path"`    // JSONPath-like location, "$" for the root
	Value   any    `json:"value"`   // Offending value when available
	Message string `json:"message"` // Human-readable reason
	Err     error  `json:"-"`       // Underlying decode error, if any
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("validation error at '%s': %s", e.Path, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Unwrap returns the underlying decode error.
func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(path string, value any, format string, args ...any) *ValidationError {
	return &ValidationError{Path: path, Value: value, Message: fmt.Sprintf(format, args...)}
}
