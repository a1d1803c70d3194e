package resilience

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is matched (errors.Is) by every TimeoutError.
var ErrTimeout = errors.New("operation timed out")

// TimeoutError reports an attempt that did not finish within its bound.
type TimeoutError struct {
	After time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation timed out after %s", e.After)
}

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// Temporary reports that a timed out attempt may succeed when repeated.
func (e *TimeoutError) Temporary() bool { return true }

// ExhaustedError is returned when every attempt of the retry budget failed.
// It unwraps to the last failure.
type ExhaustedError struct {
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry budget exhausted after %d attempts: %v", e.Attempts, e.Err)
}

// Unwrap returns the last failure.
func (e *ExhaustedError) Unwrap() error { return e.Err }
