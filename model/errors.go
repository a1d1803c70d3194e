package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrBackend is matched (errors.Is) by every BackendError.
var ErrBackend = errors.New("backend error")

// BackendError reports a failed call to a model provider: transport failures,
// non-success status codes and unusable responses.
type BackendError struct {
	Provider   string `json:"provider"`
	StatusCode int    `json:"status_code,omitempty"` // 0 when no HTTP response was received
	Transient  bool   `json:"transient"`             // Whether a retry may succeed
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s api error (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s api error: %v", e.Provider, e.Err)
}

// Is reports whether target is ErrBackend.
func (e *BackendError) Is(target error) bool { return target == ErrBackend }

// Unwrap returns the underlying cause.
func (e *BackendError) Unwrap() error { return e.Err }

// Temporary reports whether the failure is worth retrying.
func (e *BackendError) Temporary() bool { return e.Transient }

// NewBackendError classifies err. Rate limits, server errors and transport
// failures are transient; client errors and cancellation are not.
func NewBackendError(provider string, statusCode int, err error) *BackendError {
	transient := IsTransientStatus(statusCode)
	if statusCode == 0 {
		transient = !errors.Is(err, context.Canceled)
	}
	return &BackendError{Provider: provider, StatusCode: statusCode, Transient: transient, Err: err}
}

// IsTransientStatus reports whether an HTTP status code signals a temporary
// condition.
func IsTransientStatus(code int) bool {
	switch {
	case code == http.StatusRequestTimeout, code == http.StatusConflict, code == http.StatusTooManyRequests:
		return true
	case code >= 500:
		return true
	default:
		return false
	}
}
