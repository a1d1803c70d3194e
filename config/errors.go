package config

import (
	"errors"
	"fmt"
)

// ErrConfiguration is matched (errors.Is) by every ConfigurationError.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports a fatal setup problem: an unknown slug, a missing
// credential, an unusable executable or an invalid configuration file. It is
// never retried.
type ConfigurationError struct {
	Key     string `json:"key"`     // Offending key (slug, env var, field path)
	Message string `json:"message"` // Human-readable reason
	Err     error  `json:"-"`       // Optional underlying cause
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("configuration error for '%s': %s", e.Key, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// Unwrap returns the underlying cause.
func (e *ConfigurationError) Unwrap() error { return e.Err }

// NewConfigurationError creates a ConfigurationError without an underlying cause.
func NewConfigurationError(key, message string) *ConfigurationError {
	return &ConfigurationError{Key: key, Message: message}
}
