package core

import (
	"github.com/hupe1980/brainmesh/config"
	"github.com/hupe1980/brainmesh/model"
	"github.com/hupe1980/brainmesh/resilience"
	"github.com/hupe1980/brainmesh/schema"
	"github.com/hupe1980/brainmesh/thread"
)

// Re-exported error types so callers need a single import.
type (
	// ConfigurationError reports an unknown slug, a missing credential or executable.
	ConfigurationError = config.ConfigurationError
	// ValidationError reports output that does not satisfy the request's schema.
	ValidationError = schema.ValidationError
	// BackendError reports a failed model API call.
	BackendError = model.BackendError
	// RunError reports a failed agent thread turn.
	RunError = thread.RunError
	// TimeoutError reports an attempt that exceeded its bound.
	TimeoutError = resilience.TimeoutError
	// ExhaustedError wraps the last failure after the retry budget is spent.
	ExhaustedError = resilience.ExhaustedError
)

// Sentinels matched with errors.Is.
var (
	ErrConfiguration = config.ErrConfiguration
	ErrValidation    = schema.ErrValidation
	ErrBackend       = model.ErrBackend
	ErrTimeout       = resilience.ErrTimeout
)
