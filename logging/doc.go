// Package logging provides the minimal logging interface used across brainmesh
// together with ready-made adapters.
//
//   - Logger interface for dependency injection into units
//   - SlogAdapter wrapping *slog.Logger
//   - ZapAdapter wrapping *zap.Logger
//   - BrainLogger, a slog-backed logger carrying component / invocation context
//   - NoOpLogger, the default for every unit
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	a, err := atom.New(catalog.AtomGPT4oMini, func(o *atom.Options) { o.Logger = logger })
package logging
