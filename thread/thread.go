package thread

import (
	"context"
)

// Capability is the permission level a thread is opened with.
type Capability int

const (
	// ReadOnly threads may inspect the workspace but not change it.
	ReadOnly Capability = iota
	// ReadWrite threads may modify files in the workspace.
	ReadWrite
)

// String returns the capability name.
func (c Capability) String() string {
	switch c {
	case ReadOnly:
		return "read-only"
	case ReadWrite:
		return "read-write"
	default:
		return "unknown"
	}
}

// Options configure a new thread.
type Options struct {
	// Model is the backend model id. Empty selects the backend default.
	Model      string
	Capability Capability
	// WorkingDir is the workspace the agent operates in. Empty means the
	// current directory.
	WorkingDir string
}

// RunOptions configure a single turn.
type RunOptions struct {
	// OutputSchema constrains the final response to JSON matching this schema.
	OutputSchema map[string]any
}

// Usage reports token consumption of a turn.
type Usage struct {
	InputTokens       int `json:"input_tokens"`
	CachedInputTokens int `json:"cached_input_tokens"`
	OutputTokens      int `json:"output_tokens"`
}

// Turn is the outcome of one Run.
type Turn struct {
	ThreadID      string
	FinalResponse string
	Usage         *Usage
}

// Thread is a live execution context.
type Thread interface {
	// ID returns the backend thread id, empty until the first turn started.
	ID() string
	// Run executes one turn and returns the agent's final response.
	Run(ctx context.Context, prompt string, opts RunOptions) (Turn, error)
	// Close releases the thread's resources. It is safe to call more than once.
	Close() error
}

// Starter opens threads.
type Starter interface {
	Start(ctx context.Context, opts Options) (Thread, error)
}

// StarterFunc adapts an ordinary function to a Starter.
type StarterFunc func(ctx context.Context, opts Options) (Thread, error)

// Start implements Starter.
func (f StarterFunc) Start(ctx context.Context, opts Options) (Thread, error) { return f(ctx, opts) }

// Factory builds a Starter from a resolved API key. An empty key defers to
// the backend's own login state.
type Factory func(apiKey string) (Starter, error)
