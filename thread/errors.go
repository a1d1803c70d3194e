package thread

import (
	"fmt"
	"strings"

	"github.com/hupe1980/brainmesh/model"
)

// RunError reports a failed turn: a non-zero exit of the agent process, an
// error event in its output, or output that could not be understood.
type RunError struct {
	Backend   string
	ExitCode  int    // -1 when the process did not exit normally
	Stderr    string // Trimmed tail of the process's stderr
	Transient bool
	Err       error
}

// Error implements the error interface.
func (e *RunError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s thread error", e.Backend)
	if e.ExitCode != 0 {
		fmt.Fprintf(&b, " (exit %d)", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, " (stderr: %s)", e.Stderr)
	}
	return b.String()
}

// Is reports whether target is model.ErrBackend.
func (e *RunError) Is(target error) bool { return target == model.ErrBackend }

// Unwrap returns the underlying cause.
func (e *RunError) Unwrap() error { return e.Err }

// Temporary reports whether the failure is worth retrying.
func (e *RunError) Temporary() bool { return e.Transient }
