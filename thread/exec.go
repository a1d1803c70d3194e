package thread

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/hupe1980/brainmesh/config"
)

const stderrTail = 2048

// Command describes one agent process invocation.
type Command struct {
	Backend string
	Path    string
	Args    []string
	Dir     string
	// Env is appended to the parent environment.
	Env   []string
	Stdin string
}

// LookPath resolves an agent executable. A missing executable is a
// configuration problem and is reported as such.
func LookPath(key, path string) (string, error) {
	resolved, err := exec.LookPath(path)
	if err != nil {
		return "", &config.ConfigurationError{
			Key:     key,
			Message: fmt.Sprintf("agent executable %q not found", path),
			Err:     err,
		}
	}
	return resolved, nil
}

// Exec runs cmd to completion and returns its stdout. Exit failures become
// transient *RunError values; context cancellation is returned as is.
func Exec(ctx context.Context, cmd Command) ([]byte, error) {
	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = append(os.Environ(), cmd.Env...)
	c.Stdin = strings.NewReader(cmd.Stdin)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	if err := c.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return nil, &config.ConfigurationError{Key: cmd.Backend, Message: "agent executable not found", Err: err}
		}
		runErr := &RunError{Backend: cmd.Backend, ExitCode: -1, Stderr: tail(stderr.String()), Transient: true, Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			runErr.ExitCode = exitErr.ExitCode()
		}
		return stdout.Bytes(), runErr
	}
	return stdout.Bytes(), nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= stderrTail {
		return s
	}
	return "..." + s[len(s)-stderrTail:]
}
