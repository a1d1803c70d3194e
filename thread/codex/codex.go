// Package codex runs threads on the Codex CLI.
//
// Each turn is one `codex exec --experimental-json` process with the prompt
// on stdin. Capabilities map onto the CLI sandbox: read-only threads run in
// the "read-only" sandbox, read-write threads in "workspace-write". The output
// schema is written to a file in a per-thread temporary directory, removed on
// Close.
package codex

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hupe1980/brainmesh/thread"
)

const backend = "codex"

// Options configure the Codex CLI starter.
type Options struct {
	// Path is the codex executable, resolved through PATH. Defaults to "codex".
	Path string
	// APIKey is exported to the process as CODEX_API_KEY when non-empty.
	APIKey string
	// ExtraArgs are appended to every exec invocation before the stdin marker.
	ExtraArgs []string
	// Env is appended to the process environment.
	Env []string
}

// Starter opens Codex CLI threads.
type Starter struct {
	opts Options
}

var _ thread.Starter = (*Starter)(nil)

// NewStarter creates a Codex CLI starter.
func NewStarter(optFns ...func(o *Options)) *Starter {
	opts := Options{Path: "codex"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Starter{opts: opts}
}

// Factory returns a thread.Factory configuring each starter with the
// resolved key.
func Factory(optFns ...func(o *Options)) thread.Factory {
	return func(apiKey string) (thread.Starter, error) {
		fns := append([]func(o *Options){}, optFns...)
		fns = append(fns, func(o *Options) {
			if apiKey != "" {
				o.APIKey = apiKey
			}
		})
		return NewStarter(fns...), nil
	}
}

// Start resolves the executable and prepares a scratch directory.
func (s *Starter) Start(_ context.Context, opts thread.Options) (thread.Thread, error) {
	path, err := thread.LookPath("threads.codex_path", s.opts.Path)
	if err != nil {
		return nil, err
	}
	sandbox, err := sandboxFor(opts.Capability)
	if err != nil {
		return nil, err
	}
	scratch, err := os.MkdirTemp("", "brainmesh-codex-*")
	if err != nil {
		return nil, fmt.Errorf("codex: create scratch dir: %w", err)
	}
	return &Thread{
		starter: s,
		path:    path,
		sandbox: sandbox,
		opts:    opts,
		scratch: scratch,
	}, nil
}

func sandboxFor(c thread.Capability) (string, error) {
	switch c {
	case thread.ReadOnly:
		return "read-only", nil
	case thread.ReadWrite:
		return "workspace-write", nil
	default:
		return "", fmt.Errorf("codex: unsupported capability %s", c)
	}
}

// Thread is one Codex CLI conversation.
type Thread struct {
	starter *Starter
	path    string
	sandbox string
	opts    thread.Options
	scratch string

	mu        sync.Mutex
	id        string
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

var _ thread.Thread = (*Thread)(nil)

// ID implements thread.Thread.
func (t *Thread) ID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

// Args returns the command line for a turn, without the executable.
func (t *Thread) Args(schemaFile string) []string {
	args := []string{
		"exec",
		"--experimental-json",
		"--skip-git-repo-check",
		"--sandbox", t.sandbox,
	}
	if t.opts.Model != "" {
		args = append(args, "--model", t.opts.Model)
	}
	if t.opts.WorkingDir != "" {
		args = append(args, "--cd", t.opts.WorkingDir)
	}
	if schemaFile != "" {
		args = append(args, "--output-schema", schemaFile)
	}
	args = append(args, t.starter.opts.ExtraArgs...)
	return append(args, "-")
}

// Run implements thread.Thread.
func (t *Thread) Run(ctx context.Context, prompt string, ro thread.RunOptions) (thread.Turn, error) {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return thread.Turn{}, errors.New("codex: thread is closed")
	}

	var schemaFile string
	if ro.OutputSchema != nil {
		data, err := json.Marshal(ro.OutputSchema)
		if err != nil {
			return thread.Turn{}, fmt.Errorf("codex: encode output schema: %w", err)
		}
		schemaFile = filepath.Join(t.scratch, "output-schema.json")
		if err := os.WriteFile(schemaFile, data, 0o600); err != nil {
			return thread.Turn{}, fmt.Errorf("codex: write output schema: %w", err)
		}
	}

	env := append([]string(nil), t.starter.opts.Env...)
	if t.starter.opts.APIKey != "" {
		env = append(env, "CODEX_API_KEY="+t.starter.opts.APIKey)
	}

	stdout, execErr := thread.Exec(ctx, thread.Command{
		Backend: backend,
		Path:    t.path,
		Args:    t.Args(schemaFile),
		Env:     env,
		Stdin:   prompt,
	})

	turn, parseErr := parseEvents(stdout)
	if turn.ThreadID != "" {
		t.mu.Lock()
		t.id = turn.ThreadID
		t.mu.Unlock()
	}

	var runErr *thread.RunError
	switch {
	case errors.As(execErr, &runErr):
		var eventErr *thread.RunError
		if errors.As(parseErr, &eventErr) {
			runErr.Err = fmt.Errorf("%w (%w)", eventErr.Err, runErr.Err)
		}
		return thread.Turn{}, runErr
	case execErr != nil:
		return thread.Turn{}, execErr
	case parseErr != nil:
		return thread.Turn{}, parseErr
	}
	return turn, nil
}

// Close removes the scratch directory.
func (t *Thread) Close() error {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.mu.Unlock()
		t.closeErr = os.RemoveAll(t.scratch)
	})
	return t.closeErr
}

type event struct {
	Type     string        `json:"type"`
	ThreadID string        `json:"thread_id,omitempty"`
	Item     *item         `json:"item,omitempty"`
	Usage    *thread.Usage `json:"usage,omitempty"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

type item struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// parseEvents reads the JSONL event stream. The final response is the text
// of the last completed agent message. Unknown events and lines that are not
// JSON are skipped.
func parseEvents(data []byte) (thread.Turn, error) {
	var turn thread.Turn
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var ev event
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}
		switch ev.Type {
		case "thread.started":
			turn.ThreadID = ev.ThreadID
		case "item.completed":
			if ev.Item != nil && ev.Item.Type == "agent_message" {
				turn.FinalResponse = ev.Item.Text
			}
		case "turn.completed":
			turn.Usage = ev.Usage
		case "turn.failed":
			msg := "turn failed"
			if ev.Error != nil && ev.Error.Message != "" {
				msg = ev.Error.Message
			}
			return turn, failure(msg)
		case "error":
			return turn, failure(strings.TrimSpace(ev.Message))
		}
	}
	if err := scanner.Err(); err != nil {
		return turn, &thread.RunError{Backend: backend, Transient: true, Err: fmt.Errorf("read event stream: %w", err)}
	}
	return turn, nil
}

func failure(msg string) *thread.RunError {
	return &thread.RunError{Backend: backend, Transient: true, Err: errors.New(msg)}
}
