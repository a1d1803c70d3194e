// Package claude runs threads on the Claude Code CLI.
//
// Each turn is one `claude -p --output-format json` process with the prompt
// on stdin. Read-only threads run in "plan" permission mode, which forbids
// edits; read-write threads run in "acceptEdits". The CLI has no output
// schema flag, so the schema is embedded in the prompt and the final result
// text is returned for validation.
package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/brainmesh/thread"
)

const backend = "claude"

// SchemaInstruction introduces the embedded JSON schema in the prompt.
const SchemaInstruction = "Respond with only a JSON document that matches this JSON Schema. Do not add prose or code fences."

// Options configure the Claude Code CLI starter.
type Options struct {
	// Path is the claude executable, resolved through PATH. Defaults to "claude".
	Path string
	// APIKey is exported to the process as ANTHROPIC_API_KEY when non-empty.
	APIKey string
	// ExtraArgs are appended to every invocation.
	ExtraArgs []string
	// Env is appended to the process environment.
	Env []string
}

// Starter opens Claude Code CLI threads.
type Starter struct {
	opts Options
}

var _ thread.Starter = (*Starter)(nil)

// NewStarter creates a Claude Code CLI starter.
func NewStarter(optFns ...func(o *Options)) *Starter {
	opts := Options{Path: "claude"}
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

// Start resolves the executable.
func (s *Starter) Start(_ context.Context, opts thread.Options) (thread.Thread, error) {
	path, err := thread.LookPath("threads.claude_path", s.opts.Path)
	if err != nil {
		return nil, err
	}
	mode, err := permissionModeFor(opts.Capability)
	if err != nil {
		return nil, err
	}
	return &Thread{starter: s, path: path, mode: mode, opts: opts}, nil
}

func permissionModeFor(c thread.Capability) (string, error) {
	switch c {
	case thread.ReadOnly:
		return "plan", nil
	case thread.ReadWrite:
		return "acceptEdits", nil
	default:
		return "", fmt.Errorf("claude: unsupported capability %s", c)
	}
}

// Thread is one Claude Code session.
type Thread struct {
	starter *Starter
	path    string
	mode    string
	opts    thread.Options

	mu     sync.Mutex
	id     string
	closed bool
}

var _ thread.Thread = (*Thread)(nil)

// ID implements thread.Thread.
func (t *Thread) ID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

// Args returns the command line for a turn, without the executable.
func (t *Thread) Args() []string {
	args := []string{"-p", "--output-format", "json", "--permission-mode", t.mode}
	if t.opts.Model != "" {
		args = append(args, "--model", t.opts.Model)
	}
	return append(args, t.starter.opts.ExtraArgs...)
}

// Run implements thread.Thread.
func (t *Thread) Run(ctx context.Context, prompt string, ro thread.RunOptions) (thread.Turn, error) {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return thread.Turn{}, errors.New("claude: thread is closed")
	}

	input, err := embedSchema(prompt, ro.OutputSchema)
	if err != nil {
		return thread.Turn{}, err
	}

	env := append([]string(nil), t.starter.opts.Env...)
	if t.starter.opts.APIKey != "" {
		env = append(env, "ANTHROPIC_API_KEY="+t.starter.opts.APIKey)
	}

	stdout, execErr := thread.Exec(ctx, thread.Command{
		Backend: backend,
		Path:    t.path,
		Args:    t.Args(),
		Dir:     t.opts.WorkingDir,
		Env:     env,
		Stdin:   input,
	})
	if execErr != nil {
		var runErr *thread.RunError
		if errors.As(execErr, &runErr) {
			if res, perr := parseEnvelope(stdout); perr == nil && res.IsError && res.Result != "" {
				runErr.Err = fmt.Errorf("%s (%w)", res.Result, runErr.Err)
			}
		}
		return thread.Turn{}, execErr
	}

	res, err := parseEnvelope(stdout)
	if err != nil {
		return thread.Turn{}, err
	}
	t.mu.Lock()
	t.id = res.SessionID
	t.mu.Unlock()

	if res.IsError {
		msg := res.Result
		if msg == "" {
			msg = res.Subtype
		}
		return thread.Turn{}, &thread.RunError{Backend: backend, Transient: true, Err: errors.New(msg)}
	}

	turn := thread.Turn{ThreadID: res.SessionID, FinalResponse: res.Result}
	if u := res.Usage; u != nil {
		turn.Usage = &thread.Usage{
			InputTokens:       u.InputTokens,
			CachedInputTokens: u.CacheReadInputTokens,
			OutputTokens:      u.OutputTokens,
		}
	}
	return turn, nil
}

// Close implements thread.Thread. Claude Code keeps no per-thread resources
// on our side.
func (t *Thread) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func embedSchema(prompt string, outputSchema map[string]any) (string, error) {
	if outputSchema == nil {
		return prompt, nil
	}
	data, err := json.MarshalIndent(outputSchema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("claude: encode output schema: %w", err)
	}
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\n")
	b.WriteString(SchemaInstruction)
	b.WriteString("\n\n")
	b.Write(data)
	return b.String(), nil
}

type envelope struct {
	Type      string `json:"type"`
	Subtype   string `json:"subtype"`
	IsError   bool   `json:"is_error"`
	Result    string `json:"result"`
	SessionID string `json:"session_id"`
	Usage     *struct {
		InputTokens          int `json:"input_tokens"`
		CacheReadInputTokens int `json:"cache_read_input_tokens"`
		OutputTokens         int `json:"output_tokens"`
	} `json:"usage"`
}

// parseEnvelope decodes the result document. Some CLI versions print a JSON
// array of messages instead of a single object; the result entry is used then.
func parseEnvelope(data []byte) (envelope, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return envelope{}, &thread.RunError{Backend: backend, Transient: true, Err: errors.New("empty output")}
	}
	if data[0] == '[' {
		var msgs []envelope
		if err := json.Unmarshal(data, &msgs); err != nil {
			return envelope{}, &thread.RunError{Backend: backend, Transient: true, Err: fmt.Errorf("decode output: %w", err)}
		}
		for i := len(msgs) - 1; i >= 0; i-- {
			if msgs[i].Type == "result" {
				return msgs[i], nil
			}
		}
		return envelope{}, &thread.RunError{Backend: backend, Transient: true, Err: errors.New("no result message in output")}
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return envelope{}, &thread.RunError{Backend: backend, Transient: true, Err: fmt.Errorf("decode output: %w", err)}
	}
	return env, nil
}
