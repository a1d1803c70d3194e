package repl

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/brainmesh/catalog"
	"github.com/hupe1980/brainmesh/config"
	"github.com/hupe1980/brainmesh/core"
	"github.com/hupe1980/brainmesh/internal/testutil"
	"github.com/hupe1980/brainmesh/logging"
	"github.com/hupe1980/brainmesh/model"
	"github.com/hupe1980/brainmesh/prompt"
	"github.com/hupe1980/brainmesh/resilience"
	"github.com/hupe1980/brainmesh/schema"
	"github.com/hupe1980/brainmesh/thread"
)

func fastPolicy(attempts int) resilience.Policy {
	return resilience.Policy{
		Timeout:     time.Second,
		Attempts:    attempts,
		BackoffBase: time.Millisecond,
		BackoffMax:  2 * time.Millisecond,
	}
}

func newRepl(t *testing.T, slug catalog.ReplSlug, starter thread.Starter, policy resilience.Policy) *Repl {
	t.Helper()
	r, err := New(slug, func(o *Options) {
		o.Starter = starter
		o.Policy = policy
	})
	require.NoError(t, err)
	return r
}

// failing answers the first n turns with a transient error.
func failing(n int32, body string) (*thread.MockStarter, *atomic.Int32) {
	var calls atomic.Int32
	return thread.NewMockStarter(func(context.Context, string, thread.RunOptions) (string, error) {
		if calls.Add(1) <= n {
			return "", &thread.RunError{Backend: "mock", ExitCode: 1, Transient: true, Err: errors.New("crashed")}
		}
		return body, nil
	}), &calls
}

func TestNew(t *testing.T) {
	r, err := New(catalog.Codex)
	require.NoError(t, err)
	assert.Equal(t, "codex", r.Slug())
	assert.Equal(t, "openai", r.Repo())
	assert.NotEmpty(t, r.Description())

	r, err = New(catalog.ClaudeCodeOpus)
	require.NoError(t, err)
	assert.Equal(t, "claude-code/opus", r.Slug())
	assert.Equal(t, "anthropic", r.Repo())
	assert.Equal(t, "opus", r.Descriptor().Model)
}

func TestNew_UnknownSlug(t *testing.T) {
	r, err := New(catalog.ReplSlug("openai/codex/ultra"))
	assert.Nil(t, r)
	assert.ErrorIs(t, err, config.ErrConfiguration)
}

func TestCapabilityBinding(t *testing.T) {
	starter := thread.NewMockStarter(nil)
	r := newRepl(t, catalog.CodexMax, starter, fastPolicy(3))
	ctx := context.Background()

	_, err := r.Ask(ctx, core.Request{Instruction: "look", Output: schema.String()})
	require.NoError(t, err)
	_, err = r.Act(ctx, core.Request{Instruction: "change", Output: schema.String()})
	require.NoError(t, err)

	starts := starter.Starts()
	require.Len(t, starts, 2)
	assert.Equal(t, thread.ReadOnly, starts[0].Capability)
	assert.Equal(t, thread.ReadWrite, starts[1].Capability)
	assert.Equal(t, "gpt-5.1-codex-max", starts[0].Model)
	assert.Equal(t, 0, starter.Open())
}

func TestAsk_BriefPrependedToPrompt(t *testing.T) {
	starter := thread.NewMockStarter(nil)
	r := newRepl(t, catalog.ClaudeCode, starter, fastPolicy(1))

	v, err := r.Ask(context.Background(), core.Request{
		Role:        core.Role{Briefs: []prompt.Source{prompt.Text("The secret code is ZEBRA42.")}},
		Instruction: "What is the secret code?",
		Output:      schema.String(),
	})
	require.NoError(t, err)
	assert.Contains(t, v, "ZEBRA42")

	prompts := starter.Prompts()
	require.Len(t, prompts, 1)
	assert.Equal(t, "The secret code is ZEBRA42."+prompt.Rule+"What is the secret code?", prompts[0])
}

func TestAsk_BriefOrderKept(t *testing.T) {
	starter := thread.NewMockStarter(nil)
	r := newRepl(t, catalog.Codex, starter, fastPolicy(1))

	briefs := append([]prompt.Source{testutil.SlowBrief(20*time.Millisecond, "first")}, testutil.Briefs("second", "", "third")...)
	_, err := r.Ask(context.Background(), core.Request{
		Role:        core.Role{Briefs: briefs},
		Instruction: "go",
		Output:      schema.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "first\n\nsecond\n\nthird"+prompt.Rule+"go", starter.Prompts()[0])
}

func TestAsk_OutputSchemaIsWrapped(t *testing.T) {
	var seen map[string]any
	starter := thread.NewMockStarter(func(_ context.Context, _ string, opts thread.RunOptions) (string, error) {
		seen = opts.OutputSchema
		return `{"value":true}`, nil
	})
	r := newRepl(t, catalog.Codex, starter, fastPolicy(1))

	v, err := r.Ask(context.Background(), core.Request{Instruction: "ok?", Output: schema.Boolean()})
	require.NoError(t, err)
	assert.Equal(t, true, v)
	require.NotNil(t, seen)
	assert.Equal(t, []string{"value"}, seen["required"])
}

func TestAsk_RetryBudget(t *testing.T) {
	tests := []struct {
		name     string
		failures int32
		budget   int
		wantErr  bool
	}{
		{"first attempt", 0, 3, false},
		{"within budget", 2, 3, false},
		{"budget exhausted", 3, 3, true},
		{"single attempt", 1, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			starter, calls := failing(tt.failures, `{"value":"done"}`)
			r := newRepl(t, catalog.Codex, starter, fastPolicy(tt.budget))

			v, err := r.Ask(context.Background(), core.Request{Instruction: "x", Output: schema.String()})
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrBackend)
				assert.EqualValues(t, tt.budget, calls.Load())
			} else {
				require.NoError(t, err)
				assert.Equal(t, "done", v)
				assert.EqualValues(t, tt.failures+1, calls.Load())
			}
			assert.Equal(t, 0, starter.Open())
			assert.Len(t, starter.Starts(), int(calls.Load()))
		})
	}
}

func TestAct_NotRetriedByDefault(t *testing.T) {
	starter, calls := failing(1, `{"value":"done"}`)
	r := newRepl(t, catalog.Codex, starter, fastPolicy(3))

	_, err := r.Act(context.Background(), core.Request{Instruction: "x", Output: schema.String()})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrBackend)
	assert.EqualValues(t, 1, calls.Load())
}

func TestAct_RetryWrites(t *testing.T) {
	starter, calls := failing(1, `{"value":"done"}`)
	policy := fastPolicy(3)
	policy.RetryWrites = true
	r := newRepl(t, catalog.Codex, starter, policy)

	v, err := r.Act(context.Background(), core.Request{Instruction: "x", Output: schema.String()})
	require.NoError(t, err)
	assert.Equal(t, "done", v)
	assert.EqualValues(t, 2, calls.Load())
}

func TestAsk_ValidationNotRetried(t *testing.T) {
	var calls atomic.Int32
	starter := thread.NewMockStarter(func(context.Context, string, thread.RunOptions) (string, error) {
		calls.Add(1)
		return `{"value":"not a number"}`, nil
	})
	r := newRepl(t, catalog.Codex, starter, fastPolicy(3))

	_, err := r.Ask(context.Background(), core.Request{Instruction: "x", Output: schema.Integer()})
	assert.ErrorIs(t, err, schema.ErrValidation)
	assert.EqualValues(t, 1, calls.Load())
}

func TestAsk_PermanentErrorNotRetried(t *testing.T) {
	starter := thread.NewMockStarter(nil)
	starter.StartErr = config.NewConfigurationError("threads.codex_path", "executable not found")
	r := newRepl(t, catalog.Codex, starter, fastPolicy(3))

	_, err := r.Ask(context.Background(), core.Request{Instruction: "x", Output: schema.String()})
	assert.ErrorIs(t, err, config.ErrConfiguration)
	assert.Len(t, starter.Starts(), 1)
}

func TestAsk_Timeout(t *testing.T) {
	starter := thread.NewMockStarter(func(ctx context.Context, _ string, _ thread.RunOptions) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	policy := fastPolicy(2)
	policy.Timeout = 20 * time.Millisecond
	r := newRepl(t, catalog.Codex, starter, policy)

	start := time.Now()
	_, err := r.Ask(context.Background(), core.Request{Instruction: "x", Output: schema.String()})
	require.Error(t, err)
	assert.ErrorIs(t, err, resilience.ErrTimeout)
	assert.Less(t, time.Since(start), time.Second)

	assert.Eventually(t, func() bool { return starter.Open() == 0 }, time.Second, 5*time.Millisecond)
	assert.Len(t, starter.Starts(), 2)
}

func TestAsk_OnRetryChained(t *testing.T) {
	starter, _ := failing(1, `{"value":"done"}`)
	var retries []int
	policy := fastPolicy(3)
	policy.OnRetry = func(attempt int, _ time.Duration, _ error) { retries = append(retries, attempt) }
	r := newRepl(t, catalog.Codex, starter, policy)

	_, err := r.Ask(context.Background(), core.Request{Instruction: "x", Output: schema.String()})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, retries)
}

func TestAsk_MissingOutput(t *testing.T) {
	starter := thread.NewMockStarter(nil)
	r := newRepl(t, catalog.Codex, starter, fastPolicy(3))

	_, err := r.Ask(context.Background(), core.Request{Instruction: "x"})
	assert.ErrorIs(t, err, config.ErrConfiguration)
	assert.Empty(t, starter.Starts())
}

func TestNewStarter_ReceivesKey(t *testing.T) {
	starter := thread.NewMockStarter(nil)
	var keys []string
	dir := t.TempDir()
	r, err := New(catalog.ClaudeCode, func(o *Options) {
		o.NewStarter = func(apiKey string) (thread.Starter, error) {
			keys = append(keys, apiKey)
			return starter, nil
		}
		o.Credentials = config.StaticCredentials(map[string]string{"anthropic": "sk-ant"})
		o.Policy = fastPolicy(1)
		o.WorkingDir = dir
	})
	require.NoError(t, err)

	_, err = r.Ask(context.Background(), core.Request{Instruction: "x", Output: schema.String()})
	require.NoError(t, err)
	assert.Equal(t, []string{"sk-ant"}, keys)
	assert.Equal(t, dir, starter.Starts()[0].WorkingDir)
}

func TestNewStarter_MissingKeyFallsThrough(t *testing.T) {
	starter := thread.NewMockStarter(nil)
	var keys []string
	r, err := New(catalog.Codex, func(o *Options) {
		o.NewStarter = func(apiKey string) (thread.Starter, error) {
			keys = append(keys, apiKey)
			return starter, nil
		}
		o.Credentials = config.StaticCredentials(nil)
		o.Policy = fastPolicy(1)
	})
	require.NoError(t, err)

	_, err = r.Ask(context.Background(), core.Request{Instruction: "x", Output: schema.String()})
	require.NoError(t, err)
	assert.Equal(t, []string{""}, keys)
}

func TestNewStarter_CredentialFailure(t *testing.T) {
	vaultErr := errors.New("vault unreachable")
	called := false
	r, err := New(catalog.Codex, func(o *Options) {
		o.NewStarter = func(string) (thread.Starter, error) {
			called = true
			return thread.NewMockStarter(nil), nil
		}
		o.Credentials = func(string) (string, error) { return "", vaultErr }
		o.Policy = fastPolicy(3)
	})
	require.NoError(t, err)

	_, err = r.Ask(context.Background(), core.Request{Instruction: "x", Output: schema.String()})
	assert.ErrorIs(t, err, vaultErr)
	assert.False(t, called)
}

func TestInvoke_LogsDuration(t *testing.T) {
	var buf bytes.Buffer
	cfg := logging.DefaultLoggerConfig()
	cfg.Output = &buf
	r, err := New(catalog.Codex, func(o *Options) {
		o.Starter = thread.NewMockStarter(nil)
		o.Policy = fastPolicy(1)
		o.Logger = logging.NewLogger(cfg)
	})
	require.NoError(t, err)

	_, err = r.Act(context.Background(), core.Request{Instruction: "x", Output: schema.String()})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"msg":"Operation completed"`)
	assert.Contains(t, buf.String(), `"operation":"repl.act"`)
}
