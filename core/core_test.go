package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/brainmesh/logging"
	"github.com/hupe1980/brainmesh/schema"
)

type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (r *recordingLogger) record(level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, level+" "+msg)
}

func (r *recordingLogger) Debug(msg string, _ ...any) { r.record("debug", msg) }
func (r *recordingLogger) Info(msg string, _ ...any)  { r.record("info", msg) }
func (r *recordingLogger) Warn(msg string, _ ...any)  { r.record("warn", msg) }
func (r *recordingLogger) Error(msg string, _ ...any) { r.record("error", msg) }

var _ logging.Logger = (*recordingLogger)(nil)

func TestRequest_Validate(t *testing.T) {
	err := Request{Instruction: "x"}.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)

	assert.NoError(t, Request{Instruction: "x", Output: schema.String()}.Validate())
}

func TestInvocation_Attempts(t *testing.T) {
	inv := NewInvocation("openai/codex", ModeAsk, nil)
	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, 0, inv.Attempts())
	assert.Equal(t, 1, inv.Attempt())
	assert.Equal(t, 2, inv.Attempt())
	assert.Equal(t, 2, inv.Attempts())
	assert.IsType(t, logging.NoOpLogger{}, inv.Logger())
	assert.GreaterOrEqual(t, inv.Elapsed(), time.Duration(0))

	other := NewInvocation("openai/codex", ModeAsk, nil)
	assert.NotEqual(t, inv.ID, other.ID)
}

func TestInvocation_GenericLogger(t *testing.T) {
	rec := &recordingLogger{}
	inv := NewInvocation("openai/gpt-4o", ModeAsk, rec)
	inv.LogModelCall("gpt-4o", 10, time.Millisecond, nil)
	inv.LogModelCall("gpt-4o", 0, time.Millisecond, errors.New("boom"))
	inv.LogThreadRun("th", "read-only", time.Millisecond, nil)
	inv.LogRetry(1, time.Second, errors.New("timeout"))
	inv.StartTimer("atom.ask")()

	assert.Equal(t, []string{
		"info model.call.done",
		"error model.call.error",
		"info thread.run.done",
		"warn invoke.retry",
		"info operation.done",
	}, rec.entries)
}

func TestInvocation_BrainLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := logging.DefaultLoggerConfig()
	cfg.Output = &buf
	cfg.Level = logging.LogLevelDebug
	inv := NewInvocation("openai/codex", ModeAct, logging.NewLogger(cfg))

	inv.LogThreadRun("th_1", "read-write", time.Millisecond, nil)

	line := strings.TrimSpace(buf.String())
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &rec))
	assert.Equal(t, inv.ID, rec["invocation_id"])
	assert.Equal(t, "openai/codex", rec["slug"])
	assert.Equal(t, "act", rec["mode"])
	assert.Equal(t, "th_1", rec["thread_id"])
}

func TestErrorAliases(t *testing.T) {
	var err error = &ValidationError{Path: "$", Message: "bad"}
	assert.ErrorIs(t, err, ErrValidation)
	err = &TimeoutError{After: time.Second}
	assert.ErrorIs(t, err, ErrTimeout)
	err = &RunError{Backend: "codex"}
	assert.ErrorIs(t, err, ErrBackend)
	err = &BackendError{Provider: "openai"}
	assert.ErrorIs(t, err, ErrBackend)
}
