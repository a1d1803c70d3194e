package core

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/brainmesh/logging"
)

// Mode names the entry point of an invocation.
type Mode string

const (
	// ModeAsk is a read-only invocation.
	ModeAsk Mode = "ask"
	// ModeAct is a read-write invocation.
	ModeAct Mode = "act"
)

// Invocation is the scope of a single Ask or Act call. It carries a unique id
// used to correlate log records and counts the attempts made on behalf of the
// call.
type Invocation struct {
	ID      string
	Slug    string
	Mode    Mode
	Started time.Time

	logger   logging.Logger
	mu       sync.Mutex
	attempts int
}

// NewInvocation starts a new invocation scope. A nil logger is replaced by a
// NoOpLogger; the returned logger is annotated with the invocation id, slug
// and mode.
func NewInvocation(slug string, mode Mode, logger logging.Logger) *Invocation {
	id := uuid.NewString()
	logger = logging.OrNoOp(logger)
	if bl, ok := logger.(*logging.BrainLogger); ok {
		logger = bl.WithInvocation(id).WithContext("slug", slug).WithContext("mode", string(mode))
	}
	return &Invocation{
		ID:      id,
		Slug:    slug,
		Mode:    mode,
		Started: time.Now(),
		logger:  logger,
	}
}

// Logger returns the invocation-scoped logger.
func (inv *Invocation) Logger() logging.Logger { return inv.logger }

// Attempt records the start of another attempt and returns its number,
// starting at 1.
func (inv *Invocation) Attempt() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.attempts++
	return inv.attempts
}

// Attempts returns the number of attempts recorded so far.
func (inv *Invocation) Attempts() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.attempts
}

// Elapsed returns the time since the invocation started.
func (inv *Invocation) Elapsed() time.Duration { return time.Since(inv.Started) }

// LogModelCall records one model API call.
func (inv *Invocation) LogModelCall(model string, tokens int, dur time.Duration, err error) {
	if bl, ok := inv.logger.(*logging.BrainLogger); ok {
		bl.LogLLMCall(model, tokens, dur, err)
		return
	}
	args := []any{"invocation_id", inv.ID, "model", model, "token_count", tokens, "duration", dur}
	if err != nil {
		inv.logger.Error("model.call.error", append(args, "error", err.Error())...)
		return
	}
	inv.logger.Info("model.call.done", args...)
}

// LogThreadRun records one thread turn.
func (inv *Invocation) LogThreadRun(threadID, capability string, dur time.Duration, err error) {
	if bl, ok := inv.logger.(*logging.BrainLogger); ok {
		bl.LogThreadRun(threadID, capability, dur, err)
		return
	}
	args := []any{"invocation_id", inv.ID, "thread_id", threadID, "capability", capability, "duration", dur}
	if err != nil {
		inv.logger.Error("thread.run.error", append(args, "error", err.Error())...)
		return
	}
	inv.logger.Info("thread.run.done", args...)
}

// LogRetry records a failed attempt that will be retried after wait.
func (inv *Invocation) LogRetry(attempt int, wait time.Duration, err error) {
	if bl, ok := inv.logger.(*logging.BrainLogger); ok {
		bl.LogAttempt(inv.Slug, attempt, wait, err)
		return
	}
	inv.logger.Warn("invoke.retry", "invocation_id", inv.ID, "attempt", attempt, "wait", wait, "error", err.Error())
}

// StartTimer returns a closure that logs the time spent in op when invoked.
func (inv *Invocation) StartTimer(op string) func() {
	if bl, ok := inv.logger.(*logging.BrainLogger); ok {
		return bl.StartTimer(op)
	}
	start := time.Now()
	return func() {
		inv.logger.Info("operation.done", "invocation_id", inv.ID, "operation", op, "duration", time.Since(start))
	}
}
