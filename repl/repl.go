package repl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/brainmesh/catalog"
	"github.com/hupe1980/brainmesh/config"
	"github.com/hupe1980/brainmesh/core"
	"github.com/hupe1980/brainmesh/logging"
	"github.com/hupe1980/brainmesh/prompt"
	"github.com/hupe1980/brainmesh/resilience"
	"github.com/hupe1980/brainmesh/schema"
	"github.com/hupe1980/brainmesh/thread"
	"github.com/hupe1980/brainmesh/thread/claude"
	"github.com/hupe1980/brainmesh/thread/codex"
)

// Options configures a Repl.
type Options struct {
	// Starter, when set, opens every thread and bypasses credential lookup.
	Starter thread.Starter
	// NewStarter builds a Starter per call from the family's API key.
	// Defaults to the family's CLI backend.
	NewStarter thread.Factory
	// Credentials resolves the API key handed to NewStarter. A missing key is
	// not an error: the CLI may already be logged in.
	Credentials config.Credentials
	Policy      resilience.Policy
	// WorkingDir is the directory threads operate in. Empty uses the
	// process working directory.
	WorkingDir string
	Logger     logging.Logger
}

// Repl is an agentic execution unit bound to one catalog entry.
// It holds only immutable configuration and is safe for concurrent use.
type Repl struct {
	desc        catalog.Descriptor
	starter     thread.Starter
	newStarter  thread.Factory
	credentials config.Credentials
	policy      resilience.Policy
	workingDir  string
	logger      logging.Logger
}

var _ core.Repl = (*Repl)(nil)

// New returns the Repl registered under slug.
func New(slug catalog.ReplSlug, optFns ...func(o *Options)) (*Repl, error) {
	desc, err := catalog.LookupRepl(slug)
	if err != nil {
		return nil, err
	}

	opts := Options{
		NewStarter:  defaultFactory(desc.Family),
		Credentials: config.EnvCredentials(nil),
		Policy:      resilience.DefaultPolicy(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Starter == nil && opts.NewStarter == nil {
		return nil, config.NewConfigurationError("starter", fmt.Sprintf("no thread backend for family %q", desc.Family))
	}

	return &Repl{
		desc:        desc,
		starter:     opts.Starter,
		newStarter:  opts.NewStarter,
		credentials: opts.Credentials,
		policy:      opts.Policy,
		workingDir:  opts.WorkingDir,
		logger:      logging.OrNoOp(opts.Logger),
	}, nil
}

func defaultFactory(family string) thread.Factory {
	switch family {
	case catalog.FamilyOpenAI:
		return codex.Factory()
	case catalog.FamilyAnthropic:
		return claude.Factory()
	default:
		return nil
	}
}

// Repo returns the backend family.
func (r *Repl) Repo() string { return r.desc.Family }

// Slug returns the slug without the family prefix, e.g. "codex".
func (r *Repl) Slug() string { return r.desc.ShortSlug() }

// Description returns the catalog description.
func (r *Repl) Description() string { return r.desc.Description }

// Descriptor returns the catalog entry behind the Repl.
func (r *Repl) Descriptor() catalog.Descriptor { return r.desc }

// Ask runs the instruction in a read-only thread.
func (r *Repl) Ask(ctx context.Context, req core.Request) (any, error) {
	return r.invoke(ctx, core.ModeAsk, thread.ReadOnly, req)
}

// Act runs the instruction in a read-write thread. The thread may modify the
// working directory.
func (r *Repl) Act(ctx context.Context, req core.Request) (any, error) {
	return r.invoke(ctx, core.ModeAct, thread.ReadWrite, req)
}

func (r *Repl) invoke(ctx context.Context, mode core.Mode, capability thread.Capability, req core.Request) (any, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	inv := core.NewInvocation(r.desc.Slug, mode, r.logger)
	logger := inv.Logger()
	done := inv.StartTimer("repl." + string(mode))
	logger.Debug("repl.invoke.start", "invocation_id", inv.ID, "slug", r.desc.Slug, "capability", capability.String())

	text, err := prompt.Compose(ctx, req.Role.Briefs, req.Instruction)
	if err != nil {
		logger.Error("repl.invoke.prompt_error", "invocation_id", inv.ID, "error", err.Error())
		return nil, err
	}

	starter, err := r.threadStarter()
	if err != nil {
		return nil, err
	}

	constraint := schema.Constrain(req.Output, false)
	runOpts := thread.RunOptions{OutputSchema: constraint.JSONSchema()}
	threadOpts := thread.Options{
		Model:      r.desc.Model,
		Capability: capability,
		WorkingDir: r.workingDir,
	}

	op := func(ctx context.Context) (string, error) {
		attempt := inv.Attempt()
		logger.Debug("repl.invoke.attempt", "invocation_id", inv.ID, "attempt", attempt)
		return r.runOnce(ctx, inv, starter, threadOpts, text, runOpts)
	}

	policy := r.policy.For(capability == thread.ReadWrite)
	onRetry := policy.OnRetry
	policy.OnRetry = func(attempt int, wait time.Duration, err error) {
		inv.LogRetry(attempt, wait, err)
		if onRetry != nil {
			onRetry(attempt, wait, err)
		}
	}

	body, err := resilience.Wrap(op, policy)(ctx)
	if err != nil {
		logger.Error("repl.invoke.failed", "invocation_id", inv.ID, "attempts", inv.Attempts(), "error", err.Error())
		return nil, err
	}

	v, err := constraint.Decode(body)
	if err != nil {
		logger.Warn("repl.invoke.invalid", "invocation_id", inv.ID, "error", err.Error())
		return nil, err
	}
	logger.Debug("repl.invoke.finish", "invocation_id", inv.ID, "attempts", inv.Attempts())
	done()
	return v, nil
}

// runOnce opens a thread, runs a single turn and closes the thread.
func (r *Repl) runOnce(ctx context.Context, inv *core.Invocation, starter thread.Starter, opts thread.Options, text string, runOpts thread.RunOptions) (string, error) {
	th, err := starter.Start(ctx, opts)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := th.Close(); cerr != nil {
			inv.Logger().Warn("repl.thread.close_error", "invocation_id", inv.ID, "thread_id", th.ID(), "error", cerr.Error())
		}
	}()

	start := time.Now()
	turn, err := th.Run(ctx, text, runOpts)
	threadID := turn.ThreadID
	if threadID == "" {
		threadID = th.ID()
	}
	inv.LogThreadRun(threadID, opts.Capability.String(), time.Since(start), err)
	if err != nil {
		return "", err
	}
	return turn.FinalResponse, nil
}

// threadStarter returns the injected starter or builds one for this call.
func (r *Repl) threadStarter() (thread.Starter, error) {
	if r.starter != nil {
		return r.starter, nil
	}
	var key string
	if r.credentials != nil {
		k, err := r.credentials(r.desc.Family)
		switch {
		case err == nil:
			key = k
		case errors.Is(err, config.ErrConfiguration):
			// The CLIs keep their own login; an absent key falls through to it.
		default:
			return nil, fmt.Errorf("%s: resolve credential: %w", r.desc.Slug, err)
		}
	}
	s, err := r.newStarter(key)
	if err != nil {
		return nil, fmt.Errorf("%s: create thread starter: %w", r.desc.Slug, err)
	}
	return s, nil
}
