// Package brainmesh is a structured-output invocation layer over language
// model backends. It exposes two kinds of units behind one contract:
//
//   - Atoms run a single stateless completion (OpenAI, Anthropic, Gemini).
//   - Repls run one instruction inside an ephemeral agent thread (Codex CLI,
//     Claude Code CLI); Ask binds the thread read-only and Act read-write.
//
// Every call names an output schema. The schema is turned into the backend's
// wire constraint and the response is validated against the same schema, so
// the value handed back always satisfies it:
//
//	out := schema.As[string](schema.String())
//	a, _ := brainmesh.NewAtom(catalog.GPT4o)
//	answer, err := brainmesh.Ask(ctx, a, brainmesh.Request[string]{
//		Role:        core.Role{Briefs: []prompt.Source{prompt.Text(brief)}},
//		Instruction: "Summarize the brief",
//		Output:      out,
//	})
package brainmesh

import (
	"context"

	"github.com/hupe1980/brainmesh/atom"
	"github.com/hupe1980/brainmesh/catalog"
	"github.com/hupe1980/brainmesh/config"
	"github.com/hupe1980/brainmesh/core"
	"github.com/hupe1980/brainmesh/logging"
	"github.com/hupe1980/brainmesh/repl"
	"github.com/hupe1980/brainmesh/resilience"
	"github.com/hupe1980/brainmesh/schema"
	"github.com/hupe1980/brainmesh/thread/claude"
	"github.com/hupe1980/brainmesh/thread/codex"
)

// Options configures the units created by this package.
type Options struct {
	// Config supplies resilience, credential, logging and thread settings.
	// Defaults to config.Default().
	Config *config.Config
	// Logger overrides the logger built from Config.Logging. Without either,
	// nothing is logged.
	Logger logging.Logger
	// Credentials overrides the environment-backed source built from
	// Config.Credentials.
	Credentials config.Credentials

	// AtomOptions are applied to every Atom after the defaults above.
	AtomOptions []func(o *atom.Options)
	// ReplOptions are applied to every Repl after the defaults above.
	ReplOptions []func(o *repl.Options)
}

func resolveOptions(optFns []func(o *Options)) Options {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	switch {
	case opts.Logger != nil:
	case opts.Config != nil:
		l := opts.Config.Logging
		opts.Logger = logging.NewSlogLogger(logging.ParseLevel(l.Level), l.Format, l.AddSource)
	default:
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Credentials == nil {
		opts.Credentials = opts.Config.CredentialSource()
	}
	return opts
}

// NewAtom returns the Atom registered under slug.
func NewAtom(slug catalog.AtomSlug, optFns ...func(o *Options)) (core.Atom, error) {
	return newAtom(slug, resolveOptions(optFns))
}

func newAtom(slug catalog.AtomSlug, opts Options) (core.Atom, error) {
	fns := append([]func(o *atom.Options){func(o *atom.Options) {
		o.Credentials = opts.Credentials
		o.Logger = withComponent(opts.Logger, "atom")
	}}, opts.AtomOptions...)
	a, err := atom.New(slug, fns...)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// NewRepl returns the Repl registered under slug.
func NewRepl(slug catalog.ReplSlug, optFns ...func(o *Options)) (core.Repl, error) {
	return newRepl(slug, resolveOptions(optFns))
}

func newRepl(slug catalog.ReplSlug, opts Options) (core.Repl, error) {
	threads := opts.Config.Threads
	fns := append([]func(o *repl.Options){func(o *repl.Options) {
		o.Credentials = opts.Credentials
		o.Policy = resilience.FromConfig(opts.Config.Resilience)
		o.WorkingDir = threads.WorkingDir
		o.Logger = withComponent(opts.Logger, "repl")
		switch slug {
		case catalog.ClaudeCode, catalog.ClaudeCodeSonnet, catalog.ClaudeCodeOpus:
			if threads.ClaudePath != "" {
				o.NewStarter = claude.Factory(func(co *claude.Options) { co.Path = threads.ClaudePath })
			}
		default:
			if threads.CodexPath != "" {
				o.NewStarter = codex.Factory(func(co *codex.Options) { co.Path = threads.CodexPath })
			}
		}
	}}, opts.ReplOptions...)
	r, err := repl.New(slug, fns...)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func withComponent(l logging.Logger, component string) logging.Logger {
	if bl, ok := l.(*logging.BrainLogger); ok {
		return bl.WithComponent(component)
	}
	return l
}

// ListAtoms returns one Atom per backend family, for registration with a
// host.
func ListAtoms(optFns ...func(o *Options)) []core.Atom {
	opts := resolveOptions(optFns)
	out := make([]core.Atom, 0, len(catalog.DefaultAtoms))
	for _, slug := range catalog.DefaultAtoms {
		a, err := newAtom(slug, opts)
		if err != nil {
			opts.Logger.Warn("brainmesh.list.skip", "slug", string(slug), "error", err.Error())
			continue
		}
		out = append(out, a)
	}
	return out
}

// ListRepls returns one Repl per backend family, for registration with a
// host.
func ListRepls(optFns ...func(o *Options)) []core.Repl {
	opts := resolveOptions(optFns)
	out := make([]core.Repl, 0, len(catalog.DefaultRepls))
	for _, slug := range catalog.DefaultRepls {
		r, err := newRepl(slug, opts)
		if err != nil {
			opts.Logger.Warn("brainmesh.list.skip", "slug", string(slug), "error", err.Error())
			continue
		}
		out = append(out, r)
	}
	return out
}

// Request is the typed form of core.Request.
type Request[T any] struct {
	Role        core.Role
	Instruction string
	Output      schema.Descriptor[T]
}

func (r Request[T]) untyped() core.Request {
	return core.Request{Role: r.Role, Instruction: r.Instruction, Output: r.Output.Schema()}
}

// Ask runs req on u and returns the result as T.
func Ask[T any](ctx context.Context, u core.Asker, req Request[T]) (T, error) {
	v, err := u.Ask(ctx, req.untyped())
	if err != nil {
		var zero T
		return zero, err
	}
	return req.Output.Cast(v)
}

// Act runs req on u with write access and returns the result as T.
func Act[T any](ctx context.Context, u core.Actor, req Request[T]) (T, error) {
	v, err := u.Act(ctx, req.untyped())
	if err != nil {
		var zero T
		return zero, err
	}
	return req.Output.Cast(v)
}
