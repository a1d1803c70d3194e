package atom

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/brainmesh/catalog"
	"github.com/hupe1980/brainmesh/config"
	"github.com/hupe1980/brainmesh/core"
	"github.com/hupe1980/brainmesh/logging"
	"github.com/hupe1980/brainmesh/model"
	"github.com/hupe1980/brainmesh/model/anthropic"
	"github.com/hupe1980/brainmesh/model/gemini"
	"github.com/hupe1980/brainmesh/model/openai"
	"github.com/hupe1980/brainmesh/prompt"
	"github.com/hupe1980/brainmesh/schema"
)

// Options configures an Atom.
type Options struct {
	// Model, when set, serves every call and bypasses credential lookup.
	Model model.Model
	// NewModel builds a client per call. Defaults to the family's adapter.
	NewModel model.Factory
	// Credentials resolves the API key for the family. Defaults to the
	// environment.
	Credentials config.Credentials
	Logger      logging.Logger
}

// Atom is a stateless inference unit bound to one catalog entry.
// It holds only immutable configuration and is safe for concurrent use.
type Atom struct {
	desc        catalog.Descriptor
	model       model.Model
	newModel    model.Factory
	credentials config.Credentials
	logger      logging.Logger
}

var _ core.Atom = (*Atom)(nil)

// New returns the Atom registered under slug.
func New(slug catalog.AtomSlug, optFns ...func(o *Options)) (*Atom, error) {
	desc, err := catalog.LookupAtom(slug)
	if err != nil {
		return nil, err
	}

	opts := Options{
		NewModel:    defaultFactory(desc.Family),
		Credentials: config.EnvCredentials(nil),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Model == nil && opts.NewModel == nil {
		return nil, config.NewConfigurationError("model", fmt.Sprintf("no model factory for family %q", desc.Family))
	}

	return &Atom{
		desc:        desc,
		model:       opts.Model,
		newModel:    opts.NewModel,
		credentials: opts.Credentials,
		logger:      logging.OrNoOp(opts.Logger),
	}, nil
}

func defaultFactory(family string) model.Factory {
	switch family {
	case catalog.FamilyOpenAI:
		return openai.Factory()
	case catalog.FamilyAnthropic:
		return anthropic.Factory()
	case catalog.FamilyGoogle:
		return gemini.Factory()
	default:
		return nil
	}
}

// Repo returns the backend family.
func (a *Atom) Repo() string { return a.desc.Family }

// Slug returns the full slug, e.g. "openai/gpt-4o".
func (a *Atom) Slug() string { return a.desc.Slug }

// Description returns the catalog description.
func (a *Atom) Description() string { return a.desc.Description }

// Descriptor returns the catalog entry behind the Atom.
func (a *Atom) Descriptor() catalog.Descriptor { return a.desc }

// Ask runs one completion and returns the validated result. The dynamic type
// of the result follows the output schema (string, int64, float64, bool,
// []any, map[string]any or nil).
func (a *Atom) Ask(ctx context.Context, req core.Request) (any, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	inv := core.NewInvocation(a.desc.Slug, core.ModeAsk, a.logger)
	logger := inv.Logger()
	done := inv.StartTimer("atom.ask")
	logger.Debug("atom.ask.start", "invocation_id", inv.ID, "slug", a.desc.Slug, "briefs", len(req.Role.Briefs))

	p, err := prompt.Build(ctx, req.Role.Briefs, req.Instruction)
	if err != nil {
		logger.Error("atom.ask.prompt_error", "invocation_id", inv.ID, "error", err.Error())
		return nil, err
	}

	m, err := a.client(ctx)
	if err != nil {
		return nil, err
	}

	constraint := schema.Constrain(req.Output, true)
	inv.Attempt()
	start := time.Now()
	resp, err := m.Generate(ctx, model.Request{
		Model:  a.desc.Model,
		System: p.System,
		Prompt: p.Instruction,
		Output: constraint,
	})
	tokens := 0
	if resp.Usage != nil {
		tokens = resp.Usage.TotalTokens
	}
	inv.LogModelCall(a.desc.Model, tokens, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	v, err := constraint.Decode(resp.Text)
	if err != nil {
		logger.Warn("atom.ask.invalid", "invocation_id", inv.ID, "mode", constraint.Mode.String(), "error", err.Error())
		return nil, err
	}
	logger.Debug("atom.ask.finish", "invocation_id", inv.ID)
	done()
	return v, nil
}

// client returns the injected model or builds a fresh one for this call.
func (a *Atom) client(ctx context.Context) (model.Model, error) {
	if a.model != nil {
		return a.model, nil
	}
	if a.credentials == nil {
		return nil, config.NewConfigurationError(a.desc.Family, "no credential source configured")
	}
	key, err := a.credentials(a.desc.Family)
	if err != nil {
		return nil, err
	}
	m, err := a.newModel(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%s: create model: %w", a.desc.Slug, err)
	}
	return m, nil
}
