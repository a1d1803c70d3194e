package core

import (
	"context"

	"github.com/hupe1980/brainmesh/config"
	"github.com/hupe1980/brainmesh/prompt"
	"github.com/hupe1980/brainmesh/schema"
)

// Role carries the background knowledge an invocation is performed with.
type Role struct {
	// Briefs render in order and are joined into the system context.
	Briefs []prompt.Source
}

// Request is the input of one Ask or Act call. It is owned by the caller and
// not retained after the call returns.
type Request struct {
	Role        Role
	Instruction string
	// Output is the contract the result must satisfy.
	Output schema.Schema
}

// Validate checks that the request can be served.
func (r Request) Validate() error {
	if r.Output == nil {
		return config.NewConfigurationError("output", "request has no output schema")
	}
	return nil
}

// Unit describes a catalog entry.
type Unit interface {
	// Repo returns the backend family, e.g. "openai".
	Repo() string
	// Slug returns the unit's slug.
	Slug() string
	// Description returns a human-readable summary.
	Description() string
}

// Asker answers without side effects.
type Asker interface {
	Ask(ctx context.Context, req Request) (any, error)
}

// Actor may modify its workspace while answering.
type Actor interface {
	Act(ctx context.Context, req Request) (any, error)
}

// Atom is a stateless single-turn inference unit.
type Atom interface {
	Unit
	Asker
}

// Repl is an agentic execution unit. Ask runs read-only, Act read-write.
type Repl interface {
	Unit
	Asker
	Actor
}
