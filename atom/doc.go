// Package atom implements stateless single-turn inference units.
//
// An Atom renders the request's briefs into a system message, sends one
// completion request whose output is constrained by the request's schema, and
// validates the returned body. Atoms never retry: a failed call surfaces the
// backend error unchanged.
//
// Example:
//
//	a, err := atom.New(catalog.GPT4o)
//	if err != nil { ... }
//	v, err := a.Ask(ctx, core.Request{
//		Instruction: "Name a prime number",
//		Output:      schema.Integer(),
//	})
package atom
