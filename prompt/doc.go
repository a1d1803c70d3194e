// Package prompt composes the text sent to a backend from a role's knowledge
// sources ("briefs") and the caller's instruction.
//
// Sources are rendered concurrently but always appear in the order they were
// given:
//
//	p, err := prompt.Build(ctx, []prompt.Source{
//		prompt.Text("You review Go code."),
//		prompt.Named("style", prompt.Template("Prefer {{.Style}}.", map[string]any{"Style": "small functions"})),
//	}, "Review main.go")
//
// Atoms send p.System as a system message; Repls send p.String(), which
// prepends the briefs to the instruction with a horizontal rule.
package prompt
