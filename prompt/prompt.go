package prompt

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Rule separates the rendered briefs from the instruction in a composed prompt.
const Rule = "\n\n---\n\n"

// Prompt is the rendered input of one invocation.
type Prompt struct {
	// System holds the rendered briefs joined by blank lines. Empty when the
	// role has no briefs.
	System string
	// Instruction is the caller's text, never trimmed or rewritten.
	Instruction string
}

// String renders the prompt as a single text. Without briefs it is exactly
// the instruction.
func (p Prompt) String() string {
	if p.System == "" {
		return p.Instruction
	}
	return p.System + Rule + p.Instruction
}

// RenderError reports a Source that failed to render.
type RenderError struct {
	Index int
	Name  string
	Err   error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("prompt: brief %d (%s): %v", e.Index, e.Name, e.Err)
	}
	return fmt.Sprintf("prompt: brief %d: %v", e.Index, e.Err)
}

// Unwrap returns the underlying render error.
func (e *RenderError) Unwrap() error { return e.Err }

// Build renders sources concurrently and pairs the result with instruction.
// Renderings keep source order; empty renderings are dropped.
func Build(ctx context.Context, sources []Source, instruction string) (Prompt, error) {
	rendered := make([]string, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		if src == nil {
			continue
		}
		g.Go(func() error {
			text, err := src.Render(gctx)
			if err != nil {
				re := &RenderError{Index: i, Err: err}
				if n, ok := src.(NamedSource); ok {
					re.Name = n.Name
				}
				return re
			}
			rendered[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Prompt{}, err
	}

	parts := make([]string, 0, len(rendered))
	for _, text := range rendered {
		if strings.TrimSpace(text) == "" {
			continue
		}
		parts = append(parts, text)
	}
	return Prompt{System: strings.Join(parts, "\n\n"), Instruction: instruction}, nil
}

// Compose is Build followed by String.
func Compose(ctx context.Context, sources []Source, instruction string) (string, error) {
	p, err := Build(ctx, sources, instruction)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}
