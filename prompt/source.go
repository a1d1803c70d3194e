package prompt

import (
	"context"
)

// Source supplies one block of background knowledge at invocation time.
type Source interface {
	Render(ctx context.Context) (string, error)
}

// SourceFunc adapts an ordinary function to a Source.
type SourceFunc func(ctx context.Context) (string, error)

// Render implements Source.
func (f SourceFunc) Render(ctx context.Context) (string, error) { return f(ctx) }

// Text is a static Source.
type Text string

// Render implements Source.
func (t Text) Render(context.Context) (string, error) { return string(t), nil }

// NamedSource labels a Source so render failures can be attributed.
type NamedSource struct {
	Name   string
	Source Source
}

// Named wraps src with a name used in error messages.
func Named(name string, src Source) NamedSource {
	return NamedSource{Name: name, Source: src}
}

// Render implements Source.
func (n NamedSource) Render(ctx context.Context) (string, error) {
	if n.Source == nil {
		return "", nil
	}
	return n.Source.Render(ctx)
}
