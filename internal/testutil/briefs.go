package testutil

import (
	"context"
	"time"

	"github.com/hupe1980/brainmesh/prompt"
)

// Briefs wraps each text in a prompt.Text source.
func Briefs(texts ...string) []prompt.Source {
	out := make([]prompt.Source, len(texts))
	for i, text := range texts {
		out[i] = prompt.Text(text)
	}
	return out
}

// FailingBrief is a source that always fails with err.
func FailingBrief(name string, err error) prompt.Source {
	return prompt.Named(name, prompt.SourceFunc(func(context.Context) (string, error) {
		return "", err
	}))
}

// SlowBrief renders text after d, or returns the context error first.
func SlowBrief(d time.Duration, text string) prompt.Source {
	return prompt.SourceFunc(func(ctx context.Context) (string, error) {
		select {
		case <-time.After(d):
			return text, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
}
