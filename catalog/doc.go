// Package catalog maps the closed sets of Atom and Repl slugs to immutable
// model descriptors.
//
// A slug names a family and a variant, e.g. "openai/gpt-4o" or
// "anthropic/claude-code/opus". Lookups of unknown slugs fail with a
// *config.ConfigurationError.
package catalog
