package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/brainmesh/config"
)

// ErrUnknownSlug is matched by lookups of slugs outside the catalog.
var ErrUnknownSlug = errors.New("unknown slug")

// Backend families.
const (
	FamilyOpenAI    = "openai"
	FamilyAnthropic = "anthropic"
	FamilyGoogle    = "google"
)

// AtomSlug names a stateless inference unit.
type AtomSlug string

// Atom slugs.
const (
	GPT4o          AtomSlug = "openai/gpt-4o"
	GPT4oMini      AtomSlug = "openai/gpt-4o-mini"
	GPT4Turbo      AtomSlug = "openai/gpt-4-turbo"
	O1             AtomSlug = "openai/o1"
	O1Mini         AtomSlug = "openai/o1-mini"
	O1Preview      AtomSlug = "openai/o1-preview"
	ClaudeSonnet45 AtomSlug = "anthropic/claude-sonnet-4-5"
	ClaudeHaiku45  AtomSlug = "anthropic/claude-haiku-4-5"
	ClaudeOpus41   AtomSlug = "anthropic/claude-opus-4-1"
	Gemini25Pro    AtomSlug = "google/gemini-2.5-pro"
	Gemini25Flash  AtomSlug = "google/gemini-2.5-flash"
)

// ReplSlug names an agentic execution unit.
type ReplSlug string

// Repl slugs.
const (
	Codex            ReplSlug = "openai/codex"
	CodexMax         ReplSlug = "openai/codex/max"
	CodexMini        ReplSlug = "openai/codex/mini"
	Codex52          ReplSlug = "openai/codex/5.2"
	ClaudeCode       ReplSlug = "anthropic/claude-code"
	ClaudeCodeSonnet ReplSlug = "anthropic/claude-code/sonnet"
	ClaudeCodeOpus   ReplSlug = "anthropic/claude-code/opus"
)

// Descriptor is the immutable configuration behind a slug.
type Descriptor struct {
	Slug        string
	Family      string
	Model       string // backend model id; empty selects the backend default
	Description string
}

// ShortSlug returns the slug without its family prefix.
func (d Descriptor) ShortSlug() string {
	return strings.TrimPrefix(d.Slug, d.Family+"/")
}

var atoms = map[AtomSlug]Descriptor{
	GPT4o:          {Slug: string(GPT4o), Family: FamilyOpenAI, Model: "gpt-4o", Description: "gpt-4o - multimodal model for reasoning and vision"},
	GPT4oMini:      {Slug: string(GPT4oMini), Family: FamilyOpenAI, Model: "gpt-4o-mini", Description: "gpt-4o-mini - fast and cost-effective multimodal model"},
	GPT4Turbo:      {Slug: string(GPT4Turbo), Family: FamilyOpenAI, Model: "gpt-4-turbo", Description: "gpt-4-turbo - high capability with vision support"},
	O1:             {Slug: string(O1), Family: FamilyOpenAI, Model: "o1", Description: "o1 - advanced reasoning model for complex problems"},
	O1Mini:         {Slug: string(O1Mini), Family: FamilyOpenAI, Model: "o1-mini", Description: "o1-mini - fast reasoning model for coding and math"},
	O1Preview:      {Slug: string(O1Preview), Family: FamilyOpenAI, Model: "o1-preview", Description: "o1-preview - preview of advanced reasoning capabilities"},
	ClaudeSonnet45: {Slug: string(ClaudeSonnet45), Family: FamilyAnthropic, Model: "claude-sonnet-4-5", Description: "claude sonnet 4.5 - balanced intelligence and speed"},
	ClaudeHaiku45:  {Slug: string(ClaudeHaiku45), Family: FamilyAnthropic, Model: "claude-haiku-4-5", Description: "claude haiku 4.5 - fastest and most compact"},
	ClaudeOpus41:   {Slug: string(ClaudeOpus41), Family: FamilyAnthropic, Model: "claude-opus-4-1", Description: "claude opus 4.1 - highest capability for complex tasks"},
	Gemini25Pro:    {Slug: string(Gemini25Pro), Family: FamilyGoogle, Model: "gemini-2.5-pro", Description: "gemini 2.5 pro - long-context reasoning"},
	Gemini25Flash:  {Slug: string(Gemini25Flash), Family: FamilyGoogle, Model: "gemini-2.5-flash", Description: "gemini 2.5 flash - fast and cost-effective"},
}

var repls = map[ReplSlug]Descriptor{
	Codex:            {Slug: string(Codex), Family: FamilyOpenAI, Description: "codex - agentic coding assistant (default model)"},
	CodexMax:         {Slug: string(CodexMax), Family: FamilyOpenAI, Model: "gpt-5.1-codex-max", Description: "codex max - optimized for long-horizon agentic coding"},
	CodexMini:        {Slug: string(CodexMini), Family: FamilyOpenAI, Model: "gpt-5.1-codex-mini", Description: "codex mini - fast and cost-effective"},
	Codex52:          {Slug: string(Codex52), Family: FamilyOpenAI, Model: "gpt-5.2-codex", Description: "codex 5.2 - most advanced agentic coding model"},
	ClaudeCode:       {Slug: string(ClaudeCode), Family: FamilyAnthropic, Description: "claude code - agentic coding assistant (default model)"},
	ClaudeCodeSonnet: {Slug: string(ClaudeCodeSonnet), Family: FamilyAnthropic, Model: "sonnet", Description: "claude code sonnet - balanced agentic coding"},
	ClaudeCodeOpus:   {Slug: string(ClaudeCodeOpus), Family: FamilyAnthropic, Model: "opus", Description: "claude code opus - most capable agentic coding"},
}

// DefaultAtoms is one representative Atom per family, in family order.
var DefaultAtoms = []AtomSlug{GPT4o, ClaudeSonnet45, Gemini25Flash}

// DefaultRepls is one representative Repl per family, in family order.
var DefaultRepls = []ReplSlug{Codex, ClaudeCode}

// LookupAtom returns the descriptor for slug.
func LookupAtom(slug AtomSlug) (Descriptor, error) {
	d, ok := atoms[slug]
	if !ok {
		return Descriptor{}, unknown("atom", string(slug))
	}
	return d, nil
}

// LookupRepl returns the descriptor for slug.
func LookupRepl(slug ReplSlug) (Descriptor, error) {
	d, ok := repls[slug]
	if !ok {
		return Descriptor{}, unknown("repl", string(slug))
	}
	return d, nil
}

// AtomSlugs returns every Atom slug, sorted.
func AtomSlugs() []AtomSlug {
	out := make([]AtomSlug, 0, len(atoms))
	for s := range atoms {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ReplSlugs returns every Repl slug, sorted.
func ReplSlugs() []ReplSlug {
	out := make([]ReplSlug, 0, len(repls))
	for s := range repls {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func unknown(kind, slug string) error {
	return &config.ConfigurationError{
		Key:     "slug",
		Message: fmt.Sprintf("%s slug %q is not in the catalog", kind, slug),
		Err:     ErrUnknownSlug,
	}
}
