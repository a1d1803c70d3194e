package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/brainmesh/config"
)

func TestLookupAtom(t *testing.T) {
	for _, slug := range AtomSlugs() {
		d, err := LookupAtom(slug)
		require.NoError(t, err, slug)
		assert.Equal(t, string(slug), d.Slug)
		assert.True(t, strings.HasPrefix(d.Slug, d.Family+"/"), slug)
		assert.NotEmpty(t, d.Model, slug)
		assert.NotEmpty(t, d.Description, slug)
	}

	d, err := LookupAtom(GPT4o)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", d.Model)
	assert.Equal(t, "gpt-4o - multimodal model for reasoning and vision", d.Description)
}

func TestLookupRepl(t *testing.T) {
	d, err := LookupRepl(Codex)
	require.NoError(t, err)
	assert.Empty(t, d.Model)
	assert.Equal(t, "codex", d.ShortSlug())
	assert.Equal(t, FamilyOpenAI, d.Family)

	d, err = LookupRepl(CodexMax)
	require.NoError(t, err)
	assert.Equal(t, "gpt-5.1-codex-max", d.Model)
	assert.Equal(t, "codex/max", d.ShortSlug())

	d, err = LookupRepl(ClaudeCodeOpus)
	require.NoError(t, err)
	assert.Equal(t, "claude-code/opus", d.ShortSlug())
	assert.Equal(t, FamilyAnthropic, d.Family)

	assert.Len(t, ReplSlugs(), 7)
}

func TestLookup_Unknown(t *testing.T) {
	_, err := LookupAtom("openai/gpt-99")
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrConfiguration))
	assert.True(t, errors.Is(err, ErrUnknownSlug))
	assert.Contains(t, err.Error(), "openai/gpt-99")

	_, err = LookupRepl("openai/gpt-4o")
	assert.ErrorIs(t, err, ErrUnknownSlug)
}

func TestDefaults(t *testing.T) {
	families := map[string]bool{}
	for _, s := range DefaultAtoms {
		d, err := LookupAtom(s)
		require.NoError(t, err)
		assert.False(t, families[d.Family], "duplicate family %s", d.Family)
		families[d.Family] = true
	}
	assert.Len(t, families, 3)

	for _, s := range DefaultRepls {
		_, err := LookupRepl(s)
		require.NoError(t, err)
	}
}
