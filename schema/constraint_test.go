package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstrain_Modes(t *testing.T) {
	obj := Object(Field("a", String()))

	assert.Equal(t, ModeObject, Constrain(obj, true).Mode)
	assert.Equal(t, ModeObject, Constrain(obj, false).Mode)
	assert.Equal(t, ModeRaw, Constrain(String(), true).Mode)
	assert.Equal(t, ModeWrapped, Constrain(String(), false).Mode)
	assert.Equal(t, ModeWrapped, Constrain(Enum("x"), true).Mode)
	assert.Equal(t, ModeWrapped, Constrain(Array(Integer()), true).Mode)
	assert.Equal(t, ModeWrapped, Constrain(Nullable(obj), true).Mode)

	c := Constrain(obj, true)
	assert.Equal(t, ConstraintName, c.Name)
	assert.True(t, c.Strict)
	assert.Equal(t, "object", c.Mode.String())
}

func TestConstraint_JSONSchema(t *testing.T) {
	assert.Nil(t, Constrain(String(), true).JSONSchema())

	wrapped := Constrain(Integer(), false).JSONSchema()
	assert.Equal(t, []string{WrapKey}, wrapped["required"])
	assert.Equal(t, map[string]any{"type": "integer"}, wrapped["properties"].(map[string]any)[WrapKey])

	data, err := json.Marshal(Constrain(Boolean(), false))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "object",
		"properties": {"value": {"type": "boolean"}},
		"required": ["value"],
		"additionalProperties": false
	}`, string(data))
}

func TestConstraint_Decode(t *testing.T) {
	t.Run("raw body is returned verbatim", func(t *testing.T) {
		v, err := Constrain(String(), true).Decode("  hello, world\n")
		require.NoError(t, err)
		assert.Equal(t, "  hello, world\n", v)
	})

	t.Run("wrapped scalar is unwrapped", func(t *testing.T) {
		v, err := Constrain(Integer(), false).Decode(`{"value": 42}`)
		require.NoError(t, err)
		assert.Equal(t, int64(42), v)
	})

	t.Run("wrapped string", func(t *testing.T) {
		v, err := Constrain(String(), false).Decode(`{"value":"ZEBRA42"}`)
		require.NoError(t, err)
		assert.Equal(t, "ZEBRA42", v)
	})

	t.Run("wrapped value of wrong type", func(t *testing.T) {
		_, err := Constrain(Integer(), false).Decode(`{"value": "42"}`)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "$.value", vErr.Path)
	})

	t.Run("wrapper missing", func(t *testing.T) {
		_, err := Constrain(Boolean(), false).Decode(`true`)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("object", func(t *testing.T) {
		v, err := Constrain(Object(Field("ok", Boolean())), true).Decode(`{"ok": true}`)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"ok": true}, v)
	})

	t.Run("fenced json", func(t *testing.T) {
		v, err := Constrain(Object(Field("n", Number())), true).Decode("```json\n{\"n\": 1.5}\n```")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"n": 1.5}, v)
	})

	t.Run("empty body", func(t *testing.T) {
		for _, body := range []string{"", "   \n"} {
			_, err := Constrain(String(), true).Decode(body)
			assert.ErrorIs(t, err, ErrValidation)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := Constrain(Object(), true).Decode(`{"a":`)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "response is not valid JSON", vErr.Message)
		assert.NotNil(t, vErr.Unwrap())
	})

	t.Run("trailing data", func(t *testing.T) {
		_, err := Constrain(Object(), true).Decode(`{} {}`)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestStripFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFence(`{"a":1}`))
	assert.Equal(t, "``", stripFence("``"))
}

func TestValidationError_Format(t *testing.T) {
	err := invalid("$.a", 1, "expected %s", "string")
	assert.Equal(t, "validation error at '$.a': expected string", err.Error())
}
