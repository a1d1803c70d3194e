package schema

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
)

const (
	// ConstraintName is the name under which wire constraints are registered
	// with a backend.
	ConstraintName = "response"
	// WrapKey is the single property used to carry a wrapped scalar.
	WrapKey = "value"
)

// Mode selects how a Schema is represented on the wire.
type Mode int

const (
	// ModeObject passes an object schema to the backend unchanged.
	ModeObject Mode = iota
	// ModeWrapped wraps a non-object schema in a single-field object and
	// unwraps the value after parsing.
	ModeWrapped
	// ModeRaw sends no wire constraint; the response body is the value.
	ModeRaw
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeObject:
		return "object"
	case ModeWrapped:
		return "wrapped"
	case ModeRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Constraint is a Schema adapted to a backend protocol.
type Constraint struct {
	Name   string
	Mode   Mode
	Strict bool
	schema Schema
}

// Constrain adapts s to a backend. allowRaw reports whether the backend can
// return a plain message body; in that case an unconstrained String contract
// is served verbatim instead of being wrapped.
func Constrain(s Schema, allowRaw bool) Constraint {
	c := Constraint{Name: ConstraintName, Strict: true, schema: s}
	switch {
	case s.Kind() == KindObject:
		c.Mode = ModeObject
	case allowRaw && s.Kind() == KindString:
		c.Mode = ModeRaw
	default:
		c.Mode = ModeWrapped
	}
	return c
}

// Schema returns the caller's schema.
func (c Constraint) Schema() Schema { return c.schema }

// IsRaw reports whether the backend should be asked for a plain text body.
func (c Constraint) IsRaw() bool { return c.Mode == ModeRaw }

// JSONSchema returns the wire schema, or nil for ModeRaw and the zero
// Constraint.
func (c Constraint) JSONSchema() map[string]any {
	if c.schema == nil {
		return nil
	}
	switch c.Mode {
	case ModeRaw:
		return nil
	case ModeWrapped:
		return Object(Field(WrapKey, c.schema)).JSONSchema()
	default:
		return c.schema.JSONSchema()
	}
}

// MarshalJSON renders the wire schema as JSON. ModeRaw renders null.
func (c Constraint) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.JSONSchema())
}

// Decode turns a backend response body into a validated, normalized value.
func (c Constraint) Decode(body string) (any, error) {
	if strings.TrimSpace(body) == "" {
		return nil, &ValidationError{Path: "$", Message: "empty response body"}
	}
	if c.schema == nil {
		return body, nil
	}
	if c.Mode == ModeRaw {
		return c.schema.Validate(body)
	}
	decoded, err := decodeJSON(body)
	if err != nil {
		return nil, err
	}
	if c.Mode == ModeWrapped {
		wrapper, err := Object(Field(WrapKey, anySchema{})).Validate(decoded)
		if err != nil {
			return nil, err
		}
		decoded = wrapper.(map[string]any)[WrapKey]
		return c.schema.validateAt("$."+WrapKey, decoded)
	}
	return c.schema.Validate(decoded)
}

// decodeJSON parses a single JSON document, keeping numbers as json.Number.
// A surrounding markdown code fence is tolerated.
func decodeJSON(body string) (any, error) {
	text := stripFence(strings.TrimSpace(body))
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &ValidationError{Path: "$", Value: truncate(body), Message: "response is not valid JSON", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ValidationError{Path: "$", Value: truncate(body), Message: "unexpected data after JSON document"}
	}
	return v, nil
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	inner := s[3 : len(s)-3]
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		lang := strings.TrimSpace(inner[:nl])
		if lang == "" || lang == "json" {
			inner = inner[nl+1:]
		}
	}
	return strings.TrimSpace(inner)
}

func truncate(s string) string {
	const limit = 256
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

// anySchema accepts any value unchanged. It only appears as the placeholder
// while unwrapping a ModeWrapped envelope.
type anySchema struct{}

func (anySchema) Kind() Kind                              { return "any" }
func (anySchema) JSONSchema() map[string]any              { return map[string]any{} }
func (anySchema) Validate(v any) (any, error)             { return v, nil }
func (anySchema) validateAt(_ string, v any) (any, error) { return v, nil }
