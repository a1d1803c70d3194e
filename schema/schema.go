package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind names the structural category of a Schema.
type Kind string

const (
	// KindString is an unconstrained string.
	KindString Kind = "string"
	// KindNumber is any JSON number.
	KindNumber Kind = "number"
	// KindInteger is an integral JSON number.
	KindInteger Kind = "integer"
	// KindBoolean is true or false.
	KindBoolean Kind = "boolean"
	// KindEnum is one of a fixed set of strings.
	KindEnum Kind = "enum"
	// KindArray is a homogeneous list.
	KindArray Kind = "array"
	// KindObject is a closed record of named fields.
	KindObject Kind = "object"
	// KindNullable is another schema or null.
	KindNullable Kind = "nullable"
)

// Schema is a structural type description. The set of implementations is
// closed; build values with the constructors in this package.
type Schema interface {
	// Kind returns the structural category.
	Kind() Kind
	// JSONSchema renders the strict wire constraint. The returned map is a
	// fresh copy owned by the caller.
	JSONSchema() map[string]any
	// Validate checks a decoded JSON value and returns its normalized form.
	Validate(v any) (any, error)

	validateAt(path string, v any) (any, error)
}

// FieldDef is a named member of an object schema.
type FieldDef struct {
	Name        string
	Schema      Schema
	Description string
}

// Field creates an object member.
func Field(name string, s Schema) FieldDef { return FieldDef{Name: name, Schema: s} }

// Describe returns a copy of the field carrying a description for the model.
func (f FieldDef) Describe(text string) FieldDef {
	f.Description = text
	return f
}

type stringSchema struct{}

// String returns an unconstrained string schema.
func String() Schema { return stringSchema{} }

func (stringSchema) Kind() Kind                    { return KindString }
func (stringSchema) JSONSchema() map[string]any    { return map[string]any{"type": "string"} }
func (s stringSchema) Validate(v any) (any, error) { return s.validateAt("$", v) }

func (stringSchema) validateAt(path string, v any) (any, error) {
	str, ok := v.(string)
	if !ok {
		return nil, invalid(path, v, "expected string, got %s", typeName(v))
	}
	return str, nil
}

type numberSchema struct{}

// Number returns a schema accepting any JSON number, normalized to float64.
func Number() Schema { return numberSchema{} }

func (numberSchema) Kind() Kind                    { return KindNumber }
func (numberSchema) JSONSchema() map[string]any    { return map[string]any{"type": "number"} }
func (s numberSchema) Validate(v any) (any, error) { return s.validateAt("$", v) }

func (numberSchema) validateAt(path string, v any) (any, error) {
	f, ok := toFloat(v)
	if !ok {
		return nil, invalid(path, v, "expected number, got %s", typeName(v))
	}
	return f, nil
}

type integerSchema struct{}

// Integer returns a schema accepting integral JSON numbers, normalized to
// int64. Integral values outside the int64 range fail validation.
func Integer() Schema { return integerSchema{} }

func (integerSchema) Kind() Kind                    { return KindInteger }
func (integerSchema) JSONSchema() map[string]any    { return map[string]any{"type": "integer"} }
func (s integerSchema) Validate(v any) (any, error) { return s.validateAt("$", v) }

func (integerSchema) validateAt(path string, v any) (any, error) {
	if n, ok := v.(json.Number); ok {
		if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
			return i, nil
		}
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint:
		if uint64(n) <= math.MaxInt64 {
			return int64(n), nil
		}
		return nil, invalid(path, v, "integer out of range")
	case uint64:
		if n <= math.MaxInt64 {
			return int64(n), nil
		}
		return nil, invalid(path, v, "integer out of range")
	}
	f, ok := toFloat(v)
	if !ok {
		return nil, invalid(path, v, "expected integer, got %s", typeName(v))
	}
	if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return nil, invalid(path, v, "expected integer, got non-integral number %v", f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return nil, invalid(path, v, "integer out of range")
	}
	return int64(f), nil
}

type booleanSchema struct{}

// Boolean returns a boolean schema.
func Boolean() Schema { return booleanSchema{} }

func (booleanSchema) Kind() Kind                    { return KindBoolean }
func (booleanSchema) JSONSchema() map[string]any    { return map[string]any{"type": "boolean"} }
func (s booleanSchema) Validate(v any) (any, error) { return s.validateAt("$", v) }

func (booleanSchema) validateAt(path string, v any) (any, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, invalid(path, v, "expected boolean, got %s", typeName(v))
	}
	return b, nil
}

type enumSchema struct{ values []string }

// Enum returns a schema accepting exactly one of the given strings. At least
// one value is required; Enum panics otherwise.
func Enum(values ...string) Schema {
	if len(values) == 0 {
		panic("schema: Enum requires at least one value")
	}
	return enumSchema{values: append([]string(nil), values...)}
}

func (enumSchema) Kind() Kind { return KindEnum }

func (e enumSchema) JSONSchema() map[string]any {
	vals := make([]any, len(e.values))
	for i, v := range e.values {
		vals[i] = v
	}
	return map[string]any{"type": "string", "enum": vals}
}

func (e enumSchema) Validate(v any) (any, error) { return e.validateAt("$", v) }

func (e enumSchema) validateAt(path string, v any) (any, error) {
	str, ok := v.(string)
	if !ok {
		return nil, invalid(path, v, "expected string, got %s", typeName(v))
	}
	for _, allowed := range e.values {
		if str == allowed {
			return str, nil
		}
	}
	return nil, invalid(path, v, "value %q is not one of %v", str, e.values)
}

type arraySchema struct{ item Schema }

// Array returns a schema for a list whose elements all satisfy item.
func Array(item Schema) Schema { return arraySchema{item: item} }

func (arraySchema) Kind() Kind { return KindArray }

func (a arraySchema) JSONSchema() map[string]any {
	return map[string]any{"type": "array", "items": a.item.JSONSchema()}
}

func (a arraySchema) Validate(v any) (any, error) { return a.validateAt("$", v) }

func (a arraySchema) validateAt(path string, v any) (any, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, invalid(path, v, "expected array, got %s", typeName(v))
	}
	out := make([]any, len(items))
	for i, item := range items {
		n, err := a.item.validateAt(fmt.Sprintf("%s[%d]", path, i), item)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

type objectSchema struct{ fields []FieldDef }

// Object returns a closed record schema. Every field is required and no other
// keys are accepted; use Nullable for values that may be absent.
func Object(fields ...FieldDef) Schema {
	return objectSchema{fields: append([]FieldDef(nil), fields...)}
}

func (objectSchema) Kind() Kind { return KindObject }

// Fields returns the declared members of an object schema, or nil for other kinds.
func Fields(s Schema) []FieldDef {
	o, ok := s.(objectSchema)
	if !ok {
		return nil
	}
	return append([]FieldDef(nil), o.fields...)
}

func (o objectSchema) JSONSchema() map[string]any {
	props := make(map[string]any, len(o.fields))
	required := make([]string, 0, len(o.fields))
	for _, f := range o.fields {
		fs := f.Schema.JSONSchema()
		if f.Description != "" {
			fs["description"] = f.Description
		}
		props[f.Name] = fs
		required = append(required, f.Name)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func (o objectSchema) Validate(v any) (any, error) { return o.validateAt("$", v) }

func (o objectSchema) validateAt(path string, v any) (any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, invalid(path, v, "expected object, got %s", typeName(v))
	}
	out := make(map[string]any, len(o.fields))
	declared := make(map[string]struct{}, len(o.fields))
	for _, f := range o.fields {
		declared[f.Name] = struct{}{}
		fieldPath := path + "." + f.Name
		raw, exists := m[f.Name]
		if !exists {
			return nil, invalid(fieldPath, nil, "required field is missing")
		}
		n, err := f.Schema.validateAt(fieldPath, raw)
		if err != nil {
			return nil, err
		}
		out[f.Name] = n
	}
	for key, val := range m {
		if _, ok := declared[key]; !ok {
			return nil, invalid(path+"."+key, val, "unexpected field")
		}
	}
	return out, nil
}

type nullableSchema struct{ inner Schema }

// Nullable returns a schema accepting null or a value satisfying s.
func Nullable(s Schema) Schema {
	if n, ok := s.(nullableSchema); ok {
		return n
	}
	return nullableSchema{inner: s}
}

func (nullableSchema) Kind() Kind { return KindNullable }

func (n nullableSchema) JSONSchema() map[string]any {
	return map[string]any{
		"anyOf": []any{n.inner.JSONSchema(), map[string]any{"type": "null"}},
	}
}

func (n nullableSchema) Validate(v any) (any, error) { return n.validateAt("$", v) }

func (n nullableSchema) validateAt(path string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return n.inner.validateAt(path, v)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
