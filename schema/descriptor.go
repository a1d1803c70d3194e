package schema

import (
	"encoding/json"
	"fmt"
)

// Descriptor is a typed view of a Schema: the same structural contract plus a
// conversion of validated values into T.
type Descriptor[T any] struct {
	schema Schema
}

// As binds s to the Go type T. T must be able to hold what s validates to
// through encoding/json (string for String, struct or map for Object, ...).
func As[T any](s Schema) Descriptor[T] { return Descriptor[T]{schema: s} }

// Text is the bare string contract.
func Text() Descriptor[string] { return As[string](String()) }

// Of reflects the schema from T itself.
func Of[T any]() (Descriptor[T], error) {
	var zero T
	s, err := Reflect(zero)
	if err != nil {
		return Descriptor[T]{}, err
	}
	return As[T](s), nil
}

// Schema returns the untyped schema.
func (d Descriptor[T]) Schema() Schema { return d.schema }

// Parse validates a raw JSON document against the schema and converts it to T.
func (d Descriptor[T]) Parse(raw string) (T, error) {
	var zero T
	if d.schema == nil {
		return zero, fmt.Errorf("schema: descriptor has no schema")
	}
	decoded, err := decodeJSON(raw)
	if err != nil {
		return zero, err
	}
	v, err := d.schema.Validate(decoded)
	if err != nil {
		return zero, err
	}
	return d.Cast(v)
}

// Cast converts an already validated value to T.
func (d Descriptor[T]) Cast(v any) (T, error) {
	if t, ok := v.(T); ok {
		return t, nil
	}
	var out T
	data, err := json.Marshal(v)
	if err != nil {
		return out, &ValidationError{Path: "$", Value: v, Message: "cannot encode validated value", Err: err}
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, &ValidationError{Path: "$", Value: v, Message: fmt.Sprintf("cannot convert to %T", out), Err: err}
	}
	return out, nil
}
