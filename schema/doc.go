// Package schema is the bridge between a caller's output contract and the
// backends that have to honour it.
//
// A Schema value serves two purposes that must never drift apart:
//
//   - JSONSchema renders the strict wire constraint handed to a backend
//     (every property required, no additional properties, nullable instead of
//     optional).
//   - Validate checks a decoded JSON value against exactly the same rules and
//     returns it in normalized form.
//
// Constrain adapts a Schema to a backend protocol (object, wrapped scalar or
// raw text body) and Descriptor gives a typed view used by callers:
//
//	out := schema.As[Review](schema.Object(
//		schema.Field("summary", schema.String()),
//		schema.Field("issues", schema.Array(schema.String())),
//	))
//	review, err := out.Parse(`{"summary":"ok","issues":[]}`)
package schema
