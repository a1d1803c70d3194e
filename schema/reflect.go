package schema

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// Reflect derives a Schema from a Go value's type using reflection.
//
// Structs become closed objects keyed by their json tag names (fields tagged
// "-" and unexported fields are skipped, anonymous struct fields are
// flattened, and name conflicts resolve as in encoding/json). A `description` tag is forwarded to the model. Pointer fields
// become Nullable. Strict output has no notion of an optional key, so
// omitempty does not relax requiredness. Slices and arrays map to Array,
// []byte and time.Time to String. Maps, interfaces, channels and funcs are rejected.
func Reflect(v any) (Schema, error) {
	t := reflect.TypeOf(v)
	if t == nil {
		return nil, fmt.Errorf("schema: cannot reflect nil value")
	}
	return reflectType(t, map[reflect.Type]bool{})
}

// MustReflect is like Reflect but panics on error. Intended for package-level
// schema variables.
func MustReflect(v any) Schema {
	s, err := Reflect(v)
	if err != nil {
		panic(err)
	}
	return s
}

func reflectType(t reflect.Type, visiting map[reflect.Type]bool) (Schema, error) {
	if t == timeType {
		return String(), nil
	}
	switch t.Kind() {
	case reflect.String:
		return String(), nil
	case reflect.Bool:
		return Boolean(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Integer(), nil
	case reflect.Float32, reflect.Float64:
		return Number(), nil
	case reflect.Ptr:
		inner, err := reflectType(t.Elem(), visiting)
		if err != nil {
			return nil, err
		}
		return Nullable(inner), nil
	case reflect.Slice, reflect.Array:
		if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
			return String(), nil // encoding/json emits base64
		}
		item, err := reflectType(t.Elem(), visiting)
		if err != nil {
			return nil, err
		}
		return Array(item), nil
	case reflect.Struct:
		if visiting[t] {
			return nil, fmt.Errorf("schema: recursive type %s is not supported", t)
		}
		visiting[t] = true
		defer delete(visiting, t)
		fields, err := reflectFields(t, visiting)
		if err != nil {
			return nil, err
		}
		return Object(fields...), nil
	default:
		return nil, fmt.Errorf("schema: unsupported kind %s for type %s", t.Kind(), t)
	}
}

// reflectedField is a candidate object member found while walking a struct
// and its embedded structs.
type reflectedField struct {
	def    FieldDef
	depth  int
	tagged bool
}

// reflectFields lists the members encoding/json would marshal for t. When
// several candidates share a name, the shallowest one wins; at equal depth a
// single tagged candidate wins, otherwise the name is dropped.
func reflectFields(t reflect.Type, visiting map[reflect.Type]bool) ([]FieldDef, error) {
	candidates, err := collectFields(t, 0, visiting)
	if err != nil {
		return nil, err
	}

	byName := make(map[string][]int, len(candidates))
	for i, c := range candidates {
		byName[c.def.Name] = append(byName[c.def.Name], i)
	}

	fields := make([]FieldDef, 0, len(candidates))
	for i, c := range candidates {
		if dominant(candidates, byName[c.def.Name]) == i {
			fields = append(fields, c.def)
		}
	}
	return fields, nil
}

// dominant returns the index of the winning candidate among idx, or -1.
func dominant(candidates []reflectedField, idx []int) int {
	if len(idx) == 1 {
		return idx[0]
	}
	minDepth := candidates[idx[0]].depth
	for _, i := range idx[1:] {
		if d := candidates[i].depth; d < minDepth {
			minDepth = d
		}
	}
	var shallow []int
	for _, i := range idx {
		if candidates[i].depth == minDepth {
			shallow = append(shallow, i)
		}
	}
	if len(shallow) == 1 {
		return shallow[0]
	}
	winner := -1
	for _, i := range shallow {
		if candidates[i].tagged {
			if winner >= 0 {
				return -1
			}
			winner = i
		}
	}
	return winner
}

func collectFields(t reflect.Type, depth int, visiting map[reflect.Type]bool) ([]reflectedField, error) {
	var fields []reflectedField
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name := strings.Split(jsonTag, ",")[0]

		if field.Anonymous && name == "" {
			ft := field.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				if visiting[ft] {
					return nil, fmt.Errorf("schema: recursive type %s is not supported", ft)
				}
				visiting[ft] = true
				embedded, err := collectFields(ft, depth+1, visiting)
				delete(visiting, ft)
				if err != nil {
					return nil, err
				}
				fields = append(fields, embedded...)
				continue
			}
		}
		if !field.IsExported() {
			continue
		}
		tagged := name != ""
		if !tagged {
			name = field.Name
		}

		fs, err := reflectType(field.Type, visiting)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		fd := Field(name, fs)
		if description := field.Tag.Get("description"); description != "" {
			fd = fd.Describe(description)
		}
		fields = append(fields, reflectedField{def: fd, depth: depth, tagged: tagged})
	}
	return fields, nil
}
