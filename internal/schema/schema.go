// Package schema describes the output contract of a pipeline stage and
// validates candidate outputs against it.
package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Type is the type tag of a schema field.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBool    Type = "bool"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
)

// Object is a decoded JSON object. Stage outputs travel through the pipeline
// in this form.
type Object = map[string]any

// Field declares one key of an object schema.
type Field struct {
	Name string `json:"name"`
	Type Type   `json:"type"`

	// Required fields must be present as keys. Presence is independent of
	// nullability: a required nullable field may carry null.
	Required bool `json:"required,omitempty"`
	Nullable bool `json:"nullable,omitempty"`

	// Allowed is the literal set for enumerated string fields. Empty means
	// any string is accepted.
	Allowed []string `json:"allowed,omitempty"`

	// Items describes array elements. Its Name is ignored.
	Items *Field `json:"items,omitempty"`

	// Fields describes the keys of a nested object. A nested object with no
	// declared fields accepts any keys.
	Fields []Field `json:"fields,omitempty"`
}

// Schema is the full contract of one stage output.
type Schema struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Field returns the declared field with the given name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Violation is the canonical result of a failed contract check. It lists
// every problem found, in a deterministic order.
type Violation struct {
	Schema   string   `json:"schema"`
	Problems []string `json:"problems"`
}

// Reason joins all problems into a single line.
func (v *Violation) Reason() string {
	if v == nil {
		return ""
	}
	return strings.Join(v.Problems, "; ")
}

func (v *Violation) Error() string {
	return fmt.Sprintf("schema %s: %s", v.Schema, v.Reason())
}

// Skeleton builds the most conservative value that satisfies s: nullable
// fields are null, arrays are empty, nested objects are skeletons
// themselves, and non-nullable scalars carry their zero value (or the first
// allowed literal for enumerations). Stage logic uses it as the starting
// point of a degraded candidate.
func Skeleton(s Schema) Object {
	return skeletonObject(s.Fields)
}

func skeletonObject(fields []Field) Object {
	out := make(Object, len(fields))
	for _, f := range fields {
		out[f.Name] = skeletonValue(f)
	}
	return out
}

func skeletonValue(f Field) any {
	if f.Nullable {
		return nil
	}
	switch f.Type {
	case TypeArray:
		return []any{}
	case TypeObject:
		return skeletonObject(f.Fields)
	case TypeString:
		if len(f.Allowed) > 0 {
			return f.Allowed[0]
		}
		return ""
	case TypeNumber, TypeInteger:
		return float64(0)
	case TypeBool:
		return false
	default:
		return nil
	}
}

// Clone deep-copies a decoded JSON value so that later mutation of the copy
// never reaches the original.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = Clone(inner)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = Clone(inner)
		}
		return out
	default:
		return v
	}
}

// CloneObject is Clone for objects.
func CloneObject(o Object) Object {
	if o == nil {
		return nil
	}
	return Clone(o).(map[string]any)
}

func sortedKeys(o Object) []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
