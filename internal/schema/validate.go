package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Validate checks candidate against s. On success it returns the candidate
// as an Object and a nil Violation. Otherwise the Violation lists every
// missing, unexpected, mistyped or out-of-set value found, in schema order
// followed by unexpected keys in lexical order. Validate has no side effects.
func Validate(candidate any, s Schema) (Object, *Violation) {
	obj, ok := candidate.(map[string]any)
	if !ok {
		return nil, &Violation{
			Schema:   s.Name,
			Problems: []string{fmt.Sprintf("candidate is %s, want object", describe(candidate))},
		}
	}

	var problems []string
	checkObject("", obj, s.Fields, &problems)
	if len(problems) > 0 {
		return nil, &Violation{Schema: s.Name, Problems: problems}
	}
	return obj, nil
}

func checkObject(prefix string, obj map[string]any, fields []Field, problems *[]string) {
	declared := make(map[string]bool, len(fields))
	for _, f := range fields {
		declared[f.Name] = true
		path := joinPath(prefix, f.Name)
		v, present := obj[f.Name]
		if !present {
			if f.Required {
				*problems = append(*problems, fmt.Sprintf("missing required field %q", path))
			}
			continue
		}
		checkValue(path, v, f, problems)
	}

	for _, k := range sortedKeys(obj) {
		if !declared[k] {
			*problems = append(*problems, fmt.Sprintf("unexpected field %q", joinPath(prefix, k)))
		}
	}
}

func checkValue(path string, v any, f Field, problems *[]string) {
	if v == nil {
		if !f.Nullable {
			*problems = append(*problems, fmt.Sprintf("field %q: null not allowed", path))
		}
		return
	}

	switch f.Type {
	case TypeString:
		s, ok := v.(string)
		if !ok {
			*problems = append(*problems, mismatch(path, f.Type, v))
			return
		}
		if len(f.Allowed) > 0 && !contains(f.Allowed, s) {
			*problems = append(*problems, fmt.Sprintf("field %q: value %q not in allowed set [%s]",
				path, s, strings.Join(f.Allowed, " ")))
		}
	case TypeNumber:
		if _, ok := AsFloat(v); !ok {
			*problems = append(*problems, mismatch(path, f.Type, v))
		}
	case TypeInteger:
		n, ok := AsFloat(v)
		if !ok || n != math.Trunc(n) {
			*problems = append(*problems, mismatch(path, f.Type, v))
		}
	case TypeBool:
		if _, ok := v.(bool); !ok {
			*problems = append(*problems, mismatch(path, f.Type, v))
		}
	case TypeArray:
		items, ok := v.([]any)
		if !ok {
			*problems = append(*problems, mismatch(path, f.Type, v))
			return
		}
		if f.Items == nil {
			return
		}
		for i, item := range items {
			checkValue(fmt.Sprintf("%s[%d]", path, i), item, *f.Items, problems)
		}
	case TypeObject:
		obj, ok := v.(map[string]any)
		if !ok {
			*problems = append(*problems, mismatch(path, f.Type, v))
			return
		}
		if len(f.Fields) > 0 {
			checkObject(path, obj, f.Fields, problems)
		}
	default:
		*problems = append(*problems, fmt.Sprintf("field %q: unknown type tag %q", path, f.Type))
	}
}

// AsFloat converts any JSON numeric representation to float64.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func mismatch(path string, want Type, got any) string {
	return fmt.Sprintf("field %q: want %s, got %s", path, want, describe(got))
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case float64, float32, int, int32, int64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
