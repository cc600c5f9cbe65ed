package docstore

import (
	"reflect"
	"strings"
)

// normalize converts a written value into the shape the store hands back:
// integers widen to int64, floats to float64, slices to []any, maps
// recursively. Pointers are dereferenced; nil pointers become nil.
func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint:
		return int64(x)
	case uint32:
		return int64(x)
	case float32:
		return float64(x)
	case float64, string, bool:
		return x
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	case []string:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = normalize(e)
		}
		return out
	case Document:
		return normalize(map[string]any(x))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.String:
		return rv.String()
	}
	return v
}

func normalizeDoc(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = normalize(v)
	}
	return out
}

func cloneDoc(doc Document) Document {
	if doc == nil {
		return nil
	}
	return normalizeDoc(doc)
}

// lookup resolves a dotted path.
func lookup(doc Document, path string) (any, bool) {
	var cur any = map[string]any(doc)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func setPath(doc Document, path string, value any) {
	parts := strings.Split(path, ".")
	m := map[string]any(doc)
	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[part] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

// compare orders two normalized scalars. Numbers compare numerically across
// int64 and float64; mismatched kinds are incomparable.
func compare(a, b any) (int, bool) {
	if af, ok := number(a); ok {
		bf, ok := number(b)
		if !ok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		if x == y {
			return 0, true
		}
		if !x {
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func equal(a, b any) bool {
	c, ok := compare(a, b)
	if ok {
		return c == 0
	}
	return a == nil && b == nil
}

func (f Filter) matches(doc Document) bool {
	got, ok := lookup(doc, f.Path)
	if !ok {
		return false
	}
	want := normalize(f.Value)
	switch f.Op {
	case OpEqual:
		return equal(got, want)
	case OpGreaterEqual:
		c, ok := compare(got, want)
		return ok && c >= 0
	case OpLess:
		c, ok := compare(got, want)
		return ok && c < 0
	case OpArrayContain:
		list, ok := got.([]any)
		if !ok {
			return false
		}
		for _, e := range list {
			if equal(e, want) {
				return true
			}
		}
	}
	return false
}

func applyTransform(current, value any) any {
	switch t := value.(type) {
	case arrayUnion:
		list, _ := current.([]any)
		out := append([]any{}, list...)
		for _, e := range t.elems {
			e = normalize(e)
			present := false
			for _, have := range out {
				if equal(have, e) {
					present = true
					break
				}
			}
			if !present {
				out = append(out, e)
			}
		}
		return out
	case arrayRemove:
		list, _ := current.([]any)
		out := make([]any, 0, len(list))
		for _, have := range list {
			drop := false
			for _, e := range t.elems {
				if equal(have, normalize(e)) {
					drop = true
					break
				}
			}
			if !drop {
				out = append(out, have)
			}
		}
		return out
	}
	return normalize(value)
}
