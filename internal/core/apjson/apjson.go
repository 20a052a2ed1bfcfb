// Package apjson coerces heterogeneous ActivityPub JSON shapes into plain values.
// Remote servers disagree on whether a field is a string, an array, or an object,
// so every accessor here applies one documented precedence order and never panics
// on adversarial input
package apjson

// Doc is an untyped actor document as decoded from the wire
type Doc = map[string]any

// Str returns the string at key or empty
func Str(d Doc, key string) string {
	if d == nil {
		return ""
	}
	s, _ := d[key].(string)
	return s
}

// Bool returns the bool at key and whether it was present as a bool
func Bool(d Doc, key string) (bool, bool) {
	if d == nil {
		return false, false
	}
	b, ok := d[key].(bool)
	return b, ok
}

// First collapses string-or-array polymorphism: a plain value is returned as is,
// an array yields its first element, anything else yields nil
func First(v any) any {
	if xs, ok := v.([]any); ok {
		if len(xs) == 0 {
			return nil
		}
		return xs[0]
	}
	return v
}

// FirstString returns the first string under key, looking through arrays
func FirstString(d Doc, key string) string {
	if d == nil {
		return ""
	}
	s, _ := First(d[key]).(string)
	return s
}

// Strings returns all string elements under key whether the value is a
// single string or an array; non-strings are dropped
func Strings(d Doc, key string) []string {
	if d == nil {
		return nil
	}
	switch v := d[key].(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return nil
	}
}

// Obj returns the object at key or nil
func Obj(d Doc, key string) Doc {
	if d == nil {
		return nil
	}
	m, _ := d[key].(map[string]any)
	return m
}

// Objs returns all object elements under key whether the value is a single
// object or an array; non-objects are dropped
func Objs(d Doc, key string) []Doc {
	if d == nil {
		return nil
	}
	switch v := d[key].(type) {
	case map[string]any:
		return []Doc{v}
	case []any:
		out := make([]Doc, 0, len(v))
		for _, e := range v {
			if m, ok := e.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

// TypeIs reports whether the document's type field names want, where type
// itself may be a string or an array of strings
func TypeIs(d Doc, want string) bool {
	for _, t := range Strings(d, "type") {
		if t == want {
			return true
		}
	}
	return false
}

// PickType returns the first entry of the type field that appears in supported,
// honoring the document's declared order
func PickType(d Doc, supported []string) string {
	for _, t := range Strings(d, "type") {
		for _, s := range supported {
			if t == s {
				return t
			}
		}
	}
	return ""
}

// ImageURL extracts an image URL from the value under key.
// Accepted shapes in precedence order: a plain string URL, an object with a
// url member, an array of variants preferring an explicit Image-typed entry.
// Returns ("", ref) when only a reference identifier is available so the
// caller can decide whether to dereference it
func ImageURL(d Doc, key string) (url, ref string) {
	if d == nil {
		return "", ""
	}
	return imageURL(d[key])
}

func imageURL(v any) (url, ref string) {
	switch x := v.(type) {
	case string:
		return "", x
	case map[string]any:
		if u, ok := x["url"].(string); ok && u != "" {
			return u, ""
		}
		// url itself may be an object {href} or an array of those
		for _, link := range Objs(x, "url") {
			if h, ok := link["href"].(string); ok && h != "" {
				return h, ""
			}
		}
		if id, ok := x["id"].(string); ok && id != "" {
			return "", id
		}
		return "", ""
	case []any:
		// prefer an explicit Image-typed variant
		for _, e := range x {
			if m, ok := e.(map[string]any); ok && TypeIs(m, "Image") {
				if u, r := imageURL(m); u != "" || r != "" {
					return u, r
				}
			}
		}
		for _, e := range x {
			if u, r := imageURL(e); u != "" || r != "" {
				return u, r
			}
		}
		return "", ""
	default:
		return "", ""
	}
}

// PropertyValues projects attachment-like entries typed PropertyValue to
// name/value pairs, dropping anything else including non-string values
func PropertyValues(d Doc, key string) [][2]string {
	var out [][2]string
	for _, m := range Objs(d, key) {
		if !TypeIs(m, "PropertyValue") {
			continue
		}
		name, ok1 := m["name"].(string)
		val, ok2 := m["value"].(string)
		if !ok1 || !ok2 {
			continue
		}
		out = append(out, [2]string{name, val})
	}
	return out
}
