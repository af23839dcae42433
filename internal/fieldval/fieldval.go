// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package fieldval classifies the heterogeneous values found in listing
// custom fields into a small tagged variant before any extraction logic
// touches them. Custom-field values arrive as bare scalars, arrays of
// strings, arrays of objects, nested objects, or JSON-encoded strings of
// any of the above; decoding them once up front keeps shape-guessing out
// of the presentation and entitlement code.
package fieldval

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind identifies the decoded shape of a custom-field value.
type Kind int

const (
	// Absent means nil, empty, or an undecodable shape.
	Absent Kind = iota
	// Scalar is a single string, number, or boolean.
	Scalar
	// List is an ordered sequence of values.
	List
	// Object is a string-keyed map of values.
	Object
)

// urlKeys are the conventional keys under which embedded objects carry a
// file location, in lookup order.
var urlKeys = [...]string{"url", "src", "path"}

// Value is one decoded custom-field value.
type Value struct {
	Kind  Kind
	Str   string           // scalar rendering, set when Kind == Scalar
	Items []Value          // set when Kind == List
	Props map[string]Value // set when Kind == Object
}

// Decode classifies an arbitrary custom-field value. Strings that are
// themselves JSON-encoded arrays or objects are parsed and decoded as the
// nested shape; strings that merely look like JSON but fail to parse stay
// scalars. Decode never panics regardless of input.
func Decode(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Value{Kind: Absent}
	case string:
		return decodeString(v)
	case bool:
		return Value{Kind: Scalar, Str: strconv.FormatBool(v)}
	case float64:
		return Value{Kind: Scalar, Str: formatNumber(v)}
	case int:
		return Value{Kind: Scalar, Str: strconv.Itoa(v)}
	case int64:
		return Value{Kind: Scalar, Str: strconv.FormatInt(v, 10)}
	case json.Number:
		return Value{Kind: Scalar, Str: v.String()}
	case []any:
		return decodeList(v)
	case []string:
		items := make([]Value, 0, len(v))
		for _, s := range v {
			items = append(items, decodeString(s))
		}
		return Value{Kind: List, Items: items}
	case map[string]any:
		return decodeObject(v)
	default:
		return Value{Kind: Absent}
	}
}

func decodeString(s string) Value {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Value{Kind: Absent}
	}

	// A string starting with a JSON container delimiter is probably a
	// JSON-encoded array or object; decode the nested shape when it
	// parses, otherwise keep the raw string.
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		var nested any
		if err := json.Unmarshal([]byte(trimmed), &nested); err == nil {
			return Decode(nested)
		}
	}

	return Value{Kind: Scalar, Str: s}
}

func decodeList(raw []any) Value {
	items := make([]Value, 0, len(raw))
	for _, el := range raw {
		items = append(items, Decode(el))
	}
	return Value{Kind: List, Items: items}
}

func decodeObject(raw map[string]any) Value {
	props := make(map[string]Value, len(raw))
	for k, v := range raw {
		props[k] = Decode(v)
	}
	return Value{Kind: Object, Props: props}
}

// formatNumber renders a float the way JSON numbers read: integers
// without a decimal point, everything else in the shortest form.
func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// IsAbsent reports whether the value decoded to nothing usable.
func (v Value) IsAbsent() bool {
	return v.Kind == Absent
}

// ScalarString returns the scalar rendering and whether one exists.
func (v Value) ScalarString() (string, bool) {
	if v.Kind != Scalar {
		return "", false
	}
	return v.Str, true
}

// Location extracts a file location from the value: the scalar itself,
// or the first of the conventional url/src/path keys on an object.
// List values have no single location; use Items and recurse.
func (v Value) Location() (string, bool) {
	switch v.Kind {
	case Scalar:
		return v.Str, true
	case Object:
		for _, key := range urlKeys {
			if p, ok := v.Props[key]; ok {
				if s, ok := p.ScalarString(); ok && s != "" {
					return s, true
				}
			}
		}
	}
	return "", false
}

// Locations extracts every file location reachable from the value: the
// scalar itself, the object's conventional key, or one location per list
// element. Order follows the input.
func (v Value) Locations() []string {
	switch v.Kind {
	case Scalar, Object:
		if loc, ok := v.Location(); ok {
			return []string{loc}
		}
	case List:
		var out []string
		for _, item := range v.Items {
			if loc, ok := item.Location(); ok {
				out = append(out, loc)
			}
		}
		return out
	}
	return nil
}
