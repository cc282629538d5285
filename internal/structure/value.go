// Package structure models the loosely-keyed nested descriptions that the
// normalizer consumes. Input entries are sometimes scalars, sometimes nested
// maps and sometimes metadata wrappers, so values carry an explicit kind tag
// and map entries preserve the order in which they were written.
package structure

import (
	"fmt"
	"strconv"
)

// Kind discriminates the three shapes a raw value can take.
type Kind int

const (
	KindScalar Kind = iota
	KindMap
)

// Key is either an integer (positional or explicit ID request) or a string
// (explicit name request, or a named property inside an entity map).
type Key struct {
	IsInt bool
	Int   int
	Str   string
}

// IntKey returns an integer key.
func IntKey(i int) Key { return Key{IsInt: true, Int: i} }

// StrKey returns a string key.
func StrKey(s string) Key { return Key{Str: s} }

// String renders the key the way it appeared in the input, for error messages.
func (k Key) String() string {
	if k.IsInt {
		return strconv.Itoa(k.Int)
	}
	return k.Str
}

// Entry is one ordered key/value pair of a map value.
type Entry struct {
	Key   Key
	Value *Value
}

// Value is the tagged union for raw description data. A scalar holds the
// decoded Go value (string, float64, bool or nil); a map holds its entries in
// input order. JSON arrays decode as maps keyed 0..n-1.
type Value struct {
	Kind    Kind
	Scalar  any
	Entries []Entry
}

// Scalar wraps a plain value.
func Scalar(v any) *Value { return &Value{Kind: KindScalar, Scalar: v} }

// Map builds a map value from ordered entries.
func Map(entries ...Entry) *Value {
	return &Value{Kind: KindMap, Entries: entries}
}

// List builds a map value with sequential integer keys, mirroring how a JSON
// array decodes.
func List(values ...*Value) *Value {
	entries := make([]Entry, len(values))
	for i, v := range values {
		entries[i] = Entry{Key: IntKey(i), Value: v}
	}
	return &Value{Kind: KindMap, Entries: entries}
}

// Pair builds one map entry with a string key.
func Pair(key string, value *Value) Entry {
	return Entry{Key: StrKey(key), Value: value}
}

// KeyedPair builds one map entry with an integer key.
func KeyedPair(key int, value *Value) Entry {
	return Entry{Key: IntKey(key), Value: value}
}

// Get returns the value for the first entry with the given string key.
func (v *Value) Get(key string) (*Value, bool) {
	if v == nil || v.Kind != KindMap {
		return nil, false
	}
	for _, e := range v.Entries {
		if !e.Key.IsInt && e.Key.Str == key {
			return e.Value, true
		}
	}
	return nil, false
}

// IsScalar reports whether the value is a plain scalar.
func (v *Value) IsScalar() bool { return v == nil || v.Kind == KindScalar }

// ScalarString renders a scalar value for error messages.
func (v *Value) ScalarString() string {
	if v == nil {
		return "<nil>"
	}
	if v.Kind != KindScalar {
		return "<compound>"
	}
	return fmt.Sprintf("%v", v.Scalar)
}

// AsString returns the scalar as a string when it really is one.
func (v *Value) AsString() (string, bool) {
	if v == nil || v.Kind != KindScalar {
		return "", false
	}
	s, ok := v.Scalar.(string)
	return s, ok
}

// AsInt returns the scalar as an integer. Strings holding an integer and
// whole floats qualify; anything else does not.
func (v *Value) AsInt() (int, bool) {
	if v == nil || v.Kind != KindScalar {
		return 0, false
	}
	switch s := v.Scalar.(type) {
	case float64:
		if s == float64(int(s)) {
			return int(s), true
		}
	case int:
		return s, true
	case string:
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
	}
	return 0, false
}

// AsFloat returns the scalar as a float. Numbers and numeric strings
// qualify.
func (v *Value) AsFloat() (float64, bool) {
	if v == nil || v.Kind != KindScalar {
		return 0, false
	}
	switch s := v.Scalar.(type) {
	case float64:
		return s, true
	case int:
		return float64(s), true
	case string:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// Unwrap strips a pagination envelope: a map holding a "data" key whose value
// is a map, next to nothing but the recognised metadata keys. Any other value
// is returned unchanged.
func (v *Value) Unwrap() *Value {
	if v == nil || v.Kind != KindMap {
		return v
	}
	data, ok := v.Get("data")
	if !ok || data == nil || data.Kind != KindMap {
		return v
	}
	for _, e := range v.Entries {
		if e.Key.IsInt {
			return v
		}
		switch e.Key.Str {
		case "data", "start", "limit", "count", "total":
		default:
			return v
		}
	}
	return data
}
