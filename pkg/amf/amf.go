// Package amf implements the AMF0 serialization used for persisted
// shared objects and the external-interface value bridge. The value tree
// is language neutral: null, undefined, bool, f64, string, ordered map,
// list, and date. Round-trip fidelity is the contract: decode(encode(v))
// preserves v with no normalization, because existing stored blobs must
// read back byte-exact.
package amf

import (
	"fmt"
	"sort"
)

// Kind tags a Value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindList
	KindObject
	KindDate
)

// Value is one node of the neutral value tree.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	list []Value
	obj  map[string]Value
	keys []string // insertion order for obj
}

// Undefined and Null are the unit values.
var (
	Undefined = Value{kind: KindUndefined}
	Null      = Value{kind: KindNull}
)

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a float64.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Date wraps an epoch-milliseconds timestamp.
func Date(epochMs float64) Value { return Value{kind: KindDate, n: epochMs} }

// List wraps a slice. The slice is retained, not copied.
func List(items []Value) Value { return Value{kind: KindList, list: items} }

// NewObject returns an empty ordered map value.
func NewObject() Value {
	return Value{kind: KindObject, obj: map[string]Value{}}
}

// Kind returns the tag.
func (v Value) Kind() Kind { return v.kind }

// AsBool returns the boolean payload.
func (v Value) AsBool() bool { return v.b }

// AsNumber returns the numeric payload (also the date epoch).
func (v Value) AsNumber() float64 { return v.n }

// AsString returns the string payload.
func (v Value) AsString() string { return v.s }

// AsList returns the list payload.
func (v Value) AsList() []Value { return v.list }

// Keys returns object keys in insertion order.
func (v Value) Keys() []string { return v.keys }

// Get reads an object member.
func (v Value) Get(key string) (Value, bool) {
	got, ok := v.obj[key]
	return got, ok
}

// Set writes an object member, preserving first-insertion order.
func (v *Value) Set(key string, member Value) {
	if v.kind != KindObject {
		panic("amf: Set on non-object value")
	}
	if _, ok := v.obj[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.obj[key] = member
}

// Equal compares two trees structurally. NaN equals NaN here; the caller
// is asking "did the round trip preserve it", not ECMA equality.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindUndefined, KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber, KindDate:
		return v.n == other.n || (v.n != v.n && other.n != other.n)
	case KindString:
		return v.s == other.s
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.obj) != len(other.obj) {
			return false
		}
		for key, member := range v.obj {
			got, ok := other.obj[key]
			if !ok || !member.Equal(got) {
				return false
			}
		}
		return true
	}
	return false
}

func (v Value) String() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%v", v.b)
	case KindNumber:
		return fmt.Sprintf("%v", v.n)
	case KindDate:
		return fmt.Sprintf("date(%v)", v.n)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindList:
		return fmt.Sprintf("list(%d)", len(v.list))
	case KindObject:
		keys := append([]string(nil), v.keys...)
		sort.Strings(keys)
		return fmt.Sprintf("object%v", keys)
	}
	return "?"
}
