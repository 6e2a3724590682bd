// Package avm1 implements the first-generation scripting VM: a
// dynamically typed stack machine with prototype-based objects,
// case-insensitive name resolution below SWF 7, and a target-clip scope
// discipline. The interpreter consumes raw action bytes; the host feeds
// it through the player.
package avm1

import (
	"math"

	"lantern/pkg/wstr"
)

// ValueKind tags a Value.
type ValueKind uint8

const (
	KindUndefined ValueKind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindObject
)

// Value is the tagged script value. Numbers are always f64 here; the
// integer split only exists in the second VM.
type Value struct {
	kind ValueKind
	b    bool
	n    float64
	s    wstr.WStr
	o    Object
}

// Undefined and Null are the unit values.
var (
	Undefined = Value{kind: KindUndefined}
	Null      = Value{kind: KindNull}
)

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps an f64.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String wraps a runtime string.
func String(s wstr.WStr) Value { return Value{kind: KindString, s: s} }

// Str wraps a Go string; convenience for natives.
func Str(s string) Value { return Value{kind: KindString, s: wstr.FromUTF8(s)} }

// ObjectValue wraps an object handle.
func ObjectValue(o Object) Value {
	if o == nil {
		return Undefined
	}
	return Value{kind: KindObject, o: o}
}

// Kind returns the tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsUndefined reports the undefined tag.
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }

// IsNull reports the null tag.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsObject reports an object handle.
func (v Value) IsObject() bool { return v.kind == KindObject }

// IsString reports a string.
func (v Value) IsString() bool { return v.kind == KindString }

// IsNumber reports a number.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// AsObject returns the handle, nil for non-objects.
func (v Value) AsObject() Object {
	if v.kind == KindObject {
		return v.o
	}
	return nil
}

// AsString returns the string payload without coercion.
func (v Value) AsString() wstr.WStr { return v.s }

// AsNumberRaw returns the f64 payload without coercion.
func (v Value) AsNumberRaw() float64 { return v.n }

// AsBoolRaw returns the bool payload without coercion.
func (v Value) AsBoolRaw() bool { return v.b }

// TypeOf returns the typeof spelling for the value. Movie clips report
// "movieclip" rather than "object".
func (v Value) TypeOf() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		if asFunction(v.o) != nil {
			return "function"
		}
		if asStage(v.o) != nil {
			return "movieclip"
		}
		return "object"
	}
	return "undefined"
}

// CoerceToF64 converts following the legacy ToNumber rules. undefined is
// NaN from SWF 7 on but 0 before; null likewise.
func (v Value) CoerceToF64(a *Activation) float64 {
	switch v.kind {
	case KindUndefined, KindNull:
		if a.SwfVersion() >= 7 {
			return math.NaN()
		}
		return 0
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindNumber:
		return v.n
	case KindString:
		if a.SwfVersion() >= 6 {
			return v.s.ParseF64()
		}
		// Old movies parse the numeric prefix and treat failures as 0.
		f := v.s.ParsePrefixF64()
		if math.IsNaN(f) {
			return 0
		}
		return f
	case KindObject:
		prim := v.toPrimitiveNumber(a)
		if prim.kind == KindObject {
			return math.NaN()
		}
		return prim.CoerceToF64(a)
	}
	return math.NaN()
}

// toPrimitiveNumber calls valueOf when present.
func (v Value) toPrimitiveNumber(a *Activation) Value {
	if v.kind != KindObject {
		return v
	}
	result, err := CallMethod(a, v.o, wstr.FromUTF8("valueOf"), v, nil)
	if err != nil || result.kind == KindObject {
		return Undefined
	}
	return result
}

// CoerceToI32 truncates NaN-safe with wrapping, the published ToInt32.
func (v Value) CoerceToI32(a *Activation) int32 {
	return F64ToWrappedI32(v.CoerceToF64(a))
}

// CoerceToU32 is the unsigned variant.
func (v Value) CoerceToU32(a *Activation) uint32 {
	return uint32(F64ToWrappedI32(v.CoerceToF64(a)))
}

// CoerceToI16 truncates to 16 bits, used by the mb string ops.
func (v Value) CoerceToI16(a *Activation) int16 {
	return int16(F64ToWrappedI32(v.CoerceToF64(a)))
}

// F64ToWrappedI32 implements the ECMA ToInt32 wrap: NaN and infinities
// collapse to 0, everything else truncates modulo 2^32.
func F64ToWrappedI32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	t := math.Trunc(f)
	r := math.Mod(t, 4294967296.0)
	if r >= 2147483648.0 {
		r -= 4294967296.0
	} else if r < -2147483648.0 {
		r += 4294967296.0
	}
	return int32(r)
}

// CoerceToBool converts following the version-gated rules: below SWF 7 a
// string is true only when it parses to a non-zero number.
func (v Value) CoerceToBool(a *Activation) bool {
	switch v.kind {
	case KindUndefined, KindNull:
		return false
	case KindBool:
		return v.b
	case KindNumber:
		return v.n != 0 && !math.IsNaN(v.n)
	case KindString:
		if a.SwfVersion() >= 7 {
			return !v.s.IsEmpty()
		}
		f := v.s.ParseF64()
		return f != 0 && !math.IsNaN(f)
	case KindObject:
		return true
	}
	return false
}

// CoerceToString converts to a runtime string, invoking toString on
// objects. Failures fall back to the type tag spellings.
func (v Value) CoerceToString(a *Activation) wstr.WStr {
	switch v.kind {
	case KindUndefined:
		if a.SwfVersion() >= 7 {
			return wstr.FromUTF8("undefined")
		}
		// SWF 6 and below coerce undefined to the empty string.
		return wstr.Empty
	case KindNull:
		return wstr.FromUTF8("null")
	case KindBool:
		if v.b {
			return wstr.FromUTF8("true")
		}
		return wstr.FromUTF8("false")
	case KindNumber:
		return wstr.F64ToString(v.n)
	case KindString:
		return v.s
	case KindObject:
		if stage := asStage(v.o); stage != nil {
			return wstr.FromUTF8(stage.TargetPath())
		}
		result, err := CallMethod(a, v.o, wstr.FromUTF8("toString"), v, nil)
		if err == nil && result.kind == KindString {
			return result.s
		}
		if asFunction(v.o) != nil {
			return wstr.FromUTF8("[type Function]")
		}
		return wstr.FromUTF8("[type Object]")
	}
	return wstr.Empty
}

// CoerceToObject boxes primitives in their wrapper classes. undefined
// and null coerce to undefined-backed value objects the way the original
// VM did (no error in this VM generation).
func (v Value) CoerceToObject(a *Activation) Object {
	switch v.kind {
	case KindObject:
		return v.o
	case KindString:
		return a.Avm().boxPrimitive(a, v, "String")
	case KindNumber:
		return a.Avm().boxPrimitive(a, v, "Number")
	case KindBool:
		return a.Avm().boxPrimitive(a, v, "Boolean")
	}
	return a.Avm().boxPrimitive(a, Undefined, "Object")
}

// AbstractEquals implements the legacy == algorithm, including the
// case-insensitive string comparison below SWF 7.
func AbstractEquals(a *Activation, left, right Value) bool {
	if left.kind == right.kind {
		switch left.kind {
		case KindUndefined, KindNull:
			return true
		case KindBool:
			return left.b == right.b
		case KindNumber:
			return left.n == right.n
		case KindString:
			if a.SwfVersion() < 7 {
				return left.s.EqIgnoreCase(right.s)
			}
			return left.s.Eq(right.s)
		case KindObject:
			return left.o == right.o
		}
	}
	// undefined == null both ways.
	if (left.kind == KindUndefined && right.kind == KindNull) ||
		(left.kind == KindNull && right.kind == KindUndefined) {
		return true
	}
	// Mixed comparisons go through numbers, with object-to-primitive on
	// one side at a time.
	switch {
	case left.kind == KindObject && right.kind != KindObject && right.kind != KindUndefined && right.kind != KindNull:
		return AbstractEquals(a, left.toPrimitiveNumber(a), right)
	case right.kind == KindObject && left.kind != KindObject && left.kind != KindUndefined && left.kind != KindNull:
		return AbstractEquals(a, left, right.toPrimitiveNumber(a))
	case left.kind == KindObject || right.kind == KindObject:
		return false
	}
	ln := left.CoerceToF64(a)
	rn := right.CoerceToF64(a)
	return ln == rn
}

// StrictEquals compares without coercion.
func StrictEquals(left, right Value) bool {
	if left.kind != right.kind {
		return false
	}
	switch left.kind {
	case KindUndefined, KindNull:
		return true
	case KindBool:
		return left.b == right.b
	case KindNumber:
		return left.n == right.n
	case KindString:
		return left.s.Eq(right.s)
	case KindObject:
		return left.o == right.o
	}
	return false
}

// AbstractLess implements the < algorithm for Less2/Greater.
// Returns undefined when either side is NaN.
func AbstractLess(a *Activation, left, right Value) Value {
	lp := left
	rp := right
	if lp.kind == KindObject {
		lp = lp.toPrimitiveNumber(a)
	}
	if rp.kind == KindObject {
		rp = rp.toPrimitiveNumber(a)
	}
	if lp.kind == KindString && rp.kind == KindString {
		return Bool(lp.s.Compare(rp.s) < 0)
	}
	ln := lp.CoerceToF64(a)
	rn := rp.CoerceToF64(a)
	if math.IsNaN(ln) || math.IsNaN(rn) {
		return Undefined
	}
	return Bool(ln < rn)
}
