// Package avm2 implements the second-generation scripting VM: a
// class-based stack machine over verified bytecode, with multiname
// property resolution, typed traits on vtables, and a domain chain for
// global definitions. The interpreter consumes method bodies parsed by
// pkg/abc; the host feeds it through the player.
package avm2

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
	KindInt
	KindUint
	KindNumber
	KindString
	KindObject
)

// Value is the tagged script value. Unlike the first VM this one keeps
// the int/uint representations distinct from f64: the coercion opcodes
// move values between the three numeric kinds explicitly.
type Value struct {
	kind ValueKind
	b    bool
	i    int32
	u    uint32
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

// Integer wraps an i32.
func Integer(i int32) Value { return Value{kind: KindInt, i: i} }

// Unsigned wraps a u32.
func Unsigned(u uint32) Value { return Value{kind: KindUint, u: u} }

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

// IsNullish reports either unit value.
func (v Value) IsNullish() bool { return v.kind == KindUndefined || v.kind == KindNull }

// IsObject reports an object handle.
func (v Value) IsObject() bool { return v.kind == KindObject }

// IsString reports a string.
func (v Value) IsString() bool { return v.kind == KindString }

// IsNumeric reports any of the three numeric kinds.
func (v Value) IsNumeric() bool {
	return v.kind == KindInt || v.kind == KindUint || v.kind == KindNumber
}

// AsObject returns the handle, nil for non-objects.
func (v Value) AsObject() Object {
	if v.kind == KindObject {
		return v.o
	}
	return nil
}

// AsString returns the string payload without coercion.
func (v Value) AsString() wstr.WStr { return v.s }

// AsNumberRaw returns the numeric payload widened to f64 without
// coercion; zero for non-numerics.
func (v Value) AsNumberRaw() float64 {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindUint:
		return float64(v.u)
	case KindNumber:
		return v.n
	}
	return 0
}

// AsBoolRaw returns the bool payload without coercion.
func (v Value) AsBoolRaw() bool { return v.b }

// TypeOf returns the typeof spelling. The published quirk of reporting
// xml for both XML and XMLList is preserved.
func (v Value) TypeOf() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "object"
	case KindBool:
		return "boolean"
	case KindInt, KindUint, KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		if fn := asFunction(v.o); fn != nil {
			return "function"
		}
		if data := v.o.NativeData(); data != nil {
			switch data.(type) {
			case *XMLData, *XMLListData:
				return "xml"
			}
		}
		return "object"
	}
	return "undefined"
}

// CoerceToBoolean converts with the published ToBoolean rules. This one
// never calls script, so it cannot fail.
func (v Value) CoerceToBoolean() bool {
	switch v.kind {
	case KindUndefined, KindNull:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindUint:
		return v.u != 0
	case KindNumber:
		return v.n != 0 && !math.IsNaN(v.n)
	case KindString:
		return !v.s.IsEmpty()
	case KindObject:
		return true
	}
	return false
}

// CoerceToNumber converts with ToNumber. Objects go through the
// primitive protocol, which may run script and therefore throw.
func (v Value) CoerceToNumber(a *Activation) (float64, error) {
	switch v.kind {
	case KindUndefined:
		return math.NaN(), nil
	case KindNull:
		return 0, nil
	case KindBool:
		if v.b {
			return 1, nil
		}
		return 0, nil
	case KindInt:
		return float64(v.i), nil
	case KindUint:
		return float64(v.u), nil
	case KindNumber:
		return v.n, nil
	case KindString:
		return v.s.ParseF64(), nil
	case KindObject:
		prim, err := v.CoerceToPrimitive(a, hintNumber)
		if err != nil {
			return 0, err
		}
		return prim.CoerceToNumber(a)
	}
	return math.NaN(), nil
}

// CoerceToI32 converts with ToInt32 wrapping.
func (v Value) CoerceToI32(a *Activation) (int32, error) {
	switch v.kind {
	case KindInt:
		return v.i, nil
	case KindUint:
		return int32(v.u), nil
	}
	f, err := v.CoerceToNumber(a)
	if err != nil {
		return 0, err
	}
	return F64ToWrappedI32(f), nil
}

// CoerceToU32 converts with ToUint32 wrapping.
func (v Value) CoerceToU32(a *Activation) (uint32, error) {
	switch v.kind {
	case KindInt:
		return uint32(v.i), nil
	case KindUint:
		return v.u, nil
	}
	f, err := v.CoerceToNumber(a)
	if err != nil {
		return 0, err
	}
	return uint32(F64ToWrappedI32(f)), nil
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

// CoerceToString converts with ToString, running toString on objects.
func (v Value) CoerceToString(a *Activation) (wstr.WStr, error) {
	switch v.kind {
	case KindUndefined:
		return wstr.FromUTF8("undefined"), nil
	case KindNull:
		return wstr.FromUTF8("null"), nil
	case KindBool:
		if v.b {
			return wstr.FromUTF8("true"), nil
		}
		return wstr.FromUTF8("false"), nil
	case KindInt:
		return wstr.I32ToString(v.i), nil
	case KindUint:
		return wstr.U32ToString(v.u), nil
	case KindNumber:
		return wstr.F64ToString(v.n), nil
	case KindString:
		return v.s, nil
	case KindObject:
		prim, err := v.CoerceToPrimitive(a, hintString)
		if err != nil {
			return wstr.Empty, err
		}
		if prim.kind == KindObject {
			return wstr.FromUTF8("[object Object]"), nil
		}
		return prim.CoerceToString(a)
	}
	return wstr.Empty, nil
}

// CoerceToUTF8 is CoerceToString narrowed to a Go string, used where
// the runtime keys tables by UTF-8 names.
func (v Value) CoerceToUTF8(a *Activation) (string, error) {
	s, err := v.CoerceToString(a)
	if err != nil {
		return "", err
	}
	return s.ToUTF8(), nil
}

type primitiveHint uint8

const (
	hintNumber primitiveHint = iota
	hintString
)

// CoerceToPrimitive runs the DefaultValue protocol on objects: valueOf
// then toString for the number hint, the reverse for the string hint. A
// Date prefers the string hint, matching the published rules.
func (v Value) CoerceToPrimitive(a *Activation, hint primitiveHint) (Value, error) {
	if v.kind != KindObject {
		return v, nil
	}
	order := []string{"valueOf", "toString"}
	if hint == hintString {
		order = []string{"toString", "valueOf"}
	}
	for _, name := range order {
		result, err := CallProperty(a, v.o, PublicName(name), nil)
		if err != nil {
			return Undefined, err
		}
		if result.kind != KindObject {
			return result, nil
		}
	}
	return Undefined, typeError("cannot convert object to primitive")
}

// CoerceToObject boxes primitives in their wrapper classes and rejects
// the unit values with the published TypeError.
func (v Value) CoerceToObject(a *Activation) (Object, error) {
	switch v.kind {
	case KindObject:
		return v.o, nil
	case KindUndefined:
		return nil, typeError("cannot convert undefined to an object")
	case KindNull:
		return nil, typeError("cannot convert null to an object")
	}
	return a.Avm().boxPrimitive(a, v)
}

// AbstractEquals implements the published == algorithm across the
// seven kinds, including the numeric-kind cross products.
func AbstractEquals(a *Activation, left, right Value) (bool, error) {
	if left.IsNumeric() && right.IsNumeric() {
		return left.AsNumberRaw() == right.AsNumberRaw(), nil
	}
	if left.kind == right.kind {
		switch left.kind {
		case KindUndefined, KindNull:
			return true, nil
		case KindBool:
			return left.b == right.b, nil
		case KindString:
			return left.s.Eq(right.s), nil
		case KindObject:
			return left.o == right.o, nil
		}
	}
	if left.IsNullish() && right.IsNullish() {
		return true, nil
	}
	if left.IsNullish() || right.IsNullish() {
		return false, nil
	}
	switch {
	case left.kind == KindObject && right.kind != KindObject:
		prim, err := left.CoerceToPrimitive(a, hintNumber)
		if err != nil {
			return false, err
		}
		return AbstractEquals(a, prim, right)
	case right.kind == KindObject && left.kind != KindObject:
		prim, err := right.CoerceToPrimitive(a, hintNumber)
		if err != nil {
			return false, err
		}
		return AbstractEquals(a, left, prim)
	}
	ln, err := left.CoerceToNumber(a)
	if err != nil {
		return false, err
	}
	rn, err := right.CoerceToNumber(a)
	if err != nil {
		return false, err
	}
	return ln == rn, nil
}

// StrictEquals compares without coercion, except that the three numeric
// kinds compare by value.
func StrictEquals(left, right Value) bool {
	if left.IsNumeric() && right.IsNumeric() {
		return left.AsNumberRaw() == right.AsNumberRaw()
	}
	if left.kind != right.kind {
		return false
	}
	switch left.kind {
	case KindUndefined, KindNull:
		return true
	case KindBool:
		return left.b == right.b
	case KindString:
		return left.s.Eq(right.s)
	case KindObject:
		return left.o == right.o
	}
	return false
}

// AbstractLess implements the < algorithm; the bool result is
// meaningless when either side is NaN, which the second return reports.
func AbstractLess(a *Activation, left, right Value) (less, defined bool, err error) {
	lp, err := left.CoerceToPrimitive(a, hintNumber)
	if err != nil {
		return false, false, err
	}
	rp, err := right.CoerceToPrimitive(a, hintNumber)
	if err != nil {
		return false, false, err
	}
	if lp.kind == KindString && rp.kind == KindString {
		return lp.s.Compare(rp.s) < 0, true, nil
	}
	ln, err := lp.CoerceToNumber(a)
	if err != nil {
		return false, false, err
	}
	rn, err := rp.CoerceToNumber(a)
	if err != nil {
		return false, false, err
	}
	if math.IsNaN(ln) || math.IsNaN(rn) {
		return false, false, nil
	}
	return ln < rn, true, nil
}
