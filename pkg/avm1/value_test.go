package avm1

import (
	"math"
	"testing"
)

func TestUndefinedCoercionTracksVersion(t *testing.T) {
	_, a6, _ := testVM(6)
	_, a7, _ := testVM(7)

	if got := Undefined.CoerceToF64(a6); got != 0 {
		t.Errorf("v6 number(undefined) = %v, want 0", got)
	}
	if got := Undefined.CoerceToF64(a7); !math.IsNaN(got) {
		t.Errorf("v7 number(undefined) = %v, want NaN", got)
	}
	if got := Undefined.CoerceToString(a6).ToUTF8(); got != "" {
		t.Errorf("v6 string(undefined) = %q, want empty", got)
	}
	if got := Undefined.CoerceToString(a7).ToUTF8(); got != "undefined" {
		t.Errorf("v7 string(undefined) = %q, want undefined", got)
	}
}

func TestStringToBoolTracksVersion(t *testing.T) {
	_, a6, _ := testVM(6)
	_, a7, _ := testVM(7)

	// Before version 7 a string is true when it parses to a nonzero
	// number; from version 7 any nonempty string is true.
	tests := []struct {
		s      string
		v6, v7 bool
	}{
		{"1", true, true},
		{"0", false, true},
		{"banana", false, true},
		{"", false, false},
	}
	for _, tt := range tests {
		if got := Str(tt.s).CoerceToBool(a6); got != tt.v6 {
			t.Errorf("v6 bool(%q) = %v, want %v", tt.s, got, tt.v6)
		}
		if got := Str(tt.s).CoerceToBool(a7); got != tt.v7 {
			t.Errorf("v7 bool(%q) = %v, want %v", tt.s, got, tt.v7)
		}
	}
}

func TestAbstractEquals(t *testing.T) {
	_, a6, _ := testVM(6)
	_, a7, _ := testVM(7)

	if !AbstractEquals(a6, Str("ABC"), Str("abc")) {
		t.Error("v6 string equality should fold case")
	}
	if AbstractEquals(a7, Str("ABC"), Str("abc")) {
		t.Error("v7 string equality must not fold case")
	}
	if !AbstractEquals(a7, Undefined, Null) {
		t.Error("undefined == null")
	}
	if !AbstractEquals(a7, Number(1), Str("1")) {
		t.Error("1 == \"1\"")
	}
	if AbstractEquals(a7, Number(math.NaN()), Number(math.NaN())) {
		t.Error("NaN must not equal itself")
	}
}

func TestStrictEquals(t *testing.T) {
	if StrictEquals(Number(1), Str("1")) {
		t.Error("strict equality must not coerce")
	}
	if !StrictEquals(Str("x"), Str("x")) {
		t.Error("identical strings are strictly equal")
	}
	if !StrictEquals(Undefined, Undefined) {
		t.Error("undefined === undefined")
	}
	if StrictEquals(Undefined, Null) {
		t.Error("undefined !== null")
	}
}

func TestAbstractLessNaN(t *testing.T) {
	_, a, _ := testVM(7)
	if got := AbstractLess(a, Number(math.NaN()), Number(1)); !got.IsUndefined() {
		t.Errorf("NaN comparison = %v, want undefined", got)
	}
	if got := AbstractLess(a, Number(1), Number(2)); !got.AsBoolRaw() {
		t.Error("1 < 2")
	}
}

func TestWrappedI32Coercion(t *testing.T) {
	tests := []struct {
		in   float64
		want int32
	}{
		{0, 0},
		{3.9, 3},
		{-3.9, -3},
		{math.NaN(), 0},
		{math.Inf(1), 0},
		{4294967296, 0},
		{4294967297, 1},
		{2147483648, -2147483648},
	}
	for _, tt := range tests {
		if got := F64ToWrappedI32(tt.in); got != tt.want {
			t.Errorf("i32(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTypeOf(t *testing.T) {
	_, a, _ := testVM(7)
	obj := NewScriptObject(a, ObjectValue(a.Avm().ProtoFor().Object))
	fn := NewNativeFunction(a, "f", func(a *Activation, this Object, args []Value) (Value, error) {
		return Undefined, nil
	})
	tests := []struct {
		v    Value
		want string
	}{
		{Undefined, "undefined"},
		{Null, "null"},
		{Bool(true), "boolean"},
		{Number(1), "number"},
		{Str("x"), "string"},
		{ObjectValue(obj), "object"},
		{ObjectValue(fn), "function"},
	}
	for _, tt := range tests {
		if got := tt.v.TypeOf(); got != tt.want {
			t.Errorf("typeof = %q, want %q", got, tt.want)
		}
	}
}
