package avm2

import (
	"math"
	"testing"
)

func TestF64ToWrappedI32(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int32
	}{
		{"zero", 0, 0},
		{"nan", math.NaN(), 0},
		{"posInf", math.Inf(1), 0},
		{"negInf", math.Inf(-1), 0},
		{"truncates", 3.9, 3},
		{"negTruncates", -3.9, -3},
		{"wraps", 4294967296 + 5, 5},
		{"wrapsNegative", 2147483648, -2147483648},
		{"maxI32", 2147483647, 2147483647},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := F64ToWrappedI32(tt.in); got != tt.want {
				t.Fatalf("F64ToWrappedI32(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestCoerceToBoolean(t *testing.T) {
	_, a := testVM()
	obj := NewScriptObject(a, nil, Null)

	tests := []struct {
		name string
		in   Value
		want bool
	}{
		{"undefined", Undefined, false},
		{"null", Null, false},
		{"zero", Number(0), false},
		{"nan", Number(math.NaN()), false},
		{"nonzero", Number(0.5), true},
		{"emptyString", Str(""), false},
		{"string", Str("0"), true},
		{"object", ObjectValue(obj), true},
		{"intZero", Integer(0), false},
		{"uint", Unsigned(7), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.CoerceToBoolean(); got != tt.want {
				t.Fatalf("CoerceToBoolean = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCoerceToString(t *testing.T) {
	_, a := testVM()
	tests := []struct {
		name string
		in   Value
		want string
	}{
		{"undefined", Undefined, "undefined"},
		{"null", Null, "null"},
		{"true", Bool(true), "true"},
		{"int", Integer(-7), "-7"},
		{"number", Number(1.5), "1.5"},
		{"negZero", Number(math.Copysign(0, -1)), "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.in.CoerceToString(a)
			if err != nil {
				t.Fatalf("CoerceToString: %v", err)
			}
			if s.ToUTF8() != tt.want {
				t.Fatalf("CoerceToString = %q, want %q", s.ToUTF8(), tt.want)
			}
		})
	}
}

func TestStrictEquals(t *testing.T) {
	_, a := testVM()
	o1 := NewScriptObject(a, nil, Null)
	o2 := NewScriptObject(a, nil, Null)

	tests := []struct {
		name  string
		left  Value
		right Value
		want  bool
	}{
		{"intVsNumber", Integer(3), Number(3), true},
		{"uintVsInt", Unsigned(5), Integer(5), true},
		{"nan", Number(math.NaN()), Number(math.NaN()), false},
		{"undefinedNull", Undefined, Null, false},
		{"sameObject", ObjectValue(o1), ObjectValue(o1), true},
		{"differentObjects", ObjectValue(o1), ObjectValue(o2), false},
		{"strings", Str("ab"), Str("ab"), true},
		{"stringVsNumber", Str("3"), Number(3), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StrictEquals(tt.left, tt.right); got != tt.want {
				t.Fatalf("StrictEquals = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDictionaryObjectKeys(t *testing.T) {
	_, a := testVM()
	d := NewDictionaryObject(a, nil, Null)
	k1 := NewScriptObject(a, nil, Null)
	k2 := NewScriptObject(a, nil, Null)

	d.SetKeyed(ObjectValue(k1), Str("one"))
	d.SetKeyed(ObjectValue(k2), Str("two"))
	d.SetKeyed(Number(3), Str("three"))

	if v := d.GetKeyed(ObjectValue(k1)); v.AsString().ToUTF8() != "one" {
		t.Fatalf("object key lookup = %v", v)
	}
	// Numeric keys compare by value regardless of representation.
	if v := d.GetKeyed(Integer(3)); v.AsString().ToUTF8() != "three" {
		t.Fatalf("numeric key lookup = %v", v)
	}
	if !d.DeleteKeyed(ObjectValue(k2)) {
		t.Fatal("DeleteKeyed missed a live key")
	}
	if d.Data().Has(ObjectValue(k2)) {
		t.Fatal("key survived delete")
	}
	if d.Data().Len() != 2 {
		t.Fatalf("Len = %d, want 2", d.Data().Len())
	}
}
