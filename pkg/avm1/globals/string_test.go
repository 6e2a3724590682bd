package globals

import (
	"math"
	"testing"

	"lantern/pkg/avm1"
)

func stringObject(t *testing.T, a *avm1.Activation, s string) avm1.Object {
	t.Helper()
	return construct(t, a, "String", avm1.Str(s))
}

func TestStringCharAt(t *testing.T) {
	_, a, _ := testVM(8)
	s := stringObject(t, a, "abc")

	wantString(t, a, call(t, a, s, "charAt", avm1.Number(1)), "b")
	wantString(t, a, call(t, a, s, "charAt", avm1.Number(5)), "")
}

func TestStringCharCodeAtOutOfRange(t *testing.T) {
	_, a, _ := testVM(8)
	s := stringObject(t, a, "abc")

	wantNumber(t, call(t, a, s, "charCodeAt", avm1.Number(0)), 97)
	if v := call(t, a, s, "charCodeAt", avm1.Number(9)); !math.IsNaN(v.AsNumberRaw()) {
		t.Fatalf("charCodeAt(9) = %v, want NaN", v.AsNumberRaw())
	}
}

func TestStringIndexOf(t *testing.T) {
	_, a, _ := testVM(8)
	s := stringObject(t, a, "abcabc")

	wantNumber(t, call(t, a, s, "indexOf", avm1.Str("b")), 1)
	wantNumber(t, call(t, a, s, "indexOf", avm1.Str("b"), avm1.Number(2)), 4)
	wantNumber(t, call(t, a, s, "lastIndexOf", avm1.Str("b")), 4)
	wantNumber(t, call(t, a, s, "indexOf", avm1.Str("z")), -1)
}

func TestStringSubstrNegativeStart(t *testing.T) {
	_, a, _ := testVM(8)
	s := stringObject(t, a, "abcdef")

	wantString(t, a, call(t, a, s, "substr", avm1.Number(-3), avm1.Number(2)), "de")
	wantString(t, a, call(t, a, s, "substr", avm1.Number(1)), "bcdef")
}

func TestStringSubstringSwapsIndices(t *testing.T) {
	_, a, _ := testVM(8)
	s := stringObject(t, a, "abcdef")

	wantString(t, a, call(t, a, s, "substring", avm1.Number(4), avm1.Number(1)), "bcd")
	wantString(t, a, call(t, a, s, "substring", avm1.Number(-2), avm1.Number(3)), "abc")
}

func TestStringSliceNegative(t *testing.T) {
	_, a, _ := testVM(8)
	s := stringObject(t, a, "abcdef")

	wantString(t, a, call(t, a, s, "slice", avm1.Number(-3)), "def")
	wantString(t, a, call(t, a, s, "slice", avm1.Number(4), avm1.Number(1)), "")
}

func TestStringSplit(t *testing.T) {
	_, a, _ := testVM(8)
	s := stringObject(t, a, "a,b,c")

	res := call(t, a, s, "split", avm1.Str(","))
	wantStrings(t, arrayStrings(t, a, res.AsObject()), []string{"a", "b", "c"})

	res = call(t, a, s, "split", avm1.Str(","), avm1.Number(2))
	wantStrings(t, arrayStrings(t, a, res.AsObject()), []string{"a", "b"})

	res = call(t, a, s, "split", avm1.Str(""))
	wantStrings(t, arrayStrings(t, a, res.AsObject()), []string{"a", ",", "b", ",", "c"})

	res = call(t, a, s, "split")
	wantStrings(t, arrayStrings(t, a, res.AsObject()), []string{"a,b,c"})
}

func TestStringFromCharCode(t *testing.T) {
	_, a, _ := testVM(8)
	ctor := global(t, a, "String").AsObject()

	wantString(t, a, call(t, a, ctor, "fromCharCode", avm1.Number(104), avm1.Number(105)), "hi")
	wantString(t, a, call(t, a, ctor, "fromCharCode", avm1.Number(104), avm1.Number(0), avm1.Number(105)), "h")
}

func TestStringCaseMapping(t *testing.T) {
	_, a, _ := testVM(8)
	s := stringObject(t, a, "AbC")

	wantString(t, a, call(t, a, s, "toLowerCase"), "abc")
	wantString(t, a, call(t, a, s, "toUpperCase"), "ABC")
}

func TestNumberToStringRadix(t *testing.T) {
	_, a, _ := testVM(8)
	n := construct(t, a, "Number", avm1.Number(255))

	wantString(t, a, call(t, a, n, "toString", avm1.Number(16)), "ff")
	wantString(t, a, call(t, a, n, "toString", avm1.Number(2)), "11111111")
	wantString(t, a, call(t, a, n, "toString"), "255")
	wantString(t, a, call(t, a, n, "toString", avm1.Number(99)), "255")
}

func TestNumberConstants(t *testing.T) {
	_, a, _ := testVM(8)
	ctor := global(t, a, "Number").AsObject()

	wantNumber(t, getProp(t, a, ctor, "MIN_VALUE"), 5e-324)
	if v := getProp(t, a, ctor, "POSITIVE_INFINITY"); !math.IsInf(v.AsNumberRaw(), 1) {
		t.Fatalf("POSITIVE_INFINITY = %v", v.AsNumberRaw())
	}
	if v := getProp(t, a, ctor, "NaN"); !math.IsNaN(v.AsNumberRaw()) {
		t.Fatalf("NaN constant = %v", v.AsNumberRaw())
	}
}

func TestBooleanValueOf(t *testing.T) {
	_, a, _ := testVM(8)
	b := construct(t, a, "Boolean", avm1.Bool(true))

	wantString(t, a, call(t, a, b, "toString"), "true")
	if v := call(t, a, b, "valueOf"); !v.AsBoolRaw() {
		t.Fatalf("valueOf = %v", v)
	}
}
