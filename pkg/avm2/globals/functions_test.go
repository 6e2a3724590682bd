package globals

import (
	"math"
	"reflect"
	"testing"
	"time"

	"lantern/pkg/avm2"
)

func TestTraceGoesToHostLog(t *testing.T) {
	_, a, env := testVM()
	callGlobal(t, a, "trace", avm2.Str("hello"), avm2.Integer(42))
	if !reflect.DeepEqual(env.log.Traces, []string{"hello 42"}) {
		t.Fatalf("traces %v", env.log.Traces)
	}
}

func TestParseInt(t *testing.T) {
	_, a, _ := testVM()
	tests := []struct {
		name string
		args []avm2.Value
		want float64
	}{
		{"decimal", []avm2.Value{avm2.Str("42")}, 42},
		{"whitespace", []avm2.Value{avm2.Str("  42")}, 42},
		{"negative", []avm2.Value{avm2.Str("-7")}, -7},
		{"hexPrefix", []avm2.Value{avm2.Str("0x1f")}, 31},
		{"radix", []avm2.Value{avm2.Str("ff"), avm2.Integer(16)}, 255},
		{"binary", []avm2.Value{avm2.Str("101"), avm2.Integer(2)}, 5},
		{"trailingGarbage", []avm2.Value{avm2.Str("12ab")}, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := callGlobal(t, a, "parseInt", tt.args...)
			n, err := out.CoerceToNumber(a)
			if err != nil {
				t.Fatalf("coerce: %v", err)
			}
			if n != tt.want {
				t.Fatalf("parseInt = %v, want %v", n, tt.want)
			}
		})
	}

	out := callGlobal(t, a, "parseInt", avm2.Str("zz"))
	if n, _ := out.CoerceToNumber(a); !math.IsNaN(n) {
		t.Fatalf("parseInt(zz) = %v, want NaN", n)
	}
}

func TestParseFloat(t *testing.T) {
	_, a, _ := testVM()
	out := callGlobal(t, a, "parseFloat", avm2.Str("3.25abc"))
	if n, _ := out.CoerceToNumber(a); n != 3.25 {
		t.Fatalf("parseFloat = %v", n)
	}
	out = callGlobal(t, a, "parseFloat", avm2.Str("x"))
	if n, _ := out.CoerceToNumber(a); !math.IsNaN(n) {
		t.Fatalf("parseFloat(x) = %v, want NaN", n)
	}
}

func TestIsNaNIsFinite(t *testing.T) {
	_, a, _ := testVM()
	if !callGlobal(t, a, "isNaN", avm2.Number(math.NaN())).CoerceToBoolean() {
		t.Fatal("isNaN(NaN) = false")
	}
	if callGlobal(t, a, "isNaN", avm2.Integer(1)).CoerceToBoolean() {
		t.Fatal("isNaN(1) = true")
	}
	if callGlobal(t, a, "isFinite", avm2.Number(math.Inf(1))).CoerceToBoolean() {
		t.Fatal("isFinite(Infinity) = true")
	}
	if !callGlobal(t, a, "isFinite", avm2.Number(0)).CoerceToBoolean() {
		t.Fatal("isFinite(0) = false")
	}
}

func TestEscapeUnescape(t *testing.T) {
	_, a, _ := testVM()
	tests := []struct {
		in   string
		want string
	}{
		{"abc", "abc"},
		{"a b", "a%20b"},
		{"@*_+-./", "@*_+-./"},
	}
	for _, tt := range tests {
		got := utf8(t, a, callGlobal(t, a, "escape", avm2.Str(tt.in)))
		if got != tt.want {
			t.Errorf("escape(%q) = %q, want %q", tt.in, got, tt.want)
		}
		back := utf8(t, a, callGlobal(t, a, "unescape", avm2.Str(got)))
		if back != tt.in {
			t.Errorf("unescape(%q) = %q, want %q", got, back, tt.in)
		}
	}
	if got := utf8(t, a, callGlobal(t, a, "unescape", avm2.Str("%u0041%42"))); got != "AB" {
		t.Fatalf("unescape wide = %q", got)
	}
}

func TestEncodeDecodeURIComponent(t *testing.T) {
	_, a, _ := testVM()
	in := "a b/c?d=e"
	enc := utf8(t, a, callGlobal(t, a, "encodeURIComponent", avm2.Str(in)))
	if enc != "a%20b%2Fc%3Fd%3De" {
		t.Fatalf("encodeURIComponent = %q", enc)
	}
	dec := utf8(t, a, callGlobal(t, a, "decodeURIComponent", avm2.Str(enc)))
	if dec != in {
		t.Fatalf("decodeURIComponent = %q, want %q", dec, in)
	}

	if _, err := avm2.GetProperty(a, a.Avm().Globals(), avm2.PublicName("decodeURIComponent")); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	fnVal, _ := avm2.GetProperty(a, a.Avm().Globals(), avm2.PublicName("decodeURIComponent"))
	if _, err := fnVal.AsObject().Call(a, avm2.Undefined, []avm2.Value{avm2.Str("%zz")}); err == nil {
		t.Fatal("malformed sequence decoded without error")
	}
}

func TestEncodeURIKeepsReserved(t *testing.T) {
	_, a, _ := testVM()
	in := "http://example.com/a b?x=1"
	enc := utf8(t, a, callGlobal(t, a, "encodeURI", avm2.Str(in)))
	if enc != "http://example.com/a%20b?x=1" {
		t.Fatalf("encodeURI = %q", enc)
	}
}

func TestGetTimerTracksClock(t *testing.T) {
	_, a, env := testVM()
	env.clock.Advance(1500 * time.Millisecond)
	out := callGlobal(t, a, "getTimer")
	n, _ := out.CoerceToNumber(a)
	if n != 1500 {
		t.Fatalf("getTimer = %v, want 1500", n)
	}
}

func TestGetQualifiedClassName(t *testing.T) {
	_, a, _ := testVM()
	tests := []struct {
		name string
		in   avm2.Value
		want string
	}{
		{"int", avm2.Integer(1), "int"},
		{"uint", avm2.Unsigned(1), "uint"},
		{"number", avm2.Number(1.5), "Number"},
		{"string", avm2.Str("x"), "String"},
		{"boolean", avm2.Bool(true), "Boolean"},
		{"null", avm2.Null, "null"},
		{"undefined", avm2.Undefined, "void"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := utf8(t, a, callGlobal(t, a, "getQualifiedClassName", tt.in))
			if got != tt.want {
				t.Fatalf("getQualifiedClassName = %q, want %q", got, tt.want)
			}
		})
	}

	ba := construct(t, a, "ByteArray")
	got := utf8(t, a, callGlobal(t, a, "getQualifiedClassName", avm2.ObjectValue(ba)))
	if got != "flash.utils::ByteArray" {
		t.Fatalf("getQualifiedClassName(ByteArray) = %q", got)
	}
}
