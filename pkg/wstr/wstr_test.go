package wstr

import (
	"math"
	"testing"
)

func TestNarrowWideSelection(t *testing.T) {
	cases := []struct {
		name string
		in   string
		wide bool
	}{
		{name: "Ascii", in: "hello", wide: false},
		{name: "Latin1", in: "café", wide: false},
		{name: "Bmp", in: "你好", wide: true},
		{name: "Astral", in: "a\U0001F600b", wide: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := FromUTF8(tc.in)
			if got := s.wide != nil; got != tc.wide {
				t.Errorf("wide = %v, want %v", got, tc.wide)
			}
			if s.ToUTF8() != tc.in {
				t.Errorf("round trip = %q, want %q", s.ToUTF8(), tc.in)
			}
		})
	}
}

func TestAstralLengthCountsUnits(t *testing.T) {
	s := FromUTF8("\U0001F600")
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (surrogate pair)", s.Len())
	}
}

func TestEqIgnoreCase(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"MovieClip", "movieclip", true},
		{"_X", "_x", true},
		{"abc", "abd", false},
		{"", "", true},
		{"É", "é", true},
	}
	for _, tc := range cases {
		if got := FromUTF8(tc.a).EqIgnoreCase(FromUTF8(tc.b)); got != tc.want {
			t.Errorf("EqIgnoreCase(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestSliceClamping(t *testing.T) {
	s := FromUTF8("abcdef")
	if got := s.Slice(2, 100).ToUTF8(); got != "cdef" {
		t.Errorf("Slice(2,100) = %q", got)
	}
	if got := s.Slice(-5, 2).ToUTF8(); got != "ab" {
		t.Errorf("Slice(-5,2) = %q", got)
	}
	if !s.Slice(4, 2).IsEmpty() {
		t.Error("inverted slice should be empty")
	}
}

func TestDecode1252(t *testing.T) {
	// 0x80 is the euro sign in windows-1252, not a C1 control.
	s := Decode1252([]byte{0x80, 0x41})
	if s.At(0) != 0x20AC || s.At(1) != 'A' {
		t.Fatalf("Decode1252 = %v %v", s.At(0), s.At(1))
	}
}

func TestParseF64(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"3.25", 3.25},
		{"  12  ", 12},
		{"0x10", 16},
		{"", math.NaN()},
		{"abc", math.NaN()},
		{"-Infinity", math.Inf(-1)},
	}
	for _, tc := range cases {
		got := FromUTF8(tc.in).ParseF64()
		if math.IsNaN(tc.want) {
			if !math.IsNaN(got) {
				t.Errorf("ParseF64(%q) = %v, want NaN", tc.in, got)
			}
			continue
		}
		if got != tc.want {
			t.Errorf("ParseF64(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParsePrefixF64(t *testing.T) {
	if got := FromUTF8("3.5abc").ParsePrefixF64(); got != 3.5 {
		t.Errorf("prefix parse = %v, want 3.5", got)
	}
	if got := FromUTF8("1e2x").ParsePrefixF64(); got != 100 {
		t.Errorf("prefix parse = %v, want 100", got)
	}
	if got := FromUTF8("12e+junk").ParsePrefixF64(); got != 12 {
		t.Errorf("dangling exponent = %v, want 12", got)
	}
}

func TestF64ToString(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{4, "4"},
		{-0.5, "-0.5"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{1e-7, "1e-7"},
	}
	for _, tc := range cases {
		if got := F64ToString(tc.in).ToUTF8(); got != tc.want {
			t.Errorf("F64ToString(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestInterner(t *testing.T) {
	in := NewInterner(32)
	a := in.InternUTF8("length")
	b := in.InternUTF8("length")
	if !a.Eq(b) {
		t.Fatal("interned strings differ")
	}
}

func TestIndex(t *testing.T) {
	s := FromUTF8("abcabc")
	if got := s.Index(FromUTF8("bc"), 0); got != 1 {
		t.Errorf("Index = %d, want 1", got)
	}
	if got := s.Index(FromUTF8("bc"), 2); got != 4 {
		t.Errorf("Index from 2 = %d, want 4", got)
	}
	if got := s.LastIndex(FromUTF8("bc"), 6); got != 4 {
		t.Errorf("LastIndex = %d, want 4", got)
	}
	if got := s.Index(FromUTF8("zz"), 0); got != -1 {
		t.Errorf("missing Index = %d, want -1", got)
	}
}
