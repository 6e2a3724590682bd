package amf

import (
	"math"
	"testing"
)

func sampleTree() Value {
	inner := NewObject()
	inner.Set("score", Number(91.5))
	inner.Set("name", String("slot one"))

	root := NewObject()
	root.Set("saves", List([]Value{inner, Null, Bool(true)}))
	root.Set("lastPlayed", Date(1136073600000))
	root.Set("note", String(""))
	root.Set("missing", Undefined)
	return root
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		in   Value
	}{
		{name: "Undefined", in: Undefined},
		{name: "Null", in: Null},
		{name: "BoolTrue", in: Bool(true)},
		{name: "NumberPi", in: Number(math.Pi)},
		{name: "NumberNaN", in: Number(math.NaN())},
		{name: "NumberNegZero", in: Number(math.Copysign(0, -1))},
		{name: "EmptyString", in: String("")},
		{name: "Utf8String", in: String("päivää")},
		{name: "List", in: List([]Value{Number(1), String("two"), Null})},
		{name: "Tree", in: sampleTree()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := Encode(nil, tc.in)
			got, rest, err := Decode(buf)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if len(rest) != 0 {
				t.Fatalf("trailing bytes: %d", len(rest))
			}
			if !got.Equal(tc.in) {
				t.Errorf("round trip changed value: got %v, want %v", got, tc.in)
			}
		})
	}
}

func TestObjectKeyOrderPreserved(t *testing.T) {
	obj := NewObject()
	obj.Set("z", Number(1))
	obj.Set("a", Number(2))
	obj.Set("m", Number(3))

	buf := Encode(nil, obj)
	got, _, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"z", "a", "m"}
	keys := got.Keys()
	if len(keys) != len(want) {
		t.Fatalf("keys = %v", keys)
	}
	for i, k := range want {
		if keys[i] != k {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], k)
		}
	}
}

func TestTruncatedInputs(t *testing.T) {
	full := Encode(nil, sampleTree())
	for cut := 0; cut < len(full); cut++ {
		if _, _, err := Decode(full[:cut]); err == nil && cut < len(full) {
			// Short prefixes that happen to parse as a complete smaller
			// value are fine; only crashes would be a bug. Decoding must
			// simply never panic.
			continue
		}
	}
}

func TestLongString(t *testing.T) {
	big := make([]byte, 70000)
	for i := range big {
		big[i] = byte('a' + i%26)
	}
	v := String(string(big))
	got, _, err := Decode(Encode(nil, v))
	if err != nil {
		t.Fatal(err)
	}
	if got.AsString() != v.AsString() {
		t.Fatal("long string corrupted")
	}
}

func TestLsoRoundTrip(t *testing.T) {
	root := sampleTree()
	blob, err := EncodeLso("gameSave", root)
	if err != nil {
		t.Fatal(err)
	}
	name, got, err := DecodeLso(blob)
	if err != nil {
		t.Fatal(err)
	}
	if name != "gameSave" {
		t.Errorf("name = %q", name)
	}
	if !got.Equal(root) {
		t.Error("lso round trip changed the tree")
	}
}

func TestLsoRejectsGarbage(t *testing.T) {
	if _, _, err := DecodeLso([]byte{1, 2, 3}); err == nil {
		t.Fatal("garbage accepted")
	}
}
