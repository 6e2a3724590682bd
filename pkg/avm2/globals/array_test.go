package globals

import (
	"strconv"
	"testing"

	"lantern/pkg/avm2"
)

func TestArrayIndexGrowthAndShrink(t *testing.T) {
	_, a, _ := testVM()
	arr := construct(t, a, "Array")

	if err := setProp(a, arr, "3", avm2.Str("x")); err != nil {
		t.Fatalf("set a[3]: %v", err)
	}
	if got := getProp(t, a, arr, "length"); got.AsNumberRaw() != 4 {
		t.Fatalf("length after index set = %v, want 4", got)
	}
	for i := 0; i < 3; i++ {
		if v := getProp(t, a, arr, strconv.Itoa(i)); !v.IsUndefined() {
			t.Fatalf("a[%d] = %v, want undefined", i, v)
		}
	}
	if got := utf8(t, a, getProp(t, a, arr, "3")); got != "x" {
		t.Fatalf("a[3] = %q, want %q", got, "x")
	}

	if err := setProp(a, arr, "length", avm2.Number(1)); err != nil {
		t.Fatalf("shrink length: %v", err)
	}
	if got := getProp(t, a, arr, "length"); got.AsNumberRaw() != 1 {
		t.Fatalf("length after shrink = %v, want 1", got)
	}
	if v := getProp(t, a, arr, "3"); !v.IsUndefined() {
		t.Fatalf("a[3] survived the shrink: %v", v)
	}
}

func TestArrayPushPopMaintainLength(t *testing.T) {
	_, a, _ := testVM()
	arr := construct(t, a, "Array")

	if got := callProp(t, a, arr, "push", avm2.Str("a"), avm2.Str("b")); got.AsNumberRaw() != 2 {
		t.Fatalf("push returned %v, want 2", got)
	}
	if got := utf8(t, a, callProp(t, a, arr, "pop")); got != "b" {
		t.Fatalf("pop = %q, want %q", got, "b")
	}
	if got := getProp(t, a, arr, "length"); got.AsNumberRaw() != 1 {
		t.Fatalf("length after pop = %v, want 1", got)
	}
}
