package globals

import (
	"testing"

	"lantern/pkg/avm1"
)

func TestBevelFilterDefaults(t *testing.T) {
	_, a, _ := testVM(8)
	f := construct(t, a, "BevelFilter")

	wantNumber(t, getProp(t, a, f, "angle"), 44.9999999772279)
	wantNumber(t, getProp(t, a, f, "distance"), 4)
	wantNumber(t, getProp(t, a, f, "highlightColor"), 0xFFFFFF)
	wantNumber(t, getProp(t, a, f, "highlightAlpha"), 1)
	wantNumber(t, getProp(t, a, f, "blurX"), 4)
	wantNumber(t, getProp(t, a, f, "blurY"), 4)
	wantNumber(t, getProp(t, a, f, "strength"), 1)
	wantNumber(t, getProp(t, a, f, "quality"), 1)
	wantString(t, a, getProp(t, a, f, "type"), "inner")
}

func TestBevelFilterAngleKeepsSign(t *testing.T) {
	_, a, _ := testVM(8)
	f := construct(t, a, "BevelFilter")

	tests := []struct {
		set  float64
		want float64
	}{
		{-725, -5},
		{725, 5},
		{360, 0},
		{-20, -20},
		{180, 180},
	}
	for _, tt := range tests {
		setProp(t, a, f, "angle", avm1.Number(tt.set))
		wantNumber(t, getProp(t, a, f, "angle"), tt.want)
	}
}

func TestFilterClamps(t *testing.T) {
	_, a, _ := testVM(8)
	f := construct(t, a, "BevelFilter")

	setProp(t, a, f, "quality", avm1.Number(99))
	wantNumber(t, getProp(t, a, f, "quality"), 15)

	setProp(t, a, f, "quality", avm1.Number(-1))
	wantNumber(t, getProp(t, a, f, "quality"), 0)

	setProp(t, a, f, "highlightAlpha", avm1.Number(3))
	wantNumber(t, getProp(t, a, f, "highlightAlpha"), 1)

	setProp(t, a, f, "strength", avm1.Number(300))
	wantNumber(t, getProp(t, a, f, "strength"), 255)

	setProp(t, a, f, "blurX", avm1.Number(1000))
	wantNumber(t, getProp(t, a, f, "blurX"), 255)

	setProp(t, a, f, "highlightColor", avm1.Number(0x1FFFFFF))
	wantNumber(t, getProp(t, a, f, "highlightColor"), 0xFFFFFF)

	setProp(t, a, f, "type", avm1.Str("banana"))
	wantString(t, a, getProp(t, a, f, "type"), "full")
}

func TestGlowFilterDefaults(t *testing.T) {
	_, a, _ := testVM(8)
	f := construct(t, a, "GlowFilter")

	wantNumber(t, getProp(t, a, f, "color"), 0xFF0000)
	wantNumber(t, getProp(t, a, f, "blurX"), 6)
	wantNumber(t, getProp(t, a, f, "strength"), 2)
}

func TestFilterConstructorArgsNormalized(t *testing.T) {
	_, a, _ := testVM(8)
	f := construct(t, a, "DropShadowFilter", avm1.Number(2), avm1.Number(400))

	wantNumber(t, getProp(t, a, f, "distance"), 2)
	wantNumber(t, getProp(t, a, f, "angle"), 40)
}

func TestFilterCloneIsIndependent(t *testing.T) {
	_, a, _ := testVM(8)
	f := construct(t, a, "BlurFilter")
	setProp(t, a, f, "blurX", avm1.Number(9))

	cloneVal := call(t, a, f, "clone")
	if !cloneVal.IsObject() {
		t.Fatalf("clone returned %v", cloneVal.Kind())
	}
	clone := cloneVal.AsObject()
	wantNumber(t, getProp(t, a, clone, "blurX"), 9)

	setProp(t, a, clone, "blurX", avm1.Number(2))
	wantNumber(t, getProp(t, a, f, "blurX"), 9)
	wantNumber(t, getProp(t, a, clone, "blurX"), 2)
}
