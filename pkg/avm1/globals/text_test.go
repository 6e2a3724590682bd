package globals

import (
	"testing"

	"lantern/pkg/avm1"
)

func TestTextFieldTextAndLength(t *testing.T) {
	_, a, _ := testVM(8)
	tf := construct(t, a, "TextField")

	wantString(t, a, getProp(t, a, tf, "text"), "")
	setProp(t, a, tf, "text", avm1.Str("hello"))
	wantNumber(t, getProp(t, a, tf, "length"), 5)
}

func TestTextFieldReplaceText(t *testing.T) {
	_, a, _ := testVM(8)
	tf := construct(t, a, "TextField")
	setProp(t, a, tf, "text", avm1.Str("hello world"))

	call(t, a, tf, "replaceText", avm1.Number(6), avm1.Number(11), avm1.Str("there"))
	wantString(t, a, getProp(t, a, tf, "text"), "hello there")
}

func TestTextFieldFormats(t *testing.T) {
	_, a, _ := testVM(8)
	tf := construct(t, a, "TextField")

	fmtObj := construct(t, a, "TextFormat")
	setProp(t, a, fmtObj, "bold", avm1.Bool(true))
	setProp(t, a, fmtObj, "size", avm1.Number(14))

	call(t, a, tf, "setTextFormat", avm1.ObjectValue(fmtObj))
	got := call(t, a, tf, "getTextFormat").AsObject()
	wantNumber(t, getProp(t, a, got, "size"), 14)
	if !getProp(t, a, got, "bold").AsBoolRaw() {
		t.Fatal("bold not carried through")
	}
}

func TestTextFormatUnsetFieldsAreNull(t *testing.T) {
	_, a, _ := testVM(8)
	f := construct(t, a, "TextFormat", avm1.Str("serif"), avm1.Number(12))

	wantString(t, a, getProp(t, a, f, "font"), "serif")
	wantNumber(t, getProp(t, a, f, "size"), 12)
	if v := getProp(t, a, f, "color"); !v.IsNull() {
		t.Fatalf("color = %v, want null", v.Kind())
	}
}
