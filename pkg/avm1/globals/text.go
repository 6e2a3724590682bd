package globals

import (
	"lantern/pkg/avm1"
	"lantern/pkg/wstr"
)

type textModule struct{}

func (textModule) Name() string  { return "Text" }
func (textModule) Priority() int { return PriorityText }

func (textModule) Install(a *avm1.Activation) {
	installTextField(a)
	installTextFormat(a)
}

func installTextField(a *avm1.Activation) {
	_, proto := defineClass(a, "TextField", textFieldConstructor)
	a.Avm().ProtoFor().TextField = proto

	virtual(a, proto, "length", textFieldLength, nil)
	method(a, proto, "getTextFormat", textFieldGetFormat)
	method(a, proto, "setTextFormat", textFieldSetFormat)
	method(a, proto, "getNewTextFormat", textFieldGetNewFormat)
	method(a, proto, "setNewTextFormat", textFieldSetNewFormat)
	method(a, proto, "replaceText", textFieldReplaceText)
	method(a, proto, "toString", textFieldToString)
}

func textFieldConstructor(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this != nil {
		this.Raw().DefineValue("text", avm1.Str(""), 0)
	}
	return avm1.Undefined, nil
}

func textFieldText(a *avm1.Activation, this avm1.Object) wstr.WStr {
	if this == nil {
		return wstr.Empty
	}
	v, err := avm1.Get(a, this, wstr.FromUTF8("text"))
	if err != nil || v.IsUndefined() {
		return wstr.Empty
	}
	return v.CoerceToString(a)
}

func textFieldLength(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return avm1.Number(float64(textFieldText(a, this).Len())), nil
}

// The format accessors keep a whole-field format; per-span formatting
// needs a text layout engine the display model does not carry.
func textFieldGetFormat(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	v, err := avm1.Get(a, this, wstr.FromUTF8("__format"))
	if err != nil {
		return avm1.Undefined, nil
	}
	return v, nil
}

func textFieldSetFormat(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	// Overloads take optional index arguments before the format.
	format := arg(args, len(args)-1)
	if format.IsObject() {
		this.Raw().DefineValue("__format", format, avm1.AttrDontEnum)
	}
	return avm1.Undefined, nil
}

func textFieldGetNewFormat(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	v, err := avm1.Get(a, this, wstr.FromUTF8("__newFormat"))
	if err != nil {
		return avm1.Undefined, nil
	}
	return v, nil
}

func textFieldSetNewFormat(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	if f := arg(args, 0); f.IsObject() {
		this.Raw().DefineValue("__newFormat", f, avm1.AttrDontEnum)
	}
	return avm1.Undefined, nil
}

func textFieldReplaceText(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil || len(args) < 3 {
		return avm1.Undefined, nil
	}
	s := textFieldText(a, this)
	begin := argInt(a, args, 0)
	end := argInt(a, args, 1)
	if begin < 0 || end < begin || begin > s.Len() {
		return avm1.Undefined, nil
	}
	if end > s.Len() {
		end = s.Len()
	}
	out := wstr.Concat(wstr.Concat(s.Slice(0, begin), argString(a, args, 2)), s.Slice(end, s.Len()))
	return avm1.Undefined, avm1.Set(a, this, wstr.FromUTF8("text"), avm1.String(out))
}

func textFieldToString(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if so := avm1.AsStage(this); so != nil {
		return avm1.Str(so.TargetPath()), nil
	}
	return avm1.Str("[object TextField]"), nil
}

var textFormatFields = []string{
	"font", "size", "color", "bold", "italic", "underline", "url",
	"target", "align", "leftMargin", "rightMargin", "indent", "leading",
}

func installTextFormat(a *avm1.Activation) {
	_, proto := defineClass(a, "TextFormat", textFormatConstructor)
	method(a, proto, "toString", func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		return avm1.Str("[object TextFormat]"), nil
	})
}

// Unset fields stay null, so merged formats can tell "absent" from
// zero values.
func textFormatConstructor(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	for i, name := range textFormatFields {
		v := avm1.Null
		if i < len(args) && !args[i].IsUndefined() {
			v = args[i]
		}
		this.Raw().DefineValue(name, v, 0)
	}
	return avm1.Undefined, nil
}
