package globals

import (
	"lantern/pkg/avm2"
	"lantern/pkg/display"
	"lantern/pkg/wstr"
)

type textModule struct{}

func (textModule) Name() string  { return "flash.text" }
func (textModule) Priority() int { return PriorityText }

func (textModule) Install(a *avm2.Activation) {
	ns := flashNS("flash.text")
	ioCls := a.Avm().ClassByName("InteractiveObject")
	objectCls := a.Avm().ClassByName("Object")

	tfCls := avm2.NewClass("TextField", ns, ioCls, 0)
	tfCls.SetAllocator(func(a *avm2.Activation, c *avm2.Class, proto avm2.Value) (avm2.Object, error) {
		return avm2.NewStageObject(a, c, display.NewTextField("", 0), proto), nil
	})
	tfCls.SetNativeInit(noNativeInit)
	tfCls.DefineGetter(public(), "text", textFieldGetText)
	tfCls.DefineSetter(public(), "text", textFieldSetText)
	tfCls.DefineGetter(public(), "htmlText", textFieldGetText)
	tfCls.DefineSetter(public(), "htmlText", textFieldSetHTMLText)
	tfCls.DefineGetter(public(), "length", textFieldLength)
	tfCls.DefineMethod(public(), "appendText", textFieldAppendText)
	tfCls.DefineMethod(public(), "replaceText", textFieldReplaceText)
	tfCls.DefineGetter(public(), "defaultTextFormat", textFieldGetDefaultFormat)
	tfCls.DefineSetter(public(), "defaultTextFormat", textFieldSetDefaultFormat)
	tfCls.DefineMethod(public(), "getTextFormat", textFieldGetDefaultFormat)
	tfCls.DefineMethod(public(), "setTextFormat", textFieldSetTextFormat)
	defineClass(a, tfCls)

	formatCls := avm2.NewClass("TextFormat", ns, objectCls, 0)
	formatCls.SetNativeInit(textFormatInit)
	defineClass(a, formatCls)

	typeCls := avm2.NewClass("TextFieldType", ns, objectCls, avm2.ClassFlagSealed|avm2.ClassFlagFinal)
	typeCls.SetNativeInit(noNativeInit)
	if co := defineClass(a, typeCls); co != nil {
		co.SetDynamic("DYNAMIC", avm2.Str("dynamic"))
		co.SetDynamic("INPUT", avm2.Str("input"))
	}

	alignCls := avm2.NewClass("TextFormatAlign", ns, objectCls, avm2.ClassFlagSealed|avm2.ClassFlagFinal)
	alignCls.SetNativeInit(noNativeInit)
	if co := defineClass(a, alignCls); co != nil {
		co.SetDynamic("LEFT", avm2.Str("left"))
		co.SetDynamic("RIGHT", avm2.Str("right"))
		co.SetDynamic("CENTER", avm2.Str("center"))
		co.SetDynamic("JUSTIFY", avm2.Str("justify"))
	}
}

func textNodeOf(this avm2.Value) *display.TextFieldNode {
	tf, _ := nodeOf(this).(*display.TextFieldNode)
	return tf
}

func textFieldGetText(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	tf := textNodeOf(this)
	if tf == nil {
		return avm2.Str(""), nil
	}
	return avm2.Str(tf.Text()), nil
}

func textFieldSetText(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if tf := textNodeOf(this); tf != nil {
		tf.SetText(argUTF8(a, args, 0))
		tf.SetHTML(false)
	}
	return avm2.Undefined, nil
}

func textFieldSetHTMLText(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if tf := textNodeOf(this); tf != nil {
		tf.SetText(argUTF8(a, args, 0))
		tf.SetHTML(true)
	}
	return avm2.Undefined, nil
}

func textFieldLength(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	tf := textNodeOf(this)
	if tf == nil {
		return avm2.Integer(0), nil
	}
	return avm2.Integer(int32(wstr.FromUTF8(tf.Text()).Len())), nil
}

func textFieldAppendText(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if tf := textNodeOf(this); tf != nil {
		tf.SetText(tf.Text() + argUTF8(a, args, 0))
	}
	return avm2.Undefined, nil
}

func textFieldReplaceText(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	tf := textNodeOf(this)
	if tf == nil || len(args) < 3 {
		return avm2.Undefined, nil
	}
	s := wstr.FromUTF8(tf.Text())
	begin := argInt(a, args, 0)
	end := argInt(a, args, 1)
	if begin < 0 || end < begin || begin > s.Len() {
		return avm2.Undefined, avm2.RangeError("replaceText span %d..%d out of range", begin, end)
	}
	if end > s.Len() {
		end = s.Len()
	}
	out := wstr.Concat(wstr.Concat(s.Slice(0, begin), argString(a, args, 2)), s.Slice(end, s.Len()))
	tf.SetText(out.ToUTF8())
	return avm2.Undefined, nil
}

// The format accessors keep a whole-field format; per-span formatting
// needs a text layout engine the display model does not carry.
func textFieldGetDefaultFormat(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	if obj == nil {
		return avm2.Null, nil
	}
	if v, ok := obj.Base().GetDynamic("__format"); ok {
		return v, nil
	}
	return avm2.Null, nil
}

func textFieldSetDefaultFormat(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if obj := this.AsObject(); obj != nil && arg(args, 0).IsObject() {
		obj.Base().SetDynamic("__format", arg(args, 0))
	}
	return avm2.Undefined, nil
}

// setTextFormat overloads take optional index arguments before the
// format.
func textFieldSetTextFormat(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	if obj == nil || len(args) == 0 {
		return avm2.Undefined, nil
	}
	format := args[0]
	if !format.IsObject() {
		format = arg(args, len(args)-1)
	}
	if format.IsObject() {
		obj.Base().SetDynamic("__format", format)
	}
	return avm2.Undefined, nil
}

var textFormatFields = []string{
	"font", "size", "color", "bold", "italic", "underline", "url",
	"target", "align", "leftMargin", "rightMargin", "indent", "leading",
}

// Unset fields stay null, so merged formats can tell "absent" from
// zero values.
func textFormatInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	if obj == nil {
		return avm2.Undefined, nil
	}
	for i, name := range textFormatFields {
		v := avm2.Null
		if i < len(args) && !args[i].IsUndefined() {
			v = args[i]
		}
		obj.Base().SetDynamic(name, v)
	}
	return avm2.Undefined, nil
}
