package globals

import (
	"math"

	"lantern/pkg/avm1"
	"lantern/pkg/wstr"
)

// arg returns args[i], Undefined past the end.
func arg(args []avm1.Value, i int) avm1.Value {
	if i < 0 || i >= len(args) {
		return avm1.Undefined
	}
	return args[i]
}

func argNumber(a *avm1.Activation, args []avm1.Value, i int) float64 {
	return arg(args, i).CoerceToF64(a)
}

func argString(a *avm1.Activation, args []avm1.Value, i int) wstr.WStr {
	return arg(args, i).CoerceToString(a)
}

func argInt(a *avm1.Activation, args []avm1.Value, i int) int {
	f := argNumber(a, args, i)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

func argBool(a *avm1.Activation, args []avm1.Value, i int) bool {
	return arg(args, i).CoerceToBool(a)
}

func argObject(args []avm1.Value, i int) avm1.Object {
	v := arg(args, i)
	if !v.IsObject() {
		return nil
	}
	return v.AsObject()
}

// method registers a native function on obj under the builtin attribute
// set (hidden from for..in, like the player's own library).
func method(a *avm1.Activation, obj interface {
	DefineValue(name string, v avm1.Value, attrs avm1.Attr)
}, name string, fn avm1.NativeFunction) {
	f := avm1.NewBareNativeFunction(a, name, fn)
	obj.DefineValue(name, avm1.ObjectValue(f), avm1.AttrDontEnum|avm1.AttrDontDelete)
}

// constant registers a non-writable value.
func constant(obj interface {
	DefineValue(name string, v avm1.Value, attrs avm1.Attr)
}, name string, v avm1.Value) {
	obj.DefineValue(name, v, avm1.AttrDontEnum|avm1.AttrDontDelete|avm1.AttrReadOnly)
}

// defineClass registers a constructor on _global with a prototype that
// chains to Object.prototype, and returns both.
func defineClass(a *avm1.Activation, name string, ctor avm1.NativeFunction) (*avm1.FunctionObject, *avm1.ScriptObject) {
	fn := avm1.NewNativeFunction(a, name, ctor)
	protoVal, _ := avm1.Get(a, fn, wstr.FromUTF8("prototype"))
	proto := protoVal.AsObject().Raw()
	a.Avm().Globals().DefineValue(name, avm1.ObjectValue(fn), avm1.AttrDontEnum)
	return fn, proto
}

// virtual registers a native getter/setter pair; setter may be nil.
func virtual(a *avm1.Activation, obj *avm1.ScriptObject, name string, get, set avm1.NativeFunction) {
	var getter, setter avm1.Object
	if get != nil {
		getter = avm1.NewBareNativeFunction(a, "get "+name, get)
	}
	if set != nil {
		setter = avm1.NewBareNativeFunction(a, "set "+name, set)
	}
	obj.DefineVirtual(name, getter, setter, avm1.AttrDontEnum|avm1.AttrDontDelete)
}

// thisValue unboxes a primitive wrapper receiver, or coerces the
// receiver object down to a value.
func thisValue(this avm1.Object) avm1.Value {
	if this == nil {
		return avm1.Undefined
	}
	return avm1.UnboxValue(avm1.ObjectValue(this))
}
