package globals

import (
	"lantern/pkg/avm1"
)

type objectModule struct{}

func (objectModule) Name() string  { return "Object" }
func (objectModule) Priority() int { return PriorityObject }

func (objectModule) Install(a *avm1.Activation) {
	protos := a.Avm().ProtoFor()
	proto := protos.Object

	ctor := avm1.NewNativeFunction(a, "Object", objectConstructor)
	ctor.DefineValue("prototype", avm1.ObjectValue(proto), avm1.AttrDontEnum|avm1.AttrDontDelete|avm1.AttrReadOnly)
	proto.DefineValue("constructor", avm1.ObjectValue(ctor), avm1.AttrDontEnum)
	a.Avm().Globals().DefineValue("Object", avm1.ObjectValue(ctor), avm1.AttrDontEnum)

	method(a, ctor, "registerClass", objectRegisterClass)

	method(a, proto, "toString", objectToString)
	method(a, proto, "toLocaleString", objectToString)
	method(a, proto, "valueOf", objectValueOf)
	method(a, proto, "hasOwnProperty", objectHasOwnProperty)
	method(a, proto, "isPropertyEnumerable", objectIsPropertyEnumerable)
	method(a, proto, "isPrototypeOf", objectIsPrototypeOf)
	method(a, proto, "addProperty", objectAddProperty)
	method(a, proto, "watch", objectWatch)
	method(a, proto, "unwatch", objectUnwatch)
}

func objectConstructor(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if len(args) > 0 {
		switch v := args[0]; v.Kind() {
		case avm1.KindObject:
			return v, nil
		case avm1.KindString, avm1.KindNumber, avm1.KindBool:
			return avm1.ObjectValue(v.CoerceToObject(a)), nil
		}
	}
	if this != nil {
		return avm1.ObjectValue(this), nil
	}
	return avm1.ObjectValue(avm1.NewScriptObject(a, avm1.ObjectValue(a.Avm().ProtoFor().Object))), nil
}

func objectRegisterClass(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	name := argString(a, args, 0).ToUTF8()
	ctor := argObject(args, 1)
	a.Avm().RegisterClass(name, ctor)
	return avm1.Bool(true), nil
}

func objectToString(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this != nil {
		if f, ok := this.(*avm1.FunctionObject); ok && f != nil {
			return avm1.Str("[type Function]"), nil
		}
	}
	return avm1.Str("[object Object]"), nil
}

func objectValueOf(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	return avm1.ObjectValue(this), nil
}

func objectHasOwnProperty(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil || len(args) == 0 {
		return avm1.Bool(false), nil
	}
	return avm1.Bool(avm1.HasOwnProperty(a, this, argString(a, args, 0))), nil
}

func objectIsPropertyEnumerable(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil || len(args) == 0 {
		return avm1.Bool(false), nil
	}
	name := argString(a, args, 0)
	for _, k := range this.Raw().OwnKeys(a) {
		if a.IsCaseSensitive() && k.Eq(name) || !a.IsCaseSensitive() && k.EqIgnoreCase(name) {
			return avm1.Bool(true), nil
		}
	}
	return avm1.Bool(false), nil
}

func objectIsPrototypeOf(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	target := argObject(args, 0)
	if this == nil || target == nil {
		return avm1.Bool(false), nil
	}
	seen := 0
	for p := target.Proto(a); p.IsObject() && seen < 256; seen++ {
		if p.AsObject().Raw() == this.Raw() {
			return avm1.Bool(true), nil
		}
		p = p.AsObject().Proto(a)
	}
	return avm1.Bool(false), nil
}

func objectAddProperty(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Bool(false), nil
	}
	name := argString(a, args, 0)
	getter := argObject(args, 1)
	setter := argObject(args, 2)
	if name.IsEmpty() || getter == nil {
		return avm1.Bool(false), nil
	}
	this.Raw().DefineVirtual(name.ToUTF8(), getter, setter, 0)
	return avm1.Bool(true), nil
}

func objectWatch(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	callback := argObject(args, 1)
	if this == nil || callback == nil {
		return avm1.Bool(false), nil
	}
	this.Raw().Watch(a, argString(a, args, 0), callback, arg(args, 2))
	return avm1.Bool(true), nil
}

func objectUnwatch(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Bool(false), nil
	}
	return avm1.Bool(this.Raw().Unwatch(a, argString(a, args, 0))), nil
}
