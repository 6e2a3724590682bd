package globals

import (
	"lantern/pkg/avm2"
)

type objectModule struct{}

func (objectModule) Name() string  { return "Object" }
func (objectModule) Priority() int { return PriorityObject }

func (objectModule) Install(a *avm2.Activation) {
	cls := avm2.NewClass("Object", public(), nil, 0)
	cls.SetNativeInit(func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		return avm2.Undefined, nil
	})
	cls.SetCallHandler(func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		if len(args) == 0 || args[0].IsNullish() {
			return avm2.ObjectValue(newObjectOn(a, avm2.Null)), nil
		}
		return args[0], nil
	})

	cls.DefineMethod(public(), "toString", objectToString)
	cls.DefineMethod(public(), "toLocaleString", objectToString)
	cls.DefineMethod(public(), "valueOf", objectValueOf)
	cls.DefineMethod(public(), "hasOwnProperty", objectHasOwnProperty)
	cls.DefineMethod(public(), "isPrototypeOf", objectIsPrototypeOf)
	cls.DefineMethod(public(), "propertyIsEnumerable", objectPropertyIsEnumerable)

	co := defineClass(a, cls)
	if co == nil {
		return
	}
	protos := a.Avm().ProtoFor()
	protos.Object = avm2.ObjectValue(co.Prototype())

	proto := co.Prototype()
	protoMethod(a, proto, "toString", objectToString)
	protoMethod(a, proto, "toLocaleString", objectToString)
	protoMethod(a, proto, "valueOf", objectValueOf)
	protoMethod(a, proto, "hasOwnProperty", objectHasOwnProperty)
	protoMethod(a, proto, "isPrototypeOf", objectIsPrototypeOf)
	protoMethod(a, proto, "propertyIsEnumerable", objectPropertyIsEnumerable)
}

func newObjectOn(a *avm2.Activation, proto avm2.Value) *avm2.ScriptObject {
	return avm2.NewScriptObject(a, a.Avm().ClassByName("Object"), proto)
}

func objectToString(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	if obj == nil {
		return avm2.Str("[object Object]"), nil
	}
	name := "Object"
	if cls := obj.Base().Class(); cls != nil {
		name = cls.Name()
	}
	return avm2.Str("[object " + name + "]"), nil
}

func objectValueOf(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return receiverValue(this), nil
}

func objectHasOwnProperty(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	if obj == nil || len(args) == 0 {
		return avm2.Bool(false), nil
	}
	name := argUTF8(a, args, 0)
	return avm2.Bool(avm2.HasOwnProperty(a, obj, avm2.PublicName(name))), nil
}

func objectIsPrototypeOf(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	target := argObject(args, 0)
	self := this.AsObject()
	if self == nil || target == nil {
		return avm2.Bool(false), nil
	}
	seen := 0
	for p := target.Base().Proto(); p.IsObject() && seen < 256; seen++ {
		if p.AsObject() == self {
			return avm2.Bool(true), nil
		}
		p = p.AsObject().Base().Proto()
	}
	return avm2.Bool(false), nil
}

func objectPropertyIsEnumerable(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	if obj == nil || len(args) == 0 {
		return avm2.Bool(false), nil
	}
	name := argUTF8(a, args, 0)
	for _, k := range obj.Base().DynamicKeys() {
		if k == name {
			return avm2.Bool(true), nil
		}
	}
	return avm2.Bool(false), nil
}
