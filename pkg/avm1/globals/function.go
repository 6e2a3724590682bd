package globals

import (
	"lantern/pkg/avm1"
)

type functionModule struct{}

func (functionModule) Name() string  { return "Function" }
func (functionModule) Priority() int { return PriorityFunction }

func (functionModule) Install(a *avm1.Activation) {
	protos := a.Avm().ProtoFor()
	proto := protos.Function

	ctor := avm1.NewNativeFunction(a, "Function", functionConstructor)
	ctor.DefineValue("prototype", avm1.ObjectValue(proto), avm1.AttrDontEnum|avm1.AttrDontDelete|avm1.AttrReadOnly)
	proto.DefineValue("constructor", avm1.ObjectValue(ctor), avm1.AttrDontEnum)
	a.Avm().Globals().DefineValue("Function", avm1.ObjectValue(ctor), avm1.AttrDontEnum)

	method(a, proto, "call", functionCall)
	method(a, proto, "apply", functionApply)
	method(a, proto, "toString", functionToString)
}

func functionConstructor(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this != nil {
		return avm1.ObjectValue(this), nil
	}
	return avm1.Undefined, nil
}

func functionCall(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	receiver := arg(args, 0)
	var rest []avm1.Value
	if len(args) > 1 {
		rest = args[1:]
	}
	return this.Call(a, receiver, rest)
}

func functionApply(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	receiver := arg(args, 0)
	var flat []avm1.Value
	if list := argObject(args, 1); list != nil {
		n := avm1.LengthOf(a, list)
		flat = make([]avm1.Value, n)
		for i := 0; i < n; i++ {
			flat[i] = avm1.ElementOf(a, list, i)
		}
	}
	return this.Call(a, receiver, flat)
}

func functionToString(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return avm1.Str("[type Function]"), nil
}
