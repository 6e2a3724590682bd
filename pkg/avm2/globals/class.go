package globals

import (
	"lantern/pkg/avm2"
)

type classModule struct{}

func (classModule) Name() string  { return "Class" }
func (classModule) Priority() int { return PriorityClass }

func (classModule) Install(a *avm2.Activation) {
	objectCls := a.Avm().ClassByName("Object")
	cls := avm2.NewClass("Class", public(), objectCls, avm2.ClassFlagSealed)
	co := defineClass(a, cls)
	if co == nil {
		return
	}
	a.Avm().ProtoFor().Class = avm2.ObjectValue(co.Prototype())
}

type functionModule struct{}

func (functionModule) Name() string  { return "Function" }
func (functionModule) Priority() int { return PriorityFunction }

func (functionModule) Install(a *avm2.Activation) {
	objectCls := a.Avm().ClassByName("Object")
	cls := avm2.NewClass("Function", public(), objectCls, 0)

	cls.DefineMethod(public(), "call", functionCall)
	cls.DefineMethod(public(), "apply", functionApply)
	cls.DefineGetter(public(), "length", functionLength)

	co := defineClass(a, cls)
	if co == nil {
		return
	}
	proto := co.Prototype()
	a.Avm().ProtoFor().Function = avm2.ObjectValue(proto)

	protoMethod(a, proto, "call", functionCall)
	protoMethod(a, proto, "apply", functionApply)
	protoMethod(a, proto, "toString", functionToString)
}

func functionCall(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	fn := this.AsObject()
	if fn == nil {
		return avm2.Undefined, avm2.TypeError("call target is not a function")
	}
	receiver := arg(args, 0)
	var rest []avm2.Value
	if len(args) > 1 {
		rest = args[1:]
	}
	return fn.Call(a, receiver, rest)
}

func functionApply(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	fn := this.AsObject()
	if fn == nil {
		return avm2.Undefined, avm2.TypeError("apply target is not a function")
	}
	receiver := arg(args, 0)
	var rest []avm2.Value
	if arr := avm2.AsArrayObject(argObject(args, 1)); arr != nil {
		rest = arr.Values()
	}
	return fn.Call(a, receiver, rest)
}

func functionLength(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if f := avm2.AsFunctionObject(this.AsObject()); f != nil {
		return avm2.Integer(int32(f.Method().ParamCount())), nil
	}
	return avm2.Integer(0), nil
}

func functionToString(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return avm2.Str("function Function() {}"), nil
}
