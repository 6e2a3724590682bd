package globals

import (
	"lantern/pkg/abc"
	"lantern/pkg/avm2"
)

type errorModule struct{}

func (errorModule) Name() string  { return "Error" }
func (errorModule) Priority() int { return PriorityError }

func (errorModule) Install(a *avm2.Activation) {
	objectCls := a.Avm().ClassByName("Object")

	base := avm2.NewClass("Error", public(), objectCls, 0)
	base.DefineSlot(public(), "message", avm2.PublicName("String"), avm2.Str(""))
	base.DefineSlot(public(), "name", avm2.PublicName("String"), avm2.Str("Error"))
	base.SetNativeInit(errorInit("Error"))
	base.DefineMethod(public(), "getStackTrace", errorGetStackTrace)
	base.DefineMethod(public(), "toString", errorToString)
	co := defineClass(a, base)
	if co != nil {
		a.Avm().ProtoFor().Error = avm2.ObjectValue(co.Prototype())
	}

	for _, name := range []string{
		"TypeError", "ReferenceError", "RangeError", "ArgumentError",
		"VerifyError", "SecurityError", "DefinitionError", "EvalError",
		"SyntaxError", "URIError", "UninitializedError",
	} {
		sub := avm2.NewClass(name, public(), base, 0)
		sub.SetNativeInit(errorInit(name))
		defineClass(a, sub)
	}

	flashErrors := avm2.NewNamespace(abc.NsPackage, "flash.errors")
	for _, name := range []string{
		"IOError", "EOFError", "IllegalOperationError", "MemoryError",
		"ScriptTimeoutError", "StackOverflowError",
	} {
		sub := avm2.NewClass(name, flashErrors, base, 0)
		sub.SetNativeInit(errorInit(name))
		defineClass(a, sub)
	}
}

// errorInit seeds message and name; the base initializer runs for
// every subclass so the chain stays consistent.
func errorInit(name string) avm2.NativeMethod {
	return func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		obj := this.AsObject()
		if obj == nil {
			return avm2.Undefined, nil
		}
		if len(args) > 0 {
			msg, err := args[0].CoerceToString(a)
			if err != nil {
				return avm2.Undefined, err
			}
			if serr := avm2.SetProperty(a, obj, avm2.PublicName("message"), avm2.String(msg)); serr != nil {
				return avm2.Undefined, serr
			}
		}
		if nerr := avm2.SetProperty(a, obj, avm2.PublicName("name"), avm2.Str(name)); nerr != nil {
			return avm2.Undefined, nerr
		}
		return avm2.Undefined, nil
	}
}

func errorToString(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	if obj == nil {
		return avm2.Str("Error"), nil
	}
	name, err := avm2.GetProperty(a, obj, avm2.PublicName("name"))
	if err != nil {
		return avm2.Undefined, err
	}
	msg, err := avm2.GetProperty(a, obj, avm2.PublicName("message"))
	if err != nil {
		return avm2.Undefined, err
	}
	nameStr, err := name.CoerceToString(a)
	if err != nil {
		return avm2.Undefined, err
	}
	msgStr, err := msg.CoerceToString(a)
	if err != nil {
		return avm2.Undefined, err
	}
	if msgStr.IsEmpty() {
		return avm2.String(nameStr), nil
	}
	return avm2.Str(nameStr.ToUTF8() + ": " + msgStr.ToUTF8()), nil
}

func errorGetStackTrace(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	// Stack capture is not recorded; the published API returns null in
	// release players, which scripts already tolerate.
	return avm2.Null, nil
}
