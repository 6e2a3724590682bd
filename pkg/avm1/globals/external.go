package globals

import (
	"lantern/pkg/amf"
	"lantern/pkg/avm1"
)

type externalModule struct{}

func (externalModule) Name() string  { return "ExternalInterface" }
func (externalModule) Priority() int { return PriorityExternal }

func (externalModule) Install(a *avm1.Activation) {
	ei := avm1.NewScriptObject(a, avm1.ObjectValue(a.Avm().ProtoFor().Object))

	virtual(a, ei, "available", externalAvailable, nil)
	method(a, ei, "call", externalCall)
	method(a, ei, "addCallback", externalAddCallback)

	a.Avm().Globals().DefineValue("ExternalInterface", avm1.ObjectValue(ei), avm1.AttrDontEnum)
}

func externalAvailable(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return avm1.Bool(a.Ctx().ExternalCall != nil), nil
}

func externalCall(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	bridge := a.Ctx().ExternalCall
	if bridge == nil || len(args) == 0 {
		return avm1.Null, nil
	}
	name := argString(a, args, 0).ToUTF8()
	lowered := make([]amf.Value, 0, len(args)-1)
	for _, v := range args[1:] {
		lowered = append(lowered, valueToAMF(a, v, 0))
	}
	return amfToValue(a, bridge(name, lowered)), nil
}

// addCallback registers a script function under a host-visible name.
// The player exposes the registry to the container through
// CallExternal.
func externalAddCallback(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	name := argString(a, args, 0).ToUTF8()
	fn := argObject(args, 2)
	if name == "" || fn == nil {
		return avm1.Bool(false), nil
	}
	receiver := arg(args, 1)
	a.Avm().RegisterExternalCallback(name, func(a *avm1.Activation, callArgs []avm1.Value) avm1.Value {
		out, err := fn.Call(a, receiver, callArgs)
		if err != nil {
			a.Ctx().Log.Warning("external callback %q failed: %v", name, err)
			return avm1.Undefined
		}
		return out
	})
	return avm1.Bool(true), nil
}

// CallRegisteredCallback invokes an addCallback registration with AMF
// arguments from the container, lowering the result back to AMF.
func CallRegisteredCallback(a *avm1.Activation, name string, args []amf.Value) (amf.Value, bool) {
	cb := a.Avm().ExternalCallback(name)
	if cb == nil {
		return amf.Undefined, false
	}
	raised := make([]avm1.Value, len(args))
	for i, v := range args {
		raised[i] = amfToValue(a, v)
	}
	return valueToAMF(a, cb(a, raised), 0), true
}
