package globals

import (
	"lantern/pkg/amf"
	"lantern/pkg/avm2"
)

type externalModule struct{}

func (externalModule) Name() string  { return "flash.external" }
func (externalModule) Priority() int { return PriorityExternal }

func (externalModule) Install(a *avm2.Activation) {
	objectCls := a.Avm().ClassByName("Object")
	ns := flashNS("flash.external")

	cls := avm2.NewClass("ExternalInterface", ns, objectCls, avm2.ClassFlagSealed|avm2.ClassFlagFinal)
	cls.SetNativeInit(noConstructor("ExternalInterface"))
	co := defineClass(a, cls)
	if co == nil {
		return
	}
	co.SetDynamic("available", avm2.Bool(a.Avm().Ctx().ExternalCall != nil))
	co.SetDynamic("marshallExceptions", avm2.Bool(false))
	co.SetDynamic("objectID", avm2.Null)
	staticFunc(a, co, "call", externalInterfaceCall)
	staticFunc(a, co, "addCallback", externalInterfaceAddCallback)
}

func externalInterfaceCall(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	bridge := a.Avm().Ctx().ExternalCall
	if bridge == nil || len(args) == 0 {
		return avm2.Null, nil
	}
	name := argUTF8(a, args, 0)
	lowered := make([]amf.Value, 0, len(args)-1)
	for _, v := range args[1:] {
		av, verr := avm2.ExportAMF(a, v)
		if verr != nil {
			return avm2.Undefined, verr
		}
		lowered = append(lowered, av)
	}
	return avm2.ImportAMF(a, bridge(name, lowered)), nil
}

// addCallback registers a script closure under a host-visible name.
// The player exposes the registry to the container through
// CallExternal.
func externalInterfaceAddCallback(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	name := argUTF8(a, args, 0)
	fn := argObject(args, 1)
	if name == "" || fn == nil {
		return avm2.Undefined, avm2.TypeError("addCallback needs a name and a closure")
	}
	a.Avm().RegisterExternalCallback(name, func(a *avm2.Activation, callArgs []avm2.Value) avm2.Value {
		out, err := fn.Call(a, avm2.Null, callArgs)
		if err != nil {
			a.Avm().ReportUncaught("external callback "+name, err)
			return avm2.Undefined
		}
		return out
	})
	return avm2.Undefined, nil
}

// CallRegisteredCallback invokes an addCallback registration with AMF
// arguments from the container, lowering the result back to AMF.
func CallRegisteredCallback(a *avm2.Activation, name string, args []amf.Value) (amf.Value, bool) {
	cb := a.Avm().ExternalCallback(name)
	if cb == nil {
		return amf.Undefined, false
	}
	raised := make([]avm2.Value, len(args))
	for i, v := range args {
		raised[i] = avm2.ImportAMF(a, v)
	}
	out, verr := avm2.ExportAMF(a, cb(a, raised))
	if verr != nil {
		return amf.Undefined, true
	}
	return out, true
}
