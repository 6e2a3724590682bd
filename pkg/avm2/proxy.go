package avm2

import (
	"lantern/pkg/abc"
)

// FlashProxyNS is the namespace the proxy trap methods live in.
// Subclasses override the traps there; the dispatcher below routes
// missed property operations through them.
const FlashProxyNS = "http://www.adobe.com/2006/actionscript/flashproxy"

func proxyNamespace() *Namespace {
	return NewNamespace(abc.NsNamespace, FlashProxyNS)
}

// proxyTrapMethod resolves an overridden trap on the receiver, nil
// when the object is not a proxy or never overrode it.
func proxyTrapMethod(o Object, trap string) *Method {
	base := o.Base()
	if base.vtable == nil {
		return nil
	}
	entry := base.vtable.lookupEntry(trap, proxyNamespace())
	if entry == nil || entry.prop.Kind != PropMethod {
		return nil
	}
	m := base.vtable.Method(entry.prop.DispID)
	if m == nil || m.IsNative() {
		// The base class traps are native and throw; only a bytecode
		// override changes behavior.
		return nil
	}
	return m
}

func proxyNameValue(mn *Multiname) Value {
	return Str(mn.Name())
}

// proxyGet routes a missed read through getProperty.
func proxyGet(a *Activation, o Object, mn *Multiname) (Value, bool, error) {
	m := proxyTrapMethod(o, "getProperty")
	if m == nil {
		return Undefined, false, nil
	}
	v, err := a.Avm().executeMethod(a, m, ObjectValue(o), []Value{proxyNameValue(mn)})
	return v, true, err
}

// proxySet routes a missed write through setProperty.
func proxySet(a *Activation, o Object, mn *Multiname, v Value) (bool, error) {
	m := proxyTrapMethod(o, "setProperty")
	if m == nil {
		return false, nil
	}
	_, err := a.Avm().executeMethod(a, m, ObjectValue(o), []Value{proxyNameValue(mn), v})
	return true, err
}

// proxyDelete routes a delete through deleteProperty.
func proxyDelete(a *Activation, o Object, mn *Multiname) (bool, bool, error) {
	m := proxyTrapMethod(o, "deleteProperty")
	if m == nil {
		return false, false, nil
	}
	v, err := a.Avm().executeMethod(a, m, ObjectValue(o), []Value{proxyNameValue(mn)})
	return true, v.CoerceToBoolean(), err
}

// proxyHas routes an in test through hasProperty.
func proxyHas(a *Activation, o Object, mn *Multiname) (bool, bool) {
	m := proxyTrapMethod(o, "hasProperty")
	if m == nil {
		return false, false
	}
	v, err := a.Avm().executeMethod(a, m, ObjectValue(o), []Value{proxyNameValue(mn)})
	if err != nil {
		return true, false
	}
	return true, v.CoerceToBoolean()
}

// proxyCall routes a missed method call through callProperty.
func proxyCall(a *Activation, o Object, mn *Multiname, args []Value) (Value, bool, error) {
	m := proxyTrapMethod(o, "callProperty")
	if m == nil {
		return Undefined, false, nil
	}
	callArgs := append([]Value{proxyNameValue(mn)}, args...)
	v, err := a.Avm().executeMethod(a, m, ObjectValue(o), callArgs)
	return v, true, err
}
