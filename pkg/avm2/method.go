package avm2

import (
	"lantern/pkg/abc"
)

// NativeMethod is the Go-side implementation of a builtin method.
type NativeMethod func(a *Activation, this Value, args []Value) (Value, error)

// Method is an executable: either a bytecode method body from a unit or
// a native function. Trait installation binds a copy to the defining
// scope chain and class; the `verified` state is per bound copy but the
// verification result is cached on the unit so each body verifies once.
type Method struct {
	unit   *Unit
	index  uint32
	info   *abc.Method
	body   *abc.MethodBody
	native NativeMethod
	name   string

	scope         ScopeChain
	definingClass *Class
}

// NewNativeMethod wraps a Go function as a callable method.
func NewNativeMethod(name string, fn NativeMethod) *Method {
	return &Method{name: name, native: fn}
}

// Name returns the diagnostic name.
func (m *Method) Name() string { return m.name }

// IsNative reports a Go-implemented method.
func (m *Method) IsNative() bool { return m.native != nil }

// Unit returns the translation unit, nil for natives.
func (m *Method) Unit() *Unit { return m.unit }

// Body returns the bytecode body, nil for natives and interface stubs.
func (m *Method) Body() *abc.MethodBody { return m.body }

// Scope returns the captured scope chain.
func (m *Method) Scope() ScopeChain { return m.scope }

// DefiningClass returns the class whose trait table holds this bound
// copy; super resolution starts one level above it.
func (m *Method) DefiningClass() *Class { return m.definingClass }

// withScope returns a copy bound to a scope chain and defining class.
func (m *Method) withScope(scope ScopeChain, defining *Class) *Method {
	out := *m
	out.scope = scope
	out.definingClass = defining
	return &out
}

// ParamCount returns the declared parameter count, 0 for natives.
func (m *Method) ParamCount() int {
	if m.info == nil {
		return 0
	}
	return len(m.info.ParamTypes)
}

// NeedsRest reports the rest-argument flag.
func (m *Method) NeedsRest() bool { return m.info != nil && m.info.NeedsRest() }

// NeedsArguments reports the arguments-object flag.
func (m *Method) NeedsArguments() bool { return m.info != nil && m.info.NeedsArguments() }

// NeedsActivation reports the activation-object flag.
func (m *Method) NeedsActivation() bool { return m.info != nil && m.info.NeedsActivation() }

// coerceArgs normalizes the caller's arguments against the signature:
// missing optionals take their pool defaults, declared parameter types
// coerce, and a short call without defaults raises ArgumentError.
func (m *Method) coerceArgs(a *Activation, args []Value) ([]Value, error) {
	if m.info == nil {
		return args, nil
	}
	paramCount := len(m.info.ParamTypes)
	required := paramCount - len(m.info.Options)
	if len(args) < required {
		return nil, argumentError("argument count mismatch on %s: expected %d, got %d", m.name, required, len(args))
	}
	out := make([]Value, paramCount)
	for i := 0; i < paramCount; i++ {
		var v Value
		switch {
		case i < len(args):
			v = args[i]
		case i >= required:
			dv, err := m.unit.ConstantValue(m.info.Options[i-required])
			if err != nil {
				return nil, err
			}
			v = dv
		default:
			v = Undefined
		}
		typeName, err := m.unit.optionalMultinameAt(m.info.ParamTypes[i])
		if err != nil {
			return nil, err
		}
		if typeName != nil {
			v, err = coerceToType(a, v, typeName)
			if err != nil {
				return nil, err
			}
		}
		out[i] = v
	}
	return out, nil
}

// coerceToType applies the declared-type coercion used by slots and
// parameters. Class types beyond the primitives accept null and any
// instance; a non-instance raises TypeError.
func coerceToType(a *Activation, v Value, typeName *Multiname) (Value, error) {
	switch typeName.Name() {
	case "int":
		i, err := v.CoerceToI32(a)
		if err != nil {
			return Undefined, err
		}
		return Integer(i), nil
	case "uint":
		u, err := v.CoerceToU32(a)
		if err != nil {
			return Undefined, err
		}
		return Unsigned(u), nil
	case "Number":
		n, err := v.CoerceToNumber(a)
		if err != nil {
			return Undefined, err
		}
		return Number(n), nil
	case "Boolean":
		return Bool(v.CoerceToBoolean()), nil
	case "String":
		if v.IsNullish() {
			return Null, nil
		}
		s, err := v.CoerceToString(a)
		if err != nil {
			return Undefined, err
		}
		return String(s), nil
	case "Object", "*", "":
		return v, nil
	}
	if v.IsNullish() {
		return Null, nil
	}
	if cls := a.Avm().classFor(typeName); cls != nil {
		obj := v.AsObject()
		if obj != nil && instanceOfClass(obj, cls) {
			return v, nil
		}
		return Undefined, typeError("cannot convert value to %s", typeName.ToQualifiedString())
	}
	return v, nil
}
