package avm2

import (
	"lantern/pkg/gc"
)

// FunctionObject is the callable variant: a method plus an optional
// bound receiver. Trait methods read off an object arrive here bound;
// newfunction closures arrive unbound and take the caller's receiver.
type FunctionObject struct {
	*ScriptObject
	method   *Method
	boundTo  Value
	hasBound bool
}

// NewFunctionObject wraps a method as an unbound callable with a fresh
// user-visible prototype, the shape newfunction produces.
func NewFunctionObject(a *Activation, m *Method) *FunctionObject {
	f := &FunctionObject{
		ScriptObject: NewScriptObject(a, nil, a.Avm().functionProto()),
		method:       m,
	}
	proto := NewScriptObject(a, nil, a.Avm().objectProto())
	proto.SetDynamic("constructor", ObjectValue(f))
	f.SetDynamic("prototype", ObjectValue(proto))
	return f
}

// newBoundFunction wraps a dispatch-table method with a fixed receiver;
// reading a trait method off an instance produces one of these.
func newBoundFunction(a *Activation, m *Method, receiver Value) *FunctionObject {
	return &FunctionObject{
		ScriptObject: NewScriptObject(a, nil, a.Avm().functionProto()),
		method:       m,
		boundTo:      receiver,
		hasBound:     true,
	}
}

func (f *FunctionObject) Trace(t *gc.Tracer) {
	f.ScriptObject.Trace(t)
	traceValue(t, f.boundTo)
	if f.method != nil {
		f.method.scope.trace(t)
	}
}

// Method exposes the executable.
func (f *FunctionObject) Method() *Method { return f.method }

func (f *FunctionObject) Call(a *Activation, this Value, args []Value) (Value, error) {
	if f.hasBound {
		this = f.boundTo
	}
	return a.Avm().executeMethod(a, f.method, this, args)
}

// Construct builds a plain object inheriting from the function's
// prototype property and runs the body as a constructor, the legacy
// function-class path.
func (f *FunctionObject) Construct(a *Activation, args []Value) (Object, error) {
	protoVal, err := GetProperty(a, f, PublicName("prototype"))
	if err != nil {
		return nil, err
	}
	proto := protoVal
	if !proto.IsObject() {
		proto = a.Avm().objectProto()
	}
	instance := NewScriptObject(a, nil, proto)
	result, err := a.Avm().executeMethod(a, f.method, ObjectValue(instance), args)
	if err != nil {
		return nil, err
	}
	if obj := result.AsObject(); obj != nil {
		return obj, nil
	}
	return instance, nil
}

// asFunction downcasts; nil for non-callables.
func asFunction(o Object) *FunctionObject {
	f, _ := o.(*FunctionObject)
	return f
}

// AsFunctionObject is the exported downcast for the globals packages.
func AsFunctionObject(o Object) *FunctionObject { return asFunction(o) }
