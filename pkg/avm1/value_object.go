package avm1

import "lantern/pkg/gc"

// ValueObject boxes a primitive. String/Number/Boolean constructors
// produce these; valueOf unwraps them.
type ValueObject struct {
	*ScriptObject
	value *gc.Cell[Value]
}

// NewValueObject wraps a primitive with the given prototype.
func NewValueObject(a *Activation, v Value, proto Value) *ValueObject {
	return &ValueObject{
		ScriptObject: NewScriptObject(a, proto),
		value:        gc.NewCell(a.Arena(), v),
	}
}

func (o *ValueObject) Trace(t *gc.Tracer) {
	o.ScriptObject.Trace(t)
	traceValue(t, o.value.Get())
}

// Unbox returns the wrapped primitive.
func (o *ValueObject) Unbox() Value { return o.value.Get() }

// SetUnboxed replaces the wrapped primitive (Number constructor called
// as a function on an existing box).
func (o *ValueObject) SetUnboxed(v Value) { o.value.Set(v) }

func (o *ValueObject) NativeData() any { return o }

// asValueObject downcasts.
func asValueObject(o Object) *ValueObject {
	vo, _ := o.(*ValueObject)
	return vo
}

// UnboxValue returns the primitive inside v when it is a boxed
// primitive, else v itself.
func UnboxValue(v Value) Value {
	if v.kind == KindObject {
		if vo := asValueObject(v.o); vo != nil {
			return vo.Unbox()
		}
	}
	return v
}
