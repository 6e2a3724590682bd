package avm1

import (
	"lantern/pkg/gc"
	"lantern/pkg/wstr"
)

// SuperObject is the one-shot wrapper around this that shifts property
// and method resolution one level up the prototype chain. The depth
// makes nested super.super work. Property definition and enumeration
// are blocked.
type SuperObject struct {
	*ScriptObject
	this  Object
	depth int
}

// NewSuperObject wraps this at the given depth (0 = skip the receiver's
// own prototype level once).
func NewSuperObject(a *Activation, this Object, depth int) *SuperObject {
	return &SuperObject{
		ScriptObject: NewScriptObject(a, Undefined),
		this:         this,
		depth:        depth,
	}
}

func (s *SuperObject) Trace(t *gc.Tracer) {
	s.ScriptObject.Trace(t)
	t.Visit(s.this)
}

// This returns the wrapped receiver.
func (s *SuperObject) This() Object { return s.this }

// Depth returns the resolution shift.
func (s *SuperObject) Depth() int { return s.depth }

// baseProto walks depth levels up from the receiver: the level the
// currently-executing method was found on.
func (s *SuperObject) baseProto(a *Activation) Object {
	cur := s.this
	for i := 0; i < s.depth && cur != nil; i++ {
		cur = nextProto(a, cur)
	}
	return cur
}

// Proto returns the prototype one level above the executing method's
// level, which is where every property access through this wrapper
// starts.
func (s *SuperObject) Proto(a *Activation) Value {
	base := s.baseProto(a)
	if base == nil {
		return Undefined
	}
	return base.Proto(a)
}

// GetLocalStored never answers: the wrapper has no own properties.
func (s *SuperObject) GetLocalStored(a *Activation, name wstr.WStr) (Value, bool) {
	return Undefined, false
}

// SetLocal is blocked; stores through super are dropped.
func (s *SuperObject) SetLocal(a *Activation, name wstr.WStr, v Value, this Object) error {
	return nil
}

// DeleteLocal is blocked.
func (s *SuperObject) DeleteLocal(a *Activation, name wstr.WStr) bool { return false }

// Call invokes the superclass constructor with the wrapped receiver.
// The constructor reference lives on the executing method's own level.
func (s *SuperObject) Call(a *Activation, this Value, args []Value) (Value, error) {
	base := s.baseProto(a)
	if base == nil {
		return Undefined, nil
	}
	ctorVal, err := Get(a, base, wstr.FromUTF8("__constructor__"))
	if err != nil {
		return Undefined, err
	}
	ctor := asFunctionValue(ctorVal)
	if ctor == nil {
		return Undefined, nil
	}
	return ctor.callInternal(a, ObjectValue(s.this), args, s.depth+1)
}

func (s *SuperObject) Construct(a *Activation, args []Value) (Value, error) {
	_, err := s.Call(a, Undefined, args)
	return Undefined, err
}

func (s *SuperObject) NativeData() any { return s }

// asSuper downcasts.
func asSuper(o Object) *SuperObject {
	so, _ := o.(*SuperObject)
	return so
}

func asFunctionValue(v Value) *FunctionObject {
	if v.kind != KindObject {
		return nil
	}
	return asFunction(v.o)
}

// CallMethodOn resolves and invokes obj.name(args) while keeping super
// dispatch depth correct: calls through a super wrapper execute with
// the wrapped receiver and a deeper super for the next hop.
func CallMethodOn(a *Activation, obj Object, name wstr.WStr, args []Value) (Value, error) {
	if sup := asSuper(obj); sup != nil {
		method, depth, err := GetWithDepth(a, sup, name)
		if err != nil {
			return Undefined, err
		}
		fn := asFunctionValue(method)
		if fn == nil {
			return Undefined, nil
		}
		// depth counted the wrapper itself as level zero; add the
		// wrapped method's own level to make it absolute again.
		return fn.callInternal(a, ObjectValue(sup.this), args, sup.depth+depth)
	}
	return CallMethod(a, obj, name, ObjectValue(obj), args)
}
