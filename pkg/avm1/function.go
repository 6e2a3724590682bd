package avm1

import (
	"lantern/pkg/display"
	"lantern/pkg/gc"
	"lantern/pkg/wstr"
)

// NativeFunction is the signature of built-in methods.
type NativeFunction func(a *Activation, this Object, args []Value) (Value, error)

// Function2 register-preload flags, in wire order.
const (
	FlagPreloadThis      uint16 = 0x01
	FlagSuppressThis     uint16 = 0x02
	FlagPreloadArguments uint16 = 0x04
	FlagSuppressArgs     uint16 = 0x08
	FlagPreloadSuper     uint16 = 0x10
	FlagSuppressSuper    uint16 = 0x20
	FlagPreloadRoot      uint16 = 0x40
	FlagPreloadParent    uint16 = 0x80
	FlagPreloadGlobal    uint16 = 0x100
)

// Param is one declared parameter; Register 0 means "bind by name".
type Param struct {
	Name     wstr.WStr
	Register uint8
}

// FunctionDef is a bytecode function body plus its captured environment.
// A closure captures its defining scope chain; free-variable lookup
// walks captured scopes before falling through to the globals.
type FunctionDef struct {
	Name         string
	Params       []Param
	RegisterCount uint8
	Flags        uint16
	Data         []byte
	Scope        *Scope
	ConstantPool []wstr.WStr
	BaseClip     display.Node
	SwfVersion   uint8
}

// Executable selects between a native implementation and a bytecode
// body.
type Executable struct {
	Name   string
	Native NativeFunction
	Def    *FunctionDef
}

// FunctionObject is the callable variant.
type FunctionObject struct {
	*ScriptObject
	exec Executable
}

// NewNativeFunction builds a callable with the standard Function
// prototype and a fresh user-visible prototype object.
func NewNativeFunction(a *Activation, name string, fn NativeFunction) *FunctionObject {
	f := &FunctionObject{
		ScriptObject: NewScriptObject(a, ObjectValue(a.Avm().prototypes.Function)),
		exec:         Executable{Name: name, Native: fn},
	}
	proto := NewScriptObject(a, ObjectValue(a.Avm().prototypes.Object))
	proto.DefineValue("constructor", ObjectValue(f), AttrDontEnum)
	f.DefineValue("prototype", ObjectValue(proto), AttrDontEnum|AttrDontDelete)
	return f
}

// NewBareNativeFunction builds a callable without a user prototype, used
// for getters/setters and internal helpers.
func NewBareNativeFunction(a *Activation, name string, fn NativeFunction) *FunctionObject {
	return &FunctionObject{
		ScriptObject: NewScriptObject(a, ObjectValue(a.Avm().prototypes.Function)),
		exec:         Executable{Name: name, Native: fn},
	}
}

// NewBytecodeFunction builds a callable from a DefineFunction body.
func NewBytecodeFunction(a *Activation, def *FunctionDef) *FunctionObject {
	f := &FunctionObject{
		ScriptObject: NewScriptObject(a, ObjectValue(a.Avm().prototypes.Function)),
		exec:         Executable{Name: def.Name, Def: def},
	}
	proto := NewScriptObject(a, ObjectValue(a.Avm().prototypes.Object))
	proto.DefineValue("constructor", ObjectValue(f), AttrDontEnum)
	f.DefineValue("prototype", ObjectValue(proto), AttrDontEnum|AttrDontDelete)
	return f
}

func (f *FunctionObject) Trace(t *gc.Tracer) {
	f.ScriptObject.Trace(t)
	if def := f.exec.Def; def != nil {
		for s := def.Scope; s != nil; s = s.parent {
			t.Visit(s.values)
		}
	}
}

// Exec exposes the executable for introspection (toString, apply).
func (f *FunctionObject) Exec() *Executable { return &f.exec }

func (f *FunctionObject) Call(a *Activation, this Value, args []Value) (Value, error) {
	return f.callInternal(a, this, args, 0)
}

// callInternal carries the super depth so super.method() dispatch can
// shift resolution one level further per hop.
func (f *FunctionObject) callInternal(a *Activation, this Value, args []Value, superDepth int) (Value, error) {
	if err := a.enterCall(); err != nil {
		return Undefined, err
	}
	defer a.exitCall()

	thisObj := thisOrGlobal(a, this)

	if f.exec.Native != nil {
		// Natives see an activation that carries the receiver and the
		// dispatch depth, so super built inside one resolves correctly.
		na := a.child(f.exec.Name, a.scope, 0)
		na.this = this
		na.superDepth = superDepth
		return f.exec.Native(na, thisObj, args)
	}
	def := f.exec.Def
	if def == nil {
		return Undefined, nil
	}
	return runFunctionBody(a, f, def, thisObj, args, superDepth)
}

func thisOrGlobal(a *Activation, this Value) Object {
	if this.kind == KindObject {
		return this.o
	}
	return a.Avm().Globals()
}

func (f *FunctionObject) Construct(a *Activation, args []Value) (Value, error) {
	protoVal, err := Get(a, f, wstr.FromUTF8("prototype"))
	if err != nil {
		return Undefined, err
	}
	proto := protoVal
	if proto.kind != KindObject {
		proto = ObjectValue(a.Avm().prototypes.Object)
	}
	instance := NewScriptObject(a, proto)
	instance.DefineValue("__constructor__", ObjectValue(f), AttrDontEnum)
	if a.SwfVersion() < 7 {
		instance.DefineValue("constructor", ObjectValue(f), AttrDontEnum)
	}

	// Constructors run one level deep: the instance's prototype is
	// where extends recorded the superclass reference.
	result, err := f.callInternal(a, ObjectValue(instance), args, 1)
	if err != nil {
		return Undefined, err
	}
	// The constructed object wins unless the body returned an object.
	if result.kind == KindObject {
		return result, nil
	}
	return ObjectValue(instance), nil
}

func (f *FunctionObject) NativeData() any { return &f.exec }

// asFunction downcasts; nil for non-callables.
func asFunction(o Object) *FunctionObject {
	f, _ := o.(*FunctionObject)
	return f
}
