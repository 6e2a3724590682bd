package avm2

import (
	"lantern/pkg/abc"
	"lantern/pkg/gc"
)

// Allocator builds an uninitialized instance of a class, selecting the
// object variant. Builtin classes install their own; everything else
// inherits the nearest ancestor's.
type Allocator func(a *Activation, cls *Class, proto Value) (Object, error)

// scriptAllocator is the plain-object allocator.
func scriptAllocator(a *Activation, cls *Class, proto Value) (Object, error) {
	return NewScriptObject(a, cls, proto), nil
}

// Class is the shared definition: name, chain, resolved instance
// traits, initializers, and the allocator variant. The script-visible
// class value is the ClassObject built from it.
type Class struct {
	name        string
	ns          *Namespace
	super       *Class
	flags       uint8
	protectedNs *Namespace
	interfaces  []*Class

	vtable       *VTable // instance traits, super table applied first
	instanceInit *Method
	nativeInit   NativeMethod // runs subclass-to-base when set
	classInit    *Method
	callHandler  NativeMethod // explicit-coercion call, Type(x)

	allocator Allocator
	unit      *Unit
	abcTraits []abc.Trait // static traits, applied to the class object
	depth     int

	classObject *ClassObject
}

// Class flags, mirroring the bytecode instance flags, exported for the
// builtin library.
const (
	ClassFlagSealed    = abc.InstanceSealed
	ClassFlagFinal     = abc.InstanceFinal
	ClassFlagInterface = abc.InstanceInterface
)

// NewClass builds a class definition outside any bytecode unit. The
// builtin library constructs its classes this way.
func NewClass(name string, ns *Namespace, super *Class, flags uint8) *Class {
	cls := &Class{name: name, ns: ns, super: super, flags: flags}
	if super != nil {
		cls.vtable = super.vtable.Dup()
		cls.depth = super.depth + 1
		cls.interfaces = super.interfaces
	} else {
		cls.vtable = NewVTable()
	}
	return cls
}

// AddInterface records an implemented interface.
func (c *Class) AddInterface(iface *Class) {
	c.interfaces = append(c.interfaces, iface)
}

// Name returns the local class name.
func (c *Class) Name() string { return c.name }

// QualifiedName renders ns::name.
func (c *Class) QualifiedName() string {
	if c.ns != nil && c.ns.URI != "" {
		return c.ns.URI + "::" + c.name
	}
	return c.name
}

// Namespace returns the defining namespace.
func (c *Class) Namespace() *Namespace { return c.ns }

// Super returns the superclass, nil for Object.
func (c *Class) Super() *Class { return c.super }

// VTable returns the resolved instance trait table.
func (c *Class) VTable() *VTable { return c.vtable }

// IsSealed reports whether instances reject dynamic properties.
func (c *Class) IsSealed() bool { return c.flags&abc.InstanceSealed != 0 }

// IsFinal reports whether the class forbids subclasses.
func (c *Class) IsFinal() bool { return c.flags&abc.InstanceFinal != 0 }

// IsInterface reports an interface definition.
func (c *Class) IsInterface() bool { return c.flags&abc.InstanceInterface != 0 }

// Depth returns the chain length, 0 for Object; super dispatch indexes
// by it.
func (c *Class) Depth() int { return c.depth }

// ClassObject returns the script-visible class value, nil before the
// defining script materializes it.
func (c *Class) ClassObject() *ClassObject { return c.classObject }

// SetAllocator overrides the instance allocator.
func (c *Class) SetAllocator(alloc Allocator) { c.allocator = alloc }

// SetNativeInit installs a native instance initializer.
func (c *Class) SetNativeInit(fn NativeMethod) { c.nativeInit = fn }

// SetCallHandler installs the explicit-coercion behavior of calling
// the class as a function.
func (c *Class) SetCallHandler(fn NativeMethod) { c.callHandler = fn }

// DefineMethod installs a native instance method.
func (c *Class) DefineMethod(ns *Namespace, name string, fn NativeMethod) {
	m := NewNativeMethod(name, fn)
	m.definingClass = c
	disp := c.vtable.addMethod(m)
	c.vtable.insert(name, ns, Property{Kind: PropMethod, DispID: disp})
}

// DefineGetter installs a native getter, merging with an existing
// setter half.
func (c *Class) DefineGetter(ns *Namespace, name string, fn NativeMethod) {
	c.defineAccessor(ns, name, fn, true)
}

// DefineSetter installs a native setter, merging with an existing
// getter half.
func (c *Class) DefineSetter(ns *Namespace, name string, fn NativeMethod) {
	c.defineAccessor(ns, name, fn, false)
}

func (c *Class) defineAccessor(ns *Namespace, name string, fn NativeMethod, getter bool) {
	m := NewNativeMethod(name, fn)
	m.definingClass = c
	disp := int(c.vtable.addMethod(m))
	prop := Property{Kind: PropVirtual, GetID: -1, SetID: -1}
	if e := c.vtable.lookupEntry(name, ns); e != nil && e.prop.Kind == PropVirtual {
		prop = e.prop
	}
	if getter {
		prop.GetID = disp
	} else {
		prop.SetID = disp
	}
	c.vtable.insert(name, ns, prop)
}

// DefineSlot reserves a typed slot trait on instances.
func (c *Class) DefineSlot(ns *Namespace, name string, typeName *Multiname, def Value) uint32 {
	id := c.vtable.allocSlot(0, slotInfo{typeName: typeName, defaultValue: def, hasDefault: true})
	c.vtable.insert(name, ns, Property{Kind: PropSlot, SlotID: id})
	return id
}

// runInstanceInit drives the initializer: native chains run
// subclass-to-base, bytecode bodies run directly and reach the base
// through the constructsuper opcode.
func (c *Class) runInstanceInit(a *Activation, this Value, args []Value) error {
	if c.nativeInit != nil || (c.instanceInit == nil && c.super != nil) {
		for cls := c; cls != nil; cls = cls.super {
			if cls.nativeInit != nil {
				if _, err := cls.nativeInit(a, this, args); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if c.instanceInit != nil {
		_, err := a.Avm().executeMethod(a, c.instanceInit, this, args)
		return err
	}
	return nil
}

// ClassObject is the script-visible class value: callable for explicit
// coercion, constructable for instantiation, and the holder of the
// static traits and the prototype object.
type ClassObject struct {
	*ScriptObject
	class     *Class
	prototype Object
	scope     ScopeChain
}

// NewClassObject materializes the class value: builds the prototype
// (linked to the superclass prototype), applies static traits, and runs
// the class initializer.
func NewClassObject(a *Activation, cls *Class, scope ScopeChain) (*ClassObject, error) {
	if cls.classObject != nil {
		return cls.classObject, nil
	}
	var protoParent Value = Null
	if cls.super != nil {
		superObj, err := NewClassObject(a, cls.super, scope)
		if err != nil {
			return nil, err
		}
		protoParent = ObjectValue(superObj.prototype)
	}
	proto := NewScriptObject(a, nil, protoParent)
	co := &ClassObject{
		ScriptObject: NewScriptObject(a, nil, a.Avm().classProto()),
		class:        cls,
		prototype:    proto,
		scope:        scope,
	}
	co.native = cls
	cls.classObject = co

	staticVT := NewVTable()
	if cls.unit != nil && len(cls.abcTraits) > 0 {
		if err := staticVT.InstallTraits(a, cls.unit, cls.abcTraits, scope, nil); err != nil {
			return nil, err
		}
	}
	co.SetVTable(staticVT)
	co.SetDynamic("prototype", ObjectValue(proto))
	proto.SetDynamic("constructor", ObjectValue(co))

	if cls.classInit != nil {
		if _, err := a.Avm().executeMethod(a, cls.classInit.withScope(scope, nil), ObjectValue(co), nil); err != nil {
			return nil, err
		}
	}
	return co, nil
}

func (co *ClassObject) Trace(t *gc.Tracer) {
	co.ScriptObject.Trace(t)
	if co.prototype != nil {
		t.Visit(co.prototype)
	}
	co.scope.trace(t)
}

// InnerClass returns the definition.
func (co *ClassObject) InnerClass() *Class { return co.class }

// Prototype returns the prototype object shared by instances.
func (co *ClassObject) Prototype() Object { return co.prototype }

// Call coerces the argument to the class, the published behavior of
// `Type(value)`.
func (co *ClassObject) Call(a *Activation, this Value, args []Value) (Value, error) {
	if co.class.callHandler != nil {
		return co.class.callHandler(a, this, args)
	}
	if len(args) == 0 {
		return Null, nil
	}
	arg := args[0]
	if obj := arg.AsObject(); obj != nil && instanceOfClass(obj, co.class) {
		return arg, nil
	}
	if arg.IsNullish() {
		return Null, nil
	}
	return Undefined, typeError("cannot convert value to %s", co.class.QualifiedName())
}

// Construct allocates and initializes an instance.
func (co *ClassObject) Construct(a *Activation, args []Value) (Object, error) {
	cls := co.class
	if cls.IsInterface() {
		return nil, typeError("interface %s cannot be instantiated", cls.QualifiedName())
	}
	alloc := cls.allocator
	for c := cls; alloc == nil && c != nil; c = c.super {
		alloc = c.allocator
	}
	if alloc == nil {
		alloc = scriptAllocator
	}
	obj, err := alloc(a, cls, ObjectValue(co.prototype))
	if err != nil {
		return nil, err
	}
	if err := cls.runInstanceInit(a, ObjectValue(obj), args); err != nil {
		return nil, err
	}
	return obj, nil
}

// asClassObject downcasts.
func asClassObject(o Object) *ClassObject {
	co, _ := o.(*ClassObject)
	return co
}
