package avm2

// GetProperty resolves a multiname read: traits first, then the index
// fast path, then the dynamic table, then the prototype chain. A miss
// on a sealed class raises ReferenceError; dynamic classes yield
// undefined.
func GetProperty(a *Activation, o Object, mn *Multiname) (Value, error) {
	base := o.Base()
	if prop, ok := base.vtable.Resolve(mn); ok {
		return readTrait(a, o, prop)
	}
	if mn.ContainsPublic() && !mn.IsAnyName() {
		if idx, ok := asIndex(mn.Name()); ok {
			if v, ok := o.GetIndex(a, idx); ok {
				return v, nil
			}
		}
		if v, ok := base.GetDynamic(mn.Name()); ok {
			return v, nil
		}
		if v, ok := protoLookup(a, base, mn.Name()); ok {
			return v, nil
		}
	}
	switch base.native.(type) {
	case *XMLData, *XMLListData:
		if v, ok := XMLPropertyGet(a, o, mn); ok {
			return v, nil
		}
	}
	if v, handled, err := proxyGet(a, o, mn); handled {
		return v, err
	}
	if base.IsSealed() {
		return Undefined, referenceError("property %s not found on %s and there is no default value", mn.ToQualifiedString(), className(o))
	}
	return Undefined, nil
}

func readTrait(a *Activation, o Object, prop Property) (Value, error) {
	base := o.Base()
	switch prop.Kind {
	case PropSlot, PropConstSlot:
		return base.SlotAt(prop.SlotID), nil
	case PropMethod:
		fn, err := base.boundMethodFor(a, o, prop.DispID)
		if err != nil {
			return Undefined, err
		}
		return ObjectValue(fn), nil
	case PropVirtual:
		if prop.GetID < 0 {
			return Undefined, referenceError("property is write-only")
		}
		m := base.vtable.Method(uint32(prop.GetID))
		return a.Avm().executeMethod(a, m, ObjectValue(o), nil)
	}
	return Undefined, nil
}

func protoLookup(a *Activation, base *ScriptObject, name string) (Value, bool) {
	proto := base.Proto()
	for depth := 0; depth < protoChainLimit && proto.IsObject(); depth++ {
		pb := proto.AsObject().Base()
		if v, ok := pb.GetDynamic(name); ok {
			return v, true
		}
		proto = pb.Proto()
	}
	return Undefined, false
}

// SetProperty resolves a multiname write. Read-only dispositions
// (const slots, getter-only virtuals, methods) are silent no-ops;
// unknown names on sealed classes raise ReferenceError.
func SetProperty(a *Activation, o Object, mn *Multiname, v Value) error {
	return setProperty(a, o, mn, v, false)
}

// InitProperty is the initializer form: it may write const slots, which
// the initproperty opcode uses while running constructors and script
// initializers.
func InitProperty(a *Activation, o Object, mn *Multiname, v Value) error {
	return setProperty(a, o, mn, v, true)
}

func setProperty(a *Activation, o Object, mn *Multiname, v Value, init bool) error {
	base := o.Base()
	if prop, ok := base.vtable.Resolve(mn); ok {
		switch prop.Kind {
		case PropSlot:
			return writeSlot(a, base, prop.SlotID, v)
		case PropConstSlot:
			if init {
				return writeSlot(a, base, prop.SlotID, v)
			}
			return nil
		case PropMethod:
			return nil
		case PropVirtual:
			if prop.SetID < 0 {
				return nil
			}
			m := base.vtable.Method(uint32(prop.SetID))
			_, err := a.Avm().executeMethod(a, m, ObjectValue(o), []Value{v})
			return err
		}
		return nil
	}
	if mn.ContainsPublic() && !mn.IsAnyName() {
		if idx, ok := asIndex(mn.Name()); ok {
			handled, err := o.SetIndex(a, idx, v)
			if err != nil || handled {
				return err
			}
		}
		if !base.IsSealed() {
			base.SetDynamic(mn.Name(), v)
			return nil
		}
	}
	if handled, err := proxySet(a, o, mn, v); handled {
		return err
	}
	return referenceError("cannot create property %s on %s", mn.ToQualifiedString(), className(o))
}

func writeSlot(a *Activation, base *ScriptObject, id uint32, v Value) error {
	if info := base.vtable.Slot(id); info != nil && info.typeName != nil {
		coerced, err := coerceToType(a, v, info.typeName)
		if err != nil {
			return err
		}
		v = coerced
	}
	base.SetSlotAt(id, v)
	return nil
}

// DeleteProperty removes a dynamic property. Traits are undeletable
// and report false.
func DeleteProperty(a *Activation, o Object, mn *Multiname) (bool, error) {
	base := o.Base()
	if _, ok := base.vtable.Resolve(mn); ok {
		return false, nil
	}
	if handled, removed, err := proxyDelete(a, o, mn); handled {
		return removed, err
	}
	if mn.ContainsPublic() && !mn.IsAnyName() {
		if idx, ok := asIndex(mn.Name()); ok {
			if handled, removed := o.DeleteIndex(a, idx); handled {
				return removed, nil
			}
		}
		removed := false
		base.dynamic.Mutate(func(d *dynMap) {
			removed = d.remove(mn.Name())
		})
		if removed {
			return true, nil
		}
		return !base.IsSealed(), nil
	}
	return false, nil
}

// HasProperty reports membership across traits, indices, the dynamic
// table, and the prototype chain.
func HasProperty(a *Activation, o Object, mn *Multiname) bool {
	base := o.Base()
	if base.vtable.Has(mn) {
		return true
	}
	if mn.ContainsPublic() && !mn.IsAnyName() {
		if idx, ok := asIndex(mn.Name()); ok && o.HasIndex(idx) {
			return true
		}
		if _, ok := base.GetDynamic(mn.Name()); ok {
			return true
		}
		if _, ok := protoLookup(a, base, mn.Name()); ok {
			return true
		}
	}
	if handled, has := proxyHas(a, o, mn); handled {
		return has
	}
	return false
}

// HasOwnProperty is HasProperty without the prototype walk.
func HasOwnProperty(a *Activation, o Object, mn *Multiname) bool {
	base := o.Base()
	if base.vtable.Has(mn) {
		return true
	}
	if mn.ContainsPublic() && !mn.IsAnyName() {
		if idx, ok := asIndex(mn.Name()); ok && o.HasIndex(idx) {
			return true
		}
		if _, ok := base.GetDynamic(mn.Name()); ok {
			return true
		}
	}
	return false
}

// CallProperty invokes a named method: dispatch-table methods run
// directly without materializing a closure; everything else reads the
// value and calls it.
func CallProperty(a *Activation, o Object, mn *Multiname, args []Value) (Value, error) {
	base := o.Base()
	if prop, ok := base.vtable.Resolve(mn); ok && prop.Kind == PropMethod {
		m := base.vtable.Method(prop.DispID)
		if m == nil {
			return Undefined, referenceError("method %s missing from dispatch table", mn.ToQualifiedString())
		}
		return a.Avm().executeMethod(a, m, ObjectValue(o), args)
	}
	dynHit := false
	if mn.ContainsPublic() && !mn.IsAnyName() {
		_, dynHit = base.GetDynamic(mn.Name())
	}
	if _, found := base.vtable.Resolve(mn); !found && !dynHit {
		if v, handled, err := proxyCall(a, o, mn, args); handled {
			return v, err
		}
	}
	fn, err := GetProperty(a, o, mn)
	if err != nil {
		return Undefined, err
	}
	callee := fn.AsObject()
	if callee == nil {
		return Undefined, typeError("value of %s is not a function", mn.ToQualifiedString())
	}
	return callee.Call(a, ObjectValue(o), args)
}

// ConstructProperty resolves a named constructor and instantiates it.
func ConstructProperty(a *Activation, o Object, mn *Multiname, args []Value) (Object, error) {
	ctor, err := GetProperty(a, o, mn)
	if err != nil {
		return nil, err
	}
	obj := ctor.AsObject()
	if obj == nil {
		return nil, typeError("%s is not a constructor", mn.ToQualifiedString())
	}
	return obj.Construct(a, args)
}

// superVTable returns the trait table one level above the method's
// defining class, the resolution base for the super opcodes.
func superVTable(a *Activation) (*VTable, error) {
	defining := a.method().DefiningClass()
	if defining == nil || defining.super == nil {
		return nil, referenceError("super access outside a subclass method")
	}
	return defining.super.vtable, nil
}

// GetSuper reads a property resolving traits on the superclass while
// keeping `this` bound to the receiver.
func GetSuper(a *Activation, o Object, mn *Multiname) (Value, error) {
	vt, err := superVTable(a)
	if err != nil {
		return Undefined, err
	}
	prop, ok := vt.Resolve(mn)
	if !ok {
		return Undefined, referenceError("super property %s not found", mn.ToQualifiedString())
	}
	switch prop.Kind {
	case PropSlot, PropConstSlot:
		return o.Base().SlotAt(prop.SlotID), nil
	case PropMethod:
		m := vt.Method(prop.DispID)
		return ObjectValue(newBoundFunction(a, m, ObjectValue(o))), nil
	case PropVirtual:
		if prop.GetID < 0 {
			return Undefined, referenceError("super property is write-only")
		}
		return a.Avm().executeMethod(a, vt.Method(uint32(prop.GetID)), ObjectValue(o), nil)
	}
	return Undefined, nil
}

// SetSuper writes a property resolving traits on the superclass.
func SetSuper(a *Activation, o Object, mn *Multiname, v Value) error {
	vt, err := superVTable(a)
	if err != nil {
		return err
	}
	prop, ok := vt.Resolve(mn)
	if !ok {
		return referenceError("super property %s not found", mn.ToQualifiedString())
	}
	switch prop.Kind {
	case PropSlot:
		return writeSlot(a, o.Base(), prop.SlotID, v)
	case PropVirtual:
		if prop.SetID < 0 {
			return nil
		}
		_, err := a.Avm().executeMethod(a, vt.Method(uint32(prop.SetID)), ObjectValue(o), []Value{v})
		return err
	}
	return nil
}

// CallSuper invokes the superclass implementation of a method with the
// receiver unchanged, the super-dispatch behavior of the call chain.
func CallSuper(a *Activation, o Object, mn *Multiname, args []Value) (Value, error) {
	vt, err := superVTable(a)
	if err != nil {
		return Undefined, err
	}
	prop, ok := vt.Resolve(mn)
	if !ok || prop.Kind != PropMethod {
		return Undefined, referenceError("super method %s not found", mn.ToQualifiedString())
	}
	m := vt.Method(prop.DispID)
	return a.Avm().executeMethod(a, m, ObjectValue(o), args)
}
