package avm2

import (
	"strconv"

	"lantern/pkg/gc"
	"lantern/pkg/wstr"
)

// protoChainLimit bounds prototype walks; scripts can build cycles.
const protoChainLimit = 256

// Object is the capability set every AVM2 object variant exposes. The
// generic property protocol lives in the package-level functions
// (GetProperty, SetProperty, CallProperty, ...) which consult the
// vtable first and then drive these hooks; variants override the hooks
// that differ, chiefly the index fast path and call/construct.
type Object interface {
	gc.Traceable

	// Base exposes the base record every variant embeds.
	Base() *ScriptObject

	// GetIndex serves array-index reads ahead of the dynamic table.
	// The default reports a miss.
	GetIndex(a *Activation, i int) (Value, bool)

	// SetIndex serves array-index writes; false defers to the dynamic
	// table.
	SetIndex(a *Activation, i int, v Value) (bool, error)

	// DeleteIndex removes an index element when the variant owns it.
	DeleteIndex(a *Activation, i int) (bool, bool)

	// HasIndex reports index membership without reading.
	HasIndex(i int) bool

	// EnumNext advances the hasnext2 cursor; 0 terminates.
	EnumNext(a *Activation, cur int) int

	// EnumName returns the key at a cursor position.
	EnumName(a *Activation, i int) Value

	// EnumValue returns the value at a cursor position.
	EnumValue(a *Activation, i int) (Value, error)

	// Call invokes the object as a function.
	Call(a *Activation, this Value, args []Value) (Value, error)

	// Construct invokes the object as a constructor.
	Construct(a *Activation, args []Value) (Object, error)

	// NativeData exposes the variant payload for downcasts.
	NativeData() any
}

// dynMap is the dynamic-property table: a map plus insertion order so
// enumeration is deterministic.
type dynMap struct {
	entries map[string]Value
	order   []string
}

func newDynMap() dynMap {
	return dynMap{entries: make(map[string]Value)}
}

func (d *dynMap) get(name string) (Value, bool) {
	v, ok := d.entries[name]
	return v, ok
}

func (d *dynMap) set(name string, v Value) {
	if _, ok := d.entries[name]; !ok {
		d.order = append(d.order, name)
	}
	d.entries[name] = v
}

func (d *dynMap) remove(name string) bool {
	if _, ok := d.entries[name]; !ok {
		return false
	}
	delete(d.entries, name)
	for i, n := range d.order {
		if n == name {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return true
}

// ScriptObject is the plain instance record and the base of every
// variant: slot storage sized by the class vtable, a dynamic table when
// the class permits it, and a prototype link for the legacy lookup
// path.
type ScriptObject struct {
	arena   *gc.Arena
	class   *Class
	vtable  *VTable
	slots   *gc.Cell[[]Value]
	dynamic *gc.Cell[dynMap]
	proto   *gc.Cell[Value]
	bound   *gc.Cell[map[uint32]Object]
	native  any
}

// NewScriptObject allocates an instance of cls with the given
// prototype. A nil class produces a bare dynamic object, used during
// bootstrap and for activation records.
func NewScriptObject(a *Activation, cls *Class, proto Value) *ScriptObject {
	return newScriptObjectRaw(a.Arena(), cls, proto, a)
}

func newScriptObjectRaw(arena *gc.Arena, cls *Class, proto Value, a *Activation) *ScriptObject {
	vt := NewVTable()
	if cls != nil && cls.vtable != nil {
		vt = cls.vtable
	}
	o := &ScriptObject{
		arena:   arena,
		class:   cls,
		vtable:  vt,
		slots:   gc.NewCell(arena, vt.DefaultSlots()),
		dynamic: gc.NewCell(arena, newDynMap()),
		proto:   gc.NewCell(arena, proto),
		bound:   gc.NewCell(arena, map[uint32]Object(nil)),
	}
	if err := arena.Register(o, 160); err != nil && a != nil {
		a.reportOOM(err)
	}
	return o
}

func (o *ScriptObject) Base() *ScriptObject { return o }

func (o *ScriptObject) Trace(t *gc.Tracer) {
	for _, v := range o.slots.Get() {
		traceValue(t, v)
	}
	d := o.dynamic.Get()
	for _, v := range d.entries {
		traceValue(t, v)
	}
	traceValue(t, o.proto.Get())
	for _, fn := range o.bound.Get() {
		t.Visit(fn)
	}
	if tr, ok := o.native.(gc.Traceable); ok {
		t.Visit(tr)
	}
}

func traceValue(t *gc.Tracer, v Value) {
	if v.kind == KindObject {
		t.Visit(v.o)
	}
}

// Class returns the instance class; nil for bootstrap objects.
func (o *ScriptObject) Class() *Class { return o.class }

// VTable returns the resolved trait table.
func (o *ScriptObject) VTable() *VTable { return o.vtable }

// SetVTable swaps in a private table, used by activation records and
// script globals whose traits do not come from a class.
func (o *ScriptObject) SetVTable(vt *VTable) {
	o.vtable = vt
	o.slots.Set(vt.DefaultSlots())
}

// Proto returns the prototype link.
func (o *ScriptObject) Proto() Value { return o.proto.Get() }

// SetProto replaces the prototype link.
func (o *ScriptObject) SetProto(v Value) { o.proto.Set(v) }

// SlotAt reads slot storage directly, for the getslot opcode.
func (o *ScriptObject) SlotAt(id uint32) Value {
	slots := o.slots.Get()
	if int(id) >= len(slots) {
		return Undefined
	}
	return slots[id]
}

// SetSlotAt writes slot storage directly, for the setslot opcode.
func (o *ScriptObject) SetSlotAt(id uint32, v Value) {
	o.slots.Mutate(func(s *[]Value) {
		for int(id) >= len(*s) {
			*s = append(*s, Undefined)
		}
		(*s)[id] = v
	})
}

// IsSealed reports whether dynamic properties are rejected.
func (o *ScriptObject) IsSealed() bool {
	return o.class != nil && o.class.IsSealed()
}

// SetDynamic stores a public dynamic property unconditionally, for
// natives building objects.
func (o *ScriptObject) SetDynamic(name string, v Value) {
	o.dynamic.Mutate(func(d *dynMap) { d.set(name, v) })
}

// GetDynamic reads the dynamic table directly.
func (o *ScriptObject) GetDynamic(name string) (Value, bool) {
	d := o.dynamic.Get()
	return d.get(name)
}

// DeleteDynamic removes a dynamic property, reporting whether it was
// present.
func (o *ScriptObject) DeleteDynamic(name string) bool {
	removed := false
	o.dynamic.Mutate(func(d *dynMap) { removed = d.remove(name) })
	return removed
}

// DynamicKeys returns the enumerable key list in insertion order.
func (o *ScriptObject) DynamicKeys() []string {
	d := o.dynamic.Get()
	return append([]string(nil), d.order...)
}

func (o *ScriptObject) GetIndex(a *Activation, i int) (Value, bool) { return Undefined, false }

func (o *ScriptObject) SetIndex(a *Activation, i int, v Value) (bool, error) { return false, nil }

func (o *ScriptObject) DeleteIndex(a *Activation, i int) (bool, bool) { return false, false }

func (o *ScriptObject) HasIndex(i int) bool { return false }

// EnumNext walks the dynamic table in insertion order; cursors are
// 1-based per the hasnext2 protocol.
func (o *ScriptObject) EnumNext(a *Activation, cur int) int {
	d := o.dynamic.Get()
	if cur < len(d.order) {
		return cur + 1
	}
	return 0
}

func (o *ScriptObject) EnumName(a *Activation, i int) Value {
	d := o.dynamic.Get()
	if i >= 1 && i <= len(d.order) {
		return Str(d.order[i-1])
	}
	return Undefined
}

func (o *ScriptObject) EnumValue(a *Activation, i int) (Value, error) {
	d := o.dynamic.Get()
	if i >= 1 && i <= len(d.order) {
		if v, ok := d.get(d.order[i-1]); ok {
			return v, nil
		}
	}
	return Undefined, nil
}

func (o *ScriptObject) Call(a *Activation, this Value, args []Value) (Value, error) {
	return Undefined, typeError("value is not a function")
}

func (o *ScriptObject) Construct(a *Activation, args []Value) (Object, error) {
	return nil, typeError("value is not a constructor")
}

func (o *ScriptObject) NativeData() any { return o.native }

// SetNativeData installs the variant payload.
func (o *ScriptObject) SetNativeData(data any) { o.native = data }

// boundMethodFor returns the closure for a dispatch-table method,
// allocating it once per object so repeated reads observe the same
// function identity.
func (o *ScriptObject) boundMethodFor(a *Activation, self Object, disp uint32) (Object, error) {
	if cached := o.bound.Get()[disp]; cached != nil {
		return cached, nil
	}
	m := o.vtable.Method(disp)
	if m == nil {
		return nil, referenceError("method %d missing from dispatch table", disp)
	}
	fn := newBoundFunction(a, m, ObjectValue(self))
	o.bound.Mutate(func(b *map[uint32]Object) {
		if *b == nil {
			*b = make(map[uint32]Object)
		}
		(*b)[disp] = fn
	})
	return fn, nil
}

// asIndex reports whether a local name is a non-negative array index.
func asIndex(name string) (int, bool) {
	if name == "" || (len(name) > 1 && name[0] == '0') {
		return 0, false
	}
	n, err := strconv.Atoi(name)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// instanceOfClass walks the instance's class chain and applied
// interfaces.
func instanceOfClass(o Object, cls *Class) bool {
	c := o.Base().class
	for ; c != nil; c = c.super {
		if c == cls {
			return true
		}
		for _, iface := range c.interfaces {
			if iface == cls {
				return true
			}
		}
	}
	return false
}

// className names an object's class for diagnostics.
func className(o Object) string {
	if o == nil {
		return "null"
	}
	if c := o.Base().class; c != nil {
		return c.Name()
	}
	return "Object"
}

// wstrToKey narrows a runtime string to the UTF-8 key space the
// dynamic tables use.
func wstrToKey(s wstr.WStr) string { return s.ToUTF8() }
