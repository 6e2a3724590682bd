package avm1

import (
	"lantern/pkg/gc"
	"lantern/pkg/wstr"
)

// protoChainLimit bounds prototype walks; scripts can and do build
// cyclic chains.
const protoChainLimit = 256

// Object is the capability set every AVM1 object variant exposes.
// Generic property-protocol logic lives in the package-level functions
// (Get, Set, Delete, ...) which drive these hooks; variants override the
// hooks that differ.
type Object interface {
	gc.Traceable

	// Raw exposes the base record every variant embeds.
	Raw() *ScriptObject

	// GetLocalStored returns an own stored value, including variant
	// magicals (path and display properties on stage objects). It never
	// invokes getters and never walks the prototype.
	GetLocalStored(a *Activation, name wstr.WStr) (Value, bool)

	// SetLocal defines or assigns on the own object after the generic
	// protocol has ruled out existing own entries and chain setters.
	SetLocal(a *Activation, name wstr.WStr, v Value, this Object) error

	// DeleteLocal removes an own property, honoring DONT_DELETE.
	DeleteLocal(a *Activation, name wstr.WStr) bool

	// Proto returns the prototype link. The super variant shifts it one
	// level up.
	Proto(a *Activation) Value

	// Call invokes the object as a function; non-callables yield
	// undefined, matching the error-suppressing failure model.
	Call(a *Activation, this Value, args []Value) (Value, error)

	// Construct invokes the object as a constructor.
	Construct(a *Activation, args []Value) (Value, error)

	// NativeData exposes the variant payload for downcasts.
	NativeData() any
}

// Watcher is the single watch registered per object/property pair.
type Watcher struct {
	name     wstr.WStr
	callback Object
	userData Value
}

// ScriptObject is the plain property-table object and the base record
// of every variant.
type ScriptObject struct {
	arena      *gc.Arena
	table      *gc.Cell[propertyTable]
	proto      *gc.Cell[Value]
	interfaces *gc.Cell[[]Object]
	watchers   *gc.Cell[[]*Watcher]
	native     any
}

// NewScriptObject allocates a plain object with the given prototype.
// Allocation failure is reported through the activation's OOM path.
func NewScriptObject(a *Activation, proto Value) *ScriptObject {
	return newScriptObjectRaw(a.Arena(), proto, a)
}

func newScriptObjectRaw(arena *gc.Arena, proto Value, a *Activation) *ScriptObject {
	o := &ScriptObject{
		arena:      arena,
		table:      gc.NewCell(arena, newPropertyTable()),
		proto:      gc.NewCell(arena, proto),
		interfaces: gc.NewCell(arena, []Object(nil)),
		watchers:   gc.NewCell(arena, []*Watcher(nil)),
	}
	if err := arena.Register(o, 128); err != nil && a != nil {
		a.reportOOM(err)
	}
	return o
}

func (o *ScriptObject) Raw() *ScriptObject { return o }

func (o *ScriptObject) Trace(t *gc.Tracer) {
	for _, e := range o.table.Get().entries {
		traceValue(t, e.prop.value)
		if e.prop.getter != nil {
			t.Visit(e.prop.getter)
		}
		if e.prop.setter != nil {
			t.Visit(e.prop.setter)
		}
	}
	traceValue(t, o.proto.Get())
	for _, iface := range o.interfaces.Get() {
		t.Visit(iface)
	}
	for _, w := range o.watchers.Get() {
		t.Visit(w.callback)
		traceValue(t, w.userData)
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

func (o *ScriptObject) GetLocalStored(a *Activation, name wstr.WStr) (Value, bool) {
	e := o.lookup(a, name)
	if e == nil || e.prop.IsVirtual() {
		return Undefined, false
	}
	return e.prop.value, true
}

func (o *ScriptObject) lookup(a *Activation, name wstr.WStr) *propEntry {
	e := o.table.Borrow().lookup(name, a.IsCaseSensitive())
	if e == nil || !e.prop.attrs.visibleIn(a.SwfVersion()) {
		return nil
	}
	return e
}

func (o *ScriptObject) SetLocal(a *Activation, name wstr.WStr, v Value, this Object) error {
	return o.setOwn(a, name, v, this)
}

// setOwn assigns into the own table: routes virtual setters, honors
// READ_ONLY, and fires watchers on plain stores.
func (o *ScriptObject) setOwn(a *Activation, name wstr.WStr, v Value, this Object) error {
	if e := o.lookup(a, name); e != nil {
		if e.prop.IsVirtual() {
			if e.prop.setter != nil {
				_, err := e.prop.setter.Call(a, ObjectValue(this), []Value{v})
				return err
			}
			return nil // getter-only: silent no-op
		}
		v = o.callWatcher(a, name, e.prop.value, v, this)
		o.table.Mutate(func(t *propertyTable) {
			e.prop.setData(v)
		})
		return nil
	}
	v = o.callWatcher(a, name, Undefined, v, this)
	o.table.Mutate(func(t *propertyTable) {
		t.insert(name, StoredProperty(v, 0), a.IsCaseSensitive())
	})
	return nil
}

func (o *ScriptObject) callWatcher(a *Activation, name wstr.WStr, old, new Value, this Object) Value {
	for _, w := range o.watchers.Get() {
		match := w.name.Eq(name)
		if !a.IsCaseSensitive() {
			match = w.name.EqIgnoreCase(name)
		}
		if match {
			args := []Value{String(name), old, new, w.userData}
			result, err := w.callback.Call(a, ObjectValue(this), args)
			if err != nil {
				return new
			}
			return result
		}
	}
	return new
}

func (o *ScriptObject) DeleteLocal(a *Activation, name wstr.WStr) bool {
	e := o.lookup(a, name)
	if e == nil || !e.prop.CanDelete() {
		return false
	}
	removed := false
	o.table.Mutate(func(t *propertyTable) {
		removed = t.remove(name, a.IsCaseSensitive())
	})
	return removed
}

func (o *ScriptObject) Proto(a *Activation) Value { return o.proto.Get() }

// SetProto replaces the prototype link (__proto__ assignment).
func (o *ScriptObject) SetProto(v Value) { o.proto.Set(v) }

func (o *ScriptObject) Call(a *Activation, this Value, args []Value) (Value, error) {
	return Undefined, nil
}

func (o *ScriptObject) Construct(a *Activation, args []Value) (Value, error) {
	return Undefined, nil
}

func (o *ScriptObject) NativeData() any { return o.native }

// SetNativeData installs the variant payload.
func (o *ScriptObject) SetNativeData(data any) { o.native = data }

// DefineValue installs a stored property with attributes, the builtin
// installation path.
func (o *ScriptObject) DefineValue(name string, v Value, attrs Attr) {
	o.table.Mutate(func(t *propertyTable) {
		t.insert(wstr.FromUTF8(name), StoredProperty(v, attrs), true)
	})
}

// DefineVirtual installs a getter/setter property.
func (o *ScriptObject) DefineVirtual(name string, getter, setter Object, attrs Attr) {
	o.table.Mutate(func(t *propertyTable) {
		t.insert(wstr.FromUTF8(name), VirtualProperty(getter, setter, attrs), true)
	})
}

// SetAttributes rewrites attribute bits on one property or, with an
// empty name, on every property (the ASSetPropFlags contract).
func (o *ScriptObject) SetAttributes(a *Activation, name wstr.WStr, set, clear Attr) {
	o.table.Mutate(func(t *propertyTable) {
		if name.IsEmpty() {
			for _, e := range t.entries {
				e.prop.attrs = (e.prop.attrs &^ clear) | set
			}
			return
		}
		if e := t.lookup(name, a.IsCaseSensitive()); e != nil {
			e.prop.attrs = (e.prop.attrs &^ clear) | set
		}
	})
}

// Watch installs the watcher for a property, replacing any previous one.
func (o *ScriptObject) Watch(a *Activation, name wstr.WStr, callback Object, userData Value) {
	o.watchers.Mutate(func(ws *[]*Watcher) {
		for i, w := range *ws {
			if w.name.EqIgnoreCase(name) {
				(*ws)[i] = &Watcher{name: name, callback: callback, userData: userData}
				return
			}
		}
		*ws = append(*ws, &Watcher{name: name, callback: callback, userData: userData})
	})
}

// Unwatch removes a watcher; reports whether one existed.
func (o *ScriptObject) Unwatch(a *Activation, name wstr.WStr) bool {
	removed := false
	o.watchers.Mutate(func(ws *[]*Watcher) {
		for i, w := range *ws {
			if w.name.EqIgnoreCase(name) {
				*ws = append((*ws)[:i], (*ws)[i+1:]...)
				removed = true
				return
			}
		}
	})
	return removed
}

// AddInterface records an implemented interface constructor for
// instanceof checks.
func (o *ScriptObject) AddInterface(iface Object) {
	o.interfaces.Mutate(func(list *[]Object) {
		*list = append(*list, iface)
	})
}

// OwnKeys returns enumerable own names, newest-last insertion order.
func (o *ScriptObject) OwnKeys(a *Activation) []wstr.WStr {
	return o.table.Borrow().keys(a.SwfVersion())
}

// HasOwn reports a visible own property, stored or virtual.
func (o *ScriptObject) HasOwn(a *Activation, name wstr.WStr) bool {
	return o.lookup(a, name) != nil
}
