package avm2

import (
	"math"

	"lantern/pkg/abc"
)

// PropertyKind tags the disposition of a resolved trait.
type PropertyKind uint8

const (
	PropSlot PropertyKind = iota
	PropConstSlot
	PropMethod
	PropVirtual
)

// Property is one resolved trait on a vtable: a slot index, a method
// dispatch index, or a getter/setter pair.
type Property struct {
	Kind   PropertyKind
	SlotID uint32
	DispID uint32
	GetID  int // method index, -1 when absent
	SetID  int
}

// vtEntry pairs a defining namespace with a property; lookups scan the
// entries for a local name in definition order.
type vtEntry struct {
	ns   *Namespace
	prop Property
}

// slotInfo describes one slot: its declared type (resolved lazily into
// a coercion) and the default installed at allocation.
type slotInfo struct {
	typeName     *Multiname
	defaultValue Value
	hasDefault   bool
	isConst      bool
}

// VTable is the resolved trait table of a class, script, or activation.
// Subclasses copy the parent table and apply their own traits on top,
// so resolution never walks the chain at access time.
type VTable struct {
	defs    map[string][]vtEntry
	slots   []slotInfo
	methods []*Method
}

// NewVTable returns an empty table. Slot index 0 is reserved so that
// pool slot ids (1-based) map directly.
func NewVTable() *VTable {
	return &VTable{
		defs:  make(map[string][]vtEntry),
		slots: make([]slotInfo, 1),
	}
}

// Dup returns a copy sharing no mutable structure with the receiver.
func (vt *VTable) Dup() *VTable {
	out := &VTable{
		defs:    make(map[string][]vtEntry, len(vt.defs)),
		slots:   append([]slotInfo(nil), vt.slots...),
		methods: append([]*Method(nil), vt.methods...),
	}
	for name, entries := range vt.defs {
		out.defs[name] = append([]vtEntry(nil), entries...)
	}
	return out
}

// Resolve finds the first property visible through the multiname, in
// namespace-set order for the winning name.
func (vt *VTable) Resolve(mn *Multiname) (Property, bool) {
	if mn.IsAnyName() {
		return Property{}, false
	}
	entries, ok := vt.defs[mn.Name()]
	if !ok {
		return Property{}, false
	}
	if mn.IsAnyNamespace() {
		if len(entries) > 0 {
			return entries[0].prop, true
		}
		return Property{}, false
	}
	for _, ns := range mn.Namespaces() {
		for _, e := range entries {
			if e.ns.Matches(ns) {
				return e.prop, true
			}
		}
	}
	return Property{}, false
}

// Has reports whether any entry matches the multiname.
func (vt *VTable) Has(mn *Multiname) bool {
	_, ok := vt.Resolve(mn)
	return ok
}

// Method returns the dispatch-table entry.
func (vt *VTable) Method(disp uint32) *Method {
	if int(disp) >= len(vt.methods) {
		return nil
	}
	return vt.methods[disp]
}

// Slot returns slot metadata; the zero slot is the reserved hole.
func (vt *VTable) Slot(id uint32) *slotInfo {
	if int(id) >= len(vt.slots) {
		return nil
	}
	return &vt.slots[id]
}

// SlotCount returns the slot storage size an instance needs.
func (vt *VTable) SlotCount() int { return len(vt.slots) }

// DefaultSlots materializes the slot storage for a fresh instance.
func (vt *VTable) DefaultSlots() []Value {
	out := make([]Value, len(vt.slots))
	for i := range vt.slots {
		if vt.slots[i].hasDefault {
			out[i] = vt.slots[i].defaultValue
		}
	}
	return out
}

// Names iterates the defined trait names, for enumeration support.
func (vt *VTable) Names() []string {
	out := make([]string, 0, len(vt.defs))
	for name := range vt.defs {
		out = append(out, name)
	}
	return out
}

func (vt *VTable) lookupEntry(name string, ns *Namespace) *vtEntry {
	entries := vt.defs[name]
	for i := range entries {
		if entries[i].ns.Matches(ns) {
			return &entries[i]
		}
	}
	return nil
}

func (vt *VTable) insert(name string, ns *Namespace, prop Property) {
	if e := vt.lookupEntry(name, ns); e != nil {
		e.prop = prop
		return
	}
	vt.defs[name] = append(vt.defs[name], vtEntry{ns: ns, prop: prop})
}

func (vt *VTable) addMethod(m *Method) uint32 {
	vt.methods = append(vt.methods, m)
	return uint32(len(vt.methods) - 1)
}

// allocSlot reserves a slot. Pool ids are honored when non-zero; a zero
// id auto-assigns the next free index, per the published trait rules.
func (vt *VTable) allocSlot(poolID uint32, info slotInfo) uint32 {
	if poolID == 0 {
		vt.slots = append(vt.slots, info)
		return uint32(len(vt.slots) - 1)
	}
	for int(poolID) >= len(vt.slots) {
		vt.slots = append(vt.slots, slotInfo{})
	}
	vt.slots[poolID] = info
	return poolID
}

// InstallTraits applies a trait list from a unit onto the table. scope
// is the chain captured by the trait methods; defining is the class the
// traits belong to (nil for scripts and activations). Override and
// final attributes are validated here, surfacing as VerifyError at
// link time.
func (vt *VTable) InstallTraits(a *Activation, unit *Unit, traits []abc.Trait, scope ScopeChain, defining *Class) error {
	for i := range traits {
		if err := vt.installTrait(a, unit, &traits[i], scope, defining); err != nil {
			return err
		}
	}
	return nil
}

func (vt *VTable) installTrait(a *Activation, unit *Unit, trait *abc.Trait, scope ScopeChain, defining *Class) error {
	mn, err := unit.MultinameAt(trait.Name)
	if err != nil {
		return err
	}
	if mn.IsAnyName() || mn.HasLazyComponent() || len(mn.Namespaces()) != 1 {
		return verifyError("trait name is not a QName")
	}
	name := mn.Name()
	ns := mn.Namespaces()[0]
	existing := vt.lookupEntry(name, ns)

	switch trait.Kind {
	case abc.TraitSlot, abc.TraitConst:
		typeName, err := unit.optionalMultinameAt(trait.TypeName)
		if err != nil {
			return err
		}
		info := slotInfo{typeName: typeName, isConst: trait.Kind == abc.TraitConst}
		if trait.HasValue {
			dv, err := unit.ConstantValue(trait.Value)
			if err != nil {
				return err
			}
			info.defaultValue = dv
			info.hasDefault = true
		} else if typeName != nil {
			info.defaultValue = defaultForType(typeName)
			info.hasDefault = true
		}
		id := vt.allocSlot(trait.SlotID, info)
		kind := PropSlot
		if trait.Kind == abc.TraitConst {
			kind = PropConstSlot
		}
		vt.insert(name, ns, Property{Kind: kind, SlotID: id})

	case abc.TraitClass:
		cls, err := unit.ClassAt(trait.Class)
		if err != nil {
			return err
		}
		info := slotInfo{defaultValue: Undefined, hasDefault: false}
		id := vt.allocSlot(trait.SlotID, info)
		vt.insert(name, ns, Property{Kind: PropSlot, SlotID: id})
		_ = cls // materialized into the slot when the defining script runs

	case abc.TraitFunction:
		m, err := unit.MethodAt(trait.Function)
		if err != nil {
			return err
		}
		bound := m.withScope(scope, defining)
		info := slotInfo{hasDefault: false}
		id := vt.allocSlot(trait.SlotID, info)
		vt.insert(name, ns, Property{Kind: PropSlot, SlotID: id})
		vt.slots[id].defaultValue = Undefined
		_ = bound // function traits materialize when the body runs

	case abc.TraitMethod:
		m, err := unit.MethodAt(trait.Method)
		if err != nil {
			return err
		}
		if err := vt.checkOverride(trait, existing, name); err != nil {
			return err
		}
		disp := vt.addMethod(m.withScope(scope, defining))
		vt.insert(name, ns, Property{Kind: PropMethod, DispID: disp})

	case abc.TraitGetter, abc.TraitSetter:
		m, err := unit.MethodAt(trait.Method)
		if err != nil {
			return err
		}
		if err := vt.checkOverride(trait, existing, name); err != nil {
			return err
		}
		disp := int(vt.addMethod(m.withScope(scope, defining)))
		prop := Property{Kind: PropVirtual, GetID: -1, SetID: -1}
		if existing != nil && existing.prop.Kind == PropVirtual {
			prop = existing.prop
		}
		if trait.Kind == abc.TraitGetter {
			prop.GetID = disp
		} else {
			prop.SetID = disp
		}
		vt.insert(name, ns, prop)

	default:
		return verifyError("unknown trait kind %d", trait.Kind)
	}
	return nil
}

// checkOverride enforces the override and final attributes on methods
// and accessors.
func (vt *VTable) checkOverride(trait *abc.Trait, existing *vtEntry, name string) error {
	if trait.IsOverride() {
		if existing == nil {
			return verifyError("method %q marked override but overrides nothing", name)
		}
		if existing.prop.Kind != PropMethod && existing.prop.Kind != PropVirtual {
			return verifyError("method %q overrides a non-method trait", name)
		}
		return nil
	}
	if existing != nil && (existing.prop.Kind == PropMethod || existing.prop.Kind == PropVirtual) {
		// Replacing an inherited accessor half without the override
		// attribute is a verify failure in the reference VM.
		if existing.prop.Kind == PropMethod {
			return verifyError("method %q replaces an inherited method without override", name)
		}
	}
	return nil
}

// defaultForType returns the zero value of a declared slot type: 0 for
// the numeric classes, false for Boolean, null for everything else.
func defaultForType(typeName *Multiname) Value {
	switch typeName.Name() {
	case "int":
		return Integer(0)
	case "uint":
		return Unsigned(0)
	case "Number":
		return Number(math.NaN())
	case "Boolean":
		return Bool(false)
	case "String":
		return Null
	}
	return Null
}
