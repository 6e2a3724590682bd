package avm2

import (
	"lantern/pkg/abc"
)

// minDomainMemory is the smallest byte array the fast-memory opcodes
// will accept; SetDomainMemory pads the view up to it.
const minDomainMemory = 1024

// MinDomainMemory is the published lower bound for domainMemory.
const MinDomainMemory = minDomainMemory

// domainDef records which script exports a definition.
type domainDef struct {
	ns     *Namespace
	script *Script
}

// Domain is a container of global definitions. Domains form a parent
// chain searched outermost-first, so application code cannot shadow
// the builtin definitions.
type Domain struct {
	parent *Domain
	defs   map[string][]domainDef

	memory    []byte
	memoryObj Object
}

// NewDomain creates a child domain.
func NewDomain(parent *Domain) *Domain {
	return &Domain{parent: parent, defs: make(map[string][]domainDef)}
}

// Parent returns the parent domain, nil at the root.
func (d *Domain) Parent() *Domain { return d.parent }

// Export records a script as the provider of a definition.
func (d *Domain) Export(name string, ns *Namespace, script *Script) {
	d.defs[name] = append(d.defs[name], domainDef{ns: ns, script: script})
}

// DefiningScript resolves a definition, walking parents first.
func (d *Domain) DefiningScript(mn *Multiname) (*Script, bool) {
	if d.parent != nil {
		if s, ok := d.parent.DefiningScript(mn); ok {
			return s, true
		}
	}
	entries, ok := d.defs[mn.Name()]
	if !ok {
		return nil, false
	}
	if mn.IsAnyNamespace() && len(entries) > 0 {
		return entries[0].script, true
	}
	for _, ns := range mn.Namespaces() {
		for _, e := range entries {
			if e.ns.Matches(ns) {
				return e.script, true
			}
		}
	}
	return nil, false
}

// GetDefinition resolves a definition to its value on the exporting
// script's global object.
func (d *Domain) GetDefinition(a *Activation, mn *Multiname) (Value, error) {
	script, ok := d.DefiningScript(mn)
	if !ok {
		return Undefined, referenceError("definition %s not found", mn.ToQualifiedString())
	}
	globals, err := script.Globals(a)
	if err != nil {
		return Undefined, err
	}
	return GetProperty(a, globals, mn)
}

// DomainMemory returns the fast-memory view, nil before assignment.
func (d *Domain) DomainMemory() []byte { return d.memory }

// DomainMemoryObject returns the script-visible byte array backing the
// view.
func (d *Domain) DomainMemoryObject() Object { return d.memoryObj }

// SetDomainMemory validates and installs a byte array as the
// fast-memory backing store, caching the raw byte view the li/si
// opcodes index.
func (d *Domain) SetDomainMemory(a *Activation, v Value) error {
	if v.IsNullish() {
		if d.memoryObj != nil {
			if old, ok := d.memoryObj.NativeData().(*ByteArrayData); ok {
				old.domain = nil
			}
		}
		d.memory = nil
		d.memoryObj = nil
		return nil
	}
	obj := v.AsObject()
	if obj == nil {
		return typeError("domainMemory must be a ByteArray")
	}
	ba, ok := obj.NativeData().(*ByteArrayData)
	if !ok {
		return typeError("domainMemory must be a ByteArray")
	}
	if ba.Len() < minDomainMemory {
		return rangeError("domainMemory requires at least %d bytes", minDomainMemory)
	}
	ba.domain = d
	d.memoryObj = obj
	d.memory = ba.Bytes()
	return nil
}

// refreshMemory re-reads the cached pointer after the byte array grew
// and possibly reallocated.
func (d *Domain) refreshMemory() {
	if d.memoryObj != nil {
		if ba, ok := d.memoryObj.NativeData().(*ByteArrayData); ok {
			d.memory = ba.Bytes()
		}
	}
}

// Script is one installed script: its initializer, traits, and the
// lazily built global object the definitions live on.
type Script struct {
	unit   *Unit
	init   *Method
	traits []abc.Trait

	globals     Object
	initRunning bool
	initDone    bool
}

// newScript wires a parsed script entry to its unit.
func newScript(unit *Unit, entry *abc.Script) (*Script, error) {
	init, err := unit.MethodAt(entry.Init)
	if err != nil {
		return nil, err
	}
	return &Script{unit: unit, init: init, traits: entry.Traits}, nil
}

// Globals returns the script's global object, building it and running
// the script initializer on first touch. Re-entrant touches during the
// initializer observe the half-built globals, matching the published
// lazy-initialization order.
func (s *Script) Globals(a *Activation) (Object, error) {
	if s.globals == nil {
		g := NewScriptObject(a, nil, Null)
		chain := NewScopeChain(s.unit.domain).Extend([]Scope{NewScope(g)})
		vt := NewVTable()
		if err := vt.InstallTraits(a, s.unit, s.traits, chain, nil); err != nil {
			return nil, err
		}
		g.SetVTable(vt)
		s.globals = g
	}
	if !s.initDone && !s.initRunning {
		s.initRunning = true
		// The initializer body pushes its own global scope via the
		// standard getlocal0/pushscope prologue.
		init := s.init.withScope(NewScopeChain(s.unit.domain), nil)
		_, err := a.Avm().executeMethod(a, init, ObjectValue(s.globals), nil)
		s.initRunning = false
		if err != nil {
			return nil, err
		}
		s.initDone = true
	}
	return s.globals, nil
}
