package avm2

import (
	"lantern/pkg/abc"
)

// Unit is one loaded bytecode file bound to a domain: the parsed pools
// plus caches of their runtime translations, filled lazily so hostile
// pool entries only fail the code that names them.
type Unit struct {
	avm    *Avm2
	file   *abc.File
	domain *Domain

	namespaces []*Namespace
	nsSets     []NsSet
	multinames []*Multiname
	methods    []*Method
	classes    []*Class
	scripts    []*Script

	verified       map[*abc.MethodBody]error
	verifiedBodies map[*abc.MethodBody]*verifiedBody
}

// NewUnit wraps a parsed file for execution in a domain.
func NewUnit(avm *Avm2, file *abc.File, domain *Domain) *Unit {
	return &Unit{
		avm:        avm,
		file:       file,
		domain:     domain,
		namespaces: make([]*Namespace, len(file.Namespaces)),
		nsSets:     make([]NsSet, len(file.NsSets)),
		multinames: make([]*Multiname, len(file.Multinames)),
		methods:    make([]*Method, len(file.Methods)),
		classes:    make([]*Class, len(file.Classes)),
		scripts:    make([]*Script, len(file.Scripts)),
		verified:   make(map[*abc.MethodBody]error),
	}
}

// File returns the parsed container.
func (u *Unit) File() *abc.File { return u.file }

// Domain returns the owning domain.
func (u *Unit) Domain() *Domain { return u.domain }

// NamespaceAt translates a pool namespace. Index 0 is the any
// namespace, represented as nil.
func (u *Unit) NamespaceAt(i uint32) (*Namespace, error) {
	if i == 0 {
		return nil, nil
	}
	if int(i) >= len(u.file.Namespaces) {
		return nil, verifyError("namespace index %d out of range", i)
	}
	if u.namespaces[i] == nil {
		entry := u.file.Namespaces[i]
		u.namespaces[i] = NewNamespace(entry.Kind, u.file.Str(entry.Name))
	}
	return u.namespaces[i], nil
}

// NsSetAt translates a pool namespace set.
func (u *Unit) NsSetAt(i uint32) (NsSet, error) {
	if i == 0 || int(i) >= len(u.file.NsSets) {
		return nil, verifyError("namespace set index %d out of range", i)
	}
	if u.nsSets[i] == nil {
		raw := u.file.NsSets[i]
		set := make(NsSet, 0, len(raw))
		for _, nsIdx := range raw {
			ns, err := u.NamespaceAt(nsIdx)
			if err != nil {
				return nil, err
			}
			if ns != nil {
				set = append(set, ns)
			}
		}
		u.nsSets[i] = set
	}
	return u.nsSets[i], nil
}

// MultinameAt translates a pool multiname. Index 0 is the wildcard.
func (u *Unit) MultinameAt(i uint32) (*Multiname, error) {
	if i == 0 {
		return AnyName(), nil
	}
	if int(i) >= len(u.file.Multinames) {
		return nil, verifyError("multiname index %d out of range", i)
	}
	if u.multinames[i] == nil {
		mn, err := u.translateMultiname(&u.file.Multinames[i])
		if err != nil {
			return nil, err
		}
		u.multinames[i] = mn
	}
	return u.multinames[i], nil
}

// optionalMultinameAt treats index 0 as "untyped" rather than the
// wildcard, the convention of type annotations.
func (u *Unit) optionalMultinameAt(i uint32) (*Multiname, error) {
	if i == 0 {
		return nil, nil
	}
	return u.MultinameAt(i)
}

func (u *Unit) translateMultiname(entry *abc.Multiname) (*Multiname, error) {
	attr := entry.IsAttribute()
	switch entry.Kind {
	case abc.MnQName, abc.MnQNameA:
		ns, err := u.NamespaceAt(entry.Namespace)
		if err != nil {
			return nil, err
		}
		name := u.file.Str(entry.Name)
		mn := &Multiname{name: name, attribute: attr, anyName: entry.Name == 0}
		if ns == nil {
			mn.anyNs = true
		} else {
			mn.ns = NsSet{ns}
		}
		return mn, nil
	case abc.MnRTQName, abc.MnRTQNameA:
		return &Multiname{name: u.file.Str(entry.Name), anyName: entry.Name == 0, attribute: attr, lazyNs: true}, nil
	case abc.MnRTQNameL, abc.MnRTQNameLA:
		return &Multiname{attribute: attr, lazyNs: true, lazyName: true}, nil
	case abc.MnMultiname, abc.MnMultinameA:
		set, err := u.NsSetAt(entry.NsSet)
		if err != nil {
			return nil, err
		}
		return &Multiname{ns: set, name: u.file.Str(entry.Name), anyName: entry.Name == 0, attribute: attr}, nil
	case abc.MnMultinameL, abc.MnMultinameLA:
		set, err := u.NsSetAt(entry.NsSet)
		if err != nil {
			return nil, err
		}
		return &Multiname{ns: set, attribute: attr, lazyName: true}, nil
	case abc.MnTypeName:
		base, err := u.MultinameAt(entry.Base)
		if err != nil {
			return nil, err
		}
		params := make([]*Multiname, 0, len(entry.Params))
		for _, p := range entry.Params {
			pm, err := u.MultinameAt(p)
			if err != nil {
				return nil, err
			}
			params = append(params, pm)
		}
		out := *base
		out.params = params
		return &out, nil
	}
	return nil, verifyError("unknown multiname kind 0x%02x", uint8(entry.Kind))
}

// MethodAt translates a pool method into its executable form.
func (u *Unit) MethodAt(i uint32) (*Method, error) {
	if int(i) >= len(u.file.Methods) {
		return nil, verifyError("method index %d out of range", i)
	}
	if u.methods[i] == nil {
		info := &u.file.Methods[i]
		u.methods[i] = &Method{
			unit:  u,
			index: i,
			info:  info,
			body:  u.file.BodyFor(i),
			name:  u.file.Str(info.Name),
		}
	}
	return u.methods[i], nil
}

// ClassAt links a pool class: resolves the superclass and interfaces,
// copies the parent trait table, and applies the instance traits.
func (u *Unit) ClassAt(i uint32) (*Class, error) {
	if int(i) >= len(u.file.Classes) || int(i) >= len(u.file.Instances) {
		return nil, verifyError("class index %d out of range", i)
	}
	if u.classes[i] != nil {
		return u.classes[i], nil
	}
	instance := &u.file.Instances[i]
	classInfo := &u.file.Classes[i]

	nameMn, err := u.MultinameAt(instance.Name)
	if err != nil {
		return nil, err
	}
	if len(nameMn.Namespaces()) != 1 {
		return nil, verifyError("class name is not a QName")
	}
	cls := &Class{
		name:  nameMn.Name(),
		ns:    nameMn.Namespaces()[0],
		flags: instance.Flags,
		unit:  u,
	}
	// Install before recursing so self-references resolve.
	u.classes[i] = cls

	if instance.SuperName != 0 {
		superMn, err := u.MultinameAt(instance.SuperName)
		if err != nil {
			return nil, err
		}
		cls.super, err = u.resolveClass(superMn)
		if err != nil {
			return nil, err
		}
		if cls.super.IsFinal() {
			return nil, verifyError("cannot extend final class %s", cls.super.QualifiedName())
		}
		cls.depth = cls.super.depth + 1
	}
	if instance.Flags&abc.InstanceProtectedNs != 0 {
		cls.protectedNs, err = u.NamespaceAt(instance.ProtectedNs)
		if err != nil {
			return nil, err
		}
	}
	for _, ifaceIdx := range instance.Interfaces {
		ifaceMn, err := u.MultinameAt(ifaceIdx)
		if err != nil {
			return nil, err
		}
		iface, err := u.resolveClass(ifaceMn)
		if err != nil {
			return nil, err
		}
		cls.interfaces = append(cls.interfaces, iface)
	}

	cls.instanceInit, err = u.MethodAt(instance.Init)
	if err != nil {
		return nil, err
	}
	cls.classInit, err = u.MethodAt(classInfo.Init)
	if err != nil {
		return nil, err
	}
	cls.abcTraits = classInfo.Traits

	if cls.super != nil {
		cls.vtable = cls.super.vtable.Dup()
	} else {
		cls.vtable = NewVTable()
	}
	return cls, nil
}

// linkClass applies the instance traits with a concrete scope chain;
// newclass calls this when the defining script runs.
func (u *Unit) linkClass(a *Activation, i uint32, scope ScopeChain) (*Class, error) {
	cls, err := u.ClassAt(i)
	if err != nil {
		return nil, err
	}
	if cls.instanceInit != nil && cls.instanceInit.scope.Len() == 0 {
		cls.instanceInit = cls.instanceInit.withScope(scope, cls)
	}
	if cls.classInit != nil && cls.classInit.scope.Len() == 0 {
		cls.classInit = cls.classInit.withScope(scope, nil)
	}
	instance := &u.file.Instances[i]
	if err := cls.vtable.InstallTraits(a, u, instance.Traits, scope, cls); err != nil {
		return nil, err
	}
	return cls, nil
}

// resolveClass finds a class definition: builtins first, then the
// domain chain, then classes of this unit by name.
func (u *Unit) resolveClass(mn *Multiname) (*Class, error) {
	if cls := u.avm.classFor(mn); cls != nil {
		return cls, nil
	}
	for idx := range u.file.Instances {
		candidate, err := u.MultinameAt(u.file.Instances[idx].Name)
		if err != nil {
			continue
		}
		if candidate.Name() == mn.Name() && mn.ContainsNamespace(candidate.Namespaces()[0]) {
			return u.ClassAt(uint32(idx))
		}
	}
	return nil, verifyError("class %s not found", mn.ToQualifiedString())
}

// ScriptAt wraps a pool script.
func (u *Unit) ScriptAt(i uint32) (*Script, error) {
	if int(i) >= len(u.file.Scripts) {
		return nil, verifyError("script index %d out of range", i)
	}
	if u.scripts[i] == nil {
		s, err := newScript(u, &u.file.Scripts[i])
		if err != nil {
			return nil, err
		}
		u.scripts[i] = s
	}
	return u.scripts[i], nil
}

// ConstantValue resolves a pool default value reference.
func (u *Unit) ConstantValue(dv abc.DefaultValue) (Value, error) {
	f := u.file
	switch dv.Kind {
	case abc.ConstUndefined:
		return Undefined, nil
	case abc.ConstNull:
		return Null, nil
	case abc.ConstTrue:
		return Bool(true), nil
	case abc.ConstFalse:
		return Bool(false), nil
	case abc.ConstInt:
		if int(dv.Index) >= len(f.Ints) {
			return Undefined, verifyError("int constant %d out of range", dv.Index)
		}
		return Integer(f.Ints[dv.Index]), nil
	case abc.ConstUint:
		if int(dv.Index) >= len(f.Uints) {
			return Undefined, verifyError("uint constant %d out of range", dv.Index)
		}
		return Unsigned(f.Uints[dv.Index]), nil
	case abc.ConstDouble:
		if int(dv.Index) >= len(f.Doubles) {
			return Undefined, verifyError("double constant %d out of range", dv.Index)
		}
		return Number(f.Doubles[dv.Index]), nil
	case abc.ConstUtf8:
		if int(dv.Index) >= len(f.Strings) {
			return Undefined, verifyError("string constant %d out of range", dv.Index)
		}
		return Str(f.Strings[dv.Index]), nil
	}
	// Namespace-kind constants only occur as defaults of Namespace
	// slots, which none of the supported content relies on.
	if isNamespaceConstKind(dv.Kind) {
		return Undefined, verifyError("namespace constant defaults are not supported")
	}
	return Undefined, verifyError("unknown constant kind 0x%02x", uint8(dv.Kind))
}

func isNamespaceConstKind(k abc.ConstantKind) bool {
	switch uint8(k) {
	case 0x05, 0x08, 0x16, 0x17, 0x18, 0x19, 0x1A:
		return true
	}
	return false
}
