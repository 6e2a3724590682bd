// Package abc reads the AVM2 bytecode container: versioned constant
// pools, method signatures, class and script definitions, and method
// bodies with their exception tables. Parsing is structural only; no
// verification happens here.
package abc

// File is one parsed container. Pool index 0 is the conventional
// "empty" entry for every pool; readers index directly and rely on the
// zero value at slot 0.
type File struct {
	MinorVersion uint16
	MajorVersion uint16

	Ints    []int32
	Uints   []uint32
	Doubles []float64
	Strings []string

	Namespaces []Namespace
	NsSets     [][]uint32
	Multinames []Multiname

	Methods   []Method
	Metadata  []Metadata
	Instances []Instance
	Classes   []Class
	Scripts   []Script
	Bodies    []MethodBody
}

// NamespaceKind tags a namespace pool entry.
type NamespaceKind uint8

const (
	NsPrivate         NamespaceKind = 0x05
	NsNamespace       NamespaceKind = 0x08
	NsPackage         NamespaceKind = 0x16
	NsPackageInternal NamespaceKind = 0x17
	NsProtected       NamespaceKind = 0x18
	NsExplicit        NamespaceKind = 0x19
	NsStaticProtected NamespaceKind = 0x1A
)

// Namespace is a namespace pool entry; Name indexes the string pool.
type Namespace struct {
	Kind NamespaceKind
	Name uint32
}

// MultinameKind tags a multiname pool entry.
type MultinameKind uint8

const (
	MnQName       MultinameKind = 0x07
	MnQNameA      MultinameKind = 0x0D
	MnRTQName     MultinameKind = 0x0F
	MnRTQNameA    MultinameKind = 0x10
	MnRTQNameL    MultinameKind = 0x11
	MnRTQNameLA   MultinameKind = 0x12
	MnMultiname   MultinameKind = 0x09
	MnMultinameA  MultinameKind = 0x0E
	MnMultinameL  MultinameKind = 0x1B
	MnMultinameLA MultinameKind = 0x1C
	MnTypeName    MultinameKind = 0x1D
)

// Multiname is a name pool entry. Which fields are meaningful depends
// on the kind: QName forms carry Namespace+Name, Multiname forms carry
// NsSet+Name, the L forms leave the name to the runtime, RTQName forms
// leave the namespace to the runtime, and TypeName instantiates Base
// with Params (Vector.<T>).
type Multiname struct {
	Kind      MultinameKind
	Namespace uint32 // namespace pool
	Name      uint32 // string pool
	NsSet     uint32 // ns-set pool
	Base      uint32 // multiname pool (TypeName)
	Params    []uint32
}

// IsAttribute reports whether the name addresses an XML attribute.
func (m Multiname) IsAttribute() bool {
	switch m.Kind {
	case MnQNameA, MnRTQNameA, MnRTQNameLA, MnMultinameA, MnMultinameLA:
		return true
	}
	return false
}

// HasRuntimeNamespace reports whether the namespace comes off the
// operand stack.
func (m Multiname) HasRuntimeNamespace() bool {
	switch m.Kind {
	case MnRTQName, MnRTQNameA, MnRTQNameL, MnRTQNameLA:
		return true
	}
	return false
}

// HasRuntimeName reports whether the local name comes off the operand
// stack.
func (m Multiname) HasRuntimeName() bool {
	switch m.Kind {
	case MnRTQNameL, MnRTQNameLA, MnMultinameL, MnMultinameLA:
		return true
	}
	return false
}

// Method signature flags.
const (
	MethodNeedArguments  = 0x01
	MethodNeedActivation = 0x02
	MethodNeedRest       = 0x04
	MethodHasOptional    = 0x08
	MethodSetDxns        = 0x40
	MethodHasParamNames  = 0x80
)

// Method is a method_info entry: the signature, not the body.
type Method struct {
	ParamTypes []uint32 // multiname pool
	ReturnType uint32   // multiname pool
	Name       uint32   // string pool
	Flags      uint8
	Options    []DefaultValue
	ParamNames []uint32 // string pool
}

// NeedsRest reports the ...rest calling convention.
func (m Method) NeedsRest() bool { return m.Flags&MethodNeedRest != 0 }

// NeedsArguments reports the legacy arguments-object convention.
func (m Method) NeedsArguments() bool { return m.Flags&MethodNeedArguments != 0 }

// NeedsActivation reports that the body allocates an activation object.
func (m Method) NeedsActivation() bool { return m.Flags&MethodNeedActivation != 0 }

// ConstantKind tags a default-value or slot-initial-value reference.
type ConstantKind uint8

const (
	ConstUndefined ConstantKind = 0x00
	ConstUtf8      ConstantKind = 0x01
	ConstInt       ConstantKind = 0x03
	ConstUint      ConstantKind = 0x04
	ConstDouble    ConstantKind = 0x06
	ConstFalse     ConstantKind = 0x0A
	ConstTrue      ConstantKind = 0x0B
	ConstNull      ConstantKind = 0x0C
)

// DefaultValue points into the pool selected by Kind. Namespace kinds
// reuse their NamespaceKind byte and index the namespace pool.
type DefaultValue struct {
	Index uint32
	Kind  ConstantKind
}

// Metadata is a metadata_info entry.
type Metadata struct {
	Name  uint32 // string pool
	Items []MetadataItem
}

// MetadataItem is one key/value pair; both index the string pool.
type MetadataItem struct {
	Key   uint32
	Value uint32
}

// TraitKind tags a trait entry.
type TraitKind uint8

const (
	TraitSlot     TraitKind = 0
	TraitMethod   TraitKind = 1
	TraitGetter   TraitKind = 2
	TraitSetter   TraitKind = 3
	TraitClass    TraitKind = 4
	TraitFunction TraitKind = 5
	TraitConst    TraitKind = 6
)

// Trait attribute bits (upper nibble of the kind byte).
const (
	TraitAttrFinal    = 0x1
	TraitAttrOverride = 0x2
	TraitAttrMetadata = 0x4
)

// Trait is one trait entry on an instance, class, script, or body.
type Trait struct {
	Name  uint32 // multiname pool, must be a QName form
	Kind  TraitKind
	Attrs uint8

	// Slot and Const traits.
	SlotID    uint32
	TypeName  uint32 // multiname pool
	Value     DefaultValue
	HasValue  bool

	// Method, Getter, Setter traits.
	DispID uint32
	Method uint32 // method pool

	// Class traits.
	Class uint32 // class pool

	// Function traits.
	Function uint32 // method pool

	Metadata []uint32 // metadata pool
}

// IsFinal reports the final attribute bit.
func (t Trait) IsFinal() bool { return t.Attrs&TraitAttrFinal != 0 }

// IsOverride reports the override attribute bit.
func (t Trait) IsOverride() bool { return t.Attrs&TraitAttrOverride != 0 }

// Instance flags.
const (
	InstanceSealed      = 0x01
	InstanceFinal       = 0x02
	InstanceInterface   = 0x04
	InstanceProtectedNs = 0x08
)

// Instance is an instance_info entry: the per-instance half of a class.
type Instance struct {
	Name        uint32 // multiname pool, QName
	SuperName   uint32 // multiname pool, 0 for none
	Flags       uint8
	ProtectedNs uint32 // namespace pool, when flagged
	Interfaces  []uint32
	Init        uint32 // method pool
	Traits      []Trait
}

// IsSealed reports that dynamic properties are rejected.
func (i Instance) IsSealed() bool { return i.Flags&InstanceSealed != 0 }

// IsFinal reports that the class cannot be extended.
func (i Instance) IsFinal() bool { return i.Flags&InstanceFinal != 0 }

// IsInterface reports an interface definition.
func (i Instance) IsInterface() bool { return i.Flags&InstanceInterface != 0 }

// Class is a class_info entry: the static half of a class.
type Class struct {
	Init   uint32 // method pool
	Traits []Trait
}

// Script is a script_info entry.
type Script struct {
	Init   uint32 // method pool
	Traits []Trait
}

// Exception is one guarded range in a method body. Offsets are byte
// positions in Code; the range is [From, To).
type Exception struct {
	From     uint32
	To       uint32
	Target   uint32
	TypeName uint32 // multiname pool, 0 for catch-all
	VarName  uint32 // multiname pool
}

// MethodBody is a method_body_info entry.
type MethodBody struct {
	Method         uint32
	MaxStack       uint32
	LocalCount     uint32
	InitScopeDepth uint32
	MaxScopeDepth  uint32
	Code           []byte
	Exceptions     []Exception
	Traits         []Trait
}

// BodyFor returns the body for a method index, or nil for native
// methods.
func (f *File) BodyFor(method uint32) *MethodBody {
	for i := range f.Bodies {
		if f.Bodies[i].Method == method {
			return &f.Bodies[i]
		}
	}
	return nil
}

// Str returns a string pool entry, with index 0 as the empty string.
func (f *File) Str(i uint32) string {
	if i == 0 || int(i) >= len(f.Strings) {
		return ""
	}
	return f.Strings[i]
}
