package abc

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// The supported container version.
const (
	MajorVersion = 46
	MinorVersion = 16
)

// reader walks the byte buffer with bounds checks; every primitive
// returns an error on truncation instead of panicking on hostile input.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) remaining() int { return len(r.buf) - r.pos }

func (r *reader) u8() (uint8, error) {
	if r.remaining() < 1 {
		return 0, errors.Errorf("abc: truncated at offset %d", r.pos)
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) u16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, errors.Errorf("abc: truncated at offset %d", r.pos)
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

// u30 is the variable-length unsigned encoding; five bytes maximum,
// the result masked to 30 bits.
func (r *reader) u30() (uint32, error) {
	v, err := r.u32()
	return v & 0x3FFFFFFF, err
}

func (r *reader) u32() (uint32, error) {
	var v uint32
	for shift := 0; shift < 35; shift += 7 {
		b, err := r.u8()
		if err != nil {
			return 0, err
		}
		v |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			return v, nil
		}
	}
	return 0, errors.Errorf("abc: overlong u32 at offset %d", r.pos)
}

func (r *reader) s32() (int32, error) {
	v, err := r.u32()
	return int32(v), err
}

func (r *reader) d64() (float64, error) {
	if r.remaining() < 8 {
		return 0, errors.Errorf("abc: truncated at offset %d", r.pos)
	}
	bits := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return math.Float64frombits(bits), nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, errors.Errorf("abc: truncated at offset %d (want %d bytes)", r.pos, n)
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

// poolCount reads a pool length: on the wire a count of n means n-1
// real entries after the implicit empty entry 0.
func (r *reader) poolCount() (int, error) {
	n, err := r.u30()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 1, nil
	}
	if int64(n) > int64(r.remaining())+1 {
		return 0, errors.Errorf("abc: pool count %d exceeds input", n)
	}
	return int(n), nil
}

// Parse reads one container from buf. The returned File aliases buf for
// method bodies; callers must not mutate the input afterwards.
func Parse(buf []byte) (*File, error) {
	r := &reader{buf: buf}
	f := &File{}

	var err error
	if f.MinorVersion, err = r.u16(); err != nil {
		return nil, err
	}
	if f.MajorVersion, err = r.u16(); err != nil {
		return nil, err
	}
	if f.MajorVersion != MajorVersion {
		return nil, errors.Errorf("abc: unsupported version %d.%d", f.MajorVersion, f.MinorVersion)
	}

	if err := parseConstantPool(r, f); err != nil {
		return nil, err
	}
	if err := parseMethods(r, f); err != nil {
		return nil, err
	}
	if err := parseMetadata(r, f); err != nil {
		return nil, err
	}
	if err := parseClasses(r, f); err != nil {
		return nil, err
	}
	if err := parseScripts(r, f); err != nil {
		return nil, err
	}
	if err := parseBodies(r, f); err != nil {
		return nil, err
	}
	return f, nil
}

func parseConstantPool(r *reader, f *File) error {
	n, err := r.poolCount()
	if err != nil {
		return errors.Wrap(err, "int pool")
	}
	f.Ints = make([]int32, n)
	for i := 1; i < n; i++ {
		if f.Ints[i], err = r.s32(); err != nil {
			return errors.Wrap(err, "int pool")
		}
	}

	if n, err = r.poolCount(); err != nil {
		return errors.Wrap(err, "uint pool")
	}
	f.Uints = make([]uint32, n)
	for i := 1; i < n; i++ {
		if f.Uints[i], err = r.u32(); err != nil {
			return errors.Wrap(err, "uint pool")
		}
	}

	if n, err = r.poolCount(); err != nil {
		return errors.Wrap(err, "double pool")
	}
	f.Doubles = make([]float64, n)
	f.Doubles[0] = math.NaN()
	for i := 1; i < n; i++ {
		if f.Doubles[i], err = r.d64(); err != nil {
			return errors.Wrap(err, "double pool")
		}
	}

	if n, err = r.poolCount(); err != nil {
		return errors.Wrap(err, "string pool")
	}
	f.Strings = make([]string, n)
	for i := 1; i < n; i++ {
		size, err := r.u30()
		if err != nil {
			return errors.Wrap(err, "string pool")
		}
		raw, err := r.bytes(int(size))
		if err != nil {
			return errors.Wrap(err, "string pool")
		}
		f.Strings[i] = string(raw)
	}

	if n, err = r.poolCount(); err != nil {
		return errors.Wrap(err, "namespace pool")
	}
	f.Namespaces = make([]Namespace, n)
	for i := 1; i < n; i++ {
		kind, err := r.u8()
		if err != nil {
			return errors.Wrap(err, "namespace pool")
		}
		name, err := r.u30()
		if err != nil {
			return errors.Wrap(err, "namespace pool")
		}
		switch NamespaceKind(kind) {
		case NsPrivate, NsNamespace, NsPackage, NsPackageInternal, NsProtected, NsExplicit, NsStaticProtected:
		default:
			return errors.Errorf("abc: bad namespace kind 0x%02x", kind)
		}
		f.Namespaces[i] = Namespace{Kind: NamespaceKind(kind), Name: name}
	}

	if n, err = r.poolCount(); err != nil {
		return errors.Wrap(err, "ns-set pool")
	}
	f.NsSets = make([][]uint32, n)
	for i := 1; i < n; i++ {
		count, err := r.u30()
		if err != nil {
			return errors.Wrap(err, "ns-set pool")
		}
		set := make([]uint32, count)
		for j := range set {
			if set[j], err = r.u30(); err != nil {
				return errors.Wrap(err, "ns-set pool")
			}
		}
		f.NsSets[i] = set
	}

	if n, err = r.poolCount(); err != nil {
		return errors.Wrap(err, "multiname pool")
	}
	f.Multinames = make([]Multiname, n)
	for i := 1; i < n; i++ {
		m, err := parseMultiname(r)
		if err != nil {
			return errors.Wrapf(err, "multiname %d", i)
		}
		f.Multinames[i] = m
	}
	return nil
}

func parseMultiname(r *reader) (Multiname, error) {
	kind, err := r.u8()
	if err != nil {
		return Multiname{}, err
	}
	m := Multiname{Kind: MultinameKind(kind)}
	switch m.Kind {
	case MnQName, MnQNameA:
		if m.Namespace, err = r.u30(); err != nil {
			return m, err
		}
		m.Name, err = r.u30()
	case MnRTQName, MnRTQNameA:
		m.Name, err = r.u30()
	case MnRTQNameL, MnRTQNameLA:
		// fully runtime
	case MnMultiname, MnMultinameA:
		if m.Name, err = r.u30(); err != nil {
			return m, err
		}
		m.NsSet, err = r.u30()
	case MnMultinameL, MnMultinameLA:
		m.NsSet, err = r.u30()
	case MnTypeName:
		if m.Base, err = r.u30(); err != nil {
			return m, err
		}
		count, err2 := r.u30()
		if err2 != nil {
			return m, err2
		}
		m.Params = make([]uint32, count)
		for i := range m.Params {
			if m.Params[i], err = r.u30(); err != nil {
				return m, err
			}
		}
	default:
		return m, errors.Errorf("abc: bad multiname kind 0x%02x", kind)
	}
	return m, err
}

func parseMethods(r *reader, f *File) error {
	count, err := r.u30()
	if err != nil {
		return errors.Wrap(err, "method infos")
	}
	f.Methods = make([]Method, count)
	for i := range f.Methods {
		m := &f.Methods[i]
		paramCount, err := r.u30()
		if err != nil {
			return errors.Wrapf(err, "method %d", i)
		}
		if m.ReturnType, err = r.u30(); err != nil {
			return errors.Wrapf(err, "method %d", i)
		}
		m.ParamTypes = make([]uint32, paramCount)
		for j := range m.ParamTypes {
			if m.ParamTypes[j], err = r.u30(); err != nil {
				return errors.Wrapf(err, "method %d", i)
			}
		}
		if m.Name, err = r.u30(); err != nil {
			return errors.Wrapf(err, "method %d", i)
		}
		if m.Flags, err = r.u8(); err != nil {
			return errors.Wrapf(err, "method %d", i)
		}
		if m.Flags&MethodHasOptional != 0 {
			optCount, err := r.u30()
			if err != nil {
				return errors.Wrapf(err, "method %d options", i)
			}
			m.Options = make([]DefaultValue, optCount)
			for j := range m.Options {
				if m.Options[j].Index, err = r.u30(); err != nil {
					return errors.Wrapf(err, "method %d options", i)
				}
				kind, err := r.u8()
				if err != nil {
					return errors.Wrapf(err, "method %d options", i)
				}
				m.Options[j].Kind = ConstantKind(kind)
			}
		}
		if m.Flags&MethodHasParamNames != 0 {
			m.ParamNames = make([]uint32, paramCount)
			for j := range m.ParamNames {
				if m.ParamNames[j], err = r.u30(); err != nil {
					return errors.Wrapf(err, "method %d param names", i)
				}
			}
		}
	}
	return nil
}

func parseMetadata(r *reader, f *File) error {
	count, err := r.u30()
	if err != nil {
		return errors.Wrap(err, "metadata")
	}
	f.Metadata = make([]Metadata, count)
	for i := range f.Metadata {
		md := &f.Metadata[i]
		if md.Name, err = r.u30(); err != nil {
			return errors.Wrapf(err, "metadata %d", i)
		}
		itemCount, err := r.u30()
		if err != nil {
			return errors.Wrapf(err, "metadata %d", i)
		}
		md.Items = make([]MetadataItem, itemCount)
		for j := range md.Items {
			if md.Items[j].Key, err = r.u30(); err != nil {
				return errors.Wrapf(err, "metadata %d", i)
			}
		}
		for j := range md.Items {
			if md.Items[j].Value, err = r.u30(); err != nil {
				return errors.Wrapf(err, "metadata %d", i)
			}
		}
	}
	return nil
}

func parseTraits(r *reader) ([]Trait, error) {
	count, err := r.u30()
	if err != nil {
		return nil, err
	}
	traits := make([]Trait, count)
	for i := range traits {
		t := &traits[i]
		if t.Name, err = r.u30(); err != nil {
			return nil, err
		}
		kindByte, err := r.u8()
		if err != nil {
			return nil, err
		}
		t.Kind = TraitKind(kindByte & 0x0F)
		t.Attrs = kindByte >> 4

		switch t.Kind {
		case TraitSlot, TraitConst:
			if t.SlotID, err = r.u30(); err != nil {
				return nil, err
			}
			if t.TypeName, err = r.u30(); err != nil {
				return nil, err
			}
			vindex, err := r.u30()
			if err != nil {
				return nil, err
			}
			if vindex != 0 {
				vkind, err := r.u8()
				if err != nil {
					return nil, err
				}
				t.Value = DefaultValue{Index: vindex, Kind: ConstantKind(vkind)}
				t.HasValue = true
			}
		case TraitMethod, TraitGetter, TraitSetter:
			if t.DispID, err = r.u30(); err != nil {
				return nil, err
			}
			if t.Method, err = r.u30(); err != nil {
				return nil, err
			}
		case TraitClass:
			if t.SlotID, err = r.u30(); err != nil {
				return nil, err
			}
			if t.Class, err = r.u30(); err != nil {
				return nil, err
			}
		case TraitFunction:
			if t.SlotID, err = r.u30(); err != nil {
				return nil, err
			}
			if t.Function, err = r.u30(); err != nil {
				return nil, err
			}
		default:
			return nil, errors.Errorf("abc: bad trait kind %d", t.Kind)
		}

		if t.Attrs&TraitAttrMetadata != 0 {
			mdCount, err := r.u30()
			if err != nil {
				return nil, err
			}
			t.Metadata = make([]uint32, mdCount)
			for j := range t.Metadata {
				if t.Metadata[j], err = r.u30(); err != nil {
					return nil, err
				}
			}
		}
	}
	return traits, nil
}

func parseClasses(r *reader, f *File) error {
	count, err := r.u30()
	if err != nil {
		return errors.Wrap(err, "class count")
	}
	f.Instances = make([]Instance, count)
	for i := range f.Instances {
		inst := &f.Instances[i]
		if inst.Name, err = r.u30(); err != nil {
			return errors.Wrapf(err, "instance %d", i)
		}
		if inst.SuperName, err = r.u30(); err != nil {
			return errors.Wrapf(err, "instance %d", i)
		}
		if inst.Flags, err = r.u8(); err != nil {
			return errors.Wrapf(err, "instance %d", i)
		}
		if inst.Flags&InstanceProtectedNs != 0 {
			if inst.ProtectedNs, err = r.u30(); err != nil {
				return errors.Wrapf(err, "instance %d", i)
			}
		}
		ifaceCount, err := r.u30()
		if err != nil {
			return errors.Wrapf(err, "instance %d", i)
		}
		inst.Interfaces = make([]uint32, ifaceCount)
		for j := range inst.Interfaces {
			if inst.Interfaces[j], err = r.u30(); err != nil {
				return errors.Wrapf(err, "instance %d", i)
			}
		}
		if inst.Init, err = r.u30(); err != nil {
			return errors.Wrapf(err, "instance %d", i)
		}
		if inst.Traits, err = parseTraits(r); err != nil {
			return errors.Wrapf(err, "instance %d traits", i)
		}
	}

	f.Classes = make([]Class, count)
	for i := range f.Classes {
		c := &f.Classes[i]
		if c.Init, err = r.u30(); err != nil {
			return errors.Wrapf(err, "class %d", i)
		}
		if c.Traits, err = parseTraits(r); err != nil {
			return errors.Wrapf(err, "class %d traits", i)
		}
	}
	return nil
}

func parseScripts(r *reader, f *File) error {
	count, err := r.u30()
	if err != nil {
		return errors.Wrap(err, "script count")
	}
	f.Scripts = make([]Script, count)
	for i := range f.Scripts {
		s := &f.Scripts[i]
		if s.Init, err = r.u30(); err != nil {
			return errors.Wrapf(err, "script %d", i)
		}
		if s.Traits, err = parseTraits(r); err != nil {
			return errors.Wrapf(err, "script %d traits", i)
		}
	}
	return nil
}

func parseBodies(r *reader, f *File) error {
	count, err := r.u30()
	if err != nil {
		return errors.Wrap(err, "body count")
	}
	f.Bodies = make([]MethodBody, count)
	for i := range f.Bodies {
		b := &f.Bodies[i]
		if b.Method, err = r.u30(); err != nil {
			return errors.Wrapf(err, "body %d", i)
		}
		if int(b.Method) >= len(f.Methods) {
			return errors.Errorf("abc: body %d references method %d of %d", i, b.Method, len(f.Methods))
		}
		if b.MaxStack, err = r.u30(); err != nil {
			return errors.Wrapf(err, "body %d", i)
		}
		if b.LocalCount, err = r.u30(); err != nil {
			return errors.Wrapf(err, "body %d", i)
		}
		if b.InitScopeDepth, err = r.u30(); err != nil {
			return errors.Wrapf(err, "body %d", i)
		}
		if b.MaxScopeDepth, err = r.u30(); err != nil {
			return errors.Wrapf(err, "body %d", i)
		}
		codeLen, err := r.u30()
		if err != nil {
			return errors.Wrapf(err, "body %d", i)
		}
		if b.Code, err = r.bytes(int(codeLen)); err != nil {
			return errors.Wrapf(err, "body %d code", i)
		}

		excCount, err := r.u30()
		if err != nil {
			return errors.Wrapf(err, "body %d exceptions", i)
		}
		b.Exceptions = make([]Exception, excCount)
		for j := range b.Exceptions {
			e := &b.Exceptions[j]
			if e.From, err = r.u30(); err != nil {
				return errors.Wrapf(err, "body %d exception %d", i, j)
			}
			if e.To, err = r.u30(); err != nil {
				return errors.Wrapf(err, "body %d exception %d", i, j)
			}
			if e.Target, err = r.u30(); err != nil {
				return errors.Wrapf(err, "body %d exception %d", i, j)
			}
			if e.TypeName, err = r.u30(); err != nil {
				return errors.Wrapf(err, "body %d exception %d", i, j)
			}
			if e.VarName, err = r.u30(); err != nil {
				return errors.Wrapf(err, "body %d exception %d", i, j)
			}
		}
		if b.Traits, err = parseTraits(r); err != nil {
			return errors.Wrapf(err, "body %d traits", i)
		}
	}
	return nil
}
