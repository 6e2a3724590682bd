package avm1

import (
	"lantern/pkg/wstr"
)

// Attr is the property attribute bitfield. The low three bits match the
// order ASSetPropFlags manipulates; the remaining thirteen form the
// compatibility-version gate.
type Attr uint16

const (
	AttrDontEnum   Attr = 1 << 0
	AttrDontDelete Attr = 1 << 1
	AttrReadOnly   Attr = 1 << 2

	attrVersionShift      = 3
	AttrVersionMask  Attr = 0x1FFF << attrVersionShift
)

// Version gate bits, named for the movie version a property first
// appears in.
const (
	AttrV5 Attr = 1 << (attrVersionShift + 7)
	AttrV6 Attr = 1 << (attrVersionShift + 8)
	AttrV7 Attr = 1 << (attrVersionShift + 9)
	AttrV8 Attr = 1 << (attrVersionShift + 10)
	AttrV9 Attr = 1 << (attrVersionShift + 11)
)

// versionMasks is ANDed against a property's attributes for a given
// movie version; a non-zero result hides the property. The table is a
// published artifact and is reproduced exactly.
var versionMasks = [10]uint16{
	// v4 and earlier always hide gated properties.
	0b0111_1111_1111_1000,
	0b0111_1111_1111_1000,
	0b0111_1111_1111_1000,
	0b0111_1111_1111_1000,
	0b0111_1111_1111_1000,
	0b0111_0100_1000_0000, // v5
	0b0111_0101_0000_0000, // v6
	0b0111_0000_0000_0000, // v7
	0b0110_0000_0000_0000, // v8
	0b0100_0000_0000_0000, // v9+
}

// visibleIn reports whether attributes allow the property in the given
// movie version.
func (at Attr) visibleIn(swfVersion uint8) bool {
	idx := int(swfVersion)
	if idx >= len(versionMasks) {
		idx = len(versionMasks) - 1
	}
	return uint16(at)&versionMasks[idx] == 0
}

// Property carries either a stored value or a virtual getter/setter
// pair, plus attributes.
type Property struct {
	value  Value
	getter Object
	setter Object
	attrs  Attr
}

// StoredProperty builds a plain data property.
func StoredProperty(v Value, attrs Attr) Property {
	return Property{value: v, attrs: attrs}
}

// VirtualProperty builds a getter/setter property; setter may be nil.
func VirtualProperty(getter, setter Object, attrs Attr) Property {
	return Property{getter: getter, setter: setter, attrs: attrs}
}

// IsVirtual reports a getter-backed property.
func (p *Property) IsVirtual() bool { return p.getter != nil }

// Attrs returns the attribute bits.
func (p *Property) Attrs() Attr { return p.attrs }

// CanDelete respects DONT_DELETE.
func (p *Property) CanDelete() bool { return p.attrs&AttrDontDelete == 0 }

// Enumerable respects DONT_ENUM.
func (p *Property) Enumerable() bool { return p.attrs&AttrDontEnum == 0 }

// setData stores a value honoring READ_ONLY. Virtual properties keep
// their stored slot untouched; the setter call happens at a higher
// level.
func (p *Property) setData(v Value) {
	if p.attrs&AttrReadOnly == 0 {
		p.value = v
	}
}

type propEntry struct {
	name wstr.WStr
	fold string // lowercased utf8 key for case-insensitive search
	prop Property
}

// propertyTable is an insertion-ordered property map with optional
// case-insensitive lookup, the resolution rule below SWF 7.
type propertyTable struct {
	entries []*propEntry
	exact   map[string]*propEntry
}

func newPropertyTable() propertyTable {
	return propertyTable{exact: make(map[string]*propEntry)}
}

func foldKey(name wstr.WStr) string {
	return name.ToLowercase().ToUTF8()
}

// lookup finds an entry. Case-insensitive search scans insertion order
// so the earliest-defined of two case-colliding names wins, matching
// the original resolution.
func (t *propertyTable) lookup(name wstr.WStr, caseSensitive bool) *propEntry {
	if caseSensitive {
		return t.exact[name.ToUTF8()]
	}
	fold := foldKey(name)
	for _, e := range t.entries {
		if e.fold == fold {
			return e
		}
	}
	return nil
}

// insert adds or replaces. Replacement under case-insensitive rules
// targets the entry lookup would find.
func (t *propertyTable) insert(name wstr.WStr, prop Property, caseSensitive bool) {
	if existing := t.lookup(name, caseSensitive); existing != nil {
		existing.prop = prop
		return
	}
	e := &propEntry{name: name, fold: foldKey(name), prop: prop}
	t.entries = append(t.entries, e)
	t.exact[name.ToUTF8()] = e
}

// remove deletes an entry, honoring nothing; attribute checks happen in
// the caller. Returns true when something was removed.
func (t *propertyTable) remove(name wstr.WStr, caseSensitive bool) bool {
	e := t.lookup(name, caseSensitive)
	if e == nil {
		return false
	}
	delete(t.exact, e.name.ToUTF8())
	for i, cur := range t.entries {
		if cur == e {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			break
		}
	}
	return true
}

// keys returns enumerable names in insertion order, filtered by the
// version gate.
func (t *propertyTable) keys(swfVersion uint8) []wstr.WStr {
	out := make([]wstr.WStr, 0, len(t.entries))
	for _, e := range t.entries {
		if e.prop.Enumerable() && e.prop.attrs.visibleIn(swfVersion) {
			out = append(out, e.name)
		}
	}
	return out
}
