package avm1

import (
	"math"
	"strings"

	"lantern/pkg/wstr"
)

// Get resolves a property through the full protocol: own entries and
// variant magicals first, then the prototype chain, invoking getters
// along the way. Absent names resolve through __resolve when the object
// defines it, else undefined. Property access never panics.
func Get(a *Activation, o Object, name wstr.WStr) (Value, error) {
	v, _, err := GetWithDepth(a, o, name)
	return v, err
}

// GetWithDepth additionally reports the chain depth where the property
// was found (0 = the object itself). Method dispatch records the depth
// so super resolution can shift past the defining level.
func GetWithDepth(a *Activation, o Object, name wstr.WStr) (Value, int, error) {
	this := o
	cur := o
	for depth := 0; cur != nil && depth < protoChainLimit; depth++ {
		if e := cur.Raw().lookup(a, name); e != nil {
			if e.prop.IsVirtual() {
				v, err := e.prop.getter.Call(a, ObjectValue(this), nil)
				return v, depth, err
			}
			return e.prop.value, depth, nil
		}
		if v, ok := cur.GetLocalStored(a, name); ok {
			return v, depth, nil
		}
		cur = nextProto(a, cur)
	}

	// __resolve hook: last chance before undefined. Resolved with a raw
	// chain scan so a missing hook cannot recurse into Get.
	resolveName := wstr.FromUTF8("__resolve")
	cur = o
	for depth := 0; cur != nil && depth < protoChainLimit; depth++ {
		if e := cur.Raw().lookup(a, resolveName); e != nil && !e.prop.IsVirtual() {
			if fn := e.prop.value.AsObject(); fn != nil && asFunction(fn) != nil {
				v, err := fn.Call(a, ObjectValue(o), []Value{String(name)})
				return v, 0, err
			}
			break
		}
		cur = nextProto(a, cur)
	}
	return Undefined, 0, nil
}

func nextProto(a *Activation, o Object) Object {
	p := o.Proto(a)
	if p.kind != KindObject {
		return nil
	}
	return p.o
}

// Set assigns through the full protocol: an existing own entry wins
// (virtual setters route, READ_ONLY blocks); otherwise a virtual setter
// anywhere on the chain is invoked with the original receiver; otherwise
// the own object defines the property.
func Set(a *Activation, o Object, name wstr.WStr, v Value) error {
	if e := o.Raw().lookup(a, name); e != nil {
		return o.Raw().setOwn(a, name, v, o)
	}
	cur := nextProto(a, o)
	for depth := 0; cur != nil && depth < protoChainLimit; depth++ {
		if e := cur.Raw().lookup(a, name); e != nil {
			if e.prop.IsVirtual() {
				if e.prop.setter != nil {
					_, err := e.prop.setter.Call(a, ObjectValue(o), []Value{v})
					return err
				}
				return nil
			}
			break // stored on the chain: shadow it on the own object
		}
		cur = nextProto(a, cur)
	}
	return o.SetLocal(a, name, v, o)
}

// Delete removes an own property, respecting DONT_DELETE. Properties on
// the prototype chain are unaffected.
func Delete(a *Activation, o Object, name wstr.WStr) bool {
	return o.DeleteLocal(a, name)
}

// HasProperty walks the chain.
func HasProperty(a *Activation, o Object, name wstr.WStr) bool {
	cur := o
	for depth := 0; cur != nil && depth < protoChainLimit; depth++ {
		if HasOwnProperty(a, cur, name) {
			return true
		}
		cur = nextProto(a, cur)
	}
	return false
}

// HasOwnProperty checks the own object only, including variant
// magicals.
func HasOwnProperty(a *Activation, o Object, name wstr.WStr) bool {
	if o.Raw().HasOwn(a, name) {
		return true
	}
	_, ok := o.GetLocalStored(a, name)
	return ok
}

// GetKeys returns enumerable names for for..in: own keys plus prototype
// keys not shadowed, preserving insertion order at each level.
func GetKeys(a *Activation, o Object) []wstr.WStr {
	var out []wstr.WStr
	seen := map[string]bool{}
	cur := o
	for depth := 0; cur != nil && depth < protoChainLimit; depth++ {
		for _, name := range cur.Raw().OwnKeys(a) {
			key := foldKey(name)
			if !seen[key] {
				seen[key] = true
				out = append(out, name)
			}
		}
		cur = nextProto(a, cur)
	}
	return out
}

// CallMethod looks up name on obj and invokes it with the given
// receiver. A missing or non-callable member yields undefined, the
// standard suppression.
func CallMethod(a *Activation, obj Object, name wstr.WStr, this Value, args []Value) (Value, error) {
	method, depth, err := GetWithDepth(a, obj, name)
	if err != nil {
		return Undefined, err
	}
	fn := method.AsObject()
	if fn == nil {
		return Undefined, nil
	}
	if f := asFunction(fn); f != nil {
		return f.callInternal(a, this, args, depth)
	}
	return fn.Call(a, this, args)
}

// InstanceOf implements the instanceof operator: walk value's prototype
// chain looking for constructor.prototype, then consult the interface
// lists installed by ActionImplements.
func InstanceOf(a *Activation, value Object, constructor Object) bool {
	protoVal, err := Get(a, constructor, wstr.FromUTF8("prototype"))
	if err != nil || protoVal.kind != KindObject {
		return false
	}
	target := protoVal.o

	cur := nextProto(a, value)
	for depth := 0; cur != nil && depth < protoChainLimit; depth++ {
		if cur == target {
			return true
		}
		for _, iface := range cur.Raw().interfaces.Get() {
			ifaceProto, err := Get(a, iface, wstr.FromUTF8("prototype"))
			if err == nil && ifaceProto.kind == KindObject && ifaceProto.o == target {
				return true
			}
		}
		cur = nextProto(a, cur)
	}
	return false
}

// ParseArrayIndex parses a property name as an array index per the
// published rules: surrounding whitespace is trimmed and the number is
// wrapped to i32. Returns (index, true) for valid non-negative indices.
func ParseArrayIndex(name wstr.WStr) (int, bool) {
	s := strings.TrimSpace(name.ToUTF8())
	if s == "" {
		return 0, false
	}
	f := wstr.FromUTF8(s).ParseF64()
	if math.IsNaN(f) {
		return 0, false
	}
	idx := F64ToWrappedI32(f)
	if float64(idx) != f || idx < 0 {
		return 0, false
	}
	return int(idx), true
}
