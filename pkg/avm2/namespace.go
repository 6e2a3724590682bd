package avm2

import (
	"lantern/pkg/abc"
)

// Namespace is a runtime namespace. Private namespaces compare by
// identity; every other kind compares by URI within its equivalence
// class (package and explicit namespaces are one class, matching the
// published resolution rules).
type Namespace struct {
	Kind abc.NamespaceKind
	URI  string
}

// NewPublicNamespace returns the unnamed package namespace.
func NewPublicNamespace() *Namespace {
	return &Namespace{Kind: abc.NsPackage, URI: ""}
}

// NewNamespace builds a namespace of an explicit kind.
func NewNamespace(kind abc.NamespaceKind, uri string) *Namespace {
	return &Namespace{Kind: kind, URI: uri}
}

// IsPublic reports the unnamed package namespace.
func (n *Namespace) IsPublic() bool {
	return n != nil && n.URI == "" && (n.Kind == abc.NsPackage || n.Kind == abc.NsNamespace)
}

// IsPrivate reports a private namespace, which only matches itself.
func (n *Namespace) IsPrivate() bool {
	return n != nil && n.Kind == abc.NsPrivate
}

// Matches reports whether a trait defined in namespace n is visible to
// a lookup naming namespace other.
func (n *Namespace) Matches(other *Namespace) bool {
	if n == nil || other == nil {
		return false
	}
	if n == other {
		return true
	}
	if n.Kind == abc.NsPrivate || other.Kind == abc.NsPrivate {
		return false
	}
	return nsClass(n.Kind) == nsClass(other.Kind) && n.URI == other.URI
}

// nsClass folds the package/explicit split: both behave as "public with
// a URI" for matching purposes.
func nsClass(k abc.NamespaceKind) abc.NamespaceKind {
	if k == abc.NsNamespace {
		return abc.NsPackage
	}
	return k
}

// NsSet is an ordered namespace set; order decides which namespace wins
// when several contain the name.
type NsSet []*Namespace

// ContainsPublic reports whether the set opens the unnamed package
// namespace, which gates dynamic-property access.
func (s NsSet) ContainsPublic() bool {
	for _, ns := range s {
		if ns.IsPublic() {
			return true
		}
	}
	return false
}

// Multiname is the runtime form of a name reference: an ordered
// namespace set plus a local name, with the any and attribute flags and
// the runtime-qualified markers from the pool entry.
type Multiname struct {
	ns        NsSet
	name      string
	anyName   bool
	anyNs     bool
	attribute bool
	lazyNs    bool // namespace popped from the operand stack
	lazyName  bool // name popped from the operand stack
	params    []*Multiname
}

// PublicName builds the common case: a public, non-attribute name.
func PublicName(name string) *Multiname {
	return &Multiname{ns: NsSet{NewPublicNamespace()}, name: name}
}

// QualifiedName builds a single-namespace name.
func QualifiedName(ns *Namespace, name string) *Multiname {
	return &Multiname{ns: NsSet{ns}, name: name}
}

// AnyName is the `*` wildcard.
func AnyName() *Multiname {
	return &Multiname{anyName: true, anyNs: true}
}

// Name returns the local name; empty for the wildcard.
func (m *Multiname) Name() string { return m.name }

// Namespaces returns the ordered namespace set.
func (m *Multiname) Namespaces() NsSet { return m.ns }

// IsAnyName reports the `*` local name.
func (m *Multiname) IsAnyName() bool { return m.anyName }

// IsAnyNamespace reports the `*` namespace.
func (m *Multiname) IsAnyNamespace() bool { return m.anyNs }

// IsAttribute reports the attribute flag (E4X access).
func (m *Multiname) IsAttribute() bool { return m.attribute }

// HasLazyComponent reports whether name or namespace come from the
// operand stack and must be filled before resolution.
func (m *Multiname) HasLazyComponent() bool { return m.lazyNs || m.lazyName }

// HasLazyNamespace reports a runtime-qualified namespace.
func (m *Multiname) HasLazyNamespace() bool { return m.lazyNs }

// HasLazyName reports a runtime-qualified local name.
func (m *Multiname) HasLazyName() bool { return m.lazyName }

// Params returns the type parameters of a parameterized name
// (Vector.<T>); nil otherwise.
func (m *Multiname) Params() []*Multiname { return m.params }

// ContainsPublic reports whether the lookup may see public dynamic
// properties.
func (m *Multiname) ContainsPublic() bool {
	return m.anyNs || m.ns.ContainsPublic()
}

// ContainsNamespace reports whether the lookup opens ns.
func (m *Multiname) ContainsNamespace(ns *Namespace) bool {
	if m.anyNs {
		return true
	}
	for _, candidate := range m.ns {
		if candidate.Matches(ns) {
			return true
		}
	}
	return false
}

// MatchesName reports whether the local name matches, honoring the
// wildcard.
func (m *Multiname) MatchesName(name string) bool {
	return m.anyName || m.name == name
}

// WithRuntimeParts returns a copy of m with the lazy components filled
// from the operand-stack values. A QName object supplies both parts; a
// namespace object supplies the namespace; anything else coerces to the
// local name string.
func (m *Multiname) WithRuntimeParts(a *Activation, nsVal, nameVal Value) (*Multiname, error) {
	out := *m
	out.lazyNs = false
	out.lazyName = false
	if m.lazyName {
		if obj := nameVal.AsObject(); obj != nil {
			if qd, ok := obj.NativeData().(*QNameData); ok {
				out.name = qd.Name
				out.anyName = qd.AnyName
				if qd.Namespace != nil {
					out.ns = NsSet{qd.Namespace}
					out.anyNs = false
				} else {
					out.anyNs = true
					out.ns = nil
				}
				return &out, nil
			}
		}
		s, err := nameVal.CoerceToUTF8(a)
		if err != nil {
			return nil, err
		}
		out.name = s
		out.anyName = s == "*"
	}
	if m.lazyNs {
		obj := nsVal.AsObject()
		if obj == nil {
			return nil, typeError("runtime namespace is not a Namespace")
		}
		nd, ok := obj.NativeData().(*NamespaceData)
		if !ok {
			return nil, typeError("runtime namespace is not a Namespace")
		}
		out.ns = NsSet{nd.Namespace}
		out.anyNs = false
	}
	return &out, nil
}

// QNameData is the native payload of a QName object.
type QNameData struct {
	Namespace *Namespace // nil means any
	Name      string
	AnyName   bool
}

// NamespaceData is the native payload of a Namespace object.
type NamespaceData struct {
	Namespace *Namespace
	Prefix    string
}

// ToQualifiedString renders ns::name for diagnostics and for
// getQualifiedClassName.
func (m *Multiname) ToQualifiedString() string {
	name := m.name
	if m.anyName {
		name = "*"
	}
	if m.anyNs || len(m.ns) == 0 {
		return name
	}
	uri := m.ns[0].URI
	if uri == "" {
		return name
	}
	return uri + "::" + name
}
