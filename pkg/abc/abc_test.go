package abc

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"
)

// blob builds container bytes for tests.
type blob struct {
	b []byte
}

func (w *blob) u8(v uint8)   { w.b = append(w.b, v) }
func (w *blob) u16(v uint16) { w.b = binary.LittleEndian.AppendUint16(w.b, v) }
func (w *blob) d64(v float64) {
	w.b = binary.LittleEndian.AppendUint64(w.b, math.Float64bits(v))
}

func (w *blob) u30(v uint32) {
	for {
		if v < 0x80 {
			w.b = append(w.b, byte(v))
			return
		}
		w.b = append(w.b, byte(v)|0x80)
		v >>= 7
	}
}

func (w *blob) str(s string) {
	w.u30(uint32(len(s)))
	w.b = append(w.b, s...)
}

func (w *blob) version() {
	w.u16(MinorVersion)
	w.u16(MajorVersion)
}

// emptyPools writes every constant pool with zero real entries.
func (w *blob) emptyPools() {
	for i := 0; i < 7; i++ {
		w.u30(0)
	}
}

// emptyTail writes zero methods, metadata, classes, scripts, bodies.
func (w *blob) emptyTail() {
	for i := 0; i < 5; i++ {
		w.u30(0)
	}
}

func TestParseEmptyFile(t *testing.T) {
	var w blob
	w.version()
	w.emptyPools()
	w.emptyTail()

	f, err := Parse(w.b)
	if err != nil {
		t.Fatal(err)
	}
	if f.MajorVersion != MajorVersion || f.MinorVersion != MinorVersion {
		t.Fatalf("version = %d.%d", f.MajorVersion, f.MinorVersion)
	}
	if len(f.Strings) != 1 || f.Str(0) != "" {
		t.Fatalf("string pool = %v", f.Strings)
	}
}

func TestParseRejectsWrongVersion(t *testing.T) {
	var w blob
	w.u16(16)
	w.u16(45)
	w.emptyPools()
	w.emptyTail()

	if _, err := Parse(w.b); err == nil || !strings.Contains(err.Error(), "version") {
		t.Fatalf("err = %v", err)
	}
}

func TestParseConstantPools(t *testing.T) {
	var w blob
	w.version()
	w.u30(3) // ints: 2 entries
	w.u30(7)
	// s32 negative: -2 little-endian varint of uint32(-2)
	w.u30(uint32(0xFFFFFFFE))
	w.u30(2) // uints: 1 entry
	w.u30(9)
	w.u30(2) // doubles: 1 entry
	w.d64(1.5)
	w.u30(3) // strings: 2 entries
	w.str("hello")
	w.str("pkg")
	w.u30(2) // namespaces: 1 entry
	w.u8(uint8(NsPackage))
	w.u30(2) // -> "pkg"
	w.u30(2) // ns-sets: 1 entry
	w.u30(1)
	w.u30(1)
	w.u30(3) // multinames: 2 entries
	w.u8(uint8(MnQName))
	w.u30(1) // ns 1
	w.u30(1) // name "hello"
	w.u8(uint8(MnMultiname))
	w.u30(1) // name "hello"
	w.u30(1) // ns-set 1
	w.emptyTail()

	f, err := Parse(w.b)
	if err != nil {
		t.Fatal(err)
	}
	if f.Ints[1] != 7 || f.Ints[2] != -2 {
		t.Fatalf("ints = %v", f.Ints)
	}
	if f.Uints[1] != 9 {
		t.Fatalf("uints = %v", f.Uints)
	}
	if f.Doubles[1] != 1.5 || !math.IsNaN(f.Doubles[0]) {
		t.Fatalf("doubles = %v", f.Doubles)
	}
	if f.Str(1) != "hello" || f.Str(2) != "pkg" {
		t.Fatalf("strings = %v", f.Strings)
	}
	if ns := f.Namespaces[1]; ns.Kind != NsPackage || f.Str(ns.Name) != "pkg" {
		t.Fatalf("namespace = %+v", ns)
	}
	if set := f.NsSets[1]; len(set) != 1 || set[0] != 1 {
		t.Fatalf("ns-set = %v", set)
	}
	qn := f.Multinames[1]
	if qn.Kind != MnQName || f.Str(qn.Name) != "hello" || qn.Namespace != 1 {
		t.Fatalf("qname = %+v", qn)
	}
	mn := f.Multinames[2]
	if mn.Kind != MnMultiname || mn.NsSet != 1 {
		t.Fatalf("multiname = %+v", mn)
	}
}

func TestMultinameKindPredicates(t *testing.T) {
	tests := []struct {
		kind      MultinameKind
		attr      bool
		rtNs      bool
		rtName    bool
	}{
		{MnQName, false, false, false},
		{MnQNameA, true, false, false},
		{MnRTQName, false, true, false},
		{MnRTQNameLA, true, true, true},
		{MnMultinameL, false, false, true},
	}
	for _, tt := range tests {
		m := Multiname{Kind: tt.kind}
		if m.IsAttribute() != tt.attr || m.HasRuntimeNamespace() != tt.rtNs || m.HasRuntimeName() != tt.rtName {
			t.Errorf("kind 0x%02x: attr=%v rtNs=%v rtName=%v", tt.kind, m.IsAttribute(), m.HasRuntimeNamespace(), m.HasRuntimeName())
		}
	}
}

func TestParseMethodWithOptions(t *testing.T) {
	var w blob
	w.version()
	// pools: one string for the method name
	w.u30(0) // ints
	w.u30(0) // uints
	w.u30(0) // doubles
	w.u30(2) // strings
	w.str("f")
	w.u30(0) // namespaces
	w.u30(0) // ns-sets
	w.u30(0) // multinames
	w.u30(1) // one method
	w.u30(2) // two params
	w.u30(0) // return type any
	w.u30(0) // param type any
	w.u30(0)
	w.u30(1) // name "f"
	w.u8(MethodHasOptional | MethodNeedRest)
	w.u30(1) // one optional
	w.u30(3) // value index
	w.u8(uint8(ConstInt))
	w.u30(0) // metadata
	w.u30(0) // classes
	w.u30(0) // scripts
	w.u30(0) // bodies

	f, err := Parse(w.b)
	if err != nil {
		t.Fatal(err)
	}
	m := f.Methods[0]
	if f.Str(m.Name) != "f" || len(m.ParamTypes) != 2 {
		t.Fatalf("method = %+v", m)
	}
	if !m.NeedsRest() || m.NeedsActivation() {
		t.Fatalf("flags = 0x%02x", m.Flags)
	}
	if len(m.Options) != 1 || m.Options[0].Kind != ConstInt || m.Options[0].Index != 3 {
		t.Fatalf("options = %+v", m.Options)
	}
}

func TestParseClassWithTraits(t *testing.T) {
	var w blob
	w.version()
	w.u30(0) // ints
	w.u30(0) // uints
	w.u30(0) // doubles
	w.u30(3) // strings
	w.str("Sub")
	w.str("m")
	w.u30(2) // namespaces
	w.u8(uint8(NsPackage))
	w.u30(0)
	w.u30(0) // ns-sets
	w.u30(3) // multinames
	w.u8(uint8(MnQName))
	w.u30(1)
	w.u30(1) // "Sub"
	w.u8(uint8(MnQName))
	w.u30(1)
	w.u30(2) // "m"
	w.u30(2) // two methods (init + m)
	for i := 0; i < 2; i++ {
		w.u30(0) // params
		w.u30(0) // return
		w.u30(0) // name
		w.u8(0)  // flags
	}
	w.u30(0) // metadata
	w.u30(1) // one class
	// instance
	w.u30(1)                                         // name Sub
	w.u30(0)                                         // no super
	w.u8(InstanceSealed)                             // flags
	w.u30(0)                                         // interfaces
	w.u30(0)                                         // init method
	w.u30(1)                                         // one trait
	w.u30(2)                                         // trait name "m"
	w.u8(uint8(TraitMethod) | (TraitAttrOverride << 4)) // kind byte
	w.u30(1)                                         // disp id
	w.u30(1)                                         // method index
	// class (static half)
	w.u30(1) // init
	w.u30(0) // traits
	w.u30(0) // scripts
	w.u30(0) // bodies

	f, err := Parse(w.b)
	if err != nil {
		t.Fatal(err)
	}
	inst := f.Instances[0]
	if !inst.IsSealed() || inst.IsInterface() || inst.SuperName != 0 {
		t.Fatalf("instance = %+v", inst)
	}
	if len(inst.Traits) != 1 {
		t.Fatalf("traits = %+v", inst.Traits)
	}
	tr := inst.Traits[0]
	if tr.Kind != TraitMethod || !tr.IsOverride() || tr.IsFinal() || tr.Method != 1 {
		t.Fatalf("trait = %+v", tr)
	}
	if f.Classes[0].Init != 1 {
		t.Fatalf("class init = %d", f.Classes[0].Init)
	}
}

func TestParseBodyWithExceptions(t *testing.T) {
	var w blob
	w.version()
	w.emptyPools()
	w.u30(1) // one method
	w.u30(0)
	w.u30(0)
	w.u30(0)
	w.u8(0)
	w.u30(0) // metadata
	w.u30(0) // classes
	w.u30(0) // scripts
	w.u30(1) // one body
	w.u30(0) // method 0
	w.u30(4) // max stack
	w.u30(2) // locals
	w.u30(0) // init scope
	w.u30(1) // max scope
	code := []byte{0x26, 0x48} // pushtrue, returnvalue
	w.u30(uint32(len(code)))
	w.b = append(w.b, code...)
	w.u30(1) // one exception
	w.u30(0) // from
	w.u30(2) // to
	w.u30(2) // target
	w.u30(0) // type *
	w.u30(0) // var
	w.u30(0) // traits

	f, err := Parse(w.b)
	if err != nil {
		t.Fatal(err)
	}
	body := f.BodyFor(0)
	if body == nil {
		t.Fatal("BodyFor(0) = nil")
	}
	if body.MaxStack != 4 || body.LocalCount != 2 || len(body.Code) != 2 {
		t.Fatalf("body = %+v", body)
	}
	if len(body.Exceptions) != 1 || body.Exceptions[0].To != 2 {
		t.Fatalf("exceptions = %+v", body.Exceptions)
	}
	if f.BodyFor(9) != nil {
		t.Fatal("BodyFor(9) found a body")
	}
}

func TestParseTruncatedInput(t *testing.T) {
	var w blob
	w.version()
	w.emptyPools()
	w.emptyTail()
	full := w.b

	for cut := 0; cut < len(full); cut++ {
		if _, err := Parse(full[:cut]); err == nil {
			t.Fatalf("no error at cut %d", cut)
		}
	}
}

func TestParseRejectsBadKinds(t *testing.T) {
	var ns blob
	ns.version()
	ns.u30(0)
	ns.u30(0)
	ns.u30(0)
	ns.u30(0)
	ns.u30(2) // one namespace
	ns.u8(0x42)
	ns.u30(0)
	if _, err := Parse(ns.b); err == nil || !strings.Contains(err.Error(), "namespace kind") {
		t.Fatalf("err = %v", err)
	}

	var mn blob
	mn.version()
	for i := 0; i < 6; i++ {
		mn.u30(0)
	}
	mn.u30(2) // one multiname
	mn.u8(0x42)
	if _, err := Parse(mn.b); err == nil || !strings.Contains(err.Error(), "multiname kind") {
		t.Fatalf("err = %v", err)
	}
}

func TestParseHostilePoolCount(t *testing.T) {
	var w blob
	w.version()
	w.u30(0x3FFFFFFF) // int pool count far beyond the buffer
	if _, err := Parse(w.b); err == nil {
		t.Fatal("oversized pool accepted")
	}
}
