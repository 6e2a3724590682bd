package avm2

import (
	"strings"
	"testing"

	"lantern/pkg/abc"
)

func TestSuperDispatchWalksClassChain(t *testing.T) {
	avm, a := testVM()
	pub := NewPublicNamespace()
	mn := PublicName("m")

	clsA := NewClass("A", nil, nil, 0)
	clsA.DefineMethod(pub, "m", func(na *Activation, this Value, args []Value) (Value, error) {
		return Str("A"), nil
	})
	clsB := NewClass("B", nil, clsA, 0)
	clsB.DefineMethod(pub, "m", func(na *Activation, this Value, args []Value) (Value, error) {
		sup, err := CallSuper(na, this.AsObject(), mn, nil)
		if err != nil {
			return Undefined, err
		}
		return Str("B-" + sup.AsString().ToUTF8()), nil
	})
	clsC := NewClass("C", nil, clsB, 0)
	clsC.DefineMethod(pub, "m", func(na *Activation, this Value, args []Value) (Value, error) {
		sup, err := CallSuper(na, this.AsObject(), mn, nil)
		if err != nil {
			return Undefined, err
		}
		return Str("C-" + sup.AsString().ToUTF8()), nil
	})

	co, err := avm.RegisterClass(a, clsC)
	if err != nil {
		t.Fatalf("RegisterClass: %v", err)
	}
	obj, err := co.Construct(a, nil)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	got, err := CallProperty(a, obj, mn, nil)
	if err != nil {
		t.Fatalf("CallProperty: %v", err)
	}
	if s := got.AsString().ToUTF8(); s != "C-B-A" {
		t.Fatalf("m() = %q, want %q", s, "C-B-A")
	}
}

func TestSuperDispatchOutsideSubclassFails(t *testing.T) {
	avm, a := testVM()
	pub := NewPublicNamespace()
	mn := PublicName("m")

	cls := NewClass("Lone", nil, nil, 0)
	cls.DefineMethod(pub, "m", func(na *Activation, this Value, args []Value) (Value, error) {
		return CallSuper(na, this.AsObject(), mn, nil)
	})
	co, err := avm.RegisterClass(a, cls)
	if err != nil {
		t.Fatalf("RegisterClass: %v", err)
	}
	obj, err := co.Construct(a, nil)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	_, err = CallProperty(a, obj, mn, nil)
	verr, ok := err.(*Error)
	if !ok || verr.Kind != ErrReference {
		t.Fatalf("super on rootless class: %v, want reference error", err)
	}
}

func TestVerifierRejectsJumpIntoInstruction(t *testing.T) {
	avm, _ := testVM()
	file := &abc.File{Strings: []string{"", "x"}}
	u := NewUnit(avm, file, avm.RootDomain())

	// The jump lands one byte into the pushstring that follows it.
	bad := &abc.MethodBody{MaxStack: 4, Code: []byte{
		0x10, 0x01, 0x00, 0x00, // jump +1
		0x2C, 0x01, // pushstring "x"
		0x47, // returnvoid
	}}
	_, err := u.verifyBody(bad)
	verr, ok := err.(*Error)
	if !ok || verr.Kind != ErrVerify {
		t.Fatalf("verifyBody = %v, want VerifyError", err)
	}
	if !strings.Contains(verr.Message, "invalid offset") {
		t.Fatalf("message %q does not name the bad target", verr.Message)
	}

	// The verdict is cached per body.
	_, again := u.verifyBody(bad)
	if again != err {
		t.Fatalf("second verification returned %v, want the cached error", again)
	}

	good := &abc.MethodBody{MaxStack: 4, Code: []byte{0x2C, 0x01, 0x29, 0x47}}
	if _, err := u.verifyBody(good); err != nil {
		t.Fatalf("straight-line body rejected: %v", err)
	}
}

func TestVerifierRejectsStackUnderflow(t *testing.T) {
	avm, _ := testVM()
	u := NewUnit(avm, &abc.File{}, avm.RootDomain())

	// pop with nothing on the stack.
	body := &abc.MethodBody{MaxStack: 4, Code: []byte{0x29, 0x47}}
	_, err := u.verifyBody(body)
	verr, ok := err.(*Error)
	if !ok || verr.Kind != ErrVerify {
		t.Fatalf("verifyBody = %v, want VerifyError", err)
	}
}
