package avm1

import "testing"

func TestPrototypeChainLookup(t *testing.T) {
	_, a, _ := testVM(7)
	proto := NewScriptObject(a, Undefined)
	proto.DefineValue("kind", Str("base"), 0)
	obj := NewScriptObject(a, ObjectValue(proto))

	v, err := Get(a, obj, name("kind"))
	if err != nil {
		t.Fatal(err)
	}
	if v.AsString().ToUTF8() != "base" {
		t.Fatalf("inherited read = %v", v)
	}

	// A write shadows, never mutating the prototype.
	if err := Set(a, obj, name("kind"), Str("own")); err != nil {
		t.Fatal(err)
	}
	if v, _ := Get(a, obj, name("kind")); v.AsString().ToUTF8() != "own" {
		t.Fatalf("shadowed read = %v", v)
	}
	if v, _ := Get(a, proto, name("kind")); v.AsString().ToUTF8() != "base" {
		t.Fatalf("prototype mutated to %v", v)
	}

	// Deleting the shadow reveals the inherited value again.
	if !Delete(a, obj, name("kind")) {
		t.Fatal("delete failed")
	}
	if v, _ := Get(a, obj, name("kind")); v.AsString().ToUTF8() != "base" {
		t.Fatalf("read after delete = %v", v)
	}
}

func TestInstanceMethodOverridesPrototype(t *testing.T) {
	_, a, _ := testVM(7)
	proto := NewScriptObject(a, Undefined)
	proto.DefineValue("speak", ObjectValue(NewBareNativeFunction(a, "speak",
		func(a *Activation, this Object, args []Value) (Value, error) {
			return Str("proto"), nil
		})), 0)
	obj := NewScriptObject(a, ObjectValue(proto))

	v, err := CallMethod(a, obj, name("speak"), ObjectValue(obj), nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.AsString().ToUTF8() != "proto" {
		t.Fatalf("inherited call = %v", v)
	}

	obj.DefineValue("speak", ObjectValue(NewBareNativeFunction(a, "speak",
		func(a *Activation, this Object, args []Value) (Value, error) {
			return Str("own"), nil
		})), 0)
	if v, _ := CallMethod(a, obj, name("speak"), ObjectValue(obj), nil); v.AsString().ToUTF8() != "own" {
		t.Fatalf("own call = %v", v)
	}
}

func TestCaseSensitivityTracksVersion(t *testing.T) {
	_, a6, _ := testVM(6)
	obj6 := NewScriptObject(a6, Undefined)
	obj6.DefineValue("Score", Number(10), 0)
	if v, _ := Get(a6, obj6, name("score")); v.CoerceToF64(a6) != 10 {
		t.Error("v6 lookup should fold case")
	}

	_, a7, _ := testVM(7)
	obj7 := NewScriptObject(a7, Undefined)
	obj7.DefineValue("Score", Number(10), 0)
	if v, _ := Get(a7, obj7, name("score")); !v.IsUndefined() {
		t.Error("v7 lookup must not fold case")
	}
}

func TestPropertyVersionVisibility(t *testing.T) {
	// A property stamped for version 7 is invisible to older movies
	// but still present in the table.
	_, a6, _ := testVM(6)
	obj := NewScriptObject(a6, Undefined)
	obj.DefineValue("modern", Number(1), AttrV7)
	if HasProperty(a6, obj, name("modern")) {
		t.Error("v7-gated property visible in v6 movie")
	}

	_, a7, _ := testVM(7)
	obj7 := NewScriptObject(a7, Undefined)
	obj7.DefineValue("modern", Number(1), AttrV7)
	if !HasProperty(a7, obj7, name("modern")) {
		t.Error("v7-gated property missing in v7 movie")
	}
}

func TestReadOnlyAndDontDelete(t *testing.T) {
	_, a, _ := testVM(7)
	obj := NewScriptObject(a, Undefined)
	obj.DefineValue("pinned", Number(1), AttrReadOnly|AttrDontDelete)

	if err := Set(a, obj, name("pinned"), Number(2)); err != nil {
		t.Fatal(err)
	}
	if v, _ := Get(a, obj, name("pinned")); v.CoerceToF64(a) != 1 {
		t.Error("read-only write should be silently dropped")
	}
	if Delete(a, obj, name("pinned")) {
		t.Error("dont-delete property removed")
	}
}

func TestDontEnumHidesFromKeys(t *testing.T) {
	_, a, _ := testVM(7)
	obj := NewScriptObject(a, Undefined)
	obj.DefineValue("visible", Number(1), 0)
	obj.DefineValue("hidden", Number(2), AttrDontEnum)

	keys := GetKeys(a, obj)
	if len(keys) != 1 || keys[0].ToUTF8() != "visible" {
		t.Fatalf("keys = %v", keys)
	}
}

func TestVirtualProperty(t *testing.T) {
	_, a, _ := testVM(7)
	obj := NewScriptObject(a, Undefined)
	var stored Value = Number(0)
	getter := NewBareNativeFunction(a, "get", func(a *Activation, this Object, args []Value) (Value, error) {
		return stored, nil
	})
	setter := NewBareNativeFunction(a, "set", func(a *Activation, this Object, args []Value) (Value, error) {
		if len(args) > 0 {
			stored = Number(args[0].CoerceToF64(a) * 2)
		}
		return Undefined, nil
	})
	obj.DefineVirtual("doubled", getter, setter, 0)

	if err := Set(a, obj, name("doubled"), Number(21)); err != nil {
		t.Fatal(err)
	}
	if v, _ := Get(a, obj, name("doubled")); v.CoerceToF64(a) != 42 {
		t.Errorf("virtual read = %v", v)
	}
}

func TestWatchIntercepts(t *testing.T) {
	_, a, _ := testVM(7)
	obj := NewScriptObject(a, Undefined)
	obj.DefineValue("hp", Number(100), 0)
	clamp := NewBareNativeFunction(a, "clamp", func(a *Activation, this Object, args []Value) (Value, error) {
		// args: name, old value, new value, user data
		if len(args) >= 3 && args[2].CoerceToF64(a) < 0 {
			return Number(0), nil
		}
		return args[2], nil
	})
	obj.Watch(a, name("hp"), clamp, Undefined)

	if err := Set(a, obj, name("hp"), Number(-5)); err != nil {
		t.Fatal(err)
	}
	if v, _ := Get(a, obj, name("hp")); v.CoerceToF64(a) != 0 {
		t.Errorf("watched write = %v", v)
	}

	if !obj.Unwatch(a, name("hp")) {
		t.Fatal("unwatch failed")
	}
	Set(a, obj, name("hp"), Number(-5))
	if v, _ := Get(a, obj, name("hp")); v.CoerceToF64(a) != -5 {
		t.Errorf("unwatched write = %v", v)
	}
}

func TestResolveHook(t *testing.T) {
	_, a, _ := testVM(7)
	obj := NewScriptObject(a, Undefined)
	hook := NewBareNativeFunction(a, "__resolve", func(a *Activation, this Object, args []Value) (Value, error) {
		if len(args) > 0 {
			return Str("resolved:" + args[0].CoerceToString(a).ToUTF8()), nil
		}
		return Undefined, nil
	})
	obj.DefineValue("__resolve", ObjectValue(hook), AttrDontEnum)

	v, err := Get(a, obj, name("missing"))
	if err != nil {
		t.Fatal(err)
	}
	if v.AsString().ToUTF8() != "resolved:missing" {
		t.Fatalf("resolve hook = %v", v)
	}
}

func TestConstructorReturnObjectWins(t *testing.T) {
	_, a, _ := testVM(7)
	replacement := NewScriptObject(a, Undefined)
	replacement.DefineValue("tag", Str("replacement"), 0)
	ctor := NewNativeFunction(a, "Maker", func(a *Activation, this Object, args []Value) (Value, error) {
		return ObjectValue(replacement), nil
	})

	v, err := ctor.Construct(a, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.AsObject() != Object(replacement) {
		t.Error("constructor returning an object must override the instance")
	}

	plain := NewNativeFunction(a, "Plain", func(a *Activation, this Object, args []Value) (Value, error) {
		return Number(5), nil
	})
	v, err = plain.Construct(a, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind() != KindObject || v.AsObject() == Object(replacement) {
		t.Error("primitive return must keep the new instance")
	}
	if ctorVal, _ := Get(a, v.AsObject(), name("__constructor__")); ctorVal.AsObject() != Object(plain) {
		t.Error("__constructor__ not recorded on instance")
	}
}

func TestInstanceOfWithInterfaces(t *testing.T) {
	_, a, _ := testVM(7)
	iface := NewNativeFunction(a, "IThing", nil)
	ctor := NewNativeFunction(a, "Thing", nil)
	protoVal, _ := Get(a, ctor, name("prototype"))
	protoVal.AsObject().Raw().AddInterface(iface)

	inst, err := ctor.Construct(a, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !InstanceOf(a, inst.AsObject(), ctor) {
		t.Error("instance of its constructor")
	}
	if !InstanceOf(a, inst.AsObject(), iface) {
		t.Error("instance of declared interface")
	}
	other := NewNativeFunction(a, "Other", nil)
	if InstanceOf(a, inst.AsObject(), other) {
		t.Error("instance of unrelated constructor")
	}
}

func TestArrayLengthTracksIndices(t *testing.T) {
	_, a, _ := testVM(7)
	arr := NewArrayObject(a, []Value{Number(1), Number(2)})
	if arr.Length() != 2 {
		t.Fatalf("length = %d", arr.Length())
	}

	// Writing past the end grows length.
	if err := Set(a, arr, name("5"), Str("x")); err != nil {
		t.Fatal(err)
	}
	if arr.Length() != 6 {
		t.Fatalf("length after sparse write = %d", arr.Length())
	}

	// Shrinking length drops the dropped indices.
	if err := Set(a, arr, name("length"), Number(1)); err != nil {
		t.Fatal(err)
	}
	if arr.Length() != 1 {
		t.Fatalf("length after shrink = %d", arr.Length())
	}
	if HasOwnProperty(a, arr, name("5")) {
		t.Error("truncated element survived")
	}
	if v := arr.Element(a, 0); v.CoerceToF64(a) != 1 {
		t.Errorf("surviving element = %v", v)
	}
}

func TestSuperDispatchWalksOneLevelPerHop(t *testing.T) {
	_, a, _ := testVM(7)

	// Three-level chain where each level's method records itself and
	// the middle one forwards through super.
	var calls []string
	protoA := NewScriptObject(a, Undefined)
	protoA.DefineValue("go", ObjectValue(NewBareNativeFunction(a, "go",
		func(a *Activation, this Object, args []Value) (Value, error) {
			calls = append(calls, "A")
			return Undefined, nil
		})), 0)
	protoB := NewScriptObject(a, ObjectValue(protoA))
	protoB.DefineValue("go", ObjectValue(NewBareNativeFunction(a, "go",
		func(a *Activation, this Object, args []Value) (Value, error) {
			calls = append(calls, "B")
			super := NewSuperObject(a, this, a.superDepth)
			_, err := CallMethodOn(a, super, name("go"), nil)
			return Undefined, err
		})), 0)
	protoC := NewScriptObject(a, ObjectValue(protoB))
	protoC.DefineValue("go", ObjectValue(NewBareNativeFunction(a, "go",
		func(a *Activation, this Object, args []Value) (Value, error) {
			calls = append(calls, "C")
			super := NewSuperObject(a, this, a.superDepth)
			_, err := CallMethodOn(a, super, name("go"), nil)
			return Undefined, err
		})), 0)
	inst := NewScriptObject(a, ObjectValue(protoC))

	if _, err := CallMethod(a, inst, name("go"), ObjectValue(inst), nil); err != nil {
		t.Fatal(err)
	}
	want := []string{"C", "B", "A"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
}
