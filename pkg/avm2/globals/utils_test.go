package globals

import (
	"reflect"
	"testing"

	"lantern/pkg/avm2"
)

func TestTimerFiresAndCompletes(t *testing.T) {
	_, a, env := testVM()
	timer := construct(t, a, "Timer", avm2.Number(100), avm2.Integer(2))

	var events []string
	listenTo(a, timer, "timer", &events)
	listenTo(a, timer, "timerComplete", &events)

	callProp(t, a, timer, "start")
	if len(env.sched.entries) != 1 {
		t.Fatalf("scheduler entries = %d", len(env.sched.entries))
	}
	if !getProp(t, a, timer, "running").CoerceToBoolean() {
		t.Fatal("running = false after start")
	}

	env.sched.fire()
	env.sched.fire()

	want := []string{"timer", "timer", "timerComplete"}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("events %v, want %v", events, want)
	}
	if getProp(t, a, timer, "running").CoerceToBoolean() {
		t.Fatal("running = true after completion")
	}
	if n, _ := getProp(t, a, timer, "currentCount").CoerceToNumber(a); n != 2 {
		t.Fatalf("currentCount = %v, want 2", n)
	}
	if len(env.sched.entries) != 0 {
		t.Fatal("scheduler entry survived completion")
	}
}

func TestTimerReset(t *testing.T) {
	_, a, env := testVM()
	timer := construct(t, a, "Timer", avm2.Number(50))

	callProp(t, a, timer, "start")
	env.sched.fire()
	callProp(t, a, timer, "reset")

	if n, _ := getProp(t, a, timer, "currentCount").CoerceToNumber(a); n != 0 {
		t.Fatalf("currentCount after reset = %v", n)
	}
	if getProp(t, a, timer, "running").CoerceToBoolean() {
		t.Fatal("running after reset")
	}
}

func TestTimerRejectsNegativeDelay(t *testing.T) {
	_, a, _ := testVM()
	cls := a.Avm().ClassByName("Timer")
	if cls == nil {
		t.Fatal("Timer not registered")
	}
	_, err := cls.ClassObject().Construct(a, []avm2.Value{avm2.Number(-1)})
	verr, ok := err.(*avm2.Error)
	if !ok || verr.Kind != avm2.ErrRange {
		t.Fatalf("new Timer(-1): %v", err)
	}
}

func TestSetTimeoutAndClear(t *testing.T) {
	_, a, env := testVM()
	var calls int
	fn := avm2.NewFunctionObject(a, avm2.NewNativeMethod("cb", func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		calls++
		return avm2.Undefined, nil
	}))

	callGlobal(t, a, "setTimeout", avm2.ObjectValue(fn), avm2.Number(10))
	id := callGlobal(t, a, "setTimeout", avm2.ObjectValue(fn), avm2.Number(10))
	callGlobal(t, a, "clearTimeout", id)

	env.sched.fire()
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestSetIntervalRepeats(t *testing.T) {
	_, a, env := testVM()
	var calls int
	fn := avm2.NewFunctionObject(a, avm2.NewNativeMethod("cb", func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		calls++
		return avm2.Undefined, nil
	}))

	id := callGlobal(t, a, "setInterval", avm2.ObjectValue(fn), avm2.Number(10))
	env.sched.fire()
	env.sched.fire()
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	callGlobal(t, a, "clearInterval", id)
	env.sched.fire()
	if calls != 2 {
		t.Fatalf("calls after clear = %d", calls)
	}
}

func TestByteArrayClassSurface(t *testing.T) {
	_, a, _ := testVM()
	ba := construct(t, a, "ByteArray")

	callProp(t, a, ba, "writeUTFBytes", avm2.Str("hi"))
	if n, _ := getProp(t, a, ba, "length").CoerceToNumber(a); n != 2 {
		t.Fatalf("length = %v", n)
	}

	callProp(t, a, ba, "writeInt", avm2.Integer(258))
	if err := setProp(a, ba, "position", avm2.Integer(2)); err != nil {
		t.Fatalf("set position: %v", err)
	}
	if n, _ := callProp(t, a, ba, "readInt").CoerceToNumber(a); n != 258 {
		t.Fatalf("readInt = %v", n)
	}

	if got := utf8(t, a, getProp(t, a, ba, "endian")); got != "bigEndian" {
		t.Fatalf("endian = %q", got)
	}
	if err := setProp(a, ba, "endian", avm2.Str("littleEndian")); err != nil {
		t.Fatalf("set endian: %v", err)
	}
	if err := setProp(a, ba, "endian", avm2.Str("sideways")); err == nil {
		t.Fatal("bad endian accepted")
	}

	if _, err := avm2.CallProperty(a, ba, avm2.PublicName("readInt"), nil); err == nil {
		t.Fatal("readInt past end did not error")
	}
}

func setProp(a *avm2.Activation, obj avm2.Object, name string, v avm2.Value) error {
	return avm2.SetProperty(a, obj, avm2.PublicName(name), v)
}

func TestDictionaryClass(t *testing.T) {
	_, a, _ := testVM()
	dict := construct(t, a, "Dictionary")
	do, ok := dict.(*avm2.DictionaryObject)
	if !ok {
		t.Fatalf("Dictionary allocated %T", dict)
	}
	key := construct(t, a, "Object")
	do.SetKeyed(avm2.ObjectValue(key), avm2.Str("v"))
	if v := do.GetKeyed(avm2.ObjectValue(key)); utf8(t, a, v) != "v" {
		t.Fatalf("object key lookup = %v", v)
	}
}

func TestGetDefinitionByName(t *testing.T) {
	_, a, _ := testVM()
	out := callGlobal(t, a, "getDefinitionByName", avm2.Str("flash.utils.ByteArray"))
	co, ok := out.AsObject().(*avm2.ClassObject)
	if !ok {
		t.Fatalf("definition is %T", out.AsObject())
	}
	if co.InnerClass().Name() != "ByteArray" {
		t.Fatalf("resolved %q", co.InnerClass().Name())
	}
}
