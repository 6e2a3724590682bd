package globals

import (
	"testing"

	"lantern/pkg/avm1"
)

func initBroadcaster(t *testing.T, a *avm1.Activation) avm1.Object {
	t.Helper()
	target := construct(t, a, "Object")
	bc := global(t, a, "AsBroadcaster").AsObject()
	if _, err := avm1.CallMethod(a, bc, name("initialize"), avm1.ObjectValue(bc), []avm1.Value{avm1.ObjectValue(target)}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return target
}

func listener(t *testing.T, a *avm1.Activation, event string, fired *[]string, tag string) avm1.Object {
	t.Helper()
	o := construct(t, a, "Object")
	fn := avm1.NewNativeFunction(a, event, func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		*fired = append(*fired, tag)
		return avm1.Undefined, nil
	})
	setProp(t, a, o, event, avm1.ObjectValue(fn))
	return o
}

func TestBroadcasterDispatch(t *testing.T) {
	_, a, _ := testVM(8)
	target := initBroadcaster(t, a)

	var fired []string
	l1 := listener(t, a, "onChange", &fired, "one")
	l2 := listener(t, a, "onChange", &fired, "two")

	call(t, a, target, "addListener", avm1.ObjectValue(l1))
	call(t, a, target, "addListener", avm1.ObjectValue(l2))
	call(t, a, target, "broadcastMessage", avm1.Str("onChange"))
	wantStrings(t, fired, []string{"one", "two"})
}

func TestBroadcasterAddListenerDeduplicates(t *testing.T) {
	_, a, _ := testVM(8)
	target := initBroadcaster(t, a)

	var fired []string
	l1 := listener(t, a, "onChange", &fired, "one")
	l2 := listener(t, a, "onChange", &fired, "two")

	call(t, a, target, "addListener", avm1.ObjectValue(l1))
	call(t, a, target, "addListener", avm1.ObjectValue(l2))
	call(t, a, target, "addListener", avm1.ObjectValue(l1))
	call(t, a, target, "broadcastMessage", avm1.Str("onChange"))

	// re-adding moves a listener to the end instead of duplicating it
	wantStrings(t, fired, []string{"two", "one"})
}

func TestBroadcasterRemoveListener(t *testing.T) {
	_, a, _ := testVM(8)
	target := initBroadcaster(t, a)

	var fired []string
	l1 := listener(t, a, "onChange", &fired, "one")
	l2 := listener(t, a, "onChange", &fired, "two")

	call(t, a, target, "addListener", avm1.ObjectValue(l1))
	call(t, a, target, "addListener", avm1.ObjectValue(l2))
	res := call(t, a, target, "removeListener", avm1.ObjectValue(l1))
	if !res.AsBoolRaw() {
		t.Fatal("removeListener returned false for a registered listener")
	}
	call(t, a, target, "broadcastMessage", avm1.Str("onChange"))
	wantStrings(t, fired, []string{"two"})

	res = call(t, a, target, "removeListener", avm1.ObjectValue(l1))
	if res.AsBoolRaw() {
		t.Fatal("removeListener returned true for an absent listener")
	}
}

func TestBroadcasterPassesArguments(t *testing.T) {
	_, a, _ := testVM(8)
	target := initBroadcaster(t, a)

	var got float64
	o := construct(t, a, "Object")
	fn := avm1.NewNativeFunction(a, "onTick", func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		got = argNumber(a, args, 0)
		return avm1.Undefined, nil
	})
	setProp(t, a, o, "onTick", avm1.ObjectValue(fn))

	call(t, a, target, "addListener", avm1.ObjectValue(o))
	call(t, a, target, "broadcastMessage", avm1.Str("onTick"), avm1.Number(7))
	if got != 7 {
		t.Fatalf("listener argument = %v, want 7", got)
	}
}
