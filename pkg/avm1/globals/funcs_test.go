package globals

import (
	"math"
	"testing"
	"time"

	"lantern/pkg/avm1"
	"lantern/pkg/host"
)

func callGlobal(t *testing.T, a *avm1.Activation, fn string, args ...avm1.Value) avm1.Value {
	t.Helper()
	f := global(t, a, fn)
	if !f.IsObject() {
		t.Fatalf("global %q is %v, not callable", fn, f.Kind())
	}
	res, err := f.AsObject().Call(a, avm1.Undefined, args)
	if err != nil {
		t.Fatalf("%s: %v", fn, err)
	}
	return res
}

func TestParseInt(t *testing.T) {
	_, a, _ := testVM(8)

	tests := []struct {
		args []avm1.Value
		want float64
	}{
		{[]avm1.Value{avm1.Str("42")}, 42},
		{[]avm1.Value{avm1.Str("  -17px")}, -17},
		{[]avm1.Value{avm1.Str("0xff")}, 255},
		{[]avm1.Value{avm1.Str("010")}, 8},
		{[]avm1.Value{avm1.Str("ff"), avm1.Number(16)}, 255},
		{[]avm1.Value{avm1.Str("101"), avm1.Number(2)}, 5},
	}
	for _, tt := range tests {
		wantNumber(t, callGlobal(t, a, "parseInt", tt.args...), tt.want)
	}

	if v := callGlobal(t, a, "parseInt", avm1.Str("zz")); !math.IsNaN(v.AsNumberRaw()) {
		t.Fatalf(`parseInt("zz") = %v, want NaN`, v.AsNumberRaw())
	}
	if v := callGlobal(t, a, "parseInt", avm1.Str("5"), avm1.Number(1)); !math.IsNaN(v.AsNumberRaw()) {
		t.Fatalf("parseInt with radix 1 = %v, want NaN", v.AsNumberRaw())
	}
}

func TestParseFloat(t *testing.T) {
	_, a, _ := testVM(8)

	wantNumber(t, callGlobal(t, a, "parseFloat", avm1.Str("3.5abc")), 3.5)
	wantNumber(t, callGlobal(t, a, "parseFloat", avm1.Str("  -1e2")), -100)
	if v := callGlobal(t, a, "parseFloat", avm1.Str("abc")); !math.IsNaN(v.AsNumberRaw()) {
		t.Fatalf(`parseFloat("abc") = %v, want NaN`, v.AsNumberRaw())
	}
}

func TestIsNaNIsFinite(t *testing.T) {
	_, a, _ := testVM(8)

	if !callGlobal(t, a, "isNaN", avm1.Str("abc")).AsBoolRaw() {
		t.Fatal(`isNaN("abc") = false`)
	}
	if callGlobal(t, a, "isNaN", avm1.Number(5)).AsBoolRaw() {
		t.Fatal("isNaN(5) = true")
	}
	if callGlobal(t, a, "isFinite", avm1.Number(math.Inf(1))).AsBoolRaw() {
		t.Fatal("isFinite(Infinity) = true")
	}
	if !callGlobal(t, a, "isFinite", avm1.Number(0)).AsBoolRaw() {
		t.Fatal("isFinite(0) = false")
	}
}

func TestEscapeUnescape(t *testing.T) {
	_, a, _ := testVM(8)

	wantString(t, a, callGlobal(t, a, "escape", avm1.Str("a b")), "a%20b")
	wantString(t, a, callGlobal(t, a, "escape", avm1.Str("x.y/z")), "x.y/z")
	wantString(t, a, callGlobal(t, a, "escape", avm1.Str("é")), "%E9")
	wantString(t, a, callGlobal(t, a, "escape", avm1.Str("€")), "%u20AC")

	wantString(t, a, callGlobal(t, a, "unescape", avm1.Str("a%20b")), "a b")
	wantString(t, a, callGlobal(t, a, "unescape", avm1.Str("%u20AC")), "€")
	wantString(t, a, callGlobal(t, a, "unescape", avm1.Str("100%")), "100%")
}

func TestGetTimer(t *testing.T) {
	_, a, env := testVM(8)

	wantNumber(t, callGlobal(t, a, "getTimer"), 0)
	env.clock.Advance(250 * time.Millisecond)
	wantNumber(t, callGlobal(t, a, "getTimer"), 250)
}

func TestSetIntervalFunction(t *testing.T) {
	_, a, env := testVM(8)

	count := 0
	fn := avm1.NewNativeFunction(a, "tick", func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		count++
		return avm1.Undefined, nil
	})

	id := callGlobal(t, a, "setInterval", avm1.ObjectValue(fn), avm1.Number(100))
	entry, ok := env.sched.entries[int(id.AsNumberRaw())]
	if !ok {
		t.Fatal("no timer registered")
	}
	if entry.delay != 100 || !entry.repeating {
		t.Fatalf("timer delay=%v repeating=%v", entry.delay, entry.repeating)
	}

	entry.fire()
	entry.fire()
	if count != 2 {
		t.Fatalf("handler fired %d times, want 2", count)
	}

	callGlobal(t, a, "clearInterval", id)
	if _, ok := env.sched.entries[int(id.AsNumberRaw())]; ok {
		t.Fatal("timer still registered after clearInterval")
	}
}

func TestSetIntervalMethodForm(t *testing.T) {
	_, a, env := testVM(8)

	target := construct(t, a, "Object")
	setProp(t, a, target, "hits", avm1.Number(0))
	bump := avm1.NewNativeFunction(a, "bump", func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		cur, err := avm1.Get(a, this, name("hits"))
		if err != nil {
			return avm1.Undefined, err
		}
		n := cur.CoerceToF64(a) + argNumber(a, args, 0)
		return avm1.Undefined, avm1.Set(a, this, name("hits"), avm1.Number(n))
	})
	setProp(t, a, target, "bump", avm1.ObjectValue(bump))

	id := callGlobal(t, a, "setInterval",
		avm1.ObjectValue(target), avm1.Str("bump"), avm1.Number(50), avm1.Number(3))
	entry, ok := env.sched.entries[int(id.AsNumberRaw())]
	if !ok || entry.delay != 50 {
		t.Fatalf("timer entry = %+v", entry)
	}

	entry.fire()
	wantNumber(t, getProp(t, a, target, "hits"), 3)
}

func TestSetTimeoutIsOneShot(t *testing.T) {
	_, a, env := testVM(8)

	fn := avm1.NewNativeFunction(a, "once", func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		return avm1.Undefined, nil
	})
	id := callGlobal(t, a, "setTimeout", avm1.ObjectValue(fn), avm1.Number(10))
	if env.sched.entries[int(id.AsNumberRaw())].repeating {
		t.Fatal("setTimeout registered a repeating timer")
	}
}

func TestASSetPropFlags(t *testing.T) {
	_, a, _ := testVM(8)

	obj := construct(t, a, "Object")
	setProp(t, a, obj, "a", avm1.Number(1))
	setProp(t, a, obj, "b", avm1.Number(2))

	callGlobal(t, a, "ASSetPropFlags", avm1.ObjectValue(obj), avm1.Str("a"), avm1.Number(1))
	keys := obj.Raw().OwnKeys(a)
	for _, k := range keys {
		if k.ToUTF8() == "a" {
			t.Fatal("property a still enumerable")
		}
	}

	callGlobal(t, a, "ASSetPropFlags", avm1.ObjectValue(obj), avm1.Null, avm1.Number(0), avm1.Number(1))
	keys = obj.Raw().OwnKeys(a)
	found := map[string]bool{}
	for _, k := range keys {
		found[k.ToUTF8()] = true
	}
	if !found["a"] || !found["b"] {
		t.Fatalf("enumerable keys after clear = %v", found)
	}
}

var _ host.Scheduler = (*fakeScheduler)(nil)
