package globals

import (
	"testing"

	"lantern/pkg/avm1"
	"lantern/pkg/host"
)

func TestLoadVarsDecode(t *testing.T) {
	_, a, _ := testVM(8)
	lv := construct(t, a, "LoadVars")

	call(t, a, lv, "decode", avm1.Str("a=1&b=hello%20world&c="))
	wantString(t, a, getProp(t, a, lv, "a"), "1")
	wantString(t, a, getProp(t, a, lv, "b"), "hello world")
	wantString(t, a, getProp(t, a, lv, "c"), "")
}

func TestLoadVarsToString(t *testing.T) {
	_, a, _ := testVM(8)
	lv := construct(t, a, "LoadVars")
	setProp(t, a, lv, "name", avm1.Str("a b"))

	wantString(t, a, call(t, a, lv, "toString"), "name=a+b")
}

func TestLoadVarsLoad(t *testing.T) {
	avm, a, env := testVM(8)
	lv := construct(t, a, "LoadVars")

	res := call(t, a, lv, "load", avm1.Str("http://example.com/vars"))
	if !res.AsBoolRaw() {
		t.Fatal("load returned false")
	}
	if len(env.nav.fetches) != 1 || env.nav.fetches[0].url != "http://example.com/vars" {
		t.Fatalf("fetches = %+v", env.nav.fetches)
	}
	if getProp(t, a, lv, "loaded").AsBoolRaw() {
		t.Fatal("loaded true before response")
	}

	delivered := avm.DeliverResponse(a, host.Response{
		RequestID: env.nav.ids[0],
		Status:    200,
		Body:      []byte("score=42&mode=easy"),
	})
	if !delivered {
		t.Fatal("no pending request matched the response")
	}
	if !getProp(t, a, lv, "loaded").AsBoolRaw() {
		t.Fatal("loaded false after response")
	}
	wantString(t, a, getProp(t, a, lv, "score"), "42")
	wantString(t, a, getProp(t, a, lv, "mode"), "easy")
}

func TestLoadVarsLoadFailure(t *testing.T) {
	avm, a, env := testVM(8)
	lv := construct(t, a, "LoadVars")

	success := avm1.Undefined
	onLoad := avm1.NewNativeFunction(a, "onLoad", func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		success = arg(args, 0)
		return avm1.Undefined, nil
	})
	setProp(t, a, lv, "onLoad", avm1.ObjectValue(onLoad))

	call(t, a, lv, "load", avm1.Str("http://example.com/missing"))
	avm.DeliverResponse(a, host.Response{
		RequestID: env.nav.ids[0],
		Status:    404,
	})
	if success.Kind() != avm1.KindBool || success.AsBoolRaw() {
		t.Fatalf("onLoad success = %v, want false", success)
	}
}

func TestLoadVarsSend(t *testing.T) {
	_, a, env := testVM(8)
	lv := construct(t, a, "LoadVars")
	setProp(t, a, lv, "q", avm1.Str("1"))

	call(t, a, lv, "send", avm1.Str("http://example.com/submit"))
	if len(env.nav.fetches) != 1 {
		t.Fatalf("fetches = %+v", env.nav.fetches)
	}
	f := env.nav.fetches[0]
	if f.method != "POST" || string(f.body) != "q=1" {
		t.Fatalf("send issued %s with body %q", f.method, f.body)
	}
}

func TestSharedObjectRoundTrip(t *testing.T) {
	_, a, env := testVM(8)
	soCtor := global(t, a, "SharedObject").AsObject()

	so := call(t, a, soCtor, "getLocal", avm1.Str("save")).AsObject()
	data := getProp(t, a, so, "data").AsObject()
	setProp(t, a, data, "hp", avm1.Number(100))
	setProp(t, a, data, "hero", avm1.Str("ada"))

	if !call(t, a, so, "flush").AsBoolRaw() {
		t.Fatal("flush returned false")
	}
	if _, ok, _ := env.store.Load("test.local", "save"); !ok {
		t.Fatal("flush wrote nothing to storage")
	}

	again := call(t, a, soCtor, "getLocal", avm1.Str("save")).AsObject()
	reloaded := getProp(t, a, again, "data").AsObject()
	wantNumber(t, getProp(t, a, reloaded, "hp"), 100)
	wantString(t, a, getProp(t, a, reloaded, "hero"), "ada")
}

func TestSharedObjectClear(t *testing.T) {
	_, a, env := testVM(8)
	soCtor := global(t, a, "SharedObject").AsObject()

	so := call(t, a, soCtor, "getLocal", avm1.Str("save")).AsObject()
	data := getProp(t, a, so, "data").AsObject()
	setProp(t, a, data, "hp", avm1.Number(1))
	call(t, a, so, "flush")

	call(t, a, so, "clear")
	if _, ok, _ := env.store.Load("test.local", "save"); ok {
		t.Fatal("blob survived clear")
	}
	fresh := getProp(t, a, so, "data").AsObject()
	if v := getProp(t, a, fresh, "hp"); !v.IsUndefined() {
		t.Fatalf("data.hp after clear = %v", v.Kind())
	}
}

func TestSharedObjectNestedValues(t *testing.T) {
	_, a, _ := testVM(8)
	soCtor := global(t, a, "SharedObject").AsObject()

	so := call(t, a, soCtor, "getLocal", avm1.Str("nest")).AsObject()
	data := getProp(t, a, so, "data").AsObject()
	setProp(t, a, data, "tags", avm1.ObjectValue(newArray(t, a, avm1.Str("x"), avm1.Str("y"))))
	call(t, a, so, "flush")

	again := call(t, a, soCtor, "getLocal", avm1.Str("nest")).AsObject()
	tags := getProp(t, a, getProp(t, a, again, "data").AsObject(), "tags")
	wantStrings(t, arrayStrings(t, a, tags.AsObject()), []string{"x", "y"})
}
