package globals

import (
	"testing"

	"lantern/pkg/amf"
	"lantern/pkg/avm2"
)

func TestExternalInterfaceUnavailableWithoutBridge(t *testing.T) {
	_, a, _ := testVM()
	cls := a.Avm().ClassByName("ExternalInterface")
	if cls == nil {
		t.Fatal("ExternalInterface not registered")
	}
	avail, err := avm2.GetProperty(a, cls.ClassObject(), avm2.PublicName("available"))
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if avail.CoerceToBoolean() {
		t.Fatal("available = true with no bridge")
	}
}

func TestExternalInterfaceCallBridges(t *testing.T) {
	_, a, env := testVM()
	var gotName string
	var gotArgs []amf.Value
	env.ctx.ExternalCall = func(name string, args []amf.Value) amf.Value {
		gotName = name
		gotArgs = args
		return amf.String("pong")
	}

	cls := a.Avm().ClassByName("ExternalInterface")
	out, err := avm2.CallProperty(a, cls.ClassObject(), avm2.PublicName("call"),
		[]avm2.Value{avm2.Str("ping"), avm2.Integer(7)})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if gotName != "ping" || len(gotArgs) != 1 {
		t.Fatalf("bridge got %q %v", gotName, gotArgs)
	}
	if utf8(t, a, out) != "pong" {
		t.Fatalf("call returned %v", out)
	}
}

func TestExternalInterfaceAddCallback(t *testing.T) {
	_, a, _ := testVM()
	cls := a.Avm().ClassByName("ExternalInterface")

	var got float64
	fn := avm2.NewFunctionObject(a, avm2.NewNativeMethod("cb", func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		got, _ = args[0].CoerceToNumber(a)
		return avm2.Str("done"), nil
	}))
	if _, err := avm2.CallProperty(a, cls.ClassObject(), avm2.PublicName("addCallback"),
		[]avm2.Value{avm2.Str("fromHost"), avm2.ObjectValue(fn)}); err != nil {
		t.Fatalf("addCallback: %v", err)
	}

	out, ok := CallRegisteredCallback(a, "fromHost", []amf.Value{amf.Number(5)})
	if !ok {
		t.Fatal("callback not registered")
	}
	if got != 5 {
		t.Fatalf("callback arg = %v", got)
	}
	if out.AsString() != "done" {
		t.Fatalf("callback result = %v", out)
	}
}
