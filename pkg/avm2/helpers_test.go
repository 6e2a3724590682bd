package avm2

import (
	"lantern/pkg/display"
	"lantern/pkg/gc"
	"lantern/pkg/host"
	"lantern/pkg/wstr"
)

// testVM boots a bare VM (no builtin library) with an empty stage.
func testVM() (*Avm2, *Activation) {
	ctx := &Context{
		Arena:    gc.NewArena(gc.Options{}),
		Stage:    display.NewStage(550, 400),
		Log:      &host.CaptureLog{},
		Clock:    &host.FixedClock{},
		Interner: wstr.NewInterner(1024),
	}
	avm := NewAvm2(ctx, Options{}, nil)
	return avm, avm.NewActivation("[test]")
}

func nativeFn(a *Activation, name string, fn NativeMethod) *FunctionObject {
	return NewFunctionObject(a, NewNativeMethod(name, fn))
}

// newDispatcher returns a plain object carrying a listener registry.
func newDispatcher(a *Activation) Object {
	obj := NewScriptObject(a, nil, Null)
	obj.SetNativeData(NewEventDispatcherData())
	return obj
}

// newTestEvent wraps EventData in an object DispatchEvent accepts.
func newTestEvent(a *Activation, eventType string, bubbles bool) Object {
	obj := NewScriptObject(a, nil, Null)
	obj.SetNativeData(NewEventData(eventType, bubbles, false))
	return obj
}
