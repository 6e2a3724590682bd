package avm2

import (
	"reflect"
	"testing"

	"lantern/pkg/display"
)

func recordingListener(a *Activation, log *[]string, name string) *FunctionObject {
	return nativeFn(a, name, func(a *Activation, this Value, args []Value) (Value, error) {
		*log = append(*log, name)
		return Undefined, nil
	})
}

func TestDispatchPriorityOrder(t *testing.T) {
	_, a := testVM()
	target := newDispatcher(a)
	d := AsDispatcherData(target)

	var order []string
	d.AddListener("ping", recordingListener(a, &order, "low"), false, 1)
	d.AddListener("ping", recordingListener(a, &order, "high"), false, 3)
	d.AddListener("ping", recordingListener(a, &order, "mid"), false, 2)

	if _, err := DispatchEvent(a, target, newTestEvent(a, "ping", false)); err != nil {
		t.Fatalf("DispatchEvent: %v", err)
	}
	want := []string{"high", "mid", "low"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order %v, want %v", order, want)
	}
}

func TestDispatchSamePriorityKeepsRegistrationOrder(t *testing.T) {
	_, a := testVM()
	target := newDispatcher(a)
	d := AsDispatcherData(target)

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		d.AddListener("ping", recordingListener(a, &order, name), false, 0)
	}
	if _, err := DispatchEvent(a, target, newTestEvent(a, "ping", false)); err != nil {
		t.Fatalf("DispatchEvent: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"first", "second", "third"}) {
		t.Fatalf("order %v", order)
	}
}

func TestDispatchCaptureTargetBubble(t *testing.T) {
	avm, a := testVM()
	root := display.NewMovieClip("root", 0, 1)
	child := display.NewMovieClip("child", 1, 1)
	avm.Ctx().Stage.SetLevel(0, root)
	root.AddChild(child)

	rootObj := avm.BindDisplayObject(a, root)
	childObj := avm.BindDisplayObject(a, child)

	var order []string
	AsDispatcherData(rootObj).AddListener("ping", recordingListener(a, &order, "rootCapture"), true, 0)
	AsDispatcherData(rootObj).AddListener("ping", recordingListener(a, &order, "rootBubble"), false, 0)
	AsDispatcherData(childObj).AddListener("ping", recordingListener(a, &order, "target"), false, 0)

	if _, err := DispatchEvent(a, childObj, newTestEvent(a, "ping", true)); err != nil {
		t.Fatalf("DispatchEvent: %v", err)
	}
	want := []string{"rootCapture", "target", "rootBubble"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order %v, want %v", order, want)
	}
}

func TestCaptureListenerOnTargetNeverFires(t *testing.T) {
	avm, a := testVM()
	root := display.NewMovieClip("root", 0, 1)
	child := display.NewMovieClip("child", 1, 1)
	avm.Ctx().Stage.SetLevel(0, root)
	root.AddChild(child)

	childObj := avm.BindDisplayObject(a, child)

	var order []string
	AsDispatcherData(childObj).AddListener("ping", recordingListener(a, &order, "targetCapture"), true, 0)
	AsDispatcherData(childObj).AddListener("ping", recordingListener(a, &order, "targetBubble"), false, 0)

	if _, err := DispatchEvent(a, childObj, newTestEvent(a, "ping", true)); err != nil {
		t.Fatalf("DispatchEvent: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"targetBubble"}) {
		t.Fatalf("order %v, want [targetBubble]", order)
	}
}

func TestDispatchNonBubblingSkipsAncestors(t *testing.T) {
	avm, a := testVM()
	root := display.NewMovieClip("root", 0, 1)
	child := display.NewMovieClip("child", 1, 1)
	avm.Ctx().Stage.SetLevel(0, root)
	root.AddChild(child)

	rootObj := avm.BindDisplayObject(a, root)
	childObj := avm.BindDisplayObject(a, child)

	var order []string
	AsDispatcherData(rootObj).AddListener("ping", recordingListener(a, &order, "rootBubble"), false, 0)
	AsDispatcherData(childObj).AddListener("ping", recordingListener(a, &order, "target"), false, 0)

	if _, err := DispatchEvent(a, childObj, newTestEvent(a, "ping", false)); err != nil {
		t.Fatalf("DispatchEvent: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"target"}) {
		t.Fatalf("order %v, want [target]", order)
	}
}

func TestStopImmediatePropagation(t *testing.T) {
	_, a := testVM()
	target := newDispatcher(a)
	d := AsDispatcherData(target)

	var order []string
	stopper := nativeFn(a, "stopper", func(a *Activation, this Value, args []Value) (Value, error) {
		order = append(order, "stopper")
		if ev := AsEventData(args[0].AsObject()); ev != nil {
			ev.StopImmediatePropagation()
		}
		return Undefined, nil
	})
	d.AddListener("ping", stopper, false, 1)
	d.AddListener("ping", recordingListener(a, &order, "after"), false, 0)

	if _, err := DispatchEvent(a, target, newTestEvent(a, "ping", false)); err != nil {
		t.Fatalf("DispatchEvent: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"stopper"}) {
		t.Fatalf("order %v, want [stopper]", order)
	}
}

func TestDuplicateAddIsNoop(t *testing.T) {
	_, a := testVM()
	target := newDispatcher(a)
	d := AsDispatcherData(target)

	var order []string
	fn := recordingListener(a, &order, "once")
	d.AddListener("ping", fn, false, 0)
	d.AddListener("ping", fn, false, 0)

	if _, err := DispatchEvent(a, target, newTestEvent(a, "ping", false)); err != nil {
		t.Fatalf("DispatchEvent: %v", err)
	}
	if len(order) != 1 {
		t.Fatalf("listener ran %d times", len(order))
	}
}

func TestRemoveListener(t *testing.T) {
	_, a := testVM()
	target := newDispatcher(a)
	d := AsDispatcherData(target)

	var order []string
	fn := recordingListener(a, &order, "gone")
	d.AddListener("ping", fn, false, 0)
	d.RemoveListener("ping", fn, false)
	if d.HasListener("ping") {
		t.Fatal("HasListener after remove")
	}
	if _, err := DispatchEvent(a, target, newTestEvent(a, "ping", false)); err != nil {
		t.Fatalf("DispatchEvent: %v", err)
	}
	if len(order) != 0 {
		t.Fatalf("removed listener ran: %v", order)
	}
}
