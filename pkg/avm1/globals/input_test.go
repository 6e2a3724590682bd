package globals

import (
	"testing"

	"lantern/pkg/avm1"
)

func TestKeyStateTracksNotifications(t *testing.T) {
	_, a, _ := testVM(8)
	key := global(t, a, "Key").AsObject()

	NotifyKeyDown(a, 38, 0)
	if !call(t, a, key, "isDown", avm1.Number(38)).AsBoolRaw() {
		t.Fatal("isDown(38) false after key down")
	}
	if got := call(t, a, key, "getCode").AsNumberRaw(); got != 38 {
		t.Fatalf("getCode = %v, want 38", got)
	}
	NotifyKeyUp(a, 38)
	if call(t, a, key, "isDown", avm1.Number(38)).AsBoolRaw() {
		t.Fatal("isDown(38) true after key up")
	}
}

func TestMouseWheelBroadcast(t *testing.T) {
	_, a, _ := testVM(8)
	mouse := global(t, a, "Mouse").AsObject()

	var deltas []float64
	var targets []string
	l := construct(t, a, "Object")
	fn := avm1.NewNativeFunction(a, "onMouseWheel", func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		deltas = append(deltas, args[0].CoerceToF64(a))
		if len(args) > 1 {
			targets = append(targets, args[1].CoerceToString(a).ToUTF8())
		}
		return avm1.Undefined, nil
	})
	setProp(t, a, l, "onMouseWheel", avm1.ObjectValue(fn))
	call(t, a, mouse, "addListener", avm1.ObjectValue(l))

	NotifyMouseWheel(a, 3, "")
	NotifyMouseWheel(a, -1, "_level0.box")

	if len(deltas) != 2 || deltas[0] != 3 || deltas[1] != -1 {
		t.Fatalf("deltas = %v, want [3 -1]", deltas)
	}
	if len(targets) != 1 || targets[0] != "_level0.box" {
		t.Fatalf("targets = %v, want [_level0.box]", targets)
	}
}
