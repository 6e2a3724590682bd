package globals

import (
	"lantern/pkg/avm1"
	"lantern/pkg/display"
)

type inputModule struct{}

func (inputModule) Name() string  { return "Input" }
func (inputModule) Priority() int { return PriorityInput }

// keyState is the native payload on the Key singleton. The player
// updates it through the Notify helpers before broadcasting.
type keyState struct {
	down      map[int]bool
	lastCode  int
	lastAscii int
}

func (inputModule) Install(a *avm1.Activation) {
	installKey(a)
	installMouse(a)
	installSelection(a)
}

func installKey(a *avm1.Activation) {
	k := avm1.NewScriptObject(a, avm1.ObjectValue(a.Avm().ProtoFor().Object))
	k.SetNativeData(&keyState{down: make(map[int]bool)})
	broadcasterInitialize(a, k)

	constant(k, "BACKSPACE", avm1.Number(8))
	constant(k, "CAPSLOCK", avm1.Number(20))
	constant(k, "CONTROL", avm1.Number(17))
	constant(k, "DELETEKEY", avm1.Number(46))
	constant(k, "DOWN", avm1.Number(40))
	constant(k, "END", avm1.Number(35))
	constant(k, "ENTER", avm1.Number(13))
	constant(k, "ESCAPE", avm1.Number(27))
	constant(k, "HOME", avm1.Number(36))
	constant(k, "INSERT", avm1.Number(45))
	constant(k, "LEFT", avm1.Number(37))
	constant(k, "PGDN", avm1.Number(34))
	constant(k, "PGUP", avm1.Number(33))
	constant(k, "RIGHT", avm1.Number(39))
	constant(k, "SHIFT", avm1.Number(16))
	constant(k, "SPACE", avm1.Number(32))
	constant(k, "TAB", avm1.Number(9))
	constant(k, "UP", avm1.Number(38))

	method(a, k, "isDown", keyIsDown)
	method(a, k, "getCode", keyGetCode)
	method(a, k, "getAscii", keyGetAscii)

	a.Avm().Globals().DefineValue("Key", avm1.ObjectValue(k), avm1.AttrDontEnum)
}

func keyStateOf(a *avm1.Activation) *keyState {
	v, err := avm1.Get(a, a.Avm().Globals(), a.Intern("Key"))
	if err != nil || !v.IsObject() {
		return nil
	}
	ks, _ := v.AsObject().Raw().NativeData().(*keyState)
	return ks
}

func keyIsDown(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	ks, _ := this.Raw().NativeData().(*keyState)
	if ks == nil {
		return avm1.Bool(false), nil
	}
	return avm1.Bool(ks.down[argInt(a, args, 0)]), nil
}

func keyGetCode(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	ks, _ := this.Raw().NativeData().(*keyState)
	if ks == nil {
		return avm1.Number(0), nil
	}
	return avm1.Number(float64(ks.lastCode)), nil
}

func keyGetAscii(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	ks, _ := this.Raw().NativeData().(*keyState)
	if ks == nil {
		return avm1.Number(0), nil
	}
	return avm1.Number(float64(ks.lastAscii)), nil
}

// NotifyKeyDown records a key press and broadcasts Key.onKeyDown.
func NotifyKeyDown(a *avm1.Activation, code, ascii int) {
	if ks := keyStateOf(a); ks != nil {
		ks.down[code] = true
		ks.lastCode = code
		ks.lastAscii = ascii
	}
	broadcastTo(a, "Key", "onKeyDown", nil)
}

// NotifyKeyUp records a key release and broadcasts Key.onKeyUp.
func NotifyKeyUp(a *avm1.Activation, code int) {
	if ks := keyStateOf(a); ks != nil {
		delete(ks.down, code)
		ks.lastCode = code
	}
	broadcastTo(a, "Key", "onKeyUp", nil)
}

func installMouse(a *avm1.Activation) {
	m := avm1.NewScriptObject(a, avm1.ObjectValue(a.Avm().ProtoFor().Object))
	broadcasterInitialize(a, m)

	method(a, m, "hide", func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		if a.Ctx().UI != nil {
			a.Ctx().UI.SetMouseCursor("none")
		}
		return avm1.Number(0), nil
	})
	method(a, m, "show", func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		if a.Ctx().UI != nil {
			a.Ctx().UI.SetMouseCursor("arrow")
		}
		return avm1.Number(0), nil
	})

	a.Avm().Globals().DefineValue("Mouse", avm1.ObjectValue(m), avm1.AttrDontEnum)
}

// NotifyMouseDown broadcasts Mouse.onMouseDown.
func NotifyMouseDown(a *avm1.Activation) { broadcastTo(a, "Mouse", "onMouseDown", nil) }

// NotifyMouseUp broadcasts Mouse.onMouseUp.
func NotifyMouseUp(a *avm1.Activation) { broadcastTo(a, "Mouse", "onMouseUp", nil) }

// NotifyMouseMove broadcasts Mouse.onMouseMove.
func NotifyMouseMove(a *avm1.Activation) { broadcastTo(a, "Mouse", "onMouseMove", nil) }

// NotifyMouseWheel broadcasts Mouse.onMouseWheel with the scroll delta
// and, when known, the path of the instance under the pointer.
func NotifyMouseWheel(a *avm1.Activation, delta float64, targetPath string) {
	args := []avm1.Value{avm1.Number(delta)}
	if targetPath != "" {
		args = append(args, avm1.Str(targetPath))
	}
	broadcastTo(a, "Mouse", "onMouseWheel", args)
}

func installSelection(a *avm1.Activation) {
	s := avm1.NewScriptObject(a, avm1.ObjectValue(a.Avm().ProtoFor().Object))
	broadcasterInitialize(a, s)

	method(a, s, "getFocus", selectionGetFocus)
	method(a, s, "setFocus", selectionSetFocus)
	method(a, s, "getBeginIndex", selectionIndex)
	method(a, s, "getEndIndex", selectionIndex)
	method(a, s, "getCaretIndex", selectionIndex)

	a.Avm().Globals().DefineValue("Selection", avm1.ObjectValue(s), avm1.AttrDontEnum)
}

func selectionGetFocus(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	focus := a.Ctx().Stage.Focus()
	if focus == nil {
		return avm1.Null, nil
	}
	return avm1.Str(display.Path(focus)), nil
}

func selectionSetFocus(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	old, _ := selectionGetFocus(a, this, nil)
	v := arg(args, 0)
	switch {
	case v.IsNull() || v.IsUndefined():
		a.Ctx().Stage.SetFocus(nil)
	default:
		if so := avm1.AsStage(v.CoerceToObject(a)); so != nil {
			a.Ctx().Stage.SetFocus(so.Node())
		} else {
			return avm1.Bool(false), nil
		}
	}
	next, _ := selectionGetFocus(a, this, nil)
	broadcastTo(a, "Selection", "onSetFocus", []avm1.Value{old, next})
	return avm1.Bool(true), nil
}

// Selection ranges need an editable focus; without text editing state
// they answer the published "nothing selected" value.
func selectionIndex(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return avm1.Number(-1), nil
}
