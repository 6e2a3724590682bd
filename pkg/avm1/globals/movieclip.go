package globals

import (
	"lantern/pkg/avm1"
	"lantern/pkg/display"
)

type movieClipModule struct{}

func (movieClipModule) Name() string  { return "MovieClip" }
func (movieClipModule) Priority() int { return PriorityMovieClip }

func (movieClipModule) Install(a *avm1.Activation) {
	_, proto := defineClass(a, "MovieClip", movieClipConstructor)
	a.Avm().ProtoFor().MovieClip = proto

	method(a, proto, "play", clipMethod(func(a *avm1.Activation, m *display.MovieClip, args []avm1.Value) avm1.Value {
		m.Play()
		return avm1.Undefined
	}))
	method(a, proto, "stop", clipMethod(func(a *avm1.Activation, m *display.MovieClip, args []avm1.Value) avm1.Value {
		m.Stop()
		return avm1.Undefined
	}))
	method(a, proto, "nextFrame", clipMethod(func(a *avm1.Activation, m *display.MovieClip, args []avm1.Value) avm1.Value {
		m.GotoFrame(m.CurrentFrame()+1, false)
		return avm1.Undefined
	}))
	method(a, proto, "prevFrame", clipMethod(func(a *avm1.Activation, m *display.MovieClip, args []avm1.Value) avm1.Value {
		m.GotoFrame(m.CurrentFrame()-1, false)
		return avm1.Undefined
	}))
	method(a, proto, "gotoAndPlay", clipGoto(true))
	method(a, proto, "gotoAndStop", clipGoto(false))
	method(a, proto, "getDepth", clipMethod(func(a *avm1.Activation, m *display.MovieClip, args []avm1.Value) avm1.Value {
		return avm1.Number(float64(m.Depth()))
	}))
	method(a, proto, "getNextHighestDepth", clipMethod(func(a *avm1.Activation, m *display.MovieClip, args []avm1.Value) avm1.Value {
		next := 0
		for _, c := range m.Children() {
			if c.Depth() >= next {
				next = c.Depth() + 1
			}
		}
		return avm1.Number(float64(next))
	}))
	method(a, proto, "getBytesLoaded", clipMethod(func(a *avm1.Activation, m *display.MovieClip, args []avm1.Value) avm1.Value {
		return avm1.Number(float64(m.FramesLoaded()))
	}))
	method(a, proto, "getBytesTotal", clipMethod(func(a *avm1.Activation, m *display.MovieClip, args []avm1.Value) avm1.Value {
		return avm1.Number(float64(m.TotalFrames()))
	}))
	method(a, proto, "createEmptyMovieClip", clipCreateEmpty)
	method(a, proto, "duplicateMovieClip", clipDuplicate)
	method(a, proto, "removeMovieClip", clipRemove)
	method(a, proto, "attachMovie", clipAttach)
	method(a, proto, "swapDepths", clipSwapDepths)
	method(a, proto, "toString", clipToString)
}

// MovieClip is not scriptable as a constructor; instances come from the
// timeline or the create/duplicate methods.
func movieClipConstructor(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return avm1.Undefined, nil
}

func receiverClip(this avm1.Object) *display.MovieClip {
	so := avm1.AsStage(this)
	if so == nil {
		return nil
	}
	m, _ := so.Node().(*display.MovieClip)
	return m
}

func clipMethod(fn func(a *avm1.Activation, m *display.MovieClip, args []avm1.Value) avm1.Value) avm1.NativeFunction {
	return func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		m := receiverClip(this)
		if m == nil {
			return avm1.Undefined, nil
		}
		return fn(a, m, args), nil
	}
}

func clipGoto(play bool) avm1.NativeFunction {
	return clipMethod(func(a *avm1.Activation, m *display.MovieClip, args []avm1.Value) avm1.Value {
		target := arg(args, 0)
		if target.IsString() {
			if frame := m.FrameForLabel(target.AsString().ToUTF8()); frame > 0 {
				m.GotoFrame(frame, play)
			}
			return avm1.Undefined
		}
		m.GotoFrame(argInt(a, args, 0), play)
		return avm1.Undefined
	})
}

func clipCreateEmpty(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	m := receiverClip(this)
	if m == nil || len(args) < 2 {
		return avm1.Undefined, nil
	}
	child := display.NewMovieClip(argString(a, args, 0).ToUTF8(), argInt(a, args, 1), 1)
	m.AddChild(child)
	return avm1.ObjectValue(a.Avm().BindClip(a, child)), nil
}

func clipDuplicate(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	m := receiverClip(this)
	if m == nil || len(args) < 2 {
		return avm1.Undefined, nil
	}
	parent, ok := m.Parent().(*display.MovieClip)
	if !ok {
		return avm1.Undefined, nil
	}
	dup := display.NewMovieClip(argString(a, args, 0).ToUTF8(), argInt(a, args, 1), m.TotalFrames())
	dup.SetX(m.X())
	dup.SetY(m.Y())
	parent.AddChild(dup)
	return avm1.ObjectValue(a.Avm().BindClip(a, dup)), nil
}

func clipRemove(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	m := receiverClip(this)
	if m == nil {
		return avm1.Undefined, nil
	}
	if parent, ok := m.Parent().(*display.MovieClip); ok {
		parent.RemoveChild(m)
	}
	return avm1.Undefined, nil
}

// attachMovie builds an empty instance and runs the constructor bound
// by Object.registerClass for the symbol, when one exists.
func clipAttach(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	m := receiverClip(this)
	if m == nil || len(args) < 3 {
		return avm1.Undefined, nil
	}
	symbol := argString(a, args, 0).ToUTF8()
	child := display.NewMovieClip(argString(a, args, 1).ToUTF8(), argInt(a, args, 2), 1)
	m.AddChild(child)
	so := a.Avm().BindClip(a, child)
	if init := argObject(args, 3); init != nil {
		for _, k := range avm1.GetKeys(a, init) {
			v, err := avm1.Get(a, init, k)
			if err == nil {
				avm1.Set(a, so, k, v)
			}
		}
	}
	if ctor := a.Avm().RegisteredClass(symbol); ctor != nil {
		if protoVal, err := avm1.Get(a, ctor, a.Intern("prototype")); err == nil && protoVal.IsObject() {
			so.Raw().SetProto(protoVal)
		}
		if _, err := ctor.Call(a, avm1.ObjectValue(so), nil); err != nil {
			return avm1.Undefined, err
		}
	}
	return avm1.ObjectValue(so), nil
}

func clipSwapDepths(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	a.Ctx().Log.Debug("swapDepths is not supported on this stage model")
	return avm1.Undefined, nil
}

func clipToString(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	so := avm1.AsStage(this)
	if so == nil {
		return avm1.Str(""), nil
	}
	return avm1.Str(so.TargetPath()), nil
}
