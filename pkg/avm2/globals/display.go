package globals

import (
	"lantern/pkg/avm2"
	"lantern/pkg/display"
	"lantern/pkg/host"
)

type displayModule struct{}

func (displayModule) Name() string  { return "flash.display" }
func (displayModule) Priority() int { return PriorityDisplay }

// container is the subset of display nodes that hold children.
type container interface {
	display.Node
	Children() []display.Node
	ChildByName(name string, caseSensitive bool) display.Node
}

type childEditor interface {
	AddChild(child display.Node)
	RemoveChild(child display.Node)
}

func (displayModule) Install(a *avm2.Activation) {
	ns := flashNS("flash.display")
	dispatcherCls := a.Avm().ClassByName("EventDispatcher")

	doCls := avm2.NewClass("DisplayObject", ns, dispatcherCls, 0)
	doCls.SetAllocator(func(a *avm2.Activation, c *avm2.Class, proto avm2.Value) (avm2.Object, error) {
		return avm2.NewStageObject(a, c, display.NewShape("", 0), proto), nil
	})
	doCls.SetNativeInit(noNativeInit)
	defineNodeAccessors(doCls)
	defineClass(a, doCls)

	ioCls := avm2.NewClass("InteractiveObject", ns, doCls, 0)
	ioCls.SetNativeInit(noNativeInit)
	defineClass(a, ioCls)

	docCls := avm2.NewClass("DisplayObjectContainer", ns, ioCls, 0)
	docCls.SetNativeInit(noNativeInit)
	defineContainerMethods(docCls)
	defineClass(a, docCls)

	spriteCls := avm2.NewClass("Sprite", ns, docCls, 0)
	spriteCls.SetAllocator(movieClipAllocator)
	spriteCls.SetNativeInit(noNativeInit)
	defineClass(a, spriteCls)

	mcCls := avm2.NewClass("MovieClip", ns, spriteCls, 0)
	mcCls.SetNativeInit(noNativeInit)
	mcCls.DefineGetter(public(), "currentFrame", movieClipCurrentFrame)
	mcCls.DefineGetter(public(), "totalFrames", movieClipTotalFrames)
	mcCls.DefineGetter(public(), "framesLoaded", movieClipFramesLoaded)
	mcCls.DefineGetter(public(), "isPlaying", movieClipIsPlaying)
	mcCls.DefineMethod(public(), "play", movieClipPlay)
	mcCls.DefineMethod(public(), "stop", movieClipStop)
	mcCls.DefineMethod(public(), "gotoAndPlay", movieClipGoto(true))
	mcCls.DefineMethod(public(), "gotoAndStop", movieClipGoto(false))
	mcCls.DefineMethod(public(), "nextFrame", movieClipStep(1))
	mcCls.DefineMethod(public(), "prevFrame", movieClipStep(-1))
	mcCls.DefineMethod(public(), "addFrameScript", movieClipAddFrameScript)
	defineClass(a, mcCls)

	shapeCls := avm2.NewClass("Shape", ns, doCls, 0)
	shapeCls.SetNativeInit(noNativeInit)
	defineClass(a, shapeCls)

	stageCls := avm2.NewClass("Stage", ns, docCls, 0)
	stageCls.SetNativeInit(func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		return avm2.Undefined, avm2.TypeError("Stage cannot be instantiated")
	})
	stageCls.DefineGetter(public(), "stageWidth", stageDimension(func(s *display.Stage) float64 { return s.StageWidth() }))
	stageCls.DefineGetter(public(), "stageHeight", stageDimension(func(s *display.Stage) float64 { return s.StageHeight() }))
	stageCls.DefineGetter(public(), "align", stageText(func(s *display.Stage) string { return s.Align() }))
	stageCls.DefineSetter(public(), "align", stageSetText(func(s *display.Stage, v string) { s.SetAlign(v) }))
	stageCls.DefineGetter(public(), "scaleMode", stageText(func(s *display.Stage) string { return s.ScaleMode() }))
	stageCls.DefineSetter(public(), "scaleMode", stageSetText(func(s *display.Stage, v string) { s.SetScaleMode(v) }))
	stageCls.DefineGetter(public(), "quality", stageText(func(s *display.Stage) string { return s.Quality() }))
	stageCls.DefineSetter(public(), "quality", stageSetText(func(s *display.Stage, v string) { s.SetQuality(v) }))
	stageCls.DefineGetter(public(), "focus", stageFocus)
	stageCls.DefineSetter(public(), "focus", stageSetFocus)
	defineClass(a, stageCls)

	bitmapCls := avm2.NewClass("Bitmap", ns, doCls, 0)
	bitmapCls.SetNativeInit(bitmapInit)
	bitmapCls.DefineGetter(public(), "bitmapData", eventField("bitmapData"))
	defineClass(a, bitmapCls)

	loaderInfoCls := avm2.NewClass("LoaderInfo", ns, dispatcherCls, 0)
	loaderInfoCls.SetNativeInit(noNativeInit)
	for _, field := range []string{"bytesLoaded", "bytesTotal", "url", "loaderURL", "content", "loader"} {
		loaderInfoCls.DefineGetter(public(), field, eventField("__"+field))
	}
	defineClass(a, loaderInfoCls)

	loaderCls := avm2.NewClass("Loader", ns, docCls, 0)
	loaderCls.SetNativeInit(loaderInit)
	loaderCls.DefineMethod(public(), "load", loaderLoad)
	loaderCls.DefineMethod(public(), "loadBytes", loaderLoadBytes)
	loaderCls.DefineMethod(public(), "unload", loaderUnload)
	loaderCls.DefineGetter(public(), "contentLoaderInfo", eventField("__contentLoaderInfo"))
	loaderCls.DefineGetter(public(), "content", loaderContent)
	defineClass(a, loaderCls)
}

func movieClipAllocator(a *avm2.Activation, c *avm2.Class, proto avm2.Value) (avm2.Object, error) {
	return avm2.NewStageObject(a, c, display.NewMovieClip("", 0, 1), proto), nil
}

func nodeOf(this avm2.Value) display.Node {
	so := avm2.AsStageObject(this.AsObject())
	if so == nil {
		return nil
	}
	return so.Node()
}

func clipOf(this avm2.Value) *display.MovieClip {
	mc, _ := nodeOf(this).(*display.MovieClip)
	return mc
}

func containerOf(this avm2.Value) container {
	c, _ := nodeOf(this).(container)
	return c
}

func stageOf(a *avm2.Activation, this avm2.Value) *display.Stage {
	if s, ok := nodeOf(this).(*display.Stage); ok {
		return s
	}
	return a.Avm().Ctx().Stage
}

// bindNode wraps a node in its script object, the stage included.
func bindNode(a *avm2.Activation, node display.Node) avm2.Value {
	if node == nil {
		return avm2.Null
	}
	if s, ok := node.(*display.Stage); ok {
		return avm2.ObjectValue(bindStage(a, s))
	}
	return avm2.ObjectValue(a.Avm().BindDisplayObject(a, node))
}

func bindStage(a *avm2.Activation, s *display.Stage) avm2.Object {
	if existing, ok := s.ScriptObject().(*avm2.StageObject); ok && existing != nil {
		return existing
	}
	cls := a.Avm().ClassByName("Stage")
	proto := a.Avm().ProtoFor().Object
	if cls != nil && cls.ClassObject() != nil {
		proto = avm2.ObjectValue(cls.ClassObject().Prototype())
	}
	so := avm2.NewStageObject(a, cls, s, proto)
	s.SetScriptObject(avm2.Object(so))
	return so
}

func nodeGetter(fn func(n display.Node) avm2.Value) avm2.NativeMethod {
	return func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		n := nodeOf(this)
		if n == nil {
			return avm2.Undefined, avm2.TypeError("receiver is not a display object")
		}
		return fn(n), nil
	}
}

func nodeSetter(fn func(n display.Node, v float64)) avm2.NativeMethod {
	return func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		n := nodeOf(this)
		if n == nil {
			return avm2.Undefined, avm2.TypeError("receiver is not a display object")
		}
		fn(n, argNumber(a, args, 0))
		return avm2.Undefined, nil
	}
}

func defineNodeAccessors(cls *avm2.Class) {
	cls.DefineGetter(public(), "x", nodeGetter(func(n display.Node) avm2.Value { return avm2.Number(n.X()) }))
	cls.DefineSetter(public(), "x", nodeSetter(func(n display.Node, v float64) { n.SetX(v) }))
	cls.DefineGetter(public(), "y", nodeGetter(func(n display.Node) avm2.Value { return avm2.Number(n.Y()) }))
	cls.DefineSetter(public(), "y", nodeSetter(func(n display.Node, v float64) { n.SetY(v) }))
	cls.DefineGetter(public(), "scaleX", nodeGetter(func(n display.Node) avm2.Value { return avm2.Number(n.XScale() / 100) }))
	cls.DefineSetter(public(), "scaleX", nodeSetter(func(n display.Node, v float64) { n.SetXScale(v * 100) }))
	cls.DefineGetter(public(), "scaleY", nodeGetter(func(n display.Node) avm2.Value { return avm2.Number(n.YScale() / 100) }))
	cls.DefineSetter(public(), "scaleY", nodeSetter(func(n display.Node, v float64) { n.SetYScale(v * 100) }))
	cls.DefineGetter(public(), "rotation", nodeGetter(func(n display.Node) avm2.Value { return avm2.Number(n.Rotation()) }))
	cls.DefineSetter(public(), "rotation", nodeSetter(func(n display.Node, v float64) { n.SetRotation(v) }))
	cls.DefineGetter(public(), "alpha", nodeGetter(func(n display.Node) avm2.Value { return avm2.Number(n.Alpha() / 100) }))
	cls.DefineSetter(public(), "alpha", nodeSetter(func(n display.Node, v float64) { n.SetAlpha(v * 100) }))
	cls.DefineGetter(public(), "width", nodeGetter(func(n display.Node) avm2.Value { return avm2.Number(n.Width()) }))
	cls.DefineSetter(public(), "width", nodeSetter(func(n display.Node, v float64) { n.SetWidth(v) }))
	cls.DefineGetter(public(), "height", nodeGetter(func(n display.Node) avm2.Value { return avm2.Number(n.Height()) }))
	cls.DefineSetter(public(), "height", nodeSetter(func(n display.Node, v float64) { n.SetHeight(v) }))
	cls.DefineGetter(public(), "visible", nodeGetter(func(n display.Node) avm2.Value { return avm2.Bool(n.Visible()) }))
	cls.DefineSetter(public(), "visible", func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		if n := nodeOf(this); n != nil {
			n.SetVisible(argBool(args, 0))
		}
		return avm2.Undefined, nil
	})
	cls.DefineGetter(public(), "name", nodeGetter(func(n display.Node) avm2.Value { return avm2.Str(n.Name()) }))
	cls.DefineSetter(public(), "name", func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		if n := nodeOf(this); n != nil {
			n.SetName(argUTF8(a, args, 0))
		}
		return avm2.Undefined, nil
	})
	cls.DefineGetter(public(), "parent", displayParent)
	cls.DefineGetter(public(), "root", displayRoot)
	cls.DefineGetter(public(), "stage", displayStage)
	cls.DefineGetter(public(), "mouseX", displayMouse(func(s *display.Stage) float64 { return s.MouseX() }))
	cls.DefineGetter(public(), "mouseY", displayMouse(func(s *display.Stage) float64 { return s.MouseY() }))
}

func displayParent(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	n := nodeOf(this)
	if n == nil || n.Parent() == nil {
		return avm2.Null, nil
	}
	return bindNode(a, n.Parent()), nil
}

// displayRoot walks to the outermost timeline below the stage.
func displayRoot(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	n := nodeOf(this)
	if n == nil {
		return avm2.Null, nil
	}
	root := n
	for p := root.Parent(); p != nil; p = p.Parent() {
		if _, isStage := p.(*display.Stage); isStage {
			break
		}
		root = p
	}
	if _, ok := root.(*display.MovieClip); !ok {
		return avm2.Null, nil
	}
	return bindNode(a, root), nil
}

// displayStage answers null until the object is on the display list.
func displayStage(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	n := nodeOf(this)
	if n == nil {
		return avm2.Null, nil
	}
	for p := n; p != nil; p = p.Parent() {
		if s, ok := p.(*display.Stage); ok {
			return avm2.ObjectValue(bindStage(a, s)), nil
		}
	}
	return avm2.Null, nil
}

func displayMouse(read func(s *display.Stage) float64) avm2.NativeMethod {
	return func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		s := a.Avm().Ctx().Stage
		if s == nil {
			return avm2.Number(0), nil
		}
		return avm2.Number(read(s)), nil
	}
}

func defineContainerMethods(cls *avm2.Class) {
	cls.DefineGetter(public(), "numChildren", containerNumChildren)
	cls.DefineMethod(public(), "addChild", containerAddChild)
	cls.DefineMethod(public(), "addChildAt", containerAddChild)
	cls.DefineMethod(public(), "removeChild", containerRemoveChild)
	cls.DefineMethod(public(), "removeChildAt", containerRemoveChildAt)
	cls.DefineMethod(public(), "getChildAt", containerGetChildAt)
	cls.DefineMethod(public(), "getChildByName", containerGetChildByName)
	cls.DefineMethod(public(), "contains", containerContains)
}

func containerNumChildren(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	c := containerOf(this)
	if c == nil {
		return avm2.Integer(0), nil
	}
	return avm2.Integer(int32(len(c.Children()))), nil
}

func containerAddChild(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	editor, _ := nodeOf(this).(childEditor)
	child := nodeOf(arg(args, 0))
	if editor == nil || child == nil {
		return avm2.Undefined, avm2.TypeError("addChild needs a display object")
	}
	editor.AddChild(child)
	return arg(args, 0), nil
}

func containerRemoveChild(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	editor, _ := nodeOf(this).(childEditor)
	child := nodeOf(arg(args, 0))
	if editor == nil || child == nil {
		return avm2.Undefined, avm2.TypeError("removeChild needs a display object")
	}
	if parentOf(child) != nodeOf(this) {
		return avm2.Undefined, avm2.ArgumentError("child is not on this container")
	}
	editor.RemoveChild(child)
	return arg(args, 0), nil
}

func parentOf(n display.Node) display.Node {
	if n == nil {
		return nil
	}
	return n.Parent()
}

func containerRemoveChildAt(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	c := containerOf(this)
	editor, _ := nodeOf(this).(childEditor)
	i := argInt(a, args, 0)
	if c == nil || editor == nil {
		return avm2.Undefined, avm2.TypeError("receiver is not a container")
	}
	kids := c.Children()
	if i < 0 || i >= len(kids) {
		return avm2.Undefined, avm2.RangeError("child index %d out of range", i)
	}
	editor.RemoveChild(kids[i])
	return bindNode(a, kids[i]), nil
}

func containerGetChildAt(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	c := containerOf(this)
	i := argInt(a, args, 0)
	if c == nil {
		return avm2.Undefined, avm2.TypeError("receiver is not a container")
	}
	kids := c.Children()
	if i < 0 || i >= len(kids) {
		return avm2.Undefined, avm2.RangeError("child index %d out of range", i)
	}
	return bindNode(a, kids[i]), nil
}

func containerGetChildByName(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	c := containerOf(this)
	if c == nil {
		return avm2.Null, nil
	}
	child := c.ChildByName(argUTF8(a, args, 0), true)
	if child == nil {
		return avm2.Null, nil
	}
	return bindNode(a, child), nil
}

func containerContains(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	self := nodeOf(this)
	child := nodeOf(arg(args, 0))
	for p := child; p != nil; p = p.Parent() {
		if p == self {
			return avm2.Bool(true), nil
		}
	}
	return avm2.Bool(false), nil
}

func movieClipCurrentFrame(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if mc := clipOf(this); mc != nil {
		return avm2.Integer(int32(mc.CurrentFrame())), nil
	}
	return avm2.Integer(0), nil
}

func movieClipTotalFrames(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if mc := clipOf(this); mc != nil {
		return avm2.Integer(int32(mc.TotalFrames())), nil
	}
	return avm2.Integer(0), nil
}

func movieClipFramesLoaded(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if mc := clipOf(this); mc != nil {
		return avm2.Integer(int32(mc.FramesLoaded())), nil
	}
	return avm2.Integer(0), nil
}

func movieClipIsPlaying(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	mc := clipOf(this)
	return avm2.Bool(mc != nil && mc.Playing()), nil
}

func movieClipPlay(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if mc := clipOf(this); mc != nil {
		mc.Play()
	}
	return avm2.Undefined, nil
}

func movieClipStop(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if mc := clipOf(this); mc != nil {
		mc.Stop()
	}
	return avm2.Undefined, nil
}

// movieClipGoto accepts a 1-based frame number or a frame label.
func movieClipGoto(play bool) avm2.NativeMethod {
	return func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		mc := clipOf(this)
		if mc == nil {
			return avm2.Undefined, nil
		}
		target := arg(args, 0)
		frame := 0
		if target.IsString() {
			frame = mc.FrameForLabel(argUTF8(a, args, 0))
			if frame == 0 {
				return avm2.Undefined, avm2.ArgumentError("frame label %q not found", argUTF8(a, args, 0))
			}
		} else {
			frame = argInt(a, args, 0)
		}
		mc.GotoFrame(frame, play)
		return avm2.Undefined, nil
	}
}

func movieClipStep(delta int) avm2.NativeMethod {
	return func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		mc := clipOf(this)
		if mc == nil {
			return avm2.Undefined, nil
		}
		mc.GotoFrame(mc.CurrentFrame()+delta, false)
		return avm2.Undefined, nil
	}
}

// movieClipAddFrameScript takes (frameIndex, closure) pairs with
// zero-based frame indices.
func movieClipAddFrameScript(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	mc := clipOf(this)
	if mc == nil {
		return avm2.Undefined, nil
	}
	for i := 0; i+1 < len(args); i += 2 {
		frame := argInt(a, args, i)
		fn := argObject(args, i+1)
		if fn == nil {
			continue
		}
		mc.AddFrameScript(frame+1, fn)
	}
	return avm2.Undefined, nil
}

func stageDimension(read func(s *display.Stage) float64) avm2.NativeMethod {
	return func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		s := stageOf(a, this)
		if s == nil {
			return avm2.Number(0), nil
		}
		return avm2.Number(read(s)), nil
	}
}

func stageText(read func(s *display.Stage) string) avm2.NativeMethod {
	return func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		s := stageOf(a, this)
		if s == nil {
			return avm2.Str(""), nil
		}
		return avm2.Str(read(s)), nil
	}
}

func stageSetText(write func(s *display.Stage, v string)) avm2.NativeMethod {
	return func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		if s := stageOf(a, this); s != nil {
			write(s, argUTF8(a, args, 0))
		}
		return avm2.Undefined, nil
	}
}

func stageFocus(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	s := stageOf(a, this)
	if s == nil || s.Focus() == nil {
		return avm2.Null, nil
	}
	return bindNode(a, s.Focus()), nil
}

func stageSetFocus(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	s := stageOf(a, this)
	if s == nil {
		return avm2.Undefined, nil
	}
	s.SetFocus(nodeOf(arg(args, 0)))
	return avm2.Undefined, nil
}

func bitmapInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if obj := this.AsObject(); obj != nil && len(args) > 0 {
		obj.Base().SetDynamic("bitmapData", args[0])
	}
	return avm2.Undefined, nil
}

func loaderInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	if obj == nil {
		return avm2.Undefined, nil
	}
	info, err := newNetInstance(a, "LoaderInfo", nil)
	if err != nil {
		return avm2.Undefined, err
	}
	info.AsObject().Base().SetDynamic("__loader", this)
	obj.Base().SetDynamic("__contentLoaderInfo", info)
	return avm2.Undefined, nil
}

func loaderInfoOf(a *avm2.Activation, loader avm2.Object) avm2.Object {
	if v, ok := loader.Base().GetDynamic("__contentLoaderInfo"); ok {
		return v.AsObject()
	}
	return nil
}

func loaderLoad(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	loader := this.AsObject()
	request := argObject(args, 0)
	if loader == nil || request == nil {
		return avm2.Undefined, avm2.TypeError("load needs a URLRequest")
	}
	nav := a.Avm().Ctx().Navigator
	if nav == nil {
		return avm2.Undefined, avm2.IOError("no network access")
	}
	target := dynString(a, request, "url", "")
	id := nav.Fetch(target, "GET", nil, nil)
	a.Avm().AwaitFetch(id, func(a *avm2.Activation, resp host.Response) {
		info := loaderInfoOf(a, loader)
		if info == nil {
			return
		}
		n := avm2.Unsigned(uint32(len(resp.Body)))
		info.Base().SetDynamic("__bytesLoaded", n)
		info.Base().SetDynamic("__bytesTotal", n)
		info.Base().SetDynamic("__url", avm2.Str(resp.URL))
		if resp.Err != nil || resp.Status >= 400 {
			dispatchNamedEvent(a, info, "IOErrorEvent", "ioError")
			return
		}
		deliverLoadedBytes(a, loader, info, resp.Body)
	})
	return avm2.Undefined, nil
}

func loaderLoadBytes(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	loader := this.AsObject()
	bd := byteDataOf(arg(args, 0))
	if loader == nil || bd == nil {
		return avm2.Undefined, avm2.TypeError("loadBytes needs a ByteArray")
	}
	info := loaderInfoOf(a, loader)
	if info == nil {
		return avm2.Undefined, nil
	}
	n := avm2.Unsigned(uint32(bd.Len()))
	info.Base().SetDynamic("__bytesLoaded", n)
	info.Base().SetDynamic("__bytesTotal", n)
	deliverLoadedBytes(a, loader, info, bd.Bytes())
	return avm2.Undefined, nil
}

// deliverLoadedBytes runs the loaded unit in the root application
// domain and surfaces the outcome on the loader info.
func deliverLoadedBytes(a *avm2.Activation, loader, info avm2.Object, body []byte) {
	if _, err := a.Avm().LoadABC(a, body, nil); err != nil {
		dispatchNamedEvent(a, info, "IOErrorEvent", "ioError")
		return
	}
	content, err := newNetInstance(a, "Sprite", nil)
	if err != nil {
		a.Avm().ReportUncaught("loader content", err)
		return
	}
	info.Base().SetDynamic("__content", content)
	dispatchNamedEvent(a, info, "ProgressEvent", "progress")
	dispatchNamedEvent(a, info, "Event", "init")
	dispatchNamedEvent(a, info, "Event", "complete")
}

func loaderUnload(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	loader := this.AsObject()
	if loader == nil {
		return avm2.Undefined, nil
	}
	if info := loaderInfoOf(a, loader); info != nil {
		info.Base().SetDynamic("__content", avm2.Null)
		dispatchNamedEvent(a, info, "Event", "unload")
	}
	return avm2.Undefined, nil
}

func loaderContent(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	loader := this.AsObject()
	if loader == nil {
		return avm2.Null, nil
	}
	info := loaderInfoOf(a, loader)
	if info == nil {
		return avm2.Null, nil
	}
	if v, ok := info.Base().GetDynamic("__content"); ok {
		return v, nil
	}
	return avm2.Null, nil
}
