package globals

import (
	"lantern/pkg/abc"
	"lantern/pkg/avm2"
)

type eventsModule struct{}

func (eventsModule) Name() string  { return "flash.events" }
func (eventsModule) Priority() int { return PriorityEvents }

func flashNS(pkg string) *avm2.Namespace {
	return avm2.NewNamespace(abc.NsPackage, pkg)
}

func (eventsModule) Install(a *avm2.Activation) {
	objectCls := a.Avm().ClassByName("Object")
	ns := flashNS("flash.events")

	eventCls := avm2.NewClass("Event", ns, objectCls, 0)
	eventCls.SetAllocator(func(a *avm2.Activation, c *avm2.Class, proto avm2.Value) (avm2.Object, error) {
		obj := avm2.NewScriptObject(a, c, proto)
		obj.SetNativeData(avm2.NewEventData("", false, false))
		return obj, nil
	})
	eventCls.SetNativeInit(eventInit)
	eventCls.DefineGetter(public(), "type", eventType)
	eventCls.DefineGetter(public(), "bubbles", eventBubbles)
	eventCls.DefineGetter(public(), "cancelable", eventCancelable)
	eventCls.DefineGetter(public(), "target", eventTarget)
	eventCls.DefineGetter(public(), "currentTarget", eventCurrentTarget)
	eventCls.DefineGetter(public(), "eventPhase", eventPhase)
	eventCls.DefineMethod(public(), "stopPropagation", eventStopPropagation)
	eventCls.DefineMethod(public(), "stopImmediatePropagation", eventStopImmediate)
	eventCls.DefineMethod(public(), "preventDefault", eventPreventDefault)
	eventCls.DefineMethod(public(), "isDefaultPrevented", eventIsDefaultPrevented)
	eventCls.DefineMethod(public(), "clone", eventClone)
	eventCls.DefineMethod(public(), "toString", eventToString)

	eventCO := defineClass(a, eventCls)
	if eventCO == nil {
		return
	}
	for name, value := range map[string]string{
		"ACTIVATE":           "activate",
		"ADDED":              "added",
		"ADDED_TO_STAGE":     "addedToStage",
		"CANCEL":             "cancel",
		"CHANGE":             "change",
		"CLOSE":              "close",
		"COMPLETE":           "complete",
		"CONNECT":            "connect",
		"DEACTIVATE":         "deactivate",
		"ENTER_FRAME":        "enterFrame",
		"EXIT_FRAME":         "exitFrame",
		"FRAME_CONSTRUCTED":  "frameConstructed",
		"INIT":               "init",
		"OPEN":               "open",
		"REMOVED":            "removed",
		"REMOVED_FROM_STAGE": "removedFromStage",
		"RENDER":             "render",
		"RESIZE":             "resize",
		"SCROLL":             "scroll",
		"SELECT":             "select",
		"UNLOAD":             "unload",
	} {
		eventCO.SetDynamic(name, avm2.Str(value))
	}

	dispatcherCls := avm2.NewClass("EventDispatcher", ns, objectCls, 0)
	dispatcherCls.SetAllocator(func(a *avm2.Activation, c *avm2.Class, proto avm2.Value) (avm2.Object, error) {
		obj := avm2.NewScriptObject(a, c, proto)
		obj.SetNativeData(avm2.NewEventDispatcherData())
		return obj, nil
	})
	dispatcherCls.SetNativeInit(noNativeInit)
	dispatcherCls.DefineMethod(public(), "addEventListener", dispatcherAddEventListener)
	dispatcherCls.DefineMethod(public(), "removeEventListener", dispatcherRemoveEventListener)
	dispatcherCls.DefineMethod(public(), "dispatchEvent", dispatcherDispatchEvent)
	dispatcherCls.DefineMethod(public(), "hasEventListener", dispatcherHasEventListener)
	dispatcherCls.DefineMethod(public(), "willTrigger", dispatcherWillTrigger)
	defineClass(a, dispatcherCls)

	mouseCls := avm2.NewClass("MouseEvent", ns, eventCls, 0)
	mouseCls.SetNativeInit(mouseEventInit)
	mouseCls.DefineGetter(public(), "localX", eventField("localX"))
	mouseCls.DefineGetter(public(), "localY", eventField("localY"))
	mouseCls.DefineGetter(public(), "stageX", eventField("stageX"))
	mouseCls.DefineGetter(public(), "stageY", eventField("stageY"))
	mouseCls.DefineGetter(public(), "buttonDown", eventField("buttonDown"))
	mouseCls.DefineGetter(public(), "delta", eventField("delta"))
	if co := defineClass(a, mouseCls); co != nil {
		for name, value := range map[string]string{
			"CLICK":        "click",
			"DOUBLE_CLICK": "doubleClick",
			"MOUSE_DOWN":   "mouseDown",
			"MOUSE_MOVE":   "mouseMove",
			"MOUSE_OUT":    "mouseOut",
			"MOUSE_OVER":   "mouseOver",
			"MOUSE_UP":     "mouseUp",
			"MOUSE_WHEEL":  "mouseWheel",
			"ROLL_OUT":     "rollOut",
			"ROLL_OVER":    "rollOver",
		} {
			co.SetDynamic(name, avm2.Str(value))
		}
	}

	keyboardCls := avm2.NewClass("KeyboardEvent", ns, eventCls, 0)
	keyboardCls.SetNativeInit(keyboardEventInit)
	keyboardCls.DefineGetter(public(), "keyCode", eventField("keyCode"))
	keyboardCls.DefineGetter(public(), "charCode", eventField("charCode"))
	keyboardCls.DefineGetter(public(), "shiftKey", eventField("shiftKey"))
	keyboardCls.DefineGetter(public(), "ctrlKey", eventField("ctrlKey"))
	keyboardCls.DefineGetter(public(), "altKey", eventField("altKey"))
	if co := defineClass(a, keyboardCls); co != nil {
		co.SetDynamic("KEY_DOWN", avm2.Str("keyDown"))
		co.SetDynamic("KEY_UP", avm2.Str("keyUp"))
	}

	timerCls := avm2.NewClass("TimerEvent", ns, eventCls, 0)
	timerCls.SetNativeInit(noNativeInit)
	if co := defineClass(a, timerCls); co != nil {
		co.SetDynamic("TIMER", avm2.Str("timer"))
		co.SetDynamic("TIMER_COMPLETE", avm2.Str("timerComplete"))
	}

	progressCls := avm2.NewClass("ProgressEvent", ns, eventCls, 0)
	progressCls.SetNativeInit(progressEventInit)
	progressCls.DefineGetter(public(), "bytesLoaded", eventField("bytesLoaded"))
	progressCls.DefineGetter(public(), "bytesTotal", eventField("bytesTotal"))
	if co := defineClass(a, progressCls); co != nil {
		co.SetDynamic("PROGRESS", avm2.Str("progress"))
		co.SetDynamic("SOCKET_DATA", avm2.Str("socketData"))
	}

	textEventCls := avm2.NewClass("TextEvent", ns, eventCls, 0)
	textEventCls.SetNativeInit(textEventInit)
	textEventCls.DefineGetter(public(), "text", eventField("text"))
	if co := defineClass(a, textEventCls); co != nil {
		co.SetDynamic("LINK", avm2.Str("link"))
		co.SetDynamic("TEXT_INPUT", avm2.Str("textInput"))
	}

	errorEventCls := avm2.NewClass("ErrorEvent", ns, textEventCls, 0)
	errorEventCls.SetNativeInit(noNativeInit)
	if co := defineClass(a, errorEventCls); co != nil {
		co.SetDynamic("ERROR", avm2.Str("error"))
	}

	ioErrorCls := avm2.NewClass("IOErrorEvent", ns, errorEventCls, 0)
	ioErrorCls.SetNativeInit(noNativeInit)
	if co := defineClass(a, ioErrorCls); co != nil {
		co.SetDynamic("IO_ERROR", avm2.Str("ioError"))
	}

	securityErrorCls := avm2.NewClass("SecurityErrorEvent", ns, errorEventCls, 0)
	securityErrorCls.SetNativeInit(noNativeInit)
	if co := defineClass(a, securityErrorCls); co != nil {
		co.SetDynamic("SECURITY_ERROR", avm2.Str("securityError"))
	}

	uncaughtCls := avm2.NewClass("UncaughtErrorEvent", ns, errorEventCls, 0)
	uncaughtCls.SetNativeInit(noNativeInit)
	uncaughtCls.DefineGetter(public(), "error", eventField("error"))
	if co := defineClass(a, uncaughtCls); co != nil {
		co.SetDynamic("UNCAUGHT_ERROR", avm2.Str("uncaughtError"))
	}
}

func eventOf(this avm2.Value) *avm2.EventData {
	return avm2.AsEventData(this.AsObject())
}

func eventInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	ed := eventOf(this)
	if ed == nil {
		return avm2.Undefined, nil
	}
	ed.Type = argUTF8(a, args, 0)
	ed.Bubbles = argBool(args, 1)
	ed.Cancelable = argBool(args, 2)
	return avm2.Undefined, nil
}

// eventField reads a subclass payload field stowed in the dynamic
// table by the subclass initializer.
func eventField(name string) avm2.NativeMethod {
	return func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		obj := this.AsObject()
		if obj == nil {
			return avm2.Undefined, nil
		}
		if v, ok := obj.Base().GetDynamic(name); ok {
			return v, nil
		}
		return avm2.Undefined, nil
	}
}

func mouseEventInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	if obj == nil {
		return avm2.Undefined, nil
	}
	obj.Base().SetDynamic("localX", avm2.Number(argNumber(a, args, 3)))
	obj.Base().SetDynamic("localY", avm2.Number(argNumber(a, args, 4)))
	obj.Base().SetDynamic("stageX", avm2.Number(argNumber(a, args, 3)))
	obj.Base().SetDynamic("stageY", avm2.Number(argNumber(a, args, 4)))
	obj.Base().SetDynamic("buttonDown", avm2.Bool(argBool(args, 6)))
	obj.Base().SetDynamic("delta", avm2.Integer(int32(argIntDefault(a, args, 7, 0))))
	return avm2.Undefined, nil
}

func keyboardEventInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	if obj == nil {
		return avm2.Undefined, nil
	}
	obj.Base().SetDynamic("charCode", avm2.Unsigned(uint32(argIntDefault(a, args, 3, 0))))
	obj.Base().SetDynamic("keyCode", avm2.Unsigned(uint32(argIntDefault(a, args, 4, 0))))
	obj.Base().SetDynamic("ctrlKey", avm2.Bool(argBool(args, 6)))
	obj.Base().SetDynamic("altKey", avm2.Bool(argBool(args, 7)))
	obj.Base().SetDynamic("shiftKey", avm2.Bool(argBool(args, 8)))
	return avm2.Undefined, nil
}

func progressEventInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	if obj == nil {
		return avm2.Undefined, nil
	}
	obj.Base().SetDynamic("bytesLoaded", avm2.Number(argNumber(a, args, 3)))
	obj.Base().SetDynamic("bytesTotal", avm2.Number(argNumber(a, args, 4)))
	return avm2.Undefined, nil
}

func textEventInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	if obj == nil {
		return avm2.Undefined, nil
	}
	if len(args) > 3 {
		obj.Base().SetDynamic("text", avm2.String(argString(a, args, 3)))
	} else {
		obj.Base().SetDynamic("text", avm2.Str(""))
	}
	return avm2.Undefined, nil
}

func eventType(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if ed := eventOf(this); ed != nil {
		return avm2.Str(ed.Type), nil
	}
	return avm2.Str(""), nil
}

func eventBubbles(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	ed := eventOf(this)
	return avm2.Bool(ed != nil && ed.Bubbles), nil
}

func eventCancelable(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	ed := eventOf(this)
	return avm2.Bool(ed != nil && ed.Cancelable), nil
}

func eventTarget(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if ed := eventOf(this); ed != nil {
		return ed.Target, nil
	}
	return avm2.Null, nil
}

func eventCurrentTarget(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if ed := eventOf(this); ed != nil {
		return ed.CurrentTarget, nil
	}
	return avm2.Null, nil
}

func eventPhase(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if ed := eventOf(this); ed != nil {
		return avm2.Integer(int32(ed.Phase)), nil
	}
	return avm2.Integer(avm2.AtTargetPhase), nil
}

func eventStopPropagation(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if ed := eventOf(this); ed != nil {
		ed.StopPropagation()
	}
	return avm2.Undefined, nil
}

func eventStopImmediate(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if ed := eventOf(this); ed != nil {
		ed.StopImmediatePropagation()
	}
	return avm2.Undefined, nil
}

func eventPreventDefault(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if ed := eventOf(this); ed != nil {
		ed.PreventDefault()
	}
	return avm2.Undefined, nil
}

func eventIsDefaultPrevented(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	ed := eventOf(this)
	return avm2.Bool(ed != nil && ed.DefaultPrevented()), nil
}

func eventClone(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	ed := eventOf(this)
	if obj == nil || ed == nil {
		return avm2.Null, nil
	}
	cls := obj.Base().Class()
	if cls == nil || cls.ClassObject() == nil {
		return avm2.Null, nil
	}
	clone, err := cls.ClassObject().Construct(a, []avm2.Value{
		avm2.Str(ed.Type), avm2.Bool(ed.Bubbles), avm2.Bool(ed.Cancelable),
	})
	if err != nil {
		return avm2.Undefined, err
	}
	for _, k := range obj.Base().DynamicKeys() {
		if v, ok := obj.Base().GetDynamic(k); ok {
			clone.Base().SetDynamic(k, v)
		}
	}
	return avm2.ObjectValue(clone), nil
}

func eventToString(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	ed := eventOf(this)
	if ed == nil {
		return avm2.Str("[Event]"), nil
	}
	name := "Event"
	if obj := this.AsObject(); obj != nil && obj.Base().Class() != nil {
		name = obj.Base().Class().Name()
	}
	return avm2.Str("[" + name + " type=\"" + ed.Type + "\"]"), nil
}

func dispatcherOf(this avm2.Value) *avm2.EventDispatcherData {
	return avm2.AsDispatcherData(this.AsObject())
}

func dispatcherAddEventListener(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	d := dispatcherOf(this)
	if d == nil {
		return avm2.Undefined, nil
	}
	eventType := argUTF8(a, args, 0)
	callback := argObject(args, 1)
	useCapture := argBool(args, 2)
	priority := argIntDefault(a, args, 3, 0)
	d.AddListener(eventType, callback, useCapture, priority)
	return avm2.Undefined, nil
}

func dispatcherRemoveEventListener(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	d := dispatcherOf(this)
	if d == nil {
		return avm2.Undefined, nil
	}
	d.RemoveListener(argUTF8(a, args, 0), argObject(args, 1), argBool(args, 2))
	return avm2.Undefined, nil
}

func dispatcherDispatchEvent(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	target := this.AsObject()
	eventObj := argObject(args, 0)
	if target == nil || eventObj == nil || avm2.AsEventData(eventObj) == nil {
		return avm2.Undefined, avm2.TypeError("dispatchEvent needs an Event")
	}
	ok, err := avm2.DispatchEvent(a, target, eventObj)
	if err != nil {
		return avm2.Undefined, err
	}
	return avm2.Bool(ok), nil
}

func dispatcherHasEventListener(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	d := dispatcherOf(this)
	return avm2.Bool(d != nil && d.HasListener(argUTF8(a, args, 0))), nil
}

func dispatcherWillTrigger(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	eventType := argUTF8(a, args, 0)
	if d := dispatcherOf(this); d != nil && d.HasListener(eventType) {
		return avm2.Bool(true), nil
	}
	if so := avm2.AsStageObject(this.AsObject()); so != nil {
		for _, anc := range so.AncestorObjects(a) {
			if d := avm2.AsDispatcherData(anc); d != nil && d.HasListener(eventType) {
				return avm2.Bool(true), nil
			}
		}
	}
	return avm2.Bool(false), nil
}
