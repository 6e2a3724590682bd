package globals

import (
	"lantern/pkg/abc"
	"lantern/pkg/avm2"
)

type utilsModule struct{}

func (utilsModule) Name() string  { return "flash.utils" }
func (utilsModule) Priority() int { return PriorityUtils }

// timerState is the native payload behind Timer: the tick cadence and
// the live scheduler registration.
type timerState struct {
	disp         *avm2.EventDispatcherData
	delay        float64
	repeatCount  int
	currentCount int
	schedID      int
	running      bool
}

func (t *timerState) Dispatcher() *avm2.EventDispatcherData { return t.disp }

func timerStateOf(this avm2.Value) *timerState {
	obj := this.AsObject()
	if obj == nil {
		return nil
	}
	st, _ := obj.NativeData().(*timerState)
	return st
}

func (utilsModule) Install(a *avm2.Activation) {
	dispatcherCls := a.Avm().ClassByName("EventDispatcher")
	objectCls := a.Avm().ClassByName("Object")
	ns := flashNS("flash.utils")

	timerCls := avm2.NewClass("Timer", ns, dispatcherCls, 0)
	timerCls.SetAllocator(func(a *avm2.Activation, c *avm2.Class, proto avm2.Value) (avm2.Object, error) {
		obj := avm2.NewScriptObject(a, c, proto)
		obj.SetNativeData(&timerState{disp: avm2.NewEventDispatcherData(), schedID: -1})
		return obj, nil
	})
	timerCls.SetNativeInit(timerInit)
	timerCls.DefineMethod(public(), "start", timerStart)
	timerCls.DefineMethod(public(), "stop", timerStop)
	timerCls.DefineMethod(public(), "reset", timerReset)
	timerCls.DefineGetter(public(), "delay", timerDelay)
	timerCls.DefineSetter(public(), "delay", timerSetDelay)
	timerCls.DefineGetter(public(), "repeatCount", timerRepeatCount)
	timerCls.DefineSetter(public(), "repeatCount", timerSetRepeatCount)
	timerCls.DefineGetter(public(), "currentCount", timerCurrentCount)
	timerCls.DefineGetter(public(), "running", timerRunning)
	defineClass(a, timerCls)

	byteArrayCls := avm2.NewClass("ByteArray", ns, objectCls, 0)
	byteArrayCls.SetAllocator(func(a *avm2.Activation, c *avm2.Class, proto avm2.Value) (avm2.Object, error) {
		obj := avm2.NewScriptObject(a, c, proto)
		obj.SetNativeData(avm2.NewByteArrayData())
		return obj, nil
	})
	byteArrayCls.SetNativeInit(noNativeInit)
	defineByteArrayMembers(byteArrayCls)
	if co := defineClass(a, byteArrayCls); co != nil {
		a.Avm().ProtoFor().ByteArray = avm2.ObjectValue(co.Prototype())
	}

	endianCls := avm2.NewClass("Endian", ns, objectCls, avm2.ClassFlagSealed|avm2.ClassFlagFinal)
	endianCls.SetNativeInit(noConstructor("Endian"))
	if co := defineClass(a, endianCls); co != nil {
		co.SetDynamic("BIG_ENDIAN", avm2.Str("bigEndian"))
		co.SetDynamic("LITTLE_ENDIAN", avm2.Str("littleEndian"))
	}

	dictCls := avm2.NewClass("Dictionary", ns, objectCls, 0)
	dictCls.SetAllocator(func(a *avm2.Activation, c *avm2.Class, proto avm2.Value) (avm2.Object, error) {
		return avm2.NewDictionaryObject(a, c, proto), nil
	})
	dictCls.SetNativeInit(noNativeInit)
	if co := defineClass(a, dictCls); co != nil {
		a.Avm().ProtoFor().Dictionary = avm2.ObjectValue(co.Prototype())
	}

	proxyCls := avm2.NewClass("Proxy", ns, objectCls, 0)
	proxyCls.SetNativeInit(noNativeInit)
	proxyNS := avm2.NewNamespace(abc.NsNamespace, avm2.FlashProxyNS)
	for _, trap := range []string{"getProperty", "setProperty", "deleteProperty", "hasProperty", "callProperty"} {
		proxyCls.DefineMethod(proxyNS, trap, proxyTrapStub(trap))
	}
	defineClass(a, proxyCls)

	avm := a.Avm()
	avm.DefineGlobalFunction(a, "getTimer", utilsGetTimer)
	avm.DefineGlobalFunction(a, "setTimeout", utilsTimerAdd(false))
	avm.DefineGlobalFunction(a, "setInterval", utilsTimerAdd(true))
	avm.DefineGlobalFunction(a, "clearTimeout", utilsClearTimer)
	avm.DefineGlobalFunction(a, "clearInterval", utilsClearTimer)
	avm.DefineGlobalFunction(a, "getQualifiedClassName", utilsQualifiedClassName)
	avm.DefineGlobalFunction(a, "getQualifiedSuperclassName", utilsQualifiedSuperclassName)
	avm.DefineGlobalFunction(a, "getDefinitionByName", utilsDefinitionByName)
}

func timerInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	st := timerStateOf(this)
	if st == nil {
		return avm2.Undefined, avm2.TypeError("receiver is not a Timer")
	}
	st.delay = argNumber(a, args, 0)
	if st.delay < 0 || st.delay != st.delay {
		return avm2.Undefined, avm2.RangeError("timer delay must be non-negative")
	}
	st.repeatCount = argIntDefault(a, args, 1, 0)
	return avm2.Undefined, nil
}

func timerStart(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	st := timerStateOf(this)
	if st == nil {
		return avm2.Undefined, avm2.TypeError("receiver is not a Timer")
	}
	if st.running {
		return avm2.Undefined, nil
	}
	sched := a.Avm().Ctx().Scheduler
	if sched == nil {
		return avm2.Undefined, nil
	}
	avm := a.Avm()
	target := this.AsObject()
	st.running = true
	st.schedID = sched.Add(st.delay, true, func() {
		timerFire(avm.NewActivation("[timer]"), target, st)
	})
	return avm2.Undefined, nil
}

// timerFire delivers one tick: a timer event, then timerComplete once
// the configured repeat count is exhausted.
func timerFire(a *avm2.Activation, target avm2.Object, st *timerState) {
	if !st.running {
		return
	}
	st.currentCount++
	dispatchNamedEvent(a, target, "TimerEvent", "timer")
	if st.repeatCount > 0 && st.currentCount >= st.repeatCount {
		stopTimer(a, st)
		dispatchNamedEvent(a, target, "TimerEvent", "timerComplete")
	}
}

func stopTimer(a *avm2.Activation, st *timerState) {
	if !st.running {
		return
	}
	st.running = false
	if sched := a.Avm().Ctx().Scheduler; sched != nil && st.schedID >= 0 {
		sched.Remove(st.schedID)
	}
	st.schedID = -1
}

func timerStop(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if st := timerStateOf(this); st != nil {
		stopTimer(a, st)
	}
	return avm2.Undefined, nil
}

func timerReset(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if st := timerStateOf(this); st != nil {
		stopTimer(a, st)
		st.currentCount = 0
	}
	return avm2.Undefined, nil
}

func timerDelay(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if st := timerStateOf(this); st != nil {
		return avm2.Number(st.delay), nil
	}
	return avm2.Number(0), nil
}

// timerSetDelay restarts a running timer so the new cadence takes
// effect immediately.
func timerSetDelay(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	st := timerStateOf(this)
	if st == nil {
		return avm2.Undefined, nil
	}
	delay := argNumber(a, args, 0)
	if delay < 0 || delay != delay {
		return avm2.Undefined, avm2.RangeError("timer delay must be non-negative")
	}
	wasRunning := st.running
	stopTimer(a, st)
	st.delay = delay
	if wasRunning {
		return timerStart(a, this, nil)
	}
	return avm2.Undefined, nil
}

func timerRepeatCount(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if st := timerStateOf(this); st != nil {
		return avm2.Integer(int32(st.repeatCount)), nil
	}
	return avm2.Integer(0), nil
}

func timerSetRepeatCount(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	st := timerStateOf(this)
	if st == nil {
		return avm2.Undefined, nil
	}
	st.repeatCount = argInt(a, args, 0)
	if st.running && st.repeatCount > 0 && st.currentCount >= st.repeatCount {
		stopTimer(a, st)
	}
	return avm2.Undefined, nil
}

func timerCurrentCount(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if st := timerStateOf(this); st != nil {
		return avm2.Integer(int32(st.currentCount)), nil
	}
	return avm2.Integer(0), nil
}

func timerRunning(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if st := timerStateOf(this); st != nil {
		return avm2.Bool(st.running), nil
	}
	return avm2.Bool(false), nil
}

func utilsGetTimer(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return avm2.Number(a.Avm().ElapsedMs()), nil
}

func utilsTimerAdd(repeating bool) avm2.NativeMethod {
	return func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		sched := a.Avm().Ctx().Scheduler
		fn := argObject(args, 0)
		if sched == nil || fn == nil || len(args) < 2 {
			return avm2.Integer(0), nil
		}
		delay := argNumber(a, args, 1)
		var extra []avm2.Value
		if len(args) > 2 {
			extra = append(extra, args[2:]...)
		}
		avm := a.Avm()
		id := sched.Add(delay, repeating, func() {
			a := avm.NewActivation("[timeout]")
			if _, err := fn.Call(a, avm2.Undefined, extra); err != nil {
				avm.ReportUncaught("timer handler", err)
			}
		})
		return avm2.Integer(int32(id)), nil
	}
}

func utilsClearTimer(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if sched := a.Avm().Ctx().Scheduler; sched != nil {
		sched.Remove(argInt(a, args, 0))
	}
	return avm2.Undefined, nil
}

// classOfValue maps a value to the class reflection reports for it.
func classOfValue(a *avm2.Activation, v avm2.Value) *avm2.Class {
	switch v.Kind() {
	case avm2.KindInt:
		return a.Avm().ClassByName("int")
	case avm2.KindUint:
		return a.Avm().ClassByName("uint")
	case avm2.KindNumber:
		return a.Avm().ClassByName("Number")
	case avm2.KindString:
		return a.Avm().ClassByName("String")
	case avm2.KindBool:
		return a.Avm().ClassByName("Boolean")
	case avm2.KindObject:
		obj := v.AsObject()
		if co, ok := obj.(*avm2.ClassObject); ok {
			return co.InnerClass()
		}
		return obj.Base().Class()
	}
	return nil
}

func utilsQualifiedClassName(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	v := arg(args, 0)
	switch v.Kind() {
	case avm2.KindUndefined:
		return avm2.Str("void"), nil
	case avm2.KindNull:
		return avm2.Str("null"), nil
	}
	if cls := classOfValue(a, v); cls != nil {
		return avm2.Str(cls.QualifiedName()), nil
	}
	return avm2.Str("Object"), nil
}

func utilsQualifiedSuperclassName(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	cls := classOfValue(a, arg(args, 0))
	if cls == nil || cls.Super() == nil {
		return avm2.Null, nil
	}
	return avm2.Str(cls.Super().QualifiedName()), nil
}

func utilsDefinitionByName(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	mn := parseDefinitionName(argString(a, args, 0))
	if v, err := a.Avm().RootDomain().GetDefinition(a, mn); err == nil {
		return v, nil
	}
	// Builtins live as const traits on the application globals, not in
	// any loaded unit.
	if v, err := avm2.GetProperty(a, a.Avm().Globals(), mn); err == nil && !v.IsUndefined() {
		return v, nil
	}
	return avm2.Undefined, avm2.ReferenceError("definition %s not found", mn.ToQualifiedString())
}

func proxyTrapStub(trap string) avm2.NativeMethod {
	return func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		return avm2.Undefined, avm2.IllegalOperationError("Proxy subclass does not override %s", trap)
	}
}

func byteDataOf(this avm2.Value) *avm2.ByteArrayData {
	obj := this.AsObject()
	if obj == nil {
		return nil
	}
	bd, _ := obj.NativeData().(*avm2.ByteArrayData)
	return bd
}

func defineByteArrayMembers(cls *avm2.Class) {
	cls.DefineGetter(public(), "length", byteArrayLength)
	cls.DefineSetter(public(), "length", byteArraySetLength)
	cls.DefineGetter(public(), "position", byteArrayPosition)
	cls.DefineSetter(public(), "position", byteArraySetPosition)
	cls.DefineGetter(public(), "bytesAvailable", byteArrayBytesAvailable)
	cls.DefineGetter(public(), "endian", byteArrayEndian)
	cls.DefineSetter(public(), "endian", byteArraySetEndian)
	cls.DefineMethod(public(), "clear", byteArrayClear)
	cls.DefineMethod(public(), "toString", byteArrayToString)
	cls.DefineMethod(public(), "compress", byteArrayCompress)
	cls.DefineMethod(public(), "uncompress", byteArrayUncompress)
	cls.DefineMethod(public(), "deflate", byteArrayDeflate)
	cls.DefineMethod(public(), "inflate", byteArrayInflate)
	cls.DefineMethod(public(), "readByte", byteArrayReadByte)
	cls.DefineMethod(public(), "readUnsignedByte", byteArrayReadUnsignedByte)
	cls.DefineMethod(public(), "readShort", byteArrayReadShort)
	cls.DefineMethod(public(), "readUnsignedShort", byteArrayReadUnsignedShort)
	cls.DefineMethod(public(), "readInt", byteArrayReadInt)
	cls.DefineMethod(public(), "readUnsignedInt", byteArrayReadUnsignedInt)
	cls.DefineMethod(public(), "readFloat", byteArrayReadFloat)
	cls.DefineMethod(public(), "readDouble", byteArrayReadDouble)
	cls.DefineMethod(public(), "readBoolean", byteArrayReadBoolean)
	cls.DefineMethod(public(), "readUTF", byteArrayReadUTF)
	cls.DefineMethod(public(), "readUTFBytes", byteArrayReadUTFBytes)
	cls.DefineMethod(public(), "readBytes", byteArrayReadBytes)
	cls.DefineMethod(public(), "readObject", byteArrayReadObject)
	cls.DefineMethod(public(), "writeByte", byteArrayWriteByte)
	cls.DefineMethod(public(), "writeShort", byteArrayWriteShort)
	cls.DefineMethod(public(), "writeInt", byteArrayWriteInt)
	cls.DefineMethod(public(), "writeUnsignedInt", byteArrayWriteUnsignedInt)
	cls.DefineMethod(public(), "writeFloat", byteArrayWriteFloat)
	cls.DefineMethod(public(), "writeDouble", byteArrayWriteDouble)
	cls.DefineMethod(public(), "writeBoolean", byteArrayWriteBoolean)
	cls.DefineMethod(public(), "writeUTF", byteArrayWriteUTF)
	cls.DefineMethod(public(), "writeUTFBytes", byteArrayWriteUTFBytes)
	cls.DefineMethod(public(), "writeBytes", byteArrayWriteBytes)
	cls.DefineMethod(public(), "writeObject", byteArrayWriteObject)
}

func byteArrayLength(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if bd := byteDataOf(this); bd != nil {
		return avm2.Unsigned(uint32(bd.Len())), nil
	}
	return avm2.Unsigned(0), nil
}

func byteArraySetLength(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if bd := byteDataOf(this); bd != nil {
		bd.SetLength(argInt(a, args, 0))
	}
	return avm2.Undefined, nil
}

func byteArrayPosition(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if bd := byteDataOf(this); bd != nil {
		return avm2.Unsigned(uint32(bd.Position())), nil
	}
	return avm2.Unsigned(0), nil
}

func byteArraySetPosition(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if bd := byteDataOf(this); bd != nil {
		bd.SetPosition(argInt(a, args, 0))
	}
	return avm2.Undefined, nil
}

func byteArrayBytesAvailable(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if bd := byteDataOf(this); bd != nil {
		return avm2.Unsigned(uint32(bd.BytesAvailable())), nil
	}
	return avm2.Unsigned(0), nil
}

func byteArrayEndian(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if bd := byteDataOf(this); bd != nil && bd.Endian() == avm2.LittleEndian {
		return avm2.Str("littleEndian"), nil
	}
	return avm2.Str("bigEndian"), nil
}

func byteArraySetEndian(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	bd := byteDataOf(this)
	if bd == nil {
		return avm2.Undefined, nil
	}
	switch argUTF8(a, args, 0) {
	case "littleEndian":
		bd.SetEndian(avm2.LittleEndian)
	case "bigEndian":
		bd.SetEndian(avm2.BigEndian)
	default:
		return avm2.Undefined, avm2.ArgumentError("endian must be bigEndian or littleEndian")
	}
	return avm2.Undefined, nil
}

func byteArrayClear(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if bd := byteDataOf(this); bd != nil {
		bd.Clear()
	}
	return avm2.Undefined, nil
}

func byteArrayToString(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if bd := byteDataOf(this); bd != nil {
		return avm2.String(bd.ToString()), nil
	}
	return avm2.Str(""), nil
}

func compressionFormatArg(a *avm2.Activation, args []avm2.Value, def avm2.CompressionFormat) (avm2.CompressionFormat, error) {
	if len(args) == 0 || args[0].IsNullish() {
		return def, nil
	}
	switch argUTF8(a, args, 0) {
	case "zlib":
		return avm2.CompressZlib, nil
	case "deflate":
		return avm2.CompressDeflate, nil
	}
	return def, avm2.IOError("unknown compression algorithm")
}

func byteArrayCompress(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	bd := byteDataOf(this)
	if bd == nil {
		return avm2.Undefined, nil
	}
	format, err := compressionFormatArg(a, args, avm2.CompressZlib)
	if err != nil {
		return avm2.Undefined, err
	}
	if verr := bd.Compress(format); verr != nil {
		return avm2.Undefined, verr
	}
	return avm2.Undefined, nil
}

func byteArrayUncompress(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	bd := byteDataOf(this)
	if bd == nil {
		return avm2.Undefined, nil
	}
	format, err := compressionFormatArg(a, args, avm2.CompressZlib)
	if err != nil {
		return avm2.Undefined, err
	}
	if verr := bd.Uncompress(format); verr != nil {
		return avm2.Undefined, verr
	}
	return avm2.Undefined, nil
}

func byteArrayDeflate(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if bd := byteDataOf(this); bd != nil {
		if verr := bd.Compress(avm2.CompressDeflate); verr != nil {
			return avm2.Undefined, verr
		}
	}
	return avm2.Undefined, nil
}

func byteArrayInflate(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if bd := byteDataOf(this); bd != nil {
		if verr := bd.Uncompress(avm2.CompressDeflate); verr != nil {
			return avm2.Undefined, verr
		}
	}
	return avm2.Undefined, nil
}

func byteArrayReadByte(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	bd := byteDataOf(this)
	if bd == nil {
		return avm2.Undefined, avm2.TypeError("receiver is not a ByteArray")
	}
	v, verr := bd.ReadByte()
	if verr != nil {
		return avm2.Undefined, verr
	}
	return avm2.Integer(int32(v)), nil
}

func byteArrayReadUnsignedByte(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	bd := byteDataOf(this)
	if bd == nil {
		return avm2.Undefined, avm2.TypeError("receiver is not a ByteArray")
	}
	v, verr := bd.ReadUnsignedByte()
	if verr != nil {
		return avm2.Undefined, verr
	}
	return avm2.Unsigned(uint32(v)), nil
}

func byteArrayReadShort(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	bd := byteDataOf(this)
	if bd == nil {
		return avm2.Undefined, avm2.TypeError("receiver is not a ByteArray")
	}
	v, verr := bd.ReadShort()
	if verr != nil {
		return avm2.Undefined, verr
	}
	return avm2.Integer(int32(v)), nil
}

func byteArrayReadUnsignedShort(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	bd := byteDataOf(this)
	if bd == nil {
		return avm2.Undefined, avm2.TypeError("receiver is not a ByteArray")
	}
	v, verr := bd.ReadUnsignedShort()
	if verr != nil {
		return avm2.Undefined, verr
	}
	return avm2.Unsigned(uint32(v)), nil
}

func byteArrayReadInt(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	bd := byteDataOf(this)
	if bd == nil {
		return avm2.Undefined, avm2.TypeError("receiver is not a ByteArray")
	}
	v, verr := bd.ReadInt()
	if verr != nil {
		return avm2.Undefined, verr
	}
	return avm2.Integer(v), nil
}

func byteArrayReadUnsignedInt(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	bd := byteDataOf(this)
	if bd == nil {
		return avm2.Undefined, avm2.TypeError("receiver is not a ByteArray")
	}
	v, verr := bd.ReadUnsignedInt()
	if verr != nil {
		return avm2.Undefined, verr
	}
	return avm2.Unsigned(v), nil
}

func byteArrayReadFloat(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	bd := byteDataOf(this)
	if bd == nil {
		return avm2.Undefined, avm2.TypeError("receiver is not a ByteArray")
	}
	v, verr := bd.ReadFloat()
	if verr != nil {
		return avm2.Undefined, verr
	}
	return avm2.Number(float64(v)), nil
}

func byteArrayReadDouble(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	bd := byteDataOf(this)
	if bd == nil {
		return avm2.Undefined, avm2.TypeError("receiver is not a ByteArray")
	}
	v, verr := bd.ReadDouble()
	if verr != nil {
		return avm2.Undefined, verr
	}
	return avm2.Number(v), nil
}

func byteArrayReadBoolean(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	bd := byteDataOf(this)
	if bd == nil {
		return avm2.Undefined, avm2.TypeError("receiver is not a ByteArray")
	}
	v, verr := bd.ReadBoolean()
	if verr != nil {
		return avm2.Undefined, verr
	}
	return avm2.Bool(v), nil
}

func byteArrayReadUTF(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	bd := byteDataOf(this)
	if bd == nil {
		return avm2.Undefined, avm2.TypeError("receiver is not a ByteArray")
	}
	s, verr := bd.ReadUTF()
	if verr != nil {
		return avm2.Undefined, verr
	}
	return avm2.String(s), nil
}

func byteArrayReadUTFBytes(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	bd := byteDataOf(this)
	if bd == nil {
		return avm2.Undefined, avm2.TypeError("receiver is not a ByteArray")
	}
	s, verr := bd.ReadUTFBytes(argInt(a, args, 0))
	if verr != nil {
		return avm2.Undefined, verr
	}
	return avm2.String(s), nil
}

func byteArrayReadBytes(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	bd := byteDataOf(this)
	dst := byteDataOf(arg(args, 0))
	if bd == nil || dst == nil {
		return avm2.Undefined, avm2.TypeError("readBytes needs a ByteArray destination")
	}
	offset := argIntDefault(a, args, 1, 0)
	length := argIntDefault(a, args, 2, 0)
	if verr := bd.ReadBytes(dst, offset, length); verr != nil {
		return avm2.Undefined, verr
	}
	return avm2.Undefined, nil
}

func byteArrayReadObject(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	bd := byteDataOf(this)
	if bd == nil {
		return avm2.Undefined, avm2.TypeError("receiver is not a ByteArray")
	}
	v, verr := bd.ReadObject(a)
	if verr != nil {
		return avm2.Undefined, verr
	}
	return v, nil
}

func byteArrayWriteByte(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if bd := byteDataOf(this); bd != nil {
		bd.WriteByte(int8(argInt(a, args, 0)))
	}
	return avm2.Undefined, nil
}

func byteArrayWriteShort(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if bd := byteDataOf(this); bd != nil {
		bd.WriteShort(int16(argInt(a, args, 0)))
	}
	return avm2.Undefined, nil
}

func byteArrayWriteInt(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if bd := byteDataOf(this); bd != nil {
		bd.WriteInt(int32(argInt(a, args, 0)))
	}
	return avm2.Undefined, nil
}

func byteArrayWriteUnsignedInt(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	bd := byteDataOf(this)
	if bd == nil {
		return avm2.Undefined, nil
	}
	u, err := arg(args, 0).CoerceToU32(a)
	if err != nil {
		return avm2.Undefined, err
	}
	bd.WriteUnsignedInt(u)
	return avm2.Undefined, nil
}

func byteArrayWriteFloat(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if bd := byteDataOf(this); bd != nil {
		bd.WriteFloat(float32(argNumber(a, args, 0)))
	}
	return avm2.Undefined, nil
}

func byteArrayWriteDouble(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if bd := byteDataOf(this); bd != nil {
		bd.WriteDouble(argNumber(a, args, 0))
	}
	return avm2.Undefined, nil
}

func byteArrayWriteBoolean(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if bd := byteDataOf(this); bd != nil {
		bd.WriteBoolean(argBool(args, 0))
	}
	return avm2.Undefined, nil
}

func byteArrayWriteUTF(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	bd := byteDataOf(this)
	if bd == nil {
		return avm2.Undefined, nil
	}
	if verr := bd.WriteUTF(argString(a, args, 0)); verr != nil {
		return avm2.Undefined, verr
	}
	return avm2.Undefined, nil
}

func byteArrayWriteUTFBytes(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if bd := byteDataOf(this); bd != nil {
		bd.WriteUTFBytes(argString(a, args, 0))
	}
	return avm2.Undefined, nil
}

func byteArrayWriteBytes(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	bd := byteDataOf(this)
	src := byteDataOf(arg(args, 0))
	if bd == nil || src == nil {
		return avm2.Undefined, avm2.TypeError("writeBytes needs a ByteArray source")
	}
	offset := argIntDefault(a, args, 1, 0)
	length := argIntDefault(a, args, 2, 0)
	if verr := bd.WriteBytes(src, offset, length); verr != nil {
		return avm2.Undefined, verr
	}
	return avm2.Undefined, nil
}

func byteArrayWriteObject(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	bd := byteDataOf(this)
	if bd == nil {
		return avm2.Undefined, nil
	}
	if verr := bd.WriteObject(a, arg(args, 0)); verr != nil {
		return avm2.Undefined, verr
	}
	return avm2.Undefined, nil
}
