package globals

import (
	"strings"

	"lantern/pkg/avm2"
	"lantern/pkg/host"
)

type mediaModule struct{}

func (mediaModule) Name() string  { return "flash.media" }
func (mediaModule) Priority() int { return PriorityMedia }

// soundState is the native payload behind Sound: the host-side sample
// id once the data has been registered, plus the loaded byte count.
type soundState struct {
	disp   *avm2.EventDispatcherData
	id     int
	loaded bool
	size   int
	url    string
}

func (s *soundState) Dispatcher() *avm2.EventDispatcherData { return s.disp }

func soundStateOf(this avm2.Value) *soundState {
	obj := this.AsObject()
	if obj == nil {
		return nil
	}
	st, _ := obj.NativeData().(*soundState)
	return st
}

// soundChannelState tracks one playing instance by its host handle.
type soundChannelState struct {
	disp    *avm2.EventDispatcherData
	handle  int
	stopped bool
}

func (s *soundChannelState) Dispatcher() *avm2.EventDispatcherData { return s.disp }

func channelStateOf(this avm2.Value) *soundChannelState {
	obj := this.AsObject()
	if obj == nil {
		return nil
	}
	st, _ := obj.NativeData().(*soundChannelState)
	return st
}

func (mediaModule) Install(a *avm2.Activation) {
	dispatcherCls := a.Avm().ClassByName("EventDispatcher")
	objectCls := a.Avm().ClassByName("Object")
	ns := flashNS("flash.media")

	transformCls := avm2.NewClass("SoundTransform", ns, objectCls, 0)
	transformCls.SetNativeInit(soundTransformInit)
	transformCls.DefineGetter(public(), "volume", soundTransformVolume)
	transformCls.DefineSetter(public(), "volume", soundTransformSetVolume)
	transformCls.DefineGetter(public(), "pan", soundTransformPan)
	transformCls.DefineSetter(public(), "pan", soundTransformSetPan)
	defineClass(a, transformCls)

	channelCls := avm2.NewClass("SoundChannel", ns, dispatcherCls, avm2.ClassFlagFinal)
	channelCls.SetAllocator(func(a *avm2.Activation, c *avm2.Class, proto avm2.Value) (avm2.Object, error) {
		obj := avm2.NewScriptObject(a, c, proto)
		obj.SetNativeData(&soundChannelState{disp: avm2.NewEventDispatcherData(), handle: -1})
		return obj, nil
	})
	channelCls.SetNativeInit(noNativeInit)
	channelCls.DefineMethod(public(), "stop", soundChannelStop)
	channelCls.DefineGetter(public(), "position", soundChannelPosition)
	channelCls.DefineGetter(public(), "leftPeak", soundChannelPeak)
	channelCls.DefineGetter(public(), "rightPeak", soundChannelPeak)
	defineClass(a, channelCls)

	soundCls := avm2.NewClass("Sound", ns, dispatcherCls, 0)
	soundCls.SetAllocator(func(a *avm2.Activation, c *avm2.Class, proto avm2.Value) (avm2.Object, error) {
		obj := avm2.NewScriptObject(a, c, proto)
		obj.SetNativeData(&soundState{disp: avm2.NewEventDispatcherData()})
		return obj, nil
	})
	soundCls.SetNativeInit(soundInit)
	soundCls.DefineMethod(public(), "load", soundLoad)
	soundCls.DefineMethod(public(), "play", soundPlay)
	soundCls.DefineMethod(public(), "close", soundClose)
	soundCls.DefineGetter(public(), "bytesLoaded", soundBytesLoaded)
	soundCls.DefineGetter(public(), "bytesTotal", soundBytesLoaded)
	soundCls.DefineGetter(public(), "length", soundLength)
	soundCls.DefineGetter(public(), "url", soundURL)
	soundCls.DefineGetter(public(), "isBuffering", soundIsBuffering)
	defineClass(a, soundCls)

	mixerCls := avm2.NewClass("SoundMixer", ns, objectCls, avm2.ClassFlagSealed|avm2.ClassFlagFinal)
	mixerCls.SetNativeInit(noConstructor("SoundMixer"))
	if co := defineClass(a, mixerCls); co != nil {
		staticFunc(a, co, "stopAll", soundMixerStopAll)
		if tv, err := newNetInstance(a, "SoundTransform", nil); err == nil {
			if obj := tv.AsObject(); obj != nil {
				obj.Base().SetDynamic("__global", avm2.Bool(true))
			}
			co.SetDynamic("soundTransform", tv)
		}
	}
}

func soundTransformInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	if obj == nil {
		return avm2.Undefined, nil
	}
	volume := 1.0
	if len(args) > 0 {
		volume = argNumber(a, args, 0)
	}
	pan := 0.0
	if len(args) > 1 {
		pan = argNumber(a, args, 1)
	}
	obj.Base().SetDynamic("__volume", avm2.Number(volume))
	obj.Base().SetDynamic("__pan", avm2.Number(pan))
	return avm2.Undefined, nil
}

func transformField(a *avm2.Activation, this avm2.Value, name string, def float64) avm2.Value {
	obj := this.AsObject()
	if obj == nil {
		return avm2.Number(def)
	}
	if v, ok := obj.Base().GetDynamic(name); ok {
		return v
	}
	return avm2.Number(def)
}

func soundTransformVolume(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return transformField(a, this, "__volume", 1), nil
}

// soundTransformSetVolume also pushes the level to the host mixer when
// this transform is the one installed on SoundMixer.
func soundTransformSetVolume(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	if obj == nil {
		return avm2.Undefined, nil
	}
	volume := argNumber(a, args, 0)
	obj.Base().SetDynamic("__volume", avm2.Number(volume))
	if global, ok := obj.Base().GetDynamic("__global"); ok && global.CoerceToBoolean() {
		if audio := a.Avm().Ctx().Audio; audio != nil {
			audio.SetGlobalVolume(volume)
		}
	}
	return avm2.Undefined, nil
}

func soundTransformPan(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return transformField(a, this, "__pan", 0), nil
}

func soundTransformSetPan(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if obj := this.AsObject(); obj != nil {
		obj.Base().SetDynamic("__pan", avm2.Number(argNumber(a, args, 0)))
	}
	return avm2.Undefined, nil
}

func soundInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if argObject(args, 0) != nil {
		return soundLoad(a, this, args)
	}
	return avm2.Undefined, nil
}

func soundLoad(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	st := soundStateOf(this)
	request := argObject(args, 0)
	if st == nil || request == nil {
		return avm2.Undefined, avm2.TypeError("load needs a URLRequest")
	}
	nav := a.Avm().Ctx().Navigator
	if nav == nil {
		return avm2.Undefined, avm2.IOError("no network access")
	}
	target := dynString(a, request, "url", "")
	st.url = target
	method := strings.ToUpper(dynString(a, request, "method", "GET"))
	id := nav.Fetch(target, method, nil, nil)
	sound := this.AsObject()
	a.Avm().AwaitFetch(id, func(a *avm2.Activation, resp host.Response) {
		deliverSoundResponse(a, sound, st, resp)
	})
	return avm2.Undefined, nil
}

func deliverSoundResponse(a *avm2.Activation, sound avm2.Object, st *soundState, resp host.Response) {
	if resp.Err != nil || resp.Status >= 400 {
		dispatchNamedEvent(a, sound, "IOErrorEvent", "ioError")
		return
	}
	st.size = len(resp.Body)
	st.id = a.Avm().NextSoundID()
	st.loaded = true
	if audio := a.Avm().Ctx().Audio; audio != nil {
		audio.RegisterSound(st.id, resp.Body)
	}
	dispatchNamedEvent(a, sound, "ProgressEvent", "progress")
	dispatchNamedEvent(a, sound, "Event", "complete")
}

func soundPlay(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	st := soundStateOf(this)
	if st == nil || !st.loaded {
		return avm2.Null, nil
	}
	audio := a.Avm().Ctx().Audio
	if audio == nil {
		return avm2.Null, nil
	}
	loops := argIntDefault(a, args, 1, 0)
	handle := audio.StartSound(st.id, loops)
	channel, err := newNetInstance(a, "SoundChannel", nil)
	if err != nil {
		return avm2.Undefined, err
	}
	if cs := channelStateOf(channel); cs != nil {
		cs.handle = handle
	}
	if transform := argObject(args, 2); transform != nil {
		channel.AsObject().Base().SetDynamic("soundTransform", args[2])
	}
	return channel, nil
}

func soundClose(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return avm2.Undefined, nil
}

func soundBytesLoaded(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if st := soundStateOf(this); st != nil {
		return avm2.Unsigned(uint32(st.size)), nil
	}
	return avm2.Unsigned(0), nil
}

// soundLength would need the host decoder to report a duration; without
// one the loaded flag is all there is to go on.
func soundLength(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return avm2.Number(0), nil
}

func soundURL(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if st := soundStateOf(this); st != nil && st.url != "" {
		return avm2.Str(st.url), nil
	}
	return avm2.Null, nil
}

func soundIsBuffering(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return avm2.Bool(false), nil
}

func soundChannelStop(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	st := channelStateOf(this)
	if st == nil || st.stopped || st.handle < 0 {
		return avm2.Undefined, nil
	}
	st.stopped = true
	if audio := a.Avm().Ctx().Audio; audio != nil {
		audio.StopSound(st.handle)
	}
	return avm2.Undefined, nil
}

func soundChannelPosition(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return avm2.Number(0), nil
}

func soundChannelPeak(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return avm2.Number(0), nil
}

func soundMixerStopAll(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if audio := a.Avm().Ctx().Audio; audio != nil {
		audio.StopAll()
	}
	return avm2.Undefined, nil
}
