package globals

import (
	"net/url"
	"strings"

	"lantern/pkg/amf"
	"lantern/pkg/avm2"
	"lantern/pkg/host"
)

type netModule struct{}

func (netModule) Name() string  { return "flash.net" }
func (netModule) Priority() int { return PriorityNet }

func (netModule) Install(a *avm2.Activation) {
	ns := flashNS("flash.net")
	objectCls := a.Avm().ClassByName("Object")
	dispatcherCls := a.Avm().ClassByName("EventDispatcher")

	requestCls := avm2.NewClass("URLRequest", ns, objectCls, 0)
	requestCls.SetNativeInit(urlRequestInit)
	defineClass(a, requestCls)

	variablesCls := avm2.NewClass("URLVariables", ns, objectCls, 0)
	variablesCls.SetNativeInit(urlVariablesInit)
	variablesCls.DefineMethod(public(), "decode", urlVariablesDecode)
	variablesCls.DefineMethod(public(), "toString", urlVariablesToString)
	defineClass(a, variablesCls)

	formatCls := avm2.NewClass("URLLoaderDataFormat", ns, objectCls, avm2.ClassFlagSealed|avm2.ClassFlagFinal)
	formatCls.SetNativeInit(noNativeInit)
	if co := defineClass(a, formatCls); co != nil {
		co.SetDynamic("TEXT", avm2.Str("text"))
		co.SetDynamic("BINARY", avm2.Str("binary"))
		co.SetDynamic("VARIABLES", avm2.Str("variables"))
	}

	methodCls := avm2.NewClass("URLRequestMethod", ns, objectCls, avm2.ClassFlagSealed|avm2.ClassFlagFinal)
	methodCls.SetNativeInit(noNativeInit)
	if co := defineClass(a, methodCls); co != nil {
		co.SetDynamic("GET", avm2.Str("GET"))
		co.SetDynamic("POST", avm2.Str("POST"))
	}

	loaderCls := avm2.NewClass("URLLoader", ns, dispatcherCls, 0)
	loaderCls.SetNativeInit(urlLoaderInit)
	loaderCls.DefineMethod(public(), "load", urlLoaderLoad)
	loaderCls.DefineMethod(public(), "close", urlLoaderClose)
	defineClass(a, loaderCls)

	soCls := avm2.NewClass("SharedObject", ns, dispatcherCls, 0)
	soCls.SetNativeInit(noNativeInit)
	soCls.DefineGetter(public(), "data", sharedObjectData)
	soCls.DefineGetter(public(), "size", sharedObjectSize)
	soCls.DefineMethod(public(), "flush", sharedObjectFlush)
	soCls.DefineMethod(public(), "clear", sharedObjectClear)
	if co := defineClass(a, soCls); co != nil {
		staticFunc(a, co, "getLocal", sharedObjectGetLocal)
	}
}

func urlRequestInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	if obj == nil {
		return avm2.Undefined, nil
	}
	obj.Base().SetDynamic("url", arg(args, 0))
	obj.Base().SetDynamic("method", avm2.Str("GET"))
	obj.Base().SetDynamic("data", avm2.Null)
	obj.Base().SetDynamic("contentType", avm2.Str("application/x-www-form-urlencoded"))
	return avm2.Undefined, nil
}

func urlVariablesInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if len(args) > 0 && !args[0].IsUndefined() {
		return urlVariablesDecode(a, this, args)
	}
	return avm2.Undefined, nil
}

func urlVariablesDecode(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	if obj == nil {
		return avm2.Undefined, nil
	}
	for _, pair := range strings.Split(argUTF8(a, args, 0), "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if v, err := url.QueryUnescape(value); err == nil {
			value = v
		}
		obj.Base().SetDynamic(key, avm2.Str(value))
	}
	return avm2.Undefined, nil
}

func urlVariablesToString(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	if obj == nil {
		return avm2.Str(""), nil
	}
	var b strings.Builder
	for i, k := range obj.Base().DynamicKeys() {
		v, ok := obj.Base().GetDynamic(k)
		if !ok {
			continue
		}
		s, err := v.CoerceToString(a)
		if err != nil {
			return avm2.Undefined, err
		}
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(s.ToUTF8()))
	}
	return avm2.Str(b.String()), nil
}

func urlLoaderInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	if obj == nil {
		return avm2.Undefined, nil
	}
	obj.Base().SetDynamic("dataFormat", avm2.Str("text"))
	obj.Base().SetDynamic("data", avm2.Undefined)
	obj.Base().SetDynamic("bytesLoaded", avm2.Unsigned(0))
	obj.Base().SetDynamic("bytesTotal", avm2.Unsigned(0))
	if len(args) > 0 && args[0].IsObject() {
		return urlLoaderLoad(a, this, args)
	}
	return avm2.Undefined, nil
}

func dynString(a *avm2.Activation, o avm2.Object, name, def string) string {
	v, ok := o.Base().GetDynamic(name)
	if !ok || v.IsNullish() {
		return def
	}
	s, err := v.CoerceToString(a)
	if err != nil {
		return def
	}
	return s.ToUTF8()
}

func urlLoaderLoad(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
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
	sendMethod := strings.ToUpper(dynString(a, request, "method", "GET"))
	var body []byte
	if data, ok := request.Base().GetDynamic("data"); ok && !data.IsNullish() {
		s, err := data.CoerceToString(a)
		if err != nil {
			return avm2.Undefined, err
		}
		body = []byte(s.ToUTF8())
	}
	id := nav.Fetch(target, sendMethod, nil, body)
	a.Avm().AwaitFetch(id, func(a *avm2.Activation, resp host.Response) {
		deliverURLLoaderResponse(a, loader, resp)
	})
	return avm2.Undefined, nil
}

func urlLoaderClose(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return avm2.Undefined, nil
}

// deliverURLLoaderResponse lands a completed fetch: progress first,
// then complete or ioError depending on the outcome.
func deliverURLLoaderResponse(a *avm2.Activation, loader avm2.Object, resp host.Response) {
	n := avm2.Unsigned(uint32(len(resp.Body)))
	loader.Base().SetDynamic("bytesLoaded", n)
	loader.Base().SetDynamic("bytesTotal", n)

	if resp.Err != nil || resp.Status >= 400 {
		dispatchNamedEvent(a, loader, "IOErrorEvent", "ioError")
		return
	}

	switch dynString(a, loader, "dataFormat", "text") {
	case "binary":
		ba := avm2.NewByteArrayObject(a)
		if bd, ok := ba.NativeData().(*avm2.ByteArrayData); ok {
			bd.WriteRaw(resp.Body)
			bd.SetPosition(0)
		}
		loader.Base().SetDynamic("data", avm2.ObjectValue(ba))
	case "variables":
		vars, err := newNetInstance(a, "URLVariables", []avm2.Value{avm2.Str(string(resp.Body))})
		if err != nil {
			a.Avm().ReportUncaught("urlloader variables decode", err)
			return
		}
		loader.Base().SetDynamic("data", vars)
	default:
		loader.Base().SetDynamic("data", avm2.Str(string(resp.Body)))
	}

	dispatchNamedEvent(a, loader, "ProgressEvent", "progress")
	dispatchNamedEvent(a, loader, "Event", "complete")
}

func newNetInstance(a *avm2.Activation, name string, args []avm2.Value) (avm2.Value, error) {
	cls := a.Avm().ClassByName(name)
	if cls == nil || cls.ClassObject() == nil {
		return avm2.Undefined, avm2.ReferenceError("class %s is not defined", name)
	}
	obj, err := cls.ClassObject().Construct(a, args)
	if err != nil {
		return avm2.Undefined, err
	}
	return avm2.ObjectValue(obj), nil
}

// dispatchNamedEvent builds an event of the given class and runs a full
// dispatch on the target. Listener errors are already reported by the
// dispatch machinery; construction errors land in the uncaught sink.
func dispatchNamedEvent(a *avm2.Activation, target avm2.Object, className, eventType string) {
	ev, err := newNetInstance(a, className, []avm2.Value{avm2.Str(eventType)})
	if err != nil {
		a.Avm().ReportUncaught("event construction", err)
		return
	}
	if _, err := avm2.DispatchEvent(a, target, ev.AsObject()); err != nil {
		a.Avm().ReportUncaught("event dispatch for "+eventType, err)
	}
}

// sharedObjectState is the native payload: the slot name the object
// persists under and the live data object.
type sharedObjectState struct {
	name string
	data avm2.Value
}

func sharedStateOf(this avm2.Value) *sharedObjectState {
	obj := this.AsObject()
	if obj == nil {
		return nil
	}
	st, _ := obj.NativeData().(*sharedObjectState)
	return st
}

func sharedObjectGetLocal(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if len(args) == 0 {
		return avm2.Null, avm2.ArgumentError("getLocal needs a name")
	}
	name := argUTF8(a, args, 0)
	soVal, err := newNetInstance(a, "SharedObject", nil)
	if err != nil {
		return avm2.Undefined, err
	}
	so := soVal.AsObject()

	data := newObject(a)
	ctx := a.Avm().Ctx()
	if store := ctx.Storage; store != nil {
		if blob, ok, err := store.Load(ctx.Origin, name); err == nil && ok {
			if _, root, err := amf.DecodeLso(blob); err == nil {
				for _, k := range root.Keys() {
					if member, ok := root.Get(k); ok {
						data.SetDynamic(k, avm2.ImportAMF(a, member))
					}
				}
			}
		}
	}
	so.Base().SetNativeData(&sharedObjectState{
		name: name,
		data: avm2.ObjectValue(data),
	})
	return soVal, nil
}

func sharedObjectData(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if st := sharedStateOf(this); st != nil {
		return st.data, nil
	}
	return avm2.Null, nil
}

func sharedObjectEncode(a *avm2.Activation, st *sharedObjectState) ([]byte, error) {
	root, aerr := avm2.ExportAMF(a, st.data)
	if aerr != nil {
		return nil, aerr
	}
	return amf.EncodeLso(st.name, root)
}

func sharedObjectFlush(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	st := sharedStateOf(this)
	ctx := a.Avm().Ctx()
	if st == nil || ctx.Storage == nil {
		return avm2.Str("flushed"), nil
	}
	blob, err := sharedObjectEncode(a, st)
	if err != nil {
		return avm2.Undefined, avm2.IOError("shared object encode failed: %v", err)
	}
	if err := ctx.Storage.Save(ctx.Origin, st.name, blob); err != nil {
		ctx.Log.Warning("shared object %q save failed: %v", st.name, err)
		return avm2.Str("pending"), nil
	}
	return avm2.Str("flushed"), nil
}

func sharedObjectClear(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	st := sharedStateOf(this)
	if st == nil {
		return avm2.Undefined, nil
	}
	ctx := a.Avm().Ctx()
	if ctx.Storage != nil {
		if err := ctx.Storage.Delete(ctx.Origin, st.name); err != nil {
			ctx.Log.Warning("shared object %q delete failed: %v", st.name, err)
		}
	}
	st.data = avm2.ObjectValue(newObject(a))
	return avm2.Undefined, nil
}

func sharedObjectSize(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	st := sharedStateOf(this)
	if st == nil {
		return avm2.Unsigned(0), nil
	}
	blob, err := sharedObjectEncode(a, st)
	if err != nil {
		return avm2.Unsigned(0), nil
	}
	return avm2.Unsigned(uint32(len(blob))), nil
}
