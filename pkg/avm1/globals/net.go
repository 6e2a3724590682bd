package globals

import (
	"net/url"
	"strings"

	"lantern/pkg/avm1"
	"lantern/pkg/amf"
	"lantern/pkg/host"
	"lantern/pkg/wstr"
)

type netModule struct{}

func (netModule) Name() string  { return "Net" }
func (netModule) Priority() int { return PriorityNet }

func (netModule) Install(a *avm1.Activation) {
	installLoadVars(a)
	installSharedObject(a)
}

func installLoadVars(a *avm1.Activation) {
	_, proto := defineClass(a, "LoadVars", loadVarsConstructor)

	method(a, proto, "decode", loadVarsDecode)
	method(a, proto, "toString", loadVarsToString)
	method(a, proto, "load", loadVarsLoad)
	method(a, proto, "send", loadVarsSend)
	method(a, proto, "sendAndLoad", loadVarsSendAndLoad)
	method(a, proto, "getBytesLoaded", loadVarsBytesLoaded)
	method(a, proto, "getBytesTotal", loadVarsBytesLoaded)
	method(a, proto, "onData", loadVarsOnData)
}

func loadVarsConstructor(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this != nil {
		this.Raw().DefineValue("loaded", avm1.Bool(false), avm1.AttrDontEnum)
	}
	return avm1.Undefined, nil
}

func loadVarsDecode(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	query := argString(a, args, 0).ToUTF8()
	for _, pair := range strings.Split(query, "&") {
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
		avm1.Set(a, this, wstr.FromUTF8(key), avm1.Str(value))
	}
	return avm1.Undefined, nil
}

func loadVarsToString(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Str(""), nil
	}
	var b strings.Builder
	for i, k := range avm1.GetKeys(a, this) {
		v, err := avm1.Get(a, this, k)
		if err != nil {
			continue
		}
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k.ToUTF8()))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(v.CoerceToString(a).ToUTF8()))
	}
	return avm1.Str(b.String()), nil
}

func loadVarsBytesLoaded(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	v, err := avm1.Get(a, this, wstr.FromUTF8("_bytes"))
	if err != nil || !v.IsNumber() {
		return avm1.Number(0), nil
	}
	return v, nil
}

// onData is the default data sink: decode the body and fire onLoad.
func loadVarsOnData(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	src := arg(args, 0)
	success := !src.IsUndefined()
	if success {
		if _, err := loadVarsDecode(a, this, []avm1.Value{src}); err != nil {
			return avm1.Undefined, err
		}
	}
	this.Raw().DefineValue("loaded", avm1.Bool(success), avm1.AttrDontEnum)
	_, err := avm1.CallMethod(a, this, wstr.FromUTF8("onLoad"), avm1.ObjectValue(this), []avm1.Value{avm1.Bool(success)})
	return avm1.Undefined, err
}

func loadVarsFetch(a *avm1.Activation, receiver avm1.Object, urlStr, sendMethod string, body []byte) avm1.Value {
	nav := a.Ctx().Navigator
	if nav == nil {
		return avm1.Bool(false)
	}
	id := nav.Fetch(urlStr, sendMethod, nil, body)
	a.Avm().AwaitFetch(id, func(a *avm1.Activation, resp host.Response) {
		receiver.Raw().DefineValue("_bytes", avm1.Number(float64(len(resp.Body))), avm1.AttrDontEnum)
		data := avm1.Undefined
		if resp.Err == nil && resp.Status < 400 {
			data = avm1.Str(string(resp.Body))
		}
		if _, err := avm1.CallMethod(a, receiver, wstr.FromUTF8("onData"), avm1.ObjectValue(receiver), []avm1.Value{data}); err != nil {
			a.Ctx().Log.Warning("onData handler failed: %v", err)
		}
	})
	return avm1.Bool(true)
}

func loadVarsLoad(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil || len(args) == 0 {
		return avm1.Bool(false), nil
	}
	this.Raw().DefineValue("loaded", avm1.Bool(false), avm1.AttrDontEnum)
	return loadVarsFetch(a, this, argString(a, args, 0).ToUTF8(), "GET", nil), nil
}

func loadVarsSend(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil || len(args) == 0 || a.Ctx().Navigator == nil {
		return avm1.Bool(false), nil
	}
	sendMethod := "POST"
	if len(args) > 2 {
		sendMethod = strings.ToUpper(argString(a, args, 2).ToUTF8())
	}
	bodyVal, err := loadVarsToString(a, this, nil)
	if err != nil {
		return avm1.Bool(false), err
	}
	a.Ctx().Navigator.Fetch(argString(a, args, 0).ToUTF8(), sendMethod, nil, []byte(bodyVal.AsString().ToUTF8()))
	return avm1.Bool(true), nil
}

func loadVarsSendAndLoad(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	target := argObject(args, 1)
	if this == nil || target == nil || len(args) < 2 {
		return avm1.Bool(false), nil
	}
	sendMethod := "POST"
	if len(args) > 2 {
		sendMethod = strings.ToUpper(argString(a, args, 2).ToUTF8())
	}
	bodyVal, err := loadVarsToString(a, this, nil)
	if err != nil {
		return avm1.Bool(false), err
	}
	return loadVarsFetch(a, target, argString(a, args, 0).ToUTF8(), sendMethod, []byte(bodyVal.AsString().ToUTF8())), nil
}

func installSharedObject(a *avm1.Activation) {
	ctor, proto := defineClass(a, "SharedObject", func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		return avm1.Undefined, nil
	})

	method(a, ctor, "getLocal", sharedObjectGetLocal)

	method(a, proto, "flush", sharedObjectFlush)
	method(a, proto, "clear", sharedObjectClear)
	method(a, proto, "getSize", sharedObjectGetSize)
}

// soData is the native payload: the slot name the object persists
// under.
type soData struct {
	name string
}

func sharedObjectGetLocal(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if len(args) == 0 {
		return avm1.Null, nil
	}
	name := argString(a, args, 0).ToUTF8()
	ctorVal, err := avm1.Get(a, a.Avm().Globals(), a.Intern("SharedObject"))
	if err != nil || !ctorVal.IsObject() {
		return avm1.Null, err
	}
	soVal, err := ctorVal.AsObject().Construct(a, nil)
	if err != nil || !soVal.IsObject() {
		return avm1.Null, err
	}
	so := soVal.AsObject()
	so.Raw().SetNativeData(&soData{name: name})

	data := avm1.NewScriptObject(a, avm1.ObjectValue(a.Avm().ProtoFor().Object))
	if store := a.Ctx().Storage; store != nil {
		if blob, ok, err := store.Load(a.Ctx().Origin, name); err == nil && ok {
			if _, root, err := amf.DecodeLso(blob); err == nil {
				for _, k := range root.Keys() {
					if member, ok := root.Get(k); ok {
						avm1.Set(a, data, wstr.FromUTF8(k), amfToValue(a, member))
					}
				}
			}
		}
	}
	so.Raw().DefineValue("data", avm1.ObjectValue(data), avm1.AttrDontEnum|avm1.AttrDontDelete)
	return avm1.ObjectValue(so), nil
}

func sharedObjectFlush(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Bool(false), nil
	}
	d, _ := this.Raw().NativeData().(*soData)
	store := a.Ctx().Storage
	if d == nil || store == nil {
		return avm1.Bool(false), nil
	}
	dataVal, err := avm1.Get(a, this, wstr.FromUTF8("data"))
	if err != nil || !dataVal.IsObject() {
		return avm1.Bool(false), nil
	}
	root := valueToAMF(a, dataVal, 0)
	blob, err := amf.EncodeLso(d.name, root)
	if err != nil {
		return avm1.Bool(false), nil
	}
	if err := store.Save(a.Ctx().Origin, d.name, blob); err != nil {
		a.Ctx().Log.Warning("shared object %q save failed: %v", d.name, err)
		return avm1.Bool(false), nil
	}
	return avm1.Bool(true), nil
}

func sharedObjectClear(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	d, _ := this.Raw().NativeData().(*soData)
	if d != nil && a.Ctx().Storage != nil {
		if err := a.Ctx().Storage.Delete(a.Ctx().Origin, d.name); err != nil {
			a.Ctx().Log.Warning("shared object %q delete failed: %v", d.name, err)
		}
	}
	data := avm1.NewScriptObject(a, avm1.ObjectValue(a.Avm().ProtoFor().Object))
	this.Raw().DefineValue("data", avm1.ObjectValue(data), avm1.AttrDontEnum|avm1.AttrDontDelete)
	return avm1.Undefined, nil
}

func sharedObjectGetSize(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Number(0), nil
	}
	d, _ := this.Raw().NativeData().(*soData)
	dataVal, err := avm1.Get(a, this, wstr.FromUTF8("data"))
	if d == nil || err != nil || !dataVal.IsObject() {
		return avm1.Number(0), nil
	}
	blob, err := amf.EncodeLso(d.name, valueToAMF(a, dataVal, 0))
	if err != nil {
		return avm1.Number(0), nil
	}
	return avm1.Number(float64(len(blob))), nil
}

const amfMaxDepth = 32

// valueToAMF lowers a script value into the neutral AMF tree. Cycles
// are cut off at a fixed depth.
func valueToAMF(a *avm1.Activation, v avm1.Value, depth int) amf.Value {
	if depth > amfMaxDepth {
		return amf.Undefined
	}
	switch v.Kind() {
	case avm1.KindUndefined:
		return amf.Undefined
	case avm1.KindNull:
		return amf.Null
	case avm1.KindBool:
		return amf.Bool(v.CoerceToBool(a))
	case avm1.KindNumber:
		return amf.Number(v.AsNumberRaw())
	case avm1.KindString:
		return amf.String(v.AsString().ToUTF8())
	case avm1.KindObject:
		o := v.AsObject()
		if d, ok := o.Raw().NativeData().(*dateData); ok {
			return amf.Date(d.epochMs)
		}
		if arr := avm1.AsArray(o); arr != nil {
			items := make([]amf.Value, arr.Length())
			for i := range items {
				items[i] = valueToAMF(a, arr.Element(a, i), depth+1)
			}
			return amf.List(items)
		}
		out := amf.NewObject()
		for _, k := range avm1.GetKeys(a, o) {
			member, err := avm1.Get(a, o, k)
			if err != nil {
				continue
			}
			out.Set(k.ToUTF8(), valueToAMF(a, member, depth+1))
		}
		return out
	}
	return amf.Undefined
}

// amfToValue raises a neutral AMF tree back into script values.
func amfToValue(a *avm1.Activation, v amf.Value) avm1.Value {
	switch v.Kind() {
	case amf.KindNull:
		return avm1.Null
	case amf.KindBool:
		return avm1.Bool(v.AsBool())
	case amf.KindNumber:
		return avm1.Number(v.AsNumber())
	case amf.KindString:
		return avm1.Str(v.AsString())
	case amf.KindDate:
		ctorVal, err := avm1.Get(a, a.Avm().Globals(), a.Intern("Date"))
		if err == nil && ctorVal.IsObject() {
			d, err := ctorVal.AsObject().Construct(a, []avm1.Value{avm1.Number(v.AsNumber())})
			if err == nil {
				return d
			}
		}
		return avm1.Number(v.AsNumber())
	case amf.KindList:
		items := v.AsList()
		elems := make([]avm1.Value, len(items))
		for i, item := range items {
			elems[i] = amfToValue(a, item)
		}
		return avm1.ObjectValue(avm1.NewArrayObject(a, elems))
	case amf.KindObject:
		out := avm1.NewScriptObject(a, avm1.ObjectValue(a.Avm().ProtoFor().Object))
		for _, k := range v.Keys() {
			if member, ok := v.Get(k); ok {
				out.DefineValue(k, amfToValue(a, member), 0)
			}
		}
		return avm1.ObjectValue(out)
	}
	return avm1.Undefined
}
