package globals

import (
	"encoding/json"
	"strings"

	"lantern/pkg/avm2"
	"lantern/pkg/wstr"
)

type jsonModule struct{}

func (jsonModule) Name() string  { return "JSON" }
func (jsonModule) Priority() int { return PriorityJSON }

func (jsonModule) Install(a *avm2.Activation) {
	objectCls := a.Avm().ClassByName("Object")
	cls := avm2.NewClass("JSON", public(), objectCls, avm2.ClassFlagSealed|avm2.ClassFlagFinal)
	cls.SetNativeInit(func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		return avm2.Undefined, avm2.TypeError("JSON is not a constructor")
	})
	co := defineClass(a, cls)
	if co == nil {
		return
	}
	parseFn := avm2.NewFunctionObject(a, avm2.NewNativeMethod("parse", jsonParse))
	co.SetDynamic("parse", avm2.ObjectValue(parseFn))
	stringifyFn := avm2.NewFunctionObject(a, avm2.NewNativeMethod("stringify", jsonStringify))
	co.SetDynamic("stringify", avm2.ObjectValue(stringifyFn))
}

func jsonParse(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	text := argUTF8(a, args, 0)
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return avm2.Undefined, avm2.TypeError("invalid JSON: %v", err)
	}
	v := jsonToValue(a, raw)
	if reviver := argObject(args, 1); reviver != nil {
		return jsonRevive(a, reviver, avm2.Str(""), v)
	}
	return v, nil
}

func jsonToValue(a *avm2.Activation, raw any) avm2.Value {
	switch x := raw.(type) {
	case nil:
		return avm2.Null
	case bool:
		return avm2.Bool(x)
	case json.Number:
		f, _ := x.Float64()
		return avm2.Number(f)
	case string:
		return avm2.Str(x)
	case []any:
		elems := make([]avm2.Value, len(x))
		for i, e := range x {
			elems[i] = jsonToValue(a, e)
		}
		return avm2.ObjectValue(avm2.NewArrayObject(a, elems))
	case map[string]any:
		obj := newObject(a)
		for k, e := range x {
			obj.SetDynamic(k, jsonToValue(a, e))
		}
		return avm2.ObjectValue(obj)
	}
	return avm2.Undefined
}

// jsonRevive walks the parsed tree bottom-up calling the reviver with
// each key and value; undefined results delete the member.
func jsonRevive(a *avm2.Activation, reviver avm2.Object, key avm2.Value, v avm2.Value) (avm2.Value, error) {
	if obj := v.AsObject(); obj != nil {
		if arr := avm2.AsArrayObject(obj); arr != nil {
			for i, e := range arr.Values() {
				r, err := jsonRevive(a, reviver, avm2.Integer(int32(i)), e)
				if err != nil {
					return avm2.Undefined, err
				}
				arr.Set(i, r)
			}
		} else {
			for _, k := range obj.Base().DynamicKeys() {
				e, _ := obj.Base().GetDynamic(k)
				r, err := jsonRevive(a, reviver, avm2.Str(k), e)
				if err != nil {
					return avm2.Undefined, err
				}
				if r.IsUndefined() {
					obj.Base().DeleteDynamic(k)
				} else {
					obj.Base().SetDynamic(k, r)
				}
			}
		}
	}
	return reviver.Call(a, avm2.Undefined, []avm2.Value{key, v})
}

func jsonStringify(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	indent := ""
	if len(args) > 2 && !args[2].IsUndefined() {
		if args[2].IsNumeric() {
			n := argInt(a, args, 2)
			if n > 10 {
				n = 10
			}
			indent = strings.Repeat(" ", n)
		} else {
			indent = argUTF8(a, args, 2)
		}
	}
	var sb strings.Builder
	ok, err := writeJSON(a, &sb, arg(args, 0), indent, "", 0)
	if err != nil {
		return avm2.Undefined, err
	}
	if !ok {
		return avm2.Undefined, nil
	}
	return avm2.Str(sb.String()), nil
}

// writeJSON serializes one value; false means the value has no JSON
// representation and the member should be skipped.
func writeJSON(a *avm2.Activation, sb *strings.Builder, v avm2.Value, indent, prefix string, depth int) (bool, error) {
	if depth > 32 {
		return false, avm2.TypeError("cyclic structure in JSON.stringify")
	}
	if obj := v.AsObject(); obj != nil {
		// toJSON takes over when the value provides one.
		if r, err := avm2.GetProperty(a, obj, avm2.PublicName("toJSON")); err == nil {
			if fn := r.AsObject(); fn != nil && r.TypeOf() == "function" {
				rv, err := fn.Call(a, v, nil)
				if err != nil {
					return false, err
				}
				if rv.AsObject() == nil {
					return writeJSON(a, sb, rv, indent, prefix, depth)
				}
			}
		}
	}
	switch {
	case v.IsUndefined():
		return false, nil
	case v.IsNull():
		sb.WriteString("null")
		return true, nil
	case v.IsNumeric():
		n, err := v.CoerceToNumber(a)
		if err != nil {
			return false, err
		}
		sb.WriteString(wstr.F64ToString(n).ToUTF8())
		return true, nil
	case v.IsString():
		s, _ := v.CoerceToString(a)
		b, _ := json.Marshal(s.ToUTF8())
		sb.Write(b)
		return true, nil
	case v.IsObject():
		return writeJSONObject(a, sb, v.AsObject(), indent, prefix, depth)
	}
	if v.CoerceToBoolean() {
		sb.WriteString("true")
	} else {
		sb.WriteString("false")
	}
	return true, nil
}

func writeJSONObject(a *avm2.Activation, sb *strings.Builder, obj avm2.Object, indent, prefix string, depth int) (bool, error) {
	if avm2.ObjectValue(obj).TypeOf() == "function" {
		return false, nil
	}
	inner := prefix + indent
	sep := ","
	open, closing := "", ""
	if indent != "" {
		sep = ",\n" + inner
		open = "\n" + inner
		closing = "\n" + prefix
	}
	if arr := avm2.AsArrayObject(obj); arr != nil {
		elems := arr.Values()
		if len(elems) == 0 {
			sb.WriteString("[]")
			return true, nil
		}
		sb.WriteString("[" + open)
		for i, e := range elems {
			if i > 0 {
				sb.WriteString(sep)
			}
			ok, err := writeJSON(a, sb, e, indent, inner, depth+1)
			if err != nil {
				return false, err
			}
			if !ok {
				sb.WriteString("null")
			}
		}
		sb.WriteString(closing + "]")
		return true, nil
	}
	keys := obj.Base().DynamicKeys()
	sb.WriteString("{")
	wrote := false
	for _, k := range keys {
		e, ok := obj.Base().GetDynamic(k)
		if !ok || e.IsUndefined() {
			continue
		}
		var member strings.Builder
		okm, err := writeJSON(a, &member, e, indent, inner, depth+1)
		if err != nil {
			return false, err
		}
		if !okm {
			continue
		}
		if wrote {
			sb.WriteString(sep)
		} else {
			sb.WriteString(open)
		}
		kb, _ := json.Marshal(k)
		sb.Write(kb)
		if indent != "" {
			sb.WriteString(": ")
		} else {
			sb.WriteString(":")
		}
		sb.WriteString(member.String())
		wrote = true
	}
	if wrote {
		sb.WriteString(closing)
	}
	sb.WriteString("}")
	return true, nil
}
