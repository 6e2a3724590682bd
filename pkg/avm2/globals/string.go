package globals

import (
	"math"

	"lantern/pkg/avm2"
	"lantern/pkg/wstr"
)

type stringModule struct{}

func (stringModule) Name() string  { return "String" }
func (stringModule) Priority() int { return PriorityString }

func (stringModule) Install(a *avm2.Activation) {
	objectCls := a.Avm().ClassByName("Object")
	cls := avm2.NewClass("String", public(), objectCls, avm2.ClassFlagSealed|avm2.ClassFlagFinal)
	cls.SetNativeInit(func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		return avm2.Undefined, nil
	})
	cls.SetCallHandler(func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		if len(args) == 0 {
			return avm2.Str(""), nil
		}
		s, err := args[0].CoerceToString(a)
		if err != nil {
			return avm2.Undefined, err
		}
		return avm2.String(s), nil
	})

	cls.DefineGetter(public(), "length", stringLength)
	cls.DefineMethod(public(), "toString", stringToString)
	cls.DefineMethod(public(), "valueOf", stringToString)
	cls.DefineMethod(public(), "charAt", stringCharAt)
	cls.DefineMethod(public(), "charCodeAt", stringCharCodeAt)
	cls.DefineMethod(public(), "concat", stringConcat)
	cls.DefineMethod(public(), "indexOf", stringIndexOf)
	cls.DefineMethod(public(), "lastIndexOf", stringLastIndexOf)
	cls.DefineMethod(public(), "localeCompare", stringLocaleCompare)
	cls.DefineMethod(public(), "match", stringMatch)
	cls.DefineMethod(public(), "replace", stringReplace)
	cls.DefineMethod(public(), "search", stringSearch)
	cls.DefineMethod(public(), "slice", stringSlice)
	cls.DefineMethod(public(), "split", stringSplit)
	cls.DefineMethod(public(), "substr", stringSubstr)
	cls.DefineMethod(public(), "substring", stringSubstring)
	cls.DefineMethod(public(), "toLowerCase", stringToLowerCase)
	cls.DefineMethod(public(), "toUpperCase", stringToUpperCase)
	cls.DefineMethod(public(), "toLocaleLowerCase", stringToLowerCase)
	cls.DefineMethod(public(), "toLocaleUpperCase", stringToUpperCase)

	co := defineClass(a, cls)
	if co == nil {
		return
	}
	a.Avm().ProtoFor().String = avm2.ObjectValue(co.Prototype())

	fromCharCode := avm2.NewFunctionObject(a, avm2.NewNativeMethod("fromCharCode", stringFromCharCode))
	co.SetDynamic("fromCharCode", avm2.ObjectValue(fromCharCode))

	proto := co.Prototype()
	protoMethod(a, proto, "toString", stringToString)
	protoMethod(a, proto, "valueOf", stringToString)
	protoMethod(a, proto, "charAt", stringCharAt)
	protoMethod(a, proto, "indexOf", stringIndexOf)
	protoMethod(a, proto, "split", stringSplit)
	protoMethod(a, proto, "substring", stringSubstring)
}

// receiverWStr reads the wrapped or coerced string out of the receiver.
func receiverWStr(a *avm2.Activation, this avm2.Value) wstr.WStr {
	s, err := receiverValue(this).CoerceToString(a)
	if err != nil {
		return wstr.Empty
	}
	return s
}

func stringLength(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return avm2.Integer(int32(receiverWStr(a, this).Len())), nil
}

func stringFromCharCode(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	units := make([]uint16, 0, len(args))
	for i := range args {
		u, err := arg(args, i).CoerceToU32(a)
		if err != nil {
			return avm2.Undefined, err
		}
		units = append(units, uint16(u))
	}
	return avm2.String(wstr.FromUTF16(units)), nil
}

func stringToString(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return avm2.String(receiverWStr(a, this)), nil
}

func stringCharAt(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	s := receiverWStr(a, this)
	i := argInt(a, args, 0)
	if i < 0 || i >= s.Len() {
		return avm2.Str(""), nil
	}
	return avm2.String(s.Slice(i, i+1)), nil
}

func stringCharCodeAt(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	s := receiverWStr(a, this)
	i := argInt(a, args, 0)
	if i < 0 || i >= s.Len() {
		return avm2.Number(math.NaN()), nil
	}
	return avm2.Number(float64(s.At(i))), nil
}

func stringConcat(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	s := receiverWStr(a, this)
	for i := range args {
		s = wstr.Concat(s, argString(a, args, i))
	}
	return avm2.String(s), nil
}

func stringIndexOf(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	s := receiverWStr(a, this)
	needle := argString(a, args, 0)
	from := argIntDefault(a, args, 1, 0)
	return avm2.Integer(int32(s.Index(needle, from))), nil
}

func stringLastIndexOf(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	s := receiverWStr(a, this)
	needle := argString(a, args, 0)
	from := argIntDefault(a, args, 1, s.Len())
	return avm2.Integer(int32(s.LastIndex(needle, from))), nil
}

func stringLocaleCompare(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	s := receiverWStr(a, this)
	return avm2.Integer(int32(s.Compare(argString(a, args, 0)))), nil
}

func stringMatch(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	s := receiverWStr(a, this)
	rx, err := regExpArg(a, args, 0)
	if err != nil {
		return avm2.Undefined, err
	}
	if rx == nil {
		return avm2.Null, nil
	}
	if !rx.global {
		m, err := rx.findAt(s, 0)
		if err != nil || m == nil {
			return avm2.Null, err
		}
		return avm2.ObjectValue(matchResult(a, s, m)), nil
	}
	var out []avm2.Value
	pos := 0
	for {
		m, err := rx.findAt(s, pos)
		if err != nil {
			return avm2.Undefined, err
		}
		if m == nil {
			break
		}
		out = append(out, avm2.String(m.text))
		pos = m.index + m.text.Len()
		if m.text.IsEmpty() {
			pos++
		}
	}
	if out == nil {
		return avm2.Null, nil
	}
	return avm2.ObjectValue(avm2.NewArrayObject(a, out)), nil
}

func stringSearch(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	s := receiverWStr(a, this)
	rx, err := regExpArg(a, args, 0)
	if err != nil {
		return avm2.Undefined, err
	}
	if rx == nil {
		return avm2.Integer(-1), nil
	}
	m, err := rx.findAt(s, 0)
	if err != nil || m == nil {
		return avm2.Integer(-1), err
	}
	return avm2.Integer(int32(m.index)), nil
}

func stringReplace(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	s := receiverWStr(a, this)
	replacement := arg(args, 1)

	apply := func(m *regExpMatch) (wstr.WStr, error) {
		if fn := argObject(args, 1); fn != nil && fn.Base() != nil && replacement.TypeOf() == "function" {
			callArgs := []avm2.Value{avm2.String(m.text)}
			for _, g := range m.groups {
				callArgs = append(callArgs, avm2.String(g))
			}
			callArgs = append(callArgs, avm2.Integer(int32(m.index)), avm2.String(s))
			r, err := fn.Call(a, avm2.Undefined, callArgs)
			if err != nil {
				return wstr.Empty, err
			}
			return r.CoerceToString(a)
		}
		tpl, err := replacement.CoerceToString(a)
		if err != nil {
			return wstr.Empty, err
		}
		return expandReplacement(tpl, s, m), nil
	}

	if rx, err := regExpArg(a, args, 0); err != nil {
		return avm2.Undefined, err
	} else if rx != nil {
		var out wstr.WStr
		pos := 0
		for {
			m, err := rx.findAt(s, pos)
			if err != nil {
				return avm2.Undefined, err
			}
			if m == nil {
				break
			}
			rep, err := apply(m)
			if err != nil {
				return avm2.Undefined, err
			}
			out = wstr.Concat(wstr.Concat(out, s.Slice(pos, m.index)), rep)
			pos = m.index + m.text.Len()
			if m.text.IsEmpty() {
				if pos < s.Len() {
					out = wstr.Concat(out, s.Slice(pos, pos+1))
				}
				pos++
			}
			if !rx.global {
				break
			}
		}
		if pos <= s.Len() {
			out = wstr.Concat(out, s.Slice(min(pos, s.Len()), s.Len()))
		}
		return avm2.String(out), nil
	}

	// Plain-string pattern replaces the first occurrence only.
	needle := argString(a, args, 0)
	idx := s.Index(needle, 0)
	if idx < 0 {
		return avm2.String(s), nil
	}
	m := &regExpMatch{index: idx, text: needle}
	rep, err := apply(m)
	if err != nil {
		return avm2.Undefined, err
	}
	out := wstr.Concat(wstr.Concat(s.Slice(0, idx), rep), s.Slice(idx+needle.Len(), s.Len()))
	return avm2.String(out), nil
}

func stringSlice(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	s := receiverWStr(a, this)
	start := 0
	if len(args) > 0 {
		start = resolveIndex(argNumber(a, args, 0), s.Len())
	}
	end := s.Len()
	if len(args) > 1 && !args[1].IsUndefined() {
		end = resolveIndex(argNumber(a, args, 1), s.Len())
	}
	if start >= end {
		return avm2.Str(""), nil
	}
	return avm2.String(s.Slice(start, end)), nil
}

func stringSplit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	s := receiverWStr(a, this)
	if len(args) == 0 || args[0].IsUndefined() {
		return avm2.ObjectValue(avm2.NewArrayObject(a, []avm2.Value{avm2.String(s)})), nil
	}
	limit := math.MaxInt32
	if len(args) > 1 && !args[1].IsUndefined() {
		limit = argInt(a, args, 1)
		if limit < 0 {
			limit = 0
		}
	}

	if rx, err := regExpArg(a, args, 0); err != nil {
		return avm2.Undefined, err
	} else if rx != nil {
		var parts []avm2.Value
		start := 0
		pos := 0
		for len(parts) < limit {
			m, err := rx.findAt(s, pos)
			if err != nil {
				return avm2.Undefined, err
			}
			if m == nil {
				break
			}
			if m.text.IsEmpty() {
				pos = m.index + 1
				if pos > s.Len() {
					break
				}
				continue
			}
			parts = append(parts, avm2.String(s.Slice(start, m.index)))
			start = m.index + m.text.Len()
			pos = start
		}
		if len(parts) < limit {
			parts = append(parts, avm2.String(s.Slice(start, s.Len())))
		}
		return avm2.ObjectValue(avm2.NewArrayObject(a, parts)), nil
	}

	sep := argString(a, args, 0)
	var parts []avm2.Value
	if sep.IsEmpty() {
		for i := 0; i < s.Len() && len(parts) < limit; i++ {
			parts = append(parts, avm2.String(s.Slice(i, i+1)))
		}
	} else {
		start := 0
		for len(parts) < limit {
			idx := s.Index(sep, start)
			if idx < 0 {
				parts = append(parts, avm2.String(s.Slice(start, s.Len())))
				break
			}
			parts = append(parts, avm2.String(s.Slice(start, idx)))
			start = idx + sep.Len()
		}
	}
	return avm2.ObjectValue(avm2.NewArrayObject(a, parts)), nil
}

func stringSubstr(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	s := receiverWStr(a, this)
	start := 0
	if len(args) > 0 {
		start = resolveIndex(argNumber(a, args, 0), s.Len())
	}
	count := s.Len() - start
	if len(args) > 1 && !args[1].IsUndefined() {
		count = argInt(a, args, 1)
		if count < 0 {
			// Negative counts measure back from the end.
			count = s.Len() - start + count
		}
	}
	if count <= 0 {
		return avm2.Str(""), nil
	}
	end := start + count
	if end > s.Len() {
		end = s.Len()
	}
	return avm2.String(s.Slice(start, end)), nil
}

func stringSubstring(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	s := receiverWStr(a, this)
	start := argInt(a, args, 0)
	end := s.Len()
	if len(args) > 1 && !args[1].IsUndefined() {
		end = argInt(a, args, 1)
	}
	if start < 0 {
		start = 0
	}
	if end < 0 {
		end = 0
	}
	if start > s.Len() {
		start = s.Len()
	}
	if end > s.Len() {
		end = s.Len()
	}
	if start > end {
		start, end = end, start
	}
	return avm2.String(s.Slice(start, end)), nil
}

func stringToLowerCase(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return avm2.String(receiverWStr(a, this).ToLowercase()), nil
}

func stringToUpperCase(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return avm2.String(receiverWStr(a, this).ToUppercase()), nil
}

func min(x, y int) int {
	if x < y {
		return x
	}
	return y
}
