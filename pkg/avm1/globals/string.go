package globals

import (
	"math"

	"lantern/pkg/avm1"
	"lantern/pkg/wstr"
)

type stringModule struct{}

func (stringModule) Name() string  { return "String" }
func (stringModule) Priority() int { return PriorityString }

func (stringModule) Install(a *avm1.Activation) {
	ctor, proto := defineClass(a, "String", stringConstructor)
	a.Avm().ProtoFor().String = proto

	method(a, ctor, "fromCharCode", stringFromCharCode)

	method(a, proto, "toString", stringToString)
	method(a, proto, "valueOf", stringToString)
	method(a, proto, "charAt", stringCharAt)
	method(a, proto, "charCodeAt", stringCharCodeAt)
	method(a, proto, "concat", stringConcat)
	method(a, proto, "indexOf", stringIndexOf)
	method(a, proto, "lastIndexOf", stringLastIndexOf)
	method(a, proto, "slice", stringSlice)
	method(a, proto, "split", stringSplit)
	method(a, proto, "substr", stringSubstr)
	method(a, proto, "substring", stringSubstring)
	method(a, proto, "toLowerCase", stringToLowerCase)
	method(a, proto, "toUpperCase", stringToUpperCase)
}

// receiverString reads the wrapped or coerced string out of `this`.
func receiverString(a *avm1.Activation, this avm1.Object) wstr.WStr {
	if this == nil {
		return wstr.Empty
	}
	return avm1.UnboxValue(avm1.ObjectValue(this)).CoerceToString(a)
}

func stringConstructor(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	s := wstr.Empty
	if len(args) > 0 {
		s = argString(a, args, 0)
	}
	if this == nil {
		return avm1.String(s), nil
	}
	boxed := avm1.NewValueObject(a, avm1.String(s), avm1.ObjectValue(a.Avm().ProtoFor().String))
	boxed.DefineValue("length", avm1.Number(float64(s.Len())), avm1.AttrDontEnum|avm1.AttrDontDelete)
	return avm1.ObjectValue(boxed), nil
}

func stringFromCharCode(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	units := make([]uint16, 0, len(args))
	for i := range args {
		u := uint16(arg(args, i).CoerceToU32(a))
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return avm1.String(wstr.FromUTF16(units)), nil
}

func stringToString(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return avm1.String(receiverString(a, this)), nil
}

func stringCharAt(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	s := receiverString(a, this)
	i := argInt(a, args, 0)
	if i < 0 || i >= s.Len() {
		return avm1.Str(""), nil
	}
	return avm1.String(s.Slice(i, i+1)), nil
}

func stringCharCodeAt(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	s := receiverString(a, this)
	i := argInt(a, args, 0)
	if i < 0 || i >= s.Len() {
		return avm1.Number(math.NaN()), nil
	}
	return avm1.Number(float64(s.At(i))), nil
}

func stringConcat(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	s := receiverString(a, this)
	for i := range args {
		s = wstr.Concat(s, argString(a, args, i))
	}
	return avm1.String(s), nil
}

func stringIndexOf(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	s := receiverString(a, this)
	needle := argString(a, args, 0)
	from := 0
	if len(args) > 1 {
		from = argInt(a, args, 1)
	}
	return avm1.Number(float64(s.Index(needle, from))), nil
}

func stringLastIndexOf(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	s := receiverString(a, this)
	needle := argString(a, args, 0)
	from := s.Len()
	if len(args) > 1 && !args[1].IsUndefined() {
		from = argInt(a, args, 1)
	}
	return avm1.Number(float64(s.LastIndex(needle, from))), nil
}

func stringSlice(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	s := receiverString(a, this)
	start := resolveIndex(argNumber(a, args, 0), s.Len())
	end := s.Len()
	if len(args) > 1 && !args[1].IsUndefined() {
		end = resolveIndex(argNumber(a, args, 1), s.Len())
	}
	if start >= end {
		return avm1.Str(""), nil
	}
	return avm1.String(s.Slice(start, end)), nil
}

func stringSplit(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	s := receiverString(a, this)
	if len(args) == 0 || args[0].IsUndefined() {
		return avm1.ObjectValue(avm1.NewArrayObject(a, []avm1.Value{avm1.String(s)})), nil
	}
	sep := argString(a, args, 0)
	limit := math.MaxInt32
	if len(args) > 1 && !args[1].IsUndefined() {
		limit = argInt(a, args, 1)
		if limit < 0 {
			limit = 0
		}
	}
	var parts []avm1.Value
	if sep.IsEmpty() {
		for i := 0; i < s.Len() && len(parts) < limit; i++ {
			parts = append(parts, avm1.String(s.Slice(i, i+1)))
		}
	} else {
		start := 0
		for len(parts) < limit {
			idx := s.Index(sep, start)
			if idx < 0 {
				parts = append(parts, avm1.String(s.Slice(start, s.Len())))
				break
			}
			parts = append(parts, avm1.String(s.Slice(start, idx)))
			start = idx + sep.Len()
		}
	}
	return avm1.ObjectValue(avm1.NewArrayObject(a, parts)), nil
}

func stringSubstr(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	s := receiverString(a, this)
	start := resolveIndex(argNumber(a, args, 0), s.Len())
	count := s.Len() - start
	if len(args) > 1 && !args[1].IsUndefined() {
		count = argInt(a, args, 1)
		if count < 0 {
			// Negative counts measure back from the end.
			count = s.Len() - start + count
		}
	}
	if count <= 0 {
		return avm1.Str(""), nil
	}
	end := start + count
	if end > s.Len() {
		end = s.Len()
	}
	return avm1.String(s.Slice(start, end)), nil
}

func stringSubstring(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	s := receiverString(a, this)
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
	return avm1.String(s.Slice(start, end)), nil
}

func stringToLowerCase(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return avm1.String(receiverString(a, this).ToLowercase()), nil
}

func stringToUpperCase(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return avm1.String(receiverString(a, this).ToUppercase()), nil
}
