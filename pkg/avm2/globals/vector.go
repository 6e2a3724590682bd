package globals

import (
	"sort"

	"lantern/pkg/abc"
	"lantern/pkg/avm2"
	"lantern/pkg/wstr"
)

// VectorNS is the package namespace the Vector family lives in.
const VectorNS = "__AS3__.vec"

type vectorModule struct{}

func (vectorModule) Name() string  { return "Vector" }
func (vectorModule) Priority() int { return PriorityVector }

func (vectorModule) Install(a *avm2.Activation) {
	objectCls := a.Avm().ClassByName("Object")
	vecNs := avm2.NewNamespace(abc.NsPackage, VectorNS)

	cls := avm2.NewClass("Vector", vecNs, objectCls, avm2.ClassFlagSealed)
	cls.SetAllocator(func(a *avm2.Activation, c *avm2.Class, proto avm2.Value) (avm2.Object, error) {
		return avm2.NewVectorObject(a, c, proto, avm2.NewVectorData(nil, 0, false)), nil
	})
	cls.SetNativeInit(func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		return avm2.Undefined, nil
	})

	cls.DefineGetter(public(), "length", vectorLengthGet)
	cls.DefineSetter(public(), "length", vectorLengthSet)
	cls.DefineGetter(public(), "fixed", vectorFixedGet)
	cls.DefineSetter(public(), "fixed", vectorFixedSet)
	cls.DefineMethod(public(), "push", vectorPush)
	cls.DefineMethod(public(), "pop", vectorPop)
	cls.DefineMethod(public(), "shift", vectorShift)
	cls.DefineMethod(public(), "unshift", vectorUnshift)
	cls.DefineMethod(public(), "slice", vectorSlice)
	cls.DefineMethod(public(), "splice", vectorSplice)
	cls.DefineMethod(public(), "concat", vectorConcat)
	cls.DefineMethod(public(), "join", vectorJoin)
	cls.DefineMethod(public(), "reverse", vectorReverse)
	cls.DefineMethod(public(), "indexOf", vectorIndexOf)
	cls.DefineMethod(public(), "lastIndexOf", vectorLastIndexOf)
	cls.DefineMethod(public(), "forEach", vectorForEach)
	cls.DefineMethod(public(), "map", vectorMap)
	cls.DefineMethod(public(), "filter", vectorFilter)
	cls.DefineMethod(public(), "every", vectorEvery)
	cls.DefineMethod(public(), "some", vectorSome)
	cls.DefineMethod(public(), "sort", vectorSort)
	cls.DefineMethod(public(), "toString", vectorToString)

	if co := defineClass(a, cls); co != nil {
		a.Avm().ProtoFor().Vector = avm2.ObjectValue(co.Prototype())
	}
}

func receiverVector(this avm2.Value) *avm2.VectorData {
	return avm2.AsVectorData(this.AsObject())
}

func vectorLengthGet(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	vd := receiverVector(this)
	if vd == nil {
		return avm2.Unsigned(0), nil
	}
	return avm2.Unsigned(uint32(vd.Length())), nil
}

func vectorLengthSet(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	vd := receiverVector(this)
	if vd == nil {
		return avm2.Undefined, nil
	}
	if err := vd.SetLength(argInt(a, args, 0)); err != nil {
		return avm2.Undefined, err
	}
	return avm2.Undefined, nil
}

func vectorFixedGet(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	vd := receiverVector(this)
	return avm2.Bool(vd != nil && vd.Fixed()), nil
}

func vectorFixedSet(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if vd := receiverVector(this); vd != nil {
		vd.SetFixed(argBool(args, 0))
	}
	return avm2.Undefined, nil
}

func vectorPush(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	vd := receiverVector(this)
	if vd == nil {
		return avm2.Unsigned(0), nil
	}
	n, err := vd.Push(a, args)
	if err != nil {
		return avm2.Undefined, err
	}
	return avm2.Unsigned(uint32(n)), nil
}

func vectorPop(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	vd := receiverVector(this)
	if vd == nil {
		return avm2.Undefined, nil
	}
	v, err := vd.Pop()
	if err != nil {
		return avm2.Undefined, err
	}
	return v, nil
}

// sameVector builds a fresh vector of the receiver's element type.
func sameVector(a *avm2.Activation, this avm2.Value, vd *avm2.VectorData, elems []avm2.Value) (avm2.Value, error) {
	out := avm2.NewVectorData(vd.ElemType(), 0, false)
	if _, err := out.Push(a, elems); err != nil {
		return avm2.Undefined, err
	}
	obj := this.AsObject()
	cls := obj.Base().Class()
	return avm2.ObjectValue(avm2.NewVectorObject(a, cls, obj.Base().Proto(), out)), nil
}

func vectorShift(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	vd := receiverVector(this)
	if vd == nil || vd.Length() == 0 {
		return avm2.Undefined, nil
	}
	if vd.Fixed() {
		return avm2.Undefined, avm2.RangeError("cannot resize a fixed vector")
	}
	vals := vd.Values()
	first := vals[0]
	rest := append([]avm2.Value(nil), vals[1:]...)
	vd.SetFixed(false)
	if err := vd.SetLength(0); err != nil {
		return avm2.Undefined, err
	}
	if _, err := vd.Push(a, rest); err != nil {
		return avm2.Undefined, err
	}
	return first, nil
}

func vectorUnshift(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	vd := receiverVector(this)
	if vd == nil {
		return avm2.Unsigned(0), nil
	}
	if vd.Fixed() {
		return avm2.Undefined, avm2.RangeError("cannot resize a fixed vector")
	}
	elems := append(append([]avm2.Value(nil), args...), vd.Values()...)
	if err := vd.SetLength(0); err != nil {
		return avm2.Undefined, err
	}
	if _, err := vd.Push(a, elems); err != nil {
		return avm2.Undefined, err
	}
	return avm2.Unsigned(uint32(vd.Length())), nil
}

func vectorSlice(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	vd := receiverVector(this)
	if vd == nil {
		return avm2.Undefined, nil
	}
	vals := vd.Values()
	start := 0
	if len(args) > 0 {
		start = resolveIndex(argNumber(a, args, 0), len(vals))
	}
	end := len(vals)
	if len(args) > 1 && !args[1].IsUndefined() {
		end = resolveIndex(argNumber(a, args, 1), len(vals))
	}
	if end < start {
		end = start
	}
	return sameVector(a, this, vd, vals[start:end])
}

func vectorSplice(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	vd := receiverVector(this)
	if vd == nil || len(args) == 0 {
		return avm2.Undefined, nil
	}
	if vd.Fixed() {
		return avm2.Undefined, avm2.RangeError("cannot resize a fixed vector")
	}
	vals := vd.Values()
	start := resolveIndex(argNumber(a, args, 0), len(vals))
	removeCount := len(vals) - start
	if len(args) > 1 {
		rc := argInt(a, args, 1)
		if rc < 0 {
			rc = 0
		}
		if rc < removeCount {
			removeCount = rc
		}
	}
	removed := append([]avm2.Value(nil), vals[start:start+removeCount]...)
	out := append([]avm2.Value(nil), vals[:start]...)
	if len(args) > 2 {
		out = append(out, args[2:]...)
	}
	out = append(out, vals[start+removeCount:]...)
	if err := vd.SetLength(0); err != nil {
		return avm2.Undefined, err
	}
	if _, err := vd.Push(a, out); err != nil {
		return avm2.Undefined, err
	}
	return sameVector(a, this, vd, removed)
}

func vectorConcat(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	vd := receiverVector(this)
	if vd == nil {
		return avm2.Undefined, nil
	}
	out := append([]avm2.Value(nil), vd.Values()...)
	for _, v := range args {
		if other := avm2.AsVectorData(v.AsObject()); other != nil {
			out = append(out, other.Values()...)
		} else {
			out = append(out, v)
		}
	}
	return sameVector(a, this, vd, out)
}

func vectorJoin(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	vd := receiverVector(this)
	if vd == nil {
		return avm2.Str(""), nil
	}
	sep := wstr.FromUTF8(",")
	if len(args) > 0 && !args[0].IsUndefined() {
		sep = argString(a, args, 0)
	}
	var out wstr.WStr
	for i, v := range vd.Values() {
		if i > 0 {
			out = wstr.Concat(out, sep)
		}
		if !v.IsNullish() {
			s, err := v.CoerceToString(a)
			if err != nil {
				return avm2.Undefined, err
			}
			out = wstr.Concat(out, s)
		}
	}
	return avm2.String(out), nil
}

func vectorReverse(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	vd := receiverVector(this)
	if vd == nil {
		return this, nil
	}
	vals := vd.Values()
	for i, j := 0, len(vals)-1; i < j; i, j = i+1, j-1 {
		vals[i], vals[j] = vals[j], vals[i]
	}
	return this, nil
}

func vectorIndexOf(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	vd := receiverVector(this)
	if vd == nil {
		return avm2.Integer(-1), nil
	}
	vals := vd.Values()
	from := argIntDefault(a, args, 1, 0)
	if from < 0 {
		from += len(vals)
	}
	if from < 0 {
		from = 0
	}
	target := arg(args, 0)
	for i := from; i < len(vals); i++ {
		if avm2.StrictEquals(vals[i], target) {
			return avm2.Integer(int32(i)), nil
		}
	}
	return avm2.Integer(-1), nil
}

func vectorLastIndexOf(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	vd := receiverVector(this)
	if vd == nil {
		return avm2.Integer(-1), nil
	}
	vals := vd.Values()
	from := argIntDefault(a, args, 1, len(vals)-1)
	if from < 0 {
		from += len(vals)
	}
	if from >= len(vals) {
		from = len(vals) - 1
	}
	target := arg(args, 0)
	for i := from; i >= 0; i-- {
		if avm2.StrictEquals(vals[i], target) {
			return avm2.Integer(int32(i)), nil
		}
	}
	return avm2.Integer(-1), nil
}

func vectorForEach(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	vd := receiverVector(this)
	if vd == nil {
		return avm2.Undefined, nil
	}
	for i, v := range vd.Values() {
		if _, err := iterationCallback(a, this, args, i, v); err != nil {
			return avm2.Undefined, err
		}
	}
	return avm2.Undefined, nil
}

func vectorMap(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	vd := receiverVector(this)
	if vd == nil {
		return avm2.Undefined, nil
	}
	vals := vd.Values()
	out := make([]avm2.Value, len(vals))
	for i, v := range vals {
		r, err := iterationCallback(a, this, args, i, v)
		if err != nil {
			return avm2.Undefined, err
		}
		out[i] = r
	}
	return sameVector(a, this, vd, out)
}

func vectorFilter(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	vd := receiverVector(this)
	if vd == nil {
		return avm2.Undefined, nil
	}
	var out []avm2.Value
	for i, v := range vd.Values() {
		r, err := iterationCallback(a, this, args, i, v)
		if err != nil {
			return avm2.Undefined, err
		}
		if r.CoerceToBoolean() {
			out = append(out, v)
		}
	}
	return sameVector(a, this, vd, out)
}

func vectorEvery(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	vd := receiverVector(this)
	if vd == nil {
		return avm2.Bool(true), nil
	}
	for i, v := range vd.Values() {
		r, err := iterationCallback(a, this, args, i, v)
		if err != nil {
			return avm2.Undefined, err
		}
		if !r.CoerceToBoolean() {
			return avm2.Bool(false), nil
		}
	}
	return avm2.Bool(true), nil
}

func vectorSome(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	vd := receiverVector(this)
	if vd == nil {
		return avm2.Bool(false), nil
	}
	for i, v := range vd.Values() {
		r, err := iterationCallback(a, this, args, i, v)
		if err != nil {
			return avm2.Undefined, err
		}
		if r.CoerceToBoolean() {
			return avm2.Bool(true), nil
		}
	}
	return avm2.Bool(false), nil
}

func vectorSort(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	vd := receiverVector(this)
	if vd == nil {
		return this, nil
	}
	var cmp compareFn
	if fn := argObject(args, 0); fn != nil {
		cmp = customCompare(a, fn)
	} else {
		flags := argIntDefault(a, args, 0, 0)
		cmp = defaultCompare(a, flags)
	}
	vals := vd.Values()
	var sortErr error
	sort.SliceStable(vals, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		c, err := cmp(vals[i], vals[j])
		if err != nil {
			sortErr = err
		}
		return c < 0
	})
	if sortErr != nil {
		return avm2.Undefined, sortErr
	}
	return this, nil
}

func vectorToString(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return vectorJoin(a, this, nil)
}
