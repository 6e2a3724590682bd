package globals

import (
	"math"
	"sort"

	"lantern/pkg/avm2"
	"lantern/pkg/wstr"
)

// Published sort option bits.
const (
	sortCaseInsensitive = 1
	sortDescending      = 2
	sortUniqueSort      = 4
	sortReturnIndexed   = 8
	sortNumeric         = 16
)

type arrayModule struct{}

func (arrayModule) Name() string  { return "Array" }
func (arrayModule) Priority() int { return PriorityArray }

func (arrayModule) Install(a *avm2.Activation) {
	objectCls := a.Avm().ClassByName("Object")
	cls := avm2.NewClass("Array", public(), objectCls, 0)
	cls.SetAllocator(func(a *avm2.Activation, c *avm2.Class, proto avm2.Value) (avm2.Object, error) {
		return avm2.NewArrayObject(a, nil), nil
	})
	cls.SetNativeInit(arrayInit)
	cls.SetCallHandler(func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		return avm2.ObjectValue(newArrayFromArgs(a, args)), nil
	})

	cls.DefineGetter(public(), "length", arrayLengthGet)
	cls.DefineSetter(public(), "length", arrayLengthSet)
	cls.DefineMethod(public(), "push", arrayPush)
	cls.DefineMethod(public(), "pop", arrayPop)
	cls.DefineMethod(public(), "shift", arrayShift)
	cls.DefineMethod(public(), "unshift", arrayUnshift)
	cls.DefineMethod(public(), "slice", arraySlice)
	cls.DefineMethod(public(), "splice", arraySplice)
	cls.DefineMethod(public(), "concat", arrayConcat)
	cls.DefineMethod(public(), "join", arrayJoin)
	cls.DefineMethod(public(), "reverse", arrayReverse)
	cls.DefineMethod(public(), "indexOf", arrayIndexOf)
	cls.DefineMethod(public(), "lastIndexOf", arrayLastIndexOf)
	cls.DefineMethod(public(), "forEach", arrayForEach)
	cls.DefineMethod(public(), "map", arrayMap)
	cls.DefineMethod(public(), "filter", arrayFilter)
	cls.DefineMethod(public(), "every", arrayEvery)
	cls.DefineMethod(public(), "some", arraySome)
	cls.DefineMethod(public(), "sort", arraySort)
	cls.DefineMethod(public(), "sortOn", arraySortOn)
	cls.DefineMethod(public(), "toString", arrayToString)
	cls.DefineMethod(public(), "toLocaleString", arrayToString)

	co := defineClass(a, cls)
	if co == nil {
		return
	}
	a.Avm().ProtoFor().Array = avm2.ObjectValue(co.Prototype())

	co.SetDynamic("CASEINSENSITIVE", avm2.Unsigned(sortCaseInsensitive))
	co.SetDynamic("DESCENDING", avm2.Unsigned(sortDescending))
	co.SetDynamic("UNIQUESORT", avm2.Unsigned(sortUniqueSort))
	co.SetDynamic("RETURNINDEXEDARRAY", avm2.Unsigned(sortReturnIndexed))
	co.SetDynamic("NUMERIC", avm2.Unsigned(sortNumeric))

	proto := co.Prototype()
	protoMethod(a, proto, "join", arrayJoin)
	protoMethod(a, proto, "toString", arrayToString)
}

func newArrayFromArgs(a *avm2.Activation, args []avm2.Value) *avm2.ArrayObject {
	if len(args) == 1 && args[0].IsNumeric() {
		arr := avm2.NewArrayObject(a, nil)
		n := argNumber(a, args, 0)
		if n >= 0 && !math.IsInf(n, 0) && !math.IsNaN(n) {
			arr.SetLength(int(n))
		}
		return arr
	}
	return avm2.NewArrayObject(a, args)
}

func arrayInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	arr := avm2.AsArrayObject(this.AsObject())
	if arr == nil {
		return avm2.Undefined, nil
	}
	if len(args) == 1 && args[0].IsNumeric() {
		n := argNumber(a, args, 0)
		if n >= 0 && !math.IsInf(n, 0) && !math.IsNaN(n) {
			arr.SetLength(int(n))
		}
		return avm2.Undefined, nil
	}
	for i, v := range args {
		arr.Set(i, v)
	}
	return avm2.Undefined, nil
}

// receiverArray accepts the receiver as an array, unwrapping wrappers.
func receiverArray(this avm2.Value) *avm2.ArrayObject {
	return avm2.AsArrayObject(this.AsObject())
}

func arrayLengthGet(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	arr := receiverArray(this)
	if arr == nil {
		return avm2.Unsigned(0), nil
	}
	return avm2.Unsigned(uint32(arr.Length())), nil
}

func arrayLengthSet(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if arr := receiverArray(this); arr != nil {
		arr.SetLength(argInt(a, args, 0))
	}
	return avm2.Undefined, nil
}

func arrayPush(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	arr := receiverArray(this)
	if arr == nil {
		return avm2.Unsigned(0), nil
	}
	return avm2.Unsigned(uint32(arr.Push(args...))), nil
}

func arrayPop(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	arr := receiverArray(this)
	if arr == nil {
		return avm2.Undefined, nil
	}
	n := arr.Length()
	if n == 0 {
		return avm2.Undefined, nil
	}
	last, _ := arr.Get(n - 1)
	arr.SetLength(n - 1)
	return last, nil
}

func arrayShift(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	arr := receiverArray(this)
	if arr == nil {
		return avm2.Undefined, nil
	}
	elems := arr.Values()
	if len(elems) == 0 {
		return avm2.Undefined, nil
	}
	arr.Replace(elems[1:])
	return elems[0], nil
}

func arrayUnshift(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	arr := receiverArray(this)
	if arr == nil {
		return avm2.Unsigned(0), nil
	}
	elems := append(append([]avm2.Value(nil), args...), arr.Values()...)
	arr.Replace(elems)
	return avm2.Unsigned(uint32(len(elems))), nil
}

// resolveIndex maps a possibly negative position onto [0,length].
func resolveIndex(pos float64, length int) int {
	if math.IsNaN(pos) {
		return 0
	}
	i := int(pos)
	if i < 0 {
		i += length
	}
	if i < 0 {
		return 0
	}
	if i > length {
		return length
	}
	return i
}

func arraySlice(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	arr := receiverArray(this)
	if arr == nil {
		return avm2.Undefined, nil
	}
	elems := arr.Values()
	start := 0
	end := len(elems)
	if len(args) > 0 {
		start = resolveIndex(argNumber(a, args, 0), len(elems))
	}
	if len(args) > 1 && !args[1].IsUndefined() {
		end = resolveIndex(argNumber(a, args, 1), len(elems))
	}
	if end < start {
		end = start
	}
	return avm2.ObjectValue(avm2.NewArrayObject(a, elems[start:end])), nil
}

func arraySplice(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	arr := receiverArray(this)
	if arr == nil || len(args) == 0 {
		return avm2.Undefined, nil
	}
	elems := arr.Values()
	start := resolveIndex(argNumber(a, args, 0), len(elems))
	removeCount := len(elems) - start
	if len(args) > 1 {
		rc := argInt(a, args, 1)
		if rc < 0 {
			rc = 0
		}
		if rc < removeCount {
			removeCount = rc
		}
	}
	removed := append([]avm2.Value(nil), elems[start:start+removeCount]...)
	var inserted []avm2.Value
	if len(args) > 2 {
		inserted = args[2:]
	}
	out := append([]avm2.Value(nil), elems[:start]...)
	out = append(out, inserted...)
	out = append(out, elems[start+removeCount:]...)
	arr.Replace(out)
	return avm2.ObjectValue(avm2.NewArrayObject(a, removed)), nil
}

func arrayConcat(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	arr := receiverArray(this)
	if arr == nil {
		return avm2.Undefined, nil
	}
	out := arr.Values()
	for _, v := range args {
		if other := avm2.AsArrayObject(v.AsObject()); other != nil {
			out = append(out, other.Values()...)
		} else {
			out = append(out, v)
		}
	}
	return avm2.ObjectValue(avm2.NewArrayObject(a, out)), nil
}

func arrayJoin(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	arr := receiverArray(this)
	if arr == nil {
		return avm2.Str(""), nil
	}
	sep := wstr.FromUTF8(",")
	if len(args) > 0 && !args[0].IsUndefined() {
		sep = argString(a, args, 0)
	}
	var out wstr.WStr
	for i, v := range arr.Values() {
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

func arrayReverse(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	arr := receiverArray(this)
	if arr == nil {
		return avm2.Undefined, nil
	}
	elems := arr.Values()
	for i, j := 0, len(elems)-1; i < j; i, j = i+1, j-1 {
		elems[i], elems[j] = elems[j], elems[i]
	}
	arr.Replace(elems)
	return this, nil
}

func arrayIndexOf(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	arr := receiverArray(this)
	if arr == nil {
		return avm2.Integer(-1), nil
	}
	elems := arr.Values()
	from := argIntDefault(a, args, 1, 0)
	if from < 0 {
		from += len(elems)
	}
	if from < 0 {
		from = 0
	}
	target := arg(args, 0)
	for i := from; i < len(elems); i++ {
		if avm2.StrictEquals(elems[i], target) {
			return avm2.Integer(int32(i)), nil
		}
	}
	return avm2.Integer(-1), nil
}

func arrayLastIndexOf(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	arr := receiverArray(this)
	if arr == nil {
		return avm2.Integer(-1), nil
	}
	elems := arr.Values()
	from := argIntDefault(a, args, 1, len(elems)-1)
	if from < 0 {
		from += len(elems)
	}
	if from >= len(elems) {
		from = len(elems) - 1
	}
	target := arg(args, 0)
	for i := from; i >= 0; i-- {
		if avm2.StrictEquals(elems[i], target) {
			return avm2.Integer(int32(i)), nil
		}
	}
	return avm2.Integer(-1), nil
}

// iterationCallback invokes fn(element, index, array) with an optional
// thisObject receiver.
func iterationCallback(a *avm2.Activation, this avm2.Value, args []avm2.Value, i int, v avm2.Value) (avm2.Value, error) {
	fn := argObject(args, 0)
	if fn == nil {
		return avm2.Undefined, avm2.TypeError("callback is not a function")
	}
	return fn.Call(a, arg(args, 1), []avm2.Value{v, avm2.Integer(int32(i)), this})
}

func arrayForEach(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	arr := receiverArray(this)
	if arr == nil {
		return avm2.Undefined, nil
	}
	for i, v := range arr.Values() {
		if _, err := iterationCallback(a, this, args, i, v); err != nil {
			return avm2.Undefined, err
		}
	}
	return avm2.Undefined, nil
}

func arrayMap(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	arr := receiverArray(this)
	if arr == nil {
		return avm2.Undefined, nil
	}
	elems := arr.Values()
	out := make([]avm2.Value, len(elems))
	for i, v := range elems {
		r, err := iterationCallback(a, this, args, i, v)
		if err != nil {
			return avm2.Undefined, err
		}
		out[i] = r
	}
	return avm2.ObjectValue(avm2.NewArrayObject(a, out)), nil
}

func arrayFilter(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	arr := receiverArray(this)
	if arr == nil {
		return avm2.Undefined, nil
	}
	var out []avm2.Value
	for i, v := range arr.Values() {
		r, err := iterationCallback(a, this, args, i, v)
		if err != nil {
			return avm2.Undefined, err
		}
		if r.CoerceToBoolean() {
			out = append(out, v)
		}
	}
	return avm2.ObjectValue(avm2.NewArrayObject(a, out)), nil
}

func arrayEvery(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	arr := receiverArray(this)
	if arr == nil {
		return avm2.Bool(true), nil
	}
	for i, v := range arr.Values() {
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

func arraySome(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	arr := receiverArray(this)
	if arr == nil {
		return avm2.Bool(false), nil
	}
	for i, v := range arr.Values() {
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

// compareFn orders two elements; zero means equal for UNIQUESORT.
type compareFn func(x, y avm2.Value) (int, error)

func defaultCompare(a *avm2.Activation, flags int) compareFn {
	return func(x, y avm2.Value) (int, error) {
		if flags&sortNumeric != 0 {
			fx, err := x.CoerceToNumber(a)
			if err != nil {
				return 0, err
			}
			fy, err := y.CoerceToNumber(a)
			if err != nil {
				return 0, err
			}
			switch {
			case fx < fy:
				return -1, nil
			case fx > fy:
				return 1, nil
			}
			return 0, nil
		}
		sx, err := x.CoerceToString(a)
		if err != nil {
			return 0, err
		}
		sy, err := y.CoerceToString(a)
		if err != nil {
			return 0, err
		}
		if flags&sortCaseInsensitive != 0 {
			return sx.CompareIgnoreCase(sy), nil
		}
		return sx.Compare(sy), nil
	}
}

func customCompare(a *avm2.Activation, fn avm2.Object) compareFn {
	return func(x, y avm2.Value) (int, error) {
		r, err := fn.Call(a, avm2.Undefined, []avm2.Value{x, y})
		if err != nil {
			return 0, err
		}
		f, err := r.CoerceToNumber(a)
		if err != nil {
			return 0, err
		}
		switch {
		case f < 0:
			return -1, nil
		case f > 0:
			return 1, nil
		}
		return 0, nil
	}
}

// sortWith sorts the receiver with cmp honoring DESCENDING, UNIQUESORT
// and RETURNINDEXEDARRAY. Unique violations return 0 without mutating.
func sortWith(a *avm2.Activation, arr *avm2.ArrayObject, this avm2.Value, cmp compareFn, flags int) (avm2.Value, error) {
	elems := arr.Values()
	order := make([]int, len(elems))
	for i := range order {
		order[i] = i
	}
	var sortErr error
	sort.SliceStable(order, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		c, err := cmp(elems[order[i]], elems[order[j]])
		if err != nil {
			sortErr = err
			return false
		}
		if flags&sortDescending != 0 {
			c = -c
		}
		return c < 0
	})
	if sortErr != nil {
		return avm2.Undefined, sortErr
	}
	if flags&sortUniqueSort != 0 {
		for i := 1; i < len(order); i++ {
			c, err := cmp(elems[order[i-1]], elems[order[i]])
			if err != nil {
				return avm2.Undefined, err
			}
			if c == 0 {
				return avm2.Unsigned(0), nil
			}
		}
	}
	if flags&sortReturnIndexed != 0 {
		indexed := make([]avm2.Value, len(order))
		for i, idx := range order {
			indexed[i] = avm2.Integer(int32(idx))
		}
		return avm2.ObjectValue(avm2.NewArrayObject(a, indexed)), nil
	}
	sorted := make([]avm2.Value, len(order))
	for i, idx := range order {
		sorted[i] = elems[idx]
	}
	arr.Replace(sorted)
	return this, nil
}

func arraySort(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	arr := receiverArray(this)
	if arr == nil {
		return avm2.Undefined, nil
	}
	flags := 0
	var cmp compareFn
	switch {
	case len(args) > 0 && args[0].IsObject():
		cmp = customCompare(a, args[0].AsObject())
		flags = argIntDefault(a, args, 1, 0)
	case len(args) > 0 && args[0].IsNumeric():
		flags = argInt(a, args, 0)
	}
	if cmp == nil {
		cmp = defaultCompare(a, flags)
	}
	return sortWith(a, arr, this, cmp, flags)
}

func arraySortOn(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	arr := receiverArray(this)
	if arr == nil || len(args) == 0 {
		return avm2.Undefined, nil
	}
	var fields []*avm2.Multiname
	if o := avm2.AsArrayObject(argObject(args, 0)); o != nil {
		for _, v := range o.Values() {
			fields = append(fields, avm2.PublicName(argUTF8(a, []avm2.Value{v}, 0)))
		}
	} else {
		fields = []*avm2.Multiname{avm2.PublicName(argUTF8(a, args, 0))}
	}
	// One option word per field, or a single word applied to all.
	flagWords := make([]int, len(fields))
	combined := 0
	if len(args) > 1 {
		if o := avm2.AsArrayObject(argObject(args, 1)); o != nil {
			vals := o.Values()
			for i := range flagWords {
				if i < len(vals) {
					flagWords[i] = argInt(a, vals, i)
				}
				combined |= flagWords[i]
			}
		} else {
			f := argInt(a, args, 1)
			for i := range flagWords {
				flagWords[i] = f
			}
			combined = f
		}
	}
	cmp := func(x, y avm2.Value) (int, error) {
		xo, yo := x.AsObject(), y.AsObject()
		for i, field := range fields {
			var xv, yv avm2.Value
			if xo != nil {
				xv, _ = avm2.GetProperty(a, xo, field)
			}
			if yo != nil {
				yv, _ = avm2.GetProperty(a, yo, field)
			}
			c, err := defaultCompare(a, flagWords[i])(xv, yv)
			if err != nil {
				return 0, err
			}
			if flagWords[i]&sortDescending != 0 {
				c = -c
			}
			if c != 0 {
				return c, nil
			}
		}
		return 0, nil
	}
	// Per-field descending already applied inside cmp; mask it off the
	// combined word so sortWith does not flip the result again.
	return sortWith(a, arr, this, cmp, combined&^sortDescending)
}

func arrayToString(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return arrayJoin(a, this, nil)
}
