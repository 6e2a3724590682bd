package globals

import (
	"math"
	"sort"

	"lantern/pkg/avm1"
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

func (arrayModule) Install(a *avm1.Activation) {
	ctor, proto := defineClass(a, "Array", arrayConstructor)
	a.Avm().ProtoFor().Array = proto

	constant(ctor, "CASEINSENSITIVE", avm1.Number(sortCaseInsensitive))
	constant(ctor, "DESCENDING", avm1.Number(sortDescending))
	constant(ctor, "UNIQUESORT", avm1.Number(sortUniqueSort))
	constant(ctor, "RETURNINDEXEDARRAY", avm1.Number(sortReturnIndexed))
	constant(ctor, "NUMERIC", avm1.Number(sortNumeric))

	method(a, proto, "push", arrayPush)
	method(a, proto, "pop", arrayPop)
	method(a, proto, "shift", arrayShift)
	method(a, proto, "unshift", arrayUnshift)
	method(a, proto, "slice", arraySlice)
	method(a, proto, "splice", arraySplice)
	method(a, proto, "concat", arrayConcat)
	method(a, proto, "join", arrayJoin)
	method(a, proto, "reverse", arrayReverse)
	method(a, proto, "sort", arraySort)
	method(a, proto, "sortOn", arraySortOn)
	method(a, proto, "toString", arrayToString)
}

func arrayConstructor(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if len(args) == 1 && args[0].IsNumber() {
		arr := avm1.NewArrayObject(a, nil)
		n := args[0].CoerceToF64(a)
		if n >= 0 && !math.IsInf(n, 0) && !math.IsNaN(n) {
			arr.SetLength(a, int(n))
		}
		return avm1.ObjectValue(arr), nil
	}
	return avm1.ObjectValue(avm1.NewArrayObject(a, args)), nil
}

func arrayElements(a *avm1.Activation, o avm1.Object) []avm1.Value {
	n := avm1.LengthOf(a, o)
	out := make([]avm1.Value, n)
	for i := 0; i < n; i++ {
		out[i] = avm1.ElementOf(a, o, i)
	}
	return out
}

func arrayPush(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	n := avm1.LengthOf(a, this)
	for i, v := range args {
		if err := avm1.SetElementOf(a, this, n+i, v); err != nil {
			return avm1.Undefined, err
		}
	}
	return avm1.Number(float64(n + len(args))), nil
}

func arrayPop(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	n := avm1.LengthOf(a, this)
	if n == 0 {
		return avm1.Undefined, nil
	}
	last := avm1.ElementOf(a, this, n-1)
	if arr := avm1.AsArray(this); arr != nil {
		arr.SetLength(a, n-1)
	} else {
		avm1.Delete(a, this, wstr.I32ToString(int32(n-1)))
		avm1.Set(a, this, wstr.FromUTF8("length"), avm1.Number(float64(n-1)))
	}
	return last, nil
}

func arrayShift(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	n := avm1.LengthOf(a, this)
	if n == 0 {
		return avm1.Undefined, nil
	}
	first := avm1.ElementOf(a, this, 0)
	for i := 1; i < n; i++ {
		avm1.SetElementOf(a, this, i-1, avm1.ElementOf(a, this, i))
	}
	if arr := avm1.AsArray(this); arr != nil {
		arr.SetLength(a, n-1)
	} else {
		avm1.Delete(a, this, wstr.I32ToString(int32(n-1)))
		avm1.Set(a, this, wstr.FromUTF8("length"), avm1.Number(float64(n-1)))
	}
	return first, nil
}

func arrayUnshift(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	n := avm1.LengthOf(a, this)
	for i := n - 1; i >= 0; i-- {
		avm1.SetElementOf(a, this, i+len(args), avm1.ElementOf(a, this, i))
	}
	for i, v := range args {
		avm1.SetElementOf(a, this, i, v)
	}
	return avm1.Number(float64(n + len(args))), nil
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

func arraySlice(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	n := avm1.LengthOf(a, this)
	start := 0
	end := n
	if len(args) > 0 {
		start = resolveIndex(argNumber(a, args, 0), n)
	}
	if len(args) > 1 && !args[1].IsUndefined() {
		end = resolveIndex(argNumber(a, args, 1), n)
	}
	var out []avm1.Value
	for i := start; i < end; i++ {
		out = append(out, avm1.ElementOf(a, this, i))
	}
	return avm1.ObjectValue(avm1.NewArrayObject(a, out)), nil
}

func arraySplice(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil || len(args) == 0 {
		return avm1.Undefined, nil
	}
	n := avm1.LengthOf(a, this)
	start := resolveIndex(argNumber(a, args, 0), n)
	removeCount := n - start
	if len(args) > 1 {
		rc := argInt(a, args, 1)
		if rc < 0 {
			rc = 0
		}
		if rc < removeCount {
			removeCount = rc
		}
	}
	removed := make([]avm1.Value, removeCount)
	for i := 0; i < removeCount; i++ {
		removed[i] = avm1.ElementOf(a, this, start+i)
	}
	var inserted []avm1.Value
	if len(args) > 2 {
		inserted = args[2:]
	}
	tail := arrayElements(a, this)[start+removeCount:]
	i := start
	for _, v := range inserted {
		avm1.SetElementOf(a, this, i, v)
		i++
	}
	for _, v := range tail {
		avm1.SetElementOf(a, this, i, v)
		i++
	}
	if arr := avm1.AsArray(this); arr != nil {
		arr.SetLength(a, i)
	} else {
		avm1.Set(a, this, wstr.FromUTF8("length"), avm1.Number(float64(i)))
	}
	return avm1.ObjectValue(avm1.NewArrayObject(a, removed)), nil
}

func arrayConcat(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	out := arrayElements(a, this)
	for _, v := range args {
		if o := v.AsObject(); o != nil && avm1.AsArray(o) != nil {
			out = append(out, arrayElements(a, o)...)
		} else {
			out = append(out, v)
		}
	}
	return avm1.ObjectValue(avm1.NewArrayObject(a, out)), nil
}

func arrayJoin(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Str(""), nil
	}
	sep := wstr.FromUTF8(",")
	if len(args) > 0 && !args[0].IsUndefined() {
		sep = argString(a, args, 0)
	}
	n := avm1.LengthOf(a, this)
	var out wstr.WStr
	for i := 0; i < n; i++ {
		if i > 0 {
			out = wstr.Concat(out, sep)
		}
		v := avm1.ElementOf(a, this, i)
		if !v.IsUndefined() && !v.IsNull() {
			out = wstr.Concat(out, v.CoerceToString(a))
		}
	}
	return avm1.String(out), nil
}

func arrayReverse(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	elems := arrayElements(a, this)
	for i, j := 0, len(elems)-1; i < j; i, j = i+1, j-1 {
		elems[i], elems[j] = elems[j], elems[i]
	}
	for i, v := range elems {
		avm1.SetElementOf(a, this, i, v)
	}
	return avm1.ObjectValue(this), nil
}

func arrayToString(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return arrayJoin(a, this, nil)
}

// compareFn orders two elements; zero means equal for UNIQUESORT.
type compareFn func(x, y avm1.Value) (int, error)

func defaultCompare(a *avm1.Activation, flags int) compareFn {
	return func(x, y avm1.Value) (int, error) {
		if flags&sortNumeric != 0 {
			fx, fy := x.CoerceToF64(a), y.CoerceToF64(a)
			switch {
			case fx < fy:
				return -1, nil
			case fx > fy:
				return 1, nil
			}
			return 0, nil
		}
		sx, sy := x.CoerceToString(a), y.CoerceToString(a)
		if flags&sortCaseInsensitive != 0 {
			return sx.CompareIgnoreCase(sy), nil
		}
		return sx.Compare(sy), nil
	}
}

func customCompare(a *avm1.Activation, fn avm1.Object) compareFn {
	return func(x, y avm1.Value) (int, error) {
		r, err := fn.Call(a, avm1.Undefined, []avm1.Value{x, y})
		if err != nil {
			return 0, err
		}
		f := r.CoerceToF64(a)
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
func sortWith(a *avm1.Activation, this avm1.Object, cmp compareFn, flags int) (avm1.Value, error) {
	elems := arrayElements(a, this)
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
		return avm1.Undefined, sortErr
	}
	if flags&sortUniqueSort != 0 {
		for i := 1; i < len(order); i++ {
			c, err := cmp(elems[order[i-1]], elems[order[i]])
			if err != nil {
				return avm1.Undefined, err
			}
			if c == 0 {
				return avm1.Number(0), nil
			}
		}
	}
	if flags&sortReturnIndexed != 0 {
		indexed := make([]avm1.Value, len(order))
		for i, idx := range order {
			indexed[i] = avm1.Number(float64(idx))
		}
		return avm1.ObjectValue(avm1.NewArrayObject(a, indexed)), nil
	}
	for i, idx := range order {
		avm1.SetElementOf(a, this, i, elems[idx])
	}
	return avm1.ObjectValue(this), nil
}

func arraySort(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	flags := 0
	var cmp compareFn
	switch {
	case len(args) > 0 && args[0].IsObject():
		cmp = customCompare(a, args[0].AsObject())
		flags = argInt(a, args, 1)
	case len(args) > 0 && args[0].IsNumber():
		flags = argInt(a, args, 0)
	}
	if cmp == nil {
		cmp = defaultCompare(a, flags)
	}
	return sortWith(a, this, cmp, flags)
}

func arraySortOn(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil || len(args) == 0 {
		return avm1.Undefined, nil
	}
	var fields []wstr.WStr
	if o := argObject(args, 0); o != nil && avm1.AsArray(o) != nil {
		for _, v := range arrayElements(a, o) {
			fields = append(fields, v.CoerceToString(a))
		}
	} else {
		fields = []wstr.WStr{argString(a, args, 0)}
	}
	// One option word per field, or a single word applied to all.
	flagWords := make([]int, len(fields))
	combined := 0
	if len(args) > 1 {
		if o := argObject(args, 1); o != nil && avm1.AsArray(o) != nil {
			for i := range flagWords {
				flagWords[i] = int(avm1.ElementOf(a, o, i).CoerceToI32(a))
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
	cmp := func(x, y avm1.Value) (int, error) {
		xo, yo := x.AsObject(), y.AsObject()
		for i, field := range fields {
			var xv, yv avm1.Value
			if xo != nil {
				xv, _ = avm1.Get(a, xo, field)
			}
			if yo != nil {
				yv, _ = avm1.Get(a, yo, field)
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
	return sortWith(a, this, cmp, combined&^sortDescending)
}
