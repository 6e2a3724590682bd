package globals

import (
	"testing"

	"lantern/pkg/avm1"
)

func TestArraySortLexicalDefault(t *testing.T) {
	_, a, _ := testVM(8)
	arr := newArray(t, a, avm1.Number(10), avm1.Number(9), avm1.Number(1))

	call(t, a, arr, "sort")
	wantStrings(t, arrayStrings(t, a, arr), []string{"1", "10", "9"})
}

func TestArraySortNumeric(t *testing.T) {
	_, a, _ := testVM(8)
	arr := newArray(t, a, avm1.Number(10), avm1.Number(9), avm1.Number(1))

	call(t, a, arr, "sort", avm1.Number(sortNumeric))
	wantStrings(t, arrayStrings(t, a, arr), []string{"1", "9", "10"})

	call(t, a, arr, "sort", avm1.Number(sortNumeric|sortDescending))
	wantStrings(t, arrayStrings(t, a, arr), []string{"10", "9", "1"})
}

func TestArraySortCaseInsensitive(t *testing.T) {
	_, a, _ := testVM(8)
	arr := newArray(t, a, avm1.Str("b"), avm1.Str("A"), avm1.Str("c"))

	call(t, a, arr, "sort", avm1.Number(sortCaseInsensitive))
	wantStrings(t, arrayStrings(t, a, arr), []string{"A", "b", "c"})
}

func TestArraySortUniqueSortRejectsDuplicates(t *testing.T) {
	_, a, _ := testVM(8)
	arr := newArray(t, a, avm1.Number(3), avm1.Number(1), avm1.Number(3))

	res := call(t, a, arr, "sort", avm1.Number(sortUniqueSort|sortNumeric))
	wantNumber(t, res, 0)
	wantStrings(t, arrayStrings(t, a, arr), []string{"3", "1", "3"})
}

func TestArraySortReturnIndexedArray(t *testing.T) {
	_, a, _ := testVM(8)
	arr := newArray(t, a, avm1.Str("b"), avm1.Str("a"), avm1.Str("c"))

	res := call(t, a, arr, "sort", avm1.Number(sortReturnIndexed))
	if !res.IsObject() {
		t.Fatalf("sort returned %v", res.Kind())
	}
	wantStrings(t, arrayStrings(t, a, res.AsObject()), []string{"1", "0", "2"})
	wantStrings(t, arrayStrings(t, a, arr), []string{"b", "a", "c"})
}

func TestArraySortComparator(t *testing.T) {
	_, a, _ := testVM(8)
	arr := newArray(t, a, avm1.Number(1), avm1.Number(3), avm1.Number(2))

	cmp := avm1.NewNativeFunction(a, "cmp", func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		x := argNumber(a, args, 0)
		y := argNumber(a, args, 1)
		return avm1.Number(y - x), nil
	})

	call(t, a, arr, "sort", avm1.ObjectValue(cmp))
	wantStrings(t, arrayStrings(t, a, arr), []string{"3", "2", "1"})
}

func TestArraySortOn(t *testing.T) {
	_, a, _ := testVM(8)

	rec := func(nm string, v float64) avm1.Value {
		o := construct(t, a, "Object")
		setProp(t, a, o, "name", avm1.Str(nm))
		setProp(t, a, o, "score", avm1.Number(v))
		return avm1.ObjectValue(o)
	}
	arr := newArray(t, a, rec("b", 2), rec("a", 1), rec("c", 3))

	call(t, a, arr, "sortOn", avm1.Str("name"))
	first := getProp(t, a, arr, "0").AsObject()
	wantString(t, a, getProp(t, a, first, "name"), "a")

	call(t, a, arr, "sortOn", avm1.Str("score"), avm1.Number(sortNumeric|sortDescending))
	first = getProp(t, a, arr, "0").AsObject()
	wantString(t, a, getProp(t, a, first, "name"), "c")
}

func TestArrayPushPopShiftUnshift(t *testing.T) {
	_, a, _ := testVM(8)
	arr := newArray(t, a, avm1.Str("b"))

	res := call(t, a, arr, "push", avm1.Str("c"))
	wantNumber(t, res, 2)
	call(t, a, arr, "unshift", avm1.Str("a"))
	wantStrings(t, arrayStrings(t, a, arr), []string{"a", "b", "c"})

	wantString(t, a, call(t, a, arr, "pop"), "c")
	wantString(t, a, call(t, a, arr, "shift"), "a")
	wantStrings(t, arrayStrings(t, a, arr), []string{"b"})
}

func TestArraySliceNegativeIndices(t *testing.T) {
	_, a, _ := testVM(8)
	arr := newArray(t, a, avm1.Str("a"), avm1.Str("b"), avm1.Str("c"), avm1.Str("d"))

	res := call(t, a, arr, "slice", avm1.Number(-3), avm1.Number(-1))
	wantStrings(t, arrayStrings(t, a, res.AsObject()), []string{"b", "c"})
	wantStrings(t, arrayStrings(t, a, arr), []string{"a", "b", "c", "d"})
}

func TestArraySplice(t *testing.T) {
	_, a, _ := testVM(8)
	arr := newArray(t, a, avm1.Str("a"), avm1.Str("b"), avm1.Str("c"), avm1.Str("d"))

	removed := call(t, a, arr, "splice", avm1.Number(1), avm1.Number(2), avm1.Str("x"))
	wantStrings(t, arrayStrings(t, a, removed.AsObject()), []string{"b", "c"})
	wantStrings(t, arrayStrings(t, a, arr), []string{"a", "x", "d"})
}

func TestArrayConcatFlattensArrays(t *testing.T) {
	_, a, _ := testVM(8)
	arr := newArray(t, a, avm1.Str("a"))
	other := newArray(t, a, avm1.Str("b"), avm1.Str("c"))

	res := call(t, a, arr, "concat", avm1.ObjectValue(other), avm1.Str("d"))
	wantStrings(t, arrayStrings(t, a, res.AsObject()), []string{"a", "b", "c", "d"})
}

func TestArrayJoinRendersHolesEmpty(t *testing.T) {
	_, a, _ := testVM(8)
	arr := newArray(t, a, avm1.Str("a"), avm1.Undefined, avm1.Null, avm1.Str("b"))

	wantString(t, a, call(t, a, arr, "join", avm1.Str("-")), "a---b")
}

func TestArrayReverse(t *testing.T) {
	_, a, _ := testVM(8)
	arr := newArray(t, a, avm1.Str("a"), avm1.Str("b"), avm1.Str("c"))

	call(t, a, arr, "reverse")
	wantStrings(t, arrayStrings(t, a, arr), []string{"c", "b", "a"})
}

func TestArrayConstructorLength(t *testing.T) {
	_, a, _ := testVM(8)
	arr := construct(t, a, "Array", avm1.Number(3))

	wantNumber(t, getProp(t, a, arr, "length"), 3)
	if v := getProp(t, a, arr, "0"); !v.IsUndefined() {
		t.Fatalf("element 0 = %v, want undefined", v.Kind())
	}
}
