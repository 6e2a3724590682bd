package avm1

import (
	"lantern/pkg/gc"
	"lantern/pkg/wstr"
)

// ArrayObject adds the magical length property over the plain property
// table. Elements live as ordinary index-named properties; the length
// grows on out-of-range writes and truncation deletes the dropped
// indices.
type ArrayObject struct {
	*ScriptObject
	length *gc.Cell[int]
}

// NewArrayObject builds an array holding the given elements.
func NewArrayObject(a *Activation, elements []Value) *ArrayObject {
	proto := a.Avm().prototypes.Array
	var protoVal Value
	if proto != nil {
		protoVal = ObjectValue(proto)
	} else {
		protoVal = ObjectValue(a.Avm().prototypes.Object)
	}
	arr := &ArrayObject{
		ScriptObject: NewScriptObject(a, protoVal),
		length:       gc.NewCell(a.Arena(), 0),
	}
	for i, v := range elements {
		arr.ScriptObject.DefineValue(indexName(i), v, 0)
	}
	arr.length.Set(len(elements))
	return arr
}

func indexName(i int) string { return wstr.I32ToString(int32(i)).ToUTF8() }

func (arr *ArrayObject) nameIsLength(a *Activation, name wstr.WStr) bool {
	lengthName := wstr.FromUTF8("length")
	if a.IsCaseSensitive() {
		return name.Eq(lengthName)
	}
	return name.EqIgnoreCase(lengthName)
}

func (arr *ArrayObject) GetLocalStored(a *Activation, name wstr.WStr) (Value, bool) {
	if arr.nameIsLength(a, name) {
		return Number(float64(arr.length.Get())), true
	}
	return arr.ScriptObject.GetLocalStored(a, name)
}

func (arr *ArrayObject) SetLocal(a *Activation, name wstr.WStr, v Value, this Object) error {
	if arr.nameIsLength(a, name) {
		arr.SetLength(a, int(v.CoerceToI32(a)))
		return nil
	}
	if idx, ok := ParseArrayIndex(name); ok {
		err := arr.ScriptObject.SetLocal(a, wstr.FromUTF8(indexName(idx)), v, this)
		if idx >= arr.length.Get() {
			arr.length.Set(idx + 1)
		}
		return err
	}
	return arr.ScriptObject.SetLocal(a, name, v, this)
}

func (arr *ArrayObject) DeleteLocal(a *Activation, name wstr.WStr) bool {
	if arr.nameIsLength(a, name) {
		return false
	}
	return arr.ScriptObject.DeleteLocal(a, name)
}

func (arr *ArrayObject) NativeData() any { return arr }

func (arr *ArrayObject) Trace(t *gc.Tracer) {
	arr.ScriptObject.Trace(t)
}

// Length returns the magical length.
func (arr *ArrayObject) Length() int { return arr.length.Get() }

// SetLength resizes; shrinking deletes the truncated indices.
func (arr *ArrayObject) SetLength(a *Activation, n int) {
	if n < 0 {
		n = 0
	}
	old := arr.length.Get()
	for i := n; i < old; i++ {
		arr.ScriptObject.DeleteLocal(a, wstr.FromUTF8(indexName(i)))
	}
	arr.length.Set(n)
}

// Element reads index i through the property protocol.
func (arr *ArrayObject) Element(a *Activation, i int) Value {
	v, err := Get(a, arr, wstr.FromUTF8(indexName(i)))
	if err != nil {
		return Undefined
	}
	return v
}

// SetElement writes index i, growing length as needed.
func (arr *ArrayObject) SetElement(a *Activation, i int, v Value) error {
	return Set(a, arr, wstr.FromUTF8(indexName(i)), v)
}

// HasElement reports a stored element at i.
func (arr *ArrayObject) HasElement(a *Activation, i int) bool {
	return HasOwnProperty(a, arr, wstr.FromUTF8(indexName(i)))
}

// DeleteElement removes index i without changing length.
func (arr *ArrayObject) DeleteElement(a *Activation, i int) bool {
	return arr.ScriptObject.DeleteLocal(a, wstr.FromUTF8(indexName(i)))
}

// asArray downcasts.
func asArray(o Object) *ArrayObject {
	arr, _ := o.(*ArrayObject)
	return arr
}

// AsArray is the exported downcast for the builtin library.
func AsArray(o Object) *ArrayObject { return asArray(o) }

// Generic element protocol over arbitrary objects: arrays answer
// directly, everything else goes through length/index properties.

// LengthOf reads the length property as an i32.
func LengthOf(a *Activation, o Object) int {
	if arr := asArray(o); arr != nil {
		return arr.Length()
	}
	v, err := Get(a, o, wstr.FromUTF8("length"))
	if err != nil {
		return 0
	}
	return int(v.CoerceToI32(a))
}

// ElementOf reads o[i].
func ElementOf(a *Activation, o Object, i int) Value {
	v, err := Get(a, o, wstr.FromUTF8(indexName(i)))
	if err != nil {
		return Undefined
	}
	return v
}

// SetElementOf writes o[i].
func SetElementOf(a *Activation, o Object, i int, v Value) error {
	return Set(a, o, wstr.FromUTF8(indexName(i)), v)
}
