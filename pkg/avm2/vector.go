package avm2

import (
	"math"

	"lantern/pkg/abc"
	"lantern/pkg/gc"
)

// VectorData is the native payload of a Vector.<T> instance: dense
// typed storage with an optional fixed length.
type VectorData struct {
	elemType *Class // nil means Vector.<*>
	values   []Value
	fixed    bool
}

// NewVectorData builds empty storage for an element type.
func NewVectorData(elemType *Class, length int, fixed bool) *VectorData {
	vd := &VectorData{elemType: elemType, fixed: fixed}
	if length > 0 {
		vd.values = make([]Value, length)
		for i := range vd.values {
			vd.values[i] = defaultForClass(elemType)
		}
	}
	return vd
}

func defaultForClass(cls *Class) Value {
	if cls == nil {
		return Undefined
	}
	switch cls.name {
	case "int":
		return Integer(0)
	case "uint":
		return Unsigned(0)
	case "Number":
		return Number(math.NaN())
	case "Boolean":
		return Bool(false)
	case "String":
		return Null
	}
	return Null
}

// ElemType returns the element class, nil for the any-typed vector.
func (vd *VectorData) ElemType() *Class { return vd.elemType }

// Fixed reports whether the length is locked.
func (vd *VectorData) Fixed() bool { return vd.fixed }

// SetFixed locks or unlocks the length.
func (vd *VectorData) SetFixed(f bool) { vd.fixed = f }

// Length returns the element count.
func (vd *VectorData) Length() int { return len(vd.values) }

// SetLength grows with type defaults or truncates; fixed vectors
// refuse.
func (vd *VectorData) SetLength(n int) *Error {
	if vd.fixed {
		return RangeError("cannot resize a fixed vector")
	}
	if n < 0 {
		return RangeError("invalid vector length")
	}
	for len(vd.values) < n {
		vd.values = append(vd.values, defaultForClass(vd.elemType))
	}
	vd.values = vd.values[:n]
	return nil
}

// Get reads an element; out-of-range raises a range error per the
// published vector semantics, unlike the forgiving array.
func (vd *VectorData) Get(i int) (Value, *Error) {
	if i < 0 || i >= len(vd.values) {
		return Undefined, RangeError("vector index %d out of range %d", i, len(vd.values))
	}
	return vd.values[i], nil
}

// coerceElem applies the element type to an incoming value.
func (vd *VectorData) coerceElem(a *Activation, v Value) (Value, *Error) {
	if vd.elemType == nil {
		return v, nil
	}
	out, err := coerceToType(a, v, PublicName(vd.elemType.name))
	if err != nil {
		return Undefined, asVMError(err)
	}
	return out, nil
}

// Set writes an element. Writing one past the end appends; anything
// further is a range error, and fixed vectors never grow.
func (vd *VectorData) Set(a *Activation, i int, v Value) *Error {
	cv, err := vd.coerceElem(a, v)
	if err != nil {
		return err
	}
	switch {
	case i >= 0 && i < len(vd.values):
		vd.values[i] = cv
	case i == len(vd.values) && !vd.fixed:
		vd.values = append(vd.values, cv)
	default:
		return RangeError("vector index %d out of range %d", i, len(vd.values))
	}
	return nil
}

// Push appends values; fixed vectors refuse.
func (vd *VectorData) Push(a *Activation, vs []Value) (int, *Error) {
	if vd.fixed {
		return len(vd.values), RangeError("cannot resize a fixed vector")
	}
	for _, v := range vs {
		cv, err := vd.coerceElem(a, v)
		if err != nil {
			return len(vd.values), err
		}
		vd.values = append(vd.values, cv)
	}
	return len(vd.values), nil
}

// Pop removes and returns the last element.
func (vd *VectorData) Pop() (Value, *Error) {
	if vd.fixed {
		return Undefined, RangeError("cannot resize a fixed vector")
	}
	if len(vd.values) == 0 {
		return Undefined, nil
	}
	v := vd.values[len(vd.values)-1]
	vd.values = vd.values[:len(vd.values)-1]
	return v, nil
}

// Values exposes the backing slice for iteration helpers.
func (vd *VectorData) Values() []Value { return vd.values }

// VectorObject pairs the shared object layout with typed storage.
type VectorObject struct {
	*ScriptObject
	data *VectorData
}

// NewVectorObject builds an instance of a specialized vector class.
func NewVectorObject(a *Activation, cls *Class, proto Value, data *VectorData) *VectorObject {
	vo := &VectorObject{
		ScriptObject: NewScriptObject(a, cls, proto),
		data:         data,
	}
	vo.ScriptObject.native = data
	return vo
}

func (vo *VectorObject) Trace(t *gc.Tracer) {
	vo.ScriptObject.Trace(t)
	for _, v := range vo.data.values {
		traceValue(t, v)
	}
}

// Data returns the typed storage.
func (vo *VectorObject) Data() *VectorData { return vo.data }

func (vo *VectorObject) GetIndex(a *Activation, i int) (Value, bool) {
	if i < 0 || i >= len(vo.data.values) {
		return Undefined, false
	}
	return vo.data.values[i], true
}

func (vo *VectorObject) SetIndex(a *Activation, i int, v Value) (bool, error) {
	if err := vo.data.Set(a, i, v); err != nil {
		return true, err
	}
	return true, nil
}

func (vo *VectorObject) DeleteIndex(a *Activation, i int) (bool, bool) {
	// Vectors have no holes; delete is accepted and ignored.
	return true, false
}

func (vo *VectorObject) HasIndex(i int) bool {
	return i >= 0 && i < len(vo.data.values)
}

func (vo *VectorObject) EnumNext(a *Activation, i int) int {
	if i < len(vo.data.values) {
		return i + 1
	}
	return 0
}

func (vo *VectorObject) EnumName(a *Activation, i int) Value {
	if i >= 1 && i <= len(vo.data.values) {
		return Integer(int32(i - 1))
	}
	return Undefined
}

func (vo *VectorObject) EnumValue(a *Activation, i int) (Value, error) {
	if i >= 1 && i <= len(vo.data.values) {
		return vo.data.values[i-1], nil
	}
	return Undefined, nil
}

// AsVectorData is the exported downcast for the globals packages.
func AsVectorData(o Object) *VectorData { return asVector(o) }

// asVector downcasts through the native payload, so both the concrete
// variant and plain objects carrying vector data qualify.
func asVector(o Object) *VectorData {
	if o == nil {
		return nil
	}
	vd, _ := o.NativeData().(*VectorData)
	return vd
}

// applyVectorType specializes Vector for one element type, caching the
// specialization on the registry so repeated applications are
// identical.
func applyVectorType(a *Activation, base *ClassObject, param Value) (Value, error) {
	avm := a.Avm()
	var elemType *Class
	elemName := "*"
	if !param.IsNullish() {
		co := asClassObject(param.AsObject())
		if co == nil {
			return Undefined, typeError("Vector type parameter is not a class")
		}
		elemType = co.class
		elemName = elemType.QualifiedName()
	}
	name := "Vector.<" + elemName + ">"
	if cls := avm.classes[name]; cls != nil && cls.classObject != nil {
		return ObjectValue(cls.classObject), nil
	}

	spec := NewClass(name, NewPublicNamespace(), base.class, abc.InstanceSealed|abc.InstanceFinal)
	captured := elemType
	spec.SetAllocator(func(a *Activation, cls *Class, proto Value) (Object, error) {
		return NewVectorObject(a, cls, proto, NewVectorData(captured, 0, false)), nil
	})
	spec.SetNativeInit(func(a *Activation, this Value, args []Value) (Value, error) {
		vd := asVector(this.AsObject())
		if vd == nil {
			return Undefined, nil
		}
		length := 0
		if len(args) > 0 {
			n, err := args[0].CoerceToI32(a)
			if err != nil {
				return Undefined, err
			}
			length = int(n)
		}
		if len(args) > 1 {
			vd.fixed = args[1].CoerceToBoolean()
		}
		if length > 0 {
			fixed := vd.fixed
			vd.fixed = false
			if err := vd.SetLength(length); err != nil {
				return Undefined, err
			}
			vd.fixed = fixed
		}
		return Undefined, nil
	})
	spec.SetCallHandler(func(a *Activation, this Value, args []Value) (Value, error) {
		// Vector.<T>(x) converts an iterable into a fresh vector.
		if len(args) == 0 {
			return Undefined, typeError("vector conversion needs an argument")
		}
		src := args[0]
		if vd := asVector(src.AsObject()); vd != nil && vd.elemType == captured {
			return src, nil
		}
		out := NewVectorData(captured, 0, false)
		if arr := asArray(src.AsObject()); arr != nil {
			if _, err := out.Push(a, arr.Values()); err != nil {
				return Undefined, err
			}
		} else if vd := asVector(src.AsObject()); vd != nil {
			if _, err := out.Push(a, vd.values); err != nil {
				return Undefined, err
			}
		} else {
			return Undefined, typeError("cannot convert value to %s", name)
		}
		cls := avm.classes[name]
		return ObjectValue(NewVectorObject(a, cls, ObjectValue(cls.classObject.prototype), out)), nil
	})

	co, err := avm.RegisterClass(a, spec)
	if err != nil {
		return Undefined, err
	}
	return ObjectValue(co), nil
}
