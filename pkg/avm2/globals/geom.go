package globals

import (
	"fmt"
	"math"

	"lantern/pkg/avm2"
)

type geomModule struct{}

func (geomModule) Name() string  { return "flash.geom" }
func (geomModule) Priority() int { return PriorityGeom }

func (geomModule) Install(a *avm2.Activation) {
	ns := flashNS("flash.geom")
	objectCls := a.Avm().ClassByName("Object")

	pointCls := avm2.NewClass("Point", ns, objectCls, 0)
	pointCls.SetNativeInit(pointInit)
	pointCls.DefineGetter(public(), "length", pointLength)
	pointCls.DefineMethod(public(), "clone", pointClone)
	pointCls.DefineMethod(public(), "add", pointAdd)
	pointCls.DefineMethod(public(), "subtract", pointSubtract)
	pointCls.DefineMethod(public(), "equals", pointEquals)
	pointCls.DefineMethod(public(), "normalize", pointNormalize)
	pointCls.DefineMethod(public(), "offset", pointOffset)
	pointCls.DefineMethod(public(), "toString", pointToString)
	if co := defineClass(a, pointCls); co != nil {
		staticFunc(a, co, "distance", pointDistance)
		staticFunc(a, co, "interpolate", pointInterpolate)
		staticFunc(a, co, "polar", pointPolar)
	}

	rectCls := avm2.NewClass("Rectangle", ns, objectCls, 0)
	rectCls.SetNativeInit(rectInit)
	rectCls.DefineGetter(public(), "left", geomRead("x"))
	rectCls.DefineGetter(public(), "top", geomRead("y"))
	rectCls.DefineGetter(public(), "right", rectEdge("x", "width"))
	rectCls.DefineGetter(public(), "bottom", rectEdge("y", "height"))
	rectCls.DefineMethod(public(), "clone", rectClone)
	rectCls.DefineMethod(public(), "isEmpty", rectIsEmpty)
	rectCls.DefineMethod(public(), "contains", rectContains)
	rectCls.DefineMethod(public(), "containsPoint", rectContainsPoint)
	rectCls.DefineMethod(public(), "intersects", rectIntersects)
	rectCls.DefineMethod(public(), "intersection", rectIntersection)
	rectCls.DefineMethod(public(), "union", rectUnion)
	rectCls.DefineMethod(public(), "toString", rectToString)
	defineClass(a, rectCls)

	matrixCls := avm2.NewClass("Matrix", ns, objectCls, 0)
	matrixCls.SetNativeInit(matrixInit)
	matrixCls.DefineMethod(public(), "identity", matrixIdentity)
	matrixCls.DefineMethod(public(), "translate", matrixTranslate)
	matrixCls.DefineMethod(public(), "scale", matrixScale)
	matrixCls.DefineMethod(public(), "rotate", matrixRotate)
	matrixCls.DefineMethod(public(), "concat", matrixConcat)
	matrixCls.DefineMethod(public(), "clone", matrixClone)
	matrixCls.DefineMethod(public(), "transformPoint", matrixTransformPoint)
	matrixCls.DefineMethod(public(), "toString", matrixToString)
	defineClass(a, matrixCls)

	ctCls := avm2.NewClass("ColorTransform", ns, objectCls, 0)
	ctCls.SetNativeInit(colorTransformInit)
	ctCls.DefineGetter(public(), "color", colorTransformGetColor)
	ctCls.DefineSetter(public(), "color", colorTransformSetColor)
	ctCls.DefineMethod(public(), "concat", colorTransformConcat)
	ctCls.DefineMethod(public(), "toString", colorTransformToString)
	defineClass(a, ctCls)
}

// staticFunc hangs a native function off a class object.
func staticFunc(a *avm2.Activation, co *avm2.ClassObject, name string, fn avm2.NativeMethod) {
	f := avm2.NewFunctionObject(a, avm2.NewNativeMethod(name, fn))
	co.SetDynamic(name, avm2.ObjectValue(f))
}

func geomNum(a *avm2.Activation, o avm2.Object, name string) float64 {
	if o == nil {
		return math.NaN()
	}
	v, ok := o.Base().GetDynamic(name)
	if !ok {
		return math.NaN()
	}
	n, err := v.CoerceToNumber(a)
	if err != nil {
		return math.NaN()
	}
	return n
}

func setGeomNum(o avm2.Object, name string, v float64) {
	if o != nil {
		o.Base().SetDynamic(name, avm2.Number(v))
	}
}

func geomRead(name string) avm2.NativeMethod {
	return func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		return avm2.Number(geomNum(a, this.AsObject(), name)), nil
	}
}

// newGeomInstance constructs a registered geometry class by name.
func newGeomInstance(a *avm2.Activation, name string, args []avm2.Value) (avm2.Value, error) {
	cls := a.Avm().ClassByName(name)
	if cls == nil || cls.ClassObject() == nil {
		return avm2.Undefined, avm2.ReferenceError("class %s is not defined", name)
	}
	obj, err := cls.ClassObject().Construct(a, args)
	if err != nil {
		return avm2.Undefined, err
	}
	return avm2.ObjectValue(obj), nil
}

func newPointValue(a *avm2.Activation, x, y float64) (avm2.Value, error) {
	return newGeomInstance(a, "Point", []avm2.Value{avm2.Number(x), avm2.Number(y)})
}

func pointInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	x, y := 0.0, 0.0
	if len(args) > 0 {
		x = argNumber(a, args, 0)
	}
	if len(args) > 1 {
		y = argNumber(a, args, 1)
	}
	setGeomNum(obj, "x", x)
	setGeomNum(obj, "y", y)
	return avm2.Undefined, nil
}

func pointLength(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	return avm2.Number(math.Hypot(geomNum(a, obj, "x"), geomNum(a, obj, "y"))), nil
}

func pointClone(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	return newPointValue(a, geomNum(a, obj, "x"), geomNum(a, obj, "y"))
}

func pointAdd(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj, other := this.AsObject(), argObject(args, 0)
	if other == nil {
		return avm2.Undefined, avm2.TypeError("add needs a Point")
	}
	return newPointValue(a, geomNum(a, obj, "x")+geomNum(a, other, "x"), geomNum(a, obj, "y")+geomNum(a, other, "y"))
}

func pointSubtract(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj, other := this.AsObject(), argObject(args, 0)
	if other == nil {
		return avm2.Undefined, avm2.TypeError("subtract needs a Point")
	}
	return newPointValue(a, geomNum(a, obj, "x")-geomNum(a, other, "x"), geomNum(a, obj, "y")-geomNum(a, other, "y"))
}

func pointEquals(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj, other := this.AsObject(), argObject(args, 0)
	if other == nil {
		return avm2.Bool(false), nil
	}
	eq := geomNum(a, obj, "x") == geomNum(a, other, "x") && geomNum(a, obj, "y") == geomNum(a, other, "y")
	return avm2.Bool(eq), nil
}

func pointNormalize(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	target := argNumber(a, args, 0)
	x, y := geomNum(a, obj, "x"), geomNum(a, obj, "y")
	current := math.Hypot(x, y)
	if current > 0 {
		scale := target / current
		setGeomNum(obj, "x", x*scale)
		setGeomNum(obj, "y", y*scale)
	}
	return avm2.Undefined, nil
}

func pointOffset(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	setGeomNum(obj, "x", geomNum(a, obj, "x")+argNumber(a, args, 0))
	setGeomNum(obj, "y", geomNum(a, obj, "y")+argNumber(a, args, 1))
	return avm2.Undefined, nil
}

func pointToString(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	x, _ := avm2.Number(geomNum(a, obj, "x")).CoerceToString(a)
	y, _ := avm2.Number(geomNum(a, obj, "y")).CoerceToString(a)
	return avm2.Str(fmt.Sprintf("(x=%s, y=%s)", x.ToUTF8(), y.ToUTF8())), nil
}

func pointDistance(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	p1, p2 := argObject(args, 0), argObject(args, 1)
	if p1 == nil || p2 == nil {
		return avm2.Number(math.NaN()), nil
	}
	return avm2.Number(math.Hypot(geomNum(a, p1, "x")-geomNum(a, p2, "x"), geomNum(a, p1, "y")-geomNum(a, p2, "y"))), nil
}

func pointInterpolate(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	p1, p2 := argObject(args, 0), argObject(args, 1)
	f := argNumber(a, args, 2)
	if p1 == nil || p2 == nil {
		return avm2.Undefined, avm2.TypeError("interpolate needs two Points")
	}
	x := geomNum(a, p2, "x") + f*(geomNum(a, p1, "x")-geomNum(a, p2, "x"))
	y := geomNum(a, p2, "y") + f*(geomNum(a, p1, "y")-geomNum(a, p2, "y"))
	return newPointValue(a, x, y)
}

func pointPolar(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	length, angle := argNumber(a, args, 0), argNumber(a, args, 1)
	return newPointValue(a, length*math.Cos(angle), length*math.Sin(angle))
}

var rectFields = []string{"x", "y", "width", "height"}

func newRectValue(a *avm2.Activation, x, y, w, h float64) (avm2.Value, error) {
	return newGeomInstance(a, "Rectangle", []avm2.Value{
		avm2.Number(x), avm2.Number(y), avm2.Number(w), avm2.Number(h),
	})
}

func rectInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	for i, n := range rectFields {
		v := 0.0
		if i < len(args) {
			v = argNumber(a, args, i)
		}
		setGeomNum(obj, n, v)
	}
	return avm2.Undefined, nil
}

func rectEdge(origin, extent string) avm2.NativeMethod {
	return func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		obj := this.AsObject()
		return avm2.Number(geomNum(a, obj, origin) + geomNum(a, obj, extent)), nil
	}
}

func rectClone(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	return newRectValue(a, geomNum(a, obj, "x"), geomNum(a, obj, "y"), geomNum(a, obj, "width"), geomNum(a, obj, "height"))
}

func rectIsEmpty(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	return avm2.Bool(geomNum(a, obj, "width") <= 0 || geomNum(a, obj, "height") <= 0), nil
}

func rectContainsXY(a *avm2.Activation, r avm2.Object, x, y float64) bool {
	rx, ry := geomNum(a, r, "x"), geomNum(a, r, "y")
	return x >= rx && x < rx+geomNum(a, r, "width") && y >= ry && y < ry+geomNum(a, r, "height")
}

func rectContains(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return avm2.Bool(rectContainsXY(a, this.AsObject(), argNumber(a, args, 0), argNumber(a, args, 1))), nil
}

func rectContainsPoint(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	p := argObject(args, 0)
	if p == nil {
		return avm2.Bool(false), nil
	}
	return avm2.Bool(rectContainsXY(a, this.AsObject(), geomNum(a, p, "x"), geomNum(a, p, "y"))), nil
}

// rectOverlap computes the shared span, empty when width or height is
// not positive.
func rectOverlap(a *avm2.Activation, r, other avm2.Object) (x0, y0, x1, y1 float64) {
	x0 = math.Max(geomNum(a, r, "x"), geomNum(a, other, "x"))
	y0 = math.Max(geomNum(a, r, "y"), geomNum(a, other, "y"))
	x1 = math.Min(geomNum(a, r, "x")+geomNum(a, r, "width"), geomNum(a, other, "x")+geomNum(a, other, "width"))
	y1 = math.Min(geomNum(a, r, "y")+geomNum(a, r, "height"), geomNum(a, other, "y")+geomNum(a, other, "height"))
	return
}

func rectIntersects(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	other := argObject(args, 0)
	if other == nil {
		return avm2.Bool(false), nil
	}
	x0, y0, x1, y1 := rectOverlap(a, this.AsObject(), other)
	return avm2.Bool(x1 > x0 && y1 > y0), nil
}

func rectIntersection(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	other := argObject(args, 0)
	if other == nil {
		return newRectValue(a, 0, 0, 0, 0)
	}
	x0, y0, x1, y1 := rectOverlap(a, this.AsObject(), other)
	if x1 <= x0 || y1 <= y0 {
		return newRectValue(a, 0, 0, 0, 0)
	}
	return newRectValue(a, x0, y0, x1-x0, y1-y0)
}

func rectUnion(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj, other := this.AsObject(), argObject(args, 0)
	if other == nil {
		return rectClone(a, this, nil)
	}
	x0 := math.Min(geomNum(a, obj, "x"), geomNum(a, other, "x"))
	y0 := math.Min(geomNum(a, obj, "y"), geomNum(a, other, "y"))
	x1 := math.Max(geomNum(a, obj, "x")+geomNum(a, obj, "width"), geomNum(a, other, "x")+geomNum(a, other, "width"))
	y1 := math.Max(geomNum(a, obj, "y")+geomNum(a, obj, "height"), geomNum(a, other, "y")+geomNum(a, other, "height"))
	return newRectValue(a, x0, y0, x1-x0, y1-y0)
}

func rectToString(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	parts := make([]string, len(rectFields))
	for i, n := range rectFields {
		s, _ := avm2.Number(geomNum(a, obj, n)).CoerceToString(a)
		parts[i] = s.ToUTF8()
	}
	return avm2.Str(fmt.Sprintf("(x=%s, y=%s, w=%s, h=%s)", parts[0], parts[1], parts[2], parts[3])), nil
}

var matrixFields = []string{"a", "b", "c", "d", "tx", "ty"}

func matrixInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	defaults := []float64{1, 0, 0, 1, 0, 0}
	for i, n := range matrixFields {
		v := defaults[i]
		if i < len(args) {
			v = argNumber(a, args, i)
		}
		setGeomNum(obj, n, v)
	}
	return avm2.Undefined, nil
}

func matrixIdentity(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return matrixInit(a, this, nil)
}

func matrixTranslate(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	setGeomNum(obj, "tx", geomNum(a, obj, "tx")+argNumber(a, args, 0))
	setGeomNum(obj, "ty", geomNum(a, obj, "ty")+argNumber(a, args, 1))
	return avm2.Undefined, nil
}

func matrixScale(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	sx, sy := argNumber(a, args, 0), argNumber(a, args, 1)
	setGeomNum(obj, "a", geomNum(a, obj, "a")*sx)
	setGeomNum(obj, "b", geomNum(a, obj, "b")*sy)
	setGeomNum(obj, "c", geomNum(a, obj, "c")*sx)
	setGeomNum(obj, "d", geomNum(a, obj, "d")*sy)
	setGeomNum(obj, "tx", geomNum(a, obj, "tx")*sx)
	setGeomNum(obj, "ty", geomNum(a, obj, "ty")*sy)
	return avm2.Undefined, nil
}

func matrixRotate(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	angle := argNumber(a, args, 0)
	sin, cos := math.Sin(angle), math.Cos(angle)
	ma, mb := geomNum(a, obj, "a"), geomNum(a, obj, "b")
	mc, md := geomNum(a, obj, "c"), geomNum(a, obj, "d")
	tx, ty := geomNum(a, obj, "tx"), geomNum(a, obj, "ty")
	setGeomNum(obj, "a", ma*cos-mb*sin)
	setGeomNum(obj, "b", ma*sin+mb*cos)
	setGeomNum(obj, "c", mc*cos-md*sin)
	setGeomNum(obj, "d", mc*sin+md*cos)
	setGeomNum(obj, "tx", tx*cos-ty*sin)
	setGeomNum(obj, "ty", tx*sin+ty*cos)
	return avm2.Undefined, nil
}

func matrixConcat(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj, other := this.AsObject(), argObject(args, 0)
	if other == nil {
		return avm2.Undefined, avm2.TypeError("concat needs a Matrix")
	}
	ma, mb := geomNum(a, obj, "a"), geomNum(a, obj, "b")
	mc, md := geomNum(a, obj, "c"), geomNum(a, obj, "d")
	tx, ty := geomNum(a, obj, "tx"), geomNum(a, obj, "ty")
	oa, ob := geomNum(a, other, "a"), geomNum(a, other, "b")
	oc, od := geomNum(a, other, "c"), geomNum(a, other, "d")
	otx, oty := geomNum(a, other, "tx"), geomNum(a, other, "ty")
	setGeomNum(obj, "a", ma*oa+mb*oc)
	setGeomNum(obj, "b", ma*ob+mb*od)
	setGeomNum(obj, "c", mc*oa+md*oc)
	setGeomNum(obj, "d", mc*ob+md*od)
	setGeomNum(obj, "tx", tx*oa+ty*oc+otx)
	setGeomNum(obj, "ty", tx*ob+ty*od+oty)
	return avm2.Undefined, nil
}

func matrixClone(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	ctorArgs := make([]avm2.Value, len(matrixFields))
	for i, n := range matrixFields {
		ctorArgs[i] = avm2.Number(geomNum(a, obj, n))
	}
	return newGeomInstance(a, "Matrix", ctorArgs)
}

func matrixTransformPoint(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj, p := this.AsObject(), argObject(args, 0)
	if p == nil {
		return avm2.Undefined, avm2.TypeError("transformPoint needs a Point")
	}
	x, y := geomNum(a, p, "x"), geomNum(a, p, "y")
	nx := geomNum(a, obj, "a")*x + geomNum(a, obj, "c")*y + geomNum(a, obj, "tx")
	ny := geomNum(a, obj, "b")*x + geomNum(a, obj, "d")*y + geomNum(a, obj, "ty")
	return newPointValue(a, nx, ny)
}

func matrixToString(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	parts := make([]string, len(matrixFields))
	for i, n := range matrixFields {
		s, _ := avm2.Number(geomNum(a, obj, n)).CoerceToString(a)
		parts[i] = fmt.Sprintf("%s=%s", n, s.ToUTF8())
	}
	return avm2.Str(fmt.Sprintf("(%s, %s, %s, %s, %s, %s)", parts[0], parts[1], parts[2], parts[3], parts[4], parts[5])), nil
}

var colorTransformFields = []string{
	"redMultiplier", "greenMultiplier", "blueMultiplier", "alphaMultiplier",
	"redOffset", "greenOffset", "blueOffset", "alphaOffset",
}

func colorTransformInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	defaults := []float64{1, 1, 1, 1, 0, 0, 0, 0}
	for i, n := range colorTransformFields {
		v := defaults[i]
		if i < len(args) {
			v = argNumber(a, args, i)
		}
		setGeomNum(obj, n, v)
	}
	return avm2.Undefined, nil
}

func colorTransformGetColor(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	r := uint32(geomNum(a, obj, "redOffset")) & 0xFF
	g := uint32(geomNum(a, obj, "greenOffset")) & 0xFF
	b := uint32(geomNum(a, obj, "blueOffset")) & 0xFF
	return avm2.Unsigned(r<<16 | g<<8 | b), nil
}

// Setting color zeroes the channel multipliers so the offset color
// shows through unscaled.
func colorTransformSetColor(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	rgb, err := arg(args, 0).CoerceToU32(a)
	if err != nil {
		return avm2.Undefined, err
	}
	rgb &= 0xFFFFFF
	setGeomNum(obj, "redMultiplier", 0)
	setGeomNum(obj, "greenMultiplier", 0)
	setGeomNum(obj, "blueMultiplier", 0)
	setGeomNum(obj, "redOffset", float64(rgb>>16&0xFF))
	setGeomNum(obj, "greenOffset", float64(rgb>>8&0xFF))
	setGeomNum(obj, "blueOffset", float64(rgb&0xFF))
	return avm2.Undefined, nil
}

func colorTransformConcat(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj, other := this.AsObject(), argObject(args, 0)
	if other == nil {
		return avm2.Undefined, avm2.TypeError("concat needs a ColorTransform")
	}
	for _, ch := range []string{"red", "green", "blue", "alpha"} {
		mulName, offName := ch+"Multiplier", ch+"Offset"
		mul := geomNum(a, obj, mulName)
		setGeomNum(obj, offName, geomNum(a, obj, offName)+mul*geomNum(a, other, offName))
		setGeomNum(obj, mulName, mul*geomNum(a, other, mulName))
	}
	return avm2.Undefined, nil
}

func colorTransformToString(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	out := "("
	for i, n := range colorTransformFields {
		if i > 0 {
			out += ", "
		}
		s, _ := avm2.Number(geomNum(a, obj, n)).CoerceToString(a)
		out += fmt.Sprintf("%s=%s", n, s.ToUTF8())
	}
	return avm2.Str(out + ")"), nil
}
