package globals

import (
	"fmt"
	"math"

	"lantern/pkg/avm1"
	"lantern/pkg/wstr"
)

type geomModule struct{}

func (geomModule) Name() string  { return "Geom" }
func (geomModule) Priority() int { return PriorityGeom }

func (geomModule) Install(a *avm1.Activation) {
	installPoint(a)
	installRectangle(a)
	installColorTransform(a)
}

func numProp(a *avm1.Activation, o avm1.Object, name string) float64 {
	v, err := avm1.Get(a, o, wstr.FromUTF8(name))
	if err != nil {
		return math.NaN()
	}
	return v.CoerceToF64(a)
}

func setNumProp(a *avm1.Activation, o avm1.Object, name string, v float64) {
	avm1.Set(a, o, wstr.FromUTF8(name), avm1.Number(v))
}

func installPoint(a *avm1.Activation) {
	ctor, proto := defineClass(a, "Point", pointConstructor)

	method(a, ctor, "distance", pointDistance)
	method(a, ctor, "interpolate", pointInterpolate)
	method(a, ctor, "polar", pointPolar)

	virtual(a, proto, "length", pointLength, nil)
	method(a, proto, "clone", pointClone)
	method(a, proto, "add", pointAdd)
	method(a, proto, "subtract", pointSubtract)
	method(a, proto, "equals", pointEquals)
	method(a, proto, "normalize", pointNormalize)
	method(a, proto, "offset", pointOffset)
	method(a, proto, "toString", pointToString)
}

func newPoint(a *avm1.Activation, x, y float64) (avm1.Value, error) {
	ctorVal, err := avm1.Get(a, a.Avm().Globals(), a.Intern("Point"))
	if err != nil || !ctorVal.IsObject() {
		return avm1.Undefined, err
	}
	return ctorVal.AsObject().Construct(a, []avm1.Value{avm1.Number(x), avm1.Number(y)})
}

func pointConstructor(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	x, y := 0.0, 0.0
	if len(args) > 0 {
		x = argNumber(a, args, 0)
	}
	if len(args) > 1 {
		y = argNumber(a, args, 1)
	}
	setNumProp(a, this, "x", x)
	setNumProp(a, this, "y", y)
	return avm1.Undefined, nil
}

func pointLength(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return avm1.Number(math.Hypot(numProp(a, this, "x"), numProp(a, this, "y"))), nil
}

func pointClone(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return newPoint(a, numProp(a, this, "x"), numProp(a, this, "y"))
}

func pointAdd(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	other := argObject(args, 0)
	if other == nil {
		return avm1.Undefined, nil
	}
	return newPoint(a, numProp(a, this, "x")+numProp(a, other, "x"), numProp(a, this, "y")+numProp(a, other, "y"))
}

func pointSubtract(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	other := argObject(args, 0)
	if other == nil {
		return avm1.Undefined, nil
	}
	return newPoint(a, numProp(a, this, "x")-numProp(a, other, "x"), numProp(a, this, "y")-numProp(a, other, "y"))
}

func pointEquals(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	other := argObject(args, 0)
	if other == nil {
		return avm1.Bool(false), nil
	}
	eq := numProp(a, this, "x") == numProp(a, other, "x") && numProp(a, this, "y") == numProp(a, other, "y")
	return avm1.Bool(eq), nil
}

func pointNormalize(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	target := argNumber(a, args, 0)
	x, y := numProp(a, this, "x"), numProp(a, this, "y")
	current := math.Hypot(x, y)
	if current > 0 {
		scale := target / current
		setNumProp(a, this, "x", x*scale)
		setNumProp(a, this, "y", y*scale)
	}
	return avm1.Undefined, nil
}

func pointOffset(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	setNumProp(a, this, "x", numProp(a, this, "x")+argNumber(a, args, 0))
	setNumProp(a, this, "y", numProp(a, this, "y")+argNumber(a, args, 1))
	return avm1.Undefined, nil
}

func pointToString(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	x := avm1.Number(numProp(a, this, "x")).CoerceToString(a)
	y := avm1.Number(numProp(a, this, "y")).CoerceToString(a)
	return avm1.Str(fmt.Sprintf("(x=%s, y=%s)", x.ToUTF8(), y.ToUTF8())), nil
}

func pointDistance(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	p1, p2 := argObject(args, 0), argObject(args, 1)
	if p1 == nil || p2 == nil {
		return avm1.Number(math.NaN()), nil
	}
	return avm1.Number(math.Hypot(numProp(a, p1, "x")-numProp(a, p2, "x"), numProp(a, p1, "y")-numProp(a, p2, "y"))), nil
}

func pointInterpolate(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	p1, p2 := argObject(args, 0), argObject(args, 1)
	f := argNumber(a, args, 2)
	if p1 == nil || p2 == nil {
		return avm1.Undefined, nil
	}
	x := numProp(a, p2, "x") + f*(numProp(a, p1, "x")-numProp(a, p2, "x"))
	y := numProp(a, p2, "y") + f*(numProp(a, p1, "y")-numProp(a, p2, "y"))
	return newPoint(a, x, y)
}

func pointPolar(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	length, angle := argNumber(a, args, 0), argNumber(a, args, 1)
	return newPoint(a, length*math.Cos(angle), length*math.Sin(angle))
}

func installRectangle(a *avm1.Activation) {
	_, proto := defineClass(a, "Rectangle", rectangleConstructor)

	virtual(a, proto, "left", rectGet("x"), nil)
	virtual(a, proto, "top", rectGet("y"), nil)
	virtual(a, proto, "right", rectEdge("x", "width"), nil)
	virtual(a, proto, "bottom", rectEdge("y", "height"), nil)
	method(a, proto, "clone", rectClone)
	method(a, proto, "isEmpty", rectIsEmpty)
	method(a, proto, "contains", rectContains)
	method(a, proto, "containsPoint", rectContainsPoint)
	method(a, proto, "intersects", rectIntersects)
	method(a, proto, "intersection", rectIntersection)
	method(a, proto, "union", rectUnion)
	method(a, proto, "toString", rectToString)
}

func newRectangle(a *avm1.Activation, x, y, w, h float64) (avm1.Value, error) {
	ctorVal, err := avm1.Get(a, a.Avm().Globals(), a.Intern("Rectangle"))
	if err != nil || !ctorVal.IsObject() {
		return avm1.Undefined, err
	}
	return ctorVal.AsObject().Construct(a, []avm1.Value{avm1.Number(x), avm1.Number(y), avm1.Number(w), avm1.Number(h)})
}

func rectangleConstructor(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	names := []string{"x", "y", "width", "height"}
	for i, n := range names {
		v := 0.0
		if i < len(args) {
			v = argNumber(a, args, i)
		}
		setNumProp(a, this, n, v)
	}
	return avm1.Undefined, nil
}

func rectGet(name string) avm1.NativeFunction {
	return func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		return avm1.Number(numProp(a, this, name)), nil
	}
}

func rectEdge(origin, extent string) avm1.NativeFunction {
	return func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		return avm1.Number(numProp(a, this, origin) + numProp(a, this, extent)), nil
	}
}

func rectClone(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return newRectangle(a, numProp(a, this, "x"), numProp(a, this, "y"), numProp(a, this, "width"), numProp(a, this, "height"))
}

func rectIsEmpty(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return avm1.Bool(numProp(a, this, "width") <= 0 || numProp(a, this, "height") <= 0), nil
}

func rectContains(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	x, y := argNumber(a, args, 0), argNumber(a, args, 1)
	return avm1.Bool(rectContainsXY(a, this, x, y)), nil
}

func rectContainsXY(a *avm1.Activation, r avm1.Object, x, y float64) bool {
	rx, ry := numProp(a, r, "x"), numProp(a, r, "y")
	return x >= rx && x < rx+numProp(a, r, "width") && y >= ry && y < ry+numProp(a, r, "height")
}

func rectContainsPoint(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	p := argObject(args, 0)
	if p == nil {
		return avm1.Bool(false), nil
	}
	return avm1.Bool(rectContainsXY(a, this, numProp(a, p, "x"), numProp(a, p, "y"))), nil
}

func rectIntersects(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	other := argObject(args, 0)
	if other == nil {
		return avm1.Bool(false), nil
	}
	x0 := math.Max(numProp(a, this, "x"), numProp(a, other, "x"))
	y0 := math.Max(numProp(a, this, "y"), numProp(a, other, "y"))
	x1 := math.Min(numProp(a, this, "x")+numProp(a, this, "width"), numProp(a, other, "x")+numProp(a, other, "width"))
	y1 := math.Min(numProp(a, this, "y")+numProp(a, this, "height"), numProp(a, other, "y")+numProp(a, other, "height"))
	return avm1.Bool(x1 > x0 && y1 > y0), nil
}

func rectIntersection(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	other := argObject(args, 0)
	if other == nil {
		return newRectangle(a, 0, 0, 0, 0)
	}
	x0 := math.Max(numProp(a, this, "x"), numProp(a, other, "x"))
	y0 := math.Max(numProp(a, this, "y"), numProp(a, other, "y"))
	x1 := math.Min(numProp(a, this, "x")+numProp(a, this, "width"), numProp(a, other, "x")+numProp(a, other, "width"))
	y1 := math.Min(numProp(a, this, "y")+numProp(a, this, "height"), numProp(a, other, "y")+numProp(a, other, "height"))
	if x1 <= x0 || y1 <= y0 {
		return newRectangle(a, 0, 0, 0, 0)
	}
	return newRectangle(a, x0, y0, x1-x0, y1-y0)
}

func rectUnion(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	other := argObject(args, 0)
	if other == nil {
		return rectClone(a, this, nil)
	}
	x0 := math.Min(numProp(a, this, "x"), numProp(a, other, "x"))
	y0 := math.Min(numProp(a, this, "y"), numProp(a, other, "y"))
	x1 := math.Max(numProp(a, this, "x")+numProp(a, this, "width"), numProp(a, other, "x")+numProp(a, other, "width"))
	y1 := math.Max(numProp(a, this, "y")+numProp(a, this, "height"), numProp(a, other, "y")+numProp(a, other, "height"))
	return newRectangle(a, x0, y0, x1-x0, y1-y0)
}

func rectToString(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	parts := make([]string, 4)
	for i, n := range []string{"x", "y", "width", "height"} {
		parts[i] = avm1.Number(numProp(a, this, n)).CoerceToString(a).ToUTF8()
	}
	return avm1.Str(fmt.Sprintf("(x=%s, y=%s, w=%s, h=%s)", parts[0], parts[1], parts[2], parts[3])), nil
}

func installColorTransform(a *avm1.Activation) {
	_, proto := defineClass(a, "ColorTransform", colorTransformConstructor)

	virtual(a, proto, "rgb", ctGetRGB, ctSetRGB)
	method(a, proto, "concat", ctConcat)
	method(a, proto, "toString", ctToString)
}

var ctFields = []string{
	"redMultiplier", "greenMultiplier", "blueMultiplier", "alphaMultiplier",
	"redOffset", "greenOffset", "blueOffset", "alphaOffset",
}

func colorTransformConstructor(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	defaults := []float64{1, 1, 1, 1, 0, 0, 0, 0}
	for i, n := range ctFields {
		v := defaults[i]
		if i < len(args) {
			v = argNumber(a, args, i)
		}
		setNumProp(a, this, n, v)
	}
	return avm1.Undefined, nil
}

func ctGetRGB(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	r := uint32(numProp(a, this, "redOffset")) & 0xFF
	g := uint32(numProp(a, this, "greenOffset")) & 0xFF
	b := uint32(numProp(a, this, "blueOffset")) & 0xFF
	return avm1.Number(float64(r<<16 | g<<8 | b)), nil
}

// Setting rgb zeroes the channel multipliers so the offset color shows
// through unscaled.
func ctSetRGB(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	rgb := arg(args, 0).CoerceToU32(a) & 0xFFFFFF
	setNumProp(a, this, "redMultiplier", 0)
	setNumProp(a, this, "greenMultiplier", 0)
	setNumProp(a, this, "blueMultiplier", 0)
	setNumProp(a, this, "redOffset", float64(rgb>>16&0xFF))
	setNumProp(a, this, "greenOffset", float64(rgb>>8&0xFF))
	setNumProp(a, this, "blueOffset", float64(rgb&0xFF))
	return avm1.Undefined, nil
}

func ctConcat(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	other := argObject(args, 0)
	if other == nil {
		return avm1.Undefined, nil
	}
	for _, ch := range []string{"red", "green", "blue", "alpha"} {
		mulName, offName := ch+"Multiplier", ch+"Offset"
		mul := numProp(a, this, mulName)
		setNumProp(a, this, offName, numProp(a, this, offName)+mul*numProp(a, other, offName))
		setNumProp(a, this, mulName, mul*numProp(a, other, mulName))
	}
	return avm1.Undefined, nil
}

func ctToString(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	out := "("
	for i, n := range ctFields {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s=%s", n, avm1.Number(numProp(a, this, n)).CoerceToString(a).ToUTF8())
	}
	return avm1.Str(out + ")"), nil
}
