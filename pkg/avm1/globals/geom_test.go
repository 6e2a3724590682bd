package globals

import (
	"testing"

	"lantern/pkg/avm1"
)

func TestPointBasics(t *testing.T) {
	_, a, _ := testVM(8)
	p := construct(t, a, "Point", avm1.Number(3), avm1.Number(4))

	wantNumber(t, getProp(t, a, p, "x"), 3)
	wantNumber(t, getProp(t, a, p, "length"), 5)
	wantString(t, a, call(t, a, p, "toString"), "(x=3, y=4)")
}

func TestPointAddSubtract(t *testing.T) {
	_, a, _ := testVM(8)
	p := construct(t, a, "Point", avm1.Number(1), avm1.Number(2))
	q := construct(t, a, "Point", avm1.Number(10), avm1.Number(20))

	sum := call(t, a, p, "add", avm1.ObjectValue(q)).AsObject()
	wantNumber(t, getProp(t, a, sum, "x"), 11)
	wantNumber(t, getProp(t, a, sum, "y"), 22)

	diff := call(t, a, q, "subtract", avm1.ObjectValue(p)).AsObject()
	wantNumber(t, getProp(t, a, diff, "x"), 9)
}

func TestPointStatics(t *testing.T) {
	_, a, _ := testVM(8)
	ctor := global(t, a, "Point").AsObject()
	p := construct(t, a, "Point", avm1.Number(0), avm1.Number(0))
	q := construct(t, a, "Point", avm1.Number(6), avm1.Number(8))

	wantNumber(t, call(t, a, ctor, "distance", avm1.ObjectValue(p), avm1.ObjectValue(q)), 10)

	mid := call(t, a, ctor, "interpolate", avm1.ObjectValue(p), avm1.ObjectValue(q), avm1.Number(0.5)).AsObject()
	wantNumber(t, getProp(t, a, mid, "x"), 3)
	wantNumber(t, getProp(t, a, mid, "y"), 4)
}

func TestPointEqualsAndClone(t *testing.T) {
	_, a, _ := testVM(8)
	p := construct(t, a, "Point", avm1.Number(1), avm1.Number(2))

	c := call(t, a, p, "clone").AsObject()
	if !call(t, a, p, "equals", avm1.ObjectValue(c)).AsBoolRaw() {
		t.Fatal("clone not equal to original")
	}
	setProp(t, a, c, "x", avm1.Number(9))
	if call(t, a, p, "equals", avm1.ObjectValue(c)).AsBoolRaw() {
		t.Fatal("mutated clone still equal")
	}
	wantNumber(t, getProp(t, a, p, "x"), 1)
}

func TestRectangleEdgesAndContains(t *testing.T) {
	_, a, _ := testVM(8)
	r := construct(t, a, "Rectangle", avm1.Number(10), avm1.Number(20), avm1.Number(30), avm1.Number(40))

	wantNumber(t, getProp(t, a, r, "left"), 10)
	wantNumber(t, getProp(t, a, r, "top"), 20)
	wantNumber(t, getProp(t, a, r, "right"), 40)
	wantNumber(t, getProp(t, a, r, "bottom"), 60)

	if !call(t, a, r, "contains", avm1.Number(15), avm1.Number(25)).AsBoolRaw() {
		t.Fatal("contains(15,25) = false")
	}
	if call(t, a, r, "contains", avm1.Number(40), avm1.Number(25)).AsBoolRaw() {
		t.Fatal("right edge counted as inside")
	}
}

func TestRectangleIntersection(t *testing.T) {
	_, a, _ := testVM(8)
	r := construct(t, a, "Rectangle", avm1.Number(0), avm1.Number(0), avm1.Number(10), avm1.Number(10))
	s := construct(t, a, "Rectangle", avm1.Number(5), avm1.Number(5), avm1.Number(10), avm1.Number(10))

	if !call(t, a, r, "intersects", avm1.ObjectValue(s)).AsBoolRaw() {
		t.Fatal("intersects = false")
	}
	x := call(t, a, r, "intersection", avm1.ObjectValue(s)).AsObject()
	wantNumber(t, getProp(t, a, x, "x"), 5)
	wantNumber(t, getProp(t, a, x, "width"), 5)

	far := construct(t, a, "Rectangle", avm1.Number(100), avm1.Number(100), avm1.Number(1), avm1.Number(1))
	empty := call(t, a, r, "intersection", avm1.ObjectValue(far)).AsObject()
	if !call(t, a, empty, "isEmpty").AsBoolRaw() {
		t.Fatal("disjoint intersection not empty")
	}
}

func TestRectangleUnion(t *testing.T) {
	_, a, _ := testVM(8)
	r := construct(t, a, "Rectangle", avm1.Number(0), avm1.Number(0), avm1.Number(10), avm1.Number(10))
	s := construct(t, a, "Rectangle", avm1.Number(20), avm1.Number(5), avm1.Number(10), avm1.Number(10))

	u := call(t, a, r, "union", avm1.ObjectValue(s)).AsObject()
	wantNumber(t, getProp(t, a, u, "x"), 0)
	wantNumber(t, getProp(t, a, u, "width"), 30)
	wantNumber(t, getProp(t, a, u, "height"), 15)
}

func TestColorTransformDefaultsAndRGB(t *testing.T) {
	_, a, _ := testVM(8)
	ct := construct(t, a, "ColorTransform")

	wantNumber(t, getProp(t, a, ct, "redMultiplier"), 1)
	wantNumber(t, getProp(t, a, ct, "alphaOffset"), 0)

	setProp(t, a, ct, "rgb", avm1.Number(0x123456))
	wantNumber(t, getProp(t, a, ct, "redMultiplier"), 0)
	wantNumber(t, getProp(t, a, ct, "redOffset"), 0x12)
	wantNumber(t, getProp(t, a, ct, "greenOffset"), 0x34)
	wantNumber(t, getProp(t, a, ct, "blueOffset"), 0x56)
	wantNumber(t, getProp(t, a, ct, "rgb"), 0x123456)
}

func TestColorSetGetRGB(t *testing.T) {
	_, a, _ := testVM(8)
	clip := call(t, a, rootClip(t, a), "createEmptyMovieClip", avm1.Str("box"), avm1.Number(1)).AsObject()
	c := construct(t, a, "Color", avm1.ObjectValue(clip))

	call(t, a, c, "setRGB", avm1.Number(0xFF8800))
	wantNumber(t, call(t, a, c, "getRGB"), 0xFF8800)

	tr := call(t, a, c, "getTransform").AsObject()
	wantNumber(t, getProp(t, a, tr, "rb"), 0xFF)
	wantNumber(t, getProp(t, a, tr, "gb"), 0x88)
	wantNumber(t, getProp(t, a, tr, "ra"), 0)
}

func TestColorSetTransform(t *testing.T) {
	_, a, _ := testVM(8)
	clip := call(t, a, rootClip(t, a), "createEmptyMovieClip", avm1.Str("box"), avm1.Number(1)).AsObject()
	c := construct(t, a, "Color", avm1.ObjectValue(clip))

	arg := construct(t, a, "Object")
	setProp(t, a, arg, "ra", avm1.Number(50))
	setProp(t, a, arg, "bb", avm1.Number(12))
	call(t, a, c, "setTransform", avm1.ObjectValue(arg))

	tr := call(t, a, c, "getTransform").AsObject()
	wantNumber(t, getProp(t, a, tr, "ra"), 50)
	wantNumber(t, getProp(t, a, tr, "bb"), 12)
	wantNumber(t, getProp(t, a, tr, "ga"), 100)
}
