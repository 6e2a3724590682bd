package globals

import (
	"lantern/pkg/avm1"
	"lantern/pkg/wstr"
)

type colorModule struct{}

func (colorModule) Name() string  { return "Color" }
func (colorModule) Priority() int { return PriorityColor }

// colorData is the native payload on Color instances. The transform is
// the classic percentage/offset pair per channel.
type colorData struct {
	target avm1.Object
	ra, rb float64
	ga, gb float64
	ba, bb float64
	aa, ab float64
}

func (colorModule) Install(a *avm1.Activation) {
	_, proto := defineClass(a, "Color", colorConstructor)

	method(a, proto, "setRGB", colorSetRGB)
	method(a, proto, "getRGB", colorGetRGB)
	method(a, proto, "setTransform", colorSetTransform)
	method(a, proto, "getTransform", colorGetTransform)
}

func colorConstructor(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Undefined, nil
	}
	d := &colorData{ra: 100, ga: 100, ba: 100, aa: 100}
	v := arg(args, 0)
	if v.IsObject() {
		d.target = v.AsObject()
	} else if v.IsString() {
		if o, ok := avm1.ResolvePath(a, v.AsString()); ok {
			d.target = o
		}
	}
	this.Raw().SetNativeData(d)
	return avm1.Undefined, nil
}

func colorOf(this avm1.Object) *colorData {
	if this == nil {
		return nil
	}
	d, _ := this.Raw().NativeData().(*colorData)
	return d
}

func colorSetRGB(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	d := colorOf(this)
	if d == nil {
		return avm1.Undefined, nil
	}
	rgb := arg(args, 0).CoerceToU32(a) & 0xFFFFFF
	d.ra, d.ga, d.ba = 0, 0, 0
	d.rb = float64(rgb >> 16 & 0xFF)
	d.gb = float64(rgb >> 8 & 0xFF)
	d.bb = float64(rgb & 0xFF)
	return avm1.Undefined, nil
}

func colorGetRGB(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	d := colorOf(this)
	if d == nil {
		return avm1.Number(0), nil
	}
	rgb := uint32(d.rb)&0xFF<<16 | uint32(d.gb)&0xFF<<8 | uint32(d.bb)&0xFF
	return avm1.Number(float64(rgb)), nil
}

func colorSetTransform(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	d := colorOf(this)
	src := argObject(args, 0)
	if d == nil || src == nil {
		return avm1.Undefined, nil
	}
	assign := func(name string, dst *float64) {
		v, err := avm1.Get(a, src, wstr.FromUTF8(name))
		if err == nil && !v.IsUndefined() {
			*dst = v.CoerceToF64(a)
		}
	}
	assign("ra", &d.ra)
	assign("rb", &d.rb)
	assign("ga", &d.ga)
	assign("gb", &d.gb)
	assign("ba", &d.ba)
	assign("bb", &d.bb)
	assign("aa", &d.aa)
	assign("ab", &d.ab)
	return avm1.Undefined, nil
}

func colorGetTransform(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	d := colorOf(this)
	if d == nil {
		return avm1.Undefined, nil
	}
	out := avm1.NewScriptObject(a, avm1.ObjectValue(a.Avm().ProtoFor().Object))
	out.DefineValue("ra", avm1.Number(d.ra), 0)
	out.DefineValue("rb", avm1.Number(d.rb), 0)
	out.DefineValue("ga", avm1.Number(d.ga), 0)
	out.DefineValue("gb", avm1.Number(d.gb), 0)
	out.DefineValue("ba", avm1.Number(d.ba), 0)
	out.DefineValue("bb", avm1.Number(d.bb), 0)
	out.DefineValue("aa", avm1.Number(d.aa), 0)
	out.DefineValue("ab", avm1.Number(d.ab), 0)
	return avm1.ObjectValue(out), nil
}
