package globals

import (
	"math"

	"lantern/pkg/avm2"
)

type filtersModule struct{}

func (filtersModule) Name() string  { return "flash.filters" }
func (filtersModule) Priority() int { return PriorityFilters }

// Filters keep every property behind a normalizing setter, so the
// published clamps apply on construction and on later assignment alike.

type filterProp struct {
	name      string
	def       avm2.Value
	normalize func(a *avm2.Activation, v avm2.Value) avm2.Value
}

func clampFilterNum(lo, hi float64) func(a *avm2.Activation, v avm2.Value) avm2.Value {
	return func(a *avm2.Activation, v avm2.Value) avm2.Value {
		f, err := v.CoerceToNumber(a)
		if err != nil {
			f = math.NaN()
		}
		if f < lo {
			f = lo
		}
		if f > hi {
			f = hi
		}
		return avm2.Number(f)
	}
}

func filterNum(a *avm2.Activation, v avm2.Value) avm2.Value {
	f, err := v.CoerceToNumber(a)
	if err != nil {
		f = math.NaN()
	}
	return avm2.Number(f)
}

// filterAngle folds degrees into (-360, 360) keeping the sign.
func filterAngle(a *avm2.Activation, v avm2.Value) avm2.Value {
	f, err := v.CoerceToNumber(a)
	if err != nil {
		f = math.NaN()
	}
	return avm2.Number(math.Mod(f, 360))
}

func filterColor(a *avm2.Activation, v avm2.Value) avm2.Value {
	u, err := v.CoerceToU32(a)
	if err != nil {
		u = 0
	}
	return avm2.Unsigned(u & 0xFFFFFF)
}

func filterBool(a *avm2.Activation, v avm2.Value) avm2.Value {
	return avm2.Bool(v.CoerceToBoolean())
}

// filterBevelType accepts the published placement names; anything else
// reads as "full".
func filterBevelType(a *avm2.Activation, v avm2.Value) avm2.Value {
	s, err := v.CoerceToString(a)
	if err == nil {
		switch s.ToUTF8() {
		case "inner", "outer", "full":
			return avm2.String(s)
		}
	}
	return avm2.Str("full")
}

func filterDisplacementMode(a *avm2.Activation, v avm2.Value) avm2.Value {
	s, err := v.CoerceToString(a)
	if err == nil {
		switch s.ToUTF8() {
		case "wrap", "clamp", "ignore", "color":
			return avm2.String(s)
		}
	}
	return avm2.Str("wrap")
}

func filterPass(a *avm2.Activation, v avm2.Value) avm2.Value { return v }

const defaultFilterAngle = 44.9999999772279

func (filtersModule) Install(a *avm2.Activation) {
	ns := flashNS("flash.filters")
	objectCls := a.Avm().ClassByName("Object")

	baseCls := avm2.NewClass("BitmapFilter", ns, objectCls, 0)
	baseCls.SetNativeInit(noNativeInit)
	baseCls.DefineMethod(public(), "clone", filterClone)
	defineClass(a, baseCls)

	blur0255 := clampFilterNum(0, 255)
	alpha01 := clampFilterNum(0, 1)
	strength := clampFilterNum(0, 255)
	quality := clampFilterNum(0, 15)

	installFilterClass(a, ns, baseCls, "BlurFilter", []filterProp{
		{"blurX", avm2.Number(4), blur0255},
		{"blurY", avm2.Number(4), blur0255},
		{"quality", avm2.Number(1), quality},
	})

	installFilterClass(a, ns, baseCls, "BevelFilter", []filterProp{
		{"distance", avm2.Number(4), filterNum},
		{"angle", avm2.Number(defaultFilterAngle), filterAngle},
		{"highlightColor", avm2.Unsigned(0xFFFFFF), filterColor},
		{"highlightAlpha", avm2.Number(1), alpha01},
		{"shadowColor", avm2.Unsigned(0), filterColor},
		{"shadowAlpha", avm2.Number(1), alpha01},
		{"blurX", avm2.Number(4), blur0255},
		{"blurY", avm2.Number(4), blur0255},
		{"strength", avm2.Number(1), strength},
		{"quality", avm2.Number(1), quality},
		{"type", avm2.Str("inner"), filterBevelType},
		{"knockout", avm2.Bool(false), filterBool},
	})

	installFilterClass(a, ns, baseCls, "GlowFilter", []filterProp{
		{"color", avm2.Unsigned(0xFF0000), filterColor},
		{"alpha", avm2.Number(1), alpha01},
		{"blurX", avm2.Number(6), blur0255},
		{"blurY", avm2.Number(6), blur0255},
		{"strength", avm2.Number(2), strength},
		{"quality", avm2.Number(1), quality},
		{"inner", avm2.Bool(false), filterBool},
		{"knockout", avm2.Bool(false), filterBool},
	})

	installFilterClass(a, ns, baseCls, "DropShadowFilter", []filterProp{
		{"distance", avm2.Number(4), filterNum},
		{"angle", avm2.Number(defaultFilterAngle), filterAngle},
		{"color", avm2.Unsigned(0), filterColor},
		{"alpha", avm2.Number(1), alpha01},
		{"blurX", avm2.Number(4), blur0255},
		{"blurY", avm2.Number(4), blur0255},
		{"strength", avm2.Number(1), strength},
		{"quality", avm2.Number(1), quality},
		{"inner", avm2.Bool(false), filterBool},
		{"knockout", avm2.Bool(false), filterBool},
		{"hideObject", avm2.Bool(false), filterBool},
	})

	installFilterClass(a, ns, baseCls, "ColorMatrixFilter", []filterProp{
		{"matrix", avm2.Undefined, filterPass},
	})

	installFilterClass(a, ns, baseCls, "ConvolutionFilter", []filterProp{
		{"matrixX", avm2.Number(0), filterNum},
		{"matrixY", avm2.Number(0), filterNum},
		{"matrix", avm2.Undefined, filterPass},
		{"divisor", avm2.Number(1), filterNum},
		{"bias", avm2.Number(0), filterNum},
		{"preserveAlpha", avm2.Bool(true), filterBool},
		{"clamp", avm2.Bool(true), filterBool},
		{"color", avm2.Unsigned(0), filterColor},
		{"alpha", avm2.Number(0), alpha01},
	})

	installFilterClass(a, ns, baseCls, "DisplacementMapFilter", []filterProp{
		{"mapBitmap", avm2.Undefined, filterPass},
		{"mapPoint", avm2.Undefined, filterPass},
		{"componentX", avm2.Number(0), filterNum},
		{"componentY", avm2.Number(0), filterNum},
		{"scaleX", avm2.Number(0), filterNum},
		{"scaleY", avm2.Number(0), filterNum},
		{"mode", avm2.Str("wrap"), filterDisplacementMode},
		{"color", avm2.Unsigned(0), filterColor},
		{"alpha", avm2.Number(0), alpha01},
	})

	gradientProps := []filterProp{
		{"distance", avm2.Number(4), filterNum},
		{"angle", avm2.Number(defaultFilterAngle), filterAngle},
		{"colors", avm2.Undefined, filterPass},
		{"alphas", avm2.Undefined, filterPass},
		{"ratios", avm2.Undefined, filterPass},
		{"blurX", avm2.Number(4), blur0255},
		{"blurY", avm2.Number(4), blur0255},
		{"strength", avm2.Number(1), strength},
		{"quality", avm2.Number(1), quality},
		{"type", avm2.Str("inner"), filterBevelType},
		{"knockout", avm2.Bool(false), filterBool},
	}
	installFilterClass(a, ns, baseCls, "GradientGlowFilter", gradientProps)
	installFilterClass(a, ns, baseCls, "GradientBevelFilter", gradientProps)
}

func filterBackingName(field string) string { return "__" + field }

func installFilterClass(a *avm2.Activation, ns *avm2.Namespace, base *avm2.Class, name string, props []filterProp) {
	cls := avm2.NewClass(name, ns, base, 0)
	cls.SetNativeInit(func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		obj := this.AsObject()
		if obj == nil {
			return avm2.Undefined, nil
		}
		for i, p := range props {
			v := p.def
			if i < len(args) && !args[i].IsUndefined() {
				v = p.normalize(a, args[i])
			}
			obj.Base().SetDynamic(filterBackingName(p.name), v)
		}
		return avm2.Undefined, nil
	})
	for _, p := range props {
		prop := p
		cls.DefineGetter(public(), prop.name, func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
			obj := this.AsObject()
			if obj == nil {
				return avm2.Undefined, nil
			}
			if v, ok := obj.Base().GetDynamic(filterBackingName(prop.name)); ok {
				return v, nil
			}
			return prop.def, nil
		})
		cls.DefineSetter(public(), prop.name, func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
			if obj := this.AsObject(); obj != nil {
				obj.Base().SetDynamic(filterBackingName(prop.name), prop.normalize(a, arg(args, 0)))
			}
			return avm2.Undefined, nil
		})
	}
	defineClass(a, cls)
}

// filterClone rebuilds the receiver's class with no arguments, then
// copies the backing values across.
func filterClone(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	obj := this.AsObject()
	if obj == nil {
		return avm2.Null, nil
	}
	cls := obj.Base().Class()
	if cls == nil || cls.ClassObject() == nil {
		return avm2.Null, nil
	}
	clone, err := cls.ClassObject().Construct(a, nil)
	if err != nil {
		return avm2.Undefined, err
	}
	for _, k := range obj.Base().DynamicKeys() {
		if v, ok := obj.Base().GetDynamic(k); ok {
			clone.Base().SetDynamic(k, v)
		}
	}
	return avm2.ObjectValue(clone), nil
}
