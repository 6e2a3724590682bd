package globals

import (
	"math"

	"lantern/pkg/avm1"
	"lantern/pkg/wstr"
)

type filtersModule struct{}

func (filtersModule) Name() string  { return "Filters" }
func (filtersModule) Priority() int { return PriorityFilters }

// Filters keep every property behind a normalizing setter, so the
// published clamps apply on construction and on later assignment alike.

type filterField struct {
	name      string
	def       avm1.Value
	normalize func(a *avm1.Activation, v avm1.Value) avm1.Value
}

func clampNum(lo, hi float64) func(a *avm1.Activation, v avm1.Value) avm1.Value {
	return func(a *avm1.Activation, v avm1.Value) avm1.Value {
		f := v.CoerceToF64(a)
		if f < lo {
			f = lo
		}
		if f > hi {
			f = hi
		}
		return avm1.Number(f)
	}
}

func plainNum(a *avm1.Activation, v avm1.Value) avm1.Value {
	return avm1.Number(v.CoerceToF64(a))
}

// normAngle folds degrees into (-360, 360) keeping the sign.
func normAngle(a *avm1.Activation, v avm1.Value) avm1.Value {
	return avm1.Number(math.Mod(v.CoerceToF64(a), 360))
}

func maskColor(a *avm1.Activation, v avm1.Value) avm1.Value {
	return avm1.Number(float64(v.CoerceToU32(a) & 0xFFFFFF))
}

func normBool(a *avm1.Activation, v avm1.Value) avm1.Value {
	return avm1.Bool(v.CoerceToBool(a))
}

// normBevelType accepts the published placement names; anything else
// reads as "full".
func normBevelType(a *avm1.Activation, v avm1.Value) avm1.Value {
	s := v.CoerceToString(a).ToUTF8()
	switch s {
	case "inner", "outer", "full":
		return avm1.Str(s)
	}
	return avm1.Str("full")
}

func passValue(a *avm1.Activation, v avm1.Value) avm1.Value { return v }

const defaultShadowAngle = 44.9999999772279

func num(f float64) avm1.Value  { return avm1.Number(f) }
func boolV(b bool) avm1.Value   { return avm1.Bool(b) }
func strV(s string) avm1.Value  { return avm1.Str(s) }

func (filtersModule) Install(a *avm1.Activation) {
	blur0255 := clampNum(0, 255)
	alpha01 := clampNum(0, 1)
	strength := clampNum(0, 255)
	quality := clampNum(0, 15)

	installFilter(a, "BlurFilter", []filterField{
		{"blurX", num(4), blur0255},
		{"blurY", num(4), blur0255},
		{"quality", num(1), quality},
	})

	installFilter(a, "BevelFilter", []filterField{
		{"distance", num(4), plainNum},
		{"angle", num(defaultShadowAngle), normAngle},
		{"highlightColor", num(0xFFFFFF), maskColor},
		{"highlightAlpha", num(1), alpha01},
		{"shadowColor", num(0), maskColor},
		{"shadowAlpha", num(1), alpha01},
		{"blurX", num(4), blur0255},
		{"blurY", num(4), blur0255},
		{"strength", num(1), strength},
		{"quality", num(1), quality},
		{"type", strV("inner"), normBevelType},
		{"knockout", boolV(false), normBool},
	})

	installFilter(a, "GlowFilter", []filterField{
		{"color", num(0xFF0000), maskColor},
		{"alpha", num(1), alpha01},
		{"blurX", num(6), blur0255},
		{"blurY", num(6), blur0255},
		{"strength", num(2), strength},
		{"quality", num(1), quality},
		{"inner", boolV(false), normBool},
		{"knockout", boolV(false), normBool},
	})

	installFilter(a, "DropShadowFilter", []filterField{
		{"distance", num(4), plainNum},
		{"angle", num(defaultShadowAngle), normAngle},
		{"color", num(0), maskColor},
		{"alpha", num(1), alpha01},
		{"blurX", num(4), blur0255},
		{"blurY", num(4), blur0255},
		{"strength", num(1), strength},
		{"quality", num(1), quality},
		{"inner", boolV(false), normBool},
		{"knockout", boolV(false), normBool},
		{"hideObject", boolV(false), normBool},
	})

	installFilter(a, "ColorMatrixFilter", []filterField{
		{"matrix", avm1.Undefined, passValue},
	})

	installFilter(a, "ConvolutionFilter", []filterField{
		{"matrixX", num(0), plainNum},
		{"matrixY", num(0), plainNum},
		{"matrix", avm1.Undefined, passValue},
		{"divisor", num(1), plainNum},
		{"bias", num(0), plainNum},
		{"preserveAlpha", boolV(true), normBool},
		{"clamp", boolV(true), normBool},
		{"color", num(0), maskColor},
		{"alpha", num(0), alpha01},
	})

	installFilter(a, "DisplacementMapFilter", []filterField{
		{"mapBitmap", avm1.Undefined, passValue},
		{"mapPoint", avm1.Undefined, passValue},
		{"componentX", num(0), plainNum},
		{"componentY", num(0), plainNum},
		{"scaleX", num(0), plainNum},
		{"scaleY", num(0), plainNum},
		{"mode", strV("wrap"), normDisplacementMode},
		{"color", num(0), maskColor},
		{"alpha", num(0), alpha01},
	})

	gradientFields := []filterField{
		{"distance", num(4), plainNum},
		{"angle", num(defaultShadowAngle), normAngle},
		{"colors", avm1.Undefined, passValue},
		{"alphas", avm1.Undefined, passValue},
		{"ratios", avm1.Undefined, passValue},
		{"blurX", num(4), blur0255},
		{"blurY", num(4), blur0255},
		{"strength", num(1), strength},
		{"quality", num(1), quality},
		{"type", strV("inner"), normBevelType},
		{"knockout", boolV(false), normBool},
	}
	installFilter(a, "GradientGlowFilter", gradientFields)
	installFilter(a, "GradientBevelFilter", gradientFields)
}

func normDisplacementMode(a *avm1.Activation, v avm1.Value) avm1.Value {
	s := v.CoerceToString(a).ToUTF8()
	switch s {
	case "wrap", "clamp", "ignore", "color":
		return avm1.Str(s)
	}
	return avm1.Str("wrap")
}

func backingName(field string) string { return "__" + field }

func installFilter(a *avm1.Activation, name string, fields []filterField) {
	_, proto := defineClass(a, name, func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		if this == nil {
			return avm1.Undefined, nil
		}
		for i, f := range fields {
			v := f.def
			if i < len(args) && !args[i].IsUndefined() {
				v = f.normalize(a, args[i])
			}
			this.Raw().DefineValue(backingName(f.name), v, avm1.AttrDontEnum)
		}
		return avm1.Undefined, nil
	})

	for _, f := range fields {
		field := f
		virtual(a, proto, field.name,
			func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
				if this == nil {
					return avm1.Undefined, nil
				}
				v, err := avm1.Get(a, this, wstr.FromUTF8(backingName(field.name)))
				if err != nil {
					return avm1.Undefined, nil
				}
				return v, nil
			},
			func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
				if this == nil {
					return avm1.Undefined, nil
				}
				this.Raw().DefineValue(backingName(field.name), field.normalize(a, arg(args, 0)), avm1.AttrDontEnum)
				return avm1.Undefined, nil
			})
	}

	method(a, proto, "clone", func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		if this == nil {
			return avm1.Undefined, nil
		}
		ctorVal, err := avm1.Get(a, a.Avm().Globals(), a.Intern(name))
		if err != nil || !ctorVal.IsObject() {
			return avm1.Undefined, err
		}
		outVal, err := ctorVal.AsObject().Construct(a, nil)
		if err != nil || !outVal.IsObject() {
			return avm1.Undefined, err
		}
		for _, f := range fields {
			v, err := avm1.Get(a, this, wstr.FromUTF8(backingName(f.name)))
			if err == nil {
				outVal.AsObject().Raw().DefineValue(backingName(f.name), v, avm1.AttrDontEnum)
			}
		}
		return outVal, nil
	})
}
