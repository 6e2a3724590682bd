package globals

import (
	"math"

	"lantern/pkg/avm2"
)

type mathModule struct{}

func (mathModule) Name() string  { return "Math" }
func (mathModule) Priority() int { return PriorityMath }

func (mathModule) Install(a *avm2.Activation) {
	objectCls := a.Avm().ClassByName("Object")
	cls := avm2.NewClass("Math", public(), objectCls, avm2.ClassFlagSealed|avm2.ClassFlagFinal)
	cls.SetNativeInit(func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		return avm2.Undefined, avm2.TypeError("Math is not a constructor")
	})
	co := defineClass(a, cls)
	if co == nil {
		return
	}

	co.SetDynamic("E", avm2.Number(math.E))
	co.SetDynamic("LN10", avm2.Number(math.Ln10))
	co.SetDynamic("LN2", avm2.Number(math.Ln2))
	co.SetDynamic("LOG10E", avm2.Number(math.Log10E))
	co.SetDynamic("LOG2E", avm2.Number(math.Log2E))
	co.SetDynamic("PI", avm2.Number(math.Pi))
	co.SetDynamic("SQRT1_2", avm2.Number(math.Sqrt2/2))
	co.SetDynamic("SQRT2", avm2.Number(math.Sqrt2))

	static := func(name string, fn avm2.NativeMethod) {
		f := avm2.NewFunctionObject(a, avm2.NewNativeMethod(name, fn))
		co.SetDynamic(name, avm2.ObjectValue(f))
	}
	unary := func(name string, fn func(float64) float64) {
		static(name, func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
			return avm2.Number(fn(argNumber(a, args, 0))), nil
		})
	}
	unary("abs", math.Abs)
	unary("acos", math.Acos)
	unary("asin", math.Asin)
	unary("atan", math.Atan)
	unary("ceil", math.Ceil)
	unary("cos", math.Cos)
	unary("exp", math.Exp)
	unary("floor", math.Floor)
	unary("log", math.Log)
	unary("sin", math.Sin)
	unary("sqrt", math.Sqrt)
	unary("tan", math.Tan)

	static("atan2", mathAtan2)
	static("max", mathMax)
	static("min", mathMin)
	static("pow", mathPow)
	static("random", mathRandom)
	static("round", mathRound)
}

func mathAtan2(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return avm2.Number(math.Atan2(argNumber(a, args, 0), argNumber(a, args, 1))), nil
}

func mathMax(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	out := math.Inf(-1)
	for i := range args {
		n := argNumber(a, args, i)
		if math.IsNaN(n) {
			return avm2.Number(math.NaN()), nil
		}
		if n > out {
			out = n
		}
	}
	return avm2.Number(out), nil
}

func mathMin(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	out := math.Inf(1)
	for i := range args {
		n := argNumber(a, args, i)
		if math.IsNaN(n) {
			return avm2.Number(math.NaN()), nil
		}
		if n < out {
			out = n
		}
	}
	return avm2.Number(out), nil
}

func mathPow(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return avm2.Number(math.Pow(argNumber(a, args, 0), argNumber(a, args, 1))), nil
}

func mathRandom(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return avm2.Number(a.Avm().Random()), nil
}

func mathRound(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	n := argNumber(a, args, 0)
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return avm2.Number(n), nil
	}
	return avm2.Number(math.Floor(n + 0.5)), nil
}
