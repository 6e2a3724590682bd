package globals

import (
	"math"

	"lantern/pkg/avm1"
)

type mathModule struct{}

func (mathModule) Name() string  { return "Math" }
func (mathModule) Priority() int { return PriorityMath }

func (mathModule) Install(a *avm1.Activation) {
	m := avm1.NewScriptObject(a, avm1.ObjectValue(a.Avm().ProtoFor().Object))

	constant(m, "E", avm1.Number(math.E))
	constant(m, "LN10", avm1.Number(math.Ln10))
	constant(m, "LN2", avm1.Number(math.Ln2))
	constant(m, "LOG10E", avm1.Number(math.Log10E))
	constant(m, "LOG2E", avm1.Number(math.Log2E))
	constant(m, "PI", avm1.Number(math.Pi))
	constant(m, "SQRT1_2", avm1.Number(math.Sqrt2/2))
	constant(m, "SQRT2", avm1.Number(math.Sqrt2))

	unary := func(name string, fn func(float64) float64) {
		method(a, m, name, func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
			return avm1.Number(fn(argNumber(a, args, 0))), nil
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

	method(a, m, "atan2", mathAtan2)
	method(a, m, "max", mathMax)
	method(a, m, "min", mathMin)
	method(a, m, "pow", mathPow)
	method(a, m, "random", mathRandom)
	method(a, m, "round", mathRound)

	a.Avm().Globals().DefineValue("Math", avm1.ObjectValue(m), avm1.AttrDontEnum)
}

func mathAtan2(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return avm1.Number(math.Atan2(argNumber(a, args, 0), argNumber(a, args, 1))), nil
}

func mathMax(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	out := math.Inf(-1)
	for i := range args {
		n := argNumber(a, args, i)
		if math.IsNaN(n) {
			return avm1.Number(math.NaN()), nil
		}
		if n > out {
			out = n
		}
	}
	return avm1.Number(out), nil
}

func mathMin(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	out := math.Inf(1)
	for i := range args {
		n := argNumber(a, args, i)
		if math.IsNaN(n) {
			return avm1.Number(math.NaN()), nil
		}
		if n < out {
			out = n
		}
	}
	return avm1.Number(out), nil
}

func mathPow(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return avm1.Number(math.Pow(argNumber(a, args, 0), argNumber(a, args, 1))), nil
}

func mathRandom(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return avm1.Number(a.Avm().Random()), nil
}

func mathRound(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	n := argNumber(a, args, 0)
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return avm1.Number(n), nil
	}
	return avm1.Number(math.Floor(n + 0.5)), nil
}
