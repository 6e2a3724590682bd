package globals

import (
	"math"
	"strconv"

	"lantern/pkg/avm1"
	"lantern/pkg/wstr"
)

type numberModule struct{}

func (numberModule) Name() string  { return "Number" }
func (numberModule) Priority() int { return PriorityNumber }

func (numberModule) Install(a *avm1.Activation) {
	ctor, proto := defineClass(a, "Number", numberConstructor)
	a.Avm().ProtoFor().Number = proto

	constant(ctor, "MAX_VALUE", avm1.Number(math.MaxFloat64))
	constant(ctor, "MIN_VALUE", avm1.Number(5e-324))
	constant(ctor, "NaN", avm1.Number(math.NaN()))
	constant(ctor, "NEGATIVE_INFINITY", avm1.Number(math.Inf(-1)))
	constant(ctor, "POSITIVE_INFINITY", avm1.Number(math.Inf(1)))

	method(a, proto, "toString", numberToString)
	method(a, proto, "valueOf", numberValueOf)
}

func receiverNumber(a *avm1.Activation, this avm1.Object) float64 {
	if this == nil {
		return math.NaN()
	}
	return avm1.UnboxValue(avm1.ObjectValue(this)).CoerceToF64(a)
}

func numberConstructor(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	n := 0.0
	if len(args) > 0 {
		n = argNumber(a, args, 0)
	}
	if this == nil {
		return avm1.Number(n), nil
	}
	boxed := avm1.NewValueObject(a, avm1.Number(n), avm1.ObjectValue(a.Avm().ProtoFor().Number))
	return avm1.ObjectValue(boxed), nil
}

func numberToString(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	n := receiverNumber(a, this)
	radix := 10
	if len(args) > 0 && !args[0].IsUndefined() {
		radix = argInt(a, args, 0)
	}
	if radix < 2 || radix > 36 {
		radix = 10
	}
	if radix == 10 {
		return avm1.String(wstr.F64ToString(n)), nil
	}
	// Non-decimal radixes render the wrapped 32-bit value.
	return avm1.Str(strconv.FormatInt(int64(avm1.F64ToWrappedI32(n)), radix)), nil
}

func numberValueOf(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return avm1.Number(receiverNumber(a, this)), nil
}
