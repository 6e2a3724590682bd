package globals

import (
	"math"
	"strconv"

	"lantern/pkg/avm2"
	"lantern/pkg/wstr"
)

type numberModule struct{}

func (numberModule) Name() string  { return "Number" }
func (numberModule) Priority() int { return PriorityNumber }

func (numberModule) Install(a *avm2.Activation) {
	objectCls := a.Avm().ClassByName("Object")

	numberCls := avm2.NewClass("Number", public(), objectCls, avm2.ClassFlagSealed|avm2.ClassFlagFinal)
	numberCls.SetNativeInit(noNativeInit)
	numberCls.SetCallHandler(func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		if len(args) == 0 {
			return avm2.Number(0), nil
		}
		n, err := args[0].CoerceToNumber(a)
		if err != nil {
			return avm2.Undefined, err
		}
		return avm2.Number(n), nil
	})
	defineNumberMethods(numberCls)
	if co := defineClass(a, numberCls); co != nil {
		a.Avm().ProtoFor().Number = avm2.ObjectValue(co.Prototype())
		co.SetDynamic("MAX_VALUE", avm2.Number(math.MaxFloat64))
		co.SetDynamic("MIN_VALUE", avm2.Number(5e-324))
		co.SetDynamic("NaN", avm2.Number(math.NaN()))
		co.SetDynamic("NEGATIVE_INFINITY", avm2.Number(math.Inf(-1)))
		co.SetDynamic("POSITIVE_INFINITY", avm2.Number(math.Inf(1)))

		proto := co.Prototype()
		protoMethod(a, proto, "toString", numberToString)
		protoMethod(a, proto, "valueOf", numberValueOf)
	}

	intCls := avm2.NewClass("int", public(), objectCls, avm2.ClassFlagSealed|avm2.ClassFlagFinal)
	intCls.SetNativeInit(noNativeInit)
	intCls.SetCallHandler(func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		if len(args) == 0 {
			return avm2.Integer(0), nil
		}
		n, err := args[0].CoerceToI32(a)
		if err != nil {
			return avm2.Undefined, err
		}
		return avm2.Integer(n), nil
	})
	defineNumberMethods(intCls)
	if co := defineClass(a, intCls); co != nil {
		co.SetDynamic("MAX_VALUE", avm2.Integer(math.MaxInt32))
		co.SetDynamic("MIN_VALUE", avm2.Integer(math.MinInt32))
	}

	uintCls := avm2.NewClass("uint", public(), objectCls, avm2.ClassFlagSealed|avm2.ClassFlagFinal)
	uintCls.SetNativeInit(noNativeInit)
	uintCls.SetCallHandler(func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		if len(args) == 0 {
			return avm2.Unsigned(0), nil
		}
		n, err := args[0].CoerceToU32(a)
		if err != nil {
			return avm2.Undefined, err
		}
		return avm2.Unsigned(n), nil
	})
	defineNumberMethods(uintCls)
	if co := defineClass(a, uintCls); co != nil {
		co.SetDynamic("MAX_VALUE", avm2.Unsigned(math.MaxUint32))
		co.SetDynamic("MIN_VALUE", avm2.Unsigned(0))
	}
}

func noNativeInit(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return avm2.Undefined, nil
}

func defineNumberMethods(cls *avm2.Class) {
	cls.DefineMethod(public(), "toString", numberToString)
	cls.DefineMethod(public(), "toLocaleString", numberToString)
	cls.DefineMethod(public(), "valueOf", numberValueOf)
	cls.DefineMethod(public(), "toFixed", numberToFixed)
	cls.DefineMethod(public(), "toPrecision", numberToPrecision)
	cls.DefineMethod(public(), "toExponential", numberToExponential)
}

func receiverNumber(a *avm2.Activation, this avm2.Value) float64 {
	n, err := receiverValue(this).CoerceToNumber(a)
	if err != nil {
		return math.NaN()
	}
	return n
}

func numberToString(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	n := receiverNumber(a, this)
	radix := argIntDefault(a, args, 0, 10)
	if radix < 2 || radix > 36 {
		return avm2.Undefined, avm2.RangeError("radix %d out of range", radix)
	}
	if radix == 10 {
		return avm2.String(wstr.F64ToString(n)), nil
	}
	if math.IsNaN(n) {
		return avm2.Str("NaN"), nil
	}
	neg := n < 0
	i := int64(math.Trunc(math.Abs(n)))
	s := strconv.FormatInt(i, radix)
	if neg {
		s = "-" + s
	}
	return avm2.Str(s), nil
}

func numberValueOf(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return receiverValue(this), nil
}

func fractionDigits(a *avm2.Activation, args []avm2.Value, lo, hi int) (int, error) {
	d := argIntDefault(a, args, 0, 0)
	if d < lo || d > hi {
		return 0, avm2.RangeError("digits %d out of range", d)
	}
	return d, nil
}

func numberToFixed(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	d, err := fractionDigits(a, args, 0, 20)
	if err != nil {
		return avm2.Undefined, err
	}
	return avm2.Str(strconv.FormatFloat(receiverNumber(a, this), 'f', d, 64)), nil
}

func numberToPrecision(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	n := receiverNumber(a, this)
	if len(args) == 0 || args[0].IsUndefined() {
		return avm2.String(wstr.F64ToString(n)), nil
	}
	d, err := fractionDigits(a, args, 1, 21)
	if err != nil {
		return avm2.Undefined, err
	}
	return avm2.Str(strconv.FormatFloat(n, 'g', d, 64)), nil
}

func numberToExponential(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	d, err := fractionDigits(a, args, 0, 20)
	if err != nil {
		return avm2.Undefined, err
	}
	return avm2.Str(strconv.FormatFloat(receiverNumber(a, this), 'e', d, 64)), nil
}

type booleanModule struct{}

func (booleanModule) Name() string  { return "Boolean" }
func (booleanModule) Priority() int { return PriorityBoolean }

func (booleanModule) Install(a *avm2.Activation) {
	objectCls := a.Avm().ClassByName("Object")
	cls := avm2.NewClass("Boolean", public(), objectCls, avm2.ClassFlagSealed|avm2.ClassFlagFinal)
	cls.SetNativeInit(noNativeInit)
	cls.SetCallHandler(func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		return avm2.Bool(argBool(args, 0)), nil
	})
	cls.DefineMethod(public(), "toString", booleanToString)
	cls.DefineMethod(public(), "valueOf", booleanValueOf)
	co := defineClass(a, cls)
	if co == nil {
		return
	}
	a.Avm().ProtoFor().Boolean = avm2.ObjectValue(co.Prototype())
	proto := co.Prototype()
	protoMethod(a, proto, "toString", booleanToString)
	protoMethod(a, proto, "valueOf", booleanValueOf)
}

func booleanToString(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	if receiverValue(this).CoerceToBoolean() {
		return avm2.Str("true"), nil
	}
	return avm2.Str("false"), nil
}

func booleanValueOf(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
	return avm2.Bool(receiverValue(this).CoerceToBoolean()), nil
}
