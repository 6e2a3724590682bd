package globals

import (
	"lantern/pkg/avm1"
)

type booleanModule struct{}

func (booleanModule) Name() string  { return "Boolean" }
func (booleanModule) Priority() int { return PriorityBoolean }

func (booleanModule) Install(a *avm1.Activation) {
	_, proto := defineClass(a, "Boolean", booleanConstructor)
	a.Avm().ProtoFor().Boolean = proto

	method(a, proto, "toString", booleanToString)
	method(a, proto, "valueOf", booleanValueOf)
}

func booleanConstructor(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	b := false
	if len(args) > 0 {
		b = argBool(a, args, 0)
	}
	if this == nil {
		return avm1.Bool(b), nil
	}
	boxed := avm1.NewValueObject(a, avm1.Bool(b), avm1.ObjectValue(a.Avm().ProtoFor().Boolean))
	return avm1.ObjectValue(boxed), nil
}

func booleanToString(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Str("false"), nil
	}
	return avm1.String(avm1.UnboxValue(avm1.ObjectValue(this)).CoerceToString(a)), nil
}

func booleanValueOf(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Bool(false), nil
	}
	return avm1.Bool(avm1.UnboxValue(avm1.ObjectValue(this)).CoerceToBool(a)), nil
}
