package globals

import (
	"lantern/pkg/avm1"
	"lantern/pkg/wstr"
)

type errorModule struct{}

func (errorModule) Name() string  { return "Error" }
func (errorModule) Priority() int { return PriorityError }

func (errorModule) Install(a *avm1.Activation) {
	_, proto := defineClass(a, "Error", errorConstructor)
	a.Avm().ProtoFor().Error = proto

	proto.DefineValue("name", avm1.Str("Error"), avm1.AttrDontEnum)
	proto.DefineValue("message", avm1.Str("Error"), avm1.AttrDontEnum)
	method(a, proto, "toString", errorToString)
}

func errorConstructor(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this != nil && len(args) > 0 && !args[0].IsUndefined() {
		this.Raw().DefineValue("message", args[0], 0)
	}
	return avm1.Undefined, nil
}

func errorToString(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	if this == nil {
		return avm1.Str("Error"), nil
	}
	msg, err := avm1.Get(a, this, wstr.FromUTF8("message"))
	if err != nil {
		return avm1.Str("Error"), nil
	}
	return avm1.String(msg.CoerceToString(a)), nil
}
