package globals

import (
	"runtime"

	"lantern/pkg/avm1"
)

type systemModule struct{}

func (systemModule) Name() string  { return "System" }
func (systemModule) Priority() int { return PrioritySystem }

func (systemModule) Install(a *avm1.Activation) {
	sys := avm1.NewScriptObject(a, avm1.ObjectValue(a.Avm().ProtoFor().Object))

	method(a, sys, "setClipboard", func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		if a.Ctx().UI != nil {
			a.Ctx().UI.SetClipboard(argString(a, args, 0).ToUTF8())
		}
		return avm1.Undefined, nil
	})
	method(a, sys, "showSettings", func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		return avm1.Undefined, nil
	})
	sys.DefineValue("useCodepage", avm1.Bool(false), avm1.AttrDontEnum)

	caps := avm1.NewScriptObject(a, avm1.ObjectValue(a.Avm().ProtoFor().Object))
	constant(caps, "os", avm1.Str(osName()))
	constant(caps, "playerType", avm1.Str("StandAlone"))
	constant(caps, "manufacturer", avm1.Str("Lantern "+osName()))
	constant(caps, "language", avm1.Str("en"))
	constant(caps, "screenResolutionX", avm1.Number(a.Ctx().Stage.StageWidth()))
	constant(caps, "screenResolutionY", avm1.Number(a.Ctx().Stage.StageHeight()))
	constant(caps, "hasAudio", avm1.Bool(a.Ctx().Audio != nil))
	constant(caps, "version", avm1.Str(osName()+" 8,0,0,0"))
	sys.DefineValue("capabilities", avm1.ObjectValue(caps), avm1.AttrDontEnum)

	sec := avm1.NewScriptObject(a, avm1.ObjectValue(a.Avm().ProtoFor().Object))
	sec.DefineValue("sandboxType", avm1.Str("localTrusted"), avm1.AttrDontEnum)
	method(a, sec, "allowDomain", func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		return avm1.Bool(true), nil
	})
	method(a, sec, "allowInsecureDomain", func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		return avm1.Bool(true), nil
	})
	method(a, sec, "loadPolicyFile", func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		return avm1.Undefined, nil
	})
	sys.DefineValue("security", avm1.ObjectValue(sec), avm1.AttrDontEnum)

	a.Avm().Globals().DefineValue("System", avm1.ObjectValue(sys), avm1.AttrDontEnum)
}

func osName() string {
	switch runtime.GOOS {
	case "windows":
		return "WIN"
	case "darwin":
		return "MAC"
	}
	return "LNX"
}
