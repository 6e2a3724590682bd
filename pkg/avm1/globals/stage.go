package globals

import (
	"lantern/pkg/avm1"
	"lantern/pkg/wstr"
)

type stageModule struct{}

func (stageModule) Name() string  { return "Stage" }
func (stageModule) Priority() int { return PriorityStage }

var stageAlignValues = map[string]bool{
	"": true, "T": true, "B": true, "L": true, "R": true,
	"TL": true, "TR": true, "BL": true, "BR": true, "LT": true, "RB": true, "LB": true, "RT": true,
}

var stageScaleModes = map[string]string{
	"exactfit": "exactFit", "noborder": "noBorder", "noscale": "noScale", "showall": "showAll",
}

func (stageModule) Install(a *avm1.Activation) {
	s := avm1.NewScriptObject(a, avm1.ObjectValue(a.Avm().ProtoFor().Object))
	broadcasterInitialize(a, s)

	virtual(a, s, "align", stageGetAlign, stageSetAlign)
	virtual(a, s, "scaleMode", stageGetScaleMode, stageSetScaleMode)
	virtual(a, s, "width", stageGetWidth, nil)
	virtual(a, s, "height", stageGetHeight, nil)

	a.Avm().Globals().DefineValue("Stage", avm1.ObjectValue(s), avm1.AttrDontEnum)
}

func stageGetAlign(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return avm1.Str(a.Ctx().Stage.Align()), nil
}

// Invalid alignment strings reset to the default, matching the player.
func stageSetAlign(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	v := argString(a, args, 0).ToUTF8()
	if !stageAlignValues[v] {
		v = ""
	}
	a.Ctx().Stage.SetAlign(v)
	return avm1.Undefined, nil
}

func stageGetScaleMode(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return avm1.Str(a.Ctx().Stage.ScaleMode()), nil
}

func stageSetScaleMode(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	mode, ok := stageScaleModes[argString(a, args, 0).ToLowercase().ToUTF8()]
	if !ok {
		mode = "showAll"
	}
	a.Ctx().Stage.SetScaleMode(mode)
	return avm1.Undefined, nil
}

func stageGetWidth(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return avm1.Number(a.Ctx().Stage.StageWidth()), nil
}

func stageGetHeight(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	return avm1.Number(a.Ctx().Stage.StageHeight()), nil
}

// broadcastTo fires an event through a broadcaster singleton on
// _global; missing singletons are ignored so partial installs stay
// safe.
func broadcastTo(a *avm1.Activation, singleton, event string, args []avm1.Value) {
	v, err := avm1.Get(a, a.Avm().Globals(), wstr.FromUTF8(singleton))
	if err != nil || !v.IsObject() {
		return
	}
	payload := append([]avm1.Value{avm1.Str(event)}, args...)
	if _, err := avm1.CallMethod(a, v.AsObject(), wstr.FromUTF8("broadcastMessage"), v, payload); err != nil {
		a.Ctx().Log.Warning("broadcast %s.%s failed: %v", singleton, event, err)
	}
}

// NotifyStageResize is called by the player after the host resizes the
// stage in noScale mode.
func NotifyStageResize(a *avm1.Activation) {
	broadcastTo(a, "Stage", "onResize", nil)
}
