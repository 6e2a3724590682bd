package globals

import (
	"lantern/pkg/avm1"
	"lantern/pkg/wstr"
)

type broadcasterModule struct{}

func (broadcasterModule) Name() string  { return "AsBroadcaster" }
func (broadcasterModule) Priority() int { return PriorityBroadcast }

func (broadcasterModule) Install(a *avm1.Activation) {
	b := avm1.NewScriptObject(a, avm1.ObjectValue(a.Avm().ProtoFor().Object))
	method(a, b, "initialize", func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		if target := argObject(args, 0); target != nil {
			broadcasterInitialize(a, target)
		}
		return avm1.Undefined, nil
	})
	a.Avm().Globals().DefineValue("AsBroadcaster", avm1.ObjectValue(b), avm1.AttrDontEnum)
}

// broadcasterInitialize grafts the listener-list protocol onto an
// object: a _listeners array plus addListener, removeListener and
// broadcastMessage.
func broadcasterInitialize(a *avm1.Activation, target avm1.Object) {
	raw := target.Raw()
	raw.DefineValue("_listeners", avm1.ObjectValue(avm1.NewArrayObject(a, nil)), avm1.AttrDontEnum)
	method(a, raw, "addListener", broadcasterAddListener)
	method(a, raw, "removeListener", broadcasterRemoveListener)
	method(a, raw, "broadcastMessage", broadcasterBroadcast)
}

func listenersOf(a *avm1.Activation, this avm1.Object) avm1.Object {
	if this == nil {
		return nil
	}
	v, err := avm1.Get(a, this, wstr.FromUTF8("_listeners"))
	if err != nil || !v.IsObject() {
		return nil
	}
	return v.AsObject()
}

// addListener is idempotent: an already registered listener is removed
// first so it never fires twice.
func broadcasterAddListener(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	list := listenersOf(a, this)
	if list == nil || len(args) == 0 {
		return avm1.Bool(false), nil
	}
	broadcasterRemoveListener(a, this, args)
	n := avm1.LengthOf(a, list)
	avm1.SetElementOf(a, list, n, args[0])
	return avm1.Bool(true), nil
}

func broadcasterRemoveListener(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	list := listenersOf(a, this)
	if list == nil || len(args) == 0 {
		return avm1.Bool(false), nil
	}
	n := avm1.LengthOf(a, list)
	for i := 0; i < n; i++ {
		if avm1.StrictEquals(avm1.ElementOf(a, list, i), args[0]) {
			for j := i + 1; j < n; j++ {
				avm1.SetElementOf(a, list, j-1, avm1.ElementOf(a, list, j))
			}
			if arr := avm1.AsArray(list); arr != nil {
				arr.SetLength(a, n-1)
			}
			return avm1.Bool(true), nil
		}
	}
	return avm1.Bool(false), nil
}

// broadcastMessage dispatches over a snapshot, so listeners added or
// removed by a handler do not affect the current round.
func broadcasterBroadcast(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
	list := listenersOf(a, this)
	if list == nil || len(args) == 0 {
		return avm1.Undefined, nil
	}
	event := arg(args, 0).CoerceToString(a)
	var rest []avm1.Value
	if len(args) > 1 {
		rest = args[1:]
	}
	snapshot := arrayElements(a, list)
	for _, lv := range snapshot {
		listener := lv.AsObject()
		if listener == nil {
			continue
		}
		if _, err := avm1.CallMethod(a, listener, event, avm1.ObjectValue(listener), rest); err != nil {
			return avm1.Undefined, err
		}
	}
	return avm1.Undefined, nil
}
