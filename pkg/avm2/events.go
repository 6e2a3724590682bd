package avm2

import (
	"sort"

	"lantern/pkg/gc"
)

// Event phases, script-visible on the event object.
const (
	CapturingPhase = 1
	AtTargetPhase  = 2
	BubblingPhase  = 3
)

// EventData is the native payload of an Event instance.
type EventData struct {
	Type       string
	Bubbles    bool
	Cancelable bool

	Target        Value
	CurrentTarget Value
	Phase         int

	stopped          bool
	stoppedImmediate bool
	defaultPrevented bool
}

// StopPropagation ends dispatch after the current node's listeners.
func (e *EventData) StopPropagation() { e.stopped = true }

// StopImmediatePropagation ends dispatch before the next listener.
func (e *EventData) StopImmediatePropagation() {
	e.stopped = true
	e.stoppedImmediate = true
}

// PreventDefault cancels the default behavior of cancelable events.
func (e *EventData) PreventDefault() {
	if e.Cancelable {
		e.defaultPrevented = true
	}
}

// DefaultPrevented reports a successful preventDefault.
func (e *EventData) DefaultPrevented() bool { return e.defaultPrevented }

// NewEventData builds a plain event payload.
func NewEventData(eventType string, bubbles, cancelable bool) *EventData {
	return &EventData{Type: eventType, Bubbles: bubbles, Cancelable: cancelable}
}

// asEvent extracts an event payload.
func asEvent(o Object) *EventData {
	if o == nil {
		return nil
	}
	ed, _ := o.NativeData().(*EventData)
	return ed
}

// AsEventData is the exported payload downcast for the globals
// packages.
func AsEventData(o Object) *EventData { return asEvent(o) }

// AsDispatcherData is the exported registry downcast for the globals
// packages.
func AsDispatcherData(o Object) *EventDispatcherData { return asDispatcher(o) }

// eventListener is one registration. Dispatch order is priority
// descending, ties by registration order.
type eventListener struct {
	callback   Object
	useCapture bool
	priority   int
	seq        int
}

// EventDispatcherData is the native payload behind every event target:
// the listener registry keyed by event type.
type EventDispatcherData struct {
	listeners map[string][]eventListener
	nextSeq   int
}

// NewEventDispatcherData returns an empty registry.
func NewEventDispatcherData() *EventDispatcherData {
	return &EventDispatcherData{}
}

// asDispatcher walks the native payload for the registry; stage
// objects embed it next to their display pairing.
func asDispatcher(o Object) *EventDispatcherData {
	if o == nil {
		return nil
	}
	switch d := o.NativeData().(type) {
	case *EventDispatcherData:
		return d
	case interface{ Dispatcher() *EventDispatcherData }:
		return d.Dispatcher()
	}
	return nil
}

// AddListener registers a callback. Re-adding the same callback with
// the same capture setting is a no-op, per the published behavior.
func (d *EventDispatcherData) AddListener(eventType string, callback Object, useCapture bool, priority int) {
	if callback == nil {
		return
	}
	if d.listeners == nil {
		d.listeners = make(map[string][]eventListener)
	}
	for _, l := range d.listeners[eventType] {
		if l.callback == callback && l.useCapture == useCapture {
			return
		}
	}
	d.nextSeq++
	list := append(d.listeners[eventType], eventListener{
		callback:   callback,
		useCapture: useCapture,
		priority:   priority,
		seq:        d.nextSeq,
	})
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].priority != list[j].priority {
			return list[i].priority > list[j].priority
		}
		return list[i].seq < list[j].seq
	})
	d.listeners[eventType] = list
}

// RemoveListener drops a registration.
func (d *EventDispatcherData) RemoveListener(eventType string, callback Object, useCapture bool) {
	list := d.listeners[eventType]
	for i, l := range list {
		if l.callback == callback && l.useCapture == useCapture {
			d.listeners[eventType] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// HasListener reports a registration for the type on this target.
func (d *EventDispatcherData) HasListener(eventType string) bool {
	return len(d.listeners[eventType]) > 0
}

func (d *EventDispatcherData) trace(t *gc.Tracer) {
	for _, list := range d.listeners {
		for _, l := range list {
			t.Visit(l.callback)
		}
	}
}

// displayAncestry is implemented by object variants paired with a
// display node; it yields script objects root-first, excluding the
// target itself.
type displayAncestry interface {
	AncestorObjects(a *Activation) []Object
}

// DispatchEvent runs the three-phase dispatch: capture listeners down
// the ancestor chain, the target's own listeners, then bubble
// listeners back up when the event bubbles. It reports true unless a
// cancelable default was prevented.
func DispatchEvent(a *Activation, target Object, eventObj Object) (bool, error) {
	ev := asEvent(eventObj)
	if ev == nil {
		return false, typeError("dispatchEvent requires an Event")
	}
	ev.Target = ObjectValue(target)
	ev.stopped = false
	ev.stoppedImmediate = false

	var ancestors []Object
	if da, ok := target.(displayAncestry); ok {
		ancestors = da.AncestorObjects(a)
	}

	// Capture phase, outermost first.
	ev.Phase = CapturingPhase
	for _, node := range ancestors {
		if ev.stopped {
			break
		}
		if err := invokeListeners(a, node, eventObj, ev, true); err != nil {
			return false, err
		}
	}

	if !ev.stopped {
		ev.Phase = AtTargetPhase
		// Only bubble-side registrations fire at the target. A listener
		// added with useCapture on the target object never runs during
		// any phase of its own dispatch.
		if err := invokeListeners(a, target, eventObj, ev, false); err != nil {
			return false, err
		}
	}

	if ev.Bubbles && !ev.stopped {
		ev.Phase = BubblingPhase
		for i := len(ancestors) - 1; i >= 0; i-- {
			if ev.stopped {
				break
			}
			if err := invokeListeners(a, ancestors[i], eventObj, ev, false); err != nil {
				return false, err
			}
		}
	}
	return !ev.defaultPrevented, nil
}

// invokeListeners runs one node's listeners for the event's phase.
// Capture registrations fire only during the capture phase, never at
// the target.
func invokeListeners(a *Activation, node Object, eventObj Object, ev *EventData, capture bool) error {
	d := asDispatcher(node)
	if d == nil {
		return nil
	}
	list := d.listeners[ev.Type]
	if len(list) == 0 {
		return nil
	}
	ev.CurrentTarget = ObjectValue(node)
	// Snapshot: mutations from inside a listener do not affect this
	// dispatch pass.
	snapshot := make([]eventListener, len(list))
	copy(snapshot, list)
	for _, l := range snapshot {
		if ev.stoppedImmediate {
			break
		}
		if l.useCapture != capture {
			continue
		}
		if _, err := l.callback.Call(a, ObjectValue(node), []Value{ObjectValue(eventObj)}); err != nil {
			verr := asVMError(err)
			if !verr.Catchable() {
				return verr
			}
			a.Avm().ReportUncaught("event listener for "+ev.Type, verr)
		}
	}
	return nil
}
