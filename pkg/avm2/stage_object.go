package avm2

import (
	"lantern/pkg/display"
	"lantern/pkg/gc"
)

// StageObject pairs a script object with a display node and carries
// the listener registry, so every display object is an event target.
// Unlike the first VM there are no magic path properties; the display
// classes expose position and friends as accessor traits.
type StageObject struct {
	*ScriptObject
	node       display.Node
	dispatcher *EventDispatcherData
}

// NewStageObject binds a node. The caller wires the node's
// back-pointer.
func NewStageObject(a *Activation, cls *Class, node display.Node, proto Value) *StageObject {
	return &StageObject{
		ScriptObject: NewScriptObject(a, cls, proto),
		node:         node,
		dispatcher:   NewEventDispatcherData(),
	}
}

func (s *StageObject) Trace(t *gc.Tracer) {
	s.ScriptObject.Trace(t)
	if s.node != nil {
		t.Visit(s.node)
	}
	s.dispatcher.trace(t)
}

// Node returns the bound display node, nil for off-stage dispatchers.
func (s *StageObject) Node() display.Node { return s.node }

// Dispatcher exposes the listener registry to the dispatch machinery.
func (s *StageObject) Dispatcher() *EventDispatcherData { return s.dispatcher }

func (s *StageObject) NativeData() any { return s }

// AncestorObjects returns the script objects of the display ancestors,
// root first, binding any that have none yet.
func (s *StageObject) AncestorObjects(a *Activation) []Object {
	if s.node == nil {
		return nil
	}
	nodes := display.Ancestors(s.node)
	out := make([]Object, 0, len(nodes))
	// Ancestors come innermost-first; dispatch wants root-first.
	for i := len(nodes) - 1; i >= 0; i-- {
		if _, isStage := nodes[i].(*display.Stage); isStage {
			continue
		}
		out = append(out, a.Avm().BindDisplayObject(a, nodes[i]))
	}
	return out
}

// asStageObject downcasts.
func asStageObject(o Object) *StageObject {
	so, _ := o.(*StageObject)
	return so
}

// AsStageObject is the exported downcast for the globals packages.
func AsStageObject(o Object) *StageObject { return asStageObject(o) }

// BindDisplayObject creates (or returns) the stage object for a
// display node and wires the back-pointers both ways. The class is
// picked by node kind so instances answer istype correctly.
func (m *Avm2) BindDisplayObject(a *Activation, node display.Node) Object {
	if existing, ok := node.ScriptObject().(*StageObject); ok && existing != nil {
		return existing
	}
	clsName := "DisplayObject"
	switch node.(type) {
	case *display.MovieClip:
		clsName = "MovieClip"
	case *display.TextFieldNode:
		clsName = "TextField"
	}
	cls := m.classes[clsName]
	proto := m.prototypes.Object
	if cls != nil && cls.classObject != nil {
		proto = ObjectValue(cls.classObject.prototype)
	}
	so := NewStageObject(a, cls, node, proto)
	node.SetScriptObject(Object(so))
	return so
}
