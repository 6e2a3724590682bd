package avm1

import (
	"math"
	"strconv"
	"strings"

	"lantern/pkg/display"
	"lantern/pkg/gc"
	"lantern/pkg/wstr"
)

// StageObject pairs a script object with a display node. Property
// resolution interleaves script properties with path magicals, named
// children, and the display property table, in that order.
type StageObject struct {
	*ScriptObject
	node display.Node
}

// NewStageObject binds a node. The caller wires the node's back-pointer.
func NewStageObject(a *Activation, node display.Node, proto Value) *StageObject {
	return &StageObject{
		ScriptObject: NewScriptObject(a, proto),
		node:         node,
	}
}

func (s *StageObject) Trace(t *gc.Tracer) {
	s.ScriptObject.Trace(t)
	// The display node is host-owned; tracing visits it so objects bound
	// to children stay live, but the arena never frees it.
	t.Visit(s.node)
}

// Node returns the bound display node.
func (s *StageObject) Node() display.Node { return s.node }

// TargetPath renders the slash path for _target and string coercion.
func (s *StageObject) TargetPath() string { return display.Path(s.node) }

func (s *StageObject) GetLocalStored(a *Activation, name wstr.WStr) (Value, bool) {
	// 1) Actual properties live in the base table and were already
	// consulted by the generic walk; checking again is harmless and
	// keeps this usable standalone.
	if v, ok := s.ScriptObject.GetLocalStored(a, name); ok {
		return v, true
	}

	magic := name.At(0) == '_'

	// 2) Path magicals (_root, _parent, _levelN, _global); these follow
	// the movie's case sensitivity.
	if magic {
		if v, ok := s.resolvePathProperty(a, name); ok {
			return v, true
		}
	}

	// 3) Named children.
	if container, ok := s.node.(display.Container); ok {
		if child := container.ChildByName(name.ToUTF8(), a.IsCaseSensitive()); child != nil {
			obj := a.Avm().BindClip(a, child)
			return ObjectValue(obj), true
		}
	}

	// 4) Display properties such as _x; never case sensitive.
	if magic {
		if prop := a.Avm().displayProps.byName(name); prop != nil {
			return prop.get(a, s.node), true
		}
	}

	return Undefined, false
}

func (s *StageObject) resolvePathProperty(a *Activation, name wstr.WStr) (Value, bool) {
	eq := func(what string) bool {
		w := wstr.FromUTF8(what)
		if a.IsCaseSensitive() {
			return name.Eq(w)
		}
		return name.EqIgnoreCase(w)
	}
	switch {
	case eq("_root"):
		if root := a.Ctx().Stage.Root(); root != nil {
			return ObjectValue(a.Avm().BindClip(a, root)), true
		}
	case eq("_parent"):
		if parent := s.node.Parent(); parent != nil {
			if _, isStage := parent.(*display.Stage); !isStage {
				return ObjectValue(a.Avm().BindClip(a, parent)), true
			}
		}
		return Undefined, true
	case eq("_global"):
		return ObjectValue(a.Avm().Globals()), true
	}
	lower := strings.ToLower(name.ToUTF8())
	if strings.HasPrefix(lower, "_level") {
		if n, err := strconv.Atoi(lower[len("_level"):]); err == nil {
			if clip := a.Ctx().Stage.Level(n); clip != nil {
				return ObjectValue(a.Avm().BindClip(a, clip)), true
			}
			return Undefined, true
		}
	}
	return Undefined, false
}

func (s *StageObject) SetLocal(a *Activation, name wstr.WStr, v Value, this Object) error {
	// Text field variable bindings fire on every store of the bound
	// name.
	if tf, ok := s.node.(*display.TextFieldNode); ok && tf.Variable() != "" {
		bound := wstr.FromUTF8(tf.Variable())
		match := bound.Eq(name)
		if !a.IsCaseSensitive() {
			match = bound.EqIgnoreCase(name)
		}
		if match {
			tf.SetText(v.CoerceToString(a).ToUTF8())
		}
	}

	if s.ScriptObject.HasOwn(a, name) {
		return s.ScriptObject.SetLocal(a, name, v, this)
	}
	if name.At(0) == '_' {
		if prop := a.Avm().displayProps.byName(name); prop != nil {
			if prop.set != nil {
				prop.set(a, s.node, v)
			}
			return nil
		}
	}
	return s.ScriptObject.SetLocal(a, name, v, this)
}

func (s *StageObject) NativeData() any { return s }

// asStage downcasts.
func asStage(o Object) *StageObject {
	so, _ := o.(*StageObject)
	return so
}

// AsStage is the exported downcast.
func AsStage(o Object) *StageObject { return asStage(o) }

// --- The magical display property table ---

type displayGetter func(a *Activation, node display.Node) Value
type displaySetter func(a *Activation, node display.Node, v Value)

type displayProperty struct {
	name string
	get  displayGetter
	set  displaySetter
}

// displayPropertyMap is ordered: indices match the published
// GetProperty/SetProperty numbering.
type displayPropertyMap struct {
	props  []*displayProperty
	byFold map[string]*displayProperty
}

func (m *displayPropertyMap) add(name string, get displayGetter, set displaySetter) {
	p := &displayProperty{name: name, get: get, set: set}
	m.props = append(m.props, p)
	m.byFold[strings.ToLower(name)] = p
}

// byName looks a property up; display properties are case insensitive
// regardless of movie version.
func (m *displayPropertyMap) byName(name wstr.WStr) *displayProperty {
	return m.byFold[strings.ToLower(name.ToUTF8())]
}

// byIndex addresses the table by the GetProperty opcode index.
func (m *displayPropertyMap) byIndex(i int) *displayProperty {
	if i < 0 || i >= len(m.props) {
		return nil
	}
	return m.props[i]
}

// propertyCoerceToNumber is the setter coercion: NaN means "no change".
func propertyCoerceToNumber(a *Activation, v Value) (float64, bool) {
	n := v.CoerceToF64(a)
	if math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

func asMovieClip(node display.Node) *display.MovieClip {
	mc, _ := node.(*display.MovieClip)
	return mc
}

func newDisplayPropertyMap() *displayPropertyMap {
	m := &displayPropertyMap{byFold: make(map[string]*displayProperty)}

	// Order matters: it is the GetProperty/SetProperty index space.
	m.add("_x",
		func(a *Activation, n display.Node) Value { return Number(n.X()) },
		func(a *Activation, n display.Node, v Value) {
			if f, ok := propertyCoerceToNumber(a, v); ok {
				n.SetX(f)
			}
		})
	m.add("_y",
		func(a *Activation, n display.Node) Value { return Number(n.Y()) },
		func(a *Activation, n display.Node, v Value) {
			if f, ok := propertyCoerceToNumber(a, v); ok {
				n.SetY(f)
			}
		})
	m.add("_xscale",
		func(a *Activation, n display.Node) Value { return Number(n.XScale()) },
		func(a *Activation, n display.Node, v Value) {
			if f, ok := propertyCoerceToNumber(a, v); ok {
				n.SetXScale(f)
			}
		})
	m.add("_yscale",
		func(a *Activation, n display.Node) Value { return Number(n.YScale()) },
		func(a *Activation, n display.Node, v Value) {
			if f, ok := propertyCoerceToNumber(a, v); ok {
				n.SetYScale(f)
			}
		})
	m.add("_currentframe",
		func(a *Activation, n display.Node) Value {
			if mc := asMovieClip(n); mc != nil {
				return Number(float64(mc.CurrentFrame()))
			}
			return Undefined
		}, nil)
	m.add("_totalframes",
		func(a *Activation, n display.Node) Value {
			if mc := asMovieClip(n); mc != nil {
				return Number(float64(mc.TotalFrames()))
			}
			return Undefined
		}, nil)
	m.add("_alpha",
		func(a *Activation, n display.Node) Value { return Number(n.Alpha()) },
		func(a *Activation, n display.Node, v Value) {
			if f, ok := propertyCoerceToNumber(a, v); ok {
				n.SetAlpha(f)
			}
		})
	m.add("_visible",
		func(a *Activation, n display.Node) Value { return Bool(n.Visible()) },
		func(a *Activation, n display.Node, v Value) {
			// `_visible = "false"` coerces to NaN and has no effect.
			if f, ok := propertyCoerceToNumber(a, v); ok {
				n.SetVisible(f != 0)
			}
		})
	m.add("_width",
		func(a *Activation, n display.Node) Value { return Number(n.Width()) },
		func(a *Activation, n display.Node, v Value) {
			if f, ok := propertyCoerceToNumber(a, v); ok {
				n.SetWidth(f)
			}
		})
	m.add("_height",
		func(a *Activation, n display.Node) Value { return Number(n.Height()) },
		func(a *Activation, n display.Node, v Value) {
			if f, ok := propertyCoerceToNumber(a, v); ok {
				n.SetHeight(f)
			}
		})
	m.add("_rotation",
		func(a *Activation, n display.Node) Value { return Number(n.Rotation()) },
		func(a *Activation, n display.Node, v Value) {
			if f, ok := propertyCoerceToNumber(a, v); ok {
				n.SetRotation(f)
			}
		})
	m.add("_target",
		func(a *Activation, n display.Node) Value { return Str(display.Path(n)) }, nil)
	m.add("_framesloaded",
		func(a *Activation, n display.Node) Value {
			if mc := asMovieClip(n); mc != nil {
				return Number(float64(mc.FramesLoaded()))
			}
			return Undefined
		}, nil)
	m.add("_name",
		func(a *Activation, n display.Node) Value { return Str(n.Name()) },
		func(a *Activation, n display.Node, v Value) {
			n.SetName(v.CoerceToString(a).ToUTF8())
		})
	m.add("_droptarget",
		func(a *Activation, n display.Node) Value {
			if mc := asMovieClip(n); mc != nil {
				return Str(mc.DropTarget())
			}
			return Str("")
		}, nil)
	m.add("_url",
		func(a *Activation, n display.Node) Value {
			if mc := asMovieClip(n); mc != nil && mc.URL() != "" {
				return Str(mc.URL())
			}
			return Str(a.Ctx().MovieURL)
		}, nil)
	m.add("_highquality",
		func(a *Activation, n display.Node) Value {
			switch a.Ctx().Stage.Quality() {
			case "BEST":
				return Number(2)
			case "HIGH":
				return Number(1)
			}
			return Number(0)
		},
		func(a *Activation, n display.Node, v Value) {
			switch int(v.CoerceToI32(a)) {
			case 2:
				a.Ctx().Stage.SetQuality("BEST")
			case 1:
				a.Ctx().Stage.SetQuality("HIGH")
			default:
				a.Ctx().Stage.SetQuality("LOW")
			}
		})
	m.add("_focusrect",
		func(a *Activation, n display.Node) Value { return Number(float64(boolToInt(a.avm.focusRect))) },
		func(a *Activation, n display.Node, v Value) {
			a.avm.focusRect = v.CoerceToBool(a)
		})
	m.add("_soundbuftime",
		func(a *Activation, n display.Node) Value { return Number(float64(a.avm.soundBufTime)) },
		func(a *Activation, n display.Node, v Value) {
			if f, ok := propertyCoerceToNumber(a, v); ok {
				a.avm.soundBufTime = int(f)
			}
		})
	m.add("_quality",
		func(a *Activation, n display.Node) Value { return Str(a.Ctx().Stage.Quality()) },
		func(a *Activation, n display.Node, v Value) {
			q := strings.ToUpper(v.CoerceToString(a).ToUTF8())
			switch q {
			case "LOW", "MEDIUM", "HIGH", "BEST":
				a.Ctx().Stage.SetQuality(q)
			}
		})
	m.add("_xmouse",
		func(a *Activation, n display.Node) Value { return Number(a.Ctx().Stage.MouseX() - n.X()) }, nil)
	m.add("_ymouse",
		func(a *Activation, n display.Node) Value { return Number(a.Ctx().Stage.MouseY() - n.Y()) }, nil)

	return m
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
