// Package display provides the display-object tree handles the scripting
// core mutates. The per-frame tree update, rendering, and hit testing
// live with the host; the core only reads and writes the state carried
// here and walks parent/child links for event propagation and name
// lookup. Nodes carry a back-pointer to their script object; the GC
// traces through it without taking ownership.
package display

import (
	"fmt"
	"math"
	"strings"

	"lantern/pkg/gc"
)

// Node is the capability set every display object exposes to the VMs.
type Node interface {
	gc.Traceable

	Name() string
	SetName(name string)
	Depth() int
	Parent() Node
	X() float64
	SetX(v float64)
	Y() float64
	SetY(v float64)
	XScale() float64
	SetXScale(percent float64)
	YScale() float64
	SetYScale(percent float64)
	Rotation() float64
	SetRotation(degrees float64)
	Alpha() float64
	SetAlpha(percent float64)
	Visible() bool
	SetVisible(v bool)
	Width() float64
	SetWidth(v float64)
	Height() float64
	SetHeight(v float64)

	// ScriptObject is the core-side object bound to this node, opaque to
	// this package. The weak back-pointer lives on the script side.
	ScriptObject() any
	SetScriptObject(obj any)

	base() *Base
}

// Base carries the state shared by every node kind. Node types embed it.
type Base struct {
	name     string
	depth    int
	parent   Node
	x, y     float64
	xScale   float64 // percent, 100 = identity
	yScale   float64
	rotation float64 // degrees in [-180, 180)
	alpha    float64 // percent, 100 = opaque
	visible  bool
	width    float64 // untransformed bounds
	height   float64
	script   any
}

// NewBase returns a Base with identity transform defaults.
func NewBase(name string, depth int) Base {
	return Base{
		name:    name,
		depth:   depth,
		xScale:  100,
		yScale:  100,
		alpha:   100,
		visible: true,
	}
}

func (b *Base) base() *Base { return b }

func (b *Base) Name() string        { return b.name }
func (b *Base) SetName(name string) { b.name = name }
func (b *Base) Depth() int          { return b.depth }
func (b *Base) Parent() Node        { return b.parent }
func (b *Base) X() float64          { return b.x }
func (b *Base) SetX(v float64)      { b.x = v }
func (b *Base) Y() float64          { return b.y }
func (b *Base) SetY(v float64)      { b.y = v }
func (b *Base) XScale() float64     { return b.xScale }
func (b *Base) SetXScale(p float64) { b.xScale = p }
func (b *Base) YScale() float64     { return b.yScale }
func (b *Base) SetYScale(p float64) { b.yScale = p }
func (b *Base) Rotation() float64   { return b.rotation }

// SetRotation normalizes into [-180, 180), the range the runtime reports.
func (b *Base) SetRotation(degrees float64) {
	b.rotation = NormalizeRotation(degrees)
}

// NormalizeRotation maps any angle into [-180, 180). NaN passes through;
// the property setters treat it as "no change" before calling here.
func NormalizeRotation(degrees float64) float64 {
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return degrees
	}
	d := math.Mod(degrees, 360)
	if d >= 180 {
		d -= 360
	} else if d < -180 {
		d += 360
	}
	return d
}

func (b *Base) Alpha() float64      { return b.alpha }
func (b *Base) SetAlpha(p float64)  { b.alpha = p }
func (b *Base) Visible() bool       { return b.visible }
func (b *Base) SetVisible(v bool)   { b.visible = v }
func (b *Base) Width() float64      { return b.width * b.xScale / 100 }
func (b *Base) Height() float64     { return b.height * b.yScale / 100 }
func (b *Base) ScriptObject() any   { return b.script }
func (b *Base) SetScriptObject(o any) { b.script = o }

// SetWidth adjusts scale so the transformed bounds hit v, matching the
// runtime's width setter.
func (b *Base) SetWidth(v float64) {
	if b.width > 0 && !math.IsNaN(v) {
		b.xScale = v / b.width * 100
	}
}

func (b *Base) SetHeight(v float64) {
	if b.height > 0 && !math.IsNaN(v) {
		b.yScale = v / b.height * 100
	}
}

// SetBounds installs the untransformed bounds, normally done at
// instantiation from the character definition.
func (b *Base) SetBounds(w, h float64) {
	b.width = w
	b.height = h
}

// Trace visits the bound script object when it participates in the
// arena. Ownership stays with the host.
func (b *Base) Trace(t *gc.Tracer) {
	if tr, ok := b.script.(gc.Traceable); ok {
		t.Visit(tr)
	}
}

// Path renders the slash-notation target path ("/clip/child") used by
// the _target property and legacy tell-target addressing.
func Path(n Node) string {
	if n == nil {
		return ""
	}
	if n.Parent() == nil {
		return "/"
	}
	var parts []string
	for cur := n; cur != nil && cur.Parent() != nil; cur = cur.Parent() {
		parts = append(parts, cur.Name())
	}
	var sb strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		sb.WriteByte('/')
		sb.WriteString(parts[i])
	}
	return sb.String()
}

// Ancestors returns the parent chain of n from nearest to the root.
func Ancestors(n Node) []Node {
	var out []Node
	for cur := n.Parent(); cur != nil; cur = cur.Parent() {
		out = append(out, cur)
	}
	return out
}

// DebugName is used by log lines.
func DebugName(n Node) string {
	if n == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s(depth %d)", n.Name(), n.Depth())
}
