package display

import (
	"sort"
	"strings"

	"lantern/pkg/gc"
)

// Container is implemented by nodes that hold children.
type Container interface {
	Node
	ChildByName(name string, caseSensitive bool) Node
	Children() []Node
}

// MovieClip is the timeline node. Frames, children, and frame scripts
// live here; the timeline advance itself is driven by the player.
type MovieClip struct {
	Base
	url          string
	children     []Node // sorted by depth
	currentFrame int    // 1-based
	totalFrames  int
	framesLoaded int
	playing      bool
	dropTarget   string
	frameScripts map[int][]any // 1-based frame -> registered callables
	frameLabels  map[string]int
}

// NewMovieClip creates a stopped clip at frame 1.
func NewMovieClip(name string, depth, totalFrames int) *MovieClip {
	if totalFrames < 1 {
		totalFrames = 1
	}
	return &MovieClip{
		Base:         NewBase(name, depth),
		currentFrame: 1,
		totalFrames:  totalFrames,
		framesLoaded: totalFrames,
		playing:      true,
		frameScripts: make(map[int][]any),
		frameLabels:  make(map[string]int),
	}
}

func (m *MovieClip) Trace(t *gc.Tracer) {
	m.Base.Trace(t)
	for _, child := range m.children {
		t.Visit(child)
	}
	for _, scripts := range m.frameScripts {
		for _, fn := range scripts {
			if tr, ok := fn.(gc.Traceable); ok {
				t.Visit(tr)
			}
		}
	}
}

// AddChild inserts a child keeping depth order. An existing child at the
// same depth is replaced, which is how timeline re-instantiation behaves.
func (m *MovieClip) AddChild(child Node) {
	cb := child.base()
	cb.parent = m
	for i, existing := range m.children {
		if existing.Depth() == child.Depth() {
			m.children[i] = child
			return
		}
	}
	m.children = append(m.children, child)
	sort.SliceStable(m.children, func(i, j int) bool {
		return m.children[i].Depth() < m.children[j].Depth()
	})
}

// RemoveChild detaches a child.
func (m *MovieClip) RemoveChild(child Node) {
	for i, existing := range m.children {
		if existing == child {
			child.base().parent = nil
			m.children = append(m.children[:i], m.children[i+1:]...)
			return
		}
	}
}

// Children returns the depth-ordered child list. Callers must not mutate.
func (m *MovieClip) Children() []Node { return m.children }

// ChildByName finds a direct child. Case sensitivity follows the movie
// version; the caller decides.
func (m *MovieClip) ChildByName(name string, caseSensitive bool) Node {
	for _, child := range m.children {
		if caseSensitive {
			if child.Name() == name {
				return child
			}
		} else if strings.EqualFold(child.Name(), name) {
			return child
		}
	}
	return nil
}

func (m *MovieClip) CurrentFrame() int { return m.currentFrame }
func (m *MovieClip) TotalFrames() int  { return m.totalFrames }
func (m *MovieClip) FramesLoaded() int { return m.framesLoaded }
func (m *MovieClip) Playing() bool     { return m.playing }
func (m *MovieClip) URL() string       { return m.url }
func (m *MovieClip) SetURL(u string)   { m.url = u }
func (m *MovieClip) DropTarget() string { return m.dropTarget }

// Play resumes the timeline.
func (m *MovieClip) Play() { m.playing = true }

// Stop halts the timeline at the current frame.
func (m *MovieClip) Stop() { m.playing = false }

// GotoFrame jumps to a 1-based frame, clamping to the timeline.
func (m *MovieClip) GotoFrame(frame int, play bool) {
	if frame < 1 {
		frame = 1
	}
	if frame > m.totalFrames {
		frame = m.totalFrames
	}
	m.currentFrame = frame
	m.playing = play
}

// AdvanceFrame steps the playhead, looping at the end. Returns the new
// current frame.
func (m *MovieClip) AdvanceFrame() int {
	if m.playing {
		m.currentFrame++
		if m.currentFrame > m.totalFrames {
			m.currentFrame = 1
		}
	}
	return m.currentFrame
}

// SetFrameLabel names a frame for gotoAndPlay("label").
func (m *MovieClip) SetFrameLabel(label string, frame int) {
	m.frameLabels[label] = frame
}

// FrameForLabel resolves a label, 0 when unknown.
func (m *MovieClip) FrameForLabel(label string) int {
	return m.frameLabels[label]
}

// AddFrameScript registers a callable for a 1-based frame. Passing a nil
// fn clears the slot, matching the timeline API.
func (m *MovieClip) AddFrameScript(frame int, fn any) {
	if fn == nil {
		delete(m.frameScripts, frame)
		return
	}
	m.frameScripts[frame] = append(m.frameScripts[frame], fn)
}

// FrameScripts returns the callables registered for a frame.
func (m *MovieClip) FrameScripts(frame int) []any {
	return m.frameScripts[frame]
}

// Stage is the tree root. Level 0 holds the main movie; additional
// levels come from loadMovieNum.
type Stage struct {
	Base
	levels    map[int]*MovieClip
	align     string
	scaleMode string
	quality   string
	width     float64
	height    float64
	focus     Node
	mouseX    float64
	mouseY    float64
}

// NewStage creates a stage with the published defaults.
func NewStage(width, height float64) *Stage {
	return &Stage{
		Base:      NewBase("", 0),
		levels:    make(map[int]*MovieClip),
		align:     "",
		scaleMode: "showAll",
		quality:   "HIGH",
		width:     width,
		height:    height,
	}
}

func (s *Stage) Trace(t *gc.Tracer) {
	s.Base.Trace(t)
	for _, level := range s.levels {
		t.Visit(level)
	}
}

// SetLevel installs a movie at a level; level 0 is the root movie.
func (s *Stage) SetLevel(level int, clip *MovieClip) {
	clip.base().parent = s
	s.levels[level] = clip
}

// Level returns the clip at a level, or nil.
func (s *Stage) Level(level int) *MovieClip { return s.levels[level] }

// Root returns level 0.
func (s *Stage) Root() *MovieClip { return s.levels[0] }

// Children returns levels in ascending order.
func (s *Stage) Children() []Node {
	var keys []int
	for k := range s.levels {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]Node, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.levels[k])
	}
	return out
}

// ChildByName searches all levels.
func (s *Stage) ChildByName(name string, caseSensitive bool) Node {
	for _, level := range s.Children() {
		if caseSensitive {
			if level.Name() == name {
				return level
			}
		} else if strings.EqualFold(level.Name(), name) {
			return level
		}
	}
	return nil
}

func (s *Stage) Align() string         { return s.align }
func (s *Stage) SetAlign(a string)     { s.align = a }
func (s *Stage) ScaleMode() string     { return s.scaleMode }
func (s *Stage) SetScaleMode(m string) { s.scaleMode = m }
func (s *Stage) Quality() string       { return s.quality }
func (s *Stage) SetQuality(q string)   { s.quality = q }
func (s *Stage) StageWidth() float64   { return s.width }
func (s *Stage) StageHeight() float64  { return s.height }

// SetStageSize records a resize; the player broadcasts onResize.
func (s *Stage) SetStageSize(w, h float64) {
	s.width = w
	s.height = h
}

func (s *Stage) Focus() Node       { return s.focus }
func (s *Stage) SetFocus(n Node)   { s.focus = n }
func (s *Stage) MouseX() float64   { return s.mouseX }
func (s *Stage) MouseY() float64   { return s.mouseY }

// SetMousePosition records the pointer location for _xmouse/_ymouse.
func (s *Stage) SetMousePosition(x, y float64) {
	s.mouseX = x
	s.mouseY = y
}

// TextFieldNode is the edit-text node; the text engine is the host's,
// the script-facing state is here.
type TextFieldNode struct {
	Base
	text     string
	html     bool
	variable string
}

// NewTextField creates an empty text node.
func NewTextField(name string, depth int) *TextFieldNode {
	return &TextFieldNode{Base: NewBase(name, depth)}
}

func (t *TextFieldNode) Text() string          { return t.text }
func (t *TextFieldNode) SetText(s string)      { t.text = s }
func (t *TextFieldNode) HTML() bool            { return t.html }
func (t *TextFieldNode) SetHTML(h bool)        { t.html = h }
func (t *TextFieldNode) Variable() string      { return t.variable }
func (t *TextFieldNode) SetVariable(v string)  { t.variable = v }

// Shape and Bitmap are leaf nodes with no script-visible state beyond
// the base transform.
type Shape struct{ Base }

// NewShape creates a shape node.
func NewShape(name string, depth int) *Shape {
	return &Shape{Base: NewBase(name, depth)}
}

// Bitmap is a leaf node. PixelSnapping is stored but has no rendering
// effect here; the renderer owns that decision.
type Bitmap struct {
	Base
	pixelSnapping string
	smoothing     bool
}

// NewBitmap creates a bitmap node with the default snapping mode.
func NewBitmap(name string, depth int) *Bitmap {
	return &Bitmap{Base: NewBase(name, depth), pixelSnapping: "auto"}
}

func (b *Bitmap) PixelSnapping() string     { return b.pixelSnapping }
func (b *Bitmap) SetPixelSnapping(s string) { b.pixelSnapping = s }
func (b *Bitmap) Smoothing() bool           { return b.smoothing }
func (b *Bitmap) SetSmoothing(v bool)       { b.smoothing = v }
