// Package player is the embedding facade: it owns the arena, the stage,
// both VMs, and the timer table, and drives them from a host-called
// Tick loop. The host hands it movie script buffers and input events;
// everything else happens behind LoadMovie and Tick.
package player

import (
	"net/url"
	"strings"

	"lantern/pkg/amf"
	"lantern/pkg/avm1"
	avm1globals "lantern/pkg/avm1/globals"
	"lantern/pkg/avm2"
	avm2globals "lantern/pkg/avm2/globals"
	"lantern/pkg/display"
	"lantern/pkg/gc"
	"lantern/pkg/host"
	"lantern/pkg/wstr"
)

// Hosts collects the platform backends. Nil fields get null or in-memory
// defaults, so tests can pass a zero value.
type Hosts struct {
	Log       host.Log
	Renderer  host.Renderer
	Audio     host.Audio
	UI        host.UI
	Storage   host.Storage
	Navigator host.Navigator
	Clock     host.Clock

	// ExternalCall bridges ExternalInterface.call out to the container.
	// Nil leaves ExternalInterface.available false.
	ExternalCall func(name string, args []amf.Value) amf.Value
}

type movieMode int

const (
	modeNone movieMode = iota
	modeAvm1
	modeAvm2
)

// Player wires the scripting core to a host. One Player runs one movie.
type Player struct {
	cfg      Config
	log      host.Log
	renderer host.Renderer
	nav      host.Navigator

	arena  *gc.Arena
	stage  *display.Stage
	timers *timerTable

	ctx1 *avm1.Context
	ctx2 *avm2.Context
	vm1  *avm1.Avm1
	vm2  *avm2.Avm2

	mode       movieMode
	elapsedMs  float64
	stopped    bool
	inTick     bool
	inUncaught bool
	queued     []func()

	external         map[string]func(args []amf.Value) amf.Value
	externalFallback func(name string, args []amf.Value) amf.Value
}

// New builds a player from config and host backends. The VMs boot
// immediately so callbacks registered before LoadMovie still work.
func New(cfg Config, hosts Hosts) (*Player, error) {
	cfg = cfg.withDefaults()

	log := hosts.Log
	if log == nil {
		log = host.NewCommonLog("lantern")
	}
	clock := hosts.Clock
	if clock == nil {
		clock = host.SystemClock{}
	}
	renderer := hosts.Renderer
	if renderer == nil {
		renderer = host.NullRenderer{}
	}
	audio := hosts.Audio
	if audio == nil {
		audio = &host.NullAudio{}
	}
	ui := hosts.UI
	if ui == nil {
		ui = &host.NullUI{}
	}
	nav := hosts.Navigator
	if nav == nil {
		nav = &host.NullNavigator{}
	}
	storage := hosts.Storage
	if storage == nil {
		if cfg.StoragePath != "" {
			s, err := host.OpenSqliteStorage(cfg.StoragePath)
			if err != nil {
				return nil, err
			}
			storage = s
		} else {
			storage = host.NewMemoryStorage()
		}
	}

	p := &Player{
		cfg:      cfg,
		log:      log,
		renderer: renderer,
		nav:      nav,
		timers:   newTimerTable(),

		externalFallback: hosts.ExternalCall,
	}
	p.arena = gc.NewArena(gc.Options{
		Capacity: cfg.ArenaCapacity,
		Logf:     log.Debug,
	})
	p.stage = display.NewStage(cfg.StageWidth, cfg.StageHeight)
	p.stage.SetQuality(cfg.Quality)
	interner := wstr.NewInterner(cfg.InternLimit)
	stopFlag := func() bool { return p.stopped }

	p.ctx1 = &avm1.Context{
		Arena:        p.arena,
		Stage:        p.stage,
		Log:          log,
		UI:           ui,
		Audio:        audio,
		Storage:      storage,
		Navigator:    nav,
		Clock:        clock,
		Scheduler:    p.timers,
		Interner:     interner,
		ExternalCall: hosts.ExternalCall,
		StopFlag:     stopFlag,
		Budget:       cfg.frameBudget(),
	}
	p.ctx2 = &avm2.Context{
		Arena:        p.arena,
		Stage:        p.stage,
		Log:          log,
		UI:           ui,
		Audio:        audio,
		Storage:      storage,
		Navigator:    nav,
		Clock:        clock,
		Scheduler:    p.timers,
		Interner:     interner,
		ExternalCall: hosts.ExternalCall,
		StopFlag:     stopFlag,
		Budget:       cfg.frameBudget(),
	}
	p.ctx2.UncaughtError = p.dispatchUncaught

	p.vm1 = avm1.NewAvm1(p.ctx1, avm1.Options{
		SwfVersion:   uint8(cfg.SwfVersion),
		MaxRecursion: cfg.MaxRecursion,
	}, avm1globals.Install)
	p.vm2 = avm2.NewAvm2(p.ctx2, avm2.Options{
		MaxRecursion: cfg.MaxRecursion,
	}, avm2globals.Install)
	return p, nil
}

// Stage exposes the display tree the host renders from.
func (p *Player) Stage() *display.Stage { return p.stage }

// Avm1 exposes the legacy VM for hosts that feed per-frame action
// buffers directly.
func (p *Player) Avm1() *avm1.Avm1 { return p.vm1 }

// Avm2 exposes the class-based VM.
func (p *Player) Avm2() *avm2.Avm2 { return p.vm2 }

// looksLikeABC sniffs a script block: an ABC unit opens with minor then
// major version as little-endian u16s, and the major is pinned at 46.
func looksLikeABC(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	major := uint16(data[2]) | uint16(data[3])<<8
	return major == 46
}

// originOf reduces a movie URL to the origin string keying shared
// objects: scheme and host, or the path sans query for local files.
func originOf(movieURL string) string {
	u, err := url.Parse(movieURL)
	if err != nil || u.Scheme == "" {
		if i := strings.IndexByte(movieURL, '?'); i >= 0 {
			return movieURL[:i]
		}
		return movieURL
	}
	if u.Host != "" {
		return u.Scheme + "://" + u.Host
	}
	return u.Scheme + "://" + u.Path
}

// LoadMovie installs the main script buffer. ABC units run on the
// class-based VM; anything else is treated as a frame action block for
// the root timeline. params become root variables (legacy) or the
// global parameters object (class-based).
func (p *Player) LoadMovie(data []byte, movieURL string, params map[string]string) error {
	p.ctx1.MovieURL = movieURL
	p.ctx2.MovieURL = movieURL
	origin := originOf(movieURL)
	p.ctx1.Origin = origin
	p.ctx2.Origin = origin

	root := display.NewMovieClip("root", 0, 1)
	root.SetURL(movieURL)
	p.stage.SetLevel(0, root)

	if looksLikeABC(data) {
		p.mode = modeAvm2
		a := p.vm2.NewActivation("[load]")
		p.ctx2.BeginSlice()
		p.vm2.BindDisplayObject(a, root)
		if len(params) > 0 {
			obj := avm2.NewScriptObject(a, nil, p.vm2.ProtoFor().Object)
			for k, v := range params {
				obj.SetDynamic(k, avm2.Str(v))
			}
			p.vm2.DefineGlobalValue("parameters", avm2.ObjectValue(obj))
		}
		_, err := p.vm2.LoadABC(a, data, nil)
		return err
	}

	p.mode = modeAvm1
	a := p.vm1.NewActivation("[load]", root)
	p.ctx1.BeginSlice()
	so := p.vm1.BindClip(a, root)
	for k, v := range params {
		if err := avm1.Set(a, so, wstr.FromUTF8(k), avm1.Str(v)); err != nil {
			return err
		}
	}
	p.vm1.RunActionBuffer("[frame 1]", root, data)
	return nil
}

// AddFrameScript attaches a script to a timeline frame (1-based) of a
// clip: an action buffer for the legacy VM, a closure object for the
// class-based VM. Tick runs it whenever the playhead enters that frame.
func (p *Player) AddFrameScript(clip *display.MovieClip, frame int, script any) {
	clip.AddFrameScript(frame, script)
}

// Tick advances player time by deltaMs and runs one frame: timeline
// scripts in depth order, then due timers in due order, then completed
// network responses. Input is dispatched as it arrives via the Handle
// methods, before the host calls Tick.
func (p *Player) Tick(deltaMs float64) {
	if p.stopped || p.mode == modeNone {
		return
	}
	p.elapsedMs += deltaMs
	p.inTick = true

	for _, node := range p.stage.Children() {
		p.advanceClips(node)
	}
	p.timers.advance(p.elapsedMs)
	p.pollNetwork()

	p.inTick = false
	for len(p.queued) > 0 {
		queued := p.queued
		p.queued = nil
		for _, fn := range queued {
			fn()
		}
	}
	p.arena.CollectIfNeeded()
}

// deferInput holds back an input event that arrives while a tick is in
// progress. Deferred events run after frame scripts and timers but
// before Tick returns, preserving arrival order.
func (p *Player) deferInput(fn func()) bool {
	if !p.inTick {
		return false
	}
	p.queued = append(p.queued, fn)
	return true
}

// advanceClips walks the tree depth-first in child order, stepping every
// playing timeline and running the scripts of the frame it landed on.
func (p *Player) advanceClips(node display.Node) {
	if mc, ok := node.(*display.MovieClip); ok {
		frame := mc.CurrentFrame()
		if mc.Playing() {
			frame = mc.AdvanceFrame()
		}
		p.runFrame(mc, frame)
	}
	if container, ok := node.(interface{ Children() []display.Node }); ok {
		for _, child := range container.Children() {
			p.advanceClips(child)
		}
	}
}

func (p *Player) runFrame(mc *display.MovieClip, frame int) {
	switch p.mode {
	case modeAvm1:
		p.ctx1.BeginSlice()
		a := p.vm1.NewActivation("[enterFrame]", mc)
		so := p.vm1.BindClip(a, mc)
		if handler, err := avm1.Get(a, so, wstr.FromUTF8("onEnterFrame")); err == nil {
			if fn := handler.AsObject(); fn != nil {
				if _, err := fn.Call(a, avm1.ObjectValue(so), nil); err != nil {
					p.log.Error("script error in onEnterFrame: %v", err)
				}
			}
		}
		for _, script := range mc.FrameScripts(frame) {
			if data, ok := script.([]byte); ok {
				p.ctx1.BeginSlice()
				p.vm1.RunActionBuffer("[frame]", mc, data)
			}
		}
	case modeAvm2:
		p.ctx2.BeginSlice()
		a := p.vm2.NewActivation("[enterFrame]")
		target := p.vm2.BindDisplayObject(a, mc)
		if ev := p.newEvent(a, "Event", avm2.Str("enterFrame")); ev != nil {
			if _, err := avm2.DispatchEvent(a, target, ev); err != nil {
				p.vm2.ReportUncaught("enterFrame", err)
			}
		}
		for _, script := range mc.FrameScripts(frame) {
			fn, ok := script.(avm2.Object)
			if !ok {
				continue
			}
			p.ctx2.BeginSlice()
			if _, err := fn.Call(a, avm2.ObjectValue(target), nil); err != nil {
				p.vm2.ReportUncaught("frame script", err)
			}
		}
	}
}

// pollNetwork drains completed fetches and hands each response to
// whichever VM issued the request.
func (p *Player) pollNetwork() {
	for _, resp := range p.nav.Poll() {
		switch p.mode {
		case modeAvm1:
			p.ctx1.BeginSlice()
			a := p.vm1.NewActivation("[network]", p.stage.Root())
			if !p.vm1.DeliverResponse(a, resp) {
				p.log.Debug("dropped response for unknown request %s", resp.RequestID)
			}
		case modeAvm2:
			p.ctx2.BeginSlice()
			a := p.vm2.NewActivation("[network]")
			if !p.vm2.DeliverResponse(a, resp) {
				p.log.Debug("dropped response for unknown request %s", resp.RequestID)
			}
		}
	}
}

// newEvent constructs an instance of a builtin event class. A missing
// class (globals not installed) yields nil.
func (p *Player) newEvent(a *avm2.Activation, className string, args ...avm2.Value) avm2.Object {
	cls := p.vm2.ClassByName(className)
	if cls == nil {
		return nil
	}
	ev, err := cls.ClassObject().Construct(a, args)
	if err != nil {
		p.vm2.ReportUncaught("event construction", err)
		return nil
	}
	return ev
}

// HandleMouseEvent reports a pointer transition. kind is one of
// "mouseDown", "mouseUp", "mouseMove", "mouseLeave"; x and y are stage
// coordinates, ignored for leave.
func (p *Player) HandleMouseEvent(kind string, x, y float64) {
	if p.deferInput(func() { p.HandleMouseEvent(kind, x, y) }) {
		return
	}
	if kind != "mouseLeave" {
		p.stage.SetMousePosition(x, y)
	}
	switch p.mode {
	case modeAvm1:
		p.ctx1.BeginSlice()
		a := p.vm1.NewActivation("[mouse]", p.stage.Root())
		switch kind {
		case "mouseDown":
			avm1globals.NotifyMouseDown(a)
		case "mouseUp":
			avm1globals.NotifyMouseUp(a)
		case "mouseMove":
			avm1globals.NotifyMouseMove(a)
		case "mouseLeave":
			// The legacy Mouse broadcaster has no leave message.
		}
	case modeAvm2:
		p.ctx2.BeginSlice()
		a := p.vm2.NewActivation("[mouse]")
		if kind == "mouseLeave" {
			root := p.stage.Root()
			if root == nil {
				return
			}
			target := p.vm2.BindDisplayObject(a, root)
			ev := p.newEvent(a, "Event",
				avm2.Str("mouseLeave"), avm2.Bool(false), avm2.Bool(false))
			if ev == nil {
				return
			}
			if _, err := avm2.DispatchEvent(a, target, ev); err != nil {
				p.vm2.ReportUncaught("mouse event", err)
			}
			return
		}
		target := p.mouseTarget(a)
		if target == nil {
			return
		}
		ev := p.newEvent(a, "MouseEvent",
			avm2.Str(kind), avm2.Bool(true), avm2.Bool(false),
			avm2.Number(x), avm2.Number(y), avm2.Null,
			avm2.Bool(kind == "mouseDown"))
		if ev == nil {
			return
		}
		if _, err := avm2.DispatchEvent(a, target, ev); err != nil {
			p.vm2.ReportUncaught("mouse event", err)
		}
	}
}

// HandleMouseWheel reports scroll-wheel motion at the current pointer
// position. delta is lines scrolled, positive toward the top.
func (p *Player) HandleMouseWheel(delta float64) {
	if p.deferInput(func() { p.HandleMouseWheel(delta) }) {
		return
	}
	switch p.mode {
	case modeAvm1:
		p.ctx1.BeginSlice()
		a := p.vm1.NewActivation("[mouse]", p.stage.Root())
		path := ""
		if node := p.stage.Focus(); node != nil {
			path = display.Path(node)
		}
		avm1globals.NotifyMouseWheel(a, delta, path)
	case modeAvm2:
		p.ctx2.BeginSlice()
		a := p.vm2.NewActivation("[mouse]")
		target := p.mouseTarget(a)
		if target == nil {
			return
		}
		ev := p.newEvent(a, "MouseEvent",
			avm2.Str("mouseWheel"), avm2.Bool(true), avm2.Bool(false),
			avm2.Number(p.stage.MouseX()), avm2.Number(p.stage.MouseY()),
			avm2.Null, avm2.Bool(false), avm2.Number(delta))
		if ev == nil {
			return
		}
		if _, err := avm2.DispatchEvent(a, target, ev); err != nil {
			p.vm2.ReportUncaught("mouse event", err)
		}
	}
}

// HandleKeyEvent reports a key transition. kind is "keyDown" or
// "keyUp"; code is the key code, ascii the character code.
func (p *Player) HandleKeyEvent(kind string, code, ascii int) {
	if p.deferInput(func() { p.HandleKeyEvent(kind, code, ascii) }) {
		return
	}
	switch p.mode {
	case modeAvm1:
		p.ctx1.BeginSlice()
		a := p.vm1.NewActivation("[key]", p.stage.Root())
		if kind == "keyDown" {
			avm1globals.NotifyKeyDown(a, code, ascii)
		} else {
			avm1globals.NotifyKeyUp(a, code)
		}
	case modeAvm2:
		p.ctx2.BeginSlice()
		a := p.vm2.NewActivation("[key]")
		target := p.focusTarget(a)
		if target == nil {
			return
		}
		ev := p.newEvent(a, "KeyboardEvent",
			avm2.Str(kind), avm2.Bool(true), avm2.Bool(false),
			avm2.Integer(int32(ascii)), avm2.Integer(int32(code)))
		if ev == nil {
			return
		}
		if _, err := avm2.DispatchEvent(a, target, ev); err != nil {
			p.vm2.ReportUncaught("keyboard event", err)
		}
	}
}

// HandleTextInput reports committed text going to the focused field.
func (p *Player) HandleTextInput(text string) {
	if p.deferInput(func() { p.HandleTextInput(text) }) {
		return
	}
	if tf, ok := p.stage.Focus().(*display.TextFieldNode); ok && tf != nil {
		tf.SetText(tf.Text() + text)
	}
	if p.mode != modeAvm2 {
		return
	}
	p.ctx2.BeginSlice()
	a := p.vm2.NewActivation("[textInput]")
	target := p.focusTarget(a)
	if target == nil {
		return
	}
	ev := p.newEvent(a, "TextEvent",
		avm2.Str("textInput"), avm2.Bool(true), avm2.Bool(true),
		avm2.Str(text))
	if ev == nil {
		return
	}
	if _, err := avm2.DispatchEvent(a, target, ev); err != nil {
		p.vm2.ReportUncaught("text input", err)
	}
}

// HandleTextControl reports an editing command on the focused field.
// Only "backspace" mutates the model; selection movement is the host
// text engine's business.
func (p *Player) HandleTextControl(action string) {
	if p.deferInput(func() { p.HandleTextControl(action) }) {
		return
	}
	tf, ok := p.stage.Focus().(*display.TextFieldNode)
	if !ok || tf == nil {
		return
	}
	if action == "backspace" {
		if t := tf.Text(); t != "" {
			r := []rune(t)
			tf.SetText(string(r[:len(r)-1]))
		}
	}
}

// HandleGamepadEvent maps a controller button to the key codes movies
// actually listen for, so content written for keyboards keeps working.
func (p *Player) HandleGamepadEvent(button string, pressed bool) {
	code, ok := gamepadKeyCodes[button]
	if !ok {
		p.log.Debug("unmapped gamepad button %q", button)
		return
	}
	kind := "keyUp"
	if pressed {
		kind = "keyDown"
	}
	p.HandleKeyEvent(kind, code, 0)
}

// HandleGamepadAxis reports analog stick motion, synthesized as arrow
// key transitions: pushing past the threshold presses that end of the
// axis, returning inside the dead zone releases both ends.
func (p *Player) HandleGamepadAxis(axis string, value float64) {
	codes, ok := gamepadAxisKeys[axis]
	if !ok {
		p.log.Debug("unmapped gamepad axis %q", axis)
		return
	}
	const threshold = 0.5
	switch {
	case value <= -threshold:
		p.HandleKeyEvent("keyDown", codes[0], 0)
	case value >= threshold:
		p.HandleKeyEvent("keyDown", codes[1], 0)
	default:
		p.HandleKeyEvent("keyUp", codes[0], 0)
		p.HandleKeyEvent("keyUp", codes[1], 0)
	}
}

// gamepadAxisKeys maps an axis to the key codes at its negative and
// positive ends.
var gamepadAxisKeys = map[string][2]int{
	"horizontal": {37, 39}, // left, right
	"vertical":   {38, 40}, // up, down
}

var gamepadKeyCodes = map[string]int{
	"up":     38,
	"down":   40,
	"left":   37,
	"right":  39,
	"a":      13, // enter
	"b":      27, // escape
	"x":      32, // space
	"start":  13,
	"select": 9, // tab
}

// RegisterExternalCallback exposes a container-side function to the
// movie under the given name. Registering at least one callback makes
// ExternalInterface available; named callbacks take precedence over the
// Hosts.ExternalCall catch-all.
func (p *Player) RegisterExternalCallback(name string, fn func(args []amf.Value) amf.Value) {
	if p.external == nil {
		p.external = make(map[string]func(args []amf.Value) amf.Value)
	}
	p.external[name] = fn
	p.ctx1.ExternalCall = p.routeExternalCall
	p.ctx2.ExternalCall = p.routeExternalCall
}

func (p *Player) routeExternalCall(name string, args []amf.Value) amf.Value {
	if fn, ok := p.external[name]; ok {
		return fn(args)
	}
	if p.externalFallback != nil {
		return p.externalFallback(name, args)
	}
	return amf.Undefined
}

// CallExternal invokes a callback the movie registered through
// ExternalInterface.addCallback, on whichever VM holds it.
func (p *Player) CallExternal(name string, args []amf.Value) (amf.Value, bool) {
	switch p.mode {
	case modeAvm1:
		p.ctx1.BeginSlice()
		a := p.vm1.NewActivation("[external]", p.stage.Root())
		return avm1globals.CallRegisteredCallback(a, name, args)
	case modeAvm2:
		p.ctx2.BeginSlice()
		a := p.vm2.NewActivation("[external]")
		return avm2globals.CallRegisteredCallback(a, name, args)
	}
	return amf.Value{}, false
}

// SetStopFlag requests cooperative cancellation: running scripts abort
// at the next opcode boundary and Tick becomes a no-op until cleared.
func (p *Player) SetStopFlag(stop bool) { p.stopped = stop }

// dispatchUncaught is the class-based VM's last-resort error hook: the
// event loop stays alive, listeners on the root get an uncaughtError
// event, and the error itself was already logged by the VM.
func (p *Player) dispatchUncaught(verr *avm2.Error) {
	if p.inUncaught {
		return
	}
	root := p.stage.Root()
	if root == nil {
		return
	}
	p.inUncaught = true
	defer func() { p.inUncaught = false }()

	a := p.vm2.NewActivation("[uncaughtError]")
	target := p.vm2.BindDisplayObject(a, root)
	ev := p.newEvent(a, "UncaughtErrorEvent",
		avm2.Str("uncaughtError"), avm2.Bool(true), avm2.Bool(true),
		avm2.Str(verr.Message))
	if ev == nil {
		return
	}
	if verr.Kind == avm2.ErrThrown {
		ev.Base().SetDynamic("error", verr.Thrown)
	} else {
		ev.Base().SetDynamic("error", avm2.Str(verr.Message))
	}
	if _, err := avm2.DispatchEvent(a, target, ev); err != nil {
		p.log.Error("error listener failed: %v", err)
	}
}

// mouseTarget resolves the object receiving pointer events: the focused
// node if any, else the root timeline.
func (p *Player) mouseTarget(a *avm2.Activation) avm2.Object {
	if node := p.stage.Focus(); node != nil {
		return p.vm2.BindDisplayObject(a, node)
	}
	if root := p.stage.Root(); root != nil {
		return p.vm2.BindDisplayObject(a, root)
	}
	return nil
}

func (p *Player) focusTarget(a *avm2.Activation) avm2.Object {
	return p.mouseTarget(a)
}

var _ host.Scheduler = (*timerTable)(nil)
