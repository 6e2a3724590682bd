package player

import (
	"encoding/binary"
	"reflect"
	"testing"

	"lantern/pkg/amf"
	"lantern/pkg/avm1"
	"lantern/pkg/avm2"
	"lantern/pkg/display"
	"lantern/pkg/host"
	"lantern/pkg/wstr"
)

// traceBytes assembles a legacy action buffer that traces each string.
func traceBytes(messages ...string) []byte {
	var buf []byte
	for _, msg := range messages {
		payload := append([]byte{0}, []byte(msg)...)
		payload = append(payload, 0)
		buf = append(buf, 0x96)
		var size [2]byte
		binary.LittleEndian.PutUint16(size[:], uint16(len(payload)))
		buf = append(buf, size[:]...)
		buf = append(buf, payload...)
		buf = append(buf, 0x26)
	}
	return append(buf, 0x00)
}

func testPlayer(t *testing.T) (*Player, *host.CaptureLog) {
	t.Helper()
	log := &host.CaptureLog{}
	p, err := New(Config{}, Hosts{
		Log:   log,
		Clock: &host.FixedClock{},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p, log
}

func TestTimerTableFiresInDueOrder(t *testing.T) {
	tt := newTimerTable()
	var fired []string
	tt.Add(30, false, func() { fired = append(fired, "c") })
	tt.Add(10, false, func() { fired = append(fired, "a") })
	tt.Add(10, false, func() { fired = append(fired, "b") })
	tt.Add(50, false, func() { fired = append(fired, "late") })

	tt.advance(40)
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(fired, want) {
		t.Fatalf("fired %v, want %v", fired, want)
	}
	tt.advance(60)
	if got := fired[len(fired)-1]; got != "late" {
		t.Fatalf("last fired %q, want late", got)
	}
}

func TestTimerTableRepeatingReschedules(t *testing.T) {
	tt := newTimerTable()
	count := 0
	id := tt.Add(10, true, func() { count++ })

	tt.advance(10)
	tt.advance(20)
	tt.advance(30)
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
	if !tt.Remove(id) {
		t.Fatal("Remove reported missing entry")
	}
	tt.advance(100)
	if count != 3 {
		t.Fatalf("count after remove = %d, want 3", count)
	}
}

func TestTimerTableRemoveDuringFire(t *testing.T) {
	tt := newTimerTable()
	var fired []string
	var second int
	tt.Add(5, false, func() {
		fired = append(fired, "first")
		tt.Remove(second)
	})
	second = tt.Add(5, false, func() { fired = append(fired, "second") })

	tt.advance(10)
	if !reflect.DeepEqual(fired, []string{"first"}) {
		t.Fatalf("fired %v, want [first]", fired)
	}
}

func TestLooksLikeABC(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"abc header", []byte{0x10, 0x00, 0x2e, 0x00}, true},
		{"legacy actions", traceBytes("x"), false},
		{"short", []byte{0x10, 0x00}, false},
		{"empty", nil, false},
		{"wrong major", []byte{0x10, 0x00, 0x2d, 0x00}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := looksLikeABC(tt.data); got != tt.want {
				t.Fatalf("looksLikeABC = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOriginOf(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://example.com/game.swf?v=2", "http://example.com"},
		{"https://example.com:8080/a/b.swf", "https://example.com:8080"},
		{"file:///home/me/movie.swf", "file:///home/me/movie.swf"},
		{"movie.swf?cache=1", "movie.swf"},
	}
	for _, tt := range tests {
		if got := originOf(tt.url); got != tt.want {
			t.Errorf("originOf(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{StageWidth: 800}.withDefaults()
	if cfg.StageWidth != 800 {
		t.Fatalf("StageWidth = %v, want 800", cfg.StageWidth)
	}
	if cfg.StageHeight != 400 {
		t.Fatalf("StageHeight = %v, want default 400", cfg.StageHeight)
	}
	if cfg.MaxRecursion != 256 {
		t.Fatalf("MaxRecursion = %v, want default 256", cfg.MaxRecursion)
	}
}

func TestLoadMovieRunsLegacyActions(t *testing.T) {
	p, log := testPlayer(t)
	if err := p.LoadMovie(traceBytes("hello"), "http://example.com/m.swf", nil); err != nil {
		t.Fatalf("LoadMovie: %v", err)
	}
	if !reflect.DeepEqual(log.Traces, []string{"hello"}) {
		t.Fatalf("traces %v, want [hello]", log.Traces)
	}
	if p.Stage().Root() == nil {
		t.Fatal("no root clip after LoadMovie")
	}
}

func TestTickRunsFrameScriptsInDepthOrder(t *testing.T) {
	p, log := testPlayer(t)
	if err := p.LoadMovie(traceBytes(), "m.swf", nil); err != nil {
		t.Fatalf("LoadMovie: %v", err)
	}
	root := p.Stage().Root()
	child := display.NewMovieClip("child", 1, 1)
	root.AddChild(child)

	p.AddFrameScript(root, 1, traceBytes("root"))
	p.AddFrameScript(child, 1, traceBytes("child"))

	p.Tick(1000.0 / 24)
	want := []string{"root", "child"}
	if !reflect.DeepEqual(log.Traces, want) {
		t.Fatalf("traces %v, want %v", log.Traces, want)
	}
}

func TestTickFiresDueTimers(t *testing.T) {
	p, _ := testPlayer(t)
	if err := p.LoadMovie(traceBytes(), "m.swf", nil); err != nil {
		t.Fatalf("LoadMovie: %v", err)
	}
	var fired []string
	p.timers.Add(20, false, func() { fired = append(fired, "b") })
	p.timers.Add(10, false, func() { fired = append(fired, "a") })

	p.Tick(50)
	if !reflect.DeepEqual(fired, []string{"a", "b"}) {
		t.Fatalf("fired %v, want [a b]", fired)
	}
}

func TestStopFlagHaltsTicking(t *testing.T) {
	p, log := testPlayer(t)
	if err := p.LoadMovie(traceBytes(), "m.swf", nil); err != nil {
		t.Fatalf("LoadMovie: %v", err)
	}
	p.AddFrameScript(p.Stage().Root(), 1, traceBytes("tick"))

	p.Tick(42)
	if len(log.Traces) != 1 {
		t.Fatalf("traces before stop = %v", log.Traces)
	}
	p.SetStopFlag(true)
	p.Tick(42)
	if len(log.Traces) != 1 {
		t.Fatalf("tick ran while stopped: %v", log.Traces)
	}
	p.SetStopFlag(false)
	p.Tick(42)
	if len(log.Traces) != 2 {
		t.Fatalf("tick did not resume: %v", log.Traces)
	}
}

func TestParamsBecomeRootVariables(t *testing.T) {
	p, log := testPlayer(t)
	// trace(mode) reads the flashvars-style parameter off the root.
	buf := []byte{0x96, 0x06, 0x00, 0x00, 'm', 'o', 'd', 'e', 0x00, 0x1c, 0x26, 0x00}
	if err := p.LoadMovie(buf, "m.swf", map[string]string{"mode": "demo"}); err != nil {
		t.Fatalf("LoadMovie: %v", err)
	}
	if !reflect.DeepEqual(log.Traces, []string{"demo"}) {
		t.Fatalf("traces %v, want [demo]", log.Traces)
	}
}

func TestRegisterExternalCallbackRoutes(t *testing.T) {
	p, _ := testPlayer(t)
	if p.ctx1.ExternalCall != nil {
		t.Fatal("bridge installed before any registration")
	}
	p.RegisterExternalCallback("greet", func(args []amf.Value) amf.Value {
		return amf.String("hi " + args[0].AsString())
	})
	if p.ctx1.ExternalCall == nil || p.ctx2.ExternalCall == nil {
		t.Fatal("registration did not install the bridge on both contexts")
	}
	got := p.ctx1.ExternalCall("greet", []amf.Value{amf.String("there")})
	if got.AsString() != "hi there" {
		t.Fatalf("greet returned %v", got)
	}
	if got := p.ctx2.ExternalCall("missing", nil); got.Kind() != amf.KindUndefined {
		t.Fatalf("unknown callback returned %v, want undefined", got)
	}
}

// avm2Player wires a bound root clip and flips the player into
// class-based mode without going through an ABC load.
func avm2Player(t *testing.T) (*Player, *avm2.Activation, avm2.Object) {
	t.Helper()
	p, _ := testPlayer(t)
	root := display.NewMovieClip("root", 0, 1)
	p.stage.SetLevel(0, root)
	a := p.vm2.NewActivation("[test]")
	target := p.vm2.BindDisplayObject(a, root)
	if target == nil {
		t.Fatal("BindDisplayObject returned nil")
	}
	p.mode = modeAvm2
	return p, a, target
}

func TestHandleMouseWheelDispatchesMouseEvent(t *testing.T) {
	p, a, root := avm2Player(t)

	var deltas []float64
	d := avm2.AsDispatcherData(root)
	fn := avm2.NewFunctionObject(a, avm2.NewNativeMethod("mouseWheel", func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		v, err := avm2.GetProperty(a, args[0].AsObject(), avm2.PublicName("delta"))
		if err != nil {
			t.Errorf("delta read: %v", err)
		}
		deltas = append(deltas, v.AsNumberRaw())
		return avm2.Undefined, nil
	}))
	d.AddListener("mouseWheel", fn, false, 0)

	p.HandleMouseEvent("mouseMove", 12, 34)
	p.HandleMouseWheel(-3)
	if len(deltas) != 1 || deltas[0] != -3 {
		t.Fatalf("deltas = %v, want [-3]", deltas)
	}
}

func TestHandleMouseLeaveDispatchesOnRoot(t *testing.T) {
	p, a, root := avm2Player(t)

	var fired []string
	d := avm2.AsDispatcherData(root)
	fn := avm2.NewFunctionObject(a, avm2.NewNativeMethod("mouseLeave", func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		fired = append(fired, "mouseLeave")
		return avm2.Undefined, nil
	}))
	d.AddListener("mouseLeave", fn, false, 0)

	p.HandleMouseEvent("mouseMove", 10, 20)
	p.HandleMouseEvent("mouseLeave", 0, 0)
	if len(fired) != 1 {
		t.Fatalf("fired = %v, want one mouseLeave", fired)
	}
	if p.stage.MouseX() != 10 || p.stage.MouseY() != 20 {
		t.Fatalf("leave moved the pointer to (%v,%v)", p.stage.MouseX(), p.stage.MouseY())
	}
}

func TestHandleMouseWheelBroadcastsToLegacyListeners(t *testing.T) {
	p, _ := testPlayer(t)
	if err := p.LoadMovie(traceBytes("boot"), "m.swf", nil); err != nil {
		t.Fatalf("LoadMovie: %v", err)
	}
	a := p.vm1.NewActivation("[test]", p.stage.Root())
	mouseV, err := avm1.Get(a, p.vm1.Globals(), wstr.FromUTF8("Mouse"))
	if err != nil || !mouseV.IsObject() {
		t.Fatalf("Mouse global: %v %v", mouseV, err)
	}
	mouse := mouseV.AsObject()

	var deltas []float64
	l := avm1.NewScriptObject(a, avm1.Null)
	fn := avm1.NewNativeFunction(a, "onMouseWheel", func(a *avm1.Activation, this avm1.Object, args []avm1.Value) (avm1.Value, error) {
		deltas = append(deltas, args[0].CoerceToF64(a))
		return avm1.Undefined, nil
	})
	if err := avm1.Set(a, l, wstr.FromUTF8("onMouseWheel"), avm1.ObjectValue(fn)); err != nil {
		t.Fatalf("set handler: %v", err)
	}
	if _, err := avm1.CallMethod(a, mouse, wstr.FromUTF8("addListener"), mouseV, []avm1.Value{avm1.ObjectValue(l)}); err != nil {
		t.Fatalf("addListener: %v", err)
	}

	p.HandleMouseWheel(4)
	if len(deltas) != 1 || deltas[0] != 4 {
		t.Fatalf("deltas = %v, want [4]", deltas)
	}
}

func TestHandleGamepadAxisSynthesizesArrowKeys(t *testing.T) {
	p, _ := testPlayer(t)
	if err := p.LoadMovie(traceBytes("boot"), "m.swf", nil); err != nil {
		t.Fatalf("LoadMovie: %v", err)
	}
	a := p.vm1.NewActivation("[test]", p.stage.Root())
	keyV, err := avm1.Get(a, p.vm1.Globals(), wstr.FromUTF8("Key"))
	if err != nil || !keyV.IsObject() {
		t.Fatalf("Key global: %v %v", keyV, err)
	}
	key := keyV.AsObject()
	isDown := func(code int) bool {
		v, err := avm1.CallMethod(a, key, wstr.FromUTF8("isDown"), keyV, []avm1.Value{avm1.Number(float64(code))})
		if err != nil {
			t.Fatalf("isDown(%d): %v", code, err)
		}
		return v.AsBoolRaw()
	}

	p.HandleGamepadAxis("horizontal", -0.9)
	if !isDown(37) {
		t.Fatal("full left deflection did not press the left arrow")
	}
	p.HandleGamepadAxis("horizontal", 0.1)
	if isDown(37) || isDown(39) {
		t.Fatal("dead zone did not release the horizontal axis")
	}
	p.HandleGamepadAxis("vertical", 0.8)
	if !isDown(40) {
		t.Fatal("downward deflection did not press the down arrow")
	}
	p.HandleGamepadAxis("twist", 1)
	if isDown(37) || isDown(38) || isDown(39) {
		t.Fatal("unmapped axis pressed a key")
	}
}
