package globals

import (
	"fmt"
	"testing"

	"lantern/pkg/avm2"
	"lantern/pkg/display"
	"lantern/pkg/gc"
	"lantern/pkg/host"
	"lantern/pkg/wstr"
)

type timerEntry struct {
	delay     float64
	repeating bool
	fire      func()
}

type fakeScheduler struct {
	nextID  int
	entries map[int]timerEntry
}

func (s *fakeScheduler) Add(delayMs float64, repeating bool, fire func()) int {
	if s.entries == nil {
		s.entries = make(map[int]timerEntry)
	}
	s.nextID++
	s.entries[s.nextID] = timerEntry{delay: delayMs, repeating: repeating, fire: fire}
	return s.nextID
}

func (s *fakeScheduler) Remove(id int) bool {
	_, ok := s.entries[id]
	delete(s.entries, id)
	return ok
}

// fire runs every pending entry once, dropping one-shot entries.
func (s *fakeScheduler) fire() {
	for id, e := range s.entries {
		if !e.repeating {
			delete(s.entries, id)
		}
		e.fire()
	}
}

type fakeAudio struct {
	registered map[int][]byte
	started    []int
	stopped    []int
	volume     float64
	stoppedAll bool
	nextHandle int
}

func (f *fakeAudio) RegisterSound(id int, data []byte) {
	if f.registered == nil {
		f.registered = make(map[int][]byte)
	}
	f.registered[id] = data
}

func (f *fakeAudio) StartSound(id, loops int) int {
	f.nextHandle++
	f.started = append(f.started, id)
	return f.nextHandle
}

func (f *fakeAudio) StopSound(handle int)      { f.stopped = append(f.stopped, handle) }
func (f *fakeAudio) SetGlobalVolume(v float64) { f.volume = v }
func (f *fakeAudio) StopAll()                  { f.stoppedAll = true }

type fetchCall struct {
	url    string
	method string
}

type fakeNavigator struct {
	nextID  int
	fetches []fetchCall
	ids     []string
}

func (n *fakeNavigator) Fetch(url, method string, headers map[string]string, body []byte) string {
	n.nextID++
	id := fmt.Sprintf("req-%d", n.nextID)
	n.fetches = append(n.fetches, fetchCall{url: url, method: method})
	n.ids = append(n.ids, id)
	return id
}

func (n *fakeNavigator) Poll() []host.Response { return nil }

type testEnv struct {
	log   *host.CaptureLog
	sched *fakeScheduler
	audio *fakeAudio
	nav   *fakeNavigator
	clock *host.FixedClock
	ctx   *avm2.Context
}

// testVM boots a VM with the full builtin library over fake host
// backends.
func testVM() (*avm2.Avm2, *avm2.Activation, *testEnv) {
	stage := display.NewStage(550, 400)
	root := display.NewMovieClip("root", 0, 1)
	stage.SetLevel(0, root)
	env := &testEnv{
		log:   &host.CaptureLog{},
		sched: &fakeScheduler{},
		audio: &fakeAudio{},
		nav:   &fakeNavigator{},
		clock: &host.FixedClock{},
	}
	env.ctx = &avm2.Context{
		Arena:     gc.NewArena(gc.Options{}),
		Stage:     stage,
		Log:       env.log,
		Audio:     env.audio,
		Storage:   host.NewMemoryStorage(),
		Scheduler: env.sched,
		Navigator: env.nav,
		Clock:     env.clock,
		Interner:  wstr.NewInterner(1024),
		Origin:    "test.local",
	}
	avm := avm2.NewAvm2(env.ctx, avm2.Options{}, Install)
	return avm, avm.NewActivation("[test]"), env
}

// construct runs `new ClassName(args...)` for a registered builtin.
func construct(t *testing.T, a *avm2.Activation, className string, args ...avm2.Value) avm2.Object {
	t.Helper()
	cls := a.Avm().ClassByName(className)
	if cls == nil {
		t.Fatalf("class %q not registered", className)
	}
	obj, err := cls.ClassObject().Construct(a, args)
	if err != nil {
		t.Fatalf("new %s: %v", className, err)
	}
	return obj
}

// getProp reads a public property, failing on error.
func getProp(t *testing.T, a *avm2.Activation, obj avm2.Object, name string) avm2.Value {
	t.Helper()
	v, err := avm2.GetProperty(a, obj, avm2.PublicName(name))
	if err != nil {
		t.Fatalf("get %s: %v", name, err)
	}
	return v
}

// callProp invokes a public method, failing on error.
func callProp(t *testing.T, a *avm2.Activation, obj avm2.Object, name string, args ...avm2.Value) avm2.Value {
	t.Helper()
	v, err := avm2.CallProperty(a, obj, avm2.PublicName(name), args)
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	return v
}

// callGlobal invokes a loose toplevel function.
func callGlobal(t *testing.T, a *avm2.Activation, name string, args ...avm2.Value) avm2.Value {
	t.Helper()
	fnVal, err := avm2.GetProperty(a, a.Avm().Globals(), avm2.PublicName(name))
	if err != nil {
		t.Fatalf("global %s: %v", name, err)
	}
	fn := fnVal.AsObject()
	if fn == nil {
		t.Fatalf("global %s is not callable", name)
	}
	out, err := fn.Call(a, avm2.Undefined, args)
	if err != nil {
		t.Fatalf("%s(...): %v", name, err)
	}
	return out
}

// utf8 flattens a string value for assertions.
func utf8(t *testing.T, a *avm2.Activation, v avm2.Value) string {
	t.Helper()
	s, err := v.CoerceToString(a)
	if err != nil {
		t.Fatalf("coerce to string: %v", err)
	}
	return s.ToUTF8()
}

// listenTo registers a recording native listener for an event type.
func listenTo(a *avm2.Activation, target avm2.Object, eventType string, log *[]string) {
	d := avm2.AsDispatcherData(target)
	fn := avm2.NewFunctionObject(a, avm2.NewNativeMethod(eventType, func(a *avm2.Activation, this avm2.Value, args []avm2.Value) (avm2.Value, error) {
		*log = append(*log, eventType)
		return avm2.Undefined, nil
	}))
	d.AddListener(eventType, fn, false, 0)
}
