package globals

import (
	"fmt"
	"testing"

	"lantern/pkg/avm1"
	"lantern/pkg/display"
	"lantern/pkg/gc"
	"lantern/pkg/host"
	"lantern/pkg/wstr"
)

type memStorage struct {
	blobs map[string][]byte
}

func (m *memStorage) key(origin, name string) string { return origin + "/" + name }

func (m *memStorage) Load(origin, name string) ([]byte, bool, error) {
	b, ok := m.blobs[m.key(origin, name)]
	return b, ok, nil
}

func (m *memStorage) Save(origin, name string, data []byte) error {
	if m.blobs == nil {
		m.blobs = make(map[string][]byte)
	}
	m.blobs[m.key(origin, name)] = data
	return nil
}

func (m *memStorage) Delete(origin, name string) error {
	delete(m.blobs, m.key(origin, name))
	return nil
}

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

type fetchCall struct {
	url    string
	method string
	body   []byte
}

type fakeNavigator struct {
	nextID  int
	fetches []fetchCall
	ids     []string
}

func (n *fakeNavigator) Fetch(url, method string, headers map[string]string, body []byte) string {
	n.nextID++
	id := fmt.Sprintf("req-%d", n.nextID)
	n.fetches = append(n.fetches, fetchCall{url: url, method: method, body: body})
	n.ids = append(n.ids, id)
	return id
}

func (n *fakeNavigator) Poll() []host.Response { return nil }

type testEnv struct {
	log   *host.CaptureLog
	store *memStorage
	sched *fakeScheduler
	nav   *fakeNavigator
	clock *host.FixedClock
	ctx   *avm1.Context
}

// testVM boots a VM with the full builtin library over fake host
// backends.
func testVM(version uint8) (*avm1.Avm1, *avm1.Activation, *testEnv) {
	stage := display.NewStage(550, 400)
	root := display.NewMovieClip("", 0, 1)
	stage.SetLevel(0, root)
	env := &testEnv{
		log:   &host.CaptureLog{},
		store: &memStorage{},
		sched: &fakeScheduler{},
		nav:   &fakeNavigator{},
		clock: &host.FixedClock{},
	}
	env.ctx = &avm1.Context{
		Arena:     gc.NewArena(gc.Options{}),
		Stage:     stage,
		Log:       env.log,
		Storage:   env.store,
		Scheduler: env.sched,
		Navigator: env.nav,
		Clock:     env.clock,
		Interner:  wstr.NewInterner(1024),
		Origin:    "test.local",
	}
	avm := avm1.NewAvm1(env.ctx, avm1.Options{SwfVersion: version}, Install)
	boot := avm.NewActivation("[bind]", nil)
	avm.BindClip(boot, root)
	a := avm.NewActivation("[test]", root)
	return avm, a, env
}

func name(s string) wstr.WStr { return wstr.FromUTF8(s) }

// global fetches a value off _global, failing the test when missing.
func global(t *testing.T, a *avm1.Activation, path ...string) avm1.Value {
	t.Helper()
	v := avm1.ObjectValue(a.Avm().Globals())
	for _, p := range path {
		if !v.IsObject() {
			t.Fatalf("global %v: %q reached on a non-object", path, p)
		}
		next, err := avm1.Get(a, v.AsObject(), name(p))
		if err != nil {
			t.Fatalf("global %v: %v", path, err)
		}
		v = next
	}
	return v
}

// construct runs `new ClassName(args...)`.
func construct(t *testing.T, a *avm1.Activation, className string, args ...avm1.Value) avm1.Object {
	t.Helper()
	ctor := global(t, a, className)
	if !ctor.IsObject() {
		t.Fatalf("constructor %q missing", className)
	}
	out, err := ctor.AsObject().Construct(a, args)
	if err != nil {
		t.Fatalf("new %s: %v", className, err)
	}
	if !out.IsObject() {
		t.Fatalf("new %s: got %v", className, out.Kind())
	}
	return out.AsObject()
}

// call invokes obj.method(args...).
func call(t *testing.T, a *avm1.Activation, obj avm1.Object, methodName string, args ...avm1.Value) avm1.Value {
	t.Helper()
	out, err := avm1.CallMethod(a, obj, name(methodName), avm1.ObjectValue(obj), args)
	if err != nil {
		t.Fatalf("call %s: %v", methodName, err)
	}
	return out
}

func getProp(t *testing.T, a *avm1.Activation, obj avm1.Object, prop string) avm1.Value {
	t.Helper()
	v, err := avm1.Get(a, obj, name(prop))
	if err != nil {
		t.Fatalf("get %s: %v", prop, err)
	}
	return v
}

func setProp(t *testing.T, a *avm1.Activation, obj avm1.Object, prop string, v avm1.Value) {
	t.Helper()
	if err := avm1.Set(a, obj, name(prop), v); err != nil {
		t.Fatalf("set %s: %v", prop, err)
	}
}

func wantNumber(t *testing.T, v avm1.Value, want float64) {
	t.Helper()
	if !v.IsNumber() || v.AsNumberRaw() != want {
		t.Fatalf("got %v (%v), want %v", v, v.Kind(), want)
	}
}

func wantString(t *testing.T, a *avm1.Activation, v avm1.Value, want string) {
	t.Helper()
	if got := v.CoerceToString(a).ToUTF8(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func newArray(t *testing.T, a *avm1.Activation, elems ...avm1.Value) avm1.Object {
	t.Helper()
	return avm1.NewArrayObject(a, elems)
}

func arrayStrings(t *testing.T, a *avm1.Activation, obj avm1.Object) []string {
	t.Helper()
	arr := avm1.AsArray(obj)
	if arr == nil {
		t.Fatalf("not an array")
	}
	out := make([]string, arr.Length())
	for i := range out {
		out[i] = arr.Element(a, i).CoerceToString(a).ToUTF8()
	}
	return out
}

func wantStrings(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

// rootClip returns the level-0 clip's script object.
func rootClip(t *testing.T, a *avm1.Activation) avm1.Object {
	t.Helper()
	obj := a.TargetObject()
	if obj == nil {
		t.Fatal("no bound root clip")
	}
	return obj
}
