package avm1

import (
	"math/rand"
	"time"

	"lantern/pkg/display"
	"lantern/pkg/gc"
	"lantern/pkg/host"
	"lantern/pkg/wstr"
)

// Prototypes holds the canonical prototype objects installed at
// startup. Builtins register here so boxing and literals can reach them
// without name lookup.
type Prototypes struct {
	Object   *ScriptObject
	Function *ScriptObject
	Array    *ScriptObject
	String   *ScriptObject
	Number   *ScriptObject
	Boolean  *ScriptObject
	Date     *ScriptObject
	Error    *ScriptObject
	MovieClip *ScriptObject
	TextField *ScriptObject
}

// Avm1 is the first-generation VM. One instance exists per loaded
// movie; all state hangs off it or the Context, never off package
// globals.
type Avm1 struct {
	ctx          *Context
	swfVersion   uint8
	globals      *ScriptObject
	prototypes   Prototypes
	displayProps *displayPropertyMap
	constantPool []wstr.WStr
	callDepth    int
	maxRecursion int
	rootScope    *Scope
	focusRect    bool
	soundBufTime int
	startTime    time.Time
	rng          *rand.Rand
	registered   map[string]Object
	pendingFetch map[string]func(a *Activation, resp host.Response)
	callbacks    map[string]ExternalCallback
}

// ExternalCallback is a script function exposed to the container.
type ExternalCallback func(a *Activation, args []Value) Value

// RegisterExternalCallback exposes a script function under a
// host-visible name.
func (m *Avm1) RegisterExternalCallback(name string, cb ExternalCallback) {
	if m.callbacks == nil {
		m.callbacks = make(map[string]ExternalCallback)
	}
	m.callbacks[name] = cb
}

// ExternalCallback returns the registration for name, or nil.
func (m *Avm1) ExternalCallback(name string) ExternalCallback {
	return m.callbacks[name]
}

// AwaitFetch registers a delivery callback for an in-flight request.
func (m *Avm1) AwaitFetch(requestID string, deliver func(a *Activation, resp host.Response)) {
	if m.pendingFetch == nil {
		m.pendingFetch = make(map[string]func(a *Activation, resp host.Response))
	}
	m.pendingFetch[requestID] = deliver
}

// DeliverResponse routes a completed fetch to its waiter. The player
// calls this for every response drained from the navigator each tick.
func (m *Avm1) DeliverResponse(a *Activation, resp host.Response) bool {
	deliver, ok := m.pendingFetch[resp.RequestID]
	if !ok {
		return false
	}
	delete(m.pendingFetch, resp.RequestID)
	deliver(a, resp)
	return true
}

// RegisterClass binds a library symbol name to a constructor, so clips
// instantiated from that symbol construct through it. Nil unbinds.
func (m *Avm1) RegisterClass(name string, ctor Object) {
	if m.registered == nil {
		m.registered = make(map[string]Object)
	}
	if ctor == nil {
		delete(m.registered, name)
		return
	}
	m.registered[name] = ctor
}

// RegisteredClass looks up a symbol constructor bound by registerClass.
func (m *Avm1) RegisteredClass(name string) Object {
	return m.registered[name]
}

// Options tunes the VM limits.
type Options struct {
	SwfVersion   uint8
	MaxRecursion int
}

// NewAvm1 boots the VM: base prototypes, the global object, and the
// root scope. installGlobals populates the built-in library; it runs
// with a bootstrap activation.
func NewAvm1(ctx *Context, opts Options, installGlobals func(a *Activation)) *Avm1 {
	maxRecursion := opts.MaxRecursion
	if maxRecursion <= 0 {
		maxRecursion = 255
	}
	avm := &Avm1{
		ctx:          ctx,
		swfVersion:   opts.SwfVersion,
		maxRecursion: maxRecursion,
		focusRect:    true,
		soundBufTime: 5,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if ctx.Clock != nil {
		avm.startTime = ctx.Clock.Now()
	}
	avm.displayProps = newDisplayPropertyMap()

	boot := &Activation{avm: avm, ctx: ctx, name: "[boot]"}

	objectProto := newScriptObjectRaw(ctx.Arena, Undefined, boot)
	functionProto := newScriptObjectRaw(ctx.Arena, ObjectValue(objectProto), boot)
	avm.prototypes.Object = objectProto
	avm.prototypes.Function = functionProto

	avm.globals = newScriptObjectRaw(ctx.Arena, Undefined, boot)
	ctx.Arena.AddRoot(avm.globals)
	ctx.Arena.AddRoot(objectProto)
	ctx.Arena.AddRoot(functionProto)

	avm.rootScope = NewGlobalScope(avm.globals)
	boot.scope = avm.rootScope

	if installGlobals != nil {
		installGlobals(boot)
	}
	return avm
}

// Globals returns the _global object.
func (m *Avm1) Globals() *ScriptObject { return m.globals }

// ProtoFor returns the registered prototypes record for builtins to
// fill in.
func (m *Avm1) ProtoFor() *Prototypes { return &m.prototypes }

// DisplayProps exposes the magical display property table.
func (m *Avm1) DisplayProps() *displayPropertyMap { return m.displayProps }

// NewActivation creates a root activation targeting a clip. Frame
// actions and event handlers run here.
func (m *Avm1) NewActivation(name string, clip display.Node) *Activation {
	scope := m.rootScope
	this := Value(Undefined)
	if clip != nil {
		if obj, ok := clip.ScriptObject().(Object); ok && obj != nil {
			scope = scope.ChildScope(ScopeTarget, obj)
			this = ObjectValue(obj)
		}
	}
	return &Activation{
		avm:          m,
		ctx:          m.ctx,
		scope:        scope,
		constantPool: m.constantPool,
		this:         this,
		baseClip:     clip,
		targetClip:   clip,
		name:         name,
	}
}

// RunActionBuffer executes a frame/event action block in the context of
// a clip. Errors are handled per the failure model: thrown values and
// limits abort the block, are logged, and the VM keeps running.
func (m *Avm1) RunActionBuffer(name string, clip display.Node, data []byte) {
	a := m.NewActivation(name, clip)
	if err := interpret(a, data); err != nil {
		m.logScriptError(name, err)
	}
}

func (m *Avm1) logScriptError(name string, err error) {
	if m.ctx.Log == nil {
		return
	}
	if e, ok := err.(*Error); ok && e.Kind == ErrThrown {
		m.ctx.Log.Warning("uncaught thrown value in %s", name)
		return
	}
	m.ctx.Log.Error("script error in %s: %v", name, err)
}

// boxPrimitive wraps a primitive in its wrapper class via the global
// constructor; a bare value object when the class is missing.
func (m *Avm1) boxPrimitive(a *Activation, v Value, className string) Object {
	ctorVal, err := Get(a, m.globals, wstr.FromUTF8(className))
	if err == nil {
		if ctor := ctorVal.AsObject(); ctor != nil && asFunction(ctor) != nil {
			boxed, err := ctor.Construct(a, []Value{v})
			if err == nil && boxed.kind == KindObject {
				return boxed.o
			}
		}
	}
	vo := NewValueObject(a, v, ObjectValue(m.prototypes.Object))
	return vo
}

// BindClip creates (or returns) the stage object for a display node and
// wires the back-pointers both ways.
func (m *Avm1) BindClip(a *Activation, node display.Node) *StageObject {
	if existing, ok := node.ScriptObject().(*StageObject); ok && existing != nil {
		return existing
	}
	proto := m.prototypes.MovieClip
	if proto == nil {
		proto = m.prototypes.Object
	}
	so := NewStageObject(a, node, ObjectValue(proto))
	node.SetScriptObject(Object(so))
	return so
}

// ElapsedMs reports milliseconds since the VM booted (getTimer).
func (m *Avm1) ElapsedMs() float64 {
	if m.ctx.Clock == nil {
		return 0
	}
	return float64(m.ctx.Clock.Now().Sub(m.startTime).Milliseconds())
}

// Random draws from the VM's deterministic-seedable source.
func (m *Avm1) Random() float64 { return m.rng.Float64() }

// Trace routes trace() output to the host log.
func (m *Avm1) Trace(message string) {
	if m.ctx.Log != nil {
		m.ctx.Log.Trace(message)
	}
}

var _ gc.Traceable = (*ScriptObject)(nil)
