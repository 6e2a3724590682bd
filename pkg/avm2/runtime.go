package avm2

import (
	"math/rand"
	"time"

	"lantern/pkg/abc"
	"lantern/pkg/gc"
	"lantern/pkg/host"
)

// Prototypes holds the canonical prototype values installed at startup.
// Builtins register here so boxing and literal construction can reach
// them without a name lookup.
type Prototypes struct {
	Object     Value
	Function   Value
	Class      Value
	Array      Value
	String     Value
	Number     Value
	Boolean    Value
	Date       Value
	Error      Value
	RegExp     Value
	XML        Value
	XMLList    Value
	Namespace  Value
	QName      Value
	Vector     Value
	ByteArray  Value
	Dictionary Value
}

// Avm2 is the second-generation VM. One instance exists per loaded
// movie; all state hangs off it or the Context, never off package
// globals.
type Avm2 struct {
	ctx        *Context
	prototypes Prototypes

	rootDomain         *Domain
	applicationGlobals Object

	classes map[string]*Class
	units   []*Unit

	callDepth    int
	maxRecursion int
	rng          *rand.Rand

	pendingFetch map[string]func(a *Activation, resp host.Response)
	callbacks    map[string]ExternalCallback

	soundSeq  int
	startTime time.Time
}

// NextSoundID hands out a fresh id for registering sound data with the host.
func (m *Avm2) NextSoundID() int {
	m.soundSeq++
	return m.soundSeq
}

// ElapsedMs reports milliseconds since the VM booted (getTimer).
func (m *Avm2) ElapsedMs() float64 {
	if m.ctx.Clock == nil {
		return 0
	}
	return float64(m.ctx.Clock.Now().Sub(m.startTime).Milliseconds())
}

// ExternalCallback is a script function exposed to the container.
type ExternalCallback func(a *Activation, args []Value) Value

// Options tunes the VM limits.
type Options struct {
	MaxRecursion int
}

// NewAvm2 boots the VM: the root application domain, the application
// global object, and the builtin library. installGlobals populates the
// builtins; it runs with a bootstrap activation.
func NewAvm2(ctx *Context, opts Options, installGlobals func(a *Activation)) *Avm2 {
	maxRecursion := opts.MaxRecursion
	if maxRecursion <= 0 {
		maxRecursion = 255
	}
	avm := &Avm2{
		ctx:          ctx,
		maxRecursion: maxRecursion,
		classes:      make(map[string]*Class),
		rootDomain:   NewDomain(nil),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if ctx.Clock != nil {
		avm.startTime = ctx.Clock.Now()
	}

	boot := &Activation{avm: avm, ctx: ctx, name: "[boot]"}

	globals := NewScriptObject(boot, nil, Undefined)
	globals.SetVTable(NewVTable())
	avm.applicationGlobals = globals
	ctx.Arena.AddRoot(globals)

	if installGlobals != nil {
		installGlobals(boot)
	}
	return avm
}

// Ctx returns the context record.
func (m *Avm2) Ctx() *Context { return m.ctx }

// RootDomain returns the application domain units load into by default.
func (m *Avm2) RootDomain() *Domain { return m.rootDomain }

// Globals returns the application global object builtins live on.
func (m *Avm2) Globals() Object { return m.applicationGlobals }

// ProtoFor returns the prototype record for builtins to fill in.
func (m *Avm2) ProtoFor() *Prototypes { return &m.prototypes }

// Random draws from the VM's deterministic-seedable source.
func (m *Avm2) Random() float64 { return m.rng.Float64() }

// NewActivation creates a root activation for host-driven entry:
// event dispatch, frame scripts, timer callbacks.
func (m *Avm2) NewActivation(name string) *Activation {
	return &Activation{
		avm:   m,
		ctx:   m.ctx,
		scope: NewScopeChain(m.rootDomain),
		name:  name,
	}
}

// LoadABC parses a bytecode block, translates it into the domain, and
// runs the last script's initializer, the published entry point.
func (m *Avm2) LoadABC(a *Activation, data []byte, domain *Domain) (*Unit, error) {
	if domain == nil {
		domain = m.rootDomain
	}
	file, err := abc.Parse(data)
	if err != nil {
		return nil, verifyError("malformed bytecode: %v", err)
	}
	unit := NewUnit(m, file, domain)
	m.units = append(m.units, unit)

	for i := range file.Scripts {
		script, err := unit.ScriptAt(uint32(i))
		if err != nil {
			return nil, err
		}
		for _, t := range file.Scripts[i].Traits {
			mn, err := unit.MultinameAt(t.Name)
			if err != nil {
				return nil, err
			}
			if len(mn.Namespaces()) == 1 {
				domain.Export(mn.Name(), mn.Namespaces()[0], script)
			}
		}
	}
	if len(file.Scripts) > 0 {
		entry, err := unit.ScriptAt(uint32(len(file.Scripts) - 1))
		if err != nil {
			return nil, err
		}
		if _, err := entry.Globals(a); err != nil {
			return nil, err
		}
	}
	return unit, nil
}

// RegisterExternalCallback exposes a script function under a
// host-visible name.
func (m *Avm2) RegisterExternalCallback(name string, cb ExternalCallback) {
	if m.callbacks == nil {
		m.callbacks = make(map[string]ExternalCallback)
	}
	m.callbacks[name] = cb
}

// ExternalCallback returns the registration for name, or nil.
func (m *Avm2) ExternalCallback(name string) ExternalCallback {
	return m.callbacks[name]
}

// AwaitFetch registers a delivery callback for an in-flight request.
func (m *Avm2) AwaitFetch(requestID string, deliver func(a *Activation, resp host.Response)) {
	if m.pendingFetch == nil {
		m.pendingFetch = make(map[string]func(a *Activation, resp host.Response))
	}
	m.pendingFetch[requestID] = deliver
}

// DeliverResponse routes a completed fetch to its waiter. The player
// calls this for every response drained from the navigator each tick.
func (m *Avm2) DeliverResponse(a *Activation, resp host.Response) bool {
	deliver, ok := m.pendingFetch[resp.RequestID]
	if !ok {
		return false
	}
	delete(m.pendingFetch, resp.RequestID)
	deliver(a, resp)
	return true
}

// ReportUncaught routes an uncaught script error through the failure
// policy: notify the host hook if present, log, keep running.
func (m *Avm2) ReportUncaught(name string, err error) {
	verr := asVMError(err)
	if m.ctx.UncaughtError != nil {
		m.ctx.UncaughtError(verr)
	}
	if m.ctx.Log == nil {
		return
	}
	if verr.Kind == ErrThrown {
		m.ctx.Log.Warning("uncaught thrown value in %s", name)
		return
	}
	m.ctx.Log.Error("script error in %s: %v", name, verr)
}

func classKey(ns *Namespace, name string) string {
	if ns != nil && ns.URI != "" {
		return ns.URI + "::" + name
	}
	return name
}

// registerClass records a definition in the name registry so type
// annotations and istype resolve it.
func (m *Avm2) registerClass(cls *Class) {
	if cls == nil {
		return
	}
	key := classKey(cls.ns, cls.name)
	if _, exists := m.classes[key]; !exists {
		m.classes[key] = cls
	}
	// Bare-name alias: the first registration wins, so builtin lookups
	// like ClassByName("EventDispatcher") resolve the flash package
	// class without spelling the namespace.
	if _, exists := m.classes[cls.name]; !exists {
		m.classes[cls.name] = cls
	}
}

// RegisterClass records a builtin class and exposes its class object
// as a const trait on the application globals, so namespaced lookups
// resolve it like any other definition.
func (m *Avm2) RegisterClass(a *Activation, cls *Class) (*ClassObject, error) {
	m.registerClass(cls)
	co, err := NewClassObject(a, cls, NewScopeChain(m.rootDomain))
	if err != nil {
		return nil, err
	}
	base := m.applicationGlobals.Base()
	vt := base.VTable()
	id := vt.allocSlot(0, slotInfo{isConst: true})
	ns := cls.ns
	if ns == nil {
		ns = NewPublicNamespace()
	}
	vt.insert(cls.name, ns, Property{Kind: PropConstSlot, SlotID: id})
	base.SetSlotAt(id, ObjectValue(co))
	return co, nil
}

// DefineGlobalFunction exposes a loose native function on the
// application globals.
func (m *Avm2) DefineGlobalFunction(a *Activation, name string, fn NativeMethod) {
	f := NewFunctionObject(a, NewNativeMethod(name, fn))
	m.applicationGlobals.Base().SetDynamic(name, ObjectValue(f))
}

// DefineGlobalValue exposes a loose value on the application globals.
func (m *Avm2) DefineGlobalValue(name string, v Value) {
	m.applicationGlobals.Base().SetDynamic(name, v)
}

// classFor resolves a name against the class registry.
func (m *Avm2) classFor(mn *Multiname) *Class {
	if mn == nil || mn.IsAnyName() {
		return nil
	}
	if mn.IsAnyNamespace() {
		return m.classes[mn.Name()]
	}
	for _, ns := range mn.Namespaces() {
		if cls := m.classes[classKey(ns, mn.Name())]; cls != nil {
			return cls
		}
	}
	return nil
}

// ClassByName resolves a public builtin class by local name.
func (m *Avm2) ClassByName(name string) *Class { return m.classes[name] }

func (m *Avm2) objectProto() Value   { return m.prototypes.Object }
func (m *Avm2) functionProto() Value { return m.prototypes.Function }
func (m *Avm2) classProto() Value    { return m.prototypes.Class }
func (m *Avm2) arrayProto() Value    { return m.prototypes.Array }

// primitiveData carries the boxed primitive for the wrapper classes.
type primitiveData struct {
	value Value
}

// boxPrimitive wraps a primitive in its wrapper class so property
// access on number, string, and boolean values works.
func (m *Avm2) boxPrimitive(a *Activation, v Value) (Object, error) {
	var proto Value
	var clsName string
	switch v.Kind() {
	case KindString:
		proto, clsName = m.prototypes.String, "String"
	case KindBool:
		proto, clsName = m.prototypes.Boolean, "Boolean"
	case KindInt:
		proto, clsName = m.prototypes.Number, "int"
	case KindUint:
		proto, clsName = m.prototypes.Number, "uint"
	case KindNumber:
		proto, clsName = m.prototypes.Number, "Number"
	default:
		return nil, typeError("cannot box %s", v.TypeOf())
	}
	if proto.IsUndefined() {
		proto = m.prototypes.Object
	}
	obj := NewScriptObject(a, m.classes[clsName], proto)
	obj.SetNativeData(&primitiveData{value: v})
	return obj, nil
}

// Unbox returns the primitive inside a wrapper object, or undefined.
func Unbox(o Object) Value {
	if o == nil {
		return Undefined
	}
	if pd, ok := o.NativeData().(*primitiveData); ok {
		return pd.value
	}
	return Undefined
}

// errorValue materializes a VM error as the script value handed to a
// catch block: thrown values pass through, typed failures construct an
// instance of the matching builtin error class.
func (m *Avm2) errorValue(a *Activation, verr *Error) (Value, error) {
	if verr.Kind == ErrThrown {
		return verr.Thrown, nil
	}
	clsName := verr.Kind.ClassName()
	if clsName != "" {
		cls := m.classes[clsName]
		if cls == nil {
			cls = m.classes["flash.errors::"+clsName]
		}
		if cls != nil && cls.classObject != nil {
			obj, err := cls.classObject.Construct(a, []Value{Str(verr.Message)})
			if err == nil {
				return ObjectValue(obj), nil
			}
		}
	}
	fallback := NewScriptObject(a, nil, m.prototypes.Error)
	fallback.SetDynamic("name", Str("Error"))
	fallback.SetDynamic("message", Str(verr.Message))
	return ObjectValue(fallback), nil
}

// newNamespaceObject wraps a namespace record in its script object.
func (m *Avm2) newNamespaceObject(a *Activation, ns *Namespace) Object {
	obj := NewScriptObject(a, m.classes["Namespace"], m.prototypes.Namespace)
	obj.SetNativeData(&NamespaceData{Namespace: ns})
	return obj
}

// newQNameObject wraps a qualified name in its script object.
func (m *Avm2) newQNameObject(a *Activation, qn *QNameData) Object {
	obj := NewScriptObject(a, m.classes["QName"], m.prototypes.QName)
	obj.SetNativeData(qn)
	return obj
}

// NewQNameValue is the exported wrapper used by the builtin library.
func (m *Avm2) NewQNameValue(a *Activation, qn QNameData) Value {
	return ObjectValue(m.newQNameObject(a, &qn))
}

// NewNamespaceValue is the exported wrapper used by the builtin library.
func (m *Avm2) NewNamespaceValue(a *Activation, ns *Namespace) Value {
	return ObjectValue(m.newNamespaceObject(a, ns))
}

// applyType specializes a parameterized type, which in the published
// library means Vector.<T>.
func (m *Avm2) applyType(a *Activation, base Value, params []Value) (Value, error) {
	co := asClassObject(base.AsObject())
	if co == nil {
		return Undefined, typeError("parameterized type base is not a class")
	}
	if co.class.name != "Vector" && co.class.name != "Vector.<*>" {
		return Undefined, typeError("%s is not parameterizable", co.class.QualifiedName())
	}
	if len(params) != 1 {
		return Undefined, typeError("Vector takes one type parameter")
	}
	return applyVectorType(a, co, params[0])
}

var _ gc.Traceable = (*ScriptObject)(nil)
