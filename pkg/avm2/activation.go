package avm2

import (
	"lantern/pkg/gc"
)

// Activation is one call's runtime state: operand stack, locals, the
// per-frame scope stack layered over the captured chain, the receiver,
// and the running method (which carries the defining class for super
// dispatch).
type Activation struct {
	avm *Avm2
	ctx *Context

	currentMethod *Method
	scope         ScopeChain
	scopeStack    []Scope
	stack         []Value
	locals        []Value
	this          Value

	// activeDxns is the default XML namespace set by the dxns opcodes.
	activeDxns *Namespace

	name string // for diagnostics
}

// Avm returns the owning VM.
func (a *Activation) Avm() *Avm2 { return a.avm }

// Ctx returns the context record.
func (a *Activation) Ctx() *Context { return a.ctx }

// Arena returns the GC arena.
func (a *Activation) Arena() *gc.Arena { return a.ctx.Arena }

// This returns the current receiver.
func (a *Activation) This() Value { return a.this }

// Domain returns the domain of the running method's chain.
func (a *Activation) Domain() *Domain {
	if d := a.scope.Domain(); d != nil {
		return d
	}
	return a.avm.rootDomain
}

func (a *Activation) method() *Method { return a.currentMethod }

// globalScope returns the outermost scope object visible to this
// activation: the chain's global first, then the frame's own bottom
// scope, then the VM application globals.
func (a *Activation) globalScope() Object {
	if g := a.scope.Global(); g != nil {
		return g
	}
	if len(a.scopeStack) > 0 {
		return a.scopeStack[0].values
	}
	return a.avm.applicationGlobals
}

// pushScope grows the frame-local scope stack.
func (a *Activation) pushScope(s Scope) {
	a.scopeStack = append(a.scopeStack, s)
}

// popScope shrinks the frame-local scope stack.
func (a *Activation) popScope() {
	if len(a.scopeStack) > 0 {
		a.scopeStack = a.scopeStack[:len(a.scopeStack)-1]
	}
}

// fullScope captures the frame's effective chain: the inherited chain
// extended with the frame-local stack. newfunction and newclass snap
// this for their closures.
func (a *Activation) fullScope() ScopeChain {
	return a.scope.Extend(a.scopeStack)
}

// push grows the operand stack.
func (a *Activation) push(v Value) {
	a.stack = append(a.stack, v)
}

// pop shrinks the operand stack; the verifier guarantees depth, so an
// underflow here is a VM bug surfaced as undefined.
func (a *Activation) pop() Value {
	if len(a.stack) == 0 {
		return Undefined
	}
	v := a.stack[len(a.stack)-1]
	a.stack = a.stack[:len(a.stack)-1]
	return v
}

func (a *Activation) popN(n int) []Value {
	if n <= 0 {
		return nil
	}
	if n > len(a.stack) {
		n = len(a.stack)
	}
	out := make([]Value, n)
	copy(out, a.stack[len(a.stack)-n:])
	a.stack = a.stack[:len(a.stack)-n]
	return out
}

func (a *Activation) peek(depth int) Value {
	i := len(a.stack) - 1 - depth
	if i < 0 {
		return Undefined
	}
	return a.stack[i]
}

// local reads a numbered local; out-of-range reads yield undefined.
func (a *Activation) local(i int) Value {
	if i < 0 || i >= len(a.locals) {
		return Undefined
	}
	return a.locals[i]
}

// setLocal writes a numbered local; out-of-range writes are dropped.
func (a *Activation) setLocal(i int, v Value) {
	if i >= 0 && i < len(a.locals) {
		a.locals[i] = v
	}
}

// popMultiname pops the lazy components of a pool multiname off the
// operand stack, name above namespace.
func (a *Activation) popMultiname(mn *Multiname) (*Multiname, error) {
	if !mn.HasLazyComponent() {
		return mn, nil
	}
	var nameVal, nsVal Value
	if mn.HasLazyName() {
		nameVal = a.pop()
	}
	if mn.HasLazyNamespace() {
		nsVal = a.pop()
	}
	return mn.WithRuntimeParts(a, nsVal, nameVal)
}

// enterCall bumps the recursion depth; exceeding the limit aborts with
// a stack overflow error.
func (a *Activation) enterCall() *Error {
	a.avm.callDepth++
	if a.avm.callDepth > a.avm.maxRecursion {
		a.avm.callDepth--
		return stackOverflowError()
	}
	return nil
}

func (a *Activation) exitCall() { a.avm.callDepth-- }

// checkInterrupt observes the cooperative limits between opcodes.
func (a *Activation) checkInterrupt() *Error {
	if a.ctx.StopFlag != nil && a.ctx.StopFlag() {
		return abortedError()
	}
	if a.ctx.overBudget() {
		return timeoutError()
	}
	return nil
}

// reportOOM logs an allocation failure; the current operation also
// returns an error through its normal path.
func (a *Activation) reportOOM(err error) {
	if a.ctx.Log != nil {
		a.ctx.Log.Error("out of memory: %v", err)
	}
}

// child creates a nested activation for a method call.
func (a *Activation) child(name string, m *Method, scope ScopeChain, locals int) *Activation {
	return &Activation{
		avm:           a.avm,
		ctx:           a.ctx,
		currentMethod: m,
		scope:         scope,
		locals:        make([]Value, locals),
		this:          a.this,
		name:          name,
	}
}
