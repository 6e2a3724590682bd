package avm1

import (
	"lantern/pkg/display"
	"lantern/pkg/gc"
	"lantern/pkg/wstr"
)

// Activation is one call's runtime state: scope chain, registers,
// constant pool, receiver, and the target clip for path operations.
type Activation struct {
	avm          *Avm1
	ctx          *Context
	scope        *Scope
	constantPool []wstr.WStr
	registers    []Value
	this         Value
	baseClip     display.Node
	targetClip   display.Node
	superDepth   int
	name         string // for diagnostics
}

// Avm returns the owning VM.
func (a *Activation) Avm() *Avm1 { return a.avm }

// Ctx returns the context record.
func (a *Activation) Ctx() *Context { return a.ctx }

// Arena returns the GC arena.
func (a *Activation) Arena() *gc.Arena { return a.ctx.Arena }

// SwfVersion returns the movie compatibility version.
func (a *Activation) SwfVersion() uint8 { return a.avm.swfVersion }

// IsCaseSensitive reports whether name comparison is exact; movies
// before version 7 compare case-insensitively throughout.
func (a *Activation) IsCaseSensitive() bool { return a.avm.swfVersion >= 7 }

// Scope returns the current scope chain head.
func (a *Activation) Scope() *Scope { return a.scope }

// SetScope replaces the chain head (with/setTarget).
func (a *Activation) SetScope(s *Scope) { a.scope = s }

// This returns the current receiver.
func (a *Activation) This() Value { return a.this }

// BaseClip is the clip the running action block belongs to.
func (a *Activation) BaseClip() display.Node { return a.baseClip }

// TargetClip is the current default receiver for path operations.
func (a *Activation) TargetClip() display.Node { return a.targetClip }

// SetTargetClip retargets path operations and the target scope.
func (a *Activation) SetTargetClip(n display.Node) {
	a.targetClip = n
	if n != nil {
		if obj, ok := n.ScriptObject().(Object); ok && obj != nil {
			a.scope = a.scope.RetargetTarget(obj)
		}
	}
}

// TargetObject returns the script object of the target clip, or the
// globals when no target exists.
func (a *Activation) TargetObject() Object {
	if a.targetClip != nil {
		if obj, ok := a.targetClip.ScriptObject().(Object); ok && obj != nil {
			return obj
		}
	}
	return a.avm.Globals()
}

// Register reads a numbered register; out-of-range reads yield
// undefined.
func (a *Activation) Register(i int) Value {
	if i < 0 || i >= len(a.registers) {
		return Undefined
	}
	return a.registers[i]
}

// SetRegister writes a numbered register; out-of-range writes are
// dropped.
func (a *Activation) SetRegister(i int, v Value) {
	if i >= 0 && i < len(a.registers) {
		a.registers[i] = v
	}
}

// ConstantPool returns the active pool.
func (a *Activation) ConstantPool() []wstr.WStr { return a.constantPool }

// SetConstantPool installs a new pool (ActionConstantPool).
func (a *Activation) SetConstantPool(pool []wstr.WStr) {
	a.constantPool = pool
	a.avm.constantPool = pool
}

// Intern memoizes a small string.
func (a *Activation) Intern(s string) wstr.WStr {
	return a.ctx.Interner.InternUTF8(s)
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

// child creates a nested activation sharing the VM but with its own
// scope and registers.
func (a *Activation) child(name string, scope *Scope, registers int) *Activation {
	return &Activation{
		avm:          a.avm,
		ctx:          a.ctx,
		scope:        scope,
		constantPool: a.constantPool,
		registers:    make([]Value, registers),
		this:         a.this,
		baseClip:     a.baseClip,
		targetClip:   a.targetClip,
		name:         name,
	}
}
