package avm1

import (
	"lantern/pkg/wstr"
)

// ScopeClass distinguishes how a scope participates in name resolution.
type ScopeClass uint8

const (
	// ScopeGlobal is the bottom scope holding _global.
	ScopeGlobal ScopeClass = iota
	// ScopeTarget wraps the current target clip; undeclared variable
	// stores land here.
	ScopeTarget
	// ScopeLocal holds function locals (the activation object).
	ScopeLocal
	// ScopeWith is pushed by the with statement.
	ScopeWith
)

// Scope is one link of the resolution chain. Chains are immutable once
// captured by a closure; pushing creates a new head.
type Scope struct {
	parent *Scope
	class  ScopeClass
	values Object
}

// NewGlobalScope starts a chain at the global object.
func NewGlobalScope(globals Object) *Scope {
	return &Scope{class: ScopeGlobal, values: globals}
}

// ChildScope pushes a new scope of the given class.
func (s *Scope) ChildScope(class ScopeClass, values Object) *Scope {
	return &Scope{parent: s, class: class, values: values}
}

// Parent returns the outer scope.
func (s *Scope) Parent() *Scope { return s.parent }

// Class returns the scope class.
func (s *Scope) Class() ScopeClass { return s.class }

// Values returns the backing object.
func (s *Scope) Values() Object { return s.values }

// RetargetTarget returns a chain identical to s but with the innermost
// target scope replaced, the setTarget behavior.
func (s *Scope) RetargetTarget(newTarget Object) *Scope {
	if s == nil {
		return nil
	}
	if s.class == ScopeTarget {
		return &Scope{parent: s.parent, class: ScopeTarget, values: newTarget}
	}
	return &Scope{parent: s.parent.RetargetTarget(newTarget), class: s.class, values: s.values}
}

// Resolve looks a bare name up the chain, top to bottom. Each scope
// exposes its full property protocol, so with scopes and target clips
// contribute prototype and magical properties.
func (s *Scope) Resolve(a *Activation, name wstr.WStr) (Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if HasProperty(a, cur.values, name) {
			v, err := Get(a, cur.values, name)
			if err != nil {
				return Undefined, false
			}
			return v, true
		}
	}
	return Undefined, false
}

// SetVariable stores a bare name: the innermost scope that already has
// the property receives the write; otherwise the nearest target scope
// defines it, which is how undeclared assignments land on the clip.
func (s *Scope) SetVariable(a *Activation, name wstr.WStr, v Value) error {
	for cur := s; cur != nil; cur = cur.parent {
		if HasProperty(a, cur.values, name) {
			return Set(a, cur.values, name, v)
		}
	}
	for cur := s; cur != nil; cur = cur.parent {
		if cur.class == ScopeTarget {
			return Set(a, cur.values, name, v)
		}
	}
	return Set(a, s.values, name, v)
}

// DefineLocal declares in the innermost local or target scope (var
// statements skip with scopes).
func (s *Scope) DefineLocal(a *Activation, name wstr.WStr, v Value) error {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.class == ScopeLocal || cur.class == ScopeTarget {
			return Set(a, cur.values, name, v)
		}
	}
	return Set(a, s.values, name, v)
}

// ForceDefineLocal declares without triggering chain setters, used for
// the arguments object and register preloads.
func (s *Scope) ForceDefineLocal(a *Activation, name wstr.WStr, v Value) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.class == ScopeLocal || cur.class == ScopeTarget {
			cur.values.Raw().DefineValue(name.ToUTF8(), v, 0)
			return
		}
	}
	s.values.Raw().DefineValue(name.ToUTF8(), v, 0)
}

// Delete removes a name from the first scope that has it.
func (s *Scope) Delete(a *Activation, name wstr.WStr) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if HasOwnProperty(a, cur.values, name) {
			return Delete(a, cur.values, name)
		}
	}
	return false
}
