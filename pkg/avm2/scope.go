package avm2

import (
	"lantern/pkg/gc"
)

// Scope is one rung of a scope chain: an object plus the with flag
// that widens name resolution to dynamic properties.
type Scope struct {
	values Object
	with   bool
}

// NewScope wraps an object as a plain scope.
func NewScope(o Object) Scope { return Scope{values: o} }

// NewWithScope wraps an object as a with scope.
func NewWithScope(o Object) Scope { return Scope{values: o, with: true} }

// Values returns the scope object.
func (s Scope) Values() Object { return s.values }

// IsWith reports the with flag.
func (s Scope) IsWith() bool { return s.with }

// ScopeChain is the captured environment of a closure: an immutable
// scope list (outermost first) plus the defining domain, searched as a
// last resort.
type ScopeChain struct {
	scopes []Scope
	domain *Domain
}

// NewScopeChain returns an empty chain rooted in a domain.
func NewScopeChain(domain *Domain) ScopeChain {
	return ScopeChain{domain: domain}
}

// Extend returns a new chain with extra scopes appended; the receiver
// is unchanged, so closures sharing a prefix stay independent.
func (c ScopeChain) Extend(extra []Scope) ScopeChain {
	if len(extra) == 0 {
		return c
	}
	scopes := make([]Scope, 0, len(c.scopes)+len(extra))
	scopes = append(scopes, c.scopes...)
	scopes = append(scopes, extra...)
	return ScopeChain{scopes: scopes, domain: c.domain}
}

// Domain returns the defining domain.
func (c ScopeChain) Domain() *Domain { return c.domain }

// Len returns the scope count.
func (c ScopeChain) Len() int { return len(c.scopes) }

// At returns a rung, outermost first.
func (c ScopeChain) At(i int) Scope { return c.scopes[i] }

// Global returns the outermost scope object, nil for an empty chain.
func (c ScopeChain) Global() Object {
	if len(c.scopes) == 0 {
		return nil
	}
	return c.scopes[0].values
}

func (c ScopeChain) trace(t *gc.Tracer) {
	for _, s := range c.scopes {
		if s.values != nil {
			t.Visit(s.values)
		}
	}
}

// scopeMatches reports whether a single scope satisfies a lookup:
// traits always count, dynamic properties only on with scopes and the
// global scope.
func scopeMatches(a *Activation, s Scope, mn *Multiname, global bool) bool {
	if s.values == nil {
		return false
	}
	if s.values.Base().vtable.Has(mn) {
		return true
	}
	if s.with || global {
		return HasProperty(a, s.values, mn)
	}
	return false
}

// FindDefinition implements findproperty: the activation's scope stack
// top-down, then the captured chain top-down, then the domain table.
// The bool reports whether anything matched.
func FindDefinition(a *Activation, mn *Multiname) (Object, bool, error) {
	stack := a.scopeStack
	chain := a.scope
	for i := len(stack) - 1; i >= 0; i-- {
		global := chain.Len() == 0 && i == 0
		if scopeMatches(a, stack[i], mn, global) {
			return stack[i].values, true, nil
		}
	}
	for i := chain.Len() - 1; i >= 0; i-- {
		if scopeMatches(a, chain.At(i), mn, i == 0) {
			return chain.At(i).values, true, nil
		}
	}
	if chain.domain != nil {
		script, ok := chain.domain.DefiningScript(mn)
		if ok {
			globals, err := script.Globals(a)
			if err != nil {
				return nil, false, err
			}
			return globals, true, nil
		}
	}
	return nil, false, nil
}

// FindProperty is the loose form: a miss falls back to the global
// scope object.
func FindProperty(a *Activation, mn *Multiname) (Object, error) {
	obj, ok, err := FindDefinition(a, mn)
	if err != nil {
		return nil, err
	}
	if ok {
		return obj, nil
	}
	if g := a.globalScope(); g != nil {
		return g, nil
	}
	return nil, referenceError("no global scope for %s", mn.ToQualifiedString())
}

// FindPropertyStrict is the strict form: a miss raises ReferenceError.
func FindPropertyStrict(a *Activation, mn *Multiname) (Object, error) {
	obj, ok, err := FindDefinition(a, mn)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, referenceError("variable %s is not defined", mn.ToQualifiedString())
	}
	return obj, nil
}
