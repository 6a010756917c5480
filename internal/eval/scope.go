package eval

import "github.com/iden3/circomgo/internal/semantic"

// Scope is the evaluator's lexical environment: a chain of variable
// blocks pushed/popped on `{...}` entry/exit, carrying both the runtime
// Value and the compile-time known/unknown state every symbol needs
// (the analyzer computes this statically; the evaluator re-derives it
// per-instance because it depends on the actual parameter values a
// template was instantiated with).
type Scope struct {
	vars   map[string]*binding
	parent *Scope
}

type binding struct {
	value Value
	state semantic.Unknown
}

// NewScope returns an empty scope chained to parent (nil for a template or
// function's outermost block).
func NewScope(parent *Scope) *Scope {
	return &Scope{vars: make(map[string]*binding), parent: parent}
}

// Child pushes a new nested scope, the shape used on entry to every
// `{...}` block.
func (s *Scope) Child() *Scope { return NewScope(s) }

// Define installs name in the current (innermost) scope.
func (s *Scope) Define(name string, v Value, state semantic.Unknown) {
	s.vars[name] = &binding{value: v, state: state}
}

// Lookup walks the parent chain outward. ok is false if name is not bound
// anywhere in scope.
func (s *Scope) Lookup(name string) (Value, semantic.Unknown, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.vars[name]; ok {
			return b.value, b.state, true
		}
	}
	return Value{}, semantic.Known, false
}

// Set overwrites an already-bound name's value and state, walking the
// parent chain to find where it lives (assignment targets an existing
// binding, it does not shadow).
func (s *Scope) Set(name string, v Value, state semantic.Unknown) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.vars[name]; ok {
			b.value = v
			b.state = state
			return true
		}
	}
	return false
}
