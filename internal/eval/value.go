// Package eval implements Component F: the symbolic evaluator that
// elaborates a program from its top-level template call, statically
// unrolling loops and functions, expanding arrays, resolving
// sub-component wiring, and emitting R1CS constraints plus an IR bucket
// tree per template instance.
package eval

import (
	"math/big"

	"github.com/iden3/circomgo/internal/algebra"
	"github.com/iden3/circomgo/internal/memory"
)

// Value is a folded expression result: either a slice of algebraic
// expressions (the common case, for numeric/wire-valued expressions,
// scalar values being rank-0 slices) or a reference to a template
// instance (for a component-valued expression).
type Value struct {
	Exprs *memory.Slice[algebra.Expr]
	Comp  *ComponentRef
}

// ComponentRef is a sub-component slot: an (instance, offset) pair, never
// a direct pointer to the child, so the executed-program graph can be rebuilt incrementally
// without IDs shifting underneath an existing reference.
type ComponentRef struct {
	InstanceIndex int
	SlotID        int
}

// IsComponent reports whether v holds a component reference rather than an
// expression slice.
func (v Value) IsComponent() bool { return v.Comp != nil }

// ScalarExpr wraps a single algebra.Expr as a rank-0 Value.
func ScalarExpr(e algebra.Expr) Value {
	cell := memory.NewFilled[algebra.Expr](nil, func() algebra.Expr { return e })
	return Value{Exprs: cell}
}

// ScalarNumber wraps a compile-time big.Int as a rank-0 Number Value.
func ScalarNumber(v *big.Int) Value { return ScalarExpr(algebra.Num(v)) }

// AsScalar reads a rank-0 Value's single Expr. ok is false if v is a
// component reference or is not actually rank 0.
func (v Value) AsScalar() (algebra.Expr, bool) {
	if v.IsComponent() || v.Exprs == nil || v.Exprs.Rank() != 0 {
		return algebra.Expr{}, false
	}
	e, err := v.Exprs.Unwrap()
	if err != nil {
		return algebra.Expr{}, false
	}
	return e, true
}

// ComponentValue wraps a ComponentRef as a Value.
func ComponentValue(ref *ComponentRef) Value { return Value{Comp: ref} }
