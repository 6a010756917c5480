package algebra

import (
	"math/big"

	"github.com/iden3/circomgo/internal/field"
)

// Substitution is the promise `from -> to` used both inline (rewriting an
// Expr) and by the simplifier (rewriting a whole constraint store). to must
// satisfy the Linear invariants (constant slot present) and must never
// mention `from` itself.
type Substitution struct {
	From Signal
	To   Linear
}

// ApplySubstitutions rewrites every occurrence of a substitution's `from`
// signal in e by its Linear replacement, dropping zero-coefficient keys
// afterward. The constant-slot invariant is preserved on the result, and a
// `from` key is never reintroduced into its own replacement's output.
func ApplySubstitutions(e Expr, subs map[Signal]Linear, f *field.Field) Expr {
	switch e.Kind {
	case KindNumber, KindNonQuadratic:
		return e
	case KindSignal:
		if to, ok := subs[e.Signal]; ok {
			return Lin(dropZeros(to))
		}
		return e
	case KindLinear:
		return Lin(dropZeros(applyToLinear(e.Lin, subs, f)))
	case KindQuadratic:
		a := applyToLinear(e.A, subs, f)
		b := applyToLinear(e.B, subs, f)
		// (sum a)*(sum b) may need re-expansion if either side collapses to a
		// pure constant after substitution; the caller is responsible for
		// re-normalizing through Mul if it wants that fold. Here we only
		// rewrite the coefficients in place, matching the algebra's
		// substitution_into_constraint semantics.
		c := applyToLinear(e.C, subs, f)
		return Quad(dropZeros(a), dropZeros(b), dropZeros(c))
	default:
		return e
	}
}

func applyToLinear(m Linear, subs map[Signal]Linear, f *field.Field) Linear {
	out := Linear{ConstSlot: new(big.Int).Set(coeffOrZero(m, ConstSlot))}
	for s, c := range m {
		if s == ConstSlot || c.Sign() == 0 {
			continue
		}
		if to, ok := subs[s]; ok {
			for ts, tc := range to {
				addSignalTo(out, ts, new(big.Int).Mul(tc, c), f)
			}
		} else {
			addSignalTo(out, s, c, f)
		}
	}
	return Ensure(out)
}

func coeffOrZero(m Linear, s Signal) *big.Int {
	if c, ok := m[s]; ok {
		return c
	}
	return big.NewInt(0)
}

func dropZeros(m Linear) Linear {
	out := Linear{ConstSlot: coeffOrZero(m, ConstSlot)}
	for s, c := range m {
		if s == ConstSlot {
			continue
		}
		if c.Sign() != 0 {
			out[s] = c
		}
	}
	return out
}

// ConstraintForm is the canonical (A, B, C) triple produced by
// TransformExpressionToConstraintForm: semantics (sum A)*(sum B) - (sum C) = 0.
type ConstraintForm struct {
	A, B, C Linear
}

// TransformExpressionToConstraintForm converts e into the canonical
// constraint form, negating e into C. It fails (returns ok=false) only for
// NonQuadratic.
func TransformExpressionToConstraintForm(e Expr, f *field.Field) (ConstraintForm, bool) {
	var a, b, c Linear
	switch e.Kind {
	case KindNonQuadratic:
		return ConstraintForm{}, false
	case KindQuadratic:
		a, b, c = e.A.Clone(), e.B.Clone(), e.C.Clone()
	case KindNumber:
		a, b = Linear{ConstSlot: big.NewInt(0)}, Linear{ConstSlot: big.NewInt(0)}
		c = Linear{ConstSlot: new(big.Int).Set(e.Number)}
	case KindSignal:
		a, b = Linear{ConstSlot: big.NewInt(0)}, Linear{ConstSlot: big.NewInt(0)}
		c = singleton(e.Signal, one)
	case KindLinear:
		a, b = Linear{ConstSlot: big.NewInt(0)}, Linear{ConstSlot: big.NewInt(0)}
		c = e.Lin.Clone()
	default:
		return ConstraintForm{}, false
	}
	c = scaleLinear(c, minusOne, f)
	return ConstraintForm{A: Ensure(a), B: Ensure(b), C: Ensure(c)}, true
}
