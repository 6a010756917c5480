// Package constraint implements the R1CS constraint representation and the
// substitution/simplification primitives the rest of the compiler core
// builds its elimination passes on: a single constraint (sum A)*(sum B) -
// (sum C) = 0 over algebra.Linear combinations, plus an append-only store
// of them addressed by stable ID.
package constraint

import (
	"math/big"
	"sort"

	"github.com/iden3/circomgo/internal/algebra"
	"github.com/iden3/circomgo/internal/field"
	pkgerrors "github.com/pkg/errors"
)

// ErrNotLinear is returned by ClearSignalFromLinear when the constraint it
// was asked to solve is not a pure linear equality (A and B both empty of
// signal terms).
var ErrNotLinear = pkgerrors.New("constraint: not a linear equality")

// ErrZeroCoefficient is returned by ClearSignalFromLinear when the signal
// being solved for has a zero coefficient in the constraint's C slot.
var ErrZeroCoefficient = pkgerrors.New("constraint: signal has zero coefficient")

// Constraint is a single R1CS row: (sum A)*(sum B) - (sum C) = 0.
type Constraint struct {
	A, B, C algebra.Linear
}

// New builds a Constraint, asserting the constant-slot invariant on each
// side.
func New(a, b, c algebra.Linear) Constraint {
	return Constraint{A: algebra.Ensure(a.Clone()), B: algebra.Ensure(b.Clone()), C: algebra.Ensure(c.Clone())}
}

// IsLinear reports whether the constraint has no quadratic term, i.e. both
// A and B carry no non-constant-slot signal.
func (c Constraint) IsLinear() bool {
	return c.A.IsConstant() && c.B.IsConstant()
}

// IsEmpty reports whether the constraint is the trivial 0=0 row.
func (c Constraint) IsEmpty() bool {
	return c.A.IsZero() && c.B.IsZero() && c.C.IsZero()
}

// IsEquality reports whether the constraint is a pure signal equality
// s_i = s_j (i.e. linear, two nonzero signal coefficients in C that are
// additive inverses of each other, zero constant term).
func (c Constraint) IsEquality() bool {
	if !c.IsLinear() {
		return false
	}
	sigs := c.C.Signals()
	if len(sigs) != 2 {
		return false
	}
	if c.C[algebra.ConstSlot].Sign() != 0 {
		return false
	}
	a, b := c.C[sigs[0]], c.C[sigs[1]]
	return new(big.Int).Add(a, b).Sign() == 0
}

// IsConstantEquality reports whether the constraint pins a single signal to
// a known constant: linear, exactly one nonzero signal coefficient in C.
func (c Constraint) IsConstantEquality() bool {
	if !c.IsLinear() {
		return false
	}
	return len(c.C.Signals()) == 1
}

// HasConstantCoefficient reports whether evaluating A, B, or C with every
// signal coefficient treated as absent still leaves a nonzero value, i.e.
// whether any of the three sides carries a nonzero constant term. This is
// the plain three-way disjunction; it does not special-case B the way the
// original implementation's equivalent check did (see DESIGN.md).
func (c Constraint) HasConstantCoefficient() bool {
	return c.A[algebra.ConstSlot].Sign() != 0 ||
		c.B[algebra.ConstSlot].Sign() != 0 ||
		c.C[algebra.ConstSlot].Sign() != 0
}

// Signals returns the sorted union of every non-constant signal mentioned
// across A, B, and C.
func (c Constraint) Signals() []int {
	seen := map[int]bool{}
	var out []int
	for _, lin := range []algebra.Linear{c.A, c.B, c.C} {
		for _, s := range lin.Signals() {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	sort.Ints(out)
	return out
}

// ClearSignalFromLinear solves a pure linear equality constraint for signal
// s, returning the Linear it is equal to: s = -(1/coeff) * (rest of C).
// It fails if the constraint is not linear or if s's coefficient in C is
// zero.
func ClearSignalFromLinear(c Constraint, s int, f *field.Field) (algebra.Linear, error) {
	if !c.IsLinear() {
		return nil, ErrNotLinear
	}
	coeff, ok := c.C[s]
	if !ok || coeff.Sign() == 0 {
		return nil, ErrZeroCoefficient
	}
	inv, err := f.Inverse(coeff)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "clear signal")
	}
	out := algebra.Linear{algebra.ConstSlot: big.NewInt(0)}
	for sig, v := range c.C {
		if sig == s {
			continue
		}
		if v.Sign() == 0 {
			continue
		}
		scaled := f.Mul(v, f.Neg(inv))
		out[sig] = scaled
	}
	return algebra.Ensure(out), nil
}

// ApplySubstitution rewrites every side of c through sub and re-normalizes
// via FixConstraint.
func ApplySubstitution(c Constraint, sub map[int]algebra.Linear, f *field.Field) Constraint {
	rewrite := func(m algebra.Linear) algebra.Linear {
		e := algebra.ApplySubstitutions(algebra.Lin(m), sub, f)
		if e.Kind == algebra.KindLinear {
			return e.Lin
		}
		return m
	}
	return FixConstraint(Constraint{A: rewrite(c.A), B: rewrite(c.B), C: rewrite(c.C)}, f)
}

// FixConstraint re-normalizes a constraint after rewriting: it drops zero
// coefficients from every side, and if either A or B collapsed to a pure
// constant (zero included), folds that constant into C as a scaling factor
// and empties both A and B, leaving a purely linear constraint.
func FixConstraint(c Constraint, f *field.Field) Constraint {
	a := dropZeroCoeffs(c.A)
	b := dropZeroCoeffs(c.B)
	cc := dropZeroCoeffs(c.C)

	if a.IsConstant() {
		k := a[algebra.ConstSlot]
		cc = dropZeroCoeffs(subtractScaled(cc, b, k, f))
		a = algebra.Linear{algebra.ConstSlot: big.NewInt(0)}
		b = algebra.Linear{algebra.ConstSlot: big.NewInt(0)}
	} else if b.IsConstant() {
		k := b[algebra.ConstSlot]
		cc = dropZeroCoeffs(subtractScaled(cc, a, k, f))
		a = algebra.Linear{algebra.ConstSlot: big.NewInt(0)}
		b = algebra.Linear{algebra.ConstSlot: big.NewInt(0)}
	}

	return Constraint{A: algebra.Ensure(a), B: algebra.Ensure(b), C: algebra.Ensure(cc)}
}

// subtractScaled returns cc - k*lin (field arithmetic), used by
// FixConstraint to fold a(sum)*b(sum) into C when one side is a bare
// constant k.
func subtractScaled(cc, lin algebra.Linear, k *big.Int, f *field.Field) algebra.Linear {
	out := cc.Clone()
	for s, coeff := range lin {
		scaled := f.Mul(coeff, k)
		cur, ok := out[s]
		if !ok {
			cur = big.NewInt(0)
		}
		out[s] = f.Sub(cur, scaled)
	}
	return algebra.Ensure(out)
}

func dropZeroCoeffs(m algebra.Linear) algebra.Linear {
	out := algebra.Linear{algebra.ConstSlot: coeffOrZero(m)}
	for s, c := range m {
		if s == algebra.ConstSlot {
			continue
		}
		if c.Sign() != 0 {
			out[s] = c
		}
	}
	return out
}

func coeffOrZero(m algebra.Linear) *big.Int {
	if c, ok := m[algebra.ConstSlot]; ok {
		return new(big.Int).Set(c)
	}
	return big.NewInt(0)
}
