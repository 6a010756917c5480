// Package algebra implements the four-variant algebraic value model the
// rest of the compiler core computes over: constants, single signals,
// linear combinations, and quadratic forms, closed under the DSL's
// operators modulo a field prime. A fifth sentinel, NonQuadratic, flags any
// intermediate that escaped that closure (e.g. signal*signal*signal) — it
// is a first-class operator result, not an out-of-band error, because a
// program is allowed to compute one as long as it never appears in a
// constraint.
package algebra

import (
	"math/big"
	"sort"

	"github.com/iden3/circomgo/internal/field"
)

// Signal is an opaque, hashable, orderable signal identifier. ConstSlot is
// the distinguished value present in every Linear/Quadratic map: it
// represents the literal 1 signal, and every constant term in an
// expression lives at this slot.
type Signal = int

// ConstSlot is the signal ID reserved for the constant term.
const ConstSlot Signal = 0

// Kind tags which of the four (plus NonQuadratic) variants an Expr holds.
type Kind int

const (
	KindNumber Kind = iota
	KindSignal
	KindLinear
	KindQuadratic
	KindNonQuadratic
)

// Linear is a mapping signal -> coefficient. Every Linear value produced by
// this package contains the constant slot (possibly with coefficient
// zero); Ensure re-asserts that invariant and is called at the entry of
// every public mutator.
type Linear map[Signal]*big.Int

// Ensure guarantees m contains the constant slot, inserting a zero
// coefficient if absent. Call this at the start of any function that
// builds or mutates a Linear map from scratch.
func Ensure(m Linear) Linear {
	if _, ok := m[ConstSlot]; !ok {
		m[ConstSlot] = big.NewInt(0)
	}
	return m
}

// Clone returns a deep copy of m.
func (m Linear) Clone() Linear {
	out := make(Linear, len(m))
	for k, v := range m {
		out[k] = new(big.Int).Set(v)
	}
	return out
}

// Signals returns the set of non-zero-coefficient signal IDs in m,
// excluding the constant slot, sorted ascending for determinism.
func (m Linear) Signals() []Signal {
	out := make([]Signal, 0, len(m))
	for s, c := range m {
		if s == ConstSlot || c.Sign() == 0 {
			continue
		}
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}

// IsZero reports whether every coefficient in m (including the constant
// slot) is zero.
func (m Linear) IsZero() bool {
	for _, c := range m {
		if c.Sign() != 0 {
			return false
		}
	}
	return true
}

// IsConstant reports whether m has no non-zero signal coefficients, i.e.
// it denotes a pure Number once the constant slot is read out.
func (m Linear) IsConstant() bool { return len(m.Signals()) == 0 }

// Expr is the tagged union described in the package doc. Only the fields
// relevant to Kind are meaningful; constructors below are the only
// supported way to build one.
type Expr struct {
	Kind   Kind
	Number *big.Int // KindNumber
	Signal Signal   // KindSignal
	Lin    Linear   // KindLinear
	A, B, C Linear  // KindQuadratic: (sum A)*(sum B) + (sum C)
}

// NonQuadratic is the sentinel result for any operation that escaped the
// representable fragment.
var NonQuadratic = Expr{Kind: KindNonQuadratic}

// Num builds a Number expression. v must already be in [0, p).
func Num(v *big.Int) Expr { return Expr{Kind: KindNumber, Number: new(big.Int).Set(v)} }

// Sig builds a Signal expression. s must not be ConstSlot.
func Sig(s Signal) Expr { return Expr{Kind: KindSignal, Signal: s} }

// Lin builds a Linear expression from m, asserting the constant-slot
// invariant.
func Lin(m Linear) Expr { return Expr{Kind: KindLinear, Lin: Ensure(m.Clone())} }

// Quad builds a Quadratic expression (sum a)*(sum b) + (sum c).
func Quad(a, b, c Linear) Expr {
	return Expr{Kind: KindQuadratic, A: Ensure(a.Clone()), B: Ensure(b.Clone()), C: Ensure(c.Clone())}
}

func singleton(s Signal, coeff *big.Int) Linear {
	m := Linear{ConstSlot: big.NewInt(0)}
	if coeff.Sign() != 0 {
		m[s] = new(big.Int).Set(coeff)
	}
	return m
}

func constLinear(v *big.Int) Linear {
	return Linear{ConstSlot: new(big.Int).Set(v)}
}

func addSignalTo(m Linear, s Signal, coeff *big.Int, f *field.Field) {
	if cur, ok := m[s]; ok {
		m[s] = f.Add(cur, coeff)
	} else {
		m[s] = new(big.Int).Set(coeff)
	}
}

func addLinearInto(dst, src Linear, f *field.Field) {
	for s, c := range src {
		addSignalTo(dst, s, c, f)
	}
}

func scaleLinear(m Linear, k *big.Int, f *field.Field) Linear {
	out := make(Linear, len(m))
	for s, c := range m {
		out[s] = f.Mul(c, k)
	}
	return Ensure(out)
}
