// Package field implements modular arithmetic over a single prime chosen at
// construction time. Every operation returns a canonical representative
// 0 <= r < p; the prime itself is never mutated once a Field exists, and a
// Field is always passed explicitly — there is no process-wide singleton,
// so multiple compilation runs with different primes can coexist.
package field

import (
	"math/big"

	pkgerrors "github.com/pkg/errors"
)

// ErrDivisionByZero is returned when dividing by, or inverting, a value
// that is zero or not coprime with the field's modulus.
var ErrDivisionByZero = pkgerrors.New("field: division by zero or non-invertible value")

// ErrBitOverflowInShift is returned when a shift amount exceeds the bit
// width of the field's modulus.
var ErrBitOverflowInShift = pkgerrors.New("field: shift amount exceeds field bit width")

// named is the fixed set of primes constructible by name (spec.md Section 6,
// "External Interfaces": construction rejects unknown names).
var named = map[string]string{
	"bn254":      "21888242871839275222246405745257275088548364400416034343698204186575808495617",
	"bls12-381":  "52435875175126190479447740508185965837690552500527637822603658699938581184513",
	"bls12-377":  "8444461749428370424248824938781546531375899335154063827935233455917409239041",
	"goldilocks": "18446744069414584321",
	"pallas":     "28948022309329048855892746252171976963363056481941560715954676764349967630337",
}

// NewFromName resolves a field prime from one of a fixed, supported set of
// curve/field names. Unknown names are rejected.
func NewFromName(name string) (*Field, error) {
	s, ok := named[name]
	if !ok {
		return nil, pkgerrors.Errorf("field: unsupported field name %q", name)
	}
	p, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, pkgerrors.Wrapf(ErrDivisionByZero, "field: could not parse modulus for %q", name)
	}
	return New(p), nil
}

// Field is a single prime modulus. The zero value is not usable; construct
// with New or NewFromName.
type Field struct {
	p     *big.Int
	bits  int
	mask  *big.Int // 2^bits - 1, used by Complement
}

// New constructs a Field over the given prime. p is copied; callers may
// reuse or mutate the big.Int they passed in afterwards.
func New(p *big.Int) *Field {
	pc := new(big.Int).Set(p)
	bits := pc.BitLen()
	mask := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	mask.Sub(mask, big.NewInt(1))
	return &Field{p: pc, bits: bits, mask: mask}
}

// Modulus returns a copy of the field's prime.
func (f *Field) Modulus() *big.Int { return new(big.Int).Set(f.p) }

// Bits returns the bit width used for Complement and shift-overflow checks.
func (f *Field) Bits() int { return f.bits }

func (f *Field) canon(v *big.Int) *big.Int {
	r := new(big.Int).Mod(v, f.p)
	if r.Sign() < 0 {
		r.Add(r, f.p)
	}
	return r
}

// Add returns (a+b) mod p.
func (f *Field) Add(a, b *big.Int) *big.Int {
	return f.canon(new(big.Int).Add(a, b))
}

// Sub returns (a-b) mod p.
func (f *Field) Sub(a, b *big.Int) *big.Int {
	return f.canon(new(big.Int).Sub(a, b))
}

// Mul returns (a*b) mod p.
func (f *Field) Mul(a, b *big.Int) *big.Int {
	return f.canon(new(big.Int).Mul(a, b))
}

// Mod returns a mod p canonicalized to the field's representative range
// (this is the field's own reduction, distinct from ModOp below which is
// the DSL's `%` operator evaluated mod p on two already-reduced operands).
func (f *Field) Mod(a *big.Int) *big.Int { return f.canon(a) }

// Inverse returns the modular inverse of a via the extended Euclidean
// algorithm, failing when a is zero or not coprime with p.
func (f *Field) Inverse(a *big.Int) (*big.Int, error) {
	av := f.canon(a)
	if av.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	g, x, _ := extendedGCD(av, f.p)
	if g.Cmp(big.NewInt(1)) != 0 {
		return nil, ErrDivisionByZero
	}
	return f.canon(x), nil
}

// extendedGCD returns (g, x, y) such that a*x + b*y = g = gcd(a,b).
func extendedGCD(a, b *big.Int) (*big.Int, *big.Int, *big.Int) {
	if a.Sign() == 0 {
		return new(big.Int).Set(b), big.NewInt(0), big.NewInt(1)
	}
	g, x1, y1 := extendedGCD(new(big.Int).Mod(b, a), a)
	q := new(big.Int).Div(b, a)
	x := new(big.Int).Sub(y1, new(big.Int).Mul(q, x1))
	return g, x, x1
}

// Div returns (a/b) mod p, i.e. a * b^-1, failing under the same conditions
// as Inverse.
func (f *Field) Div(a, b *big.Int) (*big.Int, error) {
	inv, err := f.Inverse(b)
	if err != nil {
		return nil, err
	}
	return f.Mul(a, inv), nil
}

// IDiv is the DSL's integer floor-division operator, interpreted on the
// canonical (non-negative) representatives of a and b via ordinary integer
// division, then reduced into the field.
func (f *Field) IDiv(a, b *big.Int) (*big.Int, error) {
	av, bv := f.canon(a), f.canon(b)
	if bv.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	return f.canon(new(big.Int).Div(av, bv)), nil
}

// ModOp is the DSL's `%` operator: ordinary integer remainder of the
// canonical representatives, reduced back into the field.
func (f *Field) ModOp(a, b *big.Int) (*big.Int, error) {
	av, bv := f.canon(a), f.canon(b)
	if bv.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	return f.canon(new(big.Int).Mod(av, bv)), nil
}

// Pow returns a^b mod p via fast exponentiation. Negative exponents are
// rejected by the caller (the algebra layer never produces one for Number
// values; math/big.Exp itself would panic).
func (f *Field) Pow(a, b *big.Int) *big.Int {
	return f.canon(new(big.Int).Exp(a, b, f.p))
}

func (f *Field) checkShift(amount *big.Int) error {
	if amount.Sign() < 0 || amount.Cmp(big.NewInt(int64(f.bits))) >= 0 {
		return ErrBitOverflowInShift
	}
	return nil
}

// ShiftLeft returns (a << amount) mod p, masked to the field's bit width.
func (f *Field) ShiftLeft(a, amount *big.Int) (*big.Int, error) {
	if err := f.checkShift(amount); err != nil {
		return nil, err
	}
	r := new(big.Int).Lsh(f.canon(a), uint(amount.Int64()))
	r.And(r, f.mask)
	return f.canon(r), nil
}

// ShiftRight returns (a >> amount) mod p.
func (f *Field) ShiftRight(a, amount *big.Int) (*big.Int, error) {
	if err := f.checkShift(amount); err != nil {
		return nil, err
	}
	r := new(big.Int).Rsh(f.canon(a), uint(amount.Int64()))
	return f.canon(r), nil
}

// And, Or, Xor are bitwise operations over the canonical representatives.
func (f *Field) And(a, b *big.Int) *big.Int { return f.canon(new(big.Int).And(f.canon(a), f.canon(b))) }
func (f *Field) Or(a, b *big.Int) *big.Int  { return f.canon(new(big.Int).Or(f.canon(a), f.canon(b))) }
func (f *Field) Xor(a, b *big.Int) *big.Int { return f.canon(new(big.Int).Xor(f.canon(a), f.canon(b))) }

// Complement returns the bitwise complement of a within the field's bit
// width (i.e. mask - a), matching the DSL's fixed-width `~` operator.
func (f *Field) Complement(a *big.Int) *big.Int {
	r := new(big.Int).Xor(f.canon(a), f.mask)
	return f.canon(r)
}

// Cmp compares the canonical representatives of a and b (-1, 0, 1).
func (f *Field) Cmp(a, b *big.Int) int { return f.canon(a).Cmp(f.canon(b)) }

// AsBool reports the DSL's boolean interpretation of a field element:
// nonzero is true, zero is false.
func (f *Field) AsBool(a *big.Int) bool { return f.canon(a).Sign() != 0 }

// FromBool is the inverse of AsBool.
func (f *Field) FromBool(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}

// Neg returns -a mod p.
func (f *Field) Neg(a *big.Int) *big.Int { return f.canon(new(big.Int).Neg(a)) }

// IsZero reports whether a's canonical representative is zero.
func (f *Field) IsZero(a *big.Int) bool { return f.canon(a).Sign() == 0 }
