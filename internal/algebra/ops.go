package algebra

import (
	"math/big"

	"github.com/iden3/circomgo/internal/field"
)

var one = big.NewInt(1)
var minusOne = big.NewInt(-1)

// Add closes the four variants under addition. NonQuadratic propagates, and
// Quadratic+Quadratic escapes the fragment (their product structure cannot
// be represented as a single (a,b,c) form in general, only their sum of
// constant terms can, which this package does not special-case).
func Add(l, r Expr, f *field.Field) Expr {
	switch {
	case l.Kind == KindNonQuadratic || r.Kind == KindNonQuadratic:
		return NonQuadratic
	case l.Kind == KindQuadratic && r.Kind == KindQuadratic:
		return NonQuadratic
	case l.Kind == KindNumber && r.Kind == KindNumber:
		return Num(f.Add(l.Number, r.Number))
	case l.Kind == KindNumber && r.Kind == KindSignal:
		return addNumberSignal(l.Number, r.Signal, f)
	case l.Kind == KindSignal && r.Kind == KindNumber:
		return addNumberSignal(r.Number, l.Signal, f)
	case l.Kind == KindNumber && r.Kind == KindLinear:
		return Lin(addConstToLinear(r.Lin, l.Number, f))
	case l.Kind == KindLinear && r.Kind == KindNumber:
		return Lin(addConstToLinear(l.Lin, r.Number, f))
	case l.Kind == KindNumber && r.Kind == KindQuadratic:
		return Quad(r.A, r.B, addConstToLinear(r.C, l.Number, f))
	case l.Kind == KindQuadratic && r.Kind == KindNumber:
		return Quad(l.A, l.B, addConstToLinear(l.C, r.Number, f))
	case l.Kind == KindSignal && r.Kind == KindSignal:
		m := Linear{ConstSlot: big.NewInt(0)}
		addSignalTo(m, l.Signal, one, f)
		addSignalTo(m, r.Signal, one, f)
		return Lin(m)
	case l.Kind == KindSignal && r.Kind == KindLinear:
		return Lin(addSignalToLinear(r.Lin, l.Signal, f))
	case l.Kind == KindLinear && r.Kind == KindSignal:
		return Lin(addSignalToLinear(l.Lin, r.Signal, f))
	case l.Kind == KindSignal && r.Kind == KindQuadratic:
		return Quad(r.A, r.B, addSignalToLinear(r.C, l.Signal, f))
	case l.Kind == KindQuadratic && r.Kind == KindSignal:
		return Quad(l.A, l.B, addSignalToLinear(l.C, r.Signal, f))
	case l.Kind == KindLinear && r.Kind == KindLinear:
		out := l.Lin.Clone()
		addLinearInto(out, r.Lin, f)
		return Lin(out)
	case l.Kind == KindLinear && r.Kind == KindQuadratic:
		out := r.C.Clone()
		addLinearInto(out, l.Lin, f)
		return Quad(r.A, r.B, out)
	case l.Kind == KindQuadratic && r.Kind == KindLinear:
		out := l.C.Clone()
		addLinearInto(out, r.Lin, f)
		return Quad(l.A, l.B, out)
	default:
		return NonQuadratic
	}
}

func addNumberSignal(v *big.Int, s Signal, f *field.Field) Expr {
	m := constLinear(v)
	addSignalTo(m, s, one, f)
	return Lin(m)
}

func addConstToLinear(m Linear, v *big.Int, f *field.Field) Linear {
	out := m.Clone()
	out[ConstSlot] = f.Add(out[ConstSlot], v)
	return Ensure(out)
}

func addSignalToLinear(m Linear, s Signal, f *field.Field) Linear {
	out := m.Clone()
	addSignalTo(out, s, one, f)
	return Ensure(out)
}

// Mul closes the four variants under multiplication. Any combination that
// would need a cube of signals (Quadratic times anything but a Number, or
// Signal/Linear times Quadratic) escapes to NonQuadratic.
func Mul(l, r Expr, f *field.Field) Expr {
	switch {
	case l.Kind == KindNonQuadratic || r.Kind == KindNonQuadratic:
		return NonQuadratic
	case l.Kind == KindQuadratic && r.Kind == KindQuadratic,
		l.Kind == KindQuadratic && r.Kind == KindLinear,
		l.Kind == KindLinear && r.Kind == KindQuadratic,
		l.Kind == KindQuadratic && r.Kind == KindSignal,
		l.Kind == KindSignal && r.Kind == KindQuadratic:
		return NonQuadratic
	case l.Kind == KindNumber && r.Kind == KindNumber:
		return Num(f.Mul(l.Number, r.Number))
	case l.Kind == KindNumber && r.Kind == KindSignal:
		return Lin(singleton(r.Signal, l.Number))
	case l.Kind == KindSignal && r.Kind == KindNumber:
		return Lin(singleton(l.Signal, r.Number))
	case l.Kind == KindNumber && r.Kind == KindLinear:
		return Lin(scaleLinear(r.Lin, l.Number, f))
	case l.Kind == KindLinear && r.Kind == KindNumber:
		return Lin(scaleLinear(l.Lin, r.Number, f))
	case l.Kind == KindNumber && r.Kind == KindQuadratic:
		return Quad(scaleLinear(r.A, l.Number, f), r.B.Clone(), scaleLinear(r.C, l.Number, f))
	case l.Kind == KindQuadratic && r.Kind == KindNumber:
		return Quad(scaleLinear(l.A, r.Number, f), l.B.Clone(), scaleLinear(l.C, r.Number, f))
	case l.Kind == KindSignal && r.Kind == KindSignal:
		return Quad(singleton(l.Signal, one), singleton(r.Signal, one), Linear{ConstSlot: big.NewInt(0)})
	case l.Kind == KindSignal && r.Kind == KindLinear:
		return Quad(singleton(l.Signal, one), r.Lin.Clone(), Linear{ConstSlot: big.NewInt(0)})
	case l.Kind == KindLinear && r.Kind == KindSignal:
		return Quad(l.Lin.Clone(), singleton(r.Signal, one), Linear{ConstSlot: big.NewInt(0)})
	case l.Kind == KindLinear && r.Kind == KindLinear:
		return Quad(l.Lin.Clone(), r.Lin.Clone(), Linear{ConstSlot: big.NewInt(0)})
	default:
		return NonQuadratic
	}
}

// Sub is defined, per the closure laws, as add(l, mul(Number(p-1), r)),
// p-1 being the canonical representative of -1.
func Sub(l, r Expr, f *field.Field) Expr {
	return Add(l, Mul(Num(f.Neg(one)), r, f), f)
}

// Neg returns mul(Number(p-1), e).
func Neg(e Expr, f *field.Field) Expr { return Mul(Num(f.Neg(one)), e, f) }

// Div closes division: Number/Number, and {Signal,Linear,Quadratic}/Number
// (dividing every coefficient). Division by anything but a Number escapes
// to NonQuadratic rather than an error, because a non-constant divisor is
// not a representable closure, not necessarily a mistake.
func Div(l, r Expr, f *field.Field) (Expr, error) {
	if r.Kind != KindNumber {
		return NonQuadratic, nil
	}
	switch l.Kind {
	case KindNumber:
		v, err := f.Div(l.Number, r.Number)
		if err != nil {
			return Expr{}, err
		}
		return Num(v), nil
	case KindSignal:
		coeffs := singleton(l.Signal, one)
		out, err := divideLinear(coeffs, r.Number, f)
		if err != nil {
			return Expr{}, err
		}
		return Lin(out), nil
	case KindLinear:
		out, err := divideLinear(l.Lin, r.Number, f)
		if err != nil {
			return Expr{}, err
		}
		return Lin(out), nil
	case KindQuadratic:
		a, err := divideLinear(l.A, r.Number, f)
		if err != nil {
			return Expr{}, err
		}
		c, err := divideLinear(l.C, r.Number, f)
		if err != nil {
			return Expr{}, err
		}
		return Quad(a, l.B.Clone(), c), nil
	default:
		return NonQuadratic, nil
	}
}

func divideLinear(m Linear, v *big.Int, f *field.Field) (Linear, error) {
	out := make(Linear, len(m))
	for s, c := range m {
		q, err := f.Div(c, v)
		if err != nil {
			return nil, err
		}
		out[s] = q
	}
	return Ensure(out), nil
}

// Pow closes exponentiation only for Number^Number, Signal^2 (self
// multiply), and Linear^2; every other shape escapes to NonQuadratic.
func Pow(l, r Expr, f *field.Field) Expr {
	two := big.NewInt(2)
	switch {
	case l.Kind == KindNumber && r.Kind == KindNumber:
		return Num(f.Pow(l.Number, r.Number))
	case l.Kind == KindSignal && r.Kind == KindNumber && r.Number.Cmp(two) == 0:
		return Mul(l, l, f)
	case l.Kind == KindLinear && r.Kind == KindNumber && r.Number.Cmp(two) == 0:
		return Mul(l, l, f)
	default:
		return NonQuadratic
	}
}

// IDiv, ModOp, shifts, and bitwise ops are all defined only on Number x
// Number; any other shape escapes to NonQuadratic (never an error — the
// caller decides whether a NonQuadratic result in this position is fatal).
func IDiv(l, r Expr, f *field.Field) (Expr, error) { return numberOnlyBinOp(l, r, f.IDiv) }
func ModOp(l, r Expr, f *field.Field) (Expr, error) { return numberOnlyBinOp(l, r, f.ModOp) }

func ShiftLeft(l, r Expr, f *field.Field) (Expr, error)  { return numberOnlyBinOp(l, r, f.ShiftLeft) }
func ShiftRight(l, r Expr, f *field.Field) (Expr, error) { return numberOnlyBinOp(l, r, f.ShiftRight) }

func numberOnlyBinOp(l, r Expr, op func(a, b *big.Int) (*big.Int, error)) (Expr, error) {
	if l.Kind != KindNumber || r.Kind != KindNumber {
		return NonQuadratic, nil
	}
	v, err := op(l.Number, r.Number)
	if err != nil {
		return Expr{}, err
	}
	return Num(v), nil
}

func BitAnd(l, r Expr, f *field.Field) Expr { return numberOnlyPureBinOp(l, r, f.And) }
func BitOr(l, r Expr, f *field.Field) Expr  { return numberOnlyPureBinOp(l, r, f.Or) }
func BitXor(l, r Expr, f *field.Field) Expr { return numberOnlyPureBinOp(l, r, f.Xor) }

func numberOnlyPureBinOp(l, r Expr, op func(a, b *big.Int) *big.Int) Expr {
	if l.Kind != KindNumber || r.Kind != KindNumber {
		return NonQuadratic
	}
	return Num(op(l.Number, r.Number))
}

// Complement is defined only on Number.
func Complement(e Expr, f *field.Field) Expr {
	if e.Kind != KindNumber {
		return NonQuadratic
	}
	return Num(f.Complement(e.Number))
}

// Not is boolean negation, defined only on Number (DSL's `!`).
func Not(e Expr, f *field.Field) Expr {
	if e.Kind != KindNumber {
		return NonQuadratic
	}
	return Num(f.FromBool(!f.AsBool(e.Number)))
}

// BoolEquivalence reports the Number's boolean value, or (false, false) if
// e is not a compile-time Number.
func BoolEquivalence(e Expr, f *field.Field) (value, ok bool) {
	if e.Kind != KindNumber {
		return false, false
	}
	return f.AsBool(e.Number), true
}
