package algebra

import (
	"math/big"
	"testing"

	"github.com/iden3/circomgo/internal/field"
	"github.com/stretchr/testify/require"
)

func testField(t *testing.T) *field.Field {
	t.Helper()
	return field.New(big.NewInt(101))
}

func exprsEqual(t *testing.T, a, b Expr) {
	t.Helper()
	require.Equal(t, a.Kind, b.Kind)
	switch a.Kind {
	case KindNumber:
		require.Equal(t, 0, a.Number.Cmp(b.Number))
	case KindSignal:
		require.Equal(t, a.Signal, b.Signal)
	case KindLinear:
		require.True(t, linearEqual(a.Lin, b.Lin))
	case KindQuadratic:
		require.True(t, linearEqual(a.A, b.A))
		require.True(t, linearEqual(a.B, b.B))
		require.True(t, linearEqual(a.C, b.C))
	}
}

func linearEqual(a, b Linear) bool {
	seen := map[Signal]bool{}
	for s, c := range a {
		seen[s] = true
		if other, ok := b[s]; !ok {
			if c.Sign() != 0 {
				return false
			}
		} else if c.Cmp(other) != 0 {
			return false
		}
	}
	for s, c := range b {
		if seen[s] {
			continue
		}
		if c.Sign() != 0 {
			return false
		}
	}
	return true
}

func TestAddCommutative(t *testing.T) {
	f := testField(t)
	cases := []Expr{Num(big.NewInt(7)), Sig(3), Lin(Linear{ConstSlot: big.NewInt(1), 2: big.NewInt(5)}),
		Quad(Linear{ConstSlot: big.NewInt(0), 1: big.NewInt(1)}, Linear{ConstSlot: big.NewInt(0), 2: big.NewInt(1)}, Linear{ConstSlot: big.NewInt(3)})}
	for _, l := range cases {
		for _, r := range cases {
			exprsEqual(t, Add(l, r, f), Add(r, l, f))
		}
	}
}

func TestSubViaAddNeg(t *testing.T) {
	f := testField(t)
	l := Sig(4)
	r := Lin(Linear{ConstSlot: big.NewInt(2), 5: big.NewInt(3)})
	got := Sub(l, r, f)
	want := Add(l, Mul(Num(big.NewInt(-1)), r, f), f)
	exprsEqual(t, got, want)
}

func TestMultiplicationEscapesToNonQuadratic(t *testing.T) {
	f := testField(t)
	quad := Quad(Linear{ConstSlot: big.NewInt(0), 1: big.NewInt(1)}, Linear{ConstSlot: big.NewInt(0), 2: big.NewInt(1)}, Linear{ConstSlot: big.NewInt(0)})
	require.Equal(t, KindNonQuadratic, Mul(quad, Sig(3), f).Kind)
	require.Equal(t, KindNonQuadratic, Mul(quad, quad, f).Kind)
}

func TestSignalSquareIsQuadratic(t *testing.T) {
	f := testField(t)
	sq := Pow(Sig(9), Num(big.NewInt(2)), f)
	require.Equal(t, KindQuadratic, sq.Kind)
	require.True(t, linearEqual(sq.A, singleton(9, one)))
	require.True(t, linearEqual(sq.B, singleton(9, one)))
}

func TestDivisionByNonNumberEscapes(t *testing.T) {
	f := testField(t)
	got, err := Div(Sig(1), Sig(2), f)
	require.NoError(t, err)
	require.Equal(t, KindNonQuadratic, got.Kind)
}

func TestDivisionByZeroNumberFails(t *testing.T) {
	f := testField(t)
	_, err := Div(Sig(1), Num(big.NewInt(0)), f)
	require.Error(t, err)
}

func TestTransformToConstraintForm(t *testing.T) {
	f := testField(t)
	e := Sub(Sig(1), Sig(2), f) // x - y
	cf, ok := TransformExpressionToConstraintForm(e, f)
	require.True(t, ok)
	require.True(t, cf.A.IsZero())
	require.True(t, cf.B.IsZero())
	// C should be -(x - y) = y - x
	require.Equal(t, 0, cf.C[1].Cmp(big.NewInt(100))) // -1 mod 101
	require.Equal(t, 0, cf.C[2].Cmp(big.NewInt(1)))
}

func TestTransformNonQuadraticFails(t *testing.T) {
	f := testField(t)
	_, ok := TransformExpressionToConstraintForm(NonQuadratic, f)
	require.False(t, ok)
}

func TestApplySubstitutionsNeverReintroducesFrom(t *testing.T) {
	f := testField(t)
	// x = 2*y + 3
	subs := map[Signal]Linear{1: {ConstSlot: big.NewInt(3), 2: big.NewInt(2)}}
	e := Lin(Linear{ConstSlot: big.NewInt(0), 1: big.NewInt(5), 3: big.NewInt(1)})
	out := ApplySubstitutions(e, subs, f)
	require.Equal(t, KindLinear, out.Kind)
	_, stillThere := out.Lin[1]
	require.False(t, stillThere)
}

func TestEveryLinearOutputHasConstSlot(t *testing.T) {
	f := testField(t)
	out := Add(Sig(1), Sig(2), f)
	_, ok := out.Lin[ConstSlot]
	require.True(t, ok)
}
