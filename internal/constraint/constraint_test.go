package constraint

import (
	"math/big"
	"testing"

	"github.com/iden3/circomgo/internal/algebra"
	"github.com/iden3/circomgo/internal/field"
	"github.com/stretchr/testify/require"
)

func testField() *field.Field { return field.New(big.NewInt(101)) }

func TestIsEqualityDetectsSignalEquality(t *testing.T) {
	f := testField()
	// x - y = 0
	c := New(
		algebra.Linear{algebra.ConstSlot: big.NewInt(0)},
		algebra.Linear{algebra.ConstSlot: big.NewInt(0)},
		algebra.Linear{algebra.ConstSlot: big.NewInt(0), 1: big.NewInt(1), 2: f.Neg(big.NewInt(1))},
	)
	require.True(t, c.IsLinear())
	require.True(t, c.IsEquality())
	require.False(t, c.IsConstantEquality())
}

func TestIsConstantEquality(t *testing.T) {
	// x - 5 = 0
	c := New(
		algebra.Linear{algebra.ConstSlot: big.NewInt(0)},
		algebra.Linear{algebra.ConstSlot: big.NewInt(0)},
		algebra.Linear{algebra.ConstSlot: big.NewInt(-5), 1: big.NewInt(1)},
	)
	require.True(t, c.IsConstantEquality())
	require.False(t, c.IsEquality())
}

func TestHasConstantCoefficientThreeWay(t *testing.T) {
	withConstA := New(
		algebra.Linear{algebra.ConstSlot: big.NewInt(1)},
		algebra.Linear{algebra.ConstSlot: big.NewInt(0)},
		algebra.Linear{algebra.ConstSlot: big.NewInt(0)},
	)
	require.True(t, withConstA.HasConstantCoefficient())

	allZero := New(
		algebra.Linear{algebra.ConstSlot: big.NewInt(0)},
		algebra.Linear{algebra.ConstSlot: big.NewInt(0)},
		algebra.Linear{algebra.ConstSlot: big.NewInt(0)},
	)
	require.False(t, allZero.HasConstantCoefficient())
}

func TestClearSignalFromLinear(t *testing.T) {
	f := testField()
	// 2x - y - 3 = 0 -> x = (y + 3) / 2
	c := New(
		algebra.Linear{algebra.ConstSlot: big.NewInt(0)},
		algebra.Linear{algebra.ConstSlot: big.NewInt(0)},
		algebra.Linear{algebra.ConstSlot: big.NewInt(-3), 1: big.NewInt(2), 2: big.NewInt(-1)},
	)
	lin, err := ClearSignalFromLinear(c, 1, f)
	require.NoError(t, err)

	inv2, _ := f.Inverse(big.NewInt(2))
	require.Equal(t, 0, lin[2].Cmp(inv2))
	require.Equal(t, 0, lin[algebra.ConstSlot].Cmp(f.Mul(big.NewInt(3), inv2)))
}

func TestClearSignalFromLinearRejectsQuadratic(t *testing.T) {
	f := testField()
	c := New(
		algebra.Linear{algebra.ConstSlot: big.NewInt(0), 1: big.NewInt(1)},
		algebra.Linear{algebra.ConstSlot: big.NewInt(0), 2: big.NewInt(1)},
		algebra.Linear{algebra.ConstSlot: big.NewInt(0)},
	)
	_, err := ClearSignalFromLinear(c, 1, f)
	require.ErrorIs(t, err, ErrNotLinear)
}

func TestApplySubstitutionFoldsIntoC(t *testing.T) {
	f := testField()
	// (x)*(y) - 0 = 0, substitute x -> 2 (constant)
	c := New(
		algebra.Linear{algebra.ConstSlot: big.NewInt(0), 1: big.NewInt(1)},
		algebra.Linear{algebra.ConstSlot: big.NewInt(0), 2: big.NewInt(1)},
		algebra.Linear{algebra.ConstSlot: big.NewInt(0)},
	)
	sub := map[int]algebra.Linear{1: {algebra.ConstSlot: big.NewInt(2)}}
	out := ApplySubstitution(c, sub, f)
	require.True(t, out.IsLinear())
	require.Equal(t, 0, out.A[algebra.ConstSlot].Sign())
	require.Equal(t, 0, out.B[algebra.ConstSlot].Sign())
}

func TestStoreAddReplaceRemove(t *testing.T) {
	s := NewStore()
	c1 := New(algebra.Linear{algebra.ConstSlot: big.NewInt(0)}, algebra.Linear{algebra.ConstSlot: big.NewInt(0)}, algebra.Linear{algebra.ConstSlot: big.NewInt(1)})
	id1 := s.Add(c1)
	id2 := s.Add(c1)
	require.NotEqual(t, id1, id2)
	require.Equal(t, 2, s.Len())

	s.Replace(id1, New(algebra.Linear{algebra.ConstSlot: big.NewInt(0)}, algebra.Linear{algebra.ConstSlot: big.NewInt(0)}, algebra.Linear{algebra.ConstSlot: big.NewInt(2)}))
	got, ok := s.Get(id1)
	require.True(t, ok)
	require.Equal(t, 0, got.C[algebra.ConstSlot].Cmp(big.NewInt(2)))

	s.Remove(id2)
	require.Equal(t, 1, s.Len())
	_, ok = s.Get(id2)
	require.False(t, ok)
}

func TestStoreExtractMatching(t *testing.T) {
	s := NewStore()
	empty := New(algebra.Linear{algebra.ConstSlot: big.NewInt(0)}, algebra.Linear{algebra.ConstSlot: big.NewInt(0)}, algebra.Linear{algebra.ConstSlot: big.NewInt(0)})
	nonEmpty := New(algebra.Linear{algebra.ConstSlot: big.NewInt(0)}, algebra.Linear{algebra.ConstSlot: big.NewInt(0)}, algebra.Linear{algebra.ConstSlot: big.NewInt(1)})
	s.Add(empty)
	s.Add(nonEmpty)

	matched := s.ExtractMatching(func(c Constraint) bool { return c.IsEmpty() })
	require.Len(t, matched, 1)
	require.Equal(t, 1, s.Len())
}
