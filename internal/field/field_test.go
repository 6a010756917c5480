package field

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func small(t *testing.T) *Field {
	t.Helper()
	return New(big.NewInt(17))
}

func TestCanonicalRepresentative(t *testing.T) {
	f := small(t)
	require.Equal(t, big.NewInt(3), f.Add(big.NewInt(10), big.NewInt(10))) // 20 mod 17 = 3
	require.Equal(t, big.NewInt(16), f.Sub(big.NewInt(0), big.NewInt(1)))  // -1 mod 17 = 16
}

func TestInverseAndDiv(t *testing.T) {
	f := small(t)
	for a := int64(1); a < 17; a++ {
		inv, err := f.Inverse(big.NewInt(a))
		require.NoError(t, err)
		require.Equal(t, big.NewInt(1), f.Mul(big.NewInt(a), inv))
	}
	_, err := f.Inverse(big.NewInt(0))
	require.ErrorIs(t, err, ErrDivisionByZero)
}

func TestDivisionByZero(t *testing.T) {
	f := small(t)
	_, err := f.Div(big.NewInt(5), big.NewInt(0))
	require.ErrorIs(t, err, ErrDivisionByZero)
}

func TestNonCoprimeModulusFails(t *testing.T) {
	// 21 = 3*7 is not prime; 3 and 7 are not invertible mod 21.
	f := New(big.NewInt(21))
	_, err := f.Inverse(big.NewInt(3))
	require.ErrorIs(t, err, ErrDivisionByZero)
}

func TestShiftOverflow(t *testing.T) {
	f := small(t) // 17 fits in 5 bits
	_, err := f.ShiftLeft(big.NewInt(1), big.NewInt(100))
	require.ErrorIs(t, err, ErrBitOverflowInShift)

	r, err := f.ShiftLeft(big.NewInt(1), big.NewInt(2))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(4), r)
}

func TestPow(t *testing.T) {
	f := small(t)
	require.Equal(t, big.NewInt(8), f.Pow(big.NewInt(2), big.NewInt(3)))
}

func TestBoolRoundTrip(t *testing.T) {
	f := small(t)
	require.True(t, f.AsBool(big.NewInt(5)))
	require.False(t, f.AsBool(big.NewInt(0)))
	require.Equal(t, big.NewInt(1), f.FromBool(true))
	require.Equal(t, big.NewInt(0), f.FromBool(false))
}

func TestNewFromNameRejectsUnknown(t *testing.T) {
	_, err := NewFromName("not-a-real-curve")
	require.Error(t, err)
}

func TestNewFromNameKnown(t *testing.T) {
	f, err := NewFromName("bn254")
	require.NoError(t, err)
	require.True(t, f.Modulus().ProbablyPrime(20))
}
