package errors

import (
	"testing"

	"github.com/iden3/circomgo/internal/ast"
	"github.com/stretchr/testify/require"
)

func TestReporterCollectsWithoutAborting(t *testing.T) {
	r := NewReporter()
	require.False(t, r.HasErrors())

	r.Add(New(KindNonQuadraticConstraint, ast.Position{Line: 1}, "signal*signal*signal"))
	r.Add(New(KindFalseAssert, ast.Position{Line: 2}, "assert(3 === 0) failed"))

	require.True(t, r.HasErrors())
	require.Len(t, r.Errors(), 2)
}

func TestCompilerErrorCallTrace(t *testing.T) {
	err := New(KindUnknownSizeDimension, ast.Position{Line: 5}, "array length depends on signal x")
	err = err.WithTrace([]Frame{
		{Name: "Main", Pos: ast.Position{Line: 10}},
		{Name: "Inner", Pos: ast.Position{Line: 5}},
	})

	msg := err.Error()
	require.Contains(t, msg, "UnknownSizeDimension")
	require.Contains(t, msg, "in Main")
	require.Contains(t, msg, "in Inner")
}

func TestDescribeKnownAndUnknown(t *testing.T) {
	require.NotEmpty(t, Describe(KindDivisionByZero))
	require.Empty(t, Describe(Kind("not-a-real-kind")))
}
