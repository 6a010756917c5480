package eval

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iden3/circomgo/internal/algebra"
	"github.com/iden3/circomgo/internal/ast"
	"github.com/iden3/circomgo/internal/field"
	"github.com/iden3/circomgo/internal/ir"
	"github.com/iden3/circomgo/internal/simplify"
)

func testFieldBN(t *testing.T) *field.Field {
	t.Helper()
	f, err := field.NewFromName("bn254")
	require.NoError(t, err)
	return f
}

func pos(line int) ast.Position { return ast.Position{Line: line} }

func ident(name string) ast.Expr { return &ast.IdentExpr{Name: name} }
func num(n int64) ast.Expr       { return &ast.NumberLit{Value: big.NewInt(n)} }

func block(stmts ...ast.Stmt) *ast.Block { return &ast.Block{Stmts: stmts} }

// identityTemplate builds `template Identity(){ signal input x; signal
// output y; y <== x; }`.
func identityTemplate() *ast.TemplateDecl {
	return &ast.TemplateDecl{
		Name: "Identity",
		Body: block(
			&ast.Declaration{Kind: ast.DeclSignal, SignalKind: ast.SignalInput, Name: "x"},
			&ast.Declaration{Kind: ast.DeclSignal, SignalKind: ast.SignalOutput, Name: "y"},
			&ast.Assignment{Target: ident("y"), Op: ast.AssignConstraint, Value: ident("x")},
		),
	}
}

func runTemplate(t *testing.T, f *field.Field, tmpl *ast.TemplateDecl, params ...*big.Int) (*Evaluator, *Instance) {
	t.Helper()
	templates := map[string]*ast.TemplateDecl{tmpl.Name: tmpl}
	ev := New(f, templates, nil, nil)
	prog, err := ev.Run(Entry{Template: tmpl.Name, Params: params})
	require.NoError(t, err)
	require.Len(t, prog.Instances, 1)
	return ev, prog.Instances[0]
}

// Seed scenario 1: y <== x with one input produces exactly one constraint
// x - y = 0.
func TestIdentityTemplateProducesOneConstraint(t *testing.T) {
	f := testFieldBN(t)
	_, inst := runTemplate(t, f, identityTemplate())

	require.Equal(t, 1, inst.Constraints.Len())
	ids := inst.Constraints.IDs()
	c, ok := inst.Constraints.Get(ids[0])
	require.True(t, ok)
	require.True(t, c.IsEquality())
}

// Seed scenario 2: y <== x * x produces one quadratic constraint
// A={x:1}, B={x:1}, C={y:1} (with the constant slot present, coefficient 0).
func TestSquareProducesQuadraticConstraint(t *testing.T) {
	f := testFieldBN(t)
	tmpl := &ast.TemplateDecl{
		Name: "Square",
		Body: block(
			&ast.Declaration{Kind: ast.DeclSignal, SignalKind: ast.SignalInput, Name: "x"},
			&ast.Declaration{Kind: ast.DeclSignal, SignalKind: ast.SignalOutput, Name: "y"},
			&ast.Assignment{
				Target: ident("y"),
				Op:     ast.AssignConstraint,
				Value:  &ast.BinaryExpr{Op: "*", Left: ident("x"), Right: ident("x")},
			},
		),
	}
	_, inst := runTemplate(t, f, tmpl)

	require.Equal(t, 1, inst.Constraints.Len())
	ids := inst.Constraints.IDs()
	c, ok := inst.Constraints.Get(ids[0])
	require.True(t, ok)
	require.False(t, c.IsLinear())

	xID := inst.Wires["x"].IDs[0]
	yID := inst.Wires["y"].IDs[0]
	require.Equal(t, int64(1), c.A[xID].Int64())
	require.Equal(t, int64(1), c.B[xID].Int64())
	require.Contains(t, c.C, yID)
	require.Contains(t, c.A, algebra.ConstSlot)
	require.Equal(t, int64(0), c.A[algebra.ConstSlot].Int64())
}

// Seed scenario 4: assert(n == 0) with n a known constant 3 raises
// FalseAssert at elaboration.
func TestFalseAssertReportsError(t *testing.T) {
	f := testFieldBN(t)
	tmpl := &ast.TemplateDecl{
		Name: "Bad",
		Body: block(
			&ast.Declaration{Kind: ast.DeclVariable, Name: "n"},
			&ast.Assignment{Target: ident("n"), Op: ast.AssignPlain, Value: num(3)},
			&ast.AssertStmt{StmtPos: pos(10), Cond: &ast.BinaryExpr{Op: "==", Left: ident("n"), Right: num(0)}},
		),
	}
	templates := map[string]*ast.TemplateDecl{tmpl.Name: tmpl}
	ev := New(f, templates, nil, nil)
	_, err := ev.Run(Entry{Template: tmpl.Name})
	require.Error(t, err)
	require.True(t, ev.Reporter.HasErrors())
	require.Equal(t, "FalseAssert", string(ev.Reporter.Errors()[0].Kind))
}

// Seed scenario 6: y <-- 1/x is accepted without a constraint. Dividing by
// a signal folds to NonQuadratic, which the witness-only '<--' form
// tolerates because it emits no constraint; the '<==' form of the same
// assignment would be rejected as non-quadratic.
func TestWitnessOnlyAssignmentSkipsConstraint(t *testing.T) {
	f := testFieldBN(t)
	tmpl := &ast.TemplateDecl{
		Name: "Inv",
		Body: block(
			&ast.Declaration{Kind: ast.DeclSignal, SignalKind: ast.SignalInput, Name: "x"},
			&ast.Declaration{Kind: ast.DeclSignal, SignalKind: ast.SignalOutput, Name: "y"},
			&ast.Assignment{
				Target: ident("y"),
				Op:     ast.AssignSignal,
				Value:  &ast.BinaryExpr{Op: "/", Left: num(1), Right: ident("x")},
			},
		),
	}
	_, inst := runTemplate(t, f, tmpl)
	require.Equal(t, 0, inst.Constraints.Len())
}

// A chain a <== b; b <== c; produces two equality constraints prior to
// simplification (Component H eliminates the intermediate, tested there).
func TestChainOfEqualitiesProducesTwoConstraints(t *testing.T) {
	f := testFieldBN(t)
	tmpl := &ast.TemplateDecl{
		Name: "Chain",
		Body: block(
			&ast.Declaration{Kind: ast.DeclSignal, SignalKind: ast.SignalInput, Name: "c"},
			&ast.Declaration{Kind: ast.DeclSignal, SignalKind: ast.SignalIntermediate, Name: "b"},
			&ast.Declaration{Kind: ast.DeclSignal, SignalKind: ast.SignalOutput, Name: "a"},
			&ast.Assignment{Target: ident("b"), Op: ast.AssignConstraint, Value: ident("c")},
			&ast.Assignment{Target: ident("a"), Op: ast.AssignConstraint, Value: ident("b")},
		),
	}
	_, inst := runTemplate(t, f, tmpl)
	require.Equal(t, 2, inst.Constraints.Len())
}

// Double assignment to the same signal is rejected.
func TestDoubleSignalAssignmentRejected(t *testing.T) {
	f := testFieldBN(t)
	tmpl := &ast.TemplateDecl{
		Name: "Dup",
		Body: block(
			&ast.Declaration{Kind: ast.DeclSignal, SignalKind: ast.SignalInput, Name: "x"},
			&ast.Declaration{Kind: ast.DeclSignal, SignalKind: ast.SignalOutput, Name: "y"},
			&ast.Assignment{Target: ident("y"), Op: ast.AssignConstraint, Value: ident("x")},
			&ast.Assignment{Target: ident("y"), Op: ast.AssignConstraint, Value: ident("x")},
		),
	}
	templates := map[string]*ast.TemplateDecl{tmpl.Name: tmpl}
	ev := New(f, templates, nil, nil)
	_, err := ev.Run(Entry{Template: tmpl.Name})
	require.Error(t, err)
	require.Equal(t, "AssignmentError", string(ev.Reporter.Errors()[0].Kind))
}

// if/else over a known condition statically resolves: only the taken
// branch's constraint is emitted, and no ir.Branch bucket appears.
func TestKnownConditionDoesNotEmitBranchBucket(t *testing.T) {
	f := testFieldBN(t)
	tmpl := &ast.TemplateDecl{
		Name: "Known",
		Params: []string{"flag"},
		Body: block(
			&ast.Declaration{Kind: ast.DeclSignal, SignalKind: ast.SignalOutput, Name: "y"},
			&ast.IfStmt{
				Cond: ident("flag"),
				Then: block(&ast.Assignment{Target: ident("y"), Op: ast.AssignConstraint, Value: num(1)}),
				Else: block(&ast.Assignment{Target: ident("y"), Op: ast.AssignConstraint, Value: num(0)}),
			},
		),
	}
	_, inst := runTemplate(t, f, tmpl, big.NewInt(1))
	require.Equal(t, 1, inst.Constraints.Len())
	for _, b := range inst.IR.Root {
		_, isBranch := b.(*ir.Branch)
		require.False(t, isBranch)
	}
}

// Template instantiation is memoized: two calls to the same sub-template
// with identical parameters reuse one Instance.
func TestTemplateInstantiationIsMemoized(t *testing.T) {
	f := testFieldBN(t)
	inner := identityTemplate()
	outer := &ast.TemplateDecl{
		Name: "Outer",
		Body: block(
			&ast.Declaration{Kind: ast.DeclComponent, Name: "a"},
			&ast.Declaration{Kind: ast.DeclComponent, Name: "b"},
			&ast.Assignment{Target: ident("a"), Op: ast.AssignPlain, Value: &ast.CallExpr{Callee: "Identity"}},
			&ast.Assignment{Target: ident("b"), Op: ast.AssignPlain, Value: &ast.CallExpr{Callee: "Identity"}},
		),
	}
	templates := map[string]*ast.TemplateDecl{inner.Name: inner, outer.Name: outer}
	ev := New(f, templates, nil, nil)
	prog, err := ev.Run(Entry{Template: "Outer"})
	require.NoError(t, err)
	require.Len(t, prog.Instances, 2) // Outer + one shared Identity instance
}

// Seed scenario 5: a while loop whose condition depends on a signal (never
// compile-time-known) is rejected at elaboration with UnknownCondition,
// rather than silently treated as a single iteration or an infinite loop.
func TestWhileWithUnknownConditionRejected(t *testing.T) {
	f := testFieldBN(t)
	tmpl := &ast.TemplateDecl{
		Name: "Loopy",
		Body: block(
			&ast.Declaration{Kind: ast.DeclSignal, SignalKind: ast.SignalInput, Name: "x"},
			&ast.WhileStmt{
				Cond: &ast.BinaryExpr{Op: "<", Left: ident("x"), Right: num(10)},
				Body: block(),
			},
		),
	}
	templates := map[string]*ast.TemplateDecl{tmpl.Name: tmpl}
	ev := New(f, templates, nil, nil)
	_, err := ev.Run(Entry{Template: tmpl.Name})
	require.Error(t, err)
	require.Equal(t, "UnknownCondition", string(ev.Reporter.Errors()[0].Kind))
}

// A while loop whose condition is a compile-time-known expression unrolls
// statically: each iteration's body constraints are all emitted, with no
// ir.Loop bucket (this evaluator never constructs one — while conditions
// must always be compile-time-resolvable in this language).
func TestKnownConditionWhileUnrollsStatically(t *testing.T) {
	f := testFieldBN(t)
	tmpl := &ast.TemplateDecl{
		Name: "Count",
		Body: block(
			&ast.Declaration{Kind: ast.DeclVariable, Name: "i"},
			&ast.Declaration{Kind: ast.DeclSignal, SignalKind: ast.SignalOutput, Name: "y", Dims: []ast.Expr{num(3)}},
			&ast.Assignment{Target: ident("i"), Op: ast.AssignPlain, Value: num(0)},
			&ast.WhileStmt{
				Cond: &ast.BinaryExpr{Op: "<", Left: ident("i"), Right: num(3)},
				Body: block(
					&ast.Assignment{
						Target: &ast.IndexExpr{Base: ident("y"), Index: ident("i")},
						Op:     ast.AssignConstraint,
						Value:  num(0),
					},
					&ast.Assignment{Target: ident("i"), Op: ast.AssignPlain, Value: &ast.BinaryExpr{Op: "+", Left: ident("i"), Right: num(1)}},
				),
			},
		),
	}
	_, inst := runTemplate(t, f, tmpl)
	require.Equal(t, 3, inst.Constraints.Len())
	for _, b := range inst.IR.Root {
		_, isLoop := b.(*ir.Loop)
		require.False(t, isLoop)
	}
}

// With both x and y public, Identity's single x-y=0 constraint is an
// equality between two forbidden signals and must survive simplification
// unchanged, per simplify's Phase A rule.
func TestSimplifyKeepsEqualityBetweenTwoPublicSignals(t *testing.T) {
	f := testFieldBN(t)
	templates := map[string]*ast.TemplateDecl{"Identity": identityTemplate()}
	ev := New(f, templates, nil, nil)
	_, err := ev.Run(Entry{Template: "Identity"})
	require.NoError(t, err)

	res, err := ev.Simplify(Entry{Template: "Identity", Public: []string{"x", "y"}}, simplify.Config{})
	require.NoError(t, err)
	require.Equal(t, 1, ev.Program.Instances[0].Constraints.Len())
	require.Empty(t, res.Substitutions)
}

// With only y public, x is not forbidden and the chain folds away: the
// store ends empty and x substitutes to y.
func TestSimplifyFoldsNonPublicSignalAway(t *testing.T) {
	f := testFieldBN(t)
	templates := map[string]*ast.TemplateDecl{"Identity": identityTemplate()}
	ev := New(f, templates, nil, nil)
	_, err := ev.Run(Entry{Template: "Identity"})
	require.NoError(t, err)

	root := ev.Program.Instances[0]
	xID := root.Wires["x"].IDs[0]
	yID := root.Wires["y"].IDs[0]

	res, err := ev.Simplify(Entry{Template: "Identity", Public: []string{"y"}}, simplify.Config{})
	require.NoError(t, err)
	require.Equal(t, 0, root.Constraints.Len())
	require.Contains(t, res.Substitutions, xID)
	require.Equal(t, 0, res.Substitutions[xID][yID].Cmp(big.NewInt(1)))
	require.Same(t, res, ev.Program.Simplified)
}
