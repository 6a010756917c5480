// Package semantic implements Component E: the static type checker and the
// unknown/known propagation analyzer that runs ahead of elaboration so the
// evaluator never has to reject a program mid-constraint-emission.
package semantic

import (
	"github.com/iden3/circomgo/internal/ast"
	"github.com/iden3/circomgo/internal/errors"
	"github.com/iden3/circomgo/internal/types"
)

// Analyzer walks a single template or function body, type-checking each
// statement and propagating known/unknown state through it. One Analyzer
// instance is used per template instantiation — it holds no state across
// instances.
type Analyzer struct {
	errs      []errors.CompilerError
	symbols   *SymbolTable
	buses     map[string]*types.Bus
	functions map[string]*ast.FunctionDecl
	templates map[string]*ast.TemplateDecl
}

// NewAnalyzer builds an Analyzer sharing the given bus/function/template
// declaration tables (built once for the whole program and reused for
// every instantiation).
func NewAnalyzer(buses map[string]*types.Bus, functions map[string]*ast.FunctionDecl, templates map[string]*ast.TemplateDecl) *Analyzer {
	return &Analyzer{
		symbols:   NewSymbolTable(nil),
		buses:     buses,
		functions: functions,
		templates: templates,
	}
}

// Errors returns every diagnostic collected during AnalyzeTemplate/
// AnalyzeFunction.
func (a *Analyzer) Errors() []errors.CompilerError { return a.errs }

// HasErrors reports whether any diagnostic was collected.
func (a *Analyzer) HasErrors() bool { return len(a.errs) > 0 }

func (a *Analyzer) report(pos ast.Position, kind errors.Kind, format string, args ...interface{}) {
	a.errs = append(a.errs, errors.New(kind, pos, format, args...))
}

// AnalyzeTemplate type-checks and propagates known/unknown state through a
// template body. Per Component E: template parameters start Known; every
// signal, bus, or component declared inside starts Unknown.
func (a *Analyzer) AnalyzeTemplate(t *ast.TemplateDecl) {
	for _, p := range t.Params {
		a.symbols.Define(p, types.Type{Kind: types.SymbolVariable}, t, t.Pos(), Known)
	}
	a.analyzeBlock(t.Body, false)
}

// AnalyzeFunction type-checks a function body. Functions never declare
// signals/buses/components, so the only state tracked is variable
// known/unknown.
func (a *Analyzer) AnalyzeFunction(f *ast.FunctionDecl) {
	for _, p := range f.Params {
		a.symbols.Define(p, types.Type{Kind: types.SymbolVariable}, f, f.Pos(), Known)
	}
	a.analyzeBlock(f.Body, false)
}

// analyzeBlock walks a statement sequence in a fresh child scope.
// inUnknownBranch is true when this block is the body of a branch whose
// condition could not be resolved at compile time; in that case declaring
// signals, writing tags, or emitting constraints is forbidden.
func (a *Analyzer) analyzeBlock(b *ast.Block, inUnknownBranch bool) {
	saved := a.symbols
	a.symbols = a.symbols.Child()
	defer func() { a.symbols = saved }()

	for _, stmt := range b.Stmts {
		a.analyzeStmt(stmt, inUnknownBranch)
	}
}

func (a *Analyzer) analyzeStmt(stmt ast.Stmt, inUnknownBranch bool) {
	switch s := stmt.(type) {
	case *ast.Declaration:
		a.analyzeDeclaration(s, inUnknownBranch)
	case *ast.Assignment:
		a.analyzeAssignment(s, inUnknownBranch)
	case *ast.ConstraintStmt:
		if inUnknownBranch {
			a.report(s.Pos(), errors.KindUnknownCondition, "constraint emitted inside a branch whose condition is not known at compile time")
			return
		}
		a.exprState(s.Left)
		a.exprState(s.Right)
	case *ast.IfStmt:
		a.analyzeIf(s, inUnknownBranch)
	case *ast.WhileStmt:
		a.analyzeWhile(s, inUnknownBranch)
	case *ast.ReturnStmt:
		if s.Value != nil {
			a.exprState(s.Value)
		}
	case *ast.AssertStmt:
		a.exprState(s.Cond)
	case *ast.LogStmt:
		a.exprState(s.Value)
	}
}

func (a *Analyzer) analyzeDeclaration(d *ast.Declaration, inUnknownBranch bool) {
	dims, dimsKnown := a.resolveDims(d.Dims)
	if !dimsKnown {
		a.report(d.Pos(), errors.KindUnknownSizeDimension, "array length of %q depends on a value not known at compile time", d.Name)
	}

	var t types.Type
	switch d.Kind {
	case ast.DeclVariable:
		if d.Tag {
			t = types.Type{Kind: types.SymbolTag, Dims: dims}
		} else {
			t = types.Type{Kind: types.SymbolVariable, Dims: dims}
		}
	case ast.DeclSignal:
		if inUnknownBranch {
			a.report(d.Pos(), errors.KindUnknownCondition, "signal %q declared inside a branch whose condition is not known at compile time", d.Name)
		}
		t = types.Type{Kind: types.SymbolSignal, Dims: dims, SignalKind: d.SignalKind}
	case ast.DeclComponent:
		t = types.Type{Kind: types.SymbolComponent, Dims: dims}
	case ast.DeclBus:
		if _, ok := a.buses[d.BusType]; !ok {
			a.report(d.Pos(), errors.KindUnknownField, "bus type %q is not declared", d.BusType)
		}
		t = types.Type{Kind: types.SymbolBus, Dims: dims, BusName: d.BusType}
	}

	state := Known
	if d.Kind == ast.DeclSignal || d.Kind == ast.DeclBus || d.Kind == ast.DeclComponent {
		state = UnknownValue
	}
	a.symbols.Define(d.Name, t, d, d.Pos(), state)
}

func (a *Analyzer) analyzeAssignment(asn *ast.Assignment, inUnknownBranch bool) {
	target, ok := a.resolveAccessType(asn.Target)
	if !ok {
		return
	}
	if !target.AssignmentLegal(asn.Op) {
		a.report(asn.Pos(), errors.KindInvalidOperator, "operator %s is not legal on a %s", asn.Op, target.Kind)
		return
	}

	valState := a.exprState(asn.Value)

	if asn.Op == ast.AssignConstraint && valState == UnknownValue {
		// a genuinely unknown (runtime) rhs is fine for <==; only a
		// statically NonQuadratic rhs is rejected, which the evaluator
		// detects once it actually folds the expression. The analyzer's
		// job here is limited to flagging branch-conditioned emission.
	}

	if inUnknownBranch && (asn.Op == ast.AssignConstraint || target.Kind == types.SymbolTag) {
		a.report(asn.Pos(), errors.KindUnknownCondition, "operator %s on a %s inside a branch whose condition is not known at compile time", asn.Op, target.Kind)
	}

	if name, ok := identName(asn.Target); ok && target.Kind == types.SymbolVariable {
		if valState == UnknownValue || inUnknownBranch {
			a.symbols.MarkUnknown(name)
		}
	}
}

func (a *Analyzer) analyzeIf(s *ast.IfStmt, inUnknownBranch bool) {
	condState := a.exprState(s.Cond)
	branchUnknown := inUnknownBranch || condState == UnknownValue
	a.analyzeBlock(s.Then, branchUnknown)
	if s.Else != nil {
		a.analyzeBlock(s.Else, branchUnknown)
	}
}

func (a *Analyzer) analyzeWhile(s *ast.WhileStmt, inUnknownBranch bool) {
	condState := a.exprState(s.Cond)
	if condState == UnknownValue {
		a.report(s.Pos(), errors.KindUnknownCondition, "loop condition is not known at compile time")
		return
	}
	// Fixed-point: analyze the body twice. The first pass may mark
	// variables unknown that the second pass then sees as unknown inputs,
	// matching the spec's "fixed-point iteration over loops" requirement
	// without needing to actually unroll anything at this layer.
	a.analyzeBlock(s.Body, inUnknownBranch)
	a.analyzeBlock(s.Body, inUnknownBranch)
}

// resolveDims reports each dimension expression's compile-time value. A
// known dimension that is not a literal (e.g. a template parameter) is
// recorded as 0, since this pass folds nothing; a dimension that depends on
// an unknown value is left out and makes ok false.
func (a *Analyzer) resolveDims(dims []ast.Expr) ([]int, bool) {
	out := make([]int, 0, len(dims))
	allKnown := true
	for _, d := range dims {
		n, ok := constantInt(d)
		if !ok {
			if a.exprState(d) == UnknownValue {
				allKnown = false
				continue
			}
			n = 0
		}
		out = append(out, n)
	}
	return out, allKnown
}

// constantInt reports whether e is syntactically a NumberLit, folding no
// further: full constant folding is the evaluator's job.
func constantInt(e ast.Expr) (int, bool) {
	lit, ok := e.(*ast.NumberLit)
	if !ok {
		return 0, false
	}
	if !lit.Value.IsInt64() {
		return 0, false
	}
	return int(lit.Value.Int64()), true
}

func identName(e ast.Expr) (string, bool) {
	id, ok := e.(*ast.IdentExpr)
	if !ok {
		return "", false
	}
	return id.Name, true
}

// resolveAccessType walks an access path (Ident / IndexExpr /
// FieldAccessExpr) to the Type of the location it denotes.
func (a *Analyzer) resolveAccessType(e ast.Expr) (types.Type, bool) {
	switch n := e.(type) {
	case *ast.IdentExpr:
		sym := a.symbols.Lookup(n.Name)
		if sym == nil {
			a.report(n.Pos(), errors.KindUninitializedSymbol, "%q is not declared in this scope", n.Name)
			return types.Type{}, false
		}
		return sym.Type, true
	case *ast.IndexExpr:
		base, ok := a.resolveAccessType(n.Base)
		if !ok {
			return types.Type{}, false
		}
		if base.Rank() == 0 {
			a.report(n.Pos(), errors.KindInvalidAccess, "cannot index a scalar")
			return types.Type{}, false
		}
		return types.Type{Kind: base.Kind, Dims: base.Dims[1:], SignalKind: base.SignalKind, BusName: base.BusName}, true
	case *ast.FieldAccessExpr:
		base, ok := a.resolveAccessType(n.Base)
		if !ok {
			return types.Type{}, false
		}
		if base.Kind != types.SymbolBus {
			a.report(n.Pos(), errors.KindInvalidAccess, "field access on a non-bus value")
			return types.Type{}, false
		}
		bus, ok := a.buses[base.BusName]
		if !ok {
			a.report(n.Pos(), errors.KindUnknownField, "bus type %q is not declared", base.BusName)
			return types.Type{}, false
		}
		field, ok := bus.Field(n.Field)
		if !ok {
			a.report(n.Pos(), errors.KindUnknownField, "bus %q has no field %q", base.BusName, n.Field)
			return types.Type{}, false
		}
		return types.Type{Kind: types.SymbolSignal, Dims: field.Dims}, true
	default:
		a.report(e.Pos(), errors.KindInvalidAccess, "expression is not a storable location")
		return types.Type{}, false
	}
}

// exprState folds an expression's known/unknown state without doing any
// field arithmetic (that's the evaluator's job); it is a conservative
// syntactic walk used only to decide whether branch/loop conditions and
// array dimensions are resolvable.
func (a *Analyzer) exprState(e ast.Expr) Unknown {
	switch n := e.(type) {
	case *ast.NumberLit:
		return Known
	case *ast.IdentExpr:
		sym := a.symbols.Lookup(n.Name)
		if sym == nil {
			return UnknownValue
		}
		if sym.Type.Kind == types.SymbolTag {
			return Known
		}
		return sym.State
	case *ast.IndexExpr:
		if a.exprState(n.Index) == UnknownValue {
			return UnknownValue
		}
		return a.exprState(n.Base)
	case *ast.FieldAccessExpr:
		return a.exprState(n.Base)
	case *ast.BinaryExpr:
		if a.exprState(n.Left) == UnknownValue || a.exprState(n.Right) == UnknownValue {
			return UnknownValue
		}
		return Known
	case *ast.UnaryExpr:
		return a.exprState(n.Operand)
	case *ast.InlineSwitchExpr:
		if a.exprState(n.Cond) == UnknownValue {
			return UnknownValue
		}
		if a.exprState(n.Then) == UnknownValue || a.exprState(n.Else) == UnknownValue {
			return UnknownValue
		}
		return Known
	case *ast.CallExpr:
		for _, arg := range n.Args {
			if a.exprState(arg) == UnknownValue {
				return UnknownValue
			}
		}
		if _, isFunc := a.functions[n.Callee]; isFunc {
			return Known
		}
		return UnknownValue
	default:
		return UnknownValue
	}
}
