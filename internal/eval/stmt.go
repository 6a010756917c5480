package eval

import (
	"math/big"

	"github.com/iden3/circomgo/internal/algebra"
	"github.com/iden3/circomgo/internal/ast"
	"github.com/iden3/circomgo/internal/constraint"
	"github.com/iden3/circomgo/internal/errors"
	"github.com/iden3/circomgo/internal/ir"
	"github.com/iden3/circomgo/internal/memory"
	"github.com/iden3/circomgo/internal/semantic"
)

// execBlock runs a statement sequence in a fresh child scope, appending the
// buckets it emits to out. inUnknownBranch mirrors the analyzer's flag of
// the same name: true means this block is the body of a branch whose
// condition was not compile-time-resolvable, so declaring signals or
// emitting constraints here is rejected even though the analyzer already
// should have caught it (elaboration re-checks because a function may be
// called from contexts the static pass did not see).
func (e *Evaluator) execBlock(inst *Instance, scope *Scope, out *[]ir.Bucket, ret *returnState, b *ast.Block, inUnknownBranch bool) {
	child := scope.Child()
	for _, stmt := range b.Stmts {
		if ret.done {
			return
		}
		e.execStmt(inst, child, out, ret, stmt, inUnknownBranch)
	}
}

func (e *Evaluator) execStmt(inst *Instance, scope *Scope, out *[]ir.Bucket, ret *returnState, stmt ast.Stmt, inUnknownBranch bool) {
	switch s := stmt.(type) {
	case *ast.Declaration:
		e.execDeclaration(inst, scope, out, ret, s, inUnknownBranch)
	case *ast.Assignment:
		e.execAssignment(inst, scope, out, ret, s, inUnknownBranch)
	case *ast.ConstraintStmt:
		e.execConstraintStmt(inst, scope, out, ret, s, inUnknownBranch)
	case *ast.IfStmt:
		e.execIf(inst, scope, out, ret, s, inUnknownBranch)
	case *ast.WhileStmt:
		e.execWhile(inst, scope, out, ret, s, inUnknownBranch)
	case *ast.ReturnStmt:
		v := Value{}
		if s.Value != nil {
			v = e.evalExpr(inst, scope, out, ret, s.Value)
		}
		ret.value = v
		ret.done = true
		*out = append(*out, &ir.Return{Value: exprBucketOrNop(inst, s.Pos(), v)})
	case *ast.AssertStmt:
		e.execAssert(inst, scope, out, ret, s)
	case *ast.LogStmt:
		v := e.evalExpr(inst, scope, out, ret, s.Value)
		*out = append(*out, &ir.Log{Value: exprBucketOrNop(inst, s.Pos(), v)})
	}
}

// returnState is a per-call mutable cell threaded through execBlock/execStmt
// so a return nested inside an if/while body halts every enclosing block,
// not just the one that directly contains the ReturnStmt (a plain Scope
// lookup cannot see it: Scope.Lookup only walks toward parents, never into
// a child scope a nested block pushed).
type returnState struct {
	done  bool
	value Value
}

func (e *Evaluator) execDeclaration(inst *Instance, scope *Scope, out *[]ir.Bucket, ret *returnState, d *ast.Declaration, inUnknownBranch bool) {
	dims, ok := e.resolveDims(inst, scope, out, ret, d.Dims)
	if !ok {
		e.report(d.Pos(), errors.KindUnknownSizeDimension, "array length of %q is not known at compile time", d.Name)
		return
	}

	switch d.Kind {
	case ast.DeclVariable:
		v := Value{Exprs: memory.NewFilled(dims, func() algebra.Expr { return algebra.Num(big.NewInt(0)) })}
		scope.Define(d.Name, v, semantic.Known)
	case ast.DeclSignal:
		if inUnknownBranch {
			e.report(d.Pos(), errors.KindUnknownCondition, "signal %q declared inside a branch whose condition is not known at compile time", d.Name)
			return
		}
		e.declareSignal(inst, scope, d.Name, d.SignalKind, dims)
	case ast.DeclComponent:
		scope.Define(d.Name, Value{}, semantic.UnknownValue)
	case ast.DeclBus:
		bus, ok := e.Buses[d.BusType]
		if !ok {
			e.report(d.Pos(), errors.KindUnknownField, "bus type %q is not declared", d.BusType)
			return
		}
		for _, fname := range bus.Order {
			f, _ := bus.Field(fname)
			fieldDims := append(append([]int{}, dims...), f.Dims...)
			e.declareSignal(inst, scope, d.Name+"."+fname, ast.SignalIntermediate, fieldDims)
		}
	}
}

func (e *Evaluator) declareSignal(inst *Instance, scope *Scope, name string, kind ast.SignalKind, dims []int) {
	n := 1
	for _, d := range dims {
		n *= d
	}
	ids := e.freshSignalIDs(n)
	wl := &WireList{Kind: kind, Dims: dims, IDs: ids, Assigned: make([]bool, n)}
	inst.Wires[name] = wl

	i := 0
	v := Value{Exprs: memory.NewFilled(dims, func() algebra.Expr {
		id := ids[i]
		i++
		return algebra.Sig(id)
	})}
	scope.Define(name, v, semantic.UnknownValue)
}

// resolveDims evaluates each dimension expression, requiring every one to
// fold to a compile-time Number.
func (e *Evaluator) resolveDims(inst *Instance, scope *Scope, out *[]ir.Bucket, ret *returnState, dims []ast.Expr) ([]int, bool) {
	result := make([]int, 0, len(dims))
	for _, d := range dims {
		v := e.evalExpr(inst, scope, out, ret, d)
		n, ok := asNumber(v)
		if !ok {
			return nil, false
		}
		result = append(result, int(n.Int64()))
	}
	return result, true
}

func asNumber(v Value) (*big.Int, bool) {
	ex, ok := v.AsScalar()
	if !ok || ex.Kind != algebra.KindNumber {
		return nil, false
	}
	return ex.Number, true
}

func (e *Evaluator) execAssert(inst *Instance, scope *Scope, out *[]ir.Bucket, ret *returnState, s *ast.AssertStmt) {
	v := e.evalExpr(inst, scope, out, ret, s.Cond)
	ex, ok := v.AsScalar()
	if !ok || ex.Kind != algebra.KindNumber {
		// Not resolvable at compile time: left for a downstream witness
		// generator to enforce at runtime.
		*out = append(*out, &ir.Assert{Cond: exprBucketOrNop(inst, s.Pos(), v)})
		return
	}
	if !e.Field.AsBool(ex.Number) {
		e.report(s.Pos(), errors.KindFalseAssert, "assertion evaluated to false at compile time")
		return
	}
}

func (e *Evaluator) execConstraintStmt(inst *Instance, scope *Scope, out *[]ir.Bucket, ret *returnState, s *ast.ConstraintStmt, inUnknownBranch bool) {
	if inUnknownBranch {
		e.report(s.Pos(), errors.KindUnknownCondition, "constraint emitted inside a branch whose condition is not known at compile time")
		return
	}
	lhs := e.evalExpr(inst, scope, out, ret, s.Left)
	rhs := e.evalExpr(inst, scope, out, ret, s.Right)
	e.emitConstraint(inst, out, s.Pos(), lhs, rhs)
}

func (e *Evaluator) emitConstraint(inst *Instance, out *[]ir.Bucket, pos ast.Position, lhs, rhs Value) {
	l, lok := lhs.AsScalar()
	r, rok := rhs.AsScalar()
	if !lok || !rok {
		e.report(pos, errors.KindNonQuadraticConstraint, "constraint operands must be scalar expressions")
		return
	}
	diff := algebra.Sub(r, l, e.Field)
	cf, ok := algebra.TransformExpressionToConstraintForm(diff, e.Field)
	if !ok {
		e.report(pos, errors.KindNonQuadraticConstraint, "constraint escaped the affine/quadratic fragment")
		return
	}
	c := constraint.New(cf.A, cf.B, cf.C)
	inst.Constraints.Add(c)
	*out = append(*out, &ir.Constraint{Inner: exprBucket(inst, pos, diff)})
}

func (e *Evaluator) execAssignment(inst *Instance, scope *Scope, out *[]ir.Bucket, ret *returnState, a *ast.Assignment, inUnknownBranch bool) {
	path, err := e.resolvePath(inst, scope, out, ret, a.Target)
	if err != nil {
		e.report(a.Pos(), errors.KindInvalidAccess, "%s", err)
		return
	}

	rhs := e.evalExpr(inst, scope, out, ret, a.Value)

	switch a.Op {
	case ast.AssignPlain:
		e.assignVariable(inst, scope, a.Pos(), path, rhs)
	case ast.AssignSignal:
		e.assignSignal(inst, scope, out, ret, a.Pos(), path, rhs, false)
	case ast.AssignConstraint:
		if inUnknownBranch {
			e.report(a.Pos(), errors.KindUnknownCondition, "constraint assignment inside a branch whose condition is not known at compile time")
			return
		}
		e.assignSignal(inst, scope, out, ret, a.Pos(), path, rhs, true)
	}
}

func (e *Evaluator) assignVariable(inst *Instance, scope *Scope, pos ast.Position, path accessPath, rhs Value) {
	base, _, ok := scope.Lookup(path.name)
	if !ok {
		e.report(pos, errors.KindUninitializedSymbol, "%q is not declared in this scope", path.name)
		return
	}
	if base.IsComponent() || rhs.IsComponent() {
		// Component assignment: whole-value replace, no sub-slice
		// addressing (components are scalar-only in this evaluator).
		scope.Set(path.name, rhs, semantic.Known)
		return
	}
	if len(path.indices) == 0 {
		scope.Set(path.name, rhs, semantic.Known)
		return
	}
	if err := base.Exprs.Set(path.indices, rhs.Exprs); err != nil {
		e.report(pos, errors.KindAssignmentError, "%s", err)
	}
}

func (e *Evaluator) assignSignal(inst *Instance, scope *Scope, out *[]ir.Bucket, ret *returnState, pos ast.Position, path accessPath, rhs Value, constrain bool) {
	wl, ok := inst.Wires[path.name]
	if !ok {
		e.report(pos, errors.KindInvalidAccess, "%q does not name a signal", path.name)
		return
	}
	if len(path.indices) != len(wl.Dims) {
		e.report(pos, errors.KindInvalidAccess, "signal assignment to %q must address a single signal", path.name)
		return
	}
	offset := flatOffset(wl.Dims, path.indices)
	if offset < 0 || offset >= len(wl.IDs) {
		e.report(pos, errors.KindOutOfBounds, "index out of bounds for signal %q", path.name)
		return
	}
	if wl.Assigned[offset] {
		e.report(pos, errors.KindAssignmentError, "signal %q written more than once", path.name)
		return
	}
	wl.Assigned[offset] = true

	addr := ir.Address{Kind: ir.AddrSignal, Rule: ir.LocationIndexed, Name: path.name, Offset: wl.IDs[offset]}
	*out = append(*out, &ir.Store{Addr: addr})

	if constrain {
		lhsValue, _, _ := scope.Lookup(path.name)
		lhsSlice, err := lhsValue.Exprs.Get(path.indices)
		if err != nil {
			e.report(pos, errors.KindInvalidAccess, "%s", err)
			return
		}
		lhsCell, _ := lhsSlice.Unwrap()
		e.emitConstraint(inst, out, pos, ScalarExpr(lhsCell), rhs)
	}
}

func flatOffset(dims, idx []int) int {
	offset := 0
	stride := 1
	total := 1
	for _, d := range dims {
		total *= d
	}
	for i, d := range dims {
		if d != 0 {
			stride = total / d
		}
		offset += idx[i] * stride
		total = stride
	}
	return offset
}

func (e *Evaluator) execIf(inst *Instance, scope *Scope, out *[]ir.Bucket, ret *returnState, s *ast.IfStmt, inUnknownBranch bool) {
	condVal := e.evalExpr(inst, scope, out, ret, s.Cond)
	if n, ok := asNumber(condVal); ok {
		if e.Field.AsBool(n) {
			e.execBlock(inst, scope, out, ret, s.Then, inUnknownBranch)
		} else if s.Else != nil {
			e.execBlock(inst, scope, out, ret, s.Else, inUnknownBranch)
		}
		return
	}
	// Unknown condition: both arms are emitted as a genuine runtime Branch
	// bucket. The analyzer already rejects any signal declaration or
	// constraint emission reachable from here; execBlock's inUnknownBranch
	// flag re-checks that at elaboration time too.
	var thenBuckets, elseBuckets []ir.Bucket
	e.execBlock(inst, scope, &thenBuckets, ret, s.Then, true)
	if s.Else != nil {
		e.execBlock(inst, scope, &elseBuckets, ret, s.Else, true)
	}
	*out = append(*out, &ir.Branch{Cond: exprBucketOrNop(inst, s.Pos(), condVal), Then: thenBuckets, Else: elseBuckets})
}

func (e *Evaluator) execWhile(inst *Instance, scope *Scope, out *[]ir.Bucket, ret *returnState, s *ast.WhileStmt, inUnknownBranch bool) {
	for {
		condVal := e.evalExpr(inst, scope, out, ret, s.Cond)
		n, ok := asNumber(condVal)
		if !ok {
			e.report(s.Pos(), errors.KindUnknownCondition, "loop condition is not known at compile time")
			return
		}
		if !e.Field.AsBool(n) {
			return
		}
		e.execBlock(inst, scope, out, ret, s.Body, inUnknownBranch)
		if ret.done {
			return
		}
	}
}
