package eval

import (
	"math/big"

	"github.com/iden3/circomgo/internal/algebra"
	"github.com/iden3/circomgo/internal/ast"
	"github.com/iden3/circomgo/internal/errors"
	"github.com/iden3/circomgo/internal/ir"
	"github.com/iden3/circomgo/internal/semantic"
)

// accessPath is a resolved assignment target: a base scope name plus a
// fully-folded integer index path (empty for a bare scalar name).
type accessPath struct {
	name    string
	indices []int
}

// resolvePath walks an Ident/Index/FieldAccess chain down to its base name
// and a concrete integer index path, requiring every index to fold to a
// compile-time Number. FieldAccess compounds into the flattened
// "base.field" scope key declareSignal/execDeclaration use for bus wires.
func (e *Evaluator) resolvePath(inst *Instance, scope *Scope, out *[]ir.Bucket, ret *returnState, expr ast.Expr) (accessPath, error) {
	switch n := expr.(type) {
	case *ast.IdentExpr:
		return accessPath{name: n.Name}, nil
	case *ast.FieldAccessExpr:
		base, err := e.resolvePath(inst, scope, out, ret, n.Base)
		if err != nil {
			return accessPath{}, err
		}
		if len(base.indices) != 0 {
			return accessPath{}, invalidPathErr("field access on an indexed expression is not supported")
		}
		return accessPath{name: base.name + "." + n.Field}, nil
	case *ast.IndexExpr:
		base, err := e.resolvePath(inst, scope, out, ret, n.Base)
		if err != nil {
			return accessPath{}, err
		}
		idxVal := e.evalExpr(inst, scope, out, ret, n.Index)
		idxNum, ok := asNumber(idxVal)
		if !ok {
			return accessPath{}, invalidPathErr("array index is not known at compile time")
		}
		return accessPath{name: base.name, indices: append(append([]int{}, base.indices...), int(idxNum.Int64()))}, nil
	default:
		return accessPath{}, invalidPathErr("expression is not a storable location")
	}
}

type pathError string

func (p pathError) Error() string      { return string(p) }
func invalidPathErr(msg string) error { return pathError(msg) }

// evalExpr folds expr to a Value within scope. Every sub-expression that
// cannot be reduced all the way to a Number is represented by whatever
// algebra.Expr variant it settles at (Signal/Linear/Quadratic/NonQuadratic),
// exactly like the original's symbolic evaluator. out collects any IR a
// nested template instantiation (CreateCmp) produces as a side effect of
// evaluating a CallExpr.
func (e *Evaluator) evalExpr(inst *Instance, scope *Scope, out *[]ir.Bucket, ret *returnState, expr ast.Expr) Value {
	switch n := expr.(type) {
	case *ast.NumberLit:
		return ScalarNumber(n.Value)
	case *ast.IdentExpr:
		return e.evalIdent(inst, scope, n)
	case *ast.IndexExpr:
		return e.evalIndex(inst, scope, out, ret, n)
	case *ast.FieldAccessExpr:
		return e.evalFieldAccess(inst, scope, n)
	case *ast.BinaryExpr:
		return e.evalBinary(inst, scope, out, ret, n)
	case *ast.UnaryExpr:
		return e.evalUnary(inst, scope, out, ret, n)
	case *ast.InlineSwitchExpr:
		return e.evalInlineSwitch(inst, scope, out, ret, n)
	case *ast.CallExpr:
		return e.evalCall(inst, scope, out, ret, n)
	default:
		e.report(expr.Pos(), errors.KindInvalidAccess, "unsupported expression form")
		return ScalarNumber(big.NewInt(0))
	}
}

func (e *Evaluator) evalIdent(inst *Instance, scope *Scope, n *ast.IdentExpr) Value {
	v, _, ok := scope.Lookup(n.Name)
	if !ok {
		e.report(n.Pos(), errors.KindUninitializedSymbol, "%q is not declared in this scope", n.Name)
		return ScalarNumber(big.NewInt(0))
	}
	return v
}

func (e *Evaluator) evalIndex(inst *Instance, scope *Scope, out *[]ir.Bucket, ret *returnState, n *ast.IndexExpr) Value {
	base := e.evalExpr(inst, scope, out, ret, n.Base)
	idxVal := e.evalExpr(inst, scope, out, ret, n.Index)
	idxNum, ok := asNumber(idxVal)
	if !ok {
		e.report(n.Pos(), errors.KindUnknownSizeDimension, "array index is not known at compile time")
		return ScalarNumber(big.NewInt(0))
	}
	if base.IsComponent() {
		e.report(n.Pos(), errors.KindInvalidAccess, "components are not indexable (scalar-only in this evaluator)")
		return ScalarNumber(big.NewInt(0))
	}
	sub, err := base.Exprs.Get([]int{int(idxNum.Int64())})
	if err != nil {
		e.report(n.Pos(), errors.KindOutOfBounds, "%s", err)
		return ScalarNumber(big.NewInt(0))
	}
	if sub.Rank() == 0 {
		cell, _ := sub.Unwrap()
		return ScalarExpr(cell)
	}
	return Value{Exprs: sub}
}

func (e *Evaluator) evalFieldAccess(inst *Instance, scope *Scope, n *ast.FieldAccessExpr) Value {
	base, ok := identChainName(n.Base)
	if !ok {
		e.report(n.Pos(), errors.KindInvalidAccess, "field access base must be a plain name")
		return ScalarNumber(big.NewInt(0))
	}
	v, _, ok := scope.Lookup(base + "." + n.Field)
	if !ok {
		e.report(n.Pos(), errors.KindUnknownField, "no field %q on %q", n.Field, base)
		return ScalarNumber(big.NewInt(0))
	}
	return v
}

func identChainName(e ast.Expr) (string, bool) {
	if id, ok := e.(*ast.IdentExpr); ok {
		return id.Name, true
	}
	return "", false
}

func (e *Evaluator) evalBinary(inst *Instance, scope *Scope, out *[]ir.Bucket, ret *returnState, n *ast.BinaryExpr) Value {
	lv := e.evalExpr(inst, scope, out, ret, n.Left)
	rv := e.evalExpr(inst, scope, out, ret, n.Right)
	l, lok := lv.AsScalar()
	r, rok := rv.AsScalar()
	if !lok || !rok {
		e.report(n.Pos(), errors.KindInvalidAccess, "binary operator applied to a non-scalar operand")
		return ScalarNumber(big.NewInt(0))
	}

	switch n.Op {
	case "+":
		return ScalarExpr(algebra.Add(l, r, e.Field))
	case "-":
		return ScalarExpr(algebra.Sub(l, r, e.Field))
	case "*":
		return ScalarExpr(algebra.Mul(l, r, e.Field))
	case "/":
		res, err := algebra.Div(l, r, e.Field)
		if err != nil {
			e.report(n.Pos(), errors.KindDivisionByZero, "%s", err)
			return ScalarNumber(big.NewInt(0))
		}
		return ScalarExpr(res)
	case "\\":
		res, err := algebra.IDiv(l, r, e.Field)
		if err != nil {
			e.report(n.Pos(), errors.KindDivisionByZero, "%s", err)
			return ScalarNumber(big.NewInt(0))
		}
		return ScalarExpr(res)
	case "%":
		res, err := algebra.ModOp(l, r, e.Field)
		if err != nil {
			e.report(n.Pos(), errors.KindDivisionByZero, "%s", err)
			return ScalarNumber(big.NewInt(0))
		}
		return ScalarExpr(res)
	case "**":
		return ScalarExpr(algebra.Pow(l, r, e.Field))
	case "<<":
		res, err := algebra.ShiftLeft(l, r, e.Field)
		if err != nil {
			e.report(n.Pos(), errors.KindBitOverflowInShift, "%s", err)
			return ScalarNumber(big.NewInt(0))
		}
		return ScalarExpr(res)
	case ">>":
		res, err := algebra.ShiftRight(l, r, e.Field)
		if err != nil {
			e.report(n.Pos(), errors.KindBitOverflowInShift, "%s", err)
			return ScalarNumber(big.NewInt(0))
		}
		return ScalarExpr(res)
	case "&":
		return ScalarExpr(algebra.BitAnd(l, r, e.Field))
	case "|":
		return ScalarExpr(algebra.BitOr(l, r, e.Field))
	case "^":
		return ScalarExpr(algebra.BitXor(l, r, e.Field))
	case "<", "<=", ">", ">=", "==", "!=":
		return e.evalComparison(n, l, r)
	case "&&":
		if l.Kind != algebra.KindNumber || r.Kind != algebra.KindNumber {
			e.report(n.Pos(), errors.KindUnknownCondition, "operand of && is not known at compile time")
			return ScalarNumber(big.NewInt(0))
		}
		return ScalarExpr(algebra.Num(e.Field.FromBool(e.Field.AsBool(l.Number) && e.Field.AsBool(r.Number))))
	case "||":
		if l.Kind != algebra.KindNumber || r.Kind != algebra.KindNumber {
			e.report(n.Pos(), errors.KindUnknownCondition, "operand of || is not known at compile time")
			return ScalarNumber(big.NewInt(0))
		}
		return ScalarExpr(algebra.Num(e.Field.FromBool(e.Field.AsBool(l.Number) || e.Field.AsBool(r.Number))))
	default:
		e.report(n.Pos(), errors.KindInvalidOperator, "unknown binary operator %q", n.Op)
		return ScalarNumber(big.NewInt(0))
	}
}

func (e *Evaluator) evalComparison(n *ast.BinaryExpr, l, r algebra.Expr) Value {
	if l.Kind != algebra.KindNumber || r.Kind != algebra.KindNumber {
		e.report(n.Pos(), errors.KindUnknownCondition, "comparison operands must be known at compile time")
		return ScalarNumber(big.NewInt(0))
	}
	c := e.Field.Cmp(l.Number, r.Number)
	var result bool
	switch n.Op {
	case "<":
		result = c < 0
	case "<=":
		result = c <= 0
	case ">":
		result = c > 0
	case ">=":
		result = c >= 0
	case "==":
		result = c == 0
	case "!=":
		result = c != 0
	}
	return ScalarExpr(algebra.Num(e.Field.FromBool(result)))
}

func (e *Evaluator) evalUnary(inst *Instance, scope *Scope, out *[]ir.Bucket, ret *returnState, n *ast.UnaryExpr) Value {
	v := e.evalExpr(inst, scope, out, ret, n.Operand)
	ex, ok := v.AsScalar()
	if !ok {
		e.report(n.Pos(), errors.KindInvalidAccess, "unary operator applied to a non-scalar operand")
		return ScalarNumber(big.NewInt(0))
	}
	switch n.Op {
	case "-":
		return ScalarExpr(algebra.Neg(ex, e.Field))
	case "~":
		return ScalarExpr(algebra.Complement(ex, e.Field))
	case "!":
		return ScalarExpr(algebra.Not(ex, e.Field))
	default:
		e.report(n.Pos(), errors.KindInvalidOperator, "unknown unary operator %q", n.Op)
		return ScalarNumber(big.NewInt(0))
	}
}

func (e *Evaluator) evalInlineSwitch(inst *Instance, scope *Scope, out *[]ir.Bucket, ret *returnState, n *ast.InlineSwitchExpr) Value {
	cv := e.evalExpr(inst, scope, out, ret, n.Cond)
	num, ok := asNumber(cv)
	if !ok {
		e.report(n.Pos(), errors.KindUnknownCondition, "ternary condition is not known at compile time")
		return ScalarNumber(big.NewInt(0))
	}
	if e.Field.AsBool(num) {
		return e.evalExpr(inst, scope, out, ret, n.Then)
	}
	return e.evalExpr(inst, scope, out, ret, n.Else)
}

func (e *Evaluator) evalCall(inst *Instance, scope *Scope, out *[]ir.Bucket, ret *returnState, n *ast.CallExpr) Value {
	if fn, ok := e.Functions[n.Callee]; ok {
		return e.evalFunctionCall(inst, scope, out, ret, n, fn)
	}
	if tmpl, ok := e.Templates[n.Callee]; ok {
		return e.evalTemplateCall(inst, scope, out, ret, n, tmpl)
	}
	e.report(n.Pos(), errors.KindUninitializedSymbol, "%q is not a declared function or template", n.Callee)
	return ScalarNumber(big.NewInt(0))
}

func (e *Evaluator) evalFunctionCall(inst *Instance, scope *Scope, out *[]ir.Bucket, ret *returnState, n *ast.CallExpr, fn *ast.FunctionDecl) Value {
	callScope := NewScope(nil)
	for i, param := range fn.Params {
		if i < len(n.Args) {
			argVal := e.evalExpr(inst, scope, out, ret, n.Args[i])
			callScope.Define(param, argVal, semantic.Known)
		}
	}
	e.pushFrame(fn.Name, n.Pos())
	defer e.popFrame()
	funcRet := &returnState{}
	e.execBlock(inst, callScope, out, funcRet, fn.Body, false)
	if funcRet.done {
		return funcRet.value
	}
	return ScalarNumber(big.NewInt(0))
}

func (e *Evaluator) evalTemplateCall(inst *Instance, scope *Scope, out *[]ir.Bucket, ret *returnState, n *ast.CallExpr, tmpl *ast.TemplateDecl) Value {
	params := make([]*big.Int, 0, len(n.Args))
	for _, arg := range n.Args {
		v := e.evalExpr(inst, scope, out, ret, arg)
		num, ok := asNumber(v)
		if !ok {
			e.report(n.Pos(), errors.KindUnknownSizeDimension, "template parameter is not known at compile time")
			return ScalarNumber(big.NewInt(0))
		}
		params = append(params, num)
	}
	child, err := e.instantiate(tmpl, params, n.Pos())
	if err != nil {
		e.report(n.Pos(), errors.KindMainComponentError, "%s", err)
		return ScalarNumber(big.NewInt(0))
	}
	sub := &SubComponent{ID: len(inst.SubComponents), InstanceIndex: child.Index}
	inst.SubComponents = append(inst.SubComponents, sub)
	*out = append(*out, &ir.CreateCmp{SubComponentID: sub.ID, TemplateName: tmpl.Name})
	return ComponentValue(&ComponentRef{InstanceIndex: child.Index, SlotID: sub.ID})
}

// exprBucket lowers a folded scalar expression into an IR value bucket: a
// constant Number, a Load of a signal, or a generic computed value for
// anything that settled into Linear/Quadratic/NonQuadratic form.
func exprBucket(inst *Instance, pos ast.Position, ex algebra.Expr) ir.Bucket {
	msgID := inst.IR.FreshMessageID()
	switch ex.Kind {
	case algebra.KindNumber:
		if !ex.Number.IsInt64() {
			v := ir.NewValueFromPos(pos, msgID, 0)
			v.Field = &ir.FieldValue{Decimal: ex.Number.String()}
			return v
		}
		return ir.NewValueFromPos(pos, msgID, ex.Number.Int64())
	case algebra.KindSignal:
		return &ir.Load{Addr: ir.Address{Kind: ir.AddrSignal, Rule: ir.LocationIndexed, Offset: ex.Signal}}
	default:
		return &ir.Compute{Op: "fold"}
	}
}

func exprBucketOrNop(inst *Instance, pos ast.Position, v Value) ir.Bucket {
	ex, ok := v.AsScalar()
	if !ok {
		return &ir.Nop{}
	}
	return exprBucket(inst, pos, ex)
}
