// Package ast defines the node shapes the evaluator, type checker, and
// unknown/known analyzer walk. No parser lives in this module — grammar
// and parsing are an external collaborator's concern (see SPEC_FULL.md
// Section 0) — so these types are the load-bearing contract between that
// collaborator and the compiler core.
package ast

import "math/big"

// Node is implemented by every AST node so diagnostics can always recover a
// source position.
type Node interface {
	Pos() Position
}

// SignalKind distinguishes the three signal roles a DSL program declares.
type SignalKind int

const (
	SignalInput SignalKind = iota
	SignalOutput
	SignalIntermediate
)

func (k SignalKind) String() string {
	switch k {
	case SignalInput:
		return "input"
	case SignalOutput:
		return "output"
	case SignalIntermediate:
		return "intermediate"
	default:
		return "unknown-signal-kind"
	}
}

// DeclKind distinguishes what a Declaration statement allocates.
type DeclKind int

const (
	DeclVariable DeclKind = iota
	DeclSignal
	DeclComponent
	DeclBus
)

// AssignOp distinguishes the DSL's three assignment forms: `=` (variable or
// component or known-tag write), `<==` (constraint assignment: evaluates
// the rhs, wires it, and records lhs-rhs=0 as an R1CS constraint), and
// `<--` (signal assignment without a backing constraint, used to supply a
// witness value the programmer is trusted to constrain separately).
type AssignOp int

const (
	AssignPlain AssignOp = iota
	AssignConstraint
	AssignSignal
)

func (op AssignOp) String() string {
	switch op {
	case AssignPlain:
		return "="
	case AssignConstraint:
		return "<=="
	case AssignSignal:
		return "<--"
	default:
		return "?="
	}
}

// Program is the root node: every declaration visible at top level, plus
// the single entry point the evaluator starts from.
type Program struct {
	Templates  []*TemplateDecl
	Functions  []*FunctionDecl
	Buses      []*BusDecl
	MainEntry  *MainComponent
}

// TemplateDecl declares a template: a parameterized circuit component.
type TemplateDecl struct {
	NamePos  Position
	Name     string
	Params   []string
	Body     *Block
	Parallel bool
}

func (d *TemplateDecl) Pos() Position { return d.NamePos }

// FunctionDecl declares a pure compile-time function (no signals, no
// constraints, returns a folded value to its caller).
type FunctionDecl struct {
	NamePos Position
	Name    string
	Params  []string
	Body    *Block
}

func (d *FunctionDecl) Pos() Position { return d.NamePos }

// BusField is one named, possibly array-shaped wire inside a bus type.
type BusField struct {
	FieldPos Position
	Name     string
	Dims     []Expr
}

func (f BusField) Pos() Position { return f.FieldPos }

// BusDecl declares a bus: a named product type of wires.
type BusDecl struct {
	NamePos Position
	Name    string
	Fields  []BusField
}

func (d *BusDecl) Pos() Position { return d.NamePos }

// MainComponent is the program's single entry point: a template call bound
// to the set of signals that must survive simplification (the "forbidden"
// set).
type MainComponent struct {
	CallPos Position
	Call    *CallExpr
	Public  []string
}

func (m *MainComponent) Pos() Position { return m.CallPos }

// Block is a lexical statement sequence; it pushes a new scope in the
// evaluator's environment when entered.
type Block struct {
	BlockPos Position
	Stmts    []Stmt
}

func (b *Block) Pos() Position { return b.BlockPos }

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Declaration allocates storage for a variable, signal, component, or bus.
// Dims, when non-empty, must each evaluate to a compile-time Number or the
// analyzer rejects the program with UnknownSizeDimension.
type Declaration struct {
	DeclPos    Position
	Kind       DeclKind
	SignalKind SignalKind // meaningful only when Kind == DeclSignal
	Name       string
	Dims       []Expr
	BusType    string // meaningful only when Kind == DeclBus
	Tag        bool   // declared with the `tag` annotation (0-dim known numeric)
}

func (d *Declaration) Pos() Position { return d.DeclPos }
func (*Declaration) stmtNode()       {}

// Assignment resolves Target to a storage location and writes Value to it,
// per Op's semantics.
type Assignment struct {
	AssignPos Position
	Target    Expr
	Op        AssignOp
	Value     Expr
}

func (a *Assignment) Pos() Position { return a.AssignPos }
func (*Assignment) stmtNode()       {}

// ConstraintStmt is the DSL's `===` form: emit lhs - rhs = 0 directly,
// independent of any assignment.
type ConstraintStmt struct {
	StmtPos     Position
	Left, Right Expr
}

func (c *ConstraintStmt) Pos() Position { return c.StmtPos }
func (*ConstraintStmt) stmtNode()       {}

// IfStmt is a conditional. Else may be nil.
type IfStmt struct {
	StmtPos Position
	Cond    Expr
	Then    *Block
	Else    *Block
}

func (s *IfStmt) Pos() Position { return s.StmtPos }
func (*IfStmt) stmtNode()       {}

// WhileStmt is the DSL's only loop form.
type WhileStmt struct {
	StmtPos Position
	Cond    Expr
	Body    *Block
}

func (s *WhileStmt) Pos() Position { return s.StmtPos }
func (*WhileStmt) stmtNode()       {}

// ReturnStmt exits the enclosing function with a folded value. Only legal
// inside a FunctionDecl body.
type ReturnStmt struct {
	StmtPos Position
	Value   Expr
}

func (s *ReturnStmt) Pos() Position { return s.StmtPos }
func (*ReturnStmt) stmtNode()       {}

// AssertStmt evaluates Cond to a boolean at compile time; false raises
// FalseAssert immediately.
type AssertStmt struct {
	StmtPos Position
	Cond    Expr
}

func (s *AssertStmt) Pos() Position { return s.StmtPos }
func (*AssertStmt) stmtNode()       {}

// LogStmt is a no-op diagnostic emission, carried through to an IR Log
// bucket; it has no effect on constraints or the witness.
type LogStmt struct {
	StmtPos Position
	Value   Expr
}

func (s *LogStmt) Pos() Position { return s.StmtPos }
func (*LogStmt) stmtNode()       {}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// NumberLit is a compile-time-known field element literal.
type NumberLit struct {
	LitPos Position
	Value  *big.Int
}

func (n *NumberLit) Pos() Position { return n.LitPos }
func (*NumberLit) exprNode()       {}

// IdentExpr references a variable, signal, component, bus, or tag by name;
// which one it resolves to is a property of the symbol table, not of this
// node.
type IdentExpr struct {
	IdentPos Position
	Name     string
}

func (i *IdentExpr) Pos() Position { return i.IdentPos }
func (*IdentExpr) exprNode()       {}

// IndexExpr indexes Base (an array-typed variable/signal/component) by
// Index.
type IndexExpr struct {
	ExprPos    Position
	Base, Index Expr
}

func (e *IndexExpr) Pos() Position { return e.ExprPos }
func (*IndexExpr) exprNode()       {}

// FieldAccessExpr walks into a bus or component's named wire.
type FieldAccessExpr struct {
	ExprPos Position
	Base    Expr
	Field   string
}

func (e *FieldAccessExpr) Pos() Position { return e.ExprPos }
func (*FieldAccessExpr) exprNode()       {}

// BinaryExpr is an infix operator application, delegated to the algebraic
// kernel (package algebra) by the evaluator.
type BinaryExpr struct {
	ExprPos     Position
	Op          string
	Left, Right Expr
}

func (e *BinaryExpr) Pos() Position { return e.ExprPos }
func (*BinaryExpr) exprNode()       {}

// UnaryExpr is a prefix operator application (-, !, ~).
type UnaryExpr struct {
	ExprPos  Position
	Op       string
	Operand  Expr
}

func (e *UnaryExpr) Pos() Position { return e.ExprPos }
func (*UnaryExpr) exprNode()       {}

// InlineSwitchExpr is the DSL's ternary: `cond ? then : else`. Folds only
// when Cond evaluates to a compile-time Number.
type InlineSwitchExpr struct {
	ExprPos           Position
	Cond, Then, Else  Expr
}

func (e *InlineSwitchExpr) Pos() Position { return e.ExprPos }
func (*InlineSwitchExpr) exprNode()       {}

// CallExpr invokes a function or instantiates a template, depending on
// what Callee resolves to in scope.
type CallExpr struct {
	ExprPos Position
	Callee  string
	Args    []Expr
}

func (e *CallExpr) Pos() Position { return e.ExprPos }
func (*CallExpr) exprNode()       {}
