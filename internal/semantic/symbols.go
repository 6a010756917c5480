package semantic

import (
	"github.com/iden3/circomgo/internal/ast"
	"github.com/iden3/circomgo/internal/types"
)

// Unknown tracks whether a symbol's value is known at compile time. A
// symbol becomes Unknown if it is ever assigned an unknown expression, or
// mutated inside a block whose condition was itself unknown.
type Unknown bool

const (
	Known   Unknown = false
	UnknownValue Unknown = true
)

// Symbol is one entry of a SymbolTable: an identifier's classification,
// declaration site, and current known/unknown state.
type Symbol struct {
	Name     string
	Type     types.Type
	Node     ast.Node
	Position ast.Position
	State    Unknown
}

// SymbolTable is a lexically-scoped, parent-chained symbol table: lookups
// fall through to the parent when a name is not found locally, the same
// chain shape every nested `{...}` block pushes and pops in the evaluator.
type SymbolTable struct {
	symbols map[string]*Symbol
	parent  *SymbolTable
}

// NewSymbolTable returns an empty table chained to parent (nil for the
// outermost template/function scope).
func NewSymbolTable(parent *SymbolTable) *SymbolTable {
	return &SymbolTable{symbols: make(map[string]*Symbol), parent: parent}
}

// Define installs a new symbol in the current (innermost) scope, shadowing
// any same-named symbol in an enclosing scope.
func (st *SymbolTable) Define(name string, t types.Type, node ast.Node, pos ast.Position, state Unknown) *Symbol {
	sym := &Symbol{Name: name, Type: t, Node: node, Position: pos, State: state}
	st.symbols[name] = sym
	return sym
}

// Lookup walks the parent chain outward until it finds name, or returns
// nil.
func (st *SymbolTable) Lookup(name string) *Symbol {
	if sym, ok := st.symbols[name]; ok {
		return sym
	}
	if st.parent != nil {
		return st.parent.Lookup(name)
	}
	return nil
}

// LookupLocal looks up name only in the current scope, ignoring parents;
// used to detect re-declaration within the same block.
func (st *SymbolTable) LookupLocal(name string) (*Symbol, bool) {
	sym, ok := st.symbols[name]
	return sym, ok
}

// MarkUnknown escalates a symbol already visible in scope to Unknown, e.g.
// because it was assigned inside a branch whose condition was itself
// unknown.
func (st *SymbolTable) MarkUnknown(name string) {
	if sym := st.Lookup(name); sym != nil {
		sym.State = UnknownValue
	}
}

// Child returns a new scope nested under st, the shape used on entry to
// every `{...}` block.
func (st *SymbolTable) Child() *SymbolTable { return NewSymbolTable(st) }
