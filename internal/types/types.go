// Package types classifies identifiers by the DSL's symbol kinds and
// enforces the operator-legality rules Component E's type check names:
// which assignment forms are legal for which kind, how a bus's declared
// wire layout is walked for field access, and array-dimension shape.
package types

import (
	"github.com/iden3/circomgo/internal/ast"
)

// SymbolKind is the classification every identifier carries.
type SymbolKind int

const (
	// SymbolVariable is an N-dim numeric, compile-time or runtime value.
	SymbolVariable SymbolKind = iota
	// SymbolSignal is an N-dim wire, subtyped input/output/intermediate.
	SymbolSignal
	// SymbolBus is an N-dim named product type of wires.
	SymbolBus
	// SymbolComponent is an N-dim pointer to a template instantiation.
	SymbolComponent
	// SymbolTag is a 0-dim known numeric, readable but never partially
	// accessed.
	SymbolTag
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolVariable:
		return "variable"
	case SymbolSignal:
		return "signal"
	case SymbolBus:
		return "bus"
	case SymbolComponent:
		return "component"
	case SymbolTag:
		return "tag"
	default:
		return "unknown-symbol-kind"
	}
}

// Type fully describes one symbol's shape: its kind, declared dimensions
// (as far as Component E resolves them at declaration time: a literal
// extent, 0 for a known non-literal one; an unknown extent is reported as
// UnknownSizeDimension and left out), and, for signals, their sub-role.
type Type struct {
	Kind       SymbolKind
	Dims       []int
	SignalKind ast.SignalKind // meaningful only when Kind == SymbolSignal
	BusName    string         // meaningful only when Kind == SymbolBus
}

// Rank is len(Dims).
func (t Type) Rank() int { return len(t.Dims) }

// IsScalar reports Rank() == 0.
func (t Type) IsScalar() bool { return len(t.Dims) == 0 }

// AssignmentLegal reports whether op is a legal assignment form onto a
// symbol of kind t.Kind, per Component E's operator-legality table:
// `<==`/`<--` only target signals or buses; `=` only targets variables,
// components, or known tags.
func (t Type) AssignmentLegal(op ast.AssignOp) bool {
	switch op {
	case ast.AssignConstraint, ast.AssignSignal:
		return t.Kind == SymbolSignal || t.Kind == SymbolBus
	case ast.AssignPlain:
		return t.Kind == SymbolVariable || t.Kind == SymbolComponent || t.Kind == SymbolTag
	default:
		return false
	}
}

// Bus describes a declared bus type's wire layout, built from a BusDecl by
// NewBus; the analyzer receives buses already built. Field lookup walks this
// layout; an unknown field name is a KindUnknownField error.
type Bus struct {
	Name   string
	Fields map[string]BusField
	Order  []string // declaration order, for deterministic wire numbering
}

// BusField is one resolved field of a Bus: its own signal-like type.
type BusField struct {
	Name string
	Dims []int
}

// NewBus builds a Bus from a declaration's AST shape, given each field's
// already-evaluated (compile-time-known) dimensions.
func NewBus(name string, fields []ast.BusField, resolvedDims [][]int) *Bus {
	b := &Bus{Name: name, Fields: make(map[string]BusField, len(fields))}
	for i, f := range fields {
		b.Fields[f.Name] = BusField{Name: f.Name, Dims: resolvedDims[i]}
		b.Order = append(b.Order, f.Name)
	}
	return b
}

// Field looks up a named wire in the bus's layout. ok is false if no such
// field was declared.
func (b *Bus) Field(name string) (BusField, bool) {
	f, ok := b.Fields[name]
	return f, ok
}

// TotalWires returns the number of scalar wires a Bus instance occupies,
// the product of every field's dimensions summed across fields.
func (b *Bus) TotalWires() int {
	total := 0
	for _, name := range b.Order {
		f := b.Fields[name]
		n := 1
		for _, d := range f.Dims {
			n *= d
		}
		total += n
	}
	return total
}
