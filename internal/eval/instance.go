package eval

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/iden3/circomgo/internal/ast"
	"github.com/iden3/circomgo/internal/constraint"
	"github.com/iden3/circomgo/internal/ir"
	"github.com/iden3/circomgo/internal/simplify"
)

// WireList is a declared signal's flat, row-major list of global signal
// IDs — length 1 for a scalar signal, product-of-dims for an array.
type WireList struct {
	Kind     ast.SignalKind
	Dims     []int
	IDs      []int
	Assigned []bool
}

// SubComponent is one child slot of an Instance: which instance it points
// to. The evaluator does not track stores into a sub-component's inputs,
// so its remaining counter is never set or decremented.
type SubComponent struct {
	ID            int
	InstanceIndex int
	Parallel      bool
	remaining     int // never updated; input stores are not counted
}

// Instance is one elaborated template instantiation: the executed-program
// graph node the evaluator registers the first time a given
// (template name, parameter tuple) is requested.
type Instance struct {
	Index    int
	Template string
	Params   []*big.Int

	Wires         map[string]*WireList
	SubComponents []*SubComponent

	Constraints *constraint.Store
	IR          *ir.Tree
}

func newInstance(index int, template string, params []*big.Int) *Instance {
	return &Instance{
		Index:       index,
		Template:    template,
		Params:      params,
		Wires:       make(map[string]*WireList),
		Constraints: constraint.NewStore(),
		IR:          ir.NewTree(),
	}
}

// InstanceKey builds the memoization key Component F's call-expression
// evaluation uses to decide whether a template call needs a fresh
// instance or can reuse one already in the program graph.
func InstanceKey(template string, params []*big.Int) string {
	var b strings.Builder
	b.WriteString(template)
	for _, p := range params {
		b.WriteByte('|')
		b.WriteString(p.String())
	}
	return b.String()
}

// Program is the executed-program graph: every template instance reached
// from the entry point, keyed for memoization by InstanceKey.
type Program struct {
	Instances []*Instance
	byKey     map[string]int

	// Simplified is the result of Component H over the root instance's
	// constraint store. Run leaves it nil; only Evaluator.Simplify sets it.
	Simplified *simplify.Result
}

// NewProgram returns an empty Program.
func NewProgram() *Program {
	return &Program{byKey: make(map[string]int)}
}

// Lookup returns the index of an already-built instance for (template,
// params), or ok=false if none exists yet.
func (p *Program) Lookup(template string, params []*big.Int) (int, bool) {
	idx, ok := p.byKey[InstanceKey(template, params)]
	return idx, ok
}

// Register allocates a new Instance and records it under its memo key.
func (p *Program) Register(template string, params []*big.Int) *Instance {
	idx := len(p.Instances)
	inst := newInstance(idx, template, params)
	p.Instances = append(p.Instances, inst)
	p.byKey[InstanceKey(template, params)] = idx
	return inst
}

func (p *Program) String() string {
	var b strings.Builder
	for _, inst := range p.Instances {
		fmt.Fprintf(&b, "instance %d: %s(%v)\n", inst.Index, inst.Template, inst.Params)
	}
	return b.String()
}
