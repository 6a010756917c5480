package eval

import (
	"math/big"

	"github.com/iden3/circomgo/internal/ast"
	"github.com/iden3/circomgo/internal/errors"
	"github.com/iden3/circomgo/internal/field"
	"github.com/iden3/circomgo/internal/ir"
	"github.com/iden3/circomgo/internal/semantic"
	"github.com/iden3/circomgo/internal/simplify"
	"github.com/iden3/circomgo/internal/types"
)

// Entry is the program's single entry point: which template to
// instantiate, the parameter values to instantiate it with, and which of
// its signals the simplifier must never eliminate (the "forbidden" set —
// the original's Public list, per SPEC_FULL.md's supplemented-features
// section).
type Entry struct {
	Template string
	Params   []*big.Int
	Public   []string
}

// Evaluator holds everything Component F's elaboration needs that is
// shared across every template instance it visits: the field the program
// compiles over, the declaration tables built ahead of time, the
// executed-program graph under construction, and the report bag errors
// accumulate into instead of aborting elaboration outright.
type Evaluator struct {
	Field     *field.Field
	Program   *Program
	Reporter  *errors.Reporter
	Templates map[string]*ast.TemplateDecl
	Functions map[string]*ast.FunctionDecl
	Buses     map[string]*types.Bus

	nextSignalID int
	trace        []errors.Frame
}

// New builds an Evaluator over the given declaration tables. Signal ID 0
// is reserved for the constant slot, so the fresh-ID counter starts at 1.
func New(f *field.Field, templates map[string]*ast.TemplateDecl, functions map[string]*ast.FunctionDecl, buses map[string]*types.Bus) *Evaluator {
	return &Evaluator{
		Field:        f,
		Program:      NewProgram(),
		Reporter:     errors.NewReporter(),
		Templates:    templates,
		Functions:    functions,
		Buses:        buses,
		nextSignalID: 1,
	}
}

func (e *Evaluator) freshSignalIDs(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = e.nextSignalID
		e.nextSignalID++
	}
	return ids
}

func (e *Evaluator) report(pos ast.Position, kind errors.Kind, format string, args ...interface{}) {
	e.Reporter.Add(errors.New(kind, pos, format, args...).WithTrace(e.trace))
}

func (e *Evaluator) pushFrame(name string, pos ast.Position) {
	e.trace = append(e.trace, errors.Frame{Name: name, Pos: pos})
}

func (e *Evaluator) popFrame() {
	e.trace = e.trace[:len(e.trace)-1]
}

// Run elaborates entry.Template with entry.Params from a fresh top-level
// call and returns the resulting executed-program graph. If any error was
// collected during elaboration, the program is still returned (callers
// that want the full diagnostic set can keep eliaborating downstream
// phases that don't depend on a clean program), but Reporter.HasErrors()
// will be true.
func (e *Evaluator) Run(entry Entry) (*Program, error) {
	tmpl, ok := e.Templates[entry.Template]
	if !ok {
		return nil, errors.New(errors.KindMainComponentError, ast.Position{}, "main component references undeclared template %q", entry.Template)
	}
	_, err := e.instantiate(tmpl, entry.Params, tmpl.Pos())
	if err != nil {
		return e.Program, err
	}
	if e.Reporter.HasErrors() {
		return e.Program, e.Reporter.Errors()[0]
	}
	return e.Program, nil
}

// Simplify runs Component H over the root instance's constraint store —
// the elaboration phase boundary spec.md Section 7 describes: a clean run
// of Run must complete before this phase starts. entry.Public names the
// root instance's signals the simplifier must never eliminate; it is
// flattened into signal IDs here and handed straight through as
// simplify.Config.ForbiddenSignals. The result is also cached on
// e.Program.Simplified.
func (e *Evaluator) Simplify(entry Entry, cfg simplify.Config) (*simplify.Result, error) {
	if len(e.Program.Instances) == 0 {
		return nil, errors.New(errors.KindMainComponentError, ast.Position{}, "Simplify called before a successful Run")
	}
	root := e.Program.Instances[0]

	forbidden, err := e.resolvePublicIDs(root, entry.Public)
	if err != nil {
		return nil, err
	}
	cfg.ForbiddenSignals = append(append([]int{}, cfg.ForbiddenSignals...), forbidden...)

	result, err := simplify.Simplify(root.Constraints, e.Field, cfg)
	if err != nil {
		return nil, err
	}
	e.Program.Simplified = result
	return result, nil
}

// resolvePublicIDs flattens entry.Public's wire names into the signal IDs
// the simplifier must never eliminate, in the order given.
func (e *Evaluator) resolvePublicIDs(root *Instance, public []string) ([]int, error) {
	var ids []int
	for _, name := range public {
		w, ok := root.Wires[name]
		if !ok {
			return nil, errors.New(errors.KindMainComponentError, ast.Position{}, "main component's public list names undeclared signal %q", name)
		}
		ids = append(ids, w.IDs...)
	}
	return ids, nil
}

// instantiate returns the Instance for (tmpl, params), building and
// registering a new one the first time this exact (template, parameter
// tuple) combination is requested, per Component F's call-expression
// dispatch rule.
func (e *Evaluator) instantiate(tmpl *ast.TemplateDecl, params []*big.Int, pos ast.Position) (*Instance, error) {
	if idx, ok := e.Program.Lookup(tmpl.Name, params); ok {
		return e.Program.Instances[idx], nil
	}
	inst := e.Program.Register(tmpl.Name, params)

	e.pushFrame(tmpl.Name, pos)
	defer e.popFrame()

	scope := NewScope(nil)
	for i, p := range tmpl.Params {
		if i < len(params) {
			scope.Define(p, ScalarNumber(params[i]), semantic.Known)
		}
	}

	e.execBlock(inst, scope, &inst.IR.Root, &returnState{}, tmpl.Body, false)
	ir.ResolveInputStatuses(inst.IR.Root)
	return inst, nil
}
