package errors

import (
	"fmt"
	"strings"

	"github.com/iden3/circomgo/internal/ast"
)

// Frame is one entry of a CompilerError's call trace: the template or
// function the error occurred inside, outermost entry first.
type Frame struct {
	Name string // template or function name
	Pos  ast.Position
}

// CompilerError is a single diagnostic. It carries enough structure for a
// caller to build its own presentation; this package renders nothing fancy.
type CompilerError struct {
	Kind      Kind
	Message   string
	Position  ast.Position
	CallTrace []Frame // outermost to innermost
}

func (e CompilerError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s (at %s)", e.Kind, e.Message, e.Position)
	for i := len(e.CallTrace) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "\n  in %s (%s)", e.CallTrace[i].Name, e.CallTrace[i].Pos)
	}
	return b.String()
}

// New builds a CompilerError with no call trace attached yet.
func New(kind Kind, pos ast.Position, format string, args ...interface{}) CompilerError {
	return CompilerError{Kind: kind, Message: fmt.Sprintf(format, args...), Position: pos}
}

// WithTrace returns a copy of err with the given call trace attached.
func (e CompilerError) WithTrace(trace []Frame) CompilerError {
	e.CallTrace = append([]Frame(nil), trace...)
	return e
}

// Reporter is a per-phase report bag. Errors are collected rather than
// thrown so that one bad statement does not stop the phase from surfacing
// every other problem it can find in the same run.
type Reporter struct {
	errs []CompilerError
}

// NewReporter returns an empty report bag.
func NewReporter() *Reporter { return &Reporter{} }

// Add appends a diagnostic to the bag.
func (r *Reporter) Add(err CompilerError) { r.errs = append(r.errs, err) }

// Errors returns every diagnostic collected so far, in insertion order.
func (r *Reporter) Errors() []CompilerError { return r.errs }

// HasErrors reports whether any diagnostic has been collected.
func (r *Reporter) HasErrors() bool { return len(r.errs) > 0 }

// Reset clears the bag, e.g. between independent template instantiations.
func (r *Reporter) Reset() { r.errs = nil }
