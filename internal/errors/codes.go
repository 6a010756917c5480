// Package errors provides structured diagnostics for the circuit compiler core.
//
// Diagnostics are collected into a per-phase report bag rather than thrown:
// one erroneous statement does not abort an entire elaboration, so the
// caller sees the maximum number of problems in a single run. Pretty-
// printing of these diagnostics (caret underlines, colorized terminal
// output) is an external collaborator's job, not this package's; Kind
// codes, source positions, and call traces are all it hands back.
package errors

// Kind identifies the category of a CompilerError. The ranges below mirror
// the taxonomy in the specification's error-handling design.
type Kind string

const (
	// Arithmetic (Component A)
	KindDivisionByZero      Kind = "DivisionByZero"
	KindBitOverflowInShift  Kind = "BitOverflowInShift"

	// Memory/Access (Component D)
	KindInvalidAccess         Kind = "InvalidAccess"
	KindAssignmentError       Kind = "AssignmentError"
	KindOutOfBounds           Kind = "OutOfBounds"
	KindUnknownSizeDimension  Kind = "UnknownSizeDimension"

	// Semantic (Component F)
	KindNonQuadraticConstraint Kind = "NonQuadraticConstraint"
	KindFalseAssert            Kind = "FalseAssert"
	KindUninitializedSymbol    Kind = "UninitializedSymbol"

	// Typing (Component E)
	KindTypeMismatch       Kind = "TypeMismatch"
	KindInvalidOperator    Kind = "InvalidOperator"
	KindUnknownField       Kind = "UnknownField"
	KindTagMisuse          Kind = "TagMisuse"
	KindMainComponentError Kind = "MainComponentError"
	KindUnknownCondition   Kind = "UnknownCondition"

	// Unsat (Component H)
	KindUnsatisfiableConstraint Kind = "UnsatisfiableConstraint"
)

// descriptions gives a short human-readable summary for each Kind; used by
// tooling that wants a one-line gloss without depending on message text.
var descriptions = map[Kind]string{
	KindDivisionByZero:          "division, or modular inverse, by a value not coprime with the field",
	KindBitOverflowInShift:      "shift amount exceeds the field's bit width",
	KindInvalidAccess:           "access path does not resolve to a storable location",
	KindAssignmentError:         "signal or variable written more than once",
	KindOutOfBounds:             "index outside the declared shape of a slice",
	KindUnknownSizeDimension:    "array length depends on a non-compile-time value",
	KindNonQuadraticConstraint:  "expression escaped the affine/quadratic fragment",
	KindFalseAssert:             "compile-time assertion evaluated to false",
	KindUninitializedSymbol:     "symbol read before it was ever written",
	KindTypeMismatch:            "expression type incompatible with its context",
	KindInvalidOperator:         "operator not defined for the operand's symbol kind",
	KindUnknownField:            "field does not exist on the referenced bus",
	KindTagMisuse:               "tag used somewhere only a known numeric value is legal",
	KindMainComponentError:      "main-component declaration violates its restrictions",
	KindUnknownCondition:        "branch or loop condition is not known at compile time",
	KindUnsatisfiableConstraint: "constraint reduced to a non-zero constant during simplification",
}

// Describe returns a short human-readable gloss for a Kind, or "" if unknown.
func Describe(k Kind) string { return descriptions[k] }
