// Package simplify implements Component H: the post-elaboration constraint
// simplifier. It takes the R1CS store a template instance's evaluation
// produced and folds away redundant signals through a fixed phase pipeline
// (equality clustering, constant folding, linear Gaussian elimination,
// substitution propagation, non-linear cleanup), then renumbers the
// surviving signals into a compact witness layout. Every signal in the
// caller's forbidden set survives untouched; every fold is recorded as a
// substitution so a downstream witness generator can reconstruct eliminated
// signals from the ones that remain.
package simplify

import "math/big"

// Config holds the simplifier's tunables. ForbiddenSignals lists the
// signals that must never be eliminated — the public inputs/outputs a
// prover needs, in the fixed order they should appear first in the final
// witness layout.
type Config struct {
	ForbiddenSignals []int

	// MaxSubstitutionRounds caps Phase D's propagate/re-feed loop. Zero
	// means unbounded (iterate until no new linear constraint appears).
	MaxSubstitutionRounds int

	// UseLegacySizeHeuristic switches Phase C's pivot selection from the
	// row-count*column-count sparsity product to a plain row-count
	// ordering, matching the original compatibility flag.
	UseLegacySizeHeuristic bool

	// LogSubstitutions turns on the in-memory substitution recorder
	// (Result.Log). Off by default since most callers only want the final
	// store and signal map.
	LogSubstitutions bool
}

func (c Config) forbiddenSet() map[int]bool {
	m := make(map[int]bool, len(c.ForbiddenSignals))
	for _, s := range c.ForbiddenSignals {
		m[s] = true
	}
	return m
}

// LogEntry records one substitution as it was folded in, `From` the
// eliminated signal and `To` the linear combination (signal -> coefficient)
// it was replaced by — a pure constant is represented with no keys besides
// the constant slot.
type LogEntry struct {
	From int
	To   map[int]*big.Int
}

// Result is everything Simplify hands back: the compacted signal
// renumbering, the full accumulated substitution map (useful for a
// downstream witness generator), and — if Config.LogSubstitutions was set —
// the ordered log of every fold applied.
type Result struct {
	SignalMap     map[int]int
	Substitutions map[int]map[int]*big.Int
	Log           []LogEntry
}
