package simplify

import (
	"math/big"
	"sort"

	"github.com/iden3/circomgo/internal/algebra"
	"github.com/iden3/circomgo/internal/ast"
	"github.com/iden3/circomgo/internal/constraint"
	"github.com/iden3/circomgo/internal/errors"
	"github.com/iden3/circomgo/internal/field"
)

// Simplify runs the full phase pipeline (A–E, then witness renumbering)
// over store in place and returns the accumulated substitution map and the
// compacted signal renumbering. store is mutated directly — constraints are
// folded, replaced, or removed as the phases decide; callers that need the
// pre-simplification store should keep their own copy.
func Simplify(store *constraint.Store, f *field.Field, cfg Config) (*Result, error) {
	s := &simplifier{
		store:     store,
		field:     f,
		cfg:       cfg,
		forbidden: cfg.forbiddenSet(),
		subs:      make(map[int]algebra.Linear),
	}
	if err := s.run(); err != nil {
		return nil, err
	}
	return &Result{
		SignalMap:     s.signalMap,
		Substitutions: s.substitutionsAsMaps(),
		Log:           s.log,
	}, nil
}

type simplifier struct {
	store     *constraint.Store
	field     *field.Field
	cfg       Config
	forbidden map[int]bool

	subs      map[int]algebra.Linear
	log       []LogEntry
	signalMap map[int]int
}

// clusterOutcome is what a single cluster's worker hands back to the main
// goroutine: new substitutions it derived and any rows it wants re-inserted
// into the store (a cluster never touches the store directly, so two
// clusters running concurrently never race).
type clusterOutcome struct {
	substitutions map[int]algebra.Linear
	newConstraints []constraint.Constraint
}

func (s *simplifier) run() error {
	if err := s.phaseA(); err != nil {
		return err
	}
	if err := s.phaseB(); err != nil {
		return err
	}

	round := 0
	for {
		newlyLinear, err := s.phaseD()
		if err != nil {
			return err
		}
		round++
		producedSub, err := s.phaseC()
		if err != nil {
			return err
		}
		if !producedSub && len(newlyLinear) == 0 {
			break
		}
		if s.cfg.MaxSubstitutionRounds > 0 && round >= s.cfg.MaxSubstitutionRounds {
			break
		}
	}

	if err := s.phaseE(); err != nil {
		return err
	}
	s.renumber()
	return nil
}

// phaseA partitions s_i - s_j = 0 equalities into connected clusters and
// folds every non-representative member into a substitution, preferring a
// forbidden signal as the representative. Two forbidden signals meeting in
// the same cluster keep their equality as a live constraint instead —
// neither one may be eliminated.
func (s *simplifier) phaseA() error {
	extracted := s.store.ExtractMatching(func(c constraint.Constraint) bool { return c.IsEquality() })
	if len(extracted) == 0 {
		return nil
	}

	uf := newUnionFind()
	for _, item := range extracted {
		sigs := item.C.C.Signals()
		uf.union(sigs[0], sigs[1])
	}

	groups := uf.groups()
	jobs := make([]func() (clusterOutcome, error), 0, len(groups))
	for _, members := range groups {
		members := members
		jobs = append(jobs, func() (clusterOutcome, error) {
			return s.solveEqualityCluster(members), nil
		})
	}
	results, errs := runClusters(jobs)
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	for _, r := range results {
		s.mergeOutcome(r)
	}
	return nil
}

func (s *simplifier) solveEqualityCluster(members []int) clusterOutcome {
	var representative int
	found := false
	for _, m := range members {
		if s.forbidden[m] {
			representative = m
			found = true
			break
		}
	}
	if !found {
		representative = members[0]
	}

	out := clusterOutcome{substitutions: make(map[int]algebra.Linear)}
	one := big.NewInt(1)
	negOne := s.field.Neg(one)
	for _, m := range members {
		if m == representative {
			continue
		}
		if s.forbidden[m] {
			lin := algebra.Linear{algebra.ConstSlot: big.NewInt(0), representative: new(big.Int).Set(one), m: new(big.Int).Set(negOne)}
			out.newConstraints = append(out.newConstraints, constraint.New(
				algebra.Linear{algebra.ConstSlot: big.NewInt(0)},
				algebra.Linear{algebra.ConstSlot: big.NewInt(0)},
				lin,
			))
			continue
		}
		out.substitutions[m] = algebra.Linear{algebra.ConstSlot: big.NewInt(0), representative: new(big.Int).Set(one)}
	}
	return out
}

// phaseB folds k - s = 0 constant pins (s not forbidden) directly into a
// substitution and drops the constraint.
func (s *simplifier) phaseB() error {
	extracted := s.store.ExtractMatching(func(c constraint.Constraint) bool {
		if !c.IsConstantEquality() {
			return false
		}
		sigs := c.C.Signals()
		return !s.forbidden[sigs[0]]
	})
	for _, item := range extracted {
		c := item.C
		if len(s.subs) > 0 {
			// A duplicate or derived pin on a signal already folded this
			// phase: rewrite against what's accumulated so far instead of
			// blindly overwriting it, so a genuine contradiction (x=5 and
			// x=6 both pinning the same signal) surfaces instead of the
			// second fact silently winning.
			c = constraint.ApplySubstitution(c, s.subs, s.field)
		}
		if isUnsatisfiable(c) {
			return errors.New(errors.KindUnsatisfiableConstraint, ast.Position{}, "constraint %d reduced to a non-zero constant during simplification", item.ID)
		}
		if c.IsEmpty() {
			continue
		}
		sigs := c.C.Signals()
		if !c.IsConstantEquality() || s.forbidden[sigs[0]] {
			s.store.Add(c)
			continue
		}
		sig := sigs[0]
		repl, err := constraint.ClearSignalFromLinear(c, sig, s.field)
		if err != nil {
			return errors.New(errors.KindDivisionByZero, ast.Position{}, "constraint %d: %s", item.ID, err)
		}
		s.recordSubstitution(sig, repl)
	}
	return nil
}

// phaseC re-clusters every linear, non-trivial constraint currently in the
// store (this naturally picks up both true survivors from a previous round
// and anything Phase D just reduced to linear) and runs Gaussian elimination
// independently within each cluster.
func (s *simplifier) phaseC() (bool, error) {
	extracted := s.store.ExtractMatching(func(c constraint.Constraint) bool { return c.IsLinear() && !c.IsEmpty() })
	if len(extracted) == 0 {
		return false, nil
	}

	uf := newUnionFind()
	byID := make(map[constraint.ID]constraint.Constraint, len(extracted))
	for _, item := range extracted {
		byID[item.ID] = item.C
		sigs := item.C.C.Signals()
		if len(sigs) == 0 {
			continue
		}
		first := sigs[0]
		for _, sg := range sigs[1:] {
			uf.union(first, sg)
		}
		uf.find(first)
	}

	clusters := make(map[int][]constraint.ID)
	for id, c := range byID {
		sigs := c.C.Signals()
		root := -1 - int(id) // constraints with no signal left are their own singleton cluster
		if len(sigs) > 0 {
			root = uf.find(sigs[0])
		}
		clusters[root] = append(clusters[root], id)
	}

	jobs := make([]func() (clusterOutcome, error), 0, len(clusters))
	for _, ids := range clusters {
		ids := ids
		rows := make(map[constraint.ID]constraint.Constraint, len(ids))
		for _, id := range ids {
			rows[id] = byID[id]
		}
		jobs = append(jobs, func() (clusterOutcome, error) {
			return s.eliminateCluster(rows)
		})
	}
	results, errs := runClusters(jobs)
	for _, e := range errs {
		if e != nil {
			return false, e
		}
	}

	produced := false
	for _, r := range results {
		if len(r.substitutions) > 0 {
			produced = true
		}
		s.mergeOutcome(r)
	}
	return produced, nil
}

func (s *simplifier) eliminateCluster(rows map[constraint.ID]constraint.Constraint) (clusterOutcome, error) {
	out := clusterOutcome{substitutions: make(map[int]algebra.Linear)}
	live := make(map[constraint.ID]constraint.Constraint, len(rows))
	for id, c := range rows {
		live[id] = c
	}

	for {
		pivot, ok := s.pickPivot(live)
		if !ok {
			break
		}
		solveID, ok := pickSolveRow(live, pivot)
		if !ok {
			break
		}
		solveRow := live[solveID]
		repl, err := constraint.ClearSignalFromLinear(solveRow, pivot, s.field)
		if err != nil {
			return clusterOutcome{}, errors.New(errors.KindDivisionByZero, ast.Position{}, "constraint %d: %s", solveID, err)
		}
		delete(live, solveID)
		out.substitutions[pivot] = repl

		subMap := map[int]algebra.Linear{pivot: repl}
		for id, row := range live {
			if _, ok := row.C[pivot]; !ok {
				continue
			}
			rewritten := constraint.ApplySubstitution(row, subMap, s.field)
			if isUnsatisfiable(rewritten) {
				return clusterOutcome{}, errors.New(errors.KindUnsatisfiableConstraint, ast.Position{}, "constraint %d reduced to a non-zero constant during simplification", id)
			}
			live[id] = rewritten
		}
	}

	for _, row := range live {
		if row.IsEmpty() {
			continue
		}
		out.newConstraints = append(out.newConstraints, row)
	}
	return out, nil
}

// pickPivot chooses the cheapest non-forbidden signal to eliminate next,
// the row-count*column-count sparsity heuristic spec.md calls for (or a
// plain row-count ordering under the legacy compatibility flag), tie-broken
// by smallest signal ID for determinism.
func (s *simplifier) pickPivot(live map[constraint.ID]constraint.Constraint) (int, bool) {
	rowsBySignal := make(map[int][]constraint.ID)
	for id, row := range live {
		for _, sg := range row.C.Signals() {
			if s.forbidden[sg] {
				continue
			}
			rowsBySignal[sg] = append(rowsBySignal[sg], id)
		}
	}
	if len(rowsBySignal) == 0 {
		return 0, false
	}

	candidates := make([]int, 0, len(rowsBySignal))
	for sg := range rowsBySignal {
		candidates = append(candidates, sg)
	}
	sort.Ints(candidates)

	best := candidates[0]
	bestCost := s.pivotCost(live, rowsBySignal, best)
	for _, sg := range candidates[1:] {
		cost := s.pivotCost(live, rowsBySignal, sg)
		if cost < bestCost {
			best, bestCost = sg, cost
		}
	}
	return best, true
}

func (s *simplifier) pivotCost(live map[constraint.ID]constraint.Constraint, rowsBySignal map[int][]constraint.ID, sg int) int {
	rows := rowsBySignal[sg]
	if s.cfg.UseLegacySizeHeuristic {
		return len(rows)
	}
	cols := 0
	for _, id := range rows {
		cols += len(live[id].C.Signals())
	}
	return len(rows) * cols
}

// pickSolveRow picks the row to clear pivot from — the one with the fewest
// signals, to minimize fill-in when it is applied to the rest of the
// cluster — tie-broken by smallest constraint ID.
func pickSolveRow(live map[constraint.ID]constraint.Constraint, pivot int) (constraint.ID, bool) {
	var best constraint.ID
	bestSize := -1
	found := false
	for id, row := range live {
		if _, ok := row.C[pivot]; !ok {
			continue
		}
		size := len(row.C.Signals())
		if !found || size < bestSize || (size == bestSize && id < best) {
			best, bestSize, found = id, size, true
		}
	}
	return best, found
}

// phaseD applies every substitution accumulated so far to every live
// constraint, in parallel, then folds each rewritten row back into the
// store. It reports the IDs of constraints that were not linear before the
// rewrite but are after it, so the caller can feed them back into Phase C.
func (s *simplifier) phaseD() ([]constraint.ID, error) {
	if len(s.subs) == 0 {
		return nil, nil
	}

	ids := s.store.IDs()
	type rewriteResult struct {
		id      constraint.ID
		wasLin  bool
		after   constraint.Constraint
		touched bool
	}
	jobs := make([]func() (rewriteResult, error), 0, len(ids))
	for _, id := range ids {
		id := id
		jobs = append(jobs, func() (rewriteResult, error) {
			c, ok := s.store.Get(id)
			if !ok {
				return rewriteResult{}, nil
			}
			if !referencesAny(c, s.subs) {
				return rewriteResult{id: id, touched: false}, nil
			}
			rewritten := constraint.ApplySubstitution(c, s.subs, s.field)
			return rewriteResult{id: id, wasLin: c.IsLinear(), after: rewritten, touched: true}, nil
		})
	}
	results, errs := runClusters(jobs)
	for _, e := range errs {
		if e != nil {
			return nil, e
		}
	}

	var newlyLinear []constraint.ID
	for _, r := range results {
		if !r.touched {
			continue
		}
		if isUnsatisfiable(r.after) {
			return nil, errors.New(errors.KindUnsatisfiableConstraint, ast.Position{}, "constraint %d reduced to a non-zero constant during simplification", r.id)
		}
		if r.after.IsEmpty() {
			s.store.Remove(r.id)
			continue
		}
		s.store.Replace(r.id, r.after)
		if !r.wasLin && r.after.IsLinear() {
			newlyLinear = append(newlyLinear, r.id)
		}
	}
	return newlyLinear, nil
}

func referencesAny(c constraint.Constraint, subs map[int]algebra.Linear) bool {
	for _, sg := range c.Signals() {
		if _, ok := subs[sg]; ok {
			return true
		}
	}
	return false
}

func isUnsatisfiable(c constraint.Constraint) bool {
	return c.IsLinear() && c.C.IsConstant() && c.C[algebra.ConstSlot].Sign() != 0
}

// phaseE drops any now-trivial (0=0) row, plus any remaining non-linear
// constraint whose every signal is both non-forbidden and referenced
// nowhere else in the store — such a row is unreachable from every
// forbidden signal's perspective, so it and the otherwise-unconstrained
// signals it alone mentions are dropped together.
func (s *simplifier) phaseE() error {
	extracted := s.store.ExtractMatching(func(c constraint.Constraint) bool { return !c.IsLinear() || c.IsEmpty() })
	if len(extracted) == 0 {
		return nil
	}

	occurrence := make(map[int]int)
	for _, item := range extracted {
		for _, sg := range item.C.Signals() {
			occurrence[sg]++
		}
	}
	s.store.Each(func(_ constraint.ID, c constraint.Constraint) bool {
		for _, sg := range c.Signals() {
			occurrence[sg]++
		}
		return true
	})

	for _, item := range extracted {
		c := item.C
		if c.IsEmpty() {
			continue
		}
		sigs := c.Signals()
		unreachable := len(sigs) > 0
		for _, sg := range sigs {
			if s.forbidden[sg] || occurrence[sg] != 1 {
				unreachable = false
				break
			}
		}
		if unreachable {
			continue
		}
		s.store.Add(c)
	}
	return nil
}

// renumber computes the compacted witness layout: every still-forbidden
// signal first, in the caller's fixed order, followed by every remaining
// used non-forbidden signal in ascending original-ID order. Unused
// non-forbidden signals are simply absent from the map.
func (s *simplifier) renumber() {
	used := make(map[int]bool)
	s.store.Each(func(_ constraint.ID, c constraint.Constraint) bool {
		for _, sg := range c.Signals() {
			used[sg] = true
		}
		return true
	})

	signalMap := map[int]int{algebra.ConstSlot: algebra.ConstSlot}
	next := 1
	for _, sg := range s.cfg.ForbiddenSignals {
		if sg == algebra.ConstSlot {
			continue
		}
		if _, ok := signalMap[sg]; ok {
			continue
		}
		signalMap[sg] = next
		next++
	}

	var rest []int
	for sg := range used {
		if sg == algebra.ConstSlot || s.forbidden[sg] {
			continue
		}
		rest = append(rest, sg)
	}
	sort.Ints(rest)
	for _, sg := range rest {
		signalMap[sg] = next
		next++
	}
	s.signalMap = signalMap
}

func (s *simplifier) mergeOutcome(o clusterOutcome) {
	for sig, lin := range o.substitutions {
		s.recordSubstitution(sig, lin)
	}
	for _, c := range o.newConstraints {
		s.store.Add(c)
	}
}

func (s *simplifier) recordSubstitution(sig int, lin algebra.Linear) {
	s.subs[sig] = lin
	if s.cfg.LogSubstitutions {
		s.log = append(s.log, LogEntry{From: sig, To: linToMap(lin)})
	}
}

func (s *simplifier) substitutionsAsMaps() map[int]map[int]*big.Int {
	out := make(map[int]map[int]*big.Int, len(s.subs))
	for sig, lin := range s.subs {
		out[sig] = linToMap(lin)
	}
	return out
}

func linToMap(lin algebra.Linear) map[int]*big.Int {
	out := make(map[int]*big.Int, len(lin))
	for sig, coeff := range lin {
		if sig == algebra.ConstSlot || coeff.Sign() != 0 {
			out[sig] = new(big.Int).Set(coeff)
		}
	}
	return out
}
