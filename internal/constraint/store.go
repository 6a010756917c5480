package constraint

// ID is a stable handle into a Store; IDs are never reused, even after the
// constraint at that slot is replaced or removed, so other data structures
// (e.g. the simplifier's signal->constraint-ID index) can hold onto one
// across passes.
type ID int

// Store is an append-only bag of constraints addressed by ID. Constraints
// can be replaced in place (simplification rewrites them) or removed
// (folded away entirely), but IDs are never recycled.
type Store struct {
	rows    map[ID]Constraint
	nextID  ID
	order   []ID // insertion order, for deterministic iteration
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{rows: make(map[ID]Constraint)}
}

// Add appends c and returns its new stable ID.
func (s *Store) Add(c Constraint) ID {
	id := s.nextID
	s.nextID++
	s.rows[id] = c
	s.order = append(s.order, id)
	return id
}

// Replace overwrites the constraint at id. It panics if id was never
// issued by this Store or has since been removed — callers are expected to
// check Get/ok first if that's a live possibility.
func (s *Store) Replace(id ID, c Constraint) {
	if _, ok := s.rows[id]; !ok {
		panic("constraint: Replace on unknown id")
	}
	s.rows[id] = c
}

// Remove deletes the constraint at id, e.g. after it has been folded into a
// substitution and is no longer needed.
func (s *Store) Remove(id ID) {
	delete(s.rows, id)
}

// Get reads the constraint at id.
func (s *Store) Get(id ID) (Constraint, bool) {
	c, ok := s.rows[id]
	return c, ok
}

// Len reports how many live (non-removed) constraints remain.
func (s *Store) Len() int { return len(s.rows) }

// Each iterates live constraints in insertion order, stopping early if fn
// returns false.
func (s *Store) Each(fn func(id ID, c Constraint) bool) {
	for _, id := range s.order {
		c, ok := s.rows[id]
		if !ok {
			continue
		}
		if !fn(id, c) {
			return
		}
	}
}

// ExtractMatching removes and returns every live constraint for which pred
// returns true, in insertion order.
func (s *Store) ExtractMatching(pred func(c Constraint) bool) []struct {
	ID ID
	C  Constraint
} {
	var out []struct {
		ID ID
		C  Constraint
	}
	for _, id := range s.order {
		c, ok := s.rows[id]
		if !ok || !pred(c) {
			continue
		}
		out = append(out, struct {
			ID ID
			C  Constraint
		}{id, c})
		delete(s.rows, id)
	}
	return out
}

// IDs returns the live IDs in insertion order.
func (s *Store) IDs() []ID {
	out := make([]ID, 0, len(s.rows))
	for _, id := range s.order {
		if _, ok := s.rows[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
