// Package memory implements the N-dimensional slice used to represent
// signal, variable, and component array storage: a single flat backing
// array addressed through a shape (list of per-dimension extents), with
// sub-slices by index prefix and rank-reducing access down to the cell
// type. This package has no notion of source position; callers that need
// a CompilerError attach position and call-trace context themselves (see
// internal/eval), the same separation the errors package's doc comment
// describes between diagnostics and their presentation.
package memory

import (
	"fmt"

	"github.com/iden3/circomgo/internal/errors"
)

// Slice is a dense N-dimensional array of T. A zero-rank Slice (Shape is
// empty) holds exactly one cell and Unwrap returns it directly.
type Slice[T any] struct {
	shape []int
	cells []T
}

// New builds a Slice of the given shape, every cell set to zero value.
func New[T any](shape []int) *Slice[T] {
	return NewFilled(shape, func() T {
		var zero T
		return zero
	})
}

// NewFilled builds a Slice of the given shape, every cell produced by a
// fresh call to fill (so reference-typed cells don't alias each other).
func NewFilled[T any](shape []int, fill func() T) *Slice[T] {
	n := sizeOf(shape)
	cells := make([]T, n)
	for i := range cells {
		cells[i] = fill()
	}
	return &Slice[T]{shape: append([]int(nil), shape...), cells: cells}
}

func sizeOf(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// Shape returns the slice's dimensions.
func (s *Slice[T]) Shape() []int { return append([]int(nil), s.shape...) }

// Rank returns len(Shape()).
func (s *Slice[T]) Rank() int { return len(s.shape) }

// SliceError is the plain, position-free error this package returns; eval
// wraps one in a errors.CompilerError of the matching Kind once it knows
// where in the source the access happened.
type SliceError struct {
	Kind errors.Kind
	msg  string
}

func (e *SliceError) Error() string { return e.msg }

func invalidAccess(format string, args ...interface{}) error {
	return &SliceError{Kind: errors.KindInvalidAccess, msg: fmt.Sprintf(format, args...)}
}

func outOfBounds(format string, args ...interface{}) error {
	return &SliceError{Kind: errors.KindOutOfBounds, msg: fmt.Sprintf(format, args...)}
}

func assignmentError(format string, args ...interface{}) error {
	return &SliceError{Kind: errors.KindAssignmentError, msg: fmt.Sprintf(format, args...)}
}

// Unwrap returns the single cell of a zero-rank Slice, failing with
// InvalidAccess if the slice still has dimensions left.
func (s *Slice[T]) Unwrap() (T, error) {
	var zero T
	if s.Rank() != 0 {
		return zero, invalidAccess("cannot unwrap a slice of rank %d", s.Rank())
	}
	return s.cells[0], nil
}

// Get reads a sub-slice at the given index prefix. len(idx) may be less
// than Rank(), in which case the result has rank Rank()-len(idx); if it
// equals Rank(), the result is a zero-rank Slice holding one cell.
func (s *Slice[T]) Get(idx []int) (*Slice[T], error) {
	if len(idx) > s.Rank() {
		return nil, invalidAccess("index prefix longer than rank: %d > %d", len(idx), s.Rank())
	}
	offset, stride, err := s.locate(idx)
	if err != nil {
		return nil, err
	}
	subShape := s.shape[len(idx):]
	return &Slice[T]{shape: append([]int(nil), subShape...), cells: s.cells[offset : offset+stride]}, nil
}

// Set writes a sub-slice at the given index prefix. The source's shape
// must exactly match the shape of the addressed region.
func (s *Slice[T]) Set(idx []int, src *Slice[T]) error {
	if len(idx) > s.Rank() {
		return invalidAccess("index prefix longer than rank: %d > %d", len(idx), s.Rank())
	}
	offset, stride, err := s.locate(idx)
	if err != nil {
		return err
	}
	wantShape := s.shape[len(idx):]
	if !shapeEqual(wantShape, src.shape) {
		return assignmentError("shape mismatch inserting at %v: want %v, got %v", idx, wantShape, src.shape)
	}
	copy(s.cells[offset:offset+stride], src.cells)
	return nil
}

// SetCell writes a single cell at a full-rank index.
func (s *Slice[T]) SetCell(idx []int, v T) error {
	if len(idx) != s.Rank() {
		return invalidAccess("SetCell requires a full-rank index: got %d want %d", len(idx), s.Rank())
	}
	offset, _, err := s.locate(idx)
	if err != nil {
		return err
	}
	s.cells[offset] = v
	return nil
}

// locate resolves an index prefix to a (start offset, length) pair within
// the flat backing array, bounds-checking every component against its
// dimension.
func (s *Slice[T]) locate(idx []int) (offset, stride int, err error) {
	stride = sizeOf(s.shape)
	for i, d := range s.shape {
		if i >= len(idx) {
			break
		}
		if idx[i] < 0 || idx[i] >= d {
			return 0, 0, outOfBounds("index %d out of bounds [0,%d) at dimension %d", idx[i], d, i)
		}
		if d == 0 {
			stride = 0
			continue
		}
		stride /= d
		offset += idx[i] * stride
	}
	return offset, stride, nil
}

func shapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
