package rtreekit

import "fmt"

// ErrMinGTMax is returned when a tree is constructed with an invalid
// capacity and minimum fill: a capacity or minimum fill below 1, twice the
// minimum fill above the capacity, or (for the RR*-tree) capacity/4 below
// the minimum fill.
var ErrMinGTMax = fmt.Errorf("minimum number of entries per node must be less than or equal to the maximum")

// ErrUnsupported names an operation the core does not implement for the
// R-tree family, such as k-NN search. No function in this package returns
// it.
var ErrUnsupported = fmt.Errorf("operation not supported by this index")

// InvalidStructureError names the structural invariant (see spec section 3)
// that check_structure found violated, and the tree level at which it found
// it.
type InvalidStructureError struct {
	Reason string
	Level  int
}

func (e *InvalidStructureError) Error() string {
	return fmt.Sprintf("invalid structure at level %d: %s", e.Level, e.Reason)
}

func invalidStructure(level int, format string, args ...interface{}) *InvalidStructureError {
	return &InvalidStructureError{Reason: fmt.Sprintf(format, args...), Level: level}
}

// assert panics if ok is false. Used for programmer errors and internal
// invariants that should never be reachable through the public API -
// mirrors the teacher's assert/assert2 helpers in util.go.
func assert(ok bool) {
	assertf(ok, "assertion failed")
}

func assertf(ok bool, format string, args ...interface{}) {
	if !ok {
		panic(fmt.Sprintf(format, args...))
	}
}
