// Package rtreekit implements a family of in-memory R-tree variants for
// range queries over axis-aligned minimum bounding rectangles (MBRs): a
// quadratic (Guttman) split, R*, the revised RR*, Greene, and a Hilbert
// curve ordered variant. The package also provides three interchangeable
// node storage layouts (default, pointer-array and columnar/vectorized) and
// a transforming decorator that rebuilds a finished tree into a different
// layout.
package rtreekit

import (
	"fmt"
	"math"
)

// Coordinate is the scalar type used for point and box arithmetic. Trees are
// parameterized over it so a build can pick 32-bit coordinates for compact
// nodes or 64-bit for the vectorized layout, per spec section 4.3.
type Coordinate interface {
	~float32 | ~float64
}

// Id identifies a stored object. The zero value is reserved as
// "uninitialized" and is never assigned to an inserted object.
type Id = uint64

// Point is an ordered sequence of D coordinates.
type Point[T Coordinate] []T

// dist returns the Euclidean distance between two points of equal
// dimension.
func (p Point[T]) dist(q Point[T]) float64 {
	assertf(len(p) == len(q), "points of different dimension: %d vs %d", len(p), len(q))
	var sum float64
	for i := range p {
		d := float64(p[i] - q[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Box is an axis-aligned box given by its low and high corners. Low[i] must
// be <= High[i] for every dimension i.
type Box[T Coordinate] struct {
	Low, High Point[T]
}

// NewBox validates and constructs a Box from a low and high point. A
// dimension mismatch or an inverted bound (low[i] > high[i]) is a
// programmer error per spec section 7.1 and is reported through err rather
// than panicking, since boxes are commonly built from untrusted input data
// sets.
func NewBox[T Coordinate](low, high Point[T]) (Box[T], error) {
	if len(low) != len(high) {
		return Box[T]{}, fmt.Errorf("low and high points have different dimension: %d vs %d", len(low), len(high))
	}
	for i := range low {
		if low[i] > high[i] {
			return Box[T]{}, fmt.Errorf("dimension %d: low (%v) greater than high (%v)", i, low[i], high[i])
		}
	}
	return Box[T]{Low: low, High: high}, nil
}

// Dim returns the dimension of the box.
func (b Box[T]) Dim() int { return len(b.Low) }

// Mbr is a fixed-dimension minimum bounding rectangle and the algebra used
// throughout the R-tree core (spec section 4.1). Edges are closed:
// touching rectangles count as intersecting.
type Mbr[T Coordinate] struct {
	low, high Point[T]
}

// NewMbr constructs an Mbr from a Box, copying its coordinates so the Mbr
// is independent of later mutation of the source slices.
func NewMbr[T Coordinate](box Box[T]) Mbr[T] {
	low := make(Point[T], len(box.Low))
	high := make(Point[T], len(box.High))
	copy(low, box.Low)
	copy(high, box.High)
	return Mbr[T]{low: low, high: high}
}

// NewPointMbr constructs a zero-volume Mbr at a single point.
func NewPointMbr[T Coordinate](p Point[T]) Mbr[T] {
	low := make(Point[T], len(p))
	high := make(Point[T], len(p))
	copy(low, p)
	copy(high, p)
	return Mbr[T]{low: low, high: high}
}

// Dim returns the dimension of the MBR.
func (m Mbr[T]) Dim() int { return len(m.low) }

// Low returns the low corner. Callers must not mutate the returned slice.
func (m Mbr[T]) Low() Point[T] { return m.low }

// High returns the high corner. Callers must not mutate the returned slice.
func (m Mbr[T]) High() Point[T] { return m.high }

// Union returns the smallest MBR covering both m and other. Union is
// associative, commutative and idempotent.
func (m Mbr[T]) Union(other Mbr[T]) Mbr[T] {
	assertf(m.Dim() == other.Dim(), "MBRs of different dimension: %d vs %d", m.Dim(), other.Dim())
	low := make(Point[T], m.Dim())
	high := make(Point[T], m.Dim())
	for i := range low {
		low[i] = minT(m.low[i], other.low[i])
		high[i] = maxT(m.high[i], other.high[i])
	}
	return Mbr[T]{low: low, high: high}
}

// Intersects reports whether m and other overlap, counting a shared edge as
// overlap.
func (m Mbr[T]) Intersects(other Mbr[T]) bool {
	assertf(m.Dim() == other.Dim(), "MBRs of different dimension: %d vs %d", m.Dim(), other.Dim())
	for i := range m.low {
		if m.high[i] < other.low[i] || other.high[i] < m.low[i] {
			return false
		}
	}
	return true
}

// Intersection returns the MBR covering the overlap between m and other.
// It is only defined when the two MBRs intersect.
func (m Mbr[T]) Intersection(other Mbr[T]) Mbr[T] {
	assertf(m.Intersects(other), "intersection of non-intersecting MBRs requested")
	low := make(Point[T], m.Dim())
	high := make(Point[T], m.Dim())
	for i := range low {
		low[i] = maxT(m.low[i], other.low[i])
		high[i] = minT(m.high[i], other.high[i])
	}
	return Mbr[T]{low: low, high: high}
}

// Volume returns the product of the side lengths (the hypervolume).
func (m Mbr[T]) Volume() T {
	var v T = 1
	for i := range m.low {
		v *= m.high[i] - m.low[i]
	}
	return v
}

// Perimeter returns the sum of the side lengths, as defined by Beckmann and
// Seeger - this generalizes to arbitrary dimension without an extra
// constant factor.
func (m Mbr[T]) Perimeter() T {
	var p T
	for i := range m.low {
		p += m.high[i] - m.low[i]
	}
	return p
}

// Center returns the midpoint of the MBR.
func (m Mbr[T]) Center() Point[T] {
	c := make(Point[T], m.Dim())
	for i := range c {
		c[i] = (m.high[i] + m.low[i]) / 2
	}
	return c
}

// Enlargement returns the increase in volume incurred by unioning other
// into m.
func (m Mbr[T]) Enlargement(other Mbr[T]) T {
	return m.Union(other).Volume() - m.Volume()
}

// Contains reports whether other is entirely contained within m.
func (m Mbr[T]) Contains(other Mbr[T]) bool {
	assertf(m.Dim() == other.Dim(), "MBRs of different dimension: %d vs %d", m.Dim(), other.Dim())
	for i := range m.low {
		if m.low[i] > other.low[i] || m.high[i] < other.high[i] {
			return false
		}
	}
	return true
}

// Distance2 returns the squared distance between m and other (zero if they
// intersect).
func (m Mbr[T]) Distance2(other Mbr[T]) T {
	var d T
	for i := range m.low {
		diff := m.DistanceAlong(i, other)
		d += diff * diff
	}
	return d
}

// DistanceAlong returns the (non-negative) gap between m and other along a
// single dimension.
func (m Mbr[T]) DistanceAlong(d int, other Mbr[T]) T {
	a := m.low[d] - other.high[d]
	b := other.low[d] - m.high[d]
	return maxT(maxT(0, a), b)
}

// Measure is a scalar function of an MBR, used to switch overlap
// computations between volume and perimeter (spec section 4.9).
type Measure[T Coordinate] func(Mbr[T]) T

// VolumeMeasure and PerimeterMeasure are the two Measures used throughout
// the RR*-tree.
func VolumeMeasure[T Coordinate](m Mbr[T]) T    { return m.Volume() }
func PerimeterMeasure[T Coordinate](m Mbr[T]) T { return m.Perimeter() }

// OverlapEnlargement returns the increase, under measure, of the overlap
// between m and other if extra is unioned into m. It is zero when the
// enlarged MBR does not intersect other, and subtracts any pre-existing
// overlap so that repeated calls accumulate correctly (spec section 4.1).
func (m Mbr[T]) OverlapEnlargement(other, extra Mbr[T], measure Measure[T]) T {
	enlarged := m.Union(extra)

	if !enlarged.Intersects(other) {
		return 0
	}

	overlap := measure(enlarged.Intersection(other))

	if m.Intersects(other) {
		overlap -= measure(m.Intersection(other))
	}

	return overlap
}

// DataObject is a stored (Id, Box) pair.
type DataObject[T Coordinate] struct {
	Id  Id
	Box Box[T]
}

func minT[T Coordinate](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func maxT[T Coordinate](a, b T) T {
	if a > b {
		return a
	}
	return b
}
