package rtreekit

import (
	h "github.com/jtejido/hilbert"
)

// HilbertCurve maps points normalized to [0,1]^D onto a Hilbert space
// filling curve value of up to 8*sizeof(uint64) bits, following Lawder's
// algorithm (spec section 4.2). The bit manipulation itself is delegated to
// github.com/jtejido/hilbert, the one third-party dependency the teacher
// (jtejido/hrtree) already carries for exactly this purpose; this type adds
// the domain-box normalization the teacher's Insert performs inline.
type HilbertCurve[T Coordinate] struct {
	bounds Mbr[T]
	bits   uint32
	dim    int
	hf     *h.Hilbert
}

// NewHilbertCurve builds a curve over the given data domain box, using bits
// bits of resolution per dimension. Points passed to Encode are expected to
// fall within bounds; a coordinate outside it is clamped to the nearest
// face of the box, so such points share the Hilbert value of a boundary
// cell.
func NewHilbertCurve[T Coordinate](bounds Mbr[T], bits uint32) (*HilbertCurve[T], error) {
	hf, err := h.New(bits, uint32(bounds.Dim()))
	if err != nil {
		return nil, err
	}
	return &HilbertCurve[T]{bounds: bounds, bits: bits, dim: bounds.Dim(), hf: hf}, nil
}

// Encode returns the Hilbert value of p, normalized against the curve's
// domain box and quantized to the curve's bit resolution.
func (c *HilbertCurve[T]) Encode(p Point[T]) uint64 {
	assertf(len(p) == c.dim, "point of wrong dimension given to Hilbert curve: %d vs %d", len(p), c.dim)

	grid := make([]uint64, c.dim)
	scale := float64(uint64(1) << c.bits)

	for i := 0; i < c.dim; i++ {
		span := float64(c.bounds.high[i] - c.bounds.low[i])
		norm := 0.0
		if span > 0 {
			norm = float64(p[i]-c.bounds.low[i]) / span
		}
		if norm < 0 {
			norm = 0
		}
		if norm > 1 {
			norm = 1
		}
		g := uint64(norm * scale)
		max := uint64(1)<<c.bits - 1
		if g > max {
			g = max
		}
		grid[i] = g
	}

	return c.hf.Encode(grid...).Uint64()
}
