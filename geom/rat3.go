// Package geom implements the exact geometric kernel: lazy rational
// coordinates, orientation and in-sphere predicates, segment/triangle
// intersection, and bounding-box math.
package geom

import (
	"math/big"

	"gonum.org/v1/gonum/spatial/r3"
)

// Rat3 is an exact rational 3D coordinate. Arithmetic on Rat3 never loses
// precision, which is what lets Orient3D and InSphere be exact.
type Rat3 struct {
	X, Y, Z *big.Rat
}

// NewRat3 builds an exact coordinate from a double. The conversion itself
// is exact (big.Rat.SetFloat64 never rounds), so the result always
// satisfies the I5 invariant against the double it was built from.
func NewRat3(x, y, z float64) Rat3 {
	rx := new(big.Rat)
	ry := new(big.Rat)
	rz := new(big.Rat)
	if rx.SetFloat64(x) == nil || ry.SetFloat64(y) == nil || rz.SetFloat64(z) == nil {
		// NaN/Inf input; caller is expected to have rejected this already
		// (InputInvalid, spec.md §7). Fall back to zero so arithmetic
		// downstream doesn't panic on a nil *big.Rat.
		return Rat3{X: big.NewRat(0, 1), Y: big.NewRat(0, 1), Z: big.NewRat(0, 1)}
	}
	return Rat3{X: rx, Y: ry, Z: rz}
}

// Float returns the rounded double for r, and whether that double is an
// exact representation of the rational value (I5).
func (r Rat3) Float() (r3.Vec, bool) {
	x, xe := r.X.Float64()
	y, ye := r.Y.Float64()
	z, ze := r.Z.Float64()
	return r3.Vec{X: x, Y: y, Z: z}, xe && ye && ze
}

// Equal reports whether a and b are the exact same rational point (I4).
func (a Rat3) Equal(b Rat3) bool {
	return a.X.Cmp(b.X) == 0 && a.Y.Cmp(b.Y) == 0 && a.Z.Cmp(b.Z) == 0
}

func (a Rat3) Sub(b Rat3) Rat3 {
	return Rat3{
		X: new(big.Rat).Sub(a.X, b.X),
		Y: new(big.Rat).Sub(a.Y, b.Y),
		Z: new(big.Rat).Sub(a.Z, b.Z),
	}
}

func (a Rat3) Add(b Rat3) Rat3 {
	return Rat3{
		X: new(big.Rat).Add(a.X, b.X),
		Y: new(big.Rat).Add(a.Y, b.Y),
		Z: new(big.Rat).Add(a.Z, b.Z),
	}
}

// Lerp returns a point on the segment [a,b] at exact parameter t = p/q,
// i.e. a + (p/q)*(b-a). Used for midpoint splits and BSP cut-plane
// intersections, both of which need an exact result.
func (a Rat3) Lerp(b Rat3, t *big.Rat) Rat3 {
	d := b.Sub(a)
	return Rat3{
		X: new(big.Rat).Add(a.X, new(big.Rat).Mul(d.X, t)),
		Y: new(big.Rat).Add(a.Y, new(big.Rat).Mul(d.Y, t)),
		Z: new(big.Rat).Add(a.Z, new(big.Rat).Mul(d.Z, t)),
	}
}

// Midpoint returns the exact midpoint of a and b.
func (a Rat3) Midpoint(b Rat3) Rat3 {
	return a.Lerp(b, big.NewRat(1, 2))
}

func mulRat(a, b *big.Rat) *big.Rat {
	return new(big.Rat).Mul(a, b)
}

func dotRat(a, b Rat3) *big.Rat {
	r := new(big.Rat)
	r.Add(r, mulRat(a.X, b.X))
	r.Add(r, mulRat(a.Y, b.Y))
	r.Add(r, mulRat(a.Z, b.Z))
	return r
}

func crossRat(a, b Rat3) Rat3 {
	return Rat3{
		X: new(big.Rat).Sub(mulRat(a.Y, b.Z), mulRat(a.Z, b.Y)),
		Y: new(big.Rat).Sub(mulRat(a.Z, b.X), mulRat(a.X, b.Z)),
		Z: new(big.Rat).Sub(mulRat(a.X, b.Y), mulRat(a.Y, b.X)),
	}
}
