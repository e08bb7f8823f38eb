package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Box3 is an axis-aligned bounding box in rounded double coordinates.
// Bounding-box math never needs to be exact (it only ever gates a
// broad-phase test), so Box3 intentionally does not carry a Rat3 form,
// unlike Point.
type Box3 struct {
	Min, Max r3.Vec
}

// EmptyBox3 returns a box with inverted bounds, ready to be grown by
// Extend.
func EmptyBox3() Box3 {
	inf := math.Inf(1)
	return Box3{Min: r3.Vec{X: inf, Y: inf, Z: inf}, Max: r3.Vec{X: -inf, Y: -inf, Z: -inf}}
}

// Extend returns a copy of b grown to include p; b itself is unchanged.
func (b Box3) Extend(p r3.Vec) Box3 {
	return Box3{
		Min: r3.Vec{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)},
		Max: r3.Vec{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)},
	}
}

// Union returns the smallest box containing both b and o.
func (b Box3) Union(o Box3) Box3 {
	return b.Extend(o.Min).Extend(o.Max)
}

func (b Box3) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

func (b Box3) Size() r3.Vec {
	return r3.Sub(b.Max, b.Min)
}

// Diag returns the length of the box's diagonal, the reference length
// spec.md §6 derives initial_edge_len_rel and eps_rel from.
func (b Box3) Diag() float64 {
	return r3.Norm(b.Size())
}

// Inflate grows the box by e in every direction (used for R1's
// eps-inflated containment check).
func (b Box3) Inflate(e float64) Box3 {
	d := r3.Vec{X: e, Y: e, Z: e}
	return Box3{Min: r3.Sub(b.Min, d), Max: r3.Add(b.Max, d)}
}

func (b Box3) Contains(p r3.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// ContainsBox reports whether b fully contains o.
func (b Box3) ContainsBox(o Box3) bool {
	return b.Contains(o.Min) && b.Contains(o.Max)
}
