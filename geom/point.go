package geom

import "gonum.org/v1/gonum/spatial/r3"

// Point is a tet/mesh vertex position: an exact rational coordinate plus
// its rounded double, with a flag recording whether the two currently
// agree (I5). Downstream code reads Rounded for anything performance
// sensitive (AMIPS energy, envelope sampling) and Exact only when a sign
// has to be trusted (Orient3D, InSphere).
type Point struct {
	Exact     Rat3
	Rounded   r3.Vec
	IsRounded bool
}

// NewPoint builds a Point directly from a double. Since NewRat3 converts
// without loss, the result always starts out rounded.
func NewPoint(x, y, z float64) Point {
	p := Point{Exact: NewRat3(x, y, z), Rounded: r3.Vec{X: x, Y: y, Z: z}}
	_, p.IsRounded = p.Exact.Float()
	return p
}

// NewExactPoint builds a Point from an already-computed exact coordinate
// (e.g. the output of Lerp/Midpoint/a BSP cut). IsRounded is recomputed
// from the coordinate itself, not assumed.
func NewExactPoint(e Rat3) Point {
	rounded, exact := e.Float()
	return Point{Exact: e, Rounded: rounded, IsRounded: exact}
}

// Round attempts to replace p's exact coordinate with its rounded double,
// but only if doing so would not flip the sign of any of the given
// predicate checks (spec.md §4.1's rounding rule). checks is a list of
// thunks that re-evaluate a sign-bearing predicate using candidate in
// place of p's current exact value; Round succeeds only if every one of
// them returns the same sign before and after.
func (p Point) Round(checks ...func(candidate Rat3) bool) (Point, bool) {
	if p.IsRounded {
		return p, true
	}
	candidate := NewRat3(p.Rounded.X, p.Rounded.Y, p.Rounded.Z)
	for _, ok := range checks {
		if !ok(candidate) {
			return p, false
		}
	}
	return Point{Exact: candidate, Rounded: p.Rounded, IsRounded: true}, true
}
