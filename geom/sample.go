package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// SampleTriangle returns a stratified sample of triangle (a,b,c) at
// (approximately) density d: the three vertices, points along each edge
// spaced at d, and a barycentric interior grid at the same spacing. This
// is the sampler envelope.TriangleInside uses (spec.md §4.2).
func SampleTriangle(a, b, c r3.Vec, d float64) []r3.Vec {
	if d <= 0 {
		return []r3.Vec{a, b, c}
	}

	pts := make([]r3.Vec, 0, 16)
	pts = append(pts, a, b, c)

	edges := [3][2]r3.Vec{{a, b}, {b, c}, {c, a}}
	for _, e := range edges {
		length := r3.Norm(r3.Sub(e[1], e[0]))
		n := int(math.Ceil(length / d))
		for i := 1; i < n; i++ {
			t := float64(i) / float64(n)
			pts = append(pts, r3.Add(e[0], r3.Scale(t, r3.Sub(e[1], e[0]))))
		}
	}

	// Interior samples on a barycentric lattice with the same spacing as
	// the edges, skipping the boundary (already sampled above).
	ab := r3.Sub(b, a)
	ac := r3.Sub(c, a)
	longest := math.Max(r3.Norm(ab), r3.Norm(ac))
	n := int(math.Ceil(longest / d))
	if n < 2 {
		return pts
	}
	for i := 1; i < n; i++ {
		for j := 1; j < n-i; j++ {
			u := float64(i) / float64(n)
			v := float64(j) / float64(n)
			p := r3.Add(a, r3.Add(r3.Scale(u, ab), r3.Scale(v, ac)))
			pts = append(pts, p)
		}
	}
	return pts
}
