// Package envelope implements the Hausdorff-envelope containment
// predicate (spec.md §4.2): given the input triangle soup and a
// tolerance eps, decide whether a point or triangle lies within eps of
// the input surface.
package envelope

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/wedge3d/tetravol/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// indexedTriangle is the rtreego.Spatial wrapper around one input
// triangle. It keeps the original triangle id so callers can recover
// which input facet a query matched.
type indexedTriangle struct {
	ID      int
	A, B, C r3.Vec
}

func (t *indexedTriangle) Bounds() rtreego.Rect {
	box := geom.EmptyBox3().Extend(t.A).Extend(t.B).Extend(t.C)
	return boxToRect(box)
}

const minRectSize = 1e-9

func boxToRect(b geom.Box3) rtreego.Rect {
	lengths := []float64{
		math.Max(b.Max.X-b.Min.X, minRectSize),
		math.Max(b.Max.Y-b.Min.Y, minRectSize),
		math.Max(b.Max.Z-b.Min.Z, minRectSize),
	}
	p := rtreego.Point{b.Min.X, b.Min.Y, b.Min.Z}
	r, err := rtreego.NewRect(p, lengths)
	if err != nil {
		// Only reachable if a length ended up <= 0 despite the Max above,
		// which would mean b itself is malformed (NaN). Fall back to a
		// minimal cube so the tree never panics on bad input.
		r, _ = rtreego.NewRect(p, []float64{minRectSize, minRectSize, minRectSize})
	}
	return r
}

// Envelope is the AABB-tree-backed spatial index used by Inside and
// TriangleInside. The tree is built once (spec.md §4.2: "AABB tree
// rebuilt once after preprocess") over the given triangle set; only Eps
// changes between calls as the refinement engine ramps its sub-stages
// (spec.md §4.8).
type Envelope struct {
	tree *rtreego.Rtree
	tris []indexedTriangle
	Eps  float64
}

// Build indexes faces (triangles referencing verts) into a fresh
// Envelope with tolerance eps.
func Build(verts []r3.Vec, faces [][3]int, eps float64) *Envelope {
	e := &Envelope{
		tree: rtreego.NewTree(3, 8, 25),
		tris: make([]indexedTriangle, len(faces)),
		Eps:  eps,
	}
	for i, f := range faces {
		e.tris[i] = indexedTriangle{ID: i, A: verts[f[0]], B: verts[f[1]], C: verts[f[2]]}
	}
	for i := range e.tris {
		e.tree.Insert(&e.tris[i])
	}
	return e
}

// SetEps updates the tolerance used by subsequent Inside/TriangleInside
// calls without touching the spatial index, which is what the refinement
// engine's eps-ramping sub-stages do (spec.md §4.8).
func (e *Envelope) SetEps(eps float64) {
	e.Eps = eps
}

// Dist2 returns the squared distance from p to the closest point of the
// indexed surface.
func (e *Envelope) Dist2(p r3.Vec) float64 {
	query := geom.Box3{Min: p, Max: p}.Inflate(e.Eps)
	candidates := e.tree.SearchIntersect(boxToRect(query))
	best := math.Inf(1)
	for _, c := range candidates {
		tri := c.(*indexedTriangle)
		d2 := geom.Dist2PointTriangle(p, tri.A, tri.B, tri.C)
		if d2 < best {
			best = d2
		}
	}
	return best
}

// Inside reports whether p lies within Eps of the indexed surface.
// Monotone in Eps by construction: raising Eps only enlarges the query
// box and the acceptance threshold, so a point already inside stays
// inside (spec.md §4.2).
func (e *Envelope) Inside(p r3.Vec) bool {
	return e.Dist2(p) <= e.Eps*e.Eps
}

// ClosestPoint returns the nearest point on the indexed surface to p,
// widening the search box until at least one candidate triangle is
// found (the initial Eps-sized box can miss everything when p has
// drifted far from the surface mid-refinement).
func (e *Envelope) ClosestPoint(p r3.Vec) r3.Vec {
	radius := e.Eps
	if radius <= 0 {
		radius = 1e-6
	}
	var best r3.Vec
	bestD2 := math.Inf(1)
	for tries := 0; tries < 8; tries++ {
		query := geom.Box3{Min: p, Max: p}.Inflate(radius)
		candidates := e.tree.SearchIntersect(boxToRect(query))
		for _, c := range candidates {
			tri := c.(*indexedTriangle)
			cp := geom.ClosestPointOnTriangle(p, tri.A, tri.B, tri.C)
			d2 := geom.Dist2PointTriangle(p, tri.A, tri.B, tri.C)
			if d2 < bestD2 {
				bestD2 = d2
				best = cp
			}
		}
		if len(candidates) > 0 {
			break
		}
		radius *= 4
	}
	if math.IsInf(bestD2, 1) {
		return p
	}
	return best
}

// DefaultSamplingDist returns the stratified-sampling density spec.md
// §4.2 specifies as the default, d_k = eps/sqrt(2).
func DefaultSamplingDist(eps float64) float64 {
	return eps / math.Sqrt2
}

// TriangleInside reports whether every stratified sample of triangle
// (a,b,c), at sampling density d, lies within the envelope.
func (e *Envelope) TriangleInside(a, b, c r3.Vec, d float64) bool {
	if d <= 0 {
		d = DefaultSamplingDist(e.Eps)
	}
	for _, s := range geom.SampleTriangle(a, b, c, d) {
		if !e.Inside(s) {
			return false
		}
	}
	return true
}

// CoverageFraction reports the fraction of triangle (a,b,c)'s stratified
// samples that pass Inside, for progress reporting (SPEC_FULL.md §A).
func (e *Envelope) CoverageFraction(a, b, c r3.Vec, d float64) float64 {
	if d <= 0 {
		d = DefaultSamplingDist(e.Eps)
	}
	samples := geom.SampleTriangle(a, b, c, d)
	if len(samples) == 0 {
		return 1
	}
	inside := 0
	for _, s := range samples {
		if e.Inside(s) {
			inside++
		}
	}
	return float64(inside) / float64(len(samples))
}
