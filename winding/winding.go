// Package winding implements spec.md §4.9's inside/outside filter: the
// generalized winding number of the input triangle soup, evaluated at
// each tet barycenter, decides which tets of the ambient mesh survive.
package winding

import (
	"context"
	"math"

	"github.com/wedge3d/tetravol/internal/workpool"
	"github.com/wedge3d/tetravol/meshdata"
	"gonum.org/v1/gonum/spatial/r3"
)

// InsideThreshold is spec.md §4.9's cutoff: a tet barycenter with winding
// number greater than this is inside.
const InsideThreshold = 0.5

// Stats summarizes one Filter call for progress reporting.
type Stats struct {
	TetsConsidered int
	TetsKept       int
	MinWinding     float64
	MaxWinding     float64
}

// solidAngle returns the signed solid angle subtended by triangle
// (a,b,c) as seen from p, using the Van Oosterom & Strackee (1983)
// tangent formula. The result is in [-2*pi, 2*pi]; summed over a closed
// surface and divided by 4*pi it gives the generalized winding number.
func solidAngle(p, a, b, c r3.Vec) float64 {
	da := r3.Sub(a, p)
	db := r3.Sub(b, p)
	dc := r3.Sub(c, p)

	la, lb, lc := r3.Norm(da), r3.Norm(db), r3.Norm(dc)
	if la == 0 || lb == 0 || lc == 0 {
		// p coincides with a triangle corner; undefined but harmless to
		// treat as contributing nothing (the barycenter of a non-degenerate
		// tet never lands exactly on an input vertex in practice).
		return 0
	}

	numerator := r3.Dot(da, r3.Cross(db, dc))
	denominator := la*lb*lc +
		r3.Dot(da, db)*lc +
		r3.Dot(db, dc)*la +
		r3.Dot(dc, da)*lb

	return 2 * math.Atan2(numerator, denominator)
}

// Number returns the generalized winding number of the triangle soup
// (verts, faces) at point p: the sum of each face's solid angle,
// normalized by 4*pi (spec.md §4.9, glossary "Generalized winding
// number").
func Number(verts []r3.Vec, faces [][3]int, p r3.Vec) float64 {
	sum := 0.0
	for _, f := range faces {
		sum += solidAngle(p, verts[f[0]], verts[f[1]], verts[f[2]])
	}
	return sum / (4 * math.Pi)
}

// barycenter returns the centroid of tet v's four rounded positions.
func barycenter(m *meshdata.Mesh, v [4]int) r3.Vec {
	sum := r3.Add(r3.Add(m.VertPos(v[0]), m.VertPos(v[1])), r3.Add(m.VertPos(v[2]), m.VertPos(v[3])))
	return r3.Scale(0.25, sum)
}

// Filter removes every active tet of m whose barycenter's winding
// number against (verts, faces) is not greater than InsideThreshold,
// then compacts the mesh (spec.md §4.9: "Output vertex set is the
// vertices referenced by surviving tets, remapped to a dense index
// range"). Per-tet winding evaluation is read-only and independent
// across tets, so it fans out across workpool.Each the same way
// meshdata.RecomputeQualityBatch does; only the final removal/compact
// pass mutates the mesh, and that happens serially afterward.
func Filter(ctx context.Context, m *meshdata.Mesh, verts []r3.Vec, faces [][3]int) (Stats, error) {
	ids := m.ActiveTetIDs()
	windings := make([]float64, len(ids))

	err := workpool.Each(ctx, 0, len(ids), func(_ context.Context, i int) error {
		id := ids[i]
		w := Number(verts, faces, barycenter(m, m.Tets[id].V))
		windings[i] = w
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{TetsConsidered: len(ids), MinWinding: math.Inf(1), MaxWinding: math.Inf(-1)}

	for i, id := range ids {
		w := windings[i]
		if w < stats.MinWinding {
			stats.MinWinding = w
		}
		if w > stats.MaxWinding {
			stats.MaxWinding = w
		}
		if w <= InsideThreshold {
			m.RemoveTet(id)
		} else {
			stats.TetsKept++
		}
	}

	m.Compact()
	return stats, nil
}

// Idempotent reports whether filtering m again would leave it unchanged
// (spec.md §E's P5): true when every active tet's winding number already
// exceeds InsideThreshold, false as soon as one tet would be removed.
func Idempotent(m *meshdata.Mesh, verts []r3.Vec, faces [][3]int) bool {
	for _, id := range m.ActiveTetIDs() {
		if Number(verts, faces, barycenter(m, m.Tets[id].V)) <= InsideThreshold {
			return false
		}
	}
	return true
}
