package refine

import (
	"github.com/wedge3d/tetravol/envelope"
	"github.com/wedge3d/tetravol/geom"
	"github.com/wedge3d/tetravol/meshdata"
	"gonum.org/v1/gonum/spatial/r3"
)

// otherTwo returns the two vertices of tet v that are neither u nor w,
// in the tet's own facet order (so the orientation convention stays
// predictable to callers rebuilding the tet around a new edge).
func otherTwo(v [4]int, u, w int) (p, q int, ok bool) {
	var rest []int
	for _, vi := range v {
		if vi != u && vi != w {
			rest = append(rest, vi)
		}
	}
	if len(rest) != 2 {
		return 0, 0, false
	}
	return rest[0], rest[1], true
}

// addOrientedTet builds a tet from v, flipping the last two indices if
// needed so Orient3D is Positive (I1), and returns its new id with tags
// applied.
func addOrientedTet(m *meshdata.Mesh, v [4]int, tags [4]meshdata.SurfaceTag) int {
	a := m.Verts[v[0]].Pos.Exact
	b := m.Verts[v[1]].Pos.Exact
	c := m.Verts[v[2]].Pos.Exact
	d := m.Verts[v[3]].Pos.Exact
	if geom.Orient3D(a, b, c, d) != geom.Positive {
		v[2], v[3] = v[3], v[2]
		tags[2], tags[3] = tags[3], tags[2]
	}
	id := m.AddTet(v)
	m.Tets[id].FacetTags = tags
	return id
}

// isPositiveVolume reports whether tet v, using its vertices' current
// exact positions, satisfies I1.
func isPositiveVolume(m *meshdata.Mesh, v [4]int) bool {
	a := m.Verts[v[0]].Pos.Exact
	b := m.Verts[v[1]].Pos.Exact
	c := m.Verts[v[2]].Pos.Exact
	d := m.Verts[v[3]].Pos.Exact
	return geom.Orient3D(a, b, c, d) == geom.Positive
}

// tetEnergy returns the AMIPS energy of tet v at its current rounded
// positions, without touching the mesh's stored QualityRecord.
func tetEnergy(m *meshdata.Mesh, v [4]int) meshdata.Energy {
	a := m.VertPos(v[0])
	b := m.VertPos(v[1])
	c := m.VertPos(v[2])
	d := m.VertPos(v[3])
	return meshdata.AMIPSEnergy(a, b, c, d)
}

// maxEnergyOf returns the largest AMIPS energy among the given tets'
// current stored quality records.
func maxEnergyOf(m *meshdata.Mesh, ids []int) meshdata.Energy {
	max := meshdata.FiniteEnergy(0)
	for _, id := range ids {
		max = meshdata.MaxEnergy(max, m.Tets[id].Quality.SlimEnergy)
	}
	return max
}

// envelopeOKForFacet checks a (possibly new) surface facet against the
// active envelope at the current sampling density; facets that are not
// tagged Surface always pass (I2 is vacuous for them).
func envelopeOKForFacet(m *meshdata.Mesh, env *envelope.Envelope, tag meshdata.SurfaceTag, a, b, c int, samplingDist float64) bool {
	if env == nil || tag.Kind != meshdata.Surface {
		return true
	}
	return env.TriangleInside(m.VertPos(a), m.VertPos(b), m.VertPos(c), samplingDist)
}

func removeTets(m *meshdata.Mesh, ids []int) {
	for _, id := range ids {
		m.RemoveTet(id)
	}
}

// vecDist returns the Euclidean distance between two rounded positions.
func vecDist(a, b r3.Vec) float64 {
	d := r3.Sub(a, b)
	return r3.Norm(d)
}
