package tetra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wedge3d/tetravol/bsp"
	"github.com/wedge3d/tetravol/geom"
	"github.com/wedge3d/tetravol/meshdata"
)

func unitTetComplex(surfaceTriID int) *bsp.Complex {
	m := meshdata.New()
	v := [4]int{
		m.AddVertex(geom.NewPoint(0, 0, 0)),
		m.AddVertex(geom.NewPoint(1, 0, 0)),
		m.AddVertex(geom.NewPoint(0, 1, 0)),
		m.AddVertex(geom.NewPoint(0, 0, 1)),
	}
	id := m.AddTet(v)
	if surfaceTriID >= 0 {
		// Facet 0 is (V[1],V[2],V[3]), the one facet opposite vertex 0;
		// vertex 0 is always this tet's pivot, so facet 0 is guaranteed to
		// survive into the output as the fan tet's opposite-pivot facet.
		m.Tets[id].FacetTags[0] = meshdata.SurfaceTag{Kind: meshdata.Surface, TriangleID: surfaceTriID}
	}
	c, _ := bsp.Build(m, nil)
	return c
}

func TestTetrahedralizeSingleCellProducesOneTet(t *testing.T) {
	c := unitTetComplex(-1)
	m := Tetrahedralize(c, Config{IsMeshClosed: true})
	require.Len(t, m.Tets, 1)
	assert.Equal(t, 4, len(m.Verts))
}

func TestTetrahedralizePropagatesSurfaceTag(t *testing.T) {
	c := unitTetComplex(7)
	m := Tetrahedralize(c, Config{IsMeshClosed: true})
	require.Len(t, m.Tets, 1)

	found := false
	for _, tag := range m.Tets[0].FacetTags {
		if tag.Kind == meshdata.Surface {
			found = true
			assert.Equal(t, 7, tag.TriangleID)
		}
	}
	assert.True(t, found, "the matched facet's surface tag must survive into the tet output")
}

func TestTetrahedralizeUnmatchedHullFaceGetsBBoxWhenClosed(t *testing.T) {
	c := unitTetComplex(-1)
	m := Tetrahedralize(c, Config{IsMeshClosed: true})
	counts := map[meshdata.FacetKind]int{}
	for _, tet := range m.Tets {
		for _, tag := range tet.FacetTags {
			counts[tag.Kind]++
		}
	}
	assert.Equal(t, 4, counts[meshdata.BBox], "every facet of an isolated single-cell mesh is a hull facet")
}

func TestTetrahedralizeUnmatchedHullFaceGetsBoundaryWhenOpen(t *testing.T) {
	c := unitTetComplex(-1)
	m := Tetrahedralize(c, Config{IsMeshClosed: false})
	counts := map[meshdata.FacetKind]int{}
	for _, tet := range m.Tets {
		for _, tag := range tet.FacetTags {
			counts[tag.Kind]++
		}
	}
	assert.Equal(t, 4, counts[meshdata.Boundary])
}

func TestTetrahedralizeProducesOnlyPositivelyOrientedTets(t *testing.T) {
	c := unitTetComplex(-1)
	m := Tetrahedralize(c, Config{IsMeshClosed: true})
	for _, tet := range m.Tets {
		a := m.Verts[tet.V[0]].Pos.Exact
		b := m.Verts[tet.V[1]].Pos.Exact
		cc := m.Verts[tet.V[2]].Pos.Exact
		d := m.Verts[tet.V[3]].Pos.Exact
		assert.Equal(t, geom.Positive, geom.Orient3D(a, b, cc, d))
	}
}
