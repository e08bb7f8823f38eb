package conform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wedge3d/tetravol/geom"
	"github.com/wedge3d/tetravol/meshdata"
)

func unitTetMesh() (*meshdata.Mesh, [4]int) {
	m := meshdata.New()
	v := [4]int{
		m.AddVertex(geom.NewPoint(0, 0, 0)),
		m.AddVertex(geom.NewPoint(1, 0, 0)),
		m.AddVertex(geom.NewPoint(0, 1, 0)),
		m.AddVertex(geom.NewPoint(0, 0, 1)),
	}
	m.AddTet(v)
	return m, v
}

func TestConformMatchesCoincidentFacet(t *testing.T) {
	m, v := unitTetMesh()
	// facet 3 of the single tet is (V[0],V[1],V[2]), the base z=0 face.
	soup := Soup{
		Verts: []geom.Point{m.Verts[v[0]].Pos, m.Verts[v[1]].Pos, m.Verts[v[2]].Pos},
		Faces: [][3]int{{0, 1, 2}},
	}
	result := Conform(m, soup)
	assert.Equal(t, 1, result.MatchedFacets)
	assert.Empty(t, result.Cutters)

	id := m.ActiveTetIDs()[0]
	assert.Equal(t, meshdata.Surface, m.Tets[id].FacetTags[3].Kind)
	assert.Equal(t, 0, m.Tets[id].FacetTags[3].TriangleID)
}

func TestConformReportsCutterForUncoveredTriangle(t *testing.T) {
	m, _ := unitTetMesh()
	// A triangle that cuts diagonally through the tet's interior, matching
	// no existing facet.
	soup := Soup{
		Verts: []geom.Point{
			geom.NewPoint(0.5, 0, 0),
			geom.NewPoint(0, 0.5, 0),
			geom.NewPoint(0, 0, 0.5),
		},
		Faces: [][3]int{{0, 1, 2}},
	}
	result := Conform(m, soup)
	assert.Equal(t, 0, result.MatchedFacets)
	require.Len(t, result.Cutters, 1)
	assert.Equal(t, 0, result.Cutters[0].TriIdx)
}

func TestNewFaceKeyIsWindingIndependent(t *testing.T) {
	assert.Equal(t, NewFaceKey([3]int{1, 2, 3}), NewFaceKey([3]int{3, 1, 2}))
	assert.NotEqual(t, NewFaceKey([3]int{1, 2, 3}), NewFaceKey([3]int{1, 2, 4}))
}

func TestFacetMatchesTriangleRejectsNonCoplanarFacet(t *testing.T) {
	m, v := unitTetMesh()
	facetVerts := m.Tets[0].FacetVerts(0) // (V[1],V[2],V[3]), the slanted face
	_ = v
	// Test against the base plane (z=0): the slanted facet is not
	// coplanar with it.
	a := geom.NewRat3(0, 0, 0)
	b := geom.NewRat3(1, 0, 0)
	c := geom.NewRat3(0, 1, 0)
	assert.False(t, facetMatchesTriangle(m, facetVerts, a, b, c))
}
