package delaunay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wedge3d/tetravol/geom"
)

func TestTetrahedralizeEmptyInputFails(t *testing.T) {
	_, err := Tetrahedralize(nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestTetrahedralizeTooFewPointsFails(t *testing.T) {
	pts := []geom.Point{geom.NewPoint(0, 0, 0), geom.NewPoint(1, 0, 0)}
	_, err := Tetrahedralize(pts)
	assert.Error(t, err)
}

func TestTetrahedralizeSingleTetReturnsOneTet(t *testing.T) {
	pts := []geom.Point{
		geom.NewPoint(0, 0, 0),
		geom.NewPoint(1, 0, 0),
		geom.NewPoint(0, 1, 0),
		geom.NewPoint(0, 0, 1),
	}
	m, err := Tetrahedralize(pts)
	require.NoError(t, err)
	require.Equal(t, 1, m.ActiveTetCount())
	require.NoError(t, m.CheckTopology())

	id := m.ActiveTetIDs()[0]
	tet := m.Tets[id]
	ori := geom.Orient3D(
		m.Verts[tet.V[0]].Pos.Exact,
		m.Verts[tet.V[1]].Pos.Exact,
		m.Verts[tet.V[2]].Pos.Exact,
		m.Verts[tet.V[3]].Pos.Exact,
	)
	assert.Equal(t, geom.Positive, ori, "I1: every returned tet must be positively oriented")
}

func TestTetrahedralizeCubeCornersProducesPositiveTetsOnly(t *testing.T) {
	pts := []geom.Point{
		geom.NewPoint(0, 0, 0),
		geom.NewPoint(1, 0, 0),
		geom.NewPoint(1, 1, 0),
		geom.NewPoint(0, 1, 0),
		geom.NewPoint(0, 0, 1),
		geom.NewPoint(1, 0, 1),
		geom.NewPoint(1, 1, 1),
		geom.NewPoint(0, 1, 1),
		geom.NewPoint(0.5, 0.5, 0.5),
	}
	m, err := Tetrahedralize(pts)
	require.NoError(t, err)
	require.Greater(t, m.ActiveTetCount(), 0)
	require.NoError(t, m.CheckTopology())

	for _, id := range m.ActiveTetIDs() {
		tet := m.Tets[id]
		ori := geom.Orient3D(
			m.Verts[tet.V[0]].Pos.Exact,
			m.Verts[tet.V[1]].Pos.Exact,
			m.Verts[tet.V[2]].Pos.Exact,
			m.Verts[tet.V[3]].Pos.Exact,
		)
		assert.Equal(t, geom.Positive, ori)
	}

	// Every input vertex must be referenced by at least one surviving
	// tet: nothing from the point set should be orphaned by the
	// super-tet cleanup pass.
	referenced := make([]bool, len(pts))
	for _, id := range m.ActiveTetIDs() {
		for _, vi := range m.Tets[id].V {
			referenced[vi] = true
		}
	}
	for i, ok := range referenced {
		assert.True(t, ok, "vertex %d never referenced by a tet", i)
	}
}

func TestInsideSignMatchesFacetPermutationParity(t *testing.T) {
	pts := []geom.Point{
		geom.NewPoint(0, 0, 0),
		geom.NewPoint(1, 0, 0),
		geom.NewPoint(0, 1, 0),
		geom.NewPoint(0, 0, 1),
	}
	tet := tetI{0, 1, 2, 3}
	require.Equal(t, geom.Positive, geom.Orient3D(pts[0].Exact, pts[1].Exact, pts[2].Exact, pts[3].Exact))

	for fi := 0; fi < 4; fi++ {
		fv := facetVerts(tet, fi)
		opposite := tet[fi] // facetVerts omits exactly index fi
		ori := geom.Orient3D(pts[fv[0]].Exact, pts[fv[1]].Exact, pts[fv[2]].Exact, pts[opposite].Exact)
		assert.Equal(t, insideSign(fi), ori, "facet %d", fi)
	}
}

func TestOtherTetReturnsNeighborOrBoundary(t *testing.T) {
	assert.Equal(t, 5, otherTet([]int{2, 5}, 2))
	assert.Equal(t, -1, otherTet([]int{2}, 2))
}

func TestSuperTetEnclosesAllPoints(t *testing.T) {
	pts := []geom.Point{
		geom.NewPoint(0, 0, 0),
		geom.NewPoint(10, 0, 0),
		geom.NewPoint(0, 10, 0),
		geom.NewPoint(0, 0, 10),
	}
	super := superTet(pts)
	cornerTet := tetI{0, 1, 2, 3}
	for _, p := range pts {
		var signs []geom.Sign
		for fi := 0; fi < 4; fi++ {
			fv := facetVerts(cornerTet, fi)
			ori := geom.Orient3D(super[fv[0]].Exact, super[fv[1]].Exact, super[fv[2]].Exact, p.Exact)
			signs = append(signs, ori)
		}
		// A point strictly inside a tetrahedron has the same-sign
		// barycentric coordinate against every opposite-vertex facet;
		// that sign equality is what confirms the super-tet actually
		// encloses p, regardless of the tet's own handedness.
		allSame := true
		for _, s := range signs {
			if s != signs[0] {
				allSame = false
			}
		}
		assert.True(t, allSame, "point should lie on a consistent side of every super-tet facet")
	}
}
