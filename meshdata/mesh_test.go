package meshdata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wedge3d/tetravol/geom"
)

func unitTet(m *Mesh) [4]int {
	return [4]int{
		m.AddVertex(geom.NewPoint(0, 0, 0)),
		m.AddVertex(geom.NewPoint(1, 0, 0)),
		m.AddVertex(geom.NewPoint(0, 1, 0)),
		m.AddVertex(geom.NewPoint(0, 0, 1)),
	}
}

func TestAddTetUpdatesIncidenceAndQuality(t *testing.T) {
	m := New()
	v := unitTet(m)
	id := m.AddTet(v)

	require.NoError(t, m.CheckTopology())
	assert.False(t, m.Tets[id].Quality.SlimEnergy.IsInf())
	assert.Greater(t, m.Tets[id].Quality.MinDihedral, 0.0)
	assert.Less(t, m.Tets[id].Quality.MaxDihedral, 3.1416)

	for _, vi := range v {
		_, ok := m.Verts[vi].Incident[id]
		assert.True(t, ok)
	}
}

func TestRecomputeQualityBatchMatchesPerTetRecompute(t *testing.T) {
	m := New()
	v := unitTet(m)
	id := m.AddTet(v)

	// Move a vertex without recomputing quality yet, so the tet's stale
	// QualityRecord still reflects the original unit tet.
	m.Verts[v[3]].Pos = geom.NewPoint(0, 0, 2)
	stale := m.Tets[id].Quality

	require.NoError(t, m.RecomputeQualityBatch(context.Background(), []int{id}))
	viaBatch := m.Tets[id].Quality
	assert.NotEqual(t, stale, viaBatch, "batch recompute must refresh the stale record")

	m.RecomputeQuality(id)
	assert.Equal(t, m.Tets[id].Quality, viaBatch, "batch and per-tet recompute must agree")
}

func TestDegenerateTetHasInfiniteEnergy(t *testing.T) {
	m := New()
	a := m.AddVertex(geom.NewPoint(0, 0, 0))
	b := m.AddVertex(geom.NewPoint(1, 0, 0))
	c := m.AddVertex(geom.NewPoint(2, 0, 0))
	d := m.AddVertex(geom.NewPoint(3, 0, 0))
	id := m.AddTet([4]int{a, b, c, d})
	assert.True(t, m.Tets[id].Quality.SlimEnergy.IsInf())
}

func TestRemoveTetTombstonesWithoutCompacting(t *testing.T) {
	m := New()
	v := unitTet(m)
	id := m.AddTet(v)
	m.RemoveTet(id)

	require.Len(t, m.Tets, 1, "tombstoning must not shrink the arena")
	assert.True(t, m.Tets[id].Removed)
	assert.Equal(t, 0, m.ActiveTetCount())
	for _, vi := range v {
		_, ok := m.Verts[vi].Incident[id]
		assert.False(t, ok)
	}
}

func TestCompactRemapsDenseIndices(t *testing.T) {
	m := New()
	v1 := unitTet(m)
	id1 := m.AddTet(v1)
	v2 := [4]int{
		m.AddVertex(geom.NewPoint(5, 5, 5)),
		m.AddVertex(geom.NewPoint(6, 5, 5)),
		m.AddVertex(geom.NewPoint(5, 6, 5)),
		m.AddVertex(geom.NewPoint(5, 5, 6)),
	}
	m.AddTet(v2)
	m.RemoveTet(id1)

	remap := m.Compact()
	assert.Equal(t, -1, remap[v1[0]])
	assert.Len(t, m.Tets, 1)
	assert.Len(t, m.Verts, 4)
	require.NoError(t, m.CheckTopology())
}

func TestCheckTopologyCatchesDuplicatePositions(t *testing.T) {
	m := New()
	m.AddVertex(geom.NewPoint(1, 1, 1))
	m.AddVertex(geom.NewPoint(1, 1, 1))
	assert.Error(t, m.CheckTopology())
}
