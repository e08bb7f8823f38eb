package bsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wedge3d/tetravol/conform"
	"github.com/wedge3d/tetravol/geom"
	"github.com/wedge3d/tetravol/meshdata"
)

func unitTetMesh() *meshdata.Mesh {
	m := meshdata.New()
	v := [4]int{
		m.AddVertex(geom.NewPoint(0, 0, 0)),
		m.AddVertex(geom.NewPoint(1, 0, 0)),
		m.AddVertex(geom.NewPoint(0, 1, 0)),
		m.AddVertex(geom.NewPoint(0, 0, 1)),
	}
	m.AddTet(v)
	return m
}

func TestBuildWithNoCuttersKeepsOneNodePerTet(t *testing.T) {
	m := unitTetMesh()
	c, stats := Build(m, nil)
	require.Len(t, c.Nodes, 1)
	assert.Len(t, c.Nodes[0].Faces, 4)
	assert.Equal(t, 1, stats.InitialCells)
	assert.Equal(t, 1, stats.NodesCreated)
	assert.Equal(t, 0, stats.CutsPerformed)
}

func TestBuildSplitsNodeCrossedByCutterPlane(t *testing.T) {
	m := unitTetMesh()
	// A plane through (0.5,0,0),(0,0.5,0),(0,0,0.5) crosses the unit tet
	// interior, separating vertex (0,0,0) from the other three.
	cutter := conform.Cutter{
		TriIdx: 0,
		A:      geom.NewRat3(0.5, 0, 0),
		B:      geom.NewRat3(0, 0.5, 0),
		C:      geom.NewRat3(0, 0, 0.5),
	}
	c, stats := Build(m, []conform.Cutter{cutter})

	activeCount := 0
	for _, n := range c.Nodes {
		if !n.Removed {
			activeCount++
		}
	}
	assert.Equal(t, 2, activeCount, "splitting the one crossed node must leave exactly two live children")
	assert.Equal(t, 1, stats.CutsPerformed)
}

func TestNewFaceKeyIsWindingIndependent(t *testing.T) {
	assert.Equal(t, NewFaceKey([]int{1, 2, 3}), NewFaceKey([]int{3, 1, 2}))
	assert.NotEqual(t, NewFaceKey([]int{1, 2, 3}), NewFaceKey([]int{1, 2, 4}))
}

func TestPlaneCrossesNodeDetectsSeparation(t *testing.T) {
	m := unitTetMesh()
	c := &Complex{Verts: append([]geom.Point(nil), m.Verts...)}
	t0 := m.Tets[0]
	var faceIDs []int
	for fi := 0; fi < 4; fi++ {
		fv := t0.FacetVerts(fi)
		faceIDs = append(faceIDs, len(c.Faces))
		c.Faces = append(c.Faces, Face{Loop: []int{fv[0], fv[1], fv[2]}, Nodes: [2]int{0, -1}, SurfaceTriangleID: -1})
	}
	c.Nodes = append(c.Nodes, Node{Faces: faceIDs})

	crossing := planeCrossesNode(c, 0, geom.NewRat3(0.5, 0, 0), geom.NewRat3(0, 0.5, 0), geom.NewRat3(0, 0, 0.5))
	assert.True(t, crossing)

	farAway := planeCrossesNode(c, 0, geom.NewRat3(10, 10, 10), geom.NewRat3(11, 10, 10), geom.NewRat3(10, 11, 10))
	assert.False(t, farAway)
}
