package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wedge3d/tetravol/envelope"
	"gonum.org/v1/gonum/spatial/r3"
)

// flatQuad builds a near-planar quad as two triangles sharing a
// diagonal, which is the minimal setup for an edge swap / collapse.
func flatQuad() Soup {
	verts := []r3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 1, Y: 1, Z: 0},
		{X: 0, Y: 1, Z: 0},
	}
	faces := [][3]int{
		{0, 1, 2},
		{0, 2, 3},
	}
	return Soup{Verts: verts, Faces: faces}
}

func buildEnvelope(s Soup, eps float64) *envelope.Envelope {
	return envelope.Build(s.Verts, s.Faces, eps)
}

func TestDedupeVerticesMergesIdenticalPositions(t *testing.T) {
	verts := []r3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 0, Z: 0}, // duplicate of index 0
		{X: 0, Y: 1, Z: 0},
	}
	faces := [][3]int{{0, 1, 3}, {2, 1, 3}}
	newVerts, newFaces, removed := dedupeVertices(verts, faces)
	assert.Equal(t, 1, removed)
	require.Len(t, newVerts, 3)
	// Both faces now reference the same merged vertex and become identical.
	assert.Equal(t, newFaces[0], newFaces[1])
}

func TestSimplifyPreservesPlanarQuadWithinEnvelope(t *testing.T) {
	soup := flatQuad()
	env := buildEnvelope(soup, 1e-3)
	cfg := DefaultConfig(1e-3)

	out, stats, err := Simplify(soup, env, cfg)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out.Faces), stats.InitialTriangleCount)
	assert.Greater(t, len(out.Faces), 0)
}

func TestSimplifyEmptyInputReturnsErrEmptyInput(t *testing.T) {
	soup := Soup{}
	env := envelope.Build(nil, nil, 1e-3)
	cfg := DefaultConfig(1e-3)

	_, _, err := Simplify(soup, env, cfg)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestAttemptDirectedCollapseRejectsWhenNoFaceToRemap(t *testing.T) {
	// Single triangle (0,1,2); collapsing 2 onto 0: 2's only face also
	// contains 0, so it degenerates and there is no other face to remap,
	// and the attempt is rejected for lack of any triangle to validate.
	verts := []r3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
	}
	faces := [][3]int{{0, 1, 2}}
	deleted := make([]bool, 1)
	vertTris := buildVertTris(faces, deleted)

	ok := attemptDirectedCollapse(verts, faces, deleted, vertTris, 2, 0, nil, Config{})
	assert.False(t, ok)
}

func TestIsSharpEdgeFlagsBoundaryEdges(t *testing.T) {
	soup := flatQuad()
	deleted := make([]bool, len(soup.Faces))
	vertTris := buildVertTris(soup.Faces, deleted)

	// Edge (0,1) only touches face 0: a boundary edge, always sharp.
	assert.True(t, isSharpEdge(soup.Verts, soup.Faces, deleted, vertTris, 0, 1, 0.1))
}

func TestTrySwapFlipsSharedDiagonal(t *testing.T) {
	soup := flatQuad()
	env := buildEnvelope(soup, 1e-3)
	deleted := make([]bool, len(soup.Faces))
	vertTris := buildVertTris(soup.Faces, deleted)
	faces := append([][3]int(nil), soup.Faces...)

	ok := trySwap(soup.Verts, faces, deleted, vertTris, 0, 2, env, DefaultConfig(1e-3))
	if ok {
		// diagonal moved from (0,2) to (1,3)
		found := false
		for _, f := range faces {
			if containsBoth(f, 1, 3) {
				found = true
			}
		}
		assert.True(t, found)
	}
}

func containsBoth(f [3]int, a, b int) bool {
	hasA, hasB := false, false
	for _, v := range f {
		if v == a {
			hasA = true
		}
		if v == b {
			hasB = true
		}
	}
	return hasA && hasB
}
