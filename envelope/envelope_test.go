package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func unitTriangleSoup() ([]r3.Vec, [][3]int) {
	verts := []r3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
	}
	faces := [][3]int{{0, 1, 2}}
	return verts, faces
}

func TestEnvelopeInsideMonotoneInEps(t *testing.T) {
	verts, faces := unitTriangleSoup()
	e := Build(verts, faces, 0.01)

	p := r3.Vec{X: 0.25, Y: 0.25, Z: 0.05}
	require.False(t, e.Inside(p), "point is 0.05 above the plane, outside a 0.01 envelope")

	e.SetEps(0.1)
	assert.True(t, e.Inside(p), "raising eps must bring the same point inside (monotonicity)")
}

func TestEnvelopeOnSurfaceAlwaysInside(t *testing.T) {
	verts, faces := unitTriangleSoup()
	e := Build(verts, faces, 1e-6)
	onSurface := r3.Vec{X: 0.25, Y: 0.25, Z: 0}
	assert.True(t, e.Inside(onSurface))
}

func TestTriangleInsideRequiresAllSamples(t *testing.T) {
	verts, faces := unitTriangleSoup()
	e := Build(verts, faces, 0.2)

	coplanar := e.TriangleInside(
		r3.Vec{X: 0, Y: 0, Z: 0},
		r3.Vec{X: 1, Y: 0, Z: 0},
		r3.Vec{X: 0, Y: 1, Z: 0},
		DefaultSamplingDist(0.2),
	)
	assert.True(t, coplanar)

	liftedOut := e.TriangleInside(
		r3.Vec{X: 0, Y: 0, Z: 1},
		r3.Vec{X: 1, Y: 0, Z: 1},
		r3.Vec{X: 0, Y: 1, Z: 1},
		DefaultSamplingDist(0.2),
	)
	assert.False(t, liftedOut)
}

func TestCoverageFractionPartial(t *testing.T) {
	verts, faces := unitTriangleSoup()
	e := Build(verts, faces, 0.02)
	frac := e.CoverageFraction(
		r3.Vec{X: 0, Y: 0, Z: 0},
		r3.Vec{X: 1, Y: 0, Z: 0},
		r3.Vec{X: 0, Y: 1, Z: 0.5},
		DefaultSamplingDist(0.02),
	)
	assert.Greater(t, frac, 0.0)
	assert.Less(t, frac, 1.0)
}
