package tetravol

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// unitTetrahedron is spec.md §8's S1 scenario input: the four vertices
// (0,0,0),(1,0,0),(0,1,0),(0,0,1) with outward-oriented triangles.
func unitTetrahedron() ([]r3.Vec, [][3]int) {
	v := []r3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1},
	}
	f := [][3]int{
		{0, 2, 1},
		{0, 1, 3},
		{0, 3, 2},
		{1, 2, 3},
	}
	return v, f
}

// unitCube is spec.md §8's S2 scenario input: an axis-aligned unit cube
// triangulated with 12 triangles, outward-oriented.
func unitCube() ([]r3.Vec, [][3]int) {
	v := []r3.Vec{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
	}
	f := [][3]int{
		{0, 3, 2}, {0, 2, 1}, // bottom z=0
		{4, 5, 6}, {4, 6, 7}, // top z=1
		{0, 1, 5}, {0, 5, 4}, // front y=0
		{3, 7, 6}, {3, 6, 2}, // back y=1
		{0, 4, 7}, {0, 7, 3}, // left x=0
		{1, 2, 6}, {1, 6, 5}, // right x=1
	}
	return v, f
}

// TestS1UnitTetrahedron checks spec.md §8's S1 expectations: 1 <= #TO <=
// 8, every min dihedral angle > 10 degrees, and every output vertex
// within 1e-3 of the input tetrahedron's own vertices.
func TestS1UnitTetrahedron(t *testing.T) {
	v, f := unitTetrahedron()
	cfg := DefaultConfig()
	cfg.EpsRel = 1000
	cfg.InitialEdgeLenRel = 20

	res, err := Tetrahedralize(context.Background(), v, f, cfg)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(res.TO), 1)
	require.LessOrEqual(t, len(res.TO), 8)

	minAngle := 10 * math.Pi / 180
	for i, a := range res.AO {
		assert.Greaterf(t, a, minAngle, "tet %d min dihedral angle %.4f rad below 10 degrees", i, a)
	}

	for _, p := range res.VO {
		best := math.Inf(1)
		for _, q := range v {
			d := r3.Norm(r3.Sub(p, q))
			if d < best {
				best = d
			}
		}
		assert.Lessf(t, best, 1e-3, "output vertex %v not within 1e-3 of the input tetrahedron", p)
	}
}

// TestS2UnitCube checks spec.md §8's S2 expectations: at least 5 output
// tets, output volume within [0.95, 1.0], and zero envelope violations
// (verified indirectly via a successful, non-warning return — refine's
// invariants forbid returning a mesh that violates the envelope).
func TestS2UnitCube(t *testing.T) {
	v, f := unitCube()
	cfg := DefaultConfig()

	res, err := Tetrahedralize(context.Background(), v, f, cfg)
	require.NoError(t, err)
	require.Nil(t, res.Warning)
	assert.GreaterOrEqual(t, len(res.TO), 5)

	vol := 0.0
	for _, tet := range res.TO {
		a, b, c, d := res.VO[tet[0]], res.VO[tet[1]], res.VO[tet[2]], res.VO[tet[3]]
		vol += math.Abs(r3.Dot(r3.Sub(b, a), r3.Cross(r3.Sub(c, a), r3.Sub(d, a)))) / 6
	}
	assert.GreaterOrEqual(t, vol, 0.95)
	assert.LessOrEqual(t, vol, 1.0001)
}

// TestB1SingleTriangle checks spec.md §8's B1 boundary behavior: a
// single triangle cannot bound any volume, so the pipeline must not
// crash and must return either a mesh of at most one tet or a structured
// EmptyInput error.
func TestB1SingleTriangle(t *testing.T) {
	v := []r3.Vec{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}}
	f := [][3]int{{0, 1, 2}}

	res, err := Tetrahedralize(context.Background(), v, f, DefaultConfig())
	if err != nil {
		var perr *Error
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, KindEmptyInput, perr.Kind)
		return
	}
	assert.LessOrEqual(t, len(res.TO), 1)
}

// TestS4BowtieNonManifold checks spec.md §8's S4 scenario: two triangles
// sharing a single vertex (non-manifold, no interior volume) must either
// report EmptyInput or return a near-zero-volume mesh, never crash or
// hang.
func TestS4BowtieNonManifold(t *testing.T) {
	v := []r3.Vec{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 0}, {X: -1, Y: 0, Z: 0}, {X: 0, Y: -1, Z: 0},
	}
	f := [][3]int{{0, 1, 2}, {3, 4, 5}}

	res, err := Tetrahedralize(context.Background(), v, f, DefaultConfig())
	if err != nil {
		var perr *Error
		require.ErrorAs(t, err, &perr)
		assert.Contains(t, []ErrorKind{KindEmptyInput, KindInputInvalid}, perr.Kind)
		return
	}
	assert.LessOrEqual(t, len(res.TO), 2)
}

func TestValidateInputRejectsNaN(t *testing.T) {
	v := []r3.Vec{{X: math.NaN(), Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 1}}
	f := [][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}}

	_, err := Tetrahedralize(context.Background(), v, f, DefaultConfig())
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, KindInputInvalid, perr.Kind)
}

func TestValidateInputRejectsEmptyFaces(t *testing.T) {
	v := []r3.Vec{{X: 0, Y: 0, Z: 0}}
	_, err := Tetrahedralize(context.Background(), v, nil, DefaultConfig())
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, KindInputInvalid, perr.Kind)
}

func TestProgressCallbackCoversAllSteps(t *testing.T) {
	v, f := unitTetrahedron()
	cfg := DefaultConfig()
	seen := map[Step]bool{}
	cfg.Progress = func(step Step, fraction float64) {
		seen[step] = true
		assert.GreaterOrEqual(t, fraction, 0.0)
		assert.LessOrEqual(t, fraction, 1.0)
	}

	_, err := Tetrahedralize(context.Background(), v, f, cfg)
	require.NoError(t, err)
	for _, s := range []Step{StepPreprocess, StepDelaunay, StepFaceMatching, StepBSP, StepTetra, StepOptimize} {
		assert.Truef(t, seen[s], "progress callback never reported step %s", s)
	}
}

func TestContextCancellationBeforeStart(t *testing.T) {
	v, f := unitTetrahedron()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Tetrahedralize(ctx, v, f, DefaultConfig())
	require.Error(t, err)
}
