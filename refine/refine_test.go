package refine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wedge3d/tetravol/geom"
	"github.com/wedge3d/tetravol/meshdata"
)

// bipyramid builds a two-tet mesh sharing facet (A,B,C): apex D above
// the plane, apex E below it. This is the minimal setup exercising
// SPLIT/COLLAPSE on the shared edges and a 2-3 SWAP on the shared
// facet.
func bipyramid() *meshdata.Mesh {
	m := meshdata.New()
	a := m.AddVertex(geom.NewPoint(0, 0, 0))
	b := m.AddVertex(geom.NewPoint(2, 0, 0))
	c := m.AddVertex(geom.NewPoint(0, 2, 0))
	d := m.AddVertex(geom.NewPoint(0.3, 0.3, 1))
	e := m.AddVertex(geom.NewPoint(0.3, 0.3, -1))

	addOrientedTet(m, [4]int{a, b, c, d}, [4]meshdata.SurfaceTag{})
	addOrientedTet(m, [4]int{a, b, c, e}, [4]meshdata.SurfaceTag{})
	return m
}

func defaultState() *State {
	return NewState(1e-3, 1.0, 10, true, 5, 1)
}

func TestTrySplitInsertsMidpoint(t *testing.T) {
	m := bipyramid()
	st := defaultState()

	edges := collectEdges(m)
	var abEdge Edge
	found := false
	for _, e := range edges {
		if len(e.TetIDs) == 2 {
			abEdge = e
			found = true
			break
		}
	}
	require.True(t, found, "expected a shared edge between both tets")

	before := m.ActiveTetCount()
	ok := trySplit(m, nil, st, abEdge)
	if ok {
		assert.Greater(t, m.ActiveTetCount(), before)
		require.NoError(t, m.CheckTopology())
		for _, id := range m.ActiveTetIDs() {
			assert.False(t, m.Tets[id].Quality.SlimEnergy.IsInf(), "split must not invert a tet")
		}
	}
}

func TestTryCollapseOnEveryEdgeKeepsTopology(t *testing.T) {
	m := bipyramid()
	st := defaultState()

	// Attempt a collapse on every edge of the bipyramid; whether each
	// attempt is accepted or rejected, the mesh must stay topologically
	// valid.
	edges := collectEdges(m)
	for _, e := range edges {
		tryCollapse(m, nil, st, DefaultConfig(), e)
	}
	assert.NoError(t, m.CheckTopology())
}

func TestTrySwapFaceOnSharedFacet(t *testing.T) {
	m := bipyramid()
	st := defaultState()
	cfg := DefaultConfig()

	shares := internalFacetShares(m)
	require.Len(t, shares, 1, "the bipyramid has exactly one internal shared facet")

	before := m.ActiveTetCount()
	ok := trySwapFace(m, nil, st, cfg, shares[0])
	if ok {
		assert.Equal(t, before+1, m.ActiveTetCount())
		require.NoError(t, m.CheckTopology())
		for _, id := range m.ActiveTetIDs() {
			assert.False(t, m.Tets[id].Quality.SlimEnergy.IsInf())
		}
	}
}

func TestTrySmoothDoesNotInvertOneRing(t *testing.T) {
	m := bipyramid()
	st := defaultState()
	cfg := DefaultConfig()

	for v := range m.Verts {
		trySmooth(m, nil, st, cfg, v)
	}
	require.NoError(t, m.CheckTopology())
	for _, t2 := range m.Tets {
		if t2.Removed {
			continue
		}
		assert.False(t, t2.Quality.SlimEnergy.IsInf())
	}
}

func TestEngineRunConvergesOrReportsPassLimit(t *testing.T) {
	m := bipyramid()
	st := defaultState()
	cfg := DefaultConfig()
	cfg.MaxNumPasses = 10

	e := NewEngine(m, nil, st, cfg)
	reports, err := e.Run(context.Background())
	require.NotEmpty(t, reports)
	if err != nil {
		assert.ErrorIs(t, err, ErrPassLimitExceeded)
	}
	assert.NoError(t, m.CheckTopology())
}

func TestEngineRunRespectsContextCancellation(t *testing.T) {
	m := bipyramid()
	st := defaultState()
	cfg := DefaultConfig()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewEngine(m, nil, st, cfg)
	reports, err := e.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, reports)
}

func TestStateAdvanceRampsEpsTowardInput(t *testing.T) {
	st := NewState(1.0, 1.0, 10, true, 4, 1)
	assert.Equal(t, 1.0, st.Eps)
	st.Advance()
	assert.InDelta(t, 1.0, st.Eps, 1e-9)

	st2 := NewState(1.0, 1.0, 10, true, 4, 4)
	assert.InDelta(t, 0.25, st2.Eps, 1e-9)
	st2.Advance()
	assert.InDelta(t, 0.5, st2.Eps, 1e-9)
	for i := 0; i < 10; i++ {
		st2.Advance()
	}
	assert.Equal(t, 1.0, st2.Eps)
}

func TestShrinkTargetScalesDown(t *testing.T) {
	st := NewState(1e-3, 1.0, 10, true, 5, 1)
	st.ShrinkTarget(0, 0.5)
	assert.InDelta(t, 0.5, st.TargetLength(0), 1e-9)
	assert.InDelta(t, 1.0, st.TargetLength(1), 1e-9)
}

func TestBackgroundSizingCapsTargetLength(t *testing.T) {
	st := NewState(1e-3, 1.0, 10, true, 5, 1)
	positions := map[int][3]float64{0: {0, 0, 0}, 1: {5, 5, 5}}
	st.SetBackgroundSizing(
		func(p [3]float64) float64 {
			if p == [3]float64{5, 5, 5} {
				return 0.1
			}
			return 10
		},
		func(v int) [3]float64 { return positions[v] },
	)
	assert.InDelta(t, 1.0, st.TargetLength(0), 1e-9, "sizing above InitialEdgeLen must not raise it")
	assert.InDelta(t, 0.1, st.TargetLength(1), 1e-9, "sizing below InitialEdgeLen caps it")
}

func TestStalledScalarNudgesTowardTargetNumVertices(t *testing.T) {
	m := bipyramid()
	e := &Engine{Mesh: m, Config: Config{AdaptiveScalar: 0.6, TargetNumVertices: -1}}
	assert.Equal(t, 0.6, e.stalledScalar(), "no target set leaves the scalar untouched")

	e.Config.TargetNumVertices = 100
	assert.InDelta(t, 0.3, e.stalledScalar(), 1e-9, "mesh under target shrinks targets more aggressively")

	e.Config.TargetNumVertices = 1
	assert.InDelta(t, 0.8, e.stalledScalar(), 1e-9, "mesh over target eases off toward 1")
}
