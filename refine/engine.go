// Package refine implements spec.md §4.8's mesh refinement engine: the
// SPLIT/COLLAPSE/SWAP/SMOOTH local operations and the pass loop that
// drives them toward a target AMIPS energy, threading an explicit
// *State through every stage instead of relying on process-wide mutable
// state (spec.md §9).
package refine

import (
	"context"
	"errors"
	"sort"

	"github.com/wedge3d/tetravol/envelope"
	"github.com/wedge3d/tetravol/meshdata"
	"gonum.org/v1/gonum/floats"
)

// ErrPassLimitExceeded is returned when Run exhausts cfg.MaxNumPasses
// without converging (spec.md §6's PassLimitExceeded exit condition).
// The engine's Mesh still holds the best-so-far state; Run's caller may
// inspect it and retry with a larger stage, as spec.md §E's S5 scenario
// does.
var ErrPassLimitExceeded = errors.New("refine: pass limit exceeded")

// ErrEnvelopeInfeasible is returned when a stalled pass made zero
// accepted operations while State.Eps had already reached EpsInput, so
// the eps ramp has no further step to offer (spec.md §6's
// EnvelopeInfeasible exit condition). The mesh is not re-checked
// against I2 at that point.
var ErrEnvelopeInfeasible = errors.New("refine: envelope infeasible at minimum eps")

// PassReport summarizes one pass of the engine for progress reporting
// (SPEC_FULL.md §A's ProgressFunc).
type PassReport struct {
	Pass       int
	Splits     int
	Collapses  int
	Swaps      int
	Smooths    int
	MaxEnergy  float64
	AvgEnergy  float64
	Eps        float64
	Stalled    bool
	BestEffort bool
}

// Engine drives the pass loop over a single shared Mesh.
type Engine struct {
	Mesh   *meshdata.Mesh
	Env    *envelope.Envelope
	State  *State
	Config Config

	// OnPass, if set, is called after every completed pass (SPEC_FULL.md
	// §A's progress-callback convention).
	OnPass func(PassReport)
}

// NewEngine builds an Engine over an existing mesh, envelope, and
// refinement state.
func NewEngine(m *meshdata.Mesh, env *envelope.Envelope, st *State, cfg Config) *Engine {
	if cfg.BackgroundSizing != nil {
		st.SetBackgroundSizing(cfg.BackgroundSizing, func(v int) [3]float64 {
			p := m.VertPos(v)
			return [3]float64{p.X, p.Y, p.Z}
		})
	}
	return &Engine{Mesh: m, Env: env, State: st, Config: cfg}
}

// Run executes up to cfg.MaxNumPasses passes of {SPLIT, COLLAPSE, SWAP,
// SMOOTH}, returning once the mesh converges (spec.md §4.8's termination
// rule), the context is cancelled at a pass boundary, or the pass budget
// is exhausted. Cancellation is checked only between passes, never
// mid-operation (spec.md §5: "a running pass is never interrupted
// mid-operation to preserve invariants").
func (e *Engine) Run(ctx context.Context) ([]PassReport, error) {
	var reports []PassReport
	prevMax, prevAvg := e.energyStats()

	for pass := 1; pass <= e.Config.MaxNumPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return reports, err
		}

		report, err := e.runPass(ctx, pass)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
		if e.OnPass != nil {
			e.OnPass(report)
		}

		if report.MaxEnergy < e.Config.FilterEnergyThres {
			return reports, nil
		}

		deltaMax := absFloat(prevMax - report.MaxEnergy)
		deltaAvg := absFloat(prevAvg - report.AvgEnergy)
		if deltaMax < e.Config.DeltaEnergyThres && deltaAvg < e.Config.DeltaEnergyThres {
			reports[len(reports)-1].Stalled = true
			if report.Splits+report.Collapses+report.Swaps+report.Smooths == 0 && e.State.Eps >= e.State.EpsInput {
				return reports, ErrEnvelopeInfeasible
			}
			e.resizeStalledTargets()
			e.State.Advance()
		}
		prevMax, prevAvg = report.MaxEnergy, report.AvgEnergy
	}

	reports[len(reports)-1].BestEffort = true
	return reports, ErrPassLimitExceeded
}

// runPass applies one {SPLIT, COLLAPSE, SWAP, SMOOTH} sweep and reports
// what it did, plus the resulting energy statistics.
func (e *Engine) runPass(ctx context.Context, pass int) (PassReport, error) {
	report := PassReport{Pass: pass, Eps: e.State.Eps}

	edges := collectEdges(e.Mesh)
	sortByLengthDesc(e.Mesh, edges)
	for _, edge := range edges {
		if edgeStillLive(e.Mesh, edge) && trySplit(e.Mesh, e.Env, e.State, edge) {
			report.Splits++
		}
	}

	edges = collectEdges(e.Mesh)
	sortByLengthAsc(e.Mesh, edges)
	for _, edge := range edges {
		if edgeStillLive(e.Mesh, edge) && tryCollapse(e.Mesh, e.Env, e.State, e.Config, edge) {
			report.Collapses++
		}
	}

	for _, fs := range internalFacetShares(e.Mesh) {
		if trySwapFace(e.Mesh, e.Env, e.State, e.Config, fs) {
			report.Swaps++
		}
	}
	for _, edge := range collectEdges(e.Mesh) {
		if !edgeStillLive(e.Mesh, edge) {
			continue
		}
		if trySwapEdge(e.Mesh, e.Env, e.State, e.Config, edge.U, edge.V) {
			report.Swaps++
		}
	}

	for v := range e.Mesh.Verts {
		if e.Mesh.Verts[v].Removed {
			continue
		}
		if trySmooth(e.Mesh, e.Env, e.State, e.Config, v) {
			report.Smooths++
		}
	}

	// Every operation above keeps its own touched tets' QualityRecords
	// current as it goes (each calls meshdata.Mesh.RecomputeQuality on
	// commit), but energyStats below trusts that bookkeeping across the
	// whole active set; refresh it in one batched, concurrent pass so the
	// pass-boundary statistics never depend on every op path having
	// remembered to recompute.
	if err := e.Mesh.RecomputeQualityBatch(ctx, e.Mesh.ActiveTetIDs()); err != nil {
		return report, err
	}

	report.MaxEnergy, report.AvgEnergy = e.energyStats()
	return report, nil
}

// edgeStillLive reports whether both of edge e's endpoints remain
// active, so a pass can skip edges invalidated by an earlier operation
// in the same sweep without recollecting the whole edge set.
func edgeStillLive(m *meshdata.Mesh, e Edge) bool {
	return !m.Verts[e.U].Removed && !m.Verts[e.V].Removed
}

// energyStats returns the max and mean AMIPS energy across every active
// tet, using gonum/floats.
func (e *Engine) energyStats() (max, avg float64) {
	ids := e.Mesh.ActiveTetIDs()
	if len(ids) == 0 {
		return 0, 0
	}
	vals := make([]float64, len(ids))
	for i, id := range ids {
		vals[i] = e.Mesh.Tets[id].Quality.SlimEnergy.Value()
	}
	return floats.Max(vals), floats.Sum(vals) / float64(len(vals))
}

// resizeStalledTargets implements spec.md §4.8's adaptive sizing: after a
// stalled pass, vertices whose incident tets exceed FilterEnergyThres
// have their target edge length scaled down by an adaptive scalar.
func (e *Engine) resizeStalledTargets() {
	over := make(map[int]bool)
	for _, id := range e.Mesh.ActiveTetIDs() {
		t := e.Mesh.Tets[id]
		if t.Quality.SlimEnergy.Value() <= e.Config.FilterEnergyThres {
			continue
		}
		for _, v := range t.V {
			over[v] = true
		}
	}
	vs := make([]int, 0, len(over))
	for v := range over {
		vs = append(vs, v)
	}
	sort.Ints(vs)
	scalar := e.stalledScalar()
	for _, v := range vs {
		e.State.ShrinkTarget(v, scalar)
	}
}

// stalledScalar returns AdaptiveScalar, nudged toward TargetNumVertices
// when the caller set one: a mesh still under its vertex target shrinks
// targets more aggressively (more splits next pass), a mesh already over
// it eases off (fewer splits), so the soft target is approached instead
// of overshot.
func (e *Engine) stalledScalar() float64 {
	scalar := e.Config.AdaptiveScalar
	if e.Config.TargetNumVertices <= 0 {
		return scalar
	}
	current := 0
	for _, v := range e.Mesh.Verts {
		if !v.Removed {
			current++
		}
	}
	target := e.Config.TargetNumVertices
	switch {
	case current < target:
		scalar *= 0.5
	case current > target+target/20:
		scalar = (scalar + 1) / 2
	}
	return scalar
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
