// Package tetravol converts an arbitrary input triangle soup into a
// valid tetrahedral volume mesh whose boundary lies within a Hausdorff
// envelope of the input surface (spec.md §1). It orchestrates the nine
// pipeline stages of spec.md §2 — geometric kernel, envelope predicate,
// surface simplifier, Delaunay tetrahedralizer, mesh conformer, BSP
// subdivider, simple tetrahedralizer, refinement engine, and
// inside/outside filter — each implemented in its own subpackage.
package tetravol

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/wedge3d/tetravol/bsp"
	"github.com/wedge3d/tetravol/conform"
	"github.com/wedge3d/tetravol/delaunay"
	"github.com/wedge3d/tetravol/envelope"
	"github.com/wedge3d/tetravol/geom"
	"github.com/wedge3d/tetravol/meshdata"
	"github.com/wedge3d/tetravol/preprocess"
	"github.com/wedge3d/tetravol/refine"
	"github.com/wedge3d/tetravol/tetra"
	"github.com/wedge3d/tetravol/winding"
	"gonum.org/v1/gonum/spatial/r3"
)

// Result is spec.md §6's library output: VO/TO/AO plus the pass reports
// and any non-fatal warning the pipeline surfaced (e.g. PassLimitExceeded
// with a best-so-far mesh).
type Result struct {
	VO []r3.Vec  // output vertex positions, rounded doubles
	TO [][4]int  // output tets, zero-based indices into VO
	AO []float64 // per-tet minimum dihedral angle, radians

	PreprocessStats preprocess.Stats
	ConformResult   conform.Result
	BSPStats        bsp.Stats
	PassReports     []refine.PassReport
	WindingStats    winding.Stats

	// Warning is set (alongside a still-usable Result) when the pipeline
	// completed with a non-fatal exit condition, e.g. PassLimitExceeded
	// (spec.md §6).
	Warning *Error
}

// Tetrahedralize is spec.md §6's library entry point: VI/FI describe the
// input triangle soup, cfg controls every stage. Cancellation is checked
// only at stage and pass boundaries (spec.md §5).
func Tetrahedralize(ctx context.Context, VI []r3.Vec, FI [][3]int, cfg Config) (Result, error) {
	if err := validateInput(VI, FI); err != nil {
		return Result{}, err
	}

	box := geom.EmptyBox3()
	for _, v := range VI {
		box = box.Extend(v)
	}
	diag := box.Diag()
	if diag <= 0 {
		return Result{}, newError(KindInputInvalid, "degenerate (zero-size) bounding box", nil)
	}

	initialEdgeLen := diag / nonZero(cfg.InitialEdgeLenRel, 20)
	epsInput := diag / nonZero(cfg.EpsRel, 1000)
	samplingDist := envelope.DefaultSamplingDist(epsInput)
	if cfg.SamplingDistRel > 0 {
		samplingDist = diag / cfg.SamplingDistRel
	}

	reportProgress(cfg, StepPreprocess, 0)
	env := envelope.Build(VI, FI, epsInput)

	preIn := preprocess.Soup{Verts: VI, Faces: FI}
	preCfg := preprocess.DefaultConfig(epsInput)
	preCfg.SamplingDist = samplingDist
	preCfg.PreserveSharpFeatures = cfg.PreserveSharpFeatures
	if cfg.SharpAngleThreshold > 0 {
		preCfg.SharpAngleThreshold = cfg.SharpAngleThreshold
	}
	simplified, preStats, err := preprocess.Simplify(preIn, env, preCfg)
	if err != nil {
		if errors.Is(err, preprocess.ErrEmptyInput) {
			return Result{}, newError(KindEmptyInput, "preprocess removed every triangle", err)
		}
		return Result{}, newError(KindInputInvalid, "preprocess failed", err)
	}
	reportProgress(cfg, StepPreprocess, 1)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	isMeshClosed := isClosedManifold(simplified.Faces)

	reportProgress(cfg, StepDelaunay, 0)
	points := make([]geom.Point, len(simplified.Verts))
	for i, v := range simplified.Verts {
		points[i] = geom.NewPoint(v.X, v.Y, v.Z)
	}
	if cfg.UseVoxelStuffing {
		points = append(points, voxelStuffPoints(box, initialEdgeLen, simplified.Verts, simplified.Faces, env, isMeshClosed, nil)...)
	}
	m, err := delaunay.Tetrahedralize(points)
	if err != nil {
		if errors.Is(err, delaunay.ErrEmptyInput) || len(points) < 4 {
			return Result{}, newError(KindEmptyInput, "too few points to tetrahedralize", err)
		}
		return Result{}, newError(KindPredicateDegeneracy, "delaunay construction failed", err)
	}
	reportProgress(cfg, StepDelaunay, 1)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	reportProgress(cfg, StepFaceMatching, 0)
	conformSoup := conform.Soup{Verts: points[:len(simplified.Verts)], Faces: simplified.Faces}
	conformResult := conform.Conform(m, conformSoup)
	reportProgress(cfg, StepFaceMatching, 1)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	reportProgress(cfg, StepBSP, 0)
	cellComplex, bspStats := bsp.Build(m, conformResult.Cutters)
	reportProgress(cfg, StepBSP, 1)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	reportProgress(cfg, StepTetra, 0)
	tetCfg := tetra.Config{IsMeshClosed: isMeshClosed}
	m = tetra.Tetrahedralize(cellComplex, tetCfg)
	reportProgress(cfg, StepTetra, 1)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	reportProgress(cfg, StepOptimize, 0)
	st := refine.NewState(epsInput, initialEdgeLen, diag, isMeshClosed, cfg.NSubStages, cfg.Stage)
	if cfg.SamplingDistRel > 0 {
		st.SamplingDist = samplingDist
	}
	engine := refine.NewEngine(m, env, st, cfg.refineConfig())
	var passReports []refine.PassReport
	var refineErr error
	if cfg.Progress != nil {
		engine.OnPass = func(r refine.PassReport) {
			frac := math.Min(1, float64(r.Pass)/float64(maxPasses(cfg)))
			cfg.Progress(StepOptimize, frac)
		}
	}
	passReports, refineErr = engine.Run(ctx)
	reportProgress(cfg, StepOptimize, 1)

	var warning *Error
	if refineErr != nil {
		switch {
		case errors.Is(refineErr, refine.ErrPassLimitExceeded):
			warning = newErrorWithMesh(KindPassLimitExceeded, "refinement exhausted max_num_passes", refineErr, m)
		case errors.Is(refineErr, refine.ErrEnvelopeInfeasible):
			return Result{}, newErrorWithMesh(KindEnvelopeInfeasible, "cannot preserve envelope at minimum eps", refineErr, m)
		default:
			return Result{}, newErrorWithMesh(KindInputInvalid, "refinement failed", refineErr, m)
		}
	}

	windingStats, err := winding.Filter(ctx, m, VI, FI)
	if err != nil {
		return Result{}, fmt.Errorf("tetravol: winding filter: %w", err)
	}

	result := buildResult(m)
	result.PreprocessStats = preStats
	result.ConformResult = conformResult
	result.BSPStats = bspStats
	result.PassReports = passReports
	result.WindingStats = windingStats
	result.Warning = warning
	return result, nil
}

// buildResult extracts spec.md §6's VO/TO/AO triple from m, which must
// already be compacted (winding.Filter compacts as its last step).
func buildResult(m *meshdata.Mesh) Result {
	vo := make([]r3.Vec, len(m.Verts))
	for i, v := range m.Verts {
		vo[i] = v.Pos.Rounded
	}
	to := make([][4]int, len(m.Tets))
	ao := make([]float64, len(m.Tets))
	for i, t := range m.Tets {
		to[i] = t.V
		ao[i] = t.Quality.MinDihedral
	}
	return Result{VO: vo, TO: to, AO: ao}
}

// validateInput implements spec.md §7's InputInvalid checks on the raw
// arrays: NaN/Inf coordinates, empty FI, and out-of-range face indices.
// The zero-size bounding-box check is made by Tetrahedralize afterwards.
func validateInput(VI []r3.Vec, FI [][3]int) error {
	if len(FI) == 0 {
		return newError(KindInputInvalid, "empty face list", nil)
	}
	for i, v := range VI {
		if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z) ||
			math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) || math.IsInf(v.Z, 0) {
			return newError(KindInputInvalid, fmt.Sprintf("vertex %d has a NaN/Inf coordinate", i), nil)
		}
	}
	for i, f := range FI {
		for _, vi := range f {
			if vi < 0 || vi >= len(VI) {
				return newError(KindInputInvalid, fmt.Sprintf("face %d references out-of-range vertex %d", i, vi), nil)
			}
		}
	}
	return nil
}

// isClosedManifold reports whether every edge of faces is shared by
// exactly two triangles, the simplest closed-manifold heuristic
// (spec.md §4.7's IsMeshClosed flag derivation is otherwise
// unspecified).
func isClosedManifold(faces [][3]int) bool {
	counts := make(map[[2]int]int)
	key := func(a, b int) [2]int {
		if a > b {
			a, b = b, a
		}
		return [2]int{a, b}
	}
	for _, f := range faces {
		counts[key(f[0], f[1])]++
		counts[key(f[1], f[2])]++
		counts[key(f[2], f[0])]++
	}
	for _, c := range counts {
		if c != 2 {
			return false
		}
	}
	return true
}

func reportProgress(cfg Config, step Step, fraction float64) {
	if cfg.Progress != nil {
		cfg.Progress(step, fraction)
	}
}

func nonZero(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func maxPasses(cfg Config) int {
	if cfg.MaxNumPasses > 0 {
		return cfg.MaxNumPasses
	}
	return 80
}
