package tetravol

import "github.com/wedge3d/tetravol/refine"

// Step identifies a stage of the pipeline for progress reporting
// (spec.md §6).
type Step int

const (
	StepPreprocess Step = iota
	StepDelaunay
	StepFaceMatching
	StepBSP
	StepTetra
	StepOptimize
)

func (s Step) String() string {
	switch s {
	case StepPreprocess:
		return "Preprocess"
	case StepDelaunay:
		return "Delaunay"
	case StepFaceMatching:
		return "FaceMatching"
	case StepBSP:
		return "BSP"
	case StepTetra:
		return "Tetra"
	case StepOptimize:
		return "Optimize"
	default:
		return "Unknown"
	}
}

// ProgressFunc is spec.md §6's progress callback: step plus a fraction
// in [0,1] of that step's own completion. Host programs that want
// logging wire this up themselves; stdout logging is out of scope here
// (SPEC_FULL.md §1's Non-goals).
type ProgressFunc func(step Step, fraction float64)

// Config is the flat, JSON-tagged configuration struct of spec.md §6,
// following the teacher's examples/finite_elements Specs idiom (see
// DESIGN.md). Tetrahedralize and refineConfig substitute the defaults for
// numeric fields left at zero; boolean fields are used exactly as given,
// so a Config built from scratch has every flag off where DefaultConfig
// turns some on.
type Config struct {
	// InitialEdgeLenRel sets the target edge length to bbox_diag /
	// this value.
	InitialEdgeLenRel float64 `json:"initial_edge_len_rel"`
	// EpsRel sets the envelope tolerance to bbox_diag / this value.
	EpsRel float64 `json:"eps_rel"`
	// SamplingDistRel overrides the stratified-sampling density; <= 0
	// means "auto" (envelope.DefaultSamplingDist(eps)).
	SamplingDistRel float64 `json:"sampling_dist_rel"`
	// Stage is the retry index: refinement's eps starts at eps_input /
	// Stage and ramps toward eps_input in steps of eps_input / NSubStages,
	// which do not depend on Stage (spec.md §4.8, §E's S5 scenario).
	Stage int `json:"stage"`

	AdaptiveScalar    float64 `json:"adaptive_scalar"`
	FilterEnergyThres float64 `json:"filter_energy_thres"`
	DeltaEnergyThres  float64 `json:"delta_energy_thres"`
	MaxNumPasses      int     `json:"max_num_passes"`
	NSubStages        int     `json:"n_substages"`

	UseVoxelStuffing     bool `json:"use_voxel_stuffing"`
	SmoothOpenBoundary   bool `json:"smooth_open_boundary"`
	UseEnergyMax         bool `json:"use_energy_max"`
	UseOneringProjection bool `json:"use_onering_projection"`

	// TargetNumVertices is -1 (unconstrained, +-5% tolerance) by default;
	// a positive value is a soft target the refinement engine's adaptive
	// resizing nudges toward (SPEC_FULL.md §C).
	TargetNumVertices int `json:"target_num_vertices"`

	// BackgroundMeshPath, if set, names a tet mesh supplying a per-point
	// sizing field (spec.md §6). Reading the file is a driver concern
	// (SPEC_FULL.md §1's Non-goals exclude file I/O); this module only
	// carries the path through to a caller-supplied loader via
	// BackgroundSizing.
	BackgroundMeshPath string `json:"background_mesh,omitempty"`
	// BackgroundSizing, if set, overrides the sizing field at point p
	// (the in-memory equivalent of loading BackgroundMeshPath); it caps
	// the adaptive target length field per spec.md §4.8.
	BackgroundSizing func(p [3]float64) float64 `json:"-"`

	// PreserveSharpFeatures and SharpAngleThreshold feed preprocess.Config
	// (SPEC_FULL.md §C).
	PreserveSharpFeatures bool    `json:"preserve_sharp_features"`
	SharpAngleThreshold   float64 `json:"sharp_angle_threshold"`

	// Progress, if set, is called at each stage transition and at pass
	// boundaries within refine.Engine.
	Progress ProgressFunc `json:"-"`
}

// DefaultConfig returns spec.md §6's documented defaults.
func DefaultConfig() Config {
	return Config{
		InitialEdgeLenRel:    20,
		EpsRel:               1000,
		SamplingDistRel:      0,
		Stage:                1,
		AdaptiveScalar:       0.6,
		FilterEnergyThres:    10,
		DeltaEnergyThres:     0.1,
		MaxNumPasses:         80,
		NSubStages:           5,
		UseVoxelStuffing:     true,
		SmoothOpenBoundary:   false,
		UseEnergyMax:         true,
		UseOneringProjection: false,
		TargetNumVertices:    -1,
		PreserveSharpFeatures: false,
		SharpAngleThreshold:   0.5,
	}
}

// refineConfig translates the subset of Config that refine.Engine needs
// into a refine.Config, applying refine.DefaultConfig's values for the
// numeric fields left at zero; the boolean flags and BackgroundSizing are
// copied as given.
func (c Config) refineConfig() refine.Config {
	rc := refine.DefaultConfig()
	if c.AdaptiveScalar > 0 {
		rc.AdaptiveScalar = c.AdaptiveScalar
	}
	if c.FilterEnergyThres > 0 {
		rc.FilterEnergyThres = c.FilterEnergyThres
	}
	if c.DeltaEnergyThres > 0 {
		rc.DeltaEnergyThres = c.DeltaEnergyThres
	}
	if c.MaxNumPasses > 0 {
		rc.MaxNumPasses = c.MaxNumPasses
	}
	if c.NSubStages > 0 {
		rc.NSubStages = c.NSubStages
	}
	rc.UseEnergyMax = c.UseEnergyMax
	rc.UseOneringProjection = c.UseOneringProjection
	rc.SmoothOpenBoundary = c.SmoothOpenBoundary
	if c.TargetNumVertices != 0 {
		rc.TargetNumVertices = c.TargetNumVertices
	}
	// BackgroundMeshPath names a file for a driver to load and turn into a
	// BackgroundSizing function itself (SPEC_FULL.md §1's Non-goals
	// exclude file I/O); this module only carries BackgroundSizing through.
	rc.BackgroundSizing = c.BackgroundSizing
	return rc
}
