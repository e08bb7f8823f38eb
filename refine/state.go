package refine

import "github.com/wedge3d/tetravol/envelope"

// State is spec.md §3's shared mutable refinement state, threaded
// explicitly through the engine and every operation instead of living in
// a process-wide singleton (spec.md §9's design note: "Process-wide
// state... is replaced by an explicit refinement-state value threaded
// through each stage").
type State struct {
	// Eps is the current envelope tolerance; it ramps toward EpsInput by
	// EpsDelta between stalled passes (spec.md §4.8's sub-stage ramping).
	Eps      float64
	EpsInput float64
	EpsDelta float64

	// SamplingDist is the stratified-sampling density envelope.TriangleInside
	// uses for the current Eps.
	SamplingDist float64

	// InitialEdgeLen is the target edge length computed from the config
	// before any adaptive resizing; TargetEdgeLen overrides it per vertex.
	InitialEdgeLen float64
	TargetEdgeLen  map[int]float64

	SubStage     int
	BBoxDiag     float64
	IsMeshClosed bool

	// backgroundSizing and vertPos implement spec.md §6's BackgroundSizing
	// cap: when set (via SetBackgroundSizing), TargetLength never returns
	// more than backgroundSizing(vertPos(v)) at vertex v.
	backgroundSizing func(p [3]float64) float64
	vertPos          func(v int) [3]float64
}

// SetBackgroundSizing installs a per-point sizing-field cap: sizing maps
// a vertex's position to the sizing field's maximum edge length there,
// and vertPos resolves a vertex index to its position for sizing to
// consume. A nil sizing leaves TargetLength uncapped.
func (s *State) SetBackgroundSizing(sizing func(p [3]float64) float64, vertPos func(v int) [3]float64) {
	s.backgroundSizing = sizing
	s.vertPos = vertPos
}

// NewState builds the initial refinement state: Eps starts at
// epsInput/stage (spec.md §4.8) and SamplingDist follows from it.
func NewState(epsInput, initialEdgeLen, bboxDiag float64, isMeshClosed bool, nSubStages, stage int) *State {
	if nSubStages < 1 {
		nSubStages = 1
	}
	if stage < 1 {
		stage = 1
	}
	startEps := epsInput / float64(stage)
	return &State{
		Eps:            startEps,
		EpsInput:       epsInput,
		EpsDelta:       epsInput / float64(nSubStages),
		SamplingDist:   envelope.DefaultSamplingDist(startEps),
		InitialEdgeLen: initialEdgeLen,
		TargetEdgeLen:  make(map[int]float64),
		BBoxDiag:       bboxDiag,
		IsMeshClosed:   isMeshClosed,
	}
}

// Advance ramps Eps one EpsDelta step closer to EpsInput, never
// overshooting it, and recomputes SamplingDist to match (spec.md §4.8:
// "the final pass uses the full eps_input").
func (s *State) Advance() {
	s.SubStage++
	s.Eps += s.EpsDelta
	if s.Eps > s.EpsInput {
		s.Eps = s.EpsInput
	}
	s.SamplingDist = envelope.DefaultSamplingDist(s.Eps)
}

// TargetLength returns the current target edge length at vertex v,
// falling back to InitialEdgeLen when no adaptive entry has been set for
// it yet, capped by the background sizing field if one is installed.
func (s *State) TargetLength(v int) float64 {
	l, ok := s.TargetEdgeLen[v]
	if !ok {
		l = s.InitialEdgeLen
	}
	if s.backgroundSizing != nil && s.vertPos != nil {
		if sizing := s.backgroundSizing(s.vertPos(v)); sizing > 0 && sizing < l {
			l = sizing
		}
	}
	return l
}

// ShrinkTarget scales vertex v's target edge length by factor (spec.md
// §4.8's adaptive_scalar resizing after a stalled pass).
func (s *State) ShrinkTarget(v int, factor float64) {
	s.TargetEdgeLen[v] = s.TargetLength(v) * factor
}
