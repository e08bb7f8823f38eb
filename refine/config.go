package refine

// Config carries the refinement-relevant subset of spec.md §6's root
// Config, kept local to this package the way tetra.Config is, so refine
// has no import cycle back to the package that will eventually own the
// top-level Config.
type Config struct {
	AdaptiveScalar    float64
	FilterEnergyThres float64
	DeltaEnergyThres  float64
	MaxNumPasses      int

	// UseEnergyMax selects COLLAPSE/SWAP's acceptance criterion: true
	// (the default) accepts a COLLAPSE whose new max energy does not
	// exceed the old max and a SWAP whose new max is strictly lower; false
	// requires the new total energy to strictly improve.
	// spec.md §9 documents this as implementation-defined at the margin.
	UseEnergyMax bool

	// UseOneringProjection selects how SMOOTH re-projects a surface
	// vertex that moved: true projects onto the one-ring plane, false
	// (the default) projects onto the nearest point of the input
	// surface via the envelope's spatial index.
	UseOneringProjection bool

	// SmoothOpenBoundary allows SMOOTH to relocate vertices tagged
	// meshdata.Boundary (spec.md §4.7's open-hole facets); off by
	// default so open holes stay put unless the caller opts in.
	SmoothOpenBoundary bool

	NSubStages int

	// TargetNumVertices is -1 (unconstrained) by default; a positive value
	// is a soft target resizeStalledTargets nudges the mesh toward by
	// adjusting how aggressively it shrinks stalled vertices' target edge
	// lengths (spec.md §6).
	TargetNumVertices int

	// BackgroundSizing, if set, caps State.TargetLength at a vertex's
	// position (spec.md §6's background sizing field).
	BackgroundSizing func(p [3]float64) float64
}

// DefaultConfig returns spec.md §6's refinement-related defaults.
func DefaultConfig() Config {
	return Config{
		AdaptiveScalar:       0.6,
		FilterEnergyThres:    10,
		DeltaEnergyThres:     0.1,
		MaxNumPasses:         80,
		UseEnergyMax:         true,
		UseOneringProjection: false,
		SmoothOpenBoundary:   false,
		NSubStages:           5,
		TargetNumVertices:    -1,
	}
}
