package meshdata

// FacetKind classifies a tet facet for the surface-facet tags of
// spec.md §3/§4.7.
type FacetKind int

const (
	// NotSurface is the default: the facet is an interior tet facet with
	// no input-triangle affiliation.
	NotSurface FacetKind = iota
	// Surface means the facet was matched to (a portion of) an input
	// triangle during mesh conforming.
	Surface
	// BBox tags facets on the outer bounding-box shell introduced by
	// voxel stuffing / the Delaunay super-structure.
	BBox
	// Boundary tags facets on the complement of the surface when the
	// input is not a closed manifold (spec.md §4.7, smooth_open_boundary).
	Boundary
)

// SurfaceTag is, per facet, either NotSurface or a reference to the input
// triangle that facet was matched to.
type SurfaceTag struct {
	Kind       FacetKind
	TriangleID int // meaningful only when Kind == Surface
}

// NotSurfaceTag is the zero-value tag, spelled out for readability at
// call sites that build a fresh [4]SurfaceTag array.
var NotSurfaceTag = SurfaceTag{Kind: NotSurface}
