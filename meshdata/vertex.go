package meshdata

import "github.com/wedge3d/tetravol/geom"

// TetVertex is spec.md §3's tet vertex: an exact/rounded position plus
// the bookkeeping the refinement engine and facet tagging need.
type TetVertex struct {
	Pos geom.Point

	// Incident is the set of tet indices this vertex currently belongs
	// to (P4's vertex-tet incidence invariant). Kept as a set, not a
	// slice, because split/collapse/swap add and remove memberships
	// one at a time.
	Incident map[int]struct{}

	// OnSurface is true if this vertex lies on a facet tagged Surface.
	OnSurface bool
	// OnEnvelope is true if this vertex's position is currently exactly
	// on the input surface (as opposed to merely within the envelope).
	OnEnvelope bool
	// OnBoundary is true if this vertex lies on an open-hole boundary
	// facet (spec.md §4.7, relevant only when IsMeshClosed is false).
	OnBoundary bool

	// Removed tombstones the vertex; removed vertices are never
	// compacted out mid-pipeline (spec.md §3's lifetime note) so that
	// every other index into Mesh.Verts stays stable.
	Removed bool
}

func newTetVertex(p geom.Point) TetVertex {
	return TetVertex{Pos: p, Incident: make(map[int]struct{})}
}
