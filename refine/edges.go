package refine

import (
	"math"
	"sort"

	"github.com/wedge3d/tetravol/meshdata"
)

// edgeKey canonicalizes an unordered vertex pair, the same dedup trick
// preprocess uses for its triangle-soup edges, generalized here to tet
// edges.
func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// Edge is one candidate edge of the active tet set, with the data the
// split/collapse priority queues need.
type Edge struct {
	U, V int
	// Surface is true when at least one tet facet containing this edge
	// carries a Surface tag, and TriangleID is then the input triangle of
	// the last such facet collectEdges met; Split/Collapse must then
	// preserve the envelope for the triangle(s) that edge participates in.
	Surface    bool
	TriangleID int
	TetIDs     []int
}

// tetEdges enumerates the six unordered vertex-index pairs of tet v.
func tetEdges(v [4]int) [6][2]int {
	return [6][2]int{
		{v[0], v[1]}, {v[0], v[2]}, {v[0], v[3]},
		{v[1], v[2]}, {v[1], v[3]}, {v[2], v[3]},
	}
}

// facetHasEdge reports whether facet vertices fv include both a and b,
// i.e. whether edge (a,b) is one of the facet's three edges.
func facetHasEdge(fv [3]int, a, b int) bool {
	hasA, hasB := false, false
	for _, vi := range fv {
		if vi == a {
			hasA = true
		}
		if vi == b {
			hasB = true
		}
	}
	return hasA && hasB
}

// collectEdges walks every active tet and builds the deduplicated edge
// list, tagging each edge Surface when some incident facet carrying that
// edge is tagged meshdata.Surface (collapsing/splitting it must then keep
// the envelope check alive).
func collectEdges(m *meshdata.Mesh) []Edge {
	byKey := make(map[[2]int]*Edge)
	for _, id := range m.ActiveTetIDs() {
		t := m.Tets[id]
		for _, e := range tetEdges(t.V) {
			k := edgeKey(e[0], e[1])
			ed, ok := byKey[k]
			if !ok {
				ed = &Edge{U: k[0], V: k[1], TriangleID: -1}
				byKey[k] = ed
			}
			ed.TetIDs = append(ed.TetIDs, id)
			for fi := 0; fi < 4; fi++ {
				if t.FacetTags[fi].Kind != meshdata.Surface {
					continue
				}
				if facetHasEdge(t.FacetVerts(fi), e[0], e[1]) {
					ed.Surface = true
					ed.TriangleID = t.FacetTags[fi].TriangleID
				}
			}
		}
	}

	out := make([]Edge, 0, len(byKey))
	for _, e := range byKey {
		out = append(out, *e)
	}
	return out
}

// edgeLength returns the rounded-double length of edge (u,v).
func edgeLength(m *meshdata.Mesh, u, v int) float64 {
	a := m.VertPos(u)
	b := m.VertPos(v)
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// sortByLengthDesc and sortByLengthAsc order an edge list in place for
// SPLIT (longest-first) and COLLAPSE (shortest-first) priority, per
// spec.md §4.8.
func sortByLengthDesc(m *meshdata.Mesh, edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		return edgeLength(m, edges[i].U, edges[i].V) > edgeLength(m, edges[j].U, edges[j].V)
	})
}

func sortByLengthAsc(m *meshdata.Mesh, edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		return edgeLength(m, edges[i].U, edges[i].V) < edgeLength(m, edges[j].U, edges[j].V)
	})
}
