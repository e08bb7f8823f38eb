// Package bsp implements the BSP subdivider of spec.md §4.6: starting
// from the Delaunay complex's tets as the initial cells, it splits every
// cell that a conform.Cutter's plane crosses until the worklist of
// (cell, cutter) pairs empties, leaving a convex cell complex in which
// every input triangle lies on a union of cell faces.
package bsp

import (
	"math"
	"sort"
	"strconv"

	"github.com/wedge3d/tetravol/conform"
	"github.com/wedge3d/tetravol/geom"
	"github.com/wedge3d/tetravol/meshdata"
	"gonum.org/v1/gonum/spatial/r3"
)

// Face is a planar polygon loop of vertex indices into Complex.Verts,
// shared by up to two nodes (spec.md §3's BSP cell complex).
type Face struct {
	Loop  []int
	Nodes [2]int // node index, or -1 if this side is unbounded/exterior

	// SurfaceTriangleID is the input triangle this face was cut from or
	// matched to, or -1 for an interior (non-surface) face.
	SurfaceTriangleID int
}

// Node is one convex cell: the set of faces bounding it.
type Node struct {
	Faces   []int
	Removed bool
}

// Complex is the BSP cell complex.
type Complex struct {
	Verts []geom.Point
	Faces []Face
	Nodes []Node
}

type worklistEntry struct {
	node   int
	cutter conform.Cutter
}

// FaceKey is a canonical, winding-independent identity for a face's
// vertex set (its indices sorted ascending and joined into one
// comparable value), modeled on the example pack's EdgeKey/constrained
// map idiom (SPEC_FULL.md §C) generalized from 2D edges to 3D facets.
// It is diagnostic bookkeeping only — Faces themselves stay keyed by
// their own winding-sensitive Loop for every geometric purpose.
type FaceKey string

// NewFaceKey builds the canonical key for a face's vertex loop.
func NewFaceKey(loop []int) FaceKey {
	s := append([]int(nil), loop...)
	sort.Ints(s)
	b := make([]byte, 0, len(s)*8)
	for i, vi := range s {
		if i > 0 {
			b = append(b, ',')
		}
		b = strconv.AppendInt(b, int64(vi), 10)
	}
	return FaceKey(b)
}

// Stats reports BSP subdivision counts, modeled on the example pack's
// BuildOptions-style diagnostics (iceisfun/gomesh's cdt.Diagnostics,
// SPEC_FULL.md §C): a worklist that runs to completion without
// visibility into how much splitting it did is hard to debug.
type Stats struct {
	InitialCells   int
	CutsPerformed  int
	NodesCreated   int
	DuplicateFaces int // faces created that coincide (by FaceKey) with an already-seen face
}

// Build runs the subdivider: m supplies the initial cells (one per
// active tet) and cutters supplies the unmatched input triangles from
// the conformer stage.
func Build(m *meshdata.Mesh, cutters []conform.Cutter) (*Complex, Stats) {
	c := &Complex{Verts: append([]geom.Point(nil), m.Verts...)}
	var stats Stats
	seenFaces := make(map[FaceKey]bool)
	noteFace := func(loop []int) {
		k := NewFaceKey(loop)
		if seenFaces[k] {
			stats.DuplicateFaces++
		}
		seenFaces[k] = true
	}

	nodeCutters := make(map[int][]conform.Cutter)
	for _, id := range m.ActiveTetIDs() {
		t := m.Tets[id]
		nodeID := len(c.Nodes)
		var faceIDs []int
		for fi := 0; fi < 4; fi++ {
			fv := t.FacetVerts(fi)
			faceID := len(c.Faces)
			triID := -1
			if t.FacetTags[fi].Kind == meshdata.Surface {
				triID = t.FacetTags[fi].TriangleID
			}
			loop := []int{fv[0], fv[1], fv[2]}
			noteFace(loop)
			c.Faces = append(c.Faces, Face{
				Loop:              loop,
				Nodes:             [2]int{nodeID, -1},
				SurfaceTriangleID: triID,
			})
			faceIDs = append(faceIDs, faceID)
		}
		c.Nodes = append(c.Nodes, Node{Faces: faceIDs})
		stats.InitialCells++
		stats.NodesCreated++

		var relevant []conform.Cutter
		for _, cu := range cutters {
			if planeCrossesNode(c, nodeID, cu.A, cu.B, cu.C) {
				relevant = append(relevant, cu)
			}
		}
		if len(relevant) > 0 {
			nodeCutters[nodeID] = relevant
		}
	}

	var worklist []worklistEntry
	for nodeID, cs := range nodeCutters {
		for _, cu := range cs {
			worklist = append(worklist, worklistEntry{node: nodeID, cutter: cu})
		}
	}

	for len(worklist) > 0 {
		e := worklist[0]
		worklist = worklist[1:]

		if c.Nodes[e.node].Removed {
			continue
		}
		if !planeCrossesNode(c, e.node, e.cutter.A, e.cutter.B, e.cutter.C) {
			continue
		}

		above, below := splitNode(c, e.node, e.cutter)
		for _, fi := range c.Nodes[above].Faces {
			noteFace(c.Faces[fi].Loop)
		}
		for _, fi := range c.Nodes[below].Faces {
			noteFace(c.Faces[fi].Loop)
		}
		c.Nodes[e.node].Removed = true
		stats.CutsPerformed++
		stats.NodesCreated += 2

		remaining := nodeCutters[e.node]
		delete(nodeCutters, e.node)
		for _, cu := range remaining {
			if cu.TriIdx == e.cutter.TriIdx {
				continue
			}
			if planeCrossesNode(c, above, cu.A, cu.B, cu.C) {
				nodeCutters[above] = append(nodeCutters[above], cu)
				worklist = append(worklist, worklistEntry{node: above, cutter: cu})
			}
			if planeCrossesNode(c, below, cu.A, cu.B, cu.C) {
				nodeCutters[below] = append(nodeCutters[below], cu)
				worklist = append(worklist, worklistEntry{node: below, cutter: cu})
			}
		}
	}

	return c, stats
}

// planeCrossesNode reports whether the plane through (a,b,c) has
// vertices of node nodeID strictly on both sides, meaning a cut of this
// cell by that plane would actually split it.
func planeCrossesNode(c *Complex, nodeID int, a, b, cc geom.Rat3) bool {
	sawPositive, sawNegative := false, false
	for _, vi := range nodeVertices(c, nodeID) {
		switch geom.Orient3D(a, b, cc, c.Verts[vi].Exact) {
		case geom.Positive:
			sawPositive = true
		case geom.Negative:
			sawNegative = true
		}
		if sawPositive && sawNegative {
			return true
		}
	}
	return false
}

func nodeVertices(c *Complex, nodeID int) []int {
	return NodeVertices(c, nodeID)
}

// NodeVertices returns the distinct vertex indices bounding node nodeID,
// gathered from its faces' loops. Exported for the simple tetrahedralizer,
// which needs a node's full vertex set to choose a pivot.
func NodeVertices(c *Complex, nodeID int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, fi := range c.Nodes[nodeID].Faces {
		for _, vi := range c.Faces[fi].Loop {
			if !seen[vi] {
				seen[vi] = true
				out = append(out, vi)
			}
		}
	}
	return out
}

// ActiveNodeIDs returns the indices of every node that was never split
// (the leaves of the BSP tree, i.e. the final convex cells).
func (c *Complex) ActiveNodeIDs() []int {
	var out []int
	for i, n := range c.Nodes {
		if !n.Removed {
			out = append(out, i)
		}
	}
	return out
}

// splitNode cuts node nodeID by cutter's plane into two new child nodes
// (returned as above, below); it does not mark nodeID removed, which its
// caller Build does.
// Tie-breaking follows spec.md §4.6: a vertex exactly on the cut plane
// is placed on the shared face rather than duplicated.
func splitNode(c *Complex, nodeID int, cutter conform.Cutter) (above, below int) {
	sign := make(map[int]geom.Sign)
	for _, vi := range nodeVertices(c, nodeID) {
		sign[vi] = geom.Orient3D(cutter.A, cutter.B, cutter.C, c.Verts[vi].Exact)
	}

	var onPlane []int
	seenOnPlane := make(map[int]bool)
	var aboveFaces, belowFaces []int

	for _, fi := range c.Nodes[nodeID].Faces {
		f := c.Faces[fi]
		aLoop, bLoop, onp := splitFace(&c.Verts, f.Loop, sign, cutter.A, cutter.B, cutter.C)
		for _, vi := range onp {
			if !seenOnPlane[vi] {
				seenOnPlane[vi] = true
				onPlane = append(onPlane, vi)
			}
		}

		if len(aLoop) >= 3 {
			newFace := replaceNodeInFace(f, nodeID, -2) // -2 placeholder, fixed below
			newFace.Loop = aLoop
			faceID := len(c.Faces)
			c.Faces = append(c.Faces, newFace)
			aboveFaces = append(aboveFaces, faceID)
		}
		if len(bLoop) >= 3 {
			newFace := replaceNodeInFace(f, nodeID, -2)
			newFace.Loop = bLoop
			faceID := len(c.Faces)
			c.Faces = append(c.Faces, newFace)
			belowFaces = append(belowFaces, faceID)
		}
	}

	above = len(c.Nodes)
	c.Nodes = append(c.Nodes, Node{})
	below = len(c.Nodes)
	c.Nodes = append(c.Nodes, Node{})

	for _, fi := range aboveFaces {
		fixFaceNode(c, fi, nodeID, above)
	}
	for _, fi := range belowFaces {
		fixFaceNode(c, fi, nodeID, below)
	}

	if len(onPlane) >= 3 {
		normal := geom.TriangleNormal(mustFloat(cutter.A), mustFloat(cutter.B), mustFloat(cutter.C))
		ordered := orderPolygon(c.Verts, onPlane, normal)
		cutFaceID := len(c.Faces)
		c.Faces = append(c.Faces, Face{
			Loop:              ordered,
			Nodes:             [2]int{above, below},
			SurfaceTriangleID: cutter.TriIdx,
		})
		aboveFaces = append(aboveFaces, cutFaceID)
		belowFaces = append(belowFaces, cutFaceID)
	}

	c.Nodes[above].Faces = aboveFaces
	c.Nodes[below].Faces = belowFaces
	return above, below
}

func mustFloat(r geom.Rat3) r3.Vec {
	v, _ := r.Float()
	return v
}

// replaceNodeInFace returns a copy of f with placeholder replaced later
// by fixFaceNode; kept as a separate step so a face can be reused for
// both children with independent node slots.
func replaceNodeInFace(f Face, oldNode, placeholder int) Face {
	nf := f
	if nf.Nodes[0] == oldNode {
		nf.Nodes[0] = placeholder
	}
	if nf.Nodes[1] == oldNode {
		nf.Nodes[1] = placeholder
	}
	return nf
}

func fixFaceNode(c *Complex, faceID, oldNode, newNode int) {
	f := &c.Faces[faceID]
	if f.Nodes[0] == -2 {
		f.Nodes[0] = newNode
	}
	if f.Nodes[1] == -2 {
		f.Nodes[1] = newNode
	}
	_ = oldNode
}

// splitFace partitions one face's vertex loop by the plane through
// (a,b,c): vertices strictly on the positive side go to above, strictly
// negative to below, and on-plane vertices (existing or freshly
// interpolated at an edge crossing) go to both, forming the seam that
// becomes the new shared cut face.
func splitFace(verts *[]geom.Point, loop []int, sign map[int]geom.Sign, a, b, cc geom.Rat3) (above, below, onPlane []int) {
	n := len(loop)
	for i := 0; i < n; i++ {
		cur := loop[i]
		next := loop[(i+1)%n]
		sCur := sign[cur]
		sNext := sign[next]

		switch sCur {
		case geom.Positive:
			above = append(above, cur)
		case geom.Negative:
			below = append(below, cur)
		case geom.Zero:
			above = append(above, cur)
			below = append(below, cur)
			onPlane = append(onPlane, cur)
		}

		if (sCur == geom.Positive && sNext == geom.Negative) || (sCur == geom.Negative && sNext == geom.Positive) {
			p0 := (*verts)[cur].Exact
			p1 := (*verts)[next].Exact
			hit, pt := geom.SegmentPlaneIntersect(p0, p1, a, b, cc)
			if hit {
				idx := len(*verts)
				*verts = append(*verts, geom.NewExactPoint(pt))
				above = append(above, idx)
				below = append(below, idx)
				onPlane = append(onPlane, idx)
			}
		}
	}
	return above, below, onPlane
}

// orderPolygon sorts vertex indices lying on a common plane (given by
// normal) into a single cyclic polygon loop, by angle around their
// centroid, using the rounded double positions (ordering a loop is not a
// sign-bearing test, so exactness is not needed here).
func orderPolygon(verts []geom.Point, idx []int, normal r3.Vec) []int {
	if len(idx) <= 3 {
		return idx
	}
	var centroid r3.Vec
	for _, vi := range idx {
		centroid = r3.Add(centroid, verts[vi].Rounded)
	}
	centroid = r3.Scale(1/float64(len(idx)), centroid)

	n := normal
	if r3.Norm(n) == 0 {
		n = r3.Vec{X: 0, Y: 0, Z: 1}
	}
	n = r3.Scale(1/r3.Norm(n), n)
	u := arbitraryPerp(n)
	v := r3.Cross(n, u)

	type polar struct {
		idx   int
		angle float64
	}
	ps := make([]polar, len(idx))
	for i, vi := range idx {
		d := r3.Sub(verts[vi].Rounded, centroid)
		x := r3.Dot(d, u)
		y := r3.Dot(d, v)
		ps[i] = polar{idx: vi, angle: math.Atan2(y, x)}
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].angle < ps[j].angle })

	out := make([]int, len(ps))
	for i, p := range ps {
		out[i] = p.idx
	}
	return out
}

func arbitraryPerp(n r3.Vec) r3.Vec {
	ref := r3.Vec{X: 1, Y: 0, Z: 0}
	if abs(n.X) > 0.9 {
		ref = r3.Vec{X: 0, Y: 1, Z: 0}
	}
	p := r3.Sub(ref, r3.Scale(r3.Dot(ref, n), n))
	l := r3.Norm(p)
	if l == 0 {
		return r3.Vec{X: 0, Y: 1, Z: 0}
	}
	return r3.Scale(1/l, p)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
