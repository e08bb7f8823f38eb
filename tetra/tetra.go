// Package tetra implements the simple tetrahedralizer of spec.md §4.7:
// it walks every live cell of a bsp.Complex and fans it into tets from a
// single pivot vertex, carrying the parent BSP face's surface tag onto
// the facet opposite the pivot.
package tetra

import (
	"sort"

	"github.com/wedge3d/tetravol/bsp"
	"github.com/wedge3d/tetravol/geom"
	"github.com/wedge3d/tetravol/meshdata"
)

// Config carries the flags the tetrahedralizer needs from the pipeline's
// overall configuration, kept local to this package (rather than
// depending on the root config type) so tetra has no import cycle back
// to the package that will eventually call it.
type Config struct {
	// IsMeshClosed selects how single-sided BSP faces (Nodes[1] == -1)
	// that were never matched to an input triangle are labelled: BBox
	// when true (outer bounding shell), Boundary when false (an
	// open-hole edge that later smoothing must be allowed to move).
	IsMeshClosed bool
}

// Tetrahedralize converts every live cell of c into one or more tets,
// sharing vertices across cells via a lazy index-keyed lookup, in the
// manner of the teacher's Tet4/MeshTet4 vertex-dedup-by-map idiom
// (render/tet4.go), adapted here to dedup by BSP vertex index rather
// than by coordinate since c.Verts is already a single shared array.
func Tetrahedralize(c *bsp.Complex, cfg Config) *meshdata.Mesh {
	m := meshdata.New()
	vmap := make(map[int]int)
	getVert := func(ci int) int {
		if mi, ok := vmap[ci]; ok {
			return mi
		}
		mi := m.AddVertex(c.Verts[ci])
		vmap[ci] = mi
		return mi
	}

	for _, nodeID := range c.ActiveNodeIDs() {
		verts := append([]int(nil), bsp.NodeVertices(c, nodeID)...)
		if len(verts) < 4 {
			continue
		}
		sort.Ints(verts)
		pivot := verts[0]

		sideTags := pivotFaceTags(c, nodeID, pivot, cfg)

		for _, fi := range c.Nodes[nodeID].Faces {
			f := c.Faces[fi]
			if containsVertex(f.Loop, pivot) {
				continue
			}
			for i := 1; i+1 < len(f.Loop); i++ {
				addFanTet(m, getVert, pivot, f.Loop[0], f.Loop[i], f.Loop[i+1], f, cfg, sideTags)
			}
		}
	}
	return m
}

// pivotFaceTags indexes, by vertex triple, the tag of every pivot-incident
// face of nodeID that is itself a triangle. A fan tet's two side facets
// (the ones through the pivot) each reuse that original face's tag
// outright when they exactly coincide with it, which they always do for
// the common case of an untouched tetrahedral cell (four triangular
// faces, three of which share the pivot). A pivot-incident face with more
// than three vertices (possible on a cell produced by several BSP cuts)
// is not decomposed here; its sub-facets fall back to NotSurface, a
// simplification noted alongside bsp's own face-relinking one.
func pivotFaceTags(c *bsp.Complex, nodeID, pivot int, cfg Config) map[[3]int]meshdata.SurfaceTag {
	out := make(map[[3]int]meshdata.SurfaceTag)
	for _, fi := range c.Nodes[nodeID].Faces {
		f := c.Faces[fi]
		if len(f.Loop) != 3 || !containsVertex(f.Loop, pivot) {
			continue
		}
		out[triKey(f.Loop[0], f.Loop[1], f.Loop[2])] = facetTag(f, cfg)
	}
	return out
}

func triKey(a, b, c int) [3]int {
	k := [3]int{a, b, c}
	sort.Ints(k[:])
	return k
}

func containsVertex(loop []int, v int) bool {
	for _, vi := range loop {
		if vi == v {
			return true
		}
	}
	return false
}

// addFanTet builds one tet from pivot and the fan triangle (a,b,c) of
// face f, fixes its orientation per I1, tags the facet opposite the
// pivot with f's surface provenance, and tags each side facet through
// the pivot from sideTags when it coincides with a pivot-incident face.
func addFanTet(m *meshdata.Mesh, getVert func(int) int, pivot, a, b, cIdx int, f bsp.Face, cfg Config, sideTags map[[3]int]meshdata.SurfaceTag) {
	pv := getVert(pivot)
	av := getVert(a)
	bv := getVert(b)
	cv := getVert(cIdx)

	v := [4]int{pv, av, bv, cv}
	if geom.Orient3D(m.Verts[pv].Pos.Exact, m.Verts[av].Pos.Exact, m.Verts[bv].Pos.Exact, m.Verts[cv].Pos.Exact) != geom.Positive {
		v[2], v[3] = v[3], v[2]
	}

	id := m.AddTet(v)
	t := &m.Tets[id]
	t.FacetTags[0] = facetTag(f, cfg)
	for fi := 1; fi <= 3; fi++ {
		fv := t.FacetVerts(fi)
		if tag, ok := sideTags[triKey(fv[0], fv[1], fv[2])]; ok {
			t.FacetTags[fi] = tag
		}
	}
}

// facetTag derives the surface tag a BSP face carries, per spec.md
// §4.7: Surface when the face was matched to (or cut from) an input
// triangle; otherwise BBox/Boundary for a single-sided hull face
// depending on whether the mesh is closed, or NotSurface for a
// genuinely interior face shared by two live cells.
func facetTag(f bsp.Face, cfg Config) meshdata.SurfaceTag {
	if f.SurfaceTriangleID >= 0 {
		return meshdata.SurfaceTag{Kind: meshdata.Surface, TriangleID: f.SurfaceTriangleID}
	}
	if f.Nodes[1] == -1 {
		if cfg.IsMeshClosed {
			return meshdata.SurfaceTag{Kind: meshdata.BBox}
		}
		return meshdata.SurfaceTag{Kind: meshdata.Boundary}
	}
	return meshdata.NotSurfaceTag
}
