// Package conform implements the mesh conformer of spec.md §4.5: for
// each triangle of the simplified input soup, it finds which facets of
// the Delaunay tet complex already coincide with that triangle (tagging
// them Surface) and which portions of the triangle are not yet covered
// by any cell facet (recorded as cutting constraints for the BSP
// subdivider).
package conform

import (
	"sort"
	"strconv"

	"github.com/wedge3d/tetravol/geom"
	"github.com/wedge3d/tetravol/meshdata"
)

// FaceKey is a canonical, winding-independent identity for a tet
// facet's vertex set, modeled on the example pack's EdgeKey/constrained
// map idiom (iceisfun/gomesh's cdt package, SPEC_FULL.md §C) generalized
// from 2D edges to 3D facets.
type FaceKey string

// NewFaceKey builds the canonical key for a facet's three mesh-vertex
// ids.
func NewFaceKey(verts [3]int) FaceKey {
	s := verts
	sort.Ints(s[:])
	return FaceKey(strconv.Itoa(s[0]) + "," + strconv.Itoa(s[1]) + "," + strconv.Itoa(s[2]))
}

// constraintSet records, for each tet facet matched so far (keyed by its
// canonical FaceKey), the input triangle index it matched. Conform uses
// it purely as a diagnostic: two geometrically coincident facets
// matching different input triangles is only possible for degenerate or
// self-overlapping input, and Result.DuplicateMatches surfaces it rather
// than silently tagging both.
type constraintSet map[FaceKey]int

// Soup is the simplified input triangle soup, indexed into the same
// vertex array as the Delaunay mesh this package conforms against.
type Soup struct {
	Verts []geom.Point
	Faces [][3]int
}

// Cutter is an unmatched portion of an input triangle: the plane that
// the BSP subdivider must cut cells by to eventually cover TriIdx's
// triangle with a union of cell facets (spec.md §4.6's worklist entry).
type Cutter struct {
	TriIdx int
	A, B, C geom.Rat3 // the triangle's own vertices, the cutting plane's support
}

// Result reports which facets already conform (and have been tagged
// Surface on the mesh in place) and which input triangles still need
// BSP cuts.
type Result struct {
	MatchedFacets int
	Cutters       []Cutter

	// DuplicateMatches counts facets whose canonical vertex set (FaceKey)
	// was already matched to a different input triangle, which should
	// only happen for degenerate or self-overlapping input soups.
	DuplicateMatches int
}

// Conform tags every tet facet in m that lies within an input triangle's
// plane and is fully covered by that triangle, and returns a Cutter for
// every input triangle that has no such fully-covering facet yet.
func Conform(m *meshdata.Mesh, soup Soup) Result {
	result := Result{}

	triBoxes := make([]geom.Box3, len(soup.Faces))
	for i, f := range soup.Faces {
		triBoxes[i] = geom.EmptyBox3().
			Extend(soup.Verts[f[0]].Rounded).
			Extend(soup.Verts[f[1]].Rounded).
			Extend(soup.Verts[f[2]].Rounded)
	}

	matched := make([]bool, len(soup.Faces))
	cset := make(constraintSet)

	for ti := range m.Tets {
		if m.Tets[ti].Removed {
			continue
		}
		for fi := 0; fi < 4; fi++ {
			facetVerts := m.Tets[ti].FacetVerts(fi)
			var fBox geom.Box3
			fBox = geom.EmptyBox3().
				Extend(m.VertPos(facetVerts[0])).
				Extend(m.VertPos(facetVerts[1])).
				Extend(m.VertPos(facetVerts[2]))

			for triIdx, f := range soup.Faces {
				if !triBoxes[triIdx].ContainsBox(fBox) {
					continue
				}
				a := soup.Verts[f[0]].Exact
				b := soup.Verts[f[1]].Exact
				c := soup.Verts[f[2]].Exact

				if facetMatchesTriangle(m, facetVerts, a, b, c) {
					key := NewFaceKey(facetVerts)
					if prevTri, ok := cset[key]; ok && prevTri != triIdx {
						result.DuplicateMatches++
					}
					cset[key] = triIdx
					m.Tets[ti].FacetTags[fi] = meshdata.SurfaceTag{Kind: meshdata.Surface, TriangleID: triIdx}
					matched[triIdx] = true
					result.MatchedFacets++
					break
				}
			}
		}
	}

	for triIdx, f := range soup.Faces {
		if matched[triIdx] {
			continue
		}
		result.Cutters = append(result.Cutters, Cutter{
			TriIdx: triIdx,
			A:      soup.Verts[f[0]].Exact,
			B:      soup.Verts[f[1]].Exact,
			C:      soup.Verts[f[2]].Exact,
		})
	}
	return result
}

// facetMatchesTriangle implements spec.md §4.5's matched-facet test:
// coplanar with (a,b,c), and every one of the facet's three corners
// falls within (a,b,c)'s footprint.
func facetMatchesTriangle(m *meshdata.Mesh, facetVerts [3]int, a, b, c geom.Rat3) bool {
	for _, vi := range facetVerts {
		p := m.Verts[vi].Pos.Exact
		if geom.Orient3D(a, b, c, p) != geom.Zero {
			return false
		}
	}
	for _, vi := range facetVerts {
		p := m.Verts[vi].Pos.Exact
		if !geom.PointInTriangle(p, a, b, c) {
			return false
		}
	}
	return true
}
