// Package delaunay builds an incremental 3D Delaunay tetrahedralization
// of a point set (spec.md §4.4), generalizing the classic 2D
// super-triangle/edge-buffer Bowyer–Watson construction to tetrahedra: a
// super-tet enclosing every input point, a facet-buffer cavity
// re-triangulation per inserted vertex, and a final pass dropping every
// tet still touching a super-tet corner.
package delaunay

import (
	"errors"
	"fmt"
	"sort"

	"github.com/wedge3d/tetravol/geom"
	"github.com/wedge3d/tetravol/meshdata"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrEmptyInput is returned for a zero-length point set (spec.md §7's
// EmptyInput error kind).
var ErrEmptyInput = errors.New("delaunay: no input points")

// tetI is a tet referencing the working vertex slice (which includes the
// four super-tet corners appended after the caller's points).
type tetI [4]int

// tetSlot is a tombstoned tet-storage cell: index-stable, so a slot's
// position never changes once assigned, which is what lets adj below
// reference tets by index across the whole insertion loop (iceisfun's
// gomesh Locator, SPEC_FULL.md §C, keeps its tet arena the same way).
type tetSlot struct {
	t     tetI
	valid bool
}

// facetKey is a canonical (sorted) facet identity used both to find the
// boundary of a cavity (a facet shared by exactly two bad tets is
// interior and cancels out; shared by one bounds the cavity) and, via
// adj below, to walk from tet to tet across shared facets.
type facetKey [3]int

func newFacetKey(a, b, c int) facetKey {
	s := [3]int{a, b, c}
	sort.Ints(s[:])
	return facetKey(s)
}

// facetVerts returns the three vertices of facet fi of t, using the same
// opposite-vertex convention as meshdata.Tet.FacetVerts.
func facetVerts(t tetI, fi int) [3]int {
	switch fi {
	case 0:
		return [3]int{t[1], t[2], t[3]}
	case 1:
		return [3]int{t[0], t[2], t[3]}
	case 2:
		return [3]int{t[0], t[1], t[3]}
	default:
		return [3]int{t[0], t[1], t[2]}
	}
}

// insideSign is the Orient3D sign a point strictly inside a positively
// oriented tet must produce against facet fi. Facet 3, (v0,v1,v2), is the
// tet's own defining triple, so by construction Orient3D(v0,v1,v2,v3) is
// Positive; the other three facets are each one permutation away from
// that triple (a 4-cycle for facet 0, a 3-cycle fixing v0 for facet 1, a
// transposition for facet 2), alternating the sign of the determinant
// with the permutation's parity.
func insideSign(fi int) geom.Sign {
	if fi%2 == 0 {
		return geom.Negative
	}
	return geom.Positive
}

// addTetAdj and removeTetAdj keep adj, a facetKey-to-incident-slots
// index, in sync as slots are created and tombstoned.
func addTetAdj(slot int, t tetI, adj map[facetKey][]int) {
	for fi := 0; fi < 4; fi++ {
		fv := facetVerts(t, fi)
		k := newFacetKey(fv[0], fv[1], fv[2])
		adj[k] = append(adj[k], slot)
	}
}

func removeTetAdj(slot int, t tetI, adj map[facetKey][]int) {
	for fi := 0; fi < 4; fi++ {
		fv := facetVerts(t, fi)
		k := newFacetKey(fv[0], fv[1], fv[2])
		ids := adj[k]
		for i, id := range ids {
			if id == slot {
				ids[i] = ids[len(ids)-1]
				ids = ids[:len(ids)-1]
				break
			}
		}
		if len(ids) == 0 {
			delete(adj, k)
		} else {
			adj[k] = ids
		}
	}
}

// otherTet returns the incident slot in ids other than self, or -1 if
// self is the only (hull-boundary) occupant of that facet.
func otherTet(ids []int, self int) int {
	for _, id := range ids {
		if id != self {
			return id
		}
	}
	return -1
}

// locate walks from start across shared facets toward p, stepping to the
// neighbor across whichever facet p falls on the wrong side of, the same
// hint-and-walk point location iceisfun/gomesh's Locator performs
// (SPEC_FULL.md §C) generalized from a 2D triangulation to tets. It
// returns -1 (never a hard error) on any failure to converge, including
// hitting the hull boundary or a stale start index; every caller falls
// back to a full scan of slots in that case.
func locate(all []geom.Point, slots []tetSlot, adj map[facetKey][]int, start int, p geom.Rat3) int {
	if start < 0 || start >= len(slots) || !slots[start].valid {
		return -1
	}
	cur := start
	visited := make(map[int]bool, 8)
	for iter := 0; iter < len(slots)+8; iter++ {
		if visited[cur] {
			return -1
		}
		visited[cur] = true

		t := slots[cur].t
		next := -1
		for fi := 0; fi < 4; fi++ {
			fv := facetVerts(t, fi)
			ori := geom.Orient3D(all[fv[0]].Exact, all[fv[1]].Exact, all[fv[2]].Exact, p)
			if ori == insideSign(fi) || ori == geom.Zero {
				continue
			}
			k := newFacetKey(fv[0], fv[1], fv[2])
			nb := otherTet(adj[k], cur)
			if nb < 0 {
				return -1
			}
			next = nb
			break
		}
		if next < 0 {
			return cur
		}
		cur = next
	}
	return -1
}

// gatherCavity floods outward from seed across shared facets, collecting
// every tet whose circumsphere contains p. Bad tets always form a
// facet-connected cavity around an inserted point, so this BFS finds
// exactly the same set the brute-force scan would, evaluating InSphere
// only on tets actually adjacent to an already-bad one instead of on
// every live tet in the mesh.
func gatherCavity(all []geom.Point, slots []tetSlot, adj map[facetKey][]int, seed int, p geom.Rat3) []int {
	if seed < 0 || !slots[seed].valid || !inCircumsphere(all, slots[seed].t, p) {
		return nil
	}
	visited := map[int]bool{seed: true}
	bad := []int{seed}
	queue := []int{seed}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		t := slots[cur].t
		for fi := 0; fi < 4; fi++ {
			fv := facetVerts(t, fi)
			k := newFacetKey(fv[0], fv[1], fv[2])
			nb := otherTet(adj[k], cur)
			if nb < 0 || visited[nb] || !slots[nb].valid {
				continue
			}
			if inCircumsphere(all, slots[nb].t, p) {
				visited[nb] = true
				bad = append(bad, nb)
				queue = append(queue, nb)
			}
		}
	}
	return bad
}

// Tetrahedralize inserts pts one at a time into a Bowyer–Watson
// construction and returns the resulting mesh (I1's positive-orientation
// invariant holds for every returned tet). The returned mesh's vertex
// order matches pts exactly; no super-tet vertex or tet survives into
// the result.
func Tetrahedralize(pts []geom.Point) (*meshdata.Mesh, error) {
	n := len(pts)
	if n == 0 {
		return nil, ErrEmptyInput
	}
	if n < 4 {
		return nil, fmt.Errorf("delaunay: need at least 4 points, got %d", n)
	}

	all := make([]geom.Point, n, n+4)
	copy(all, pts)
	super := superTet(all)
	all = append(all, super[:]...)

	root := tetI{n, n + 1, n + 2, n + 3}
	if !isPositivelyOriented(all, root) {
		root = tetI{n + 1, n, n + 2, n + 3}
	}

	slots := []tetSlot{{t: root, valid: true}}
	adj := make(map[facetKey][]int)
	addTetAdj(0, root, adj)
	lastSlot := 0

	for i := 0; i < n; i++ {
		p := all[i].Exact

		var bad []int
		if seed := locate(all, slots, adj, lastSlot, p); seed >= 0 {
			bad = gatherCavity(all, slots, adj, seed, p)
		}
		if len(bad) == 0 {
			// The cached walk failed to converge (stale hint, hull
			// boundary, numerical tie) or found no cavity; fall back to
			// the exhaustive scan so correctness never depends on the
			// locator succeeding.
			for si, slot := range slots {
				if slot.valid && inCircumsphere(all, slot.t, p) {
					bad = append(bad, si)
				}
			}
		}
		if len(bad) == 0 {
			// p lies outside every current tet's circumsphere, which for
			// a point that is itself a future vertex of this
			// triangulation can only mean it coincides with an existing
			// vertex (P3 violation upstream) or the working tet set
			// already has a numerical degeneracy (spec.md §7's
			// PredicateDegeneracy).
			return nil, fmt.Errorf("%w: point %d falls outside every tet's circumsphere", errPredicateDegeneracy, i)
		}

		count := make(map[facetKey]int, len(bad)*4)
		orient := make(map[facetKey][3]int, len(bad)*4)
		for _, si := range bad {
			t := slots[si].t
			for fi := 0; fi < 4; fi++ {
				fv := facetVerts(t, fi)
				k := newFacetKey(fv[0], fv[1], fv[2])
				count[k]++
				orient[k] = fv
			}
		}

		for _, si := range bad {
			removeTetAdj(si, slots[si].t, adj)
			slots[si].valid = false
		}

		for k, fv := range count {
			if fv != 1 {
				continue
			}
			fverts := orient[k]
			nt := tetI{fverts[0], fverts[1], fverts[2], i}
			if !isPositivelyOriented(all, nt) {
				nt = tetI{fverts[1], fverts[0], fverts[2], i}
			}
			slots = append(slots, tetSlot{t: nt, valid: true})
			newIdx := len(slots) - 1
			addTetAdj(newIdx, nt, adj)
			lastSlot = newIdx
		}
	}

	m := meshdata.New()
	for _, p := range pts {
		m.AddVertex(p)
	}
	for _, slot := range slots {
		if !slot.valid {
			continue
		}
		t := slot.t
		if t[0] >= n || t[1] >= n || t[2] >= n || t[3] >= n {
			continue
		}
		m.AddTet([4]int{t[0], t[1], t[2], t[3]})
	}
	return m, nil
}

var errPredicateDegeneracy = errors.New("delaunay degeneracy")

// superTet returns four points whose tetrahedron strictly encloses every
// point in all, built the same way the 2D reference construction derives
// its super-triangle from the point set's bounding box: center plus a
// multiple of the box's extent.
func superTet(all []geom.Point) [4]geom.Point {
	box := geom.EmptyBox3()
	for _, p := range all {
		box = box.Extend(p.Rounded)
	}
	c := box.Center()
	k := box.Diag()
	if k == 0 {
		k = 1
	}
	k *= 8

	// A regular tetrahedron centered at c, scaled by k, oriented so the
	// base (first three vertices) is positive when viewed from the apex.
	p0 := r3.Add(c, r3.Vec{X: -k, Y: -k, Z: -k})
	p1 := r3.Add(c, r3.Vec{X: k, Y: k, Z: -k})
	p2 := r3.Add(c, r3.Vec{X: k, Y: -k, Z: k})
	p3 := r3.Add(c, r3.Vec{X: -k, Y: k, Z: k})

	return [4]geom.Point{
		geom.NewPoint(p0.X, p0.Y, p0.Z),
		geom.NewPoint(p1.X, p1.Y, p1.Z),
		geom.NewPoint(p2.X, p2.Y, p2.Z),
		geom.NewPoint(p3.X, p3.Y, p3.Z),
	}
}

func isPositivelyOriented(all []geom.Point, t tetI) bool {
	return geom.Orient3D(all[t[0]].Exact, all[t[1]].Exact, all[t[2]].Exact, all[t[3]].Exact) == geom.Positive
}

func inCircumsphere(all []geom.Point, t tetI, p geom.Rat3) bool {
	tet := geom.NewTetrahedron(all[t[0]].Exact, all[t[1]].Exact, all[t[2]].Exact, all[t[3]].Exact)
	return tet.InSphere(p) == geom.Positive
}
