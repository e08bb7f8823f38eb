package refine

import (
	"math"
	"sort"

	"github.com/wedge3d/tetravol/envelope"
	"github.com/wedge3d/tetravol/geom"
	"github.com/wedge3d/tetravol/meshdata"
	"gonum.org/v1/gonum/spatial/r3"
)

// orientForTet returns v/tags permuted (swapping the last two corners,
// and their tags along with them) if needed so Orient3D(v) is Positive,
// mirroring addOrientedTet's fix-up but exposed as a query so swap
// operations can reject a candidate before committing it.
func orientForTet(m *meshdata.Mesh, v [4]int, tags [4]meshdata.SurfaceTag) ([4]int, [4]meshdata.SurfaceTag, bool) {
	pos := func(vi int) geom.Rat3 { return m.Verts[vi].Pos.Exact }
	if geom.Orient3D(pos(v[0]), pos(v[1]), pos(v[2]), pos(v[3])) == geom.Positive {
		return v, tags, true
	}
	v[2], v[3] = v[3], v[2]
	tags[2], tags[3] = tags[3], tags[2]
	if geom.Orient3D(pos(v[0]), pos(v[1]), pos(v[2]), pos(v[3])) == geom.Positive {
		return v, tags, true
	}
	return v, tags, false
}

// facetShare is a facet shared by exactly two live tets, the candidate
// shape for a 2-3 face swap.
type facetShare struct {
	t1, t2       int
	a, b, c      int
	apex1, apex2 int
}

func facetKey3(a, b, c int) [3]int {
	k := [3]int{a, b, c}
	sort.Ints(k[:])
	return k
}

// internalFacetShares finds every facet shared by exactly two live tets.
func internalFacetShares(m *meshdata.Mesh) []facetShare {
	type entry struct{ tet, apex int }
	byKey := make(map[[3]int][]entry)
	for _, id := range m.ActiveTetIDs() {
		t := m.Tets[id]
		for fi := 0; fi < 4; fi++ {
			fv := t.FacetVerts(fi)
			k := facetKey3(fv[0], fv[1], fv[2])
			byKey[k] = append(byKey[k], entry{tet: id, apex: t.V[fi]})
		}
	}
	var out []facetShare
	for k, es := range byKey {
		if len(es) != 2 {
			continue
		}
		out = append(out, facetShare{
			t1: es[0].tet, t2: es[1].tet,
			a: k[0], b: k[1], c: k[2],
			apex1: es[0].apex, apex2: es[1].apex,
		})
	}
	return out
}

// trySwapFace implements spec.md §4.8's 2-3 face SWAP: two tets sharing
// triangular facet (a,b,c) with opposite apexes p,q are replaced by
// three tets fanning the new edge (p,q) around the facet's three edges.
// Accepted iff every new tet has positive volume (I1), every surface
// facet among them stays inside the envelope (I2), and the energy
// strictly improves under the active metric (spec.md §4.8's SWAP
// contract).
func trySwapFace(m *meshdata.Mesh, env *envelope.Envelope, st *State, cfg Config, fs facetShare) bool {
	if m.Tets[fs.t1].Removed || m.Tets[fs.t2].Removed {
		return false
	}
	corners := [3]int{fs.a, fs.b, fs.c}
	p, q := fs.apex1, fs.apex2
	t1, t2 := m.Tets[fs.t1], m.Tets[fs.t2]

	oldIDs := []int{fs.t1, fs.t2}
	oldMax := maxEnergyOf(m, oldIDs)
	oldTotal := t1.Quality.SlimEnergy.Value() + t2.Quality.SlimEnergy.Value()

	type plan struct {
		v    [4]int
		tags [4]meshdata.SurfaceTag
	}
	var plans []plan
	for i := 0; i < 3; i++ {
		u1, u2 := corners[i], corners[(i+1)%3]
		omit := corners[(i+2)%3]
		tagFromP := t1.FacetTags[facetIdxOpposite(t1, omit)]
		tagFromQ := t2.FacetTags[facetIdxOpposite(t2, omit)]
		v := [4]int{p, q, u1, u2}
		tags := [4]meshdata.SurfaceTag{tagFromQ, tagFromP, meshdata.NotSurfaceTag, meshdata.NotSurfaceTag}
		if geom.Orient3D(m.Verts[v[0]].Pos.Exact, m.Verts[v[1]].Pos.Exact, m.Verts[v[2]].Pos.Exact, m.Verts[v[3]].Pos.Exact) != geom.Positive {
			// The edge p-q is not locally convex against this facet edge;
			// the 2-3 flip is not geometrically valid here.
			return false
		}
		plans = append(plans, plan{v: v, tags: tags})
	}

	var maxNewEnergy meshdata.Energy
	newTotal := 0.0
	for _, pl := range plans {
		for fi, tag := range pl.tags {
			if tag.Kind != meshdata.Surface {
				continue
			}
			fv := facetVertsOf(pl.v, fi)
			if !envelopeOKForFacetPts(m.Verts[fv[0]].Pos, m.Verts[fv[1]].Pos, m.Verts[fv[2]].Pos, st.SamplingDist, env) {
				return false
			}
		}
		energy := tetEnergy(m, pl.v)
		maxNewEnergy = meshdata.MaxEnergy(maxNewEnergy, energy)
		newTotal += energy.Value()
	}

	if cfg.UseEnergyMax {
		if !maxNewEnergy.Less(oldMax) {
			return false
		}
	} else if newTotal >= oldTotal {
		return false
	}

	removeTets(m, oldIDs)
	for _, pl := range plans {
		addOrientedTet(m, pl.v, pl.tags)
	}
	return true
}

// edgeRing returns the cyclically-ordered "off-edge" vertices of every
// live tet incident to edge (u,v), plus a lookup from an unordered ring
// pair to the tet wedge between them. Ordering is by angle around the
// (v-u) axis in rounded double coordinates — a geometric, not
// sign-bearing, operation, the same idiom bsp.orderPolygon uses for its
// cut-face loops — and is then checked against actual tet adjacency;
// ok is false if the ring does not close consistently (a non-manifold
// or otherwise malformed edge star).
func edgeRing(m *meshdata.Mesh, u, v int) (ring []int, wedgeTet map[[2]int]int, ok bool) {
	wedgeTet = make(map[[2]int]int)
	vertSet := make(map[int]bool)
	for id := range m.Verts[u].Incident {
		t := m.Tets[id]
		if t.Removed || !t.HasVertex(v) {
			continue
		}
		p, q, okk := otherTwo(t.V, u, v)
		if !okk {
			return nil, nil, false
		}
		vertSet[p] = true
		vertSet[q] = true
		wedgeTet[edgeKey(p, q)] = id
	}
	if len(vertSet) < 3 {
		return nil, nil, false
	}

	axisU, axisV := m.VertPos(u), m.VertPos(v)
	axis := r3.Sub(axisV, axisU)
	if r3.Norm(axis) == 0 {
		return nil, nil, false
	}
	axis = r3.Scale(1/r3.Norm(axis), axis)
	perp1 := arbitraryPerpVec(axis)
	perp2 := r3.Cross(axis, perp1)

	type polar struct {
		idx   int
		angle float64
	}
	var ps []polar
	for w := range vertSet {
		d := r3.Sub(m.VertPos(w), axisU)
		d = r3.Sub(d, r3.Scale(r3.Dot(d, axis), axis))
		x, y := r3.Dot(d, perp1), r3.Dot(d, perp2)
		ps = append(ps, polar{idx: w, angle: math.Atan2(y, x)})
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].angle < ps[j].angle })

	ring = make([]int, len(ps))
	for i, p := range ps {
		ring[i] = p.idx
	}
	for i := range ring {
		w0, w1 := ring[i], ring[(i+1)%len(ring)]
		if _, found := wedgeTet[edgeKey(w0, w1)]; !found {
			return nil, nil, false
		}
	}
	return ring, wedgeTet, true
}

func arbitraryPerpVec(n r3.Vec) r3.Vec {
	ref := r3.Vec{X: 1}
	if math.Abs(n.X) > 0.9 {
		ref = r3.Vec{Y: 1}
	}
	p := r3.Sub(ref, r3.Scale(r3.Dot(ref, n), n))
	l := r3.Norm(p)
	if l == 0 {
		return r3.Vec{Y: 1}
	}
	return r3.Scale(1/l, p)
}

// trySwapEdge dispatches on the size of edge (u,v)'s tet ring: 3 tets
// around the edge is a 3-2 swap, 4 is a 4-4 swap (spec.md §4.8's "3-2,
// 4-4, and 2-3 face swap variants" — 2-3 is handled by trySwapFace,
// which operates on a shared facet rather than an edge). Any other ring
// size is left alone.
func trySwapEdge(m *meshdata.Mesh, env *envelope.Envelope, st *State, cfg Config, u, v int) bool {
	ring, wedgeTet, ok := edgeRing(m, u, v)
	if !ok {
		return false
	}
	switch len(ring) {
	case 3:
		return trySwap32(m, env, st, cfg, u, v, ring, wedgeTet)
	case 4:
		return trySwap44(m, env, st, cfg, u, v, ring, wedgeTet)
	default:
		return false
	}
}

// trySwap32 implements the 3-2 swap: three tets (u,v,wi,wi+1) around
// edge (u,v) are replaced by two tets (u,w0,w1,w2) and (v,w0,w1,w2)
// sharing the new internal facet (w0,w1,w2). Each new tet's outer
// facets inherit the tag of the old wedge tet's facet opposite the
// vertex (u or v) that is not part of this new tet.
func trySwap32(m *meshdata.Mesh, env *envelope.Envelope, st *State, cfg Config, u, v int, ring []int, wedgeTet map[[2]int]int) bool {
	w := [3]int{ring[0], ring[1], ring[2]}
	oldIDs := []int{wedgeTet[edgeKey(w[0], w[1])], wedgeTet[edgeKey(w[1], w[2])], wedgeTet[edgeKey(w[2], w[0])]}
	oldMax := maxEnergyOf(m, oldIDs)
	oldTotal := 0.0
	for _, id := range oldIDs {
		oldTotal += m.Tets[id].Quality.SlimEnergy.Value()
	}

	vU := [4]int{u, w[0], w[1], w[2]}
	vV := [4]int{v, w[0], w[1], w[2]}
	var tagsU, tagsV [4]meshdata.SurfaceTag
	for i := 0; i < 3; i++ {
		a, b := w[(i+1)%3], w[(i+2)%3]
		id := wedgeTet[edgeKey(a, b)]
		t := m.Tets[id]
		tagsU[i+1] = t.FacetTags[facetIdxOpposite(t, v)]
		tagsV[i+1] = t.FacetTags[facetIdxOpposite(t, u)]
	}

	var okU, okV bool
	vU, tagsU, okU = orientForTet(m, vU, tagsU)
	vV, tagsV, okV = orientForTet(m, vV, tagsV)
	if !okU || !okV {
		return false
	}

	for _, pl := range []struct {
		v    [4]int
		tags [4]meshdata.SurfaceTag
	}{{vU, tagsU}, {vV, tagsV}} {
		for fi, tag := range pl.tags {
			if tag.Kind != meshdata.Surface {
				continue
			}
			fv := facetVertsOf(pl.v, fi)
			if !envelopeOKForFacetPts(m.Verts[fv[0]].Pos, m.Verts[fv[1]].Pos, m.Verts[fv[2]].Pos, st.SamplingDist, env) {
				return false
			}
		}
	}

	energyU := tetEnergy(m, vU)
	energyV := tetEnergy(m, vV)
	newMax := meshdata.MaxEnergy(energyU, energyV)
	newTotal := energyU.Value() + energyV.Value()

	if cfg.UseEnergyMax {
		if !newMax.Less(oldMax) {
			return false
		}
	} else if newTotal >= oldTotal {
		return false
	}

	removeTets(m, oldIDs)
	addOrientedTet(m, vU, tagsU)
	addOrientedTet(m, vV, tagsV)
	return true
}

// trySwap44 implements the 4-4 edge swap: four tets around edge (u,v),
// forming an octahedron with ring w0,w1,w2,w3, are replaced by four tets
// around the alternate diagonal (w0,w2). Restricted to edges whose
// four old tets carry no Surface-tagged facet at all (every new facet
// is then safely NotSurface); a 4-4 flip that must carry a surface tag
// across the new diagonal is not attempted.
func trySwap44(m *meshdata.Mesh, env *envelope.Envelope, st *State, cfg Config, u, v int, ring []int, wedgeTet map[[2]int]int) bool {
	w0, w1, w2, w3 := ring[0], ring[1], ring[2], ring[3]
	oldIDs := []int{
		wedgeTet[edgeKey(w0, w1)],
		wedgeTet[edgeKey(w1, w2)],
		wedgeTet[edgeKey(w2, w3)],
		wedgeTet[edgeKey(w3, w0)],
	}
	for _, id := range oldIDs {
		for _, tag := range m.Tets[id].FacetTags {
			if tag.Kind == meshdata.Surface {
				return false
			}
		}
	}

	oldMax := maxEnergyOf(m, oldIDs)
	oldTotal := 0.0
	for _, id := range oldIDs {
		oldTotal += m.Tets[id].Quality.SlimEnergy.Value()
	}

	newRing := [4]int{u, w1, v, w3}
	var plans [][4]int
	for i := 0; i < 4; i++ {
		x, y := newRing[i], newRing[(i+1)%4]
		vv := [4]int{w0, w2, x, y}
		var ok bool
		vv, _, ok = orientForTet(m, vv, [4]meshdata.SurfaceTag{})
		if !ok {
			return false
		}
		plans = append(plans, vv)
	}

	var maxNewEnergy meshdata.Energy
	newTotal := 0.0
	for _, vv := range plans {
		energy := tetEnergy(m, vv)
		maxNewEnergy = meshdata.MaxEnergy(maxNewEnergy, energy)
		newTotal += energy.Value()
	}

	if cfg.UseEnergyMax {
		if !maxNewEnergy.Less(oldMax) {
			return false
		}
	} else if newTotal >= oldTotal {
		return false
	}

	removeTets(m, oldIDs)
	for _, vv := range plans {
		addOrientedTet(m, vv, [4]meshdata.SurfaceTag{})
	}
	return true
}
