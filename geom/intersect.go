package geom

import "math/big"

// SegmentTriangleIntersect reports whether segment (p0,p1) crosses or
// touches the closed triangle (t0,t1,t2), and if so the exact
// intersection point. Hits on an edge or vertex of the triangle count, as
// does a segment with one endpoint on the triangle's plane; a segment
// lying in that plane does not. The test is the standard sign-only
// construction (no division until the final, closed-form point
// computation): p0 and p1 must not lie strictly on the same side of the
// triangle's plane, and the segment must not pass strictly outside any of
// the three "wedge" planes formed by the segment and each triangle edge.
// Every sign used is an Orient3D call, so the
// classification is exact; only the reported point (needed for BSP
// cutting, not for classification) involves a division, via Lerp.
func SegmentTriangleIntersect(p0, p1, t0, t1, t2 Rat3) (hit bool, point Rat3, ok bool) {
	s0 := Orient3D(t0, t1, t2, p0)
	s1 := Orient3D(t0, t1, t2, p1)
	if s0 == s1 {
		// Both endpoints on the same side (or both on the plane): no
		// proper crossing of the plane.
		return false, Rat3{}, false
	}
	if s0 == Zero && s1 == Zero {
		// Segment lies in the triangle's plane; treat as no transversal
		// crossing (callers handle coplanar cases separately).
		return false, Rat3{}, false
	}

	// Orientation of the segment against each of the triangle's three
	// edge-wedge planes must agree in sign for the crossing point to lie
	// inside the triangle.
	a := Orient3D(p0, p1, t0, t1)
	b := Orient3D(p0, p1, t1, t2)
	c := Orient3D(p0, p1, t2, t0)
	if !sameNonzeroSign(a, b, c) {
		return false, Rat3{}, false
	}

	// Closed-form parameter along p0->p1 where the plane is crossed:
	// t = vol(t0,t1,t2,p0) / (vol(t0,t1,t2,p0) - vol(t0,t1,t2,p1)).
	v0 := Volume6(t0, t1, t2, p0)
	v1 := Volume6(t0, t1, t2, p1)
	denom := new(big.Rat).Sub(v0, v1)
	if denom.Sign() == 0 {
		return false, Rat3{}, false
	}
	t := new(big.Rat).Quo(v0, denom)
	return true, p0.Lerp(p1, t), true
}

// SegmentPlaneIntersect reports whether segment (p0,p1) crosses the
// infinite plane through (a,b,c), unlike SegmentTriangleIntersect which
// also requires the crossing to land inside the triangle. Used by the
// BSP subdivider, which cuts a whole cell by a cutter's supporting
// plane, not just the cutter triangle's footprint.
func SegmentPlaneIntersect(p0, p1, a, b, c Rat3) (hit bool, point Rat3) {
	s0 := Orient3D(a, b, c, p0)
	s1 := Orient3D(a, b, c, p1)
	if s0 == s1 {
		return false, Rat3{}
	}
	v0 := Volume6(a, b, c, p0)
	v1 := Volume6(a, b, c, p1)
	denom := new(big.Rat).Sub(v0, v1)
	if denom.Sign() == 0 {
		return false, Rat3{}
	}
	t := new(big.Rat).Quo(v0, denom)
	return true, p0.Lerp(p1, t)
}

// sameNonzeroSign reports whether every given sign is equal and not Zero,
// OR all are Zero-or-matching (a vertex/edge-grazing hit is still counted
// as inside, matching the spec's "union of cell facets" coverage notion
// in §4.6, which must not drop boundary-grazing crossings).
func sameNonzeroSign(signs ...Sign) bool {
	var want Sign
	have := false
	for _, s := range signs {
		if s == Zero {
			continue
		}
		if !have {
			want = s
			have = true
			continue
		}
		if s != want {
			return false
		}
	}
	return true
}

// TrianglesIntersect is an exact test for whether two triangles touch or
// cross. It checks each edge of one triangle against the other and vice
// versa (contact at an edge or vertex counts). For coplanar triangles,
// whose edges never cross the other triangle transversally, it only
// checks whether the first vertex of either triangle lies inside or on
// the other; a coplanar overlap containing neither first vertex is
// reported as no intersection.
func TrianglesIntersect(a [3]Rat3, b [3]Rat3) bool {
	abEdges := [3][2]Rat3{{a[0], a[1]}, {a[1], a[2]}, {a[2], a[0]}}
	for _, e := range abEdges {
		if hit, _, ok := SegmentTriangleIntersect(e[0], e[1], b[0], b[1], b[2]); hit && ok {
			return true
		}
	}
	baEdges := [3][2]Rat3{{b[0], b[1]}, {b[1], b[2]}, {b[2], b[0]}}
	for _, e := range baEdges {
		if hit, _, ok := SegmentTriangleIntersect(e[0], e[1], a[0], a[1], a[2]); hit && ok {
			return true
		}
	}
	// Coplanar-with-no-edge-crossing case: the first vertex of one
	// triangle lying inside or on the other also counts.
	if (Orient3D(b[0], b[1], b[2], a[0]) == Zero && pointInTriangle(a[0], b)) ||
		(Orient3D(a[0], a[1], a[2], b[0]) == Zero && pointInTriangle(b[0], a)) {
		return true
	}
	return false
}

func pointInTriangle(p Rat3, t [3]Rat3) bool {
	return PointInTriangle(p, t[0], t[1], t[2])
}

// PointInTriangle reports whether p, assumed coplanar with (a,b,c), lies
// within or on the boundary of the triangle. Coplanarity is not checked
// here; callers that have not already established it (e.g. with
// Orient3D(a,b,c,p) == Zero) get a meaningless answer.
func PointInTriangle(p, a, b, c Rat3) bool {
	n := crossRat(b.Sub(a), c.Sub(a))
	s0 := signOfRat(dotRat(crossRat(b.Sub(a), p.Sub(a)), n))
	s1 := signOfRat(dotRat(crossRat(c.Sub(b), p.Sub(b)), n))
	s2 := signOfRat(dotRat(crossRat(a.Sub(c), p.Sub(c)), n))
	return sameNonzeroSign(s0, s1, s2)
}
