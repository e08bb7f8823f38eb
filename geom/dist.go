package geom

import "gonum.org/v1/gonum/spatial/r3"

// ClosestPointOnTriangle returns the point of triangle (a,b,c) closest to
// p, using the classic Voronoi-region walk (Ericson, Real-Time Collision
// Detection §5.1.5). This is a rounded-double routine: the envelope
// predicate only needs a distance comparison against eps^2, not a sign
// that has to survive exact arithmetic, so floats are fine here (spec.md
// §4.1 reserves exactness for orientation/in-sphere/intersection signs).
func ClosestPointOnTriangle(p, a, b, c r3.Vec) r3.Vec {
	ab := r3.Sub(b, a)
	ac := r3.Sub(c, a)
	ap := r3.Sub(p, a)

	d1 := r3.Dot(ab, ap)
	d2 := r3.Dot(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := r3.Sub(p, b)
	d3 := r3.Dot(ab, bp)
	d4 := r3.Dot(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return r3.Add(a, r3.Scale(v, ab))
	}

	cp := r3.Sub(p, c)
	d5 := r3.Dot(ab, cp)
	d6 := r3.Dot(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return r3.Add(a, r3.Scale(w, ac))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return r3.Add(b, r3.Scale(w, r3.Sub(c, b)))
	}

	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return r3.Add(a, r3.Add(r3.Scale(v, ab), r3.Scale(w, ac)))
}

// Dist2PointTriangle returns the squared distance from p to the closest
// point of triangle (a,b,c).
func Dist2PointTriangle(p, a, b, c r3.Vec) float64 {
	cp := ClosestPointOnTriangle(p, a, b, c)
	return r3.Norm2(r3.Sub(p, cp))
}

// TriangleArea2 returns twice the area of triangle (a,b,c), i.e. the norm
// of the cross product of two edges. Used to reject zero-area triangles
// (spec.md §3's simplified-soup invariant (c)).
func TriangleArea2(a, b, c r3.Vec) float64 {
	return r3.Norm(r3.Cross(r3.Sub(b, a), r3.Sub(c, a)))
}

// TriangleNormal returns the (non-unit) normal of triangle (a,b,c).
func TriangleNormal(a, b, c r3.Vec) r3.Vec {
	return r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
}
