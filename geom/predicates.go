package geom

import "math/big"

// Sign is the exact outcome of an orientation/in-sphere predicate. It is
// never "inconclusive" for well-formed rational input: with exact
// arithmetic the only way to get an unexpected answer is a genuine
// degeneracy in the input itself (PredicateDegeneracy, spec.md §7).
type Sign int

const (
	Negative Sign = -1
	Zero     Sign = 0
	Positive Sign = 1
)

func signOfRat(r *big.Rat) Sign {
	switch r.Sign() {
	case 1:
		return Positive
	case -1:
		return Negative
	default:
		return Zero
	}
}

// det3 is the determinant of a 3x3 matrix of exact rationals, used by
// Orient3D directly and by det4's cofactor expansion.
func det3(m [3][3]*big.Rat) *big.Rat {
	t1 := new(big.Rat).Sub(mulRat(m[1][1], m[2][2]), mulRat(m[1][2], m[2][1]))
	t2 := new(big.Rat).Sub(mulRat(m[1][0], m[2][2]), mulRat(m[1][2], m[2][0]))
	t3 := new(big.Rat).Sub(mulRat(m[1][0], m[2][1]), mulRat(m[1][1], m[2][0]))
	res := new(big.Rat)
	res.Add(res, mulRat(m[0][0], t1))
	res.Sub(res, mulRat(m[0][1], t2))
	res.Add(res, mulRat(m[0][2], t3))
	return res
}

// det4 is the determinant of a 4x4 matrix of exact rationals, computed by
// Laplace expansion along the first row into four det3 minors.
func det4(m [4][4]*big.Rat) *big.Rat {
	res := new(big.Rat)
	sign := 1
	for col := 0; col < 4; col++ {
		var minor [3][3]*big.Rat
		oc := 0
		for c := 0; c < 4; c++ {
			if c == col {
				continue
			}
			for r := 1; r < 4; r++ {
				minor[r-1][oc] = m[r][c]
			}
			oc++
		}
		term := mulRat(m[0][col], det3(minor))
		if sign < 0 {
			term.Neg(term)
		}
		res.Add(res, term)
		sign = -sign
	}
	return res
}

// Orient3D returns the sign of the signed volume of the tetrahedron
// (a,b,c,d). Positive means d lies on the side of plane (a,b,c) such that
// (a,b,c,d) has positive (right-handed) orientation; this is the
// convention every caller in this module assumes for "positive volume"
// (I1, spec.md §4.1, §4.8).
func Orient3D(a, b, c, d Rat3) Sign {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ad := d.Sub(a)
	return signOfRat(dotRat(ab, crossRat(ac, ad)))
}

// InSphere returns Positive iff p lies strictly inside the circumsphere
// of (a,b,c,d), assuming (a,b,c,d) is positively oriented (Orient3D > 0).
// If (a,b,c,d) is negatively oriented the caller must negate the result;
// that asymmetry is why every call site in this package routes through
// Tetrahedron.InSphere instead of calling this directly.
func InSphere(a, b, c, d, p Rat3) Sign {
	pts := [4]Rat3{a, b, c, d}
	var m [4][4]*big.Rat
	for i, v := range pts {
		dx := new(big.Rat).Sub(v.X, p.X)
		dy := new(big.Rat).Sub(v.Y, p.Y)
		dz := new(big.Rat).Sub(v.Z, p.Z)
		sq := new(big.Rat)
		sq.Add(sq, mulRat(dx, dx))
		sq.Add(sq, mulRat(dy, dy))
		sq.Add(sq, mulRat(dz, dz))
		m[i] = [4]*big.Rat{dx, dy, dz, sq}
	}
	// det4 is negative for a point inside the circumsphere of a positively
	// oriented tet, so its sign is flipped to match the contract above.
	return -signOfRat(det4(m))
}

// Tetrahedron is four exact vertices with a cached orientation, so
// InSphere callers never have to remember the sign convention above.
type Tetrahedron struct {
	V   [4]Rat3
	Ori Sign
}

// NewTetrahedron computes and caches the orientation of (a,b,c,d).
func NewTetrahedron(a, b, c, d Rat3) Tetrahedron {
	return Tetrahedron{V: [4]Rat3{a, b, c, d}, Ori: Orient3D(a, b, c, d)}
}

// InSphere returns Positive iff p lies inside this tet's circumsphere,
// regardless of the tet's own orientation.
func (t Tetrahedron) InSphere(p Rat3) Sign {
	s := InSphere(t.V[0], t.V[1], t.V[2], t.V[3], p)
	if t.Ori == Negative {
		return -s
	}
	return s
}

// Volume6 returns six times the signed volume of (a,b,c,d) as an exact
// rational (the determinant Orient3D takes the sign of). Used by the
// AMIPS energy computation and by quality-record bookkeeping that needs
// a magnitude, not just a sign.
func Volume6(a, b, c, d Rat3) *big.Rat {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ad := d.Sub(a)
	return dotRat(ab, crossRat(ac, ad))
}
