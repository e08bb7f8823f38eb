package meshdata

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// QualityRecord is spec.md §3's {min_d_angle, max_d_angle, slim_energy}
// per-tet record.
type QualityRecord struct {
	MinDihedral float64
	MaxDihedral float64
	SlimEnergy  Energy
}

// edgeDihedral returns the dihedral angle at edge (p0,p1), given the two
// remaining tet vertices p2 (on one adjoining face) and p3 (on the
// other). The angle is computed directly between the edge-perpendicular
// components of (p2-p0) and (p3-p0), which avoids needing outward-facing
// normals.
func edgeDihedral(p0, p1, p2, p3 r3.Vec) float64 {
	e := r3.Sub(p1, p0)
	norm := r3.Norm(e)
	if norm == 0 {
		return 0
	}
	e = r3.Scale(1/norm, e)

	u := r3.Sub(p2, p0)
	u = r3.Sub(u, r3.Scale(r3.Dot(u, e), e))
	v := r3.Sub(p3, p0)
	v = r3.Sub(v, r3.Scale(r3.Dot(v, e), e))

	nu, nv := r3.Norm(u), r3.Norm(v)
	if nu == 0 || nv == 0 {
		return 0
	}
	cos := r3.Dot(u, v) / (nu * nv)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos)
}

// DihedralAngles returns the six dihedral angles of tet (a,b,c,d), one
// per edge, in radians.
func DihedralAngles(a, b, c, d r3.Vec) [6]float64 {
	return [6]float64{
		edgeDihedral(a, b, c, d),
		edgeDihedral(a, c, b, d),
		edgeDihedral(a, d, b, c),
		edgeDihedral(b, c, a, d),
		edgeDihedral(b, d, a, c),
		edgeDihedral(c, d, a, b),
	}
}

// MinMaxDihedral returns the smallest and largest of the six dihedral
// angles of tet (a,b,c,d).
func MinMaxDihedral(a, b, c, d r3.Vec) (min, max float64) {
	angles := DihedralAngles(a, b, c, d)
	min, max = angles[0], angles[0]
	for _, x := range angles[1:] {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
	}
	return min, max
}

// referenceTet is a fixed regular tetrahedron used as the AMIPS reference
// element. Because the AMIPS energy is scale-invariant, any regular tet
// works; this one is centered at the origin with edge length 2*sqrt(2).
// Its corners are listed in positive orientation (Orient3D > 0), so a
// positively oriented tet maps to det(J) > 0.
var referenceTet = [4]r3.Vec{
	{X: 1, Y: 1, Z: 1},
	{X: -1, Y: 1, Z: -1},
	{X: 1, Y: -1, Z: -1},
	{X: -1, Y: -1, Z: 1},
}

var referenceTetEdgeInv = computeReferenceTetEdgeInv()

func computeReferenceTetEdgeInv() *mat.Dense {
	dm := edgeMatrix(referenceTet[0], referenceTet[1], referenceTet[2], referenceTet[3])
	var inv mat.Dense
	if err := inv.Inverse(dm); err != nil {
		// referenceTet is a fixed, non-degenerate regular tet; this can
		// only fail if the constant above is wrong.
		panic("meshdata: degenerate AMIPS reference tetrahedron: " + err.Error())
	}
	return &inv
}

// edgeMatrix returns the 3x3 matrix whose columns are (b-a), (c-a), (d-a).
func edgeMatrix(a, b, c, d r3.Vec) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		b.X - a.X, c.X - a.X, d.X - a.X,
		b.Y - a.Y, c.Y - a.Y, d.Y - a.Y,
		b.Z - a.Z, c.Z - a.Z, d.Z - a.Z,
	})
}

// AMIPSEnergy computes spec.md §4.8's shape-distortion energy:
//
//	E(t) = (tr(JᵀJ))^(3/2) / (3^(3/2) * det(J))
//
// where J maps the reference regular tet onto (a,b,c,d). Returns
// InfEnergy when det(J) <= 1e-14 (inverted or degenerate), per spec.md's
// explicit requirement that this case be first-class.
func AMIPSEnergy(a, b, c, d r3.Vec) Energy {
	dx := edgeMatrix(a, b, c, d)
	var j mat.Dense
	j.Mul(dx, referenceTetEdgeInv)

	det := mat.Det(&j)
	if det <= 1e-14 {
		return InfEnergy
	}

	var jtj mat.Dense
	jtj.Mul(j.T(), &j)
	tr := jtj.Trace()

	energy := math.Pow(tr, 1.5) / (math.Pow(3, 1.5) * det)
	return FiniteEnergy(energy)
}
