package refine

import (
	"github.com/wedge3d/tetravol/envelope"
	"github.com/wedge3d/tetravol/geom"
	"github.com/wedge3d/tetravol/meshdata"
	"gonum.org/v1/gonum/spatial/r3"
)

// smoothLineSearchSteps are the successively-halved step fractions
// trySmooth tries between the vertex's current position and its
// one-ring-energy-minimizing target, mirroring the damped line search
// spec.md §4.8's SMOOTH contract calls for ("line-search vertex
// relocation").
var smoothLineSearchSteps = []float64{1, 0.5, 0.25, 0.125, 0.0625}

// oneRingTets returns the live tets incident to v.
func oneRingTets(m *meshdata.Mesh, v int) []int {
	ids := make([]int, 0, len(m.Verts[v].Incident))
	for id := range m.Verts[v].Incident {
		if !m.Tets[id].Removed {
			ids = append(ids, id)
		}
	}
	return ids
}

// oneRingTarget returns the position that minimizes the sum of AMIPS
// energies of v's incident tets to first order: the mean of each tet's
// "ideal" placement of v given its other three corners, which for the
// AMIPS reference tet reduces to the centroid of the one-ring's
// opposite-facet centroids. This is a cheap, teacher-idiom-consistent
// stand-in for a full Newton step (spec.md §9 leaves the exact smoothing
// objective implementation-defined beyond "improves local energy").
func oneRingTarget(m *meshdata.Mesh, v int, ringIDs []int) r3.Vec {
	var sum r3.Vec
	n := 0
	for _, id := range ringIDs {
		t := m.Tets[id]
		fi := facetIdxOpposite(t, v)
		fv := t.FacetVerts(fi)
		c := r3.Add(r3.Add(m.VertPos(fv[0]), m.VertPos(fv[1])), m.VertPos(fv[2]))
		c = r3.Scale(1.0/3.0, c)
		sum = r3.Add(sum, c)
		n++
	}
	if n == 0 {
		return m.VertPos(v)
	}
	return r3.Scale(1/float64(n), sum)
}

// oneRingMaxEnergy returns the max AMIPS energy of v's one-ring if v
// were placed at pos, and reports whether every tet stayed positively
// oriented (I1).
func oneRingMaxEnergy(m *meshdata.Mesh, v int, ringIDs []int, pos r3.Vec) (meshdata.Energy, bool) {
	var max meshdata.Energy
	for _, id := range ringIDs {
		t := m.Tets[id]
		var pts [4]r3.Vec
		for i, vi := range t.V {
			if vi == v {
				pts[i] = pos
			} else {
				pts[i] = m.VertPos(vi)
			}
		}
		n := geom.TriangleNormal(pts[0], pts[1], pts[2])
		// A cheap positive-orientation check against the rounded corners.
		// It is the only orientation check on the SMOOTH path:
		// commitSmoothedVertex re-derives the exact position from the
		// accepted double without an exact geom.Orient3D test.
		if r3.Dot(n, r3.Sub(pts[3], pts[0])) <= 0 {
			return meshdata.InfEnergy, false
		}
		e := meshdata.AMIPSEnergy(pts[0], pts[1], pts[2], pts[3])
		max = meshdata.MaxEnergy(max, e)
	}
	return max, true
}

// projectSmoothedPosition re-projects a moved surface vertex back onto
// the input surface (or the one-ring plane, per cfg.UseOneringProjection)
// so SMOOTH never drifts a surface vertex away from I2's envelope.
func projectSmoothedPosition(m *meshdata.Mesh, env *envelope.Envelope, cfg Config, v int, ringIDs []int, target r3.Vec) r3.Vec {
	vert := m.Verts[v]
	if !vert.OnSurface {
		return target
	}
	if cfg.UseOneringProjection || env == nil {
		return oneRingPlaneProject(m, v, ringIDs, target)
	}
	return env.ClosestPoint(target)
}

// oneRingPlaneProject projects target onto a plane through the centroid
// of v's current one-ring neighbors, whose normal is the sum of the cross
// products of consecutive neighbor offsets from that centroid (in the
// order the neighbors are first met); it is not a least-squares fit. A
// cheap local alternative to envelope closest-point queries (spec.md §9's
// UseOneringProjection option).
func oneRingPlaneProject(m *meshdata.Mesh, v int, ringIDs []int, target r3.Vec) r3.Vec {
	var centroid r3.Vec
	var neighbors []r3.Vec
	seen := map[int]bool{}
	for _, id := range ringIDs {
		t := m.Tets[id]
		for _, vi := range t.V {
			if vi == v || seen[vi] {
				continue
			}
			seen[vi] = true
			p := m.VertPos(vi)
			neighbors = append(neighbors, p)
			centroid = r3.Add(centroid, p)
		}
	}
	if len(neighbors) < 3 {
		return target
	}
	centroid = r3.Scale(1/float64(len(neighbors)), centroid)
	var normal r3.Vec
	for i := 0; i < len(neighbors); i++ {
		a := r3.Sub(neighbors[i], centroid)
		b := r3.Sub(neighbors[(i+1)%len(neighbors)], centroid)
		normal = r3.Add(normal, r3.Cross(a, b))
	}
	if r3.Norm(normal) == 0 {
		return target
	}
	normal = r3.Scale(1/r3.Norm(normal), normal)
	d := r3.Dot(r3.Sub(target, centroid), normal)
	return r3.Sub(target, r3.Scale(d, normal))
}

// trySmooth implements spec.md §4.8's SMOOTH(v): relocates v toward its
// one-ring energy-minimizing target via a damped line search, projecting
// surface vertices back onto the envelope (or the one-ring plane) after
// each trial step, and accepts the first step that improves the one-ring's
// max energy without violating I1 or I2. Boundary vertices (open-hole
// facets, spec.md §4.7) are left untouched unless cfg.SmoothOpenBoundary
// is set.
func trySmooth(m *meshdata.Mesh, env *envelope.Envelope, st *State, cfg Config, v int) bool {
	vert := m.Verts[v]
	if vert.Removed {
		return false
	}
	if vert.OnBoundary && !cfg.SmoothOpenBoundary {
		return false
	}

	ringIDs := oneRingTets(m, v)
	if len(ringIDs) == 0 {
		return false
	}
	old := m.VertPos(v)
	oldMax, _ := oneRingMaxEnergy(m, v, ringIDs, old)
	target := oneRingTarget(m, v, ringIDs)

	facetsOf := func() [][3]int {
		var out [][3]int
		for _, id := range ringIDs {
			t := m.Tets[id]
			for fi, tag := range t.FacetTags {
				if tag.Kind != meshdata.Surface || t.V[fi] == v {
					continue
				}
				out = append(out, t.FacetVerts(fi))
			}
		}
		return out
	}

	for _, step := range smoothLineSearchSteps {
		candidate := r3.Add(old, r3.Scale(step, r3.Sub(target, old)))
		candidate = projectSmoothedPosition(m, env, cfg, v, ringIDs, candidate)

		newMax, posOK := oneRingMaxEnergy(m, v, ringIDs, candidate)
		if !posOK || !newMax.Less(oldMax) {
			continue
		}

		envOK := true
		if env != nil {
			for _, fv := range facetsOf() {
				pos := func(vi int) r3.Vec {
					if vi == v {
						return candidate
					}
					return m.VertPos(vi)
				}
				if !env.TriangleInside(pos(fv[0]), pos(fv[1]), pos(fv[2]), st.SamplingDist) {
					envOK = false
					break
				}
			}
		}
		if !envOK {
			continue
		}

		commitSmoothedVertex(m, v, candidate)
		for _, id := range ringIDs {
			m.RecomputeQuality(id)
		}
		return true
	}
	return false
}

// commitSmoothedVertex moves v to pos, re-deriving Exact from pos so I5
// (exact and rounded views agree) holds for the vertex's new location;
// leaving Exact at its pre-smooth value would make every subsequent
// Orient3D/InSphere check (isPositiveVolume, addOrientedTet) and SPLIT
// midpoint test a query against geometry the mesh no longer has.
func commitSmoothedVertex(m *meshdata.Mesh, v int, pos r3.Vec) {
	m.Verts[v].Pos = geom.NewPoint(pos.X, pos.Y, pos.Z)
}
