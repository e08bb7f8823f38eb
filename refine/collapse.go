package refine

import (
	"github.com/wedge3d/tetravol/envelope"
	"github.com/wedge3d/tetravol/meshdata"
)

// tryCollapse implements spec.md §4.8's COLLAPSE(e=(u,v)): it tries
// folding each endpoint into the other, accepting the first direction
// that survives the checks, mirroring the two-direction attempt
// preprocess.tryCollapse already uses for the triangle-soup edge
// collapse.
func tryCollapse(m *meshdata.Mesh, env *envelope.Envelope, st *State, cfg Config, e Edge) bool {
	if attemptDirectedCollapse(m, env, st, cfg, e.V, e.U) {
		return true
	}
	return attemptDirectedCollapse(m, env, st, cfg, e.U, e.V)
}

// attemptDirectedCollapse removes vertex from, folding its star into to:
// every tet incident to from that does not also touch to is rewritten
// with from replaced by to in place; every tet touching both collapses
// to a degenerate (zero-volume) tet and is simply dropped.
func attemptDirectedCollapse(m *meshdata.Mesh, env *envelope.Envelope, st *State, cfg Config, from, to int) bool {
	var degenerate, remapIDs []int
	for id := range m.Verts[from].Incident {
		t := m.Tets[id]
		if t.HasVertex(to) {
			degenerate = append(degenerate, id)
		} else {
			remapIDs = append(remapIDs, id)
		}
	}
	if len(remapIDs) == 0 {
		return false
	}

	oldIDs := append(append([]int(nil), degenerate...), remapIDs...)
	oldMax := maxEnergyOf(m, oldIDs)
	oldTotal := 0.0
	for _, id := range oldIDs {
		oldTotal += m.Tets[id].Quality.SlimEnergy.Value()
	}

	type plan struct {
		v    [4]int
		tags [4]meshdata.SurfaceTag
	}
	plans := make([]plan, 0, len(remapIDs))

	var maxNewEnergy meshdata.Energy
	newTotal := 0.0
	for _, id := range remapIDs {
		t := m.Tets[id]
		nv := t.V
		for i, vi := range nv {
			if vi == from {
				nv[i] = to
			}
		}
		if !isPositiveVolume(m, nv) {
			return false
		}
		for fi, tag := range t.FacetTags {
			if tag.Kind != meshdata.Surface {
				continue
			}
			fv := facetVertsOf(nv, fi)
			if !envelopeOKForFacetPts(m.Verts[fv[0]].Pos, m.Verts[fv[1]].Pos, m.Verts[fv[2]].Pos, st.SamplingDist, env) {
				return false
			}
		}
		energy := tetEnergy(m, nv)
		maxNewEnergy = meshdata.MaxEnergy(maxNewEnergy, energy)
		newTotal += energy.Value()
		plans = append(plans, plan{v: nv, tags: t.FacetTags})
	}

	if cfg.UseEnergyMax {
		if maxNewEnergy.Value() > oldMax.Value() {
			return false
		}
	} else if newTotal >= oldTotal {
		return false
	}

	removeTets(m, oldIDs)
	for _, pl := range plans {
		id := m.AddTet(pl.v)
		m.Tets[id].FacetTags = pl.tags
	}
	m.Verts[from].Removed = true
	return true
}
