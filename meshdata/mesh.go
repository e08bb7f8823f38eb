// Package meshdata holds the shared topological data model of spec.md
// §3: arena-backed tet vertices and tets, surface-facet tags, quality
// records, and the AMIPS shape energy. Every pipeline stage from the
// simple tetrahedralizer onward shares one *Mesh value.
package meshdata

import (
	"context"
	"fmt"

	"github.com/wedge3d/tetravol/geom"
	"github.com/wedge3d/tetravol/internal/workpool"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is the arena: Verts and Tets only ever grow during a pipeline run
// (removed entries are tombstoned, per spec.md §3's lifetime note) and
// are compacted once, at pipeline exit, via Compact.
type Mesh struct {
	Verts []TetVertex
	Tets  []Tet
}

// New returns an empty arena.
func New() *Mesh {
	return &Mesh{}
}

// AddVertex appends a new vertex and returns its index.
func (m *Mesh) AddVertex(p geom.Point) int {
	m.Verts = append(m.Verts, newTetVertex(p))
	return len(m.Verts) - 1
}

// AddTet appends a new tet over the four given vertex indices, updates
// incidence, and computes its quality record. It does not check
// orientation; callers that must preserve I1 check Orient3D before
// calling AddTet (geom.Orient3D > 0 on the vertex's exact positions).
func (m *Mesh) AddTet(v [4]int) int {
	id := len(m.Tets)
	t := Tet{V: v}
	m.Tets = append(m.Tets, t)
	for _, vi := range v {
		m.Verts[vi].Incident[id] = struct{}{}
	}
	m.RecomputeQuality(id)
	return id
}

// RemoveTet tombstones tet id and drops it from its vertices' incidence
// sets (P4).
func (m *Mesh) RemoveTet(id int) {
	if m.Tets[id].Removed {
		return
	}
	m.Tets[id].Removed = true
	for _, vi := range m.Tets[id].V {
		delete(m.Verts[vi].Incident, id)
	}
}

// VertPos returns the rounded double position of vertex i.
func (m *Mesh) VertPos(i int) r3.Vec {
	return m.Verts[i].Pos.Rounded
}

// RecomputeQuality recomputes tet id's QualityRecord from its current
// vertex positions. Called after every operation that moves a vertex or
// creates a new tet.
func (m *Mesh) RecomputeQuality(id int) {
	t := &m.Tets[id]
	a := m.VertPos(t.V[0])
	b := m.VertPos(t.V[1])
	c := m.VertPos(t.V[2])
	d := m.VertPos(t.V[3])
	min, max := MinMaxDihedral(a, b, c, d)
	t.Quality = QualityRecord{
		MinDihedral: min,
		MaxDihedral: max,
		SlimEnergy:  AMIPSEnergy(a, b, c, d),
	}
}

// RecomputeQualityBatch recomputes the QualityRecord of every tet in ids
// concurrently (each index writes only its own Tets[id] slot, so the
// batch is race-free), fanning out over workpool.Each the way the
// winding-number filter also does for a disjoint, read-mostly per-tet
// computation (spec.md §5's "concurrency is confined to read-only batch
// evaluation"). refine.Engine calls it at every pass boundary.
func (m *Mesh) RecomputeQualityBatch(ctx context.Context, ids []int) error {
	return workpool.Each(ctx, 0, len(ids), func(_ context.Context, i int) error {
		m.RecomputeQuality(ids[i])
		return nil
	})
}

// ActiveTetCount returns the number of non-tombstoned tets.
func (m *Mesh) ActiveTetCount() int {
	n := 0
	for _, t := range m.Tets {
		if !t.Removed {
			n++
		}
	}
	return n
}

// ActiveTetIDs returns the indices of every non-tombstoned tet.
func (m *Mesh) ActiveTetIDs() []int {
	ids := make([]int, 0, m.ActiveTetCount())
	for i, t := range m.Tets {
		if !t.Removed {
			ids = append(ids, i)
		}
	}
	return ids
}

// CheckTopology verifies P3/P4: no two active vertices share a rational
// position, and vertex/tet incidence agree both ways. It is a debug-only
// assertion helper, not called on the hot path.
func (m *Mesh) CheckTopology() error {
	seen := make([]geom.Rat3, 0, len(m.Verts))
	for i, v := range m.Verts {
		if v.Removed {
			continue
		}
		for _, o := range seen {
			if v.Pos.Exact.Equal(o) {
				return fmt.Errorf("meshdata: duplicate vertex position at index %d", i)
			}
		}
		seen = append(seen, v.Pos.Exact)
	}
	expected := make(map[int]map[int]struct{})
	for i, t := range m.Tets {
		if t.Removed {
			continue
		}
		for _, vi := range t.V {
			if expected[vi] == nil {
				expected[vi] = make(map[int]struct{})
			}
			expected[vi][i] = struct{}{}
		}
	}
	for vi, v := range m.Verts {
		if v.Removed {
			continue
		}
		want := expected[vi]
		if len(want) != len(v.Incident) {
			return fmt.Errorf("meshdata: vertex %d incidence mismatch: have %d want %d", vi, len(v.Incident), len(want))
		}
		for id := range want {
			if _, ok := v.Incident[id]; !ok {
				return fmt.Errorf("meshdata: vertex %d missing incident tet %d", vi, id)
			}
		}
	}
	return nil
}

// Compact drops tombstoned vertices and tets, remapping every surviving
// index into a dense range. It is only ever called once, at pipeline
// exit (spec.md §3, §5's memory model), or by the winding-number filter
// when it extracts the final inside tet set (spec.md §4.9).
func (m *Mesh) Compact() (vertexRemap []int) {
	vertexRemap = make([]int, len(m.Verts))
	for i := range vertexRemap {
		vertexRemap[i] = -1
	}

	newVerts := make([]TetVertex, 0, len(m.Verts))
	newTets := make([]Tet, 0, len(m.Tets))

	for _, t := range m.Tets {
		if t.Removed {
			continue
		}
		var nv [4]int
		for k, vi := range t.V {
			if vertexRemap[vi] == -1 {
				vertexRemap[vi] = len(newVerts)
				newVerts = append(newVerts, m.Verts[vi])
			}
			nv[k] = vertexRemap[vi]
		}
		nt := t
		nt.V = nv
		newTets = append(newTets, nt)
	}

	m.Verts = newVerts
	m.Tets = newTets

	// Rebuild incidence sets against the new tet indices.
	for i := range m.Verts {
		m.Verts[i].Incident = make(map[int]struct{})
	}
	for id, t := range m.Tets {
		for _, vi := range t.V {
			m.Verts[vi].Incident[id] = struct{}{}
		}
	}
	return vertexRemap
}
