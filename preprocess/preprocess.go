// Package preprocess implements the surface simplifier of spec.md §4.3:
// iterative edge collapse, edge swap, and vertex deduplication of the
// input triangle soup, subject to the envelope predicate.
package preprocess

import (
	"errors"

	"github.com/wedge3d/tetravol/envelope"
	"github.com/wedge3d/tetravol/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrEmptyInput is returned when simplification reduces the soup to
// nothing (spec.md §4.3, §7's EmptyInput error kind).
var ErrEmptyInput = errors.New("preprocess: simplification removed all triangles")

// Config controls the simplifier.
type Config struct {
	// SamplingDist is the stratified-sampling density used by
	// envelope.TriangleInside while testing candidate operations.
	SamplingDist float64
	// MaxPasses bounds the number of full sweeps (termination is
	// normally driven by a changeless sweep, per spec.md §4.3; this is a
	// backstop).
	MaxPasses int
	// PreserveSharpFeatures, when true, refuses to collapse an edge
	// whose two adjoining face normals differ by more than
	// SharpAngleThreshold (SPEC_FULL.md §C).
	PreserveSharpFeatures bool
	SharpAngleThreshold   float64 // radians
}

// DefaultConfig returns the simplifier defaults.
func DefaultConfig(eps float64) Config {
	return Config{
		SamplingDist:          envelope.DefaultSamplingDist(eps),
		MaxPasses:             50,
		PreserveSharpFeatures: false,
		SharpAngleThreshold:   0.5, // ~28.6 degrees
	}
}

// Soup is a vertex/triangle-index triangle soup, spec.md §3.
type Soup struct {
	Verts []r3.Vec
	Faces [][3]int
}

// Stats reports what happened during simplification (SPEC_FULL.md §C,
// modeled on iceisfun/gomesh's cdt.Diagnostics).
type Stats struct {
	Passes                int
	DuplicatesRemoved     int
	CollapsesAccepted     int
	CollapsesRejected     int
	SwapsAccepted         int
	SwapsRejected         int
	InitialTriangleCount  int
	FinalTriangleCount    int
}

// Simplify collapses, swaps, and deduplicates the edges of in while the
// resulting surface stays inside env, returning the simplified soup
// (spec.md §3's simplified-soup invariants) and diagnostics.
func Simplify(in Soup, env *envelope.Envelope, cfg Config) (Soup, Stats, error) {
	stats := Stats{InitialTriangleCount: len(in.Faces)}

	verts, faces, dupes := dedupeVertices(in.Verts, in.Faces)
	stats.DuplicatesRemoved = dupes

	deleted := make([]bool, len(faces))
	vertTris := buildVertTris(faces, deleted)

	maxPasses := cfg.MaxPasses
	if maxPasses <= 0 {
		maxPasses = 50
	}

	for pass := 0; pass < maxPasses; pass++ {
		stats.Passes++
		changed := false

		seenEdges := make(map[[2]int]bool)
		for fi, f := range faces {
			if deleted[fi] {
				continue
			}
			edges := [3][2]int{{f[0], f[1]}, {f[1], f[2]}, {f[2], f[0]}}
			for _, e := range edges {
				key := edgeKey(e[0], e[1])
				if seenEdges[key] {
					continue
				}
				seenEdges[key] = true

				if cfg.PreserveSharpFeatures && isSharpEdge(verts, faces, deleted, vertTris, e[0], e[1], cfg.SharpAngleThreshold) {
					continue
				}

				if tryCollapse(verts, faces, deleted, vertTris, e[0], e[1], env, cfg) {
					changed = true
					stats.CollapsesAccepted++
				} else {
					stats.CollapsesRejected++
				}
			}
		}

		seenEdges = make(map[[2]int]bool)
		for fi, f := range faces {
			if deleted[fi] {
				continue
			}
			edges := [3][2]int{{f[0], f[1]}, {f[1], f[2]}, {f[2], f[0]}}
			for _, e := range edges {
				key := edgeKey(e[0], e[1])
				if seenEdges[key] {
					continue
				}
				seenEdges[key] = true
				if trySwap(verts, faces, deleted, vertTris, e[0], e[1], env, cfg) {
					changed = true
					stats.SwapsAccepted++
				} else {
					stats.SwapsRejected++
				}
			}
		}

		if !changed {
			break
		}
	}

	out := compact(verts, faces, deleted)
	stats.FinalTriangleCount = len(out.Faces)
	if len(out.Faces) == 0 {
		return out, stats, ErrEmptyInput
	}
	return out, stats, nil
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

func dedupeVertices(verts []r3.Vec, faces [][3]int) ([]r3.Vec, [][3]int, int) {
	type key = [3]float64
	seen := make(map[key]int, len(verts))
	remap := make([]int, len(verts))
	newVerts := make([]r3.Vec, 0, len(verts))
	for i, v := range verts {
		k := key{v.X, v.Y, v.Z}
		if idx, ok := seen[k]; ok {
			remap[i] = idx
			continue
		}
		idx := len(newVerts)
		newVerts = append(newVerts, v)
		seen[k] = idx
		remap[i] = idx
	}

	newFaces := make([][3]int, 0, len(faces))
	for _, f := range faces {
		nf := [3]int{remap[f[0]], remap[f[1]], remap[f[2]]}
		if nf[0] == nf[1] || nf[1] == nf[2] || nf[2] == nf[0] {
			continue
		}
		newFaces = append(newFaces, nf)
	}
	return newVerts, newFaces, len(verts) - len(newVerts)
}

func buildVertTris(faces [][3]int, deleted []bool) map[int]map[int]struct{} {
	m := make(map[int]map[int]struct{})
	for fi, f := range faces {
		if deleted[fi] {
			continue
		}
		for _, v := range f {
			if m[v] == nil {
				m[v] = make(map[int]struct{})
			}
			m[v][fi] = struct{}{}
		}
	}
	return m
}

func compact(verts []r3.Vec, faces [][3]int, deleted []bool) Soup {
	out := Soup{}
	keep := make([]int, len(verts))
	for i := range keep {
		keep[i] = -1
	}
	for fi, f := range faces {
		if deleted[fi] {
			continue
		}
		var nf [3]int
		for k, v := range f {
			if keep[v] == -1 {
				keep[v] = len(out.Verts)
				out.Verts = append(out.Verts, verts[v])
			}
			nf[k] = keep[v]
		}
		out.Faces = append(out.Faces, nf)
	}
	return out
}

func trianglesSharingEdge(faces [][3]int, deleted []bool, vertTris map[int]map[int]struct{}, u, v int) []int {
	var shared []int
	for fi := range vertTris[u] {
		if deleted[fi] {
			continue
		}
		f := faces[fi]
		if f[0] == v || f[1] == v || f[2] == v {
			shared = append(shared, fi)
		}
	}
	return shared
}

func isSharpEdge(verts []r3.Vec, faces [][3]int, deleted []bool, vertTris map[int]map[int]struct{}, u, v int, threshold float64) bool {
	shared := trianglesSharingEdge(faces, deleted, vertTris, u, v)
	if len(shared) != 2 {
		// A boundary edge (1 incident face) or a non-manifold edge (3+):
		// always treat as sharp so it is never silently collapsed away.
		return true
	}
	n0 := faceNormal(verts, faces[shared[0]])
	n1 := faceNormal(verts, faces[shared[1]])
	l0, l1 := r3.Norm(n0), r3.Norm(n1)
	if l0 == 0 || l1 == 0 {
		return false
	}
	cos := r3.Dot(n0, n1) / (l0 * l1)
	if cos > 1 {
		cos = 1
	}
	if cos < -1 {
		cos = -1
	}
	return acos(cos) > threshold
}

func faceNormal(verts []r3.Vec, f [3]int) r3.Vec {
	return geom.TriangleNormal(verts[f[0]], verts[f[1]], verts[f[2]])
}
