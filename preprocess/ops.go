package preprocess

import (
	"math"

	"github.com/wedge3d/tetravol/envelope"
	"github.com/wedge3d/tetravol/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

func acos(x float64) float64 {
	return math.Acos(x)
}

// tryCollapse attempts to collapse the edge (u,v) in either direction,
// accepting the first direction whose star survives the checks of
// spec.md §4.3: no inverted triangle, no zero-area triangle, and every
// remapped triangle stays inside the envelope.
func tryCollapse(verts []r3.Vec, faces [][3]int, deleted []bool, vertTris map[int]map[int]struct{}, u, v int, env *envelope.Envelope, cfg Config) bool {
	if attemptDirectedCollapse(verts, faces, deleted, vertTris, v, u, env, cfg) {
		return true
	}
	return attemptDirectedCollapse(verts, faces, deleted, vertTris, u, v, env, cfg)
}

// attemptDirectedCollapse removes vertex from by folding its star into
// vertex to, i.e. every triangle touching from but not to is remapped to
// reference to instead; triangles touching both become degenerate and
// are deleted. All checks run before any mutation, so a rejected
// collapse leaves the mesh untouched.
func attemptDirectedCollapse(verts []r3.Vec, faces [][3]int, deleted []bool, vertTris map[int]map[int]struct{}, from, to int, env *envelope.Envelope, cfg Config) bool {
	fromTris := vertTris[from]
	if len(fromTris) == 0 {
		return false
	}

	var degenerate, remap []int
	for fi := range fromTris {
		f := faces[fi]
		if f[0] == to || f[1] == to || f[2] == to {
			degenerate = append(degenerate, fi)
		} else {
			remap = append(remap, fi)
		}
	}
	if len(remap) == 0 {
		// from only ever appears next to to: collapsing it would leave
		// nothing to remap and is almost certainly a non-manifold cap.
		return false
	}

	for _, fi := range remap {
		f := faces[fi]
		var oldF, newF [3]r3.Vec
		for k, vi := range f {
			oldF[k] = verts[vi]
			if vi == from {
				newF[k] = verts[to]
			} else {
				newF[k] = verts[vi]
			}
		}
		oldN := geom.TriangleNormal(oldF[0], oldF[1], oldF[2])
		newN := geom.TriangleNormal(newF[0], newF[1], newF[2])
		if r3.Dot(oldN, newN) <= 0 {
			return false
		}
		if geom.TriangleArea2(newF[0], newF[1], newF[2]) < 1e-18 {
			return false
		}
		if env != nil && !env.TriangleInside(newF[0], newF[1], newF[2], cfg.SamplingDist) {
			return false
		}
	}

	for _, fi := range degenerate {
		deleted[fi] = true
		for _, vi := range faces[fi] {
			delete(vertTris[vi], fi)
		}
	}
	for _, fi := range remap {
		f := &faces[fi]
		for k, vi := range f {
			if vi == from {
				f[k] = to
			}
		}
		delete(vertTris[from], fi)
		if vertTris[to] == nil {
			vertTris[to] = make(map[int]struct{})
		}
		vertTris[to][fi] = struct{}{}
	}
	delete(vertTris, from)
	return true
}

// trySwap performs the 2-2 edge flip across (u,v) when exactly two
// triangles share it: the shared diagonal moves from (u,v) to the pair
// of opposite vertices, provided the result is non-degenerate and stays
// inside the envelope.
func trySwap(verts []r3.Vec, faces [][3]int, deleted []bool, vertTris map[int]map[int]struct{}, u, v int, env *envelope.Envelope, cfg Config) bool {
	shared := trianglesSharingEdge(faces, deleted, vertTris, u, v)
	if len(shared) != 2 {
		return false
	}
	fi0, fi1 := shared[0], shared[1]
	a, ok0 := thirdVertex(faces[fi0], u, v)
	b, ok1 := thirdVertex(faces[fi1], u, v)
	if !ok0 || !ok1 || a == b {
		return false
	}

	oldN0 := faceNormal(verts, faces[fi0])
	oldN1 := faceNormal(verts, faces[fi1])

	newF0 := [3]int{u, a, b}
	newF1 := [3]int{v, b, a}
	nn0 := geom.TriangleNormal(verts[newF0[0]], verts[newF0[1]], verts[newF0[2]])
	nn1 := geom.TriangleNormal(verts[newF1[0]], verts[newF1[1]], verts[newF1[2]])

	if r3.Dot(nn0, oldN0) <= 0 || r3.Dot(nn1, oldN1) <= 0 {
		return false
	}
	if geom.TriangleArea2(verts[newF0[0]], verts[newF0[1]], verts[newF0[2]]) < 1e-18 {
		return false
	}
	if geom.TriangleArea2(verts[newF1[0]], verts[newF1[1]], verts[newF1[2]]) < 1e-18 {
		return false
	}
	if env != nil {
		if !env.TriangleInside(verts[newF0[0]], verts[newF0[1]], verts[newF0[2]], cfg.SamplingDist) {
			return false
		}
		if !env.TriangleInside(verts[newF1[0]], verts[newF1[1]], verts[newF1[2]], cfg.SamplingDist) {
			return false
		}
	}

	for _, vi := range faces[fi0] {
		delete(vertTris[vi], fi0)
	}
	for _, vi := range faces[fi1] {
		delete(vertTris[vi], fi1)
	}
	faces[fi0] = newF0
	faces[fi1] = newF1
	for _, vi := range faces[fi0] {
		if vertTris[vi] == nil {
			vertTris[vi] = make(map[int]struct{})
		}
		vertTris[vi][fi0] = struct{}{}
	}
	for _, vi := range faces[fi1] {
		if vertTris[vi] == nil {
			vertTris[vi] = make(map[int]struct{})
		}
		vertTris[vi][fi1] = struct{}{}
	}
	return true
}

func thirdVertex(f [3]int, u, v int) (int, bool) {
	for _, vi := range f {
		if vi != u && vi != v {
			return vi, true
		}
	}
	return 0, false
}
