package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestBox3DiagAndInflate(t *testing.T) {
	b := EmptyBox3()
	b = b.Extend(r3.Vec{X: 0, Y: 0, Z: 0})
	b = b.Extend(r3.Vec{X: 1, Y: 1, Z: 1})

	assert.InDelta(t, 1.7320508, b.Diag(), 1e-6)
	assert.Equal(t, r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, b.Center())

	inflated := b.Inflate(0.5)
	assert.True(t, inflated.ContainsBox(b))
	assert.Equal(t, r3.Vec{X: -0.5, Y: -0.5, Z: -0.5}, inflated.Min)
}

func TestDist2PointTriangle(t *testing.T) {
	a := r3.Vec{X: 0, Y: 0, Z: 0}
	b := r3.Vec{X: 1, Y: 0, Z: 0}
	c := r3.Vec{X: 0, Y: 1, Z: 0}

	onPlane := r3.Vec{X: 0.25, Y: 0.25, Z: 0}
	assert.InDelta(t, 0, Dist2PointTriangle(onPlane, a, b, c), 1e-9)

	above := r3.Vec{X: 0.25, Y: 0.25, Z: 2}
	assert.InDelta(t, 4, Dist2PointTriangle(above, a, b, c), 1e-9)

	outside := r3.Vec{X: -1, Y: -1, Z: 0}
	got := Dist2PointTriangle(outside, a, b, c)
	assert.InDelta(t, 2, got, 1e-9)
}

func TestSampleTriangleIncludesVertices(t *testing.T) {
	a := r3.Vec{X: 0, Y: 0, Z: 0}
	b := r3.Vec{X: 10, Y: 0, Z: 0}
	c := r3.Vec{X: 0, Y: 10, Z: 0}
	samples := SampleTriangle(a, b, c, 1.0)
	assert.GreaterOrEqual(t, len(samples), 3)
	assert.Contains(t, samples, a)
	assert.Contains(t, samples, b)
	assert.Contains(t, samples, c)
}
