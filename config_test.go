package tetravol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRefineConfigCarriesTargetNumVerticesAndBackgroundSizing(t *testing.T) {
	sizing := func(p [3]float64) float64 { return p[0] }
	cfg := DefaultConfig()
	cfg.TargetNumVertices = 500
	cfg.BackgroundSizing = sizing

	rc := cfg.refineConfig()
	assert.Equal(t, 500, rc.TargetNumVertices)
	assert.NotNil(t, rc.BackgroundSizing)
	assert.Equal(t, 2.0, rc.BackgroundSizing([3]float64{2, 0, 0}))
}

func TestRefineConfigDefaultTargetNumVerticesIsUnconstrained(t *testing.T) {
	rc := DefaultConfig().refineConfig()
	assert.Equal(t, -1, rc.TargetNumVertices)
	assert.Nil(t, rc.BackgroundSizing)
}
