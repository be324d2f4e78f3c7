package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStakeWeightCapsAtOne(t *testing.T) {
	assert.Equal(t, 1.0, StakeWeight(200, 100))
	assert.Equal(t, 0.5, StakeWeight(50, 100))
	assert.Equal(t, 1.0, StakeWeight(0, 0), "zero average stake disables the stake weight")
}

func TestDecayFactorFloorsAtMinDecay(t *testing.T) {
	w := DefaultWeights()
	assert.Equal(t, 1.0, DecayFactor(0, w))
	assert.InDelta(t, 0.5, DecayFactor(90, w), 1e-9)
	assert.Equal(t, w.MinDecay, DecayFactor(360, w), "decay never drops below MinDecay")
}

func TestPerformanceFactorTiers(t *testing.T) {
	w := DefaultWeights()
	assert.Equal(t, 1.0, PerformanceFactor(0.995, w))
	assert.Equal(t, 0.95, PerformanceFactor(0.96, w))
	assert.Equal(t, 0.85, PerformanceFactor(0.91, w))
	assert.Equal(t, 0.7, PerformanceFactor(0.5, w))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-1))
	assert.Equal(t, 1.0, clamp01(2))
	assert.Equal(t, 0.5, clamp01(0.5))
}
