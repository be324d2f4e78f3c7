package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeWithinBounds(t *testing.T) {
	c := NewCalculator(DefaultWeights())
	f := c.Compute(Input{
		PublicKey:         []byte{1},
		VRFScore:          0.8,
		Stake:             150,
		AverageStake:      100,
		DaysSinceElection: 10,
		UptimeRatio:       0.995,
	})
	assert.GreaterOrEqual(t, f, 0.0)
	assert.LessOrEqual(t, f, 1.0)
}

func TestRankOrdersDescendingByScore(t *testing.T) {
	c := NewCalculator(DefaultWeights())
	inputs := []Input{
		{PublicKey: []byte{1}, VRFScore: 0.2, AverageStake: 100, Stake: 100, UptimeRatio: 0.995},
		{PublicKey: []byte{2}, VRFScore: 0.9, AverageStake: 100, Stake: 100, UptimeRatio: 0.995},
		{PublicKey: []byte{3}, VRFScore: 0.5, AverageStake: 100, Stake: 100, UptimeRatio: 0.995},
	}
	ranked := c.Rank(inputs)
	require.Len(t, ranked, 3)
	assert.Equal(t, []byte{2}, ranked[0].PublicKey)
	assert.Equal(t, []byte{3}, ranked[1].PublicKey)
	assert.Equal(t, []byte{1}, ranked[2].PublicKey)
	assert.Equal(t, 0, ranked[0].Rank)
	assert.Equal(t, 2, ranked[2].Rank)
}

func TestRankBreaksTiesByPublicKeyAscending(t *testing.T) {
	c := NewCalculator(DefaultWeights())
	inputs := []Input{
		{PublicKey: []byte{0x03}, VRFScore: 0.5, AverageStake: 100, Stake: 100, UptimeRatio: 0.995},
		{PublicKey: []byte{0x01}, VRFScore: 0.5, AverageStake: 100, Stake: 100, UptimeRatio: 0.995},
		{PublicKey: []byte{0x02}, VRFScore: 0.5, AverageStake: 100, Stake: 100, UptimeRatio: 0.995},
	}
	ranked := c.Rank(inputs)
	require.Len(t, ranked, 3)
	assert.Equal(t, []byte{0x01}, ranked[0].PublicKey)
	assert.Equal(t, []byte{0x02}, ranked[1].PublicKey)
	assert.Equal(t, []byte{0x03}, ranked[2].PublicKey)
}

func TestSelectProposerEmptyInputs(t *testing.T) {
	c := NewCalculator(DefaultWeights())
	_, ok := c.SelectProposer(nil)
	assert.False(t, ok)
}

func TestSelectTopXClampsToLength(t *testing.T) {
	c := NewCalculator(DefaultWeights())
	inputs := []Input{
		{PublicKey: []byte{1}, VRFScore: 0.5, AverageStake: 100, Stake: 100, UptimeRatio: 0.995},
		{PublicKey: []byte{2}, VRFScore: 0.6, AverageStake: 100, Stake: 100, UptimeRatio: 0.995},
	}
	top := c.SelectTopX(inputs, 10)
	assert.Len(t, top, 2)

	top = c.SelectTopX(inputs, 1)
	assert.Len(t, top, 1)
	assert.Equal(t, []byte{2}, top[0].PublicKey)

	top = c.SelectTopX(inputs, -1)
	assert.Len(t, top, 0)
}
