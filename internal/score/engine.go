// Package score computes the round score used to rank committee
// announcements (C4): f = clamp(v * sqrt(s) * d * p, 0, 1), and derives the
// proposer and top-X reward set from the resulting ranking. Adapted from
// the teacher's DeterministicEngine (internal/score/engine.go), which
// combined weighted, decayed components into one trust value the same way;
// here the components are VRF score, stake weight, tenure decay, and
// uptime performance rather than KYC/attestation/vouch/report/time.
package score

import (
	"bytes"
	"math"
	"sort"

	"github.com/supernode-chain/corevm/internal/chaintypes"
)

// Calculator ranks a round's announcements by their combined score.
type Calculator struct {
	weights Weights
}

// NewCalculator builds a Calculator with the given weights, falling back to
// DefaultWeights when the zero value is passed.
func NewCalculator(w Weights) *Calculator {
	if w.DecayWindowDays == 0 {
		w = DefaultWeights()
	}
	return &Calculator{weights: w}
}

// Compute evaluates f for a single Input.
func (c *Calculator) Compute(in Input) float64 {
	s := StakeWeight(in.Stake, in.AverageStake)
	d := DecayFactor(in.DaysSinceElection, c.weights)
	p := PerformanceFactor(in.UptimeRatio, c.weights)
	return clamp01(in.VRFScore * math.Sqrt(s) * d * p)
}

// Rank computes f for every input and returns them sorted by score
// descending, tie-broken by ascending public key byte order (spec.md §4.3:
// "ties broken by publicKey byte-lex ascending").
func (c *Calculator) Rank(inputs []Input) []Ranked {
	ranked := make([]Ranked, len(inputs))
	for i, in := range inputs {
		ranked[i] = Ranked{PublicKey: in.PublicKey, Score: c.Compute(in)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return bytes.Compare(ranked[i].PublicKey, ranked[j].PublicKey) < 0
	})
	for i := range ranked {
		ranked[i].Rank = i
	}
	return ranked
}

// SelectProposer returns rank[0], or the zero value and false if inputs is
// empty.
func (c *Calculator) SelectProposer(inputs []Input) (Ranked, bool) {
	ranked := c.Rank(inputs)
	if len(ranked) == 0 {
		return Ranked{}, false
	}
	return ranked[0], true
}

// RankAnnouncements sorts already-scored VRF announcements by their
// embedded Score descending, tied-break by ascending public key — the
// same ordering Rank produces, but over announcements that already carry
// their final round score (each committee member computes its own f from
// public stake/tenure/uptime state before announcing, so nothing here
// recomputes Compute). Used by the block validator's proposer-consistency
// check (spec.md §4.10 S2): rank[0] must equal the block's proposerPk.
func RankAnnouncements(anns []chaintypes.VRFAnnouncement) []Ranked {
	ranked := make([]Ranked, len(anns))
	for i, a := range anns {
		ranked[i] = Ranked{PublicKey: a.PublicKey, Score: a.Score}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return bytes.Compare(ranked[i].PublicKey, ranked[j].PublicKey) < 0
	})
	for i := range ranked {
		ranked[i].Rank = i
	}
	return ranked
}

// SelectTopX returns rank[0:min(k, len)], the rewarded set for the round.
func (c *Calculator) SelectTopX(inputs []Input, k int) []Ranked {
	ranked := c.Rank(inputs)
	if k < 0 {
		k = 0
	}
	if k > len(ranked) {
		k = len(ranked)
	}
	return ranked[:k]
}
