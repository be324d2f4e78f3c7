// Package difficulty implements the LPoW difficulty controller (C6): a
// trailing window of block intervals drives a clamped multiplicative
// retarget toward the target block time (spec.md §4.5). The teacher has no
// PoW component to ground this on (its consensus is committee-BFT over
// checkpoints, not proof-of-work) so the controller is built directly from
// the formula, in the teacher's general config-struct-plus-pure-function
// style (see internal/score for the closest analogue: a pure function over
// a bounded numeric window).
package difficulty

import (
	"github.com/supernode-chain/corevm/internal/chaintypes"
)

// Controller tracks the trailing window of block intervals and the
// resulting difficulty target.
type Controller struct {
	windowSize       int
	targetIntervalMs int64
	window           []int64 // oldest first, length capped at windowSize
	current          chaintypes.DifficultyTarget
}

// New builds a Controller seeded with the genesis/current difficulty.
func New(windowSize int, targetIntervalMs int64, initial chaintypes.DifficultyTarget) *Controller {
	if windowSize <= 0 {
		windowSize = 100
	}
	if targetIntervalMs <= 0 {
		targetIntervalMs = 3000
	}
	return &Controller{
		windowSize:       windowSize,
		targetIntervalMs: targetIntervalMs,
		current:          initial,
	}
}

// Current returns the active difficulty target.
func (c *Controller) Current() chaintypes.DifficultyTarget {
	return c.current
}

// RecordBlock appends the interval (in milliseconds) since the previous
// block and, once the window is full, recomputes the difficulty target:
// T_new = clamp(T_old * observedMeanInterval/targetInterval, T_old/4, T_old*4).
// It returns the (possibly unchanged) current target and whether an
// adjustment was applied this call.
func (c *Controller) RecordBlock(intervalMs int64) (chaintypes.DifficultyTarget, bool) {
	c.window = append(c.window, intervalMs)
	if len(c.window) > c.windowSize {
		c.window = c.window[len(c.window)-c.windowSize:]
	}
	if len(c.window) < c.windowSize {
		return c.current, false
	}

	var sum int64
	for _, v := range c.window {
		sum += v
	}
	// ratio = sum/(windowSize*targetInterval) = observedMeanInterval/targetInterval,
	// computed as one exact rational multiply rather than through float64.
	denominator := int64(c.windowSize) * c.targetIntervalMs

	old := c.current
	candidate := old.MulRatio(sum, denominator)
	lo := old.MulRatio(1, 4)
	hi := old.MulRatio(4, 1)
	c.current = candidate.Clamp(lo, hi)
	return c.current, true
}

// WindowLen reports how many intervals are currently buffered, for
// observability/tests.
func (c *Controller) WindowLen() int {
	return len(c.window)
}
