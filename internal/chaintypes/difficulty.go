package chaintypes

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// DifficultyTarget is the arbitrary-precision PoW target (§3):
// smaller is harder. A valid block header hash, read as a big-endian
// unsigned integer, must be <= DifficultyTarget.
type DifficultyTarget struct {
	v *big.Int
}

// NewDifficultyTarget wraps a big.Int as a DifficultyTarget. A nil or
// non-positive input is clamped to 1 so the zero value never produces
// an unsatisfiable (everything-fails) or meaningless (everything-passes
// negative) target.
func NewDifficultyTarget(v *big.Int) DifficultyTarget {
	if v == nil || v.Sign() <= 0 {
		return DifficultyTarget{v: big.NewInt(1)}
	}
	return DifficultyTarget{v: new(big.Int).Set(v)}
}

// DifficultyTargetFromUint64 builds a target from a plain base
// difficulty value (the `consensus.base_difficulty` config key).
func DifficultyTargetFromUint64(u uint64) DifficultyTarget {
	return NewDifficultyTarget(new(big.Int).SetUint64(u))
}

// Int returns the underlying big.Int (read-only by convention; callers
// must not mutate the returned pointer).
func (d DifficultyTarget) Int() *big.Int {
	if d.v == nil {
		return big.NewInt(1)
	}
	return d.v
}

// Satisfies reports whether the header hash, as a big-endian unsigned
// integer, meets the target: hash <= target.
func (d DifficultyTarget) Satisfies(headerHash Hash) bool {
	hashInt := new(big.Int).SetBytes(headerHash[:])
	return hashInt.Cmp(d.Int()) <= 0
}

// MulRatio scales the target by a rational ratio (numerator/denominator),
// used by the difficulty controller (§4.5: T_new = T_old * ratio).
func (d DifficultyTarget) MulRatio(numerator, denominator int64) DifficultyTarget {
	if denominator == 0 {
		denominator = 1
	}
	scaled := new(big.Int).Mul(d.Int(), big.NewInt(numerator))
	scaled.Div(scaled, big.NewInt(denominator))
	return NewDifficultyTarget(scaled)
}

// Clamp bounds the receiver to [lo, hi] inclusive.
func (d DifficultyTarget) Clamp(lo, hi DifficultyTarget) DifficultyTarget {
	v := d.Int()
	if v.Cmp(lo.Int()) < 0 {
		return lo
	}
	if v.Cmp(hi.Int()) > 0 {
		return hi
	}
	return d
}

// CumulativeWork approximates 1/target as a rational inverse scaled by
// 2^256, used for fork-choice cumulative work comparisons (§5). Returns
// a big.Int so chains of blocks can be summed exactly.
func (d DifficultyTarget) CumulativeWork() *big.Int {
	numerator := new(big.Int).Lsh(big.NewInt(1), 256)
	return new(big.Int).Div(numerator, d.Int())
}

// Bytes returns the big-endian byte encoding of the target.
func (d DifficultyTarget) Bytes() []byte { return d.Int().Bytes() }

// String returns the base-10 string representation.
func (d DifficultyTarget) String() string { return d.Int().String() }

// MarshalJSON encodes the target as a quoted base-10 string, so it
// survives gossip/RPC round-trips through JSON decoders that read numbers
// as float64 (which lose precision past 2^53).
func (d DifficultyTarget) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Int().String())
}

// UnmarshalJSON decodes a base-10 string produced by MarshalJSON.
func (d *DifficultyTarget) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return fmt.Errorf("invalid difficulty target %q", s)
	}
	*d = NewDifficultyTarget(v)
	return nil
}
