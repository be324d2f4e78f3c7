// Package forkchoice resolves competing blocks at the same height and
// performs the state reorganization that follows (spec.md §5: "Two
// concurrent blocks at the same height are resolved by fork choice: longer
// chain by cumulative work, ties broken by lower block hash" and §8 S6).
// Grounded on the teacher's own tree having no PoW fork choice of its own
// (committee-BFT has no competing-chain concept, only round failure) and
// on _examples/wyf-ACCEPT-eth2030/pkg/core/forkchoice.go's ForkChoice
// tracker shape — a small struct holding the node's current view of the
// canonical tip, reused here with the CL-driven safe/finalized pointers
// dropped (this chain has no separate consensus-layer attester) and the
// selection rule replaced by cumulative PoW work instead of LMD-GHOST.
package forkchoice

import (
	"bytes"
	"math/big"

	"github.com/supernode-chain/corevm/internal/chaintypes"
	"github.com/supernode-chain/corevm/internal/statetransition"
)

// Candidate is one competing chain tip together with the cumulative work
// of the full chain ending at it (spec.md §5's "cumulative work" =
// sum of 1/difficultyTarget over the chain).
type Candidate struct {
	Tip  *chaintypes.Block
	Work *big.Int
}

// ChainWork sums DifficultyTarget.CumulativeWork() over an ordered slice
// of blocks (genesis-first). Used to build a Candidate's Work field from
// the full ancestry of a tip.
func ChainWork(chain []*chaintypes.Block) *big.Int {
	total := big.NewInt(0)
	for _, b := range chain {
		total.Add(total, b.DifficultyTarget.CumulativeWork())
	}
	return total
}

// Choose picks the canonical tip among candidates: the greater cumulative
// work wins; ties break toward the lower block hash (spec.md §5, §8 S6).
// Returns nil if candidates is empty.
func Choose(candidates []Candidate) *chaintypes.Block {
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if isBetter(c, best) {
			best = c
		}
	}
	return best.Tip
}

func isBetter(a, b Candidate) bool {
	cmp := a.Work.Cmp(b.Work)
	if cmp != 0 {
		return cmp > 0
	}
	return bytes.Compare(a.Tip.BlockHash[:], b.Tip.BlockHash[:]) < 0
}

// Tracker holds the node's current view of the canonical tip and performs
// reorgs when a competing chain overtakes it.
type Tracker struct {
	head *chaintypes.Block
}

// NewTracker seeds a Tracker at the given starting tip (the local chain's
// current head, e.g. genesis on a fresh node).
func NewTracker(head *chaintypes.Block) *Tracker {
	return &Tracker{head: head}
}

// Head returns the tracker's current canonical tip.
func (t *Tracker) Head() *chaintypes.Block {
	return t.head
}

// Consider evaluates a newly-seen competing tip against the current head
// at the same height and, if it wins fork choice, makes it the tracker's
// head and returns true. A candidate at a different height is never
// chosen. The tracker only moves its head pointer; replaying account and
// chain state is left to the caller (see Reorg).
func (t *Tracker) Consider(candidateWork *big.Int, candidate *chaintypes.Block) (winner bool) {
	if t.head == nil {
		t.head = candidate
		return true
	}
	if candidate.Height != t.head.Height {
		return false
	}
	headWork := t.head.DifficultyTarget.CumulativeWork()
	if isBetter(Candidate{Tip: candidate, Work: candidateWork}, Candidate{Tip: t.head, Work: headWork}) {
		t.head = candidate
		return true
	}
	return false
}

// ReplayAccounts is the map-backed statetransition.AccountStore a Reorg
// replay writes into; exported so callers can copy its contents into
// whatever backend-specific AccountStore the storage layer uses.
type ReplayAccounts struct {
	accounts map[string]chaintypes.AccountState
}

// NewReplayAccounts returns an empty replay-target account store.
func NewReplayAccounts() *ReplayAccounts {
	return &ReplayAccounts{accounts: make(map[string]chaintypes.AccountState)}
}

func (r *ReplayAccounts) Get(publicKey []byte) (chaintypes.AccountState, bool) {
	acct, ok := r.accounts[string(publicKey)]
	return acct, ok
}

func (r *ReplayAccounts) Put(account chaintypes.AccountState) {
	r.accounts[string(account.PublicKey)] = account
}

// All returns every account the replay touched, for copying into a
// persistent store.
func (r *ReplayAccounts) All() map[string]chaintypes.AccountState {
	return r.accounts
}

// RewardSharesFunc recomputes the rewarded-set scores for a block being
// replayed (the block only records rewarded public keys, not the scores
// that weighted distribution — see statetransition.RewardShare's doc).
type RewardSharesFunc func(block *chaintypes.Block) []statetransition.RewardShare

// Reorg re-derives account and chain state by replaying newChain
// (genesis-or-ancestor-first, ending at the winning tip) against a fresh
// ReplayAccounts, so the result is identical to a node that only ever saw
// newChain — spec.md §8 S6: "account balances equal those of a node that
// only ever saw chain1." The caller is responsible for persisting the
// returned accounts/chain state over whatever the old chain had applied;
// this package does no storage I/O itself.
func Reorg(newChain []*chaintypes.Block, baseReward func(height uint64) uint64, rewardShares RewardSharesFunc) (*ReplayAccounts, chaintypes.ChainState) {
	accounts := NewReplayAccounts()
	var chain chaintypes.ChainState
	for _, block := range newChain {
		statetransition.Apply(accounts, &chain, block, baseReward(block.Height), rewardShares(block))
	}
	return accounts, chain
}
