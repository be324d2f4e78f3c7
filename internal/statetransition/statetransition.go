// Package statetransition applies an accepted block's transactions and
// round rewards to account and chain state (C9). Grounded on the teacher's
// storage interfaces (internal/store/interfaces.go: EventStore/BlobStore
// follow a read-modify-store idiom over versioned values keyed by CID) —
// adapted here to AccountState/ChainState as the versioned values and a
// public key as the key, applied by pure domain logic rather than routed
// through a persistence layer directly.
package statetransition

import (
	"sort"

	"github.com/supernode-chain/corevm/internal/chaintypes"
)

// AccountStore is the minimal read/write contract state transition needs;
// internal/store's account column family implements it.
type AccountStore interface {
	Get(publicKey []byte) (chaintypes.AccountState, bool)
	Put(account chaintypes.AccountState)
}

// RewardShare is one rewarded committee member's final round score, used
// to weight the proportional end-of-block distribution (spec.md §4.8).
// The score comes from the round's C4 ranking output, not from the block
// itself — the block only records which public keys were rewarded, not
// their scores — so callers applying a received block must recompute the
// ranking (or have cached it from when they validated the round) before
// calling Apply.
type RewardShare struct {
	PublicKey []byte
	Score     float64
}

// Result reports what Apply actually distributed, for observability/tests.
type Result struct {
	FeePoolCollected uint64
	TotalDistributed uint64
}

// Apply applies block's transactions in their stored (canonical) order,
// distributes feePool+baseReward across rewardShares proportional to their
// normalized scores, and advances chain to reflect the new block. It
// assumes the block has already passed C11 validation: no further
// correctness checks are performed here.
func Apply(store AccountStore, chain *chaintypes.ChainState, block *chaintypes.Block, baseReward uint64, rewardShares []RewardShare) Result {
	var feePool uint64

	for i := range block.Transactions {
		tx := &block.Transactions[i]
		feePool += applyTransaction(store, tx)
	}

	total := feePool + baseReward
	distributed := distributeRewards(store, rewardShares, total)

	chain.CurrentHeight++
	chain.CurrentRound = block.Round
	chain.TotalSupply += baseReward
	chain.CurrentDifficulty = block.DifficultyTarget
	chain.LastUpdateTimestamp = block.Timestamp

	return Result{FeePoolCollected: feePool, TotalDistributed: distributed}
}

// applyTransaction mutates store per spec.md §4.8 and returns the fee this
// transaction contributed to the pool (0 for REWARD, which has none).
func applyTransaction(store AccountStore, tx *chaintypes.Transaction) uint64 {
	switch tx.Type {
	case chaintypes.TxTransfer:
		sender, _ := store.Get(tx.Sender)
		sender.Balance -= tx.Amount + tx.Fee
		sender.Nonce++
		store.Put(sender)

		receiver, _ := store.Get(tx.Receiver)
		receiver.PublicKey = tx.Receiver
		receiver.Balance += tx.Amount
		store.Put(receiver)
		return tx.Fee

	case chaintypes.TxStake:
		sender, _ := store.Get(tx.Sender)
		sender.Balance -= tx.Amount + tx.Fee
		sender.StakeAmount += tx.Amount
		sender.Nonce++
		store.Put(sender)
		return tx.Fee

	case chaintypes.TxUnstake:
		sender, _ := store.Get(tx.Sender)
		sender.StakeAmount -= tx.Amount
		sender.Balance += tx.Amount - tx.Fee
		sender.Nonce++
		store.Put(sender)
		return tx.Fee

	case chaintypes.TxReward:
		receiver, _ := store.Get(tx.Receiver)
		receiver.PublicKey = tx.Receiver
		receiver.Balance += tx.Amount
		store.Put(receiver)
		return 0
	}
	return 0
}

// distributeRewards splits total across shares proportional to their
// normalized score, crediting any rounding shortfall to rank[0] (the
// highest-scoring share, by descending score then ascending public key)
// so the sum of credited amounts always equals total exactly — spec.md
// §4.8's conservation requirement.
func distributeRewards(store AccountStore, shares []RewardShare, total uint64) uint64 {
	if len(shares) == 0 || total == 0 {
		return 0
	}

	ordered := make([]RewardShare, len(shares))
	copy(ordered, shares)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		return string(ordered[i].PublicKey) < string(ordered[j].PublicKey)
	})

	var scoreSum float64
	for _, s := range ordered {
		scoreSum += s.Score
	}
	if scoreSum <= 0 {
		// No usable score information: split evenly, shortfall to rank[0].
		scoreSum = float64(len(ordered))
		for i := range ordered {
			ordered[i].Score = 1
		}
	}

	amounts := make([]uint64, len(ordered))
	var distributed uint64
	for i, s := range ordered {
		amt := uint64(float64(total) * s.Score / scoreSum)
		amounts[i] = amt
		distributed += amt
	}
	amounts[0] += total - distributed // rounding shortfall to rank[0]

	for i, s := range ordered {
		acct, _ := store.Get(s.PublicKey)
		acct.PublicKey = s.PublicKey
		acct.Balance += amounts[i]
		store.Put(acct)
	}
	return total
}
