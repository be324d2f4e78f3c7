// Package merkle builds the per-block transaction Merkle root (C7).
// Grounded on the teacher's transparency-log shape (internal/log:
// TransparencyLog/InclusionProof/ConsistencyProof build an append-only
// Merkle tree over leaf hashes with pairwise internal nodes) but reduced to
// a single fresh root computed per block rather than an accumulated,
// provable log, since the chain recomputes merkleRoot from scratch for
// every block instead of extending one log across its lifetime.
package merkle

import (
	"sort"

	"github.com/supernode-chain/corevm/internal/chaintypes"
)

// Order sorts transactions into the protocol's canonical order (spec.md
// §4.6): ascending nonce per sender, then ascending hash lex for distinct
// senders. It sorts in place and also returns the slice for chaining.
func Order(txs []chaintypes.Transaction) []chaintypes.Transaction {
	sort.SliceStable(txs, func(i, j int) bool {
		si, sj := string(txs[i].Sender), string(txs[j].Sender)
		if si == sj {
			return txs[i].Nonce < txs[j].Nonce
		}
		return txs[i].Hash.LessThan(txs[j].Hash)
	})
	return txs
}

// Root computes the Merkle root over txs, which must already be in
// canonical order (callers run Order first; Root does not re-sort so it can
// also be used to verify a received block's claimed order). Leaves are
// SHA256(tx.hash) — an explicit second hashing so a transaction hash itself
// never doubles as a tree node. An empty transaction set yields the zero
// digest.
func Root(txs []chaintypes.Transaction) chaintypes.Hash {
	if len(txs) == 0 {
		return chaintypes.Hash{}
	}

	level := make([]chaintypes.Hash, len(txs))
	for i, tx := range txs {
		level[i] = chaintypes.Sum256(tx.Hash[:])
	}

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]chaintypes.Hash, len(level)/2)
		for i := 0; i < len(next); i++ {
			pair := make([]byte, 0, 2*chaintypes.HashSize)
			left, right := level[2*i], level[2*i+1]
			pair = append(pair, left[:]...)
			pair = append(pair, right[:]...)
			next[i] = chaintypes.Sum256(pair)
		}
		level = next
	}
	return level[0]
}
