// Package mempool implements the producer-many/consumer-one pending-
// transaction pool §5 describes: RPC handlers submit transactions
// concurrently, the proposer snapshots a batch for each round it wins.
// Grounded on internal/store's own layering (a narrow interface plus an
// in-memory default implementation, swappable later for a persistent one)
// since the teacher repo carries no mempool of its own — it settles DID
// events, not account-chain transactions.
package mempool

import (
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/supernode-chain/corevm/internal/chaintypes"
)

// fingerprint is a fast, non-authoritative lookup key for de-duplicating
// submissions. The authoritative identity of a transaction remains its
// SHA-256 chaintypes.Hash (computed over the canonical signing bytes);
// blake2b here only keys an in-memory map and is never compared, hashed
// into, or substituted for that identity.
type fingerprint [32]byte

func fingerprintOf(tx *chaintypes.Transaction) fingerprint {
	return blake2b.Sum256(chaintypes.TxSigningBytes(tx))
}

// Pool is an in-memory Mempool (internal/consensus.Mempool): safe for
// concurrent Submit from many RPC goroutines and a single Snapshot/Remove
// caller per round from the consensus driver.
type Pool struct {
	mu      sync.Mutex
	order   []chaintypes.Hash
	byHash  map[chaintypes.Hash]chaintypes.Transaction
	seen    map[fingerprint]struct{}
	maxSize int
}

// New returns an empty Pool. maxSize bounds how many pending transactions
// are retained; Submit past that bound is rejected with ErrPoolFull so a
// slow chain can't let the mempool grow without limit.
func New(maxSize int) *Pool {
	return &Pool{
		byHash:  make(map[chaintypes.Hash]chaintypes.Transaction),
		seen:    make(map[fingerprint]struct{}),
		maxSize: maxSize,
	}
}

// Submit adds tx to the pool. Resubmission of an already-pending
// transaction (same signing bytes) is a no-op, not an error, so retrying
// RPC clients don't need to track what they've already sent.
func (p *Pool) Submit(tx chaintypes.Transaction) error {
	fp := fingerprintOf(&tx)

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.seen[fp]; ok {
		return nil
	}
	if len(p.order) >= p.maxSize {
		return ErrPoolFull
	}

	p.seen[fp] = struct{}{}
	p.byHash[tx.Hash] = tx
	p.order = append(p.order, tx.Hash)
	return nil
}

// Snapshot returns up to limit pending transactions in submission order,
// implementing internal/consensus.Mempool. The proposer filters and
// reorders this snapshot itself (C10); Snapshot makes no validity claims.
func (p *Pool) Snapshot(limit int) []chaintypes.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.order)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]chaintypes.Transaction, 0, n)
	for _, h := range p.order[:n] {
		out = append(out, p.byHash[h])
	}
	return out
}

// Remove evicts the given transaction hashes, called by the driver after a
// block carrying them is accepted (§5).
func (p *Pool) Remove(hashes []chaintypes.Hash) {
	if len(hashes) == 0 {
		return
	}
	toRemove := make(map[chaintypes.Hash]struct{}, len(hashes))
	for _, h := range hashes {
		toRemove[h] = struct{}{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	kept := p.order[:0]
	for _, h := range p.order {
		if _, remove := toRemove[h]; remove {
			tx := p.byHash[h]
			delete(p.seen, fingerprintOf(&tx))
			delete(p.byHash, h)
			continue
		}
		kept = append(kept, h)
	}
	p.order = kept
}

// Len reports the number of pending transactions.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.order)
}
