package consensus

import (
	"context"

	"github.com/supernode-chain/corevm/internal/chaintypes"
)

// Gossip is the subset of the §6 gossip contract the driver consumes and
// produces: announcing this node's own VRF, broadcasting a mined block,
// and the two inbound channels other committee members' traffic arrives
// on. internal/p2p's ConsensusGossip implements this over real pubsub
// topics; tests substitute an in-memory channel pair.
type Gossip interface {
	AnnounceVRF(ctx context.Context, ann chaintypes.VRFAnnouncement) error
	BroadcastBlock(ctx context.Context, block *chaintypes.Block) error
	Announcements() <-chan chaintypes.VRFAnnouncement
	Blocks() <-chan *chaintypes.Block
}

// CommitteeProvider supplies the committee snapshot for an epoch (spec.md
// §9 open question 4: rotation mechanism is external). The driver treats
// the returned slice as immutable and swaps its held pointer atomically at
// epoch boundaries (§5).
type CommitteeProvider interface {
	Snapshot(epoch uint64) []CommitteeMember
}

// BlockSink is the minimal storage write-path the driver needs after a
// block is accepted: persist it and hand it to state transition.
// internal/store's block/account/chain column families implement this.
type BlockSink interface {
	PutBlock(block *chaintypes.Block) error
	GetBlock(height uint64) (*chaintypes.Block, bool)
}

// AccountLookup is the read-only account view proposer/validator/state
// transition all need; re-declared here (rather than imported from one of
// those packages) so this package doesn't take a dependency direction on
// any of its own collaborators' interface types.
type AccountLookup interface {
	Get(publicKey []byte) (chaintypes.AccountState, bool)
	Put(account chaintypes.AccountState)
}

// Mempool is the producer-many/consumer-one pending-transaction pool the
// proposer snapshots from (§5). internal/mempool implements this.
type Mempool interface {
	Snapshot(limit int) []chaintypes.Transaction
	Remove(hashes []chaintypes.Hash)
}

// ChainStateStore persists the versioned ChainState (§3, §6).
type ChainStateStore interface {
	Chain() chaintypes.ChainState
	PutChain(chaintypes.ChainState)
}
