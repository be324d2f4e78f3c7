package store

import (
	"context"

	"github.com/supernode-chain/corevm/internal/chaintypes"
)

// ConsensusAdapter bridges a context+error Store to the driver's narrower,
// synchronous BlockSink/AccountLookup/ChainStateStore interfaces
// (internal/consensus/interfaces.go). The driver runs single-threaded round
// logic against local state; there is nothing useful a caller could do
// with a storage error mid-round beyond logging it, so failed writes are
// recorded via onError rather than returned.
type ConsensusAdapter struct {
	Store   Store
	onError func(op string, err error)
}

// NewConsensusAdapter wraps store for consumption by internal/consensus.
// onError, if non-nil, is invoked whenever a wrapped call fails; a nil
// onError silently drops the error, matching the teacher's best-effort
// cache-population helpers (internal/store/fullnode.go).
func NewConsensusAdapter(s Store, onError func(op string, err error)) *ConsensusAdapter {
	return &ConsensusAdapter{Store: s, onError: onError}
}

func (a *ConsensusAdapter) report(op string, err error) {
	if err != nil && a.onError != nil {
		a.onError(op, err)
	}
}

// PutBlock implements consensus.BlockSink.
func (a *ConsensusAdapter) PutBlock(block *chaintypes.Block) error {
	return a.Store.PutBlock(context.Background(), block)
}

// GetBlock implements consensus.BlockSink.
func (a *ConsensusAdapter) GetBlock(height uint64) (*chaintypes.Block, bool) {
	block, err := a.Store.GetBlockByHeight(context.Background(), height)
	if err != nil {
		a.report("get_block", err)
		return nil, false
	}
	return block, true
}

// Get implements consensus.AccountLookup.
func (a *ConsensusAdapter) Get(publicKey []byte) (chaintypes.AccountState, bool) {
	acct, err := a.Store.GetAccount(context.Background(), publicKey)
	if err != nil {
		a.report("get_account", err)
		return chaintypes.AccountState{}, false
	}
	return *acct, true
}

// Put implements consensus.AccountLookup.
func (a *ConsensusAdapter) Put(account chaintypes.AccountState) {
	a.report("put_account", a.Store.PutAccount(context.Background(), &account))
}

// Chain implements consensus.ChainStateStore.
func (a *ConsensusAdapter) Chain() chaintypes.ChainState {
	cs, err := a.Store.GetChainState(context.Background())
	if err != nil {
		a.report("get_chain_state", err)
		return chaintypes.ChainState{}
	}
	return *cs
}

// PutChain implements consensus.ChainStateStore.
func (a *ConsensusAdapter) PutChain(chain chaintypes.ChainState) {
	a.report("put_chain_state", a.Store.PutChainState(context.Background(), &chain))
}
