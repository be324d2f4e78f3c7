package store

import (
	"context"
	"sync"

	"github.com/supernode-chain/corevm/internal/chaintypes"
)

// MemoryStore is the always-available Backend, grounded on the teacher's
// in-memory test doubles (internal/store/memory_only_test.go) promoted to
// a first-class backend rather than a test-only fixture, since this
// domain has no blob/event concerns that would force persistence.
type MemoryStore struct {
	mu         sync.RWMutex
	byHeight   map[uint64]*chaintypes.Block
	byHash     map[chaintypes.Hash]*chaintypes.Block
	txs        map[chaintypes.Hash]*chaintypes.Transaction
	accounts   map[string]*chaintypes.AccountState
	chainState *chaintypes.ChainState
	height     uint64
	closed     bool
}

// NewMemoryStore returns an empty Store backed by Go maps under a mutex.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byHeight: make(map[uint64]*chaintypes.Block),
		byHash:   make(map[chaintypes.Hash]*chaintypes.Block),
		txs:      make(map[chaintypes.Hash]*chaintypes.Transaction),
		accounts: make(map[string]*chaintypes.AccountState),
	}
}

func (s *MemoryStore) PutBlock(ctx context.Context, block *chaintypes.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	cp := *block
	s.byHeight[block.Height] = &cp
	s.byHash[block.BlockHash] = &cp
	if block.Height > s.height || len(s.byHeight) == 1 {
		s.height = block.Height
	}
	for i := range block.Transactions {
		tx := block.Transactions[i]
		s.txs[tx.Hash] = &tx
	}
	return nil
}

func (s *MemoryStore) GetBlockByHeight(ctx context.Context, height uint64) (*chaintypes.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byHeight[height]
	if !ok {
		return nil, &StoreError{Op: "get_block_by_height", Err: ErrNotFound}
	}
	return b, nil
}

func (s *MemoryStore) GetBlockByHash(ctx context.Context, hash chaintypes.Hash) (*chaintypes.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byHash[hash]
	if !ok {
		return nil, &StoreError{Op: "get_block_by_hash", Err: ErrNotFound}
	}
	return b, nil
}

func (s *MemoryStore) CurrentHeight(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.height, nil
}

func (s *MemoryStore) PutTx(ctx context.Context, tx *chaintypes.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	cp := *tx
	s.txs[tx.Hash] = &cp
	return nil
}

func (s *MemoryStore) GetTx(ctx context.Context, hash chaintypes.Hash) (*chaintypes.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.txs[hash]
	if !ok {
		return nil, &StoreError{Op: "get_tx", Err: ErrNotFound}
	}
	return tx, nil
}

func (s *MemoryStore) GetAccount(ctx context.Context, publicKey []byte) (*chaintypes.AccountState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[string(publicKey)]
	if !ok {
		return nil, &StoreError{Op: "get_account", Err: ErrNotFound}
	}
	return acct, nil
}

func (s *MemoryStore) PutAccount(ctx context.Context, account *chaintypes.AccountState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	cp := *account
	s.accounts[string(account.PublicKey)] = &cp
	return nil
}

func (s *MemoryStore) GetChainState(ctx context.Context) (*chaintypes.ChainState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.chainState == nil {
		return nil, &StoreError{Op: "get_chain_state", Err: ErrNotFound}
	}
	cp := *s.chainState
	return &cp, nil
}

func (s *MemoryStore) PutChainState(ctx context.Context, chain *chaintypes.ChainState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	cp := *chain
	s.chainState = &cp
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
