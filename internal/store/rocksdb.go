// +build rocksdb

package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/linxGnu/grocksdb"

	"github.com/supernode-chain/corevm/internal/chaintypes"
)

// Column family names, retargeted from the teacher's events/checkpoints/
// blobs families (internal/store/rocksdb.go) to the four this domain's §6
// contract needs.
const (
	cfBlocks     = "blocks"
	cfTxs        = "txs"
	cfAccounts   = "accounts"
	cfChainState = "chainstate"
)

const chainStateKey = "current"

// RocksDBStore implements Store over a column-family RocksDB database via
// grocksdb, mirroring the teacher's open()/applyConfig() shape.
type RocksDBStore struct {
	config *Config
	db     *grocksdb.DB
	opts   *grocksdb.Options
	cfs    map[string]*grocksdb.ColumnFamilyHandle

	readOpts  *grocksdb.ReadOptions
	writeOpts *grocksdb.WriteOptions

	mu     sync.RWMutex
	closed bool
}

// NewRocksDBStore opens (creating if absent) the RocksDB database at
// cfg.RocksDB.Path with the block/tx/account/chain-state column families.
func NewRocksDBStore(cfg *Config) (*RocksDBStore, error) {
	s := &RocksDBStore{config: cfg, cfs: make(map[string]*grocksdb.ColumnFamilyHandle)}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *RocksDBStore) open() error {
	s.opts = grocksdb.NewDefaultOptions()
	s.opts.SetCreateIfMissing(true)
	s.opts.SetCreateIfMissingColumnFamilies(true)
	if s.config.RocksDB.MaxOpenFiles > 0 {
		s.opts.SetMaxOpenFiles(s.config.RocksDB.MaxOpenFiles)
	}
	if s.config.RocksDB.WriteBufferSizeMB > 0 {
		s.opts.SetWriteBufferSize(uint64(s.config.RocksDB.WriteBufferSizeMB) * 1024 * 1024)
	}
	if s.config.RocksDB.BlockCacheSizeMB > 0 {
		blockCache := grocksdb.NewLRUCache(uint64(s.config.RocksDB.BlockCacheSizeMB) * 1024 * 1024)
		blockOpts := grocksdb.NewDefaultBlockBasedTableOptions()
		blockOpts.SetBlockCache(blockCache)
		s.opts.SetBlockBasedTableFactory(blockOpts)
	}
	switch s.config.RocksDB.CompressionType {
	case "snappy":
		s.opts.SetCompression(grocksdb.SnappyCompression)
	case "lz4":
		s.opts.SetCompression(grocksdb.LZ4Compression)
	case "zstd":
		s.opts.SetCompression(grocksdb.ZSTDCompression)
	default:
		s.opts.SetCompression(grocksdb.NoCompression)
	}
	if !s.config.RocksDB.EnableWAL {
		s.opts.SetDisableWAL(true)
	}

	cfNames := []string{"default", cfBlocks, cfTxs, cfAccounts, cfChainState}
	cfOpts := make([]*grocksdb.Options, len(cfNames))
	for i := range cfNames {
		cfOpts[i] = grocksdb.NewDefaultOptions()
	}

	db, handles, err := grocksdb.OpenDbColumnFamilies(s.opts, s.config.RocksDB.Path, cfNames, cfOpts)
	if err != nil {
		return &StoreError{Op: "open", Err: err, Key: s.config.RocksDB.Path}
	}
	s.db = db
	for i, name := range cfNames {
		s.cfs[name] = handles[i]
	}

	s.readOpts = grocksdb.NewDefaultReadOptions()
	s.writeOpts = grocksdb.NewDefaultWriteOptions()
	s.writeOpts.SetSync(s.config.RocksDB.SyncWrites)
	return nil
}

func heightKey(height uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[7-i] = byte(height >> (8 * i))
	}
	return b
}

func (s *RocksDBStore) PutBlock(ctx context.Context, block *chaintypes.Block) error {
	body, err := json.Marshal(block)
	if err != nil {
		return &StoreError{Op: "put_block", Err: err}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.db.PutCF(s.writeOpts, s.cfs[cfBlocks], heightKey(block.Height), body); err != nil {
		return &StoreError{Op: "put_block", Err: err}
	}
	if err := s.db.PutCF(s.writeOpts, s.cfs[cfBlocks], []byte("hash:"+block.BlockHash.String()), heightKey(block.Height)); err != nil {
		return &StoreError{Op: "put_block", Err: err}
	}
	for i := range block.Transactions {
		tx := block.Transactions[i]
		txBody, err := json.Marshal(tx)
		if err != nil {
			return &StoreError{Op: "put_block", Err: err}
		}
		if err := s.db.PutCF(s.writeOpts, s.cfs[cfTxs], []byte(tx.Hash.String()), txBody); err != nil {
			return &StoreError{Op: "put_block", Err: err}
		}
	}
	return nil
}

func (s *RocksDBStore) GetBlockByHeight(ctx context.Context, height uint64) (*chaintypes.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slice, err := s.db.GetCF(s.readOpts, s.cfs[cfBlocks], heightKey(height))
	if err != nil {
		return nil, &StoreError{Op: "get_block_by_height", Err: err}
	}
	defer slice.Free()
	if !slice.Exists() {
		return nil, &StoreError{Op: "get_block_by_height", Err: ErrNotFound}
	}
	var block chaintypes.Block
	if err := json.Unmarshal(slice.Data(), &block); err != nil {
		return nil, &StoreError{Op: "get_block_by_height", Err: err}
	}
	return &block, nil
}

func (s *RocksDBStore) GetBlockByHash(ctx context.Context, hash chaintypes.Hash) (*chaintypes.Block, error) {
	s.mu.RLock()
	slice, err := s.db.GetCF(s.readOpts, s.cfs[cfBlocks], []byte("hash:"+hash.String()))
	s.mu.RUnlock()
	if err != nil {
		return nil, &StoreError{Op: "get_block_by_hash", Err: err}
	}
	defer slice.Free()
	if !slice.Exists() {
		return nil, &StoreError{Op: "get_block_by_hash", Err: ErrNotFound}
	}
	height := uint64(0)
	for _, b := range slice.Data() {
		height = height<<8 | uint64(b)
	}
	return s.GetBlockByHeight(ctx, height)
}

func (s *RocksDBStore) CurrentHeight(ctx context.Context) (uint64, error) {
	cs, err := s.GetChainState(ctx)
	if err != nil {
		if typed, ok := err.(*StoreError); ok && typed.Err == ErrNotFound {
			return 0, nil
		}
		return 0, err
	}
	return cs.CurrentHeight, nil
}

func (s *RocksDBStore) PutTx(ctx context.Context, tx *chaintypes.Transaction) error {
	body, err := json.Marshal(tx)
	if err != nil {
		return &StoreError{Op: "put_tx", Err: err}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.db.PutCF(s.writeOpts, s.cfs[cfTxs], []byte(tx.Hash.String()), body); err != nil {
		return &StoreError{Op: "put_tx", Err: err}
	}
	return nil
}

func (s *RocksDBStore) GetTx(ctx context.Context, hash chaintypes.Hash) (*chaintypes.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slice, err := s.db.GetCF(s.readOpts, s.cfs[cfTxs], []byte(hash.String()))
	if err != nil {
		return nil, &StoreError{Op: "get_tx", Err: err}
	}
	defer slice.Free()
	if !slice.Exists() {
		return nil, &StoreError{Op: "get_tx", Err: ErrNotFound}
	}
	var tx chaintypes.Transaction
	if err := json.Unmarshal(slice.Data(), &tx); err != nil {
		return nil, &StoreError{Op: "get_tx", Err: err}
	}
	return &tx, nil
}

func (s *RocksDBStore) GetAccount(ctx context.Context, publicKey []byte) (*chaintypes.AccountState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slice, err := s.db.GetCF(s.readOpts, s.cfs[cfAccounts], publicKey)
	if err != nil {
		return nil, &StoreError{Op: "get_account", Err: err}
	}
	defer slice.Free()
	if !slice.Exists() {
		return nil, &StoreError{Op: "get_account", Err: ErrNotFound}
	}
	var acct chaintypes.AccountState
	if err := json.Unmarshal(slice.Data(), &acct); err != nil {
		return nil, &StoreError{Op: "get_account", Err: err}
	}
	return &acct, nil
}

func (s *RocksDBStore) PutAccount(ctx context.Context, account *chaintypes.AccountState) error {
	body, err := json.Marshal(account)
	if err != nil {
		return &StoreError{Op: "put_account", Err: err}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.db.PutCF(s.writeOpts, s.cfs[cfAccounts], account.PublicKey, body); err != nil {
		return &StoreError{Op: "put_account", Err: err}
	}
	return nil
}

func (s *RocksDBStore) GetChainState(ctx context.Context) (*chaintypes.ChainState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slice, err := s.db.GetCF(s.readOpts, s.cfs[cfChainState], []byte(chainStateKey))
	if err != nil {
		return nil, &StoreError{Op: "get_chain_state", Err: err}
	}
	defer slice.Free()
	if !slice.Exists() {
		return nil, &StoreError{Op: "get_chain_state", Err: ErrNotFound}
	}
	var cs chaintypes.ChainState
	if err := json.Unmarshal(slice.Data(), &cs); err != nil {
		return nil, &StoreError{Op: "get_chain_state", Err: err}
	}
	return &cs, nil
}

func (s *RocksDBStore) PutChainState(ctx context.Context, chain *chaintypes.ChainState) error {
	body, err := json.Marshal(chain)
	if err != nil {
		return &StoreError{Op: "put_chain_state", Err: err}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.db.PutCF(s.writeOpts, s.cfs[cfChainState], []byte(chainStateKey), body); err != nil {
		return &StoreError{Op: "put_chain_state", Err: err}
	}
	return nil
}

func (s *RocksDBStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for _, cf := range s.cfs {
		cf.Destroy()
	}
	s.readOpts.Destroy()
	s.writeOpts.Destroy()
	s.db.Close()
	return nil
}
