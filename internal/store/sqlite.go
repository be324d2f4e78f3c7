package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/supernode-chain/corevm/internal/chaintypes"
)

// SQLiteStore is a pure-Go persisted Backend, grounded on the teacher's
// internal/store/sqlite.go (same modernc.org/sqlite driver, same
// open-database/initSchema/guard-with-mutex shape), with the events/
// checkpoints schema replaced by blocks/txs/accounts/chain_state tables.
type SQLiteStore struct {
	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// NewSQLiteStore opens (creating if absent) the sqlite database at
// cfg.SQLitePath and ensures its schema exists.
func NewSQLiteStore(cfg *Config) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", cfg.SQLitePath)
	if err != nil {
		return nil, &StoreError{Op: "open", Err: err, Key: cfg.SQLitePath}
	}
	db.SetMaxOpenConns(1)
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS blocks (
	height       INTEGER PRIMARY KEY,
	hash         TEXT NOT NULL UNIQUE,
	body         BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS txs (
	hash  TEXT PRIMARY KEY,
	body  BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS accounts (
	public_key TEXT PRIMARY KEY,
	body       BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS chain_state (
	id   INTEGER PRIMARY KEY CHECK (id = 0),
	body BLOB NOT NULL
);
`
	_, err := s.db.Exec(schema)
	if err != nil {
		return &StoreError{Op: "init_schema", Err: err}
	}
	return nil
}

func (s *SQLiteStore) PutBlock(ctx context.Context, block *chaintypes.Block) error {
	body, err := json.Marshal(block)
	if err != nil {
		return &StoreError{Op: "put_block", Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO blocks(height, hash, body) VALUES (?, ?, ?)
		 ON CONFLICT(height) DO UPDATE SET hash=excluded.hash, body=excluded.body`,
		block.Height, block.BlockHash.String(), body)
	if err != nil {
		return &StoreError{Op: "put_block", Err: err}
	}
	for i := range block.Transactions {
		tx := block.Transactions[i]
		txBody, err := json.Marshal(tx)
		if err != nil {
			return &StoreError{Op: "put_block", Err: err}
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO txs(hash, body) VALUES (?, ?)
			 ON CONFLICT(hash) DO UPDATE SET body=excluded.body`,
			tx.Hash.String(), txBody); err != nil {
			return &StoreError{Op: "put_block", Err: err}
		}
	}
	return nil
}

func (s *SQLiteStore) GetBlockByHeight(ctx context.Context, height uint64) (*chaintypes.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.db.QueryRowContext(ctx, `SELECT body FROM blocks WHERE height = ?`, height)
	return scanBlock(row, "get_block_by_height")
}

func (s *SQLiteStore) GetBlockByHash(ctx context.Context, hash chaintypes.Hash) (*chaintypes.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.db.QueryRowContext(ctx, `SELECT body FROM blocks WHERE hash = ?`, hash.String())
	return scanBlock(row, "get_block_by_hash")
}

func scanBlock(row *sql.Row, op string) (*chaintypes.Block, error) {
	var body []byte
	if err := row.Scan(&body); err != nil {
		if err == sql.ErrNoRows {
			return nil, &StoreError{Op: op, Err: ErrNotFound}
		}
		return nil, &StoreError{Op: op, Err: err}
	}
	var block chaintypes.Block
	if err := json.Unmarshal(body, &block); err != nil {
		return nil, &StoreError{Op: op, Err: err}
	}
	return &block, nil
}

func (s *SQLiteStore) CurrentHeight(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var height sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(height) FROM blocks`).Scan(&height)
	if err != nil {
		return 0, &StoreError{Op: "current_height", Err: err}
	}
	if !height.Valid {
		return 0, nil
	}
	return uint64(height.Int64), nil
}

func (s *SQLiteStore) PutTx(ctx context.Context, tx *chaintypes.Transaction) error {
	body, err := json.Marshal(tx)
	if err != nil {
		return &StoreError{Op: "put_tx", Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO txs(hash, body) VALUES (?, ?)
		 ON CONFLICT(hash) DO UPDATE SET body=excluded.body`,
		tx.Hash.String(), body)
	if err != nil {
		return &StoreError{Op: "put_tx", Err: err}
	}
	return nil
}

func (s *SQLiteStore) GetTx(ctx context.Context, hash chaintypes.Hash) (*chaintypes.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM txs WHERE hash = ?`, hash.String()).Scan(&body)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &StoreError{Op: "get_tx", Err: ErrNotFound}
		}
		return nil, &StoreError{Op: "get_tx", Err: err}
	}
	var tx chaintypes.Transaction
	if err := json.Unmarshal(body, &tx); err != nil {
		return nil, &StoreError{Op: "get_tx", Err: err}
	}
	return &tx, nil
}

func (s *SQLiteStore) GetAccount(ctx context.Context, publicKey []byte) (*chaintypes.AccountState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM accounts WHERE public_key = ?`, fmt.Sprintf("%x", publicKey)).Scan(&body)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &StoreError{Op: "get_account", Err: ErrNotFound}
		}
		return nil, &StoreError{Op: "get_account", Err: err}
	}
	var acct chaintypes.AccountState
	if err := json.Unmarshal(body, &acct); err != nil {
		return nil, &StoreError{Op: "get_account", Err: err}
	}
	return &acct, nil
}

func (s *SQLiteStore) PutAccount(ctx context.Context, account *chaintypes.AccountState) error {
	body, err := json.Marshal(account)
	if err != nil {
		return &StoreError{Op: "put_account", Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO accounts(public_key, body) VALUES (?, ?)
		 ON CONFLICT(public_key) DO UPDATE SET body=excluded.body`,
		fmt.Sprintf("%x", account.PublicKey), body)
	if err != nil {
		return &StoreError{Op: "put_account", Err: err}
	}
	return nil
}

func (s *SQLiteStore) GetChainState(ctx context.Context) (*chaintypes.ChainState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM chain_state WHERE id = 0`).Scan(&body)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &StoreError{Op: "get_chain_state", Err: ErrNotFound}
		}
		return nil, &StoreError{Op: "get_chain_state", Err: err}
	}
	var cs chaintypes.ChainState
	if err := json.Unmarshal(body, &cs); err != nil {
		return nil, &StoreError{Op: "get_chain_state", Err: err}
	}
	return &cs, nil
}

func (s *SQLiteStore) PutChainState(ctx context.Context, chain *chaintypes.ChainState) error {
	body, err := json.Marshal(chain)
	if err != nil {
		return &StoreError{Op: "put_chain_state", Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chain_state(id, body) VALUES (0, ?)
		 ON CONFLICT(id) DO UPDATE SET body=excluded.body`,
		body)
	if err != nil {
		return &StoreError{Op: "put_chain_state", Err: err}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
