package main

import (
	"context"
	"errors"

	"github.com/supernode-chain/corevm/internal/chaintypes"
	"github.com/supernode-chain/corevm/internal/mempool"
	"github.com/supernode-chain/corevm/internal/store"
)

func (s *Server) getLatestBlock(ctx context.Context) (*chaintypes.Block, error) {
	height, err := s.Store.CurrentHeight(ctx)
	if err != nil {
		return nil, &rpcMappedError{code: codeStorageError, err: err}
	}
	return s.getBlockByHeight(ctx, height)
}

func (s *Server) getBlockByHeight(ctx context.Context, height uint64) (*chaintypes.Block, error) {
	block, err := s.Store.GetBlockByHeight(ctx, height)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &rpcMappedError{code: codeBlockNotFound, err: err}
		}
		return nil, &rpcMappedError{code: codeStorageError, err: err}
	}
	return block, nil
}

func (s *Server) getBlockByHash(ctx context.Context, hashHex string) (*chaintypes.Block, error) {
	hash, err := chaintypes.HashFromHex(hashHex)
	if err != nil {
		return nil, &rpcMappedError{code: codeInvalidParams, err: err}
	}
	block, err := s.Store.GetBlockByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &rpcMappedError{code: codeBlockNotFound, err: err}
		}
		return nil, &rpcMappedError{code: codeStorageError, err: err}
	}
	return block, nil
}

// getBlocks returns blocks in [from, to], inclusive, stopping early (rather
// than erroring) at the first missing height so a client requesting past
// the chain tip still gets whatever prefix exists.
func (s *Server) getBlocks(ctx context.Context, from, to uint64) ([]*chaintypes.Block, error) {
	if to < from {
		return nil, &rpcMappedError{code: codeInvalidParams, err: errors.New("to must be >= from")}
	}
	var blocks []*chaintypes.Block
	for h := from; h <= to; h++ {
		block, err := s.Store.GetBlockByHeight(ctx, h)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				break
			}
			return nil, &rpcMappedError{code: codeStorageError, err: err}
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

func (s *Server) getTransactionByHash(ctx context.Context, hashHex string) (*chaintypes.Transaction, error) {
	hash, err := chaintypes.HashFromHex(hashHex)
	if err != nil {
		return nil, &rpcMappedError{code: codeInvalidParams, err: err}
	}
	tx, err := s.Store.GetTx(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &rpcMappedError{code: codeTxNotFound, err: err}
		}
		return nil, &rpcMappedError{code: codeStorageError, err: err}
	}
	return tx, nil
}

// broadcastTransaction submits tx into the mempool after recomputing its
// hash, mirroring the proposer's own canonical-bytes computation so a
// client-supplied hash can never desync from what the chain will hash at
// inclusion time.
func (s *Server) broadcastTransaction(tx *chaintypes.Transaction) (map[string]string, error) {
	tx.Hash = chaintypes.ComputeTxHash(tx)
	if err := s.Mempool.Submit(*tx); err != nil {
		if errors.Is(err, mempool.ErrPoolFull) {
			return nil, &rpcMappedError{code: codeValidationError, err: err}
		}
		return nil, &rpcMappedError{code: codeInternalError, err: err}
	}
	return map[string]string{"hash": tx.Hash.String()}, nil
}

func (s *Server) getAccountInfo(ctx context.Context, pkHex string) (*chaintypes.AccountState, error) {
	pk, err := decodeHexKey(pkHex)
	if err != nil {
		return nil, err
	}
	acct, err := s.Store.GetAccount(ctx, pk)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &rpcMappedError{code: codeAccountNotFound, err: err}
		}
		return nil, &rpcMappedError{code: codeStorageError, err: err}
	}
	return acct, nil
}

func (s *Server) getChainState(ctx context.Context) (*chaintypes.ChainState, error) {
	cs, err := s.Store.GetChainState(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &rpcMappedError{code: codeStorageError, err: err}
		}
		return nil, &rpcMappedError{code: codeStorageError, err: err}
	}
	return cs, nil
}

func (s *Server) getNetworkStats(ctx context.Context) (map[string]interface{}, error) {
	cs, err := s.getChainState(ctx)
	if err != nil {
		return nil, err
	}
	stats := map[string]interface{}{
		"currentHeight":     cs.CurrentHeight,
		"currentRound":      cs.CurrentRound,
		"totalSupply":       cs.TotalSupply,
		"activeSuperNodes":  cs.ActiveSuperNodes,
		"currentDifficulty": cs.CurrentDifficulty.String(),
		"mempoolSize":       s.Mempool.Len(),
	}
	if s.StatusFn != nil {
		status := s.StatusFn()
		stats["consensusPhase"] = status.Phase
		stats["consensusEpoch"] = status.Epoch
	}
	return stats, nil
}
