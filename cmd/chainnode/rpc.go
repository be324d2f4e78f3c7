// Package main implements chainnode, the JSON-RPC 2.0 server §6 describes.
// Grounded on cmd/fullnode/main.go's REST server shape (gorilla/mux router,
// gorilla/handlers logging middleware, rs/cors, a ServerConfig with the same
// read/write/idle timeout fields), retargeted from a REST blob/event/
// checkpoint API to a single JSON-RPC 2.0 endpoint dispatching by method
// name, since this domain's clients query blocks/transactions/accounts
// rather than DID events.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/supernode-chain/corevm/internal/chainerrors"
	"github.com/supernode-chain/corevm/internal/chaintypes"
	"github.com/supernode-chain/corevm/internal/mempool"
	"github.com/supernode-chain/corevm/internal/store"
)

// JSON-RPC 2.0 standard error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// Chain-specific error codes in the reserved -32001..-32010 range (§6).
const (
	codeBlockNotFound        = -32001
	codeTxNotFound           = -32002
	codeAccountNotFound      = -32003
	codeInsufficientBalance  = -32004
	codeInvalidSignature     = -32005
	codeInvalidNonce         = -32006
	codeStorageError         = -32007
	codeNetworkError         = -32008
	codeConsensusError       = -32009
	codeValidationError      = -32010
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// Server holds the dependencies every RPC method reads or writes: the
// storage layer (C1/§6) and the mempool transactions are submitted into.
// StatusFn, when non-nil, exposes the consensus driver's round-status
// introspection for getNetworkStats.
type Server struct {
	Store    store.Store
	Mempool  *mempool.Pool
	StatusFn func() NetworkStatus
}

// NetworkStatus is the subset of consensus.Status getNetworkStats reports.
type NetworkStatus struct {
	Phase  string `json:"phase"`
	Height uint64 `json:"height"`
	Round  uint64 `json:"round"`
	Epoch  uint64 `json:"epoch"`
}

// ServeHTTP implements the single JSON-RPC 2.0 POST endpoint.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeResponse(w, rpcResponse{JSONRPC: "2.0", Error: &rpcError{Code: codeInvalidRequest, Message: "POST required"}})
		return
	}

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, rpcResponse{JSONRPC: "2.0", Error: &rpcError{Code: codeParseError, Message: "parse error: " + err.Error()}})
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		writeResponse(w, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: codeInvalidRequest, Message: "invalid request"}})
		return
	}

	result, err := s.dispatch(r.Context(), req.Method, req.Params)
	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	if err != nil {
		resp.Error = toRPCError(err)
	} else {
		resp.Result = result
	}
	writeResponse(w, resp)
}

func writeResponse(w http.ResponseWriter, resp rpcResponse) {
	if resp.JSONRPC == "" {
		resp.JSONRPC = "2.0"
	}
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) dispatch(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
	switch method {
	case "getLatestBlock":
		return s.getLatestBlock(ctx)
	case "getBlockByHeight":
		var p struct {
			Height uint64 `json:"height"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return s.getBlockByHeight(ctx, p.Height)
	case "getBlockByHash":
		var p struct {
			Hash string `json:"hash"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return s.getBlockByHash(ctx, p.Hash)
	case "getBlocks":
		var p struct {
			From uint64 `json:"from"`
			To   uint64 `json:"to"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return s.getBlocks(ctx, p.From, p.To)
	case "getTransactionByHash":
		var p struct {
			Hash string `json:"hash"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return s.getTransactionByHash(ctx, p.Hash)
	case "broadcastTransaction":
		var p struct {
			Transaction chaintypes.Transaction `json:"transaction"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return s.broadcastTransaction(&p.Transaction)
	case "getAccountInfo":
		var p struct {
			PublicKey string `json:"publicKey"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return s.getAccountInfo(ctx, p.PublicKey)
	case "getAccountBalance":
		var p struct {
			PublicKey string `json:"publicKey"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		acct, err := s.getAccountInfo(ctx, p.PublicKey)
		if err != nil {
			return nil, err
		}
		return map[string]uint64{"balance": acct.Balance}, nil
	case "getAccountStake":
		var p struct {
			PublicKey string `json:"publicKey"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		acct, err := s.getAccountInfo(ctx, p.PublicKey)
		if err != nil {
			return nil, err
		}
		return map[string]uint64{"stake": acct.StakeAmount}, nil
	case "getChainState":
		return s.getChainState(ctx)
	case "getNetworkStats":
		return s.getNetworkStats(ctx)
	case "getCurrentHeight":
		height, err := s.Store.CurrentHeight(ctx)
		if err != nil {
			return nil, &rpcMappedError{code: codeStorageError, err: err}
		}
		return map[string]uint64{"height": height}, nil
	default:
		return nil, &rpcMappedError{code: codeMethodNotFound, err: errors.New("method not found: " + method)}
	}
}

func decodeParams(params json.RawMessage, v interface{}) error {
	if len(params) == 0 {
		return &rpcMappedError{code: codeInvalidParams, err: errors.New("missing params")}
	}
	if err := json.Unmarshal(params, v); err != nil {
		return &rpcMappedError{code: codeInvalidParams, err: err}
	}
	return nil
}

// rpcMappedError carries a pre-assigned JSON-RPC error code chosen by the
// method handler: request-shape errors, not-found lookups, storage
// failures and mempool rejections.
type rpcMappedError struct {
	code int
	err  error
}

func (e *rpcMappedError) Error() string { return e.err.Error() }
func (e *rpcMappedError) Unwrap() error { return e.err }

func toRPCError(err error) *rpcError {
	var mapped *rpcMappedError
	if errors.As(err, &mapped) {
		return &rpcError{Code: mapped.code, Message: mapped.Error()}
	}
	if errors.Is(err, store.ErrNotFound) {
		return &rpcError{Code: codeBlockNotFound, Message: err.Error()}
	}
	if typed, ok := chainerrors.AsTyped(err); ok {
		switch typed.Category {
		case chainerrors.CategoryValidation:
			return &rpcError{Code: codeValidationError, Message: err.Error()}
		case chainerrors.CategoryTransaction:
			return &rpcError{Code: codeValidationError, Message: err.Error()}
		case chainerrors.CategoryTransientIO:
			return &rpcError{Code: codeStorageError, Message: err.Error()}
		case chainerrors.CategoryQuorum, chainerrors.CategoryTimeout:
			return &rpcError{Code: codeConsensusError, Message: err.Error()}
		}
	}
	if errors.Is(err, mempool.ErrPoolFull) {
		return &rpcError{Code: codeValidationError, Message: err.Error()}
	}
	return &rpcError{Code: codeInternalError, Message: err.Error()}
}

func decodeHexKey(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, &rpcMappedError{code: codeInvalidParams, err: err}
	}
	return b, nil
}
