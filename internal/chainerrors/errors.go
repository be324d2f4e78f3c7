// Package chainerrors defines the consensus error taxonomy (§7): a
// transport-independent classification that the driver and its
// collaborators use to decide whether to recover locally or halt.
package chainerrors

import "errors"

// Category classifies an error by how the driver must react to it.
type Category int

const (
	// CategoryFatalBootstrap halts the node: missing keypair, corrupt
	// genesis, unreachable storage.
	CategoryFatalBootstrap Category = iota
	// CategoryValidation rejects a block; the driver does not apply it
	// and reports the originating peer for scoring.
	CategoryValidation
	// CategoryQuorum fails the current round; the driver advances the
	// round without advancing height.
	CategoryQuorum
	// CategoryTimeout fails the current round (VRF collection or block
	// arrival exceeded its deadline).
	CategoryTimeout
	// CategoryTransaction drops a transaction from the mempool and
	// surfaces the error to its submitter.
	CategoryTransaction
	// CategoryTransientIO is a storage error eligible for retry with
	// backoff; once retries are exhausted it is treated as fatal.
	CategoryTransientIO
)

func (c Category) String() string {
	switch c {
	case CategoryFatalBootstrap:
		return "fatal_bootstrap"
	case CategoryValidation:
		return "validation"
	case CategoryQuorum:
		return "quorum"
	case CategoryTimeout:
		return "timeout"
	case CategoryTransaction:
		return "transaction"
	case CategoryTransientIO:
		return "transient_io"
	default:
		return "unknown"
	}
}

// Typed is a typed error carrying its taxonomy category. The driver and
// RPC layer switch on Category rather than on string matching.
type Typed struct {
	Category Category
	Err      error
}

func (t *Typed) Error() string { return t.Category.String() + ": " + t.Err.Error() }
func (t *Typed) Unwrap() error { return t.Err }

// New wraps err with a taxonomy category.
func New(category Category, err error) *Typed {
	return &Typed{Category: category, Err: err}
}

// Sentinel errors shared across consensus packages. Specific packages
// (vrfcollector, validator, txvalidator) define their own more granular
// sentinels and wrap them with New() where they cross a component
// boundary.
var (
	ErrMissingKeypair     = errors.New("missing node keypair")
	ErrCorruptGenesis     = errors.New("corrupt genesis block")
	ErrStorageUnreachable = errors.New("storage unreachable")

	ErrQuorumNotMet  = errors.New("round quorum not met")
	ErrRoundTimeout  = errors.New("round deadline exceeded")
	ErrBlockTimeout  = errors.New("block arrival deadline exceeded")
	ErrMiningTimeout = errors.New("block production deadline exceeded")

	ErrRetriesExhausted = errors.New("transient I/O retries exhausted")
)

// AsTyped reports whether err (or something it wraps) is a *Typed, and
// returns it.
func AsTyped(err error) (*Typed, bool) {
	var t *Typed
	if errors.As(err, &t) {
		return t, true
	}
	return nil, false
}
