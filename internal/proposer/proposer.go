// Package proposer builds, mines, and signs a block when the local node
// wins a round (C10). Grounded on the teacher's DefaultCheckpointor
// (internal/consensus/checkpointor.go) for the overall "assemble, then
// commit" shape of ForceCheckpoint/createCheckpointFromSTH; the LPoW
// mining loop itself has no teacher analogue (the teacher's consensus is
// committee-BFT, not proof-of-work) and is built directly from spec.md
// §4.9's cooperative-cancellation description, using the same
// ctx-first, ctx.Done()-checked-in-loops idiom the teacher uses
// throughout internal/p2p and internal/consensus.
package proposer

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"time"

	"github.com/supernode-chain/corevm/internal/chainerrors"
	"github.com/supernode-chain/corevm/internal/chaintypes"
	"github.com/supernode-chain/corevm/internal/merkle"
	"github.com/supernode-chain/corevm/internal/txvalidator"
)

// miningCheckInterval is how many nonce attempts the miner tries between
// cancellation checks (spec.md §4.9: "N=2^14").
const miningCheckInterval = 1 << 14

// AccountLookup is the read-only account view the proposer validates
// pending transactions against.
type AccountLookup interface {
	Get(publicKey []byte) (chaintypes.AccountState, bool)
}

// BuildParams carries everything about the round the proposer needs that
// isn't itself mempool content: round identity, the VRF result that made
// this node the winner, and the committee/reward context to embed in the
// header.
type BuildParams struct {
	Height              uint64
	PreviousHash        chaintypes.Hash
	Round               uint64
	ProposerPk          ed25519.PublicKey
	VRFOutput           [32]byte
	VRFProof            [64]byte
	AllVRFAnnouncements []chaintypes.VRFAnnouncement
	RewardedTopX        []ed25519.PublicKey
	DifficultyTarget    chaintypes.DifficultyTarget
	MempoolSnapshot     []chaintypes.Transaction
	Accounts            AccountLookup
}

// Proposer assembles and mines blocks for a signing key.
type Proposer struct {
	signer    ed25519.PrivateKey
	publicKey ed25519.PublicKey
	validator *txvalidator.Validator
}

// New builds a Proposer for the given keypair.
func New(publicKey ed25519.PublicKey, privateKey ed25519.PrivateKey) *Proposer {
	return &Proposer{signer: privateKey, publicKey: publicKey, validator: txvalidator.New()}
}

// Propose runs the full C10 pipeline: filter the mempool snapshot against
// pre-state, order canonically, compute the Merkle root, mine LPoW under a
// cooperative-cancellation loop bounded by deadline, and sign the result.
// It returns a chainerrors.CategoryTimeout error if mining does not finish
// before deadline, and ctx.Err() if ctx is cancelled first.
func (p *Proposer) Propose(ctx context.Context, params BuildParams, deadline time.Time) (*chaintypes.Block, error) {
	txs := p.selectTransactions(params)
	root := merkle.Root(txs)

	block := &chaintypes.Block{
		Height:              params.Height,
		PreviousHash:        params.PreviousHash,
		Timestamp:           chaintypes.Now(),
		Round:               params.Round,
		ProposerPk:          params.ProposerPk,
		VRFOutput:           params.VRFOutput,
		VRFProof:            params.VRFProof,
		AllVRFAnnouncements: params.AllVRFAnnouncements,
		RewardedTopX:        params.RewardedTopX,
		Transactions:        txs,
		MerkleRoot:          root,
		Nonce:               0,
		DifficultyTarget:    params.DifficultyTarget,
	}

	if err := p.mine(ctx, block, deadline); err != nil {
		return nil, err
	}

	sig := ed25519.Sign(p.signer, block.BlockHash[:])
	block.Signatures = map[string][]byte{hex.EncodeToString(p.publicKey): sig}

	return block, nil
}

// selectTransactions runs C8 against a scratch overlay of pre-state,
// dropping invalid transactions and simulating accepted ones so later
// transactions from the same sender see an up-to-date nonce/balance, then
// orders the survivors canonically (spec.md §4.9 step 1).
func (p *Proposer) selectTransactions(params BuildParams) []chaintypes.Transaction {
	scratch := make(map[string]chaintypes.AccountState)
	lookup := func(pk []byte) chaintypes.AccountState {
		if acct, ok := scratch[string(pk)]; ok {
			return acct
		}
		if acct, ok := params.Accounts.Get(pk); ok {
			return acct
		}
		return chaintypes.AccountState{PublicKey: append([]byte{}, pk...)}
	}

	var accepted []chaintypes.Transaction
	for i := range params.MempoolSnapshot {
		tx := params.MempoolSnapshot[i]
		sender := lookup(tx.Sender)
		if err := p.validator.Validate(&tx, sender, txvalidator.RewardContext{}); err != nil {
			continue
		}
		accepted = append(accepted, tx)
		scratch[string(tx.Sender)] = simulateApply(sender, &tx)
	}
	return merkle.Order(accepted)
}

// simulateApply mirrors statetransition's per-type balance/nonce effects
// on the sender side only, just enough to keep rolling pre-state accurate
// for nonce and balance checks during selection.
func simulateApply(sender chaintypes.AccountState, tx *chaintypes.Transaction) chaintypes.AccountState {
	switch tx.Type {
	case chaintypes.TxTransfer, chaintypes.TxStake:
		sender.Balance -= tx.Amount + tx.Fee
		sender.Nonce++
		if tx.Type == chaintypes.TxStake {
			sender.StakeAmount += tx.Amount
		}
	case chaintypes.TxUnstake:
		sender.StakeAmount -= tx.Amount
		sender.Balance += tx.Amount - tx.Fee
		sender.Nonce++
	}
	return sender
}

// mine iterates Nonce until the header hash satisfies DifficultyTarget,
// checking for cancellation every miningCheckInterval attempts. On
// cancellation it discards all mining state — the caller gets an error and
// no partial commitment survives (spec.md §4.9: "resumable... no partial
// commitment").
func (p *Proposer) mine(ctx context.Context, block *chaintypes.Block, deadline time.Time) error {
	var nonce uint64
	for {
		block.Nonce = nonce
		h := chaintypes.ComputeBlockHash(block)
		if block.DifficultyTarget.Satisfies(h) {
			block.BlockHash = h
			return nil
		}

		nonce++
		if nonce%miningCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if !time.Now().Before(deadline) {
				return chainerrors.New(chainerrors.CategoryTimeout, chainerrors.ErrMiningTimeout)
			}
		}
	}
}
