// Package validator implements the block validator state machine (C11):
// structural, VRF, proposer-ranking, Merkle, PoW, signature, and
// transaction checks over a candidate block against its parent, in the
// strict S0-S7 order spec.md §4.10 defines. Grounded on the teacher's
// consensus flow in internal/consensus/rules.go, which runs a fixed
// sequence of named checks and stops at the first failure; here the checks
// are block-structure/VRF/PoW rather than checkpoint/committee rules, and
// every failure is wrapped with its chainerrors taxonomy category instead
// of a plain error.
package validator

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"

	"github.com/supernode-chain/corevm/internal/chainerrors"
	"github.com/supernode-chain/corevm/internal/chaintypes"
	"github.com/supernode-chain/corevm/internal/merkle"
	"github.com/supernode-chain/corevm/internal/score"
	"github.com/supernode-chain/corevm/internal/txvalidator"
	"github.com/supernode-chain/corevm/internal/vrf"
	"github.com/supernode-chain/corevm/internal/vrfcollector"
)

// AccountLookup is the read-only account view transaction checks (S6) run
// against.
type AccountLookup interface {
	Get(publicKey []byte) (chaintypes.AccountState, bool)
}

// Params are the per-height facts the validator needs beyond the block and
// its parent: the committee that was eligible to announce, and the two
// height-dependent functions that would otherwise make validation
// ambiguous between nodes.
type Params struct {
	Committee          []ed25519.PublicKey
	MaxTxPerBlock      int
	ExpectedDifficulty func(height uint64) chaintypes.DifficultyTarget
	BaseReward         func(height uint64) uint64
	Accounts           AccountLookup
}

// Validator runs the S0-S7 state machine.
type Validator struct {
	params Params
	txval  *txvalidator.Validator
}

// New builds a Validator. params.Accounts must see the state as of the
// parent block (S6 checks roll forward against it transaction by
// transaction as a rolling pre-state).
func New(params Params) *Validator {
	return &Validator{params: params, txval: txvalidator.New()}
}

// Validate runs every state in order and returns the first failure,
// wrapped with chainerrors.CategoryValidation. A nil return means block
// is accepted (S7) and ready for statetransition.Apply.
func (v *Validator) Validate(block, parent *chaintypes.Block) error {
	if err := v.checkStructural(block, parent); err != nil {
		return err
	}
	if err := v.checkVRFSet(block); err != nil {
		return err
	}
	if err := v.checkProposerRank(block); err != nil {
		return err
	}
	if err := v.checkMerkle(block); err != nil {
		return err
	}
	if err := v.checkPoW(block); err != nil {
		return err
	}
	if err := v.checkSignature(block); err != nil {
		return err
	}
	if err := v.checkTransactions(block); err != nil {
		return err
	}
	return nil
}

// checkStructural is S0.
func (v *Validator) checkStructural(block, parent *chaintypes.Block) error {
	if block.Height != parent.Height+1 {
		return wrap(ErrHeightMismatch)
	}
	if block.PreviousHash != parent.BlockHash {
		return wrap(ErrPreviousHashMismatch)
	}
	if block.Timestamp <= parent.Timestamp {
		return wrap(ErrTimestampNotAdvancing)
	}
	if v.params.MaxTxPerBlock > 0 && len(block.Transactions) > v.params.MaxTxPerBlock {
		return wrap(ErrTooManyTransactions)
	}
	return nil
}

// checkVRFSet is S1: every announcement verifies against the round input,
// quorum is met, and the block's vrfOutput matches the round winner
// (rank-0 by VRF score alone, i.e. the value every node could compute
// before knowing the committee's final f-scores).
func (v *Validator) checkVRFSet(block *chaintypes.Block) error {
	members := make(map[string]ed25519.PublicKey, len(v.params.Committee))
	for _, pk := range v.params.Committee {
		members[hex.EncodeToString(pk)] = pk
	}

	input := chaintypes.RoundVRFInput(block.PreviousHash, block.Round)
	validCount := 0
	var bestScore float64
	var bestOutput [32]byte
	first := true

	for _, ann := range block.AllVRFAnnouncements {
		member, ok := members[hex.EncodeToString(ann.PublicKey)]
		if !ok {
			continue
		}
		if !vrf.Verify(member, input, ann.Output, ann.Proof) {
			return wrap(ErrAnnouncementVerifyFailed)
		}
		validCount++
		rawScore := vrf.Score(ann.Output)
		if first || rawScore > bestScore {
			bestScore, bestOutput, first = rawScore, ann.Output, false
		}
	}

	if validCount < vrfcollector.QuorumSize(len(v.params.Committee)) {
		return wrap(ErrQuorumNotReached)
	}
	if bestOutput != block.VRFOutput {
		return wrap(ErrVRFOutputMismatch)
	}
	return nil
}

// checkProposerRank is S2: the announcements' final scores, ranked, must
// put the block's proposerPk at rank 0.
func (v *Validator) checkProposerRank(block *chaintypes.Block) error {
	ranked := score.RankAnnouncements(block.AllVRFAnnouncements)
	if len(ranked) == 0 || string(ranked[0].PublicKey) != string(block.ProposerPk) {
		return wrap(ErrProposerNotRankZero)
	}
	return nil
}

// checkMerkle is S3.
func (v *Validator) checkMerkle(block *chaintypes.Block) error {
	ordered := merkle.Order(append([]chaintypes.Transaction{}, block.Transactions...))
	root := merkle.Root(ordered)
	if root != block.MerkleRoot {
		return wrap(ErrMerkleRootMismatch)
	}
	return nil
}

// checkPoW is S4.
func (v *Validator) checkPoW(block *chaintypes.Block) error {
	if v.params.ExpectedDifficulty != nil {
		expected := v.params.ExpectedDifficulty(block.Height)
		if expected.String() != block.DifficultyTarget.String() {
			return wrap(ErrWrongDifficulty)
		}
	}
	h := chaintypes.ComputeBlockHash(block)
	if h != block.BlockHash {
		return wrap(ErrBlockHashMismatch)
	}
	if !block.DifficultyTarget.Satisfies(h) {
		return wrap(ErrPowNotSatisfied)
	}
	return nil
}

// checkSignature is S5.
func (v *Validator) checkSignature(block *chaintypes.Block) error {
	sig, ok := block.Signatures[hex.EncodeToString(block.ProposerPk)]
	if !ok {
		return wrap(ErrProposerSignatureMissing)
	}
	if !ed25519.Verify(ed25519.PublicKey(block.ProposerPk), block.BlockHash[:], sig) {
		return wrap(ErrProposerSignatureInvalid)
	}
	return nil
}

// checkTransactions is S6: each transaction passes C8 against a rolling
// pre-state, and any REWARD transaction's amount equals baseReward(height).
func (v *Validator) checkTransactions(block *chaintypes.Block) error {
	scratch := make(map[string]chaintypes.AccountState)
	lookup := func(pk []byte) chaintypes.AccountState {
		if acct, ok := scratch[string(pk)]; ok {
			return acct
		}
		if v.params.Accounts != nil {
			if acct, ok := v.params.Accounts.Get(pk); ok {
				return acct
			}
		}
		return chaintypes.AccountState{PublicKey: append([]byte{}, pk...)}
	}

	var expectedReward uint64
	if v.params.BaseReward != nil {
		expectedReward = v.params.BaseReward(block.Height)
	}

	for i := range block.Transactions {
		tx := &block.Transactions[i]
		sender := lookup(tx.Sender)
		if err := v.txval.Validate(tx, sender, txvalidator.RewardContext{ExpectedAmount: expectedReward}); err != nil {
			if errors.Is(err, txvalidator.ErrInvalidReward) {
				return wrap(ErrRewardAmountMismatch)
			}
			return wrap(ErrTransactionInvalid)
		}
		scratch[string(tx.Sender)] = advance(sender, tx)
	}
	return nil
}

func advance(sender chaintypes.AccountState, tx *chaintypes.Transaction) chaintypes.AccountState {
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

func wrap(err error) error {
	return chainerrors.New(chainerrors.CategoryValidation, err)
}
