package validator

import "errors"

var (
	ErrHeightMismatch        = errors.New("block height does not follow parent")
	ErrPreviousHashMismatch  = errors.New("block previousHash does not match parent blockHash")
	ErrTimestampNotAdvancing = errors.New("block timestamp does not advance past parent")
	ErrTooManyTransactions   = errors.New("block exceeds maxTxPerBlock")

	ErrAnnouncementVerifyFailed = errors.New("a VRF announcement failed verification")
	ErrQuorumNotReached         = errors.New("fewer than 2/3 of the committee announced validly")
	ErrVRFOutputMismatch        = errors.New("block vrfOutput does not match the round winner's output")

	ErrProposerNotRankZero = errors.New("block proposerPk is not rank 0 of the announcement ranking")

	ErrMerkleRootMismatch = errors.New("recomputed merkleRoot does not match block.merkleRoot")

	ErrPowNotSatisfied   = errors.New("block header hash does not satisfy its difficultyTarget")
	ErrWrongDifficulty   = errors.New("block difficultyTarget does not match the expected difficulty for this height")
	ErrBlockHashMismatch = errors.New("recomputed block hash does not match block.blockHash")

	ErrProposerSignatureMissing = errors.New("block has no signature from its proposer")
	ErrProposerSignatureInvalid = errors.New("block proposer signature does not verify")

	ErrTransactionInvalid   = errors.New("a block transaction failed validation")
	ErrRewardAmountMismatch = errors.New("REWARD transaction amount does not equal baseReward(height)")
)
