package txvalidator

import "errors"

var (
	ErrInvalidSignature  = errors.New("transaction signature verification failed")
	ErrNonPositiveAmount = errors.New("transaction amount must be positive")
	ErrNegativeFee       = errors.New("transaction fee must be non-negative")
	ErrSelfTransfer      = errors.New("transfer sender and receiver must differ")
	ErrNonceMismatch     = errors.New("transaction nonce does not follow account nonce")
	ErrInsufficientBalance = errors.New("account balance insufficient for amount plus fee")
	ErrInsufficientStake = errors.New("account stake insufficient for unstake amount")
	ErrInvalidReward     = errors.New("reward transaction does not match expected proposer reward")
	ErrUnknownTxType     = errors.New("unrecognized transaction type")
)
