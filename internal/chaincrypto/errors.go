package chaincrypto

import "errors"

var (
	// ErrNoPrivateKey indicates no private key is available for signing.
	ErrNoPrivateKey = errors.New("no private key available")
	// ErrInvalidPublicKey indicates a public key failed validation.
	ErrInvalidPublicKey = errors.New("invalid public key")
	// ErrInvalidSignature indicates a signature failed verification.
	ErrInvalidSignature = errors.New("invalid signature")
)
