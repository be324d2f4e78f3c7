// Package chaincrypto wraps Ed25519 keypair generation, signing, and
// verification (C2) behind a small interface so the rest of the
// consensus engine never imports crypto/ed25519 directly.
package chaincrypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// KeyPair holds an Ed25519 public/private key pair. The private half
// never leaves the signing boundary that owns it.
type KeyPair struct {
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

// NewKeyPair generates a fresh Ed25519 key pair.
func NewKeyPair() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key pair: %w", err)
	}
	return &KeyPair{PublicKey: pub, PrivateKey: priv}, nil
}

// NewKeyPairFromSeed deterministically derives a key pair from a
// 32-byte seed.
func NewKeyPairFromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid seed size: expected %d, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &KeyPair{PublicKey: pub, PrivateKey: priv}, nil
}

// PublicKeyHex returns the canonical lowercase, unprefixed hex
// encoding of the public key, as used on the wire and as the account
// identifier (§4.1).
func (kp *KeyPair) PublicKeyHex() string {
	return hex.EncodeToString(kp.PublicKey)
}

// Signer signs messages with an Ed25519 private key.
type Signer struct {
	keyPair *KeyPair
}

// NewSigner wraps a key pair as a Signer.
func NewSigner(keyPair *KeyPair) *Signer {
	return &Signer{keyPair: keyPair}
}

// Sign signs data, returning the 64-byte Ed25519 signature.
func (s *Signer) Sign(data []byte) ([]byte, error) {
	if s.keyPair == nil || s.keyPair.PrivateKey == nil {
		return nil, ErrNoPrivateKey
	}
	return ed25519.Sign(s.keyPair.PrivateKey, data), nil
}

// PublicKey returns the signer's public key.
func (s *Signer) PublicKey() ed25519.PublicKey {
	if s.keyPair == nil {
		return nil
	}
	return s.keyPair.PublicKey
}

// Verify verifies an Ed25519 signature. It is total: a malformed
// public key or signature returns false rather than panicking, per
// §4.1.
func Verify(publicKey ed25519.PublicKey, data, signature []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	if len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(publicKey, data, signature)
}

// PublicKeyFromHex decodes a lowercase hex-encoded public key and
// validates its length. Returns an error for malformed input rather
// than a public key that would silently fail every later Verify call.
func PublicKeyFromHex(s string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode public key hex: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid public key size: expected %d, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// PublicKeyBase64 and SignatureBase64 provide the base64 convenience
// encodings the gossip/RPC DTOs use.
func PublicKeyBase64(pk ed25519.PublicKey) string  { return base64.StdEncoding.EncodeToString(pk) }
func SignatureBase64(sig []byte) string            { return base64.StdEncoding.EncodeToString(sig) }
func DecodeBase64(s string) ([]byte, error)         { return base64.StdEncoding.DecodeString(s) }
