package chaincrypto

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyPairFromSeedDeterministic(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}

	kp1, err := NewKeyPairFromSeed(seed)
	require.NoError(t, err)
	kp2, err := NewKeyPairFromSeed(seed)
	require.NoError(t, err)

	assert.Equal(t, kp1.PublicKey, kp2.PublicKey)
	assert.Equal(t, kp1.PrivateKey, kp2.PrivateKey)
}

func TestKeyPairFromSeedInvalidSize(t *testing.T) {
	_, err := NewKeyPairFromSeed([]byte("too short"))
	assert.Error(t, err)
}

func TestSignAndVerify(t *testing.T) {
	kp, err := NewKeyPair()
	require.NoError(t, err)

	signer := NewSigner(kp)
	msg := []byte("block header bytes")

	sig, err := signer.Sign(msg)
	require.NoError(t, err)
	assert.Len(t, sig, ed25519.SignatureSize)
	assert.True(t, Verify(kp.PublicKey, msg, sig))
}

func TestVerifyRejectsBitFlips(t *testing.T) {
	kp, err := NewKeyPair()
	require.NoError(t, err)
	signer := NewSigner(kp)
	msg := []byte("block header bytes")

	sig, err := signer.Sign(msg)
	require.NoError(t, err)

	flippedMsg := append([]byte(nil), msg...)
	flippedMsg[0] ^= 0x01
	assert.False(t, Verify(kp.PublicKey, flippedMsg, sig))

	flippedSig := append([]byte(nil), sig...)
	flippedSig[0] ^= 0x01
	assert.False(t, Verify(kp.PublicKey, msg, flippedSig))
}

func TestVerifyIsTotal(t *testing.T) {
	assert.False(t, Verify(nil, []byte("x"), []byte("y")))
	assert.False(t, Verify(make(ed25519.PublicKey, 4), []byte("x"), make([]byte, 64)))
}

func TestPublicKeyHexRoundTrip(t *testing.T) {
	kp, err := NewKeyPair()
	require.NoError(t, err)

	hex := kp.PublicKeyHex()
	decoded, err := PublicKeyFromHex(hex)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey, decoded)
}

func TestPublicKeyFromHexRejectsMalformed(t *testing.T) {
	_, err := PublicKeyFromHex("not-hex!!")
	assert.Error(t, err)

	_, err = PublicKeyFromHex("aabb")
	assert.Error(t, err)
}
