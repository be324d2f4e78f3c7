package chaintypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTxHashDeterministic(t *testing.T) {
	tx := &Transaction{
		Sender:    make([]byte, 32),
		Receiver:  make([]byte, 32),
		Amount:    100,
		Fee:       1,
		Nonce:     1,
		Timestamp: 1000,
		Type:      TxTransfer,
	}
	h1 := ComputeTxHash(tx)
	h2 := ComputeTxHash(tx)
	assert.Equal(t, h1, h2)

	tx2 := *tx
	tx2.Amount = 101
	h3 := ComputeTxHash(&tx2)
	assert.NotEqual(t, h1, h3)
}

func TestComputeBlockHashExcludesSignatures(t *testing.T) {
	b := &Block{
		Height:       1,
		PreviousHash: Sum256([]byte("genesis")),
		Timestamp:    1000,
		Round:        1,
		ProposerPk:   make([]byte, 32),
		Transactions: nil,
		MerkleRoot:   Hash{},
		DifficultyTarget: DifficultyTargetFromUint64(1000),
	}
	h1 := ComputeBlockHash(b)

	b2 := *b
	b2.Signatures = map[string][]byte{"pk": []byte("sig")}
	h2 := ComputeBlockHash(&b2)

	assert.Equal(t, h1, h2, "signatures must not affect the header hash")
}

func TestDifficultyTargetSatisfies(t *testing.T) {
	target := DifficultyTargetFromUint64(1 << 20)
	easy := Hash{} // all zero, satisfies any positive target
	assert.True(t, target.Satisfies(easy))

	hard := Hash{}
	for i := range hard {
		hard[i] = 0xff
	}
	assert.False(t, target.Satisfies(hard))
}

func TestDifficultyTargetClampBounds(t *testing.T) {
	old := DifficultyTargetFromUint64(1000)
	lo := old.MulRatio(1, 4)
	hi := old.MulRatio(4, 1)

	tooEasy := old.MulRatio(100, 1)
	clamped := tooEasy.Clamp(lo, hi)
	assert.Equal(t, hi.String(), clamped.String())

	tooHard := old.MulRatio(1, 100)
	clamped = tooHard.Clamp(lo, hi)
	assert.Equal(t, lo.String(), clamped.String())
}

func TestHashCID(t *testing.T) {
	h := Sum256([]byte("hello"))
	c, err := h.CID()
	require.NoError(t, err)
	assert.NotEmpty(t, c.String())
}

func TestHashFromHexRoundTrip(t *testing.T) {
	h := Sum256([]byte("roundtrip"))
	decoded, err := HashFromHex(h.String())
	require.NoError(t, err)
	assert.Equal(t, h, decoded)
}
