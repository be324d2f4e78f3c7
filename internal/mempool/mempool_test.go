package mempool

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/supernode-chain/corevm/internal/chaintypes"
)

func newTx(sender string, nonce uint64) chaintypes.Transaction {
	tx := chaintypes.Transaction{
		Sender:    []byte(sender),
		Receiver:  []byte("bob"),
		Amount:    1,
		Nonce:     nonce,
		Type:      chaintypes.TxTransfer,
		Timestamp: 1,
	}
	tx.Hash = chaintypes.ComputeTxHash(&tx)
	return tx
}

func TestSubmitAndSnapshotPreservesOrder(t *testing.T) {
	p := New(10)
	a, b, c := newTx("alice", 1), newTx("alice", 2), newTx("bob", 1)

	require.NoError(t, p.Submit(a))
	require.NoError(t, p.Submit(b))
	require.NoError(t, p.Submit(c))

	snap := p.Snapshot(10)
	require.Len(t, snap, 3)
	require.Equal(t, a.Hash, snap[0].Hash)
	require.Equal(t, b.Hash, snap[1].Hash)
	require.Equal(t, c.Hash, snap[2].Hash)
}

func TestSubmitDeduplicatesIdenticalTransaction(t *testing.T) {
	p := New(10)
	tx := newTx("alice", 1)
	require.NoError(t, p.Submit(tx))
	require.NoError(t, p.Submit(tx))
	require.Equal(t, 1, p.Len())
}

func TestSubmitRejectsWhenFull(t *testing.T) {
	p := New(1)
	require.NoError(t, p.Submit(newTx("alice", 1)))
	err := p.Submit(newTx("bob", 1))
	require.ErrorIs(t, err, ErrPoolFull)
}

func TestSnapshotRespectsLimit(t *testing.T) {
	p := New(10)
	for i := uint64(0); i < 5; i++ {
		require.NoError(t, p.Submit(newTx("alice", i)))
	}
	require.Len(t, p.Snapshot(2), 2)
}

func TestRemoveEvictsAndAllowsResubmission(t *testing.T) {
	p := New(10)
	tx := newTx("alice", 1)
	require.NoError(t, p.Submit(tx))
	require.Equal(t, 1, p.Len())

	p.Remove([]chaintypes.Hash{tx.Hash})
	require.Equal(t, 0, p.Len())

	require.NoError(t, p.Submit(tx))
	require.Equal(t, 1, p.Len())
}
