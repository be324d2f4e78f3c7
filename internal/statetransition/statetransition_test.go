package statetransition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supernode-chain/corevm/internal/chaintypes"
)

type memStore struct {
	accounts map[string]chaintypes.AccountState
}

func newMemStore() *memStore {
	return &memStore{accounts: make(map[string]chaintypes.AccountState)}
}

func (m *memStore) Get(pk []byte) (chaintypes.AccountState, bool) {
	a, ok := m.accounts[string(pk)]
	if !ok {
		return chaintypes.AccountState{PublicKey: append([]byte{}, pk...)}, false
	}
	return a, true
}

func (m *memStore) Put(a chaintypes.AccountState) {
	m.accounts[string(a.PublicKey)] = a
}

func TestApplyTransferMovesBalanceAndFee(t *testing.T) {
	store := newMemStore()
	sender := []byte{1}
	receiver := []byte{2}
	store.Put(chaintypes.AccountState{PublicKey: sender, Balance: 100, Nonce: 0})

	block := &chaintypes.Block{
		Round:     1,
		Timestamp: 5000,
		Transactions: []chaintypes.Transaction{
			{Sender: sender, Receiver: receiver, Amount: 40, Fee: 2, Nonce: 1, Type: chaintypes.TxTransfer},
		},
	}
	chain := &chaintypes.ChainState{CurrentHeight: 9}

	result := Apply(store, chain, block, 100, nil)
	assert.Equal(t, uint64(2), result.FeePoolCollected)

	s, _ := store.Get(sender)
	assert.Equal(t, uint64(58), s.Balance)
	assert.Equal(t, uint64(1), s.Nonce)

	r, _ := store.Get(receiver)
	assert.Equal(t, uint64(40), r.Balance)

	assert.Equal(t, uint64(10), chain.CurrentHeight)
	assert.Equal(t, uint64(1), chain.CurrentRound)
	assert.Equal(t, int64(5000), chain.LastUpdateTimestamp)
}

func TestApplyStakeAndUnstake(t *testing.T) {
	store := newMemStore()
	sender := []byte{1}
	store.Put(chaintypes.AccountState{PublicKey: sender, Balance: 100})

	block := &chaintypes.Block{
		Transactions: []chaintypes.Transaction{
			{Sender: sender, Receiver: sender, Amount: 30, Fee: 1, Nonce: 1, Type: chaintypes.TxStake},
		},
	}
	Apply(store, &chaintypes.ChainState{}, block, 0, nil)
	s, _ := store.Get(sender)
	assert.Equal(t, uint64(69), s.Balance)
	assert.Equal(t, uint64(30), s.StakeAmount)

	block2 := &chaintypes.Block{
		Transactions: []chaintypes.Transaction{
			{Sender: sender, Receiver: sender, Amount: 10, Fee: 1, Nonce: 2, Type: chaintypes.TxUnstake},
		},
	}
	Apply(store, &chaintypes.ChainState{}, block2, 0, nil)
	s, _ = store.Get(sender)
	assert.Equal(t, uint64(20), s.StakeAmount)
	assert.Equal(t, uint64(78), s.Balance)
}

func TestDistributeRewardsConservesTotalWithShortfallToRankZero(t *testing.T) {
	store := newMemStore()
	a, b, c := []byte{1}, []byte{2}, []byte{3}
	shares := []RewardShare{
		{PublicKey: a, Score: 0.5},
		{PublicKey: b, Score: 0.3},
		{PublicKey: c, Score: 0.2},
	}
	block := &chaintypes.Block{}
	result := Apply(store, &chaintypes.ChainState{}, block, 10, shares)
	require.Equal(t, uint64(10), result.TotalDistributed)

	sa, _ := store.Get(a)
	sb, _ := store.Get(b)
	sc, _ := store.Get(c)
	assert.Equal(t, uint64(10), sa.Balance+sb.Balance+sc.Balance)
	assert.GreaterOrEqual(t, sa.Balance, sb.Balance, "rank[0] (highest score) absorbs any rounding shortfall")
}

func TestDistributeRewardsNoSharesIsNoOp(t *testing.T) {
	store := newMemStore()
	block := &chaintypes.Block{}
	result := Apply(store, &chaintypes.ChainState{}, block, 50, nil)
	assert.Equal(t, uint64(0), result.TotalDistributed)
}
