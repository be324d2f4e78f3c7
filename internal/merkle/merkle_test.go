package merkle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/supernode-chain/corevm/internal/chaintypes"
)

func mkTx(sender byte, nonce uint64, tag byte) chaintypes.Transaction {
	tx := chaintypes.Transaction{
		Sender: []byte{sender},
		Nonce:  nonce,
	}
	tx.Hash = chaintypes.Sum256([]byte{sender, tag})
	return tx
}

func TestRootEmptyIsZero(t *testing.T) {
	assert.Equal(t, chaintypes.Hash{}, Root(nil))
}

func TestRootDeterministic(t *testing.T) {
	txs := []chaintypes.Transaction{
		mkTx('A', 1, 0),
		mkTx('A', 2, 1),
		mkTx('B', 1, 2),
	}
	r1 := Root(Order(append([]chaintypes.Transaction{}, txs...)))
	r2 := Root(Order(append([]chaintypes.Transaction{}, txs...)))
	assert.Equal(t, r1, r2)
}

func TestOrderPrimaryByNoncePerSender(t *testing.T) {
	txs := []chaintypes.Transaction{
		mkTx('A', 2, 1),
		mkTx('A', 1, 0),
	}
	Order(txs)
	assert.Equal(t, uint64(1), txs[0].Nonce)
	assert.Equal(t, uint64(2), txs[1].Nonce)
}

func TestOrderSecondaryByHashForDistinctSenders(t *testing.T) {
	a1 := mkTx('A', 1, 0)
	b1 := mkTx('B', 1, 0)
	txs := []chaintypes.Transaction{b1, a1}
	if b1.Hash.LessThan(a1.Hash) {
		txs = []chaintypes.Transaction{a1, b1}
	}
	Order(txs)
	first, second := txs[0], txs[1]
	assert.True(t, first.Hash.LessThan(second.Hash) || first.Hash == second.Hash)
}

func TestRootOddLevelDuplicatesLastNode(t *testing.T) {
	txs := Order([]chaintypes.Transaction{mkTx('A', 1, 0), mkTx('A', 2, 1), mkTx('A', 3, 2)})
	root := Root(txs)

	leaf0 := chaintypes.Sum256(txs[0].Hash[:])
	leaf1 := chaintypes.Sum256(txs[1].Hash[:])
	leaf2 := chaintypes.Sum256(txs[2].Hash[:])

	pair01 := append(append([]byte{}, leaf0[:]...), leaf1[:]...)
	node01 := chaintypes.Sum256(pair01)

	pair22 := append(append([]byte{}, leaf2[:]...), leaf2[:]...)
	node22 := chaintypes.Sum256(pair22)

	top := append(append([]byte{}, node01[:]...), node22[:]...)
	expected := chaintypes.Sum256(top)

	assert.Equal(t, expected, root)
}
