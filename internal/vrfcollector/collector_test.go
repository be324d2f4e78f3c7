package vrfcollector

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supernode-chain/corevm/internal/chainerrors"
	"github.com/supernode-chain/corevm/internal/chaintypes"
	"github.com/supernode-chain/corevm/internal/vrf"
)

func genMember(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub, priv
}

func announce(t *testing.T, round uint64, prevHash chaintypes.Hash, pub ed25519.PublicKey, priv ed25519.PrivateKey) chaintypes.VRFAnnouncement {
	t.Helper()
	input := chaintypes.RoundVRFInput(prevHash, round)
	out, err := vrf.Evaluate(priv, input)
	require.NoError(t, err)
	return chaintypes.VRFAnnouncement{
		Round:     round,
		PublicKey: pub,
		Output:    out.Value,
		Proof:     out.Proof,
		Score:     vrf.Score(out.Value),
	}
}

func TestCollectReachesQuorum(t *testing.T) {
	prevHash := chaintypes.Sum256([]byte("genesis"))
	pub1, priv1 := genMember(t)
	pub2, priv2 := genMember(t)
	pub3, priv3 := genMember(t)
	committee := []ed25519.PublicKey{pub1, pub2, pub3}

	c := New(1, prevHash, committee)
	require.NoError(t, c.Submit(announce(t, 1, prevHash, pub1, priv1)))
	require.NoError(t, c.Submit(announce(t, 1, prevHash, pub2, priv2)))
	require.NoError(t, c.Submit(announce(t, 1, prevHash, pub3, priv3)))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res, err := c.Collect(ctx, time.Now().Add(time.Second))
	require.NoError(t, err)
	assert.True(t, res.QuorumMet)
	assert.Len(t, res.Announcements, 3)
}

func TestCollectTimesOutBelowQuorum(t *testing.T) {
	prevHash := chaintypes.Sum256([]byte("genesis"))
	pub1, priv1 := genMember(t)
	pub2, _ := genMember(t)
	pub3, _ := genMember(t)
	committee := []ed25519.PublicKey{pub1, pub2, pub3}

	c := New(1, prevHash, committee)
	require.NoError(t, c.Submit(announce(t, 1, prevHash, pub1, priv1)))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res, err := c.Collect(ctx, time.Now().Add(80*time.Millisecond))
	require.Error(t, err)
	typed, ok := chainerrors.AsTyped(err)
	require.True(t, ok)
	assert.Equal(t, chainerrors.CategoryTimeout, typed.Category)
	assert.False(t, res.QuorumMet)
	assert.Len(t, res.Announcements, 1)
}

func TestSubmitRejectsNonMember(t *testing.T) {
	prevHash := chaintypes.Sum256([]byte("genesis"))
	pub1, priv1 := genMember(t)
	outsider, outsiderPriv := genMember(t)
	committee := []ed25519.PublicKey{pub1}

	c := New(1, prevHash, committee)
	err := c.Submit(announce(t, 1, prevHash, outsider, outsiderPriv))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotCommitteeMember)
}

func TestSubmitRejectsWrongRound(t *testing.T) {
	prevHash := chaintypes.Sum256([]byte("genesis"))
	pub1, priv1 := genMember(t)
	committee := []ed25519.PublicKey{pub1}

	c := New(1, prevHash, committee)
	err := c.Submit(announce(t, 2, prevHash, pub1, priv1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrongRound)
}

func TestSubmitKeepsFirstOnDuplicate(t *testing.T) {
	prevHash := chaintypes.Sum256([]byte("genesis"))
	pub1, priv1 := genMember(t)
	committee := []ed25519.PublicKey{pub1}

	c := New(1, prevHash, committee)
	require.NoError(t, c.Submit(announce(t, 1, prevHash, pub1, priv1)))
	require.NoError(t, c.Submit(announce(t, 1, prevHash, pub1, priv1)))
	assert.Equal(t, 1, c.Count())
}

func TestSubmitRejectsInvalidProof(t *testing.T) {
	prevHash := chaintypes.Sum256([]byte("genesis"))
	pub1, _ := genMember(t)
	_, otherPriv := genMember(t)
	committee := []ed25519.PublicKey{pub1}

	c := New(1, prevHash, committee)
	forged := announce(t, 1, prevHash, pub1, otherPriv)
	err := c.Submit(forged)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidVRFProof)
}
