// Package vrfcollector implements round-scoped collection of committee VRF
// announcements (C5): members submit (round, publicKey, output, proof,
// score) tuples, the collector verifies each against the round's VRF input
// and waits for quorum or a deadline. Adapted from the teacher's
// DefaultCheckpointor (internal/consensus/checkpointor.go), whose
// deadline-bounded, ticker-polled partial-signature accumulation has the
// same shape: swap "BLS partial signature toward a threshold" for "VRF
// announcement toward a 2/3 committee quorum".
package vrfcollector

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/supernode-chain/corevm/internal/chaintypes"
	"github.com/supernode-chain/corevm/internal/chainerrors"
	"github.com/supernode-chain/corevm/internal/vrf"
)

// Sentinel errors specific to round collection; wrapped with their
// taxonomy category (chainerrors.CategoryValidation/CategoryTimeout) at the
// point Submit/Collect returns them.
var (
	ErrWrongRound         = errors.New("announcement round does not match collector round")
	ErrNotCommitteeMember = errors.New("announcement signer is not a committee member for this round")
	ErrInvalidVRFProof    = errors.New("announcement failed VRF verification")
)

// pollInterval is how often Collect checks accumulated announcements
// against quorum while waiting for the deadline; the same polling pattern
// as the teacher's createCheckpointFromSTH, at 50ms instead of its 1 second.
const pollInterval = 50 * time.Millisecond

// RoundResult is the outcome of collecting one round's announcements.
type RoundResult struct {
	Round         uint64
	Announcements []chaintypes.VRFAnnouncement
	QuorumMet     bool
}

// Collector accumulates VRF announcements for a single round.
type Collector struct {
	mu        sync.Mutex
	round     uint64
	input     []byte
	committee map[string]ed25519.PublicKey // hex pubkey -> key
	quorum    int
	received  map[string]chaintypes.VRFAnnouncement // hex pubkey -> first announcement seen
}

// New builds a Collector for round against prevBlockHash, restricted to the
// given committee. Quorum is ceil(2/3 * |committee|) (§4.4).
func New(round uint64, prevBlockHash chaintypes.Hash, committee []ed25519.PublicKey) *Collector {
	members := make(map[string]ed25519.PublicKey, len(committee))
	for _, pk := range committee {
		members[hex.EncodeToString(pk)] = pk
	}
	return &Collector{
		round:     round,
		input:     chaintypes.RoundVRFInput(prevBlockHash, round),
		committee: members,
		quorum:    QuorumSize(len(committee)),
		received:  make(map[string]chaintypes.VRFAnnouncement),
	}
}

func QuorumSize(n int) int {
	if n == 0 {
		return 0
	}
	return (2*n + 2) / 3
}

// Submit validates and records one announcement. Announcements from
// non-members, for the wrong round, that fail VRF verification, or that
// duplicate an already-seen public key (keep-first, §4.4) are rejected
// without disturbing previously accepted state.
func (c *Collector) Submit(ann chaintypes.VRFAnnouncement) error {
	if ann.Round != c.round {
		return chainerrors.New(chainerrors.CategoryValidation, ErrWrongRound)
	}
	key := hex.EncodeToString(ann.PublicKey)

	c.mu.Lock()
	defer c.mu.Unlock()

	member, ok := c.committee[key]
	if !ok {
		return chainerrors.New(chainerrors.CategoryValidation, ErrNotCommitteeMember)
	}
	if _, seen := c.received[key]; seen {
		return nil
	}
	if !vrf.Verify(member, c.input, ann.Output, ann.Proof) {
		return chainerrors.New(chainerrors.CategoryValidation, ErrInvalidVRFProof)
	}

	c.received[key] = ann
	return nil
}

// Count returns the number of distinct committee members collected so far.
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.received)
}

// snapshot copies out the currently accumulated announcements and whether
// quorum has been met.
func (c *Collector) snapshot() RoundResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]chaintypes.VRFAnnouncement, 0, len(c.received))
	for _, ann := range c.received {
		out = append(out, ann)
	}
	return RoundResult{
		Round:         c.round,
		Announcements: out,
		QuorumMet:     len(out) >= c.quorum,
	}
}

// Collect blocks until quorum is reached, the deadline passes, or ctx is
// cancelled, returning whatever was accumulated. Callers submit concurrently
// via Submit from their gossip handler goroutine.
func (c *Collector) Collect(ctx context.Context, deadline time.Time) (RoundResult, error) {
	if r := c.snapshot(); r.QuorumMet {
		return r, nil
	}

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if r := c.snapshot(); r.QuorumMet {
				return r, nil
			}
		case <-timer.C:
			r := c.snapshot()
			return r, chainerrors.New(chainerrors.CategoryTimeout, chainerrors.ErrQuorumNotMet)
		case <-ctx.Done():
			return c.snapshot(), ctx.Err()
		}
	}
}
