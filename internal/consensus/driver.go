package consensus

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/supernode-chain/corevm/internal/chainerrors"
	"github.com/supernode-chain/corevm/internal/chainlog"
	"github.com/supernode-chain/corevm/internal/chaintypes"
	"github.com/supernode-chain/corevm/internal/difficulty"
	"github.com/supernode-chain/corevm/internal/forkchoice"
	"github.com/supernode-chain/corevm/internal/proposer"
	"github.com/supernode-chain/corevm/internal/score"
	"github.com/supernode-chain/corevm/internal/statetransition"
	"github.com/supernode-chain/corevm/internal/txvalidator"
	"github.com/supernode-chain/corevm/internal/validator"
	"github.com/supernode-chain/corevm/internal/vrf"
	"github.com/supernode-chain/corevm/internal/vrfcollector"
)

// Deps are the Driver's collaborators, assembled by the node supervisor
// (spec.md §9: "assemble the consensus driver as a plain value with
// explicit constructor dependencies; lifecycle owned by the top-level
// node supervisor" — no global singletons).
type Deps struct {
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey

	Gossip     Gossip
	Committee  CommitteeProvider
	Blocks     BlockSink
	Chain      ChainStateStore
	Accounts   AccountLookup
	Mempool    Mempool
	Difficulty *difficulty.Controller

	Log *chainlog.Logger
}

// Driver runs the per-height round state machine (spec.md §4.11). It is
// the single writer of (currentHeight, currentRound, currentEpoch) — every
// transition happens on the one goroutine started by Start (spec.md §5).
type Driver struct {
	cfg  Config
	deps Deps

	scoreCalc *score.Calculator
	txval     *txvalidator.Validator

	mu      sync.Mutex
	status  Status
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	committeeSnapshot atomic.Pointer[[]CommitteeMember]
}

// New builds a Driver whose height/round/epoch are seeded from the stored
// ChainState; the first round it runs targets CurrentHeight+1. The
// committee snapshot starts empty and is loaded from the
// CommitteeProvider by Start.
func New(cfg Config, deps Deps) *Driver {
	d := &Driver{
		cfg:       cfg,
		deps:      deps,
		scoreCalc: score.NewCalculator(score.DefaultWeights()),
		txval:     txvalidator.New(),
	}
	chain := deps.Chain.Chain()
	d.status = Status{
		Phase:  PhaseIdle,
		Height: chain.CurrentHeight,
		Round:  chain.CurrentRound,
		Epoch:  chain.CurrentHeight / cfg.EpochLength,
	}
	empty := []CommitteeMember{}
	d.committeeSnapshot.Store(&empty)
	return d
}

// Status returns a copy of the driver's current round-progress snapshot.
func (d *Driver) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

func (d *Driver) setPhase(phase Phase) {
	d.mu.Lock()
	d.status.Phase = phase
	d.status.UpdatedAt = chaintypes.Now()
	d.mu.Unlock()
}

// Start begins the round loop on its own goroutine and returns
// immediately; Stop blocks until the loop has exited cleanly (spec.md §5:
// cancellation is cooperative and idempotent).
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = true
	d.stopCh = make(chan struct{})
	d.doneCh = make(chan struct{})
	d.mu.Unlock()

	d.refreshCommittee()
	go d.run(ctx)
	return nil
}

// Stop signals the loop to exit and waits for it to do so.
func (d *Driver) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	close(d.stopCh)
	done := d.doneCh
	d.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	d.setPhase(PhaseStopped)
	return nil
}

func (d *Driver) refreshCommittee() {
	epoch := d.Status().Epoch
	members := d.deps.Committee.Snapshot(epoch)
	snapshot := append([]CommitteeMember{}, members...)
	d.committeeSnapshot.Store(&snapshot)
}

func (d *Driver) committee() []CommitteeMember {
	return *d.committeeSnapshot.Load()
}

func (d *Driver) committeeKeys() []ed25519.PublicKey {
	members := d.committee()
	out := make([]ed25519.PublicKey, len(members))
	for i, m := range members {
		out[i] = m.PublicKey
	}
	return out
}

// run is the single scheduler loop: one iteration attempts to carry the
// round at (currentHeight, currentRound) to completion, either applying a
// block (height advances, round resets) or failing the round (round
// advances, height unchanged) (spec.md §4.11).
func (d *Driver) run(ctx context.Context) {
	defer close(d.doneCh)
	for {
		select {
		case <-d.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}
		d.runRound(ctx)
	}
}

func (d *Driver) runRound(ctx context.Context) {
	attempt := uuid.NewString()
	d.mu.Lock()
	d.status.RoundAttempt = attempt
	height, round := d.status.Height, d.status.Round
	d.mu.Unlock()

	nextHeight := height + 1
	log := d.deps.Log.With(map[string]interface{}{"height": nextHeight, "round": round, "attempt": attempt})
	d.setPhase(PhaseCollecting)

	chain := d.deps.Chain.Chain()
	roundResult, err := d.collect(ctx, nextHeight, round)
	if err != nil {
		log.Warn("round failed in VRF collection", map[string]interface{}{"error": err.Error()})
		d.failRound()
		return
	}

	ranked := d.scoreCalc.Rank(d.inputsFor(roundResult.Announcements))
	if len(ranked) == 0 {
		log.Warn("round failed: no ranked announcements")
		d.failRound()
		return
	}
	winner := ranked[0]
	topX := ranked[:min(d.cfg.RewardedTopX, len(ranked))]

	d.setPhase(PhaseDecided)

	var block *chaintypes.Block
	if hex.EncodeToString(winner.PublicKey) == hex.EncodeToString(d.deps.PublicKey) {
		block, err = d.propose(ctx, nextHeight, round, roundResult, topX, chain)
	} else {
		block, err = d.awaitBlock(ctx, nextHeight, round)
	}
	if err != nil {
		log.Warn("round failed", map[string]interface{}{"error": err.Error()})
		d.failRound()
		return
	}

	d.setPhase(PhaseApply)
	d.apply(block, topX)
	log.Info("block applied", map[string]interface{}{"new_height": block.Height})
}

func (d *Driver) inputsFor(anns []chaintypes.VRFAnnouncement) []score.Input {
	byKey := make(map[string]CommitteeMember, len(d.committee()))
	var totalStake, n float64
	for _, m := range d.committee() {
		byKey[hex.EncodeToString(m.PublicKey)] = m
		totalStake += float64(m.Stake)
		n++
	}
	var avgStake float64
	if n > 0 {
		avgStake = totalStake / n
	}

	now := chaintypes.Now()
	inputs := make([]score.Input, 0, len(anns))
	for _, ann := range anns {
		member, ok := byKey[hex.EncodeToString(ann.PublicKey)]
		if !ok {
			continue
		}
		daysSince := float64(now-member.ElectedAt) / (1000 * 60 * 60 * 24)
		inputs = append(inputs, score.Input{
			PublicKey:         ann.PublicKey,
			VRFScore:          vrf.Score(ann.Output),
			Stake:             member.Stake,
			AverageStake:      avgStake,
			DaysSinceElection: daysSince,
			UptimeRatio:       member.UptimeRatio,
		})
	}
	return inputs
}

// collect runs C5 for one round: announce this node's own VRF, then drain
// the gossip inbound channel into the collector until quorum or deadline.
func (d *Driver) collect(ctx context.Context, height, round uint64) (vrfcollector.RoundResult, error) {
	prevHash := chaintypes.Hash{}
	if block, ok := d.deps.Blocks.GetBlock(height - 1); ok {
		prevHash = block.BlockHash
	}

	collector := vrfcollector.New(round, prevHash, d.committeeKeys())
	input := chaintypes.RoundVRFInput(prevHash, round)

	out, err := vrf.Evaluate(d.deps.PrivateKey, input)
	if err != nil {
		return vrfcollector.RoundResult{}, chainerrors.New(chainerrors.CategoryFatalBootstrap, err)
	}
	own := chaintypes.VRFAnnouncement{
		Round:     round,
		PublicKey: d.deps.PublicKey,
		Output:    out.Output,
		Proof:     out.Proof,
		Score:     vrf.Score(out.Output),
		Timestamp: chaintypes.Now(),
	}
	_ = collector.Submit(own)
	_ = d.deps.Gossip.AnnounceVRF(ctx, own)

	deadline := time.Now().Add(d.cfg.VRFTimeout)
	drainCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	go func() {
		for {
			select {
			case ann, ok := <-d.deps.Gossip.Announcements():
				if !ok {
					return
				}
				_ = collector.Submit(ann)
			case <-drainCtx.Done():
				return
			}
		}
	}()

	result, err := collector.Collect(ctx, deadline)
	if err != nil {
		return result, err
	}
	return result, nil
}

func (d *Driver) propose(ctx context.Context, height, round uint64, roundResult vrfcollector.RoundResult, topX []score.Ranked, chain chaintypes.ChainState) (*chaintypes.Block, error) {
	d.setPhase(PhaseProposing)

	prevHash := chaintypes.Hash{}
	if block, ok := d.deps.Blocks.GetBlock(height - 1); ok {
		prevHash = block.BlockHash
	}

	winnerOut, _ := findOutput(roundResult.Announcements, d.deps.PublicKey)
	rewarded := make([]ed25519.PublicKey, len(topX))
	for i, r := range topX {
		rewarded[i] = r.PublicKey
	}

	p := proposer.New(d.deps.PublicKey, d.deps.PrivateKey)
	deadline := time.Now().Add(d.cfg.BlockTimeout)
	block, err := p.Propose(ctx, proposer.BuildParams{
		Height:              height,
		PreviousHash:        prevHash,
		Round:               round,
		ProposerPk:          d.deps.PublicKey,
		VRFOutput:           winnerOut.Output,
		VRFProof:            winnerOut.Proof,
		AllVRFAnnouncements: roundResult.Announcements,
		RewardedTopX:        rewarded,
		DifficultyTarget:    d.deps.Difficulty.Current(),
		MempoolSnapshot:     d.deps.Mempool.Snapshot(maxTxPerBlock),
		Accounts:            d.deps.Accounts,
	}, deadline)
	if err != nil {
		return nil, err
	}

	d.setPhase(PhaseBroadcast)
	if err := d.deps.Gossip.BroadcastBlock(ctx, block); err != nil {
		d.deps.Log.Warn("block broadcast failed", map[string]interface{}{"error": err.Error()})
	}
	d.setPhase(PhaseWaitConfirm)
	return block, nil
}

// blockRaceGrace is how long awaitBlock keeps listening for a rival block
// at the same (height, round) after the first valid candidate arrives,
// before handing the winner to forkchoice.Choose (spec.md §5: "Two
// concurrent blocks at the same height are resolved by fork choice...
// ties broken by lower block hash"). A proposer with a slower link or a
// harder-but-later-mined block still gets a chance to be compared rather
// than losing to whichever copy of gossip happened to arrive first.
const blockRaceGrace = 500 * time.Millisecond

func (d *Driver) awaitBlock(ctx context.Context, height, round uint64) (*chaintypes.Block, error) {
	d.setPhase(PhaseWaitBlock)

	parent, ok := d.deps.Blocks.GetBlock(height - 1)
	if !ok {
		parent = &chaintypes.Block{Height: height - 1}
	}
	v := validator.New(validator.Params{
		Committee:          d.committeeKeys(),
		MaxTxPerBlock:      maxTxPerBlock,
		ExpectedDifficulty: func(uint64) chaintypes.DifficultyTarget { return d.deps.Difficulty.Current() },
		BaseReward:         BaseReward,
		Accounts:           d.deps.Accounts,
	})

	deadline := time.NewTimer(d.cfg.BlockArrivalTimeout)
	defer deadline.Stop()

	var raceTimer *time.Timer
	var raceCh <-chan time.Time
	var candidates []forkchoice.Candidate
	var lastErr error

	for {
		select {
		case block, ok := <-d.deps.Gossip.Blocks():
			if !ok {
				return d.resolveAwaitBlock(candidates, lastErr)
			}
			if block.Height != height || block.Round != round {
				continue
			}
			if err := v.Validate(block, parent); err != nil {
				lastErr = err
				continue
			}
			candidates = append(candidates, forkchoice.Candidate{
				Tip:  block,
				Work: forkchoice.ChainWork([]*chaintypes.Block{block}),
			})
			if raceTimer == nil {
				raceTimer = time.NewTimer(blockRaceGrace)
				raceCh = raceTimer.C
			}
		case <-raceCh:
			return d.resolveAwaitBlock(candidates, lastErr)
		case <-deadline.C:
			return d.resolveAwaitBlock(candidates, lastErr)
		case <-ctx.Done():
			if raceTimer != nil {
				raceTimer.Stop()
			}
			return nil, ctx.Err()
		}
	}
}

// resolveAwaitBlock picks the canonical candidate via forkchoice.Choose
// once the race window or arrival deadline has closed. With no valid
// candidates it surfaces lastErr (a specific validation failure) or a
// generic arrival timeout.
func (d *Driver) resolveAwaitBlock(candidates []forkchoice.Candidate, lastErr error) (*chaintypes.Block, error) {
	if len(candidates) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, chainerrors.New(chainerrors.CategoryTimeout, chainerrors.ErrBlockTimeout)
	}
	return forkchoice.Choose(candidates), nil
}

func (d *Driver) apply(block *chaintypes.Block, topX []score.Ranked) {
	shares := make([]statetransition.RewardShare, len(topX))
	for i, r := range topX {
		shares[i] = statetransition.RewardShare{PublicKey: r.PublicKey, Score: r.Score}
	}

	chain := d.deps.Chain.Chain()
	statetransition.Apply(d.deps.Accounts, &chain, block, BaseReward(block.Height), shares)
	d.deps.Chain.PutChain(chain)
	_ = d.deps.Blocks.PutBlock(block)

	if parent, ok := d.deps.Blocks.GetBlock(block.Height - 1); ok {
		d.deps.Difficulty.RecordBlock(block.Timestamp - parent.Timestamp)
	}

	hashes := make([]chaintypes.Hash, len(block.Transactions))
	for i := range block.Transactions {
		hashes[i] = block.Transactions[i].Hash
	}
	d.deps.Mempool.Remove(hashes)

	d.mu.Lock()
	d.status.Height = chain.CurrentHeight
	d.status.Round = 0
	newEpoch := chain.CurrentHeight / d.cfg.EpochLength
	epochChanged := newEpoch != d.status.Epoch
	d.status.Epoch = newEpoch
	d.status.Phase = PhaseIdle
	d.mu.Unlock()

	if epochChanged {
		d.refreshCommittee()
	}
}

// failRound advances currentRound at the same height without touching
// chain state (spec.md §4.11: ROUND_FAIL -> increment currentRound,
// re-enter IDLE with same height).
func (d *Driver) failRound() {
	d.mu.Lock()
	d.status.Round++
	d.status.Phase = PhaseIdle
	d.mu.Unlock()
}

func findOutput(anns []chaintypes.VRFAnnouncement, pk ed25519.PublicKey) (chaintypes.VRFAnnouncement, bool) {
	for _, a := range anns {
		if hex.EncodeToString(a.PublicKey) == hex.EncodeToString(pk) {
			return a, true
		}
	}
	return chaintypes.VRFAnnouncement{}, false
}

const maxTxPerBlock = 6000 // spec.md targets ~1800 TPS at a 3s block time
