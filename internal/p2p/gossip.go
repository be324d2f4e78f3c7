package p2p

import (
	"context"
	"encoding/json"

	"github.com/supernode-chain/corevm/internal/chaintypes"
)

// ConsensusGossip adapts a P2PHost's generic Publish/Subscribe surface to
// internal/consensus.Gossip's narrower VRF-announce/block-broadcast needs.
type ConsensusGossip struct {
	host *P2PHost
}

// NewConsensusGossip wraps host. The host must already be subscribed to
// TopicVRFAnnounce and TopicBlocks (done by subscribeToTopics at Start).
func NewConsensusGossip(host *P2PHost) *ConsensusGossip {
	return &ConsensusGossip{host: host}
}

// AnnounceVRF publishes ann on TopicVRFAnnounce.
func (g *ConsensusGossip) AnnounceVRF(ctx context.Context, ann chaintypes.VRFAnnouncement) error {
	data, err := json.Marshal(ann)
	if err != nil {
		return err
	}
	return g.host.Publish(ctx, TopicVRFAnnounce, data)
}

// BroadcastBlock publishes block on TopicBlocks.
func (g *ConsensusGossip) BroadcastBlock(ctx context.Context, block *chaintypes.Block) error {
	data, err := json.Marshal(block)
	if err != nil {
		return err
	}
	return g.host.Publish(ctx, TopicBlocks, data)
}

// Announcements returns the channel inbound VRF announcements from other
// committee members arrive on.
func (g *ConsensusGossip) Announcements() <-chan chaintypes.VRFAnnouncement {
	return g.host.vrfInbox
}

// Blocks returns the channel inbound mined blocks arrive on.
func (g *ConsensusGossip) Blocks() <-chan *chaintypes.Block {
	return g.host.blockInbox
}
