package p2p

import (
	"fmt"
	"regexp"
	"strings"
)

// Topic names for the §6 gossip contract, retargeted from the teacher's
// DID event/rules/checkpoint/blob taxonomy to the three channels this
// consensus engine's network actually carries.
const (
	// TopicVRFAnnounce carries per-round VRFAnnouncement broadcasts (C3, C5).
	TopicVRFAnnounce = "vrf/announce"

	// TopicBlocks carries mined, signed blocks (C10) from proposer to
	// the rest of the committee.
	TopicBlocks = "blocks"

	// TopicTxPool carries pending transactions destined for the mempool.
	TopicTxPool = "txpool"
)

var (
	vrfTopicRegex   = regexp.MustCompile(`^vrf/announce$`)
	blocksTopicRegex = regexp.MustCompile(`^blocks$`)
	txpoolTopicRegex = regexp.MustCompile(`^txpool$`)
)

// TopicManager validates and classifies the consensus engine's gossip
// topics, mirroring the teacher's own TopicManager (internal/p2p/topics.go)
// pattern-matching/size-limit/priority shape, narrowed from five DID-era
// topic families down to the three this domain uses.
type TopicManager struct {
	validTopics map[string]bool
}

// NewTopicManager creates a new topic manager.
func NewTopicManager() *TopicManager {
	return &TopicManager{validTopics: make(map[string]bool)}
}

// IsValidTopic checks if a topic name is valid.
func (tm *TopicManager) IsValidTopic(topic string) bool {
	if topic == "" {
		return false
	}
	switch {
	case vrfTopicRegex.MatchString(topic):
		return true
	case blocksTopicRegex.MatchString(topic):
		return true
	case txpoolTopicRegex.MatchString(topic):
		return true
	default:
		return false
	}
}

// GetTopicType returns the category of a topic.
func (tm *TopicManager) GetTopicType(topic string) string {
	switch topic {
	case TopicVRFAnnounce:
		return "vrf"
	case TopicBlocks:
		return "block"
	case TopicTxPool:
		return "tx"
	default:
		return "unknown"
	}
}

// GetCoreTopics returns every topic this node subscribes to at startup.
func (tm *TopicManager) GetCoreTopics() []string {
	return []string{TopicVRFAnnounce, TopicBlocks, TopicTxPool}
}

// ValidateTopicMessage performs basic validation on a topic message.
func (tm *TopicManager) ValidateTopicMessage(topic string, data []byte) error {
	if !tm.IsValidTopic(topic) {
		return fmt.Errorf("invalid topic: %s", topic)
	}
	if len(data) == 0 {
		return fmt.Errorf("empty message data")
	}
	topicType := tm.GetTopicType(topic)
	maxSize := tm.getMaxMessageSize(topicType)
	if len(data) > maxSize {
		return fmt.Errorf("message too large: %d bytes (max %d)", len(data), maxSize)
	}
	return nil
}

// getMaxMessageSize returns the maximum message size for a topic type.
// Blocks carry up to maxTxPerBlock transactions (§3) so get the largest
// budget; VRF announcements are a fixed small struct; tx gossip is
// per-transaction.
func (tm *TopicManager) getMaxMessageSize(topicType string) int {
	switch topicType {
	case "vrf":
		return 4 * 1024
	case "block":
		return 4 * 1024 * 1024
	case "tx":
		return 16 * 1024
	default:
		return 16 * 1024
	}
}

// GetTopicPriority returns the priority level for a topic (higher = more
// important). Blocks and VRF announcements are consensus-critical; plain
// transaction gossip is best-effort.
func (tm *TopicManager) GetTopicPriority(topic string) int {
	switch topic {
	case TopicBlocks:
		return 10
	case TopicVRFAnnounce:
		return 9
	case TopicTxPool:
		return 3
	default:
		if strings.HasPrefix(topic, "vrf/") {
			return 9
		}
		return 1
	}
}
