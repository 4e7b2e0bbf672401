package valueobjects

import (
	"fmt"
	"strings"
)

// NodeID uniquely identifies a node on the board. Identity is structural:
// template nodes carry fixed well-known ids, entity-backed nodes derive
// their id from the remote entity they render. Reconciliation matches
// nodes purely by this id.
type NodeID string

// Well-known template node ids.
const (
	PollCreatorNodeID NodeID = "template-poll-creator"
	TestCreatorNodeID NodeID = "template-test-creator"
)

// Entity node id prefixes.
const (
	pollNodePrefix = "entity-poll-"
	testNodePrefix = "entity-test-"
)

// PollNodeID returns the node id rendering the poll with the given
// backend id.
func PollNodeID(pollID int64) NodeID {
	return NodeID(fmt.Sprintf("%s%d", pollNodePrefix, pollID))
}

// TestNodeID returns the node id rendering the test with the given
// backend id.
func TestNodeID(testID int64) NodeID {
	return NodeID(fmt.Sprintf("%s%d", testNodePrefix, testID))
}

// String returns the id as a plain string.
func (id NodeID) String() string {
	return string(id)
}

// IsEmpty reports whether the id is the zero value.
func (id NodeID) IsEmpty() bool {
	return id == ""
}

// IsTemplate reports whether the id names a creator template node.
func (id NodeID) IsTemplate() bool {
	return strings.HasPrefix(string(id), "template-")
}

// IsEntity reports whether the id names an entity-backed node.
func (id NodeID) IsEntity() bool {
	return strings.HasPrefix(string(id), pollNodePrefix) ||
		strings.HasPrefix(string(id), testNodePrefix)
}

// Validate checks that the id is non-empty and within bounds.
func (id NodeID) Validate() error {
	if id.IsEmpty() {
		return fmt.Errorf("node id cannot be empty")
	}
	if len(id) > 128 {
		return fmt.Errorf("node id exceeds maximum length")
	}
	return nil
}

// EdgeID uniquely identifies an edge on the board.
type EdgeID string

// NewEdgeID derives a deterministic edge id from its endpoints.
func NewEdgeID(source, target NodeID) EdgeID {
	return EdgeID(fmt.Sprintf("e-%s-%s", source, target))
}

// String returns the id as a plain string.
func (id EdgeID) String() string {
	return string(id)
}

// IsEmpty reports whether the id is the zero value.
func (id EdgeID) IsEmpty() bool {
	return id == ""
}
