package entities

import (
	"time"

	"widgetboard/domain/core/valueobjects"
	pkgerrors "widgetboard/pkg/errors"
)

// Node is a positioned widget on the board canvas. It is a rich domain
// model: position, size, and payload are encapsulated and change only
// through behavior methods so that the owning aggregate can record the
// corresponding events.
type Node struct {
	id        valueobjects.NodeID
	kind      NodeKind
	position  valueobjects.Position
	size      valueobjects.Size
	payload   Payload
	updatedAt time.Time
}

// NewNode creates a node with full validation. The payload kind must
// agree with the node kind.
func NewNode(id valueobjects.NodeID, kind NodeKind, position valueobjects.Position, size valueobjects.Size, payload Payload) (*Node, error) {
	if err := id.Validate(); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	if payload == nil {
		return nil, pkgerrors.NewValidationError("node payload cannot be nil")
	}
	if payload.Kind() != kind {
		return nil, pkgerrors.NewValidationError("payload kind does not match node kind")
	}
	if size.Width <= 0 || size.Height <= 0 {
		return nil, pkgerrors.NewValidationError("node size must be positive")
	}

	return &Node{
		id:        id,
		kind:      kind,
		position:  position,
		size:      size,
		payload:   payload,
		updatedAt: time.Now(),
	}, nil
}

// ReconstructNode rebuilds a node from persisted snapshot data without
// re-running creation-time validation beyond structural checks.
func ReconstructNode(id valueobjects.NodeID, kind NodeKind, position valueobjects.Position, size valueobjects.Size, payload Payload, updatedAt time.Time) *Node {
	return &Node{
		id:        id,
		kind:      kind,
		position:  position,
		size:      size,
		payload:   payload,
		updatedAt: updatedAt,
	}
}

// ID returns the node's identifier.
func (n *Node) ID() valueobjects.NodeID { return n.id }

// Kind returns what the node renders.
func (n *Node) Kind() NodeKind { return n.kind }

// Position returns the node's top-left position.
func (n *Node) Position() valueobjects.Position { return n.position }

// Size returns the node's rendered extent.
func (n *Node) Size() valueobjects.Size { return n.size }

// Payload returns the node's kind-specific state.
func (n *Node) Payload() Payload { return n.payload }

// UpdatedAt returns the time of the last mutation.
func (n *Node) UpdatedAt() time.Time { return n.updatedAt }

// MoveTo repositions the node.
func (n *Node) MoveTo(position valueobjects.Position) {
	n.position = position
	n.updatedAt = time.Now()
}

// Resize changes the node's extent.
func (n *Node) Resize(size valueobjects.Size) error {
	if size.Width <= 0 || size.Height <= 0 {
		return pkgerrors.NewValidationError("node size must be positive")
	}
	n.size = size
	n.updatedAt = time.Now()
	return nil
}

// SetPayload replaces the node's payload. The new payload must keep the
// node's kind.
func (n *Node) SetPayload(payload Payload) error {
	if payload == nil {
		return pkgerrors.NewValidationError("node payload cannot be nil")
	}
	if payload.Kind() != n.kind {
		return pkgerrors.NewValidationError("payload kind does not match node kind")
	}
	n.payload = payload
	n.updatedAt = time.Now()
	return nil
}

// Mode returns the widget view mode carried by the payload.
func (n *Node) Mode() ViewMode {
	switch p := n.payload.(type) {
	case PollDraftPayload:
		return p.Mode
	case TestDraftPayload:
		return p.Mode
	case PollPayload:
		return p.Mode
	case TestPayload:
		return p.Mode
	}
	return ModeCreator
}

// SetMode updates the widget view mode on the payload.
func (n *Node) SetMode(mode ViewMode) error {
	if !mode.IsValid() {
		return pkgerrors.NewValidationError("unknown view mode")
	}
	switch p := n.payload.(type) {
	case PollDraftPayload:
		p.Mode = mode
		n.payload = p
	case TestDraftPayload:
		p.Mode = mode
		n.payload = p
	case PollPayload:
		p.Mode = mode
		n.payload = p
	case TestPayload:
		p.Mode = mode
		n.payload = p
	default:
		return pkgerrors.NewValidationError("payload does not carry a view mode")
	}
	n.updatedAt = time.Now()
	return nil
}

// EntityID returns the bound remote entity id, if the node is bound.
func (n *Node) EntityID() (int64, bool) {
	switch p := n.payload.(type) {
	case PollPayload:
		return p.PollID, true
	case TestPayload:
		return p.TestID, true
	}
	return 0, false
}

// RefreshLabel updates the denormalized entity label on a bound node.
// It is a no-op for template nodes.
func (n *Node) RefreshLabel(label string) {
	switch p := n.payload.(type) {
	case PollPayload:
		if p.Label != label {
			p.Label = label
			n.payload = p
			n.updatedAt = time.Now()
		}
	case TestPayload:
		if p.Label != label {
			p.Label = label
			n.payload = p
			n.updatedAt = time.Now()
		}
	}
}

// Rebind turns a template node into an entity node in place, preserving
// position and size. The board aggregate calls this when a creator
// widget saves its draft and receives a freshly created entity.
func (n *Node) Rebind(id valueobjects.NodeID, kind NodeKind, payload Payload) error {
	if !n.kind.IsTemplate() {
		return pkgerrors.ErrAlreadyBound
	}
	if payload == nil || payload.Kind() != kind {
		return pkgerrors.NewValidationError("payload kind does not match node kind")
	}
	n.id = id
	n.kind = kind
	n.payload = payload
	n.updatedAt = time.Now()
	return nil
}
