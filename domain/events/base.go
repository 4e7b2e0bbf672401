package events

import (
	"time"

	"widgetboard/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBaseEvent(aggregateID, eventType string) BaseEvent {
	return BaseEvent{
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   time.Now(),
		Version:     1,
	}
}

// Board Events

// BoardReconciled is raised after a reconciliation pass rebuilds the board.
type BoardReconciled struct {
	BaseEvent
	NodeCount   int  `json:"node_count"`
	EdgeCount   int  `json:"edge_count"`
	PollsFailed bool `json:"polls_failed"`
	TestsFailed bool `json:"tests_failed"`
}

// NewBoardReconciled creates a BoardReconciled event
func NewBoardReconciled(boardID string, nodeCount, edgeCount int, pollsFailed, testsFailed bool) BoardReconciled {
	return BoardReconciled{
		BaseEvent:   newBaseEvent(boardID, "board.reconciled"),
		NodeCount:   nodeCount,
		EdgeCount:   edgeCount,
		PollsFailed: pollsFailed,
		TestsFailed: testsFailed,
	}
}

// ViewportChanged is raised when the board viewport pans or zooms.
type ViewportChanged struct {
	BaseEvent
	Viewport valueobjects.Viewport `json:"viewport"`
}

// NewViewportChanged creates a ViewportChanged event
func NewViewportChanged(boardID string, viewport valueobjects.Viewport) ViewportChanged {
	return ViewportChanged{
		BaseEvent: newBaseEvent(boardID, "board.viewport_changed"),
		Viewport:  viewport,
	}
}

// Node Events

// NodeMoved is raised when a node is dragged to a new position.
type NodeMoved struct {
	BaseEvent
	NodeID      valueobjects.NodeID   `json:"node_id"`
	OldPosition valueobjects.Position `json:"old_position"`
	NewPosition valueobjects.Position `json:"new_position"`
}

// NewNodeMoved creates a NodeMoved event
func NewNodeMoved(nodeID valueobjects.NodeID, oldPos, newPos valueobjects.Position) NodeMoved {
	return NodeMoved{
		BaseEvent:   newBaseEvent(nodeID.String(), "node.moved"),
		NodeID:      nodeID,
		OldPosition: oldPos,
		NewPosition: newPos,
	}
}

// NodeResized is raised when a node is resized.
type NodeResized struct {
	BaseEvent
	NodeID  valueobjects.NodeID `json:"node_id"`
	OldSize valueobjects.Size   `json:"old_size"`
	NewSize valueobjects.Size   `json:"new_size"`
}

// NewNodeResized creates a NodeResized event
func NewNodeResized(nodeID valueobjects.NodeID, oldSize, newSize valueobjects.Size) NodeResized {
	return NodeResized{
		BaseEvent: newBaseEvent(nodeID.String(), "node.resized"),
		NodeID:    nodeID,
		OldSize:   oldSize,
		NewSize:   newSize,
	}
}

// WidgetModeChanged is raised when a widget switches its visible face.
type WidgetModeChanged struct {
	BaseEvent
	NodeID  valueobjects.NodeID `json:"node_id"`
	OldMode string              `json:"old_mode"`
	NewMode string              `json:"new_mode"`
}

// NewWidgetModeChanged creates a WidgetModeChanged event
func NewWidgetModeChanged(nodeID valueobjects.NodeID, oldMode, newMode string) WidgetModeChanged {
	return WidgetModeChanged{
		BaseEvent: newBaseEvent(nodeID.String(), "widget.mode_changed"),
		NodeID:    nodeID,
		OldMode:   oldMode,
		NewMode:   newMode,
	}
}

// EntityBound is raised when a creator widget saves its draft and the
// template node is rebound to the freshly created entity.
type EntityBound struct {
	BaseEvent
	TemplateID valueobjects.NodeID `json:"template_id"`
	NodeID     valueobjects.NodeID `json:"node_id"`
	EntityID   int64               `json:"entity_id"`
	EntityKind string              `json:"entity_kind"`
}

// NewEntityBound creates an EntityBound event
func NewEntityBound(templateID, nodeID valueobjects.NodeID, entityID int64, entityKind string) EntityBound {
	return EntityBound{
		BaseEvent:  newBaseEvent(nodeID.String(), "widget.entity_bound"),
		TemplateID: templateID,
		NodeID:     nodeID,
		EntityID:   entityID,
		EntityKind: entityKind,
	}
}

// NodePruned is raised when an entity-backed node is removed because its
// entity no longer exists on the server.
type NodePruned struct {
	BaseEvent
	NodeID valueobjects.NodeID `json:"node_id"`
}

// NewNodePruned creates a NodePruned event
func NewNodePruned(nodeID valueobjects.NodeID) NodePruned {
	return NodePruned{
		BaseEvent: newBaseEvent(nodeID.String(), "node.pruned"),
		NodeID:    nodeID,
	}
}

// Edge Events

// EdgeConnected is raised when an edge is drawn between two nodes.
type EdgeConnected struct {
	BaseEvent
	EdgeID valueobjects.EdgeID `json:"edge_id"`
	Source valueobjects.NodeID `json:"source"`
	Target valueobjects.NodeID `json:"target"`
}

// NewEdgeConnected creates an EdgeConnected event
func NewEdgeConnected(edgeID valueobjects.EdgeID, source, target valueobjects.NodeID) EdgeConnected {
	return EdgeConnected{
		BaseEvent: newBaseEvent(edgeID.String(), "edge.connected"),
		EdgeID:    edgeID,
		Source:    source,
		Target:    target,
	}
}

// EdgeDisconnected is raised when an edge is removed.
type EdgeDisconnected struct {
	BaseEvent
	EdgeID valueobjects.EdgeID `json:"edge_id"`
}

// NewEdgeDisconnected creates an EdgeDisconnected event
func NewEdgeDisconnected(edgeID valueobjects.EdgeID) EdgeDisconnected {
	return EdgeDisconnected{
		BaseEvent: newBaseEvent(edgeID.String(), "edge.disconnected"),
		EdgeID:    edgeID,
	}
}
