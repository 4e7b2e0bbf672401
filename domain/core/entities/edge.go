package entities

import (
	"time"

	"widgetboard/domain/core/valueobjects"
	pkgerrors "widgetboard/pkg/errors"
)

// Edge is a visual connector between two nodes. Edges carry no domain
// meaning beyond the connection itself; an edge may dangle if one of its
// endpoints is later pruned.
type Edge struct {
	id        valueobjects.EdgeID
	source    valueobjects.NodeID
	target    valueobjects.NodeID
	createdAt time.Time
}

// NewEdge creates an edge between two distinct nodes.
func NewEdge(source, target valueobjects.NodeID) (*Edge, error) {
	if err := source.Validate(); err != nil {
		return nil, pkgerrors.NewValidationError("edge source: " + err.Error())
	}
	if err := target.Validate(); err != nil {
		return nil, pkgerrors.NewValidationError("edge target: " + err.Error())
	}
	if source == target {
		return nil, pkgerrors.ErrSelfEdge
	}

	return &Edge{
		id:        valueobjects.NewEdgeID(source, target),
		source:    source,
		target:    target,
		createdAt: time.Now(),
	}, nil
}

// ReconstructEdge rebuilds an edge from persisted snapshot data.
func ReconstructEdge(id valueobjects.EdgeID, source, target valueobjects.NodeID, createdAt time.Time) *Edge {
	return &Edge{
		id:        id,
		source:    source,
		target:    target,
		createdAt: createdAt,
	}
}

// ID returns the edge's identifier.
func (e *Edge) ID() valueobjects.EdgeID { return e.id }

// Source returns the id of the node the edge starts at.
func (e *Edge) Source() valueobjects.NodeID { return e.source }

// Target returns the id of the node the edge ends at.
func (e *Edge) Target() valueobjects.NodeID { return e.target }

// CreatedAt returns when the edge was drawn.
func (e *Edge) CreatedAt() time.Time { return e.createdAt }

// Connects reports whether the edge touches the given node.
func (e *Edge) Connects(id valueobjects.NodeID) bool {
	return e.source == id || e.target == id
}
