package aggregates

import (
	"time"

	"widgetboard/domain/config"
	"widgetboard/domain/core/entities"
	"widgetboard/domain/core/valueobjects"
	"widgetboard/domain/events"
	pkgerrors "widgetboard/pkg/errors"
)

// BoardID identifies a board. Snapshots are per-client, so a single
// well-known id suffices.
type BoardID string

// DefaultBoardID is the id of the one board each client owns.
const DefaultBoardID BoardID = "board-default"

// String returns the string representation
func (id BoardID) String() string {
	return string(id)
}

// Board is the aggregate root for the widget canvas. It owns the node
// list (in stable board order), the edge list, and the viewport, and it
// enforces the board's consistency rules: unique node ids, unique edges,
// no self-edges. All mutations record domain events.
type Board struct {
	id        BoardID
	nodes     []*entities.Node
	index     map[valueobjects.NodeID]*entities.Node
	edges     []*entities.Edge
	viewport  valueobjects.Viewport
	updatedAt time.Time
	events    []events.DomainEvent
}

// NewBoard creates an empty board with the default viewport.
func NewBoard() *Board {
	return &Board{
		id:        DefaultBoardID,
		nodes:     []*entities.Node{},
		index:     make(map[valueobjects.NodeID]*entities.Node),
		edges:     []*entities.Edge{},
		viewport:  valueobjects.DefaultViewport(),
		updatedAt: time.Now(),
		events:    []events.DomainEvent{},
	}
}

// ReconstructBoard rebuilds a board from persisted snapshot data. Nodes
// with duplicate ids are dropped after the first occurrence; snapshot
// order is otherwise preserved.
func ReconstructBoard(nodes []*entities.Node, edges []*entities.Edge, viewport valueobjects.Viewport) *Board {
	b := NewBoard()
	for _, n := range nodes {
		if _, exists := b.index[n.ID()]; exists {
			continue
		}
		b.nodes = append(b.nodes, n)
		b.index[n.ID()] = n
	}
	for _, e := range edges {
		b.edges = append(b.edges, e)
	}
	if !viewport.IsZero() {
		b.viewport = viewport
	}
	return b
}

// ID returns the board id.
func (b *Board) ID() BoardID {
	return b.id
}

// Nodes returns the board's nodes in board order. The slice is a copy;
// the nodes are shared.
func (b *Board) Nodes() []*entities.Node {
	nodes := make([]*entities.Node, len(b.nodes))
	copy(nodes, b.nodes)
	return nodes
}

// Edges returns the board's edges. The slice is a copy.
func (b *Board) Edges() []*entities.Edge {
	edges := make([]*entities.Edge, len(b.edges))
	copy(edges, b.edges)
	return edges
}

// Viewport returns the current viewport.
func (b *Board) Viewport() valueobjects.Viewport {
	return b.viewport
}

// UpdatedAt returns the time of the last mutation.
func (b *Board) UpdatedAt() time.Time {
	return b.updatedAt
}

// NodeCount returns the number of nodes on the board.
func (b *Board) NodeCount() int {
	return len(b.nodes)
}

// Node returns the node with the given id.
func (b *Board) Node(id valueobjects.NodeID) (*entities.Node, error) {
	n, ok := b.index[id]
	if !ok {
		return nil, pkgerrors.ErrNodeNotFound.WithDetail("node_id", id.String())
	}
	return n, nil
}

// HasNode reports whether a node with the given id exists.
func (b *Board) HasNode(id valueobjects.NodeID) bool {
	_, ok := b.index[id]
	return ok
}

// AddNode appends a node to the board, enforcing id uniqueness.
func (b *Board) AddNode(node *entities.Node) error {
	if node == nil {
		return pkgerrors.NewValidationError("node cannot be nil")
	}
	if _, exists := b.index[node.ID()]; exists {
		return pkgerrors.ErrDuplicateNode.WithDetail("node_id", node.ID().String())
	}

	b.nodes = append(b.nodes, node)
	b.index[node.ID()] = node
	b.touch()
	return nil
}

// MoveNode repositions a node and records a NodeMoved event.
func (b *Board) MoveNode(id valueobjects.NodeID, position valueobjects.Position) error {
	node, err := b.Node(id)
	if err != nil {
		return err
	}

	oldPos := node.Position()
	if oldPos.Equals(position) {
		return nil
	}
	node.MoveTo(position)
	b.touch()
	b.addEvent(events.NewNodeMoved(id, oldPos, position))
	return nil
}

// ResizeNode changes a node's extent and records a NodeResized event.
func (b *Board) ResizeNode(id valueobjects.NodeID, size valueobjects.Size) error {
	node, err := b.Node(id)
	if err != nil {
		return err
	}

	oldSize := node.Size()
	if oldSize.Equals(size) {
		return nil
	}
	if err := node.Resize(size); err != nil {
		return err
	}
	b.touch()
	b.addEvent(events.NewNodeResized(id, oldSize, size))
	return nil
}

// SetViewport pans or zooms the board and records a ViewportChanged event.
func (b *Board) SetViewport(viewport valueobjects.Viewport) {
	if b.viewport == viewport {
		return
	}
	b.viewport = viewport
	b.touch()
	b.addEvent(events.NewViewportChanged(b.id.String(), viewport))
}

// SetNodePayload replaces a node's payload, e.g. when a draft form
// changes. No event is recorded; draft keystrokes are not domain facts.
func (b *Board) SetNodePayload(id valueobjects.NodeID, payload entities.Payload) error {
	node, err := b.Node(id)
	if err != nil {
		return err
	}
	if err := node.SetPayload(payload); err != nil {
		return err
	}
	b.touch()
	return nil
}

// SetNodeMode switches a widget's visible face and records a
// WidgetModeChanged event. Transition legality is checked by the widget
// state machine before this is called.
func (b *Board) SetNodeMode(id valueobjects.NodeID, mode entities.ViewMode) error {
	node, err := b.Node(id)
	if err != nil {
		return err
	}

	oldMode := node.Mode()
	if oldMode == mode {
		return nil
	}
	if err := node.SetMode(mode); err != nil {
		return err
	}
	b.touch()
	b.addEvent(events.NewWidgetModeChanged(id, string(oldMode), string(mode)))
	return nil
}

// BindEntity rebinds a template node to a freshly created entity: the
// node keeps its position and size but takes on the entity node id, kind,
// and payload. A fresh template node is synthesized in its place at the
// template's default position on the next reconciliation pass.
func (b *Board) BindEntity(templateID valueobjects.NodeID, cfg *config.DomainConfig, entityID int64, kind entities.NodeKind, payload entities.Payload) error {
	node, err := b.Node(templateID)
	if err != nil {
		return err
	}
	if !node.Kind().IsTemplate() {
		return pkgerrors.ErrAlreadyBound.WithDetail("node_id", templateID.String())
	}

	var newID valueobjects.NodeID
	switch kind {
	case entities.KindPoll:
		newID = valueobjects.PollNodeID(entityID)
	case entities.KindTest:
		newID = valueobjects.TestNodeID(entityID)
	default:
		return pkgerrors.NewValidationError("cannot bind to a template kind")
	}
	if _, exists := b.index[newID]; exists {
		return pkgerrors.ErrDuplicateNode.WithDetail("node_id", newID.String())
	}

	delete(b.index, templateID)
	if err := node.Rebind(newID, kind, payload); err != nil {
		b.index[templateID] = node
		return err
	}
	b.index[newID] = node

	// Re-seed the template at its default position so the creator stays
	// available without waiting for the next reconciliation pass.
	if def, ok := cfg.Template(templateID.String()); ok {
		if fresh, err := SynthesizeTemplateNode(def); err == nil {
			b.nodes = append(b.nodes, fresh)
			b.index[fresh.ID()] = fresh
		}
	}

	b.touch()
	b.addEvent(events.NewEntityBound(templateID, newID, entityID, string(kind)))
	return nil
}

// RemoveNode prunes a node and every edge touching it, recording a
// NodePruned event.
func (b *Board) RemoveNode(id valueobjects.NodeID) error {
	if _, ok := b.index[id]; !ok {
		return pkgerrors.ErrNodeNotFound.WithDetail("node_id", id.String())
	}

	delete(b.index, id)
	nodes := b.nodes[:0]
	for _, n := range b.nodes {
		if n.ID() != id {
			nodes = append(nodes, n)
		}
	}
	b.nodes = nodes

	edges := b.edges[:0]
	for _, e := range b.edges {
		if e.Connects(id) {
			b.addEvent(events.NewEdgeDisconnected(e.ID()))
			continue
		}
		edges = append(edges, e)
	}
	b.edges = edges

	b.touch()
	b.addEvent(events.NewNodePruned(id))
	return nil
}

// ConnectNodes draws an edge between two existing nodes and records an
// EdgeConnected event.
func (b *Board) ConnectNodes(source, target valueobjects.NodeID) (*entities.Edge, error) {
	if _, ok := b.index[source]; !ok {
		return nil, pkgerrors.ErrNodeNotFound.WithDetail("node_id", source.String())
	}
	if _, ok := b.index[target]; !ok {
		return nil, pkgerrors.ErrNodeNotFound.WithDetail("node_id", target.String())
	}
	for _, e := range b.edges {
		if (e.Source() == source && e.Target() == target) ||
			(e.Source() == target && e.Target() == source) {
			return nil, pkgerrors.ErrDuplicateEdge.WithDetail("edge_id", e.ID().String())
		}
	}

	edge, err := entities.NewEdge(source, target)
	if err != nil {
		return nil, err
	}

	b.edges = append(b.edges, edge)
	b.touch()
	b.addEvent(events.NewEdgeConnected(edge.ID(), source, target))
	return edge, nil
}

// DisconnectEdge removes an edge and records an EdgeDisconnected event.
func (b *Board) DisconnectEdge(id valueobjects.EdgeID) error {
	for i, e := range b.edges {
		if e.ID() == id {
			b.edges = append(b.edges[:i], b.edges[i+1:]...)
			b.touch()
			b.addEvent(events.NewEdgeDisconnected(id))
			return nil
		}
	}
	return pkgerrors.ErrEdgeNotFound.WithDetail("edge_id", id.String())
}

// GetUncommittedEvents returns events recorded since the last commit.
func (b *Board) GetUncommittedEvents() []events.DomainEvent {
	evts := make([]events.DomainEvent, len(b.events))
	copy(evts, b.events)
	return evts
}

// MarkEventsAsCommitted clears the uncommitted event list.
func (b *Board) MarkEventsAsCommitted() {
	b.events = []events.DomainEvent{}
}

// AddEvent records a domain event on the board. Used by services that
// perform board-level operations outside the aggregate's own methods.
func (b *Board) AddEvent(event events.DomainEvent) {
	b.addEvent(event)
}

func (b *Board) addEvent(event events.DomainEvent) {
	b.events = append(b.events, event)
}

func (b *Board) touch() {
	b.updatedAt = time.Now()
}

// SynthesizeTemplateNode builds a fresh creator template node from its
// registry definition, with an empty draft in creator mode.
func SynthesizeTemplateNode(def config.TemplateDef) (*entities.Node, error) {
	position := valueobjects.Position{X: def.X, Y: def.Y}
	size := valueobjects.Size{Width: def.Width, Height: def.Height}

	var payload entities.Payload
	switch def.Kind {
	case config.TemplateKindPollCreator:
		payload = entities.PollDraftPayload{
			Title:   def.DefaultTitle,
			Options: []string{},
			Mode:    entities.ModeCreator,
		}
	case config.TemplateKindTestCreator:
		payload = entities.TestDraftPayload{
			Title: def.DefaultTitle,
			Tasks: []entities.TaskDraft{},
			Mode:  entities.ModeCreator,
		}
	default:
		return nil, pkgerrors.NewInternalError("unknown template kind: " + def.Kind)
	}

	return entities.NewNode(
		valueobjects.NodeID(def.ID),
		entities.NodeKind(def.Kind),
		position,
		size,
		payload,
	)
}
