// Package reconcile merges a locally persisted board snapshot with the
// authoritative entity lists fetched from the remote backend. The result
// is the single source of truth rendered by the canvas.
package reconcile

import (
	"widgetboard/domain/config"
	"widgetboard/domain/core/aggregates"
	"widgetboard/domain/core/entities"
	"widgetboard/domain/core/valueobjects"
)

// EntityLists carries the outcome of the per-kind list fetches. A failed
// fetch sets the kind's Failed flag; its Items slice is then ignored and
// locally known nodes of that kind are preserved verbatim.
type EntityLists struct {
	Polls       []entities.Poll
	PollsFailed bool
	Tests       []entities.Test
	TestsFailed bool
}

// Engine deterministically rebuilds a board from a previous snapshot and
// fresh entity lists. It exclusively owns node identity assignment and
// default placement.
type Engine struct {
	cfg *config.DomainConfig
}

// NewEngine creates a reconciliation engine with the given layout config.
func NewEngine(cfg *config.DomainConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Reconcile folds the previous board and the fetched entity lists into a
// new board. Carried nodes are shared with the previous board, not
// copied; the only in-place change is the label refresh on bound nodes.
// The output node order is fully determined by (templates, poll list
// order, test list order, remainder in previous board order).
func (e *Engine) Reconcile(prev *aggregates.Board, lists EntityLists) *aggregates.Board {
	index := make(map[valueobjects.NodeID]*entities.Node)
	var prevOrder []*entities.Node
	viewport := valueobjects.DefaultViewport()

	if prev != nil {
		prevOrder = prev.Nodes()
		for _, n := range prevOrder {
			index[n.ID()] = n
		}
		viewport = prev.Viewport()
	}

	var out []*entities.Node

	// Templates come first and always exist.
	for _, def := range e.cfg.Templates {
		id := valueobjects.NodeID(def.ID)
		if node, ok := index[id]; ok {
			out = append(out, node)
			delete(index, id)
			continue
		}
		if node, err := aggregates.SynthesizeTemplateNode(def); err == nil {
			out = append(out, node)
		}
	}

	// Server-known entities, in list order. Known nodes keep their
	// position and size with a refreshed label; unknown entities get a
	// synthesized node on the placement grid.
	if !lists.PollsFailed {
		for i, poll := range lists.Polls {
			id := valueobjects.PollNodeID(poll.ID)
			if node, ok := index[id]; ok {
				node.RefreshLabel(poll.Title)
				out = append(out, node)
				delete(index, id)
				continue
			}
			out = append(out, e.synthesizePollNode(poll, i))
		}
	}
	if !lists.TestsFailed {
		for i, test := range lists.Tests {
			id := valueobjects.TestNodeID(test.ID)
			if node, ok := index[id]; ok {
				node.RefreshLabel(test.Title)
				out = append(out, node)
				delete(index, id)
				continue
			}
			out = append(out, e.synthesizeTestNode(test, i))
		}
	}

	// Remainder, in previous board order. Entity nodes of a kind whose
	// list fetch succeeded are pruned here: the server is authoritative
	// and their entities no longer exist. A failed fetch preserves them.
	for _, node := range prevOrder {
		if _, ok := index[node.ID()]; !ok {
			continue
		}
		switch node.Kind() {
		case entities.KindPoll:
			if !lists.PollsFailed {
				continue
			}
		case entities.KindTest:
			if !lists.TestsFailed {
				continue
			}
		}
		out = append(out, node)
	}

	var edges []*entities.Edge
	if prev != nil {
		edges = prev.Edges()
	}

	return aggregates.ReconstructBoard(out, edges, viewport)
}

// GridPosition returns the default placement of the ordinal-th entity of
// a kind. Polls and tests occupy separate horizontal bands of the same
// grid so equal ordinals never collide.
func (e *Engine) GridPosition(kind entities.NodeKind, ordinal int) valueobjects.Position {
	grid := e.cfg.Grid
	col := ordinal % grid.Columns
	row := ordinal / grid.Columns

	x := grid.OriginX + float64(col)*grid.CellWidth
	y := grid.OriginY + float64(row)*grid.CellHeight
	if kind == entities.KindTest {
		x += grid.TestBandOffsetX
	}
	return valueobjects.Position{X: x, Y: y}
}

func (e *Engine) synthesizePollNode(poll entities.Poll, ordinal int) *entities.Node {
	node, _ := entities.NewNode(
		valueobjects.PollNodeID(poll.ID),
		entities.KindPoll,
		e.GridPosition(entities.KindPoll, ordinal),
		valueobjects.Size{Width: e.cfg.DefaultNodeWidth, Height: e.cfg.DefaultNodeHeight},
		entities.PollPayload{
			PollID: poll.ID,
			Label:  poll.Title,
			Mode:   entities.ModeDisplay,
		},
	)
	return node
}

func (e *Engine) synthesizeTestNode(test entities.Test, ordinal int) *entities.Node {
	node, _ := entities.NewNode(
		valueobjects.TestNodeID(test.ID),
		entities.KindTest,
		e.GridPosition(entities.KindTest, ordinal),
		valueobjects.Size{Width: e.cfg.DefaultNodeWidth, Height: e.cfg.DefaultNodeHeight},
		entities.TestPayload{
			TestID: test.ID,
			Label:  test.Title,
			Mode:   entities.ModeDisplay,
		},
	)
	return node
}
