package aggregates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"widgetboard/domain/config"
	"widgetboard/domain/core/entities"
	"widgetboard/domain/core/valueobjects"
	"widgetboard/domain/events"
	pkgerrors "widgetboard/pkg/errors"
)

func testPollNode(t *testing.T, pollID int64) *entities.Node {
	t.Helper()
	node, err := entities.NewNode(
		valueobjects.PollNodeID(pollID),
		entities.KindPoll,
		valueobjects.Position{X: 100, Y: 100},
		valueobjects.Size{Width: 300, Height: 240},
		entities.PollPayload{PollID: pollID, Label: "poll", Mode: entities.ModeDisplay},
	)
	require.NoError(t, err)
	return node
}

func testTemplateNode(t *testing.T) *entities.Node {
	t.Helper()
	def, ok := config.DefaultDomainConfig().Template("template-poll-creator")
	require.True(t, ok)
	node, err := SynthesizeTemplateNode(def)
	require.NoError(t, err)
	return node
}

func TestBoardAddNode(t *testing.T) {
	board := NewBoard()
	node := testPollNode(t, 1)

	require.NoError(t, board.AddNode(node))
	assert.Equal(t, 1, board.NodeCount())

	err := board.AddNode(testPollNode(t, 1))
	assert.True(t, pkgerrors.IsConflict(err))
}

func TestBoardMoveNode(t *testing.T) {
	board := NewBoard()
	node := testPollNode(t, 1)
	require.NoError(t, board.AddNode(node))
	board.MarkEventsAsCommitted()

	target := valueobjects.Position{X: 500, Y: 500}
	require.NoError(t, board.MoveNode(node.ID(), target))
	assert.Equal(t, target, node.Position())

	evts := board.GetUncommittedEvents()
	require.Len(t, evts, 1)
	moved, ok := evts[0].(events.NodeMoved)
	require.True(t, ok)
	assert.Equal(t, target, moved.NewPosition)

	// Moving to the current position is a no-op and records nothing.
	board.MarkEventsAsCommitted()
	require.NoError(t, board.MoveNode(node.ID(), target))
	assert.Empty(t, board.GetUncommittedEvents())

	err := board.MoveNode(valueobjects.PollNodeID(99), target)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestBoardResizeNode(t *testing.T) {
	board := NewBoard()
	node := testPollNode(t, 1)
	require.NoError(t, board.AddNode(node))

	require.NoError(t, board.ResizeNode(node.ID(), valueobjects.Size{Width: 400, Height: 300}))
	assert.Equal(t, valueobjects.Size{Width: 400, Height: 300}, node.Size())

	err := board.ResizeNode(node.ID(), valueobjects.Size{Width: -1, Height: 300})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestBoardEdges(t *testing.T) {
	board := NewBoard()
	a := testPollNode(t, 1)
	b := testPollNode(t, 2)
	require.NoError(t, board.AddNode(a))
	require.NoError(t, board.AddNode(b))

	edge, err := board.ConnectNodes(a.ID(), b.ID())
	require.NoError(t, err)
	assert.Len(t, board.Edges(), 1)

	t.Run("duplicate edge rejected either direction", func(t *testing.T) {
		_, err := board.ConnectNodes(a.ID(), b.ID())
		assert.True(t, pkgerrors.IsConflict(err))
		_, err = board.ConnectNodes(b.ID(), a.ID())
		assert.True(t, pkgerrors.IsConflict(err))
	})

	t.Run("self edge rejected", func(t *testing.T) {
		_, err := board.ConnectNodes(a.ID(), a.ID())
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("missing endpoint rejected", func(t *testing.T) {
		_, err := board.ConnectNodes(a.ID(), valueobjects.PollNodeID(99))
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("disconnect", func(t *testing.T) {
		require.NoError(t, board.DisconnectEdge(edge.ID()))
		assert.Empty(t, board.Edges())
		assert.True(t, pkgerrors.IsNotFound(board.DisconnectEdge(edge.ID())))
	})
}

func TestBoardRemoveNodeDropsTouchingEdges(t *testing.T) {
	board := NewBoard()
	a := testPollNode(t, 1)
	b := testPollNode(t, 2)
	require.NoError(t, board.AddNode(a))
	require.NoError(t, board.AddNode(b))
	_, err := board.ConnectNodes(a.ID(), b.ID())
	require.NoError(t, err)

	require.NoError(t, board.RemoveNode(a.ID()))
	assert.False(t, board.HasNode(a.ID()))
	assert.Empty(t, board.Edges())
}

func TestBoardBindEntity(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	board := NewBoard()
	tmpl := testTemplateNode(t)
	require.NoError(t, board.AddNode(tmpl))
	require.NoError(t, board.MoveNode(tmpl.ID(), valueobjects.Position{X: 60, Y: 70}))
	board.MarkEventsAsCommitted()

	err := board.BindEntity(
		valueobjects.PollCreatorNodeID,
		cfg,
		42,
		entities.KindPoll,
		entities.PollPayload{PollID: 42, Label: "Team lunch", Mode: entities.ModeDisplay},
	)
	require.NoError(t, err)

	// The template node became the entity node, keeping its position.
	bound, err := board.Node(valueobjects.PollNodeID(42))
	require.NoError(t, err)
	assert.Equal(t, entities.KindPoll, bound.Kind())
	assert.Equal(t, valueobjects.Position{X: 60, Y: 70}, bound.Position())

	// A fresh template was re-seeded at its default position.
	fresh, err := board.Node(valueobjects.PollCreatorNodeID)
	require.NoError(t, err)
	assert.Equal(t, valueobjects.Position{X: 250, Y: 5}, fresh.Position())
	assert.Equal(t, entities.ModeCreator, fresh.Mode())

	evts := board.GetUncommittedEvents()
	require.Len(t, evts, 1)
	_, ok := evts[0].(events.EntityBound)
	assert.True(t, ok)

	// Binding a non-template node is refused.
	err = board.BindEntity(
		valueobjects.PollNodeID(42), cfg, 43, entities.KindPoll,
		entities.PollPayload{PollID: 43, Mode: entities.ModeDisplay},
	)
	assert.True(t, pkgerrors.IsConflict(err))
}

func TestReconstructBoardDropsDuplicateIDs(t *testing.T) {
	a := testPollNode(t, 1)
	dup := testPollNode(t, 1)
	board := ReconstructBoard([]*entities.Node{a, dup}, nil, valueobjects.DefaultViewport())
	assert.Equal(t, 1, board.NodeCount())
}

func TestBoardViewport(t *testing.T) {
	board := NewBoard()
	board.MarkEventsAsCommitted()

	vp := valueobjects.Viewport{X: 10, Y: -5, Zoom: 2}
	board.SetViewport(vp)
	assert.Equal(t, vp, board.Viewport())
	require.Len(t, board.GetUncommittedEvents(), 1)

	// Setting the same viewport again records nothing.
	board.SetViewport(vp)
	assert.Len(t, board.GetUncommittedEvents(), 1)
}
