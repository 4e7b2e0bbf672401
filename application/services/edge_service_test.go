package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"widgetboard/domain/core/aggregates"
	"widgetboard/domain/core/entities"
	"widgetboard/domain/core/valueobjects"
)

func TestEdgeServicePruneDanglingEdges(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	gateway := &fakeGateway{polls: []entities.Poll{
		{ID: 1, Title: "Stays"},
		{ID: 2, Title: "Goes"},
	}}
	boards := newBoardService(gateway, store)
	require.NoError(t, boards.Start(ctx))

	// One edge between live nodes, one that will dangle once poll 2 is
	// deleted server-side.
	_, err := boards.ConnectNodes(ctx, valueobjects.PollCreatorNodeID.String(), valueobjects.PollNodeID(1).String())
	require.NoError(t, err)
	dangler, err := boards.ConnectNodes(ctx, valueobjects.PollCreatorNodeID.String(), valueobjects.PollNodeID(2).String())
	require.NoError(t, err)

	gateway.polls = gateway.polls[:1]
	require.NoError(t, boards.Sync(ctx))

	edges := NewEdgeService(boards, zap.NewNop())

	dangling, err := edges.DanglingEdges()
	require.NoError(t, err)
	require.Len(t, dangling, 1)
	assert.Equal(t, dangler.ID(), dangling[0].ID())

	pruned, err := edges.PruneDanglingEdges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	err = boards.Read(func(b *aggregates.Board) error {
		assert.Len(t, b.Edges(), 1)
		return nil
	})
	require.NoError(t, err)

	// A second pass finds nothing.
	pruned, err = edges.PruneDanglingEdges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, pruned)
}

func TestEdgeServiceBeforeLoadRefused(t *testing.T) {
	boards := newBoardService(&fakeGateway{}, &fakeStore{})
	edges := NewEdgeService(boards, zap.NewNop())

	_, err := edges.DanglingEdges()
	assert.Error(t, err)
	_, err = edges.PruneDanglingEdges(context.Background())
	assert.Error(t, err)
}
