package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"widgetboard/domain/config"
	"widgetboard/domain/core/aggregates"
	"widgetboard/domain/core/entities"
	"widgetboard/domain/core/valueobjects"
	"widgetboard/domain/core/widgets"
	pkgerrors "widgetboard/pkg/errors"
)

func newWidgetService(t *testing.T, gateway *fakeGateway, clientID string) (*WidgetService, *BoardService) {
	t.Helper()
	cfg := config.DefaultDomainConfig()
	boards := newBoardService(gateway, &fakeStore{})
	require.NoError(t, boards.Start(context.Background()))
	svc := NewWidgetService(boards, gateway, widgets.NewMachine(cfg), cfg, clientID, zap.NewNop())
	return svc, boards
}

func TestWidgetSaveBindsTemplate(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{
		createdPoll: &entities.Poll{ID: 42, Title: "Team lunch", Owner: "anon_me"},
	}
	svc, boards := newWidgetService(t, gateway, "anon_me")

	draft := entities.PollDraftPayload{
		Title:   "Team lunch",
		Options: []string{"Ramen", "Tacos"},
		Mode:    entities.ModeCreator,
	}
	raw, err := entities.MarshalPayload(draft)
	require.NoError(t, err)
	require.NoError(t, boards.UpdateDraft(ctx, "template-poll-creator", raw))

	result, err := svc.Save(ctx, "template-poll-creator")
	require.NoError(t, err)
	assert.Equal(t, valueobjects.PollNodeID(42), result.NodeID)
	require.NotNil(t, result.Poll)

	err = boards.Read(func(b *aggregates.Board) error {
		bound, err := b.Node(valueobjects.PollNodeID(42))
		require.NoError(t, err)
		assert.Equal(t, entities.ModeDisplay, bound.Mode())

		// The template is immediately available again.
		assert.True(t, b.HasNode(valueobjects.PollCreatorNodeID))
		return nil
	})
	require.NoError(t, err)
}

func TestWidgetSaveRejectsBoundNode(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{polls: []entities.Poll{{ID: 1, Title: "Existing"}}}
	svc, _ := newWidgetService(t, gateway, "anon_me")

	_, err := svc.Save(ctx, valueobjects.PollNodeID(1).String())
	assert.True(t, pkgerrors.IsConflict(err))
}

func TestWidgetChangeModeTogglesForms(t *testing.T) {
	ctx := context.Background()
	svc, boards := newWidgetService(t, &fakeGateway{}, "anon_me")

	require.NoError(t, svc.ChangeMode(ctx, "template-poll-creator", entities.ModeSettings))
	err := boards.Read(func(b *aggregates.Board) error {
		node, err := b.Node(valueobjects.PollCreatorNodeID)
		require.NoError(t, err)
		assert.Equal(t, entities.ModeSettings, node.Mode())
		return nil
	})
	require.NoError(t, err)

	// Display cannot be entered without a save.
	err = svc.ChangeMode(ctx, "template-poll-creator", entities.ModeDisplay)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestWidgetReopenRequiresOwnership(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{polls: []entities.Poll{{ID: 1, Title: "P", Owner: "anon_owner"}}}
	svc, _ := newWidgetService(t, gateway, "anon_stranger")

	err := svc.ChangeMode(ctx, valueobjects.PollNodeID(1).String(), entities.ModeCreator)
	assert.True(t, pkgerrors.IsForbidden(err))
}

func TestWidgetReopenBlockedByResponses(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{polls: []entities.Poll{{
		ID: 1, Title: "P", Owner: "anon_me",
		Choices: []entities.Choice{{ID: 1, VotesCount: 3}},
	}}}
	svc, _ := newWidgetService(t, gateway, "anon_me")

	err := svc.ChangeMode(ctx, valueobjects.PollNodeID(1).String(), entities.ModeCreator)
	assert.True(t, pkgerrors.IsConflict(err))
}

func TestWidgetReopenAllowedForOwner(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{polls: []entities.Poll{{ID: 1, Title: "P", Owner: "anon_me"}}}
	svc, boards := newWidgetService(t, gateway, "anon_me")

	require.NoError(t, svc.ChangeMode(ctx, valueobjects.PollNodeID(1).String(), entities.ModeCreator))
	err := boards.Read(func(b *aggregates.Board) error {
		node, err := b.Node(valueobjects.PollNodeID(1))
		require.NoError(t, err)
		assert.Equal(t, entities.ModeCreator, node.Mode())
		return nil
	})
	require.NoError(t, err)
}

func TestWidgetVote(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{polls: []entities.Poll{{
		ID: 1, Title: "Fresh title",
		Choices: []entities.Choice{{ID: 10, VotesCount: 1}},
	}}}
	svc, boards := newWidgetService(t, gateway, "anon_me")

	poll, err := svc.Vote(ctx, valueobjects.PollNodeID(1).String(), []int64{10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), poll.ID)

	_, err = svc.Vote(ctx, valueobjects.PollNodeID(1).String(), nil)
	assert.True(t, pkgerrors.IsValidation(err))

	// The node label follows the returned poll title.
	err = boards.Read(func(b *aggregates.Board) error {
		node, err := b.Node(valueobjects.PollNodeID(1))
		require.NoError(t, err)
		payload := node.Payload().(entities.PollPayload)
		assert.Equal(t, "Fresh title", payload.Label)
		return nil
	})
	require.NoError(t, err)
}

func TestWidgetVotePassesThroughGatewayErrors(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{
		polls:   []entities.Poll{{ID: 1, Title: "P"}},
		voteErr: pkgerrors.NewForbiddenError("poll is closed"),
	}
	svc, _ := newWidgetService(t, gateway, "anon_me")

	_, err := svc.Vote(ctx, valueobjects.PollNodeID(1).String(), []int64{10})
	assert.True(t, pkgerrors.IsForbidden(err))
}

func TestWidgetSubmitAttemptRecordsResult(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{tests: []entities.Test{{ID: 5, Title: "Quiz"}}}
	svc, boards := newWidgetService(t, gateway, "anon_me")

	result, err := svc.SubmitAttempt(ctx, valueobjects.TestNodeID(5).String(), []entities.TaskAnswer{{TaskID: 1, Text: "42"}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ScoreObtained)

	err = boards.Read(func(b *aggregates.Board) error {
		node, err := b.Node(valueobjects.TestNodeID(5))
		require.NoError(t, err)
		payload := node.Payload().(entities.TestPayload)
		require.NotNil(t, payload.LastResult)
		assert.Equal(t, 1, payload.LastResult.ScoreObtained)
		return nil
	})
	require.NoError(t, err)
}

func TestWidgetDeleteEntity(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{polls: []entities.Poll{{ID: 7, Title: "Doomed", Owner: "anon_me"}}}
	svc, boards := newWidgetService(t, gateway, "anon_me")

	// Unconfirmed deletion is refused.
	err := svc.DeleteEntity(ctx, valueobjects.PollNodeID(7).String(), false)
	assert.True(t, pkgerrors.IsValidation(err))

	require.NoError(t, svc.DeleteEntity(ctx, valueobjects.PollNodeID(7).String(), true))
	assert.Equal(t, []int64{7}, gateway.deleted)

	err = boards.Read(func(b *aggregates.Board) error {
		assert.False(t, b.HasNode(valueobjects.PollNodeID(7)))
		return nil
	})
	require.NoError(t, err)
}

func TestWidgetDeleteEntityForbiddenKeepsNode(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{
		polls:     []entities.Poll{{ID: 7, Title: "Not yours", Owner: "anon_owner"}},
		deleteErr: pkgerrors.NewForbiddenError("only the owner can delete this poll"),
	}
	svc, boards := newWidgetService(t, gateway, "anon_stranger")

	err := svc.DeleteEntity(ctx, valueobjects.PollNodeID(7).String(), true)
	assert.True(t, pkgerrors.IsForbidden(err))

	err = boards.Read(func(b *aggregates.Board) error {
		assert.True(t, b.HasNode(valueobjects.PollNodeID(7)))
		return nil
	})
	require.NoError(t, err)
}
