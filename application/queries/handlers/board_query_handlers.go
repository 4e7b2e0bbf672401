// Package handlers implements the query handlers dispatched by the
// query bus.
package handlers

import (
	"context"
	"fmt"
	"time"

	"widgetboard/application/ports"
	"widgetboard/application/queries"
	"widgetboard/application/queries/bus"
	"widgetboard/application/services"
	"widgetboard/domain/core/aggregates"
	"widgetboard/domain/core/entities"
	"widgetboard/domain/core/valueobjects"
	pkgerrors "widgetboard/pkg/errors"
)

// GetBoardHandler handles GetBoardQuery.
type GetBoardHandler struct {
	boards *services.BoardService
}

// NewGetBoardHandler creates the handler.
func NewGetBoardHandler(boards *services.BoardService) *GetBoardHandler {
	return &GetBoardHandler{boards: boards}
}

// Handle implements bus.QueryHandler
func (h *GetBoardHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	if _, ok := query.(queries.GetBoardQuery); !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}

	var view queries.BoardView
	err := h.boards.Read(func(b *aggregates.Board) error {
		nodes := b.Nodes()
		view.Nodes = make([]queries.NodeView, 0, len(nodes))
		for _, node := range nodes {
			raw, err := entities.MarshalPayload(node.Payload())
			if err != nil {
				return pkgerrors.NewInternalError("failed to encode node payload").WithCause(err)
			}
			view.Nodes = append(view.Nodes, queries.NodeView{
				ID:       node.ID().String(),
				Kind:     string(node.Kind()),
				Position: node.Position(),
				Size:     node.Size(),
				Mode:     string(node.Mode()),
				Payload:  raw,
			})
		}

		edges := b.Edges()
		view.Edges = make([]queries.EdgeView, 0, len(edges))
		for _, edge := range edges {
			view.Edges = append(view.Edges, queries.EdgeView{
				ID:     edge.ID().String(),
				Source: edge.Source().String(),
				Target: edge.Target().String(),
			})
		}

		view.Viewport = b.Viewport()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// GetEntityHandler handles GetEntityQuery: it resolves the node's bound
// entity and fetches it fresh from the backend.
type GetEntityHandler struct {
	boards   *services.BoardService
	gateway  ports.EntityGateway
	clientID string
}

// NewGetEntityHandler creates the handler.
func NewGetEntityHandler(boards *services.BoardService, gateway ports.EntityGateway, clientID string) *GetEntityHandler {
	return &GetEntityHandler{boards: boards, gateway: gateway, clientID: clientID}
}

// Handle implements bus.QueryHandler
func (h *GetEntityHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.GetEntityQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}

	var payload entities.Payload
	err := h.boards.Read(func(b *aggregates.Board) error {
		node, err := b.Node(valueobjects.NodeID(q.NodeID))
		if err != nil {
			return err
		}
		payload = node.Payload()
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch p := payload.(type) {
	case entities.PollPayload:
		poll, err := h.gateway.FetchPoll(ctx, p.PollID)
		if err != nil {
			return nil, err
		}
		if poll == nil {
			return nil, pkgerrors.ErrEntityNotFound
		}
		return queries.EntityView{Poll: buildPollView(*poll, h.clientID)}, nil
	case entities.TestPayload:
		test, err := h.gateway.FetchTest(ctx, p.TestID)
		if err != nil {
			return nil, err
		}
		if test == nil {
			return nil, pkgerrors.ErrEntityNotFound
		}
		return queries.EntityView{Test: buildTestView(*test, h.clientID)}, nil
	}
	return nil, pkgerrors.ErrNotBound
}

func buildPollView(poll entities.Poll, clientID string) *queries.PollView {
	shares := poll.Shares()
	view := &queries.PollView{
		ID:              poll.ID,
		Title:           poll.Title,
		Owner:           poll.Owner,
		IsOwner:         poll.IsOwnedBy(clientID),
		IsAnonymous:     poll.IsAnonymous,
		MultipleAnswers: poll.MultipleAnswers,
		TotalVotes:      poll.TotalVotes(),
		Choices:         make([]queries.ChoiceView, 0, len(poll.Choices)),
		UserVotes:       poll.UserVotes,
	}
	if poll.EndDate != nil {
		view.EndDate = poll.EndDate.Format(time.RFC3339)
	}
	for _, c := range poll.Choices {
		view.Choices = append(view.Choices, queries.ChoiceView{
			ID:         c.ID,
			Text:       c.ChoiceText,
			VotesCount: c.VotesCount,
			Share:      shares[c.ID],
		})
	}
	return view
}

func buildTestView(test entities.Test, clientID string) *queries.TestView {
	isOwner := test.IsOwnedBy(clientID)
	view := &queries.TestView{
		ID:             test.ID,
		Title:          test.Title,
		Owner:          test.Owner,
		IsOwner:        isOwner,
		CompletionTime: test.CompletionTime,
		AttemptNumber:  test.AttemptNumber,
		TotalScore:     test.TotalScore(),
		Tasks:          make([]queries.TaskView, 0, len(test.Tasks)),
	}
	if test.EndDate != nil {
		view.EndDate = test.EndDate.Format(time.RFC3339)
	}
	for _, task := range test.Tasks {
		tv := queries.TaskView{
			ID:       task.ID,
			Question: task.Question,
			Type:     string(task.Type),
			Score:    task.Score,
		}
		for _, opt := range task.Options {
			ov := queries.TaskOptionView{ID: opt.ID, Text: opt.Text}
			// Correct answers are only revealed to the owner.
			if isOwner {
				correct := opt.IsCorrect
				ov.IsCorrect = &correct
			}
			tv.Options = append(tv.Options, ov)
		}
		view.Tasks = append(view.Tasks, tv)
	}
	return view
}
