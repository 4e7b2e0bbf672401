package services

import (
	"context"

	"go.uber.org/zap"

	"widgetboard/application/ports"
	"widgetboard/domain/config"
	"widgetboard/domain/core/aggregates"
	"widgetboard/domain/core/entities"
	"widgetboard/domain/core/valueobjects"
	"widgetboard/domain/core/widgets"
	pkgerrors "widgetboard/pkg/errors"
)

// WidgetService implements the widget-level operations: saving drafts
// into real entities, view-mode transitions, voting, attempts, and
// entity deletion. It coordinates the gateway with the board owned by
// BoardService.
type WidgetService struct {
	boards   *BoardService
	gateway  ports.EntityGateway
	machine  *widgets.Machine
	cfg      *config.DomainConfig
	clientID string
	logger   *zap.Logger
}

// NewWidgetService creates a widget service acting as the given client
// identity.
func NewWidgetService(
	boards *BoardService,
	gateway ports.EntityGateway,
	machine *widgets.Machine,
	cfg *config.DomainConfig,
	clientID string,
	logger *zap.Logger,
) *WidgetService {
	return &WidgetService{
		boards:   boards,
		gateway:  gateway,
		machine:  machine,
		cfg:      cfg,
		clientID: clientID,
		logger:   logger,
	}
}

// SaveResult reports the outcome of a creator save: the node id the
// template was rebound to, plus the stored entity.
type SaveResult struct {
	NodeID valueobjects.NodeID
	Poll   *entities.Poll
	Test   *entities.Test
}

// Save turns a completed creator draft into a remote entity and rebinds
// the template node to it. The entity is created first; the board is
// only touched once the backend has acknowledged it.
func (s *WidgetService) Save(ctx context.Context, nodeID string) (*SaveResult, error) {
	id := valueobjects.NodeID(nodeID)

	var payload entities.Payload
	err := s.boards.Read(func(b *aggregates.Board) error {
		node, err := b.Node(id)
		if err != nil {
			return err
		}
		if err := s.machine.BindCheck(node); err != nil {
			return err
		}
		payload = node.Payload()
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &SaveResult{}
	var kind entities.NodeKind
	var bound entities.Payload

	switch draft := payload.(type) {
	case entities.PollDraftPayload:
		poll, err := s.gateway.CreatePoll(ctx, draft, s.clientID)
		if err != nil {
			return nil, err
		}
		result.Poll = poll
		result.NodeID = valueobjects.PollNodeID(poll.ID)
		kind = entities.KindPoll
		bound = entities.PollPayload{
			PollID: poll.ID,
			Label:  poll.Title,
			Mode:   entities.ModeDisplay,
		}
	case entities.TestDraftPayload:
		test, err := s.gateway.CreateTest(ctx, draft, s.clientID)
		if err != nil {
			return nil, err
		}
		result.Test = test
		result.NodeID = valueobjects.TestNodeID(test.ID)
		kind = entities.KindTest
		bound = entities.TestPayload{
			TestID: test.ID,
			Label:  test.Title,
			Mode:   entities.ModeDisplay,
		}
	default:
		return nil, pkgerrors.NewValidationError("node does not carry a draft")
	}

	var entityID int64
	if result.Poll != nil {
		entityID = result.Poll.ID
	} else {
		entityID = result.Test.ID
	}

	err = s.boards.Mutate(ctx, func(b *aggregates.Board) error {
		return b.BindEntity(id, s.cfg, entityID, kind, bound)
	})
	if err != nil {
		// The entity exists server-side but the local bind failed; the
		// next reconciliation pass will surface it as a fresh node.
		s.logger.Warn("entity created but bind failed, deferring to reconciliation",
			zap.String("node_id", nodeID),
			zap.Int64("entity_id", entityID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("widget saved",
		zap.String("node_id", result.NodeID.String()),
		zap.Int64("entity_id", entityID),
	)
	return result, nil
}

// ChangeMode switches a widget's visible face. Creator and settings
// toggle freely; leaving display requires ownership of the entity and,
// unless policy allows it, no collected responses.
func (s *WidgetService) ChangeMode(ctx context.Context, nodeID string, to entities.ViewMode) error {
	id := valueobjects.NodeID(nodeID)

	var from entities.ViewMode
	var payload entities.Payload
	err := s.boards.Read(func(b *aggregates.Board) error {
		node, err := b.Node(id)
		if err != nil {
			return err
		}
		from = node.Mode()
		payload = node.Payload()
		return nil
	})
	if err != nil {
		return err
	}

	if from == to {
		return nil
	}
	if to == entities.ModeDisplay {
		// Display is only entered through a successful save.
		return pkgerrors.ErrInvalidTransition
	}
	if from == entities.ModeDisplay {
		if err := s.reopenCheck(ctx, payload); err != nil {
			return err
		}
	} else if err := s.machine.Step(from, to); err != nil {
		return err
	}

	return s.boards.Mutate(ctx, func(b *aggregates.Board) error {
		return b.SetNodeMode(id, to)
	})
}

// reopenCheck fetches the bound entity and verifies the requester may
// leave display mode.
func (s *WidgetService) reopenCheck(ctx context.Context, payload entities.Payload) error {
	switch p := payload.(type) {
	case entities.PollPayload:
		poll, err := s.gateway.FetchPoll(ctx, p.PollID)
		if err != nil {
			return err
		}
		if poll == nil {
			return pkgerrors.ErrEntityNotFound
		}
		return s.machine.ReopenCheck(poll.Owner, s.clientID, poll.HasVotes())
	case entities.TestPayload:
		test, err := s.gateway.FetchTest(ctx, p.TestID)
		if err != nil {
			return err
		}
		if test == nil {
			return pkgerrors.ErrEntityNotFound
		}
		return s.machine.ReopenCheck(test.Owner, s.clientID, test.HasAttempts())
	}
	return pkgerrors.ErrNotBound
}

// Vote casts votes on the poll behind a node and refreshes the node's
// label from the returned poll.
func (s *WidgetService) Vote(ctx context.Context, nodeID string, choiceIDs []int64) (*entities.Poll, error) {
	pollID, err := s.pollID(nodeID)
	if err != nil {
		return nil, err
	}
	if len(choiceIDs) == 0 {
		return nil, pkgerrors.NewValidationError("at least one choice is required")
	}

	poll, err := s.gateway.Vote(ctx, pollID, choiceIDs, s.clientID)
	if err != nil {
		return nil, err
	}

	s.refreshLabel(ctx, valueobjects.NodeID(nodeID), poll.Title)
	return poll, nil
}

// Unvote retracts this client's votes on the poll behind a node.
func (s *WidgetService) Unvote(ctx context.Context, nodeID string) (*entities.Poll, error) {
	pollID, err := s.pollID(nodeID)
	if err != nil {
		return nil, err
	}

	poll, err := s.gateway.Unvote(ctx, pollID, s.clientID)
	if err != nil {
		return nil, err
	}

	s.refreshLabel(ctx, valueobjects.NodeID(nodeID), poll.Title)
	return poll, nil
}

// SubmitAttempt submits a graded attempt for the test behind a node and
// records the result on the node payload.
func (s *WidgetService) SubmitAttempt(ctx context.Context, nodeID string, answers []entities.TaskAnswer) (*entities.AttemptResult, error) {
	id := valueobjects.NodeID(nodeID)

	testID, err := s.testID(nodeID)
	if err != nil {
		return nil, err
	}
	if len(answers) == 0 {
		return nil, pkgerrors.NewValidationError("at least one answer is required")
	}

	result, err := s.gateway.SubmitAttempt(ctx, testID, answers, s.clientID)
	if err != nil {
		return nil, err
	}

	err = s.boards.Mutate(ctx, func(b *aggregates.Board) error {
		node, err := b.Node(id)
		if err != nil {
			return err
		}
		payload, ok := node.Payload().(entities.TestPayload)
		if !ok {
			return pkgerrors.ErrNotBound
		}
		payload.LastResult = result
		return node.SetPayload(payload)
	})
	if err != nil {
		s.logger.Warn("attempt result not recorded on node", zap.Error(err))
	}
	return result, nil
}

// DeleteEntity deletes the remote entity behind a node and prunes the
// node locally. The backend enforces ownership; a non-owner gets its
// forbidden error passed through and the node stays.
func (s *WidgetService) DeleteEntity(ctx context.Context, nodeID string, confirm bool) error {
	if !confirm {
		return pkgerrors.NewValidationError("deletion requires confirmation")
	}

	id := valueobjects.NodeID(nodeID)
	var payload entities.Payload
	err := s.boards.Read(func(b *aggregates.Board) error {
		node, err := b.Node(id)
		if err != nil {
			return err
		}
		payload = node.Payload()
		return nil
	})
	if err != nil {
		return err
	}

	switch p := payload.(type) {
	case entities.PollPayload:
		err = s.gateway.DeletePoll(ctx, p.PollID, s.clientID)
	case entities.TestPayload:
		err = s.gateway.DeleteTest(ctx, p.TestID, s.clientID)
	default:
		return pkgerrors.ErrNotBound
	}
	if err != nil {
		return err
	}

	return s.boards.Mutate(ctx, func(b *aggregates.Board) error {
		return b.RemoveNode(id)
	})
}

func (s *WidgetService) pollID(nodeID string) (int64, error) {
	var pollID int64
	err := s.boards.Read(func(b *aggregates.Board) error {
		node, err := b.Node(valueobjects.NodeID(nodeID))
		if err != nil {
			return err
		}
		payload, ok := node.Payload().(entities.PollPayload)
		if !ok {
			return pkgerrors.ErrNotBound
		}
		pollID = payload.PollID
		return nil
	})
	return pollID, err
}

func (s *WidgetService) testID(nodeID string) (int64, error) {
	var testID int64
	err := s.boards.Read(func(b *aggregates.Board) error {
		node, err := b.Node(valueobjects.NodeID(nodeID))
		if err != nil {
			return err
		}
		payload, ok := node.Payload().(entities.TestPayload)
		if !ok {
			return pkgerrors.ErrNotBound
		}
		testID = payload.TestID
		return nil
	})
	return testID, err
}

func (s *WidgetService) refreshLabel(ctx context.Context, id valueobjects.NodeID, label string) {
	err := s.boards.Mutate(ctx, func(b *aggregates.Board) error {
		node, err := b.Node(id)
		if err != nil {
			return err
		}
		node.RefreshLabel(label)
		return nil
	})
	if err != nil {
		s.logger.Debug("label refresh skipped", zap.Error(err))
	}
}
