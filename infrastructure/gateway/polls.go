package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"widgetboard/application/ports"
	"widgetboard/application/sagas"
	"widgetboard/domain/core/entities"
	pkgerrors "widgetboard/pkg/errors"
	"widgetboard/pkg/utils"
)

// ListPolls fetches every poll. Failures are reported in-band so a dead
// backend degrades to "preserve what we know" instead of erroring out.
func (c *Client) ListPolls(ctx context.Context) ports.PollListing {
	var polls []entities.Poll
	if err := c.get(ctx, "/api/polls/", &polls, "polls", "list"); err != nil {
		return ports.PollListing{Failed: true, Err: err}
	}
	return ports.PollListing{Items: polls}
}

// FetchPoll fetches one poll by backend id.
func (c *Client) FetchPoll(ctx context.Context, id int64) (*entities.Poll, error) {
	var poll entities.Poll
	if err := c.get(ctx, fmt.Sprintf("/api/polls/%d/", id), &poll, "polls", "fetch"); err != nil {
		return nil, err
	}
	return &poll, nil
}

type createPollRequest struct {
	Title           string             `json:"title"`
	Owner           string             `json:"owner"`
	IsAnonymous     bool               `json:"is_anonymous"`
	MultipleAnswers bool               `json:"multiple_answers"`
	EndDate         string             `json:"end_date,omitempty"`
	Choices         []createPollChoice `json:"choices"`
}

type createPollChoice struct {
	ChoiceText string `json:"choice_text"`
}

// CreatePoll creates a poll from a completed draft.
func (c *Client) CreatePoll(ctx context.Context, draft entities.PollDraftPayload, ownerID string) (*entities.Poll, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return nil, pkgerrors.NewValidationError("poll title is required")
	}
	if len(draft.Options) < 2 {
		return nil, pkgerrors.NewValidationError("a poll needs at least two options")
	}

	if draft.Settings.EndDate != "" {
		if _, err := utils.ParseRFC3339(draft.Settings.EndDate); err != nil {
			return nil, pkgerrors.NewValidationError("end date must be RFC3339")
		}
	}

	req := createPollRequest{
		Title:           draft.Title,
		Owner:           ownerID,
		IsAnonymous:     draft.Settings.IsAnonymous,
		MultipleAnswers: draft.Settings.MultipleAnswers,
		EndDate:         draft.Settings.EndDate,
	}
	for _, option := range draft.Options {
		if strings.TrimSpace(option) == "" {
			return nil, pkgerrors.NewValidationError("poll options cannot be blank")
		}
		req.Choices = append(req.Choices, createPollChoice{ChoiceText: option})
	}

	var poll entities.Poll
	if err := c.send(ctx, http.MethodPost, "/api/polls/create/", req, &poll, "polls", "create"); err != nil {
		return nil, err
	}
	return &poll, nil
}

type voteRequest struct {
	Choice int64  `json:"choice"`
	Voter  string `json:"voter"`
}

type unvoteRequest struct {
	Voter string `json:"voter"`
}

// Vote casts one vote per selected choice, as a set: if any cast fails,
// the already-cast votes are compensated away with an unvote so the poll
// never ends up half-voted. Returns the updated poll.
func (c *Client) Vote(ctx context.Context, pollID int64, choiceIDs []int64, voterID string) (*entities.Poll, error) {
	if len(choiceIDs) == 0 {
		return nil, pkgerrors.NewValidationError("at least one choice is required")
	}

	saga := sagas.New("cast-votes", c.logger)
	for _, choiceID := range choiceIDs {
		choiceID := choiceID
		saga.AddStep(sagas.Step{
			Name: fmt.Sprintf("vote-choice-%d", choiceID),
			Execute: func(ctx context.Context, _ interface{}) (interface{}, error) {
				var poll entities.Poll
				err := c.send(ctx, http.MethodPost,
					fmt.Sprintf("/api/polls/%d/vote/", pollID),
					voteRequest{Choice: choiceID, Voter: voterID},
					&poll, "polls", "vote",
				)
				if err != nil {
					return nil, err
				}
				return &poll, nil
			},
			Compensate: func(ctx context.Context, _ interface{}) error {
				_, err := c.Unvote(ctx, pollID, voterID)
				return err
			},
		})
	}

	result, err := saga.Execute(ctx, nil)
	if err != nil {
		return nil, unwrapSagaError(err)
	}
	return result.(*entities.Poll), nil
}

// Unvote retracts all of this client's votes on a poll and returns the
// updated poll.
func (c *Client) Unvote(ctx context.Context, pollID int64, voterID string) (*entities.Poll, error) {
	var poll entities.Poll
	err := c.send(ctx, http.MethodPost,
		fmt.Sprintf("/api/polls/%d/unvote/", pollID),
		unvoteRequest{Voter: voterID},
		&poll, "polls", "unvote",
	)
	if err != nil {
		return nil, err
	}
	return &poll, nil
}

type deleteRequest struct {
	Owner string `json:"owner"`
}

// DeletePoll deletes a poll. The backend checks ownership and answers
// 403 for anyone else; that error is passed through untouched.
func (c *Client) DeletePoll(ctx context.Context, id int64, requesterID string) error {
	return c.send(ctx, http.MethodDelete,
		fmt.Sprintf("/api/polls/%d/", id),
		deleteRequest{Owner: requesterID},
		nil, "polls", "delete",
	)
}

// unwrapSagaError recovers the typed gateway error buried under the
// saga's wrapping so callers can match on it.
func unwrapSagaError(err error) error {
	var appErr *pkgerrors.AppError
	if pkgerrors.As(err, &appErr) {
		return appErr
	}
	return err
}
