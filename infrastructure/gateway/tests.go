package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"widgetboard/application/ports"
	"widgetboard/domain/core/entities"
	pkgerrors "widgetboard/pkg/errors"
	"widgetboard/pkg/utils"
)

// ListTests fetches every test, with the same in-band failure semantics
// as ListPolls.
func (c *Client) ListTests(ctx context.Context) ports.TestListing {
	var tests []entities.Test
	if err := c.get(ctx, "/api/tests/", &tests, "tests", "list"); err != nil {
		return ports.TestListing{Failed: true, Err: err}
	}
	return ports.TestListing{Items: tests}
}

// FetchTest fetches one test by backend id.
func (c *Client) FetchTest(ctx context.Context, id int64) (*entities.Test, error) {
	var test entities.Test
	if err := c.get(ctx, fmt.Sprintf("/api/tests/%d/", id), &test, "tests", "fetch"); err != nil {
		return nil, err
	}
	return &test, nil
}

type createTestRequest struct {
	Title          string          `json:"title"`
	Owner          string          `json:"owner"`
	CompletionTime *int            `json:"completion_time,omitempty"`
	AttemptNumber  *int            `json:"attempt_number,omitempty"`
	EndDate        string          `json:"end_date,omitempty"`
	Tasks          []createTaskReq `json:"tasks"`
}

type createTaskReq struct {
	Question string            `json:"question"`
	TaskType string            `json:"task_type"`
	Score    int               `json:"score"`
	Options  []createOptionReq `json:"options,omitempty"`
}

type createOptionReq struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// CreateTest creates a test from a completed draft.
func (c *Client) CreateTest(ctx context.Context, draft entities.TestDraftPayload, ownerID string) (*entities.Test, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return nil, pkgerrors.NewValidationError("test title is required")
	}
	if len(draft.Tasks) == 0 {
		return nil, pkgerrors.NewValidationError("a test needs at least one task")
	}

	if draft.Settings.EndDate != "" {
		if _, err := utils.ParseRFC3339(draft.Settings.EndDate); err != nil {
			return nil, pkgerrors.NewValidationError("end date must be RFC3339")
		}
	}

	req := createTestRequest{
		Title:          draft.Title,
		Owner:          ownerID,
		CompletionTime: draft.Settings.CompletionTime,
		AttemptNumber:  draft.Settings.AttemptNumber,
		EndDate:        draft.Settings.EndDate,
	}
	for _, task := range draft.Tasks {
		if !task.Type.IsValid() {
			return nil, pkgerrors.NewValidationError(
				fmt.Sprintf("unknown task type %q", task.Type),
			)
		}
		if strings.TrimSpace(task.Question) == "" {
			return nil, pkgerrors.NewValidationError("task questions cannot be blank")
		}

		out := createTaskReq{
			Question: task.Question,
			TaskType: string(task.Type),
			Score:    task.Score,
		}
		switch task.Type {
		case entities.TaskTypeText:
			// The expected answer travels as the single correct option.
			out.Options = []createOptionReq{{Text: task.CorrectText, IsCorrect: true}}
		default:
			correct := make(map[string]bool, len(task.CorrectOptions))
			for _, text := range task.CorrectOptions {
				correct[text] = true
			}
			for _, text := range task.Options {
				out.Options = append(out.Options, createOptionReq{
					Text:      text,
					IsCorrect: correct[text],
				})
			}
		}
		req.Tasks = append(req.Tasks, out)
	}

	var test entities.Test
	if err := c.send(ctx, http.MethodPost, "/api/tests/create/", req, &test, "tests", "create"); err != nil {
		return nil, err
	}
	return &test, nil
}

type submitAttemptRequest struct {
	User    string                `json:"user"`
	Answers []entities.TaskAnswer `json:"answers"`
}

// SubmitAttempt submits a graded test attempt.
func (c *Client) SubmitAttempt(ctx context.Context, testID int64, answers []entities.TaskAnswer, userID string) (*entities.AttemptResult, error) {
	if len(answers) == 0 {
		return nil, pkgerrors.NewValidationError("at least one answer is required")
	}

	var result entities.AttemptResult
	err := c.send(ctx, http.MethodPost,
		fmt.Sprintf("/api/tests/%d/submit/", testID),
		submitAttemptRequest{User: userID, Answers: answers},
		&result, "tests", "submit",
	)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteTest deletes a test with the same ownership rule as DeletePoll.
func (c *Client) DeleteTest(ctx context.Context, id int64, requesterID string) error {
	return c.send(ctx, http.MethodDelete,
		fmt.Sprintf("/api/tests/%d/", id),
		deleteRequest{Owner: requesterID},
		nil, "tests", "delete",
	)
}
