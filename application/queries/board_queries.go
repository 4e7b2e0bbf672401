// Package queries defines the read operations of the application layer
// and the view models they return.
package queries

import (
	"encoding/json"

	"widgetboard/domain/core/valueobjects"
	"widgetboard/pkg/utils"
)

// GetBoardQuery returns the full board view.
type GetBoardQuery struct{}

// Validate implements bus.Query
func (q GetBoardQuery) Validate() error {
	return nil
}

// GetEntityQuery returns the remote entity rendered by a node, fetched
// fresh from the backend.
type GetEntityQuery struct {
	NodeID string `json:"node_id" validate:"required,max=128"`
}

// Validate implements bus.Query
func (q GetEntityQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// NodeView is the rendered shape of a board node.
type NodeView struct {
	ID       string                `json:"id"`
	Kind     string                `json:"kind"`
	Position valueobjects.Position `json:"position"`
	Size     valueobjects.Size     `json:"size"`
	Mode     string                `json:"mode"`
	Payload  json.RawMessage       `json:"payload"`
}

// EdgeView is the rendered shape of a board edge.
type EdgeView struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// BoardView is the full canvas state returned to the renderer.
type BoardView struct {
	Nodes    []NodeView            `json:"nodes"`
	Edges    []EdgeView            `json:"edges"`
	Viewport valueobjects.Viewport `json:"viewport"`
}

// ChoiceView is a poll choice with its share of all cast votes.
type ChoiceView struct {
	ID         int64   `json:"id"`
	Text       string  `json:"text"`
	VotesCount int     `json:"votes_count"`
	Share      float64 `json:"share"`
}

// PollView is a poll prepared for display: vote counts plus derived
// shares, with the total as denominator.
type PollView struct {
	ID              int64        `json:"id"`
	Title           string       `json:"title"`
	Owner           string       `json:"owner"`
	IsOwner         bool         `json:"is_owner"`
	IsAnonymous     bool         `json:"is_anonymous"`
	MultipleAnswers bool         `json:"multiple_answers"`
	EndDate         string       `json:"end_date,omitempty"`
	TotalVotes      int          `json:"total_votes"`
	Choices         []ChoiceView `json:"choices"`
	UserVotes       []int64      `json:"user_votes,omitempty"`
}

// TaskOptionView is a task option; the correct flag is only present for
// the test's owner.
type TaskOptionView struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

// TaskView is one question of a test prepared for display.
type TaskView struct {
	ID       int64            `json:"id"`
	Question string           `json:"question"`
	Type     string           `json:"task_type"`
	Score    int              `json:"score"`
	Options  []TaskOptionView `json:"options,omitempty"`
}

// TestView is a test prepared for display. Correct answers are stripped
// for anyone but the owner.
type TestView struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Owner          string     `json:"owner"`
	IsOwner        bool       `json:"is_owner"`
	CompletionTime *int       `json:"completion_time,omitempty"`
	AttemptNumber  int        `json:"attempt_number"`
	EndDate        string     `json:"end_date,omitempty"`
	TotalScore     int        `json:"total_score"`
	Tasks          []TaskView `json:"tasks"`
}

// EntityView is the polymorphic result of GetEntityQuery: exactly one of
// Poll and Test is set.
type EntityView struct {
	Poll *PollView `json:"poll,omitempty"`
	Test *TestView `json:"test,omitempty"`
}
