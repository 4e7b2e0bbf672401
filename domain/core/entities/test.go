package entities

import "time"

// TaskType discriminates how a test task is answered.
type TaskType string

// Supported task types.
const (
	TaskTypeText     TaskType = "text"
	TaskTypeSingle   TaskType = "single"
	TaskTypeMultiple TaskType = "multiple"
)

// IsValid reports whether the task type is one of the supported values.
func (t TaskType) IsValid() bool {
	switch t {
	case TaskTypeText, TaskTypeSingle, TaskTypeMultiple:
		return true
	}
	return false
}

// TaskOption is a selectable answer option of a choice task.
type TaskOption struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct,omitempty"`
}

// Task is a single question of a test.
type Task struct {
	ID       int64        `json:"id"`
	Question string       `json:"question"`
	Type     TaskType     `json:"task_type"`
	Score    int          `json:"score"`
	Options  []TaskOption `json:"options,omitempty"`
}

// Test is a test entity as served by the remote backend.
type Test struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Owner          string     `json:"owner"`
	CompletionTime *int       `json:"completion_time"`
	AttemptNumber  int        `json:"attempt_number"`
	EndDate        *time.Time `json:"end_date"`
	Tasks          []Task     `json:"tasks"`
	AttemptsMade   int        `json:"attempts_made,omitempty"`
}

// TotalScore returns the maximum score obtainable across all tasks.
func (t Test) TotalScore() int {
	total := 0
	for _, task := range t.Tasks {
		total += task.Score
	}
	return total
}

// HasAttempts reports whether anyone has submitted an attempt.
func (t Test) HasAttempts() bool {
	return t.AttemptsMade > 0
}

// IsClosed reports whether the test's end date has passed.
func (t Test) IsClosed(now time.Time) bool {
	return t.EndDate != nil && now.After(*t.EndDate)
}

// IsOwnedBy reports whether the given client identity owns the test.
func (t Test) IsOwnedBy(clientID string) bool {
	return t.Owner != "" && t.Owner == clientID
}

// TaskAnswer is a respondent's answer to one task of a test attempt.
type TaskAnswer struct {
	TaskID            int64   `json:"task"`
	Text              string  `json:"text_answer,omitempty"`
	SelectedOptionIDs []int64 `json:"selected_options,omitempty"`
}

// AttemptResult is the graded outcome of a submitted test attempt.
type AttemptResult struct {
	ScoreObtained int `json:"score_obtained"`
	TotalScore    int `json:"total_score"`
}
