// Package ports declares the interfaces the application layer depends
// on. Infrastructure provides the implementations.
package ports

import (
	"context"

	"widgetboard/domain/core/aggregates"
	"widgetboard/domain/core/entities"
)

// PollListing is the outcome of a poll list fetch. Failed marks a
// network or server failure: Items is then empty and reconciliation must
// preserve locally known poll nodes.
type PollListing struct {
	Items  []entities.Poll
	Failed bool
	Err    error
}

// TestListing is the outcome of a test list fetch, with the same failure
// semantics as PollListing.
type TestListing struct {
	Items  []entities.Test
	Failed bool
	Err    error
}

// EntityGateway talks to the remote entity backend. List operations
// never return an error: failures are reported in-band through the
// listing's Failed flag. All other operations return typed errors.
type EntityGateway interface {
	// ListPolls fetches every poll visible to this client.
	ListPolls(ctx context.Context) PollListing
	// ListTests fetches every test visible to this client.
	ListTests(ctx context.Context) TestListing

	// FetchPoll fetches one poll by backend id.
	FetchPoll(ctx context.Context, id int64) (*entities.Poll, error)
	// FetchTest fetches one test by backend id.
	FetchTest(ctx context.Context, id int64) (*entities.Test, error)

	// CreatePoll creates a poll from a completed draft and returns the
	// stored entity.
	CreatePoll(ctx context.Context, draft entities.PollDraftPayload, ownerID string) (*entities.Poll, error)
	// CreateTest creates a test from a completed draft and returns the
	// stored entity.
	CreateTest(ctx context.Context, draft entities.TestDraftPayload, ownerID string) (*entities.Test, error)

	// Vote casts votes on a poll and returns the updated poll.
	Vote(ctx context.Context, pollID int64, choiceIDs []int64, voterID string) (*entities.Poll, error)
	// Unvote retracts this client's votes and returns the updated poll.
	Unvote(ctx context.Context, pollID int64, voterID string) (*entities.Poll, error)

	// SubmitAttempt submits a graded test attempt.
	SubmitAttempt(ctx context.Context, testID int64, answers []entities.TaskAnswer, userID string) (*entities.AttemptResult, error)

	// DeletePoll deletes a poll. The backend enforces ownership and
	// responds 403 for non-owners.
	DeletePoll(ctx context.Context, id int64, requesterID string) error
	// DeleteTest deletes a test with the same ownership rule.
	DeleteTest(ctx context.Context, id int64, requesterID string) error
}

// SnapshotStore persists the board between sessions.
type SnapshotStore interface {
	// Load reads the persisted board. A missing or unreadable snapshot
	// yields (nil, nil): first-run and corruption both mean "start empty".
	Load(ctx context.Context) (*aggregates.Board, error)
	// Save overwrites the persisted board.
	Save(ctx context.Context, board *aggregates.Board) error
}

// IdentityStore resolves the stable pseudo-anonymous client identity.
type IdentityStore interface {
	// Identity returns the persisted client id, generating and storing
	// one on first use.
	Identity(ctx context.Context) (string, error)
}
