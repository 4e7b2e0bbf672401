// Package sagas provides a small compensating-transaction orchestrator
// for multi-call remote operations that must succeed or fail as a set,
// such as casting one vote per selected choice.
package sagas

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Step is a single unit of a saga. Execute receives the output of the
// previous step; Compensate, if set, undoes the step after a later
// failure.
type Step struct {
	Name       string
	Execute    func(ctx context.Context, data interface{}) (interface{}, error)
	Compensate func(ctx context.Context, data interface{}) error
	MaxRetries int
	RetryDelay time.Duration
}

// State is the lifecycle state of a saga execution.
type State string

// Saga states.
const (
	StatePending     State = "PENDING"
	StateRunning     State = "RUNNING"
	StateCompleted   State = "COMPLETED"
	StateCompensated State = "COMPENSATED"
	StateFailed      State = "FAILED"
)

// Saga runs an ordered list of steps and compensates completed steps in
// reverse order when one fails.
type Saga struct {
	id     string
	name   string
	steps  []Step
	state  State
	logger *zap.Logger
}

// New creates a saga.
func New(name string, logger *zap.Logger) *Saga {
	return &Saga{
		id:     uuid.New().String(),
		name:   name,
		state:  StatePending,
		logger: logger,
	}
}

// AddStep appends a step to the saga.
func (s *Saga) AddStep(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// State returns the saga's current lifecycle state.
func (s *Saga) State() State {
	return s.state
}

// Execute runs all steps in order. On failure the completed steps are
// compensated in reverse order and the original error is returned.
func (s *Saga) Execute(ctx context.Context, initial interface{}) (interface{}, error) {
	s.state = StateRunning
	data := initial

	var done []Step
	var results []interface{}

	for _, step := range s.steps {
		result, err := s.runStep(ctx, step, data)
		if err != nil {
			s.logger.Warn("saga step failed, compensating",
				zap.String("saga", s.name),
				zap.String("saga_id", s.id),
				zap.String("step", step.Name),
				zap.Error(err),
			)
			if cerr := s.compensate(ctx, done, results); cerr != nil {
				s.state = StateFailed
				return nil, fmt.Errorf("saga %s: step %s failed and compensation failed (%v): %w",
					s.name, step.Name, cerr, err)
			}
			s.state = StateCompensated
			return nil, fmt.Errorf("saga %s: step %s failed: %w", s.name, step.Name, err)
		}
		done = append(done, step)
		results = append(results, result)
		data = result
	}

	s.state = StateCompleted
	return data, nil
}

func (s *Saga) runStep(ctx context.Context, step Step, data interface{}) (interface{}, error) {
	attempts := step.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	delay := step.RetryDelay
	if delay == 0 {
		delay = time.Second
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		result, err := step.Execute(ctx, data)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *Saga) compensate(ctx context.Context, done []Step, results []interface{}) error {
	for i := len(done) - 1; i >= 0; i-- {
		if done[i].Compensate == nil {
			continue
		}
		if err := done[i].Compensate(ctx, results[i]); err != nil {
			s.logger.Error("saga compensation failed",
				zap.String("saga", s.name),
				zap.String("step", done[i].Name),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}
