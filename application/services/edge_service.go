package services

import (
	"context"

	"go.uber.org/zap"

	"widgetboard/domain/core/aggregates"
	"widgetboard/domain/core/entities"
)

// EdgeService provides edge maintenance on top of the board. Edges
// survive reconciliation even when an endpoint node was pruned, so the
// canvas can accumulate dangling edges over time; this service reports
// and removes them on demand.
type EdgeService struct {
	boards *BoardService
	logger *zap.Logger
}

// NewEdgeService creates a new edge service
func NewEdgeService(boards *BoardService, logger *zap.Logger) *EdgeService {
	return &EdgeService{
		boards: boards,
		logger: logger,
	}
}

// DanglingEdges returns the edges with at least one missing endpoint.
func (s *EdgeService) DanglingEdges() ([]*entities.Edge, error) {
	var dangling []*entities.Edge
	err := s.boards.Read(func(b *aggregates.Board) error {
		for _, edge := range b.Edges() {
			if !b.HasNode(edge.Source()) || !b.HasNode(edge.Target()) {
				dangling = append(dangling, edge)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dangling, nil
}

// PruneDanglingEdges removes every edge with a missing endpoint and
// persists the board. It returns the number of edges removed.
func (s *EdgeService) PruneDanglingEdges(ctx context.Context) (int, error) {
	pruned := 0
	err := s.boards.Mutate(ctx, func(b *aggregates.Board) error {
		for _, edge := range b.Edges() {
			if b.HasNode(edge.Source()) && b.HasNode(edge.Target()) {
				continue
			}
			if err := b.DisconnectEdge(edge.ID()); err != nil {
				return err
			}
			pruned++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if pruned > 0 {
		s.logger.Info("pruned dangling edges", zap.Int("count", pruned))
	}
	return pruned, nil
}
