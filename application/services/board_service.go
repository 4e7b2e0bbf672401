package services

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"widgetboard/application/ports"
	"widgetboard/domain/core/aggregates"
	"widgetboard/domain/core/entities"
	"widgetboard/domain/core/valueobjects"
	"widgetboard/domain/events"
	"widgetboard/domain/reconcile"
	pkgerrors "widgetboard/pkg/errors"
	"widgetboard/pkg/observability"
)

// BoardService owns the live board aggregate. It serializes all access
// behind a mutex, runs reconciliation passes, and enforces the
// save-after-load rule: no snapshot write happens before the initial
// load and reconciliation pass completed.
type BoardService struct {
	mu     sync.Mutex
	board  *aggregates.Board
	loaded bool

	engine  *reconcile.Engine
	gateway ports.EntityGateway
	store   ports.SnapshotStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewBoardService creates a board service. The board is not usable until
// Start has run.
func NewBoardService(
	engine *reconcile.Engine,
	gateway ports.EntityGateway,
	store ports.SnapshotStore,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *BoardService {
	return &BoardService{
		engine:  engine,
		gateway: gateway,
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

// Start loads the persisted snapshot, fetches the entity lists, runs the
// initial reconciliation pass, and persists the result. Only after Start
// returns is the board considered loaded.
func (s *BoardService) Start(ctx context.Context) error {
	prev, err := s.store.Load(ctx)
	if err != nil {
		// Unreadable snapshots are treated as absent; the board is
		// rebuilt from the server lists alone.
		s.logger.Warn("snapshot load failed, starting from empty board", zap.Error(err))
		prev = nil
	}

	lists := s.fetchLists(ctx)
	board := s.engine.Reconcile(prev, lists)
	board.AddEvent(events.NewBoardReconciled(
		board.ID().String(),
		board.NodeCount(),
		len(board.Edges()),
		lists.PollsFailed,
		lists.TestsFailed,
	))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.board = board
	s.loaded = true
	s.metrics.ReconcilePasses.Inc()
	s.metrics.ReconcileNodes.Set(float64(board.NodeCount()))

	s.logger.Info("board loaded",
		zap.Int("nodes", board.NodeCount()),
		zap.Int("edges", len(board.Edges())),
		zap.Bool("polls_failed", lists.PollsFailed),
		zap.Bool("tests_failed", lists.TestsFailed),
	)
	return s.persistLocked(ctx)
}

// Sync runs a fresh reconciliation pass against the current board. The
// entity lists are fetched outside the lock; only the fold and swap run
// under it.
func (s *BoardService) Sync(ctx context.Context) error {
	if !s.Loaded() {
		return pkgerrors.ErrBoardNotLoaded
	}

	lists := s.fetchLists(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	board := s.engine.Reconcile(s.board, lists)
	board.AddEvent(events.NewBoardReconciled(
		board.ID().String(),
		board.NodeCount(),
		len(board.Edges()),
		lists.PollsFailed,
		lists.TestsFailed,
	))
	s.board = board
	s.metrics.ReconcilePasses.Inc()
	s.metrics.ReconcileNodes.Set(float64(board.NodeCount()))
	return s.persistLocked(ctx)
}

// Loaded reports whether the initial load has completed.
func (s *BoardService) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Read runs fn with the board under the service lock. The board must not
// be retained or mutated by fn.
func (s *BoardService) Read(fn func(board *aggregates.Board) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return pkgerrors.ErrBoardNotLoaded
	}
	return fn(s.board)
}

// Mutate runs fn with the board under the service lock and persists the
// result. If fn fails nothing is written.
func (s *BoardService) Mutate(ctx context.Context, fn func(board *aggregates.Board) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return pkgerrors.ErrBoardNotLoaded
	}
	if err := fn(s.board); err != nil {
		return err
	}
	return s.persistLocked(ctx)
}

// MoveNode repositions a node and persists the board.
func (s *BoardService) MoveNode(ctx context.Context, nodeID string, x, y float64) error {
	pos, err := valueobjects.NewPosition(x, y)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	return s.Mutate(ctx, func(b *aggregates.Board) error {
		return b.MoveNode(valueobjects.NodeID(nodeID), pos)
	})
}

// ResizeNode changes a node's extent and persists the board.
func (s *BoardService) ResizeNode(ctx context.Context, nodeID string, width, height float64) error {
	size, err := valueobjects.NewSize(width, height)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	return s.Mutate(ctx, func(b *aggregates.Board) error {
		return b.ResizeNode(valueobjects.NodeID(nodeID), size)
	})
}

// SetViewport pans or zooms the board and persists it.
func (s *BoardService) SetViewport(ctx context.Context, x, y, zoom float64) error {
	vp, err := valueobjects.NewViewport(x, y, zoom)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	return s.Mutate(ctx, func(b *aggregates.Board) error {
		b.SetViewport(vp)
		return nil
	})
}

// ConnectNodes draws an edge between two nodes and persists the board.
func (s *BoardService) ConnectNodes(ctx context.Context, sourceID, targetID string) (*entities.Edge, error) {
	var edge *entities.Edge
	err := s.Mutate(ctx, func(b *aggregates.Board) error {
		var err error
		edge, err = b.ConnectNodes(valueobjects.NodeID(sourceID), valueobjects.NodeID(targetID))
		return err
	})
	return edge, err
}

// DisconnectEdge removes an edge and persists the board.
func (s *BoardService) DisconnectEdge(ctx context.Context, edgeID string) error {
	return s.Mutate(ctx, func(b *aggregates.Board) error {
		return b.DisconnectEdge(valueobjects.EdgeID(edgeID))
	})
}

// UpdateDraft replaces a template node's draft payload from its tagged
// envelope and persists the board.
func (s *BoardService) UpdateDraft(ctx context.Context, nodeID string, raw []byte) error {
	payload, err := entities.UnmarshalPayload(raw)
	if err != nil {
		return pkgerrors.NewParseError("invalid draft payload", err)
	}
	if !payload.Kind().IsTemplate() {
		return pkgerrors.NewValidationError("draft payloads apply to template nodes only")
	}
	return s.Mutate(ctx, func(b *aggregates.Board) error {
		return b.SetNodePayload(valueobjects.NodeID(nodeID), payload)
	})
}

// fetchLists retrieves both entity lists concurrently. Failures are
// reported in-band; the pass still runs for the kinds that succeeded.
func (s *BoardService) fetchLists(ctx context.Context) reconcile.EntityLists {
	var lists reconcile.EntityLists

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		listing := s.gateway.ListPolls(gctx)
		lists.Polls = listing.Items
		lists.PollsFailed = listing.Failed
		if listing.Failed {
			s.logger.Warn("poll list fetch failed, preserving local poll nodes",
				zap.Error(listing.Err))
		}
		return nil
	})
	g.Go(func() error {
		listing := s.gateway.ListTests(gctx)
		lists.Tests = listing.Items
		lists.TestsFailed = listing.Failed
		if listing.Failed {
			s.logger.Warn("test list fetch failed, preserving local test nodes",
				zap.Error(listing.Err))
		}
		return nil
	})
	g.Wait()

	return lists
}

// persistLocked writes the board snapshot. Callers hold the lock. Writes
// before the initial load are refused so a half-initialized board can
// never clobber a valid snapshot.
func (s *BoardService) persistLocked(ctx context.Context) error {
	if !s.loaded {
		s.metrics.SnapshotSaveSkips.Inc()
		s.logger.Debug("snapshot save skipped: board not loaded yet")
		return nil
	}

	for _, evt := range s.board.GetUncommittedEvents() {
		s.logger.Debug("board event",
			zap.String("type", evt.GetEventType()),
			zap.String("aggregate", evt.GetAggregateID()),
		)
	}
	s.board.MarkEventsAsCommitted()

	if err := s.store.Save(ctx, s.board); err != nil {
		s.logger.Error("snapshot save failed", zap.Error(err))
		return pkgerrors.NewInternalError("failed to persist board snapshot").WithCause(err)
	}
	s.metrics.SnapshotSaves.Inc()
	return nil
}
