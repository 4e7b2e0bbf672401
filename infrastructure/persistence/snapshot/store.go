// Package snapshot persists the board to a local filesystem. The store
// is written against the hackpadfs abstraction so tests run on an
// in-memory filesystem and the binary on the real one.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"path"
	"time"

	"github.com/hack-pad/hackpadfs"
	"go.uber.org/zap"

	"widgetboard/domain/core/aggregates"
	"widgetboard/domain/core/entities"
	"widgetboard/domain/core/valueobjects"
	"widgetboard/domain/core/widgets"
	pkgerrors "widgetboard/pkg/errors"
)

// snapshotVersion guards the document layout. Unknown versions are
// treated like corruption: the board starts empty and is rebuilt from
// the server lists.
const snapshotVersion = 1

type document struct {
	Version  int                   `json:"version"`
	SavedAt  time.Time             `json:"saved_at"`
	Viewport valueobjects.Viewport `json:"viewport"`
	Nodes    []nodeRecord          `json:"nodes"`
	Edges    []edgeRecord          `json:"edges"`
}

type nodeRecord struct {
	ID        string                `json:"id"`
	Kind      string                `json:"kind"`
	Position  valueobjects.Position `json:"position"`
	Size      valueobjects.Size     `json:"size"`
	Payload   json.RawMessage       `json:"payload"`
	UpdatedAt time.Time             `json:"updated_at"`
}

type edgeRecord struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	CreatedAt time.Time `json:"created_at"`
}

// Store reads and writes board snapshots as a single JSON document.
type Store struct {
	fs       hackpadfs.FS
	path     string
	migrator *Migrator
	logger   *zap.Logger
}

// NewStore creates a snapshot store writing to path on fs.
func NewStore(fsys hackpadfs.FS, path string, logger *zap.Logger) *Store {
	return &Store{fs: fsys, path: path, migrator: NewMigrator(), logger: logger}
}

// Load reads the persisted board. A missing snapshot returns (nil, nil);
// so does a corrupt one, after a warning, because a board rebuilt from
// the server lists beats a crash loop on bad local state.
func (s *Store) Load(ctx context.Context) (*aggregates.Board, error) {
	data, err := hackpadfs.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, pkgerrors.NewInternalError("failed to read snapshot").WithCause(err)
	}

	var versionProbe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &versionProbe); err != nil {
		s.logger.Warn("snapshot is corrupt, starting empty",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return nil, nil
	}
	if versionProbe.Version < snapshotVersion {
		upgraded, err := s.migrator.Upgrade(data, versionProbe.Version, snapshotVersion)
		if err != nil {
			s.logger.Warn("snapshot migration failed, starting empty",
				zap.String("path", s.path),
				zap.Int("version", versionProbe.Version),
				zap.Error(err),
			)
			return nil, nil
		}
		data = upgraded
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("snapshot is corrupt, starting empty",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return nil, nil
	}
	if doc.Version != snapshotVersion {
		s.logger.Warn("snapshot has unknown version, starting empty",
			zap.String("path", s.path),
			zap.Int("version", doc.Version),
		)
		return nil, nil
	}

	nodes := make([]*entities.Node, 0, len(doc.Nodes))
	for _, rec := range doc.Nodes {
		payload, err := entities.UnmarshalPayload(rec.Payload)
		if err != nil {
			s.logger.Warn("snapshot node payload is corrupt, starting empty",
				zap.String("node_id", rec.ID),
				zap.Error(err),
			)
			return nil, nil
		}
		node := entities.ReconstructNode(
			valueobjects.NodeID(rec.ID),
			entities.NodeKind(rec.Kind),
			rec.Position,
			rec.Size,
			payload,
			rec.UpdatedAt,
		)
		// Snapshots written before view modes were persisted carry none;
		// such nodes resume from their default mode.
		if !node.Mode().IsValid() {
			if err := node.SetMode(widgets.InitialMode(payload)); err != nil {
				return nil, pkgerrors.NewInternalError("failed to assign node mode").WithCause(err)
			}
		}
		nodes = append(nodes, node)
	}

	edges := make([]*entities.Edge, 0, len(doc.Edges))
	for _, rec := range doc.Edges {
		edges = append(edges, entities.ReconstructEdge(
			valueobjects.EdgeID(rec.ID),
			valueobjects.NodeID(rec.Source),
			valueobjects.NodeID(rec.Target),
			rec.CreatedAt,
		))
	}

	return aggregates.ReconstructBoard(nodes, edges, doc.Viewport), nil
}

// Save overwrites the snapshot with the board's current state.
func (s *Store) Save(ctx context.Context, board *aggregates.Board) error {
	doc := document{
		Version:  snapshotVersion,
		SavedAt:  time.Now().UTC(),
		Viewport: board.Viewport(),
	}

	for _, node := range board.Nodes() {
		payload, err := entities.MarshalPayload(node.Payload())
		if err != nil {
			return pkgerrors.NewInternalError("failed to encode node payload").WithCause(err)
		}
		doc.Nodes = append(doc.Nodes, nodeRecord{
			ID:        node.ID().String(),
			Kind:      string(node.Kind()),
			Position:  node.Position(),
			Size:      node.Size(),
			Payload:   payload,
			UpdatedAt: node.UpdatedAt(),
		})
	}

	for _, edge := range board.Edges() {
		doc.Edges = append(doc.Edges, edgeRecord{
			ID:        edge.ID().String(),
			Source:    edge.Source().String(),
			Target:    edge.Target().String(),
			CreatedAt: edge.CreatedAt(),
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return pkgerrors.NewInternalError("failed to encode snapshot").WithCause(err)
	}

	if dir := path.Dir(s.path); dir != "." && dir != "/" {
		if err := hackpadfs.MkdirAll(s.fs, dir, 0o755); err != nil {
			return pkgerrors.NewInternalError("failed to create snapshot directory").WithCause(err)
		}
	}
	if err := hackpadfs.WriteFullFile(s.fs, s.path, data, 0o644); err != nil {
		return pkgerrors.NewInternalError("failed to write snapshot").WithCause(err)
	}
	return nil
}
