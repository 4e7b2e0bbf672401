package snapshot

import (
	"encoding/json"
	"fmt"
)

// migration upgrades a raw snapshot document from one layout version to
// the next.
type migration struct {
	FromVersion int
	ToVersion   int
	Description string
	Up          func(data []byte) ([]byte, error)
}

// Migrator manages snapshot document layout evolution. Old documents
// are upgraded in memory on load; the next save writes the current
// layout.
type Migrator struct {
	migrations []migration
}

// NewMigrator creates a migrator with all known layout migrations
// registered.
func NewMigrator() *Migrator {
	m := &Migrator{}
	// v0 documents predate the tagged payload envelope: each node held
	// its payload fields inline under "data".
	m.register(migration{
		FromVersion: 0,
		ToVersion:   1,
		Description: "wrap node payloads in tagged envelopes",
		Up:          migrateV0PayloadEnvelopes,
	})
	return m
}

func (m *Migrator) register(mig migration) {
	if mig.FromVersion >= mig.ToVersion {
		panic(fmt.Sprintf("invalid snapshot migration %d -> %d", mig.FromVersion, mig.ToVersion))
	}
	m.migrations = append(m.migrations, mig)
}

// Upgrade replays migrations until the document reaches targetVersion.
// A missing migration step is an error; the caller treats it like
// corruption.
func (m *Migrator) Upgrade(data []byte, fromVersion, targetVersion int) ([]byte, error) {
	version := fromVersion
	for version < targetVersion {
		next, ok := m.find(version)
		if !ok {
			return nil, fmt.Errorf("no snapshot migration from version %d", version)
		}
		upgraded, err := next.Up(data)
		if err != nil {
			return nil, fmt.Errorf("snapshot migration %d -> %d: %w", next.FromVersion, next.ToVersion, err)
		}
		data = upgraded
		version = next.ToVersion
	}
	return data, nil
}

func (m *Migrator) find(fromVersion int) (migration, bool) {
	for _, mig := range m.migrations {
		if mig.FromVersion == fromVersion {
			return mig, true
		}
	}
	return migration{}, false
}

// migrateV0PayloadEnvelopes wraps each node's bare "data" object into
// the {kind, data} envelope, taking the kind from the node record.
func migrateV0PayloadEnvelopes(data []byte) ([]byte, error) {
	var doc struct {
		Viewport json.RawMessage `json:"viewport"`
		Nodes    []struct {
			ID        string          `json:"id"`
			Kind      string          `json:"kind"`
			Position  json.RawMessage `json:"position"`
			Size      json.RawMessage `json:"size"`
			Data      json.RawMessage `json:"data"`
			UpdatedAt json.RawMessage `json:"updated_at"`
		} `json:"nodes"`
		Edges json.RawMessage `json:"edges"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	out := map[string]interface{}{
		"version": 1,
	}
	if doc.Viewport != nil {
		out["viewport"] = doc.Viewport
	}
	if doc.Edges != nil {
		out["edges"] = doc.Edges
	}

	nodes := make([]map[string]interface{}, 0, len(doc.Nodes))
	for _, n := range doc.Nodes {
		payload := map[string]interface{}{
			"kind": n.Kind,
			"data": n.Data,
		}
		node := map[string]interface{}{
			"id":      n.ID,
			"kind":    n.Kind,
			"payload": payload,
		}
		if n.Position != nil {
			node["position"] = n.Position
		}
		if n.Size != nil {
			node["size"] = n.Size
		}
		if n.UpdatedAt != nil {
			node["updated_at"] = n.UpdatedAt
		}
		nodes = append(nodes, node)
	}
	out["nodes"] = nodes

	return json.Marshal(out)
}
