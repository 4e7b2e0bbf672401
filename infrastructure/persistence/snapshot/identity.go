package snapshot

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hack-pad/hackpadfs"

	pkgerrors "widgetboard/pkg/errors"
)

const identityPrefix = "anon_"

// IdentityStore persists the pseudo-anonymous client identity next to
// the snapshot. The identity is generated once and reused forever so
// ownership checks stay stable across sessions.
type IdentityStore struct {
	fs   hackpadfs.FS
	path string

	mu     sync.Mutex
	cached string
}

// NewIdentityStore creates an identity store backed by path on fs.
func NewIdentityStore(fsys hackpadfs.FS, path string) *IdentityStore {
	return &IdentityStore{fs: fsys, path: path}
}

// Identity returns the persisted client id, generating and storing one
// on first use.
func (s *IdentityStore) Identity(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != "" {
		return s.cached, nil
	}

	data, err := hackpadfs.ReadFile(s.fs, s.path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if strings.HasPrefix(id, identityPrefix) {
			s.cached = id
			return id, nil
		}
		// A mangled identity file is replaced rather than trusted.
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", pkgerrors.NewInternalError("failed to read identity file").WithCause(err)
	}

	id := identityPrefix + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]

	if dir := path.Dir(s.path); dir != "." && dir != "/" {
		if err := hackpadfs.MkdirAll(s.fs, dir, 0o755); err != nil {
			return "", pkgerrors.NewInternalError("failed to create identity directory").WithCause(err)
		}
	}
	if err := hackpadfs.WriteFullFile(s.fs, s.path, []byte(id+"\n"), 0o600); err != nil {
		return "", pkgerrors.NewInternalError("failed to write identity file").WithCause(err)
	}

	s.cached = id
	return id, nil
}
