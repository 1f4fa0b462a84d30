// Package file implements the disk-backed snapshot store. Each report type
// is persisted as one JSON file under a stable name in the snapshot
// directory; writes go through a temp file and rename so a crash mid-write
// never leaves a torn snapshot behind.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/marquessam/select-start-api/internal/infrastructure/cache"
)

// SnapshotStore persists report snapshots as JSON files.
type SnapshotStore struct {
	dir string
}

// NewSnapshotStore creates the snapshot directory if needed and returns a
// store writing into it.
func NewSnapshotStore(dir string) (*SnapshotStore, error) {
	if dir == "" {
		return nil, errors.New("file: snapshot directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file: create snapshot directory: %w", err)
	}
	return &SnapshotStore{dir: dir}, nil
}

// Save writes the snapshot for its report type, replacing any previous one.
func (s *SnapshotStore) Save(_ context.Context, snap cache.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("file: marshal snapshot: %w", err)
	}

	path := s.path(snap.Type)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("file: write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("file: replace snapshot: %w", err)
	}
	return nil
}

// Load reads the stored snapshot for a report type.
func (s *SnapshotStore) Load(_ context.Context, rt cache.ReportType) (*cache.Snapshot, error) {
	data, err := os.ReadFile(s.path(rt))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, cache.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("file: read snapshot: %w", err)
	}

	var snap cache.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("file: decode snapshot: %w", err)
	}
	return &snap, nil
}

func (s *SnapshotStore) path(rt cache.ReportType) string {
	return filepath.Join(s.dir, string(rt)+".json")
}
