package out

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"pathway/internal/modules/journey/domain"
	journeyout "pathway/internal/modules/journey/port/out"
)

// FileSnapshotStore keeps the local journey snapshot as a single JSON
// document under the state dir.
type FileSnapshotStore struct {
	path string
	mu   sync.Mutex
}

func NewFileSnapshotStore(stateDir string) journeyout.SnapshotStore {
	return &FileSnapshotStore{path: filepath.Join(stateDir, "journey-snapshot.json")}
}

func (s *FileSnapshotStore) Save(_ context.Context, snap domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	payload, err := snap.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, payload, 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func (s *FileSnapshotStore) Load(_ context.Context) (domain.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Snapshot{}, false, nil
		}
		return domain.Snapshot{}, false, fmt.Errorf("read snapshot: %w", err)
	}
	snap, err := domain.DecodeSnapshot(raw)
	if err != nil {
		// A corrupt snapshot costs one draft; starting over beats refusing
		// to start.
		log.Printf("journey: discarding unreadable snapshot: %v", err)
		return domain.Snapshot{}, false, nil
	}
	return snap, true, nil
}

func (s *FileSnapshotStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}
