package out

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"pathway/internal/modules/auth/domain"
	authout "pathway/internal/modules/auth/port/out"
)

// FileSessionStore caches the session as a JSON file under the state dir.
// The file carries tokens, so it is written owner-only.
type FileSessionStore struct {
	path string
	mu   sync.Mutex
}

func NewFileSessionStore(stateDir string) authout.SessionStore {
	return &FileSessionStore{path: filepath.Join(stateDir, "session.json")}
}

func (s *FileSessionStore) Save(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	payload, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(s.path, payload, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (s *FileSessionStore) Load(_ context.Context) (domain.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Session{}, false, nil
		}
		return domain.Session{}, false, fmt.Errorf("read session: %w", err)
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.Session{}, false, fmt.Errorf("parse session: %w", err)
	}
	if !session.Valid() {
		return domain.Session{}, false, nil
	}
	return session, true, nil
}

func (s *FileSessionStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
