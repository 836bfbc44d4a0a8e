package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	catalog "pathway/internal/modules/catalog/domain"
	"pathway/internal/modules/journey/domain"
	journeyout "pathway/internal/modules/journey/port/out"
	"pathway/internal/platform/clock"
	apperrors "pathway/internal/platform/errors"
	"pathway/internal/platform/id"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// SQLiteJourneyStore implements the durable journey contract on SQLite. Step
// rows are fully replaced on every update; header and rows always commit or
// roll back together, so a partial write never leaves an orphan header.
type SQLiteJourneyStore struct {
	db    *sql.DB
	idGen id.Generator
	clock clock.Clock
}

func NewSQLiteJourneyStore(dbPath string, idGen id.Generator, clk clock.Clock) (*SQLiteJourneyStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &SQLiteJourneyStore{db: db, idGen: idGen, clock: clk}
	if err := store.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteJourneyStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS journeys (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  title TEXT NOT NULL,
  current_step INTEGER NOT NULL,
  is_completed INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_journeys_owner_created ON journeys(owner_id, created_at DESC);

CREATE TABLE IF NOT EXISTS journey_steps (
  journey_id TEXT NOT NULL REFERENCES journeys(id) ON DELETE CASCADE,
  step_number INTEGER NOT NULL,
  step_key TEXT NOT NULL,
  prompt_text TEXT NOT NULL,
  user_response TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  PRIMARY KEY (journey_id, step_number)
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create journey tables: %w", err)
	}
	return nil
}

func (s *SQLiteJourneyStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteJourneyStore) Save(ctx context.Context, ownerID string, entry domain.JournalEntry, step int, title string) (string, error) {
	if ownerID == "" {
		return "", apperrors.ErrUnauthenticated
	}
	if title == "" {
		return "", fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}

	journeyID := s.idGen.New()
	now := s.clock.Now().Format(timeLayout)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO journeys (id, owner_id, title, current_step, is_completed, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			journeyID, ownerID, title, step, boolInt(entry.Completed), now, now,
		)
		if err != nil {
			return fmt.Errorf("%w: insert journey: %v", apperrors.ErrTransport, err)
		}
		return s.insertSteps(ctx, tx, journeyID, entry, now)
	})
	if err != nil {
		return "", err
	}
	return journeyID, nil
}

func (s *SQLiteJourneyStore) Update(ctx context.Context, ownerID, journeyID string, entry domain.JournalEntry, step int, title string) error {
	if ownerID == "" {
		return apperrors.ErrUnauthenticated
	}
	if title == "" {
		return fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	now := s.clock.Now().Format(timeLayout)

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE journeys SET title = ?, current_step = ?, is_completed = ?, updated_at = ?
			 WHERE id = ? AND owner_id = ?`,
			title, step, boolInt(entry.Completed), now, journeyID, ownerID,
		)
		if err != nil {
			return fmt.Errorf("%w: update journey: %v", apperrors.ErrTransport, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: update journey: %v", apperrors.ErrTransport, err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: journey %s", apperrors.ErrNotFound, journeyID)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM journey_steps WHERE journey_id = ?`, journeyID); err != nil {
			return fmt.Errorf("%w: clear journey steps: %v", apperrors.ErrTransport, err)
		}
		return s.insertSteps(ctx, tx, journeyID, entry, now)
	})
}

// insertSteps writes one row per answered step, carrying a denormalized copy
// of the prompt. An unknown response key aborts the transaction.
func (s *SQLiteJourneyStore) insertSteps(ctx context.Context, tx *sql.Tx, journeyID string, entry domain.JournalEntry, now string) error {
	for _, step := range catalog.Steps() {
		if step.Key == "" {
			continue
		}
		response, ok := entry.Responses[step.Key]
		if !ok {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO journey_steps (journey_id, step_number, step_key, prompt_text, user_response, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			journeyID, step.Index, string(step.Key), step.Prompt, response, now, now,
		)
		if err != nil {
			return fmt.Errorf("%w: insert journey step %s: %v", apperrors.ErrTransport, step.Key, err)
		}
	}
	for key := range entry.Responses {
		if !key.Valid() {
			return fmt.Errorf("%w: unknown step key %q", apperrors.ErrValidation, key)
		}
	}
	return nil
}

func (s *SQLiteJourneyStore) List(ctx context.Context, ownerID string) ([]domain.JourneySummary, error) {
	if ownerID == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, current_step, is_completed, created_at, updated_at
		 FROM journeys WHERE owner_id = ? ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list journeys: %v", apperrors.ErrTransport, err)
	}
	defer rows.Close()

	out := []domain.JourneySummary{}
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list journeys: %v", apperrors.ErrTransport, err)
	}
	return out, nil
}

func (s *SQLiteJourneyStore) Fetch(ctx context.Context, ownerID, journeyID string) (domain.JourneyRecord, error) {
	if ownerID == "" {
		return domain.JourneyRecord{}, apperrors.ErrUnauthenticated
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, current_step, is_completed, created_at, updated_at
		 FROM journeys WHERE id = ? AND owner_id = ?`,
		journeyID, ownerID,
	)
	summary, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.JourneyRecord{}, fmt.Errorf("%w: journey %s", apperrors.ErrNotFound, journeyID)
	}
	if err != nil {
		return domain.JourneyRecord{}, err
	}

	entry := domain.JournalEntry{
		ID:        summary.ID,
		CreatedAt: summary.CreatedAt,
		Completed: summary.IsCompleted,
		Responses: map[catalog.StepKey]string{},
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT step_key, user_response FROM journey_steps WHERE journey_id = ? ORDER BY step_number`,
		journeyID,
	)
	if err != nil {
		return domain.JourneyRecord{}, fmt.Errorf("%w: fetch journey steps: %v", apperrors.ErrTransport, err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, response string
		if err := rows.Scan(&key, &response); err != nil {
			return domain.JourneyRecord{}, fmt.Errorf("%w: scan journey step: %v", apperrors.ErrTransport, err)
		}
		entry.Responses[catalog.StepKey(key)] = response
	}
	if err := rows.Err(); err != nil {
		return domain.JourneyRecord{}, fmt.Errorf("%w: fetch journey steps: %v", apperrors.ErrTransport, err)
	}

	return domain.JourneyRecord{JourneySummary: summary, OwnerID: ownerID, Entry: entry}, nil
}

// Delete is idempotent: removing a journey that is already gone succeeds.
// Step rows go with the header via the cascade.
func (s *SQLiteJourneyStore) Delete(ctx context.Context, ownerID, journeyID string) error {
	if ownerID == "" {
		return apperrors.ErrUnauthenticated
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM journeys WHERE id = ? AND owner_id = ?`, journeyID, ownerID); err != nil {
		return fmt.Errorf("%w: delete journey: %v", apperrors.ErrTransport, err)
	}
	return nil
}

func (s *SQLiteJourneyStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", apperrors.ErrTransport, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx: %v", apperrors.ErrTransport, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (domain.JourneySummary, error) {
	var (
		summary            domain.JourneySummary
		completed          int
		createdAt, updated string
	)
	if err := row.Scan(&summary.ID, &summary.Title, &summary.CurrentStep, &completed, &createdAt, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.JourneySummary{}, err
		}
		return domain.JourneySummary{}, fmt.Errorf("%w: scan journey: %v", apperrors.ErrTransport, err)
	}
	summary.IsCompleted = completed != 0
	summary.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	summary.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return summary, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ journeyout.JourneyStore = (*SQLiteJourneyStore)(nil)
