package out

import (
	"context"

	"pathway/internal/modules/journey/domain"
)

// SnapshotStore persists the local journey snapshot. Load reports ok=false
// when no snapshot exists yet; Clear removes the document entirely so a
// sign-out leaves nothing behind.
type SnapshotStore interface {
	Save(ctx context.Context, snap domain.Snapshot) error
	Load(ctx context.Context) (domain.Snapshot, bool, error)
	Clear(ctx context.Context) error
}

// JourneyStore is the durable per-user journey storage contract. Update
// replaces all step rows for the id; a partial write never leaves an orphan
// header visible. Delete is idempotent and cascades to step rows.
type JourneyStore interface {
	Save(ctx context.Context, ownerID string, entry domain.JournalEntry, step int, title string) (string, error)
	Update(ctx context.Context, ownerID, id string, entry domain.JournalEntry, step int, title string) error
	List(ctx context.Context, ownerID string) ([]domain.JourneySummary, error)
	Fetch(ctx context.Context, ownerID, id string) (domain.JourneyRecord, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// Exporter renders a journey to a local artifact and returns its path.
type Exporter interface {
	Export(ctx context.Context, entry domain.JournalEntry, title string) (string, error)
}
