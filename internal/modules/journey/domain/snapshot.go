package domain

import (
	"encoding/json"
	"fmt"

	catalog "pathway/internal/modules/catalog/domain"
)

// SnapshotVersion is the current schema of the persisted local snapshot.
// Version 1 predates remote saving and lacks the save/dirty bookkeeping.
const SnapshotVersion = 2

// MaxHistoryEntries caps the locally kept history on load. The source grew
// this list without bound; the cap keeps the oldest entries out once a device
// accumulates more completed journeys than anyone scrolls back through.
const MaxHistoryEntries = 100

// Snapshot is the persisted subset of State. Saved-journey fields are
// pointers so "never saved" round-trips as JSON null.
type Snapshot struct {
	Version           int            `json:"version"`
	CurrentStep       int            `json:"current_step"`
	CurrentEntry      JournalEntry   `json:"current_entry"`
	Entries           []JournalEntry `json:"entries"`
	IsAnonymous       bool           `json:"is_anonymous"`
	IsSaved           bool           `json:"is_saved"`
	SavedJourneyID    *string        `json:"saved_journey_id"`
	SavedJourneyTitle *string        `json:"saved_journey_title"`
	IsDirty           bool           `json:"is_dirty"`
	Audio             AudioPrefs     `json:"audio"`
}

// SnapshotOf captures the persisted subset of a state.
func SnapshotOf(s State) Snapshot {
	snap := Snapshot{
		Version:      SnapshotVersion,
		CurrentStep:  s.CurrentStep,
		CurrentEntry: s.CurrentEntry.Clone(),
		Entries:      make([]JournalEntry, 0, len(s.Entries)),
		IsAnonymous:  s.IsAnonymous,
		IsSaved:      s.IsSaved(),
		IsDirty:      s.IsDirty(),
		Audio:        s.Audio,
	}
	for _, e := range s.Entries {
		snap.Entries = append(snap.Entries, e.Clone())
	}
	if s.SavedJourneyID != "" {
		id := s.SavedJourneyID
		snap.SavedJourneyID = &id
	}
	if s.SavedJourneyTitle != "" {
		title := s.SavedJourneyTitle
		snap.SavedJourneyTitle = &title
	}
	return snap
}

// ToState rebuilds the in-memory state. An in-flight save never survives a
// restart, so the phase comes back as Saved or Idle.
func (snap Snapshot) ToState() State {
	s := State{
		CurrentStep:  clampStep(snap.CurrentStep),
		CurrentEntry: snap.CurrentEntry.Clone(),
		Phase:        PhaseIdle,
		PendingEdits: snap.IsDirty,
		IsAnonymous:  snap.IsAnonymous,
		Audio:        snap.Audio,
	}
	if s.CurrentEntry.Responses == nil {
		s.CurrentEntry.Responses = map[catalog.StepKey]string{}
	}
	for _, e := range snap.Entries {
		s.Entries = append(s.Entries, e.Clone())
	}
	if snap.SavedJourneyID != nil {
		s.SavedJourneyID = *snap.SavedJourneyID
	}
	if snap.SavedJourneyTitle != nil {
		s.SavedJourneyTitle = *snap.SavedJourneyTitle
	}
	if snap.IsSaved && s.SavedJourneyID != "" {
		s.Phase = PhaseSaved
	}
	return s
}

// DecodeSnapshot parses a raw persisted document, migrating older versions
// forward and self-healing invalid values. Migration only ever fills missing
// fields with defaults; nothing present in the document is dropped before the
// final decode.
func DecodeSnapshot(raw []byte) (Snapshot, error) {
	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := migrate(doc); err != nil {
		return Snapshot{}, err
	}
	setDefault(doc, "audio", map[string]any{"enabled": true, "volume": 70})

	migrated, err := json.Marshal(doc)
	if err != nil {
		return Snapshot{}, fmt.Errorf("re-encode snapshot: %w", err)
	}
	snap := Snapshot{}
	if err := json.Unmarshal(migrated, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode migrated snapshot: %w", err)
	}
	snap.normalize()
	return snap, nil
}

// migrate upgrades a raw document in place, one version at a time.
func migrate(doc map[string]any) error {
	version := docVersion(doc)
	for version < SnapshotVersion {
		switch version {
		case 1:
			migrateV1toV2(doc)
		default:
			return fmt.Errorf("unknown snapshot version %d", version)
		}
		version++
		doc["version"] = version
	}
	if version > SnapshotVersion {
		return fmt.Errorf("snapshot version %d is newer than supported %d", version, SnapshotVersion)
	}
	return nil
}

// migrateV1toV2 adds the remote-save bookkeeping introduced in v2. Existing
// fields are untouched.
func migrateV1toV2(doc map[string]any) {
	setDefault(doc, "is_anonymous", true)
	setDefault(doc, "is_saved", false)
	setDefault(doc, "saved_journey_id", nil)
	setDefault(doc, "saved_journey_title", nil)
	setDefault(doc, "is_dirty", false)
}

func setDefault(doc map[string]any, key string, value any) {
	if _, ok := doc[key]; !ok {
		doc[key] = value
	}
}

func docVersion(doc map[string]any) int {
	v, ok := doc["version"]
	if !ok {
		return 1
	}
	f, ok := v.(float64)
	if !ok || f < 1 {
		return 1
	}
	return int(f)
}

// normalize self-heals values a prior session may have persisted badly: an
// out-of-range step resets to the landing screen and the history is capped to
// its most recent entries.
func (snap *Snapshot) normalize() {
	if !catalog.InRange(snap.CurrentStep) {
		snap.CurrentStep = catalog.LandingIndex
	}
	if snap.IsSaved && snap.SavedJourneyID == nil {
		snap.IsSaved = false
	}
	if len(snap.Entries) > MaxHistoryEntries {
		snap.Entries = snap.Entries[len(snap.Entries)-MaxHistoryEntries:]
	}
}

// Encode serializes the snapshot for the local store.
func (snap Snapshot) Encode() ([]byte, error) {
	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return payload, nil
}
