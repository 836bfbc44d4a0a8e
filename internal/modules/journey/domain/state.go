package domain

import (
	"fmt"
	"strings"
	"time"

	catalog "pathway/internal/modules/catalog/domain"
	apperrors "pathway/internal/platform/errors"
)

// SavePhase is the remote-save state machine node. IsSaved and IsDirty are
// derived from the phase and the pending-edit flag rather than kept as
// independent booleans, so they cannot drift from the actual network outcome.
type SavePhase string

const (
	PhaseIdle   SavePhase = "idle"
	PhaseSaving SavePhase = "saving"
	PhaseSaved  SavePhase = "saved"
	PhaseFailed SavePhase = "failed"
)

// MaxTitleLen bounds journey titles, checked before any store call.
const MaxTitleLen = 120

// State is the single authoritative in-memory representation of where the
// user is on the pathway and what they have written. All transitions are
// synchronous mutations; remote outcomes are reported back via BeginSave,
// MarkSaved and MarkSaveFailed only after they are known.
type State struct {
	CurrentStep       int
	CurrentEntry      JournalEntry
	Entries           []JournalEntry
	Phase             SavePhase
	PendingEdits      bool
	SavedJourneyID    string
	SavedJourneyTitle string
	IsAnonymous       bool
	Audio             AudioPrefs
}

// AudioPrefs survive sign-out and journey resets.
type AudioPrefs struct {
	Enabled bool `json:"enabled"`
	Volume  int  `json:"volume"`
}

func DefaultAudioPrefs() AudioPrefs {
	return AudioPrefs{Enabled: true, Volume: 70}
}

// NewState returns the landing state with a fresh entry.
func NewState(entryID string, now time.Time) State {
	return State{
		CurrentStep:  catalog.LandingIndex,
		CurrentEntry: NewEntry(entryID, now),
		Phase:        PhaseIdle,
		PendingEdits: true,
		IsAnonymous:  true,
		Audio:        DefaultAudioPrefs(),
	}
}

// IsSaved reports whether the current entry corresponds to a known remote
// record.
func (s *State) IsSaved() bool {
	return s.SavedJourneyID != ""
}

// IsDirty reports whether local edits exist that the last successful remote
// save does not reflect.
func (s *State) IsDirty() bool {
	return s.PendingEdits
}

// SetStep moves to an arbitrary position, clamping into [-1, 9]. The source
// app left this unvalidated and healed bad values with a separate observer;
// clamping here makes the operation total instead.
func (s *State) SetStep(n int) {
	s.CurrentStep = clampStep(n)
}

func clampStep(n int) int {
	if n < catalog.LandingIndex {
		return catalog.LandingIndex
	}
	if n > catalog.SummaryIndex {
		return catalog.SummaryIndex
	}
	return n
}

// NextStep advances one position, stopping at the summary.
func (s *State) NextStep() {
	s.SetStep(s.CurrentStep + 1)
}

// PrevStep goes back one position but floors at the first step: once walking,
// the user does not return to the landing screen.
func (s *State) PrevStep() {
	if s.CurrentStep <= catalog.FirstIndex {
		s.CurrentStep = catalog.FirstIndex
		return
	}
	s.CurrentStep--
}

// UpdateResponse overwrites the response for a step key and marks the state
// dirty. Repeating the same key/value is harmless.
func (s *State) UpdateResponse(key catalog.StepKey, text string) error {
	if !key.Valid() {
		return fmt.Errorf("%w: unknown step key %q", apperrors.ErrValidation, key)
	}
	if s.CurrentEntry.Responses == nil {
		s.CurrentEntry.Responses = map[catalog.StepKey]string{}
	}
	s.CurrentEntry.Responses[key] = text
	s.PendingEdits = true
	return nil
}

// CompleteEntry marks the current entry completed and appends a copy to the
// local history. Completing twice does not duplicate the history row. The
// current step is left alone; navigation to the summary is the caller's move.
func (s *State) CompleteEntry() {
	if s.CurrentEntry.Completed {
		return
	}
	s.CurrentEntry.Completed = true
	s.PendingEdits = true
	s.Entries = append(s.Entries, s.CurrentEntry.Clone())
}

// ResetJourney replaces the current entry with a fresh one and severs the
// link to any remote record. The source kept startNewJourney and resetJourney
// as two identically-behaved operations; they are collapsed here.
func (s *State) ResetJourney(entryID string, now time.Time) {
	s.CurrentEntry = NewEntry(entryID, now)
	s.CurrentStep = catalog.LandingIndex
	s.Phase = PhaseIdle
	s.PendingEdits = true
	s.SavedJourneyID = ""
	s.SavedJourneyTitle = ""
}

// BeginSave enters the Saving phase. At most one save is in flight.
func (s *State) BeginSave() error {
	if s.Phase == PhaseSaving {
		return apperrors.ErrSaveInFlight
	}
	s.Phase = PhaseSaving
	return nil
}

// MarkSaved records a confirmed successful remote write. An empty title keeps
// the previously known one.
func (s *State) MarkSaved(id, title string) {
	s.Phase = PhaseSaved
	s.SavedJourneyID = id
	if strings.TrimSpace(title) != "" {
		s.SavedJourneyTitle = title
	}
	s.PendingEdits = false
}

// MarkSaveFailed leaves the save/dirty flags exactly as they were; only the
// phase records the failure so the UI can offer a retry.
func (s *State) MarkSaveFailed() {
	s.Phase = PhaseFailed
}

// Restore atomically replaces the current entry and position with a journey
// loaded from the remote store. No intermediate state is observable: the
// receiver is only assigned once the replacement value is fully built.
func (s *State) Restore(entry JournalEntry, step int, id, title string) {
	next := *s
	next.CurrentEntry = entry.Clone()
	next.CurrentStep = clampStep(step)
	next.Phase = PhaseSaved
	next.PendingEdits = false
	next.SavedJourneyID = id
	next.SavedJourneyTitle = title
	*s = next
}

// ClearLocalProgress wipes draft text, history and save linkage on sign-out
// so a shared device does not leak a prior user's writing. Audio preferences
// survive.
func (s *State) ClearLocalProgress(entryID string, now time.Time) {
	audio := s.Audio
	*s = NewState(entryID, now)
	s.Audio = audio
}
