package domain_test

import (
	"errors"
	"testing"
	"time"

	catalog "pathway/internal/modules/catalog/domain"
	"pathway/internal/modules/journey/domain"
	apperrors "pathway/internal/platform/errors"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func TestNewStateStartsAtLandingDirtyAndAnonymous(t *testing.T) {
	t.Parallel()
	s := domain.NewState("e-1", t0)
	if s.CurrentStep != catalog.LandingIndex {
		t.Fatalf("expected landing step, got %d", s.CurrentStep)
	}
	if s.IsSaved() || !s.IsDirty() || !s.IsAnonymous {
		t.Fatalf("fresh state flags wrong: saved=%t dirty=%t anon=%t", s.IsSaved(), s.IsDirty(), s.IsAnonymous)
	}
	if s.CurrentEntry.ID != "e-1" || s.CurrentEntry.Completed {
		t.Fatalf("fresh entry wrong: %+v", s.CurrentEntry)
	}
	if !s.Audio.Enabled || s.Audio.Volume != 70 {
		t.Fatalf("default audio prefs wrong: %+v", s.Audio)
	}
}

func TestStepNavigationClampsAndFloors(t *testing.T) {
	t.Parallel()
	s := domain.NewState("e-1", t0)

	s.SetStep(42)
	if s.CurrentStep != catalog.SummaryIndex {
		t.Fatalf("expected clamp to summary, got %d", s.CurrentStep)
	}
	s.SetStep(-7)
	if s.CurrentStep != catalog.LandingIndex {
		t.Fatalf("expected clamp to landing, got %d", s.CurrentStep)
	}

	s.SetStep(0)
	s.PrevStep()
	if s.CurrentStep != catalog.FirstIndex {
		t.Fatalf("prev from step 0 must not return to landing, got %d", s.CurrentStep)
	}
	s.NextStep()
	s.NextStep()
	if s.CurrentStep != 2 {
		t.Fatalf("expected step 2, got %d", s.CurrentStep)
	}
	s.PrevStep()
	if s.CurrentStep != 1 {
		t.Fatalf("expected step 1, got %d", s.CurrentStep)
	}
	s.SetStep(catalog.SummaryIndex)
	s.NextStep()
	if s.CurrentStep != catalog.SummaryIndex {
		t.Fatalf("next past summary must stay, got %d", s.CurrentStep)
	}
}

func TestUpdateResponseOverwritesAndIsIdempotent(t *testing.T) {
	t.Parallel()
	s := domain.NewState("e-1", t0)
	if err := s.UpdateResponse(catalog.KeyThoughts, "first"); err != nil {
		t.Fatalf("update response: %v", err)
	}
	if err := s.UpdateResponse(catalog.KeyThoughts, "second"); err != nil {
		t.Fatalf("overwrite response: %v", err)
	}
	if got := s.CurrentEntry.Responses[catalog.KeyThoughts]; got != "second" {
		t.Fatalf("expected overwrite, got %q", got)
	}

	// Repeating the identical write changes nothing and dirty stays set.
	if err := s.UpdateResponse(catalog.KeyThoughts, "second"); err != nil {
		t.Fatalf("repeat response: %v", err)
	}
	if got := s.CurrentEntry.Responses[catalog.KeyThoughts]; got != "second" {
		t.Fatalf("idempotent write changed value to %q", got)
	}
	if !s.IsDirty() {
		t.Fatalf("dirty must remain set after repeated write")
	}
	if len(s.CurrentEntry.Responses) != 1 {
		t.Fatalf("expected one response key, got %d", len(s.CurrentEntry.Responses))
	}

	if err := s.UpdateResponse("summit", "x"); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("unknown key must fail validation, got %v", err)
	}
}

func TestCompleteEntryAppendsHistoryOnce(t *testing.T) {
	t.Parallel()
	s := domain.NewState("e-1", t0)
	_ = s.UpdateResponse(catalog.KeyPrayer, "amen")
	s.SetStep(8)

	s.CompleteEntry()
	if !s.CurrentEntry.Completed {
		t.Fatalf("entry must be completed")
	}
	if s.CurrentStep != 8 {
		t.Fatalf("completion must not move the step, got %d", s.CurrentStep)
	}
	s.CompleteEntry()
	if len(s.Entries) != 1 {
		t.Fatalf("double completion must not duplicate history, got %d rows", len(s.Entries))
	}

	// History rows are copies, not aliases.
	_ = s.UpdateResponse(catalog.KeyPrayer, "changed")
	if s.Entries[0].Responses[catalog.KeyPrayer] != "amen" {
		t.Fatalf("history row aliased the live entry")
	}
}

func TestSavePhaseFlagDiscipline(t *testing.T) {
	t.Parallel()
	s := domain.NewState("e-1", t0)
	if err := s.BeginSave(); err != nil {
		t.Fatalf("begin save: %v", err)
	}
	if err := s.BeginSave(); !errors.Is(err, apperrors.ErrSaveInFlight) {
		t.Fatalf("second begin must report in-flight, got %v", err)
	}

	// Failure leaves flags untouched.
	s.MarkSaveFailed()
	if s.IsSaved() || !s.IsDirty() {
		t.Fatalf("failed save flipped flags: saved=%t dirty=%t", s.IsSaved(), s.IsDirty())
	}
	if s.Phase != domain.PhaseFailed {
		t.Fatalf("expected failed phase, got %s", s.Phase)
	}

	if err := s.BeginSave(); err != nil {
		t.Fatalf("retry begin save: %v", err)
	}
	s.MarkSaved("jrn-1", "Morning climb")
	if !s.IsSaved() || s.IsDirty() {
		t.Fatalf("confirmed save flags wrong: saved=%t dirty=%t", s.IsSaved(), s.IsDirty())
	}
	if s.SavedJourneyID != "jrn-1" || s.SavedJourneyTitle != "Morning climb" {
		t.Fatalf("save linkage wrong: %q %q", s.SavedJourneyID, s.SavedJourneyTitle)
	}

	// Empty title on a later update retains the known one.
	_ = s.UpdateResponse(catalog.KeyDesire, "quiet")
	if !s.IsDirty() {
		t.Fatalf("edit after save must dirty the state")
	}
	_ = s.BeginSave()
	s.MarkSaved("jrn-1", "")
	if s.SavedJourneyTitle != "Morning climb" {
		t.Fatalf("empty title must retain prior, got %q", s.SavedJourneyTitle)
	}
}

func TestRestoreIsAtomicAndClamps(t *testing.T) {
	t.Parallel()
	s := domain.NewState("e-1", t0)
	_ = s.UpdateResponse(catalog.KeyReflect, "draft text")

	loaded := domain.NewEntry("e-2", t0.Add(time.Hour))
	loaded.Responses[catalog.KeyEmotions] = "calm"

	s.Restore(loaded, 4, "jrn-9", "Evening walk")
	if s.CurrentEntry.ID != "e-2" || s.CurrentStep != 4 {
		t.Fatalf("restore did not replace entry/step: %s %d", s.CurrentEntry.ID, s.CurrentStep)
	}
	if !s.IsSaved() || s.IsDirty() {
		t.Fatalf("restore flags wrong: saved=%t dirty=%t", s.IsSaved(), s.IsDirty())
	}
	if s.SavedJourneyID != "jrn-9" || s.SavedJourneyTitle != "Evening walk" {
		t.Fatalf("restore linkage wrong: %q %q", s.SavedJourneyID, s.SavedJourneyTitle)
	}
	if _, ok := s.CurrentEntry.Responses[catalog.KeyReflect]; ok {
		t.Fatalf("restore must replace the entry wholesale")
	}

	// The restored entry is copied, not shared.
	loaded.Responses[catalog.KeyEmotions] = "mutated"
	if s.CurrentEntry.Responses[catalog.KeyEmotions] != "calm" {
		t.Fatalf("restored entry aliased the input")
	}

	s.Restore(loaded, 99, "jrn-9", "Evening walk")
	if s.CurrentStep != catalog.SummaryIndex {
		t.Fatalf("restore must clamp step, got %d", s.CurrentStep)
	}
}

func TestResetJourneySeversRemoteLinkage(t *testing.T) {
	t.Parallel()
	s := domain.NewState("e-1", t0)
	s.Restore(domain.NewEntry("e-2", t0), 3, "jrn-1", "Saved walk")

	s.ResetJourney("e-3", t0.Add(2*time.Hour))
	if s.CurrentStep != catalog.LandingIndex {
		t.Fatalf("reset must return to landing, got %d", s.CurrentStep)
	}
	if s.IsSaved() || !s.IsDirty() {
		t.Fatalf("reset flags wrong: saved=%t dirty=%t", s.IsSaved(), s.IsDirty())
	}
	if s.SavedJourneyID != "" || s.SavedJourneyTitle != "" {
		t.Fatalf("reset must clear linkage: %q %q", s.SavedJourneyID, s.SavedJourneyTitle)
	}
	if s.CurrentEntry.ID != "e-3" || len(s.CurrentEntry.Responses) != 0 {
		t.Fatalf("reset entry wrong: %+v", s.CurrentEntry)
	}
}

func TestClearLocalProgressPreservesAudioPrefs(t *testing.T) {
	t.Parallel()
	s := domain.NewState("e-1", t0)
	_ = s.UpdateResponse(catalog.KeyThoughts, "private draft")
	s.CompleteEntry()
	s.Audio = domain.AudioPrefs{Enabled: false, Volume: 15}

	s.ClearLocalProgress("e-2", t0.Add(time.Hour))
	if len(s.Entries) != 0 || len(s.CurrentEntry.Responses) != 0 {
		t.Fatalf("clear must drop drafts and history")
	}
	if s.Audio.Enabled || s.Audio.Volume != 15 {
		t.Fatalf("audio prefs must survive sign-out: %+v", s.Audio)
	}
	if s.CurrentStep != catalog.LandingIndex || s.IsSaved() {
		t.Fatalf("clear end state wrong: step=%d saved=%t", s.CurrentStep, s.IsSaved())
	}
}
