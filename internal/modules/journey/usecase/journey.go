package usecase

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	authin "pathway/internal/modules/auth/port/in"
	catalog "pathway/internal/modules/catalog/domain"
	"pathway/internal/modules/journey/domain"
	"pathway/internal/modules/journey/dto"
	journeyin "pathway/internal/modules/journey/port/in"
	journeyout "pathway/internal/modules/journey/port/out"
	"pathway/internal/modules/journey/service"
	apperrors "pathway/internal/platform/errors"
)

// Interactor owns the single journey state for the process. Every mutation
// mirrors the persisted subset to the snapshot store; snapshot write failures
// are logged and never fail the user action. Remote outcomes flip the save
// flags only once they are known.
type Interactor struct {
	svc         *service.JourneyService
	snapshots   journeyout.SnapshotStore
	store       journeyout.JourneyStore
	exporter    journeyout.Exporter
	auth        authin.Usecase
	saveTimeout time.Duration

	mu    sync.Mutex
	state domain.State
}

// NewInteractor loads the persisted snapshot (self-healing invalid values) or
// starts fresh when none exists.
func NewInteractor(ctx context.Context, svc *service.JourneyService, snapshots journeyout.SnapshotStore, store journeyout.JourneyStore, exporter journeyout.Exporter, auth authin.Usecase, saveTimeout time.Duration) (journeyin.Usecase, error) {
	if saveTimeout <= 0 {
		saveTimeout = 30 * time.Second
	}
	i := &Interactor{
		svc:         svc,
		snapshots:   snapshots,
		store:       store,
		exporter:    exporter,
		auth:        auth,
		saveTimeout: saveTimeout,
	}

	snap, ok, err := snapshots.Load(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		i.state = snap.ToState()
	} else {
		i.state = svc.FreshState()
	}
	return i, nil
}

func (i *Interactor) Current(ctx context.Context) (dto.CurrentOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.refreshAnonymous(ctx)
	return i.currentLocked(), nil
}

func (i *Interactor) Begin(ctx context.Context) (dto.CurrentOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state.CurrentStep == catalog.LandingIndex {
		i.state.SetStep(catalog.FirstIndex)
		i.persistLocked(ctx)
	}
	return i.currentLocked(), nil
}

// Respond records text for a step. An empty key targets the current step.
func (i *Interactor) Respond(ctx context.Context, input dto.RespondInput) (dto.CurrentOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	key := catalog.StepKey(input.Key)
	if key == "" {
		step, ok := catalog.ByIndex(i.state.CurrentStep)
		if !ok || step.Key == "" {
			return dto.CurrentOutput{}, fmt.Errorf("%w: the current step takes no response", apperrors.ErrValidation)
		}
		key = step.Key
	}
	if err := i.state.UpdateResponse(key, input.Text); err != nil {
		return dto.CurrentOutput{}, err
	}
	i.persistLocked(ctx)
	return i.currentLocked(), nil
}

func (i *Interactor) Advance(ctx context.Context) (dto.CurrentOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state.NextStep()
	i.persistLocked(ctx)
	return i.currentLocked(), nil
}

func (i *Interactor) Back(ctx context.Context) (dto.CurrentOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state.PrevStep()
	i.persistLocked(ctx)
	return i.currentLocked(), nil
}

func (i *Interactor) GoTo(ctx context.Context, step int) (dto.CurrentOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state.SetStep(step)
	i.persistLocked(ctx)
	return i.currentLocked(), nil
}

func (i *Interactor) Complete(ctx context.Context) (dto.CurrentOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state.CompleteEntry()
	i.state.SetStep(catalog.SummaryIndex)
	i.persistLocked(ctx)
	return i.currentLocked(), nil
}

func (i *Interactor) Reset(ctx context.Context) (dto.CurrentOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	entryID, _ := i.svc.FreshEntry()
	i.state.ResetJourney(entryID, i.svc.Now())
	i.persistLocked(ctx)
	return i.currentLocked(), nil
}

func (i *Interactor) SetAudio(ctx context.Context, input dto.AudioInput) (dto.CurrentOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	volume := input.Volume
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	i.state.Audio = domain.AudioPrefs{Enabled: input.Enabled, Volume: volume}
	i.persistLocked(ctx)
	return i.currentLocked(), nil
}

// SaveJourney pushes the current entry to the remote store. The title is
// validated before any network traffic; the store call is bounded by the
// configured timeout; flags transition Saving -> Saved only on confirmed
// success and Saving -> Failed otherwise, with save/dirty left untouched.
func (i *Interactor) SaveJourney(ctx context.Context, input dto.SaveInput) (dto.SaveOutput, error) {
	title, err := i.svc.ValidateTitle(input.Title)
	if err != nil {
		return dto.SaveOutput{}, err
	}
	ownerID, err := i.ownerID(ctx)
	if err != nil {
		return dto.SaveOutput{}, err
	}

	i.mu.Lock()
	if err := i.state.BeginSave(); err != nil {
		i.mu.Unlock()
		return dto.SaveOutput{}, err
	}
	entry := i.state.CurrentEntry.Clone()
	step := i.state.CurrentStep
	remoteID := i.state.SavedJourneyID
	i.persistLocked(ctx)
	i.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, i.saveTimeout)
	defer cancel()

	updated := remoteID != ""
	var saveErr error
	if updated {
		saveErr = i.store.Update(callCtx, ownerID, remoteID, entry, step, title)
	} else {
		remoteID, saveErr = i.store.Save(callCtx, ownerID, entry, step, title)
	}
	if callCtx.Err() != nil && saveErr != nil {
		saveErr = fmt.Errorf("%w: save timed out: %v", apperrors.ErrTransport, saveErr)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if saveErr != nil {
		i.state.MarkSaveFailed()
		i.persistLocked(ctx)
		return dto.SaveOutput{}, saveErr
	}
	i.state.MarkSaved(remoteID, title)
	i.persistLocked(ctx)
	return dto.SaveOutput{JourneyID: remoteID, Title: title, Updated: updated}, nil
}

func (i *Interactor) ListJourneys(ctx context.Context) ([]dto.JourneySummaryOutput, error) {
	ownerID, err := i.ownerID(ctx)
	if err != nil {
		return nil, err
	}
	summaries, err := i.store.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.JourneySummaryOutput, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, dto.JourneySummaryOutput{
			ID:          s.ID,
			Title:       s.Title,
			CurrentStep: s.CurrentStep,
			IsCompleted: s.IsCompleted,
			CreatedAt:   s.CreatedAt,
			UpdatedAt:   s.UpdatedAt,
		})
	}
	return out, nil
}

func (i *Interactor) RestoreJourney(ctx context.Context, id string) (dto.RestoreOutput, error) {
	ownerID, err := i.ownerID(ctx)
	if err != nil {
		return dto.RestoreOutput{}, err
	}
	record, err := i.store.Fetch(ctx, ownerID, id)
	if err != nil {
		return dto.RestoreOutput{}, err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.state.Restore(record.Entry, record.CurrentStep, record.ID, record.Title)
	i.persistLocked(ctx)
	return dto.RestoreOutput{JourneyID: record.ID, Title: record.Title, Step: i.state.CurrentStep}, nil
}

func (i *Interactor) DeleteJourney(ctx context.Context, id string) error {
	ownerID, err := i.ownerID(ctx)
	if err != nil {
		return err
	}
	if err := i.store.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state.SavedJourneyID == id {
		// The record backing the current entry is gone; keep the draft
		// but sever the linkage so the next save creates a new record.
		i.state.SavedJourneyID = ""
		i.state.SavedJourneyTitle = ""
		i.state.Phase = domain.PhaseIdle
		i.state.PendingEdits = true
		i.persistLocked(ctx)
	}
	return nil
}

func (i *Interactor) ExportJourney(ctx context.Context) (dto.ExportOutput, error) {
	if i.exporter == nil {
		return dto.ExportOutput{}, fmt.Errorf("no exporter configured")
	}
	i.mu.Lock()
	entry := i.state.CurrentEntry.Clone()
	title := i.state.SavedJourneyTitle
	i.mu.Unlock()
	if title == "" {
		title = "Untitled journey"
	}
	path, err := i.exporter.Export(ctx, entry, title)
	if err != nil {
		return dto.ExportOutput{}, err
	}
	return dto.ExportOutput{Path: path}, nil
}

func (i *Interactor) ClearLocal(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	entryID, _ := i.svc.FreshEntry()
	i.state.ClearLocalProgress(entryID, i.svc.Now())
	return i.snapshots.Clear(ctx)
}

// ownerID resolves the signed-in user, refreshing the anonymous cache as a
// side effect.
func (i *Interactor) ownerID(ctx context.Context) (string, error) {
	if i.auth == nil {
		return "", apperrors.ErrUnauthenticated
	}
	session, ok, err := i.auth.CurrentSession(ctx)
	i.mu.Lock()
	i.state.IsAnonymous = err != nil || !ok
	i.mu.Unlock()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apperrors.ErrUnauthenticated
	}
	return session.UserID, nil
}

func (i *Interactor) refreshAnonymous(ctx context.Context) {
	if i.auth == nil {
		return
	}
	_, ok, err := i.auth.CurrentSession(ctx)
	i.state.IsAnonymous = err != nil || !ok
}

// persistLocked mirrors the state to the snapshot store. Callers hold i.mu.
// Failures are logged: losing one in-progress draft write is accepted, and a
// user action must never fail because the local mirror did.
func (i *Interactor) persistLocked(ctx context.Context) {
	if err := i.snapshots.Save(ctx, domain.SnapshotOf(i.state)); err != nil {
		log.Printf("journey: persist snapshot: %v", err)
	}
}

func (i *Interactor) currentLocked() dto.CurrentOutput {
	step, _ := catalog.ByIndex(i.state.CurrentStep)
	out := dto.CurrentOutput{
		EntryID:           i.state.CurrentEntry.ID,
		CreatedAt:         i.state.CurrentEntry.CreatedAt,
		Step:              i.state.CurrentStep,
		StepTitle:         step.Title,
		StepPrompt:        step.Prompt,
		StepKind:          string(step.Kind),
		StepKey:           string(step.Key),
		Completed:         i.state.CurrentEntry.Completed,
		Phase:             string(i.state.Phase),
		IsDirty:           i.state.IsDirty(),
		IsSaved:           i.state.IsSaved(),
		IsAnonymous:       i.state.IsAnonymous,
		SavedJourneyID:    i.state.SavedJourneyID,
		SavedJourneyTitle: i.state.SavedJourneyTitle,
		HistoryCount:      len(i.state.Entries),
		AudioEnabled:      i.state.Audio.Enabled,
		AudioVolume:       i.state.Audio.Volume,
		Responses:         map[string]string{},
	}
	if step.Key != "" {
		out.Response = i.state.CurrentEntry.Responses[step.Key]
	}
	for k, v := range i.state.CurrentEntry.Responses {
		out.Responses[string(k)] = v
	}
	return out
}
