package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	authdto "pathway/internal/modules/auth/dto"
	catalog "pathway/internal/modules/catalog/domain"
	"pathway/internal/modules/journey/domain"
	"pathway/internal/modules/journey/dto"
	"pathway/internal/modules/journey/service"
	"pathway/internal/platform/clock"
	apperrors "pathway/internal/platform/errors"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type seqGenerator struct{ n int }

func (g *seqGenerator) New() string {
	g.n++
	return fmt.Sprintf("id-%03d", g.n)
}

type fakeSnapshots struct {
	snap    *domain.Snapshot
	saves   int
	clears  int
	saveErr error
}

func (f *fakeSnapshots) Save(_ context.Context, snap domain.Snapshot) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.snap = &snap
	return nil
}

func (f *fakeSnapshots) Load(_ context.Context) (domain.Snapshot, bool, error) {
	if f.snap == nil {
		return domain.Snapshot{}, false, nil
	}
	return *f.snap, true, nil
}

func (f *fakeSnapshots) Clear(_ context.Context) error {
	f.clears++
	f.snap = nil
	return nil
}

type fakeJourneyStore struct {
	records   map[string]domain.JourneyRecord
	saves     int
	updates   int
	saveErr   error
	updateErr error
	block     bool
}

func newFakeJourneyStore() *fakeJourneyStore {
	return &fakeJourneyStore{records: map[string]domain.JourneyRecord{}}
}

func (f *fakeJourneyStore) Save(ctx context.Context, ownerID string, entry domain.JournalEntry, step int, title string) (string, error) {
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.saves++
	id := fmt.Sprintf("remote-%03d", f.saves)
	f.records[id] = domain.JourneyRecord{
		JourneySummary: domain.JourneySummary{ID: id, Title: title, CurrentStep: step, IsCompleted: entry.Completed},
		OwnerID:        ownerID,
		Entry:          entry.Clone(),
	}
	return id, nil
}

func (f *fakeJourneyStore) Update(_ context.Context, ownerID, journeyID string, entry domain.JournalEntry, step int, title string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	record, ok := f.records[journeyID]
	if !ok || record.OwnerID != ownerID {
		return apperrors.ErrNotFound
	}
	f.updates++
	record.Title = title
	record.CurrentStep = step
	record.IsCompleted = entry.Completed
	record.Entry = entry.Clone()
	f.records[journeyID] = record
	return nil
}

func (f *fakeJourneyStore) List(_ context.Context, ownerID string) ([]domain.JourneySummary, error) {
	out := []domain.JourneySummary{}
	for _, r := range f.records {
		if r.OwnerID == ownerID {
			out = append(out, r.JourneySummary)
		}
	}
	return out, nil
}

func (f *fakeJourneyStore) Fetch(_ context.Context, ownerID, journeyID string) (domain.JourneyRecord, error) {
	record, ok := f.records[journeyID]
	if !ok || record.OwnerID != ownerID {
		return domain.JourneyRecord{}, apperrors.ErrNotFound
	}
	return record, nil
}

func (f *fakeJourneyStore) Delete(_ context.Context, ownerID, journeyID string) error {
	record, ok := f.records[journeyID]
	if ok && record.OwnerID == ownerID {
		delete(f.records, journeyID)
	}
	return nil
}

type fakeAuth struct {
	userID string
}

func (f *fakeAuth) CompleteSignIn(context.Context, string) (authdto.SessionOutput, error) {
	return authdto.SessionOutput{}, nil
}

func (f *fakeAuth) CompleteHashSignIn(context.Context, string, string) (authdto.SessionOutput, error) {
	return authdto.SessionOutput{}, nil
}

func (f *fakeAuth) CurrentSession(context.Context) (authdto.SessionOutput, bool, error) {
	if f.userID == "" {
		return authdto.SessionOutput{}, false, nil
	}
	return authdto.SessionOutput{UserID: f.userID}, true, nil
}

func (f *fakeAuth) ResolveCallback(context.Context, authdto.CallbackInput) (authdto.CallbackPlan, error) {
	return authdto.CallbackPlan{}, nil
}

func (f *fakeAuth) RedirectURL(context.Context, bool, string) (authdto.RedirectURLOutput, error) {
	return authdto.RedirectURLOutput{}, nil
}

func (f *fakeAuth) ResetPassword(context.Context, string, string) error { return nil }

func (f *fakeAuth) SignOut(context.Context) error { return nil }

type fakeExporter struct {
	lastTitle string
}

func (f *fakeExporter) Export(_ context.Context, _ domain.JournalEntry, title string) (string, error) {
	f.lastTitle = title
	return "/tmp/export.md", nil
}

type fixture struct {
	interactor *Interactor
	snapshots  *fakeSnapshots
	store      *fakeJourneyStore
	auth       *fakeAuth
	exporter   *fakeExporter
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	snapshots := &fakeSnapshots{}
	store := newFakeJourneyStore()
	auth := &fakeAuth{userID: "user-1"}
	exporter := &fakeExporter{}
	svc := service.NewJourneyService(clock.Fixed{At: t0}, &seqGenerator{})
	uc, err := NewInteractor(context.Background(), svc, snapshots, store, exporter, auth, time.Second)
	if err != nil {
		t.Fatalf("NewInteractor: %v", err)
	}
	return fixture{interactor: uc.(*Interactor), snapshots: snapshots, store: store, auth: auth, exporter: exporter}
}

func TestRespondDefaultsToCurrentStep(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.interactor.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	out, err := f.interactor.Respond(ctx, dto.RespondInput{Text: "First light."})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if out.Responses["reflect"] != "First light." {
		t.Fatalf("Responses = %v, want default key reflect", out.Responses)
	}

	// The reading step has no response key.
	if _, err := f.interactor.GoTo(ctx, 2); err != nil {
		t.Fatalf("GoTo: %v", err)
	}
	if _, err := f.interactor.Respond(ctx, dto.RespondInput{Text: "nope"}); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("Respond error = %v, want ErrValidation", err)
	}
}

func TestSaveJourneyCreatesThenUpdates(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.interactor.Respond(ctx, dto.RespondInput{Key: "reflect", Text: "First light."}); err != nil {
		t.Fatalf("Respond: %v", err)
	}

	out, err := f.interactor.SaveJourney(ctx, dto.SaveInput{Title: "Day one"})
	if err != nil {
		t.Fatalf("SaveJourney: %v", err)
	}
	if out.Updated {
		t.Fatal("first save reported an update")
	}
	if out.JourneyID == "" {
		t.Fatal("first save returned no journey id")
	}

	current, _ := f.interactor.Current(ctx)
	if !current.IsSaved || current.IsDirty {
		t.Fatalf("after save: IsSaved=%v IsDirty=%v, want saved and clean", current.IsSaved, current.IsDirty)
	}
	if current.Phase != string(domain.PhaseSaved) {
		t.Fatalf("Phase = %q, want %q", current.Phase, domain.PhaseSaved)
	}

	if _, err := f.interactor.Respond(ctx, dto.RespondInput{Key: "desire", Text: "Quiet."}); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	current, _ = f.interactor.Current(ctx)
	if !current.IsDirty {
		t.Fatal("editing after a save did not mark the draft dirty")
	}

	out2, err := f.interactor.SaveJourney(ctx, dto.SaveInput{Title: "Day one, revised"})
	if err != nil {
		t.Fatalf("second SaveJourney: %v", err)
	}
	if !out2.Updated || out2.JourneyID != out.JourneyID {
		t.Fatalf("second save = %+v, want update of %s", out2, out.JourneyID)
	}
	if f.store.saves != 1 || f.store.updates != 1 {
		t.Fatalf("store calls = %d saves, %d updates, want 1 and 1", f.store.saves, f.store.updates)
	}
}

func TestSaveJourneyValidatesTitleBeforeStore(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.interactor.SaveJourney(context.Background(), dto.SaveInput{Title: "   "})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("SaveJourney error = %v, want ErrValidation", err)
	}
	if f.store.saves != 0 {
		t.Fatal("invalid title still reached the store")
	}
}

func TestSaveJourneyRequiresSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.auth.userID = ""

	_, err := f.interactor.SaveJourney(context.Background(), dto.SaveInput{Title: "Anon"})
	if !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Fatalf("SaveJourney error = %v, want ErrUnauthenticated", err)
	}

	current, _ := f.interactor.Current(context.Background())
	if !current.IsAnonymous {
		t.Fatal("anonymous user not reflected in read model")
	}
}

func TestSaveJourneyFailureKeepsFlags(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.store.saveErr = fmt.Errorf("%w: connection refused", apperrors.ErrTransport)

	if _, err := f.interactor.Respond(ctx, dto.RespondInput{Key: "reflect", Text: "draft"}); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	_, err := f.interactor.SaveJourney(ctx, dto.SaveInput{Title: "Doomed"})
	if !errors.Is(err, apperrors.ErrTransport) {
		t.Fatalf("SaveJourney error = %v, want ErrTransport", err)
	}

	current, _ := f.interactor.Current(ctx)
	if current.Phase != string(domain.PhaseFailed) {
		t.Fatalf("Phase = %q, want %q", current.Phase, domain.PhaseFailed)
	}
	if current.IsSaved {
		t.Fatal("failed save marked the journey saved")
	}
	if !current.IsDirty {
		t.Fatal("failed save cleared the dirty flag")
	}
}

func TestSaveJourneyTimesOut(t *testing.T) {
	t.Parallel()
	snapshots := &fakeSnapshots{}
	store := newFakeJourneyStore()
	store.block = true
	svc := service.NewJourneyService(clock.Fixed{At: t0}, &seqGenerator{})
	uc, err := NewInteractor(context.Background(), svc, snapshots, store, nil, &fakeAuth{userID: "user-1"}, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewInteractor: %v", err)
	}

	_, err = uc.SaveJourney(context.Background(), dto.SaveInput{Title: "Slow"})
	if !errors.Is(err, apperrors.ErrTransport) {
		t.Fatalf("SaveJourney error = %v, want ErrTransport", err)
	}
	current, _ := uc.Current(context.Background())
	if current.Phase != string(domain.PhaseFailed) {
		t.Fatalf("Phase = %q, want %q", current.Phase, domain.PhaseFailed)
	}
}

func TestRestoreJourneyReplacesDraft(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.store.records["remote-777"] = domain.JourneyRecord{
		JourneySummary: domain.JourneySummary{ID: "remote-777", Title: "Yesterday", CurrentStep: 7},
		OwnerID:        "user-1",
		Entry: domain.JournalEntry{
			ID:        "entry-old",
			CreatedAt: t0.Add(-24 * time.Hour),
			Responses: map[catalog.StepKey]string{catalog.KeyThoughts: "Still circling."},
		},
	}

	out, err := f.interactor.RestoreJourney(ctx, "remote-777")
	if err != nil {
		t.Fatalf("RestoreJourney: %v", err)
	}
	if out.JourneyID != "remote-777" || out.Step != 7 {
		t.Fatalf("RestoreJourney = %+v", out)
	}

	current, _ := f.interactor.Current(ctx)
	if current.Step != 7 || current.SavedJourneyID != "remote-777" || current.SavedJourneyTitle != "Yesterday" {
		t.Fatalf("restored read model = %+v", current)
	}
	if current.Responses["thoughts"] != "Still circling." {
		t.Fatalf("restored responses = %v", current.Responses)
	}
	if !current.IsSaved || current.IsDirty {
		t.Fatalf("restored draft flags: IsSaved=%v IsDirty=%v", current.IsSaved, current.IsDirty)
	}
}

func TestRestoreJourneyNotFound(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.interactor.RestoreJourney(context.Background(), "missing")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("RestoreJourney error = %v, want ErrNotFound", err)
	}
}

func TestDeleteJourneySeversLinkage(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.interactor.SaveJourney(ctx, dto.SaveInput{Title: "Keep drafting"})
	if err != nil {
		t.Fatalf("SaveJourney: %v", err)
	}
	if err := f.interactor.DeleteJourney(ctx, out.JourneyID); err != nil {
		t.Fatalf("DeleteJourney: %v", err)
	}

	current, _ := f.interactor.Current(ctx)
	if current.IsSaved || current.SavedJourneyID != "" {
		t.Fatal("deleting the backing record left the draft linked to it")
	}
	if !current.IsDirty {
		t.Fatal("unlinked draft should need saving again")
	}
}

func TestDeleteJourneyLeavesOtherDraftsAlone(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.interactor.SaveJourney(ctx, dto.SaveInput{Title: "Current"})
	if err != nil {
		t.Fatalf("SaveJourney: %v", err)
	}
	f.store.records["remote-other"] = domain.JourneyRecord{
		JourneySummary: domain.JourneySummary{ID: "remote-other", Title: "Old"},
		OwnerID:        "user-1",
	}

	if err := f.interactor.DeleteJourney(ctx, "remote-other"); err != nil {
		t.Fatalf("DeleteJourney: %v", err)
	}
	current, _ := f.interactor.Current(ctx)
	if current.SavedJourneyID != out.JourneyID {
		t.Fatal("deleting an unrelated journey touched the current draft linkage")
	}
}

func TestMutationsMirrorSnapshot(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.interactor.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := f.interactor.Respond(ctx, dto.RespondInput{Key: "reflect", Text: "dawn"}); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if _, err := f.interactor.Advance(ctx); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	if f.snapshots.snap == nil {
		t.Fatal("mutations wrote no snapshot")
	}
	state := f.snapshots.snap.ToState()
	if state.CurrentStep != 1 {
		t.Fatalf("snapshot step = %d, want 1", state.CurrentStep)
	}
	if got := state.CurrentEntry.Responses[catalog.KeyReflect]; got != "dawn" {
		t.Fatalf("snapshot response = %q", got)
	}
}

func TestSnapshotWriteFailureDoesNotFailAction(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.snapshots.saveErr = errors.New("disk full")

	if _, err := f.interactor.Respond(context.Background(), dto.RespondInput{Key: "reflect", Text: "still works"}); err != nil {
		t.Fatalf("Respond failed on snapshot error: %v", err)
	}
}

func TestNewInteractorResumesFromSnapshot(t *testing.T) {
	t.Parallel()
	snapshots := &fakeSnapshots{}
	state := domain.NewState("entry-resume", t0)
	state.SetStep(5)
	if err := state.UpdateResponse(catalog.KeyDesire, "keep going"); err != nil {
		t.Fatalf("UpdateResponse: %v", err)
	}
	snap := domain.SnapshotOf(state)
	snapshots.snap = &snap

	svc := service.NewJourneyService(clock.Fixed{At: t0}, &seqGenerator{})
	uc, err := NewInteractor(context.Background(), svc, snapshots, newFakeJourneyStore(), nil, &fakeAuth{}, time.Second)
	if err != nil {
		t.Fatalf("NewInteractor: %v", err)
	}

	current, _ := uc.Current(context.Background())
	if current.Step != 5 || current.EntryID != "entry-resume" {
		t.Fatalf("resumed read model = step %d entry %s", current.Step, current.EntryID)
	}
	if current.Responses["desire"] != "keep going" {
		t.Fatalf("resumed responses = %v", current.Responses)
	}
}

func TestClearLocalStartsOverAndDropsSnapshot(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.interactor.GoTo(ctx, 6); err != nil {
		t.Fatalf("GoTo: %v", err)
	}
	if err := f.interactor.ClearLocal(ctx); err != nil {
		t.Fatalf("ClearLocal: %v", err)
	}
	if f.snapshots.clears != 1 {
		t.Fatalf("snapshot Clear called %d times, want 1", f.snapshots.clears)
	}

	current, _ := f.interactor.Current(ctx)
	if current.Step != catalog.LandingIndex {
		t.Fatalf("Step after ClearLocal = %d, want landing", current.Step)
	}
	if current.HistoryCount != 0 || current.SavedJourneyID != "" {
		t.Fatal("ClearLocal kept history or remote linkage")
	}
}

func TestExportJourneyDefaultsTitle(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	out, err := f.interactor.ExportJourney(context.Background())
	if err != nil {
		t.Fatalf("ExportJourney: %v", err)
	}
	if out.Path != "/tmp/export.md" {
		t.Fatalf("Path = %q", out.Path)
	}
	if f.exporter.lastTitle != "Untitled journey" {
		t.Fatalf("export title = %q, want the default", f.exporter.lastTitle)
	}
}

func TestCompleteRecordsHistoryAndJumpsToSummary(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.interactor.Respond(ctx, dto.RespondInput{Key: "prayer", Text: "amen"}); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	current, err := f.interactor.Complete(ctx)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if current.Step != catalog.SummaryIndex {
		t.Fatalf("Step = %d, want summary", current.Step)
	}
	if !current.Completed || current.HistoryCount != 1 {
		t.Fatalf("Completed=%v HistoryCount=%d", current.Completed, current.HistoryCount)
	}
}
