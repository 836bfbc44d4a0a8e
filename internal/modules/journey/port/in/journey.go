package in

import (
	"context"

	"pathway/internal/modules/journey/dto"
)

type Usecase interface {
	Current(ctx context.Context) (dto.CurrentOutput, error)
	Begin(ctx context.Context) (dto.CurrentOutput, error)
	Respond(ctx context.Context, input dto.RespondInput) (dto.CurrentOutput, error)
	Advance(ctx context.Context) (dto.CurrentOutput, error)
	Back(ctx context.Context) (dto.CurrentOutput, error)
	GoTo(ctx context.Context, step int) (dto.CurrentOutput, error)
	Complete(ctx context.Context) (dto.CurrentOutput, error)
	Reset(ctx context.Context) (dto.CurrentOutput, error)
	SetAudio(ctx context.Context, input dto.AudioInput) (dto.CurrentOutput, error)

	SaveJourney(ctx context.Context, input dto.SaveInput) (dto.SaveOutput, error)
	ListJourneys(ctx context.Context) ([]dto.JourneySummaryOutput, error)
	RestoreJourney(ctx context.Context, id string) (dto.RestoreOutput, error)
	DeleteJourney(ctx context.Context, id string) error
	ExportJourney(ctx context.Context) (dto.ExportOutput, error)

	// ClearLocal wipes the in-memory state and removes the persisted
	// snapshot. Audio preferences survive. Called on sign-out.
	ClearLocal(ctx context.Context) error
}
