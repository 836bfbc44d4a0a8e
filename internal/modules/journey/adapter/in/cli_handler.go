package in

import (
	"context"

	"pathway/internal/modules/journey/dto"
	journeyin "pathway/internal/modules/journey/port/in"
)

type CLIHandler struct {
	usecase journeyin.Usecase
}

func NewCLIHandler(usecase journeyin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Current(ctx context.Context) (dto.CurrentOutput, error) {
	return h.usecase.Current(ctx)
}

func (h CLIHandler) Begin(ctx context.Context) (dto.CurrentOutput, error) {
	return h.usecase.Begin(ctx)
}

func (h CLIHandler) Respond(ctx context.Context, key, text string) (dto.CurrentOutput, error) {
	return h.usecase.Respond(ctx, dto.RespondInput{Key: key, Text: text})
}

func (h CLIHandler) Advance(ctx context.Context) (dto.CurrentOutput, error) {
	return h.usecase.Advance(ctx)
}

func (h CLIHandler) Back(ctx context.Context) (dto.CurrentOutput, error) {
	return h.usecase.Back(ctx)
}

func (h CLIHandler) GoTo(ctx context.Context, step int) (dto.CurrentOutput, error) {
	return h.usecase.GoTo(ctx, step)
}

func (h CLIHandler) Complete(ctx context.Context) (dto.CurrentOutput, error) {
	return h.usecase.Complete(ctx)
}

func (h CLIHandler) Reset(ctx context.Context) (dto.CurrentOutput, error) {
	return h.usecase.Reset(ctx)
}

func (h CLIHandler) SetAudio(ctx context.Context, enabled bool, volume int) (dto.CurrentOutput, error) {
	return h.usecase.SetAudio(ctx, dto.AudioInput{Enabled: enabled, Volume: volume})
}

func (h CLIHandler) Save(ctx context.Context, title string) (dto.SaveOutput, error) {
	return h.usecase.SaveJourney(ctx, dto.SaveInput{Title: title})
}

func (h CLIHandler) List(ctx context.Context) ([]dto.JourneySummaryOutput, error) {
	return h.usecase.ListJourneys(ctx)
}

func (h CLIHandler) Restore(ctx context.Context, id string) (dto.RestoreOutput, error) {
	return h.usecase.RestoreJourney(ctx, id)
}

func (h CLIHandler) Delete(ctx context.Context, id string) error {
	return h.usecase.DeleteJourney(ctx, id)
}

func (h CLIHandler) Export(ctx context.Context) (dto.ExportOutput, error) {
	return h.usecase.ExportJourney(ctx)
}
