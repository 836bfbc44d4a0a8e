package dto

import "time"

type RespondInput struct {
	Key  string
	Text string
}

type SaveInput struct {
	Title string
}

type SaveOutput struct {
	JourneyID string
	Title     string
	Updated   bool
}

type JourneySummaryOutput struct {
	ID          string
	Title       string
	CurrentStep int
	IsCompleted bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type RestoreOutput struct {
	JourneyID string
	Title     string
	Step      int
}

type ExportOutput struct {
	Path string
}

type AudioInput struct {
	Enabled bool
	Volume  int
}

// CurrentOutput is the read model UIs render a screen from.
type CurrentOutput struct {
	EntryID           string
	CreatedAt         time.Time
	Step              int
	StepTitle         string
	StepPrompt        string
	StepKind          string
	StepKey           string
	Response          string
	Responses         map[string]string
	Completed         bool
	Phase             string
	IsDirty           bool
	IsSaved           bool
	IsAnonymous       bool
	SavedJourneyID    string
	SavedJourneyTitle string
	HistoryCount      int
	AudioEnabled      bool
	AudioVolume       int
}
