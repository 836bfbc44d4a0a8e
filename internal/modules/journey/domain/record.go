package domain

import "time"

// JourneySummary is the list row the remote store returns for the caller's
// own journeys, newest first.
type JourneySummary struct {
	ID          string
	Title       string
	CurrentStep int
	IsCompleted bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// JourneyRecord is a fully hydrated remote journey: the header plus the entry
// rebuilt from its step rows.
type JourneyRecord struct {
	JourneySummary
	OwnerID string
	Entry   JournalEntry
}
