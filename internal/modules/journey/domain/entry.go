package domain

import (
	"time"

	catalog "pathway/internal/modules/catalog/domain"
)

// JournalEntry holds one journaling session's responses. The id is
// client-generated at creation time and CreatedAt is immutable thereafter.
// Response keys are absent until the user writes something.
type JournalEntry struct {
	ID        string                     `json:"id"`
	CreatedAt time.Time                  `json:"created_at"`
	Responses map[catalog.StepKey]string `json:"responses"`
	Completed bool                       `json:"completed"`
}

func NewEntry(id string, createdAt time.Time) JournalEntry {
	return JournalEntry{
		ID:        id,
		CreatedAt: createdAt.UTC(),
		Responses: map[catalog.StepKey]string{},
	}
}

// Clone returns a deep copy so history snapshots never alias the live entry.
func (e JournalEntry) Clone() JournalEntry {
	out := e
	out.Responses = make(map[catalog.StepKey]string, len(e.Responses))
	for k, v := range e.Responses {
		out.Responses[k] = v
	}
	return out
}

// Response returns the text for a step key, if any.
func (e JournalEntry) Response(key catalog.StepKey) (string, bool) {
	v, ok := e.Responses[key]
	return v, ok
}
