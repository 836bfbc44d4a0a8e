package service

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"pathway/internal/modules/journey/domain"
	"pathway/internal/platform/clock"
	apperrors "pathway/internal/platform/errors"
	"pathway/internal/platform/id"
)

// JourneyService owns entry creation and the client-side validation that runs
// before anything touches the network.
type JourneyService struct {
	clock clock.Clock
	idGen id.Generator
}

func NewJourneyService(clock clock.Clock, idGen id.Generator) *JourneyService {
	return &JourneyService{clock: clock, idGen: idGen}
}

func (s *JourneyService) Now() time.Time {
	return s.clock.Now()
}

// FreshState returns the landing state with a brand-new entry.
func (s *JourneyService) FreshState() domain.State {
	return domain.NewState(s.idGen.New(), s.clock.Now())
}

// FreshEntry mints an id and timestamp for a replacement entry.
func (s *JourneyService) FreshEntry() (string, domain.JournalEntry) {
	entryID := s.idGen.New()
	return entryID, domain.NewEntry(entryID, s.clock.Now())
}

// ValidateTitle normalizes and checks a journey title before any store call.
func (s *JourneyService) ValidateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	if utf8.RuneCountInString(title) > domain.MaxTitleLen {
		return "", fmt.Errorf("%w: title longer than %d characters", apperrors.ErrValidation, domain.MaxTitleLen)
	}
	return title, nil
}
