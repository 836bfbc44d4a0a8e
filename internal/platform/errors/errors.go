package apperrors

import "errors"

// Failure taxonomy for journey persistence and auth flows. Callers branch with
// errors.Is; adapters wrap their concrete causes around these so the UI can
// distinguish retryable transport failures from user-correctable input.
var (
	ErrUnauthenticated = errors.New("no active session")
	ErrValidation      = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrTransport       = errors.New("transport failure")
	ErrNotConfigured   = errors.New("backend is not configured")
	ErrSaveInFlight    = errors.New("a save is already in flight")
)
