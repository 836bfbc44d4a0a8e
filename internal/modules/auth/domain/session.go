package domain

import (
	"fmt"
	"time"

	apperrors "pathway/internal/platform/errors"
)

// Session is the locally cached remote session. The remote session is
// authoritative; this copy exists so the UI can show who is signed in and so
// requests can carry the access token.
type Session struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (s Session) Valid() bool {
	return s.UserID != "" && s.AccessToken != ""
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// MinPasswordLen is enforced client-side before a reset ever reaches the
// network.
const MinPasswordLen = 8

func ValidateNewPassword(password, confirm string) error {
	if len(password) < MinPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrValidation, MinPasswordLen)
	}
	if password != confirm {
		return fmt.Errorf("%w: passwords do not match", apperrors.ErrValidation)
	}
	return nil
}

// AuthCallbackType enumerates the identity provider's callback types.
const (
	CallbackTypeRecovery  = "recovery"
	CallbackTypeEmail     = "email"
	CallbackTypeSignup    = "signup"
	CallbackTypeMagicLink = "magiclink"
	CallbackTypeInvite    = "invite"
)
