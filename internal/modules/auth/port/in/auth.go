package in

import (
	"context"

	"pathway/internal/modules/auth/dto"
)

type Usecase interface {
	// CompleteSignIn exchanges a one-time PKCE code for a session and
	// caches it.
	CompleteSignIn(ctx context.Context, code string) (dto.SessionOutput, error)
	// CompleteHashSignIn accepts tokens delivered in a URL fragment.
	CompleteHashSignIn(ctx context.Context, accessToken, refreshToken string) (dto.SessionOutput, error)
	// ResolveCallback classifies an incoming callback request and, for a web
	// PKCE callback, performs the code exchange.
	ResolveCallback(ctx context.Context, input dto.CallbackInput) (dto.CallbackPlan, error)
	// CurrentSession reports the cached session, if any.
	CurrentSession(ctx context.Context) (dto.SessionOutput, bool, error)
	// RedirectURL computes the redirect target for starting a sign-in.
	RedirectURL(ctx context.Context, native bool, webOrigin string) (dto.RedirectURLOutput, error)
	// ResetPassword validates and applies a new password for the signed-in
	// user, then clears local journey progress.
	ResetPassword(ctx context.Context, newPassword, confirm string) error
	// SignOut clears the local session and journey snapshot. Remote
	// revocation failures are logged, never surfaced: no user-visible
	// state depends on server acknowledgment.
	SignOut(ctx context.Context) error
}
