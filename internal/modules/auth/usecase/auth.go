package usecase

import (
	"context"
	"fmt"
	"log"

	"pathway/internal/modules/auth/domain"
	"pathway/internal/modules/auth/dto"
	authout "pathway/internal/modules/auth/port/out"
	"pathway/internal/modules/auth/service"
	journeyin "pathway/internal/modules/journey/port/in"
	apperrors "pathway/internal/platform/errors"
)

type Interactor struct {
	svc      *service.AuthService
	sessions authout.SessionStore
	provider authout.IdentityProvider
	journey  journeyin.Usecase
}

func NewInteractor(svc *service.AuthService, sessions authout.SessionStore, provider authout.IdentityProvider, journey journeyin.Usecase) *Interactor {
	return &Interactor{svc: svc, sessions: sessions, provider: provider, journey: journey}
}

// AttachJourney wires the journey module in after construction. The two
// modules reference each other (sign-out clears local journey state, saves
// need the session), so one side has to be attached late.
func (i *Interactor) AttachJourney(journey journeyin.Usecase) {
	i.journey = journey
}

func (i *Interactor) CompleteSignIn(ctx context.Context, code string) (dto.SessionOutput, error) {
	if code == "" {
		return dto.SessionOutput{}, fmt.Errorf("%w: auth code is required", apperrors.ErrValidation)
	}
	if i.provider == nil {
		return dto.SessionOutput{}, apperrors.ErrNotConfigured
	}
	session, err := i.provider.ExchangeCode(ctx, code)
	if err != nil {
		return dto.SessionOutput{}, err
	}
	if err := i.sessions.Save(ctx, session); err != nil {
		return dto.SessionOutput{}, err
	}
	return sessionOutput(session), nil
}

func (i *Interactor) CompleteHashSignIn(ctx context.Context, accessToken, refreshToken string) (dto.SessionOutput, error) {
	if accessToken == "" {
		return dto.SessionOutput{}, fmt.Errorf("%w: access token is required", apperrors.ErrValidation)
	}
	if i.provider == nil {
		return dto.SessionOutput{}, apperrors.ErrNotConfigured
	}
	session, err := i.provider.SessionFromTokens(ctx, accessToken, refreshToken)
	if err != nil {
		return dto.SessionOutput{}, err
	}
	if err := i.sessions.Save(ctx, session); err != nil {
		return dto.SessionOutput{}, err
	}
	return sessionOutput(session), nil
}

// ResolveCallback turns a raw callback request into a handling plan. Native
// requests never trigger a server-side exchange: the single-use code rides
// the deep link into the app untouched. Web PKCE callbacks exchange the code
// here; a web request with no code gets the token-collection branch, since
// fragment tokens are invisible to the server.
func (i *Interactor) ResolveCallback(ctx context.Context, input dto.CallbackInput) (dto.CallbackPlan, error) {
	decision := i.svc.DecideCallback(input.RawURL, input.UserAgent, input.NativeHint)
	if decision.Native {
		return dto.CallbackPlan{Native: true, DeepLink: decision.DeepLink, RedirectTo: decision.Next}, nil
	}
	if decision.Redirect.Kind == domain.RedirectPKCE {
		session, err := i.CompleteSignIn(ctx, decision.Redirect.Code)
		if err != nil {
			return dto.CallbackPlan{}, err
		}
		return dto.CallbackPlan{RedirectTo: decision.Next, SignedIn: true, Session: session}, nil
	}
	return dto.CallbackPlan{RedirectTo: decision.Next, NeedsTokens: true}, nil
}

func (i *Interactor) CurrentSession(ctx context.Context) (dto.SessionOutput, bool, error) {
	session, ok, err := i.sessions.Load(ctx)
	if err != nil {
		return dto.SessionOutput{}, false, err
	}
	if !ok || !i.svc.Usable(session) {
		return dto.SessionOutput{}, false, nil
	}
	return sessionOutput(session), true, nil
}

func (i *Interactor) RedirectURL(_ context.Context, native bool, webOrigin string) (dto.RedirectURLOutput, error) {
	return dto.RedirectURLOutput{URL: i.svc.RedirectTarget(native, webOrigin)}, nil
}

func (i *Interactor) ResetPassword(ctx context.Context, newPassword, confirm string) error {
	if err := domain.ValidateNewPassword(newPassword, confirm); err != nil {
		return err
	}
	session, ok, err := i.sessions.Load(ctx)
	if err != nil {
		return err
	}
	if !ok || !i.svc.Usable(session) {
		return apperrors.ErrUnauthenticated
	}
	if i.provider == nil {
		return apperrors.ErrNotConfigured
	}
	if err := i.provider.UpdatePassword(ctx, session.AccessToken, newPassword); err != nil {
		return err
	}
	// A recovery flow may run on a shared device; drop any local draft once
	// the password change lands.
	if i.journey != nil {
		if err := i.journey.ClearLocal(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interactor) SignOut(ctx context.Context) error {
	session, ok, err := i.sessions.Load(ctx)
	if err == nil && ok && i.provider != nil {
		if err := i.provider.RevokeSession(ctx, session.AccessToken); err != nil {
			// Local sign-out proceeds regardless of remote acknowledgment.
			log.Printf("auth: revoke session: %v", err)
		}
	}
	if err := i.sessions.Clear(ctx); err != nil {
		return err
	}
	if i.journey != nil {
		if err := i.journey.ClearLocal(ctx); err != nil {
			return err
		}
	}
	return nil
}

func sessionOutput(session domain.Session) dto.SessionOutput {
	return dto.SessionOutput{UserID: session.UserID, Email: session.Email, ExpiresAt: session.ExpiresAt}
}
