package service

import (
	"pathway/internal/modules/auth/domain"
	"pathway/internal/platform/clock"
)

// AuthService holds the pure auth policy: redirect construction, callback
// classification and session usability.
type AuthService struct {
	clock             clock.Clock
	siteURL           string
	appScheme         string
	resetPasswordPath string
}

func NewAuthService(clock clock.Clock, siteURL, appScheme, resetPasswordPath string) *AuthService {
	return &AuthService{
		clock:             clock,
		siteURL:           siteURL,
		appScheme:         appScheme,
		resetPasswordPath: resetPasswordPath,
	}
}

func (s *AuthService) RedirectTarget(native bool, webOrigin string) string {
	return domain.CallbackRedirectTo(native, webOrigin, s.siteURL)
}

func (s *AuthService) SiteURL() string {
	return domain.PublicSiteURL(s.siteURL)
}

// DecideCallback resolves how an incoming callback request should be handled.
func (s *AuthService) DecideCallback(rawURL, userAgent string, nativeHint bool) domain.CallbackDecision {
	return domain.DecideCallback(rawURL, userAgent, s.appScheme, s.resetPasswordPath, nativeHint)
}

// Usable reports whether a cached session can back remote calls right now.
func (s *AuthService) Usable(session domain.Session) bool {
	return session.Valid() && !session.Expired(s.clock.Now())
}
