package out

import (
	"context"

	"pathway/internal/modules/auth/domain"
)

// SessionStore caches the remote session locally. Load reports ok=false when
// no session is cached.
type SessionStore interface {
	Save(ctx context.Context, session domain.Session) error
	Load(ctx context.Context) (domain.Session, bool, error)
	Clear(ctx context.Context) error
}

// IdentityProvider is the slice of the hosted auth backend this app talks
// to. Network failures surface as ErrTransport; rejected codes or tokens as
// ErrUnauthenticated.
type IdentityProvider interface {
	ExchangeCode(ctx context.Context, code string) (domain.Session, error)
	SessionFromTokens(ctx context.Context, accessToken, refreshToken string) (domain.Session, error)
	UpdatePassword(ctx context.Context, accessToken, newPassword string) error
	RevokeSession(ctx context.Context, accessToken string) error
}
