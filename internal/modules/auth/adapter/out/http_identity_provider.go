package out

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pathway/internal/modules/auth/domain"
	authout "pathway/internal/modules/auth/port/out"
	"pathway/internal/platform/clock"
	apperrors "pathway/internal/platform/errors"
)

// HTTPIdentityProvider talks to the hosted auth backend over its REST
// surface. Every method maps rejections to ErrUnauthenticated and anything
// network-shaped to ErrTransport.
type HTTPIdentityProvider struct {
	endpoint string
	apiKey   string
	client   *http.Client
	clock    clock.Clock
}

func NewHTTPIdentityProvider(endpoint, apiKey string, clk clock.Clock) authout.IdentityProvider {
	return &HTTPIdentityProvider{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 15 * time.Second},
		clock:    clk,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (p *HTTPIdentityProvider) ExchangeCode(ctx context.Context, code string) (domain.Session, error) {
	body, err := p.do(ctx, http.MethodPost, "/token?grant_type=pkce", "", map[string]string{"auth_code": code})
	if err != nil {
		return domain.Session{}, err
	}
	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return domain.Session{}, fmt.Errorf("%w: parse token response: %v", apperrors.ErrTransport, err)
	}
	if token.AccessToken == "" || token.User.ID == "" {
		return domain.Session{}, fmt.Errorf("%w: token response missing session", apperrors.ErrUnauthenticated)
	}
	return domain.Session{
		UserID:       token.User.ID,
		Email:        token.User.Email,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    p.clock.Now().Add(time.Duration(token.ExpiresIn) * time.Second),
	}, nil
}

func (p *HTTPIdentityProvider) SessionFromTokens(ctx context.Context, accessToken, refreshToken string) (domain.Session, error) {
	body, err := p.do(ctx, http.MethodGet, "/user", accessToken, nil)
	if err != nil {
		return domain.Session{}, err
	}
	var user userResponse
	if err := json.Unmarshal(body, &user); err != nil {
		return domain.Session{}, fmt.Errorf("%w: parse user response: %v", apperrors.ErrTransport, err)
	}
	if user.ID == "" {
		return domain.Session{}, fmt.Errorf("%w: token does not resolve to a user", apperrors.ErrUnauthenticated)
	}
	return domain.Session{
		UserID:       user.ID,
		Email:        user.Email,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (p *HTTPIdentityProvider) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	_, err := p.do(ctx, http.MethodPut, "/user", accessToken, map[string]string{"password": newPassword})
	return err
}

func (p *HTTPIdentityProvider) RevokeSession(ctx context.Context, accessToken string) error {
	_, err := p.do(ctx, http.MethodPost, "/logout", accessToken, nil)
	return err
}

func (p *HTTPIdentityProvider) do(ctx context.Context, method, path, bearer string, payload map[string]string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.endpoint+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", p.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", apperrors.ErrTransport, method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", apperrors.ErrTransport, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s %s: status %d", apperrors.ErrUnauthenticated, method, path, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: %s %s: status %d", apperrors.ErrTransport, method, path, resp.StatusCode)
	}
}
