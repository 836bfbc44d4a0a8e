package out

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pathway/internal/platform/clock"
	apperrors "pathway/internal/platform/errors"
)

var authT0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func TestExchangeCode(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/token" || r.URL.Query().Get("grant_type") != "pkce" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL)
		}
		if r.Header.Get("apikey") != "key123" {
			t.Errorf("apikey header = %q", r.Header.Get("apikey"))
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["auth_code"] != "abc" {
			t.Errorf("request body = %v (%v)", body, err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "tok",
			"refresh_token": "ref",
			"expires_in":    3600,
			"user":          map[string]string{"id": "user-1", "email": "hiker@example.org"},
		})
	}))
	defer srv.Close()

	provider := NewHTTPIdentityProvider(srv.URL, "key123", clock.Fixed{At: authT0})
	session, err := provider.ExchangeCode(context.Background(), "abc")
	if err != nil {
		t.Fatalf("ExchangeCode: %v", err)
	}
	if session.UserID != "user-1" || session.AccessToken != "tok" || session.RefreshToken != "ref" {
		t.Fatalf("session = %+v", session)
	}
	if want := authT0.Add(time.Hour); !session.ExpiresAt.Equal(want) {
		t.Fatalf("ExpiresAt = %v, want %v", session.ExpiresAt, want)
	}
}

func TestExchangeCodeRejected(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad code", http.StatusUnauthorized)
	}))
	defer srv.Close()

	provider := NewHTTPIdentityProvider(srv.URL, "key123", clock.Fixed{At: authT0})
	_, err := provider.ExchangeCode(context.Background(), "stale")
	if !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Fatalf("ExchangeCode error = %v, want ErrUnauthenticated", err)
	}
}

func TestExchangeCodeBackendDown(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	provider := NewHTTPIdentityProvider(srv.URL, "key123", clock.Fixed{At: authT0})
	_, err := provider.ExchangeCode(context.Background(), "abc")
	if !errors.Is(err, apperrors.ErrTransport) {
		t.Fatalf("ExchangeCode error = %v, want ErrTransport", err)
	}
}

func TestExchangeCodeUnreachable(t *testing.T) {
	t.Parallel()
	provider := NewHTTPIdentityProvider("http://127.0.0.1:1", "key123", clock.Fixed{At: authT0})
	_, err := provider.ExchangeCode(context.Background(), "abc")
	if !errors.Is(err, apperrors.ErrTransport) {
		t.Fatalf("ExchangeCode error = %v, want ErrTransport", err)
	}
}

func TestSessionFromTokens(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "user-1", "email": "hiker@example.org"})
	}))
	defer srv.Close()

	provider := NewHTTPIdentityProvider(srv.URL, "key123", clock.Fixed{At: authT0})
	session, err := provider.SessionFromTokens(context.Background(), "tok", "ref")
	if err != nil {
		t.Fatalf("SessionFromTokens: %v", err)
	}
	if session.UserID != "user-1" || session.AccessToken != "tok" || session.RefreshToken != "ref" {
		t.Fatalf("session = %+v", session)
	}
}

func TestUpdatePasswordAndRevoke(t *testing.T) {
	t.Parallel()
	var sawPut, sawLogout bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/user":
			sawPut = true
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["password"] != "newpassword" {
				t.Errorf("password body = %v", body)
			}
		case r.Method == http.MethodPost && r.URL.Path == "/logout":
			sawLogout = true
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	provider := NewHTTPIdentityProvider(srv.URL, "key123", clock.Fixed{At: authT0})
	if err := provider.UpdatePassword(context.Background(), "tok", "newpassword"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	if err := provider.RevokeSession(context.Background(), "tok"); err != nil {
		t.Fatalf("RevokeSession: %v", err)
	}
	if !sawPut || !sawLogout {
		t.Fatalf("sawPut=%v sawLogout=%v", sawPut, sawLogout)
	}
}
