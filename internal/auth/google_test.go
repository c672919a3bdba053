package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func newTestGoogle(t *testing.T) *GoogleService {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-1",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     "id-token-1",
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "g-42", "email": "g@example.com"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	svc := NewGoogleService("client", "secret", "http://localhost:8080/auth/google/callback")
	svc.oauthConfig.Endpoint = oauth2.Endpoint{
		AuthURL:   srv.URL + "/auth",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	svc.userInfoURL = srv.URL + "/userinfo"
	return svc
}

func stateFrom(t *testing.T, consentURL string) string {
	t.Helper()
	u, err := url.Parse(consentURL)
	if err != nil {
		t.Fatalf("parse consent url: %v", err)
	}
	return u.Query().Get("state")
}

func TestCompleteReturnsCredential(t *testing.T) {
	svc := newTestGoogle(t)
	consent, err := svc.BeginURL("browser-1")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	cred, err := svc.Complete(context.Background(), "browser-1", stateFrom(t, consent), "good-code")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if cred.Subject != "g-42" || cred.Email != "g@example.com" || cred.IDToken != "id-token-1" || cred.ProviderID != "google.com" {
		t.Fatalf("unexpected credential %+v", cred)
	}
}

func TestStateIsSingleUseAndSessionBound(t *testing.T) {
	svc := newTestGoogle(t)
	ctx := context.Background()

	consent, _ := svc.BeginURL("browser-1")
	state := stateFrom(t, consent)
	if _, err := svc.Complete(ctx, "browser-2", state, "good-code"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected state bound to session, got %v", err)
	}
	if _, err := svc.Complete(ctx, "browser-1", state, "good-code"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected consumed state to be rejected, got %v", err)
	}

	consent, _ = svc.BeginURL("browser-1")
	svc.now = func() time.Time { return time.Now().Add(10 * time.Minute) }
	if _, err := svc.Complete(ctx, "browser-1", stateFrom(t, consent), "good-code"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected expired state, got %v", err)
	}
}

func TestNotConfigured(t *testing.T) {
	svc := NewGoogleService("", "", "")
	if svc.Configured() {
		t.Fatalf("expected unconfigured service")
	}
	if _, err := svc.BeginURL("x"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
