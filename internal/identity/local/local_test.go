package local

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"resume-portal/internal/identity"
	"resume-portal/internal/users"
)

func newDirectory(t *testing.T, tokenTTL, refreshTTL time.Duration) *Directory {
	t.Helper()
	svc := users.NewService(users.NewMemoryRepo())
	svc.Cost = bcrypt.MinCost
	dir, err := NewDirectory(svc, "test-secret", tokenTTL, refreshTTL, false)
	if err != nil {
		t.Fatalf("new directory: %v", err)
	}
	return dir
}

func TestSignUpSignInAndVerify(t *testing.T) {
	ctx := context.Background()
	dir := newDirectory(t, time.Hour, 24*time.Hour)

	first := dir.NewClient()
	s, err := first.SignUp(ctx, "a@example.com", "hunter22")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	claims, err := dir.Verify(s.IDToken)
	if err != nil || claims.Subject != s.UserID {
		t.Fatalf("verify: claims=%+v err=%v", claims, err)
	}
	if _, err := dir.Verify(s.RefreshToken); err == nil {
		t.Fatalf("refresh tokens must not verify as ID tokens")
	}

	second := dir.NewClient()
	if _, ok := second.Current(); ok {
		t.Fatalf("new client must start signed out")
	}
	s2, err := second.SignIn(ctx, "a@example.com", "hunter22")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if s2.UserID != s.UserID {
		t.Fatalf("expected same user id")
	}
}

func TestSignInFailureIsAuthenticationError(t *testing.T) {
	dir := newDirectory(t, time.Hour, time.Hour)
	client := dir.NewClient()
	_, err := client.SignIn(context.Background(), "ghost@example.com", "whatever")
	var authErr *identity.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %T %v", err, err)
	}
	if authErr.Message != "The email or password is incorrect." {
		t.Fatalf("unexpected message %q", authErr.Message)
	}
}

func TestTokenRequiresSession(t *testing.T) {
	dir := newDirectory(t, time.Hour, time.Hour)
	_, err := dir.NewClient().Token(context.Background(), true)
	if !errors.Is(err, identity.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestForcedRefreshMintsNewToken(t *testing.T) {
	ctx := context.Background()
	dir := newDirectory(t, time.Hour, time.Hour)
	client := dir.NewClient()
	s, err := client.SignUp(ctx, "a@example.com", "hunter22")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}

	cached, err := client.Token(ctx, false)
	if err != nil || cached != s.IDToken {
		t.Fatalf("expected cached token, got err=%v", err)
	}
	fresh, err := client.Token(ctx, true)
	if err != nil {
		t.Fatalf("forced refresh: %v", err)
	}
	if _, err := dir.Verify(fresh); err != nil {
		t.Fatalf("refreshed token invalid: %v", err)
	}
}

func TestExpiredRefreshSignsOut(t *testing.T) {
	ctx := context.Background()
	dir := newDirectory(t, time.Hour, time.Hour)
	client := dir.NewClient()
	if _, err := client.SignUp(ctx, "a@example.com", "hunter22"); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	events, stop := client.Watch()
	defer stop()

	client.Update(mustCurrent(t, client).UserID, func(s *identity.Session) { s.RefreshToken = "garbage" })
	if _, err := client.Token(ctx, true); err == nil {
		t.Fatalf("expected refresh failure")
	}
	ev := <-events
	if ev.Session != nil || !ev.Expired {
		t.Fatalf("expected expiry event, got %+v", ev)
	}
}

func TestFederatedSignIn(t *testing.T) {
	dir := newDirectory(t, time.Hour, time.Hour)
	client := dir.NewClient()
	s, err := client.SignInWithFederated(context.Background(), identity.FederatedCredential{
		ProviderID: users.ProviderGoogle,
		Subject:    "g-1",
		Email:      "g@example.com",
	})
	if err != nil {
		t.Fatalf("federated sign in: %v", err)
	}
	if s.UserID != "google.com:g-1" || s.Provider != users.ProviderGoogle {
		t.Fatalf("unexpected session %+v", s)
	}
}

func mustCurrent(t *testing.T, c *Client) identity.Session {
	t.Helper()
	s, ok := c.Current()
	if !ok {
		t.Fatalf("expected active session")
	}
	return s
}
