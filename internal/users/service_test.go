package users

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestService() *Service {
	svc := NewService(NewMemoryRepo())
	svc.Cost = bcrypt.MinCost
	return svc
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	user, err := svc.Register(ctx, "Ada@Example.com", "hunter22")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == "" || user.PasswordHash == "hunter22" {
		t.Fatalf("unexpected user %+v", user)
	}

	got, err := svc.Authenticate(ctx, "ada@example.com", "hunter22")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected same user, got %s vs %s", got.ID, user.ID)
	}

	if _, err := svc.Authenticate(ctx, "ada@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	if _, err := svc.Register(ctx, "not-an-email", "hunter22"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected invalid email, got %v", err)
	}
	if _, err := svc.Register(ctx, "a@example.com", "123"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected weak password, got %v", err)
	}
	if _, err := svc.Register(ctx, "a@example.com", "hunter22"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, "A@EXAMPLE.COM", "hunter22"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}
}

func TestUpsertFederatedReportsCreation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	user, created, err := svc.UpsertFederated(ctx, ProviderGoogle, "123", "g@example.com")
	if err != nil || !created {
		t.Fatalf("expected creation, got created=%v err=%v", created, err)
	}
	if user.ID != "google.com:123" {
		t.Fatalf("unexpected id %q", user.ID)
	}
	_, created, err = svc.UpsertFederated(ctx, ProviderGoogle, "123", "g2@example.com")
	if err != nil || created {
		t.Fatalf("expected existing user, got created=%v err=%v", created, err)
	}
	stored, _ := svc.GetByID(ctx, "google.com:123")
	if stored.Email != "g2@example.com" {
		t.Fatalf("expected email refreshed, got %q", stored.Email)
	}
}
