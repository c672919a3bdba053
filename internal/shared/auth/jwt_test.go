package auth

import (
	"errors"
	"testing"
	"time"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	signer, err := NewSigner("s3cret", time.Minute, false)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	token, expires, err := signer.Sign("user-1", "a@example.com", "password")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Fatalf("expected future expiry, got %s", expires)
	}
	claims, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "a@example.com" || claims.Provider != "password" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	signer, _ := NewSigner("s3cret", time.Minute, false)
	token, _, _ := signer.Sign("user-1", "", "password")

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := signer.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token rejected, got %v", err)
	}

	other, _ := NewSigner("different", time.Minute, false)
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected foreign token rejected, got %v", err)
	}
}

func TestNewSignerRequiresSecretInProduction(t *testing.T) {
	if _, err := NewSigner("", time.Minute, true); !errors.Is(err, errMissingSecret) {
		t.Fatalf("expected missing secret error, got %v", err)
	}
	if _, err := NewSigner("", time.Minute, false); err != nil {
		t.Fatalf("dev signer should fall back, got %v", err)
	}
}
