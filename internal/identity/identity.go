// Package identity defines the session model shared by the portal's identity
// providers and the error type surfaced to users when authentication fails.
package identity

import (
	"context"
	"errors"
	"time"
)

// Session is the signed-in principal. Exactly one is active per Client.
type Session struct {
	UserID       string
	Email        string
	Provider     string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

// FederatedCredential is the result of an external sign-in (for example the
// Google OAuth flow) handed to a Client for exchange into a Session.
type FederatedCredential struct {
	ProviderID  string
	Subject     string
	Email       string
	IDToken     string
	AccessToken string
}

// Event is delivered to watchers on every session change. A nil Session
// means the client is now signed out; UserID then names the user whose
// session ended.
type Event struct {
	Session *Session
	UserID  string
	Expired bool
}

// Client is the identity collaborator consumed by the dashboard.
type Client interface {
	SignUp(ctx context.Context, email, password string) (Session, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignInWithFederated(ctx context.Context, cred FederatedCredential) (Session, error)
	SignOut(ctx context.Context) error
	Current() (Session, bool)
	// Token returns a bearer token for the current session, minting a new one
	// when forceRefresh is set or the cached one is about to expire.
	Token(ctx context.Context, forceRefresh bool) (string, error)
	// Watch subscribes to session changes. The returned func unsubscribes.
	Watch() (<-chan Event, func())
}

// ErrNoSession is wrapped by AuthenticationError when an operation needs a
// signed-in user and there is none.
var ErrNoSession = errors.New("no active session")

// AuthenticationError carries a provider-supplied message that is shown to
// the user verbatim.
type AuthenticationError struct {
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "authentication failed"
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// NewAuthError wraps err with a user-facing message.
func NewAuthError(message string, err error) *AuthenticationError {
	return &AuthenticationError{Message: message, Err: err}
}

// NotSignedIn is the error returned when a session is required.
func NotSignedIn() *AuthenticationError {
	return &AuthenticationError{Message: "You must be signed in.", Err: ErrNoSession}
}
