// Package local is the built-in identity provider: a users directory with
// bcrypt passwords and portal-signed HS256 tokens.
package local

import (
	"context"
	"errors"
	"time"

	"resume-portal/internal/identity"
	"resume-portal/internal/shared/auth"
	"resume-portal/internal/shared/telemetry"
	"resume-portal/internal/users"
)

const refreshProvider = "refresh"

// Directory issues sessions for users in the directory. It is shared by every
// Client it creates.
type Directory struct {
	Users      *users.Service
	Tokens     *auth.Signer
	Refreshers *auth.Signer
}

// NewDirectory builds a directory whose ID tokens live for tokenTTL and whose
// refresh tokens live for refreshTTL.
func NewDirectory(svc *users.Service, secret string, tokenTTL, refreshTTL time.Duration, production bool) (*Directory, error) {
	tokens, err := auth.NewSigner(secret, tokenTTL, production)
	if err != nil {
		return nil, err
	}
	refreshers, err := auth.NewSigner(secret, refreshTTL, production)
	if err != nil {
		return nil, err
	}
	return &Directory{Users: svc, Tokens: tokens, Refreshers: refreshers}, nil
}

// NewClient returns a signed-out client bound to this directory.
func (d *Directory) NewClient() *Client {
	return &Client{dir: d}
}

// Verify validates an ID token minted by this directory.
func (d *Directory) Verify(token string) (auth.Claims, error) {
	claims, err := d.Tokens.Verify(token)
	if err != nil {
		return auth.Claims{}, err
	}
	if claims.Provider == refreshProvider {
		return auth.Claims{}, auth.ErrInvalidToken
	}
	return claims, nil
}

// Client is one browser session's view of the directory.
type Client struct {
	identity.Tracker
	dir *Directory
}

func (c *Client) SignUp(ctx context.Context, email, password string) (identity.Session, error) {
	user, err := c.dir.Users.Register(ctx, email, password)
	if err != nil {
		return identity.Session{}, authError(err)
	}
	return c.start(user)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (identity.Session, error) {
	user, err := c.dir.Users.Authenticate(ctx, email, password)
	if err != nil {
		return identity.Session{}, authError(err)
	}
	return c.start(user)
}

// SignInWithFederated trusts the credential: it is only produced by the
// portal's own OAuth exchange.
func (c *Client) SignInWithFederated(ctx context.Context, cred identity.FederatedCredential) (identity.Session, error) {
	if cred.Subject == "" {
		return identity.Session{}, identity.NewAuthError("The federated sign-in did not return an account.", nil)
	}
	provider := cred.ProviderID
	if provider == "" {
		provider = users.ProviderGoogle
	}
	user, created, err := c.dir.Users.UpsertFederated(ctx, provider, cred.Subject, cred.Email)
	if err != nil {
		return identity.Session{}, authError(err)
	}
	if created {
		telemetry.Info("identity.federated_user_created", map[string]any{"user_id": user.ID, "provider": provider})
	}
	return c.start(user)
}

func (c *Client) SignOut(ctx context.Context) error {
	c.Clear(false)
	return nil
}

func (c *Client) Token(ctx context.Context, forceRefresh bool) (string, error) {
	s, ok := c.Current()
	if !ok {
		return "", identity.NotSignedIn()
	}
	if !forceRefresh && time.Until(s.ExpiresAt) > 30*time.Second {
		return s.IDToken, nil
	}
	claims, err := c.dir.Refreshers.Verify(s.RefreshToken)
	if err != nil || claims.Provider != refreshProvider || claims.Subject != s.UserID {
		c.Clear(true)
		return "", identity.NewAuthError("Your session has expired. Please sign in again.", err)
	}
	token, expires, err := c.dir.Tokens.Sign(s.UserID, s.Email, s.Provider)
	if err != nil {
		return "", identity.NewAuthError("Could not refresh your session.", err)
	}
	c.Update(s.UserID, func(next *identity.Session) {
		next.IDToken = token
		next.ExpiresAt = expires
	})
	return token, nil
}

func (c *Client) start(user users.User) (identity.Session, error) {
	token, expires, err := c.dir.Tokens.Sign(user.ID, user.Email, user.Provider)
	if err != nil {
		return identity.Session{}, identity.NewAuthError("Could not start your session.", err)
	}
	refresh, _, err := c.dir.Refreshers.Sign(user.ID, user.Email, refreshProvider)
	if err != nil {
		return identity.Session{}, identity.NewAuthError("Could not start your session.", err)
	}
	s := identity.Session{
		UserID:       user.ID,
		Email:        user.Email,
		Provider:     user.Provider,
		IDToken:      token,
		RefreshToken: refresh,
		ExpiresAt:    expires,
	}
	c.Set(s)
	return s, nil
}

func authError(err error) error {
	switch {
	case errors.Is(err, users.ErrEmailTaken):
		return identity.NewAuthError("The email address is already in use by another account.", err)
	case errors.Is(err, users.ErrInvalidCredentials):
		return identity.NewAuthError("The email or password is incorrect.", err)
	case errors.Is(err, users.ErrInvalidEmail):
		return identity.NewAuthError("The email address is badly formatted.", err)
	case errors.Is(err, users.ErrWeakPassword):
		return identity.NewAuthError("Password should be at least 6 characters.", err)
	default:
		return identity.NewAuthError("Authentication is temporarily unavailable.", err)
	}
}

var _ identity.Client = (*Client)(nil)
