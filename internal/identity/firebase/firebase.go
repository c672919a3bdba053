// Package firebase signs users in through the Firebase Identity Toolkit and
// Secure Token REST APIs.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"resume-portal/internal/identity"
)

const (
	DefaultIdentityURL = "https://identitytoolkit.googleapis.com/v1"
	DefaultTokenURL    = "https://securetoken.googleapis.com/v1/token"

	refreshSkew = 5 * time.Minute
)

// Options configures a Client.
type Options struct {
	APIKey      string
	IdentityURL string
	TokenURL    string
	// RequestURI is echoed to signInWithIdp; Firebase requires an http(s) URL.
	RequestURI string
	HTTPClient *http.Client
}

// Client is one browser session against a Firebase project.
type Client struct {
	identity.Tracker
	opts Options
	now  func() time.Time
}

// New builds a signed-out client.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("firebase api key is required")
	}
	if opts.IdentityURL == "" {
		opts.IdentityURL = DefaultIdentityURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = DefaultTokenURL
	}
	if opts.RequestURI == "" {
		opts.RequestURI = "http://localhost"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	opts.IdentityURL = strings.TrimRight(opts.IdentityURL, "/")
	return &Client{opts: opts, now: time.Now}, nil
}

type authResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	ProviderID   string `json:"providerId"`
	IsNewUser    bool   `json:"isNewUser"`
}

type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) SignUp(ctx context.Context, email, password string) (identity.Session, error) {
	var out authResponse
	err := c.postJSON(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &out)
	if err != nil {
		return identity.Session{}, err
	}
	return c.start(out, "password"), nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (identity.Session, error) {
	var out authResponse
	err := c.postJSON(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &out)
	if err != nil {
		return identity.Session{}, err
	}
	return c.start(out, "password"), nil
}

func (c *Client) SignInWithFederated(ctx context.Context, cred identity.FederatedCredential) (identity.Session, error) {
	providerID := cred.ProviderID
	if providerID == "" {
		providerID = "google.com"
	}
	post := url.Values{}
	post.Set("providerId", providerID)
	if cred.IDToken != "" {
		post.Set("id_token", cred.IDToken)
	}
	if cred.AccessToken != "" {
		post.Set("access_token", cred.AccessToken)
	}
	var out authResponse
	err := c.postJSON(ctx, "accounts:signInWithIdp", map[string]any{
		"postBody":            post.Encode(),
		"requestUri":          c.opts.RequestURI,
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}, &out)
	if err != nil {
		return identity.Session{}, err
	}
	return c.start(out, providerID), nil
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
	if !forceRefresh && c.now().Add(refreshSkew).Before(s.ExpiresAt) {
		return s.IDToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", s.RefreshToken)
	endpoint := c.opts.TokenURL + "?key=" + url.QueryEscape(c.opts.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out refreshResponse
	if err := c.do(req, &out); err != nil {
		var authErr *identity.AuthenticationError
		if errors.As(err, &authErr) && isExpiredRefresh(authErr.Message) {
			c.Clear(true)
		}
		return "", err
	}
	expires := c.expiry(out.IDToken, out.ExpiresIn)
	c.Update(s.UserID, func(next *identity.Session) {
		next.IDToken = out.IDToken
		if out.RefreshToken != "" {
			next.RefreshToken = out.RefreshToken
		}
		next.ExpiresAt = expires
	})
	return out.IDToken, nil
}

func (c *Client) start(out authResponse, provider string) identity.Session {
	if out.ProviderID != "" {
		provider = out.ProviderID
	}
	s := identity.Session{
		UserID:       out.LocalID,
		Email:        out.Email,
		Provider:     provider,
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
		ExpiresAt:    c.expiry(out.IDToken, out.ExpiresIn),
	}
	c.Set(s)
	return s
}

// expiry prefers the token's own exp claim and falls back to expiresIn.
func (c *Client) expiry(idToken, expiresIn string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, &claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	if secs, err := strconv.Atoi(expiresIn); err == nil && secs > 0 {
		return c.now().Add(time.Duration(secs) * time.Second)
	}
	return c.now().Add(time.Hour)
}

func (c *Client) postJSON(ctx context.Context, method string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/%s?key=%s", c.opts.IdentityURL, method, url.QueryEscape(c.opts.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return identity.NewAuthError("Could not reach the identity service.", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return identity.NewAuthError("Could not read the identity service response.", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var er errorResponse
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &er) == nil && er.Error.Message != "" {
			msg = er.Error.Message
		}
		if msg == "" {
			msg = resp.Status
		}
		return identity.NewAuthError(msg, fmt.Errorf("identity service status %d", resp.StatusCode))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return identity.NewAuthError("Unexpected identity service response.", err)
	}
	return nil
}

func isExpiredRefresh(message string) bool {
	switch message {
	case "TOKEN_EXPIRED", "INVALID_REFRESH_TOKEN", "USER_DISABLED", "USER_NOT_FOUND":
		return true
	default:
		return false
	}
}

var _ identity.Client = (*Client)(nil)
