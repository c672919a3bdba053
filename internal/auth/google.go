package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"resume-portal/internal/identity"
)

const (
	googleProviderID   = "google.com"
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)

var (
	ErrNotConfigured = errors.New("google auth not configured")
	ErrInvalidState  = errors.New("invalid or expired state")
)

// GoogleService runs the Google OAuth code flow and turns its result into a
// federated credential for the identity client.
type GoogleService struct {
	oauthConfig *oauth2.Config
	userInfoURL string
	stateTTL    time.Duration
	stateStore  *stateStore
	now         func() time.Time
}

// NewGoogleService builds a GoogleService.
func NewGoogleService(clientID, clientSecret, redirectURL string) *GoogleService {
	return &GoogleService{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: defaultUserInfoURL,
		stateTTL:    5 * time.Minute,
		stateStore:  newStateStore(),
		now:         time.Now,
	}
}

// Configured reports whether the OAuth client settings are present.
func (s *GoogleService) Configured() bool {
	return s != nil && s.oauthConfig.ClientID != "" && s.oauthConfig.ClientSecret != "" && s.oauthConfig.RedirectURL != ""
}

// BeginURL returns the consent URL. The state is bound to the caller's
// browser session so a callback cannot be replayed into another session.
func (s *GoogleService) BeginURL(sessionKey string) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}
	state := uuid.NewString()
	s.stateStore.put(state, sessionKey, s.now().Add(s.stateTTL), s.now())
	return s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// Complete exchanges the callback code and resolves the Google profile.
func (s *GoogleService) Complete(ctx context.Context, sessionKey, state, code string) (identity.FederatedCredential, error) {
	if !s.Configured() {
		return identity.FederatedCredential{}, ErrNotConfigured
	}
	if state == "" || code == "" {
		return identity.FederatedCredential{}, errors.New("missing state or code")
	}
	if !s.stateStore.consume(state, sessionKey, s.now()) {
		return identity.FederatedCredential{}, ErrInvalidState
	}

	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return identity.FederatedCredential{}, fmt.Errorf("exchange code: %w", err)
	}

	info, err := s.fetchUserInfo(ctx, token)
	if err != nil {
		return identity.FederatedCredential{}, fmt.Errorf("fetch user profile: %w", err)
	}
	if info.Sub == "" {
		return identity.FederatedCredential{}, errors.New("invalid user profile")
	}

	cred := identity.FederatedCredential{
		ProviderID:  googleProviderID,
		Subject:     info.Sub,
		Email:       info.Email,
		AccessToken: token.AccessToken,
	}
	if raw, ok := token.Extra("id_token").(string); ok {
		cred.IDToken = raw
	}
	return cred, nil
}

type googleUserInfo struct {
	Sub   string `json:"sub"`
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (s *GoogleService) fetchUserInfo(ctx context.Context, token *oauth2.Token) (googleUserInfo, error) {
	client := s.oauthConfig.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return googleUserInfo{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return googleUserInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return googleUserInfo{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return googleUserInfo{}, err
	}

	// The v2 endpoint uses "id" instead of "sub".
	if info.Sub == "" {
		info.Sub = info.ID
	}
	return info, nil
}

type pendingState struct {
	sessionKey string
	expires    time.Time
}

type stateStore struct {
	items map[string]pendingState
	mu    sync.Mutex
}

func newStateStore() *stateStore {
	return &stateStore{items: make(map[string]pendingState)}
}

func (s *stateStore) put(state, sessionKey string, exp, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.items {
		if now.After(v.expires) {
			delete(s.items, k)
		}
	}
	s.items[state] = pendingState{sessionKey: sessionKey, expires: exp}
}

func (s *stateStore) consume(state, sessionKey string, now time.Time) bool {
	s.mu.Lock()
	item, ok := s.items[state]
	if ok {
		delete(s.items, state)
	}
	s.mu.Unlock()
	if !ok || item.sessionKey != sessionKey {
		return false
	}
	return !now.After(item.expires)
}
