package web

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"resume-portal/internal/dashboard"
	"resume-portal/internal/identity"
	"resume-portal/internal/shared/telemetry"
)

// Session binds one browser to its identity client and controller.
type Session struct {
	Key        string
	Identity   identity.Client
	Controller *dashboard.Controller

	lastSeen time.Time
}

// SessionFactory builds the collaborators for a new browser session.
type SessionFactory func() (identity.Client, *dashboard.Controller)

// ErrRegistryFull is returned by Create when every slot holds a signed-in
// session.
var ErrRegistryFull = errors.New("too many active sessions")

// Registry maps session cookies to live sessions and expires idle ones.
type Registry struct {
	factory     SessionFactory
	idleTTL     time.Duration
	maxSessions int
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry builds an empty registry. idleTTL <= 0 disables expiry and
// maxSessions <= 0 disables the size bound.
func NewRegistry(factory SessionFactory, idleTTL time.Duration, maxSessions int) *Registry {
	return &Registry{
		factory:     factory,
		idleTTL:     idleTTL,
		maxSessions: maxSessions,
		now:         time.Now,
		sessions:    make(map[string]*Session),
	}
}

// Lookup returns the session for key and marks it as seen.
func (r *Registry) Lookup(key string) (*Session, bool) {
	if key == "" {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	if ok {
		s.lastSeen = r.now()
	}
	return s, ok
}

// Create starts a new session under a fresh random key. At capacity it
// first sweeps idle sessions, then evicts the least recently seen signed-out
// one; when every session is signed in it returns ErrRegistryFull.
func (r *Registry) Create() (*Session, error) {
	if r.full() {
		r.Sweep()
		r.evictSignedOut()
	}
	if r.full() {
		return nil, ErrRegistryFull
	}

	client, ctrl := r.factory()
	s := &Session{
		Key:        uuid.NewString(),
		Identity:   client,
		Controller: ctrl,
		lastSeen:   r.now(),
	}
	r.mu.Lock()
	if r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
		r.mu.Unlock()
		ctrl.Close()
		return nil, ErrRegistryFull
	}
	r.sessions[s.Key] = s
	r.mu.Unlock()
	return s, nil
}

func (r *Registry) full() bool {
	if r.maxSessions <= 0 {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions) >= r.maxSessions
}

func (r *Registry) evictSignedOut() {
	r.mu.Lock()
	var victim *Session
	for _, s := range r.sessions {
		if _, active := s.Identity.Current(); active {
			continue
		}
		if victim == nil || s.lastSeen.Before(victim.lastSeen) {
			victim = s
		}
	}
	if victim != nil {
		delete(r.sessions, victim.Key)
	}
	r.mu.Unlock()

	if victim != nil {
		victim.Controller.Close()
		telemetry.Info("web.session_evicted", map[string]any{"idle": r.now().Sub(victim.lastSeen).String()})
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many
// were removed.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)
	var stale []*Session
	r.mu.Lock()
	for key, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, key)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.Controller.Close()
	}
	if len(stale) > 0 {
		telemetry.Info("web.sessions_swept", map[string]any{"count": len(stale)})
	}
	return len(stale)
}

// Run sweeps periodically until ctx is done, then closes every session.
func (r *Registry) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.Close()
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close shuts down every session.
func (r *Registry) Close() {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for key, s := range r.sessions {
		all = append(all, s)
		delete(r.sessions, key)
	}
	r.mu.Unlock()
	for _, s := range all {
		s.Controller.Close()
	}
}
