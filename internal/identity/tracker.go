package identity

import "sync"

// Tracker holds the current session and fans out change events. Providers
// embed it to satisfy Current and Watch.
type Tracker struct {
	mu       sync.Mutex
	session  *Session
	watchers map[int]chan Event
	nextID   int
}

// Current returns the active session.
func (t *Tracker) Current() (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return Session{}, false
	}
	return *t.session, true
}

// Set replaces the active session and notifies watchers.
func (t *Tracker) Set(s Session) {
	t.mu.Lock()
	copied := s
	t.session = &copied
	targets := t.targetsLocked()
	t.mu.Unlock()
	notify(targets, Event{Session: &copied})
}

// Update swaps tokens on the active session without notifying watchers. It is
// a no-op when the session was cleared or replaced in the meantime.
func (t *Tracker) Update(userID string, apply func(*Session)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil || t.session.UserID != userID {
		return
	}
	next := *t.session
	apply(&next)
	t.session = &next
}

// Clear drops the active session. Watchers are notified only when a session
// was actually active, with expired recording why it ended.
func (t *Tracker) Clear(expired bool) {
	t.mu.Lock()
	if t.session == nil {
		t.mu.Unlock()
		return
	}
	userID := t.session.UserID
	t.session = nil
	targets := t.targetsLocked()
	t.mu.Unlock()
	notify(targets, Event{UserID: userID, Expired: expired})
}

// Watch subscribes to session changes. Each watcher holds at most one pending
// event; a slow reader only ever sees the latest one.
func (t *Tracker) Watch() (<-chan Event, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.watchers == nil {
		t.watchers = make(map[int]chan Event)
	}
	id := t.nextID
	t.nextID++
	ch := make(chan Event, 1)
	t.watchers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.watchers, id)
			t.mu.Unlock()
		})
	}
}

func (t *Tracker) targetsLocked() []chan Event {
	out := make([]chan Event, 0, len(t.watchers))
	for _, ch := range t.watchers {
		out = append(out, ch)
	}
	return out
}

func notify(targets []chan Event, ev Event) {
	for _, ch := range targets {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}
