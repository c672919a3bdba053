package ledger

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store with push fan-out.
type MemoryStore struct {
	mu     sync.Mutex
	data   map[string]Record
	subs   map[string]map[int]chan Snapshot
	nextID int
}

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]Record),
		subs: make(map[string]map[int]chan Snapshot),
	}
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.data[userID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) Set(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.data[rec.UserID]; ok {
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	s.data[rec.UserID] = rec
	s.publishLocked(rec.UserID, Snapshot{Exists: true, Credits: rec.Credits})
	return nil
}

func (s *MemoryStore) Increment(ctx context.Context, userID string, delta float64) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.data[userID]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec.Credits += delta
	rec.UpdatedAt = time.Now().UTC()
	s.data[userID] = rec
	s.publishLocked(userID, Snapshot{Exists: true, Credits: rec.Credits})
	return rec, nil
}

// Delete removes a record and pushes a non-existent snapshot.
func (s *MemoryStore) Delete(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, userID)
	s.publishLocked(userID, Snapshot{})
	return nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, userID string) (<-chan Snapshot, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	ch := make(chan Snapshot, 1)
	stop := make(chan struct{})

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	if s.subs[userID] == nil {
		s.subs[userID] = make(map[int]chan Snapshot)
	}
	s.subs[userID][id] = ch
	rec, ok := s.data[userID]
	ch <- Snapshot{Exists: ok, Credits: rec.Credits}
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(stop)
			s.mu.Lock()
			delete(s.subs[userID], id)
			if len(s.subs[userID]) == 0 {
				delete(s.subs, userID)
			}
			close(ch)
			s.mu.Unlock()
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-stop:
		}
	}()
	return ch, cancel, nil
}

// Subscribers returns the number of live subscriptions for userID.
func (s *MemoryStore) Subscribers(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[userID])
}

// publishLocked replaces any unread snapshot so readers only see the latest.
func (s *MemoryStore) publishLocked(userID string, snap Snapshot) {
	for _, ch := range s.subs[userID] {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

var _ Store = (*MemoryStore)(nil)
