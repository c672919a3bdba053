package ledger

import (
	"context"
	"errors"
	"sync"

	"resume-portal/internal/shared/telemetry"
)

// Sync owns the client-side view of one store: explicit repair of missing
// records, upload charges and live balance subscriptions.
type Sync struct {
	Store Store
}

// NewSync wraps store.
func NewSync(store Store) *Sync {
	return &Sync{Store: store}
}

// Grant writes a fresh record holding InitialCredits.
func (s *Sync) Grant(ctx context.Context, userID string) error {
	if err := s.Store.Set(ctx, Record{UserID: userID, Credits: InitialCredits}); err != nil {
		return &LedgerError{Op: "grant", UserID: userID, Err: err}
	}
	telemetry.Info("ledger.granted", map[string]any{"user_id": userID, "credits": InitialCredits})
	return nil
}

// Reconcile creates the record with InitialCredits when it is missing. It is
// run once after authentication, never from the subscription path.
func (s *Sync) Reconcile(ctx context.Context, userID string) (bool, error) {
	_, err := s.Store.Get(ctx, userID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, &LedgerError{Op: "read", UserID: userID, Err: err}
	}
	if err := s.Grant(ctx, userID); err != nil {
		return false, err
	}
	return true, nil
}

// ChargeUpload deducts UploadCost server-side.
func (s *Sync) ChargeUpload(ctx context.Context, userID string) (Record, error) {
	rec, err := s.Store.Increment(ctx, userID, -UploadCost)
	if err != nil {
		return Record{}, &LedgerError{Op: "charge", UserID: userID, Err: err}
	}
	return rec, nil
}

// Subscribe opens a live balance stream for userID.
func (s *Sync) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	snaps, stop, err := s.Store.Subscribe(ctx, userID)
	if err != nil {
		return nil, &LedgerError{Op: "subscribe", UserID: userID, Err: err}
	}
	sub := &Subscription{
		userID:   userID,
		balances: make(chan float64, 1),
		stop:     stop,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go sub.run(snaps)
	return sub, nil
}

// Subscription is a cancellable stream of balances. Snapshots of a missing
// record are not forwarded; Reconcile is the only repair path.
type Subscription struct {
	userID   string
	balances chan float64
	stop     func()
	quit     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// Balances yields the latest pushed balance. It is closed when the
// subscription ends.
func (s *Subscription) Balances() <-chan float64 { return s.balances }

// Done is closed once the subscription has fully stopped.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Cancel stops the subscription and waits for its goroutine. Safe to call
// more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		close(s.quit)
		s.stop()
	})
	<-s.done
}

func (s *Subscription) run(snaps <-chan Snapshot) {
	defer close(s.done)
	defer close(s.balances)
	for {
		select {
		case <-s.quit:
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			if !snap.Exists {
				telemetry.Warn("ledger.record_missing", map[string]any{"user_id": s.userID})
				continue
			}
			select {
			case <-s.balances:
			default:
			}
			s.balances <- snap.Credits
		}
	}
}
