package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

type fakeListener struct {
	channel  string
	payloads chan string
	closed   chan struct{}
}

func newFakeListener() *fakeListener {
	return &fakeListener{payloads: make(chan string, 4), closed: make(chan struct{})}
}

func (l *fakeListener) Listen(ctx context.Context, channel string) error {
	l.channel = channel
	return nil
}

func (l *fakeListener) WaitForNotification(ctx context.Context) (string, error) {
	select {
	case p := <-l.payloads:
		return p, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (l *fakeListener) Close(ctx context.Context) error {
	close(l.closed)
	return nil
}

var ledgerColumns = []string{"user_id", "credits", "created_at", "updated_at"}

func TestPGStoreIncrementMissingRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := &PGStore{DB: db}
	mock.ExpectQuery("UPDATE ledger SET credits = credits").
		WithArgs(-UploadCost, "u1").
		WillReturnRows(sqlmock.NewRows(ledgerColumns))

	if _, err := store.Increment(context.Background(), "u1", -UploadCost); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreSetUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := &PGStore{DB: db}
	mock.ExpectExec("INSERT INTO ledger").
		WithArgs("u1", InitialCredits).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Set(context.Background(), Record{UserID: "u1", Credits: InitialCredits}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreSubscribeFollowsNotifications(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	listener := newFakeListener()
	store := &PGStore{
		DB:     db,
		Listen: func(context.Context) (Listener, error) { return listener, nil },
	}

	mock.ExpectQuery("SELECT user_id, credits").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(ledgerColumns).AddRow("u1", 0.5, now, now))
	mock.ExpectQuery("SELECT user_id, credits").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(ledgerColumns).AddRow("u1", 0.25, now, now))

	snaps, cancel, err := store.Subscribe(context.Background(), "u1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if listener.channel != "ledger_changed" {
		t.Fatalf("expected LISTEN on ledger_changed, got %q", listener.channel)
	}
	if snap := <-snaps; !snap.Exists || snap.Credits != 0.5 {
		t.Fatalf("unexpected initial snapshot %+v", snap)
	}

	listener.payloads <- "someone-else"
	listener.payloads <- "u1"
	select {
	case snap := <-snaps:
		if snap.Credits != 0.25 {
			t.Fatalf("expected pushed 0.25, got %+v", snap)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for push")
	}

	cancel()
	cancel()
	select {
	case <-listener.closed:
	default:
		t.Fatalf("listener must be closed once cancel returns")
	}
	if _, ok := <-snaps; ok {
		t.Fatalf("snapshot channel must be closed")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
