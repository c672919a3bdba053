package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"resume-portal/internal/shared/storage/db"
	"resume-portal/internal/shared/telemetry"
)

// Listener is a dedicated connection receiving NOTIFY payloads.
type Listener interface {
	Listen(ctx context.Context, channel string) error
	WaitForNotification(ctx context.Context) (string, error)
	Close(ctx context.Context) error
}

// PGStore keeps ledger records in Postgres. Pushes come from the
// ledger_changed trigger, one LISTEN connection per subscription.
type PGStore struct {
	DB     *sql.DB
	Listen func(ctx context.Context) (Listener, error)
}

// NewPGStore builds a store whose subscriptions dial databaseURL with pgx.
func NewPGStore(database *sql.DB, databaseURL string) *PGStore {
	return &PGStore{
		DB: database,
		Listen: func(ctx context.Context) (Listener, error) {
			conn, err := pgx.Connect(ctx, databaseURL)
			if err != nil {
				return nil, err
			}
			return &pgxListener{conn: conn}, nil
		},
	}
}

func (s *PGStore) Get(ctx context.Context, userID string) (Record, error) {
	const query = `
SELECT user_id, credits, created_at, updated_at
FROM ledger
WHERE user_id = $1`
	var rec Record
	err := s.DB.QueryRowContext(ctx, query, userID).Scan(&rec.UserID, &rec.Credits, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

func (s *PGStore) Set(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO ledger (user_id, credits, created_at, updated_at)
VALUES ($1, $2, now(), now())
ON CONFLICT (user_id) DO UPDATE SET
  credits = EXCLUDED.credits,
  updated_at = now()`
	_, err := s.DB.ExecContext(ctx, query, rec.UserID, rec.Credits)
	return err
}

func (s *PGStore) Increment(ctx context.Context, userID string, delta float64) (Record, error) {
	const query = `
UPDATE ledger SET credits = credits + $1, updated_at = now()
WHERE user_id = $2
RETURNING user_id, credits, created_at, updated_at`
	var rec Record
	err := s.DB.QueryRowContext(ctx, query, delta, userID).Scan(&rec.UserID, &rec.Credits, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

func (s *PGStore) Subscribe(ctx context.Context, userID string) (<-chan Snapshot, func(), error) {
	if s.Listen == nil {
		return nil, nil, errors.New("ledger listener not configured")
	}
	listener, err := s.Listen(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("dial listener: %w", err)
	}
	if err := listener.Listen(ctx, db.LedgerChannel); err != nil {
		_ = listener.Close(context.Background())
		return nil, nil, fmt.Errorf("listen: %w", err)
	}
	first, err := s.snapshot(ctx, userID)
	if err != nil {
		_ = listener.Close(context.Background())
		return nil, nil, err
	}

	subCtx, stop := context.WithCancel(ctx)
	out := make(chan Snapshot, 1)
	out <- first
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(out)
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = listener.Close(closeCtx)
		}()
		for {
			payload, err := listener.WaitForNotification(subCtx)
			if err != nil {
				if subCtx.Err() == nil {
					telemetry.Warn("ledger.listen_failed", map[string]any{"user_id": userID, "error": err})
				}
				return
			}
			if payload != userID {
				continue
			}
			snap, err := s.snapshot(subCtx, userID)
			if err != nil {
				if subCtx.Err() == nil {
					telemetry.Warn("ledger.snapshot_failed", map[string]any{"user_id": userID, "error": err})
				}
				continue
			}
			select {
			case <-out:
			default:
			}
			out <- snap
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			stop()
			<-done
		})
	}
	return out, cancel, nil
}

func (s *PGStore) snapshot(ctx context.Context, userID string) (Snapshot, error) {
	rec, err := s.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Exists: true, Credits: rec.Credits}, nil
}

type pgxListener struct {
	conn *pgx.Conn
}

func (l *pgxListener) Listen(ctx context.Context, channel string) error {
	_, err := l.conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize())
	return err
}

func (l *pgxListener) WaitForNotification(ctx context.Context) (string, error) {
	n, err := l.conn.WaitForNotification(ctx)
	if err != nil {
		return "", err
	}
	return n.Payload, nil
}

func (l *pgxListener) Close(ctx context.Context) error {
	return l.conn.Close(ctx)
}

var _ Store = (*PGStore)(nil)
