package ledger

import "context"

// Store is the document store holding ledger records.
type Store interface {
	Get(ctx context.Context, userID string) (Record, error)
	// Set creates or overwrites the record.
	Set(ctx context.Context, rec Record) error
	// Increment atomically adds delta to the stored balance. It returns
	// ErrNotFound when there is no record.
	Increment(ctx context.Context, userID string, delta float64) (Record, error)
	// Subscribe delivers the current snapshot and then one per change. The
	// channel is closed after cancel is called or ctx ends.
	Subscribe(ctx context.Context, userID string) (<-chan Snapshot, func(), error)
}
