package ledger

import (
	"errors"
	"fmt"
	"time"
)

const (
	// InitialCredits is granted once per identity.
	InitialCredits = 1.0
	// UploadCost is deducted after every successful upload.
	UploadCost = 0.25
)

// NoCreditsMessage is shown while the balance is zero or negative.
const NoCreditsMessage = "You have no credits left. Uploads are disabled until your balance is topped up."

// ErrNotFound reports a missing ledger record.
var ErrNotFound = errors.New("ledger record not found")

// ErrStreamClosed reports a balance subscription that ended without being
// cancelled.
var ErrStreamClosed = errors.New("live balance updates stopped")

// Record is the document-store entry keyed by user ID.
type Record struct {
	UserID    string    `json:"userId"`
	Credits   float64   `json:"credits"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Snapshot is one push from a subscription.
type Snapshot struct {
	Exists  bool
	Credits float64
}

// LedgerError wraps document-store failures.
type LedgerError struct {
	Op     string
	UserID string
	Err    error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger %s for %s: %v", e.Op, e.UserID, e.Err)
}

func (e *LedgerError) Unwrap() error { return e.Err }

// CanUpload reports whether a balance unlocks uploads.
func CanUpload(balance float64) bool {
	return balance > 0
}
