package object

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("object not found")

// Info describes one stored object returned by List.
type Info struct {
	Key        string
	Name       string
	SizeBytes  int64
	ModifiedAt time.Time
}

// Store defines the contract for namespaced binary objects.
type Store interface {
	// Put writes r at key, replacing any existing object.
	Put(ctx context.Context, key string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// List returns the objects directly under prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	// URL resolves a download locator for key.
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}
