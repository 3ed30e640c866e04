package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a key holds no value. It is a normal outcome,
// distinct from a storage failure.
var ErrNotFound = errors.New("not found")

// Backend is a flat key-value namespace. Keys are opaque strings; values are
// the raw JSON bytes of an item.
type Backend interface {
	// Get returns ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put overwrites any previous value.
	Put(ctx context.Context, key string, value []byte) error
	// Delete succeeds when the key is already absent.
	Delete(ctx context.Context, key string) error
	// Keys lists every key starting with prefix, in backend order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// StorageError reports a backend I/O failure or a malformed stored value.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageError(op, key string, err error) error {
	return &StorageError{Op: op, Key: key, Err: err}
}
