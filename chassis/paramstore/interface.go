package paramstore

import (
	"context"
	"errors"
)

// ErrNotFound - the key was never written
var ErrNotFound = errors.New("parameter not found")

// Parameter - latest value stored under a key.
// Version grows by one on every overwrite.
type Parameter struct {
	Name    string
	Value   string
	Version int64
}

// Store - durable key/value store shared between otherwise stateless invocations.
// Put always overwrites, Get always returns the latest value.
type Store interface {
	Put(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (*Parameter, error)
}
