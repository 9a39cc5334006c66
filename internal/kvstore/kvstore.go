// Package kvstore provides the durable local key-value store backing session
// and meal-plan persistence on the device. Keys are plain strings, values are
// opaque bytes; there are no multi-key transactional guarantees.
package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no stored value.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is an asynchronous get/set/remove key-value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
