// Package store provides the key-value contract the service persists
// through, plus the keyed record store that implements the "one record,
// many keys" denormalization pattern every resource type uses.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no value exists under the key.
var ErrNotFound = errors.New("store: key not found")

// KV is the entire contract required from the backing storage: point reads
// and writes plus prefix listing. No transactions, no secondary indexes, no
// range queries — anything richer is built above this interface by
// denormalizing records under multiple keys.
type KV interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Put stores value under key. A non-zero ttl expires the key.
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns up to limit keys sharing the prefix. Order follows the
	// backing store's iteration order; callers needing a stable order sort
	// the decoded records themselves.
	List(ctx context.Context, prefix string, limit int) ([]string, error)
}
