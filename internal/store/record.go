package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// KeySet is the full set of key templates for one resource type, declared
// once next to the resource's repository. Put and Delete both resolve the
// same set, so no write path can update fewer copies than another.
type KeySet[T any] struct {
	templates []func(*T) string
}

// NewKeySet declares the templates for a resource. The first template is
// the primary key; the rest are secondary index keys.
func NewKeySet[T any](templates ...func(*T) string) KeySet[T] {
	if len(templates) == 0 {
		panic("store: KeySet requires at least a primary key template")
	}
	return KeySet[T]{templates: templates}
}

// Resolve returns every storage key for the record, primary key first.
func (ks KeySet[T]) Resolve(rec *T) []string {
	keys := make([]string, len(ks.templates))
	for i, t := range ks.templates {
		keys[i] = t(rec)
	}
	return keys
}

// Put serializes the record once and writes the identical bytes under every
// key in the set. The writes are dispatched together and all awaited, so a
// partial fan-out surfaces as one aggregate error instead of silently
// leaving an index stale. The store offers no transactions: copies can
// still diverge if the process dies mid-fan-out, which is an accepted,
// bounded risk of this pattern.
func Put[T any](ctx context.Context, kv KV, ks KeySet[T], rec *T, ttl time.Duration) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: marshal record: %w", err)
	}
	keys := ks.Resolve(rec)
	errs := make([]error, len(keys))
	var wg sync.WaitGroup
	for n, key := range keys {
		wg.Add(1)
		go func(n int, key string) {
			defer wg.Done()
			if err := kv.Put(ctx, key, string(raw), ttl); err != nil {
				errs[n] = fmt.Errorf("put %s: %w", key, err)
			}
		}(n, key)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Get reads and decodes the record stored under one key, normally the
// primary key. A decode failure is an internal fault, not a NotFound.
func Get[T any](ctx context.Context, kv KV, key string) (*T, error) {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	rec := new(T)
	if err := json.Unmarshal([]byte(raw), rec); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", key, err)
	}
	return rec, nil
}

// Delete removes every fan-out key for the record, dispatched together like
// Put so a missed index is an aggregate error rather than a silent orphan.
func Delete[T any](ctx context.Context, kv KV, ks KeySet[T], rec *T) error {
	keys := ks.Resolve(rec)
	errs := make([]error, len(keys))
	var wg sync.WaitGroup
	for n, key := range keys {
		wg.Add(1)
		go func(n int, key string) {
			defer wg.Done()
			if err := kv.Delete(ctx, key); err != nil {
				errs[n] = fmt.Errorf("delete %s: %w", key, err)
			}
		}(n, key)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// ListByPrefix scans an index prefix and decodes up to limit records. This
// is the store's only query mechanism; filtering and sorting happen in the
// caller, in memory. A key that vanished or fails to decode between the
// scan and the read is skipped — readers must tolerate dangling copies.
func ListByPrefix[T any](ctx context.Context, kv KV, prefix string, limit int) ([]*T, error) {
	keys, err := kv.List(ctx, prefix, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(keys))
	for _, key := range keys {
		rec, err := Get[T](ctx, kv, key)
		if err != nil {
			// Expired between scan and read, or a stale undecodable copy.
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
