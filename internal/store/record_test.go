package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	ID     string `json:"id"`
	Author string `json:"author"`
	Body   string `json:"body"`
}

var noteKeys = NewKeySet(
	func(n *note) string { return "note:" + n.ID },
	func(n *note) string { return "note_author:" + n.Author + ":" + n.ID },
)

func TestPutFansOutIdenticalCopies(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	rec := &note{ID: "n1", Author: "ada", Body: "hello"}

	require.NoError(t, Put(ctx, kv, noteKeys, rec, 0))

	primary, err := kv.Get(ctx, "note:n1")
	require.NoError(t, err)
	secondary, err := kv.Get(ctx, "note_author:ada:n1")
	require.NoError(t, err)
	assert.Equal(t, primary, secondary)

	got, err := Get[note](ctx, kv, "note_author:ada:n1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestGetNotFound(t *testing.T) {
	_, err := Get[note](context.Background(), NewMemoryKV(), "note:absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetUndecodable(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Put(ctx, "note:bad", "{not json", 0))

	_, err := Get[note](ctx, kv, "note:bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestDeleteRemovesEveryCopy(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	rec := &note{ID: "n1", Author: "ada"}
	require.NoError(t, Put(ctx, kv, noteKeys, rec, 0))

	require.NoError(t, Delete(ctx, kv, noteKeys, rec))

	for _, key := range noteKeys.Resolve(rec) {
		_, err := kv.Get(ctx, key)
		assert.ErrorIs(t, err, ErrNotFound, "key %s", key)
	}

	// Deleting again is a no-op, not an error.
	require.NoError(t, Delete(ctx, kv, noteKeys, rec))
}

func TestListByPrefix(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	for _, rec := range []*note{
		{ID: "n1", Author: "ada"},
		{ID: "n2", Author: "ada"},
		{ID: "n3", Author: "bob"},
	} {
		require.NoError(t, Put(ctx, kv, noteKeys, rec, 0))
	}

	ada, err := ListByPrefix[note](ctx, kv, "note_author:ada:", 0)
	require.NoError(t, err)
	require.Len(t, ada, 2)
	for _, n := range ada {
		assert.Equal(t, "ada", n.Author)
	}

	all, err := ListByPrefix[note](ctx, kv, "note:", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := ListByPrefix[note](ctx, kv, "note:", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestListByPrefixSkipsStaleCopies(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, Put(ctx, kv, noteKeys, &note{ID: "n1", Author: "ada"}, 0))
	require.NoError(t, kv.Put(ctx, "note:stale", "{not json", 0))

	out, err := ListByPrefix[note](ctx, kv, "note:", 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "n1", out[0].ID)
}

func TestKeySetRequiresPrimary(t *testing.T) {
	assert.Panics(t, func() { NewKeySet[note]() })
}

func TestMemoryKVTTL(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Put(ctx, "k", "v", time.Millisecond))

	time.Sleep(5 * time.Millisecond)
	_, err := kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	keys, err := kv.List(ctx, "k", 0)
	require.NoError(t, err)
	assert.Empty(t, keys)
}
