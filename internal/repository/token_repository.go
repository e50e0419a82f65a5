package repository

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/avicena/wellness-marketplace/internal/store"
)

// TokenRepo persists the single currently-valid refresh token per subject.
// The record is one key (`refresh:{subjectID}`) holding the SHA-256 hash of
// the token string, expiring with the token's TTL. Every refresh or login
// overwrites it, which is what revokes the previous token: a presented
// refresh token whose hash does not match the stored one is rejected even
// if its signature is still valid.
type TokenRepo struct{ KV store.KV }

func NewTokenRepo(kv store.KV) *TokenRepo { return &TokenRepo{KV: kv} }

func refreshKey(subjectID string) string { return "refresh:" + subjectID }

// StoreRefresh replaces the subject's refresh record with the given token
// hash. The single-key overwrite is atomic from the store's perspective,
// which is the only rotation guarantee this layer provides.
func (r *TokenRepo) StoreRefresh(ctx context.Context, subjectID, tokenHash string, ttl time.Duration) error {
	return r.KV.Put(ctx, refreshKey(subjectID), tokenHash, ttl)
}

// ValidateRefresh reports whether tokenHash matches the currently stored
// refresh token for the subject. A missing record (logged out, expired or
// rotated away) is simply a false result.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, subjectID, tokenHash string) (bool, error) {
	stored, err := r.KV.Get(ctx, refreshKey(subjectID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(tokenHash)) == 1, nil
}

// Revoke deletes the subject's refresh record, invalidating whatever
// refresh token is currently outstanding.
func (r *TokenRepo) Revoke(ctx context.Context, subjectID string) error {
	return r.KV.Delete(ctx, refreshKey(subjectID))
}
