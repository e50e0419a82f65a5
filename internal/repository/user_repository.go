package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/avicena/wellness-marketplace/internal/model"
	"github.com/avicena/wellness-marketplace/internal/store"
)

// userKeys is the single declaration of every key a user record lives
// under: the canonical id key and the email index used for login and
// uniqueness checks.
var userKeys = store.NewKeySet(
	func(u *model.User) string { return "user:" + u.ID },
	func(u *model.User) string { return "user_email:" + u.Email },
)

// UserRepo persists credential records.
type UserRepo struct{ KV store.KV }

func NewUserRepo(kv store.KV) *UserRepo { return &UserRepo{KV: kv} }

// Create stores a new user. The email index doubles as the uniqueness
// check: if it already resolves, the registration conflicts. The store has
// no transactions, so two racing registrations of the same email can in
// principle both pass the check; the second write then wins both keys,
// which keeps the copies consistent even in that race.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	if _, err := r.KV.Get(ctx, "user_email:"+u.Email); err == nil {
		return ErrEmailExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	return store.Put(ctx, r.KV, userKeys, u, 0)
}

// GetByID fetches a user by its canonical key.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return store.Get[model.User](ctx, r.KV, "user:"+id)
}

// GetByEmail fetches a user through the email index.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return store.Get[model.User](ctx, r.KV, "user_email:"+NormalizeEmail(email))
}

// Update rewrites the record under the full key set. The caller must have
// loaded the record through this repo so the email matches the index key.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	u.UpdatedAt = time.Now().UTC()
	return store.Put(ctx, r.KV, userKeys, u, 0)
}

// List scans all user records up to limit. The "user:" prefix does not
// collide with the "user_email:" index, so each user appears once.
func (r *UserRepo) List(ctx context.Context, limit int) ([]*model.User, error) {
	return store.ListByPrefix[model.User](ctx, r.KV, "user:", limit)
}

// NormalizeEmail lower-cases and trims an address so lookups and the index
// key agree on one canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
