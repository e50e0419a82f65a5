package repository

import (
	"context"
	"time"

	"github.com/avicena/wellness-marketplace/internal/model"
	"github.com/avicena/wellness-marketplace/internal/store"
)

// reviewKeys: canonical key plus practitioner and author indexes.
var reviewKeys = store.NewKeySet(
	func(v *model.Review) string { return "review:" + v.ID },
	func(v *model.Review) string { return "review_practitioner:" + v.PractitionerID + ":" + v.ID },
	func(v *model.Review) string { return "review_author:" + v.AuthorID + ":" + v.ID },
)

// ReviewRepo persists practitioner reviews.
type ReviewRepo struct{ KV store.KV }

func NewReviewRepo(kv store.KV) *ReviewRepo { return &ReviewRepo{KV: kv} }

func (r *ReviewRepo) Create(ctx context.Context, v *model.Review) error {
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	return store.Put(ctx, r.KV, reviewKeys, v, 0)
}

func (r *ReviewRepo) GetByID(ctx context.Context, id string) (*model.Review, error) {
	return store.Get[model.Review](ctx, r.KV, "review:"+id)
}

func (r *ReviewRepo) Update(ctx context.Context, v *model.Review) error {
	v.UpdatedAt = time.Now().UTC()
	return store.Put(ctx, r.KV, reviewKeys, v, 0)
}

func (r *ReviewRepo) Delete(ctx context.Context, v *model.Review) error {
	return store.Delete(ctx, r.KV, reviewKeys, v)
}

func (r *ReviewRepo) ListByPractitioner(ctx context.Context, practitionerID string, limit int) ([]*model.Review, error) {
	return store.ListByPrefix[model.Review](ctx, r.KV, "review_practitioner:"+practitionerID+":", limit)
}

func (r *ReviewRepo) ListByAuthor(ctx context.Context, authorID string, limit int) ([]*model.Review, error) {
	return store.ListByPrefix[model.Review](ctx, r.KV, "review_author:"+authorID+":", limit)
}
