package repository

import (
	"context"
	"time"

	"github.com/avicena/wellness-marketplace/internal/model"
	"github.com/avicena/wellness-marketplace/internal/store"
)

// productKeys: canonical key plus the category index for public browsing.
var productKeys = store.NewKeySet(
	func(p *model.Product) string { return "product:" + p.ID },
	func(p *model.Product) string { return "product_category:" + p.Category + ":" + p.ID },
)

// ProductRepo persists the retail catalog.
type ProductRepo struct{ KV store.KV }

func NewProductRepo(kv store.KV) *ProductRepo { return &ProductRepo{KV: kv} }

func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	return store.Put(ctx, r.KV, productKeys, p, 0)
}

func (r *ProductRepo) GetByID(ctx context.Context, id string) (*model.Product, error) {
	return store.Get[model.Product](ctx, r.KV, "product:"+id)
}

// Update rewrites all copies, removing the old category index entry first
// when the category changed (prev may be nil when it did not).
func (r *ProductRepo) Update(ctx context.Context, p, prev *model.Product) error {
	if prev != nil && prev.Category != p.Category {
		if err := store.Delete(ctx, r.KV, productKeys, prev); err != nil {
			return err
		}
	}
	p.UpdatedAt = time.Now().UTC()
	return store.Put(ctx, r.KV, productKeys, p, 0)
}

func (r *ProductRepo) Delete(ctx context.Context, p *model.Product) error {
	return store.Delete(ctx, r.KV, productKeys, p)
}

func (r *ProductRepo) ListByCategory(ctx context.Context, category string, limit int) ([]*model.Product, error) {
	return store.ListByPrefix[model.Product](ctx, r.KV, "product_category:"+category+":", limit)
}

func (r *ProductRepo) List(ctx context.Context, limit int) ([]*model.Product, error) {
	return store.ListByPrefix[model.Product](ctx, r.KV, "product:", limit)
}
