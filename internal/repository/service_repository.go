package repository

import (
	"context"
	"time"

	"github.com/avicena/wellness-marketplace/internal/model"
	"github.com/avicena/wellness-marketplace/internal/store"
)

// serviceKeys: canonical key plus the practitioner and category indexes.
var serviceKeys = store.NewKeySet(
	func(s *model.Service) string { return "service:" + s.ID },
	func(s *model.Service) string { return "service_practitioner:" + s.PractitionerID + ":" + s.ID },
	func(s *model.Service) string { return "service_category:" + s.Category + ":" + s.ID },
)

// ServiceRepo persists practitioner offerings.
type ServiceRepo struct{ KV store.KV }

func NewServiceRepo(kv store.KV) *ServiceRepo { return &ServiceRepo{KV: kv} }

func (r *ServiceRepo) Create(ctx context.Context, s *model.Service) error {
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	return store.Put(ctx, r.KV, serviceKeys, s, 0)
}

func (r *ServiceRepo) GetByID(ctx context.Context, id string) (*model.Service, error) {
	return store.Get[model.Service](ctx, r.KV, "service:"+id)
}

// Update rewrites all copies. If the category changed, the record under the
// old category index must be removed first; callers do that by passing the
// previously loaded record as prev (nil when unchanged).
func (r *ServiceRepo) Update(ctx context.Context, s, prev *model.Service) error {
	if prev != nil && prev.Category != s.Category {
		if err := store.Delete(ctx, r.KV, serviceKeys, prev); err != nil {
			return err
		}
	}
	s.UpdatedAt = time.Now().UTC()
	return store.Put(ctx, r.KV, serviceKeys, s, 0)
}

func (r *ServiceRepo) Delete(ctx context.Context, s *model.Service) error {
	return store.Delete(ctx, r.KV, serviceKeys, s)
}

func (r *ServiceRepo) ListByPractitioner(ctx context.Context, practitionerID string, limit int) ([]*model.Service, error) {
	return store.ListByPrefix[model.Service](ctx, r.KV, "service_practitioner:"+practitionerID+":", limit)
}

func (r *ServiceRepo) ListByCategory(ctx context.Context, category string, limit int) ([]*model.Service, error) {
	return store.ListByPrefix[model.Service](ctx, r.KV, "service_category:"+category+":", limit)
}

func (r *ServiceRepo) List(ctx context.Context, limit int) ([]*model.Service, error) {
	return store.ListByPrefix[model.Service](ctx, r.KV, "service:", limit)
}
