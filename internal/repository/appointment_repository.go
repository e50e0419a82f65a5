package repository

import (
	"context"
	"time"

	"github.com/avicena/wellness-marketplace/internal/model"
	"github.com/avicena/wellness-marketplace/internal/store"
)

// appointmentKeys: canonical key plus customer, practitioner and calendar
// day indexes. Both sides of a booking and the practitioner's day view are
// each one prefix scan.
var appointmentKeys = store.NewKeySet(
	func(a *model.Appointment) string { return "appointment:" + a.ID },
	func(a *model.Appointment) string { return "appointment_customer:" + a.CustomerID + ":" + a.ID },
	func(a *model.Appointment) string { return "appointment_practitioner:" + a.PractitionerID + ":" + a.ID },
	func(a *model.Appointment) string { return "appointment_day:" + a.Day() + ":" + a.ID },
)

// AppointmentRepo persists bookings.
type AppointmentRepo struct{ KV store.KV }

func NewAppointmentRepo(kv store.KV) *AppointmentRepo { return &AppointmentRepo{KV: kv} }

func (r *AppointmentRepo) Create(ctx context.Context, a *model.Appointment) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	return store.Put(ctx, r.KV, appointmentKeys, a, 0)
}

func (r *AppointmentRepo) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	return store.Get[model.Appointment](ctx, r.KV, "appointment:"+id)
}

// SetStatus transitions the appointment and rewrites every copy. Moves out
// of a terminal status are rejected as conflicts.
func (r *AppointmentRepo) SetStatus(ctx context.Context, a *model.Appointment, status string) error {
	if a.Terminal() {
		return ErrConflict
	}
	a.Status = status
	a.UpdatedAt = time.Now().UTC()
	return store.Put(ctx, r.KV, appointmentKeys, a, 0)
}

func (r *AppointmentRepo) ListByCustomer(ctx context.Context, customerID string, limit int) ([]*model.Appointment, error) {
	return store.ListByPrefix[model.Appointment](ctx, r.KV, "appointment_customer:"+customerID+":", limit)
}

func (r *AppointmentRepo) ListByPractitioner(ctx context.Context, practitionerID string, limit int) ([]*model.Appointment, error) {
	return store.ListByPrefix[model.Appointment](ctx, r.KV, "appointment_practitioner:"+practitionerID+":", limit)
}

func (r *AppointmentRepo) ListByDay(ctx context.Context, day string, limit int) ([]*model.Appointment, error) {
	return store.ListByPrefix[model.Appointment](ctx, r.KV, "appointment_day:"+day+":", limit)
}

func (r *AppointmentRepo) List(ctx context.Context, limit int) ([]*model.Appointment, error) {
	return store.ListByPrefix[model.Appointment](ctx, r.KV, "appointment:", limit)
}
