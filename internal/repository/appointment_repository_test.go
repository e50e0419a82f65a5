package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avicena/wellness-marketplace/internal/model"
	"github.com/avicena/wellness-marketplace/internal/store"
)

func newTestAppointment(id string) *model.Appointment {
	return &model.Appointment{
		ID:             id,
		CustomerID:     "cust-1",
		PractitionerID: "prac-1",
		ServiceID:      "svc-1",
		StartsAt:       time.Date(2026, 4, 10, 15, 0, 0, 0, time.UTC),
		DurationMin:    60,
		Status:         model.AppointmentPending,
	}
}

func TestAppointmentIndexes(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentRepo(store.NewMemoryKV())

	a := newTestAppointment("a1")
	require.NoError(t, repo.Create(ctx, a))

	byCustomer, err := repo.ListByCustomer(ctx, "cust-1", 0)
	require.NoError(t, err)
	require.Len(t, byCustomer, 1)
	assert.Equal(t, "a1", byCustomer[0].ID)

	byPractitioner, err := repo.ListByPractitioner(ctx, "prac-1", 0)
	require.NoError(t, err)
	assert.Len(t, byPractitioner, 1)

	byDay, err := repo.ListByDay(ctx, "2026-04-10", 0)
	require.NoError(t, err)
	assert.Len(t, byDay, 1)

	byOtherDay, err := repo.ListByDay(ctx, "2026-04-11", 0)
	require.NoError(t, err)
	assert.Empty(t, byOtherDay)
}

func TestAppointmentStatusLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentRepo(store.NewMemoryKV())

	a := newTestAppointment("a1")
	require.NoError(t, repo.Create(ctx, a))

	require.NoError(t, repo.SetStatus(ctx, a, model.AppointmentConfirmed))
	require.NoError(t, repo.SetStatus(ctx, a, model.AppointmentCompleted))

	// Terminal statuses are final.
	err := repo.SetStatus(ctx, a, model.AppointmentCancelled)
	assert.ErrorIs(t, err, ErrConflict)

	got, err := repo.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentCompleted, got.Status)

	// Every index copy reflects the final status.
	byDay, err := repo.ListByDay(ctx, a.Day(), 0)
	require.NoError(t, err)
	require.Len(t, byDay, 1)
	assert.Equal(t, model.AppointmentCompleted, byDay[0].Status)
}

func TestAppointmentCancelFromPending(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentRepo(store.NewMemoryKV())

	a := newTestAppointment("a1")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.SetStatus(ctx, a, model.AppointmentCancelled))

	err := repo.SetStatus(ctx, a, model.AppointmentConfirmed)
	assert.ErrorIs(t, err, ErrConflict)
}
