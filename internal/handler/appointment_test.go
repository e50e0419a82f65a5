package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avicena/wellness-marketplace/internal/auth"
	"github.com/avicena/wellness-marketplace/internal/middleware"
	"github.com/avicena/wellness-marketplace/internal/model"
	"github.com/avicena/wellness-marketplace/internal/repository"
	"github.com/avicena/wellness-marketplace/internal/store"
)

type apptFixture struct {
	h            *AppointmentHandler
	customer     *model.User
	practitioner *model.User
	service      *model.Service
}

func newApptFixture(t *testing.T) *apptFixture {
	t.Helper()
	kv := store.NewMemoryKV()
	users := repository.NewUserRepo(kv)
	services := repository.NewServiceRepo(kv)
	appointments := repository.NewAppointmentRepo(kv)

	cust := &model.User{ID: "cust-1", Email: "c@example.com", Role: auth.RoleCustomer, Active: true}
	prac := &model.User{
		ID: "prac-1", Email: "p@example.com", Role: auth.RolePractitioner,
		Permissions: auth.DefaultPermissions(auth.RolePractitioner), Active: true,
	}
	require.NoError(t, users.Create(context.Background(), cust))
	require.NoError(t, users.Create(context.Background(), prac))

	svc := &model.Service{
		ID: "svc-1", PractitionerID: prac.ID, Title: "Deep tissue massage",
		Category: "massage", DurationMin: 60, PriceCents: 8000, Active: true,
	}
	require.NoError(t, services.Create(context.Background(), svc))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &apptFixture{
		h:            NewAppointmentHandler(appointments, services, users, log),
		customer:     cust,
		practitioner: prac,
		service:      svc,
	}
}

// call invokes a handler with an authenticated subject and an optional
// :id path param and JSON body.
func call(u *model.User, h echo.HandlerFunc, id, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.SubjectKey, u)
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	_ = h(c)
	return rec
}

func (f *apptFixture) book(t *testing.T) *model.Appointment {
	t.Helper()
	starts := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	body := `{"service_id":"svc-1","starts_at":"` + starts.Format(time.RFC3339) + `"}`
	rec := call(f.customer, f.h.Book, "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var a model.Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	return &a
}

func TestBook(t *testing.T) {
	f := newApptFixture(t)
	a := f.book(t)

	assert.Equal(t, model.AppointmentPending, a.Status)
	assert.Equal(t, "cust-1", a.CustomerID)
	assert.Equal(t, "prac-1", a.PractitionerID)
	// Duration comes from the service, not the request.
	assert.Equal(t, 60, a.DurationMin)
}

func TestBookValidation(t *testing.T) {
	f := newApptFixture(t)

	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	rec := call(f.customer, f.h.Book, "", `{"service_id":"svc-1","starts_at":"`+past+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	rec = call(f.customer, f.h.Book, "", `{"service_id":"ghost","starts_at":"`+future+`"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookInactiveService(t *testing.T) {
	f := newApptFixture(t)
	prev := *f.service
	f.service.Active = false
	require.NoError(t, f.h.Services.Update(context.Background(), f.service, &prev))

	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	rec := call(f.customer, f.h.Book, "", `{"service_id":"svc-1","starts_at":"`+future+`"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAppointmentVisibility(t *testing.T) {
	f := newApptFixture(t)
	a := f.book(t)

	assert.Equal(t, http.StatusOK, call(f.customer, f.h.Get, a.ID, "").Code)
	assert.Equal(t, http.StatusOK, call(f.practitioner, f.h.Get, a.ID, "").Code)

	outsider := &model.User{ID: "other", Role: auth.RoleCustomer, Active: true}
	assert.Equal(t, http.StatusForbidden, call(outsider, f.h.Get, a.ID, "").Code)

	admin := &model.User{ID: "root", Role: auth.RoleSuperAdmin, Active: true}
	assert.Equal(t, http.StatusOK, call(admin, f.h.Get, a.ID, "").Code)
}

func TestAppointmentLifecycle(t *testing.T) {
	f := newApptFixture(t)
	a := f.book(t)

	// The customer cannot confirm their own booking.
	assert.Equal(t, http.StatusForbidden, call(f.customer, f.h.Confirm, a.ID, "").Code)

	// Completing before confirmation conflicts.
	assert.Equal(t, http.StatusConflict, call(f.practitioner, f.h.Complete, a.ID, "").Code)

	assert.Equal(t, http.StatusOK, call(f.practitioner, f.h.Confirm, a.ID, "").Code)
	assert.Equal(t, http.StatusOK, call(f.practitioner, f.h.Complete, a.ID, "").Code)

	// Terminal: no further transitions.
	assert.Equal(t, http.StatusConflict, call(f.practitioner, f.h.Cancel, a.ID, "").Code)
	assert.Equal(t, http.StatusConflict, call(f.customer, f.h.Cancel, a.ID, "").Code)
}

func TestAppointmentCancelEitherSide(t *testing.T) {
	f := newApptFixture(t)

	a := f.book(t)
	assert.Equal(t, http.StatusOK, call(f.customer, f.h.Cancel, a.ID, "").Code)

	b := f.book(t)
	assert.Equal(t, http.StatusOK, call(f.practitioner, f.h.Cancel, b.ID, "").Code)

	outsider := &model.User{ID: "other", Role: auth.RoleCustomer, Active: true}
	c := f.book(t)
	assert.Equal(t, http.StatusForbidden, call(outsider, f.h.Cancel, c.ID, "").Code)
}

func TestSchedule(t *testing.T) {
	f := newApptFixture(t)
	a := f.book(t)

	rec := call(f.practitioner, f.h.Schedule, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var as []*model.Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &as))
	require.Len(t, as, 1)
	assert.Equal(t, a.ID, as[0].ID)

	// ?day narrows to one calendar day.
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?day=1999-01-01", nil)
	wr := httptest.NewRecorder()
	c := e.NewContext(req, wr)
	c.Set(middleware.SubjectKey, f.practitioner)
	require.NoError(t, f.h.Schedule(c))
	require.NoError(t, json.Unmarshal(wr.Body.Bytes(), &as))
	assert.Empty(t, as)
}
