package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"

	"github.com/avicena/wellness-marketplace/internal/ids"
	"github.com/avicena/wellness-marketplace/internal/middleware"
	"github.com/avicena/wellness-marketplace/internal/model"
	"github.com/avicena/wellness-marketplace/internal/queue"
	"github.com/avicena/wellness-marketplace/internal/repository"
	publisher "github.com/avicena/wellness-marketplace/internal/service"
)

// AppointmentHandler implements the booking lifecycle. Customers book,
// practitioners confirm/complete, either side cancels. Confirmation
// publishes an event for downstream consumers (notifications, analytics);
// publish failures are logged, never surfaced to the client.
type AppointmentHandler struct {
	Appointments *repository.AppointmentRepo
	Services     *repository.ServiceRepo
	Users        *repository.UserRepo
	Log          *slog.Logger
}

func NewAppointmentHandler(a *repository.AppointmentRepo, s *repository.ServiceRepo, u *repository.UserRepo, log *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{Appointments: a, Services: s, Users: u, Log: log}
}

type bookReq struct {
	ServiceID string    `json:"service_id"`
	StartsAt  time.Time `json:"starts_at"`
	Note      string    `json:"note"`
}

func (r bookReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ServiceID, validation.Required),
		validation.Field(&r.StartsAt, validation.Required),
		validation.Field(&r.Note, validation.Length(0, 2000)),
	)
}

// Book creates a PENDING appointment for the calling customer against an
// active service.
func (h *AppointmentHandler) Book(c echo.Context) error {
	var req bookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if req.StartsAt.Before(time.Now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be in the future"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	svc, err := h.Services.GetByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !svc.Active {
		return c.JSON(http.StatusConflict, echo.Map{"error": "service is not bookable"})
	}

	u := middleware.Subject(c)
	a := &model.Appointment{
		ID:             ids.New(),
		CustomerID:     u.ID,
		PractitionerID: svc.PractitionerID,
		ServiceID:      svc.ID,
		StartsAt:       req.StartsAt.UTC(),
		DurationMin:    svc.DurationMin,
		Status:         model.AppointmentPending,
		Note:           req.Note,
	}
	if err := h.Appointments.Create(ctx, a); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, a)
}

// Get returns one appointment, visible only to its two parties.
func (h *AppointmentHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()
	a, err := h.Appointments.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "appointment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	u := middleware.Subject(c)
	if !middleware.CanModify(u, a.CustomerID) && !middleware.CanModify(u, a.PractitionerID) {
		return middleware.Forbidden(c)
	}
	return c.JSON(http.StatusOK, a)
}

// Confirm moves PENDING to CONFIRMED. Practitioner side only.
func (h *AppointmentHandler) Confirm(c echo.Context) error {
	return h.transition(c, model.AppointmentConfirmed, func(u *model.User, a *model.Appointment) bool {
		return middleware.CanModify(u, a.PractitionerID)
	})
}

// Complete moves CONFIRMED to COMPLETED. Practitioner side only.
func (h *AppointmentHandler) Complete(c echo.Context) error {
	return h.transition(c, model.AppointmentCompleted, func(u *model.User, a *model.Appointment) bool {
		return middleware.CanModify(u, a.PractitionerID)
	})
}

// Cancel is open to either side while the appointment is not terminal.
func (h *AppointmentHandler) Cancel(c echo.Context) error {
	return h.transition(c, model.AppointmentCancelled, func(u *model.User, a *model.Appointment) bool {
		return middleware.CanModify(u, a.CustomerID) || middleware.CanModify(u, a.PractitionerID)
	})
}

func (h *AppointmentHandler) transition(c echo.Context, status string, allowed func(*model.User, *model.Appointment) bool) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	a, err := h.Appointments.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "appointment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !allowed(middleware.Subject(c), a) {
		return middleware.Forbidden(c)
	}
	if status == model.AppointmentCompleted && a.Status != model.AppointmentConfirmed {
		return c.JSON(http.StatusConflict, echo.Map{"error": "appointment is not confirmed"})
	}
	if err := h.Appointments.SetStatus(ctx, a, status); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "appointment already finalized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	if status == model.AppointmentConfirmed {
		h.publishConfirmed(a)
	}
	return c.JSON(http.StatusOK, a)
}

// publishConfirmed emits the confirmation event in the background; the
// booking flow never waits on the broker.
func (h *AppointmentHandler) publishConfirmed(a *model.Appointment) {
	ev := queue.AppointmentConfirmedEvent{
		AppointmentID:  a.ID,
		CustomerID:     a.CustomerID,
		PractitionerID: a.PractitionerID,
		ServiceID:      a.ServiceID,
		StartsAt:       a.StartsAt.Format(time.RFC3339),
		DurationMin:    a.DurationMin,
		ConfirmedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := publisher.PublishAppointmentConfirmed(ctx, ev); err != nil {
			h.Log.Warn("appointment event publish failed", "appointment", a.ID, "err", err)
		}
	}()
}

// Mine lists the calling customer's bookings.
func (h *AppointmentHandler) Mine(c echo.Context) error {
	u := middleware.Subject(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()
	as, err := h.Appointments.ListByCustomer(ctx, u.ID, listLimit(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, as)
}

// Schedule lists the calling practitioner's bookings, optionally narrowed
// to one calendar day with ?day=YYYY-MM-DD.
func (h *AppointmentHandler) Schedule(c echo.Context) error {
	u := middleware.Subject(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	as, err := h.Appointments.ListByPractitioner(ctx, u.ID, listLimit(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if day := c.QueryParam("day"); day != "" {
		filtered := make([]*model.Appointment, 0, len(as))
		for _, a := range as {
			if a.Day() == day {
				filtered = append(filtered, a)
			}
		}
		as = filtered
	}
	return c.JSON(http.StatusOK, as)
}
