package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"

	"github.com/avicena/wellness-marketplace/internal/ids"
	"github.com/avicena/wellness-marketplace/internal/middleware"
	"github.com/avicena/wellness-marketplace/internal/model"
	"github.com/avicena/wellness-marketplace/internal/repository"
)

const defaultListLimit = 100

// ServiceHandler manages practitioner offerings. Creation and mutation are
// gated on the services.manage permission plus ownership; browsing is
// public.
type ServiceHandler struct {
	Services *repository.ServiceRepo
}

func NewServiceHandler(s *repository.ServiceRepo) *ServiceHandler {
	return &ServiceHandler{Services: s}
}

type serviceReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	DurationMin int    `json:"duration_min"`
	PriceCents  int64  `json:"price_cents"`
	Active      *bool  `json:"active"`
}

func (r serviceReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Length(0, 5000)),
		validation.Field(&r.Category, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.DurationMin, validation.Required, validation.Min(5), validation.Max(8*60)),
		validation.Field(&r.PriceCents, validation.Min(0)),
	)
}

// Create registers a new offering owned by the calling practitioner.
func (h *ServiceHandler) Create(c echo.Context) error {
	var req serviceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	u := middleware.Subject(c)
	s := &model.Service{
		ID:             ids.New(),
		PractitionerID: u.ID,
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		DurationMin:    req.DurationMin,
		PriceCents:     req.PriceCents,
		Active:         true,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()
	if err := h.Services.Create(ctx, s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, s)
}

// Get returns one offering by id.
func (h *ServiceHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()
	s, err := h.Services.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, s)
}

// Update rewrites an offering. The owner (or the top role) only.
func (h *ServiceHandler) Update(c echo.Context) error {
	var req serviceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()
	s, err := h.Services.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !middleware.CanModify(middleware.Subject(c), s.PractitionerID) {
		return middleware.Forbidden(c)
	}

	prev := *s
	s.Title = req.Title
	s.Description = req.Description
	s.Category = req.Category
	s.DurationMin = req.DurationMin
	s.PriceCents = req.PriceCents
	if req.Active != nil {
		s.Active = *req.Active
	}
	if err := h.Services.Update(ctx, s, &prev); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, s)
}

// Delete removes an offering and every index copy. Owner or top role only.
func (h *ServiceHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()
	s, err := h.Services.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !middleware.CanModify(middleware.Subject(c), s.PractitionerID) {
		return middleware.Forbidden(c)
	}
	if err := h.Services.Delete(ctx, s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Mine lists the calling practitioner's own offerings, active or not.
func (h *ServiceHandler) Mine(c echo.Context) error {
	u := middleware.Subject(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()
	services, err := h.Services.ListByPractitioner(ctx, u.ID, listLimit(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, services)
}

// Browse lists active offerings, optionally filtered by ?category=. All
// filtering happens here in memory after the prefix scan; the store has no
// secondary filtering of its own.
func (h *ServiceHandler) Browse(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	var (
		services []*model.Service
		err      error
	)
	if cat := c.QueryParam("category"); cat != "" {
		services, err = h.Services.ListByCategory(ctx, cat, listLimit(c))
	} else {
		services, err = h.Services.List(ctx, listLimit(c))
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	active := make([]*model.Service, 0, len(services))
	for _, s := range services {
		if s.Active {
			active = append(active, s)
		}
	}
	return c.JSON(http.StatusOK, active)
}

// listLimit reads ?limit= with a sane cap.
func listLimit(c echo.Context) int {
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			return n
		}
	}
	return defaultListLimit
}
