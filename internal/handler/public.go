package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avicena/wellness-marketplace/internal/auth"
	"github.com/avicena/wellness-marketplace/internal/middleware"
	"github.com/avicena/wellness-marketplace/internal/repository"
)

// PublicHandler serves the unauthenticated browse surface. Routes are
// registered with OptionalAuthenticate, so output can be personalized when
// the caller happens to be logged in without requiring a session.
type PublicHandler struct {
	Users    *repository.UserRepo
	Services *repository.ServiceRepo
	Reviews  *repository.ReviewRepo
}

func NewPublicHandler(u *repository.UserRepo, s *repository.ServiceRepo, r *repository.ReviewRepo) *PublicHandler {
	return &PublicHandler{Users: u, Services: s, Reviews: r}
}

// Practitioner returns a practitioner's public profile with their active
// services and reviews. Logged-in viewers additionally learn whether they
// have already reviewed this practitioner.
func (h *PublicHandler) Practitioner(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, c.Param("id"))
	if err != nil || !u.Active || u.Role != auth.RolePractitioner {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "practitioner not found"})
	}

	all, err := h.Services.ListByPractitioner(ctx, u.ID, defaultListLimit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	services := all[:0]
	for _, s := range all {
		if s.Active {
			services = append(services, s)
		}
	}
	reviews, err := h.Reviews.ListByPractitioner(ctx, u.ID, defaultListLimit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	var ratingSum int
	for _, v := range reviews {
		ratingSum += v.Rating
	}
	var avg float64
	if len(reviews) > 0 {
		avg = float64(ratingSum) / float64(len(reviews))
	}

	resp := echo.Map{
		"practitioner": u.Public(),
		"services":     services,
		"reviews":      reviews,
		"rating_avg":   avg,
	}
	if viewer := middleware.Subject(c); viewer != nil {
		reviewed := false
		for _, v := range reviews {
			if v.AuthorID == viewer.ID {
				reviewed = true
				break
			}
		}
		resp["viewer_has_reviewed"] = reviewed
	}
	return c.JSON(http.StatusOK, resp)
}
