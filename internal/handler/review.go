package handler

import (
	"context"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"

	"github.com/avicena/wellness-marketplace/internal/auth"
	"github.com/avicena/wellness-marketplace/internal/ids"
	"github.com/avicena/wellness-marketplace/internal/middleware"
	"github.com/avicena/wellness-marketplace/internal/model"
	"github.com/avicena/wellness-marketplace/internal/repository"
)

// ReviewHandler implements practitioner reviews: customers write them,
// anyone reads them, moderators (reviews.moderate) remove them.
type ReviewHandler struct {
	Reviews *repository.ReviewRepo
	Users   *repository.UserRepo
}

func NewReviewHandler(r *repository.ReviewRepo, u *repository.UserRepo) *ReviewHandler {
	return &ReviewHandler{Reviews: r, Users: u}
}

type reviewReq struct {
	PractitionerID string `json:"practitioner_id"`
	AppointmentID  string `json:"appointment_id"`
	Rating         int    `json:"rating"`
	Comment        string `json:"comment"`
}

func (r reviewReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PractitionerID, validation.Required),
		validation.Field(&r.Rating, validation.Required, validation.Min(1), validation.Max(5)),
		validation.Field(&r.Comment, validation.Length(0, 5000)),
	)
}

// Create stores a review by the calling customer. The target must be an
// existing practitioner; the referenced appointment is not re-validated,
// so readers must tolerate a dangling AppointmentID.
func (h *ReviewHandler) Create(c echo.Context) error {
	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	target, err := h.Users.GetByID(ctx, req.PractitionerID)
	if err != nil || target.Role != auth.RolePractitioner {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "practitioner not found"})
	}

	u := middleware.Subject(c)
	if u.ID == req.PractitionerID {
		return c.JSON(http.StatusConflict, echo.Map{"error": "cannot review yourself"})
	}

	v := &model.Review{
		ID:             ids.New(),
		AuthorID:       u.ID,
		PractitionerID: req.PractitionerID,
		AppointmentID:  req.AppointmentID,
		Rating:         req.Rating,
		Comment:        req.Comment,
	}
	if err := h.Reviews.Create(ctx, v); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, v)
}

// ForPractitioner lists a practitioner's reviews. Public.
func (h *ReviewHandler) ForPractitioner(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()
	vs, err := h.Reviews.ListByPractitioner(ctx, c.Param("id"), listLimit(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, vs)
}

// Mine lists reviews written by the caller.
func (h *ReviewHandler) Mine(c echo.Context) error {
	u := middleware.Subject(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()
	vs, err := h.Reviews.ListByAuthor(ctx, u.ID, listLimit(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, vs)
}

// Delete removes a review: the author may retract their own, and holders
// of reviews.moderate may remove anyone's.
func (h *ReviewHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	v, err := h.Reviews.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	u := middleware.Subject(c)
	if !middleware.CanModify(u, v.AuthorID) && !u.HasPermission(auth.PermReviewsModerate) {
		return middleware.Forbidden(c)
	}
	if err := h.Reviews.Delete(ctx, v); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
