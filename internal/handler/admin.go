package handler

import (
	"context"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"

	"github.com/avicena/wellness-marketplace/internal/auth"
	"github.com/avicena/wellness-marketplace/internal/middleware"
	"github.com/avicena/wellness-marketplace/internal/model"
	"github.com/avicena/wellness-marketplace/internal/repository"
)

// AdminHandler covers user administration and the analytics summary. All
// routes here sit behind users.manage (or analytics.view for the summary).
type AdminHandler struct {
	Users        *repository.UserRepo
	Tokens       *repository.TokenRepo
	Appointments *repository.AppointmentRepo
	Reviews      *repository.ReviewRepo
}

func NewAdminHandler(u *repository.UserRepo, t *repository.TokenRepo, a *repository.AppointmentRepo, r *repository.ReviewRepo) *AdminHandler {
	return &AdminHandler{Users: u, Tokens: t, Appointments: a, Reviews: r}
}

// ListUsers returns every credential record's public projection.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()
	users, err := h.Users.List(ctx, listLimit(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return c.JSON(http.StatusOK, out)
}

type setActiveReq struct {
	Active bool `json:"active"`
}

// SetActive flips the account's active flag. Deactivation also deletes the
// refresh record and, because the auth middleware re-reads the credential
// record per request, immediately locks out any still-unexpired access
// tokens. Accounts are never hard-deleted: other records reference them.
func (h *AdminHandler) SetActive(c echo.Context) error {
	var req setActiveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if auth.IsSuper(u.Role) && !middleware.CanModify(middleware.Subject(c), u.ID) {
		// Only the top role can touch a top-role account.
		return middleware.Forbidden(c)
	}

	u.Active = req.Active
	if err := h.Users.Update(ctx, u); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if !req.Active {
		_ = h.Tokens.Revoke(ctx, u.ID)
	}
	return c.JSON(http.StatusOK, u.Public())
}

type setRoleReq struct {
	Role string `json:"role"`
}

func (r setRoleReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Role, validation.Required,
			validation.In(auth.RoleCustomer, auth.RolePractitioner, auth.RoleAdmin, auth.RoleSuperAdmin)),
	)
}

// SetRole reassigns a user's role and resets their permission set to the
// role's defaults. Granting ADMIN or SUPERADMIN requires the top role.
func (h *AdminHandler) SetRole(c echo.Context) error {
	var req setRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	caller := middleware.Subject(c)
	if (req.Role == auth.RoleAdmin || req.Role == auth.RoleSuperAdmin) && !auth.IsSuper(caller.Role) {
		return middleware.Forbidden(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if auth.IsSuper(u.Role) && !auth.IsSuper(caller.Role) {
		return middleware.Forbidden(c)
	}

	u.Role = req.Role
	u.Permissions = auth.DefaultPermissions(req.Role)
	if err := h.Users.Update(ctx, u); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, u.Public())
}

// Analytics aggregates headline numbers in memory over full prefix scans.
// The store offers nothing richer than prefix listing, so this endpoint is
// deliberately bounded by the scan limits.
func (h *AdminHandler) Analytics(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	users, err := h.Users.List(ctx, 0)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	appointments, err := h.Appointments.List(ctx, 0)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	usersByRole := map[string]int{}
	active := 0
	for _, u := range users {
		usersByRole[u.Role]++
		if u.Active {
			active++
		}
	}
	apptsByStatus := map[string]int{}
	for _, a := range appointments {
		apptsByStatus[a.Status]++
	}

	return c.JSON(http.StatusOK, echo.Map{
		"users_total":            len(users),
		"users_active":           active,
		"users_by_role":          usersByRole,
		"appointments_total":     len(appointments),
		"appointments_by_status": apptsByStatus,
	})
}
