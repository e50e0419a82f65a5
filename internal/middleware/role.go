package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avicena/wellness-marketplace/internal/auth"
	"github.com/avicena/wellness-marketplace/internal/model"
)

// The gates below run only after Authenticate has attached a live subject;
// they answer "may this caller do that" and always produce 403, never 401.
// SUPERADMIN passes every gate — an explicit, named escape hatch rather
// than a side effect of the membership checks.

// RequireRole enforces that the subject holds one of the allowed roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := Subject(c)
			if u == nil {
				return unauthenticated(c)
			}
			if auth.IsSuper(u.Role) || allowed[u.Role] {
				return next(c)
			}
			return forbidden(c)
		}
	}
}

// RequirePermission enforces a single permission token.
func RequirePermission(perm string) echo.MiddlewareFunc {
	return RequireAllPermissions(perm)
}

// RequireAnyPermission passes when the subject holds at least one of the
// listed permissions.
func RequireAnyPermission(perms ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := Subject(c)
			if u == nil {
				return unauthenticated(c)
			}
			if auth.IsSuper(u.Role) {
				return next(c)
			}
			for _, p := range perms {
				if u.HasPermission(p) {
					return next(c)
				}
			}
			return forbidden(c)
		}
	}
}

// RequireAllPermissions passes only when the subject holds every listed
// permission.
func RequireAllPermissions(perms ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := Subject(c)
			if u == nil {
				return unauthenticated(c)
			}
			if auth.IsSuper(u.Role) {
				return next(c)
			}
			for _, p := range perms {
				if !u.HasPermission(p) {
					return forbidden(c)
				}
			}
			return next(c)
		}
	}
}

// CanModify is the ownership gate used inside handlers once the resource's
// owner id is known: the subject must own the resource, or hold the top
// role.
func CanModify(u *model.User, ownerID string) bool {
	if u == nil {
		return false
	}
	return auth.IsSuper(u.Role) || u.ID == ownerID
}

// Forbidden writes the standard 403 body; exported for handlers that apply
// the ownership gate themselves.
func Forbidden(c echo.Context) error { return forbidden(c) }

func forbidden(c echo.Context) error {
	return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
}
