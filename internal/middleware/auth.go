// Package middleware contains the request gates shared by every route
// group: authentication, role/permission checks, rate limiting, response
// caching and metrics.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avicena/wellness-marketplace/internal/auth"
	"github.com/avicena/wellness-marketplace/internal/model"
	"github.com/avicena/wellness-marketplace/internal/repository"
)

// SubjectKey is the context key under which Authenticate stores the live
// credential record of the caller.
const SubjectKey = "subject"

// BearerCookie is the cookie consulted when no Authorization header is
// present (browser sessions). The header always wins.
const BearerCookie = "Authorization"

const subjectFetchTimeout = 5 * time.Second

// Subject returns the authenticated user attached to the context, or nil
// for anonymous requests on optionally-authenticated routes.
func Subject(c echo.Context) *model.User {
	u, _ := c.Get(SubjectKey).(*model.User)
	return u
}

// Authenticate gates a route group on a valid access token AND the live
// state of the subject it names. The token's embedded role/permission
// claims are deliberately not trusted on their own: the credential record
// is re-fetched on every request so a deactivation or role downgrade takes
// effect immediately, not at token expiry. Every failure mode — missing
// token, bad signature, expiry, wrong kind, missing or inactive subject —
// collapses to the same generic 401 body so callers cannot probe which
// check failed.
func Authenticate(issuer *auth.Issuer, users *repository.UserRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := extractToken(c)
			if raw == "" {
				return unauthenticated(c)
			}
			claims, err := issuer.Verify(raw, auth.KindAccess)
			if err != nil {
				// The specific cause matters for logs, never for the response.
				c.Logger().Debugf("auth: token rejected: %v", err)
				return unauthenticated(c)
			}
			ctx, cancel := contextWithTimeout(c, subjectFetchTimeout)
			defer cancel()
			u, err := users.GetByID(ctx, claims.Subject)
			if err != nil || !u.Active {
				return unauthenticated(c)
			}
			c.Set(SubjectKey, u)
			return next(c)
		}
	}
}

// OptionalAuthenticate attaches the subject when a valid token is present
// but lets anonymous requests through. Used by public endpoints that
// personalize output for logged-in callers. A token that is present but
// invalid is still rejected rather than silently downgraded to anonymous.
func OptionalAuthenticate(issuer *auth.Issuer, users *repository.UserRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := extractToken(c)
			if raw == "" {
				return next(c)
			}
			claims, err := issuer.Verify(raw, auth.KindAccess)
			if err != nil {
				return unauthenticated(c)
			}
			ctx, cancel := contextWithTimeout(c, subjectFetchTimeout)
			defer cancel()
			u, err := users.GetByID(ctx, claims.Subject)
			if err != nil || !u.Active {
				return unauthenticated(c)
			}
			c.Set(SubjectKey, u)
			return next(c)
		}
	}
}

// extractToken pulls the bearer token from the Authorization header or,
// failing that, from the same-named cookie.
func extractToken(c echo.Context) string {
	if h := c.Request().Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if ck, err := c.Cookie(BearerCookie); err == nil && ck.Value != "" {
		return strings.TrimSpace(strings.TrimPrefix(ck.Value, "Bearer "))
	}
	return ""
}

func unauthenticated(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
}

func contextWithTimeout(c echo.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), d)
}
