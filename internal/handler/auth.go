package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/labstack/echo/v4"

	"github.com/avicena/wellness-marketplace/internal/auth"
	"github.com/avicena/wellness-marketplace/internal/ids"
	"github.com/avicena/wellness-marketplace/internal/middleware"
	"github.com/avicena/wellness-marketplace/internal/model"
	"github.com/avicena/wellness-marketplace/internal/repository"
)

const storeTimeout = 5 * time.Second

// AuthHandler implements registration, login, refresh rotation, logout and
// the password-reset / email-verification flows.
type AuthHandler struct {
	Issuer *auth.Issuer
	Hasher auth.Hasher
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
	Log    *slog.Logger
}

func NewAuthHandler(issuer *auth.Issuer, hasher auth.Hasher, u *repository.UserRepo, t *repository.TokenRepo, log *slog.Logger) *AuthHandler {
	return &AuthHandler{Issuer: issuer, Hasher: hasher, Users: u, Tokens: t, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"` // CUSTOMER | PRACTITIONER
}

func (r registerReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Role, validation.In("", auth.RoleCustomer, auth.RolePractitioner)),
	)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type resetRequestReq struct {
	Email string `json:"email"`
}

type resetConfirmReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (r resetConfirmReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 72)),
	)
}

type verifyConfirmReq struct {
	Token string `json:"token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	User    model.PublicUser `json:"user"`
	Access  tokenPart        `json:"access"`
	Refresh tokenPart        `json:"refresh"`
}

// issuePair mints an access/refresh pair and replaces the subject's stored
// refresh record, which is what invalidates the previous refresh token.
func (h *AuthHandler) issuePair(ctx context.Context, u *model.User) (*authResp, error) {
	access, accessExp, err := h.Issuer.IssueAccess(u)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := h.Issuer.IssueRefresh(u.ID)
	if err != nil {
		return nil, err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, auth.HashToken(refresh), h.Issuer.RefreshTTL); err != nil {
		return nil, err
	}
	return &authResp{
		User:    u.Public(),
		Access:  tokenPart{Token: access, Expires: accessExp},
		Refresh: tokenPart{Token: refresh, Expires: refreshExp},
	}, nil
}

// Register creates a credential record and returns a token pair.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	role := req.Role
	if role == "" {
		role = auth.RoleCustomer
	}

	hash, err := h.Hasher.Hash(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	u := &model.User{
		ID:           ids.NewSubject(),
		Email:        repository.NormalizeEmail(req.Email),
		PasswordHash: hash,
		Name:         req.Name,
		Role:         role,
		Permissions:  auth.DefaultPermissions(role),
		Active:       true,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	if err := h.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	resp, err := h.issuePair(ctx, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login verifies credentials and returns a fresh pair. Wrong password,
// unknown email and deactivated account all produce the same generic 401.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !h.Hasher.Verify(req.Password, u.PasswordHash) || !u.Active {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	resp, err := h.issuePair(ctx, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh rotates the pair. The presented token must verify as kind
// refresh AND hash-match the single stored refresh record for its subject,
// so a rotated-away (or revoked) token is rejected even while its
// signature is still valid.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	claims, err := h.Issuer.Verify(req.RefreshToken, auth.KindRefresh)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	ok, err := h.Tokens.ValidateRefresh(ctx, claims.Subject, auth.HashToken(req.RefreshToken))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	u, err := h.Users.GetByID(ctx, claims.Subject)
	if err != nil || !u.Active {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	resp, err := h.issuePair(ctx, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout deletes the caller's refresh record, killing the session on every
// device ahead of token expiry. Requires authentication.
func (h *AuthHandler) Logout(c echo.Context) error {
	u := middleware.Subject(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()
	if err := h.Tokens.Revoke(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's live record.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.Subject(c).Public())
}

// RequestPasswordReset issues a short-lived reset token when the account
// exists. The response is identical either way so the endpoint cannot be
// used to enumerate registered addresses.
// TODO: hand the token to the notification service instead of logging it.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req resetRequestReq
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	if u, err := h.Users.GetByEmail(ctx, req.Email); err == nil && u.Active {
		if token, _, err := h.Issuer.IssuePasswordReset(u.ID); err == nil {
			h.Log.Debug("password reset token issued", "subject", u.ID, "token", token)
		}
	}
	return c.JSON(http.StatusAccepted, echo.Map{"message": "if the account exists, a reset token has been issued"})
}

// ConfirmPasswordReset replaces the password named by a valid reset token
// and revokes the subject's refresh record so existing sessions must log
// in again with the new password.
func (h *AuthHandler) ConfirmPasswordReset(c echo.Context) error {
	var req resetConfirmReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	claims, err := h.Issuer.Verify(req.Token, auth.KindPasswordReset)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, claims.Subject)
	if err != nil || !u.Active {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}
	hash, err := h.Hasher.Hash(req.NewPassword)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}
	u.PasswordHash = hash
	if err := h.Users.Update(ctx, u); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}
	_ = h.Tokens.Revoke(ctx, u.ID)
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// RequestEmailVerify issues a verification token for the caller's current
// address. Protected: only a logged-in user can ask to verify themselves.
// TODO: hand the token to the notification service instead of logging it.
func (h *AuthHandler) RequestEmailVerify(c echo.Context) error {
	u := middleware.Subject(c)
	if u.Verified {
		return c.JSON(http.StatusConflict, echo.Map{"error": "already verified"})
	}
	token, _, err := h.Issuer.IssueEmailVerify(u.ID, u.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	h.Log.Debug("email verification token issued", "subject", u.ID, "token", token)
	return c.JSON(http.StatusAccepted, echo.Map{"message": "verification token issued"})
}

// ConfirmEmailVerify flips the verified flag when the token's embedded
// email still matches the account's current address.
func (h *AuthHandler) ConfirmEmailVerify(c echo.Context) error {
	var req verifyConfirmReq
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}

	claims, err := h.Issuer.Verify(req.Token, auth.KindEmailVerify)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, claims.Subject)
	if err != nil || !u.Active || claims.Email != u.Email {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}
	if u.Verified {
		return c.JSON(http.StatusConflict, echo.Map{"error": "already verified"})
	}
	u.Verified = true
	if err := h.Users.Update(ctx, u); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verify failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "email verified"})
}
