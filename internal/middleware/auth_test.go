package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avicena/wellness-marketplace/internal/auth"
	"github.com/avicena/wellness-marketplace/internal/model"
	"github.com/avicena/wellness-marketplace/internal/repository"
	"github.com/avicena/wellness-marketplace/internal/store"
)

type authFixture struct {
	issuer *auth.Issuer
	users  *repository.UserRepo
	user   *model.User
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	users := repository.NewUserRepo(store.NewMemoryKV())
	u := &model.User{
		ID:          "u1",
		Email:       "ada@example.com",
		Name:        "Ada",
		Role:        auth.RoleCustomer,
		Permissions: auth.DefaultPermissions(auth.RoleCustomer),
		Active:      true,
	}
	require.NoError(t, users.Create(context.Background(), u))
	return &authFixture{issuer: auth.NewIssuer("test-secret"), users: users, user: u}
}

// okHandler echoes the attached subject id so tests can assert it was set.
func okHandler(c echo.Context) error {
	u := Subject(c)
	if u == nil {
		return c.String(http.StatusOK, "anonymous")
	}
	return c.String(http.StatusOK, u.ID)
}

func perform(mw echo.MiddlewareFunc, authz string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = mw(okHandler)(c)
	return rec
}

func TestAuthenticateValidToken(t *testing.T) {
	f := newAuthFixture(t)
	token, _, err := f.issuer.IssueAccess(f.user)
	require.NoError(t, err)

	rec := perform(Authenticate(f.issuer, f.users), "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())
}

func TestAuthenticateMissingToken(t *testing.T) {
	f := newAuthFixture(t)
	rec := perform(Authenticate(f.issuer, f.users), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid or expired token"}`, rec.Body.String())
}

func TestAuthenticateRejectsRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	refresh, _, err := f.issuer.IssueRefresh(f.user.ID)
	require.NoError(t, err)

	rec := perform(Authenticate(f.issuer, f.users), "Bearer "+refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	// The body does not reveal that the kind was the problem.
	assert.JSONEq(t, `{"error":"invalid or expired token"}`, rec.Body.String())
}

func TestAuthenticateRejectsForeignSignature(t *testing.T) {
	f := newAuthFixture(t)
	token, _, err := auth.NewIssuer("other-secret").IssueAccess(f.user)
	require.NoError(t, err)

	rec := perform(Authenticate(f.issuer, f.users), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateDeactivatedSubject(t *testing.T) {
	f := newAuthFixture(t)
	token, _, err := f.issuer.IssueAccess(f.user)
	require.NoError(t, err)

	// Deactivate after issuing: the still-valid token must stop working
	// immediately because the live record is consulted on every request.
	f.user.Active = false
	require.NoError(t, f.users.Update(context.Background(), f.user))

	rec := perform(Authenticate(f.issuer, f.users), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateVanishedSubject(t *testing.T) {
	f := newAuthFixture(t)
	token, _, err := f.issuer.IssueAccess(&model.User{ID: "ghost", Role: auth.RoleCustomer})
	require.NoError(t, err)

	rec := perform(Authenticate(f.issuer, f.users), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateCookieFallback(t *testing.T) {
	f := newAuthFixture(t)
	token, _, err := f.issuer.IssueAccess(f.user)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: BearerCookie, Value: token})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = Authenticate(f.issuer, f.users)(okHandler)(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())
}

func TestOptionalAuthenticate(t *testing.T) {
	f := newAuthFixture(t)

	// Anonymous passes through with no subject.
	rec := perform(OptionalAuthenticate(f.issuer, f.users), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())

	// A valid token attaches the subject.
	token, _, err := f.issuer.IssueAccess(f.user)
	require.NoError(t, err)
	rec = perform(OptionalAuthenticate(f.issuer, f.users), "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())

	// A present-but-invalid token is rejected, not downgraded to anonymous.
	rec = perform(OptionalAuthenticate(f.issuer, f.users), "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
