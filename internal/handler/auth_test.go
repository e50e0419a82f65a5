package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avicena/wellness-marketplace/internal/auth"
	"github.com/avicena/wellness-marketplace/internal/middleware"
	"github.com/avicena/wellness-marketplace/internal/repository"
	"github.com/avicena/wellness-marketplace/internal/store"
)

func newAuthHandler() *AuthHandler {
	kv := store.NewMemoryKV()
	return NewAuthHandler(
		auth.NewIssuer("test-secret"),
		auth.Hasher{Iterations: 1000},
		repository.NewUserRepo(kv),
		repository.NewTokenRepo(kv),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func postJSON(h echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	_ = h(e.NewContext(req, rec))
	return rec
}

func decodeAuthResp(t *testing.T, rec *httptest.ResponseRecorder) authResp {
	t.Helper()
	var resp authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

const registerBody = `{"email":"ada@example.com","password":"correcthorse","name":"Ada","role":"PRACTITIONER"}`

func TestRegister(t *testing.T) {
	h := newAuthHandler()

	rec := postJSON(h.Register, registerBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeAuthResp(t, rec)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Equal(t, auth.RolePractitioner, resp.User.Role)
	assert.NotEmpty(t, resp.Access.Token)
	assert.NotEmpty(t, resp.Refresh.Token)

	// The returned tokens verify against the issuer with the right kinds,
	// and the access token carries the granted permission set.
	claims, err := h.Issuer.Verify(resp.Access.Token, auth.KindAccess)
	require.NoError(t, err)
	assert.Contains(t, claims.Permissions, auth.PermServicesManage)
	_, err = h.Issuer.Verify(resp.Refresh.Token, auth.KindRefresh)
	require.NoError(t, err)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h := newAuthHandler()
	require.Equal(t, http.StatusCreated, postJSON(h.Register, registerBody).Code)

	rec := postJSON(h.Register, registerBody)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	h := newAuthHandler()
	for name, body := range map[string]string{
		"bad email":      `{"email":"nope","password":"correcthorse","name":"Ada"}`,
		"short password": `{"email":"a@b.com","password":"short","name":"Ada"}`,
		"missing name":   `{"email":"a@b.com","password":"correcthorse"}`,
		"admin role":     `{"email":"a@b.com","password":"correcthorse","name":"Ada","role":"ADMIN"}`,
	} {
		rec := postJSON(h.Register, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestLogin(t *testing.T) {
	h := newAuthHandler()
	require.Equal(t, http.StatusCreated, postJSON(h.Register, registerBody).Code)

	rec := postJSON(h.Login, `{"email":"ADA@example.com","password":"correcthorse"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeAuthResp(t, rec)
	assert.Equal(t, "ada@example.com", resp.User.Email)
}

func TestLoginGenericUnauthorized(t *testing.T) {
	h := newAuthHandler()
	require.Equal(t, http.StatusCreated, postJSON(h.Register, registerBody).Code)

	wrongPassword := postJSON(h.Login, `{"email":"ada@example.com","password":"wrongwrong"}`)
	unknownEmail := postJSON(h.Login, `{"email":"ghost@example.com","password":"correcthorse"}`)

	// Wrong password and unknown account are indistinguishable.
	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.JSONEq(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestRefreshRotatesAndInvalidatesPrevious(t *testing.T) {
	h := newAuthHandler()
	first := decodeAuthResp(t, postJSON(h.Register, registerBody))

	// Rotate: the old refresh token yields a new pair.
	rec := postJSON(h.Refresh, `{"refresh_token":"`+first.Refresh.Token+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	second := decodeAuthResp(t, rec)
	assert.NotEmpty(t, second.Refresh.Token)

	// The rotated-away token no longer works, even though its signature and
	// expiry are still valid.
	rec = postJSON(h.Refresh, `{"refresh_token":"`+first.Refresh.Token+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The current one does.
	rec = postJSON(h.Refresh, `{"refresh_token":"`+second.Refresh.Token+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	h := newAuthHandler()
	resp := decodeAuthResp(t, postJSON(h.Register, registerBody))

	rec := postJSON(h.Refresh, `{"refresh_token":"`+resp.Access.Token+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutRevokesRefresh(t *testing.T) {
	h := newAuthHandler()
	resp := decodeAuthResp(t, postJSON(h.Register, registerBody))

	// Logout runs behind Authenticate; attach the subject the way the
	// middleware would.
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	u, err := h.Users.GetByEmail(req.Context(), "ada@example.com")
	require.NoError(t, err)
	c.Set(middleware.SubjectKey, u)
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	out := postJSON(h.Refresh, `{"refresh_token":"`+resp.Refresh.Token+`"}`)
	assert.Equal(t, http.StatusUnauthorized, out.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	h := newAuthHandler()
	resp := decodeAuthResp(t, postJSON(h.Register, registerBody))

	// The request endpoint answers 202 whether or not the account exists.
	known := postJSON(h.RequestPasswordReset, `{"email":"ada@example.com"}`)
	unknown := postJSON(h.RequestPasswordReset, `{"email":"ghost@example.com"}`)
	assert.Equal(t, http.StatusAccepted, known.Code)
	assert.Equal(t, http.StatusAccepted, unknown.Code)
	assert.JSONEq(t, known.Body.String(), unknown.Body.String())

	// Confirm with a freshly issued reset token.
	token, _, err := h.Issuer.IssuePasswordReset(resp.User.ID)
	require.NoError(t, err)
	rec := postJSON(h.ConfirmPasswordReset, `{"token":"`+token+`","new_password":"brandnewpass"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Old password out, new password in.
	assert.Equal(t, http.StatusUnauthorized,
		postJSON(h.Login, `{"email":"ada@example.com","password":"correcthorse"}`).Code)
	assert.Equal(t, http.StatusOK,
		postJSON(h.Login, `{"email":"ada@example.com","password":"brandnewpass"}`).Code)

	// The reset also revoked the outstanding refresh token.
	out := postJSON(h.Refresh, `{"refresh_token":"`+resp.Refresh.Token+`"}`)
	assert.Equal(t, http.StatusUnauthorized, out.Code)
}

func TestConfirmPasswordResetRejectsOtherKinds(t *testing.T) {
	h := newAuthHandler()
	resp := decodeAuthResp(t, postJSON(h.Register, registerBody))

	// An access token must not pass as a reset token.
	rec := postJSON(h.ConfirmPasswordReset, `{"token":"`+resp.Access.Token+`","new_password":"brandnewpass"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEmailVerifyFlow(t *testing.T) {
	h := newAuthHandler()
	resp := decodeAuthResp(t, postJSON(h.Register, registerBody))
	assert.False(t, resp.User.Verified)

	token, _, err := h.Issuer.IssueEmailVerify(resp.User.ID, "ada@example.com")
	require.NoError(t, err)

	rec := postJSON(h.ConfirmEmailVerify, `{"token":"`+token+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	u, err := h.Users.GetByID(httptest.NewRequest(http.MethodGet, "/", nil).Context(), resp.User.ID)
	require.NoError(t, err)
	assert.True(t, u.Verified)

	// Verifying twice conflicts.
	rec = postJSON(h.ConfirmEmailVerify, `{"token":"`+token+`"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestConfirmEmailVerifyStaleAddress(t *testing.T) {
	h := newAuthHandler()
	resp := decodeAuthResp(t, postJSON(h.Register, registerBody))

	// Token bound to an address the account no longer uses.
	token, _, err := h.Issuer.IssueEmailVerify(resp.User.ID, "old@example.com")
	require.NoError(t, err)

	rec := postJSON(h.ConfirmEmailVerify, `{"token":"`+token+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
