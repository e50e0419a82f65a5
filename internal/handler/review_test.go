package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avicena/wellness-marketplace/internal/auth"
	"github.com/avicena/wellness-marketplace/internal/model"
	"github.com/avicena/wellness-marketplace/internal/repository"
	"github.com/avicena/wellness-marketplace/internal/store"
)

type reviewFixture struct {
	h            *ReviewHandler
	customer     *model.User
	practitioner *model.User
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()
	kv := store.NewMemoryKV()
	users := repository.NewUserRepo(kv)

	cust := &model.User{ID: "cust-1", Email: "c@example.com", Role: auth.RoleCustomer, Active: true}
	prac := &model.User{ID: "prac-1", Email: "p@example.com", Role: auth.RolePractitioner, Active: true}
	require.NoError(t, users.Create(context.Background(), cust))
	require.NoError(t, users.Create(context.Background(), prac))

	return &reviewFixture{
		h:            NewReviewHandler(repository.NewReviewRepo(kv), users),
		customer:     cust,
		practitioner: prac,
	}
}

func TestReviewCreate(t *testing.T) {
	f := newReviewFixture(t)

	rec := call(f.customer, f.h.Create, "", `{"practitioner_id":"prac-1","rating":5,"comment":"excellent"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var v model.Review
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, "cust-1", v.AuthorID)
	assert.Equal(t, 5, v.Rating)
}

func TestReviewCreateValidation(t *testing.T) {
	f := newReviewFixture(t)

	// Rating outside 1..5.
	rec := call(f.customer, f.h.Create, "", `{"practitioner_id":"prac-1","rating":6}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The target must be a practitioner; reviewing a customer is a 404, as
	// is reviewing nobody.
	rec = call(f.practitioner, f.h.Create, "", `{"practitioner_id":"cust-1","rating":3}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = call(f.customer, f.h.Create, "", `{"practitioner_id":"ghost","rating":3}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReviewNoSelfReview(t *testing.T) {
	f := newReviewFixture(t)
	rec := call(f.practitioner, f.h.Create, "", `{"practitioner_id":"prac-1","rating":5}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestReviewDelete(t *testing.T) {
	f := newReviewFixture(t)

	rec := call(f.customer, f.h.Create, "", `{"practitioner_id":"prac-1","rating":4}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var v model.Review
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))

	// Neither the reviewed practitioner nor a random customer may delete.
	assert.Equal(t, http.StatusForbidden, call(f.practitioner, f.h.Delete, v.ID, "").Code)
	other := &model.User{ID: "other", Role: auth.RoleCustomer, Active: true}
	assert.Equal(t, http.StatusForbidden, call(other, f.h.Delete, v.ID, "").Code)

	// A moderator may.
	mod := &model.User{
		ID: "mod", Role: auth.RoleAdmin,
		Permissions: []string{auth.PermReviewsModerate}, Active: true,
	}
	assert.Equal(t, http.StatusNoContent, call(mod, f.h.Delete, v.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, call(mod, f.h.Delete, v.ID, "").Code)
}

func TestReviewDeleteByAuthor(t *testing.T) {
	f := newReviewFixture(t)

	rec := call(f.customer, f.h.Create, "", `{"practitioner_id":"prac-1","rating":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var v model.Review
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))

	assert.Equal(t, http.StatusNoContent, call(f.customer, f.h.Delete, v.ID, "").Code)
}
