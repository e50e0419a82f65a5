package handler

import (
	"context"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"

	"github.com/avicena/wellness-marketplace/internal/ids"
	"github.com/avicena/wellness-marketplace/internal/middleware"
	"github.com/avicena/wellness-marketplace/internal/model"
	"github.com/avicena/wellness-marketplace/internal/repository"
)

// MessageHandler implements direct messaging between subjects.
type MessageHandler struct {
	Messages *repository.MessageRepo
	Users    *repository.UserRepo
}

func NewMessageHandler(m *repository.MessageRepo, u *repository.UserRepo) *MessageHandler {
	return &MessageHandler{Messages: m, Users: u}
}

type sendMessageReq struct {
	ToID string `json:"to_id"`
	Body string `json:"body"`
}

func (r sendMessageReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ToID, validation.Required),
		validation.Field(&r.Body, validation.Required, validation.Length(1, 10000)),
	)
}

// Send stores a message from the caller to an existing, active recipient.
func (h *MessageHandler) Send(c echo.Context) error {
	var req sendMessageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	u := middleware.Subject(c)
	if req.ToID == u.ID {
		return c.JSON(http.StatusConflict, echo.Map{"error": "cannot message yourself"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	to, err := h.Users.GetByID(ctx, req.ToID)
	if err != nil || !to.Active {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "recipient not found"})
	}

	m := &model.Message{
		ID:     ids.New(),
		FromID: u.ID,
		ToID:   to.ID,
		Body:   req.Body,
	}
	if err := h.Messages.Create(ctx, m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send failed"})
	}
	return c.JSON(http.StatusCreated, m)
}

// Thread lists the conversation between the caller and one counterpart.
func (h *MessageHandler) Thread(c echo.Context) error {
	u := middleware.Subject(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()
	ms, err := h.Messages.ListThread(ctx, u.ID, c.Param("id"), listLimit(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, ms)
}

// Inbox lists messages received by the caller.
func (h *MessageHandler) Inbox(c echo.Context) error {
	u := middleware.Subject(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()
	ms, err := h.Messages.ListInbox(ctx, u.ID, listLimit(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, ms)
}

// Outbox lists messages sent by the caller.
func (h *MessageHandler) Outbox(c echo.Context) error {
	u := middleware.Subject(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()
	ms, err := h.Messages.ListOutbox(ctx, u.ID, listLimit(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, ms)
}

// MarkRead flags a message as read. Recipient only.
func (h *MessageHandler) MarkRead(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	m, err := h.Messages.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "message not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !middleware.CanModify(middleware.Subject(c), m.ToID) {
		return middleware.Forbidden(c)
	}
	if err := h.Messages.MarkRead(ctx, m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, m)
}
