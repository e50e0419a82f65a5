package repository

import (
	"context"
	"time"

	"github.com/avicena/wellness-marketplace/internal/model"
	"github.com/avicena/wellness-marketplace/internal/store"
)

// messageKeys: canonical key plus thread, inbox and outbox indexes — the
// widest fan-out in the system, four copies per message.
var messageKeys = store.NewKeySet(
	func(m *model.Message) string { return "message:" + m.ID },
	func(m *model.Message) string { return "message_thread:" + m.ThreadID + ":" + m.ID },
	func(m *model.Message) string { return "message_inbox:" + m.ToID + ":" + m.ID },
	func(m *model.Message) string { return "message_outbox:" + m.FromID + ":" + m.ID },
)

// MessageRepo persists direct messages.
type MessageRepo struct{ KV store.KV }

func NewMessageRepo(kv store.KV) *MessageRepo { return &MessageRepo{KV: kv} }

func (r *MessageRepo) Create(ctx context.Context, m *model.Message) error {
	m.ThreadID = model.ThreadID(m.FromID, m.ToID)
	m.CreatedAt = time.Now().UTC()
	return store.Put(ctx, r.KV, messageKeys, m, 0)
}

func (r *MessageRepo) GetByID(ctx context.Context, id string) (*model.Message, error) {
	return store.Get[model.Message](ctx, r.KV, "message:"+id)
}

// MarkRead flips the read flag and rewrites every copy, keeping the four
// fan-out keys byte-identical.
func (r *MessageRepo) MarkRead(ctx context.Context, m *model.Message) error {
	m.Read = true
	return store.Put(ctx, r.KV, messageKeys, m, 0)
}

func (r *MessageRepo) ListThread(ctx context.Context, a, b string, limit int) ([]*model.Message, error) {
	return store.ListByPrefix[model.Message](ctx, r.KV, "message_thread:"+model.ThreadID(a, b)+":", limit)
}

func (r *MessageRepo) ListInbox(ctx context.Context, userID string, limit int) ([]*model.Message, error) {
	return store.ListByPrefix[model.Message](ctx, r.KV, "message_inbox:"+userID+":", limit)
}

func (r *MessageRepo) ListOutbox(ctx context.Context, userID string, limit int) ([]*model.Message, error) {
	return store.ListByPrefix[model.Message](ctx, r.KV, "message_outbox:"+userID+":", limit)
}
