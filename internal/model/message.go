package model

import (
	"sort"
	"strings"
	"time"
)

// Message is a direct message between two subjects. Stored under
// `message:{id}` plus thread, inbox and outbox indexes so conversation
// view, "received" and "sent" are each one prefix scan.
type Message struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	FromID    string    `json:"from_id"`
	ToID      string    `json:"to_id"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ThreadID derives the conversation key for a pair of participants. The ids
// are sorted so both directions of a conversation land in the same thread.
func ThreadID(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, "~")
}
