package model

import "time"

// Service is an offering published by a practitioner: a massage session, a
// nutrition consult and so on. Stored under `service:{id}` plus the
// practitioner and category indexes so both "my services" and "browse by
// category" are single prefix scans.
type Service struct {
	ID             string    `json:"id"`
	PractitionerID string    `json:"practitioner_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	DurationMin    int       `json:"duration_min"`
	PriceCents     int64     `json:"price_cents"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
