package model

import "time"

// Review is a customer's rating of a practitioner. Stored under
// `review:{id}` plus practitioner and author indexes; the practitioner
// index backs the public profile page, the author index backs "my reviews".
type Review struct {
	ID             string    `json:"id"`
	AuthorID       string    `json:"author_id"`
	PractitionerID string    `json:"practitioner_id"`
	AppointmentID  string    `json:"appointment_id,omitempty"`
	Rating         int       `json:"rating"` // 1..5
	Comment        string    `json:"comment,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
