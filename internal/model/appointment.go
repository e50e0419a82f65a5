package model

import "time"

// Appointment status lifecycle. A booking starts PENDING, the practitioner
// confirms it, and it finishes either COMPLETED or CANCELLED. Transitions
// out of a terminal status are rejected as conflicts.
const (
	AppointmentPending   = "PENDING"
	AppointmentConfirmed = "CONFIRMED"
	AppointmentCompleted = "COMPLETED"
	AppointmentCancelled = "CANCELLED"
)

// Appointment is a booking of a practitioner's service by a customer.
// Stored under `appointment:{id}` plus customer, practitioner and day
// indexes. ServiceID may dangle if the service was deleted after booking;
// readers treat that as a normal condition.
type Appointment struct {
	ID             string    `json:"id"`
	CustomerID     string    `json:"customer_id"`
	PractitionerID string    `json:"practitioner_id"`
	ServiceID      string    `json:"service_id"`
	StartsAt       time.Time `json:"starts_at"`
	DurationMin    int       `json:"duration_min"`
	Status         string    `json:"status"`
	Note           string    `json:"note,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Terminal reports whether the appointment reached a final status.
func (a *Appointment) Terminal() bool {
	return a.Status == AppointmentCompleted || a.Status == AppointmentCancelled
}

// Day returns the UTC calendar day used by the `appointment_day` index.
func (a *Appointment) Day() string {
	return a.StartsAt.UTC().Format("2006-01-02")
}
