// Package queue defines the message payloads exchanged over the broker and
// the background consumer that processes them.
package queue

// AppointmentConfirmedEvent is published when a practitioner confirms a
// booking. It carries enough for downstream consumers (notifications,
// analytics) to act without querying the primary store.
type AppointmentConfirmedEvent struct {
	AppointmentID  string `json:"appointment_id"`
	CustomerID     string `json:"customer_id"`
	PractitionerID string `json:"practitioner_id"`
	ServiceID      string `json:"service_id"`
	StartsAt       string `json:"starts_at"`
	DurationMin    int    `json:"duration_min"`
	ConfirmedAt    string `json:"confirmed_at"`
}
