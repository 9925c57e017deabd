// Package events defines the domain events emitted after appointments change
// and the publishers that deliver them.
package events

import (
	"context"
	"time"
)

// Event types published on the appointments topic.
const (
	TypeAppointmentScheduled = "clinic.appointment.scheduled.v1"
	TypeAppointmentCancelled = "clinic.appointment.cancelled.v1"
)

// Event is one domain event. AggregateID is the appointment ID and keys the
// Kafka message so events for one appointment stay ordered.
type Event struct {
	ID          string    `json:"event_id"`
	Type        string    `json:"event_type"`
	AggregateID string    `json:"aggregate_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Payload     any       `json:"payload"`
}

// AppointmentScheduled is the payload of TypeAppointmentScheduled.
type AppointmentScheduled struct {
	AppointmentID  string    `json:"appointment_id"`
	PractitionerID string    `json:"practitioner_id"`
	PatientID      string    `json:"patient_id"`
	ScheduledAt    time.Time `json:"scheduled_at"`
	Selection      string    `json:"selection"`
}

// AppointmentCancelled is the payload of TypeAppointmentCancelled.
type AppointmentCancelled struct {
	AppointmentID string    `json:"appointment_id"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	Reason        string    `json:"reason"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }
