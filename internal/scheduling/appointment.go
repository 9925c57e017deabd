package scheduling

import (
	"fmt"
	"strings"
	"time"
)

// CancellationReason enumerates why an appointment was cancelled.
type CancellationReason string

const (
	ReasonPatientRequest        CancellationReason = "PATIENT_REQUEST"
	ReasonPractitionerCancelled CancellationReason = "PRACTITIONER_CANCELLED"
	ReasonOther                 CancellationReason = "OTHER"
)

// Valid reports whether r is one of the known reasons.
func (r CancellationReason) Valid() bool {
	switch r {
	case ReasonPatientRequest, ReasonPractitionerCancelled, ReasonOther:
		return true
	}
	return false
}

// ParseCancellationReason accepts any casing and surrounding whitespace.
func ParseCancellationReason(value string) (CancellationReason, error) {
	reason := CancellationReason(strings.ToUpper(strings.TrimSpace(value)))
	if !reason.Valid() {
		return "", fmt.Errorf("unknown cancellation reason %q", value)
	}
	return reason, nil
}

// Status is the lifecycle state of an appointment. The only implementations
// are Scheduled and Cancelled.
type Status interface {
	statusName() string
}

// Scheduled marks an active appointment.
type Scheduled struct{}

// Cancelled marks a terminated appointment together with its reason.
type Cancelled struct {
	Reason CancellationReason
}

func (Scheduled) statusName() string { return StatusScheduled }
func (Cancelled) statusName() string { return StatusCancelled }

const (
	StatusScheduled = "scheduled"
	StatusCancelled = "cancelled"
)

// Appointment links one patient and one practitioner at a fixed instant.
type Appointment struct {
	ID             string
	PractitionerID string
	PatientID      string
	ScheduledAt    time.Time
	Status         Status
}

// NewAppointment builds an unsaved appointment in the Scheduled state.
func NewAppointment(practitionerID, patientID string, scheduledAt time.Time) Appointment {
	return Appointment{
		PractitionerID: practitionerID,
		PatientID:      patientID,
		ScheduledAt:    scheduledAt,
		Status:         Scheduled{},
	}
}

// RestoreAppointment rebuilds an appointment from its stored representation.
func RestoreAppointment(id, practitionerID, patientID string, scheduledAt time.Time, status, reason string) (Appointment, error) {
	appt := Appointment{
		ID:             id,
		PractitionerID: practitionerID,
		PatientID:      patientID,
		ScheduledAt:    scheduledAt,
	}
	switch status {
	case StatusScheduled:
		if reason != "" {
			return Appointment{}, fmt.Errorf("appointment %s: scheduled appointment carries cancellation reason %q", id, reason)
		}
		appt.Status = Scheduled{}
	case StatusCancelled:
		parsed, err := ParseCancellationReason(reason)
		if err != nil {
			return Appointment{}, fmt.Errorf("appointment %s: %w", id, err)
		}
		appt.Status = Cancelled{Reason: parsed}
	default:
		return Appointment{}, fmt.Errorf("appointment %s: unknown status %q", id, status)
	}
	return appt, nil
}

// IsScheduled reports whether the appointment is still active.
func (a Appointment) IsScheduled() bool {
	_, ok := a.Status.(Scheduled)
	return ok
}

// Reason returns the cancellation reason when the appointment is cancelled.
func (a Appointment) Reason() (CancellationReason, bool) {
	cancelled, ok := a.Status.(Cancelled)
	if !ok {
		return "", false
	}
	return cancelled.Reason, true
}

// StatusName returns the stored name of the status.
func (a Appointment) StatusName() string {
	if a.Status == nil {
		return ""
	}
	return a.Status.statusName()
}

// Cancel performs the Scheduled to Cancelled transition. It never mutates the
// receiver.
func (a Appointment) Cancel(reason CancellationReason) (Appointment, error) {
	if !reason.Valid() {
		return Appointment{}, fmt.Errorf("unknown cancellation reason %q", reason)
	}
	if !a.IsScheduled() {
		return Appointment{}, ErrAppointmentAlreadyCancelled
	}
	a.Status = Cancelled{Reason: reason}
	return a, nil
}
