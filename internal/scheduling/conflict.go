package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// AppointmentIndex answers existence queries over Scheduled appointments.
type AppointmentIndex interface {
	ExistsScheduledForPatientInRange(ctx context.Context, patientID string, startInclusive, endExclusive time.Time) (bool, error)
	ExistsScheduledForPractitionerAt(ctx context.Context, practitionerID string, at time.Time) (bool, error)
}

// ConflictChecker detects double bookings before an appointment is saved.
// Storage constraints remain the final arbiter.
type ConflictChecker struct {
	appointments AppointmentIndex
	rules        Rules
}

// NewConflictChecker wires the checker to an appointment index.
func NewConflictChecker(appointments AppointmentIndex, rules Rules) *ConflictChecker {
	return &ConflictChecker{appointments: appointments, rules: rules}
}

// PatientHasConflict reports whether the patient already holds a Scheduled
// appointment inside the operating window of day.
func (c *ConflictChecker) PatientHasConflict(ctx context.Context, patientID string, day time.Time) (bool, error) {
	if c == nil || c.appointments == nil {
		return false, errors.New("conflict checker not configured")
	}
	start, end := c.rules.OperatingWindow(day)
	exists, err := c.appointments.ExistsScheduledForPatientInRange(ctx, patientID, start, end)
	if err != nil {
		return false, fmt.Errorf("check patient conflict: %w", err)
	}
	return exists, nil
}

// PractitionerHasConflict reports whether the practitioner already holds a
// Scheduled appointment at exactly at.
func (c *ConflictChecker) PractitionerHasConflict(ctx context.Context, practitionerID string, at time.Time) (bool, error) {
	if c == nil || c.appointments == nil {
		return false, errors.New("conflict checker not configured")
	}
	exists, err := c.appointments.ExistsScheduledForPractitionerAt(ctx, practitionerID, at)
	if err != nil {
		return false, fmt.Errorf("check practitioner conflict: %w", err)
	}
	return exists, nil
}
