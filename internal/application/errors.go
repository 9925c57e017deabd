package application

import (
	"errors"
	"fmt"

	"github.com/example/clinic-scheduler/internal/persistence"
	"github.com/example/clinic-scheduler/internal/scheduling"
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// mapAppointmentRepoError translates storage constraint violations into rule
// errors. Anything else stays an internal failure.
func mapAppointmentRepoError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := scheduling.KindOf(err); ok {
		return err
	}
	switch {
	case errors.Is(err, persistence.ErrPractitionerSlotTaken):
		return scheduling.ErrPractitionerDoubleBooking
	case errors.Is(err, persistence.ErrPatientDayTaken):
		return scheduling.ErrPatientDoubleBooking
	case errors.Is(err, persistence.ErrNotFound):
		return scheduling.ErrAppointmentNotFound
	case errors.Is(err, persistence.ErrAlreadyCancelled):
		return scheduling.ErrAppointmentAlreadyCancelled
	}
	return fmt.Errorf("save appointment: %w", err)
}
