package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")

	// ErrPractitionerSlotTaken is returned when a practitioner already holds a
	// scheduled appointment at the same instant.
	ErrPractitionerSlotTaken = errors.New("persistence: practitioner slot already taken")

	// ErrPatientDayTaken is returned when a patient already holds a scheduled
	// appointment on the same clinic day.
	ErrPatientDayTaken = errors.New("persistence: patient day already taken")

	// ErrAlreadyCancelled is returned when an update targets an appointment
	// that is no longer scheduled.
	ErrAlreadyCancelled = errors.New("persistence: appointment already cancelled")

	// ErrDuplicate reports any other uniqueness violation.
	ErrDuplicate = errors.New("persistence: duplicate record")

	// ErrForeignKeyViolation is returned when a referenced record is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")

	// ErrConstraintViolation reports a rejected row, such as a status and
	// cancellation reason that disagree.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)
