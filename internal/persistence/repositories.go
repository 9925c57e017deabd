package persistence

import (
	"context"
	"time"
)

// PatientRepository stores patients. Patient management lives elsewhere; the
// scheduler only reads them and seeds them for tests.
type PatientRepository interface {
	UpsertPatient(ctx context.Context, patient Patient) error
	GetPatient(ctx context.Context, id string) (Patient, error)
}

// PractitionerRepository stores practitioners and answers availability queries.
type PractitionerRepository interface {
	UpsertPractitioner(ctx context.Context, practitioner Practitioner) error
	GetPractitioner(ctx context.Context, id string) (Practitioner, error)
	// ListAvailablePractitioners returns active practitioners with no scheduled
	// appointment at exactly at, ordered by ID.
	ListAvailablePractitioners(ctx context.Context, at time.Time) ([]Practitioner, error)
}

// AppointmentRepository stores appointments. Implementations must reject a
// second scheduled appointment for the same practitioner and instant with
// ErrPractitionerSlotTaken, and for the same patient and ScheduledDay with
// ErrPatientDayTaken.
type AppointmentRepository interface {
	// CreateAppointment inserts the appointment, assigning an ID when empty.
	CreateAppointment(ctx context.Context, appointment Appointment) (Appointment, error)
	// UpdateAppointment only applies while the stored row is scheduled;
	// otherwise it returns ErrAlreadyCancelled.
	UpdateAppointment(ctx context.Context, appointment Appointment) error
	GetAppointment(ctx context.Context, id string) (Appointment, error)
	ExistsScheduledForPatientInRange(ctx context.Context, patientID string, startInclusive, endExclusive time.Time) (bool, error)
	ExistsScheduledForPractitionerAt(ctx context.Context, practitionerID string, at time.Time) (bool, error)
	// ListScheduledAppointments returns one page of scheduled appointments
	// ordered by ScheduledAt then ID, along with the total number of
	// scheduled appointments.
	ListScheduledAppointments(ctx context.Context, offset, limit int) ([]ScheduledAppointmentView, int, error)
}
