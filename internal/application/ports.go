package application

import (
	"context"
	"time"

	"github.com/example/clinic-scheduler/internal/scheduling"
)

// Patient is the booking party as seen by the scheduling service.
type Patient struct {
	ID     string
	Name   string
	Active bool
}

// PatientDirectory exposes patient lookups.
type PatientDirectory interface {
	FindPatient(ctx context.Context, id string) (Patient, bool, error)
}

// AppointmentRepository captures the appointment persistence interactions
// needed by the services.
type AppointmentRepository interface {
	scheduling.AppointmentIndex

	// SaveAppointment inserts the appointment when its ID is empty and
	// updates it otherwise. The stored appointment is returned.
	SaveAppointment(ctx context.Context, appointment scheduling.Appointment) (scheduling.Appointment, error)
	FindAppointment(ctx context.Context, id string) (scheduling.Appointment, bool, error)
	// ListScheduled returns one window of scheduled appointments ordered by
	// start time together with the total number of scheduled appointments.
	ListScheduled(ctx context.Context, offset, limit int) ([]AppointmentListItem, int, error)
}

// MetricsRecorder receives scheduling outcomes. *metrics.SchedulingMetrics
// satisfies it.
type MetricsRecorder interface {
	ObserveScheduled(selection string)
	ObserveRejection(operation, kind string)
	ObserveCancelled(reason string)
	ObserveDuration(operation string, elapsed time.Duration)
}
