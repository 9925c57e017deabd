package persistence

import "time"

// Appointment status values as stored.
const (
	AppointmentStatusScheduled = "scheduled"
	AppointmentStatusCancelled = "cancelled"
)

// Patient is a person who can book appointments.
type Patient struct {
	ID        string
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Practitioner is a clinic professional who performs appointments.
type Practitioner struct {
	ID        string
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Appointment is the stored form of a booking. ScheduledDay holds the
// clinic-local calendar date of ScheduledAt (YYYY-MM-DD) and backs the
// one-appointment-per-patient-per-day constraint.
type Appointment struct {
	ID                 string
	PractitionerID     string
	PatientID          string
	ScheduledAt        time.Time
	ScheduledDay       string
	Status             string
	CancellationReason *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ScheduledAppointmentView is the list projection of a scheduled appointment.
type ScheduledAppointmentView struct {
	ID               string
	PractitionerName string
	PatientName      string
	ScheduledAt      time.Time
}
