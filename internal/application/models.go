package application

import "time"

// Selection modes recorded on scheduled appointments.
const (
	SelectionExplicit  = "explicit"
	SelectionAutomatic = "automatic"
)

// ScheduleRequest captures caller provided booking fields. An empty
// PractitionerID asks the service to pick a free practitioner.
type ScheduleRequest struct {
	PatientID      string
	PractitionerID string
	ScheduledAt    time.Time
}

// CancelRequest identifies the appointment to cancel and why.
type CancelRequest struct {
	AppointmentID string
	Reason        string
}

// AppointmentDetail is returned after a successful booking.
type AppointmentDetail struct {
	ID             string
	PractitionerID string
	PatientID      string
	ScheduledAt    time.Time
}

// AppointmentListItem is one row of the scheduled appointments listing.
type AppointmentListItem struct {
	ID               string
	PractitionerName string
	PatientName      string
	ScheduledAt      time.Time
}

// PageRequest selects a zero-based page of results.
type PageRequest struct {
	Number int
	Size   int
}

// Page is one slice of an ordered result set.
type Page[T any] struct {
	Items      []T
	Number     int
	Size       int
	TotalItems int
	TotalPages int
}
