package application

import (
	"context"
	"errors"
	"time"

	"github.com/example/clinic-scheduler/internal/persistence"
	"github.com/example/clinic-scheduler/internal/scheduling"
)

type patientDirectoryAdapter struct {
	repo persistence.PatientRepository
}

// NewPatientDirectory exposes a patient repository as a PatientDirectory.
func NewPatientDirectory(repo persistence.PatientRepository) PatientDirectory {
	return &patientDirectoryAdapter{repo: repo}
}

func (a *patientDirectoryAdapter) FindPatient(ctx context.Context, id string) (Patient, bool, error) {
	record, err := a.repo.GetPatient(ctx, id)
	if errors.Is(err, persistence.ErrNotFound) {
		return Patient{}, false, nil
	}
	if err != nil {
		return Patient{}, false, err
	}
	return Patient{ID: record.ID, Name: record.Name, Active: record.Active}, true, nil
}

type practitionerDirectoryAdapter struct {
	repo persistence.PractitionerRepository
}

// NewPractitionerDirectory exposes a practitioner repository to the selector.
func NewPractitionerDirectory(repo persistence.PractitionerRepository) scheduling.PractitionerDirectory {
	return &practitionerDirectoryAdapter{repo: repo}
}

func (a *practitionerDirectoryAdapter) FindPractitioner(ctx context.Context, id string) (scheduling.Practitioner, bool, error) {
	record, err := a.repo.GetPractitioner(ctx, id)
	if errors.Is(err, persistence.ErrNotFound) {
		return scheduling.Practitioner{}, false, nil
	}
	if err != nil {
		return scheduling.Practitioner{}, false, err
	}
	return toSchedulingPractitioner(record), true, nil
}

func (a *practitionerDirectoryAdapter) ListAvailablePractitioners(ctx context.Context, at time.Time) ([]scheduling.Practitioner, error) {
	records, err := a.repo.ListAvailablePractitioners(ctx, at)
	if err != nil {
		return nil, err
	}
	practitioners := make([]scheduling.Practitioner, 0, len(records))
	for _, record := range records {
		practitioners = append(practitioners, toSchedulingPractitioner(record))
	}
	return practitioners, nil
}

func toSchedulingPractitioner(record persistence.Practitioner) scheduling.Practitioner {
	return scheduling.Practitioner{ID: record.ID, Name: record.Name, Active: record.Active}
}

type appointmentStoreAdapter struct {
	repo  persistence.AppointmentRepository
	rules scheduling.Rules
}

// NewAppointmentStore exposes an appointment repository as an
// AppointmentRepository. rules supply the clinic-local day stored alongside
// each appointment.
func NewAppointmentStore(repo persistence.AppointmentRepository, rules scheduling.Rules) AppointmentRepository {
	return &appointmentStoreAdapter{repo: repo, rules: rules}
}

func (a *appointmentStoreAdapter) ExistsScheduledForPatientInRange(ctx context.Context, patientID string, startInclusive, endExclusive time.Time) (bool, error) {
	return a.repo.ExistsScheduledForPatientInRange(ctx, patientID, startInclusive, endExclusive)
}

func (a *appointmentStoreAdapter) ExistsScheduledForPractitionerAt(ctx context.Context, practitionerID string, at time.Time) (bool, error) {
	return a.repo.ExistsScheduledForPractitionerAt(ctx, practitionerID, at)
}

func (a *appointmentStoreAdapter) SaveAppointment(ctx context.Context, appointment scheduling.Appointment) (scheduling.Appointment, error) {
	record := a.toRecord(appointment)
	if record.ID == "" {
		created, err := a.repo.CreateAppointment(ctx, record)
		if err != nil {
			return scheduling.Appointment{}, err
		}
		return fromRecord(created)
	}
	if err := a.repo.UpdateAppointment(ctx, record); err != nil {
		return scheduling.Appointment{}, err
	}
	return appointment, nil
}

func (a *appointmentStoreAdapter) FindAppointment(ctx context.Context, id string) (scheduling.Appointment, bool, error) {
	record, err := a.repo.GetAppointment(ctx, id)
	if errors.Is(err, persistence.ErrNotFound) {
		return scheduling.Appointment{}, false, nil
	}
	if err != nil {
		return scheduling.Appointment{}, false, err
	}
	appointment, err := fromRecord(record)
	if err != nil {
		return scheduling.Appointment{}, false, err
	}
	return appointment, true, nil
}

func (a *appointmentStoreAdapter) ListScheduled(ctx context.Context, offset, limit int) ([]AppointmentListItem, int, error) {
	views, total, err := a.repo.ListScheduledAppointments(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	items := make([]AppointmentListItem, 0, len(views))
	for _, view := range views {
		items = append(items, AppointmentListItem{
			ID:               view.ID,
			PractitionerName: view.PractitionerName,
			PatientName:      view.PatientName,
			ScheduledAt:      view.ScheduledAt,
		})
	}
	return items, total, nil
}

func (a *appointmentStoreAdapter) toRecord(appointment scheduling.Appointment) persistence.Appointment {
	record := persistence.Appointment{
		ID:             appointment.ID,
		PractitionerID: appointment.PractitionerID,
		PatientID:      appointment.PatientID,
		ScheduledAt:    appointment.ScheduledAt.UTC(),
		ScheduledDay:   a.rules.LocalDay(appointment.ScheduledAt),
		Status:         appointment.StatusName(),
	}
	if reason, ok := appointment.Reason(); ok {
		value := string(reason)
		record.CancellationReason = &value
	}
	return record
}

func fromRecord(record persistence.Appointment) (scheduling.Appointment, error) {
	var reason string
	if record.CancellationReason != nil {
		reason = *record.CancellationReason
	}
	return scheduling.RestoreAppointment(record.ID, record.PractitionerID, record.PatientID, record.ScheduledAt.UTC(), record.Status, reason)
}
