// Package memory provides an in-process implementation of the persistence
// contracts. It enforces the same uniqueness rules as the SQL schemas and is
// used by tests and by the memory storage mode.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/clinic-scheduler/internal/persistence"
)

// Storage keeps patients, practitioners and appointments in maps guarded by a
// single RWMutex.
type Storage struct {
	mu            sync.RWMutex
	patients      map[string]persistence.Patient
	practitioners map[string]persistence.Practitioner
	appointments  map[string]persistence.Appointment
	newID         func() string
	now           func() time.Time
}

// Option customises a Storage.
type Option func(*Storage)

// WithIDGenerator replaces the uuid-based appointment ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Storage) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithClock replaces the clock used for CreatedAt and UpdatedAt.
func WithClock(fn func() time.Time) Option {
	return func(s *Storage) {
		if fn != nil {
			s.now = fn
		}
	}
}

// New returns an empty Storage.
func New(opts ...Option) *Storage {
	s := &Storage{
		patients:      make(map[string]persistence.Patient),
		practitioners: make(map[string]persistence.Practitioner),
		appointments:  make(map[string]persistence.Appointment),
		newID:         func() string { return uuid.NewString() },
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Ping always succeeds.
func (s *Storage) Ping(context.Context) error {
	return nil
}

// Close is a no-op.
func (s *Storage) Close() error {
	return nil
}

// --- PatientRepository implementation ---

// UpsertPatient creates or replaces a patient.
func (s *Storage) UpsertPatient(_ context.Context, patient persistence.Patient) error {
	if patient.ID == "" {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if existing, ok := s.patients[patient.ID]; ok {
		patient.CreatedAt = existing.CreatedAt
	} else {
		patient.CreatedAt = now
	}
	patient.UpdatedAt = now
	s.patients[patient.ID] = patient
	return nil
}

// GetPatient retrieves a patient by ID.
func (s *Storage) GetPatient(_ context.Context, id string) (persistence.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	patient, ok := s.patients[id]
	if !ok {
		return persistence.Patient{}, persistence.ErrNotFound
	}
	return patient, nil
}

// --- PractitionerRepository implementation ---

// UpsertPractitioner creates or replaces a practitioner.
func (s *Storage) UpsertPractitioner(_ context.Context, practitioner persistence.Practitioner) error {
	if practitioner.ID == "" {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if existing, ok := s.practitioners[practitioner.ID]; ok {
		practitioner.CreatedAt = existing.CreatedAt
	} else {
		practitioner.CreatedAt = now
	}
	practitioner.UpdatedAt = now
	s.practitioners[practitioner.ID] = practitioner
	return nil
}

// GetPractitioner retrieves a practitioner by ID.
func (s *Storage) GetPractitioner(_ context.Context, id string) (persistence.Practitioner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	practitioner, ok := s.practitioners[id]
	if !ok {
		return persistence.Practitioner{}, persistence.ErrNotFound
	}
	return practitioner, nil
}

// ListAvailablePractitioners returns active practitioners free at exactly at.
func (s *Storage) ListAvailablePractitioners(_ context.Context, at time.Time) ([]persistence.Practitioner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	busy := make(map[string]struct{})
	for _, appt := range s.appointments {
		if appt.Status == persistence.AppointmentStatusScheduled && appt.ScheduledAt.Equal(at) {
			busy[appt.PractitionerID] = struct{}{}
		}
	}

	available := make([]persistence.Practitioner, 0, len(s.practitioners))
	for id, practitioner := range s.practitioners {
		if !practitioner.Active {
			continue
		}
		if _, taken := busy[id]; taken {
			continue
		}
		available = append(available, practitioner)
	}

	sort.Slice(available, func(i, j int) bool {
		return available[i].ID < available[j].ID
	})
	return available, nil
}

// --- AppointmentRepository implementation ---

// CreateAppointment stores a new appointment, assigning an ID when empty.
func (s *Storage) CreateAppointment(_ context.Context, appointment persistence.Appointment) (persistence.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if appointment.ID == "" {
		appointment.ID = s.newID()
	}
	if _, ok := s.appointments[appointment.ID]; ok {
		return persistence.Appointment{}, fmt.Errorf("%w: appointment %s already exists", persistence.ErrDuplicate, appointment.ID)
	}
	if err := s.validateAppointmentLocked(appointment); err != nil {
		return persistence.Appointment{}, err
	}

	now := s.now()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now
	stored := cloneAppointment(appointment)
	s.appointments[appointment.ID] = stored
	return cloneAppointment(stored), nil
}

// UpdateAppointment replaces an appointment that is still scheduled.
func (s *Storage) UpdateAppointment(_ context.Context, appointment persistence.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.appointments[appointment.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	if existing.Status != persistence.AppointmentStatusScheduled {
		return persistence.ErrAlreadyCancelled
	}
	if err := s.validateAppointmentLocked(appointment); err != nil {
		return err
	}

	appointment.CreatedAt = existing.CreatedAt
	appointment.UpdatedAt = s.now()
	s.appointments[appointment.ID] = cloneAppointment(appointment)
	return nil
}

// GetAppointment retrieves an appointment by ID.
func (s *Storage) GetAppointment(_ context.Context, id string) (persistence.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	appointment, ok := s.appointments[id]
	if !ok {
		return persistence.Appointment{}, persistence.ErrNotFound
	}
	return cloneAppointment(appointment), nil
}

// ExistsScheduledForPatientInRange reports whether the patient holds a
// scheduled appointment in [startInclusive, endExclusive).
func (s *Storage) ExistsScheduledForPatientInRange(_ context.Context, patientID string, startInclusive, endExclusive time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, appt := range s.appointments {
		if appt.PatientID != patientID || appt.Status != persistence.AppointmentStatusScheduled {
			continue
		}
		if !appt.ScheduledAt.Before(startInclusive) && appt.ScheduledAt.Before(endExclusive) {
			return true, nil
		}
	}
	return false, nil
}

// ExistsScheduledForPractitionerAt reports whether the practitioner holds a
// scheduled appointment at exactly at.
func (s *Storage) ExistsScheduledForPractitionerAt(_ context.Context, practitionerID string, at time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, appt := range s.appointments {
		if appt.PractitionerID == practitionerID && appt.Status == persistence.AppointmentStatusScheduled && appt.ScheduledAt.Equal(at) {
			return true, nil
		}
	}
	return false, nil
}

// ListScheduledAppointments returns a page of scheduled appointments ordered
// by ScheduledAt then ID, and the total count.
func (s *Storage) ListScheduledAppointments(_ context.Context, offset, limit int) ([]persistence.ScheduledAppointmentView, int, error) {
	if offset < 0 || limit < 0 {
		return nil, 0, fmt.Errorf("memory: invalid page offset %d limit %d", offset, limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	scheduled := make([]persistence.Appointment, 0, len(s.appointments))
	for _, appt := range s.appointments {
		if appt.Status == persistence.AppointmentStatusScheduled {
			scheduled = append(scheduled, appt)
		}
	}
	sort.Slice(scheduled, func(i, j int) bool {
		if scheduled[i].ScheduledAt.Equal(scheduled[j].ScheduledAt) {
			return scheduled[i].ID < scheduled[j].ID
		}
		return scheduled[i].ScheduledAt.Before(scheduled[j].ScheduledAt)
	})

	total := len(scheduled)
	if offset >= total {
		return []persistence.ScheduledAppointmentView{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	views := make([]persistence.ScheduledAppointmentView, 0, end-offset)
	for _, appt := range scheduled[offset:end] {
		views = append(views, persistence.ScheduledAppointmentView{
			ID:               appt.ID,
			PractitionerName: s.practitioners[appt.PractitionerID].Name,
			PatientName:      s.patients[appt.PatientID].Name,
			ScheduledAt:      appt.ScheduledAt,
		})
	}
	return views, total, nil
}

// validateAppointmentLocked mirrors the SQL schema: foreign keys, the
// status/reason check and both partial unique indexes.
func (s *Storage) validateAppointmentLocked(appointment persistence.Appointment) error {
	if _, ok := s.practitioners[appointment.PractitionerID]; !ok {
		return fmt.Errorf("%w: practitioner %s", persistence.ErrForeignKeyViolation, appointment.PractitionerID)
	}
	if _, ok := s.patients[appointment.PatientID]; !ok {
		return fmt.Errorf("%w: patient %s", persistence.ErrForeignKeyViolation, appointment.PatientID)
	}

	switch appointment.Status {
	case persistence.AppointmentStatusScheduled:
		if appointment.CancellationReason != nil {
			return fmt.Errorf("%w: scheduled appointment with cancellation reason", persistence.ErrConstraintViolation)
		}
	case persistence.AppointmentStatusCancelled:
		if appointment.CancellationReason == nil || *appointment.CancellationReason == "" {
			return fmt.Errorf("%w: cancelled appointment without reason", persistence.ErrConstraintViolation)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown status %q", persistence.ErrConstraintViolation, appointment.Status)
	}

	for id, other := range s.appointments {
		if id == appointment.ID || other.Status != persistence.AppointmentStatusScheduled {
			continue
		}
		if other.PractitionerID == appointment.PractitionerID && other.ScheduledAt.Equal(appointment.ScheduledAt) {
			return persistence.ErrPractitionerSlotTaken
		}
		if other.PatientID == appointment.PatientID && other.ScheduledDay == appointment.ScheduledDay {
			return persistence.ErrPatientDayTaken
		}
	}
	return nil
}

func cloneAppointment(appointment persistence.Appointment) persistence.Appointment {
	clone := appointment
	if appointment.CancellationReason != nil {
		reason := *appointment.CancellationReason
		clone.CancellationReason = &reason
	}
	return clone
}

var (
	_ persistence.PatientRepository      = (*Storage)(nil)
	_ persistence.PractitionerRepository = (*Storage)(nil)
	_ persistence.AppointmentRepository  = (*Storage)(nil)
)
