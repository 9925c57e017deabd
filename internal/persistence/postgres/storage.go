package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/clinic-scheduler/internal/persistence"
)

// Storage implements the persistence repositories over a pgx pool.
type Storage struct {
	db    DB
	newID func() string
}

// New wraps db. The storage takes ownership and closes db in Close.
func New(db DB) *Storage {
	return &Storage{db: db, newID: uuid.NewString}
}

// Ping checks the database connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close releases the pool.
func (s *Storage) Close() error {
	s.db.Close()
	return nil
}

// UpsertPatient inserts the patient or refreshes its name and active flag.
func (s *Storage) UpsertPatient(ctx context.Context, patient persistence.Patient) error {
	if patient.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO patients (id, name, active, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, active = EXCLUDED.active, updated_at = now()`,
		patient.ID, patient.Name, patient.Active)
	if err != nil {
		return fmt.Errorf("upsert patient: %w", mapError(err))
	}
	return nil
}

// GetPatient retrieves a patient by ID.
func (s *Storage) GetPatient(ctx context.Context, id string) (persistence.Patient, error) {
	var p persistence.Patient
	err := s.db.QueryRow(ctx, `
		SELECT id, name, active, created_at, updated_at
		FROM patients WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return persistence.Patient{}, mapError(err)
	}
	return p, nil
}

// UpsertPractitioner inserts the practitioner or refreshes its name and active flag.
func (s *Storage) UpsertPractitioner(ctx context.Context, practitioner persistence.Practitioner) error {
	if practitioner.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO practitioners (id, name, active, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, active = EXCLUDED.active, updated_at = now()`,
		practitioner.ID, practitioner.Name, practitioner.Active)
	if err != nil {
		return fmt.Errorf("upsert practitioner: %w", mapError(err))
	}
	return nil
}

// GetPractitioner retrieves a practitioner by ID.
func (s *Storage) GetPractitioner(ctx context.Context, id string) (persistence.Practitioner, error) {
	var p persistence.Practitioner
	err := s.db.QueryRow(ctx, `
		SELECT id, name, active, created_at, updated_at
		FROM practitioners WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return persistence.Practitioner{}, mapError(err)
	}
	return p, nil
}

// ListAvailablePractitioners returns active practitioners without a scheduled
// appointment at exactly at, ordered by ID.
func (s *Storage) ListAvailablePractitioners(ctx context.Context, at time.Time) ([]persistence.Practitioner, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.name, p.active
		FROM practitioners p
		LEFT JOIN appointments a
			ON a.practitioner_id = p.id AND a.scheduled_at = $1 AND a.status = 'scheduled'
		WHERE p.active AND a.id IS NULL
		ORDER BY p.id`, at.UTC())
	if err != nil {
		return nil, fmt.Errorf("list available practitioners: %w", mapError(err))
	}
	defer rows.Close()

	practitioners := make([]persistence.Practitioner, 0)
	for rows.Next() {
		var p persistence.Practitioner
		if err := rows.Scan(&p.ID, &p.Name, &p.Active); err != nil {
			return nil, fmt.Errorf("scan practitioner: %w", err)
		}
		practitioners = append(practitioners, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list available practitioners: %w", mapError(err))
	}
	return practitioners, nil
}

// CreateAppointment inserts a new appointment, assigning a uuid when ID is empty.
func (s *Storage) CreateAppointment(ctx context.Context, appointment persistence.Appointment) (persistence.Appointment, error) {
	if appointment.ID == "" {
		appointment.ID = s.newID()
	}
	appointment.ScheduledAt = appointment.ScheduledAt.UTC()

	err := s.db.QueryRow(ctx, `
		INSERT INTO appointments (
			id, practitioner_id, patient_id, scheduled_at, scheduled_day,
			status, cancellation_reason, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5::date, $6, $7, now(), now())
		RETURNING created_at, updated_at`,
		appointment.ID,
		appointment.PractitionerID,
		appointment.PatientID,
		appointment.ScheduledAt,
		appointment.ScheduledDay,
		appointment.Status,
		appointment.CancellationReason,
	).Scan(&appointment.CreatedAt, &appointment.UpdatedAt)
	if err != nil {
		return persistence.Appointment{}, mapError(err)
	}
	return appointment, nil
}

// UpdateAppointment rewrites the mutable columns of an appointment that is
// still scheduled. It returns ErrAlreadyCancelled when the stored row has
// already left that state and ErrNotFound when there is no such row.
func (s *Storage) UpdateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE appointments
		SET practitioner_id = $2, patient_id = $3, scheduled_at = $4, scheduled_day = $5::date,
			status = $6, cancellation_reason = $7, updated_at = now()
		WHERE id = $1 AND status = 'scheduled'`,
		appointment.ID,
		appointment.PractitionerID,
		appointment.PatientID,
		appointment.ScheduledAt.UTC(),
		appointment.ScheduledDay,
		appointment.Status,
		appointment.CancellationReason,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		var found bool
		if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, appointment.ID).Scan(&found); err != nil {
			return mapError(err)
		}
		if found {
			return persistence.ErrAlreadyCancelled
		}
		return persistence.ErrNotFound
	}
	return nil
}

// GetAppointment retrieves an appointment by ID.
func (s *Storage) GetAppointment(ctx context.Context, id string) (persistence.Appointment, error) {
	var a persistence.Appointment
	err := s.db.QueryRow(ctx, `
		SELECT id, practitioner_id, patient_id, scheduled_at, scheduled_day::text,
			status, cancellation_reason, created_at, updated_at
		FROM appointments WHERE id = $1`, id).
		Scan(&a.ID, &a.PractitionerID, &a.PatientID, &a.ScheduledAt, &a.ScheduledDay,
			&a.Status, &a.CancellationReason, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return persistence.Appointment{}, mapError(err)
	}
	a.ScheduledAt = a.ScheduledAt.UTC()
	return a, nil
}

// ExistsScheduledForPatientInRange reports whether the patient holds a
// scheduled appointment in [startInclusive, endExclusive).
func (s *Storage) ExistsScheduledForPatientInRange(ctx context.Context, patientID string, startInclusive, endExclusive time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE patient_id = $1 AND status = 'scheduled'
				AND scheduled_at >= $2 AND scheduled_at < $3
		)`, patientID, startInclusive.UTC(), endExclusive.UTC()).Scan(&exists)
	if err != nil {
		return false, mapError(err)
	}
	return exists, nil
}

// ExistsScheduledForPractitionerAt reports whether the practitioner holds a
// scheduled appointment at exactly at.
func (s *Storage) ExistsScheduledForPractitionerAt(ctx context.Context, practitionerID string, at time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE practitioner_id = $1 AND status = 'scheduled' AND scheduled_at = $2
		)`, practitionerID, at.UTC()).Scan(&exists)
	if err != nil {
		return false, mapError(err)
	}
	return exists, nil
}

// ListScheduledAppointments returns one page of scheduled appointments with
// practitioner and patient names, plus the total count.
func (s *Storage) ListScheduledAppointments(ctx context.Context, offset, limit int) ([]persistence.ScheduledAppointmentView, int, error) {
	if offset < 0 || limit < 0 {
		return nil, 0, fmt.Errorf("postgres: invalid page offset %d limit %d", offset, limit)
	}

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM appointments WHERE status = 'scheduled'`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count scheduled appointments: %w", mapError(err))
	}

	rows, err := s.db.Query(ctx, `
		SELECT a.id, pr.name, pa.name, a.scheduled_at
		FROM appointments a
		JOIN practitioners pr ON pr.id = a.practitioner_id
		JOIN patients pa ON pa.id = a.patient_id
		WHERE a.status = 'scheduled'
		ORDER BY a.scheduled_at, a.id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list scheduled appointments: %w", mapError(err))
	}
	defer rows.Close()

	views := make([]persistence.ScheduledAppointmentView, 0, limit)
	for rows.Next() {
		var v persistence.ScheduledAppointmentView
		if err := rows.Scan(&v.ID, &v.PractitionerName, &v.PatientName, &v.ScheduledAt); err != nil {
			return nil, 0, fmt.Errorf("scan appointment: %w", err)
		}
		v.ScheduledAt = v.ScheduledAt.UTC()
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list scheduled appointments: %w", mapError(err))
	}
	return views, total, nil
}

var (
	_ persistence.PatientRepository      = (*Storage)(nil)
	_ persistence.PractitionerRepository = (*Storage)(nil)
	_ persistence.AppointmentRepository  = (*Storage)(nil)
)
