package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/clinic-scheduler/internal/persistence"
)

// AppointmentRepository implements persistence.AppointmentRepository using SQLite
type AppointmentRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewAppointmentRepository creates a new SQLite appointment repository
func NewAppointmentRepository(pool *ConnectionPool) *AppointmentRepository {
	return &AppointmentRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

// CreateAppointment inserts a new appointment, assigning a uuid when ID is empty.
func (r *AppointmentRepository) CreateAppointment(ctx context.Context, appointment persistence.Appointment) (persistence.Appointment, error) {
	if appointment.ID == "" {
		appointment.ID = uuid.NewString()
	}

	now := time.Now().UTC().Truncate(time.Second)
	appointment.CreatedAt = now
	appointment.UpdatedAt = now
	appointment.ScheduledAt = appointment.ScheduledAt.UTC()

	query := `
		INSERT INTO appointments (
			id, practitioner_id, patient_id, scheduled_at, scheduled_day,
			status, cancellation_reason, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := r.retry.WithRetry(ctx, func() error {
		_, err := r.helper.Exec(ctx, query,
			appointment.ID,
			appointment.PractitionerID,
			appointment.PatientID,
			formatTime(appointment.ScheduledAt),
			appointment.ScheduledDay,
			appointment.Status,
			nullableString(appointment.CancellationReason),
			formatTime(appointment.CreatedAt),
			formatTime(appointment.UpdatedAt),
		)
		return err
	})
	if err != nil {
		return persistence.Appointment{}, err
	}
	return appointment, nil
}

// UpdateAppointment rewrites the mutable columns of an appointment that is
// still scheduled. It returns ErrAlreadyCancelled when the stored row has
// already left that state and ErrNotFound when there is no such row.
func (r *AppointmentRepository) UpdateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	if appointment.ID == "" {
		return persistence.ErrNotFound
	}

	query := `
		UPDATE appointments
		SET practitioner_id = ?, patient_id = ?, scheduled_at = ?, scheduled_day = ?,
			status = ?, cancellation_reason = ?, updated_at = ?
		WHERE id = ? AND status = 'scheduled'
	`

	var affected int64
	err := r.retry.WithRetry(ctx, func() error {
		result, err := r.helper.Exec(ctx, query,
			appointment.PractitionerID,
			appointment.PatientID,
			formatTime(appointment.ScheduledAt),
			appointment.ScheduledDay,
			appointment.Status,
			nullableString(appointment.CancellationReason),
			formatTime(time.Now()),
			appointment.ID,
		)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.missedUpdateError(ctx, appointment.ID)
	}
	return nil
}

func (r *AppointmentRepository) missedUpdateError(ctx context.Context, id string) error {
	found, err := r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = ?)`, id)
	if err != nil {
		return err
	}
	if found {
		return persistence.ErrAlreadyCancelled
	}
	return persistence.ErrNotFound
}

// GetAppointment retrieves an appointment by ID
func (r *AppointmentRepository) GetAppointment(ctx context.Context, id string) (persistence.Appointment, error) {
	if id == "" {
		return persistence.Appointment{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, practitioner_id, patient_id, scheduled_at, scheduled_day,
			status, cancellation_reason, created_at, updated_at
		FROM appointments
		WHERE id = ?
	`

	var appointment persistence.Appointment
	var scheduledAt, createdAt, updatedAt string
	var reason sql.NullString
	err := r.helper.QueryRow(ctx, query, id).Scan(
		&appointment.ID,
		&appointment.PractitionerID,
		&appointment.PatientID,
		&scheduledAt,
		&appointment.ScheduledDay,
		&appointment.Status,
		&reason,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Appointment{}, r.mapper.MapError(err)
	}

	if reason.Valid {
		value := reason.String
		appointment.CancellationReason = &value
	}
	if appointment.ScheduledAt, err = parseTime("scheduled_at", scheduledAt); err != nil {
		return persistence.Appointment{}, err
	}
	if appointment.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Appointment{}, err
	}
	if appointment.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Appointment{}, err
	}
	return appointment, nil
}

// ExistsScheduledForPatientInRange reports whether the patient holds a
// scheduled appointment in [startInclusive, endExclusive).
func (r *AppointmentRepository) ExistsScheduledForPatientInRange(ctx context.Context, patientID string, startInclusive, endExclusive time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE patient_id = ? AND status = 'scheduled'
				AND scheduled_at >= ? AND scheduled_at < ?
		)
	`
	return r.exists(ctx, query, patientID, formatTime(startInclusive), formatTime(endExclusive))
}

// ExistsScheduledForPractitionerAt reports whether the practitioner holds a
// scheduled appointment at exactly at.
func (r *AppointmentRepository) ExistsScheduledForPractitionerAt(ctx context.Context, practitionerID string, at time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE practitioner_id = ? AND status = 'scheduled' AND scheduled_at = ?
		)
	`
	return r.exists(ctx, query, practitionerID, formatTime(at))
}

func (r *AppointmentRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var exists bool
	if err := r.helper.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, r.mapper.MapError(err)
	}
	return exists, nil
}

// ListScheduledAppointments returns one page of scheduled appointments with
// practitioner and patient names, plus the total count, read in one transaction.
func (r *AppointmentRepository) ListScheduledAppointments(ctx context.Context, offset, limit int) ([]persistence.ScheduledAppointmentView, int, error) {
	if offset < 0 || limit < 0 {
		return nil, 0, fmt.Errorf("sqlite: invalid page offset %d limit %d", offset, limit)
	}

	countQuery := `SELECT COUNT(*) FROM appointments WHERE status = 'scheduled'`
	pageQuery := `
		SELECT a.id, pr.name, pa.name, a.scheduled_at
		FROM appointments a
		JOIN practitioners pr ON pr.id = a.practitioner_id
		JOIN patients pa ON pa.id = a.patient_id
		WHERE a.status = 'scheduled'
		ORDER BY a.scheduled_at, a.id
		LIMIT ? OFFSET ?
	`

	var total int
	views := make([]persistence.ScheduledAppointmentView, 0, limit)
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
			return r.mapper.MapError(err)
		}

		rows, err := tx.QueryContext(ctx, pageQuery, limit, offset)
		if err != nil {
			return r.mapper.MapError(err)
		}
		defer rows.Close()

		for rows.Next() {
			var view persistence.ScheduledAppointmentView
			var scheduledAt string
			if err := rows.Scan(&view.ID, &view.PractitionerName, &view.PatientName, &scheduledAt); err != nil {
				return fmt.Errorf("failed to scan appointment: %w", err)
			}
			if view.ScheduledAt, err = parseTime("scheduled_at", scheduledAt); err != nil {
				return err
			}
			views = append(views, view)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}
