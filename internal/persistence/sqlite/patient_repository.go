package sqlite

import (
	"context"
	"time"

	"github.com/example/clinic-scheduler/internal/persistence"
)

// PatientRepository implements persistence.PatientRepository using SQLite
type PatientRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewPatientRepository creates a new SQLite patient repository
func NewPatientRepository(pool *ConnectionPool) *PatientRepository {
	return &PatientRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

// UpsertPatient inserts the patient or refreshes its name and active flag.
func (r *PatientRepository) UpsertPatient(ctx context.Context, patient persistence.Patient) error {
	if patient.ID == "" {
		return persistence.ErrConstraintViolation
	}

	now := formatTime(time.Now())
	query := `
		INSERT INTO patients (id, name, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			active = excluded.active,
			updated_at = excluded.updated_at
	`

	return r.retry.WithRetry(ctx, func() error {
		_, err := r.helper.Exec(ctx, query, patient.ID, patient.Name, patient.Active, now, now)
		return err
	})
}

// GetPatient retrieves a patient by ID
func (r *PatientRepository) GetPatient(ctx context.Context, id string) (persistence.Patient, error) {
	if id == "" {
		return persistence.Patient{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, name, active, created_at, updated_at
		FROM patients
		WHERE id = ?
	`

	var patient persistence.Patient
	var createdAt, updatedAt string
	err := r.helper.QueryRow(ctx, query, id).Scan(
		&patient.ID,
		&patient.Name,
		&patient.Active,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Patient{}, r.mapper.MapError(err)
	}

	if patient.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Patient{}, err
	}
	if patient.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Patient{}, err
	}
	return patient, nil
}
