package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/clinic-scheduler/internal/persistence"
)

// PractitionerRepository implements persistence.PractitionerRepository using SQLite
type PractitionerRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewPractitionerRepository creates a new SQLite practitioner repository
func NewPractitionerRepository(pool *ConnectionPool) *PractitionerRepository {
	return &PractitionerRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

// UpsertPractitioner inserts the practitioner or refreshes its name and active flag.
func (r *PractitionerRepository) UpsertPractitioner(ctx context.Context, practitioner persistence.Practitioner) error {
	if practitioner.ID == "" {
		return persistence.ErrConstraintViolation
	}

	now := formatTime(time.Now())
	query := `
		INSERT INTO practitioners (id, name, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			active = excluded.active,
			updated_at = excluded.updated_at
	`

	return r.retry.WithRetry(ctx, func() error {
		_, err := r.helper.Exec(ctx, query, practitioner.ID, practitioner.Name, practitioner.Active, now, now)
		return err
	})
}

// GetPractitioner retrieves a practitioner by ID
func (r *PractitionerRepository) GetPractitioner(ctx context.Context, id string) (persistence.Practitioner, error) {
	if id == "" {
		return persistence.Practitioner{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, name, active, created_at, updated_at
		FROM practitioners
		WHERE id = ?
	`

	var createdAt, updatedAt string
	var practitioner persistence.Practitioner
	err := r.helper.QueryRow(ctx, query, id).Scan(
		&practitioner.ID,
		&practitioner.Name,
		&practitioner.Active,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Practitioner{}, r.mapper.MapError(err)
	}

	if practitioner.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Practitioner{}, err
	}
	if practitioner.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Practitioner{}, err
	}
	return practitioner, nil
}

// ListAvailablePractitioners returns active practitioners without a scheduled
// appointment at exactly at, ordered by ID.
func (r *PractitionerRepository) ListAvailablePractitioners(ctx context.Context, at time.Time) ([]persistence.Practitioner, error) {
	query := `
		SELECT p.id, p.name, p.active
		FROM practitioners p
		LEFT JOIN appointments a
			ON a.practitioner_id = p.id
			AND a.scheduled_at = ?
			AND a.status = 'scheduled'
		WHERE p.active = 1 AND a.id IS NULL
		ORDER BY p.id
	`

	rows, err := r.helper.Query(ctx, query, formatTime(at))
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	practitioners := make([]persistence.Practitioner, 0)
	for rows.Next() {
		var p persistence.Practitioner
		if err := rows.Scan(&p.ID, &p.Name, &p.Active); err != nil {
			return nil, fmt.Errorf("failed to scan practitioner: %w", err)
		}
		practitioners = append(practitioners, p)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return practitioners, nil
}
