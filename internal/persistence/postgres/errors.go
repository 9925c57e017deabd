package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/example/clinic-scheduler/internal/persistence"
)

const (
	practitionerSlotIndex = "ux_appointments_practitioner_slot"
	patientDayIndex       = "ux_appointments_patient_day"
)

// mapError translates pgx and SQLSTATE failures into persistence sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return persistence.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case "23505":
		switch pgErr.ConstraintName {
		case practitionerSlotIndex:
			return fmt.Errorf("%w: %v", persistence.ErrPractitionerSlotTaken, err)
		case patientDayIndex:
			return fmt.Errorf("%w: %v", persistence.ErrPatientDayTaken, err)
		default:
			return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
		}
	case "23503":
		return fmt.Errorf("%w: %v", persistence.ErrForeignKeyViolation, err)
	case "23502", "23514":
		return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	}
	return err
}
