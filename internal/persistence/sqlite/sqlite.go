// Package sqlite stores clinic data in a SQLite database through the
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/clinic-scheduler/internal/persistence"
	"github.com/example/clinic-scheduler/internal/persistence/sqlite/migration"
)

// Storage bundles the SQLite repositories over one connection pool.
type Storage struct {
	*PatientRepository
	*PractitionerRepository
	*AppointmentRepository

	pool *ConnectionPool
}

// Open connects to the configured database. Call Migrate before use.
func Open(config migration.SQLiteConfig) (*Storage, error) {
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	return NewStorage(pool), nil
}

// NewStorage builds the repositories over an existing pool.
func NewStorage(pool *ConnectionPool) *Storage {
	return &Storage{
		PatientRepository:      NewPatientRepository(pool),
		PractitionerRepository: NewPractitionerRepository(pool),
		AppointmentRepository:  NewAppointmentRepository(pool),
		pool:                   pool,
	}
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context, logger *slog.Logger) error {
	return migration.Run(ctx, s.pool.DB(), logger)
}

// Ping checks the database connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}

var (
	_ persistence.PatientRepository      = (*Storage)(nil)
	_ persistence.PractitionerRepository = (*Storage)(nil)
	_ persistence.AppointmentRepository  = (*Storage)(nil)
)
