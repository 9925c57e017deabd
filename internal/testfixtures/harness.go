package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/clinic-scheduler/internal/persistence"
	"github.com/example/clinic-scheduler/internal/persistence/memory"
	"github.com/example/clinic-scheduler/internal/persistence/sqlite"
	"github.com/example/clinic-scheduler/internal/persistence/sqlite/migration"
)

// Store is the union of repositories every storage backend provides.
type Store interface {
	persistence.PatientRepository
	persistence.PractitionerRepository
	persistence.AppointmentRepository
	Ping(ctx context.Context) error
	Close() error
}

// StorageHarness wraps a backend prepared for a single test.
type StorageHarness struct {
	Store Store
}

// NewMemoryHarness returns a harness backed by in-memory storage. Appointment
// IDs come from gen when supplied.
func NewMemoryHarness(tb testing.TB, gen *IDGenerator) *StorageHarness {
	tb.Helper()

	var opts []memory.Option
	if gen != nil {
		opts = append(opts, memory.WithIDGenerator(gen.NextFunc()))
	}
	store := memory.New(opts...)
	tb.Cleanup(func() {
		_ = store.Close()
	})
	return &StorageHarness{Store: store}
}

// NewSQLiteHarness returns a harness backed by a migrated SQLite database
// stored under the test's temp directory.
func NewSQLiteHarness(tb testing.TB) *StorageHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "clinic.db")
	store, err := sqlite.Open(migration.TempFileTestSQLiteConfig(path))
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	tb.Cleanup(func() {
		if err := store.Close(); err != nil {
			tb.Logf("close sqlite: %v", err)
		}
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := store.Migrate(context.Background(), logger); err != nil {
		tb.Fatalf("migrate sqlite: %v", err)
	}
	return &StorageHarness{Store: store}
}

// SeedPatients stores the given patients, failing the test on error.
func (h *StorageHarness) SeedPatients(tb testing.TB, patients ...PatientFixture) {
	tb.Helper()
	for _, p := range patients {
		if err := h.Store.UpsertPatient(context.Background(), p.Persistence()); err != nil {
			tb.Fatalf("seed patient %s: %v", p.ID, err)
		}
	}
}

// SeedPractitioners stores the given practitioners, failing the test on error.
func (h *StorageHarness) SeedPractitioners(tb testing.TB, practitioners ...PractitionerFixture) {
	tb.Helper()
	for _, p := range practitioners {
		if err := h.Store.UpsertPractitioner(context.Background(), p.Persistence()); err != nil {
			tb.Fatalf("seed practitioner %s: %v", p.ID, err)
		}
	}
}
