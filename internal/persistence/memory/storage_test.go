package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/example/clinic-scheduler/internal/persistence"
)

var slot = time.Date(2024, time.January, 9, 10, 0, 0, 0, time.UTC)

func newSeededStorage(t *testing.T) *Storage {
	t.Helper()

	seq := 0
	storage := New(WithIDGenerator(func() string {
		seq++
		return fmt.Sprintf("appt-%d", seq)
	}))

	ctx := context.Background()
	for _, p := range []persistence.Patient{
		{ID: "pa-1", Name: "Maria", Active: true},
		{ID: "pa-2", Name: "Joao", Active: true},
	} {
		if err := storage.UpsertPatient(ctx, p); err != nil {
			t.Fatalf("UpsertPatient failed: %v", err)
		}
	}
	for _, p := range []persistence.Practitioner{
		{ID: "pr-1", Name: "Dr. Ana", Active: true},
		{ID: "pr-2", Name: "Dr. Bruno", Active: true},
		{ID: "pr-3", Name: "Dr. Carla", Active: false},
	} {
		if err := storage.UpsertPractitioner(ctx, p); err != nil {
			t.Fatalf("UpsertPractitioner failed: %v", err)
		}
	}
	return storage
}

func scheduled(practitionerID, patientID string, at time.Time) persistence.Appointment {
	return persistence.Appointment{
		PractitionerID: practitionerID,
		PatientID:      patientID,
		ScheduledAt:    at,
		ScheduledDay:   at.Format(time.DateOnly),
		Status:         persistence.AppointmentStatusScheduled,
	}
}

func TestCreateAndGetAppointment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newSeededStorage(t)

	created, err := storage.CreateAppointment(ctx, scheduled("pr-1", "pa-1", slot))
	if err != nil {
		t.Fatalf("CreateAppointment failed: %v", err)
	}
	if created.ID != "appt-1" {
		t.Fatalf("expected generated id appt-1, got %q", created.ID)
	}

	fetched, err := storage.GetAppointment(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetAppointment failed: %v", err)
	}
	if !fetched.ScheduledAt.Equal(slot) || fetched.Status != persistence.AppointmentStatusScheduled {
		t.Fatalf("unexpected appointment: %#v", fetched)
	}

	if _, err := storage.GetAppointment(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateAppointmentEnforcesUniqueness(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newSeededStorage(t)

	if _, err := storage.CreateAppointment(ctx, scheduled("pr-1", "pa-1", slot)); err != nil {
		t.Fatalf("CreateAppointment failed: %v", err)
	}

	_, err := storage.CreateAppointment(ctx, scheduled("pr-1", "pa-2", slot))
	if !errors.Is(err, persistence.ErrPractitionerSlotTaken) {
		t.Fatalf("expected ErrPractitionerSlotTaken, got %v", err)
	}

	_, err = storage.CreateAppointment(ctx, scheduled("pr-2", "pa-1", slot.Add(3*time.Hour)))
	if !errors.Is(err, persistence.ErrPatientDayTaken) {
		t.Fatalf("expected ErrPatientDayTaken, got %v", err)
	}

	if _, err := storage.CreateAppointment(ctx, scheduled("pr-1", "pa-2", slot.Add(time.Minute))); err != nil {
		t.Fatalf("expected a minute later to be accepted, got %v", err)
	}

	if _, err := storage.CreateAppointment(ctx, scheduled("pr-9", "pa-2", slot.Add(24*time.Hour))); !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
	}
}

func TestCancelledAppointmentsReleaseSlots(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newSeededStorage(t)

	created, err := storage.CreateAppointment(ctx, scheduled("pr-1", "pa-1", slot))
	if err != nil {
		t.Fatalf("CreateAppointment failed: %v", err)
	}

	reason := "PATIENT_REQUEST"
	created.Status = persistence.AppointmentStatusCancelled
	created.CancellationReason = &reason
	if err := storage.UpdateAppointment(ctx, created); err != nil {
		t.Fatalf("UpdateAppointment failed: %v", err)
	}

	busy, err := storage.ExistsScheduledForPractitionerAt(ctx, "pr-1", slot)
	if err != nil || busy {
		t.Fatalf("expected practitioner to be free, got %v (%v)", busy, err)
	}
	if _, err := storage.CreateAppointment(ctx, scheduled("pr-1", "pa-1", slot)); err != nil {
		t.Fatalf("expected slot to be reusable after cancellation, got %v", err)
	}
}

func TestUpdateAppointmentCancelsOnlyOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newSeededStorage(t)

	created, err := storage.CreateAppointment(ctx, scheduled("pr-1", "pa-1", slot))
	if err != nil {
		t.Fatalf("CreateAppointment failed: %v", err)
	}

	reasons := []string{"PATIENT_REQUEST", "PRACTITIONER_CANCELLED", "OTHER", "OTHER"}
	errs := make([]error, len(reasons))
	var wg sync.WaitGroup
	for i, reason := range reasons {
		wg.Add(1)
		go func(i int, reason string) {
			defer wg.Done()
			update := created
			update.Status = persistence.AppointmentStatusCancelled
			update.CancellationReason = &reason
			errs[i] = storage.UpdateAppointment(ctx, update)
		}(i, reason)
	}
	wg.Wait()

	winner := -1
	for i, err := range errs {
		switch {
		case err == nil:
			if winner != -1 {
				t.Fatalf("expected a single successful cancel, got %d and %d", winner, i)
			}
			winner = i
		case !errors.Is(err, persistence.ErrAlreadyCancelled):
			t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
		}
	}
	if winner == -1 {
		t.Fatal("expected one cancel to succeed")
	}

	stored, err := storage.GetAppointment(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetAppointment failed: %v", err)
	}
	if stored.CancellationReason == nil || *stored.CancellationReason != reasons[winner] {
		t.Fatalf("expected reason %q to stick, got %#v", reasons[winner], stored.CancellationReason)
	}
}

func TestUpdateAppointmentChecksStatusReason(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newSeededStorage(t)

	created, err := storage.CreateAppointment(ctx, scheduled("pr-1", "pa-1", slot))
	if err != nil {
		t.Fatalf("CreateAppointment failed: %v", err)
	}

	created.Status = persistence.AppointmentStatusCancelled
	if err := storage.UpdateAppointment(ctx, created); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}

	missing := scheduled("pr-1", "pa-1", slot)
	missing.ID = "nope"
	if err := storage.UpdateAppointment(ctx, missing); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExistsScheduledForPatientInRange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newSeededStorage(t)
	if _, err := storage.CreateAppointment(ctx, scheduled("pr-1", "pa-1", slot)); err != nil {
		t.Fatalf("CreateAppointment failed: %v", err)
	}

	start := time.Date(2024, time.January, 9, 7, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.January, 9, 19, 0, 0, 0, time.UTC)
	exists, err := storage.ExistsScheduledForPatientInRange(ctx, "pa-1", start, end)
	if err != nil || !exists {
		t.Fatalf("expected appointment in range, got %v (%v)", exists, err)
	}

	exists, err = storage.ExistsScheduledForPatientInRange(ctx, "pa-1", slot.Add(time.Second), end)
	if err != nil || exists {
		t.Fatalf("expected no appointment after the slot, got %v (%v)", exists, err)
	}

	exists, err = storage.ExistsScheduledForPatientInRange(ctx, "pa-1", start, slot)
	if err != nil || exists {
		t.Fatalf("expected end bound to be exclusive, got %v (%v)", exists, err)
	}
}

func TestListAvailablePractitioners(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newSeededStorage(t)
	if _, err := storage.CreateAppointment(ctx, scheduled("pr-1", "pa-1", slot)); err != nil {
		t.Fatalf("CreateAppointment failed: %v", err)
	}

	available, err := storage.ListAvailablePractitioners(ctx, slot)
	if err != nil {
		t.Fatalf("ListAvailablePractitioners failed: %v", err)
	}
	if len(available) != 1 || available[0].ID != "pr-2" {
		t.Fatalf("expected only pr-2 to be available, got %#v", available)
	}

	available, err = storage.ListAvailablePractitioners(ctx, slot.Add(time.Minute))
	if err != nil {
		t.Fatalf("ListAvailablePractitioners failed: %v", err)
	}
	if len(available) != 2 || available[0].ID != "pr-1" || available[1].ID != "pr-2" {
		t.Fatalf("expected pr-1 and pr-2 a minute later, got %#v", available)
	}
}

func TestListScheduledAppointmentsPaging(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newSeededStorage(t)

	later, err := storage.CreateAppointment(ctx, scheduled("pr-1", "pa-1", slot.Add(24*time.Hour)))
	if err != nil {
		t.Fatalf("CreateAppointment failed: %v", err)
	}
	earlier, err := storage.CreateAppointment(ctx, scheduled("pr-2", "pa-2", slot))
	if err != nil {
		t.Fatalf("CreateAppointment failed: %v", err)
	}

	views, total, err := storage.ListScheduledAppointments(ctx, 0, 10)
	if err != nil {
		t.Fatalf("ListScheduledAppointments failed: %v", err)
	}
	if total != 2 || len(views) != 2 {
		t.Fatalf("expected 2 appointments, got %d (total %d)", len(views), total)
	}
	if views[0].ID != earlier.ID || views[1].ID != later.ID {
		t.Fatalf("expected ascending order, got %#v", views)
	}
	if views[0].PatientName != "Joao" || views[0].PractitionerName != "Dr. Bruno" {
		t.Fatalf("unexpected names: %#v", views[0])
	}

	views, total, err = storage.ListScheduledAppointments(ctx, 1, 1)
	if err != nil || total != 2 || len(views) != 1 || views[0].ID != later.ID {
		t.Fatalf("unexpected second page: %#v total=%d err=%v", views, total, err)
	}

	views, _, err = storage.ListScheduledAppointments(ctx, 5, 10)
	if err != nil || len(views) != 0 {
		t.Fatalf("expected empty page past the end, got %#v (%v)", views, err)
	}
}
