package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/example/clinic-scheduler/internal/logging"
	"github.com/example/clinic-scheduler/internal/scheduling"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := defaultLogger(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}

	if got := defaultLogger(nil); got != slog.Default() {
		t.Fatalf("expected default logger when none provided")
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{scheduling.ErrOutOfOperatingHours, "out_of_operating_hours"},
		{fmt.Errorf("wrapped: %w", scheduling.ErrPatientDoubleBooking), "patient_double_booking"},
		{scheduling.ErrAppointmentAlreadyCancelled, "appointment_already_cancelled"},
		{&ValidationError{FieldErrors: map[string]string{"patient_id": "required"}}, "validation"},
		{errors.New("boom"), "unexpected"},
	}
	for _, tc := range cases {
		if got := ErrorKind(tc.err); got != tc.want {
			t.Fatalf("expected %q for %v, got %q", tc.want, tc.err, got)
		}
	}
}

func TestServiceLoggerPrefersContextLogger(t *testing.T) {
	t.Parallel()

	var base, scoped bytes.Buffer
	baseLogger := slog.New(slog.NewTextHandler(&base, nil))
	ctx := logging.ContextWithLogger(context.Background(), slog.New(slog.NewTextHandler(&scoped, nil)))

	serviceLogger(ctx, baseLogger, "SchedulingService", "Schedule", "patient_id", "1").Info("hello")

	if base.Len() != 0 {
		t.Fatalf("expected base logger to stay unused, got %q", base.String())
	}
	for _, want := range []string{"service=SchedulingService", "operation=Schedule", "patient_id=1"} {
		if !strings.Contains(scoped.String(), want) {
			t.Fatalf("expected %q in %q", want, scoped.String())
		}
	}
}

func TestLogOutcomeLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	logOutcome(context.Background(), logger, "rejected", scheduling.ErrInsufficientLeadTime)
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Fatalf("expected rule rejection at WARN, got %q", buf.String())
	}

	buf.Reset()
	logOutcome(context.Background(), logger, "failed", errors.New("boom"))
	if !strings.Contains(buf.String(), "level=ERROR") || !strings.Contains(buf.String(), "error_kind=unexpected") {
		t.Fatalf("expected unexpected failure at ERROR, got %q", buf.String())
	}
}
