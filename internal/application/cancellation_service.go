package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/clinic-scheduler/internal/events"
	"github.com/example/clinic-scheduler/internal/scheduling"
)

// CancellationService terminates Scheduled appointments.
type CancellationService struct {
	appointments AppointmentRepository
	rules        scheduling.Rules
	now          func() time.Time
	opts         serviceOptions
}

// NewCancellationService wires dependencies for cancellations.
func NewCancellationService(appointments AppointmentRepository, now func() time.Time, opts ...ServiceOption) *CancellationService {
	if now == nil {
		now = time.Now
	}
	o := buildOptions(opts)
	return &CancellationService{appointments: appointments, rules: o.rules, now: now, opts: o}
}

func (s *CancellationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.opts.logger, "CancellationService", operation, attrs...)
}

// Cancel moves the appointment to Cancelled when enough notice is given.
func (s *CancellationService) Cancel(ctx context.Context, req CancelRequest) (err error) {
	if s == nil {
		return fmt.Errorf("CancellationService is nil")
	}

	started := time.Now()
	ctx, span := tracer.Start(ctx, "CancellationService.Cancel", trace.WithAttributes(
		attribute.String("appointment.id", req.AppointmentID),
		attribute.String("cancellation.reason", req.Reason),
	))
	logger := s.loggerWith(ctx, "Cancel",
		"appointment_id", req.AppointmentID,
		"reason", req.Reason,
	)

	var reason scheduling.CancellationReason
	defer func() {
		s.opts.metrics.ObserveDuration("cancel", time.Since(started))
		if err != nil {
			endSpan(span, err)
			s.opts.metrics.ObserveRejection("cancel", ErrorKind(err))
			logOutcome(ctx, logger, "failed to cancel appointment", err)
			return
		}
		span.End()
		s.opts.metrics.ObserveCancelled(string(reason))
		logger.InfoContext(ctx, "appointment cancelled")
	}()

	reason, vErr := validateCancelRequest(req)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if s.appointments == nil {
		err = fmt.Errorf("appointment repository not configured")
		return
	}

	appointment, found, err := s.appointments.FindAppointment(ctx, strings.TrimSpace(req.AppointmentID))
	if err != nil {
		err = fmt.Errorf("find appointment: %w", err)
		return
	}
	if !found {
		err = scheduling.ErrAppointmentNotFound
		return
	}

	now := s.now().UTC().Truncate(time.Second)
	if err = s.rules.CheckCancellationNotice(appointment.ScheduledAt, now); err != nil {
		return
	}

	cancelled, err := appointment.Cancel(reason)
	if err != nil {
		return
	}

	if _, err = s.appointments.SaveAppointment(ctx, cancelled); err != nil {
		err = mapAppointmentRepoError(err)
		return
	}

	publishEvent(ctx, s.opts.publisher, logger, events.Event{
		ID:          s.opts.idGenerator(),
		Type:        events.TypeAppointmentCancelled,
		AggregateID: cancelled.ID,
		OccurredAt:  now.UTC(),
		Payload: events.AppointmentCancelled{
			AppointmentID: cancelled.ID,
			ScheduledAt:   cancelled.ScheduledAt,
			Reason:        string(reason),
		},
	})
	return nil
}

func validateCancelRequest(req CancelRequest) (scheduling.CancellationReason, *ValidationError) {
	vErr := &ValidationError{}

	if strings.TrimSpace(req.AppointmentID) == "" {
		vErr.add("appointment_id", "appointment_id is required")
	}

	var reason scheduling.CancellationReason
	if strings.TrimSpace(req.Reason) == "" {
		vErr.add("reason", "reason is required")
	} else {
		parsed, err := scheduling.ParseCancellationReason(req.Reason)
		if err != nil {
			vErr.add("reason", "reason must be one of PATIENT_REQUEST, PRACTITIONER_CANCELLED, OTHER")
		}
		reason = parsed
	}

	return reason, vErr
}
