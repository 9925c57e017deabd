package application

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/clinic-scheduler/internal/events"
	"github.com/example/clinic-scheduler/internal/scheduling"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

var tracer = otel.Tracer("github.com/example/clinic-scheduler/internal/application")

// SchedulingService books appointments and lists the scheduled ones.
type SchedulingService struct {
	patients     PatientDirectory
	appointments AppointmentRepository
	rules        scheduling.Rules
	conflicts    *scheduling.ConflictChecker
	selector     *scheduling.PractitionerSelector
	now          func() time.Time
	opts         serviceOptions
}

// NewSchedulingService wires dependencies for booking operations. A nil
// random source falls back to an unseeded one and a nil clock to time.Now.
func NewSchedulingService(patients PatientDirectory, practitioners scheduling.PractitionerDirectory, appointments AppointmentRepository, random scheduling.RandomSource, now func() time.Time, opts ...ServiceOption) *SchedulingService {
	if now == nil {
		now = time.Now
	}
	o := buildOptions(opts)
	conflicts := scheduling.NewConflictChecker(appointments, o.rules)
	return &SchedulingService{
		patients:     patients,
		appointments: appointments,
		rules:        o.rules,
		conflicts:    conflicts,
		selector:     scheduling.NewPractitionerSelector(practitioners, conflicts, random),
		now:          now,
		opts:         o,
	}
}

func (s *SchedulingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.opts.logger, "SchedulingService", operation, attrs...)
}

// Schedule validates the request against the clinic rules, resolves the
// practitioner and persists a new Scheduled appointment.
func (s *SchedulingService) Schedule(ctx context.Context, req ScheduleRequest) (detail AppointmentDetail, err error) {
	if s == nil {
		err = fmt.Errorf("SchedulingService is nil")
		return
	}

	selection := SelectionExplicit
	if strings.TrimSpace(req.PractitionerID) == "" {
		selection = SelectionAutomatic
	}

	started := time.Now()
	ctx, span := tracer.Start(ctx, "SchedulingService.Schedule", trace.WithAttributes(
		attribute.String("patient.id", req.PatientID),
		attribute.String("practitioner.selection", selection),
	))
	logger := s.loggerWith(ctx, "Schedule",
		"patient_id", req.PatientID,
		"practitioner_id", req.PractitionerID,
		"selection", selection,
	)
	defer func() {
		s.opts.metrics.ObserveDuration("schedule", time.Since(started))
		if err != nil {
			endSpan(span, err)
			s.opts.metrics.ObserveRejection("schedule", ErrorKind(err))
			logOutcome(ctx, logger, "failed to schedule appointment", err)
			return
		}
		span.SetAttributes(attribute.String("appointment.id", detail.ID))
		span.End()
		s.opts.metrics.ObserveScheduled(selection)
		logger.With(
			"appointment_id", detail.ID,
			"practitioner_id", detail.PractitionerID,
			"scheduled_at", detail.ScheduledAt,
		).InfoContext(ctx, "appointment scheduled")
	}()

	if vErr := validateScheduleRequest(req); vErr.HasErrors() {
		err = vErr
		return
	}
	if s.patients == nil || s.appointments == nil {
		err = fmt.Errorf("scheduling service not configured")
		return
	}

	// Both sides of every rule compare at whole seconds, the precision storage keeps.
	now := s.now().UTC().Truncate(time.Second)
	at := req.ScheduledAt.UTC().Truncate(time.Second)

	patient, found, err := s.patients.FindPatient(ctx, strings.TrimSpace(req.PatientID))
	if err != nil {
		err = fmt.Errorf("find patient: %w", err)
		return
	}
	if !found || !patient.Active {
		err = scheduling.ErrPatientNotFoundOrInactive
		return
	}

	if err = s.rules.Validate(at, now); err != nil {
		return
	}

	busy, err := s.conflicts.PatientHasConflict(ctx, patient.ID, at)
	if err != nil {
		return
	}
	if busy {
		err = scheduling.ErrPatientDoubleBooking
		return
	}

	practitioner, err := s.selector.Select(ctx, strings.TrimSpace(req.PractitionerID), at)
	if err != nil {
		return
	}

	saved, err := s.appointments.SaveAppointment(ctx, scheduling.NewAppointment(practitioner.ID, patient.ID, at))
	if err != nil {
		err = mapAppointmentRepoError(err)
		return
	}

	detail = AppointmentDetail{
		ID:             saved.ID,
		PractitionerID: saved.PractitionerID,
		PatientID:      saved.PatientID,
		ScheduledAt:    saved.ScheduledAt,
	}

	publishEvent(ctx, s.opts.publisher, logger, events.Event{
		ID:          s.opts.idGenerator(),
		Type:        events.TypeAppointmentScheduled,
		AggregateID: saved.ID,
		OccurredAt:  now.UTC(),
		Payload: events.AppointmentScheduled{
			AppointmentID:  saved.ID,
			PractitionerID: saved.PractitionerID,
			PatientID:      saved.PatientID,
			ScheduledAt:    saved.ScheduledAt,
			Selection:      selection,
		},
	})
	return
}

// ListScheduled returns one page of Scheduled appointments ordered by start time.
func (s *SchedulingService) ListScheduled(ctx context.Context, req PageRequest) (page Page[AppointmentListItem], err error) {
	if s == nil {
		err = fmt.Errorf("SchedulingService is nil")
		return
	}

	started := time.Now()
	ctx, span := tracer.Start(ctx, "SchedulingService.ListScheduled", trace.WithAttributes(
		attribute.Int("page.number", req.Number),
		attribute.Int("page.size", req.Size),
	))
	logger := s.loggerWith(ctx, "ListScheduled", "page", req.Number, "size", req.Size)
	defer func() {
		s.opts.metrics.ObserveDuration("list", time.Since(started))
		if err != nil {
			endSpan(span, err)
			logOutcome(ctx, logger, "failed to list appointments", err)
			return
		}
		span.End()
		logger.With("result_count", len(page.Items), "total", page.TotalItems).DebugContext(ctx, "appointments listed")
	}()

	size, vErr := normalizePageRequest(req)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if s.appointments == nil {
		err = fmt.Errorf("appointment repository not configured")
		return
	}

	items, total, err := s.appointments.ListScheduled(ctx, req.Number*size, size)
	if err != nil {
		err = fmt.Errorf("list scheduled appointments: %w", err)
		return
	}
	if items == nil {
		items = []AppointmentListItem{}
	}

	page = Page[AppointmentListItem]{
		Items:      items,
		Number:     req.Number,
		Size:       size,
		TotalItems: total,
		TotalPages: (total + size - 1) / size,
	}
	return
}

func validateScheduleRequest(req ScheduleRequest) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(req.PatientID) == "" {
		vErr.add("patient_id", "patient_id is required")
	}
	if req.ScheduledAt.IsZero() {
		vErr.add("scheduled_at", "scheduled_at is required")
	}

	return vErr
}

// normalizePageRequest applies the default and maximum page sizes and returns
// the effective size.
func normalizePageRequest(req PageRequest) (int, *ValidationError) {
	vErr := &ValidationError{}

	if req.Number < 0 {
		vErr.add("page", "page must not be negative")
	}
	if req.Size < 0 {
		vErr.add("size", "size must not be negative")
	}
	if vErr.HasErrors() {
		return 0, vErr
	}

	size := req.Size
	switch {
	case size == 0:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	if req.Number > math.MaxInt32/size {
		vErr.add("page", "page is out of range")
	}
	return size, vErr
}

func publishEvent(ctx context.Context, publisher events.Publisher, logger *slog.Logger, event events.Event) {
	if err := publisher.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "failed to publish event", "error", err, "event_type", event.Type, "event_id", event.ID)
	}
}

func endSpan(span trace.Span, err error) {
	span.RecordError(err)
	if !isRejection(err) {
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
