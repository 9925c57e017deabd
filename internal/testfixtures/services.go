package testfixtures

import (
	"io"
	"log/slog"
	"time"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/events"
	"github.com/example/clinic-scheduler/internal/scheduling"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers, clocks and practitioner choices.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Random      scheduling.RandomSource
	Rules       scheduling.Rules
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("evt"),
		Random:      NewSequenceSource(),
		Rules:       scheduling.NewRules(time.UTC),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("evt")
	}
	if factory.Random == nil {
		factory.Random = NewSequenceSource()
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the event identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithRandom overrides the source used for automatic practitioner selection.
func WithRandom(random scheduling.RandomSource) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Random = random
	}
}

// WithClinicLocation evaluates opening hours in loc.
func WithClinicLocation(loc *time.Location) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Rules = scheduling.NewRules(loc)
	}
}

// ServiceDeps captures dependencies shared by the scheduling and cancellation
// services. Zero values fall back to the factory defaults; a nil Logger
// discards output.
type ServiceDeps struct {
	Store     Store
	Publisher events.Publisher
	Metrics   application.MetricsRecorder
	Now       func() time.Time
	Logger    *slog.Logger
}

func (f *ServiceFactory) options(deps ServiceDeps) []application.ServiceOption {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	opts := []application.ServiceOption{
		application.WithRules(f.Rules),
		application.WithIDGenerator(f.IDGenerator.NextFunc()),
		application.WithLogger(logger),
	}
	if deps.Publisher != nil {
		opts = append(opts, application.WithEventPublisher(deps.Publisher))
	}
	if deps.Metrics != nil {
		opts = append(opts, application.WithMetrics(deps.Metrics))
	}
	return opts
}

func (f *ServiceFactory) now(deps ServiceDeps) func() time.Time {
	if deps.Now != nil {
		return deps.Now
	}
	return f.Clock.NowFunc()
}

// NewSchedulingService builds a scheduling service over deps.Store.
func (f *ServiceFactory) NewSchedulingService(deps ServiceDeps) *application.SchedulingService {
	return application.NewSchedulingService(
		application.NewPatientDirectory(deps.Store),
		application.NewPractitionerDirectory(deps.Store),
		application.NewAppointmentStore(deps.Store, f.Rules),
		f.Random,
		f.now(deps),
		f.options(deps)...,
	)
}

// NewCancellationService builds a cancellation service over deps.Store.
func (f *ServiceFactory) NewCancellationService(deps ServiceDeps) *application.CancellationService {
	return application.NewCancellationService(
		application.NewAppointmentStore(deps.Store, f.Rules),
		f.now(deps),
		f.options(deps)...,
	)
}
