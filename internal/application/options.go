package application

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/clinic-scheduler/internal/events"
	"github.com/example/clinic-scheduler/internal/scheduling"
)

type serviceOptions struct {
	logger      *slog.Logger
	publisher   events.Publisher
	metrics     MetricsRecorder
	rules       scheduling.Rules
	idGenerator func() string
}

// ServiceOption customises a service at construction time.
type ServiceOption func(*serviceOptions)

// WithLogger sets the base logger used when the context carries none.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// WithEventPublisher sets where domain events are delivered.
func WithEventPublisher(publisher events.Publisher) ServiceOption {
	return func(o *serviceOptions) {
		if publisher != nil {
			o.publisher = publisher
		}
	}
}

// WithMetrics sets the outcome recorder.
func WithMetrics(recorder MetricsRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if recorder != nil {
			o.metrics = recorder
		}
	}
}

// WithRules sets the clinic rules, which carry the clinic time zone.
func WithRules(rules scheduling.Rules) ServiceOption {
	return func(o *serviceOptions) {
		o.rules = rules
	}
}

// WithIDGenerator sets the generator used for event IDs.
func WithIDGenerator(fn func() string) ServiceOption {
	return func(o *serviceOptions) {
		if fn != nil {
			o.idGenerator = fn
		}
	}
}

func buildOptions(opts []ServiceOption) serviceOptions {
	o := serviceOptions{
		publisher:   events.NopPublisher{},
		metrics:     nopRecorder{},
		rules:       scheduling.NewRules(nil),
		idGenerator: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	o.logger = defaultLogger(o.logger)
	return o
}

type nopRecorder struct{}

func (nopRecorder) ObserveScheduled(string)               {}
func (nopRecorder) ObserveRejection(string, string)       {}
func (nopRecorder) ObserveCancelled(string)               {}
func (nopRecorder) ObserveDuration(string, time.Duration) {}
