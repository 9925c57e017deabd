package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/config"
	"github.com/example/clinic-scheduler/internal/events"
	httptransport "github.com/example/clinic-scheduler/internal/http"
	"github.com/example/clinic-scheduler/internal/metrics"
	"github.com/example/clinic-scheduler/internal/persistence"
	"github.com/example/clinic-scheduler/internal/persistence/memory"
	"github.com/example/clinic-scheduler/internal/persistence/postgres"
	"github.com/example/clinic-scheduler/internal/persistence/sqlite"
	"github.com/example/clinic-scheduler/internal/persistence/sqlite/migration"
	"github.com/example/clinic-scheduler/internal/scheduling"
)

const maxBodyBytes = 1 << 20

type store interface {
	persistence.PatientRepository
	persistence.PractitionerRepository
	persistence.AppointmentRepository
	Ping(ctx context.Context) error
	Close() error
}

// app holds the wired HTTP handler and everything that must be released on
// shutdown.
type app struct {
	handler  http.Handler
	registry *prometheus.Registry
	closers  []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

func (a *app) close(logger *slog.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].close(); err != nil {
			logger.Warn("failed to close "+a.closers[i].name, "error", err)
		}
	}
}

// openStore opens the configured backend and applies its migrations.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return memory.New(), nil
	case config.StoragePostgres:
		if err := postgres.Migrate(ctx, cfg.DatabaseURL, logger); err != nil {
			return nil, err
		}
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, 10, 1)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return postgres.New(pool), nil
	default:
		s, err := sqlite.Open(migration.DefaultSQLiteConfig(cfg.SQLiteDSN))
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx, logger); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	}
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger, now func() time.Time) (*app, error) {
	a := &app{registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	db, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, namedCloser{"storage", db.Close})
	checks := []httptransport.ReadyCheck{{Name: cfg.Storage, Check: db.Ping}}

	var publisher events.Publisher = events.NopPublisher{}
	if brokers := events.SplitBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(brokers, cfg.KafkaTopic)
		if err != nil {
			a.close(logger)
			return nil, err
		}
		publisher = kafkaPublisher
		a.closers = append(a.closers, namedCloser{"kafka", kafkaPublisher.Close})
		checks = append(checks, httptransport.ReadyCheck{Name: "kafka", Check: events.ReadyCheck(brokers)})
	}

	middleware := []func(http.Handler) http.Handler{
		httptransport.Recoverer(logger),
		httptransport.RequestLogger(logger),
		httptransport.BodyLimit(maxBodyBytes),
	}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		a.closers = append(a.closers, namedCloser{"redis", rdb.Close})
		checks = append(checks, httptransport.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
		limiter := httptransport.NewRateLimiter(rdb, cfg.RateLimit, time.Minute, cfg.RateLimitFailOpen, logger).
			TrustProxies(cfg.TrustedProxies...)
		middleware = append(middleware, limiter.Middleware)
	}

	rules := scheduling.NewRules(cfg.ClinicLocation)
	random := scheduling.NewUnseededRandomSource()
	if cfg.RandomSeed != nil {
		random = scheduling.NewRandomSource(*cfg.RandomSeed)
	}

	opts := []application.ServiceOption{
		application.WithLogger(logger),
		application.WithRules(rules),
		application.WithEventPublisher(publisher),
		application.WithMetrics(metrics.NewSchedulingMetrics(a.registry)),
	}
	appointments := application.NewAppointmentStore(db, rules)
	schedulingService := application.NewSchedulingService(
		application.NewPatientDirectory(db),
		application.NewPractitionerDirectory(db),
		appointments,
		random,
		now,
		opts...,
	)
	cancellationService := application.NewCancellationService(appointments, now, opts...)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Appointments: httptransport.NewAppointmentHandler(schedulingService, cancellationService, logger),
		Health:       httptransport.NewHealthHandler(logger, checks...),
		Metrics:      promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
		Middleware:   middleware,
	})
	a.handler = otelhttp.NewHandler(router, "http.server")
	return a, nil
}
