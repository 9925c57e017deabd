package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Appointments *AppointmentHandler
	Health       *HealthHandler
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Middleware wraps the API routes only; health and metrics endpoints bypass it.
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	api := http.NewServeMux()

	if cfg.Appointments != nil {
		api.HandleFunc("/appointments", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Appointments.List(w, r)
			case http.MethodPost:
				cfg.Appointments.Create(w, r)
			case http.MethodDelete:
				cfg.Appointments.Cancel(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost, http.MethodDelete)
			}
		})
	}

	var handler http.Handler = api
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	root := http.NewServeMux()
	root.Handle("/", handler)
	if cfg.Health != nil {
		root.HandleFunc("/healthz", getOnly(cfg.Health.Live))
		root.HandleFunc("/readyz", getOnly(cfg.Health.Ready))
	}
	if cfg.Metrics != nil {
		root.Handle("/metrics", cfg.Metrics)
	}
	return root
}

func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			methodNotAllowed(w, http.MethodGet, http.MethodHead)
			return
		}
		next(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
