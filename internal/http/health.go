package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// ReadyCheck checks one dependency.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler serves liveness and readiness checks.
type HealthHandler struct {
	checks    []ReadyCheck
	timeout   time.Duration
	responder responder
}

func NewHealthHandler(logger *slog.Logger, checks ...ReadyCheck) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second, responder: newResponder(logger)}
}

// Live always answers ok while the process serves requests.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready runs every check concurrently and reports 503 when any fails.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		failed bool
	)
	for _, check := range h.checks {
		if check.Check == nil {
			continue
		}
		wg.Add(1)
		go func(check ReadyCheck) {
			defer wg.Done()
			status := "ok"
			if err := check.Check(ctx); err != nil {
				status = err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			results[check.Name] = status
			if status != "ok" {
				failed = true
			}
		}(check)
	}
	wg.Wait()

	if failed {
		h.responder.loggerFor(r.Context()).WarnContext(r.Context(), "readiness check failed", "checks", results)
		h.responder.writeJSON(r.Context(), w, http.StatusServiceUnavailable, readinessDTO{Status: "unavailable", Checks: results})
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, readinessDTO{Status: "ready", Checks: results})
}

type readinessDTO struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
