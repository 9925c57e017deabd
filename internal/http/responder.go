package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/scheduling"
)

const (
	codeBadRequest       = "BAD_REQUEST"
	codeValidationFailed = "VALIDATION_FAILED"
	codeInternal         = "INTERNAL"
	codeRateLimited      = "RATE_LIMITED"
	codeUnavailable      = "RATE_LIMITER_UNAVAILABLE"
)

var (
	errBadRequestBody = errors.New("request body is not valid JSON")
	errBadPageQuery   = errors.New("page and size must be integers")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, code string, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).WarnContext(ctx, "request rejected", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{ErrorCode: code, Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{ErrorCode: codeInternal, Message: "internal server error"})
		return
	}

	if kind, ok := scheduling.KindOf(err); ok {
		r.writeJSON(ctx, w, statusForKind(kind), errorResponse{
			ErrorCode: errorCode(kind),
			Message:   err.Error(),
		})
		return
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: codeValidationFailed,
			Message:   "request validation failed",
			Errors:    vErr.FieldErrors,
		})
		return
	}

	r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", http.StatusInternalServerError, "error", err)
	r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{ErrorCode: codeInternal, Message: "internal server error"})
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func statusForKind(kind scheduling.Kind) int {
	switch kind {
	case scheduling.KindAppointmentNotFound:
		return http.StatusNotFound
	case scheduling.KindPatientDoubleBooking,
		scheduling.KindPractitionerDoubleBooking,
		scheduling.KindNoAvailablePractitioner,
		scheduling.KindAppointmentAlreadyCancelled:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

func errorCode(kind scheduling.Kind) string {
	return strings.ToUpper(string(kind))
}

type errorResponse struct {
	ErrorCode string            `json:"error_code"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
