package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/clinic-scheduler/internal/logging"
	"github.com/example/clinic-scheduler/internal/scheduling"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// ErrorKind maps rule and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	if kind, ok := scheduling.KindOf(err); ok {
		return string(kind)
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}

// isRejection reports whether err is an expected business outcome rather than
// a failure of the service itself.
func isRejection(err error) bool {
	switch ErrorKind(err) {
	case "", "unexpected":
		return false
	}
	return true
}

// logOutcome writes the failure line of an operation at a level matching the
// error's nature.
func logOutcome(ctx context.Context, logger *slog.Logger, msg string, err error) {
	if isRejection(err) {
		logger.WarnContext(ctx, msg, "error", err, "error_kind", ErrorKind(err))
		return
	}
	logger.ErrorContext(ctx, msg, "error", err, "error_kind", ErrorKind(err))
}
