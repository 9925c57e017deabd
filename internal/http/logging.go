package http

import (
	"context"
	"log/slog"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// handlerLogger prefers the request-scoped logger installed by RequestLogger,
// which already carries request_id. Otherwise it tags the fallback with the
// request ID itself.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	pairs := make([]any, 0, 6+len(attrs))
	pairs = append(pairs, "handler", handlerName)

	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
		if id, ok := RequestIDFromContext(ctx); ok && id != "" {
			pairs = append(pairs, "request_id", id)
		}
	}

	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	pairs = append(pairs, attrs...)
	return logger.With(pairs...)
}
