package http

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestHandlerLogger_TagsFallbackWithRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	fallback := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := ContextWithRequestID(context.Background(), "req-1")

	handlerLogger(ctx, fallback, "AppointmentHandler", "Create").Info("hello")

	out := buf.String()
	for _, want := range []string{"handler=AppointmentHandler", "operation=Create", "request_id=req-1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestHandlerLogger_PrefersContextLogger(t *testing.T) {
	t.Parallel()

	var ctxBuf, fallbackBuf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), slog.New(slog.NewTextHandler(&ctxBuf, nil)))
	ctx = ContextWithRequestID(ctx, "req-2")

	handlerLogger(ctx, slog.New(slog.NewTextHandler(&fallbackBuf, nil)), "AppointmentHandler", "").Info("hello")

	if fallbackBuf.Len() != 0 {
		t.Fatalf("expected fallback to stay unused, got %q", fallbackBuf.String())
	}
	if strings.Contains(ctxBuf.String(), "operation=") || strings.Contains(ctxBuf.String(), "request_id=") {
		t.Fatalf("expected only handler attribute, got %q", ctxBuf.String())
	}
}
