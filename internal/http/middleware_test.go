package http

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestLogger_PropagatesRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	var seenID string
	var seenLogger *slog.Logger
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID, _ = RequestIDFromContext(r.Context())
		seenLogger = LoggerFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seenID != "req-42" || rec.Header().Get(RequestIDHeader) != "req-42" {
		t.Fatalf("expected request id to be propagated, got %q / %q", seenID, rec.Header().Get(RequestIDHeader))
	}
	if seenLogger == nil {
		t.Fatalf("expected request logger in context")
	}
	if !strings.Contains(buf.String(), "request_id=req-42") || !strings.Contains(buf.String(), "status=418") {
		t.Fatalf("expected completion log with id and status, got %q", buf.String())
	}
}

func TestRequestLogger_GeneratesRequestID(t *testing.T) {
	t.Parallel()

	handler := RequestLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if len(rec.Header().Get(RequestIDHeader)) != 36 {
		t.Fatalf("expected generated uuid, got %q", rec.Header().Get(RequestIDHeader))
	}
}

func TestRecoverer(t *testing.T) {
	t.Parallel()

	handler := Recoverer(slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), codeInternal) {
		t.Fatalf("expected 500 INTERNAL, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestBodyLimit(t *testing.T) {
	t.Parallel()

	handler := BodyLimit(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"patient_id":"1"}`)))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected body limit to trip, got %d", rec.Code)
	}
}
