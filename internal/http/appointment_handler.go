package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/clinic-scheduler/internal/application"
)

type schedulingService interface {
	Schedule(ctx context.Context, req application.ScheduleRequest) (application.AppointmentDetail, error)
	ListScheduled(ctx context.Context, req application.PageRequest) (application.Page[application.AppointmentListItem], error)
}

type cancellationService interface {
	Cancel(ctx context.Context, req application.CancelRequest) error
}

type AppointmentHandler struct {
	scheduling   schedulingService
	cancellation cancellationService
	responder    responder
	logger       *slog.Logger
}

func NewAppointmentHandler(scheduling schedulingService, cancellation cancellationService, logger *slog.Logger) *AppointmentHandler {
	logger = defaultLogger(logger)
	return &AppointmentHandler{
		scheduling:   scheduling,
		cancellation: cancellation,
		responder:    newResponder(logger),
		logger:       logger,
	}
}

// Create handles POST /appointments.
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.scheduling == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req scheduleAppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
		return
	}

	detail, err := h.scheduling.Schedule(r.Context(), req.toRequest())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.logger, "AppointmentHandler", "Create").
		DebugContext(r.Context(), "appointment created", "appointment_id", detail.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAppointmentDTO(detail))
}

// List handles GET /appointments.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.scheduling == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	pageReq, err := parsePageRequest(r.URL.Query())
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, codeBadRequest, err)
		return
	}

	page, err := h.scheduling.ListScheduled(r.Context(), pageReq)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	content := make([]appointmentListItemDTO, 0, len(page.Items))
	for _, item := range page.Items {
		content = append(content, appointmentListItemDTO{
			ID:               item.ID,
			PractitionerName: item.PractitionerName,
			PatientName:      item.PatientName,
			ScheduledAt:      item.ScheduledAt.UTC(),
		})
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, appointmentPageDTO{
		Content:       content,
		Page:          page.Number,
		Size:          page.Size,
		TotalElements: page.TotalItems,
		TotalPages:    page.TotalPages,
	})
}

// Cancel handles DELETE /appointments.
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.cancellation == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req cancelAppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
		return
	}

	if err := h.cancellation.Cancel(r.Context(), application.CancelRequest{
		AppointmentID: string(req.AppointmentID),
		Reason:        req.Reason,
	}); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("empty body")
	}
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if decoder.More() {
		return fmt.Errorf("unexpected data after JSON body")
	}
	return nil
}

func parsePageRequest(values url.Values) (application.PageRequest, error) {
	var req application.PageRequest
	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return application.PageRequest{}, errBadPageQuery
		}
		req.Number = n
	}
	if raw := strings.TrimSpace(values.Get("size")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return application.PageRequest{}, errBadPageQuery
		}
		req.Size = n
	}
	return req, nil
}

// identifier accepts both JSON strings and JSON numbers.
type identifier string

func (id *identifier) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = identifier(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identifier must be a string or a number: %w", err)
	}
	*id = identifier(n.String())
	return nil
}

type scheduleAppointmentRequest struct {
	PatientID      identifier `json:"patient_id"`
	PractitionerID identifier `json:"practitioner_id"`
	ScheduledAt    time.Time  `json:"scheduled_at"`
}

func (r scheduleAppointmentRequest) toRequest() application.ScheduleRequest {
	return application.ScheduleRequest{
		PatientID:      string(r.PatientID),
		PractitionerID: string(r.PractitionerID),
		ScheduledAt:    r.ScheduledAt,
	}
}

type cancelAppointmentRequest struct {
	AppointmentID identifier `json:"appointment_id"`
	Reason        string     `json:"reason"`
}

type appointmentDTO struct {
	ID             string    `json:"id"`
	PractitionerID string    `json:"practitioner_id"`
	PatientID      string    `json:"patient_id"`
	ScheduledAt    time.Time `json:"scheduled_at"`
}

func toAppointmentDTO(detail application.AppointmentDetail) appointmentDTO {
	return appointmentDTO{
		ID:             detail.ID,
		PractitionerID: detail.PractitionerID,
		PatientID:      detail.PatientID,
		ScheduledAt:    detail.ScheduledAt.UTC(),
	}
}

type appointmentListItemDTO struct {
	ID               string    `json:"id"`
	PractitionerName string    `json:"practitioner_name"`
	PatientName      string    `json:"patient_name"`
	ScheduledAt      time.Time `json:"scheduled_at"`
}

type appointmentPageDTO struct {
	Content       []appointmentListItemDTO `json:"content"`
	Page          int                      `json:"page"`
	Size          int                      `json:"size"`
	TotalElements int                      `json:"total_elements"`
	TotalPages    int                      `json:"total_pages"`
}
