// Package http provides HTTP handlers and middleware for the clinic scheduler API.
//
// The router exposes the following endpoints:
//   - POST /appointments: books an appointment. Body:
//     {"patient_id","practitioner_id"?,"scheduled_at"} with scheduled_at in RFC 3339.
//     Omitting practitioner_id lets the service pick a free practitioner. Response:
//     200 with {"id","practitioner_id","patient_id","scheduled_at"}.
//   - GET /appointments?page=0&size=10: lists scheduled appointments ordered by
//     start time. Response: {"content":[...],"page","size","total_elements","total_pages"}.
//   - DELETE /appointments: cancels an appointment. Body: {"appointment_id","reason"}.
//     Returns 204 No Content.
//   - GET /healthz and GET /readyz: liveness and readiness checks.
//
// Errors are reported as {"error_code","message","errors"?}; see responder.go for the
// status mapping. Request/response DTOs live alongside their handlers.
package http
