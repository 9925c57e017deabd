package scheduling

import "errors"

// Kind identifies which business rule rejected a request.
type Kind string

const (
	KindPatientNotFoundOrInactive      Kind = "patient_not_found_or_inactive"
	KindPractitionerNotFoundOrInactive Kind = "practitioner_not_found_or_inactive"
	KindOutOfOperatingHours            Kind = "out_of_operating_hours"
	KindInsufficientLeadTime           Kind = "insufficient_lead_time"
	KindPatientDoubleBooking           Kind = "patient_double_booking"
	KindPractitionerDoubleBooking      Kind = "practitioner_double_booking"
	KindNoAvailablePractitioner        Kind = "no_available_practitioner"
	KindAppointmentNotFound            Kind = "appointment_not_found"
	KindInsufficientCancellationNotice Kind = "insufficient_cancellation_notice"
	KindAppointmentAlreadyCancelled    Kind = "appointment_already_cancelled"
)

// RuleError reports a request rejected by a business rule. Two rule errors
// match under errors.Is when they share a Kind, whatever their messages.
type RuleError struct {
	Kind    Kind
	Message string
}

func (e *RuleError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is reports whether target is a rule error of the same kind.
func (e *RuleError) Is(target error) bool {
	t, ok := target.(*RuleError)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrPatientNotFoundOrInactive = &RuleError{
		Kind:    KindPatientNotFoundOrInactive,
		Message: "patient does not exist or is inactive",
	}
	ErrPractitionerNotFoundOrInactive = &RuleError{
		Kind:    KindPractitionerNotFoundOrInactive,
		Message: "practitioner does not exist or is inactive",
	}
	ErrOutOfOperatingHours = &RuleError{
		Kind:    KindOutOfOperatingHours,
		Message: "appointments must start between 07:00 and 19:00, Monday to Saturday",
	}
	ErrInsufficientLeadTime = &RuleError{
		Kind:    KindInsufficientLeadTime,
		Message: "appointments must be booked at least 30 minutes in advance",
	}
	ErrPatientDoubleBooking = &RuleError{
		Kind:    KindPatientDoubleBooking,
		Message: "patient already has an appointment on this day",
	}
	ErrPractitionerDoubleBooking = &RuleError{
		Kind:    KindPractitionerDoubleBooking,
		Message: "practitioner already has an appointment at this time",
	}
	ErrNoAvailablePractitioner = &RuleError{
		Kind:    KindNoAvailablePractitioner,
		Message: "no practitioner is available at this time",
	}
	ErrAppointmentNotFound = &RuleError{
		Kind:    KindAppointmentNotFound,
		Message: "appointment does not exist",
	}
	ErrInsufficientCancellationNotice = &RuleError{
		Kind:    KindInsufficientCancellationNotice,
		Message: "appointments can only be cancelled at least 24 hours in advance",
	}
	ErrAppointmentAlreadyCancelled = &RuleError{
		Kind:    KindAppointmentAlreadyCancelled,
		Message: "appointment has already been cancelled",
	}
)

var (
	errClosedOnSunday = &RuleError{
		Kind:    KindOutOfOperatingHours,
		Message: "the clinic does not open on Sundays",
	}
	errOutsideOpeningHours = &RuleError{
		Kind:    KindOutOfOperatingHours,
		Message: "appointments must start between 07:00 and 19:00",
	}
)

// KindOf returns the rule kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var ruleErr *RuleError
	if errors.As(err, &ruleErr) && ruleErr != nil {
		return ruleErr.Kind, true
	}
	return "", false
}
