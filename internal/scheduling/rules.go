package scheduling

import "time"

const (
	OpeningHour        = 7
	ClosingHour        = 19
	MinimumLeadTime    = 30 * time.Minute
	CancellationNotice = 24 * time.Hour
)

// Rules evaluates the clinic's time-based admission rules on the clinic's
// wall clock. All methods are pure.
type Rules struct {
	location *time.Location
}

// NewRules returns rules evaluated in loc. A nil location means UTC.
func NewRules(loc *time.Location) Rules {
	if loc == nil {
		loc = time.UTC
	}
	return Rules{location: loc}
}

// Location returns the clinic time zone.
func (r Rules) Location() *time.Location {
	if r.location == nil {
		return time.UTC
	}
	return r.location
}

// CheckOperatingHours rejects Sundays and start times outside [07:00, 19:00).
func (r Rules) CheckOperatingHours(t time.Time) error {
	local := t.In(r.Location())
	if local.Weekday() == time.Sunday {
		return errClosedOnSunday
	}
	if local.Hour() < OpeningHour || local.Hour() >= ClosingHour {
		return errOutsideOpeningHours
	}
	return nil
}

// CheckMinimumLeadTime rejects start times earlier than now plus the lead time.
func (r Rules) CheckMinimumLeadTime(t, now time.Time) error {
	if t.Before(now.Add(MinimumLeadTime)) {
		return ErrInsufficientLeadTime
	}
	return nil
}

// Validate applies the operating-hours rule and then the lead-time rule.
func (r Rules) Validate(t, now time.Time) error {
	if err := r.CheckOperatingHours(t); err != nil {
		return err
	}
	return r.CheckMinimumLeadTime(t, now)
}

// CheckCancellationNotice rejects cancellations closer than 24 hours to the
// appointment.
func (r Rules) CheckCancellationNotice(scheduledAt, now time.Time) error {
	if scheduledAt.Before(now.Add(CancellationNotice)) {
		return ErrInsufficientCancellationNotice
	}
	return nil
}

// OperatingWindow returns [day@07:00, day@19:00) for the clinic-local day
// containing day.
func (r Rules) OperatingWindow(day time.Time) (time.Time, time.Time) {
	loc := r.Location()
	local := day.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), OpeningHour, 0, 0, 0, loc)
	end := time.Date(local.Year(), local.Month(), local.Day(), ClosingHour, 0, 0, 0, loc)
	return start, end
}

// LocalDay formats the clinic-local calendar date of t as YYYY-MM-DD.
func (r Rules) LocalDay(t time.Time) string {
	return t.In(r.Location()).Format(time.DateOnly)
}
