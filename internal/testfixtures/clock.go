package testfixtures

import (
	"sync"
	"time"
)

// Clock provides a controllable time source for tests.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock initialised to the supplied time. When start is the
// zero value, the shared ReferenceTime is used.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now returns the current instant tracked by the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now as a function suitable for dependency injection.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the updated time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}

// Slot returns hour:minute on the date daysAhead days after the clock's
// current date, in the clock's location.
func (c *Clock) Slot(daysAhead, hour, minute int) time.Time {
	now := c.Now()
	return time.Date(now.Year(), now.Month(), now.Day()+daysAhead, hour, minute, 0, 0, now.Location())
}

// NextWeekday returns hour:00 on the first day strictly after the clock's
// current date that falls on weekday.
func (c *Clock) NextWeekday(weekday time.Weekday, hour int) time.Time {
	now := c.Now()
	days := (int(weekday) - int(now.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return c.Slot(days, hour, 0)
}
