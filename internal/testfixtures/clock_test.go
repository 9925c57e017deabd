package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
	if clock.Now().Weekday() != time.Tuesday {
		t.Fatalf("expected reference time on a Tuesday, got %v", clock.Now().Weekday())
	}
}

func TestClockAdvanceAndSet(t *testing.T) {
	start := time.Date(2024, time.March, 14, 9, 26, 0, 0, time.UTC)
	clock := NewClock(start)

	updated := clock.Advance(90 * time.Minute)
	if !updated.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("advance returned %v", updated)
	}

	clock.Set(start.Add(2 * time.Hour))
	if got := clock.Now(); !got.Equal(start.Add(2 * time.Hour)) {
		t.Fatalf("expected %v, got %v", start.Add(2*time.Hour), got)
	}
}

func TestClockNowFunc(t *testing.T) {
	clock := NewClock(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	nowFn := clock.NowFunc()

	clock.Advance(time.Minute)
	if got := nowFn(); !got.Equal(clock.Now()) {
		t.Fatalf("expected updated time %v, got %v", clock.Now(), got)
	}
}

func TestClockSlots(t *testing.T) {
	clock := NewClock(time.Time{})

	if got, want := clock.Slot(0, 10, 30), time.Date(2024, time.January, 2, 10, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got, want := clock.NextWeekday(time.Sunday, 9), time.Date(2024, time.January, 7, 9, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got, want := clock.NextWeekday(time.Tuesday, 9), time.Date(2024, time.January, 9, 9, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("expected next week's Tuesday %v, got %v", want, got)
	}
}
