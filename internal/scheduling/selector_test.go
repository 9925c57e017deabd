package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"
)

type directoryStub struct {
	practitioners map[string]Practitioner
	available     []Practitioner
	findErr       error
	listErr       error
}

func (d *directoryStub) FindPractitioner(_ context.Context, id string) (Practitioner, bool, error) {
	if d.findErr != nil {
		return Practitioner{}, false, d.findErr
	}
	p, ok := d.practitioners[id]
	return p, ok, nil
}

func (d *directoryStub) ListAvailablePractitioners(context.Context, time.Time) ([]Practitioner, error) {
	if d.listErr != nil {
		return nil, d.listErr
	}
	return d.available, nil
}

type fixedSource int

func (f fixedSource) IntN(int) int { return int(f) }

var selectAt = time.Date(2024, time.January, 9, 10, 0, 0, 0, time.UTC)

func newTestSelector(dir *directoryStub, index *indexStub, random RandomSource) *PractitionerSelector {
	return NewPractitionerSelector(dir, NewConflictChecker(index, NewRules(time.UTC)), random)
}

func TestSelectExplicitPractitioner(t *testing.T) {
	t.Parallel()

	dir := &directoryStub{practitioners: map[string]Practitioner{
		"pr-1": {ID: "pr-1", Name: "Dr. Ana", Active: true},
		"pr-2": {ID: "pr-2", Name: "Dr. Bruno", Active: false},
	}}

	selected, err := newTestSelector(dir, &indexStub{}, fixedSource(0)).Select(context.Background(), "pr-1", selectAt)
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if selected.ID != "pr-1" {
		t.Fatalf("expected pr-1, got %q", selected.ID)
	}

	if _, err := newTestSelector(dir, &indexStub{}, nil).Select(context.Background(), "missing", selectAt); !errors.Is(err, ErrPractitionerNotFoundOrInactive) {
		t.Fatalf("expected PractitionerNotFoundOrInactive for unknown id, got %v", err)
	}
	if _, err := newTestSelector(dir, &indexStub{}, nil).Select(context.Background(), "pr-2", selectAt); !errors.Is(err, ErrPractitionerNotFoundOrInactive) {
		t.Fatalf("expected PractitionerNotFoundOrInactive for inactive practitioner, got %v", err)
	}
}

func TestSelectExplicitPractitionerAlreadyBooked(t *testing.T) {
	t.Parallel()

	dir := &directoryStub{practitioners: map[string]Practitioner{
		"pr-1": {ID: "pr-1", Active: true},
	}}
	index := &indexStub{practitionerExists: true}

	_, err := newTestSelector(dir, index, nil).Select(context.Background(), "pr-1", selectAt)
	if !errors.Is(err, ErrPractitionerDoubleBooking) {
		t.Fatalf("expected PractitionerDoubleBooking, got %v", err)
	}
	if !index.at.Equal(selectAt) {
		t.Fatalf("expected conflict lookup at %v, got %v", selectAt, index.at)
	}
}

func TestSelectExplicitPropagatesLookupErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("directory down")
	dir := &directoryStub{findErr: boom}
	if _, err := newTestSelector(dir, &indexStub{}, nil).Select(context.Background(), "pr-1", selectAt); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped lookup error, got %v", err)
	}
}

func TestSelectAutomaticWithoutCandidates(t *testing.T) {
	t.Parallel()

	dir := &directoryStub{available: []Practitioner{{ID: "pr-9", Active: false}}}
	_, err := newTestSelector(dir, &indexStub{}, fixedSource(0)).Select(context.Background(), "", selectAt)
	if !errors.Is(err, ErrNoAvailablePractitioner) {
		t.Fatalf("expected NoAvailablePractitioner, got %v", err)
	}

	boom := errors.New("list failed")
	dir = &directoryStub{listErr: boom}
	if _, err := newTestSelector(dir, &indexStub{}, nil).Select(context.Background(), "", selectAt); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped list error, got %v", err)
	}
}

func TestSelectAutomaticPicksByIndexOverSortedCandidates(t *testing.T) {
	t.Parallel()

	dir := &directoryStub{available: []Practitioner{
		{ID: "pr-c", Active: true},
		{ID: "pr-a", Active: true},
		{ID: "pr-b", Active: true},
		{ID: "pr-a", Active: true},
	}}

	for idx, want := range []string{"pr-a", "pr-b", "pr-c"} {
		selected, err := newTestSelector(dir, &indexStub{}, fixedSource(idx)).Select(context.Background(), "", selectAt)
		if err != nil {
			t.Fatalf("Select returned error: %v", err)
		}
		if selected.ID != want {
			t.Fatalf("expected %s for index %d, got %s", want, idx, selected.ID)
		}
	}

	if _, err := newTestSelector(dir, &indexStub{}, fixedSource(5)).Select(context.Background(), "", selectAt); err == nil {
		t.Fatalf("expected error for out of range index")
	}
}

func TestSelectAutomaticIsRoughlyUniform(t *testing.T) {
	t.Parallel()

	dir := &directoryStub{available: []Practitioner{
		{ID: "pr-1", Active: true},
		{ID: "pr-2", Active: true},
		{ID: "pr-3", Active: true},
	}}
	selector := newTestSelector(dir, &indexStub{}, NewRandomSource(42))

	const trials = 30000
	counts := map[string]int{}
	for i := 0; i < trials; i++ {
		selected, err := selector.Select(context.Background(), "", selectAt)
		if err != nil {
			t.Fatalf("Select returned error: %v", err)
		}
		counts[selected.ID]++
	}

	expected := trials / 3
	tolerance := expected / 20
	for _, id := range []string{"pr-1", "pr-2", "pr-3"} {
		if diff := counts[id] - expected; diff > tolerance || diff < -tolerance {
			t.Fatalf("expected roughly %d picks for %s, got %d", expected, id, counts[id])
		}
	}
}

func TestSeededRandomSourceIsDeterministic(t *testing.T) {
	t.Parallel()

	a := NewRandomSource(7)
	b := NewRandomSource(7)
	for i := 0; i < 100; i++ {
		if x, y := a.IntN(1000), b.IntN(1000); x != y {
			t.Fatalf("expected identical sequences, diverged at %d: %d vs %d", i, x, y)
		}
	}
}
