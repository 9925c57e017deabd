package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/clinic-scheduler/internal/events"
	"github.com/example/clinic-scheduler/internal/scheduling"
)

type patientDirStub struct {
	patients map[string]Patient
	err      error
	calls    int
}

func (p *patientDirStub) FindPatient(ctx context.Context, id string) (Patient, bool, error) {
	p.calls++
	if p.err != nil {
		return Patient{}, false, p.err
	}
	patient, ok := p.patients[id]
	return patient, ok, nil
}

type practitionerDirStub struct {
	practitioners map[string]scheduling.Practitioner
	available     []scheduling.Practitioner
	err           error
}

func (p *practitionerDirStub) FindPractitioner(ctx context.Context, id string) (scheduling.Practitioner, bool, error) {
	if p.err != nil {
		return scheduling.Practitioner{}, false, p.err
	}
	practitioner, ok := p.practitioners[id]
	return practitioner, ok, nil
}

func (p *practitionerDirStub) ListAvailablePractitioners(ctx context.Context, at time.Time) ([]scheduling.Practitioner, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.available, nil
}

type appointmentRepoStub struct {
	patientConflict  bool
	busyPractitioner map[string]bool
	existsErr        error

	rangeStart time.Time
	rangeEnd   time.Time

	appointments map[string]scheduling.Appointment
	findErr      error

	saveErr error
	saved   []scheduling.Appointment
	nextID  int

	listItems  []AppointmentListItem
	listTotal  int
	listErr    error
	listOffset int
	listLimit  int
}

func (r *appointmentRepoStub) ExistsScheduledForPatientInRange(ctx context.Context, patientID string, startInclusive, endExclusive time.Time) (bool, error) {
	r.rangeStart, r.rangeEnd = startInclusive, endExclusive
	if r.existsErr != nil {
		return false, r.existsErr
	}
	return r.patientConflict, nil
}

func (r *appointmentRepoStub) ExistsScheduledForPractitionerAt(ctx context.Context, practitionerID string, at time.Time) (bool, error) {
	if r.existsErr != nil {
		return false, r.existsErr
	}
	return r.busyPractitioner[practitionerID], nil
}

func (r *appointmentRepoStub) SaveAppointment(ctx context.Context, appointment scheduling.Appointment) (scheduling.Appointment, error) {
	if r.saveErr != nil {
		return scheduling.Appointment{}, r.saveErr
	}
	if appointment.ID == "" {
		r.nextID++
		appointment.ID = fmt.Sprintf("appt-%d", r.nextID)
	}
	r.saved = append(r.saved, appointment)
	return appointment, nil
}

func (r *appointmentRepoStub) FindAppointment(ctx context.Context, id string) (scheduling.Appointment, bool, error) {
	if r.findErr != nil {
		return scheduling.Appointment{}, false, r.findErr
	}
	appointment, ok := r.appointments[id]
	return appointment, ok, nil
}

func (r *appointmentRepoStub) ListScheduled(ctx context.Context, offset, limit int) ([]AppointmentListItem, int, error) {
	r.listOffset, r.listLimit = offset, limit
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	return r.listItems, r.listTotal, nil
}

type publisherStub struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *publisherStub) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type recorderStub struct {
	scheduled  []string
	rejections []string
	cancelled  []string
	durations  []string
}

func (r *recorderStub) ObserveScheduled(selection string) {
	r.scheduled = append(r.scheduled, selection)
}

func (r *recorderStub) ObserveRejection(operation, kind string) {
	r.rejections = append(r.rejections, operation+":"+kind)
}

func (r *recorderStub) ObserveCancelled(reason string) {
	r.cancelled = append(r.cancelled, reason)
}

func (r *recorderStub) ObserveDuration(operation string, elapsed time.Duration) {
	r.durations = append(r.durations, operation)
}

type firstSource struct{}

func (firstSource) IntN(int) int { return 0 }

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}
