package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/persistence"
	"github.com/example/clinic-scheduler/internal/scheduling"
)

var (
	patientCounter      uint64
	practitionerCounter uint64
)

// Tuesday, inside opening hours.
var referenceTime = time.Date(2024, time.January, 2, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Patient fixtures -----------------------------

// PatientFixture represents a deterministic patient record.
type PatientFixture struct {
	ID     string
	Name   string
	Active bool
}

// PatientOption configures the generated patient fixture.
type PatientOption func(*PatientFixture)

// NewPatientFixture returns an active patient with a unique ID.
func NewPatientFixture(opts ...PatientOption) PatientFixture {
	idx := atomic.AddUint64(&patientCounter, 1)
	fixture := PatientFixture{
		ID:     fmt.Sprintf("patient-%03d", idx),
		Name:   fmt.Sprintf("Patient %03d", idx),
		Active: true,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithPatientID overrides the generated patient ID.
func WithPatientID(id string) PatientOption {
	return func(f *PatientFixture) {
		f.ID = id
	}
}

// WithPatientName overrides the generated name.
func WithPatientName(name string) PatientOption {
	return func(f *PatientFixture) {
		f.Name = name
	}
}

// InactivePatient marks the patient inactive.
func InactivePatient() PatientOption {
	return func(f *PatientFixture) {
		f.Active = false
	}
}

// Persistence returns the fixture as a storage model.
func (f PatientFixture) Persistence() persistence.Patient {
	return persistence.Patient{ID: f.ID, Name: f.Name, Active: f.Active}
}

// Application returns the fixture as seen by the scheduling service.
func (f PatientFixture) Application() application.Patient {
	return application.Patient{ID: f.ID, Name: f.Name, Active: f.Active}
}

// -------------------------- Practitioner fixtures ---------------------------

// PractitionerFixture represents a deterministic practitioner record.
type PractitionerFixture struct {
	ID     string
	Name   string
	Active bool
}

// PractitionerOption configures the generated practitioner fixture.
type PractitionerOption func(*PractitionerFixture)

// NewPractitionerFixture returns an active practitioner with a unique ID.
func NewPractitionerFixture(opts ...PractitionerOption) PractitionerFixture {
	idx := atomic.AddUint64(&practitionerCounter, 1)
	fixture := PractitionerFixture{
		ID:     fmt.Sprintf("practitioner-%03d", idx),
		Name:   fmt.Sprintf("Dr. %03d", idx),
		Active: true,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithPractitionerID overrides the generated practitioner ID.
func WithPractitionerID(id string) PractitionerOption {
	return func(f *PractitionerFixture) {
		f.ID = id
	}
}

// WithPractitionerName overrides the generated name.
func WithPractitionerName(name string) PractitionerOption {
	return func(f *PractitionerFixture) {
		f.Name = name
	}
}

// InactivePractitioner marks the practitioner inactive.
func InactivePractitioner() PractitionerOption {
	return func(f *PractitionerFixture) {
		f.Active = false
	}
}

// Persistence returns the fixture as a storage model.
func (f PractitionerFixture) Persistence() persistence.Practitioner {
	return persistence.Practitioner{ID: f.ID, Name: f.Name, Active: f.Active}
}

// Domain returns the fixture as a scheduling.Practitioner.
func (f PractitionerFixture) Domain() scheduling.Practitioner {
	return scheduling.Practitioner{ID: f.ID, Name: f.Name, Active: f.Active}
}
