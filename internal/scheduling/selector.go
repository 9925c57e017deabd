package scheduling

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"
)

// Practitioner is the clinic professional performing an appointment.
type Practitioner struct {
	ID     string
	Name   string
	Active bool
}

// PractitionerDirectory exposes the practitioner lookups the selector needs.
type PractitionerDirectory interface {
	FindPractitioner(ctx context.Context, id string) (Practitioner, bool, error)
	// ListAvailablePractitioners returns active practitioners without a
	// Scheduled appointment at exactly at.
	ListAvailablePractitioners(ctx context.Context, at time.Time) ([]Practitioner, error)
}

// RandomSource picks an index in [0, n).
type RandomSource interface {
	IntN(n int) int
}

type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// NewRandomSource returns a PCG-backed source safe for concurrent use. The
// same seed always yields the same sequence.
func NewRandomSource(seed uint64) RandomSource {
	return &lockedSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewUnseededRandomSource returns a source seeded from the runtime's entropy.
func NewUnseededRandomSource() RandomSource {
	return &lockedSource{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// PractitionerSelector resolves who performs an appointment.
type PractitionerSelector struct {
	practitioners PractitionerDirectory
	conflicts     *ConflictChecker
	random        RandomSource
}

// NewPractitionerSelector wires the selector. A nil random source falls back
// to an unseeded one.
func NewPractitionerSelector(practitioners PractitionerDirectory, conflicts *ConflictChecker, random RandomSource) *PractitionerSelector {
	if random == nil {
		random = NewUnseededRandomSource()
	}
	return &PractitionerSelector{practitioners: practitioners, conflicts: conflicts, random: random}
}

// Select validates requestedID when it is set, or picks a free practitioner
// uniformly at random otherwise.
func (s *PractitionerSelector) Select(ctx context.Context, requestedID string, at time.Time) (Practitioner, error) {
	if s == nil || s.practitioners == nil {
		return Practitioner{}, errors.New("practitioner selector not configured")
	}
	if requestedID != "" {
		return s.selectExplicit(ctx, requestedID, at)
	}
	return s.selectAutomatic(ctx, at)
}

func (s *PractitionerSelector) selectExplicit(ctx context.Context, id string, at time.Time) (Practitioner, error) {
	practitioner, found, err := s.practitioners.FindPractitioner(ctx, id)
	if err != nil {
		return Practitioner{}, fmt.Errorf("find practitioner: %w", err)
	}
	if !found || !practitioner.Active {
		return Practitioner{}, ErrPractitionerNotFoundOrInactive
	}

	busy, err := s.conflicts.PractitionerHasConflict(ctx, practitioner.ID, at)
	if err != nil {
		return Practitioner{}, err
	}
	if busy {
		return Practitioner{}, ErrPractitionerDoubleBooking
	}
	return practitioner, nil
}

func (s *PractitionerSelector) selectAutomatic(ctx context.Context, at time.Time) (Practitioner, error) {
	available, err := s.practitioners.ListAvailablePractitioners(ctx, at)
	if err != nil {
		return Practitioner{}, fmt.Errorf("list available practitioners: %w", err)
	}

	candidates := eligibleCandidates(available)
	if len(candidates) == 0 {
		return Practitioner{}, ErrNoAvailablePractitioner
	}

	idx := s.random.IntN(len(candidates))
	if idx < 0 || idx >= len(candidates) {
		return Practitioner{}, fmt.Errorf("random source returned index %d for %d candidates", idx, len(candidates))
	}
	return candidates[idx], nil
}

// eligibleCandidates drops inactive and duplicate entries and orders the rest
// by ID so a seeded source always picks the same practitioner.
func eligibleCandidates(available []Practitioner) []Practitioner {
	seen := make(map[string]struct{}, len(available))
	candidates := make([]Practitioner, 0, len(available))
	for _, p := range available {
		if !p.Active || p.ID == "" {
			continue
		}
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		candidates = append(candidates, p)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ID < candidates[j].ID
	})
	return candidates
}
