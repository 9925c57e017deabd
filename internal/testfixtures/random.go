package testfixtures

import "sync"

// SequenceSource replays scripted indexes, clamping each into [0, n). Once
// the script is exhausted it keeps returning 0. It satisfies
// scheduling.RandomSource.
type SequenceSource struct {
	mu      sync.Mutex
	indexes []int
	pos     int
	calls   []int
}

// NewSequenceSource returns a source that yields indexes in order.
func NewSequenceSource(indexes ...int) *SequenceSource {
	return &SequenceSource{indexes: indexes}
}

// IntN returns the next scripted index modulo n.
func (s *SequenceSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, n)
	if n <= 0 || s.pos >= len(s.indexes) {
		return 0
	}
	idx := s.indexes[s.pos] % n
	s.pos++
	if idx < 0 {
		idx += n
	}
	return idx
}

// Calls returns the n argument of every IntN call so far.
func (s *SequenceSource) Calls() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.calls...)
}
