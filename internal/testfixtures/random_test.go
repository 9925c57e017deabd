package testfixtures

import "testing"

func TestSequenceSource_ReplaysScript(t *testing.T) {
	t.Parallel()

	src := NewSequenceSource(1, 5, -1)

	if got := src.IntN(3); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := src.IntN(3); got != 2 {
		t.Fatalf("expected 5 mod 3 = 2, got %d", got)
	}
	if got := src.IntN(3); got != 2 {
		t.Fatalf("expected -1 to wrap to 2, got %d", got)
	}
	if got := src.IntN(3); got != 0 {
		t.Fatalf("expected 0 once exhausted, got %d", got)
	}
	if calls := src.Calls(); len(calls) != 4 {
		t.Fatalf("expected 4 recorded calls, got %v", calls)
	}
}
