package fsrs

import (
	"math/rand"
	"testing"
)

func TestFuzzDelta(t *testing.T) {
	// interval=3: only the [2.5, 7) band applies.
	// delta = 1.0 + 0.15 * (3 - 2.5) = 1.075
	assertFloat(t, "fuzzDelta(3)", fuzzDelta(3.0), 1.075)

	// interval=10: [2.5,7) full, [7,20) partial.
	// delta = 1.0 + 0.15*4.5 + 0.10*3.0 = 1.975
	assertFloat(t, "fuzzDelta(10)", fuzzDelta(10.0), 1.975)

	// interval=50: all three bands.
	// delta = 1.0 + 0.675 + 1.3 + 0.05*30 = 4.475
	assertFloat(t, "fuzzDelta(50)", fuzzDelta(50.0), 4.475)
}

func TestApplyFuzzShortIntervalsPassThrough(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, ivl := range []int{1, 2} {
		if got := applyFuzz(ivl, 36500, rng); got != ivl {
			t.Errorf("applyFuzz(%d) = %d, want unchanged", ivl, got)
		}
	}
}

func TestApplyFuzzStaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		got := applyFuzz(10, 36500, rng)
		// interval=10, delta=1.975: window [8, 12], +1 rounding slack.
		if got < 8 || got > 13 {
			t.Fatalf("applyFuzz(10) = %d, outside [8, 13]", got)
		}
	}
}

func TestApplyFuzzRespectsMaxInterval(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		if got := applyFuzz(100, 100, rng); got > 100 {
			t.Fatalf("applyFuzz capped at 100 returned %d", got)
		}
	}
}
