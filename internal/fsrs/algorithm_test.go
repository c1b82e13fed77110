package fsrs

import "testing"

func defaultAlgo() algo {
	return newAlgo(DefaultWeights)
}

func TestInitStabilityOrdering(t *testing.T) {
	a := defaultAlgo()
	prev := 0.0
	for _, r := range Ratings {
		s := a.initStability(r)
		if s <= prev {
			t.Errorf("initStability(%v) = %g, want > %g", r, s, prev)
		}
		prev = s
	}
}

func TestInitDifficultyHarderForLowerRatings(t *testing.T) {
	a := defaultAlgo()
	if a.initDifficulty(Again, true) <= a.initDifficulty(Easy, true) {
		t.Error("Again should seed higher difficulty than Easy")
	}
	for _, r := range Ratings {
		d := a.initDifficulty(r, true)
		if d < 1 || d > 10 {
			t.Errorf("initDifficulty(%v) = %g, outside [1, 10]", r, d)
		}
	}
}

func TestNextDifficultyDirection(t *testing.T) {
	a := defaultAlgo()
	d := 5.0
	if a.nextDifficulty(d, Again) <= d {
		t.Error("Again should raise difficulty")
	}
	if a.nextDifficulty(d, Hard) <= d {
		t.Error("Hard should raise difficulty")
	}
	if a.nextDifficulty(d, Easy) >= d {
		t.Error("Easy should lower difficulty")
	}
}

func TestNextDifficultyClamped(t *testing.T) {
	a := defaultAlgo()
	for i := 0; i < 50; i++ {
		if d := a.nextDifficulty(10, Again); d > 10 {
			t.Fatalf("difficulty exceeded 10: %g", d)
		}
		if d := a.nextDifficulty(1, Easy); d < 1 {
			t.Fatalf("difficulty fell below 1: %g", d)
		}
	}
}

func TestRetrievabilityDecays(t *testing.T) {
	a := defaultAlgo()
	prev := a.retrievability(0, 10)
	assertFloat(t, "R(0)", prev, 1)
	for _, days := range []float64{1, 5, 10, 50, 100} {
		r := a.retrievability(days, 10)
		if r >= prev || r <= 0 {
			t.Errorf("R(%g) = %g, want strictly decreasing and positive", days, r)
		}
		prev = r
	}
}

func TestLowRetrievabilityReinforcesMore(t *testing.T) {
	a := defaultAlgo()
	// Recalling an almost-forgotten card gains more stability than a fresh one.
	fresh := a.nextRecallStability(5, 10, 0.95, Good)
	stale := a.nextRecallStability(5, 10, 0.60, Good)
	if stale <= fresh {
		t.Errorf("stability gain at R=0.60 (%g) should exceed gain at R=0.95 (%g)", stale, fresh)
	}
}

func TestNextForgetStabilityShrinks(t *testing.T) {
	a := defaultAlgo()
	for _, s := range []float64{0.5, 2, 20, 200} {
		if got := a.nextForgetStability(5, s, 0.9); got >= s {
			t.Errorf("forget stability %g >= prior %g", got, s)
		}
	}
}

func TestNextIntervalBounds(t *testing.T) {
	a := defaultAlgo()
	if got := a.nextInterval(0.001, 0.9, 36500); got != 1 {
		t.Errorf("tiny stability interval = %d, want floor of 1", got)
	}
	if got := a.nextInterval(1e9, 0.9, 365); got != 365 {
		t.Errorf("huge stability interval = %d, want cap of 365", got)
	}
	// At desired retention 0.9, the interval approximates stability.
	if got := a.nextInterval(10, 0.9, 36500); got != 10 {
		t.Errorf("interval at R=0.9 = %d, want 10", got)
	}
}
