// Package fsrs implements the forgetting-curve scheduler used by memorank.
//
// The engine is a pure function library: Schedule maps (card state, rating,
// now) to a new card state, PreviewIntervals shows the would-be interval for
// every rating without persisting anything. "Now" is always an explicit
// parameter; the package never reads the wall clock, so results are
// deterministic up to the fuzz seed.
package fsrs

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Config is the immutable tuning for a Scheduler. The zero value of every
// field maps to a sensible default, so Config{} is a valid configuration.
type Config struct {
	Weights          [21]float64     // zero array: DefaultWeights
	DesiredRetention float64         // zero: 0.9
	LearningSteps    []time.Duration // nil: [1m, 10m]; empty: no ladder
	RelearningSteps  []time.Duration // nil: [10m]; empty: no ladder
	MaximumInterval  int             // zero: 36500 days
	DisableFuzzing   bool
	FuzzSeed         int64 // zero: time-seeded
}

// Scheduler computes review schedules from a fixed Config. It is safe for
// concurrent use; the only internal mutability is the fuzz RNG, which is
// mutex-guarded.
type Scheduler struct {
	algo             algo
	desiredRetention float64
	learningSteps    []time.Duration
	relearningSteps  []time.Duration
	maximumInterval  int
	disableFuzzing   bool

	mu  sync.Mutex
	rng *rand.Rand
}

// NewScheduler builds a Scheduler, filling zero-value config fields with
// defaults and rejecting out-of-range values.
func NewScheduler(cfg Config) (*Scheduler, error) {
	weights := cfg.Weights
	if weights == ([21]float64{}) {
		weights = DefaultWeights
	}
	if err := ValidateWeights(weights); err != nil {
		return nil, err
	}

	retention := cfg.DesiredRetention
	if retention == 0 {
		retention = 0.9
	}
	if retention <= 0 || retention > 1 {
		return nil, fmt.Errorf("fsrs: desired retention %g out of range (0, 1]", retention)
	}

	maxIvl := cfg.MaximumInterval
	if maxIvl == 0 {
		maxIvl = 36500
	}
	if maxIvl < 0 {
		return nil, fmt.Errorf("fsrs: maximum interval %d must be positive", maxIvl)
	}

	learning := cfg.LearningSteps
	if learning == nil {
		learning = []time.Duration{time.Minute, 10 * time.Minute}
	}
	relearning := cfg.RelearningSteps
	if relearning == nil {
		relearning = []time.Duration{10 * time.Minute}
	}

	seed := cfg.FuzzSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Scheduler{
		algo:             newAlgo(weights),
		desiredRetention: retention,
		learningSteps:    learning,
		relearningSteps:  relearning,
		maximumInterval:  maxIvl,
		disableFuzzing:   cfg.DisableFuzzing,
		rng:              rand.New(rand.NewSource(seed)),
	}, nil
}

// Schedule computes the card state after reviewing with the given rating at
// the given time. The input card is not mutated; on error nothing is
// computed and the zero CardState is returned.
func (s *Scheduler) Schedule(card CardState, rating Rating, now time.Time) (CardState, error) {
	return s.schedule(card, rating, now, !s.disableFuzzing)
}

// PreviewIntervals returns, for each of the four ratings, a human-readable
// label for the interval Schedule would produce. Fuzzing is bypassed so
// repeated calls with identical arguments yield identical labels.
func (s *Scheduler) PreviewIntervals(card CardState, now time.Time) (map[Rating]string, error) {
	out := make(map[Rating]string, len(Ratings))
	for _, r := range Ratings {
		next, err := s.schedule(card, r, now, false)
		if err != nil {
			return nil, err
		}
		out[r] = FormatInterval(next.ScheduledDays)
	}
	return out, nil
}

// Retrievability returns the modeled probability of recall at the given time.
// Cards that were never reviewed have no forgetting curve yet; they report 0.
func (s *Scheduler) Retrievability(card CardState, now time.Time) float64 {
	if !card.Reviewed() || card.Stability <= 0 {
		return 0
	}
	elapsed := now.Sub(card.LastReview).Hours() / 24.0
	if elapsed < 0 {
		elapsed = 0
	}
	return s.algo.retrievability(elapsed, card.Stability)
}

func (s *Scheduler) schedule(card CardState, rating Rating, now time.Time, fuzz bool) (CardState, error) {
	if !rating.IsValid() {
		return CardState{}, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}
	if err := card.check(); err != nil {
		return CardState{}, err
	}

	c := card
	prior := c.State

	c.ElapsedDays = 0
	if c.Reviewed() {
		if elapsed := now.Sub(c.LastReview).Hours() / 24.0; elapsed > 0 {
			c.ElapsedDays = elapsed
		}
	}

	s.updateMemory(&c, rating)

	if c.State == New {
		c.State = Learning
		c.LearningSteps = 0
	}

	interval := s.transition(&c, rating)

	if fuzz && c.State == Review {
		if days := int(interval.Hours() / 24.0); days > 0 {
			s.mu.Lock()
			fuzzed := applyFuzz(days, s.maximumInterval, s.rng)
			s.mu.Unlock()
			interval = time.Duration(fuzzed) * 24 * time.Hour
		}
	}

	c.ScheduledDays = interval.Hours() / 24.0
	c.Due = now.Add(interval)
	c.LastReview = now
	c.Reps = card.Reps + 1
	if rating == Again && (prior == Review || prior == Relearning) {
		c.Lapses = card.Lapses + 1
	}
	return c, nil
}

// updateMemory advances stability and difficulty. The first review seeds
// both from the rating; later reviews branch on whether the forgetting curve
// has had at least a day to act.
func (s *Scheduler) updateMemory(c *CardState, rating Rating) {
	if c.Reps == 0 {
		c.Stability = s.algo.initStability(rating)
		c.Difficulty = s.algo.initDifficulty(rating, true)
		return
	}

	if c.ElapsedDays < 1 {
		c.Stability = s.algo.shortTermStability(c.Stability, rating)
	} else {
		r := s.algo.retrievability(c.ElapsedDays, c.Stability)
		c.Stability = s.algo.nextStability(c.Difficulty, c.Stability, r, rating)
	}
	c.Difficulty = s.algo.nextDifficulty(c.Difficulty, rating)
}

// transition applies the state machine and returns the raw interval.
func (s *Scheduler) transition(c *CardState, rating Rating) time.Duration {
	switch c.State {
	case Learning:
		return s.transitionLadder(c, rating, s.learningSteps)
	case Relearning:
		return s.transitionLadder(c, rating, s.relearningSteps)
	default:
		return s.transitionReview(c, rating)
	}
}

// transitionLadder walks the Learning/Relearning step ladder.
func (s *Scheduler) transitionLadder(c *CardState, rating Rating, steps []time.Duration) time.Duration {
	step := c.LearningSteps

	// No ladder configured, or the ladder shrank under the card: graduate.
	if len(steps) == 0 || (step >= len(steps) && rating != Again) {
		return s.graduate(c)
	}

	switch rating {
	case Again:
		c.LearningSteps = 0
		return steps[0]

	case Hard:
		// Hard holds position; on the first step it waits somewhere between
		// the first and second steps.
		if step == 0 && len(steps) == 1 {
			return time.Duration(float64(steps[0]) * 1.5)
		}
		if step == 0 && len(steps) >= 2 {
			return (steps[0] + steps[1]) / 2
		}
		return steps[step]

	case Good:
		next := step + 1
		if next >= len(steps) {
			return s.graduate(c)
		}
		c.LearningSteps = next
		return steps[next]

	default: // Easy graduates immediately.
		return s.graduate(c)
	}
}

// transitionReview handles the long-term cycle: Again lapses into the
// relearning ladder, success stretches the interval.
func (s *Scheduler) transitionReview(c *CardState, rating Rating) time.Duration {
	if rating == Again && len(s.relearningSteps) > 0 {
		c.State = Relearning
		c.LearningSteps = 0
		return s.relearningSteps[0]
	}

	c.LearningSteps = 0
	days := s.algo.nextInterval(c.Stability, s.desiredRetention, s.maximumInterval)
	return time.Duration(days) * 24 * time.Hour
}

func (s *Scheduler) graduate(c *CardState) time.Duration {
	c.State = Review
	c.LearningSteps = 0
	days := s.algo.nextInterval(c.Stability, s.desiredRetention, s.maximumInterval)
	return time.Duration(days) * 24 * time.Hour
}
