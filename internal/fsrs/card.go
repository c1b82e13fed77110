package fsrs

import (
	"fmt"
	"time"
)

// CardState is the memory model for one (user, template) pair. It is a plain
// value: Schedule takes and returns it by value and never mutates its input.
type CardState struct {
	Due           time.Time // when the card is next eligible for review
	Stability     float64   // days until retrievability decays to ~90%
	Difficulty    float64   // intrinsic hardness, clamped to [1, 10] once reviewed
	ElapsedDays   float64   // now - lastReview at the most recent scheduling
	ScheduledDays float64   // the interval scheduled at the most recent review
	Reps          int       // total reviews performed
	Lapses        int       // times rated Again out of Review/Relearning
	LearningSteps int       // position in the learning/relearning step ladder
	State         State
	LastReview    time.Time // zero until the first review
}

// NewCard returns a fresh New-state card, due immediately.
func NewCard(now time.Time) CardState {
	return CardState{
		Due:   now,
		State: New,
	}
}

// Reviewed reports whether the card has been reviewed at least once.
func (c CardState) Reviewed() bool {
	return !c.LastReview.IsZero()
}

// check validates the model invariants before scheduling.
func (c CardState) check() error {
	if !c.State.IsValid() {
		return fmt.Errorf("%w: state %d", ErrInconsistentCard, int(c.State))
	}
	if c.Reps > 0 && c.Stability <= 0 {
		return fmt.Errorf("%w: stability %g with %d reps", ErrInconsistentCard, c.Stability, c.Reps)
	}
	if c.State == New && (c.Reps != 0 || c.Reviewed()) {
		return fmt.Errorf("%w: New card with review history", ErrInconsistentCard)
	}
	if c.Reviewed() && c.Due.Before(c.LastReview) {
		return fmt.Errorf("%w: due %s before last review %s",
			ErrInconsistentCard, c.Due.Format(time.RFC3339), c.LastReview.Format(time.RFC3339))
	}
	if c.Reps < 0 || c.Lapses < 0 || c.LearningSteps < 0 {
		return fmt.Errorf("%w: negative counter", ErrInconsistentCard)
	}
	return nil
}
