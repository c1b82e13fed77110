package fsrs

import "errors"

// Sentinel errors for the fsrs package. Check with errors.Is.
var (
	// ErrInvalidRating means the caller passed a grade outside Again..Easy
	// to Schedule. The call computes nothing; it never defaults to a
	// guessed rating.
	ErrInvalidRating = errors.New("fsrs: invalid rating")

	// ErrInconsistentCard means the input card state violates a model
	// invariant (for example stability <= 0 after at least one review).
	// The engine refuses to carry corrupted state forward.
	ErrInconsistentCard = errors.New("fsrs: inconsistent card state")

	// ErrInvalidWeights means a parameter vector is outside the allowed
	// per-weight bounds.
	ErrInvalidWeights = errors.New("fsrs: weights out of bounds")
)
