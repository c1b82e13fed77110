package fsrs

import "fmt"

// Rating is the user's self-assessment of recall quality for one review.
//
// The type domain is exactly the four reviewable grades. There is
// deliberately no "Manual" value: manual rescheduling is not a review and
// must never reach Schedule.
type Rating int

const (
	Again Rating = iota + 1 // failed to recall
	Hard                    // recalled with serious effort
	Good                    // recalled with some effort
	Easy                    // recalled effortlessly
)

var ratingNames = [...]string{Again: "Again", Hard: "Hard", Good: "Good", Easy: "Easy"}

// Ratings lists the valid grades in ascending order. Useful for preview
// loops and UI button rendering.
var Ratings = []Rating{Again, Hard, Good, Easy}

// IsValid reports whether r is one of the four reviewable grades.
func (r Rating) IsValid() bool {
	return r >= Again && r <= Easy
}

// String returns the grade name, or "Rating(n)" for out-of-domain values.
func (r Rating) String() string {
	if r.IsValid() {
		return ratingNames[r]
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// ParseGrade converts an integer grade (1-4) as submitted by the review UI
// into a Rating. Out-of-domain grades return ErrInvalidRating.
func ParseGrade(grade int) (Rating, error) {
	r := Rating(grade)
	if !r.IsValid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRating, grade)
	}
	return r, nil
}
