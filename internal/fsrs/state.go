package fsrs

import "fmt"

// State is the discrete phase of a card's memory lifecycle.
type State int

const (
	New        State = iota // created, never reviewed
	Learning                // in the initial sub-day step ladder
	Review                  // graduated into the long-term review cycle
	Relearning              // lapsed from Review, repeating the ladder
)

var stateNames = [...]string{New: "New", Learning: "Learning", Review: "Review", Relearning: "Relearning"}

// IsValid reports whether s is a known lifecycle state.
func (s State) IsValid() bool {
	return s >= New && s <= Relearning
}

// String returns the state name, or "State(n)" for unknown values.
func (s State) String() string {
	if s.IsValid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}
