// Package curriculum decides which of a user's cards are presented in one
// study session, and in what order.
package curriculum

import (
	"sort"
	"time"

	"github.com/conorfennell/memorank/internal/domain"
)

// UnrankedPriority is the rank given to categories missing from the order
// table; they always sort after every ranked category.
const UnrankedPriority = 99

// DefaultBatchSize caps one presented batch when the caller passes no size.
const DefaultBatchSize = 10

// Order maps a category label to its curriculum rank. Lower ranks are
// studied first.
type Order map[string]int

// OrderFromList builds an Order from a category list: rank equals list
// position. Duplicate labels keep their first position.
func OrderFromList(categories []string) Order {
	order := make(Order, len(categories))
	for i, c := range categories {
		if _, ok := order[c]; !ok {
			order[c] = i
		}
	}
	return order
}

// Rank returns the category's rank, or UnrankedPriority when unmapped.
func (o Order) Rank(category string) int {
	if rank, ok := o[category]; ok {
		return rank
	}
	return UnrankedPriority
}

// Mode reports which candidate set a batch was drawn from.
type Mode string

const (
	ModeDue Mode = "due" // at least one card was due; batch holds due cards only
	ModeAll Mode = "all" // nothing due; batch drawn from the whole collection
)

// Batch is one ordered presentation slice of a user's cards.
type Batch struct {
	Mode  Mode
	Cards []domain.CardWithTemplate
}

// SelectBatch picks and orders the cards for one session from a single
// snapshot of the user's collection. Cards with due <= now are preferred;
// when none are due the whole collection is the candidate set, so a user
// with no due cards can still practice. The input slice is not modified.
//
// Ordering: curriculum rank of the category, then difficulty ascending
// (easier material first within a stage), then template hash so the order
// is fully deterministic for an identical snapshot.
func SelectBatch(cards []domain.CardWithTemplate, now time.Time, order Order, batchSize int) Batch {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var due []domain.CardWithTemplate
	for _, c := range cards {
		if !c.State.Due.After(now) {
			due = append(due, c)
		}
	}

	mode := ModeDue
	candidates := due
	if len(due) == 0 {
		mode = ModeAll
		candidates = append([]domain.CardWithTemplate(nil), cards...)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := order.Rank(candidates[i].Template.Category), order.Rank(candidates[j].Template.Category)
		if ri != rj {
			return ri < rj
		}
		if candidates[i].State.Difficulty != candidates[j].State.Difficulty {
			return candidates[i].State.Difficulty < candidates[j].State.Difficulty
		}
		return candidates[i].TemplateHash < candidates[j].TemplateHash
	})

	if len(candidates) > batchSize {
		candidates = candidates[:batchSize]
	}
	return Batch{Mode: mode, Cards: candidates}
}
