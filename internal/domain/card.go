package domain

import (
	"time"

	"github.com/conorfennell/memorank/internal/fsrs"
)

// Template is the immutable content of a learning item. Many users share one
// template; each user has their own scheduling state pointing at it.
type Template struct {
	Front    string
	Back     string
	Category string
	Hash     string // content hash, primary key
	SourceID int64  // 0 when imported outside a source (spreadsheet, manual)
}

// CardWithTemplate joins one user's scheduling state with the template it
// belongs to. It is constructed once at the store boundary and passed around
// as a value from there on.
type CardWithTemplate struct {
	UserID       string
	TemplateHash string
	State        fsrs.CardState
	Template     Template
}

// ReviewLog records a single review event for one user's card.
type ReviewLog struct {
	UserID       string
	TemplateHash string
	Grade        int // fsrs grade 1-4
	Timestamp    time.Time
}

// User is a study account. IDs are uuids assigned at creation.
type User struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
