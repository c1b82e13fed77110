package storage

import (
	"testing"
	"time"

	"github.com/conorfennell/memorank/internal/domain"
	"github.com/conorfennell/memorank/internal/fsrs"
)

var now = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:): %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insertTemplate(t *testing.T, db *DB, hash, category string) {
	t.Helper()
	err := db.InsertTemplate(domain.Template{
		Hash:     hash,
		Front:    "front of " + hash,
		Back:     "back of " + hash,
		Category: category,
	})
	if err != nil {
		t.Fatalf("InsertTemplate(%s): %v", hash, err)
	}
}

func TestTemplateRoundTrip(t *testing.T) {
	db := openTestDB(t)
	insertTemplate(t, db, "h1", "go")

	got, err := db.FindTemplateByHash("h1")
	if err != nil {
		t.Fatalf("FindTemplateByHash: %v", err)
	}
	if got == nil {
		t.Fatal("template not found")
	}
	if got.Front != "front of h1" || got.Category != "go" {
		t.Errorf("unexpected template: %+v", got)
	}

	missing, err := db.FindTemplateByHash("nope")
	if err != nil {
		t.Fatalf("FindTemplateByHash(nope): %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown hash, got %+v", missing)
	}
}

func TestInsertTemplateDuplicateHashFails(t *testing.T) {
	db := openTestDB(t)
	insertTemplate(t, db, "h1", "go")
	err := db.InsertTemplate(domain.Template{Hash: "h1", Front: "f", Back: "b"})
	if err == nil {
		t.Error("expected duplicate hash insert to fail")
	}
}

func TestSourceRoundTrip(t *testing.T) {
	db := openTestDB(t)

	id, err := db.InsertSource("/decks/go", "local")
	if err != nil {
		t.Fatalf("InsertSource: %v", err)
	}

	s, err := db.FindSourceByPath("/decks/go")
	if err != nil {
		t.Fatalf("FindSourceByPath: %v", err)
	}
	if s == nil || s.ID != id || s.Type != "local" {
		t.Fatalf("unexpected source: %+v", s)
	}
	if s.LastScanned.Valid {
		t.Error("fresh source should have no last_scanned")
	}

	if err := db.UpdateSourceLastScanned(id, now); err != nil {
		t.Fatalf("UpdateSourceLastScanned: %v", err)
	}
	s, err = db.FindSourceByPath("/decks/go")
	if err != nil {
		t.Fatalf("FindSourceByPath: %v", err)
	}
	if !s.LastScanned.Valid {
		t.Error("last_scanned should be set after update")
	}

	if err := db.DeleteSource(id); err != nil {
		t.Fatalf("DeleteSource: %v", err)
	}
	s, err = db.FindSourceByPath("/decks/go")
	if err != nil {
		t.Fatalf("FindSourceByPath after delete: %v", err)
	}
	if s != nil {
		t.Errorf("source still present after delete: %+v", s)
	}
}

func TestDeleteSourceCascades(t *testing.T) {
	db := openTestDB(t)

	id, err := db.InsertSource("/decks/go", "local")
	if err != nil {
		t.Fatalf("InsertSource: %v", err)
	}
	if err := db.InsertTemplate(domain.Template{
		Hash: "h1", Front: "f", Back: "b", Category: "go", SourceID: id,
	}); err != nil {
		t.Fatalf("InsertTemplate: %v", err)
	}
	u, _ := db.CreateUser("conor", now)
	if _, err := db.SeedMissingCardStates(u.ID, now); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := db.DeleteSource(id); err != nil {
		t.Fatalf("DeleteSource: %v", err)
	}

	tpl, err := db.FindTemplateByHash("h1")
	if err != nil {
		t.Fatalf("FindTemplateByHash: %v", err)
	}
	if tpl != nil {
		t.Error("template survived source delete")
	}
	cards, err := db.GetCardsForUser(u.ID)
	if err != nil {
		t.Fatalf("GetCardsForUser: %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("card states survived source delete: %d", len(cards))
	}
}

func TestCreateAndFindUser(t *testing.T) {
	db := openTestDB(t)

	u, err := db.CreateUser("conor", now)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" {
		t.Fatal("user id not assigned")
	}

	got, err := db.FindUserByID(u.ID)
	if err != nil {
		t.Fatalf("FindUserByID: %v", err)
	}
	if got == nil || got.Name != "conor" {
		t.Fatalf("unexpected user: %+v", got)
	}

	users, err := db.GetAllUsers()
	if err != nil {
		t.Fatalf("GetAllUsers: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("got %d users, want 1", len(users))
	}
}

func TestSeedAndFetchCards(t *testing.T) {
	db := openTestDB(t)
	insertTemplate(t, db, "h1", "go")
	insertTemplate(t, db, "h2", "sql")
	u, err := db.CreateUser("conor", now)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	created, err := db.SeedMissingCardStates(u.ID, now)
	if err != nil {
		t.Fatalf("SeedMissingCardStates: %v", err)
	}
	if created != 2 {
		t.Fatalf("created = %d, want 2", created)
	}

	// Seeding again is a no-op.
	created, err = db.SeedMissingCardStates(u.ID, now)
	if err != nil {
		t.Fatalf("SeedMissingCardStates (repeat): %v", err)
	}
	if created != 0 {
		t.Errorf("repeat seed created %d states, want 0", created)
	}

	cards, err := db.GetCardsForUser(u.ID)
	if err != nil {
		t.Fatalf("GetCardsForUser: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("got %d cards, want 2", len(cards))
	}
	for _, c := range cards {
		if c.State.State != fsrs.New {
			t.Errorf("card %s state = %v, want New", c.TemplateHash, c.State.State)
		}
		if c.State.Reviewed() {
			t.Errorf("card %s has a last review before any review", c.TemplateHash)
		}
		if c.Template.Front == "" {
			t.Errorf("card %s missing joined template content", c.TemplateHash)
		}
	}
}

func TestCardsAreScopedToUser(t *testing.T) {
	db := openTestDB(t)
	insertTemplate(t, db, "h1", "go")
	alice, _ := db.CreateUser("alice", now)
	bob, _ := db.CreateUser("bob", now)
	if _, err := db.SeedMissingCardStates(alice.ID, now); err != nil {
		t.Fatalf("seed alice: %v", err)
	}

	cards, err := db.GetCardsForUser(bob.ID)
	if err != nil {
		t.Fatalf("GetCardsForUser(bob): %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("bob sees %d of alice's cards", len(cards))
	}
}

func TestUpsertCardStateRoundTrip(t *testing.T) {
	db := openTestDB(t)
	insertTemplate(t, db, "h1", "go")
	u, _ := db.CreateUser("conor", now)
	if _, err := db.SeedMissingCardStates(u.ID, now); err != nil {
		t.Fatalf("seed: %v", err)
	}

	reviewed := fsrs.CardState{
		Due:           now.Add(48 * time.Hour),
		Stability:     2.5,
		Difficulty:    5.1,
		ElapsedDays:   1.25,
		ScheduledDays: 2,
		Reps:          3,
		Lapses:        1,
		State:         fsrs.Review,
		LastReview:    now,
	}
	if err := db.UpsertCardState(u.ID, "h1", reviewed); err != nil {
		t.Fatalf("UpsertCardState: %v", err)
	}

	card, err := db.FindCardForUser(u.ID, "h1")
	if err != nil {
		t.Fatalf("FindCardForUser: %v", err)
	}
	if card == nil {
		t.Fatal("card not found after upsert")
	}
	got := card.State
	if got.Reps != 3 || got.Lapses != 1 || got.State != fsrs.Review {
		t.Errorf("counters lost in round trip: %+v", got)
	}
	if got.Stability != 2.5 || got.Difficulty != 5.1 {
		t.Errorf("memory state lost in round trip: %+v", got)
	}
	if !got.LastReview.Equal(now) {
		t.Errorf("LastReview = %v, want %v", got.LastReview, now)
	}
	if !got.Due.Equal(reviewed.Due) {
		t.Errorf("Due = %v, want %v", got.Due, reviewed.Due)
	}
}

func TestDeleteTemplateCascades(t *testing.T) {
	db := openTestDB(t)
	insertTemplate(t, db, "h1", "go")
	u, _ := db.CreateUser("conor", now)
	if _, err := db.SeedMissingCardStates(u.ID, now); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.InsertReviewLog(domain.ReviewLog{
		UserID: u.ID, TemplateHash: "h1", Grade: 3, Timestamp: now,
	}); err != nil {
		t.Fatalf("InsertReviewLog: %v", err)
	}

	if err := db.DeleteTemplateByHash("h1"); err != nil {
		t.Fatalf("DeleteTemplateByHash: %v", err)
	}

	cards, err := db.GetCardsForUser(u.ID)
	if err != nil {
		t.Fatalf("GetCardsForUser: %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("card states survived template delete: %d", len(cards))
	}
	tpl, err := db.FindTemplateByHash("h1")
	if err != nil {
		t.Fatalf("FindTemplateByHash: %v", err)
	}
	if tpl != nil {
		t.Error("template survived delete")
	}
}
