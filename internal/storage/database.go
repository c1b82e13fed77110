package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/memorank/internal/domain"
	"github.com/conorfennell/memorank/internal/fsrs"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// --- Templates ---

// InsertTemplate inserts a new card template.
func (db *DB) InsertTemplate(t domain.Template) error {
	sourceID := sql.NullInt64{Int64: t.SourceID, Valid: t.SourceID != 0}
	_, err := db.conn.Exec(`
		INSERT INTO templates (hash, front, back, category, source_id)
		VALUES (?, ?, ?, ?, ?)
	`, t.Hash, t.Front, t.Back, t.Category, sourceID)
	if err != nil {
		return fmt.Errorf("failed to insert template %s: %w", t.Hash, err)
	}
	return nil
}

// FindTemplateByHash retrieves a template by its content hash.
// Returns (nil, nil) when no template matches.
func (db *DB) FindTemplateByHash(hash string) (*domain.Template, error) {
	row := db.conn.QueryRow(`
		SELECT hash, front, back, category, source_id
		FROM templates WHERE hash = ?
	`, hash)

	t, err := scanTemplate(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Template not found
		}
		return nil, fmt.Errorf("failed to find template by hash %s: %w", hash, err)
	}
	return t, nil
}

// GetTemplatesBySourceID retrieves all templates belonging to a source.
func (db *DB) GetTemplatesBySourceID(sourceID int64) ([]domain.Template, error) {
	rows, err := db.conn.Query(`
		SELECT hash, front, back, category, source_id
		FROM templates WHERE source_id = ?
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get templates for source ID %d: %w", sourceID, err)
	}
	defer rows.Close()

	var templates []domain.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template row for source ID %d: %w", sourceID, err)
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

// DeleteTemplateByHash removes a template together with every per-user card
// state and review log that points at it.
func (db *DB) DeleteTemplateByHash(hash string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete of template %s: %w", hash, err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM review_logs WHERE template_hash = ?`,
		`DELETE FROM card_states WHERE template_hash = ?`,
		`DELETE FROM templates WHERE hash = ?`,
	} {
		if _, err := tx.Exec(stmt, hash); err != nil {
			return fmt.Errorf("failed to delete template %s: %w", hash, err)
		}
	}
	return tx.Commit()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTemplate(row scannable) (*domain.Template, error) {
	var t domain.Template
	var sourceID sql.NullInt64
	if err := row.Scan(&t.Hash, &t.Front, &t.Back, &t.Category, &sourceID); err != nil {
		return nil, err
	}
	t.SourceID = sourceID.Int64
	return &t, nil
}

// --- Sources ---

// Source represents a template source, either a local path or a git URL.
type Source struct {
	ID          int64
	Path        string
	Type        string // "local" or "git"
	LastScanned sql.NullTime
}

// InsertSource inserts a new source and returns its ID.
func (db *DB) InsertSource(path, sourceType string) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO sources (path, type)
		VALUES (?, ?)
	`, path, sourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source by its path. Returns (nil, nil) when
// no source matches.
func (db *DB) FindSourceByPath(path string) (*Source, error) {
	var s Source
	row := db.conn.QueryRow(`
		SELECT id, path, type, last_scanned
		FROM sources WHERE path = ?
	`, path)

	err := row.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Source not found
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// GetAllSources retrieves all stored sources.
func (db *DB) GetAllSources() ([]Source, error) {
	rows, err := db.conn.Query(`
		SELECT id, path, type, last_scanned
		FROM sources
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// DeleteSource removes a source together with its templates and every
// card state and review log attached to them.
func (db *DB) DeleteSource(id int64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete of source %d: %w", id, err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM review_logs WHERE template_hash IN (SELECT hash FROM templates WHERE source_id = ?)`,
		`DELETE FROM card_states WHERE template_hash IN (SELECT hash FROM templates WHERE source_id = ?)`,
		`DELETE FROM templates WHERE source_id = ?`,
		`DELETE FROM sources WHERE id = ?`,
	} {
		if _, err := tx.Exec(stmt, id); err != nil {
			return fmt.Errorf("failed to delete source %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// UpdateSourceLastScanned updates the last_scanned timestamp for a source.
func (db *DB) UpdateSourceLastScanned(sourceID int64, scannedAt time.Time) error {
	_, err := db.conn.Exec(`
		UPDATE sources
		SET last_scanned = ?
		WHERE id = ?
	`, scannedAt, sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}

// --- Users ---

// CreateUser creates a study account with a fresh uuid.
func (db *DB) CreateUser(name string, now time.Time) (*domain.User, error) {
	u := domain.User{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
	}
	_, err := db.conn.Exec(`
		INSERT INTO users (id, name, created_at)
		VALUES (?, ?, ?)
	`, u.ID, u.Name, u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", name, err)
	}
	return &u, nil
}

// FindUserByID retrieves a user. Returns (nil, nil) when no user matches.
func (db *DB) FindUserByID(id string) (*domain.User, error) {
	var u domain.User
	row := db.conn.QueryRow(`SELECT id, name, created_at FROM users WHERE id = ?`, id)
	if err := row.Scan(&u.ID, &u.Name, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user %s: %w", id, err)
	}
	return &u, nil
}

// GetAllUsers retrieves every study account.
func (db *DB) GetAllUsers() ([]domain.User, error) {
	rows, err := db.conn.Query(`SELECT id, name, created_at FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// --- Card states ---

// GetCardsForUser fetches every card state belonging to the user, joined
// with its template, in one snapshot read.
func (db *DB) GetCardsForUser(userID string) ([]domain.CardWithTemplate, error) {
	rows, err := db.conn.Query(`
		SELECT cs.user_id, cs.template_hash,
		       cs.due, cs.stability, cs.difficulty, cs.elapsed_days, cs.scheduled_days,
		       cs.reps, cs.lapses, cs.learning_steps, cs.state, cs.last_review,
		       t.hash, t.front, t.back, t.category, t.source_id
		FROM card_states cs
		JOIN templates t ON t.hash = cs.template_hash
		WHERE cs.user_id = ?
		ORDER BY cs.template_hash
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for user %s: %w", userID, err)
	}
	defer rows.Close()

	var cards []domain.CardWithTemplate
	for rows.Next() {
		var c domain.CardWithTemplate
		var state int
		var lastReview sql.NullTime
		var sourceID sql.NullInt64
		if err := rows.Scan(
			&c.UserID,
			&c.TemplateHash,
			&c.State.Due,
			&c.State.Stability,
			&c.State.Difficulty,
			&c.State.ElapsedDays,
			&c.State.ScheduledDays,
			&c.State.Reps,
			&c.State.Lapses,
			&c.State.LearningSteps,
			&state,
			&lastReview,
			&c.Template.Hash,
			&c.Template.Front,
			&c.Template.Back,
			&c.Template.Category,
			&sourceID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan card row for user %s: %w", userID, err)
		}
		c.State.State = fsrs.State(state)
		if lastReview.Valid {
			c.State.LastReview = lastReview.Time
		}
		c.Template.SourceID = sourceID.Int64
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// FindCardForUser fetches a single card state with its template.
// Returns (nil, nil) when the user has no state for the template.
func (db *DB) FindCardForUser(userID, templateHash string) (*domain.CardWithTemplate, error) {
	cards, err := db.GetCardsForUser(userID)
	if err != nil {
		return nil, err
	}
	for i := range cards {
		if cards[i].TemplateHash == templateHash {
			return &cards[i], nil
		}
	}
	return nil, nil
}

// UpsertCardState writes one card state row by its (user, template) key.
func (db *DB) UpsertCardState(userID, templateHash string, cs fsrs.CardState) error {
	lastReview := sql.NullTime{Time: cs.LastReview, Valid: !cs.LastReview.IsZero()}
	_, err := db.conn.Exec(`
		INSERT INTO card_states
			(user_id, template_hash, due, stability, difficulty, elapsed_days,
			 scheduled_days, reps, lapses, learning_steps, state, last_review)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, template_hash) DO UPDATE SET
			due = excluded.due,
			stability = excluded.stability,
			difficulty = excluded.difficulty,
			elapsed_days = excluded.elapsed_days,
			scheduled_days = excluded.scheduled_days,
			reps = excluded.reps,
			lapses = excluded.lapses,
			learning_steps = excluded.learning_steps,
			state = excluded.state,
			last_review = excluded.last_review
	`,
		userID, templateHash, cs.Due, cs.Stability, cs.Difficulty, cs.ElapsedDays,
		cs.ScheduledDays, cs.Reps, cs.Lapses, cs.LearningSteps, int(cs.State), lastReview,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert card state for user %s template %s: %w", userID, templateHash, err)
	}
	return nil
}

// SeedMissingCardStates creates a New card state for every template the user
// has no state for yet. Returns the number of states created.
func (db *DB) SeedMissingCardStates(userID string, now time.Time) (int, error) {
	rows, err := db.conn.Query(`
		SELECT hash FROM templates
		WHERE hash NOT IN (SELECT template_hash FROM card_states WHERE user_id = ?)
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to find unseeded templates for user %s: %w", userID, err)
	}
	var missing []string
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan unseeded template hash: %w", err)
		}
		missing = append(missing, hash)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to iterate unseeded templates for user %s: %w", userID, err)
	}

	for _, hash := range missing {
		if err := db.UpsertCardState(userID, hash, fsrs.NewCard(now)); err != nil {
			return 0, err
		}
	}
	return len(missing), nil
}

// --- Review logs ---

// InsertReviewLog appends one review event to the history.
func (db *DB) InsertReviewLog(log domain.ReviewLog) error {
	_, err := db.conn.Exec(`
		INSERT INTO review_logs (user_id, template_hash, grade, reviewed_at)
		VALUES (?, ?, ?, ?)
	`, log.UserID, log.TemplateHash, log.Grade, log.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert review log for user %s template %s: %w", log.UserID, log.TemplateHash, err)
	}
	return nil
}
