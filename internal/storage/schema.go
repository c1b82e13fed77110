package storage

const schema = `
-- The 'sources' table tracks where templates come from, either a local
-- directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local', -- 'local' or 'git'
    last_scanned DATETIME
);

-- The 'templates' table stores the shared, immutable content of each card.
CREATE TABLE IF NOT EXISTS templates (
    hash TEXT PRIMARY KEY,
    front TEXT NOT NULL,
    back TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    source_id INTEGER,

    FOREIGN KEY(source_id) REFERENCES sources(id)
);

-- The 'users' table holds study accounts.
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at DATETIME NOT NULL
);

-- The 'card_states' table is the per-user memory state, one row per
-- (user, template) pair.
CREATE TABLE IF NOT EXISTS card_states (
    user_id TEXT NOT NULL,
    template_hash TEXT NOT NULL,
    due DATETIME NOT NULL,
    stability REAL NOT NULL DEFAULT 0,
    difficulty REAL NOT NULL DEFAULT 0,
    elapsed_days REAL NOT NULL DEFAULT 0,
    scheduled_days REAL NOT NULL DEFAULT 0,
    reps INTEGER NOT NULL DEFAULT 0,
    lapses INTEGER NOT NULL DEFAULT 0,
    learning_steps INTEGER NOT NULL DEFAULT 0,
    state INTEGER NOT NULL DEFAULT 0, -- 0: New, 1: Learning, 2: Review, 3: Relearning
    last_review DATETIME,

    PRIMARY KEY (user_id, template_hash),
    FOREIGN KEY(user_id) REFERENCES users(id),
    FOREIGN KEY(template_hash) REFERENCES templates(hash)
);

-- The 'review_logs' table is the append-only review history.
CREATE TABLE IF NOT EXISTS review_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    template_hash TEXT NOT NULL,
    grade INTEGER NOT NULL,
    reviewed_at DATETIME NOT NULL
);
`
