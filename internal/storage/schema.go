package storage

const schema = `
-- The 'decks' table groups a user's flashcards.
CREATE TABLE IF NOT EXISTS decks (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    name TEXT NOT NULL,
    created_at TEXT NOT NULL
);

-- The 'flashcards' table holds each word/meaning pair and its review
-- schedule. Timestamps are RFC 3339 UTC strings so lexicographic order
-- matches time order. deck_id is NULL for uncategorized cards; deleting
-- a deck detaches its cards instead of deleting them.
CREATE TABLE IF NOT EXISTS flashcards (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    deck_id TEXT REFERENCES decks(id) ON DELETE SET NULL,
    word TEXT NOT NULL,
    meaning TEXT NOT NULL,
    difficulty TEXT,
    last_reviewed TEXT,
    review_count INTEGER NOT NULL DEFAULT 0,
    next_review_at TEXT,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_flashcards_owner_due
    ON flashcards(owner_id, next_review_at);

-- The 'sources' table tracks where seed word lists come from, either a
-- local directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    owner_id TEXT NOT NULL,
    deck_id TEXT REFERENCES decks(id) ON DELETE SET NULL,
    path TEXT NOT NULL,
    type TEXT NOT NULL,
    last_synced TEXT,

    UNIQUE(owner_id, path)
);
`
