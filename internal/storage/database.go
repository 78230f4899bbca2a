package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Registers the sqlite driver

	"github.com/declanmg/vocabdeck/internal/domain"
)

// ErrNotFound is returned by updates and deletes that matched no row for
// the given id and owner.
var ErrNotFound = errors.New("not found")

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

	// sqlite supports a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Needed for ON DELETE SET NULL on deck deletion.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Timestamps are stored as RFC 3339 UTC strings. Sub-second precision is
// dropped so equal wall-clock instants compare equal as strings.
const instantLayout = time.RFC3339

func fmtInstant(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(instantLayout)
}

func fmtInstantPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtInstant(*t)
}

// parseInstant maps a stored timestamp back to a time. A missing or
// unparseable value comes back as nil so one corrupt row cannot take the
// whole dashboard down with it.
func parseInstant(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(instantLayout, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullStr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// DeckFilter narrows card queries. The zero value matches every deck,
// Uncategorized matches cards outside any deck, ID matches a single deck.
type DeckFilter struct {
	ID            string
	Uncategorized bool
}

func (f DeckFilter) clause(args *[]any) string {
	if f.Uncategorized {
		return " AND deck_id IS NULL"
	}
	if f.ID != "" {
		*args = append(*args, f.ID)
		return " AND deck_id = ?"
	}
	return ""
}

// CreateDeck inserts a new deck for the owner and returns it.
func (db *DB) CreateDeck(ownerID, name string) (*domain.Deck, error) {
	deck := domain.Deck{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	_, err := db.conn.Exec(`
		INSERT INTO decks (id, owner_id, name, created_at)
		VALUES (?, ?, ?, ?)
	`, deck.ID, deck.OwnerID, deck.Name, fmtInstant(deck.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert deck: %w", err)
	}
	return &deck, nil
}

// DecksByOwner returns the owner's decks, oldest first.
func (db *DB) DecksByOwner(ownerID string) ([]domain.Deck, error) {
	rows, err := db.conn.Query(`
		SELECT id, owner_id, name, created_at
		FROM decks WHERE owner_id = ?
		ORDER BY created_at ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get decks: %w", err)
	}
	defer rows.Close()

	var decks []domain.Deck
	for rows.Next() {
		var d domain.Deck
		var created sql.NullString
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Name, &created); err != nil {
			return nil, fmt.Errorf("failed to scan deck row: %w", err)
		}
		if t := parseInstant(created); t != nil {
			d.CreatedAt = *t
		}
		decks = append(decks, d)
	}
	return decks, rows.Err()
}

// RenameDeck changes a deck's name.
func (db *DB) RenameDeck(id, ownerID, name string) error {
	res, err := db.conn.Exec(`
		UPDATE decks SET name = ? WHERE id = ? AND owner_id = ?
	`, name, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to rename deck %s: %w", id, err)
	}
	return requireRow(res)
}

// DeleteDeck removes a deck. Its cards survive with deck_id cleared by the
// foreign key, never deleted.
func (db *DB) DeleteDeck(id, ownerID string) error {
	res, err := db.conn.Exec(`
		DELETE FROM decks WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete deck %s: %w", id, err)
	}
	return requireRow(res)
}

const cardColumns = `id, owner_id, deck_id, word, meaning, difficulty,
	last_reviewed, review_count, next_review_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (domain.Flashcard, error) {
	var c domain.Flashcard
	var deckID, difficulty, lastReviewed, nextReview, created sql.NullString
	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&deckID,
		&c.Word,
		&c.Meaning,
		&difficulty,
		&lastReviewed,
		&c.ReviewCount,
		&nextReview,
		&created,
	)
	if err != nil {
		return domain.Flashcard{}, err
	}
	if deckID.Valid {
		c.DeckID = &deckID.String
	}
	if difficulty.Valid {
		c.Difficulty = domain.Rating(difficulty.String)
	}
	c.LastReviewedAt = parseInstant(lastReviewed)
	c.NextReviewAt = parseInstant(nextReview)
	if t := parseInstant(created); t != nil {
		c.CreatedAt = *t
	}
	return c, nil
}

// CreateCard inserts a new flashcard. next_review_at starts at the creation
// instant so new cards are immediately due.
func (db *DB) CreateCard(ownerID string, deckID *string, word, meaning string) (*domain.Flashcard, error) {
	now := time.Now().UTC().Truncate(time.Second)
	card := domain.Flashcard{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		DeckID:       deckID,
		Word:         word,
		Meaning:      meaning,
		NextReviewAt: &now,
		CreatedAt:    now,
	}
	_, err := db.conn.Exec(`
		INSERT INTO flashcards (id, owner_id, deck_id, word, meaning, review_count, next_review_at, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)
	`,
		card.ID,
		card.OwnerID,
		nullStr(card.DeckID),
		card.Word,
		card.Meaning,
		fmtInstant(now),
		fmtInstant(now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert flashcard: %w", err)
	}
	return &card, nil
}

// CardByID retrieves a single flashcard, or nil if it does not exist.
func (db *DB) CardByID(id string) (*domain.Flashcard, error) {
	row := db.conn.QueryRow(`
		SELECT `+cardColumns+`
		FROM flashcards WHERE id = ?
	`, id)
	card, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find flashcard %s: %w", id, err)
	}
	return &card, nil
}

// CardsByOwner returns the owner's cards, newest first, optionally narrowed
// by a deck filter.
func (db *DB) CardsByOwner(ownerID string, filter DeckFilter) ([]domain.Flashcard, error) {
	args := []any{ownerID}
	query := `
		SELECT ` + cardColumns + `
		FROM flashcards WHERE owner_id = ?` + filter.clause(&args) + `
		ORDER BY created_at DESC`
	return db.queryCards(query, args...)
}

// DueCards returns the owner's cards due at now: never scheduled or already
// past due, soonest first with never-scheduled cards leading. The predicate
// is evaluated fresh against now on every call.
func (db *DB) DueCards(ownerID string, filter DeckFilter, now time.Time) ([]domain.Flashcard, error) {
	args := []any{ownerID}
	deck := filter.clause(&args)
	args = append(args, fmtInstant(now))
	query := `
		SELECT ` + cardColumns + `
		FROM flashcards
		WHERE owner_id = ?` + deck + `
		AND (next_review_at IS NULL OR next_review_at <= ?)
		ORDER BY next_review_at ASC, created_at ASC`
	return db.queryCards(query, args...)
}

func (db *DB) queryCards(query string, args ...any) ([]domain.Flashcard, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query flashcards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Flashcard
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flashcard row: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// UpdateCardContent edits a card's word, meaning and deck assignment.
// Content edits never touch the review schedule.
func (db *DB) UpdateCardContent(id, ownerID, word, meaning string, deckID *string) error {
	res, err := db.conn.Exec(`
		UPDATE flashcards
		SET word = ?, meaning = ?, deck_id = ?
		WHERE id = ? AND owner_id = ?
	`, word, meaning, nullStr(deckID), id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to update flashcard %s: %w", id, err)
	}
	return requireRow(res)
}

// UpdateCardReview persists the outcome of a rating: last review instant,
// review count, next due instant and difficulty, as one atomic update.
func (db *DB) UpdateCardReview(card domain.Flashcard) error {
	res, err := db.conn.Exec(`
		UPDATE flashcards
		SET last_reviewed = ?, review_count = ?, next_review_at = ?, difficulty = ?
		WHERE id = ? AND owner_id = ?
	`,
		fmtInstantPtr(card.LastReviewedAt),
		card.ReviewCount,
		fmtInstantPtr(card.NextReviewAt),
		string(card.Difficulty),
		card.ID,
		card.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update review state for flashcard %s: %w", card.ID, err)
	}
	return requireRow(res)
}

// DeleteCard removes a flashcard.
func (db *DB) DeleteCard(id, ownerID string) error {
	res, err := db.conn.Exec(`
		DELETE FROM flashcards WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete flashcard %s: %w", id, err)
	}
	return requireRow(res)
}

// CardExists reports whether the owner already has a card with this word in
// the given deck. Used by sync to avoid re-importing seeded words.
func (db *DB) CardExists(ownerID string, deckID *string, word string) (bool, error) {
	args := []any{ownerID, word}
	deck := " AND deck_id IS NULL"
	if deckID != nil {
		deck = " AND deck_id = ?"
		args = append(args, *deckID)
	}
	var n int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM flashcards WHERE owner_id = ? AND word = ?`+deck,
		args...).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check for flashcard %q: %w", word, err)
	}
	return n > 0, nil
}

// Source represents a word-list source, either a local path or a git URL,
// feeding an owner's deck.
type Source struct {
	ID         int64
	OwnerID    string
	DeckID     *string
	Path       string
	Type       string
	LastSynced sql.NullTime
}

// CreateSource registers a new word-list source and returns its ID.
func (db *DB) CreateSource(ownerID string, deckID *string, path, sourceType string) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO sources (owner_id, deck_id, path, type)
		VALUES (?, ?, ?, ?)
	`, ownerID, nullStr(deckID), path, sourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// SourcesByOwner returns one owner's word-list sources.
func (db *DB) SourcesByOwner(ownerID string) ([]Source, error) {
	return db.querySources(`
		SELECT id, owner_id, deck_id, path, type, last_synced
		FROM sources WHERE owner_id = ?
	`, ownerID)
}

// AllSources returns every registered source across owners.
func (db *DB) AllSources() ([]Source, error) {
	return db.querySources(`
		SELECT id, owner_id, deck_id, path, type, last_synced
		FROM sources
	`)
}

func (db *DB) querySources(query string, args ...any) ([]Source, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		var deckID, lastSynced sql.NullString
		if err := rows.Scan(&s.ID, &s.OwnerID, &deckID, &s.Path, &s.Type, &lastSynced); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		if deckID.Valid {
			s.DeckID = &deckID.String
		}
		if t := parseInstant(lastSynced); t != nil {
			s.LastSynced = sql.NullTime{Time: *t, Valid: true}
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// DeleteSource removes a word-list source. Cards it seeded stay.
func (db *DB) DeleteSource(id int64, ownerID string) error {
	res, err := db.conn.Exec(`
		DELETE FROM sources WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	return requireRow(res)
}

// UpdateSourceLastSynced updates the last_synced timestamp for a source.
func (db *DB) UpdateSourceLastSynced(id int64) error {
	_, err := db.conn.Exec(`
		UPDATE sources SET last_synced = ? WHERE id = ?
	`, fmtInstant(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to update last synced for source %d: %w", id, err)
	}
	return nil
}

func requireRow(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
