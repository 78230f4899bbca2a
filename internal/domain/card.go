package domain

import "time"

// Rating is the user's self-assessed recall difficulty, submitted after a
// quiz reveal. It doubles as the card's stored difficulty level.
type Rating string

const (
	RatingEasy   Rating = "easy"
	RatingMedium Rating = "medium"
	RatingHard   Rating = "hard"
)

// Valid reports whether r is one of the accepted ratings.
func (r Rating) Valid() bool {
	switch r {
	case RatingEasy, RatingMedium, RatingHard:
		return true
	}
	return false
}

// Flashcard is a single word/meaning pair together with its review schedule.
// DeckID is nil for uncategorized cards. NextReviewAt nil or in the past
// means the card is due. Difficulty is empty until the card is first rated.
type Flashcard struct {
	ID             string
	OwnerID        string
	DeckID         *string
	Word           string
	Meaning        string
	Difficulty     Rating
	LastReviewedAt *time.Time
	ReviewCount    int
	NextReviewAt   *time.Time
	CreatedAt      time.Time
}

// Deck groups a user's flashcards. Deleting a deck detaches its cards
// (DeckID becomes nil) rather than deleting them.
type Deck struct {
	ID        string
	OwnerID   string
	Name      string
	CreatedAt time.Time
}
