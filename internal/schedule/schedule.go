package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/declanmg/vocabdeck/internal/domain"
)

// ErrInvalidRating is returned when a rating outside easy/medium/hard is
// submitted. There is no fallback rating.
var ErrInvalidRating = errors.New("invalid rating")

// reviewOffsets maps a rating to the number of calendar days until the
// card comes back. Hard cards are due again immediately, in the same run.
var reviewOffsets = map[domain.Rating]int{
	domain.RatingEasy:   3,
	domain.RatingMedium: 1,
	domain.RatingHard:   0,
}

// NextDueAt computes the instant a card rated at now becomes due again.
// The offset is calendar-day addition, not a 24h multiple, so the due
// instant keeps the submission's wall-clock time across month boundaries
// and daylight-saving transitions.
func NextDueAt(rating domain.Rating, now time.Time) (time.Time, error) {
	days, ok := reviewOffsets[rating]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidRating, rating)
	}
	return now.AddDate(0, 0, days), nil
}

// IsDue reports whether card is due at now. A card that was never
// scheduled is always due, and the due boundary is inclusive.
func IsDue(card domain.Flashcard, now time.Time) bool {
	return card.NextReviewAt == nil || !card.NextReviewAt.After(now)
}

// Due returns the cards due at now, ascending by NextReviewAt with
// never-scheduled cards first. Ties keep their input order. Due-ness is a
// function of the clock alone, so the result is recomputed on every call
// and never cached.
func Due(cards []domain.Flashcard, now time.Time) []domain.Flashcard {
	var due []domain.Flashcard
	for _, card := range cards {
		if IsDue(card, now) {
			due = append(due, card)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		a, b := due[i].NextReviewAt, due[j].NextReviewAt
		if a == nil {
			return b != nil
		}
		if b == nil {
			return false
		}
		return a.Before(*b)
	})
	return due
}

// ApplyReview returns a copy of card with rating applied: the review is
// stamped at now, the count incremented by one, the next due instant
// recomputed and the difficulty set to the rating. The card store must
// persist the four fields as a single update.
func ApplyReview(card domain.Flashcard, rating domain.Rating, now time.Time) (domain.Flashcard, error) {
	next, err := NextDueAt(rating, now)
	if err != nil {
		return domain.Flashcard{}, err
	}
	reviewed := now
	card.LastReviewedAt = &reviewed
	card.ReviewCount++
	card.NextReviewAt = &next
	card.Difficulty = rating
	return card, nil
}
