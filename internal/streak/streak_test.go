package streak

import (
	"testing"
	"time"

	"github.com/declanmg/vocabdeck/internal/domain"
)

// cardsReviewedAt builds one card per instant; nil entries are
// never-reviewed cards.
func cardsReviewedAt(times ...*time.Time) []domain.Flashcard {
	cards := make([]domain.Flashcard, len(times))
	for i, ts := range times {
		cards[i] = domain.Flashcard{LastReviewedAt: ts}
	}
	return cards
}

func at(year int, month time.Month, day, hour int) *time.Time {
	t := time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
	return &t
}

func TestReviewedToday(t *testing.T) {
	now := time.Date(2024, 5, 20, 15, 0, 0, 0, time.UTC)

	testCases := []struct {
		name  string
		cards []domain.Flashcard
		want  int
	}{
		{"empty collection", nil, 0},
		{
			"three today and two yesterday counts three",
			cardsReviewedAt(
				at(2024, 5, 20, 8), at(2024, 5, 20, 12), at(2024, 5, 20, 14),
				at(2024, 5, 19, 9), at(2024, 5, 19, 22),
			),
			3,
		},
		{
			"never-reviewed cards are skipped",
			cardsReviewedAt(nil, at(2024, 5, 20, 8), nil),
			1,
		},
		{
			"same day counts per card, not per distinct day",
			cardsReviewedAt(at(2024, 5, 20, 8), at(2024, 5, 20, 8)),
			2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ReviewedToday(tc.cards, now, time.UTC); got != tc.want {
				t.Errorf("ReviewedToday = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestCurrent(t *testing.T) {
	now := time.Date(2024, 5, 20, 15, 0, 0, 0, time.UTC)

	testCases := []struct {
		name  string
		cards []domain.Flashcard
		want  int
	}{
		{"empty collection", nil, 0},
		{"only today", cardsReviewedAt(at(2024, 5, 20, 8)), 1},
		{
			"today, yesterday and the day before",
			cardsReviewedAt(at(2024, 5, 20, 8), at(2024, 5, 19, 23), at(2024, 5, 18, 1)),
			3,
		},
		{
			"gap after today stops the walk",
			cardsReviewedAt(at(2024, 5, 20, 8), at(2024, 5, 17, 8)),
			1,
		},
		{
			"most recent review yesterday is no current streak",
			cardsReviewedAt(at(2024, 5, 19, 8), at(2024, 5, 18, 8)),
			0,
		},
		{
			"several reviews on one day count once",
			cardsReviewedAt(
				at(2024, 5, 20, 8), at(2024, 5, 20, 9), at(2024, 5, 20, 10),
				at(2024, 5, 19, 8), at(2024, 5, 19, 21),
			),
			2,
		},
		{
			"never-reviewed cards are ignored",
			cardsReviewedAt(nil, at(2024, 5, 20, 8), nil, at(2024, 5, 19, 8)),
			2,
		},
		{
			"streak over a month boundary",
			cardsReviewedAt(at(2024, 3, 1, 9), at(2024, 2, 29, 9), at(2024, 2, 28, 9)),
			0, // now is 2024-05-20, so this history is long broken
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Current(tc.cards, now, time.UTC); got != tc.want {
				t.Errorf("Current = %d, want %d", got, tc.want)
			}
		})
	}

	t.Run("month boundary with matching now", func(t *testing.T) {
		marchNow := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
		cards := cardsReviewedAt(at(2024, 3, 1, 9), at(2024, 2, 29, 9), at(2024, 2, 28, 9))
		if got := Current(cards, marchNow, time.UTC); got != 3 {
			t.Errorf("Current across month boundary = %d, want 3", got)
		}
	})

	t.Run("input order does not matter", func(t *testing.T) {
		forward := cardsReviewedAt(at(2024, 5, 20, 8), at(2024, 5, 19, 8), at(2024, 5, 18, 8))
		backward := cardsReviewedAt(at(2024, 5, 18, 8), at(2024, 5, 19, 8), at(2024, 5, 20, 8))
		if Current(forward, now, time.UTC) != Current(backward, now, time.UTC) {
			t.Error("streak depends on input order")
		}
	})

	t.Run("local midnight decides today", func(t *testing.T) {
		tokyo, err := time.LoadLocation("Asia/Tokyo")
		if err != nil {
			t.Fatalf("load location: %v", err)
		}
		// 2024-05-20 16:00 UTC is already 2024-05-21 01:00 in Tokyo, so a
		// review from the UTC morning of the 20th was "yesterday" there.
		lateNow := time.Date(2024, 5, 20, 16, 0, 0, 0, time.UTC)
		cards := cardsReviewedAt(at(2024, 5, 20, 8))
		if got := Current(cards, lateNow, time.UTC); got != 1 {
			t.Errorf("UTC observer: Current = %d, want 1", got)
		}
		if got := Current(cards, lateNow, tokyo); got != 0 {
			t.Errorf("Tokyo observer: Current = %d, want 0", got)
		}
	})
}
