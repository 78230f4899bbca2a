// Package streak derives activity metrics from a user's review history.
// Both functions are pure and order-independent over the input collection.
package streak

import (
	"sort"
	"time"

	"github.com/declanmg/vocabdeck/internal/calendar"
	"github.com/declanmg/vocabdeck/internal/domain"
)

// ReviewedToday counts the cards whose last review falls on today's
// calendar day in loc. Never-reviewed cards do not count; several cards
// reviewed on the same day each count individually.
func ReviewedToday(cards []domain.Flashcard, now time.Time, loc *time.Location) int {
	today := calendar.DayKey(now, loc)
	var count int
	for _, card := range cards {
		if card.LastReviewedAt == nil {
			continue
		}
		if calendar.DayKey(*card.LastReviewedAt, loc) == today {
			count++
		}
	}
	return count
}

// Current returns the number of consecutive calendar days, ending today,
// on which at least one card was reviewed. The streak must include today:
// a user who reviewed yesterday but not yet today has a streak of 0.
func Current(cards []domain.Flashcard, now time.Time, loc *time.Location) int {
	seen := make(map[string]bool)
	for _, card := range cards {
		if card.LastReviewedAt == nil {
			continue
		}
		seen[calendar.DayKey(*card.LastReviewedAt, loc)] = true
	}

	days := make([]string, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	// Most recent day first.
	sort.Sort(sort.Reverse(sort.StringSlice(days)))

	if len(days) == 0 || days[0] != calendar.DayKey(now, loc) {
		return 0
	}

	count := 1
	for i := 1; i < len(days); i++ {
		if calendar.PrevDayKey(days[i-1], loc) != days[i] {
			break
		}
		count++
	}
	return count
}
