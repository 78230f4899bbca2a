package calendar

import (
	"testing"
	"time"
)

func TestDayKey(t *testing.T) {
	utc := time.UTC

	t.Run("same local date, different times, same key", func(t *testing.T) {
		morning := time.Date(2024, 1, 10, 0, 0, 1, 0, utc)
		night := time.Date(2024, 1, 10, 23, 59, 59, 0, utc)
		if DayKey(morning, utc) != DayKey(night, utc) {
			t.Errorf("expected same key, got %s and %s", DayKey(morning, utc), DayKey(night, utc))
		}
	})

	t.Run("midnight boundary splits keys", func(t *testing.T) {
		before := time.Date(2024, 1, 10, 23, 59, 59, 0, utc)
		after := time.Date(2024, 1, 11, 0, 0, 0, 0, utc)
		if DayKey(before, utc) == DayKey(after, utc) {
			t.Error("expected different keys across midnight")
		}
	})

	t.Run("key depends on the observer location", func(t *testing.T) {
		tokyo, err := time.LoadLocation("Asia/Tokyo")
		if err != nil {
			t.Fatalf("load location: %v", err)
		}
		// 23:00 UTC on the 10th is already the 11th in Tokyo.
		instant := time.Date(2024, 1, 10, 23, 0, 0, 0, utc)
		if got := DayKey(instant, utc); got != "2024-01-10" {
			t.Errorf("UTC key = %s, want 2024-01-10", got)
		}
		if got := DayKey(instant, tokyo); got != "2024-01-11" {
			t.Errorf("Tokyo key = %s, want 2024-01-11", got)
		}
	})
}

func TestPrevDayKey(t *testing.T) {
	utc := time.UTC

	testCases := []struct {
		name string
		key  string
		want string
	}{
		{"within a month", "2024-05-20", "2024-05-19"},
		{"month rollover", "2024-03-01", "2024-02-29"},
		{"non leap year", "2023-03-01", "2023-02-28"},
		{"year rollover", "2024-01-01", "2023-12-31"},
		{"unparseable key", "not-a-date", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PrevDayKey(tc.key, utc); got != tc.want {
				t.Errorf("PrevDayKey(%q) = %q, want %q", tc.key, got, tc.want)
			}
		})
	}

	t.Run("spring forward day", func(t *testing.T) {
		ny, err := time.LoadLocation("America/New_York")
		if err != nil {
			t.Fatalf("load location: %v", err)
		}
		// US DST started 2024-03-10; the previous day must still be the 9th.
		if got := PrevDayKey("2024-03-11", ny); got != "2024-03-10" {
			t.Errorf("PrevDayKey(2024-03-11) = %q, want 2024-03-10", got)
		}
		if got := PrevDayKey("2024-03-10", ny); got != "2024-03-09" {
			t.Errorf("PrevDayKey(2024-03-10) = %q, want 2024-03-09", got)
		}
	})
}
