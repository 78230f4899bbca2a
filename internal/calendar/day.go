package calendar

import "time"

// Layout of a day key. Keys compare lexicographically in date order.
const keyLayout = "2006-01-02"

// DayKey returns the calendar day of t in loc as YYYY-MM-DD. Two instants
// produce the same key exactly when they fall on the same local date in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(keyLayout)
}

// PrevDayKey returns the key of the calendar day immediately before key,
// handling month and year rollover. The arithmetic is anchored at noon so
// a daylight-saving shift cannot move the result across a date boundary.
// An unparseable key yields "".
func PrevDayKey(key string, loc *time.Location) string {
	t, err := time.ParseInLocation(keyLayout, key, loc)
	if err != nil {
		return ""
	}
	noon := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, loc)
	return noon.AddDate(0, 0, -1).Format(keyLayout)
}
