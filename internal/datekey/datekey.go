// Package datekey maps calendar dates to their canonical YYYY-MM-DD storage
// keys and enumerates month grids.
package datekey

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layout is the canonical storage key layout.
const Layout = "2006-01-02"

// GridCells is the number of days in a month grid: 6 weeks of 7 days.
const GridCells = 42

var ErrInvalidKey = errors.New("invalid date key")

// ToKey formats the wall-clock date of t. No zone conversion is applied:
// callers pass times in the local zone they mean.
func ToKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// FromKey parses a key into local midnight of that day.
func FromKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, strings.TrimSpace(key), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q", ErrInvalidKey, key)
	}
	return t, nil
}

// Valid reports whether key is a well-formed canonical date key.
func Valid(key string) bool {
	t, err := FromKey(key)
	if err != nil {
		return false
	}
	// Reject non-canonical spellings that still parse (e.g. surrounding spaces).
	return ToKey(t) == key
}

// StartOfDay returns local midnight of t's wall-clock date.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// WeekStartFromString maps the config value to a weekday. Anything other
// than "monday" means Sunday.
func WeekStartFromString(s string) time.Weekday {
	if strings.EqualFold(strings.TrimSpace(s), "monday") {
		return time.Monday
	}
	return time.Sunday
}

// MonthGrid returns GridCells consecutive days starting at the first
// weekStart day on or before the first of anchor's month. Every month,
// whatever its length, yields exactly 6 rows of 7 columns.
func MonthGrid(anchor time.Time, weekStart time.Weekday) []time.Time {
	first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.Local)
	offset := (int(first.Weekday()) - int(weekStart) + 7) % 7
	start := first.AddDate(0, 0, -offset)

	days := make([]time.Time, GridCells)
	for i := range days {
		// AddDate keeps local midnight across DST changes; Add(24h) would not.
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}
