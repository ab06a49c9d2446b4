package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	layout24 = "15:04"
	layout12 = "3:04 PM"
)

// ParseTime24 parses a canonical "HH:MM" time. Single-digit hours are
// accepted since older documents stored "9:00".
func ParseTime24(s string) (hour, minute int, err error) {
	s = strings.TrimSpace(s)
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("time %q: want HH:MM", s)
	}
	hour, err = strconv.Atoi(h)
	if err != nil || len(h) > 2 || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("time %q: bad hour", s)
	}
	minute, err = strconv.Atoi(m)
	if err != nil || len(m) != 2 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time %q: bad minute", s)
	}
	return hour, minute, nil
}

// To24Hour converts a 12-hour display time ("2:30 PM", "12:15 am") into
// canonical "HH:MM".
func To24Hour(display string) (string, error) {
	t, err := time.Parse(layout12, strings.ToUpper(strings.TrimSpace(display)))
	if err != nil {
		return "", fmt.Errorf("time %q: want h:mm AM/PM", display)
	}
	return t.Format(layout24), nil
}

// To12Hour converts canonical "HH:MM" into the 12-hour display form.
func To12Hour(canonical string) (string, error) {
	h, m, err := ParseTime24(canonical)
	if err != nil {
		return "", err
	}
	return time.Date(2000, 1, 1, h, m, 0, 0, time.UTC).Format(layout12), nil
}

// Canonical24 re-renders a parseable 24h time as zero-padded "HH:MM".
func Canonical24(s string) (string, error) {
	h, m, err := ParseTime24(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

// At combines a calendar date with a canonical 24h time in the date's location.
func At(date time.Time, time24 string) (time.Time, error) {
	h, m, err := ParseTime24(time24)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, date.Location()), nil
}
