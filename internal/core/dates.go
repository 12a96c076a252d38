package core

import (
	"strings"
	"time"
)

// dateLayouts are tried in order; the first that parses wins. Day and month
// accept one or two digits.
var dateLayouts = []string{
	"2-1-2006", // DD-MM-YYYY
	"2/1/2006", // DD/MM/YYYY
	"2006-1-2", // YYYY-MM-DD
	"2-1-06",   // DD-MM-YY
	"20060102", // YYYYMMDD
}

// ParseDate parses a statement date and normalizes it to 12:00 UTC on that
// calendar day, since the exports carry no time of day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Midday(t), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// Midday returns noon UTC on the calendar date of t.
func Midday(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}
