package ratemath

import (
	"fmt"
	"strings"
	"time"
)

const isoLayout = "2006-01-02"
const usLayout = "1/2/2006"

// ParseDate accepts "YYYY-MM-DD" or "MM/DD/YYYY" (after trimming
// whitespace), non-zero-padded month/day included, and rejects
// calendar-invalid dates such as 2025-02-29 or 2025-13-01.
func ParseDate(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)

	if d, err := parseStrictISO(trimmed); err == nil {
		return DateOnly(d), nil
	}
	if d, err := time.Parse(usLayout, trimmed); err == nil {
		return DateOnly(d), nil
	}
	return time.Time{}, fmt.Errorf("ratemath: invalid date format: %q", trimmed)
}

// DateOnly normalizes a time.Time to a UTC midnight civil date, with no
// monotonic reading attached. All dates flowing through this package
// (map keys into OvernightSeries in particular) go through this so
// that time.Time equality — which Go map lookups rely on — behaves
// like calendar-date equality rather than tripping over location or
// monotonic-clock differences.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// parseStrictISO parses YYYY-MM-DD (lenient on zero padding in month/day)
// while still rejecting calendar-invalid combinations like day 0 or
// month 13. time.Parse with layout "2006-1-2" already accepts both
// padded and unpadded components and rejects invalid calendar dates.
func parseStrictISO(s string) (time.Time, error) {
	return time.Parse("2006-1-2", s)
}
