// Package timeutil parses the loosely formatted timestamps that arrive from
// upstream systems and reporting UIs.
package timeutil

import (
	"strconv"
	"strings"
	"time"
)

var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"01/2006",
	"January 2006",
	"Jan 2006",
}

// Parse accepts RFC 3339 (including a bare Z suffix), date-only forms, bare
// month+year ("February 2025", "2025-02", "02/2025") and epoch seconds.
// On total failure it falls back to the start of today in UTC.
func Parse(raw string) time.Time {
	parsed, ok := tryParse(raw)
	if !ok {
		return StartOfDay(time.Now().UTC())
	}
	return parsed
}

// TryParse is Parse without the today fallback.
func TryParse(raw string) (time.Time, bool) {
	return tryParse(raw)
}

func tryParse(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), true
		}
	}

	// epoch seconds
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0).UTC(), true
	}

	return time.Time{}, false
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthWindow returns the first instant of t's month and of the next month.
func MonthWindow(t time.Time) (time.Time, time.Time) {
	y, m, _ := t.UTC().Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
