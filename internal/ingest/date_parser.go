package ingest

import (
	"fmt"
	"strings"
	"time"
)

// raceDateFormats is the closed set of formats sources have been seen to
// use. First match wins; anything else is treated as unknown rather than
// guessed at.
var raceDateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ParseRaceDate parses a raw date string into a date-only time in UTC.
// API payloads frequently carry an ISO timestamp; the time-of-day part
// is discarded because the registry only compares calendar dates.
func ParseRaceDate(text string) (time.Time, error) {
	text = cleanText(text)
	if text == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return toDateOnly(t), nil
	}
	// Timestamp without zone, e.g. "2024-10-20T00:00:00"
	if idx := strings.IndexByte(text, 'T'); idx == 10 {
		if t, err := time.Parse("2006-01-02", text[:10]); err == nil {
			return toDateOnly(t), nil
		}
	}

	for _, format := range raceDateFormats {
		if t, err := time.Parse(format, text); err == nil {
			return toDateOnly(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", text)
}

// toDateOnly truncates a time to midnight UTC.
func toDateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
