package utils

import (
	"strings"
	"time"
)

const (
	layoutDate     = "2006-01-02"
	layoutDateTime = "2006-01-02 15:04:05"
)

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ParseDate parses YYYY-MM-DD, also accepting RFC3339 timestamps as sent by browsers.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(layoutDate, s, time.UTC); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// FormatDate formats time to YYYY-MM-DD in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(layoutDate)
}

// FormatDateTime formats time to "YYYY-MM-DD HH:MM:SS" in UTC.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format(layoutDateTime)
}

// WholeYearsBetween counts complete calendar years from start to now.
func WholeYearsBetween(start, now time.Time) int {
	start, now = start.UTC(), now.UTC()
	if now.Before(start) {
		return 0
	}
	years := now.Year() - start.Year()
	anniversary := start.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}
