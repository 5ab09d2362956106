package util

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const DateKeyLayout = "2006-01-02"

var layouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	DateKeyLayout,
	"02-01-2006",
}

// ParseTime tries the common layouts and unix seconds or milliseconds. Returns (t, true) if any worked.
// Times without a zone are taken as UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return ParseUnix(f)
	}
	return time.Time{}, false
}

// ParseUnix interprets n as unix seconds, or milliseconds when it is too large to be seconds.
func ParseUnix(n float64) (time.Time, bool) {
	if n <= 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return time.Time{}, false
	}
	if n >= 1e11 {
		ms := int64(n)
		return time.UnixMilli(ms).UTC(), true
	}
	sec, frac := math.Modf(n)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
}

// DateKey formats t as a UTC calendar-day key.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateKeyLayout)
}

// MonthPrefix returns the YYYY-MM prefix shared by every date key of t's UTC month.
func MonthPrefix(t time.Time) string {
	return t.UTC().Format("2006-01")
}
