package util

import (
	"strconv"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// AlignFromTo truncates the time range onto the minute grid of the
// resolution token ("1m", "5m", "15m", "60m"); anything else aligns to
// whole minutes.
func AlignFromTo(from, to time.Time, res string) (time.Time, time.Time) {
	step := time.Minute
	switch res {
	case "5m":
		step = 5 * time.Minute
	case "15m":
		step = 15 * time.Minute
	case "60m":
		step = time.Hour
	}
	return from.Truncate(step), to.Truncate(step)
}
