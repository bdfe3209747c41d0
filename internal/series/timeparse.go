// Package series implements the candle normalization pipeline: timestamp
// parsing, chunk merge, staleness reconciliation and resampling. Every
// function here is pure and synchronous; malformed input degrades to
// dropped records or empty output, never to an error.
package series

import (
	"strconv"
	"strings"
	"time"
)

// months maps the provider's three-letter abbreviations. This fast path
// matches case-sensitively ("Jan".."Dec", what the upstream emits); other
// casings still parse through the lenient fallback layouts below.
var months = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

// fallbackLayouts covers the formats the provider mixes into quote and
// metadata fields, e.g. "30-Jan-2026 16:00:00".
var fallbackLayouts = []string{
	"02-Jan-2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
}

// ParseTimestamp normalizes a provider date string to epoch seconds.
// It is total: unparseable or empty input yields 0, which callers treat
// as "unknown time" and exclude from the merged series.
func ParseTimestamp(raw string) int64 {
	if raw == "" {
		return 0
	}

	// ISO-8601 carries a 'T' separator.
	if strings.Contains(raw, "T") {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t.Unix()
		}
		if t, err := time.ParseInLocation("2006-01-02T15:04:05", raw, time.UTC); err == nil {
			return t.Unix()
		}
		return 0
	}

	// "DD-Mon-YYYY", split on hyphen or space.
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == '-' || r == ' ' })
	if len(parts) == 3 {
		day, dayErr := strconv.Atoi(parts[0])
		year, yearErr := strconv.Atoi(parts[2])
		if month, ok := months[parts[1]]; ok && dayErr == nil && yearErr == nil {
			return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Unix()
		}
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.Unix()
		}
	}
	return 0
}
