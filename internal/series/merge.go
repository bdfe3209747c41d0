package series

import (
	"sort"
	"strconv"

	"ChartFeed/internal/domain/models"
)

// Alias tables for provider field names, ordered by preference. The three
// historical endpoints disagree on casing (camelCase vs upper snake vs
// plain), so each semantic field is resolved against a fixed candidate
// list, first present-and-truthy key wins.
var (
	timeKeys   = []string{"mtimestamp", "date", "CH_TIMESTAMP"}
	openKeys   = []string{"chOpeningPrice", "CH_OPENING_PRICE", "open"}
	highKeys   = []string{"chTradeHighPrice", "CH_TRADE_HIGH_PRICE", "high"}
	lowKeys    = []string{"chTradeLowPrice", "CH_TRADE_LOW_PRICE", "low"}
	closeKeys  = []string{"chClosingPrice", "CH_CLOSING_PRICE", "close"}
	volumeKeys = []string{"chTotTradedQty", "CH_TOT_TRADED_QTY", "volume"}
)

// MergeChunks flattens overlapping historical chunks into one ascending,
// unique-timestamp candle sequence. Collisions are last-write-wins, so a
// day reported by two adjacent range queries resolves to the chunk the
// caller supplied later; the provider client orders chunks oldest-range
// first for exactly this reason. Records whose timestamp cannot be
// resolved are dropped.
func MergeChunks(chunks []models.Chunk) []models.Candle {
	byTime := make(map[int64]models.Candle)
	for _, chunk := range chunks {
		for _, rec := range chunk.Data {
			ts := ParseTimestamp(pickString(rec, timeKeys))
			if ts == 0 {
				continue
			}
			byTime[ts] = models.Candle{
				Time:   ts,
				Open:   pickNumber(rec, openKeys),
				High:   pickNumber(rec, highKeys),
				Low:    pickNumber(rec, lowKeys),
				Close:  pickNumber(rec, closeKeys),
				Volume: pickNumber(rec, volumeKeys),
			}
		}
	}

	out := make([]models.Candle, 0, len(byTime))
	for _, c := range byTime {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// pickString returns the first non-empty string value among keys.
func pickString(rec models.RawRecord, keys []string) string {
	for _, k := range keys {
		switch v := rec[k].(type) {
		case string:
			if v != "" {
				return v
			}
		}
	}
	return ""
}

// pickNumber returns the first non-zero numeric value among keys.
// Providers emit prices as JSON numbers or as strings, both are accepted.
func pickNumber(rec models.RawRecord, keys []string) float64 {
	for _, k := range keys {
		switch v := rec[k].(type) {
		case float64:
			if v != 0 {
				return v
			}
		case int:
			if v != 0 {
				return float64(v)
			}
		case int64:
			if v != 0 {
				return float64(v)
			}
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil && f != 0 {
				return f
			}
		}
	}
	return 0
}
