package series

import (
	"testing"
	"time"

	"ChartFeed/internal/domain/models"
)

func rec(date string, o, h, l, c, v float64) models.RawRecord {
	return models.RawRecord{
		"CH_TIMESTAMP":        date,
		"CH_OPENING_PRICE":    o,
		"CH_TRADE_HIGH_PRICE": h,
		"CH_TRADE_LOW_PRICE":  l,
		"CH_CLOSING_PRICE":    c,
		"CH_TOT_TRADED_QTY":   v,
	}
}

func TestMergeChunksOrdering(t *testing.T) {
	chunks := []models.Chunk{
		{Data: []models.RawRecord{rec("03-Jan-2024", 1, 2, 1, 2, 10), rec("01-Jan-2024", 1, 1, 1, 1, 10)}},
		{Data: []models.RawRecord{rec("02-Jan-2024", 1, 3, 1, 3, 10)}},
	}
	got := MergeChunks(chunks)
	if len(got) != 3 {
		t.Fatalf("expected 3 candles, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Time <= got[i-1].Time {
			t.Fatalf("time not strictly increasing at %d: %d <= %d", i, got[i].Time, got[i-1].Time)
		}
	}
}

func TestMergeChunksDedupLastWriteWins(t *testing.T) {
	chunks := []models.Chunk{
		{Data: []models.RawRecord{rec("02-Jan-2024", 100, 110, 95, 105, 1000)}},
		{Data: []models.RawRecord{rec("02-Jan-2024", 101, 111, 96, 106, 2000)}},
	}
	got := MergeChunks(chunks)
	if len(got) != 1 {
		t.Fatalf("expected 1 candle, got %d", len(got))
	}
	if got[0].Close != 106 || got[0].Volume != 2000 {
		t.Fatalf("expected later chunk to win, got %+v", got[0])
	}
}

func TestMergeChunksDropsUnparseable(t *testing.T) {
	chunks := []models.Chunk{
		{Data: []models.RawRecord{
			rec("02-Jan-2024", 1, 1, 1, 1, 1),
			rec("not a date", 2, 2, 2, 2, 2),
			{"CH_OPENING_PRICE": 3.0}, // no timestamp at all
		}},
	}
	got := MergeChunks(chunks)
	if len(got) != 1 {
		t.Fatalf("expected malformed records dropped, got %d candles", len(got))
	}
}

func TestMergeChunksFieldAliases(t *testing.T) {
	chunks := []models.Chunk{
		{Data: []models.RawRecord{{
			"mtimestamp":     "2024-01-02T00:00:00Z",
			"chOpeningPrice": 10.0,
			"open":           99.0, // lower-priority alias, must lose
			"high":           12.0,
			"low":            9.0,
			"close":          "11.5", // string-typed price is accepted
			"volume":         500.0,
		}}},
	}
	got := MergeChunks(chunks)
	if len(got) != 1 {
		t.Fatalf("expected 1 candle, got %d", len(got))
	}
	c := got[0]
	if c.Open != 10 || c.High != 12 || c.Low != 9 || c.Close != 11.5 || c.Volume != 500 {
		t.Fatalf("alias resolution wrong: %+v", c)
	}
	if c.Time != time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).Unix() {
		t.Fatalf("unexpected time %d", c.Time)
	}
}

func TestMergeChunksIdempotent(t *testing.T) {
	chunks := []models.Chunk{
		{Data: []models.RawRecord{rec("01-Jan-2024", 1, 2, 1, 2, 10), rec("02-Jan-2024", 2, 3, 2, 3, 20)}},
		{Data: []models.RawRecord{rec("02-Jan-2024", 2, 4, 2, 4, 30), rec("03-Jan-2024", 4, 5, 4, 5, 40)}},
	}
	once := MergeChunks(chunks)

	// Re-merge the merged output through the plain aliases.
	again := make([]models.RawRecord, 0, len(once))
	for _, c := range once {
		again = append(again, models.RawRecord{
			"date":   time.Unix(c.Time, 0).UTC().Format("2006-01-02T15:04:05Z"),
			"open":   c.Open,
			"high":   c.High,
			"low":    c.Low,
			"close":  c.Close,
			"volume": c.Volume,
		})
	}
	twice := MergeChunks([]models.Chunk{{Data: again}})

	if len(twice) != len(once) {
		t.Fatalf("re-merge changed length: %d vs %d", len(twice), len(once))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("re-merge changed candle %d: %+v vs %+v", i, once[i], twice[i])
		}
	}
}
