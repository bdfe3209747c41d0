package series

import (
	"testing"
	"time"

	"ChartFeed/internal/domain/models"
	domrepo "ChartFeed/internal/domain/repository"
)

func minuteCandles(closes ...float64) []models.Candle {
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{
			Time:   int64(i * 60),
			Open:   c,
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
			Volume: 10,
		}
	}
	return out
}

func TestResampleMinutesSingleBucket(t *testing.T) {
	got := ResampleMinutes(minuteCandles(1, 2, 3, 4, 5), 5)
	if len(got) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(got))
	}
	c := got[0]
	if c.Time != 0 || c.Open != 1 || c.Close != 5 {
		t.Fatalf("wrong aggregation: %+v", c)
	}
	if c.High != 5.5 || c.Low != 0.5 {
		t.Fatalf("wrong high/low: %+v", c)
	}
	if c.Volume != 50 {
		t.Fatalf("volume must sum, got %f", c.Volume)
	}
}

func TestResampleMinutesBucketBoundary(t *testing.T) {
	got := ResampleMinutes(minuteCandles(1, 2, 3, 4, 5, 6, 7), 5)
	if len(got) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(got))
	}
	if got[1].Time != 300 || got[1].Open != 6 || got[1].Close != 7 {
		t.Fatalf("trailing bucket wrong: %+v", got[1])
	}
}

func TestResampleMinutesIdentity(t *testing.T) {
	in := minuteCandles(1, 2, 3)
	got := ResampleMinutes(in, 1)
	if len(got) != 3 {
		t.Fatalf("1-minute resample must be a no-op")
	}
	for i := range in {
		if got[i] != in[i] {
			t.Fatalf("candle %d changed: %+v", i, got[i])
		}
	}
}

func day(y int, m time.Month, d int) int64 {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()
}

func TestResampleCalendarWeekly(t *testing.T) {
	// Mon Jan 1 2024 .. Mon Jan 8 2024; the Sunday belongs to week one.
	in := []models.Candle{
		{Time: day(2024, 1, 1), Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
		{Time: day(2024, 1, 2), Open: 2, High: 5, Low: 0.5, Close: 2, Volume: 1},
		{Time: day(2024, 1, 7), Open: 3, High: 3, Low: 3, Close: 3, Volume: 1}, // Sunday
		{Time: day(2024, 1, 8), Open: 4, High: 4, Low: 4, Close: 4, Volume: 1}, // next Monday
	}
	got := ResampleCalendar(in, domrepo.Res1W)
	if len(got) != 2 {
		t.Fatalf("expected 2 weeks, got %d", len(got))
	}
	if got[0].Time != day(2024, 1, 1) {
		t.Fatalf("week must anchor on Monday, got %d", got[0].Time)
	}
	if got[0].Open != 1 || got[0].Close != 3 || got[0].High != 5 || got[0].Low != 0.5 || got[0].Volume != 3 {
		t.Fatalf("week aggregation wrong: %+v", got[0])
	}
	if got[1].Time != day(2024, 1, 8) {
		t.Fatalf("second week anchor wrong: %d", got[1].Time)
	}
}

func TestResampleCalendarSundayFoldsBack(t *testing.T) {
	in := []models.Candle{{Time: day(2024, 1, 7), Open: 1, High: 1, Low: 1, Close: 1}}
	got := ResampleCalendar(in, domrepo.Res1W)
	if len(got) != 1 || got[0].Time != day(2024, 1, 1) {
		t.Fatalf("Sunday must map to the preceding Monday, got %+v", got)
	}
}

func TestResampleCalendarMonthly(t *testing.T) {
	in := []models.Candle{
		{Time: day(2024, 1, 5), Open: 10, High: 12, Low: 9, Close: 11, Volume: 1},
		{Time: day(2024, 1, 20), Open: 11, High: 15, Low: 10, Close: 14, Volume: 2},
		{Time: day(2024, 2, 3), Open: 14, High: 14, Low: 13, Close: 13, Volume: 3},
	}
	got := ResampleCalendar(in, domrepo.Res1M)
	if len(got) != 2 {
		t.Fatalf("expected 2 months, got %d", len(got))
	}
	if got[0].Time != day(2024, 1, 1) || got[1].Time != day(2024, 2, 1) {
		t.Fatalf("month buckets must emit the 1st: %d, %d", got[0].Time, got[1].Time)
	}
	if got[0].Open != 10 || got[0].Close != 14 || got[0].High != 15 || got[0].Low != 9 || got[0].Volume != 3 {
		t.Fatalf("month aggregation wrong: %+v", got[0])
	}
}

func TestResampleCalendarDailyIdentity(t *testing.T) {
	in := []models.Candle{{Time: day(2024, 1, 5), Close: 1}, {Time: day(2024, 1, 8), Close: 2}}
	got := ResampleCalendar(in, domrepo.Res1D)
	if len(got) != 2 || got[0] != in[0] || got[1] != in[1] {
		t.Fatalf("1D must pass through unchanged")
	}
}

func TestResampleAscendingOutput(t *testing.T) {
	in := minuteCandles(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)
	got := ResampleMinutes(in, 5)
	for i := 1; i < len(got); i++ {
		if got[i].Time <= got[i-1].Time {
			t.Fatalf("output not ascending at %d", i)
		}
	}
}
