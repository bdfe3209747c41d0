package series

import (
	"time"

	"ChartFeed/internal/domain/models"
	domrepo "ChartFeed/internal/domain/repository"
)

// bucketAccum is the fold state shared by both resampling modes: the key
// of the bucket being filled and the candle aggregated so far.
type bucketAccum struct {
	key    int64
	candle models.Candle
	open   bool
}

// absorb folds one candle into the in-progress bucket.
func (a *bucketAccum) absorb(c models.Candle) {
	if c.High > a.candle.High {
		a.candle.High = c.High
	}
	if c.Low < a.candle.Low {
		a.candle.Low = c.Low
	}
	a.candle.Close = c.Close
	a.candle.Volume += c.Volume
}

// start seeds a fresh bucket from the first candle of a new key.
func (a *bucketAccum) start(key, bucketTime int64, c models.Candle) {
	a.key = key
	a.open = true
	a.candle = models.Candle{
		Time:   bucketTime,
		Open:   c.Open,
		High:   c.High,
		Low:    c.Low,
		Close:  c.Close,
		Volume: c.Volume,
	}
}

// ResampleMinutes aggregates an ascending candle sequence onto a fixed
// minute grid: bucket start is time floored to the grid, OHLCV follows
// first-open/max-high/min-low/last-close/summed-volume. minutes == 1 is
// the identity transform.
func ResampleMinutes(candles []models.Candle, minutes int) []models.Candle {
	if len(candles) == 0 {
		return []models.Candle{}
	}
	if minutes <= 1 {
		return candles
	}

	duration := int64(minutes) * 60
	out := make([]models.Candle, 0, len(candles)/minutes+1)
	var acc bucketAccum

	for _, c := range candles {
		bucketStart := c.Time / duration * duration
		if acc.open && bucketStart != acc.key {
			out = append(out, acc.candle)
			acc.open = false
		}
		if !acc.open {
			acc.start(bucketStart, bucketStart, c)
			continue
		}
		acc.absorb(c)
	}
	if acc.open {
		out = append(out, acc.candle)
	}
	return out
}

// ResampleCalendar aggregates daily candles into weekly or monthly bars.
// Weeks anchor on Monday regardless of locale (Sunday folds back to the
// preceding Monday); months key on (year, month) and emit the 1st of the
// month. 1D is the identity transform.
func ResampleCalendar(candles []models.Candle, res domrepo.Resolution) []models.Candle {
	if len(candles) == 0 {
		return []models.Candle{}
	}
	if res != domrepo.Res1W && res != domrepo.Res1M {
		return candles
	}

	out := make([]models.Candle, 0, len(candles)/5+1)
	var acc bucketAccum

	for _, c := range candles {
		key := calendarKey(c.Time, res)
		if acc.open && key != acc.key {
			out = append(out, acc.candle)
			acc.open = false
		}
		if !acc.open {
			acc.start(key, key, c)
			continue
		}
		acc.absorb(c)
	}
	if acc.open {
		out = append(out, acc.candle)
	}
	return out
}

// calendarKey derives the bucket anchor (also the emitted candle time)
// for a calendar resolution: Monday midnight for weeks, first of the
// month for months, both in UTC.
func calendarKey(ts int64, res domrepo.Resolution) int64 {
	date := time.Unix(ts, 0).UTC()
	if res == domrepo.Res1W {
		back := int(date.Weekday()) - 1 // Monday = 0 days back
		if back < 0 {
			back = 6 // Sunday belongs to the preceding Monday
		}
		monday := time.Date(date.Year(), date.Month(), date.Day()-back, 0, 0, 0, 0, time.UTC)
		return monday.Unix()
	}
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC).Unix()
}
