package series

import (
	"math"

	"ChartFeed/internal/domain/models"
)

const (
	// staleAfterSeconds is the freshness threshold: a series whose last
	// candle is at most two days old is left untouched.
	staleAfterSeconds = 2 * 86400

	// priceTolerance is the minimum relative deviation between the live
	// quote and the stale close before prices get rescaled.
	priceTolerance = 0.005
)

// Reconcile aligns a stale historical series with the live market. When
// the last candle is older than two days relative to now, every candle is
// shifted forward so the series ends at now, and, if a usable live quote
// is supplied, prices are rescaled so the last close matches the quote.
//
// This is a documented charting heuristic, not a correctness guarantee:
// illiquid symbols come back from the provider months stale, and without
// the shift the chart visually disconnects from the live quote. Fresh
// input is returned unchanged (the same slice, not a copy). Volume is
// never touched.
func Reconcile(candles []models.Candle, now int64, quote *models.Quote) []models.Candle {
	if len(candles) == 0 {
		return candles
	}

	last := candles[len(candles)-1]
	gap := now - last.Time
	if gap <= staleAfterSeconds {
		return candles
	}

	multiplier := 1.0
	if quote != nil && quote.Price > 0 {
		m := quote.Price / last.Close
		if math.Abs(m-1) > priceTolerance {
			multiplier = m
		}
	}

	out := make([]models.Candle, len(candles))
	for i, c := range candles {
		out[i] = models.Candle{
			Time:   c.Time + gap,
			Open:   c.Open * multiplier,
			High:   c.High * multiplier,
			Low:    c.Low * multiplier,
			Close:  c.Close * multiplier,
			Volume: c.Volume,
		}
	}
	return out
}
