package indicator

import "ChartFeed/internal/domain/models"

// RSI computes the Relative Strength Index using Wilder's smoothing.
// Seed averages come from the simple mean of gains and losses over
// indices 1..period; the recurrence then runs from index period+1, which
// is also where the first point is emitted, one candle later than the
// textbook placement, kept for compatibility with reference output.
// A window with no losses yields exactly 100. Input with length <= period
// produces an empty series.
func RSI(data []models.Candle, period int) []models.IndicatorPoint {
	out := make([]models.IndicatorPoint, 0, len(data))
	if period <= 0 || len(data) <= period {
		return out
	}

	gain, loss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		change := data[i].Close - data[i-1].Close
		if change > 0 {
			gain += change
		} else {
			loss -= change
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)

	p := float64(period)
	for i := period + 1; i < len(data); i++ {
		change := data[i].Close - data[i-1].Close
		currentGain, currentLoss := 0.0, 0.0
		if change > 0 {
			currentGain = change
		} else {
			currentLoss = -change
		}

		avgGain = (avgGain*(p-1) + currentGain) / p
		avgLoss = (avgLoss*(p-1) + currentLoss) / p

		value := 100.0
		if avgLoss != 0 {
			rs := avgGain / avgLoss
			value = 100.0 - 100.0/(1.0+rs)
		}
		out = append(out, models.IndicatorPoint{Time: data[i].Time, Value: value})
	}
	return out
}
