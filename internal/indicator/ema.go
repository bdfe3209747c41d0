package indicator

import "ChartFeed/internal/domain/models"

// EMA computes the exponential moving average of closes with smoothing
// constant k = 2/(period+1). The series is seeded with the first close
// rather than an initial SMA, and emits one point per input candle with
// no warm-up skip. That seed is a deliberate compatibility choice with
// the charting frontend; keep it even though an SMA seed converges faster.
func EMA(data []models.Candle, period int) []models.IndicatorPoint {
	out := make([]models.IndicatorPoint, 0, len(data))
	if len(data) == 0 || period <= 0 {
		return out
	}

	k := 2.0 / float64(period+1)
	prev := data[0].Close
	for _, c := range data {
		value := c.Close*k + prev*(1-k)
		out = append(out, models.IndicatorPoint{Time: c.Time, Value: value})
		prev = value
	}
	return out
}
