// Package indicator computes technical indicator series over ascending
// candle sequences. Every function is pure: input is never mutated, and
// insufficient data yields an empty series rather than an error.
package indicator

import "ChartFeed/internal/domain/models"

// SMA computes the simple moving average of closes over a trailing window.
// The first point is emitted at index period-1; shorter input produces an
// empty series.
func SMA(data []models.Candle, period int) []models.IndicatorPoint {
	out := make([]models.IndicatorPoint, 0, len(data))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(data); i++ {
		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			sum += data[j].Close
		}
		out = append(out, models.IndicatorPoint{Time: data[i].Time, Value: sum / float64(period)})
	}
	return out
}
