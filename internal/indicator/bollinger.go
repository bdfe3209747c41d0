package indicator

import (
	"math"

	"ChartFeed/internal/domain/models"
)

// Bands holds the three Bollinger series. All three are aligned: the i-th
// point of each band shares its time with the others.
type Bands struct {
	Upper  []models.IndicatorPoint `json:"upper"`
	Middle []models.IndicatorPoint `json:"middle"`
	Lower  []models.IndicatorPoint `json:"lower"`
}

// BollingerBands computes middle = SMA(period), with upper/lower offset by
// multiplier times the population standard deviation of closes over the
// same trailing window (divide by period, not period-1). Warm-up matches
// SMA: first point at index period-1.
func BollingerBands(data []models.Candle, period int, multiplier float64) Bands {
	b := Bands{
		Upper:  make([]models.IndicatorPoint, 0, len(data)),
		Middle: make([]models.IndicatorPoint, 0, len(data)),
		Lower:  make([]models.IndicatorPoint, 0, len(data)),
	}
	if period <= 0 {
		return b
	}

	for i := period - 1; i < len(data); i++ {
		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			sum += data[j].Close
		}
		mean := sum / float64(period)

		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := data[j].Close - mean
			variance += d * d
		}
		stdDev := math.Sqrt(variance / float64(period))

		t := data[i].Time
		b.Middle = append(b.Middle, models.IndicatorPoint{Time: t, Value: mean})
		b.Upper = append(b.Upper, models.IndicatorPoint{Time: t, Value: mean + multiplier*stdDev})
		b.Lower = append(b.Lower, models.IndicatorPoint{Time: t, Value: mean - multiplier*stdDev})
	}
	return b
}
