package usecase

import (
	"context"
	"fmt"

	"ChartFeed/internal/domain/models"
	domrepo "ChartFeed/internal/domain/repository"
	"ChartFeed/internal/indicator"
)

// IndicatorUseCase computes indicator series over chart output.
type IndicatorUseCase struct {
	charts *ChartUseCase
}

func NewIndicatorUseCase(charts *ChartUseCase) *IndicatorUseCase {
	return &IndicatorUseCase{charts: charts}
}

type GetIndicatorParams struct {
	Symbol     string
	Resolution domrepo.Resolution
	Kind       string // sma, ema, bb, rsi
	Period     int
	Multiplier float64 // bollinger only
}

type GetIndicatorResult struct {
	Symbol     string                  `json:"symbol"`
	Resolution string                  `json:"resolution"`
	Kind       string                  `json:"kind"`
	Period     int                     `json:"period"`
	Points     []models.IndicatorPoint `json:"points,omitempty"`
	Bands      *indicator.Bands        `json:"bands,omitempty"`
}

// GetIndicator fetches the chart series and computes the requested
// indicator over it. Too few candles yields empty output, not an error.
func (uc *IndicatorUseCase) GetIndicator(ctx context.Context, p GetIndicatorParams) (*GetIndicatorResult, error) {
	if p.Period <= 0 {
		p.Period = 20
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2
	}

	chart, err := uc.charts.GetChart(ctx, GetChartParams{Symbol: p.Symbol, Resolution: p.Resolution})
	if err != nil {
		return nil, fmt.Errorf("indicator chart: %w", err)
	}

	res := &GetIndicatorResult{
		Symbol:     p.Symbol,
		Resolution: string(p.Resolution),
		Kind:       p.Kind,
		Period:     p.Period,
	}
	switch p.Kind {
	case "sma":
		res.Points = indicator.SMA(chart.Candles, p.Period)
	case "ema":
		res.Points = indicator.EMA(chart.Candles, p.Period)
	case "rsi":
		res.Points = indicator.RSI(chart.Candles, p.Period)
	case "bb":
		bands := indicator.BollingerBands(chart.Candles, p.Period, p.Multiplier)
		res.Bands = &bands
	default:
		return nil, fmt.Errorf("unknown indicator: %s", p.Kind)
	}
	return res, nil
}
