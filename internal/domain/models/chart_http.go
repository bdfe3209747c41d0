package models

// Requests for the chart HTTP endpoints. Defined in domain for consistency and reuse.

type ChartRequest struct {
	Symbol     string `param:"symbol" json:"symbol" validate:"required"`
	Resolution string `query:"resolution" json:"resolution" default:"1D" validate:"oneof=1D 1W 1M 1m 5m 15m 60m"`
}

type QuoteRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required"`
}

type IndicatorRequest struct {
	Symbol     string  `param:"symbol" json:"symbol" validate:"required"`
	Kind       string  `query:"kind" json:"kind" validate:"required,oneof=sma ema bb rsi"`
	Resolution string  `query:"resolution" json:"resolution" default:"1D" validate:"oneof=1D 1W 1M 1m 5m 15m 60m"`
	Period     int     `query:"period" json:"period" default:"20" validate:"gte=2,lte=500"`
	Multiplier float64 `query:"multiplier" json:"multiplier" default:"2" validate:"gt=0,lte=10"`
}

type WatchlistRequest struct {
	Symbols string `query:"symbols" json:"symbols"` // comma separated; empty means the configured default list
}
