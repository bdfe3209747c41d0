package models

// Candle is one OHLCV bar on a fixed time bucket. Time is epoch seconds.
// Candles are value records: pipeline stages build new slices, they never
// mutate their input.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// IndicatorPoint is one value of a computed indicator series, aligned to
// the time of a candle in the input it was derived from.
type IndicatorPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// RawRecord is a provider-shaped historical record before normalization.
// Field names vary per endpoint (camelCase, upper snake case, or plain);
// the merge step resolves aliases and drops records it cannot time-stamp.
type RawRecord map[string]any

// Chunk is one historical query response. The provider client returns
// chunks in logical range order (oldest first) regardless of which
// request finished first.
type Chunk struct {
	Data []RawRecord `json:"data"`
}
