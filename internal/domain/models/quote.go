package models

// Quote is a single live snapshot for a symbol, as shown in the watchlist
// and used as the reference price during staleness reconciliation.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	PreviousClose float64 `json:"previousClose"`
	Open          float64 `json:"open"`
	Close         float64 `json:"close"`
	Volume        float64 `json:"volume"`
	Time          int64   `json:"time"`
}

// LiveUpdate is a forming candle synthesized from a quote snapshot. It is
// the unit flowing through the realtime leg (stream -> pipeline -> backend).
type LiveUpdate struct {
	Symbol string
	Candle Candle
}

// UpdateFromQuote builds the forming candle a chart appends on each poll:
// open stays at the session open, high/low bracket open and last price.
func UpdateFromQuote(q *Quote) *LiveUpdate {
	high := q.Open
	if q.Price > high {
		high = q.Price
	}
	low := q.Open
	if q.Price < low {
		low = q.Price
	}
	return &LiveUpdate{
		Symbol: q.Symbol,
		Candle: Candle{
			Time:   q.Time,
			Open:   q.Open,
			High:   high,
			Low:    low,
			Close:  q.Price,
			Volume: q.Volume,
		},
	}
}
