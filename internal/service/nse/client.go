// Package nse implements the exchange data provider client: chunked
// historical queries, live quotes, the symbol directory and market status.
// It owns no candle semantics; raw payloads go straight to the merge step.
package nse

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ChartFeed/internal/domain/models"
	"ChartFeed/internal/series"
	"ChartFeed/internal/service/ratelimit"
	xhttp "ChartFeed/pkg/http"
)

// Client talks to the NSE-style JSON API.
type Client struct {
	baseURL       string
	historyMonths int
	chunkMonths   int
	client        *xhttp.Client
	limiter       *ratelimit.Limiter
	rateCapacity  float64
	rateRefill    float64
	now           func() time.Time
}

// Option configures the Client.
type Option func(*Client)

// WithHistoryWindow sets how far back history reaches and the width of
// each range query.
func WithHistoryWindow(historyMonths, chunkMonths int) Option {
	return func(c *Client) {
		if historyMonths > 0 {
			c.historyMonths = historyMonths
		}
		if chunkMonths > 0 {
			c.chunkMonths = chunkMonths
		}
	}
}

// WithTimeout sets the outbound request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.client = xhttp.NewClient(xhttp.WithTimeout(timeout))
		}
	}
}

// WithRate sets the outbound token bucket. The exchange throttles
// aggressively, so defaults stay conservative.
func WithRate(capacity, refillPerSec float64) Option {
	return func(c *Client) {
		if capacity > 0 && refillPerSec > 0 {
			c.rateCapacity = capacity
			c.rateRefill = refillPerSec
		}
	}
}

// New creates a provider client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:       baseURL,
		historyMonths: 24,
		chunkMonths:   3,
		client:        xhttp.NewClient(xhttp.WithTimeout(15 * time.Second)),
		limiter:       ratelimit.New(),
		rateCapacity:  8,
		rateRefill:    4,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchHistory fetches daily history in fixed-width range chunks fired
// concurrently. Chunks come back in logical range order, oldest first,
// regardless of which request completed first: the merge step resolves
// overlap collisions last-write-wins, so the most recent range must be
// supplied last.
func (c *Client) FetchHistory(ctx context.Context, symbol string) ([]models.Chunk, error) {
	type window struct{ start, end time.Time }
	now := c.now()

	var windows []window
	for i := 0; i < c.historyMonths; i += c.chunkMonths {
		windows = append(windows, window{
			start: now.AddDate(0, -(i + c.chunkMonths), 0),
			end:   now.AddDate(0, -i, 0),
		})
	}

	chunks := make([]models.Chunk, len(windows))
	errs := make([]error, len(windows))
	var wg sync.WaitGroup
	for i, w := range windows {
		wg.Add(1)
		go func(i int, w window) {
			defer wg.Done()
			chunk, err := c.fetchRange(ctx, symbol, w.start, w.end)
			if err != nil {
				errs[i] = err
				return
			}
			chunks[i] = chunk
		}(i, w)
	}
	wg.Wait()

	// A failed window degrades to a gap; only total failure is an error.
	ok := 0
	for i := range errs {
		if errs[i] == nil {
			ok++
		}
	}
	if ok == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("history %s: %w", symbol, errs[0])
	}

	// windows[0] is the newest range; reverse so the newest merges last.
	ordered := make([]models.Chunk, 0, len(chunks))
	for i := len(chunks) - 1; i >= 0; i-- {
		if errs[i] == nil {
			ordered = append(ordered, chunks[i])
		}
	}
	return ordered, nil
}

func (c *Client) fetchRange(ctx context.Context, symbol string, start, end time.Time) (models.Chunk, error) {
	if err := c.waitTurn(ctx); err != nil {
		return models.Chunk{}, err
	}
	var resp []models.Chunk
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/api/historical/cm/equity",
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"from":   {start.Format("02-01-2006")},
			"to":     {end.Format("02-01-2006")},
		},
	}, &resp)
	if err != nil {
		return models.Chunk{}, fmt.Errorf("range %s..%s: %w", start.Format("02-01-2006"), end.Format("02-01-2006"), err)
	}

	// The endpoint wraps records as [{data: [...]}]; flatten defensively
	// in case it ever returns more than one envelope.
	var out models.Chunk
	for _, ch := range resp {
		out.Data = append(out.Data, ch.Data...)
	}
	return out, nil
}

// FetchIntraday fetches the current session's minute records.
func (c *Client) FetchIntraday(ctx context.Context, symbol string) ([]models.Chunk, error) {
	if err := c.waitTurn(ctx); err != nil {
		return nil, err
	}
	var resp []models.Chunk
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/api/intraday/equity",
		QueryParams: map[string][]string{"symbol": {symbol}},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("intraday %s: %w", symbol, err)
	}
	return resp, nil
}

// quotePayload mirrors the provider's equity details response.
type quotePayload struct {
	PriceInfo struct {
		LastPrice     float64 `json:"lastPrice"`
		Change        float64 `json:"change"`
		PChange       float64 `json:"pChange"`
		PreviousClose float64 `json:"previousClose"`
		Open          float64 `json:"open"`
	} `json:"priceInfo"`
	Metadata struct {
		Symbol         string `json:"symbol"`
		LastUpdateTime string `json:"lastUpdateTime"`
	} `json:"metadata"`
}

// FetchQuote fetches a live quote snapshot. An unparseable update time
// falls back to wall clock so the quote stays usable for reconciliation.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if err := c.waitTurn(ctx); err != nil {
		return nil, err
	}
	var payload quotePayload
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/api/quote-equity",
		QueryParams: map[string][]string{"symbol": {symbol}},
	}, &payload)
	if err != nil {
		return nil, fmt.Errorf("quote %s: %w", symbol, err)
	}

	ts := series.ParseTimestamp(payload.Metadata.LastUpdateTime)
	if ts == 0 {
		ts = c.now().Unix()
	}
	name := payload.Metadata.Symbol
	if name == "" {
		name = symbol
	}
	return &models.Quote{
		Symbol:        name,
		Price:         payload.PriceInfo.LastPrice,
		Change:        payload.PriceInfo.Change,
		ChangePercent: payload.PriceInfo.PChange,
		PreviousClose: payload.PriceInfo.PreviousClose,
		Open:          payload.PriceInfo.Open,
		Close:         payload.PriceInfo.LastPrice,
		Time:          ts,
	}, nil
}

// FetchSymbols lists all tradable symbols.
func (c *Client) FetchSymbols(ctx context.Context) ([]string, error) {
	if err := c.waitTurn(ctx); err != nil {
		return nil, err
	}
	var symbols []string
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/api/allSymbols",
	}, &symbols)
	if err != nil {
		return nil, fmt.Errorf("symbols: %w", err)
	}
	return symbols, nil
}

// FetchMarketStatus returns the exchange session state as-is.
func (c *Client) FetchMarketStatus(ctx context.Context) (map[string]any, error) {
	if err := c.waitTurn(ctx); err != nil {
		return nil, err
	}
	var status map[string]any
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/api/marketStatus",
	}, &status)
	if err != nil {
		return nil, fmt.Errorf("market status: %w", err)
	}
	return status, nil
}

// waitTurn blocks until the outbound token bucket admits a call.
func (c *Client) waitTurn(ctx context.Context) error {
	for !c.limiter.Allow("provider", c.rateCapacity, c.rateRefill) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	return nil
}
