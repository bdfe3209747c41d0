package repository

import (
	"context"
	"time"

	"ChartFeed/internal/domain/models"
)

// HistoryProvider supplies raw historical candle chunks for a symbol.
// Chunks are returned in logical range order (oldest first) so that the
// merge step's last-write-wins rule favors the most recent range.
type HistoryProvider interface {
	FetchHistory(ctx context.Context, symbol string) ([]models.Chunk, error)
	FetchIntraday(ctx context.Context, symbol string) ([]models.Chunk, error)
}

// QuoteProvider supplies live quote snapshots.
type QuoteProvider interface {
	FetchQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// SymbolDirectory lists tradable symbols and market session state.
type SymbolDirectory interface {
	FetchSymbols(ctx context.Context) ([]string, error)
	FetchMarketStatus(ctx context.Context) (map[string]any, error)
}

// QuoteStream is a push source of live updates (websocket or poller).
type QuoteStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.LiveUpdate, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher fans live updates out to the message bus.
type Publisher interface {
	Publish(ctx context.Context, u *models.LiveUpdate) error
	PublishBatch(ctx context.Context, updates []*models.LiveUpdate) error
	Close() error
}

// Archive persists live updates as candles and serves them back ascending.
type Archive interface {
	Store(ctx context.Context, u *models.LiveUpdate) error
	StoreBatch(ctx context.Context, updates []*models.LiveUpdate) error
	Candles(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.Candle, error)
	Health(ctx context.Context) error
	Close() error
}

// Metrics records operational counters for the service.
type Metrics interface {
	RecordUpdateSent(backend, symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordChartServed(resolution string)
}
