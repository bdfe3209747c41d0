package stream

import (
	"context"
	"sync"
	"time"

	"ChartFeed/internal/domain/models"
	drepo "ChartFeed/internal/domain/repository"
)

// Poller implements a QuoteStream on top of a snapshot-only provider by
// polling each subscribed symbol on a fixed interval. Quotes whose time
// did not advance since the previous poll are suppressed so downstream
// sees one update per provider tick, like a push feed.
type Poller struct {
	provider drepo.QuoteProvider
	symbols  []string
	interval time.Duration

	mu       sync.Mutex
	lastSeen map[string]int64
	running  bool
	cancel   context.CancelFunc
}

// NewPoller creates a polling QuoteStream.
func NewPoller(provider drepo.QuoteProvider, symbols []string, interval time.Duration) drepo.QuoteStream {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		provider: provider,
		symbols:  symbols,
		interval: interval,
		lastSeen: make(map[string]int64),
	}
}

// Connect is a no-op; the poller has no connection to establish.
func (p *Poller) Connect(ctx context.Context) error { return nil }

// Subscribe is a no-op; symbols are fixed at construction.
func (p *Poller) Subscribe(ctx context.Context) error { return nil }

// Read launches the poll loop and streams updates.
func (p *Poller) Read(ctx context.Context) (<-chan *models.LiveUpdate, <-chan error) {
	updates := make(chan *models.LiveUpdate, 256)
	errs := make(chan error, 1)

	pollCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.running = true
	p.cancel = cancel
	p.mu.Unlock()

	go func() {
		defer close(updates)
		defer close(errs)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.pollOnce(pollCtx, updates)
		for {
			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
				p.pollOnce(pollCtx, updates)
			}
		}
	}()

	return updates, errs
}

func (p *Poller) pollOnce(ctx context.Context, updates chan<- *models.LiveUpdate) {
	for _, symbol := range p.symbols {
		q, err := p.provider.FetchQuote(ctx, symbol)
		if err != nil || q == nil || q.Time <= 0 {
			// degraded poll; next tick retries
			continue
		}

		p.mu.Lock()
		stale := p.lastSeen[symbol] == q.Time
		if !stale {
			p.lastSeen[symbol] = q.Time
		}
		p.mu.Unlock()
		if stale {
			continue
		}

		select {
		case updates <- models.UpdateFromQuote(q):
		default:
			// drop on backpressure
		}
	}
}

// Reconnect is a no-op for the poller.
func (p *Poller) Reconnect(ctx context.Context) error { return nil }

// Close stops the poll loop.
func (p *Poller) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
	p.running = false
	return nil
}

// IsConnected reports whether the poll loop is running.
func (p *Poller) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
