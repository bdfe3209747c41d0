package stream

import (
	"context"
	"sync"
	"testing"
	"time"

	"ChartFeed/internal/domain/models"
)

type scriptedQuotes struct {
	mu   sync.Mutex
	time int64
}

func (s *scriptedQuotes) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &models.Quote{Symbol: symbol, Price: 100, Open: 99, Time: s.time}, nil
}

func (s *scriptedQuotes) advance() {
	s.mu.Lock()
	s.time++
	s.mu.Unlock()
}

func recv(t *testing.T, ch <-chan *models.LiveUpdate) *models.LiveUpdate {
	t.Helper()
	select {
	case u := <-ch:
		return u
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for update")
		return nil
	}
}

func TestPollerEmitsOncePerProviderTick(t *testing.T) {
	q := &scriptedQuotes{time: 1700000000}
	p := NewPoller(q, []string{"RELIANCE"}, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := p.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	updates, _ := p.Read(ctx)

	first := recv(t, updates)
	if first.Symbol != "RELIANCE" || first.Candle.Time != 1700000000 {
		t.Fatalf("unexpected first update %+v", first)
	}

	// provider time advances, a new update must come through
	q.advance()
	second := recv(t, updates)
	if second.Candle.Time != 1700000001 {
		t.Fatalf("expected update for advanced tick, got %+v", second)
	}

	// without advancement the channel stays quiet
	select {
	case u := <-updates:
		t.Fatalf("unexpected duplicate update %+v", u)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPollerCloseStopsLoop(t *testing.T) {
	q := &scriptedQuotes{time: 1}
	p := NewPoller(q, []string{"TCS"}, 10*time.Millisecond)

	ctx := context.Background()
	_, _ = p.Read(ctx)
	if !p.IsConnected() {
		t.Fatalf("expected running poller")
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if p.IsConnected() {
		t.Fatalf("expected stopped poller")
	}
}

func TestPollerSynthesizesFormingCandle(t *testing.T) {
	u := models.UpdateFromQuote(&models.Quote{Symbol: "INFY", Price: 105, Open: 100, Volume: 7, Time: 42})
	c := u.Candle
	if c.Open != 100 || c.Close != 105 || c.High != 105 || c.Low != 100 {
		t.Fatalf("unexpected forming candle %+v", c)
	}
	if c.Volume != 7 || c.Time != 42 {
		t.Fatalf("unexpected volume/time %+v", c)
	}
}
