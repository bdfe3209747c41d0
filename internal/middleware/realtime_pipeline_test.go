package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ChartFeed/internal/domain/models"
)

type nopMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newNopMetrics() *nopMetrics { return &nopMetrics{errors: make(map[string]int)} }

func (m *nopMetrics) RecordUpdateSent(backend, symbol string)  {}
func (m *nopMetrics) RecordLastPrice(symbol string, p float64) {}
func (m *nopMetrics) RecordLatency(op string, s float64)       {}
func (m *nopMetrics) RecordChartServed(resolution string)      {}
func (m *nopMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

type recordingProc struct {
	mu    sync.Mutex
	seen  []*models.LiveUpdate
	err   error
}

func (p *recordingProc) Process(ctx context.Context, u *models.LiveUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.seen = append(p.seen, u)
	return nil
}

func update(symbol string, ts int64) *models.LiveUpdate {
	return &models.LiveUpdate{
		Symbol: symbol,
		Candle: models.Candle{Time: ts, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 10},
	}
}

func TestPipelineRejectsInvalidUpdates(t *testing.T) {
	proc := &recordingProc{}
	p := NewRealtimePipeline(proc, newNopMetrics())

	if err := p.Process(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil update")
	}
	if err := p.Process(context.Background(), update("", 1700000000)); err == nil {
		t.Fatalf("expected error for empty symbol")
	}
	if err := p.Process(context.Background(), update("RELIANCE", 0)); err == nil {
		t.Fatalf("expected error for zero timestamp")
	}
	if len(proc.seen) != 0 {
		t.Fatalf("invalid updates must not reach downstream")
	}
}

func TestPipelineForwardsValidUpdate(t *testing.T) {
	proc := &recordingProc{}
	p := NewRealtimePipeline(proc, newNopMetrics())

	if err := p.Process(context.Background(), update("RELIANCE", 1700000000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(proc.seen) != 1 {
		t.Fatalf("expected 1 forwarded update, got %d", len(proc.seen))
	}
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	proc := &recordingProc{}
	p := NewRealtimePipeline(proc, newNopMetrics(), WithMaxRPS(1))

	ctx := context.Background()
	if err := p.Process(ctx, update("TCS", 1700000000)); err != nil {
		t.Fatalf("first update: %v", err)
	}
	// immediate second update for the same symbol gets dropped silently
	if err := p.Process(ctx, update("TCS", 1700000001)); err != nil {
		t.Fatalf("throttled update must not error: %v", err)
	}
	if len(proc.seen) != 1 {
		t.Fatalf("expected throttle drop, downstream saw %d", len(proc.seen))
	}
	// a different symbol is not throttled
	if err := p.Process(ctx, update("INFY", 1700000000)); err != nil {
		t.Fatalf("other symbol: %v", err)
	}
	if len(proc.seen) != 2 {
		t.Fatalf("expected per-symbol throttle, downstream saw %d", len(proc.seen))
	}
}

func TestPipelineBuffersOnDownstreamFailure(t *testing.T) {
	proc := &recordingProc{err: errors.New("backend down")}
	m := newNopMetrics()
	p := NewRealtimePipeline(proc, m, WithBufferSize(4))

	if err := p.Process(context.Background(), update("RELIANCE", 1700000000)); err == nil {
		t.Fatalf("expected downstream error to propagate")
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("expected update buffered, buffer has %d", len(p.bufCh))
	}

	// once downstream recovers, Start drains the buffer
	proc.mu.Lock()
	proc.err = nil
	proc.mu.Unlock()
	p.Start(context.Background())
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for {
		proc.mu.Lock()
		n := len(proc.seen)
		proc.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("buffered update was not drained")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

type batchingProc struct {
	recordingProc
	batches [][]*models.LiveUpdate
}

func (p *batchingProc) ProcessBatch(ctx context.Context, updates []*models.LiveUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, updates)
	return nil
}

func TestPipelineFlushesBufferInBatches(t *testing.T) {
	proc := &batchingProc{recordingProc: recordingProc{err: errors.New("backend down")}}
	p := NewRealtimePipeline(proc, newNopMetrics(),
		WithBufferSize(8),
		WithBatchFlush(2, 50*time.Millisecond),
	)

	ctx := context.Background()
	if err := p.Process(ctx, update("TCS", 1700000000)); err == nil {
		t.Fatalf("expected downstream error to propagate")
	}
	if err := p.Process(ctx, update("INFY", 1700000000)); err == nil {
		t.Fatalf("expected downstream error to propagate")
	}
	if len(p.bufCh) != 2 {
		t.Fatalf("expected 2 buffered updates, got %d", len(p.bufCh))
	}

	p.Start(ctx)
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for {
		proc.mu.Lock()
		total := 0
		for _, b := range proc.batches {
			total += len(b)
		}
		proc.mu.Unlock()
		if total == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected 2 updates flushed in batches, got %d", total)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestPipelineTransformHook(t *testing.T) {
	proc := &recordingProc{}
	p := NewRealtimePipeline(proc, newNopMetrics(), WithTransform(func(u *models.LiveUpdate) *models.LiveUpdate {
		u.Candle.Close = 42
		return u
	}))

	if err := p.Process(context.Background(), update("TCS", 1700000000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proc.seen[0].Candle.Close != 42 {
		t.Fatalf("transform not applied, close=%v", proc.seen[0].Candle.Close)
	}
}
