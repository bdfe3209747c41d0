package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ChartFeed/internal/domain/models"
)

type stubPublisher struct {
	published []*models.LiveUpdate
	err       error
}

func (s *stubPublisher) Publish(ctx context.Context, u *models.LiveUpdate) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, u)
	return nil
}

func (s *stubPublisher) PublishBatch(ctx context.Context, updates []*models.LiveUpdate) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, updates...)
	return nil
}

func (s *stubPublisher) Close() error { return nil }

type stubArchive struct {
	stored     []*models.LiveUpdate
	candles    []models.Candle
	candlesErr error
}

func (s *stubArchive) Store(ctx context.Context, u *models.LiveUpdate) error {
	s.stored = append(s.stored, u)
	return nil
}

func (s *stubArchive) StoreBatch(ctx context.Context, updates []*models.LiveUpdate) error {
	s.stored = append(s.stored, updates...)
	return nil
}

func (s *stubArchive) Candles(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.Candle, error) {
	return s.candles, s.candlesErr
}

func (s *stubArchive) Health(ctx context.Context) error { return nil }
func (s *stubArchive) Close() error                     { return nil }

type countMetrics struct {
	mu     sync.Mutex
	sent   int
	errors int
}

func (m *countMetrics) RecordUpdateSent(backend, symbol string) {
	m.mu.Lock()
	m.sent++
	m.mu.Unlock()
}

func (m *countMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors++
	m.mu.Unlock()
}

func (m *countMetrics) RecordLastPrice(symbol string, price float64) {}
func (m *countMetrics) RecordLatency(op string, seconds float64)     {}
func (m *countMetrics) RecordChartServed(resolution string)          {}

func liveUpdate(symbol string) *models.LiveUpdate {
	return &models.LiveUpdate{
		Symbol: symbol,
		Candle: models.Candle{Time: 1700000000, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 10},
	}
}

func TestProcessorRoutesToKafka(t *testing.T) {
	pub := &stubPublisher{}
	arch := &stubArchive{}
	m := &countMetrics{}
	p := NewUpdateProcessor(pub, arch, m, "kafka", 0, 0)

	if err := p.Process(context.Background(), liveUpdate("RELIANCE")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.published) != 1 || len(arch.stored) != 0 {
		t.Fatalf("expected kafka route, got pub=%d arch=%d", len(pub.published), len(arch.stored))
	}
	if m.sent != 1 {
		t.Fatalf("expected sent metric, got %d", m.sent)
	}
}

func TestProcessorRoutesToClickHouse(t *testing.T) {
	pub := &stubPublisher{}
	arch := &stubArchive{}
	p := NewUpdateProcessor(pub, arch, &countMetrics{}, "clickhouse", 0, 0)

	if err := p.Process(context.Background(), liveUpdate("TCS")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(arch.stored) != 1 || len(pub.published) != 0 {
		t.Fatalf("expected clickhouse route, got pub=%d arch=%d", len(pub.published), len(arch.stored))
	}
}

func TestProcessorUnknownBackend(t *testing.T) {
	p := NewUpdateProcessor(&stubPublisher{}, &stubArchive{}, &countMetrics{}, "mysql", 0, 0)
	if err := p.Process(context.Background(), liveUpdate("INFY")); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestProcessorPublishErrorCounted(t *testing.T) {
	pub := &stubPublisher{err: errors.New("broker down")}
	m := &countMetrics{}
	p := NewUpdateProcessor(pub, &stubArchive{}, m, "kafka", 0, 0)

	if err := p.Process(context.Background(), liveUpdate("INFY")); err == nil {
		t.Fatalf("expected publish error to propagate")
	}
	if m.errors != 1 {
		t.Fatalf("expected error metric, got %d", m.errors)
	}
}

func TestProcessorBatch(t *testing.T) {
	arch := &stubArchive{}
	m := &countMetrics{}
	p := NewUpdateProcessor(&stubPublisher{}, arch, m, "clickhouse", 500, 2*time.Second)
	if p.BatchSize() != 500 || p.BatchTimeout() != 2*time.Second {
		t.Fatalf("batch knobs not kept: size=%d timeout=%v", p.BatchSize(), p.BatchTimeout())
	}

	batch := []*models.LiveUpdate{liveUpdate("A"), liveUpdate("B")}
	if err := p.ProcessBatch(context.Background(), batch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(arch.stored) != 2 {
		t.Fatalf("expected 2 stored, got %d", len(arch.stored))
	}
	if m.sent != 2 {
		t.Fatalf("expected 2 sent metrics, got %d", m.sent)
	}
}

func TestKafkaUpdatesHandlerFoldsMillisAndStores(t *testing.T) {
	arch := &stubArchive{}
	h := NewKafkaUpdatesHandler("updates", arch, &countMetrics{})

	msg := []byte(`{"symbol":"RELIANCE","t":1700000000000,"o":100,"h":101,"l":99,"c":100.5,"v":10}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(arch.stored) != 1 {
		t.Fatalf("expected 1 archived update, got %d", len(arch.stored))
	}
	got := arch.stored[0]
	if got.Candle.Time != 1700000000 {
		t.Fatalf("expected ms timestamp folded to seconds, got %d", got.Candle.Time)
	}
	if got.Symbol != "RELIANCE" || got.Candle.Close != 100.5 {
		t.Fatalf("unexpected update %+v", got)
	}
}

func TestKafkaUpdatesHandlerRejectsGarbage(t *testing.T) {
	h := NewKafkaUpdatesHandler("updates", &stubArchive{}, &countMetrics{})
	if err := h.Handle(context.Background(), []byte("not json")); err == nil {
		t.Fatalf("expected unmarshal error")
	}
}
