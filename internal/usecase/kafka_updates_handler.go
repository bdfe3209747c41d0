package usecase

import (
	"context"
	"encoding/json"
	"time"

	"ChartFeed/internal/domain/models"
	domrepo "ChartFeed/internal/domain/repository"
	pkgkafka "ChartFeed/pkg/kafka"
)

// KafkaUpdatesHandler consumes live-update messages and archives them.
type KafkaUpdatesHandler struct {
	topic   string
	archive domrepo.Archive
	metrics domrepo.Metrics
}

func NewKafkaUpdatesHandler(topic string, archive domrepo.Archive, metrics domrepo.Metrics) *KafkaUpdatesHandler {
	return &KafkaUpdatesHandler{topic: topic, archive: archive, metrics: metrics}
}

func (h *KafkaUpdatesHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, t, o, h, l, c, v}
func (h *KafkaUpdatesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		T      int64   `json:"t"`
		O      float64 `json:"o"`
		H      float64 `json:"h"`
		L      float64 `json:"l"`
		C      float64 `json:"c"`
		V      float64 `json:"v"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}
	// E2E latency from event time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.T, 0)).Seconds())

	start := time.Now()
	err := h.archive.Store(ctx, &models.LiveUpdate{
		Symbol: m.Symbol,
		Candle: models.Candle{Time: m.T, Open: m.O, High: m.H, Low: m.L, Close: m.C, Volume: m.V},
	})
	h.metrics.RecordLatency("archive_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordUpdateSent("clickhouse", m.Symbol)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaUpdatesHandler)(nil)
