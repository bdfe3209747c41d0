package usecase

import (
	"context"
	"fmt"
	"time"

	"ChartFeed/internal/domain/models"
	drepo "ChartFeed/internal/domain/repository"
)

// UpdateProcessor routes live updates to the configured backend.
type UpdateProcessor struct {
	pub     drepo.Publisher
	archive drepo.Archive
	metrics drepo.Metrics
	backend string
	batchSz int
	batchTO time.Duration
}

// NewUpdateProcessor creates a new UpdateProcessor instance.
func NewUpdateProcessor(
	pub drepo.Publisher,
	archive drepo.Archive,
	metrics drepo.Metrics,
	backend string,
	batchSz int,
	batchTO time.Duration,
) *UpdateProcessor {
	return &UpdateProcessor{
		pub:     pub,
		archive: archive,
		metrics: metrics,
		backend: backend,
		batchSz: batchSz,
		batchTO: batchTO,
	}
}

// BatchSize returns the configured flush batch size.
func (p *UpdateProcessor) BatchSize() int { return p.batchSz }

// BatchTimeout returns the configured flush interval.
func (p *UpdateProcessor) BatchTimeout() time.Duration { return p.batchTO }

// Process routes a single live update to the configured backend.
func (p *UpdateProcessor) Process(ctx context.Context, u *models.LiveUpdate) error {
	if u == nil {
		return fmt.Errorf("update is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, u)
	case "clickhouse":
		err = p.archive.Store(ctx, u)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process update: %w", err)
	}

	p.metrics.RecordUpdateSent(p.backend, u.Symbol)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())

	return nil
}

// ProcessBatch routes multiple live updates in a batch.
func (p *UpdateProcessor) ProcessBatch(ctx context.Context, updates []*models.LiveUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, updates)
	case "clickhouse":
		err = p.archive.StoreBatch(ctx, updates)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for _, u := range updates {
		p.metrics.RecordUpdateSent(p.backend, u.Symbol)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())

	return nil
}

// Close closes underlying resources if available.
func (p *UpdateProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.archive != nil {
		_ = p.archive.Close()
	}
}
