package usecase

import (
	"context"

	"ChartFeed/internal/domain/models"
	drepo "ChartFeed/internal/domain/repository"
	mid "ChartFeed/internal/middleware"
)

// UpdateCollector consumes live updates from the quote stream and feeds
// them through the realtime pipeline into the configured backend.
type UpdateCollector struct {
	stream  drepo.QuoteStream
	proc    *UpdateProcessor
	metrics drepo.Metrics
	pipe    *mid.RealtimePipeline
}

// NewUpdateCollector creates a new UpdateCollector instance.
func NewUpdateCollector(stream drepo.QuoteStream, proc *UpdateProcessor, metrics drepo.Metrics, pipe *mid.RealtimePipeline) *UpdateCollector {
	return &UpdateCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the quote stream is connected.
func (c *UpdateCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *UpdateCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	upCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, upCh, errCh)
	return nil
}

func (c *UpdateCollector) consume(ctx context.Context, upCh <-chan *models.LiveUpdate, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case u := <-upCh:
			if u == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, u)
			} else {
				_ = c.proc.Process(ctx, u)
			}
			c.metrics.RecordLastPrice(u.Symbol, u.Candle.Close)
		}
	}
}

func (c *UpdateCollector) Stop() error { return c.stream.Close() }

// Processor returns the underlying UpdateProcessor for lifecycle management.
func (c *UpdateCollector) Processor() *UpdateProcessor { return c.proc }

// Shutdown stops the pipeline and closes the stream.
func (c *UpdateCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
