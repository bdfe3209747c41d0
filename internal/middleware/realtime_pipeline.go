package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ChartFeed/internal/domain/models"
	domrepo "ChartFeed/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, u *models.LiveUpdate) error
}

// BatchProc is implemented by processors that can flush several buffered
// updates in one backend call.
type BatchProc interface {
	ProcessBatch(ctx context.Context, updates []*models.LiveUpdate) error
}

// RealtimePipeline sits between the quote stream and the update backend.
// It validates, filters/throttles, optionally transforms, and buffers when downstream is unavailable.
type RealtimePipeline struct {
	proc       Proc
	metrics    domrepo.Metrics
	maxRPS     int
	bufSize    int
	flushBatch int
	flushEvery time.Duration
	bufCh      chan *models.LiveUpdate
	stopCh     chan struct{}
	started    bool
	mu         sync.Mutex
	lastSeen   map[string]time.Time // per-symbol last accepted time
	// simple format transform hook (optional)
	transform func(*models.LiveUpdate) *models.LiveUpdate
	// metrics
	bufDepthGauge func(int)
	throttleWarn  func(string)
}

type PipelineOption func(*RealtimePipeline)

// WithMaxRPS sets the max updates per second per symbol.
func WithMaxRPS(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithBatchFlush makes the retry flusher collect up to size buffered
// updates and hand them to a BatchProc downstream in one call, flushing
// at least every interval. Ignored when the downstream cannot batch.
func WithBatchFlush(size int, every time.Duration) PipelineOption {
	return func(p *RealtimePipeline) {
		if size > 1 {
			p.flushBatch = size
		}
		if every > 0 {
			p.flushEvery = every
		}
	}
}

// NewRealtimePipeline creates a new pipeline.
func NewRealtimePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *RealtimePipeline {
	p := &RealtimePipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   20,   // default throttle per symbol
		bufSize:  1000, // default buffer
		bufCh:    make(chan *models.LiveUpdate, 1000),
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.LiveUpdate, p.bufSize)
	}
	// metrics hooks using domain metrics if available
	p.bufDepthGauge = func(n int) { p.metrics.RecordLatency("pipeline_buffer_depth", float64(n)) }
	p.throttleWarn = func(sym string) { p.metrics.RecordError("pipeline_throttle_" + sym) }
	return p
}

// Start launches background flushing of buffered updates.
func (p *RealtimePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	if bp, ok := p.proc.(BatchProc); ok && p.flushBatch > 1 {
		go p.drainBatched(ctx, bp)
		return
	}
	go p.drain(ctx)
}

// drain retries buffered updates one at a time.
func (p *RealtimePipeline) drain(ctx context.Context) {
	backoff := 50 * time.Millisecond
	for {
		select {
		case <-p.stopCh:
			return
		case u := <-p.bufCh:
			if u == nil {
				continue
			}
			if err := p.proc.Process(ctx, u); err != nil {
				// exponential backoff with cap
				if backoff < 2*time.Second {
					backoff *= 2
				}
				p.metrics.RecordError("pipeline_flush")
				time.Sleep(backoff)
				p.requeue(u)
			} else {
				backoff = 50 * time.Millisecond
			}
		}
	}
}

// drainBatched collects buffered updates and flushes them downstream in
// groups of flushBatch, or on every flushEvery tick, whichever first.
func (p *RealtimePipeline) drainBatched(ctx context.Context, bp BatchProc) {
	every := p.flushEvery
	if every <= 0 {
		every = time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	backoff := 50 * time.Millisecond
	var pending []*models.LiveUpdate
	flush := func() {
		if len(pending) == 0 {
			return
		}
		if err := bp.ProcessBatch(ctx, pending); err != nil {
			if backoff < 2*time.Second {
				backoff *= 2
			}
			p.metrics.RecordError("pipeline_flush")
			time.Sleep(backoff)
			for _, u := range pending {
				p.requeue(u)
			}
		} else {
			backoff = 50 * time.Millisecond
		}
		pending = nil
	}

	for {
		select {
		case <-p.stopCh:
			flush()
			return
		case u := <-p.bufCh:
			if u == nil {
				continue
			}
			pending = append(pending, u)
			if len(pending) >= p.flushBatch {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// requeue puts a failed update back on the buffer if there is room.
func (p *RealtimePipeline) requeue(u *models.LiveUpdate) {
	select {
	case p.bufCh <- u:
	default:
		p.metrics.RecordError("pipeline_buffer_drop")
	}
}

// Stop stops the background flushing.
func (p *RealtimePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards an update downstream, buffering on errors.
func (p *RealtimePipeline) Process(ctx context.Context, u *models.LiveUpdate) error {
	start := time.Now()
	if err := validateUpdate(u); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		u = p.transform(u)
		if err := validateUpdate(u); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	if !p.allow(u.Symbol, start) {
		// throttled; record and drop silently
		p.metrics.RecordError("pipeline_throttle")
		if p.throttleWarn != nil {
			p.throttleWarn(u.Symbol)
		}
		return nil
	}

	if err := p.proc.Process(ctx, u); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- u:
			if p.bufDepthGauge != nil {
				p.bufDepthGauge(len(p.bufCh))
			}
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

// WithTransform sets a transformation hook to modify update format.
func WithTransform(fn func(*models.LiveUpdate) *models.LiveUpdate) PipelineOption {
	return func(p *RealtimePipeline) { p.transform = fn }
}

func validateUpdate(u *models.LiveUpdate) error {
	if u == nil {
		return fmt.Errorf("update nil")
	}
	if u.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if u.Candle.Time <= 0 {
		return fmt.Errorf("timestamp invalid")
	}
	if u.Candle.Open < 0 || u.Candle.Close < 0 || u.Candle.Volume < 0 {
		return fmt.Errorf("negative price/volume")
	}
	return nil
}

func (p *RealtimePipeline) allow(symbol string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[symbol]
	if last.IsZero() {
		p.lastSeen[symbol] = now
		return true
	}
	if now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[symbol] = now
	return true
}
