package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ChartFeed/internal/domain/models"
	domrepo "ChartFeed/internal/domain/repository"
	"ChartFeed/internal/series"
	icache "ChartFeed/internal/service/cache"
	xlogger "ChartFeed/pkg/logger"
)

// ChartUseCase produces clean, gap-free chart series: it fetches raw
// chunks from the provider, merges them, reconciles staleness against the
// live quote, and resamples to the requested resolution.
type ChartUseCase struct {
	history domrepo.HistoryProvider
	quotes  domrepo.QuoteProvider
	cache   icache.BytesCache
	metrics domrepo.Metrics
	logger  *xlogger.Logger
	archive domrepo.Archive

	cacheTTL   time.Duration
	maxCandles int
	now        func() time.Time
}

// NewChartUseCase creates a ChartUseCase. cache may be nil to disable caching.
func NewChartUseCase(
	history domrepo.HistoryProvider,
	quotes domrepo.QuoteProvider,
	cache icache.BytesCache,
	metrics domrepo.Metrics,
	logger *xlogger.Logger,
	cacheTTL time.Duration,
	maxCandles int,
) *ChartUseCase {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &ChartUseCase{
		history:    history,
		quotes:     quotes,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
		cacheTTL:   cacheTTL,
		maxCandles: maxCandles,
		now:        time.Now,
	}
}

// SetArchive injects the live-candle archive backing GetLiveHistory.
func (uc *ChartUseCase) SetArchive(a domrepo.Archive) { uc.archive = a }

type GetChartParams struct {
	Symbol     string
	Resolution domrepo.Resolution
}

type GetChartResult struct {
	Symbol     string          `json:"symbol"`
	Resolution string          `json:"resolution"`
	Count      int             `json:"count"`
	Candles    []models.Candle `json:"candles"`
}

// GetChart returns the candle series for a symbol at the requested
// resolution. Intraday resolutions aggregate the session's minute
// records; calendar resolutions aggregate the reconciled daily series.
func (uc *ChartUseCase) GetChart(ctx context.Context, p GetChartParams) (*GetChartResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if !domrepo.IsValidResolution(p.Resolution) {
		return nil, fmt.Errorf("unsupported resolution: %s", p.Resolution)
	}

	start := time.Now()
	var (
		candles []models.Candle
		err     error
	)
	if p.Resolution.IsIntraday() {
		candles, err = uc.intradaySeries(ctx, p.Symbol, p.Resolution.Minutes())
	} else {
		candles, err = uc.calendarSeries(ctx, p.Symbol, p.Resolution)
	}
	if err != nil {
		return nil, err
	}

	if uc.maxCandles > 0 && len(candles) > uc.maxCandles {
		candles = candles[len(candles)-uc.maxCandles:]
	}

	if uc.metrics != nil {
		uc.metrics.RecordChartServed(string(p.Resolution))
		uc.metrics.RecordLatency("get_chart", time.Since(start).Seconds())
	}
	return &GetChartResult{
		Symbol:     p.Symbol,
		Resolution: string(p.Resolution),
		Count:      len(candles),
		Candles:    candles,
	}, nil
}

type GetLiveHistoryParams struct {
	Symbol     string
	Resolution domrepo.Resolution
	From       time.Time
	To         time.Time
	Limit      int
}

// GetLiveHistory serves candles recorded by the realtime leg. The archive
// returns minute-grained rows ascending; they are aggregated onto the
// requested minute grid before returning.
func (uc *ChartUseCase) GetLiveHistory(ctx context.Context, p GetLiveHistoryParams) (*GetChartResult, error) {
	if uc.archive == nil {
		return nil, fmt.Errorf("live history: archive not configured")
	}
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if !p.Resolution.IsIntraday() {
		return nil, fmt.Errorf("unsupported live resolution: %s", p.Resolution)
	}

	start := time.Now()
	candles, err := uc.archive.Candles(ctx, p.Symbol, p.From, p.To, p.Limit)
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.RecordError("live_history")
		}
		return nil, fmt.Errorf("live history: %w", err)
	}
	candles = series.ResampleMinutes(candles, p.Resolution.Minutes())

	if uc.metrics != nil {
		uc.metrics.RecordChartServed(string(p.Resolution))
		uc.metrics.RecordLatency("get_live_history", time.Since(start).Seconds())
	}
	return &GetChartResult{
		Symbol:     p.Symbol,
		Resolution: string(p.Resolution),
		Count:      len(candles),
		Candles:    candles,
	}, nil
}

// intradaySeries merges the session's minute records and aggregates them
// onto the requested minute grid.
func (uc *ChartUseCase) intradaySeries(ctx context.Context, symbol string, minutes int) ([]models.Candle, error) {
	chunks, err := uc.history.FetchIntraday(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("intraday chart: %w", err)
	}
	return series.ResampleMinutes(series.MergeChunks(chunks), minutes), nil
}

// calendarSeries builds the reconciled daily base series (cached) and
// resamples it to weeks or months when asked.
func (uc *ChartUseCase) calendarSeries(ctx context.Context, symbol string, res domrepo.Resolution) ([]models.Candle, error) {
	daily, err := uc.dailySeries(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return series.ResampleCalendar(daily, res), nil
}

// dailySeries is the merge+reconcile pipeline over chunked history. The
// result is cached because every calendar resolution derives from it.
func (uc *ChartUseCase) dailySeries(ctx context.Context, symbol string) ([]models.Candle, error) {
	cacheKey := "chart:daily:" + symbol
	if uc.cache != nil {
		if b, ok, _ := uc.cache.GetBytes(cacheKey); ok {
			var cached []models.Candle
			if err := json.Unmarshal(b, &cached); err == nil {
				return cached, nil
			}
		}
	}

	chunks, err := uc.history.FetchHistory(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("daily chart: %w", err)
	}
	merged := series.MergeChunks(chunks)

	// The quote is optional input: reconciliation degrades to a bare
	// time shift when it is missing.
	var quote *models.Quote
	if uc.quotes != nil {
		q, qerr := uc.quotes.FetchQuote(ctx, symbol)
		if qerr != nil {
			if uc.logger != nil {
				uc.logger.Warn("quote unavailable for reconciliation",
					xlogger.String("symbol", symbol),
					xlogger.Error(qerr),
				)
			}
			if uc.metrics != nil {
				uc.metrics.RecordError("reconcile_quote")
			}
		} else {
			quote = q
		}
	}
	reconciled := series.Reconcile(merged, uc.now().Unix(), quote)

	if uc.cache != nil {
		if b, err := json.Marshal(reconciled); err == nil {
			_ = uc.cache.SetBytes(cacheKey, b, uc.cacheTTL)
		}
	}
	if uc.logger != nil {
		uc.logger.Debug("daily series built",
			xlogger.String("symbol", symbol),
			xlogger.Int("chunks", len(chunks)),
			xlogger.Int("candles", len(reconciled)),
		)
	}
	return reconciled, nil
}
