package api

import (
	"encoding/json"
	"strings"
	"time"

	models "ChartFeed/internal/domain/models"
	domrepo "ChartFeed/internal/domain/repository"
	icache "ChartFeed/internal/service/cache"
	"ChartFeed/internal/service/metrics"
	"ChartFeed/internal/service/ratelimit"
	"ChartFeed/internal/usecase"
	xhttp "ChartFeed/pkg/http"
	xlogger "ChartFeed/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ChartEchoHandler implements Echo-based HTTP handlers following Clean Architecture.
type ChartEchoHandler struct {
	logger     *xlogger.Logger
	charts     *usecase.ChartUseCase
	indicators *usecase.IndicatorUseCase
	watchlist  *usecase.WatchlistUseCase
	quotes     domrepo.QuoteProvider
	directory  domrepo.SymbolDirectory

	cache         icache.BytesCache
	rl            *ratelimit.Limiter
	quoteCacheTTL time.Duration
}

func NewChartEchoHandler(
	logger *xlogger.Logger,
	charts *usecase.ChartUseCase,
	indicators *usecase.IndicatorUseCase,
	watchlist *usecase.WatchlistUseCase,
	quotes domrepo.QuoteProvider,
	directory domrepo.SymbolDirectory,
) *ChartEchoHandler {
	metrics.Register()
	return &ChartEchoHandler{
		logger:        logger,
		charts:        charts,
		indicators:    indicators,
		watchlist:     watchlist,
		quotes:        quotes,
		directory:     directory,
		rl:            ratelimit.New(),
		quoteCacheTTL: 5 * time.Second,
	}
}

// SetCache injects a bytes cache for quote responses.
func (h *ChartEchoHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetQuoteCacheTTL overrides the quote cache TTL.
func (h *ChartEchoHandler) SetQuoteCacheTTL(ttl time.Duration) {
	if ttl > 0 {
		h.quoteCacheTTL = ttl
	}
}

func (h *ChartEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/chart/:symbol", h.Chart)
	g.GET("/history/:symbol", h.History)
	g.GET("/quote/:symbol", h.Quote)
	g.GET("/indicators/:symbol", h.Indicator)
	g.GET("/watchlist", h.Watchlist)
	g.GET("/symbols", h.Symbols)
	g.GET("/market-status", h.MarketStatus)
}

func (h *ChartEchoHandler) Chart(c echo.Context) error {
	start := time.Now()
	endpoint := "chart"
	defer func() { metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.ChartRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.charts.GetChart(c.Request().Context(), usecase.GetChartParams{
		Symbol:     strings.ToUpper(req.Symbol),
		Resolution: domrepo.NormalizeResolution(req.Resolution),
	})
	if err != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("chart usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

// History serves candles recorded by the realtime leg from the archive.
// Range and limit come from query params; the range is aligned to the
// resolution's minute grid so adjacent requests hit the same buckets.
func (h *ChartEchoHandler) History(c echo.Context) error {
	start := time.Now()
	endpoint := "history"
	defer func() { metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		return xhttp.BadRequestResponse(c, xhttp.NewAppError("bad_request", "symbol", "symbol required", 400))
	}

	res := domrepo.Resolution(c.QueryParam("resolution"))
	if res == "" {
		res = domrepo.Res1m
	}
	now := time.Now().UTC()
	from := xhttp.ParseTimeDefault(c.QueryParam("from"), now.Add(-24*time.Hour))
	to := xhttp.ParseTimeDefault(c.QueryParam("to"), now)
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 0)
	from, to = xhttp.AlignFromTo(from, to, string(res))

	out, err := h.charts.GetLiveHistory(c.Request().Context(), usecase.GetLiveHistoryParams{
		Symbol:     symbol,
		Resolution: res,
		From:       from,
		To:         to,
		Limit:      limit,
	})
	if err != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("history usecase error", xlogger.String("symbol", symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *ChartEchoHandler) Quote(c echo.Context) error {
	start := time.Now()
	endpoint := "quote"
	defer func() { metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.QuoteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol := strings.ToUpper(req.Symbol)
	if !h.rl.Allow(c.RealIP()+":quote", 5, 2) {
		h.logger.Warn("quote rate_limited", xlogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("rate_limited", "", "rate limited", 429))
	}

	cacheKey := "quote:" + symbol
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
			h.logger.Warn("quote cache_get_error", xlogger.Error(err))
		} else if ok {
			var q models.Quote
			if err := json.Unmarshal(b, &q); err == nil {
				return xhttp.SuccessResponse(c, &q)
			}
		}
	}

	q, err := h.quotes.FetchQuote(c.Request().Context(), symbol)
	if err != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("quote fetch error", xlogger.String("symbol", symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if h.cache != nil {
		if b, err := json.Marshal(q); err == nil {
			if err := h.cache.SetBytes(cacheKey, b, h.quoteCacheTTL); err != nil {
				h.logger.Warn("quote cache_set_error", xlogger.Error(err))
			}
		}
	}
	return xhttp.SuccessResponse(c, q)
}

func (h *ChartEchoHandler) Indicator(c echo.Context) error {
	start := time.Now()
	endpoint := "indicator"
	defer func() { metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.IndicatorRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.indicators.GetIndicator(c.Request().Context(), usecase.GetIndicatorParams{
		Symbol:     strings.ToUpper(req.Symbol),
		Resolution: domrepo.NormalizeResolution(req.Resolution),
		Kind:       req.Kind,
		Period:     req.Period,
		Multiplier: req.Multiplier,
	})
	if err != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("indicator usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ChartEchoHandler) Watchlist(c echo.Context) error {
	start := time.Now()
	endpoint := "watchlist"
	defer func() { metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.WatchlistRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	var symbols []string
	if req.Symbols != "" {
		for _, s := range strings.Split(req.Symbols, ",") {
			if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
				symbols = append(symbols, s)
			}
		}
	}
	quotes := h.watchlist.GetQuotes(c.Request().Context(), symbols)
	return xhttp.ListResponse(c, quotes, int64(len(quotes)))
}

func (h *ChartEchoHandler) Symbols(c echo.Context) error {
	start := time.Now()
	endpoint := "symbols"
	defer func() { metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	cacheKey := "symbols:all"
	if h.cache != nil {
		if b, ok, _ := h.cache.GetBytes(cacheKey); ok {
			var syms []string
			if err := json.Unmarshal(b, &syms); err == nil {
				return xhttp.ListResponse(c, syms, int64(len(syms)))
			}
		}
	}
	syms, err := h.directory.FetchSymbols(c.Request().Context())
	if err != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("symbols fetch error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if h.cache != nil {
		if b, err := json.Marshal(syms); err == nil {
			_ = h.cache.SetBytes(cacheKey, b, time.Hour)
		}
	}
	return xhttp.ListResponse(c, syms, int64(len(syms)))
}

func (h *ChartEchoHandler) MarketStatus(c echo.Context) error {
	start := time.Now()
	endpoint := "market_status"
	defer func() { metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	status, err := h.directory.FetchMarketStatus(c.Request().Context())
	if err != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("market status fetch error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, status)
}
